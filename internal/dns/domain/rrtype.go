package domain

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// RRType represents a DNS resource record type (e.g. A, AAAA, MX).
// Values map directly onto the IANA-assigned codes carried on the wire.
type RRType uint16

// Commonly referenced record types
const (
	RRTypeA    RRType = 1   // A - IPv4 address
	RRTypeNS   RRType = 2   // NS - Name server
	RRTypeSOA  RRType = 6   // SOA - Start of authority
	RRTypeTXT  RRType = 16  // TXT - Text
	RRTypeAAAA RRType = 28  // AAAA - IPv6 address
	RRTypeANY  RRType = 255 // ANY - Any type (query only)
)

// IsValid returns true if the RRType has an assigned textual name.
func (t RRType) IsValid() bool {
	if t == 0 {
		return false
	}
	_, ok := dns.TypeToString[uint16(t)]
	return ok
}

// String returns the textual representation of the RRType.
// For unknown types, it returns "UNKNOWN(<value>)".
func (t RRType) String() string {
	if s, ok := dns.TypeToString[uint16(t)]; ok && t != 0 {
		return s
	}
	return fmt.Sprintf("UNKNOWN(%d)", t)
}

// ParseRRType converts a record type name (case-insensitive) to its RRType
// value. Unknown names are an error rather than a zero value so callers can
// refuse bad input before it reaches the wire.
func ParseRRType(s string) (RRType, error) {
	code, ok := dns.StringToType[strings.ToUpper(strings.TrimSpace(s))]
	if !ok || code == 0 {
		return 0, fmt.Errorf("unknown record type: %q", s)
	}
	return RRType(code), nil
}
