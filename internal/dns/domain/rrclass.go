package domain

import (
	"fmt"

	"github.com/miekg/dns"
)

// RRClass represents a DNS class (usually IN for Internet).
type RRClass uint16

// DNS Resource Record Class constants
const (
	RRClassIN   RRClass = 1   // IN - Internet
	RRClassCH   RRClass = 3   // CH - Chaos
	RRClassHS   RRClass = 4   // HS - Hesiod
	RRClassNONE RRClass = 254 // NONE - No class (update semantics)
	RRClassANY  RRClass = 255 // ANY - Any class (query only)
)

// IsValid returns true if the RRClass is one of the supported classes.
func (c RRClass) IsValid() bool {
	switch c {
	case RRClassIN, RRClassCH, RRClassHS, RRClassNONE, RRClassANY:
		return true
	default:
		return false
	}
}

// String returns the textual representation of the RRClass.
func (c RRClass) String() string {
	if s, ok := dns.ClassToString[uint16(c)]; ok && c.IsValid() {
		return s
	}
	return "UNKNOWN"
}

// ParseRRClass converts a class name to an RRClass value. Names are matched
// exactly as they appear in zone files (IN, CH, HS, NONE, ANY).
func ParseRRClass(s string) (RRClass, error) {
	code, ok := dns.StringToClass[s]
	if !ok || !RRClass(code).IsValid() {
		return 0, fmt.Errorf("unknown record class: %q", s)
	}
	return RRClass(code), nil
}
