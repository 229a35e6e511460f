// Package rrdata converts textual record data into resource records.
// Parsing is strict: a value either parses completely against its declared
// record type or the whole conversion fails.
package rrdata

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"

	"github.com/haukened/rr-dig/internal/dns/domain"
)

// Parse converts one textual record data value (e.g. "192.0.2.1" for an A
// record) into a resource record carrying the given owner name, type,
// class, and TTL. The value must be valid for the declared type; one value
// yields exactly one record.
func Parse(name string, rrtype domain.RRType, class domain.RRClass, ttl uint32, text string) (dns.RR, error) {
	if name == "" {
		return nil, fmt.Errorf("record name must not be empty")
	}
	if !rrtype.IsValid() {
		return nil, fmt.Errorf("unsupported RRType: %d", rrtype)
	}
	if !class.IsValid() {
		return nil, fmt.Errorf("unsupported RRClass: %d", class)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("record data must not be empty")
	}
	// A newline would smuggle a second zone-file entry past the parser,
	// which silently drops everything after the first record.
	if strings.ContainsAny(text, "\n\r") {
		return nil, fmt.Errorf("record data must be a single line")
	}

	entry := fmt.Sprintf("%s %d %s %s %s", dns.Fqdn(name), ttl, class, rrtype, text)
	rr, err := dns.NewRR(entry)
	if err != nil {
		return nil, fmt.Errorf("invalid %s record data %q: %w", rrtype, text, err)
	}
	if rr == nil {
		return nil, fmt.Errorf("invalid %s record data %q", rrtype, text)
	}
	if rr.Header().Rrtype != uint16(rrtype) {
		return nil, fmt.Errorf("record data %q parsed as %s, expected %s",
			text, domain.RRType(rr.Header().Rrtype), rrtype)
	}
	return rr, nil
}
