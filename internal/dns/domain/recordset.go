package domain

import (
	"fmt"

	"github.com/miekg/dns"
)

// RecordSet is an ordered collection of records sharing one owner name,
// type, class, and TTL. It is the grouping dynamic update messages operate
// on: every record added to the set is restamped with the set's header so
// the group stays uniform on the wire. Insertion order is preserved.
type RecordSet struct {
	name    string
	rrtype  RRType
	class   RRClass
	ttl     uint32
	records []dns.RR
}

// NewRecordSet constructs an empty RecordSet for the given owner name, type,
// and TTL. The name is canonicalized to its fully qualified form. The class
// defaults to IN until SetClass is called.
func NewRecordSet(name string, rrtype RRType, ttl uint32) (*RecordSet, error) {
	if name == "" {
		return nil, fmt.Errorf("record set name must not be empty")
	}
	if !rrtype.IsValid() {
		return nil, fmt.Errorf("unsupported RRType: %d", rrtype)
	}
	return &RecordSet{
		name:   dns.Fqdn(name),
		rrtype: rrtype,
		class:  RRClassIN,
		ttl:    ttl,
	}, nil
}

// Name returns the fully qualified owner name shared by the set's records.
func (rs *RecordSet) Name() string {
	return rs.name
}

// Type returns the record type shared by the set's records.
func (rs *RecordSet) Type() RRType {
	return rs.rrtype
}

// Class returns the class stamped onto the set's records.
func (rs *RecordSet) Class() RRClass {
	return rs.class
}

// TTL returns the time to live stamped onto the set's records.
func (rs *RecordSet) TTL() uint32 {
	return rs.ttl
}

// SetClass changes the class of the set and restamps any records already
// added so the group never carries mixed classes.
func (rs *RecordSet) SetClass(class RRClass) error {
	if !class.IsValid() {
		return fmt.Errorf("unsupported RRClass: %d", class)
	}
	rs.class = class
	for _, rr := range rs.records {
		rr.Header().Class = uint16(class)
	}
	return nil
}

// Add appends a record to the set. The record must carry the set's type;
// its header is rewritten to the set's name, class, and TTL.
func (rs *RecordSet) Add(rr dns.RR) error {
	if rr == nil {
		return fmt.Errorf("record must not be nil")
	}
	if rr.Header().Rrtype != uint16(rs.rrtype) {
		return fmt.Errorf("record type %s does not match set type %s",
			RRType(rr.Header().Rrtype), rs.rrtype)
	}
	hdr := rr.Header()
	hdr.Name = rs.name
	hdr.Class = uint16(rs.class)
	hdr.Ttl = rs.ttl
	rs.records = append(rs.records, rr)
	return nil
}

// Records returns the set's records in insertion order.
func (rs *RecordSet) Records() []dns.RR {
	return rs.records
}

// Len returns the number of records in the set.
func (rs *RecordSet) Len() int {
	return len(rs.records)
}
