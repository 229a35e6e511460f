// Package wire builds the DNS messages the client sends: queries, NOTIFY
// messages, and the three dynamic update variants. Construction is pure;
// nothing here touches the network.
package wire

import (
	"github.com/miekg/dns"

	"github.com/haukened/rr-dig/internal/dns/domain"
)

// NewQuery builds a standard recursive query for one (name, class, type).
func NewQuery(name string, class domain.RRClass, rrtype domain.RRType) *dns.Msg {
	m := new(dns.Msg)
	m.Id = dns.Id()
	m.RecursionDesired = true
	m.Question = []dns.Question{{
		Name:   dns.Fqdn(name),
		Qtype:  uint16(rrtype),
		Qclass: uint16(class),
	}}
	return m
}

// NewNotify builds a NOTIFY message (RFC 1996) for one (name, class, type).
// A non-nil record set rides along in the answer section as the notify
// payload, per section 3.7.
func NewNotify(name string, class domain.RRClass, rrtype domain.RRType, rs *domain.RecordSet) *dns.Msg {
	m := new(dns.Msg)
	m.Id = dns.Id()
	m.Opcode = dns.OpcodeNotify
	m.Authoritative = true
	m.Question = []dns.Question{{
		Name:   dns.Fqdn(name),
		Qtype:  uint16(rrtype),
		Qclass: uint16(class),
	}}
	if rs != nil && rs.Len() > 0 {
		m.Answer = append(m.Answer, rs.Records()...)
	}
	return m
}

// NewCreate builds a dynamic update (RFC 2136) that inserts the record set
// into the zone, with the prerequisite that no RRset of that name and type
// exists yet (section 2.4.3).
func NewCreate(rs *domain.RecordSet, zone string) *dns.Msg {
	m := newUpdate(zone, rs.Class())
	if rs.Len() > 0 {
		// One prerequisite covers the whole set.
		m.RRsetNotUsed(rs.Records()[:1])
	}
	m.Insert(rs.Records())
	return m
}

// NewAppend builds a dynamic update that adds the record set's records to
// the zone. With mustExist the update carries the "RRset exists (value
// independent)" prerequisite (section 2.4.1), evaluated by the server.
func NewAppend(rs *domain.RecordSet, zone string, mustExist bool) *dns.Msg {
	m := newUpdate(zone, rs.Class())
	if mustExist && rs.Len() > 0 {
		m.RRsetUsed(rs.Records()[:1])
	}
	m.Insert(rs.Records())
	return m
}

// NewDeleteByRData builds a dynamic update that deletes exactly the records
// whose data matches the record set (section 2.5.4). The records go out
// class NONE with TTL zero, as deletion requires.
func NewDeleteByRData(rs *domain.RecordSet, zone string) *dns.Msg {
	m := newUpdate(zone, rs.Class())
	m.Remove(rs.Records())
	return m
}

// newUpdate builds the skeleton of a dynamic update message: UPDATE opcode
// and a zone section naming the zone, stated as a SOA question carrying the
// record set's class.
func newUpdate(zone string, class domain.RRClass) *dns.Msg {
	m := new(dns.Msg)
	m.Id = dns.Id()
	m.Opcode = dns.OpcodeUpdate
	m.Question = []dns.Question{{
		Name:   dns.Fqdn(zone),
		Qtype:  dns.TypeSOA,
		Qclass: uint16(class),
	}}
	return m
}
