package dispatch

import (
	"context"

	"github.com/miekg/dns"

	"github.com/haukened/rr-dig/internal/dns/domain"
)

// ClientHandle issues DNS operations over an established session and hands
// back the nameserver's response. The client gateway implements it; the
// dispatcher never touches the network itself.
type ClientHandle interface {
	// Query sends a standard query for name.
	Query(ctx context.Context, name string, class domain.RRClass, rrtype domain.RRType) (*dns.Msg, error)

	// Notify tells a nameserver that a zone changed (RFC 1996), optionally
	// carrying the changed records.
	Notify(ctx context.Context, name string, class domain.RRClass, rrtype domain.RRType, rs *domain.RecordSet) (*dns.Msg, error)

	// Create adds records to zone provided no RRset of that name and type
	// exists yet (RFC 2136).
	Create(ctx context.Context, rs *domain.RecordSet, zone string) (*dns.Msg, error)

	// Append adds records to an RRset in zone. With mustExist the RRset
	// must already be present or the update is refused.
	Append(ctx context.Context, rs *domain.RecordSet, zone string, mustExist bool) (*dns.Msg, error)

	// DeleteByRData removes exactly the given records from zone.
	DeleteByRData(ctx context.Context, rs *domain.RecordSet, zone string) (*dns.Msg, error)
}
