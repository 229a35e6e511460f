// Package client maintains a request/response session against one
// nameserver. A background driver goroutine owns the connection and
// serializes exchanges, so callers see a plain blocking call while
// transport I/O stays in one place.
package client

import (
	"context"
	"fmt"

	"github.com/miekg/dns"

	"github.com/haukened/rr-dig/internal/dns/common/log"
	"github.com/haukened/rr-dig/internal/dns/domain"
	"github.com/haukened/rr-dig/internal/dns/gateways/transport"
	"github.com/haukened/rr-dig/internal/dns/gateways/wire"
	"github.com/haukened/rr-dig/internal/dns/services/dispatch"
)

// request carries one message through the driver goroutine.
type request struct {
	ctx  context.Context
	msg  *dns.Msg
	done chan result
}

type result struct {
	msg *dns.Msg
	err error
}

// Session exchanges DNS messages over one established connection.
type Session struct {
	conn     transport.Conn
	requests chan request
	logger   log.Logger
}

// Connect wraps an established connection in a session and starts its
// driver. The session owns the connection from here on.
func Connect(conn transport.Conn, logger log.Logger) *Session {
	if logger == nil {
		logger = log.GetLogger()
	}
	s := &Session{
		conn:     conn,
		requests: make(chan request),
		logger:   logger,
	}
	go s.drive()
	return s
}

// drive serializes exchanges until Close shuts the request channel.
func (s *Session) drive() {
	for req := range s.requests {
		resp, err := s.exchange(req.ctx, req.msg)
		req.done <- result{msg: resp, err: err}
	}
}

// exchange sends one message and reads until the matching response
// arrives. Payloads that fail to parse or answer a different message are
// discarded; over UDP a stray datagram must not end the exchange.
func (s *Session) exchange(ctx context.Context, m *dns.Msg) (*dns.Msg, error) {
	s.conn.Prepare(m)
	payload, err := m.Pack()
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	if err := s.conn.Send(ctx, payload); err != nil {
		return nil, err
	}
	for {
		raw, err := s.conn.Receive(ctx)
		if err != nil {
			return nil, err
		}
		resp := new(dns.Msg)
		if err := resp.Unpack(raw); err != nil {
			s.logger.Debug(map[string]any{
				"error": err.Error(),
				"size":  len(raw),
			}, "discarding unparsable payload")
			continue
		}
		if resp.Id != m.Id {
			s.logger.Debug(map[string]any{
				"expected": m.Id,
				"received": resp.Id,
			}, "discarding response to another message")
			continue
		}
		return resp, nil
	}
}

// send submits a message to the driver and blocks for its response.
func (s *Session) send(ctx context.Context, m *dns.Msg) (*dns.Msg, error) {
	done := make(chan result, 1)
	s.requests <- request{ctx: ctx, msg: m, done: done}
	res := <-done
	return res.msg, res.err
}

// Query sends a standard query for name.
func (s *Session) Query(ctx context.Context, name string, class domain.RRClass, rrtype domain.RRType) (*dns.Msg, error) {
	return s.send(ctx, wire.NewQuery(name, class, rrtype))
}

// Notify tells the nameserver that the zone at name changed.
func (s *Session) Notify(ctx context.Context, name string, class domain.RRClass, rrtype domain.RRType, rs *domain.RecordSet) (*dns.Msg, error) {
	return s.send(ctx, wire.NewNotify(name, class, rrtype, rs))
}

// Create adds rs to zone provided no RRset of that name and type exists.
func (s *Session) Create(ctx context.Context, rs *domain.RecordSet, zone string) (*dns.Msg, error) {
	return s.send(ctx, wire.NewCreate(rs, zone))
}

// Append adds rs to its RRset in zone.
func (s *Session) Append(ctx context.Context, rs *domain.RecordSet, zone string, mustExist bool) (*dns.Msg, error) {
	return s.send(ctx, wire.NewAppend(rs, zone, mustExist))
}

// DeleteByRData removes exactly the records in rs from zone.
func (s *Session) DeleteByRData(ctx context.Context, rs *domain.RecordSet, zone string) (*dns.Msg, error) {
	return s.send(ctx, wire.NewDeleteByRData(rs, zone))
}

// Close stops the driver and releases the connection. It must not be
// called while an exchange is in flight.
func (s *Session) Close() error {
	close(s.requests)
	return s.conn.Close()
}

var _ dispatch.ClientHandle = (*Session)(nil)
