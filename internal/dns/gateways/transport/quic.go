package transport

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/miekg/dns"
	"github.com/quic-go/quic-go"

	"github.com/haukened/rr-dig/internal/dns/common/log"
)

// quicConn exchanges DNS messages over QUIC streams (RFC 9250). Every
// message pair gets its own bidirectional stream with the same two octet
// framing used on TCP; the write side is closed after sending so the
// server knows the query is complete.
type quicConn struct {
	pconn  net.PacketConn
	tr     *quic.Transport
	conn   *quic.Conn
	stream *quic.Stream
	logger log.Logger
}

func dialQUIC(ctx context.Context, opts Options) (*quicConn, error) {
	raddr, err := net.ResolveUDPAddr("udp", opts.Nameserver)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve nameserver %s: %w", opts.Nameserver, err)
	}
	pconn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open udp socket: %w", err)
	}
	tr := &quic.Transport{Conn: pconn}
	conn, err := tr.Dial(ctx, raddr, opts.Trust.TLSConfig(opts.ServerName, opts.ALPN), &quic.Config{})
	if err != nil {
		_ = tr.Close()
		_ = pconn.Close()
		return nil, fmt.Errorf(errDialFailed, opts.Nameserver, err)
	}
	opts.Logger.Debug(map[string]any{
		"protocol":    "quic",
		"remote":      raddr.String(),
		"server_name": opts.ServerName,
	}, "connected to nameserver")
	return &quicConn{pconn: pconn, tr: tr, conn: conn, logger: opts.Logger}, nil
}

// Prepare zeroes the message ID as required for DNS over QUIC
// (RFC 9250 section 4.2.1).
func (c *quicConn) Prepare(m *dns.Msg) {
	m.Id = 0
}

// Send opens a fresh stream, writes one framed message and signals FIN.
// Some servers wait for the FIN before answering.
func (c *quicConn) Send(ctx context.Context, payload []byte) error {
	frame, err := frameMessage(payload)
	if err != nil {
		return err
	}
	stream, err := c.conn.OpenStreamSync(ctx)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetDeadline(deadline)
	}
	if _, err := stream.Write(frame); err != nil {
		return fmt.Errorf(errWriteFailed, err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close stream write side: %w", err)
	}
	c.stream = stream
	c.logger.Debug(map[string]any{
		"protocol": "quic",
		"size":     len(payload),
	}, "sent message")
	return nil
}

// Receive reads one framed message from the stream opened by the last Send.
func (c *quicConn) Receive(ctx context.Context) ([]byte, error) {
	if c.stream == nil {
		return nil, errors.New("no stream in flight; send a request first")
	}
	stream := c.stream
	c.stream = nil
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetDeadline(deadline)
	}
	payload, err := readFrame(stream)
	if err != nil {
		return nil, fmt.Errorf(errReadFailed, err)
	}
	c.logger.Debug(map[string]any{
		"protocol": "quic",
		"size":     len(payload),
	}, "received message")
	return payload, nil
}

// Close tears down the connection with DOQ_NO_ERROR (RFC 9250 section 4.3)
// and releases the local socket.
func (c *quicConn) Close() error {
	err := c.conn.CloseWithError(0, "")
	if trErr := c.tr.Close(); err == nil {
		err = trErr
	}
	if pcErr := c.pconn.Close(); err == nil {
		err = pcErr
	}
	return err
}

var _ Conn = (*quicConn)(nil)
