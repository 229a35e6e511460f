package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/miekg/dns"

	"github.com/haukened/rr-dig/internal/dns/common/log"
)

// udpBufferSize bounds a single response datagram. Large enough for
// EDNS0-sized answers without truncation on typical paths.
const udpBufferSize = 4096

// udpConn carries bare DNS datagrams over a connected UDP socket.
// Connecting the socket keeps datagrams from other sources out.
type udpConn struct {
	conn   net.Conn
	logger log.Logger
}

func dialUDP(ctx context.Context, opts Options) (*udpConn, error) {
	d := &net.Dialer{}
	conn, err := d.DialContext(ctx, "udp", opts.Nameserver)
	if err != nil {
		return nil, fmt.Errorf(errDialFailed, opts.Nameserver, err)
	}
	opts.Logger.Debug(map[string]any{
		"protocol": "udp",
		"remote":   conn.RemoteAddr().String(),
	}, "connected to nameserver")
	return &udpConn{conn: conn, logger: opts.Logger}, nil
}

// Prepare is a no-op; UDP carries messages as-is.
func (c *udpConn) Prepare(*dns.Msg) {}

// Send transmits one message as a single datagram.
func (c *udpConn) Send(ctx context.Context, payload []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	}
	if _, err := c.conn.Write(payload); err != nil {
		return fmt.Errorf(errWriteFailed, err)
	}
	c.logger.Debug(map[string]any{
		"protocol": "udp",
		"size":     len(payload),
	}, "sent datagram")
	return nil
}

// Receive blocks until the next datagram arrives from the nameserver.
func (c *udpConn) Receive(ctx context.Context) ([]byte, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(deadline)
	}
	buffer := make([]byte, udpBufferSize)
	n, err := c.conn.Read(buffer)
	if err != nil {
		return nil, fmt.Errorf(errReadFailed, err)
	}
	c.logger.Debug(map[string]any{
		"protocol": "udp",
		"size":     n,
	}, "received datagram")
	return buffer[:n], nil
}

// Close releases the socket.
func (c *udpConn) Close() error {
	return c.conn.Close()
}

var _ Conn = (*udpConn)(nil)
