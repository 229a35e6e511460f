package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net"

	"github.com/miekg/dns"

	"github.com/haukened/rr-dig/internal/dns/common/log"
)

// streamConn carries DNS messages over a byte stream using the two octet
// length prefix of RFC 1035 section 4.2.2. It serves both plain TCP and
// TLS connections since tls.Conn is a net.Conn.
type streamConn struct {
	conn   net.Conn
	br     *bufio.Reader
	logger log.Logger
}

func newStreamConn(conn net.Conn, logger log.Logger) *streamConn {
	return &streamConn{
		conn:   conn,
		br:     bufio.NewReader(conn),
		logger: logger,
	}
}

func dialTCP(ctx context.Context, opts Options) (*streamConn, error) {
	d := &net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", opts.Nameserver)
	if err != nil {
		return nil, fmt.Errorf(errDialFailed, opts.Nameserver, err)
	}
	opts.Logger.Debug(map[string]any{
		"protocol": "tcp",
		"remote":   conn.RemoteAddr().String(),
	}, "connected to nameserver")
	return newStreamConn(conn, opts.Logger), nil
}

// dialTLS completes the handshake before returning, so certificate errors
// surface here rather than on the first write.
func dialTLS(ctx context.Context, opts Options) (*streamConn, error) {
	d := &tls.Dialer{
		NetDialer: &net.Dialer{},
		Config:    opts.Trust.TLSConfig(opts.ServerName, opts.ALPN),
	}
	conn, err := d.DialContext(ctx, "tcp", opts.Nameserver)
	if err != nil {
		return nil, fmt.Errorf(errDialFailed, opts.Nameserver, err)
	}
	state := conn.(*tls.Conn).ConnectionState()
	opts.Logger.Debug(map[string]any{
		"protocol":    "tls",
		"remote":      conn.RemoteAddr().String(),
		"server_name": opts.ServerName,
		"alpn":        state.NegotiatedProtocol,
	}, "connected to nameserver")
	return newStreamConn(conn, opts.Logger), nil
}

// Prepare is a no-op; stream transports carry messages as-is.
func (c *streamConn) Prepare(*dns.Msg) {}

// Send writes one length-prefixed message to the stream.
func (c *streamConn) Send(ctx context.Context, payload []byte) error {
	frame, err := frameMessage(payload)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	}
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf(errWriteFailed, err)
	}
	c.logger.Debug(map[string]any{"size": len(payload)}, "sent message")
	return nil
}

// Receive blocks until one length-prefixed message has been read.
func (c *streamConn) Receive(ctx context.Context) ([]byte, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(deadline)
	}
	payload, err := readFrame(c.br)
	if err != nil {
		return nil, fmt.Errorf(errReadFailed, err)
	}
	c.logger.Debug(map[string]any{"size": len(payload)}, "received message")
	return payload, nil
}

// Close releases the connection.
func (c *streamConn) Close() error {
	return c.conn.Close()
}

// frameMessage prefixes payload with its length in network byte order. The
// prefix and payload form one buffer so the message goes out in a single
// write.
func frameMessage(payload []byte) ([]byte, error) {
	if len(payload) > math.MaxUint16 {
		return nil, fmt.Errorf("message too large for stream framing: %d bytes", len(payload))
	}
	frame := make([]byte, 2+len(payload))
	binary.BigEndian.PutUint16(frame, uint16(len(payload)))
	copy(frame[2:], payload)
	return frame, nil
}

// readFrame reads one length-prefixed message from r.
func readFrame(r io.Reader) ([]byte, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	payload := make([]byte, binary.BigEndian.Uint16(header[:]))
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

var _ Conn = (*streamConn)(nil)
