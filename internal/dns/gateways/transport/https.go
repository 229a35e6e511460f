package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/miekg/dns"
	"golang.org/x/net/http2"

	"github.com/haukened/rr-dig/internal/dns/common/log"
)

// dnsMessageType is the media type for DNS wire format in HTTP bodies
// (RFC 8484 section 6).
const dnsMessageType = "application/dns-message"

// httpsConn exchanges DNS messages as POSTs against the nameserver's
// /dns-query endpoint over a dedicated HTTP/2 connection (RFC 8484). The
// socket goes to the nameserver address while the request URL carries the
// TLS server name, so the two may differ.
type httpsConn struct {
	h2conn  *http2.ClientConn
	url     string
	pending *http.Response
	logger  log.Logger
}

// dialHTTPS establishes the TLS connection eagerly so handshake failures
// surface at build time rather than on the first request.
func dialHTTPS(ctx context.Context, opts Options) (*httpsConn, error) {
	d := &tls.Dialer{
		NetDialer: &net.Dialer{},
		Config:    opts.Trust.TLSConfig(opts.ServerName, opts.ALPN),
	}
	conn, err := d.DialContext(ctx, "tcp", opts.Nameserver)
	if err != nil {
		return nil, fmt.Errorf(errDialFailed, opts.Nameserver, err)
	}
	// The ClientConn owns the socket from here on.
	h2conn, err := (&http2.Transport{}).NewClientConn(conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to establish http/2 connection: %w", err)
	}
	opts.Logger.Debug(map[string]any{
		"protocol":    "https",
		"remote":      conn.RemoteAddr().String(),
		"server_name": opts.ServerName,
	}, "connected to nameserver")
	return &httpsConn{
		h2conn: h2conn,
		url:    fmt.Sprintf("https://%s/dns-query", opts.ServerName),
		logger: opts.Logger,
	}, nil
}

// Prepare zeroes the message ID. DoH requests should use ID 0 so identical
// queries produce identical, cacheable bodies (RFC 8484 section 4.1).
func (c *httpsConn) Prepare(m *dns.Msg) {
	m.Id = 0
}

// Send posts one message and holds the HTTP response for Receive.
func (c *httpsConn) Send(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", dnsMessageType)
	req.Header.Set("Accept", dnsMessageType)

	resp, err := c.h2conn.RoundTrip(req)
	if err != nil {
		return fmt.Errorf(errWriteFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return fmt.Errorf("nameserver returned %s", resp.Status)
	}
	c.pending = resp
	c.logger.Debug(map[string]any{
		"protocol": "https",
		"size":     len(payload),
	}, "sent request")
	return nil
}

// Receive reads the body of the response held by the last Send.
func (c *httpsConn) Receive(ctx context.Context) ([]byte, error) {
	if c.pending == nil {
		return nil, errors.New("no response in flight; send a request first")
	}
	resp := c.pending
	c.pending = nil
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != dnsMessageType {
		return nil, fmt.Errorf("unexpected response content type %q", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf(errReadFailed, err)
	}
	c.logger.Debug(map[string]any{
		"protocol": "https",
		"size":     len(body),
	}, "received response")
	return body, nil
}

// Close tears down the HTTP/2 connection and its socket.
func (c *httpsConn) Close() error {
	return c.h2conn.Close()
}

var _ Conn = (*httpsConn)(nil)
