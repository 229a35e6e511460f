package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-dig/internal/dns/domain"
	"github.com/haukened/rr-dig/internal/dns/gateways/wire"
)

func TestFrameMessage(t *testing.T) {
	frame, err := frameMessage([]byte{0xde, 0xad, 0xbe, 0xef})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x04, 0xde, 0xad, 0xbe, 0xef}, frame)
}

func TestFrameMessage_Empty(t *testing.T) {
	frame, err := frameMessage(nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00}, frame)
}

func TestFrameMessage_TooLarge(t *testing.T) {
	_, err := frameMessage(make([]byte, 65536))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestReadFrame(t *testing.T) {
	payload, err := readFrame(bytes.NewReader([]byte{0x00, 0x03, 0x01, 0x02, 0x03}))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, payload)
}

func TestReadFrame_ShortHeader(t *testing.T) {
	_, err := readFrame(bytes.NewReader([]byte{0x00}))
	assert.Error(t, err)
}

func TestReadFrame_TruncatedPayload(t *testing.T) {
	_, err := readFrame(bytes.NewReader([]byte{0x00, 0x04, 0x01, 0x02}))
	assert.Error(t, err)
}

func TestFrameRoundTrip(t *testing.T) {
	message := []byte(strings.Repeat("x", 300))
	frame, err := frameMessage(message)
	require.NoError(t, err)
	payload, err := readFrame(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, message, payload)
}

// serveStreamResponder answers length-prefixed queries on every connection
// accepted from ln until the listener closes.
func serveStreamResponder(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go func(conn net.Conn) {
			defer conn.Close()
			for {
				payload, err := readFrame(conn)
				if err != nil {
					return
				}
				var query dns.Msg
				if query.Unpack(payload) != nil {
					return
				}
				raw, err := new(dns.Msg).SetReply(&query).Pack()
				if err != nil {
					return
				}
				frame, err := frameMessage(raw)
				if err != nil {
					return
				}
				if _, err := conn.Write(frame); err != nil {
					return
				}
			}
		}(conn)
	}
}

func exchangeOnce(t *testing.T, conn Conn) {
	t.Helper()
	query := wire.NewQuery("example.com.", domain.RRClassIN, domain.RRTypeA)
	conn.Prepare(query)

	payload, err := query.Pack()
	require.NoError(t, err)
	require.NoError(t, conn.Send(context.Background(), payload))

	raw, err := conn.Receive(context.Background())
	require.NoError(t, err)

	var response dns.Msg
	require.NoError(t, response.Unpack(raw))
	assert.True(t, response.Response)
	assert.Equal(t, query.Id, response.Id)
}

func TestStreamConn_TCPExchange(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go serveStreamResponder(ln)

	conn, err := Build(context.Background(), Options{
		Protocol:   domain.ProtocolTCP,
		Nameserver: ln.Addr().String(),
		Out:        &bytes.Buffer{},
	})
	require.NoError(t, err)
	defer conn.Close()

	// Two exchanges prove the connection survives between messages.
	exchangeOnce(t, conn)
	exchangeOnce(t, conn)
}

func TestStreamConn_TLSExchangeInsecure(t *testing.T) {
	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: []tls.Certificate{newTestCert(t)},
	})
	require.NoError(t, err)
	defer ln.Close()
	go serveStreamResponder(ln)

	out := &bytes.Buffer{}
	conn, err := Build(context.Background(), Options{
		Protocol:   domain.ProtocolTLS,
		Nameserver: ln.Addr().String(),
		ServerName: testServerName,
		Trust:      NewTrustPolicy(true, out),
		Out:        out,
	})
	require.NoError(t, err)
	defer conn.Close()

	exchangeOnce(t, conn)

	assert.Contains(t, out.String(), fmt.Sprintf("; using tls:%s dns_name:%s\n", ln.Addr(), testServerName))
	assert.Contains(t, out.String(), insecureWarning)
}

func TestStreamConn_TLSRejectsUntrustedCert(t *testing.T) {
	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: []tls.Certificate{newTestCert(t)},
	})
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.(*tls.Conn).Handshake()
			_ = conn.Close()
		}
	}()

	out := &bytes.Buffer{}
	_, err = Build(context.Background(), Options{
		Protocol:   domain.ProtocolTLS,
		Nameserver: ln.Addr().String(),
		ServerName: testServerName,
		Trust:      NewTrustPolicy(false, out),
		Out:        out,
	})
	require.Error(t, err)
	assert.NotContains(t, out.String(), insecureWarning)
}
