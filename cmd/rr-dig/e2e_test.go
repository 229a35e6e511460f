package main

import (
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// answerFor builds a reply, answering queries with a fixed A record.
func answerFor(req *dns.Msg) *dns.Msg {
	resp := new(dns.Msg)
	resp.SetReply(req)
	if req.Opcode == dns.OpcodeQuery && len(req.Question) > 0 {
		rr, err := dns.NewRR(req.Question[0].Name + " 300 IN A 192.0.2.1")
		if err == nil {
			resp.Answer = append(resp.Answer, rr)
		}
	}
	return resp
}

// startUDPResponder runs a loopback nameserver that replies to every
// well-formed message until the test ends.
func startUDPResponder(t *testing.T) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })

	go func() {
		buf := make([]byte, 4096)
		for {
			n, addr, err := pc.ReadFrom(buf)
			if err != nil {
				return
			}
			var req dns.Msg
			if err := req.Unpack(buf[:n]); err != nil {
				continue
			}
			payload, err := answerFor(&req).Pack()
			if err != nil {
				continue
			}
			_, _ = pc.WriteTo(payload, addr)
		}
	}()
	return pc.LocalAddr().String()
}

// startTCPResponder runs a loopback nameserver speaking the two byte
// length framing of RFC 1035 section 4.2.2.
func startTCPResponder(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer func() { _ = conn.Close() }()
				for {
					header := make([]byte, 2)
					if _, err := io.ReadFull(conn, header); err != nil {
						return
					}
					payload := make([]byte, binary.BigEndian.Uint16(header))
					if _, err := io.ReadFull(conn, payload); err != nil {
						return
					}
					var req dns.Msg
					if err := req.Unpack(payload); err != nil {
						return
					}
					resp, err := answerFor(&req).Pack()
					if err != nil {
						return
					}
					framed := make([]byte, 2+len(resp))
					binary.BigEndian.PutUint16(framed, uint16(len(resp)))
					copy(framed[2:], resp)
					if _, err := conn.Write(framed); err != nil {
						return
					}
				}
			}(conn)
		}
	}()
	return ln.Addr().String()
}

func TestE2E_QueryOverUDP(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}
	addr := startUDPResponder(t)

	out, err := executeCommand(t, "-n", addr, "query", "www.example.com", "A")
	require.NoError(t, err)
	assert.Contains(t, out, "; using udp:"+addr+"\n")
	assert.Contains(t, out, "; sending query: www.example.com IN A\n")
	assert.Contains(t, out, "; received response\n")
	assert.Contains(t, out, "192.0.2.1")
}

func TestE2E_QueryOverTCP(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}
	addr := startTCPResponder(t)

	out, err := executeCommand(t, "-n", addr, "-p", "tcp", "query", "www.example.com", "AAAA")
	require.NoError(t, err)
	assert.Contains(t, out, "; using tcp:"+addr+"\n")
	assert.Contains(t, out, "; sending query: www.example.com IN AAAA\n")
	assert.Contains(t, out, "; received response\n")
}

func TestE2E_NotifyOverUDP(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}
	addr := startUDPResponder(t)

	out, err := executeCommand(t, "-n", addr, "notify", "www.example.com", "A")
	require.NoError(t, err)
	assert.Contains(t, out, "; sending notify: www.example.com IN A\n")
	assert.Contains(t, out, "; received response\n")
}

func TestE2E_UpdateLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}
	addr := startUDPResponder(t)

	out, err := executeCommand(t, "-n", addr, "-z", "example.com",
		"create", "www.example.com", "A", "300", "192.0.2.10")
	require.NoError(t, err)
	assert.Contains(t, out, "; sending create: www.example.com IN A in example.com\n")
	assert.Contains(t, out, "; received response\n")

	out, err = executeCommand(t, "-n", addr, "-z", "example.com",
		"append", "--must-exist", "www.example.com", "A", "300", "192.0.2.11")
	require.NoError(t, err)
	assert.Contains(t, out, "; sending append: www.example.com IN A in example.com and must_exist(true)\n")

	out, err = executeCommand(t, "-n", addr, "-z", "example.com",
		"delete-record", "www.example.com", "A", "192.0.2.10")
	require.NoError(t, err)
	assert.Contains(t, out, "; sending delete-record: www.example.com IN A from example.com\n")
}

func TestE2E_NameserverFromEnvironment(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}
	addr := startUDPResponder(t)
	t.Setenv("RRDIG_NAMESERVER", addr)

	out, err := executeCommand(t, "query", "www.example.com", "A")
	require.NoError(t, err)
	assert.Contains(t, out, "; using udp:"+addr+"\n")
	assert.Contains(t, out, "; received response\n")
}
