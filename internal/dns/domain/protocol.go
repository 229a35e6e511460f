package domain

import (
	"fmt"
	"strings"
)

// Protocol identifies the transport used to reach a nameserver.
type Protocol string

// Supported transport protocols
const (
	ProtocolUDP   Protocol = "udp"   // Plain DNS over UDP (RFC 1035)
	ProtocolTCP   Protocol = "tcp"   // Plain DNS over TCP (RFC 1035)
	ProtocolTLS   Protocol = "tls"   // DNS over TLS (RFC 7858)
	ProtocolHTTPS Protocol = "https" // DNS over HTTPS (RFC 8484)
	ProtocolQUIC  Protocol = "quic"  // DNS over QUIC (RFC 9250)
)

// IsValid returns true if the Protocol is one of the supported transports.
func (p Protocol) IsValid() bool {
	switch p {
	case ProtocolUDP, ProtocolTCP, ProtocolTLS, ProtocolHTTPS, ProtocolQUIC:
		return true
	default:
		return false
	}
}

// String returns the textual representation of the Protocol.
func (p Protocol) String() string {
	return string(p)
}

// IsEncrypted returns true for transports that carry DNS inside a TLS
// handshake and therefore require a TLS server name.
func (p Protocol) IsEncrypted() bool {
	switch p {
	case ProtocolTLS, ProtocolHTTPS, ProtocolQUIC:
		return true
	default:
		return false
	}
}

// DefaultALPN returns the application protocol negotiated when the user
// supplies none. TLS carries no default: what to offer is deployment
// specific. UDP and TCP never negotiate ALPN.
func (p Protocol) DefaultALPN() string {
	switch p {
	case ProtocolHTTPS:
		return "h2"
	case ProtocolQUIC:
		return "doq"
	default:
		return ""
	}
}

// ParseProtocol converts a protocol name (case-insensitive) to a Protocol value.
func ParseProtocol(s string) (Protocol, error) {
	p := Protocol(strings.ToLower(s))
	if !p.IsValid() {
		return "", fmt.Errorf("unsupported protocol: %q", s)
	}
	return p, nil
}
