// Package transport dials a nameserver over one of the supported protocols
// and moves single DNS messages across the resulting connection. It handles
// all network and TLS concerns while leaving message construction to the
// wire package and exchange sequencing to the client gateway.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/miekg/dns"

	"github.com/haukened/rr-dig/internal/dns/common/log"
	"github.com/haukened/rr-dig/internal/dns/domain"
)

// Error message constants for consistent error handling
const (
	errNameserverRequired = "nameserver address is required"
	errDialFailed         = "failed to connect to %s: %w"
	errWriteFailed        = "write failed: %w"
	errReadFailed         = "read failed: %w"
)

// Sentinel errors for missing TLS parameters. The config layer rejects
// these combinations before they reach Build; the sentinels guard direct
// library use.
var (
	// ErrServerNameRequired indicates an encrypted protocol was selected
	// without a TLS DNS name to verify the nameserver against.
	ErrServerNameRequired = errors.New("tls dns name is required for encrypted protocols")

	// ErrALPNRequired indicates HTTPS or QUIC was selected without an
	// application protocol to negotiate during the handshake.
	ErrALPNRequired = errors.New("alpn protocol is required for https and quic")
)

// Conn is one established channel to one nameserver. Implementations wrap a
// single connection; callers drive it as send-then-receive pairs and close
// it when the exchange is done.
type Conn interface {
	// Prepare adjusts a message to the transport's requirements before it
	// is packed. HTTPS and QUIC zero the message ID per their RFCs.
	Prepare(m *dns.Msg)

	// Send transmits one packed DNS message.
	Send(ctx context.Context, payload []byte) error

	// Receive blocks until the transport yields one packed DNS message.
	Receive(ctx context.Context) ([]byte, error)

	// Close releases the underlying connection.
	Close() error
}

// Options defines the parameters for connecting to a nameserver.
type Options struct {
	// Protocol selects how the nameserver is reached.
	Protocol domain.Protocol

	// Nameserver is the host:port address to dial.
	Nameserver string

	// ServerName is the name the nameserver's TLS certificate must match.
	// Required for tls, https and quic.
	ServerName string

	// ALPN is the application protocol offered during the TLS handshake.
	// Required for https and quic.
	ALPN string

	// Trust decides how the nameserver's certificate is verified.
	// Defaults to system trust.
	Trust *TrustPolicy

	// Out receives the connection banner. Defaults to os.Stdout.
	Out io.Writer

	// Logger receives transport diagnostics. Defaults to the global logger.
	Logger log.Logger
}

// Build validates opts, announces the connection on opts.Out and dials the
// nameserver. The banner goes out before dialing so a failed dial still
// shows where the client was headed.
func Build(ctx context.Context, opts Options) (Conn, error) {
	if opts.Nameserver == "" {
		return nil, errors.New(errNameserverRequired)
	}
	if !opts.Protocol.IsValid() {
		return nil, fmt.Errorf("unsupported protocol: %q", string(opts.Protocol))
	}
	if opts.Protocol.IsEncrypted() && opts.ServerName == "" {
		return nil, fmt.Errorf("%w: %s", ErrServerNameRequired, opts.Protocol)
	}
	switch opts.Protocol {
	case domain.ProtocolHTTPS, domain.ProtocolQUIC:
		if opts.ALPN == "" {
			return nil, fmt.Errorf("%w: %s", ErrALPNRequired, opts.Protocol)
		}
	}

	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	if opts.Trust == nil {
		opts.Trust = NewTrustPolicy(false, opts.Out)
	}

	if opts.Protocol.IsEncrypted() {
		fmt.Fprintf(opts.Out, "; using %s:%s dns_name:%s\n", opts.Protocol, opts.Nameserver, opts.ServerName)
	} else {
		fmt.Fprintf(opts.Out, "; using %s:%s\n", opts.Protocol, opts.Nameserver)
	}

	switch opts.Protocol {
	case domain.ProtocolUDP:
		return dialUDP(ctx, opts)
	case domain.ProtocolTCP:
		return dialTCP(ctx, opts)
	case domain.ProtocolTLS:
		return dialTLS(ctx, opts)
	case domain.ProtocolHTTPS:
		return dialHTTPS(ctx, opts)
	case domain.ProtocolQUIC:
		return dialQUIC(ctx, opts)
	default:
		return nil, fmt.Errorf("unsupported protocol: %q", string(opts.Protocol))
	}
}
