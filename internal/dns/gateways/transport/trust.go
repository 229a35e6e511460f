package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"os"
)

// insecureWarning is printed every time a certificate is accepted without
// verification.
const insecureWarning = ";!!!THIS IS NOT VERIFYING THE SERVER TLS CERTIFICATE!!!"

// TrustPolicy decides how much to believe a nameserver's TLS certificate.
// The default policy verifies against the system roots. The insecure policy
// accepts any certificate and announces that loudly on every handshake.
type TrustPolicy struct {
	insecure bool
	roots    *x509.CertPool
	out      io.Writer
}

// NewTrustPolicy returns the certificate policy for TLS based transports.
// With insecure set, verification is skipped entirely and each handshake
// prints a warning on out. Out defaults to os.Stdout.
func NewTrustPolicy(insecure bool, out io.Writer) *TrustPolicy {
	if out == nil {
		out = os.Stdout
	}
	p := &TrustPolicy{insecure: insecure, out: out}
	if !insecure {
		// A nil pool makes crypto/tls fall back to the platform verifier.
		if roots, err := x509.SystemCertPool(); err == nil {
			p.roots = roots
		}
	}
	return p
}

// Insecure reports whether certificate verification is disabled.
func (p *TrustPolicy) Insecure() bool {
	return p.insecure
}

// TLSConfig builds the client TLS configuration for serverName, offering
// alpn during the handshake when non-empty.
func (p *TrustPolicy) TLSConfig(serverName, alpn string) *tls.Config {
	cfg := &tls.Config{
		ServerName: serverName,
		RootCAs:    p.roots,
		MinVersion: tls.VersionTLS12,
	}
	if alpn != "" {
		cfg.NextProtos = []string{alpn}
	}
	if p.insecure {
		cfg.InsecureSkipVerify = true
		// VerifyConnection still runs with InsecureSkipVerify set, so the
		// warning appears once per handshake.
		cfg.VerifyConnection = func(tls.ConnectionState) error {
			fmt.Fprintln(p.out, insecureWarning)
			return nil
		}
	}
	return cfg
}
