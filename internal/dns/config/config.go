package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/haukened/rr-dig/internal/dns/domain"
)

// ClientConfig holds the settings for a single client run, assembled from
// defaults, RRDIG_* environment variables, and command-line flags (highest
// precedence last).
type ClientConfig struct {
	// Nameserver is the server the one request goes to, in ip:port form,
	// e.g. "8.8.8.8:53" or "[2001:4860:4860::8888]:53".
	Nameserver string `koanf:"nameserver" validate:"required,ip_port"`

	// Protocol selects the transport used to reach the nameserver.
	Protocol string `koanf:"protocol" validate:"required,oneof=udp tcp tls https quic"`

	// TLSDNSName is the name expected in the certificate presented by the
	// remote server. Required for the tls, https, and quic protocols.
	TLSDNSName string `koanf:"tls-dns-name"`

	// ALPN is the application protocol offered during the TLS handshake.
	// When empty it is filled from the protocol's default: none for tls,
	// "h2" for https, "doq" for quic.
	ALPN string `koanf:"alpn"`

	// DoNotVerifyNameserverCert disables verification of the remote
	// certificate. The handshake still happens; only the trust decision
	// is bypassed, loudly.
	DoNotVerifyNameserverCert bool `koanf:"do-not-verify-nameserver-cert"`

	// Zone is the zone a dynamic update applies to, e.g. "example.com"
	// when updating www.example.com. Required for update operations only,
	// which is enforced at dispatch time rather than here.
	Zone string `koanf:"zone"`

	// Class is the record class sent with every operation.
	Class string `koanf:"class" validate:"required,oneof=IN CH HS NONE ANY"`

	// LogLevel controls log verbosity. The client is silent by default so
	// protocol output on stdout stays clean.
	LogLevel string `koanf:"log-level" validate:"required,oneof=off debug info warn error"`
}

// DEFAULT_CLIENT_CONFIG defines the default client settings: plain UDP,
// Internet class, and no logging.
var DEFAULT_CLIENT_CONFIG = ClientConfig{
	Protocol: "udp",
	Class:    "IN",
	LogLevel: "off",
}

// BindFlags declares every configuration flag on the given flag set, with
// defaults taken from DEFAULT_CLIENT_CONFIG. Flag names double as koanf
// keys, so declaring them here is the single source of truth for both.
func BindFlags(fs *pflag.FlagSet) {
	fs.StringP("nameserver", "n", DEFAULT_CLIENT_CONFIG.Nameserver, "nameserver to use, ip and port e.g. 8.8.8.8:53 or [2001:4860:4860::8888]:53 (port required)")
	fs.StringP("protocol", "p", DEFAULT_CLIENT_CONFIG.Protocol, "protocol type to use for the communication: udp, tcp, tls, https, or quic")
	fs.StringP("tls-dns-name", "t", DEFAULT_CLIENT_CONFIG.TLSDNSName, "TLS endpoint name, i.e. the name in the certificate presented by the remote server")
	fs.StringP("alpn", "a", DEFAULT_CLIENT_CONFIG.ALPN, "custom ALPN code for TLS, HTTPS, and QUIC (defaults: none for tls, h2 for https, doq for quic)")
	fs.Bool("do-not-verify-nameserver-cert", DEFAULT_CLIENT_CONFIG.DoNotVerifyNameserverCert, "DANGER: do not verify remote nameserver certificate")
	fs.StringP("zone", "z", DEFAULT_CLIENT_CONFIG.Zone, "zone, required for dynamic DNS updates, e.g. example.com if updating www.example.com")
	fs.String("class", DEFAULT_CLIENT_CONFIG.Class, "class of the record: IN, CH, HS, NONE, or ANY")
	fs.String("log-level", DEFAULT_CLIENT_CONFIG.LogLevel, "log verbosity: off, debug, info, warn, or error")
}

// validIPPort validates whether the provided field value is a valid IP address and port combination.
// It expects the value to be in the format "IP:Port". The function returns true if the IP address
// is valid and both the IP and port are non-empty; otherwise, it returns false.
func validIPPort(fl validator.FieldLevel) bool {
	// stringify the field value to get the IP:Port format.
	addr := fl.Field().String()
	// Split the address into IP and port.
	ip, port, err := net.SplitHostPort(addr)
	if err != nil || ip == "" || port == "" {
		return false
	}
	// Check if the IP address is valid.
	if net.ParseIP(ip) == nil {
		return false
	}
	// Check if the port is a valid number between 1 and 65535.
	portNum, err := strconv.ParseUint(port, 10, 16)
	return err == nil && portNum > 0 && portNum < 65536
}

// validateEncryptedTransport enforces the rules field tags cannot express:
// encrypted transports need the certificate name to verify (or bypass) the
// handshake against, and the https and quic transports cannot run without
// an application protocol to offer.
func validateEncryptedTransport(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(ClientConfig)
	p := domain.Protocol(cfg.Protocol)
	if p.IsEncrypted() && cfg.TLSDNSName == "" {
		sl.ReportError(cfg.TLSDNSName, "TLSDNSName", "TLSDNSName", "required_for_encrypted_protocol", cfg.Protocol)
	}
	if (p == domain.ProtocolHTTPS || p == domain.ProtocolQUIC) && cfg.ALPN == "" {
		sl.ReportError(cfg.ALPN, "ALPN", "ALPN", "required_for_protocol", cfg.Protocol)
	}
}

// envLoader is a function that loads environment variables with the prefix "RRDIG_".
// Underscores in variable names map to the hyphenated flag keys,
// e.g. RRDIG_TLS_DNS_NAME sets tls-dns-name.
// It can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "RRDIG_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "RRDIG_"))
			key = strings.ReplaceAll(key, "_", "-")
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads default configuration values into the provided Koanf instance
// using the structs provider and the DEFAULT_CLIENT_CONFIG struct. It returns an error
// if loading fails.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_CLIENT_CONFIG, "koanf"), nil)
}

// flagLoader merges explicitly set command-line flags over whatever the
// defaults and environment provided. Only changed flags are visited, so
// untouched flag defaults never clobber environment values.
var flagLoader = func(k *koanf.Koanf, fs *pflag.FlagSet) error {
	changed := map[string]any{}
	fs.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})
	return k.Load(confmap.Provider(changed, "."), nil)
}

// registerValidation registers the custom "ip_port" rule and the
// struct-level transport rules with the provided validator.
// Returns an error if registration fails.
var registerValidation = func(v *validator.Validate) error {
	if err := v.RegisterValidation("ip_port", validIPPort); err != nil {
		return err
	}
	v.RegisterStructValidation(validateEncryptedTransport, ClientConfig{})
	return nil
}

// Load assembles a ClientConfig from defaults, environment variables, and
// the given flag set, fills the protocol's ALPN default, and validates the
// result.
func Load(fs *pflag.FlagSet) (*ClientConfig, error) {
	k := koanf.New(".")

	// Load default values using structs provider.
	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	// Load environment variables with prefix "RRDIG_", using koanf/providers/env/v2 and Opt pattern.
	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	// Layer explicitly set flags on top.
	if fs != nil {
		if err := flagLoader(k, fs); err != nil {
			return nil, fmt.Errorf("error loading flags: %w", err)
		}
	}

	var cfg ClientConfig

	// Unmarshal the loaded configuration into ClientConfig struct.
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// The ALPN default depends on the chosen protocol, so it cannot live in
	// DEFAULT_CLIENT_CONFIG.
	if cfg.ALPN == "" {
		cfg.ALPN = domain.Protocol(cfg.Protocol).DefaultALPN()
	}

	// Validate the configuration.
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Register the custom validation rules.
	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
