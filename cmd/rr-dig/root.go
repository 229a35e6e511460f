package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haukened/rr-dig/internal/dns/common/log"
	"github.com/haukened/rr-dig/internal/dns/config"
	"github.com/haukened/rr-dig/internal/dns/domain"
	"github.com/haukened/rr-dig/internal/dns/gateways/client"
	"github.com/haukened/rr-dig/internal/dns/gateways/transport"
	"github.com/haukened/rr-dig/internal/dns/services/dispatch"
)

// newRootCommand assembles the command tree: one subcommand per operation,
// with the connection settings shared as persistent flags.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "A command line DNS client",
		Long: `A command line DNS client.

This utility performs a single operation against a single DNS server,
over udp, tcp, tls, https, or quic. The create, append, and
delete-record operations are dynamic updates and require --zone.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.BindFlags(root.PersistentFlags())

	root.AddCommand(
		newQueryCommand(),
		newNotifyCommand(),
		newCreateCommand(),
		newAppendCommand(),
		newDeleteRecordCommand(),
	)
	return root
}

func newQueryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "query NAME TYPE",
		Short: "Query a name server for the record of the given type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rrtype, err := domain.ParseRRType(args[1])
			if err != nil {
				return err
			}
			op, err := domain.NewOperation(domain.OpQuery, args[0], rrtype, 0, nil)
			if err != nil {
				return err
			}
			return runOperation(cmd, op)
		},
	}
}

func newNotifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "notify NAME TYPE [RDATA...]",
		Short: "Notify a nameserver that a record has been updated",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rrtype, err := domain.ParseRRType(args[1])
			if err != nil {
				return err
			}
			op, err := domain.NewOperation(domain.OpNotify, args[0], rrtype, 0, args[2:])
			if err != nil {
				return err
			}
			return runOperation(cmd, op)
		},
	}
}

func newCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME TYPE TTL RDATA...",
		Short: "Create a new record in the target zone",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			rrtype, err := domain.ParseRRType(args[1])
			if err != nil {
				return err
			}
			ttl, err := parseTTL(args[2])
			if err != nil {
				return err
			}
			op, err := domain.NewOperation(domain.OpCreate, args[0], rrtype, ttl, args[3:])
			if err != nil {
				return err
			}
			return runOperation(cmd, op)
		},
	}
}

func newAppendCommand() *cobra.Command {
	var mustExist bool
	cmd := &cobra.Command{
		Use:   "append NAME TYPE TTL RDATA...",
		Short: "Append record data to a record set",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			rrtype, err := domain.ParseRRType(args[1])
			if err != nil {
				return err
			}
			ttl, err := parseTTL(args[2])
			if err != nil {
				return err
			}
			op, err := domain.NewOperation(domain.OpAppend, args[0], rrtype, ttl, args[3:])
			if err != nil {
				return err
			}
			op.MustExist = mustExist
			return runOperation(cmd, op)
		},
	}
	cmd.Flags().BoolVar(&mustExist, "must-exist", false, "the record set must already exist for the append to succeed")
	return cmd
}

func newDeleteRecordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-record NAME TYPE RDATA...",
		Short: "Delete a single record from a zone, the data must match the record",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rrtype, err := domain.ParseRRType(args[1])
			if err != nil {
				return err
			}
			op, err := domain.NewOperation(domain.OpDeleteRecord, args[0], rrtype, 0, args[2:])
			if err != nil {
				return err
			}
			return runOperation(cmd, op)
		},
	}
}

// parseTTL parses a decimal time to live value.
func parseTTL(s string) (uint32, error) {
	ttl, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid ttl %q: %w", s, err)
	}
	return uint32(ttl), nil
}

// runOperation drives one operation end to end: load configuration,
// connect to the nameserver, dispatch, and tear the session down.
func runOperation(cmd *cobra.Command, op domain.Operation) error {
	// Load configuration from environment and flags
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	// Configure global logging
	if err := log.Configure(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	logger := log.GetLogger()

	protocol, err := domain.ParseProtocol(cfg.Protocol)
	if err != nil {
		return err
	}
	class, err := domain.ParseRRClass(cfg.Class)
	if err != nil {
		return err
	}

	logger.Debug(map[string]any{
		"version":    version,
		"nameserver": cfg.Nameserver,
		"protocol":   cfg.Protocol,
		"class":      cfg.Class,
		"zone":       cfg.Zone,
		"operation":  string(op.Kind),
	}, "starting "+appName)

	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	// Connect to the nameserver
	conn, err := transport.Build(ctx, transport.Options{
		Protocol:   protocol,
		Nameserver: cfg.Nameserver,
		ServerName: cfg.TLSDNSName,
		ALPN:       cfg.ALPN,
		Trust:      transport.NewTrustPolicy(cfg.DoNotVerifyNameserverCert, out),
		Out:        out,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	session := client.Connect(conn, logger)
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn(map[string]any{"error": cerr.Error()}, "failed to close session")
		}
	}()

	// Dispatch the operation
	d, err := dispatch.New(dispatch.Options{
		Client: session,
		Class:  class,
		Zone:   cfg.Zone,
		Out:    out,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	return d.Run(ctx, op)
}
