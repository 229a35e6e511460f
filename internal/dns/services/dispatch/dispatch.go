// Package dispatch executes one client operation end to end: it builds the
// record set from the operation's rdata, announces what it is about to
// send, runs the operation through the session and renders the response.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/miekg/dns"

	"github.com/haukened/rr-dig/internal/dns/common/clock"
	"github.com/haukened/rr-dig/internal/dns/common/log"
	"github.com/haukened/rr-dig/internal/dns/common/rrdata"
	"github.com/haukened/rr-dig/internal/dns/domain"
)

// ErrZoneRequired indicates a dynamic update operation was requested
// without naming the zone it applies to.
var ErrZoneRequired = errors.New("zone is required for dynamic update operations")

// Dispatcher runs operations against a nameserver session.
type Dispatcher struct {
	client ClientHandle
	class  domain.RRClass
	zone   string
	out    io.Writer
	logger log.Logger
	clock  clock.Clock
}

// Options defines the collaborators and query context for a Dispatcher.
type Options struct {
	// Client is the session operations run on.
	Client ClientHandle

	// Class applies to every question and record. Defaults to IN.
	Class domain.RRClass

	// Zone names the zone dynamic updates apply to. Only create, append
	// and delete-record need it.
	Zone string

	// Out receives protocol output. Defaults to os.Stdout.
	Out io.Writer

	// Logger receives diagnostics. Defaults to the global logger.
	Logger log.Logger

	// Clock is the time source for measuring exchanges. Defaults to the
	// system clock.
	Clock clock.Clock
}

// New builds a Dispatcher. A client session is required.
func New(opts Options) (*Dispatcher, error) {
	if opts.Client == nil {
		return nil, errors.New("client session is required")
	}
	if opts.Class == 0 {
		opts.Class = domain.RRClassIN
	}
	if !opts.Class.IsValid() {
		return nil, fmt.Errorf("invalid record class: %d", uint16(opts.Class))
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	return &Dispatcher{
		client: opts.Client,
		class:  opts.Class,
		zone:   opts.Zone,
		out:    opts.Out,
		logger: opts.Logger,
		clock:  opts.Clock,
	}, nil
}

// Run executes op and renders the nameserver's response on out. Nothing is
// sent unless the operation validates and every rdata string parses.
func (d *Dispatcher) Run(ctx context.Context, op domain.Operation) error {
	if err := op.Validate(); err != nil {
		return err
	}
	if op.Kind.RequiresZone() && d.zone == "" {
		return ErrZoneRequired
	}

	d.logger.Debug(map[string]any{
		"operation": op.Kind.String(),
		"name":      op.Name,
		"type":      op.Type.String(),
		"class":     d.class.String(),
	}, "dispatching operation")

	start := d.clock.Now()
	response, err := d.execute(ctx, op)
	if err != nil {
		return err
	}
	d.logger.Debug(map[string]any{
		"operation": op.Kind.String(),
		"duration":  d.clock.Now().Sub(start).String(),
	}, "operation completed")

	fmt.Fprintln(d.out, "; received response")
	fmt.Fprint(d.out, response)
	return nil
}

// execute announces and performs one operation. The announcement prints
// after the record set builds, so a parse failure sends nothing.
func (d *Dispatcher) execute(ctx context.Context, op domain.Operation) (*dns.Msg, error) {
	switch op.Kind {
	case domain.OpQuery:
		fmt.Fprintf(d.out, "; sending query: %s %s %s\n", op.Name, d.class, op.Type)
		return d.client.Query(ctx, op.Name, d.class, op.Type)

	case domain.OpNotify:
		var rs *domain.RecordSet
		if len(op.RData) > 0 {
			var err error
			// A notify announces a change, it does not cache records, so
			// the TTL is fixed at zero.
			rs, err = d.buildRecordSet(op.Name, op.Type, 0, op.RData)
			if err != nil {
				return nil, err
			}
		}
		fmt.Fprintf(d.out, "; sending notify: %s %s %s\n", op.Name, d.class, op.Type)
		return d.client.Notify(ctx, op.Name, d.class, op.Type, rs)

	case domain.OpCreate:
		rs, err := d.buildRecordSet(op.Name, op.Type, op.TTL, op.RData)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(d.out, "; sending create: %s %s %s in %s\n", op.Name, d.class, op.Type, d.zone)
		return d.client.Create(ctx, rs, d.zone)

	case domain.OpAppend:
		rs, err := d.buildRecordSet(op.Name, op.Type, op.TTL, op.RData)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(d.out, "; sending append: %s %s %s in %s and must_exist(%t)\n",
			op.Name, d.class, op.Type, d.zone, op.MustExist)
		return d.client.Append(ctx, rs, d.zone, op.MustExist)

	case domain.OpDeleteRecord:
		// Deletion matches records by value; their TTL is irrelevant and
		// goes out as zero.
		rs, err := d.buildRecordSet(op.Name, op.Type, 0, op.RData)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(d.out, "; sending delete-record: %s %s %s from %s\n", op.Name, d.class, op.Type, d.zone)
		return d.client.DeleteByRData(ctx, rs, d.zone)

	default:
		return nil, fmt.Errorf("unknown operation: %q", string(op.Kind))
	}
}

// buildRecordSet parses every rdata string into the set, aborting on the
// first one that fails.
func (d *Dispatcher) buildRecordSet(name string, rrtype domain.RRType, ttl uint32, texts []string) (*domain.RecordSet, error) {
	rs, err := domain.NewRecordSet(name, rrtype, ttl)
	if err != nil {
		return nil, err
	}
	if err := rs.SetClass(d.class); err != nil {
		return nil, err
	}
	for _, text := range texts {
		rr, err := rrdata.Parse(name, rrtype, d.class, ttl, text)
		if err != nil {
			return nil, err
		}
		if err := rs.Add(rr); err != nil {
			return nil, err
		}
	}
	return rs, nil
}
