package domain

import "fmt"

// OperationKind identifies which DNS operation a run performs.
type OperationKind string

// Supported operations
const (
	OpQuery        OperationKind = "query"
	OpNotify       OperationKind = "notify"
	OpCreate       OperationKind = "create"
	OpAppend       OperationKind = "append"
	OpDeleteRecord OperationKind = "delete-record"
)

// IsValid returns true if the OperationKind is one of the supported operations.
func (k OperationKind) IsValid() bool {
	switch k {
	case OpQuery, OpNotify, OpCreate, OpAppend, OpDeleteRecord:
		return true
	default:
		return false
	}
}

// String returns the textual representation of the OperationKind.
func (k OperationKind) String() string {
	return string(k)
}

// RequiresZone returns true for operations that modify a zone and therefore
// need a zone name supplied before they may run.
func (k OperationKind) RequiresZone() bool {
	switch k {
	case OpCreate, OpAppend, OpDeleteRecord:
		return true
	default:
		return false
	}
}

// RequiresRData returns true for operations that must carry at least one
// record data value. Notify may carry record data but does not require it.
func (k OperationKind) RequiresRData() bool {
	switch k {
	case OpCreate, OpAppend, OpDeleteRecord:
		return true
	default:
		return false
	}
}

// Operation captures one fully parsed command: which operation to send, for
// which name and type, and the record data accompanying it. Record data
// stays textual here; parsing against the record type happens when the
// request is built. TTL is meaningful for create and append only, notify
// and delete-record always send zero.
type Operation struct {
	Kind      OperationKind
	Name      string
	Type      RRType
	TTL       uint32
	RData     []string
	MustExist bool // append only: the RRset must already exist remotely
}

// NewOperation constructs an Operation and validates its shape.
func NewOperation(kind OperationKind, name string, rrtype RRType, ttl uint32, rdata []string) (Operation, error) {
	op := Operation{
		Kind:  kind,
		Name:  name,
		Type:  rrtype,
		TTL:   ttl,
		RData: rdata,
	}
	if err := op.Validate(); err != nil {
		return Operation{}, err
	}
	return op, nil
}

// Validate checks whether the Operation fields are structurally valid.
// Zone presence is not checked here: the zone travels separately and its
// precondition belongs to the dispatcher.
func (op Operation) Validate() error {
	if !op.Kind.IsValid() {
		return fmt.Errorf("unsupported operation: %q", op.Kind)
	}
	if op.Name == "" {
		return fmt.Errorf("operation name must not be empty")
	}
	if !op.Type.IsValid() {
		return fmt.Errorf("unsupported RRType: %d", op.Type)
	}
	if op.Kind.RequiresRData() && len(op.RData) == 0 {
		return fmt.Errorf("%s requires at least one record data value", op.Kind)
	}
	if op.MustExist && op.Kind != OpAppend {
		return fmt.Errorf("must_exist only applies to append")
	}
	return nil
}
