// Package fault is the error taxonomy of a migration run.
//
// ConnectionError and DiscoveryError abort a run; TransferError and
// ValidationError stay local to one table.
package fault

import "fmt"

// Phase : where in a table transfer something broke
type Phase string

const (
	PhaseStart  Phase = "start"
	PhaseOpen   Phase = "open"
	PhaseRead   Phase = "read"
	PhaseCreate Phase = "create"
	PhaseAppend Phase = "append"
)

// ConnectionError : endpoint unreachable, rejected credentials or failed to close
type ConnectionError struct {
	Endpoint string
	Op       string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection %s %s : %v", e.Op, e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// DiscoveryError : listing tables at the source failed
type DiscoveryError struct {
	Endpoint string
	Err      error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("table discovery on %s : %v", e.Endpoint, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// TransferError : reading or writing a table failed. Chunk is 1-based and
// zero when the failure happened before any batch was produced.
type TransferError struct {
	Table string
	Phase Phase
	Chunk int
	Err   error
}

func (e *TransferError) Error() string {
	if e.Chunk > 0 {
		return fmt.Sprintf("transfer %s : %s chunk %d : %v", e.Table, e.Phase, e.Chunk, e.Err)
	}
	return fmt.Sprintf("transfer %s : %s : %v", e.Table, e.Phase, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// ValidationError : counting rows failed. A count mismatch is not an error.
type ValidationError struct {
	Table string
	Side  string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s : count on %s : %v", e.Table, e.Side, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
