package app

import "strings"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Operation tracks a CLI command that may change the catalog. Operations
// start in memory with ID=0; only mutating commands persist them, and the
// database assigns the ID that later versions the snapshot.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string
}

// NewOperation creates a new in-memory operation. The arguments are joined
// into the recorded parameters.
func NewOperation(operation string, args ...string) *Operation {
	return &Operation{
		Operation:  operation,
		Parameters: strings.Join(args, " "),
		Status:     StatusSuccess,
	}
}

// Persisted returns true if this operation has been saved to the database.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}

// Fail marks the operation as failed when err is non-nil and returns err.
func (op *Operation) Fail(err error) error {
	if err != nil {
		op.Status = StatusError
	}
	return err
}
