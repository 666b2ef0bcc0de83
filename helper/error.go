package helper

import "fmt"

// Error annotates an error with the operation that failed.
type Error struct {
	Operation string
	Err       error
}

// NewError wraps err with the name of the failing operation.
// The result supports errors.Is and errors.As through Unwrap.
func NewError(operation string, err error) error {
	return &Error{
		Operation: operation,
		Err:       err,
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Operation
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
