package hal

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by *Error.
var (
	ErrNotSupported = errors.New("operation not supported")
	ErrInvalidPort  = errors.New("invalid port")
	ErrUnavailable  = errors.New("hal unavailable")
)

// Error reports a failed HAL operation.
type Error struct {
	Op   string
	Port int // -1 when the operation is not port specific
	Err  error
}

func (e *Error) Error() string {
	if e.Port < 0 {
		return fmt.Sprintf("hal %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("hal %s port %d: %v", e.Op, e.Port, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err for op on port. It returns nil when err is nil.
func NewError(op string, port int, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Port: port, Err: err}
}

// Op returns the operation name of a *Error in err's chain, or "".
func Op(err error) string {
	var he *Error
	if errors.As(err, &he) {
		return he.Op
	}
	return ""
}
