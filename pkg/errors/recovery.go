package errors

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic turns a value obtained from recover() into ErrInternal. The
// cause names the panic and Details carries the goroutine stack.
func RecoverPanic(r interface{}) error {
	if r == nil {
		return nil
	}

	cause, ok := r.(error)
	if !ok {
		cause = fmt.Errorf("panic: %v", r)
	}
	return ErrInternal.WithCause(cause).WithDetails(string(debug.Stack()))
}
