package errors

import (
	"fmt"
	"runtime/debug"
)

// FromPanic converts a recovered panic value into an AppError so a failing
// unit of work can be reported next to its siblings instead of crashing them.
func FromPanic(p interface{}) *AppError {
	if p == nil {
		return nil
	}

	var cause error
	switch v := p.(type) {
	case *AppError:
		return v
	case error:
		cause = v
	default:
		cause = fmt.Errorf("%v", v)
	}

	appErr := Wrap(cause, ErrCodePanic, "recovered from panic").
		WithSeverity(SeverityCritical)
	appErr.Stack = string(debug.Stack())
	return appErr
}

// Guard runs fn and turns a panic inside it into a returned error
func Guard(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = FromPanic(p)
		}
	}()
	return fn()
}
