package utils

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// PanicError is a recovered panic value with the stack it was raised on.
type PanicError struct {
	Value      interface{}
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func recovered(r interface{}) *PanicError {
	stack := string(debug.Stack())
	slog.Error("Recovered from panic", "panic", r, "stack", stack)
	return &PanicError{Value: r, StackTrace: stack}
}

// RecoverWithCallback hands a recovered panic to callback, for goroutines
// and closures that have no error result of their own.
func RecoverWithCallback(callback func(error)) {
	if r := recover(); r != nil {
		err := recovered(r)
		if callback != nil {
			callback(err)
		}
	}
}
