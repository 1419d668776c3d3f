package dispatch

import (
	"errors"
	"fmt"

	"github.com/comiknet/comiknet/capability"
	"github.com/comiknet/comiknet/source"
)

var (
	ErrSourceNotFound        = errors.New("source not found")
	ErrCapabilityUnsupported = errors.New("capability unsupported")
	ErrPluginExecution       = errors.New("plugin execution failed")
)

// ExecutionError is returned when a plugin fails or panics while serving a call.
type ExecutionError struct {
	Source     source.ID
	Capability capability.Name
	Err        error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s on %s: %s", ErrPluginExecution, e.Capability, e.Source, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is makes every ExecutionError match ErrPluginExecution.
func (e *ExecutionError) Is(target error) bool {
	return target == ErrPluginExecution
}

// PanicError carries the value a plugin panicked with.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
