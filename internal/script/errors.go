package script

import (
	"errors"
	"fmt"
)

// ErrForbiddenImport is wrapped by a CompileError when a script imports a
// package outside the configured allow-list.
var ErrForbiddenImport = errors.New("forbidden import")

// CompileError reports a script that could not be parsed or evaluated.
type CompileError struct {
	Script string
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s script: %v", e.Script, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// SignatureError reports an Extract or Merge definition with an unsupported
// function type.
type SignatureError struct {
	Script string
	Func   string
	Got    string
	Want   []string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("%s script: %s has type %s, want one of %v", e.Script, e.Func, e.Got, e.Want)
}

// PanicError is returned when interpreted code panics during a call.
type PanicError struct {
	Func  string
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Func, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
