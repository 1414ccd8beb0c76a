package main

import (
	"errors"
	"fmt"
	"strings"
)

// Diagnostic is a use site whose refined type is not a subtype of the type
// expected there.
type Diagnostic struct {
	Pos      Pos
	Function string
	// Context names the use site, e.g. "declaration of 'y'".
	Context string
	// Actual is the full refined type at the use; Member is the part of it
	// that is incompatible with Expected.
	Actual   Type
	Member   Type
	Expected Type
}

func (d Diagnostic) Error() string {
	msg := fmt.Sprintf("%s: %s is incompatible with %s", d.Pos, d.Member, d.Expected)
	if d.Actual != d.Member {
		msg += fmt.Sprintf(" (type is %s)", d.Actual)
	}
	return msg
}

// ErrorCollection accumulates diagnostics in detection order.
type ErrorCollection struct {
	errors []Diagnostic
}

func (ec *ErrorCollection) Add(d Diagnostic) {
	ec.errors = append(ec.errors, d)
}

func (ec *ErrorCollection) HasErrors() bool {
	return len(ec.errors) > 0
}

func (ec *ErrorCollection) Len() int {
	return len(ec.errors)
}

// Errors returns the collected diagnostics. The slice must not be modified.
func (ec *ErrorCollection) Errors() []Diagnostic {
	return ec.errors
}

// truncate drops every diagnostic recorded after the first n.
func (ec *ErrorCollection) truncate(n int) {
	ec.errors = ec.errors[:n]
}

func (ec *ErrorCollection) String() string {
	var b strings.Builder
	for i, d := range ec.errors {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.Error())
	}
	return b.String()
}

// ErrInternal marks an analysis aborted because the engine's own
// bookkeeping was inconsistent. It never depends on the checked program
// being ill-typed.
var ErrInternal = errors.New("internal consistency failure")

type internalError struct {
	msg string
}

// throwInternal aborts the current analysis unit. It is recovered by
// catchInternal at the function boundary.
func throwInternal(format string, args ...any) {
	panic(internalError{msg: fmt.Sprintf(format, args...)})
}

// catchInternal must be deferred. It turns an internal failure raised by
// throwInternal into an error wrapping ErrInternal and re-panics anything
// else.
func catchInternal(err *error) {
	if x := recover(); x != nil {
		ie, ok := x.(internalError)
		if !ok {
			panic(x)
		}
		*err = fmt.Errorf("%w: %s", ErrInternal, ie.msg)
	}
}
