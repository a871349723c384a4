// Package eval is the engine core: the attribute-driven rewrite step and the
// fixpoint evaluation driver on top of it.
package eval

import (
	"errors"
	"fmt"

	"github.com/tungsten-lang/tungsten/internal/expr"
)

// EvalError is an error detected while driving an evaluation.
//
// Structured fields identify the affected symbol and carry diagnostics; the
// Code selects recovery behavior (recursion overruns abort the current chain
// with $Aborted, anything unknown propagates).
type EvalError struct {
	// Code identifies the error category.
	Code EvalErrorCode

	// Message is a human-readable description.
	Message string

	// Symbol names the definition being evaluated when the error hit.
	Symbol string

	// Details contains additional context.
	Details map[string]string
}

// EvalErrorCode categorizes evaluation errors.
type EvalErrorCode string

const (
	// ErrCodeRecursionLimit indicates the evaluation stack exceeded
	// $RecursionLimit.
	ErrCodeRecursionLimit EvalErrorCode = "RECURSION_LIMIT"
)

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("%s: %s (symbol=%s)", e.Code, e.Message, e.Symbol)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsRecursionError returns true if the error is a recursion limit overrun.
// Uses errors.As to handle wrapped errors.
func IsRecursionError(err error) bool {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeRecursionLimit
	}
	return false
}

func newRecursionError(depth, limit int) *EvalError {
	return &EvalError{
		Code:    ErrCodeRecursionLimit,
		Message: fmt.Sprintf("evaluation depth exceeded $RecursionLimit (%d >= %d)", depth, limit),
		Details: map[string]string{
			"depth": fmt.Sprintf("%d", depth),
			"limit": fmt.Sprintf("%d", limit),
		},
	}
}

// ReturnSignal is the typed control signal behind Return. It travels through
// the error return path but does not mean failure: the evaluation driver
// consumes it at the innermost frame whose lookup chain touched a
// user-defined symbol, and the top-level Evaluate consumes whatever escapes.
//
// Rules trigger non-local return by returning a *ReturnSignal as their
// error.
type ReturnSignal struct {
	// Value is the expression carried out of the aborted frames.
	Value expr.Element
}

func (e *ReturnSignal) Error() string {
	return fmt.Sprintf("return signal carrying %s", e.Value)
}

// AsReturnSignal extracts a return signal from an error chain.
func AsReturnSignal(err error) (*ReturnSignal, bool) {
	var rs *ReturnSignal
	if errors.As(err, &rs) {
		return rs, true
	}
	return nil, false
}

// Message is one diagnostic emitted during an evaluation, in the
// symbol::tag style.
type Message struct {
	// Symbol is the symbol the diagnostic concerns.
	Symbol string

	// Tag is the short message tag, e.g. "itlim" or "tdlen".
	Tag string

	// Text is the rendered message.
	Text string
}

func (m Message) String() string {
	return fmt.Sprintf("%s::%s: %s", m.Symbol, m.Tag, m.Text)
}
