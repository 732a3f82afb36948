package model

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/sbl8/eoc/core"
)

// Error taxonomy shared by the table, the compiler and the runtime.
var (
	ErrUnknownObject    = errors.New("unknown object")
	ErrEmptyObject      = errors.New("empty object")
	ErrBrokenClosure    = errors.New("broken closure")
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrMalformedLocator = errors.New("malformed locator")
	ErrAtomFailure      = errors.New("atom failure")
	ErrUnknownAtom      = errors.New("unknown atom")
	ErrFrozen           = errors.New("object table is frozen")
	ErrRecursionLimit   = errors.New("recursion limit exceeded")
)

// EvalError records the frame in which evaluation failed. It unwraps to one
// of the sentinel errors above.
type EvalError struct {
	Kind   error
	Object ObjectID
	Basket core.BasketID
	Msg    string
}

// NewEvalError builds an EvalError for the frame (ob, bx).
func NewEvalError(kind error, ob ObjectID, bx core.BasketID, format string, args ...interface{}) *EvalError {
	return &EvalError{
		Kind:   kind,
		Object: ob,
		Basket: bx,
		Msg:    fmt.Sprintf(format, args...),
	}
}

func (e *EvalError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%v at %s in %s", e.Kind, e.Object, e.Basket)
	}
	return fmt.Sprintf("%v at %s in %s: %s", e.Kind, e.Object, e.Basket, e.Msg)
}

func (e *EvalError) Unwrap() error {
	return e.Kind
}
