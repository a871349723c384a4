package expr

import (
	"errors"
	"fmt"
)

// OverflowError reports a numeric operation whose result does not fit a
// machine real (infinite or undefined). It is recoverable: the evaluator
// converts it into the symbolic Overflow[] form instead of failing the run.
type OverflowError struct {
	// Op names the operation that overflowed.
	Op string
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("numeric overflow in %s", e.Op)
}

// IsOverflowError returns true if the error is a numeric overflow.
// Uses errors.As to handle wrapped errors.
func IsOverflowError(err error) bool {
	var oe *OverflowError
	return errors.As(err, &oe)
}
