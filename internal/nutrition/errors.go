package nutrition

import "errors"

var (
	// ErrDivisionByZero is returned instead of NaN or Inf when a serving size
	// or servings count is zero.
	ErrDivisionByZero = errors.New("division by zero")
	ErrNoData         = errors.New("no data")
)
