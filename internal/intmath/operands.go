package intmath

import (
	"errors"
	"fmt"
)

// ErrInvalidOperands is returned for operand sets that cannot be evaluated.
var ErrInvalidOperands = errors.New("intmath: invalid operands")

// Operands are the constants of the calculation ((C1 + C2) * C3) / C4.
type Operands struct {
	C1 int64 `json:"c1" yaml:"c1"`
	C2 int64 `json:"c2" yaml:"c2"`
	C3 int64 `json:"c3" yaml:"c3"`
	C4 int64 `json:"c4" yaml:"c4"`
}

// DefaultOperands evaluate to -100581.
var DefaultOperands = Operands{C1: 123, C2: 234567, C3: -3, C4: 7}

// Validate rejects a zero divisor.
func (o Operands) Validate() error {
	if o.C4 == 0 {
		return fmt.Errorf("%w: c4 must not be zero", ErrInvalidOperands)
	}
	return nil
}

// Expected evaluates the formula in one expression. Division truncates
// toward zero, so the worker's stepwise evaluation must match it exactly.
func (o Operands) Expected() int64 {
	return ((o.C1 + o.C2) * o.C3) / o.C4
}
