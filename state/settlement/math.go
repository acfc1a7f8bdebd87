package settlement

import (
	"fmt"
	"math/bits"

	"bountyboard/engine/library"
)

func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d + %d", library.ErrNumericalOverflow, a, b)
	}
	return sum, nil
}

func Sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, fmt.Errorf("%w: %d - %d", library.ErrNumericalOverflow, a, b)
	}
	return diff, nil
}

func Mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, fmt.Errorf("%w: %d * %d", library.ErrNumericalOverflow, a, b)
	}
	return lo, nil
}

// Div truncates toward zero. Division by zero is reported as an overflow.
func Div(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, fmt.Errorf("%w: %d / 0", library.ErrNumericalOverflow, a)
	}
	return a / b, nil
}
