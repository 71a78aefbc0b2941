package matrix

import (
	"errors"
	"fmt"
	"slices"
)

// ErrShape reports matrices whose shapes cannot be combined.
var ErrShape = errors.New("matrix shape mismatch")

// Multiply computes c = a × b on the host. It is the oracle the accelerator
// is checked against and never touches the accelerator.
func Multiply(a, b *Operand, c *Result) error {
	if a.Cols != b.Rows {
		return fmt.Errorf("%w: cannot multiply %dx%d by %dx%d",
			ErrShape, a.Rows, a.Cols, b.Rows, b.Cols)
	}

	if c.Rows != a.Rows || c.Cols != b.Cols {
		return fmt.Errorf("%w: result is %dx%d, want %dx%d",
			ErrShape, c.Rows, c.Cols, a.Rows, b.Cols)
	}

	for i := 0; i < a.Rows; i++ {
		for j := 0; j < b.Cols; j++ {
			var sum Acc
			for k := 0; k < a.Cols; k++ {
				sum += Acc(a.At(i, k)) * Acc(b.At(k, j))
			}
			c.Set(i, j, sum)
		}
	}

	return nil
}

// Compare reports whether actual and expected have the same shape and
// exactly the same elements.
func Compare(actual, expected *Result) bool {
	if actual.Rows != expected.Rows || actual.Cols != expected.Cols {
		return false
	}

	return slices.Equal(actual.Data, expected.Data)
}
