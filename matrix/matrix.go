// Package matrix holds the host-side matrices of a test run, together with
// the seeded generator, the reference multiply, and the comparator that
// checks the accelerator's output.
package matrix

import (
	"fmt"
	"unsafe"
)

// Elem is the operand element type.
type Elem = int8

// Acc is the result element type. It is wide enough to hold a sum of Dim
// products of operands drawn from [0, MaxValue].
type Acc = int32

// Alignment is the DMA granularity, in bytes, of host buffers.
const Alignment = 64

// Scalar lists the element types a Matrix can hold.
type Scalar interface {
	~int8 | ~int32
}

// Matrix is a dense row-major matrix backed by an aligned buffer.
type Matrix[T Scalar] struct {
	Rows, Cols int
	Data       []T
}

// Operand is a matrix fed to the accelerator.
type Operand = Matrix[Elem]

// Result is a matrix produced by a multiply.
type Result = Matrix[Acc]

// New allocates a zeroed rows x cols matrix whose first element sits on an
// Alignment boundary.
func New[T Scalar](rows, cols int) *Matrix[T] {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("invalid matrix shape %dx%d", rows, cols))
	}

	return &Matrix[T]{
		Rows: rows,
		Cols: cols,
		Data: alignedSlice[T](rows * cols),
	}
}

// NewOperand allocates a square operand matrix.
func NewOperand(dim int) *Operand {
	return New[Elem](dim, dim)
}

// NewResult allocates a square result matrix.
func NewResult(dim int) *Result {
	return New[Acc](dim, dim)
}

func alignedSlice[T Scalar](n int) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))

	buf := make([]T, n+Alignment/size)
	if n == 0 {
		return buf[:0]
	}

	skip := 0
	if off := int(uintptr(unsafe.Pointer(&buf[0])) % Alignment); off != 0 {
		skip = (Alignment - off) / size
	}

	return buf[skip : skip+n : skip+n]
}

// At returns the element at row i, column j.
func (m *Matrix[T]) At(i, j int) T {
	return m.Data[i*m.Cols+j]
}

// Set writes the element at row i, column j.
func (m *Matrix[T]) Set(i, j int, v T) {
	m.Data[i*m.Cols+j] = v
}

// Row returns row i as a sub-slice of the backing buffer.
func (m *Matrix[T]) Row(i int) []T {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// Zero clears every element.
func (m *Matrix[T]) Zero() {
	clear(m.Data)
}

// Bytes returns the backing buffer viewed as raw host memory. Writes
// through the returned slice are visible in Data.
func (m *Matrix[T]) Bytes() []byte {
	if len(m.Data) == 0 {
		return nil
	}

	var zero T
	return unsafe.Slice(
		(*byte)(unsafe.Pointer(&m.Data[0])),
		len(m.Data)*int(unsafe.Sizeof(zero)),
	)
}
