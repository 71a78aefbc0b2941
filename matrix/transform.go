package matrix

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
)

// FlipRows reverses the order of m's rows in place.
func FlipRows[T Scalar](m *Matrix[T]) {
	for i := 0; i < m.Rows/2; i++ {
		top := m.Row(i)
		bottom := m.Row(m.Rows - 1 - i)
		for j := range top {
			top[j], bottom[j] = bottom[j], top[j]
		}
	}
}

// Transpose writes the transpose of src into dst.
func Transpose[T Scalar](src, dst *Matrix[T]) error {
	if dst.Rows != src.Cols || dst.Cols != src.Rows {
		return fmt.Errorf("%w: transpose of %dx%d into %dx%d",
			ErrShape, src.Rows, src.Cols, dst.Rows, dst.Cols)
	}

	for i := 0; i < src.Rows; i++ {
		for j := 0; j < src.Cols; j++ {
			dst.Set(j, i, src.At(i, j))
		}
	}

	return nil
}

// Render prints m as a table.
func Render[T Scalar](w io.Writer, title string, m *Matrix[T]) {
	t := table.NewWriter()
	t.SetTitle(title)

	header := table.Row{""}
	for _, j := range lo.Range(m.Cols) {
		header = append(header, j)
	}
	t.AppendHeader(header)

	if m.Cols > 0 {
		for i, row := range lo.Chunk(m.Data, m.Cols) {
			cells := lo.Map(row, func(v T, _ int) interface{} { return v })
			t.AppendRow(append(table.Row{i}, cells...))
		}
	}

	fmt.Fprintln(w, t.Render())
}
