// Package spad plans where a test run's matrices live in the accelerator's
// scratchpad.
//
// The scratchpad is a flat array of rows split into equal banks. A row holds
// Dim operand elements, so an operand matrix takes Dim rows and a result
// matrix, whose elements are WidthRatio times wider, takes Dim*WidthRatio
// rows.
package spad

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/sarchlab/spadverify/matrix"
)

// Addr is a row index into the scratchpad.
type Addr uint32

const (
	// DefaultBankRows is the number of rows in one bank.
	DefaultBankRows = 512

	// DefaultNumBanks is the number of banks in the scratchpad.
	DefaultNumBanks = 4

	// WidthRatio is how many operand-sized slots one result element spans.
	WidthRatio = int(unsafe.Sizeof(matrix.Acc(0)) / unsafe.Sizeof(matrix.Elem(0)))
)

// ErrUnsupportedDim is returned when a dimension cannot be laid out in the
// scratchpad without overlap.
var ErrUnsupportedDim = errors.New("unsupported matrix dimension")

// Geometry describes how the scratchpad is banked.
type Geometry struct {
	BankRows int
	NumBanks int
}

// DefaultGeometry returns the geometry of the reference scratchpad.
func DefaultGeometry() Geometry {
	return Geometry{
		BankRows: DefaultBankRows,
		NumBanks: DefaultNumBanks,
	}
}

// Rows returns the total number of rows.
func (g Geometry) Rows() int {
	return g.BankRows * g.NumBanks
}

// Validate checks that the geometry is usable.
func (g Geometry) Validate() error {
	if g.BankRows <= 0 {
		return fmt.Errorf("bank rows must be > 0, got %d", g.BankRows)
	}

	if g.NumBanks <= 0 {
		return fmt.Errorf("number of banks must be > 0, got %d", g.NumBanks)
	}

	return nil
}

// Region is a contiguous range of scratchpad rows.
type Region struct {
	Start Addr
	Rows  int
}

// End returns the first row past the region.
func (r Region) End() Addr {
	return r.Start + Addr(r.Rows)
}

// Overlaps reports whether r and o share at least one row.
func (r Region) Overlaps(o Region) bool {
	if r.Rows <= 0 || o.Rows <= 0 {
		return false
	}

	return r.Start < o.End() && o.Start < r.End()
}

func (r Region) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End())
}

// Layout holds the three regions of one test run. Op1 holds the weight
// matrix, Op2 the input matrix, and Out the result.
type Layout struct {
	Op1, Op2, Out Region
}

// Regions returns the regions in Op1, Op2, Out order.
func (l Layout) Regions() []Region {
	return []Region{l.Op1, l.Op2, l.Out}
}

// Disjoint reports whether no two regions overlap.
func (l Layout) Disjoint() bool {
	return !l.Op1.Overlaps(l.Op2) &&
		!l.Op1.Overlaps(l.Out) &&
		!l.Op2.Overlaps(l.Out)
}

// Plan places the operands and the result for a dim x dim multiply. The
// weight goes to the start of bank 0, the input one bank plus dim rows
// later, and the result two banks plus dim rows in.
func Plan(g Geometry, dim int) (Layout, error) {
	if err := g.Validate(); err != nil {
		return Layout{}, err
	}

	if dim < 1 || dim > MaxDim(g) {
		return Layout{}, fmt.Errorf("%w: %d (supported 1..%d)",
			ErrUnsupportedDim, dim, MaxDim(g))
	}

	l := Layout{
		Op1: Region{Start: 0, Rows: dim},
		Op2: Region{Start: Addr(g.BankRows + dim), Rows: dim},
		Out: Region{Start: Addr(2*g.BankRows + dim), Rows: dim * WidthRatio},
	}

	if !l.Disjoint() {
		panic(fmt.Sprintf("overlapping layout for dim %d: %v", dim, l.Regions()))
	}

	return l, nil
}

// MaxDim returns the largest dimension Plan accepts for g, or 0 if none.
func MaxDim(g Geometry) int {
	if g.Validate() != nil {
		return 0
	}

	// Out ends at 2*BankRows + dim*(1+WidthRatio); Op2 must end before Out
	// starts, which holds while dim <= BankRows.
	fit := (g.Rows() - 2*g.BankRows) / (1 + WidthRatio)

	return max(0, min(fit, g.BankRows))
}
