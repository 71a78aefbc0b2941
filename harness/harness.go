// Package harness runs the matrix-multiply offload test against an
// accelerator port.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/sarchlab/spadverify/api"
	"github.com/sarchlab/spadverify/gate"
	"github.com/sarchlab/spadverify/matrix"
	"github.com/sarchlab/spadverify/spad"
)

// Scenario selects how the operands are filled.
type Scenario string

const (
	// Seeded fills both operands from their seeds.
	Seeded Scenario = "seeded"
	// Zero leaves both operands zeroed.
	Zero Scenario = "zero"
)

// ParseScenario converts a name to a Scenario.
func ParseScenario(name string) (Scenario, error) {
	switch s := Scenario(name); s {
	case Seeded, Zero:
		return s, nil
	default:
		return "", fmt.Errorf("unknown scenario %q", name)
	}
}

// Options configures one run.
type Options struct {
	Dim        int
	WeightSeed int64
	InputSeed  int64
	Scenario   Scenario
	Geometry   spad.Geometry
}

// DefaultOptions returns the options of the reference test.
func DefaultOptions() Options {
	return Options{
		Dim:        16,
		WeightSeed: 42,
		InputSeed:  51,
		Scenario:   Seeded,
		Geometry:   spad.DefaultGeometry(),
	}
}

// Result holds the matrices of one run and the comparison outcome.
type Result struct {
	Passed   bool
	Layout   spad.Layout
	Weight   *matrix.Operand
	Input    *matrix.Operand
	Output   *matrix.Result
	Expected *matrix.Result
}

// Verdict returns the line the test prints.
func (r *Result) Verdict() string {
	if r.Passed {
		return "Test passed!"
	}

	return "Test failed!"
}

// WriteReport prints the verdict.
func (r *Result) WriteReport(w io.Writer) error {
	_, err := fmt.Fprintln(w, r.Verdict())
	return err
}

// Dump prints the operands, the accelerator output, and the expected result.
func (r *Result) Dump(w io.Writer) {
	matrix.Render(w, "Weight", r.Weight)
	matrix.Render(w, "Input", r.Input)
	matrix.Render(w, "Output", r.Output)
	matrix.Render(w, "Expected", r.Expected)
}

// Run generates the operands, offloads input × weight to port, and compares
// the result with the host reference.
func Run(port api.Port, opts Options) (*Result, error) {
	layout, err := spad.Plan(opts.Geometry, opts.Dim)
	if err != nil {
		return nil, fmt.Errorf("planning scratchpad: %w", err)
	}

	r := &Result{
		Layout:   layout,
		Weight:   matrix.NewOperand(opts.Dim),
		Input:    matrix.NewOperand(opts.Dim),
		Output:   matrix.NewResult(opts.Dim),
		Expected: matrix.NewResult(opts.Dim),
	}

	switch opts.Scenario {
	case Seeded:
		matrix.Generate(r.Weight, opts.WeightSeed)
		matrix.Generate(r.Input, opts.InputSeed)
	case Zero:
	default:
		return nil, fmt.Errorf("unknown scenario %q", opts.Scenario)
	}

	if err := matrix.Multiply(r.Input, r.Weight, r.Expected); err != nil {
		return nil, fmt.Errorf("computing reference: %w", err)
	}

	Offload(port, layout, r.Weight, r.Input, r.Output)

	r.Passed = matrix.Compare(r.Output, r.Expected)

	slog.Info("Run finished",
		"dim", opts.Dim,
		"scenario", string(opts.Scenario),
		"passed", r.Passed,
	)

	return r, nil
}

// RunUnit runs the test on behalf of an execution unit once g admits it.
func RunUnit(
	ctx context.Context,
	g gate.Gate,
	unit int,
	port api.Port,
	opts Options,
) (*Result, error) {
	release, err := g.Enter(ctx, unit)
	if err != nil {
		return nil, err
	}
	defer release()

	return Run(port, opts)
}

// Offload moves the operands into the scratchpad, multiplies them, and
// moves the product into output. Every command that depends on an earlier
// one is separated from it by a fence.
func Offload(
	port api.Port,
	layout spad.Layout,
	weight, input *matrix.Operand,
	output *matrix.Result,
) {
	dim := weight.Rows

	output.Zero()
	port.MoveIn(output.Bytes(), layout.Out.Start, layout.Out.Rows)
	port.MoveIn(weight.Bytes(), layout.Op1.Start, layout.Op1.Rows)
	port.MoveIn(input.Bytes(), layout.Op2.Start, layout.Op2.Rows)
	port.Fence()

	port.Multiply(layout.Op1.Start, layout.Op2.Start, layout.Out.Start, dim)
	port.Fence()

	port.MoveOut(output.Bytes(), layout.Out.Start, layout.Out.Rows)
	port.Fence()
}
