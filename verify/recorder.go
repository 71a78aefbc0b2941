package verify

import (
	"github.com/sarchlab/spadverify/api"
	"github.com/sarchlab/spadverify/spad"
)

// Recorder is an api.Port that records every call before passing it on. A
// Recorder with no inner port only records.
type Recorder struct {
	inner    api.Port
	commands []Command
}

// NewRecorder wraps inner. inner may be nil.
func NewRecorder(inner api.Port) *Recorder {
	return &Recorder{inner: inner}
}

// Commands returns the recorded trace.
func (r *Recorder) Commands() []Command {
	return r.commands
}

// Reset drops the recorded trace.
func (r *Recorder) Reset() {
	r.commands = nil
}

func (r *Recorder) record(c Command) {
	c.Index = len(r.commands)
	r.commands = append(r.commands, c)
}

func (r *Recorder) MoveIn(src []byte, addr spad.Addr, rows int) {
	r.record(Command{
		Op:     OpMoveIn,
		Writes: []spad.Region{{Start: addr, Rows: rows}},
		Host:   hostRangeOf(src),
	})

	if r.inner != nil {
		r.inner.MoveIn(src, addr, rows)
	}
}

func (r *Recorder) MoveOut(dst []byte, addr spad.Addr, rows int) {
	r.record(Command{
		Op:    OpMoveOut,
		Reads: []spad.Region{{Start: addr, Rows: rows}},
		Host:  hostRangeOf(dst),
	})

	if r.inner != nil {
		r.inner.MoveOut(dst, addr, rows)
	}
}

func (r *Recorder) Multiply(op1, op2, out spad.Addr, dim int) {
	r.record(Command{
		Op: OpMultiply,
		Reads: []spad.Region{
			{Start: op1, Rows: dim},
			{Start: op2, Rows: dim},
		},
		Writes: []spad.Region{{Start: out, Rows: dim * spad.WidthRatio}},
	})

	if r.inner != nil {
		r.inner.Multiply(op1, op2, out, dim)
	}
}

func (r *Recorder) Fence() {
	r.record(Command{Op: OpFence})

	if r.inner != nil {
		r.inner.Fence()
	}
}
