// Package verify provides debugging tools for accelerator offload
// sequences.
//
// A Recorder sits between the host code and an accelerator port and keeps a
// trace of every command. RunLint then walks the trace one fence epoch at a
// time and reports the places where the result depends on timing:
//
//   - RAW: a command reads scratchpad rows that an earlier command in the
//     same epoch writes on another queue.
//   - WAR: a command writes rows that an earlier command in the same epoch
//     still has to read.
//   - WAW: two commands on different queues write the same rows.
//   - HOST: a MoveIn reads a host buffer that a MoveOut in the same epoch
//     fills.
//   - UNFENCED: a MoveOut is never followed by a fence, so the host reads
//     its buffer before the data lands.
//
// Commands on the same queue run in order and never race with each other.
//
// # Trace Structure
//
//	[]Command
//	  ├── MoveIn    reads host, writes scratchpad
//	  ├── Multiply  reads Op1 and Op2, writes Out
//	  ├── MoveOut   reads scratchpad, writes host
//	  └── Fence     closes the epoch
package verify

import (
	"fmt"
	"unsafe"

	"github.com/sarchlab/spadverify/spad"
)

// IssueType categorizes lint issues
type IssueType string

const (
	IssueRAW      IssueType = "RAW"      // read of rows still being written
	IssueWAR      IssueType = "WAR"      // write over rows still being read
	IssueWAW      IssueType = "WAW"      // two racing writes
	IssueHost     IssueType = "HOST"     // host buffer read before it is filled
	IssueUnfenced IssueType = "UNFENCED" // host buffer never fenced
)

// Op is the kind of a recorded command.
type Op int

const (
	OpMoveIn Op = iota
	OpMoveOut
	OpMultiply
	OpFence
)

// String returns the name of the op.
func (o Op) String() string {
	switch o {
	case OpMoveIn:
		return "MoveIn"
	case OpMoveOut:
		return "MoveOut"
	case OpMultiply:
		return "Multiply"
	case OpFence:
		return "Fence"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// queue returns the accelerator queue that runs the op.
func (o Op) queue() int {
	return int(o)
}

// HostRange is the span of host memory a transfer touches.
type HostRange struct {
	Start uintptr
	Len   int
}

func hostRangeOf(buf []byte) HostRange {
	if len(buf) == 0 {
		return HostRange{}
	}

	return HostRange{
		Start: uintptr(unsafe.Pointer(unsafe.SliceData(buf))),
		Len:   len(buf),
	}
}

// Overlaps reports whether the two ranges share a byte.
func (r HostRange) Overlaps(o HostRange) bool {
	if r.Len == 0 || o.Len == 0 {
		return false
	}

	return r.Start < o.Start+uintptr(o.Len) && o.Start < r.Start+uintptr(r.Len)
}

// Command is one recorded port call.
type Command struct {
	Index  int
	Op     Op
	Reads  []spad.Region
	Writes []spad.Region
	Host   HostRange
}

// Issue represents a single lint issue
type Issue struct {
	Type    IssueType              // hazard class
	Epoch   int                    // fence epoch, counted from 0
	Cmd     int                    // index of the offending command
	Prev    int                    // index of the command it races with, or -1
	Message string                 // Human-readable description
	Details map[string]interface{} // Additional structured data
}
