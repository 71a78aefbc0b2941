// Package accel models a scratchpad matrix-multiply accelerator.
//
// The accelerator receives commands on its control port and runs them on
// three independent in-order queues: a load queue for MoveIn, an execute
// queue for Multiply, and a store queue for MoveOut. The queues run side by
// side and never wait for one another, so a command that consumes data
// produced on another queue sees whatever the scratchpad holds when it runs.
// Ordering across queues is the host's job; it fences.
package accel

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/spadverify/spad"
)

// HookPosTaskStart marks when a command starts executing.
var HookPosTaskStart = &sim.HookPos{Name: "Accel Task Start"}

// HookPosTaskDone marks when a command has completed.
var HookPosTaskDone = &sim.HookPos{Name: "Accel Task Done"}

// A Device is an accelerator a driver can connect to.
type Device interface {
	CtrlPort() sim.Port
	Busy() bool
}

type queueID int

const (
	loadQueue queueID = iota
	execQueue
	storeQueue
	numQueues
)

func queueOf(kind CmdKind) queueID {
	switch kind {
	case CmdMoveIn:
		return loadQueue
	case CmdMultiply:
		return execQueue
	case CmdMoveOut:
		return storeQueue
	default:
		panic("invalid command kind")
	}
}

type task struct {
	cmd *CmdMsg

	started    bool
	rowsDone   int
	cyclesLeft int
	product    []byte
}

// Accelerator is the simulated accelerator.
type Accelerator struct {
	*sim.TickingComponent

	ctrlPort sim.Port
	storage  *mem.Storage

	geometry        spad.Geometry
	rowElems        int
	dmaRowsPerCycle int
	mulLatency      int

	queues      [numQueues][]*task
	pendingRsps []*DoneRsp
}

// CtrlPort returns the port that receives commands.
func (a *Accelerator) CtrlPort() sim.Port {
	return a.ctrlPort
}

// RowBytes returns the size of a scratchpad row in bytes.
func (a *Accelerator) RowBytes() int {
	return a.rowElems
}

// Busy reports whether any command is queued or running.
func (a *Accelerator) Busy() bool {
	for _, q := range a.queues {
		if len(q) > 0 {
			return true
		}
	}

	return len(a.pendingRsps) > 0
}

// GetMemory returns a copy of rows scratchpad rows starting at addr.
func (a *Accelerator) GetMemory(addr spad.Addr, rows int) []byte {
	a.regionMustBeInRange(addr, rows)

	data, err := a.storage.Read(a.byteAddr(addr), uint64(rows*a.RowBytes()))
	if err != nil {
		panic(err)
	}

	return data
}

// writeMemory writes data into the scratchpad starting at addr, bypassing
// the command queues.
func (a *Accelerator) writeMemory(addr spad.Addr, data []byte) {
	a.regionMustBeInRange(addr, (len(data)+a.RowBytes()-1)/a.RowBytes())

	if err := a.storage.Write(a.byteAddr(addr), data); err != nil {
		panic(err)
	}
}

// Tick runs the accelerator for one cycle.
func (a *Accelerator) Tick() (madeProgress bool) {
	madeProgress = a.sendRsp() || madeProgress
	madeProgress = a.doLoad() || madeProgress
	madeProgress = a.doExec() || madeProgress
	madeProgress = a.doStore() || madeProgress
	madeProgress = a.recvCmd() || madeProgress

	return madeProgress
}

func (a *Accelerator) sendRsp() bool {
	madeProgress := false

	for len(a.pendingRsps) > 0 {
		rsp := a.pendingRsps[0]
		if err := a.ctrlPort.Send(rsp); err != nil {
			break
		}

		a.pendingRsps = a.pendingRsps[1:]
		madeProgress = true
	}

	return madeProgress
}

func (a *Accelerator) recvCmd() bool {
	madeProgress := false

	for {
		item := a.ctrlPort.PeekIncoming()
		if item == nil {
			break
		}

		cmd, ok := item.(*CmdMsg)
		if !ok {
			panic(fmt.Sprintf("accelerator cannot handle %T", item))
		}

		a.enqueue(cmd)
		a.ctrlPort.RetrieveIncoming()
		madeProgress = true
	}

	return madeProgress
}

func (a *Accelerator) enqueue(cmd *CmdMsg) {
	a.cmdMustBeValid(cmd)

	q := queueOf(cmd.Kind)
	a.queues[q] = append(a.queues[q], &task{cmd: cmd})

	Trace("Accel",
		"Behavior", "Enqueue",
		"Time", float64(a.Engine.CurrentTime()*1e9),
		"Cmd", cmd.Kind.Name(),
		"ID", cmd.ID,
		"Depth", len(a.queues[q]),
	)
}

func (a *Accelerator) doLoad() bool {
	t := a.head(loadQueue)
	if t == nil {
		return false
	}

	a.startTask(t)

	rowBytes := a.RowBytes()
	for n := 0; n < a.dmaRowsPerCycle && t.rowsDone < t.cmd.Rows; n++ {
		src := t.cmd.Host[t.rowsDone*rowBytes : (t.rowsDone+1)*rowBytes]
		addr := a.byteAddr(t.cmd.Addr + spad.Addr(t.rowsDone))
		if err := a.storage.Write(addr, src); err != nil {
			panic(err)
		}
		t.rowsDone++
	}

	if t.rowsDone == t.cmd.Rows {
		a.completeTask(loadQueue)
	}

	return true
}

func (a *Accelerator) doStore() bool {
	t := a.head(storeQueue)
	if t == nil {
		return false
	}

	a.startTask(t)

	rowBytes := a.RowBytes()
	for n := 0; n < a.dmaRowsPerCycle && t.rowsDone < t.cmd.Rows; n++ {
		addr := a.byteAddr(t.cmd.Addr + spad.Addr(t.rowsDone))
		data, err := a.storage.Read(addr, uint64(rowBytes))
		if err != nil {
			panic(err)
		}
		copy(t.cmd.Host[t.rowsDone*rowBytes:], data)
		t.rowsDone++
	}

	if t.rowsDone == t.cmd.Rows {
		a.completeTask(storeQueue)
	}

	return true
}

// doExec latches both operands on the first cycle of a multiply, and writes
// the product back once the latency has elapsed.
func (a *Accelerator) doExec() bool {
	t := a.head(execQueue)
	if t == nil {
		return false
	}

	if !t.started {
		a.startTask(t)

		dim := t.cmd.Dim
		weight := a.GetMemory(t.cmd.Op1, dim)
		input := a.GetMemory(t.cmd.Op2, dim)
		t.product = multiplyRows(input, weight, dim)
		t.cyclesLeft = a.latencyOf(dim)

		return true
	}

	t.cyclesLeft--
	if t.cyclesLeft > 0 {
		return true
	}

	if err := a.storage.Write(a.byteAddr(t.cmd.Out), t.product); err != nil {
		panic(err)
	}
	a.completeTask(execQueue)

	return true
}

// multiplyRows returns input × weight as packed Acc elements in native byte
// order. Both operands are dim rows of dim signed bytes. The product is
// accumulated one outer product at a time, the way the array streams it.
func multiplyRows(input, weight []byte, dim int) []byte {
	acc := make([]int32, dim*dim)

	for k := 0; k < dim; k++ {
		wRow := weight[k*dim : (k+1)*dim]
		for i := 0; i < dim; i++ {
			in := int32(int8(input[i*dim+k]))
			if in == 0 {
				continue
			}

			out := acc[i*dim : (i+1)*dim]
			for j, w := range wRow {
				out[j] += in * int32(int8(w))
			}
		}
	}

	product := make([]byte, 4*len(acc))
	for i, v := range acc {
		binary.NativeEndian.PutUint32(product[4*i:], uint32(v))
	}

	return product
}

func (a *Accelerator) latencyOf(dim int) int {
	if a.mulLatency > 0 {
		return a.mulLatency
	}

	return dim
}

func (a *Accelerator) head(q queueID) *task {
	if len(a.queues[q]) == 0 {
		return nil
	}

	return a.queues[q][0]
}

func (a *Accelerator) startTask(t *task) {
	if t.started {
		return
	}

	t.started = true

	a.InvokeHook(sim.HookCtx{
		Domain: a,
		Pos:    HookPosTaskStart,
		Item:   t.cmd,
	})

	Trace("Accel",
		"Behavior", "Start",
		"Time", float64(a.Engine.CurrentTime()*1e9),
		"Cmd", t.cmd.Kind.Name(),
		"ID", t.cmd.ID,
	)
}

func (a *Accelerator) completeTask(q queueID) {
	t := a.queues[q][0]
	a.queues[q] = a.queues[q][1:]

	a.pendingRsps = append(a.pendingRsps, newDoneRsp(a.ctrlPort.AsRemote(), t.cmd))

	a.InvokeHook(sim.HookCtx{
		Domain: a,
		Pos:    HookPosTaskDone,
		Item:   t.cmd,
	})

	Trace("Accel",
		"Behavior", "Done",
		"Time", float64(a.Engine.CurrentTime()*1e9),
		"Cmd", t.cmd.Kind.Name(),
		"ID", t.cmd.ID,
	)
}

func (a *Accelerator) byteAddr(addr spad.Addr) uint64 {
	return uint64(addr) * uint64(a.RowBytes())
}

func (a *Accelerator) cmdMustBeValid(cmd *CmdMsg) {
	switch cmd.Kind {
	case CmdMoveIn, CmdMoveOut:
		if cmd.Rows <= 0 {
			panic(fmt.Sprintf("%s of %d rows", cmd.Kind.Name(), cmd.Rows))
		}

		a.regionMustBeInRange(cmd.Addr, cmd.Rows)

		if len(cmd.Host) < cmd.Rows*a.RowBytes() {
			panic(fmt.Sprintf(
				"%s host buffer holds %d bytes, %d rows need %d",
				cmd.Kind.Name(), len(cmd.Host), cmd.Rows, cmd.Rows*a.RowBytes()))
		}
	case CmdMultiply:
		if cmd.Dim != a.rowElems {
			panic(fmt.Sprintf(
				"multiply dim %d does not match the scratchpad row width %d",
				cmd.Dim, a.rowElems))
		}

		a.regionMustBeInRange(cmd.Op1, cmd.Dim)
		a.regionMustBeInRange(cmd.Op2, cmd.Dim)
		a.regionMustBeInRange(cmd.Out, cmd.Dim*spad.WidthRatio)
	default:
		panic("invalid command kind")
	}
}

func (a *Accelerator) regionMustBeInRange(addr spad.Addr, rows int) {
	if int(addr)+rows > a.geometry.Rows() {
		panic(fmt.Sprintf(
			"rows [%d, %d) outside of the %d-row scratchpad",
			addr, int(addr)+rows, a.geometry.Rows()))
	}
}
