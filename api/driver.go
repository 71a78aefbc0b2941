// Package api defines the driver API for the scratchpad matrix accelerator.
package api

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/akita/v4/sim/directconnection"
	"github.com/sarchlab/spadverify/accel"
	"github.com/sarchlab/spadverify/spad"
)

// Port is the offload protocol. MoveIn, MoveOut, and Multiply only enqueue;
// Fence is the only call that waits.
//
// A command that reads scratchpad rows written by an earlier command must be
// separated from it by a Fence. So must host code that reads a buffer
// filled by MoveOut. Skipping the fence is not reported; the data is simply
// wrong.
type Port interface {
	// MoveIn copies rows scratchpad rows worth of src into the scratchpad
	// starting at addr.
	MoveIn(src []byte, addr spad.Addr, rows int)

	// MoveOut copies rows scratchpad rows starting at addr into dst.
	MoveOut(dst []byte, addr spad.Addr, rows int)

	// Fence returns once every command issued before it has completed.
	Fence()

	// Multiply computes a dim x dim product. op1 holds the weight, the
	// right-hand operand, and op2 the input, the left-hand operand; the
	// result written at out is input × weight.
	Multiply(op1, op2, out spad.Addr, dim int)
}

// Driver provides the interface to control an accelerator.
type Driver interface {
	sim.Component
	Port

	// RegisterDevice registers a device to the driver. The driver will
	// establish a connection to the device.
	RegisterDevice(device accel.Device)

	// Outstanding returns the number of issued commands that have not
	// completed yet.
	Outstanding() int
}

type portFactory interface {
	make(c sim.Component, name string) sim.Port
}

type driverImpl struct {
	*sim.TickingComponent

	freq        sim.Freq
	device      accel.Device
	portFactory portFactory
	localPort   sim.Port

	toIssue  []*accel.CmdMsg
	inflight map[string]*accel.CmdMsg
	fences   int
}

// Tick runs the driver for one cycle.
func (d *driverImpl) Tick() (madeProgress bool) {
	madeProgress = d.doIssue() || madeProgress
	madeProgress = d.doComplete() || madeProgress

	return madeProgress
}

func (d *driverImpl) doIssue() bool {
	madeProgress := false

	for len(d.toIssue) > 0 {
		cmd := d.toIssue[0]
		if err := d.localPort.Send(cmd); err != nil {
			break
		}

		d.inflight[cmd.ID] = cmd
		d.toIssue = d.toIssue[1:]
		madeProgress = true

		accel.Trace("Driver",
			"Behavior", "Issue",
			"Time", float64(d.Engine.CurrentTime()*1e9),
			"Cmd", cmd.Kind.Name(),
			"ID", cmd.ID,
		)
	}

	return madeProgress
}

func (d *driverImpl) doComplete() bool {
	madeProgress := false

	for {
		item := d.localPort.PeekIncoming()
		if item == nil {
			break
		}

		rsp, ok := item.(*accel.DoneRsp)
		if !ok {
			panic(fmt.Sprintf("driver cannot handle %T", item))
		}

		if _, found := d.inflight[rsp.RespondTo]; !found {
			panic(fmt.Sprintf("completion for unknown command %s", rsp.RespondTo))
		}

		delete(d.inflight, rsp.RespondTo)
		d.localPort.RetrieveIncoming()
		madeProgress = true

		accel.Trace("Driver",
			"Behavior", "Complete",
			"Time", float64(d.Engine.CurrentTime()*1e9),
			"Cmd", rsp.Kind.Name(),
			"ID", rsp.RespondTo,
		)
	}

	return madeProgress
}

// RegisterDevice registers a device to the driver. The driver will
// establish a connection to the device.
func (d *driverImpl) RegisterDevice(device accel.Device) {
	if d.device != nil {
		panic("driver already has a device")
	}

	d.device = device

	d.localPort = d.portFactory.make(d, d.Name()+".DevicePort")
	d.AddPort("Device", d.localPort)

	conn := directconnection.MakeBuilder().
		WithEngine(d.Engine).
		WithFreq(d.freq).
		Build(d.Name() + ".Conn")
	conn.PlugIn(d.localPort)
	conn.PlugIn(device.CtrlPort())
}

func (d *driverImpl) MoveIn(src []byte, addr spad.Addr, rows int) {
	d.issue(accel.CmdMsgBuilder{}.
		WithKind(accel.CmdMoveIn).
		WithTransfer(src, addr, rows))
}

func (d *driverImpl) MoveOut(dst []byte, addr spad.Addr, rows int) {
	d.issue(accel.CmdMsgBuilder{}.
		WithKind(accel.CmdMoveOut).
		WithTransfer(dst, addr, rows))
}

func (d *driverImpl) Multiply(op1, op2, out spad.Addr, dim int) {
	d.issue(accel.CmdMsgBuilder{}.
		WithKind(accel.CmdMultiply).
		WithOperands(op1, op2, out, dim))
}

func (d *driverImpl) issue(b accel.CmdMsgBuilder) {
	if d.device == nil {
		panic("no device registered")
	}

	cmd := b.
		WithSrc(d.localPort.AsRemote()).
		WithDst(d.device.CtrlPort().AsRemote()).
		Build()

	d.toIssue = append(d.toIssue, cmd)
	d.TickLater()
}

// Fence runs the simulation until the accelerator has drained.
func (d *driverImpl) Fence() {
	d.fences++

	accel.Trace("Driver",
		"Behavior", "Fence",
		"Time", float64(d.Engine.CurrentTime()*1e9),
		"Fence", d.fences,
		"Outstanding", d.Outstanding(),
	)

	d.TickLater()
	d.Engine.Run()

	if n := d.Outstanding(); n > 0 {
		panic(fmt.Sprintf("fence %d returned with %d commands outstanding",
			d.fences, n))
	}

	if d.device != nil && d.device.Busy() {
		panic(fmt.Sprintf("fence %d returned with the device busy", d.fences))
	}
}

func (d *driverImpl) Outstanding() int {
	return len(d.toIssue) + len(d.inflight)
}
