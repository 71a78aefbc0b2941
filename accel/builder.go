package accel

import (
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/spadverify/spad"
)

// Builder can create new accelerators.
type Builder struct {
	engine          sim.Engine
	freq            sim.Freq
	geometry        spad.Geometry
	rowElems        int
	dmaRowsPerCycle int
	mulLatency      int
	portBufSize     int
}

func NewBuilder() Builder {
	return Builder{
		freq:            1 * sim.GHz,
		geometry:        spad.DefaultGeometry(),
		rowElems:        16,
		dmaRowsPerCycle: 1,
		portBufSize:     64,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the accelerator.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithGeometry sets how the scratchpad is banked.
func (b Builder) WithGeometry(geometry spad.Geometry) Builder {
	b.geometry = geometry
	return b
}

// WithRowElems sets how many operand elements a scratchpad row holds. It is
// also the only dimension the multiply unit accepts.
func (b Builder) WithRowElems(n int) Builder {
	b.rowElems = n
	return b
}

// WithDMARowsPerCycle sets how many rows a transfer moves per cycle.
func (b Builder) WithDMARowsPerCycle(n int) Builder {
	b.dmaRowsPerCycle = n
	return b
}

// WithMultiplyLatency sets the cycles between latching the operands and
// writing the product. Zero means one cycle per row.
func (b Builder) WithMultiplyLatency(cycles int) Builder {
	b.mulLatency = cycles
	return b
}

// Build creates an accelerator.
func (b Builder) Build(name string) *Accelerator {
	if err := b.geometry.Validate(); err != nil {
		panic(err)
	}

	if b.rowElems <= 0 || b.dmaRowsPerCycle <= 0 || b.mulLatency < 0 {
		panic(fmt.Sprintf(
			"invalid accelerator: row elems %d, dma rows %d, latency %d",
			b.rowElems, b.dmaRowsPerCycle, b.mulLatency))
	}

	a := &Accelerator{
		geometry:        b.geometry,
		rowElems:        b.rowElems,
		dmaRowsPerCycle: b.dmaRowsPerCycle,
		mulLatency:      b.mulLatency,
	}

	a.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, a)
	a.storage = mem.NewStorage(uint64(b.geometry.Rows() * b.rowElems))

	a.ctrlPort = sim.NewPort(a, b.portBufSize, b.portBufSize, name+".CtrlPort")
	a.AddPort("Ctrl", a.ctrlPort)

	return a
}
