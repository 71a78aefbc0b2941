package accel

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/spadverify/spad"
)

// CmdKind identifies the operation a CmdMsg asks for.
type CmdKind int

const (
	CmdMoveIn CmdKind = iota
	CmdMoveOut
	CmdMultiply
)

// Name returns the name of the command kind.
func (k CmdKind) Name() string {
	switch k {
	case CmdMoveIn:
		return "MoveIn"
	case CmdMoveOut:
		return "MoveOut"
	case CmdMultiply:
		return "Multiply"
	default:
		panic("invalid command kind")
	}
}

// CmdMsg carries one command from the host to the accelerator.
//
// Host is the host memory a transfer reads from or writes to. It is accessed
// while the command executes, not when it is issued.
type CmdMsg struct {
	sim.MsgMeta

	Kind CmdKind

	Host []byte
	Addr spad.Addr
	Rows int

	Op1, Op2, Out spad.Addr
	Dim           int
}

// Meta returns the meta data of the msg.
func (m *CmdMsg) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone returns a copy of the msg with a new ID.
func (m *CmdMsg) Clone() sim.Msg {
	clone := *m
	clone.ID = sim.GetIDGenerator().Generate()

	return &clone
}

// CmdMsgBuilder is a factory for CmdMsg.
type CmdMsgBuilder struct {
	src, dst sim.RemotePort
	kind     CmdKind

	host []byte
	addr spad.Addr
	rows int

	op1, op2, out spad.Addr
	dim           int
}

// WithSrc sets the source port of the msg.
func (b CmdMsgBuilder) WithSrc(src sim.RemotePort) CmdMsgBuilder {
	b.src = src
	return b
}

// WithDst sets the destination port of the msg.
func (b CmdMsgBuilder) WithDst(dst sim.RemotePort) CmdMsgBuilder {
	b.dst = dst
	return b
}

// WithKind sets the command kind.
func (b CmdMsgBuilder) WithKind(kind CmdKind) CmdMsgBuilder {
	b.kind = kind
	return b
}

// WithTransfer sets the host buffer, the scratchpad address, and the number
// of scratchpad rows of a MoveIn or MoveOut.
func (b CmdMsgBuilder) WithTransfer(
	host []byte,
	addr spad.Addr,
	rows int,
) CmdMsgBuilder {
	b.host = host
	b.addr = addr
	b.rows = rows
	return b
}

// WithOperands sets the addresses and the dimension of a Multiply.
func (b CmdMsgBuilder) WithOperands(
	op1, op2, out spad.Addr,
	dim int,
) CmdMsgBuilder {
	b.op1 = op1
	b.op2 = op2
	b.out = out
	b.dim = dim
	return b
}

// Build creates a CmdMsg.
func (b CmdMsgBuilder) Build() *CmdMsg {
	return &CmdMsg{
		MsgMeta: sim.MsgMeta{
			ID:  sim.GetIDGenerator().Generate(),
			Src: b.src,
			Dst: b.dst,
		},
		Kind: b.kind,
		Host: b.host,
		Addr: b.addr,
		Rows: b.rows,
		Op1:  b.op1,
		Op2:  b.op2,
		Out:  b.out,
		Dim:  b.dim,
	}
}

// DoneRsp tells the host that a command has completed.
type DoneRsp struct {
	sim.MsgMeta

	RespondTo string
	Kind      CmdKind
}

// Meta returns the meta data of the msg.
func (r *DoneRsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the rsp with a new ID.
func (r *DoneRsp) Clone() sim.Msg {
	clone := *r
	clone.ID = sim.GetIDGenerator().Generate()

	return &clone
}

func newDoneRsp(src sim.RemotePort, cmd *CmdMsg) *DoneRsp {
	return &DoneRsp{
		MsgMeta: sim.MsgMeta{
			ID:  sim.GetIDGenerator().Generate(),
			Src: src,
			Dst: cmd.Src,
		},
		RespondTo: cmd.ID,
		Kind:      cmd.Kind,
	}
}
