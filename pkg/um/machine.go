// Package um implements the Universal Machine, a register-based
// virtual machine.
//
// The machine has eight general-purpose 32-bit registers and a table
// of dynamically allocated word arrays addressed by integer handles.
// Handle 0 holds the active program; the Load Program operation can
// replace it wholesale with a copy of any other array while the
// machine is running. Execution is a fetch-decode-dispatch loop over
// fourteen operations; any fault is fatal and ends the run.
package um

import (
	"errors"
	"fmt"
	"io"
)

// Faults. Every one of these is fatal: the dispatcher stops the
// machine at the faulting instruction with no recovery or retry.
var (
	ErrInvalidHandle     = errors.New("invalid array handle")
	ErrOutOfBounds       = errors.New("array offset out of bounds")
	ErrDivisionByZero    = errors.New("division by zero")
	ErrOutputRange       = errors.New("output value exceeds one byte")
	ErrCapacityExhausted = errors.New("array table exhausted")
	ErrMalformedOpcode   = errors.New("malformed opcode")
	ErrPCOutOfRange      = errors.New("program counter out of bounds")
	ErrStepLimit         = errors.New("step limit exceeded")
)

// endOfInput is loaded by the Input operation when the console signals
// end of stream.
const endOfInput = ^uint32(0)

// Console is the machine's byte-oriented I/O boundary. ReadByte
// reports io.EOF at end of input; any other error from either side is
// a fatal machine fault.
type Console interface {
	io.ByteReader
	io.ByteWriter
}

// discard is the console used when none is supplied: input is already
// at end of stream, output is dropped.
type discard struct{}

func (discard) ReadByte() (byte, error) { return 0, io.EOF }
func (discard) WriteByte(byte) error    { return nil }

// StepMeter bounds the number of instructions a machine may execute.
type StepMeter struct {
	remaining uint64
	limit     uint64
}

// NewStepMeter creates a meter allowing limit instructions.
func NewStepMeter(limit uint64) *StepMeter {
	return &StepMeter{remaining: limit, limit: limit}
}

// Tick consumes one instruction from the budget.
func (sm *StepMeter) Tick() error {
	if sm.remaining == 0 {
		return fmt.Errorf("%w: %d instructions", ErrStepLimit, sm.limit)
	}
	sm.remaining--
	return nil
}

// Remaining returns the unconsumed instruction budget.
func (sm *StepMeter) Remaining() uint64 {
	return sm.remaining
}

// Opts configures a machine.
type Opts struct {
	// Console supplies byte input and output for the Input and Output
	// operations. If nil, input reports end of stream and output is
	// discarded.
	Console Console

	// MaxSteps aborts execution with ErrStepLimit after this many
	// instructions. 0 means unlimited.
	MaxSteps uint64

	// OnStep is called before each instruction is dispatched, with the
	// program counter it was fetched from (optional).
	// Called synchronously - should not block.
	OnStep func(pc uint32, ins Instruction)
}

// Machine is one self-contained virtual machine instance. It owns its
// register file and array table; nothing is shared between machines.
type Machine struct {
	regs [8]uint32
	mem  *Memory
	pc   uint32
	// prog caches the handle-0 buffer so the fetch cycle does not go
	// through the table. Updated whenever Load Program swaps it.
	prog []uint32

	console Console
	meter   *StepMeter
	onStep  func(pc uint32, ins Instruction)

	steps  uint64
	halted bool
}

// New creates a machine booted from the given program image. The image
// is copied into handle 0 and the program counter points at its first
// word.
func New(program []uint32, opts Opts) *Machine {
	m := &Machine{
		mem:     NewMemory(program),
		console: opts.Console,
		onStep:  opts.OnStep,
	}
	m.prog = m.mem.arrays[0]
	if m.console == nil {
		m.console = discard{}
	}
	if opts.MaxSteps > 0 {
		m.meter = NewStepMeter(opts.MaxSteps)
	}
	return m
}

// Run executes instructions until the machine halts or faults. It
// returns nil on a clean Halt and the fault otherwise.
func (m *Machine) Run() error {
	for {
		done, err := m.Step()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Step executes a single instruction. It reports done once the machine
// has halted; stepping a halted machine is a no-op.
func (m *Machine) Step() (done bool, err error) {
	if m.halted {
		return true, nil
	}
	if m.meter != nil {
		if err := m.meter.Tick(); err != nil {
			return false, err
		}
	}

	// The program counter must land inside the current handle-0
	// buffer on every cycle, including the first one after a Load
	// Program retarget.
	if uint64(m.pc) >= uint64(len(m.prog)) {
		return false, fmt.Errorf("%w: pc %d, program length %d", ErrPCOutOfRange, m.pc, len(m.prog))
	}

	at := m.pc
	ins := Instruction(m.prog[at])
	m.pc++
	m.steps++

	if m.onStep != nil {
		m.onStep(at, ins)
	}

	switch ins.Op() {
	case OpConditionalMove:
		if m.regs[ins.C()] != 0 {
			m.regs[ins.A()] = m.regs[ins.B()]
		}

	case OpArrayIndex:
		v, err := m.mem.Load(m.regs[ins.B()], m.regs[ins.C()])
		if err != nil {
			return false, err
		}
		m.regs[ins.A()] = v

	case OpArrayUpdate:
		if err := m.mem.Store(m.regs[ins.A()], m.regs[ins.B()], m.regs[ins.C()]); err != nil {
			return false, err
		}

	case OpAdd:
		m.regs[ins.A()] = m.regs[ins.B()] + m.regs[ins.C()]

	case OpMultiply:
		m.regs[ins.A()] = m.regs[ins.B()] * m.regs[ins.C()]

	case OpDivide:
		if m.regs[ins.C()] == 0 {
			return false, ErrDivisionByZero
		}
		m.regs[ins.A()] = m.regs[ins.B()] / m.regs[ins.C()]

	case OpNand:
		m.regs[ins.A()] = ^(m.regs[ins.B()] & m.regs[ins.C()])

	case OpHalt:
		m.halted = true
		return true, nil

	case OpAllocate:
		h, err := m.mem.Alloc(m.regs[ins.C()])
		if err != nil {
			return false, err
		}
		m.regs[ins.B()] = h

	case OpDeallocate:
		if err := m.mem.Free(m.regs[ins.C()]); err != nil {
			return false, err
		}

	case OpOutput:
		v := m.regs[ins.C()]
		if v > 255 {
			return false, fmt.Errorf("%w: %d", ErrOutputRange, v)
		}
		if err := m.console.WriteByte(byte(v)); err != nil {
			return false, fmt.Errorf("console write: %w", err)
		}

	case OpInput:
		b, err := m.console.ReadByte()
		switch {
		case err == io.EOF:
			m.regs[ins.C()] = endOfInput
		case err != nil:
			return false, fmt.Errorf("console read: %w", err)
		default:
			m.regs[ins.C()] = uint32(b)
		}

	case OpLoadProgram:
		if h := m.regs[ins.B()]; h != 0 {
			prog, err := m.mem.SwapProgram(h)
			if err != nil {
				return false, err
			}
			m.prog = prog
		}
		// The offset is accepted as-is; the bounds check at the top of
		// the next cycle faults before a bad target is fetched.
		m.pc = m.regs[ins.C()]

	case OpLoadImmediate:
		m.regs[ins.ImmReg()] = ins.Imm()

	default:
		return false, fmt.Errorf("%w: %d at pc %d", ErrMalformedOpcode, uint8(ins.Op()), at)
	}

	return false, nil
}

// Halted reports whether the machine has executed Halt.
func (m *Machine) Halted() bool {
	return m.halted
}

// PC returns the current program counter.
func (m *Machine) PC() uint32 {
	return m.pc
}

// Reg returns the value of register i (0-7).
func (m *Machine) Reg(i int) uint32 {
	return m.regs[i]
}

// Steps returns the number of instructions executed so far.
func (m *Machine) Steps() uint64 {
	return m.steps
}
