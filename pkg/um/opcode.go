// Opcodes and instruction word encoding.
package um

import "fmt"

// Opcode is the 4-bit operation tag in bits 31-28 of an instruction word.
// Values 0-13 are defined; 14 and 15 are malformed.
type Opcode uint8

// The fourteen operations.
const (
	OpConditionalMove Opcode = 0  // if reg[C] != 0 then reg[A] = reg[B]
	OpArrayIndex      Opcode = 1  // reg[A] = array[reg[B]][reg[C]]
	OpArrayUpdate     Opcode = 2  // array[reg[A]][reg[B]] = reg[C]
	OpAdd             Opcode = 3  // reg[A] = reg[B] + reg[C] (mod 2^32)
	OpMultiply        Opcode = 4  // reg[A] = reg[B] * reg[C] (mod 2^32)
	OpDivide          Opcode = 5  // reg[A] = reg[B] / reg[C] (unsigned)
	OpNand            Opcode = 6  // reg[A] = ^(reg[B] & reg[C])
	OpHalt            Opcode = 7  // stop the machine
	OpAllocate        Opcode = 8  // reg[B] = new array of reg[C] words
	OpDeallocate      Opcode = 9  // free array reg[C]
	OpOutput          Opcode = 10 // write byte reg[C] to the console
	OpInput           Opcode = 11 // reg[C] = next console byte, or all ones at end of input
	OpLoadProgram     Opcode = 12 // replace the program with a copy of array reg[B], jump to reg[C]
	OpLoadImmediate   Opcode = 13 // reg[bits 27-25] = bits 24-0 (special layout)
)

// NumOpcodes is the count of defined operations.
const NumOpcodes = 14

var opcodeNames = [NumOpcodes]string{
	"cmov", "index", "amend", "add", "mul", "div", "nand",
	"halt", "alloc", "free", "output", "input", "loadprog", "loadimm",
}

// String returns the mnemonic for the opcode.
func (op Opcode) String() string {
	if op < NumOpcodes {
		return opcodeNames[op]
	}
	return fmt.Sprintf("op%d", uint8(op))
}

// Instruction is one encoded 32-bit machine word.
//
// Standard layout (bit 0 = least significant):
//
//	bits 31-28  opcode
//	bits 8-6    register A
//	bits 5-3    register B
//	bits 2-0    register C
//
// Load Immediate uses a different layout: bits 27-25 select the
// destination register and bits 24-0 hold an unsigned immediate.
type Instruction uint32

// Op returns the opcode (bits 31-28).
func (i Instruction) Op() Opcode {
	return Opcode(i >> 28)
}

// A returns the register A index (bits 8-6).
func (i Instruction) A() uint8 {
	return uint8((i >> 6) & 7)
}

// B returns the register B index (bits 5-3).
func (i Instruction) B() uint8 {
	return uint8((i >> 3) & 7)
}

// C returns the register C index (bits 2-0).
func (i Instruction) C() uint8 {
	return uint8(i & 7)
}

// ImmReg returns the Load Immediate destination register (bits 27-25).
func (i Instruction) ImmReg() uint8 {
	return uint8((i >> 25) & 7)
}

// Imm returns the Load Immediate value (bits 24-0, zero-extended).
func (i Instruction) Imm() uint32 {
	return uint32(i) & 0x01FFFFFF
}

// String disassembles the instruction.
func (i Instruction) String() string {
	switch op := i.Op(); op {
	case OpConditionalMove, OpAdd, OpMultiply, OpDivide, OpNand:
		return fmt.Sprintf("%s r%d, r%d, r%d", op, i.A(), i.B(), i.C())
	case OpArrayIndex:
		return fmt.Sprintf("%s r%d, [r%d][r%d]", op, i.A(), i.B(), i.C())
	case OpArrayUpdate:
		return fmt.Sprintf("%s [r%d][r%d], r%d", op, i.A(), i.B(), i.C())
	case OpHalt:
		return op.String()
	case OpAllocate:
		return fmt.Sprintf("%s r%d, r%d", op, i.B(), i.C())
	case OpDeallocate, OpOutput, OpInput:
		return fmt.Sprintf("%s r%d", op, i.C())
	case OpLoadProgram:
		return fmt.Sprintf("%s r%d, r%d", op, i.B(), i.C())
	case OpLoadImmediate:
		return fmt.Sprintf("%s r%d, %d", op, i.ImmReg(), i.Imm())
	default:
		return fmt.Sprintf("%s (0x%08x)", op, uint32(i))
	}
}

// Encode composes a standard three-register instruction word.
func Encode(op Opcode, a, b, c uint8) uint32 {
	return uint32(op)<<28 |
		uint32(a&7)<<6 |
		uint32(b&7)<<3 |
		uint32(c&7)
}

// EncodeImm composes a Load Immediate instruction word. The value is
// truncated to 25 bits.
func EncodeImm(reg uint8, value uint32) uint32 {
	return uint32(OpLoadImmediate)<<28 |
		uint32(reg&7)<<25 |
		value&0x01FFFFFF
}
