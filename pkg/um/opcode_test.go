package um

import (
	"testing"
)

// TestInstructionFields tests the standard three-register layout.
func TestInstructionFields(t *testing.T) {
	// add r1, r2, r3: opcode 3 in bits 31-28, a=1 in bits 8-6,
	// b=2 in bits 5-3, c=3 in bits 2-0.
	ins := Instruction(0x30000053)

	if ins.Op() != OpAdd {
		t.Errorf("Op() = %v, want %v", ins.Op(), OpAdd)
	}
	if ins.A() != 1 {
		t.Errorf("A() = %d, want 1", ins.A())
	}
	if ins.B() != 2 {
		t.Errorf("B() = %d, want 2", ins.B())
	}
	if ins.C() != 3 {
		t.Errorf("C() = %d, want 3", ins.C())
	}
}

// TestEncodeRoundTrip tests that Encode and the accessors agree.
func TestEncodeRoundTrip(t *testing.T) {
	ops := []Opcode{
		OpConditionalMove, OpArrayIndex, OpArrayUpdate, OpAdd,
		OpMultiply, OpDivide, OpNand, OpHalt, OpAllocate,
		OpDeallocate, OpOutput, OpInput, OpLoadProgram,
	}

	for _, op := range ops {
		for _, regs := range [][3]uint8{{0, 0, 0}, {7, 7, 7}, {1, 2, 3}, {5, 0, 6}} {
			ins := Instruction(Encode(op, regs[0], regs[1], regs[2]))
			if ins.Op() != op {
				t.Errorf("Encode(%v).Op() = %v", op, ins.Op())
			}
			if ins.A() != regs[0] || ins.B() != regs[1] || ins.C() != regs[2] {
				t.Errorf("Encode(%v, %d, %d, %d) decoded to a=%d b=%d c=%d",
					op, regs[0], regs[1], regs[2], ins.A(), ins.B(), ins.C())
			}
		}
	}
}

// TestLoadImmediateLayout tests the special Load Immediate layout.
func TestLoadImmediateLayout(t *testing.T) {
	ins := Instruction(EncodeImm(5, 0x1234))

	if ins.Op() != OpLoadImmediate {
		t.Errorf("Op() = %v, want %v", ins.Op(), OpLoadImmediate)
	}
	if ins.ImmReg() != 5 {
		t.Errorf("ImmReg() = %d, want 5", ins.ImmReg())
	}
	if ins.Imm() != 0x1234 {
		t.Errorf("Imm() = 0x%x, want 0x1234", ins.Imm())
	}

	// Largest representable immediate.
	max := Instruction(EncodeImm(7, 0x01FFFFFF))
	if max.Imm() != 0x01FFFFFF {
		t.Errorf("Imm() = 0x%x, want 0x01FFFFFF", max.Imm())
	}

	// Values past 25 bits are truncated, never sign-extended.
	over := Instruction(EncodeImm(0, 0x02000000))
	if over.Imm() != 0 {
		t.Errorf("Imm() = 0x%x, want 0", over.Imm())
	}
}

// TestOpcodeString tests opcode mnemonics.
func TestOpcodeString(t *testing.T) {
	tests := []struct {
		op   Opcode
		want string
	}{
		{OpConditionalMove, "cmov"},
		{OpHalt, "halt"},
		{OpLoadImmediate, "loadimm"},
		{Opcode(14), "op14"},
		{Opcode(15), "op15"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Opcode(%d).String() = %q, want %q", uint8(tt.op), got, tt.want)
		}
	}
}

// TestInstructionString tests the disassembly forms.
func TestInstructionString(t *testing.T) {
	tests := []struct {
		word uint32
		want string
	}{
		{Encode(OpAdd, 1, 2, 3), "add r1, r2, r3"},
		{Encode(OpArrayIndex, 1, 2, 3), "index r1, [r2][r3]"},
		{Encode(OpArrayUpdate, 1, 2, 3), "amend [r1][r2], r3"},
		{Encode(OpHalt, 0, 0, 0), "halt"},
		{Encode(OpAllocate, 0, 2, 1), "alloc r2, r1"},
		{Encode(OpOutput, 0, 0, 6), "output r6"},
		{Encode(OpLoadProgram, 0, 4, 5), "loadprog r4, r5"},
		{EncodeImm(3, 72), "loadimm r3, 72"},
	}

	for _, tt := range tests {
		if got := Instruction(tt.word).String(); got != tt.want {
			t.Errorf("Instruction(0x%08x).String() = %q, want %q", tt.word, got, tt.want)
		}
	}
}
