// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpu implements a 6809 CPU instruction
// set and emulator.
package cpu

// CPU represents a single 6809 CPU. It contains a pointer to the
// memory associated with the CPU.
type CPU struct {
	Reg       Registers       // CPU registers
	Mem       Memory          // assigned memory
	Cycles    uint64          // total executed CPU cycles
	LastPC    Word            // Previous program counter
	InstSet   *InstructionSet // Instruction set used by the CPU
	debugger  *Debugger
	storeByte func(cpu *CPU, addr Word, v Byte)
}

// Interrupt vectors
const (
	vectorSWI3 = 0xfff2
)

// NewCPU creates an emulated 6809 CPU bound to the specified memory.
func NewCPU(m Memory) *CPU {
	cpu := &CPU{
		Mem:       m,
		InstSet:   GetInstructionSet(),
		storeByte: (*CPU).storeByteNormal,
	}

	cpu.Reg.Reset()
	return cpu
}

// SetPC updates the CPU program counter to 'addr'.
func (cpu *CPU) SetPC(addr Word) {
	cpu.Reg.PC = addr
}

// GetInstruction returns the instruction at the requested address,
// following a page 2 prefix if there is one.
func (cpu *CPU) GetInstruction(addr Word) *Instruction {
	return cpu.InstSet.Decode(cpu.Mem, addr)
}

// NextAddr returns the address of the next instruction following the
// instruction at addr.
func (cpu *CPU) NextAddr(addr Word) Word {
	inst := cpu.GetInstruction(addr)
	n := Word(inst.Length)
	if inst.Mode == IDX {
		postbyte := cpu.Mem.LoadByte(addr + n - 1)
		if l, ok := IndexedLength(postbyte); ok {
			n += Word(l - 1)
		}
	}
	return addr + n
}

// Step executes the instruction at the program counter and returns the
// number of cycles it took. An undefined opcode or an invalid indexed
// postbyte stops the instruction with an error; the program counter is
// then left pointing at the faulting instruction and no cycles elapse.
func (cpu *CPU) Step() (int, error) {
	cpu.LastPC = cpu.Reg.PC

	// Fetch the opcode, following the page 2 prefix if present.
	page := Page1
	opcode := cpu.fetch()
	if opcode == page2Prefix {
		page = Page2
		opcode = cpu.fetch()
	}

	inst := cpu.InstSet.Lookup(page, opcode)
	if !inst.Defined() {
		cpu.Reg.PC = cpu.LastPC
		return 0, &UnimplementedOpcodeError{Page: page, Opcode: opcode, Address: cpu.LastPC}
	}

	// Resolve the operand and advance the PC past it.
	op, err := cpu.resolve(inst.Mode)
	if err != nil {
		cpu.Reg.PC = cpu.LastPC
		return 0, err
	}
	cpu.Reg.PC += Word(op.BytesConsumed)

	cycles := int(inst.Cycles)
	if inst.Mode == IDX {
		cycles += op.BytesConsumed
	}
	cycles += inst.fn(cpu, inst, op)
	cpu.Cycles += uint64(cycles)

	// Update the debugger so it handle breakpoints.
	if cpu.debugger != nil {
		cpu.debugger.onUpdatePC(cpu, cpu.Reg.PC)
	}
	return cycles, nil
}

// AttachDebugger attaches a debugger to the CPU. The debugger receives
// notifications whenever the CPU executes an instruction or stores a byte
// to memory.
func (cpu *CPU) AttachDebugger(debugger *Debugger) {
	cpu.debugger = debugger
	cpu.storeByte = (*CPU).storeByteDebugger
}

// DetachDebugger detaches the currently debugger from the CPU.
func (cpu *CPU) DetachDebugger() {
	cpu.debugger = nil
	cpu.storeByte = (*CPU).storeByteNormal
}

// Read the byte at the program counter and advance it.
func (cpu *CPU) fetch() Byte {
	v := cpu.Mem.LoadByte(cpu.Reg.PC)
	cpu.Reg.PC++
	return v
}

// Resolve the operand for the requested addressing mode.
func (cpu *CPU) resolve(mode Mode) (Result, error) {
	switch mode {
	case INH:
		return Result{}, nil
	case IMM, REL:
		return ResolveImmediate(cpu.Mem, &cpu.Reg), nil
	case DIR:
		return ResolveDirect(cpu.Mem, &cpu.Reg), nil
	case EXT:
		return ResolveExtended(cpu.Mem, &cpu.Reg), nil
	case IDX:
		return ResolveIndexed(cpu.Mem, &cpu.Reg)
	default:
		panic("Invalid addressing mode")
	}
}

// Load a 16-bit operand: the value itself for immediate mode, otherwise
// the word stored at the effective address.
func (cpu *CPU) loadWord(mode Mode, op Result) Word {
	if mode == IMM {
		return op.Value
	}
	return cpu.Mem.LoadWord(op.Value)
}

// Store the byte value 'v' add the address 'addr'.
func (cpu *CPU) storeByteNormal(addr Word, v Byte) {
	cpu.Mem.StoreByte(addr, v)
}

// Store the byte value 'v' add the address 'addr'.
func (cpu *CPU) storeByteDebugger(addr Word, v Byte) {
	cpu.debugger.onDataStore(cpu, addr, v)
	cpu.Mem.StoreByte(addr, v)
}

// Push a byte onto the hardware stack.
func (cpu *CPU) push(v Byte) {
	cpu.Reg.S--
	cpu.storeByte(cpu, cpu.Reg.S, v)
}

// Push a word onto the hardware stack, low byte first so that it ends up
// stored high byte first.
func (cpu *CPU) pushWord(v Word) {
	cpu.push(v.Low())
	cpu.push(v.High())
}

// Apply a read-modify-write transform to the byte at addr.
func (cpu *CPU) modify(addr Word, transform func(r *Registers, v Byte) Byte) int {
	v := transform(&cpu.Reg, cpu.Mem.LoadByte(addr))
	cpu.storeByte(cpu, addr, v)
	return 0
}

// Take a long branch if cond holds. The offset has already been fetched.
func (cpu *CPU) longBranch(op Result, cond bool) int {
	if !cond {
		return 0
	}
	cpu.Reg.PC = cpu.Reg.PC.AddSigned(op.Value.Signed())
	return 1
}

// Compare a 16-bit register against a memory operand.
func (cpu *CPU) compareWord(reg Word, v Word) {
	r := &cpu.Reg
	r.ClearFlags(NegativeFlag | ZeroFlag | OverflowFlag | CarryFlag)
	result := r.BinaryAddWord(reg, v.TwosComplement(), false, false, false)
	r.updateNZWord(result)
	r.SetFlagsIf(OverflowFlag, (reg^v)&(reg^result)&0x8000 != 0)
	r.SetFlagsIf(CarryFlag, reg < v)
}

// Negate: two's complement. N and Z are both raised for a zero result.
// V is raised whenever the result has bit 7 set, which covers the $80
// case, and C is raised for any non-zero result.
func negate(r *Registers, v Byte) Byte {
	result := v.TwosComplement()
	r.ClearFlags(NegativeFlag | ZeroFlag | OverflowFlag | CarryFlag)
	r.SetFlagsIf(OverflowFlag, result.IsMasked(0x80))
	r.SetFlagsIf(ZeroFlag|NegativeFlag, result.IsZero())
	r.SetFlagsIf(NegativeFlag, result.IsNegative())
	r.SetFlagsIf(CarryFlag, !result.IsZero())
	return result
}

// Complement: invert all bits. C is always set.
func complement(r *Registers, v Byte) Byte {
	result := ^v
	r.ClearFlags(NegativeFlag | ZeroFlag | OverflowFlag)
	r.SetFlags(CarryFlag)
	r.updateNZ(result)
	return result
}

// Logical shift right. N is always cleared.
func logicalShiftRight(r *Registers, v Byte) Byte {
	result := v >> 1
	r.ClearFlags(NegativeFlag | ZeroFlag | CarryFlag)
	r.SetFlagsIf(CarryFlag, v.IsMasked(0x01))
	r.SetFlagsIf(ZeroFlag, result.IsZero())
	return result
}

// Rotate right through carry.
func rotateRight(r *Registers, v Byte) Byte {
	result := v >> 1
	if r.CarrySet() {
		result |= 0x80
	}
	r.ClearFlags(NegativeFlag | ZeroFlag | CarryFlag)
	r.SetFlagsIf(CarryFlag, v.IsMasked(0x01))
	r.updateNZ(result)
	return result
}

// Arithmetic shift right, keeping the sign bit.
func arithmeticShiftRight(r *Registers, v Byte) Byte {
	result := v>>1 | v&0x80
	r.ClearFlags(NegativeFlag | ZeroFlag | CarryFlag)
	r.SetFlagsIf(CarryFlag, v.IsMasked(0x01))
	r.updateNZ(result)
	return result
}

// Arithmetic shift left. V is bit 7 XOR bit 6 of the operand.
func arithmeticShiftLeft(r *Registers, v Byte) Byte {
	result := v << 1
	r.ClearFlags(NegativeFlag | ZeroFlag | OverflowFlag | CarryFlag)
	r.SetFlagsIf(CarryFlag, v.IsMasked(0x80))
	r.SetFlagsIf(OverflowFlag, (v^v<<1)&0x80 != 0)
	r.updateNZ(result)
	return result
}

// Rotate left through carry. V is bit 7 XOR bit 6 of the operand.
func rotateLeft(r *Registers, v Byte) Byte {
	result := v << 1
	if r.CarrySet() {
		result |= 0x01
	}
	r.ClearFlags(NegativeFlag | ZeroFlag | OverflowFlag | CarryFlag)
	r.SetFlagsIf(CarryFlag, v.IsMasked(0x80))
	r.SetFlagsIf(OverflowFlag, (v^v<<1)&0x80 != 0)
	r.updateNZ(result)
	return result
}

// Decrement by adding $FF. C is unaffected.
func decrement(r *Registers, v Byte) Byte {
	r.ClearFlags(NegativeFlag | ZeroFlag | OverflowFlag)
	result := r.BinaryAdd(v, 0xff, false, false, false)
	r.SetFlagsIf(OverflowFlag, v.IsZero())
	r.updateNZ(result)
	return result
}

// Increment by one. C is unaffected. V is raised only when $7F wraps into
// the sign bit.
func increment(r *Registers, v Byte) Byte {
	r.ClearFlags(NegativeFlag | ZeroFlag | OverflowFlag)
	result := r.BinaryAdd(v, 0x01, false, false, false)
	r.SetFlagsIf(OverflowFlag, v == 0x7f)
	r.updateNZ(result)
	return result
}

// Test: set N and Z from the value, which passes through unchanged.
func test(r *Registers, v Byte) Byte {
	r.ClearFlags(NegativeFlag | ZeroFlag | OverflowFlag)
	r.updateNZ(v)
	return v
}

// Clear: the result is always zero.
func clearByte(r *Registers, v Byte) Byte {
	r.ClearFlags(NegativeFlag | OverflowFlag | CarryFlag)
	r.SetFlags(ZeroFlag)
	return 0
}

// Arithmetic Shift Left
func (cpu *CPU) asl(inst *Instruction, op Result) int {
	return cpu.modify(op.Value, arithmeticShiftLeft)
}

// Arithmetic Shift Right
func (cpu *CPU) asr(inst *Instruction, op Result) int {
	return cpu.modify(op.Value, arithmeticShiftRight)
}

// Clear memory
func (cpu *CPU) clr(inst *Instruction, op Result) int {
	return cpu.modify(op.Value, clearByte)
}

// Compare D register
func (cpu *CPU) cmpd(inst *Instruction, op Result) int {
	cpu.compareWord(cpu.Reg.D(), cpu.loadWord(inst.Mode, op))
	return 0
}

// Compare Y register
func (cpu *CPU) cmpy(inst *Instruction, op Result) int {
	cpu.compareWord(cpu.Reg.Y, cpu.loadWord(inst.Mode, op))
	return 0
}

// Complement memory
func (cpu *CPU) com(inst *Instruction, op Result) int {
	return cpu.modify(op.Value, complement)
}

// Decrement memory
func (cpu *CPU) dec(inst *Instruction, op Result) int {
	return cpu.modify(op.Value, decrement)
}

// Increment memory
func (cpu *CPU) inc(inst *Instruction, op Result) int {
	return cpu.modify(op.Value, increment)
}

// Jump to memory address
func (cpu *CPU) jmp(inst *Instruction, op Result) int {
	cpu.Reg.PC = op.Value
	return 0
}

// Long Branch if Carry Clear
func (cpu *CPU) lbcc(inst *Instruction, op Result) int {
	return cpu.longBranch(op, !cpu.Reg.CarrySet())
}

// Long Branch if Carry Set
func (cpu *CPU) lbcs(inst *Instruction, op Result) int {
	return cpu.longBranch(op, cpu.Reg.CarrySet())
}

// Long Branch if EQual
func (cpu *CPU) lbeq(inst *Instruction, op Result) int {
	return cpu.longBranch(op, cpu.Reg.ZeroSet())
}

// Long Branch if Greater or Equal (signed)
func (cpu *CPU) lbge(inst *Instruction, op Result) int {
	return cpu.longBranch(op, cpu.Reg.NegativeSet() == cpu.Reg.OverflowSet())
}

// Long Branch if Greater Than (signed)
func (cpu *CPU) lbgt(inst *Instruction, op Result) int {
	r := &cpu.Reg
	return cpu.longBranch(op, !r.ZeroSet() && r.NegativeSet() == r.OverflowSet())
}

// Long Branch if HIgher (unsigned)
func (cpu *CPU) lbhi(inst *Instruction, op Result) int {
	return cpu.longBranch(op, !cpu.Reg.CarrySet() && !cpu.Reg.ZeroSet())
}

// Long Branch if Less or Equal (signed)
func (cpu *CPU) lble(inst *Instruction, op Result) int {
	r := &cpu.Reg
	return cpu.longBranch(op, r.ZeroSet() || r.NegativeSet() != r.OverflowSet())
}

// Long Branch if Lower or Same (unsigned)
func (cpu *CPU) lbls(inst *Instruction, op Result) int {
	return cpu.longBranch(op, cpu.Reg.CarrySet() || cpu.Reg.ZeroSet())
}

// Long Branch if Less Than (signed)
func (cpu *CPU) lblt(inst *Instruction, op Result) int {
	return cpu.longBranch(op, cpu.Reg.NegativeSet() != cpu.Reg.OverflowSet())
}

// Long Branch if MInus
func (cpu *CPU) lbmi(inst *Instruction, op Result) int {
	return cpu.longBranch(op, cpu.Reg.NegativeSet())
}

// Long Branch if Not Equal
func (cpu *CPU) lbne(inst *Instruction, op Result) int {
	return cpu.longBranch(op, !cpu.Reg.ZeroSet())
}

// Long Branch if PLus
func (cpu *CPU) lbpl(inst *Instruction, op Result) int {
	return cpu.longBranch(op, !cpu.Reg.NegativeSet())
}

// Long Branch Never
func (cpu *CPU) lbrn(inst *Instruction, op Result) int {
	return cpu.longBranch(op, false)
}

// Long Branch if oVerflow Clear
func (cpu *CPU) lbvc(inst *Instruction, op Result) int {
	return cpu.longBranch(op, !cpu.Reg.OverflowSet())
}

// Long Branch if oVerflow Set
func (cpu *CPU) lbvs(inst *Instruction, op Result) int {
	return cpu.longBranch(op, cpu.Reg.OverflowSet())
}

// Logical Shift Right
func (cpu *CPU) lsr(inst *Instruction, op Result) int {
	return cpu.modify(op.Value, logicalShiftRight)
}

// Negate memory
func (cpu *CPU) neg(inst *Instruction, op Result) int {
	return cpu.modify(op.Value, negate)
}

// Rotate Left
func (cpu *CPU) rol(inst *Instruction, op Result) int {
	return cpu.modify(op.Value, rotateLeft)
}

// Rotate Right
func (cpu *CPU) ror(inst *Instruction, op Result) int {
	return cpu.modify(op.Value, rotateRight)
}

// Software Interrupt 3. The entire register state is stacked.
func (cpu *CPU) swi3(inst *Instruction, op Result) int {
	r := &cpu.Reg
	r.SetFlags(EntireFlag)
	cpu.pushWord(r.PC)
	cpu.pushWord(r.U)
	cpu.pushWord(r.Y)
	cpu.pushWord(r.X)
	cpu.push(r.DP)
	cpu.push(r.B)
	cpu.push(r.A)
	cpu.push(r.CC)
	r.PC = cpu.Mem.LoadWord(vectorSWI3)
	return 0
}

// Test memory
func (cpu *CPU) tst(inst *Instruction, op Result) int {
	test(&cpu.Reg, cpu.Mem.LoadByte(op.Value))
	return 0
}
