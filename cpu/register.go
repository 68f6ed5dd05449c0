// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "fmt"

// Registers contains the state of all 6809 registers. The D register is not
// stored; it is always the concatenation of A (high) and B (low).
type Registers struct {
	A  Byte // accumulator A
	B  Byte // accumulator B
	DP Byte // direct page register
	CC Byte // condition code register
	PC Word // program counter
	X  Word // X index register
	Y  Word // Y index register
	S  Word // hardware stack pointer
	U  Word // user stack pointer
}

// Bits assigned to the condition code register
const (
	CarryFlag     Byte = 1 << 0 // C
	OverflowFlag  Byte = 1 << 1 // V
	ZeroFlag      Byte = 1 << 2 // Z
	NegativeFlag  Byte = 1 << 3 // N
	IRQMaskFlag   Byte = 1 << 4 // I
	HalfCarryFlag Byte = 1 << 5 // H
	FIRQMaskFlag  Byte = 1 << 6 // F
	EntireFlag    Byte = 1 << 7 // E
)

// Reset clears all registers and masks both interrupt lines, as the
// processor does on a reset signal.
func (r *Registers) Reset() {
	*r = Registers{}
	r.CC = IRQMaskFlag | FIRQMaskFlag
}

// D returns the 16-bit accumulator formed by A:B.
func (r *Registers) D() Word {
	return MakeWord(r.A, r.B)
}

// SetD stores a 16-bit value into A (high byte) and B (low byte).
func (r *Registers) SetD(v Word) {
	r.A = v.High()
	r.B = v.Low()
}

func (r *Registers) CarrySet() bool     { return r.CC.IsMasked(CarryFlag) }
func (r *Registers) OverflowSet() bool  { return r.CC.IsMasked(OverflowFlag) }
func (r *Registers) ZeroSet() bool      { return r.CC.IsMasked(ZeroFlag) }
func (r *Registers) NegativeSet() bool  { return r.CC.IsMasked(NegativeFlag) }
func (r *Registers) IRQMaskSet() bool   { return r.CC.IsMasked(IRQMaskFlag) }
func (r *Registers) HalfCarrySet() bool { return r.CC.IsMasked(HalfCarryFlag) }
func (r *Registers) FIRQMaskSet() bool  { return r.CC.IsMasked(FIRQMaskFlag) }
func (r *Registers) EntireSet() bool    { return r.CC.IsMasked(EntireFlag) }

// SetFlags sets the condition code bits in mask, leaving the others alone.
func (r *Registers) SetFlags(mask Byte) {
	r.CC = r.CC.Or(mask)
}

// ClearFlags clears the condition code bits in mask, leaving the others
// alone.
func (r *Registers) ClearFlags(mask Byte) {
	r.CC = r.CC.And(^mask)
}

// SetFlagsIf sets the bits in mask when cond is true. It never clears them.
func (r *Registers) SetFlagsIf(mask Byte, cond bool) {
	if cond {
		r.SetFlags(mask)
	}
}

// BinaryAdd returns a+b. When requested, it raises the half-carry flag if
// the low nibble overflows, the carry flag if the byte overflows, and the
// overflow flag if the signed result does not fit. Flags are only ever set
// by this function; callers clear them beforehand when they need exact
// results.
func (r *Registers) BinaryAdd(a, b Byte, flagHalfCarry, flagCarry, flagOverflow bool) Byte {
	sum := uint(a) + uint(b)
	result := Byte(sum)
	r.SetFlagsIf(HalfCarryFlag, flagHalfCarry && (a&0x0f)+(b&0x0f) > 0x0f)
	r.SetFlagsIf(CarryFlag, flagCarry && sum > 0xff)
	r.SetFlagsIf(OverflowFlag, flagOverflow && (a^result)&(b^result)&0x80 != 0)
	return result
}

// BinaryAddWord is the 16-bit form of BinaryAdd. Half carry is raised when
// the low byte overflows.
func (r *Registers) BinaryAddWord(a, b Word, flagHalfCarry, flagCarry, flagOverflow bool) Word {
	sum := uint(a) + uint(b)
	result := Word(sum)
	r.SetFlagsIf(HalfCarryFlag, flagHalfCarry && (a&0xff)+(b&0xff) > 0xff)
	r.SetFlagsIf(CarryFlag, flagCarry && sum > 0xffff)
	r.SetFlagsIf(OverflowFlag, flagOverflow && (a^result)&(b^result)&0x8000 != 0)
	return result
}

// updateNZ sets the Negative and Zero flags from an 8-bit result. It does
// not clear them.
func (r *Registers) updateNZ(v Byte) {
	r.SetFlagsIf(NegativeFlag, v.IsNegative())
	r.SetFlagsIf(ZeroFlag, v.IsZero())
}

// updateNZWord is the 16-bit form of updateNZ.
func (r *Registers) updateNZWord(v Word) {
	r.SetFlagsIf(NegativeFlag, v.IsNegative())
	r.SetFlagsIf(ZeroFlag, v.IsZero())
}

var ccNames = "EFHINZVC"

// FlagString returns the condition codes as a string of flag letters, with
// a dash in place of each clear flag.
func (r *Registers) FlagString() string {
	var b [8]byte
	for i := 0; i < 8; i++ {
		if r.CC&(0x80>>i) != 0 {
			b[i] = ccNames[i]
		} else {
			b[i] = '-'
		}
	}
	return string(b[:])
}

func (r *Registers) String() string {
	return fmt.Sprintf("A=%02X B=%02X DP=%02X X=%04X Y=%04X U=%04X S=%04X PC=%04X CC=%s",
		uint8(r.A), uint8(r.B), uint8(r.DP), uint16(r.X), uint16(r.Y),
		uint16(r.U), uint16(r.S), uint16(r.PC), r.FlagString())
}
