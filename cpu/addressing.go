// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// A Result is the outcome of resolving an instruction operand: the number
// of instruction-stream bytes the operand occupies beyond the opcode, and
// the effective address (or, for immediate operands, the value itself).
type Result struct {
	BytesConsumed int
	Value         Word
}

// Indexed postbyte fields
const (
	postbyteExtended = 0x80 // clear: 5-bit offset form
	postbyteIndirect = 0x10 // set with postbyteExtended: indirect
	postbyteRegister = 0x60
	postbyteSubMode  = 0x0f
)

// The resolvers below read operand bytes starting at the current program
// counter, which points just past the opcode. They do not advance the
// program counter; the caller adds BytesConsumed once execution of the
// operand is complete.

// ResolveDirect returns the address formed by the direct page register and
// the byte following the opcode.
func ResolveDirect(m Memory, r *Registers) Result {
	return Result{BytesConsumed: 1, Value: MakeWord(r.DP, m.LoadByte(r.PC))}
}

// ResolveImmediate returns the 16-bit value following the opcode.
func ResolveImmediate(m Memory, r *Registers) Result {
	return Result{BytesConsumed: 2, Value: m.LoadWord(r.PC)}
}

// ResolveExtended returns the address stored in the word that the 16-bit
// operand following the opcode points to.
func ResolveExtended(m Memory, r *Registers) Result {
	return Result{BytesConsumed: 2, Value: m.LoadWord(m.LoadWord(r.PC))}
}

// ResolveIndexed decodes the postbyte following the opcode and returns the
// effective address it describes. Auto-increment and auto-decrement forms
// update the selected index register. When the postbyte requests
// indirection, the effective address is loaded from the computed address
// and the index register is left untouched.
func ResolveIndexed(m Memory, r *Registers) (Result, error) {
	pc := r.PC
	postbyte := m.LoadByte(pc)
	reg := indexRegister(r, postbyte)

	if postbyte&postbyteExtended == 0 {
		offset := int(postbyte & 0x1f)
		if offset&0x10 != 0 {
			offset -= 0x20
		}
		return Result{BytesConsumed: 1, Value: reg.AddSigned(offset)}, nil
	}

	var ea Word
	consumed := 1
	adjust := 0

	switch postbyte & postbyteSubMode {
	case 0x0: // ,R+
		ea, adjust = *reg, 1
	case 0x1: // ,R++
		ea, adjust = *reg, 2
	case 0x2: // ,-R
		ea, adjust = reg.AddSigned(-1), -1
	case 0x3: // ,--R
		ea, adjust = reg.AddSigned(-2), -2
	case 0x4: // ,R
		ea = *reg
	case 0x5: // B,R
		ea = reg.AddSigned(r.B.Signed())
	case 0x6: // A,R
		ea = reg.AddSigned(r.A.Signed())
	case 0x8: // n8,R
		ea = reg.AddSigned(m.LoadByte(pc + 1).Signed())
		consumed = 2
	case 0x9: // n16,R
		ea = reg.AddSigned(m.LoadWord(pc + 1).Signed())
		consumed = 3
	case 0xb: // D,R
		ea = r.BinaryAddWord(*reg, r.D(), false, false, false)
	case 0xc: // n8,PCR
		consumed = 2
		ea = (pc + Word(consumed)).AddSigned(m.LoadByte(pc + 1).Signed())
	case 0xd: // n16,PCR
		consumed = 3
		ea = (pc + Word(consumed)).AddSigned(m.LoadWord(pc + 1).Signed())
	default:
		return Result{}, &InvalidPostbyteError{Postbyte: postbyte, Address: pc}
	}

	if postbyte&postbyteIndirect != 0 {
		return Result{BytesConsumed: consumed, Value: m.LoadWord(ea)}, nil
	}

	*reg = reg.AddSigned(adjust)
	return Result{BytesConsumed: consumed, Value: ea}, nil
}

// IndexedLength returns the number of bytes, including the postbyte itself,
// that an indexed operand occupies. It returns false if the postbyte is not
// a valid indexed postbyte.
func IndexedLength(postbyte Byte) (int, bool) {
	if postbyte&postbyteExtended == 0 {
		return 1, true
	}
	switch postbyte & postbyteSubMode {
	case 0x0, 0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0xb:
		return 1, true
	case 0x8, 0xc:
		return 2, true
	case 0x9, 0xd:
		return 3, true
	default:
		return 0, false
	}
}

// Return the index register selected by bits 5-6 of an indexed postbyte.
func indexRegister(r *Registers, postbyte Byte) *Word {
	switch postbyte & postbyteRegister {
	case 0x00:
		return &r.X
	case 0x20:
		return &r.Y
	case 0x40:
		return &r.U
	default:
		return &r.S
	}
}
