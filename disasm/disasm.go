// Copyright 2014 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements a 6809 instruction set
// disassembler.
package disasm

import (
	"fmt"

	"github.com/beevik/go6809/cpu"
)

// Index register names selected by bits 5-6 of an indexed postbyte.
var indexRegName = []string{"X", "Y", "U", "S"}

// Disassemble the machine code in memory 'm' at address 'addr'. Return a
// 'line' string representing the disassembled instruction and a 'next'
// address that starts the following line of machine code.
func Disassemble(m cpu.Memory, addr cpu.Word) (line string, next cpu.Word) {
	inst := cpu.GetInstructionSet().Decode(m, addr)

	next = addr + cpu.Word(inst.Length)
	if !inst.Defined() {
		return inst.Name, next
	}

	// Operand bytes start after the opcode and any page prefix.
	operand := addr + cpu.Word(inst.Page) + 1

	switch inst.Mode {
	case cpu.INH:
		line = inst.Name
	case cpu.IMM:
		line = fmt.Sprintf("%-5s #$%04X", inst.Name, uint16(m.LoadWord(operand)))
	case cpu.DIR:
		line = fmt.Sprintf("%-5s <$%02X", inst.Name, uint8(m.LoadByte(operand)))
	case cpu.EXT:
		line = fmt.Sprintf("%-5s [$%04X]", inst.Name, uint16(m.LoadWord(operand)))
	case cpu.REL:
		target := next.AddSigned(m.LoadWord(operand).Signed())
		line = fmt.Sprintf("%-5s $%04X", inst.Name, uint16(target))
	case cpu.IDX:
		s, n := formatIndexed(m, operand)
		line = fmt.Sprintf("%-5s %s", inst.Name, s)
		next += cpu.Word(n - 1)
	}
	return line, next
}

// Format the indexed operand whose postbyte is at addr, and return the
// number of operand bytes it occupies.
func formatIndexed(m cpu.Memory, addr cpu.Word) (string, int) {
	postbyte := m.LoadByte(addr)
	n, ok := cpu.IndexedLength(postbyte)
	if !ok {
		return "???", 1
	}

	reg := indexRegName[(postbyte>>5)&3]

	if postbyte&0x80 == 0 {
		offset := int(postbyte & 0x1f)
		if offset&0x10 != 0 {
			offset -= 0x20
		}
		return fmt.Sprintf("%d,%s", offset, reg), n
	}

	var s string
	switch postbyte & 0x0f {
	case 0x0:
		s = "," + reg + "+"
	case 0x1:
		s = "," + reg + "++"
	case 0x2:
		s = ",-" + reg
	case 0x3:
		s = ",--" + reg
	case 0x4:
		s = "," + reg
	case 0x5:
		s = "B," + reg
	case 0x6:
		s = "A," + reg
	case 0x8:
		s = signedHex(m.LoadByte(addr+1).Signed(), 2) + "," + reg
	case 0x9:
		s = signedHex(m.LoadWord(addr+1).Signed(), 4) + "," + reg
	case 0xb:
		s = "D," + reg
	case 0xc:
		s = signedHex(m.LoadByte(addr+1).Signed(), 2) + ",PCR"
	case 0xd:
		s = signedHex(m.LoadWord(addr+1).Signed(), 4) + ",PCR"
	}

	if postbyte&0x10 != 0 {
		s = "[" + s + "]"
	}
	return s, n
}

func signedHex(v int, digits int) string {
	if v < 0 {
		return fmt.Sprintf("-$%0*X", digits, -v)
	}
	return fmt.Sprintf("$%0*X", digits, v)
}

// GetRegisterString returns a string describing the contents of the 6809
// registers.
func GetRegisterString(r *cpu.Registers) string {
	return fmt.Sprintf("A=%02X B=%02X X=%04X Y=%04X U=%04X S=%04X DP=%02X CC=%s",
		uint8(r.A), uint8(r.B), uint16(r.X), uint16(r.Y), uint16(r.U),
		uint16(r.S), uint8(r.DP), r.FlagString())
}
