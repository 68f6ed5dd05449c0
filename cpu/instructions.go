// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "sync"

// An opsym is an internal symbol used to associate an opcode's data
// with its instructions.
type opsym byte

const (
	symASL opsym = iota
	symASR
	symCLR
	symCMPD
	symCMPY
	symCOM
	symDEC
	symINC
	symJMP
	symLBCC
	symLBCS
	symLBEQ
	symLBGE
	symLBGT
	symLBHI
	symLBLE
	symLBLS
	symLBLT
	symLBMI
	symLBNE
	symLBPL
	symLBRN
	symLBVC
	symLBVS
	symLSR
	symNEG
	symROL
	symROR
	symSWI3
	symTST
)

// An instfunc executes an instruction whose operand has already been
// resolved. It returns any cycles spent beyond the instruction's base cost.
type instfunc func(c *CPU, inst *Instruction, op Result) int

// Emulator implementation for each opcode
type opcodeImpl struct {
	sym  opsym
	name string
	fn   instfunc
}

var impl = []opcodeImpl{
	{symASL, "ASL", (*CPU).asl},
	{symASR, "ASR", (*CPU).asr},
	{symCLR, "CLR", (*CPU).clr},
	{symCMPD, "CMPD", (*CPU).cmpd},
	{symCMPY, "CMPY", (*CPU).cmpy},
	{symCOM, "COM", (*CPU).com},
	{symDEC, "DEC", (*CPU).dec},
	{symINC, "INC", (*CPU).inc},
	{symJMP, "JMP", (*CPU).jmp},
	{symLBCC, "LBCC", (*CPU).lbcc},
	{symLBCS, "LBCS", (*CPU).lbcs},
	{symLBEQ, "LBEQ", (*CPU).lbeq},
	{symLBGE, "LBGE", (*CPU).lbge},
	{symLBGT, "LBGT", (*CPU).lbgt},
	{symLBHI, "LBHI", (*CPU).lbhi},
	{symLBLE, "LBLE", (*CPU).lble},
	{symLBLS, "LBLS", (*CPU).lbls},
	{symLBLT, "LBLT", (*CPU).lblt},
	{symLBMI, "LBMI", (*CPU).lbmi},
	{symLBNE, "LBNE", (*CPU).lbne},
	{symLBPL, "LBPL", (*CPU).lbpl},
	{symLBRN, "LBRN", (*CPU).lbrn},
	{symLBVC, "LBVC", (*CPU).lbvc},
	{symLBVS, "LBVS", (*CPU).lbvs},
	{symLSR, "LSR", (*CPU).lsr},
	{symNEG, "NEG", (*CPU).neg},
	{symROL, "ROL", (*CPU).rol},
	{symROR, "ROR", (*CPU).ror},
	{symSWI3, "SWI3", (*CPU).swi3},
	{symTST, "TST", (*CPU).tst},
}

// Mode describes a memory addressing mode.
type Mode byte

// All supported memory addressing modes
const (
	INH Mode = iota // Inherent (no operand)
	IMM             // Immediate
	DIR             // Direct
	IDX             // Indexed (and indexed indirect)
	EXT             // Extended
	REL             // Long relative
)

// Opcode pages
const (
	Page1 = 0 // single-byte opcodes
	Page2 = 1 // opcodes prefixed by $10
)

// The opcode that selects page 2.
const page2Prefix = 0x10

// Opcode data for an (opcode, mode) pair
type opcodeData struct {
	sym    opsym // internal opcode symbol
	mode   Mode  // addressing mode
	page   int   // opcode page
	opcode byte  // opcode hex value within the page
	cycles byte  // base CPU cycles; indexed modes add the operand length
}

// All valid (opcode, mode) pairs
var data = []opcodeData{
	{symNEG, DIR, Page1, 0x00, 6},
	{symNEG, IDX, Page1, 0x60, 4},
	{symNEG, EXT, Page1, 0x70, 7},

	{symCOM, DIR, Page1, 0x03, 6},
	{symCOM, IDX, Page1, 0x63, 4},
	{symCOM, EXT, Page1, 0x73, 7},

	{symLSR, DIR, Page1, 0x04, 6},
	{symLSR, IDX, Page1, 0x64, 4},
	{symLSR, EXT, Page1, 0x74, 7},

	{symROR, DIR, Page1, 0x06, 6},
	{symROR, IDX, Page1, 0x66, 4},
	{symROR, EXT, Page1, 0x76, 7},

	{symASR, DIR, Page1, 0x07, 6},
	{symASR, IDX, Page1, 0x67, 4},
	{symASR, EXT, Page1, 0x77, 7},

	{symASL, DIR, Page1, 0x08, 6},
	{symASL, IDX, Page1, 0x68, 4},
	{symASL, EXT, Page1, 0x78, 7},

	{symROL, DIR, Page1, 0x09, 6},
	{symROL, IDX, Page1, 0x69, 4},
	{symROL, EXT, Page1, 0x79, 7},

	{symDEC, DIR, Page1, 0x0a, 6},
	{symDEC, IDX, Page1, 0x6a, 4},
	{symDEC, EXT, Page1, 0x7a, 7},

	{symINC, DIR, Page1, 0x0c, 6},
	{symINC, IDX, Page1, 0x6c, 4},
	{symINC, EXT, Page1, 0x7c, 7},

	{symTST, DIR, Page1, 0x0d, 6},
	{symTST, IDX, Page1, 0x6d, 4},
	{symTST, EXT, Page1, 0x7d, 7},

	{symJMP, DIR, Page1, 0x0e, 3},
	{symJMP, IDX, Page1, 0x6e, 1},
	{symJMP, EXT, Page1, 0x7e, 4},

	{symCLR, DIR, Page1, 0x0f, 6},
	{symCLR, IDX, Page1, 0x6f, 4},
	{symCLR, EXT, Page1, 0x7f, 7},

	{symLBRN, REL, Page2, 0x21, 5},
	{symLBHI, REL, Page2, 0x22, 5},
	{symLBLS, REL, Page2, 0x23, 5},
	{symLBCC, REL, Page2, 0x24, 5},
	{symLBCS, REL, Page2, 0x25, 5},
	{symLBNE, REL, Page2, 0x26, 5},
	{symLBEQ, REL, Page2, 0x27, 5},
	{symLBVC, REL, Page2, 0x28, 5},
	{symLBVS, REL, Page2, 0x29, 5},
	{symLBPL, REL, Page2, 0x2a, 5},
	{symLBMI, REL, Page2, 0x2b, 5},
	{symLBGE, REL, Page2, 0x2c, 5},
	{symLBLT, REL, Page2, 0x2d, 5},
	{symLBGT, REL, Page2, 0x2e, 5},
	{symLBLE, REL, Page2, 0x2f, 5},

	{symSWI3, INH, Page2, 0x3f, 19},

	{symCMPD, IMM, Page2, 0x83, 5},
	{symCMPD, DIR, Page2, 0x93, 7},
	{symCMPD, IDX, Page2, 0xa3, 6},
	{symCMPD, EXT, Page2, 0xb3, 8},

	{symCMPY, IMM, Page2, 0x8c, 5},
	{symCMPY, DIR, Page2, 0x9c, 7},
	{symCMPY, IDX, Page2, 0xac, 6},
	{symCMPY, EXT, Page2, 0xbc, 8},
}

// Number of operand bytes following the opcode for each mode. Indexed
// operands may extend past their postbyte; see IndexedLength.
var operandLength = []byte{
	0, // INH
	2, // IMM
	1, // DIR
	1, // IDX
	2, // EXT
	2, // REL
}

// An Instruction describes a CPU instruction, including its name, its
// addressing mode, its opcode value, its size and its CPU cycle cost.
type Instruction struct {
	Name   string   // all-caps name of the instruction
	Mode   Mode     // addressing mode
	Page   int      // opcode page (Page1 or Page2)
	Opcode Byte     // opcode value within its page
	Length byte     // size of prefix, opcode and fixed operand bytes
	Cycles byte     // base number of CPU cycles to execute the instruction
	fn     instfunc // emulator implementation of the function
}

// Defined returns true if the instruction is part of the instruction set.
func (inst *Instruction) Defined() bool {
	return inst.fn != nil
}

// An InstructionSet defines the set of all possible instructions that
// can run on the emulated CPU.
type InstructionSet struct {
	instructions [2][256]Instruction // all instructions by page and opcode
}

// Lookup retrieves the CPU instruction corresponding to the requested page
// and opcode. Undefined opcodes return an instruction whose Defined method
// returns false.
func (s *InstructionSet) Lookup(page int, opcode Byte) *Instruction {
	return &s.instructions[page][opcode]
}

// Decode returns the instruction stored in memory at addr, following a
// page 2 prefix if there is one.
func (s *InstructionSet) Decode(m Memory, addr Word) *Instruction {
	opcode := m.LoadByte(addr)
	if opcode == page2Prefix {
		return s.Lookup(Page2, m.LoadByte(addr+1))
	}
	return s.Lookup(Page1, opcode)
}

func newInstructionSet() *InstructionSet {
	set := &InstructionSet{}

	symToImpl := make(map[opsym]*opcodeImpl, len(impl))
	for i := range impl {
		symToImpl[impl[i].sym] = &impl[i]
	}

	for _, d := range data {
		impl := symToImpl[d.sym]
		inst := &set.instructions[d.page][d.opcode]
		inst.Name = impl.name
		inst.Mode = d.mode
		inst.Page = d.page
		inst.Opcode = Byte(d.opcode)
		inst.Length = 1 + operandLength[d.mode]
		if d.page == Page2 {
			inst.Length++
		}
		inst.Cycles = d.cycles
		inst.fn = impl.fn
	}

	// Unused slots keep their page and opcode so that callers can
	// report them.
	for p := range set.instructions {
		for o := range set.instructions[p] {
			inst := &set.instructions[p][o]
			if inst.fn == nil {
				inst.Name = "???"
				inst.Page = p
				inst.Opcode = Byte(o)
				inst.Length = 1 + byte(p)
			}
		}
	}

	return set
}

var instructionSet = sync.OnceValue(newInstructionSet)

// GetInstructionSet returns the 6809 instruction set.
func GetInstructionSet() *InstructionSet {
	return instructionSet()
}
