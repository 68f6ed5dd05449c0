package cpu_test

import (
	"testing"

	"github.com/beevik/go6809/cpu"
)

func TestRegisterD(t *testing.T) {
	var r cpu.Registers
	r.SetD(0x1234)
	if r.A != 0x12 || r.B != 0x34 {
		t.Errorf("SetD incorrect. A=$%02X B=$%02X", uint8(r.A), uint8(r.B))
	}
	r.B = 0xff
	if r.D() != 0x12ff {
		t.Errorf("D incorrect. exp: $12FF, got: $%04X", uint16(r.D()))
	}
}

func TestRegisterReset(t *testing.T) {
	r := cpu.Registers{A: 1, PC: 0x1234, CC: 0xff}
	r.Reset()
	if r.A != 0 || r.PC != 0 {
		t.Errorf("Reset left registers set: %s", r.String())
	}
	if r.FlagString() != "-F-I----" {
		t.Errorf("Reset flags incorrect. exp: -F-I----, got: %s", r.FlagString())
	}
}

func TestRegisterFlags(t *testing.T) {
	var r cpu.Registers
	r.SetFlags(cpu.CarryFlag | cpu.ZeroFlag)
	r.ClearFlags(cpu.CarryFlag)
	r.SetFlagsIf(cpu.NegativeFlag, false)
	r.SetFlagsIf(cpu.HalfCarryFlag, true)

	if r.CarrySet() || !r.ZeroSet() || r.NegativeSet() || !r.HalfCarrySet() {
		t.Errorf("flags incorrect: %s", r.FlagString())
	}
	if r.FlagString() != "--H--Z--" {
		t.Errorf("FlagString incorrect. exp: --H--Z--, got: %s", r.FlagString())
	}
}

func TestBinaryAdd(t *testing.T) {
	tests := []struct {
		a, b   cpu.Byte
		result cpu.Byte
		cc     cpu.Byte
	}{
		{0x01, 0x01, 0x02, 0},
		{0x0f, 0x01, 0x10, cpu.HalfCarryFlag},
		{0xff, 0x01, 0x00, cpu.HalfCarryFlag | cpu.CarryFlag},
		{0x7f, 0x01, 0x80, cpu.HalfCarryFlag | cpu.OverflowFlag},
		{0x80, 0x80, 0x00, cpu.CarryFlag | cpu.OverflowFlag},
	}

	for _, tt := range tests {
		var r cpu.Registers
		got := r.BinaryAdd(tt.a, tt.b, true, true, true)
		if got != tt.result || r.CC != tt.cc {
			t.Errorf("$%02X+$%02X incorrect. exp: $%02X %08b, got: $%02X %08b",
				uint8(tt.a), uint8(tt.b), uint8(tt.result), uint8(tt.cc), uint8(got), uint8(r.CC))
		}

		// Disabled flags are never raised, and existing flags are kept.
		r.CC = cpu.ZeroFlag
		r.BinaryAdd(tt.a, tt.b, false, false, false)
		if r.CC != cpu.ZeroFlag {
			t.Errorf("$%02X+$%02X changed flags with flagging disabled", uint8(tt.a), uint8(tt.b))
		}
	}
}

func TestBinaryAddWord(t *testing.T) {
	var r cpu.Registers
	if v := r.BinaryAddWord(0xffff, 0x0001, true, true, true); v != 0 {
		t.Errorf("result incorrect. got: $%04X", uint16(v))
	}
	if !r.CarrySet() || !r.HalfCarrySet() || r.OverflowSet() {
		t.Errorf("flags incorrect: %s", r.FlagString())
	}

	r.CC = 0
	r.BinaryAddWord(0x7fff, 0x0001, false, true, true)
	if !r.OverflowSet() || r.CarrySet() {
		t.Errorf("flags incorrect: %s", r.FlagString())
	}
}

func TestWordAndByte(t *testing.T) {
	if cpu.Byte(0x80).Signed() != -128 || cpu.Byte(0x7f).Signed() != 127 {
		t.Error("Byte.Signed incorrect")
	}
	if cpu.Word(0xfff0).Signed() != -16 {
		t.Error("Word.Signed incorrect")
	}
	if cpu.Word(0x0005).AddSigned(-6) != 0xffff {
		t.Error("Word.AddSigned does not wrap")
	}
	if cpu.Word(0xffff).Next() != 0 {
		t.Error("Word.Next does not wrap")
	}
	if cpu.MakeWord(0xab, 0xcd) != 0xabcd {
		t.Error("MakeWord incorrect")
	}
	if cpu.Byte(0x01).TwosComplement() != 0xff || cpu.Word(0x0001).TwosComplement() != 0xffff {
		t.Error("TwosComplement incorrect")
	}
	if cpu.Byte(0x3c).String() != "3C" || cpu.Word(0x0a0b).String() != "0A0B" {
		t.Error("String incorrect")
	}
}
