package cpu

import "testing"

func TestNegateIsSelfInverse(t *testing.T) {
	var r Registers
	for i := 0; i < 256; i++ {
		v := Byte(i)
		got := negate(&r, negate(&r, v))
		if got != v {
			t.Errorf("NEG(NEG($%02X)) = $%02X", i, uint8(got))
		}
	}
}

func TestNegateFlags(t *testing.T) {
	tests := []struct {
		in, out Byte
		cc      Byte
	}{
		{0x01, 0xff, NegativeFlag | OverflowFlag | CarryFlag},
		{0x80, 0x80, NegativeFlag | OverflowFlag | CarryFlag},
		{0x00, 0x00, NegativeFlag | ZeroFlag},
		{0xff, 0x01, CarryFlag},
		{0x7f, 0x81, NegativeFlag | OverflowFlag | CarryFlag},
	}

	for _, tt := range tests {
		r := Registers{CC: CarryFlag | OverflowFlag | ZeroFlag | NegativeFlag | IRQMaskFlag}
		got := negate(&r, tt.in)
		if got != tt.out {
			t.Errorf("NEG($%02X) incorrect. exp: $%02X, got: $%02X", uint8(tt.in), uint8(tt.out), uint8(got))
		}
		if r.CC != tt.cc|IRQMaskFlag {
			t.Errorf("NEG($%02X) flags incorrect. exp: %08b, got: %08b", uint8(tt.in), uint8(tt.cc|IRQMaskFlag), uint8(r.CC))
		}
	}
}

func TestShiftsAndRotates(t *testing.T) {
	var r Registers

	if v := rotateRight(&r, 0x02); v != 0x01 || r.CarrySet() {
		t.Errorf("ROR($02) incorrect. got: $%02X, CC: %s", uint8(v), r.FlagString())
	}

	r.CC = CarryFlag
	if v := rotateRight(&r, 0x01); v != 0x80 || !r.CarrySet() || !r.NegativeSet() {
		t.Errorf("ROR($01) with carry incorrect. got: $%02X, CC: %s", uint8(v), r.FlagString())
	}

	r.CC = NegativeFlag
	if v := logicalShiftRight(&r, 0xfe); v != 0x7f || r.NegativeSet() || r.CarrySet() {
		t.Errorf("LSR($FE) incorrect. got: $%02X, CC: %s", uint8(v), r.FlagString())
	}

	r.CC = 0
	if v := arithmeticShiftRight(&r, 0x81); v != 0xc0 || !r.CarrySet() || !r.NegativeSet() || r.ZeroSet() {
		t.Errorf("ASR($81) incorrect. got: $%02X, CC: %s", uint8(v), r.FlagString())
	}

	r.CC = 0
	if v := arithmeticShiftLeft(&r, 0x80); v != 0x00 || !r.CarrySet() || !r.OverflowSet() || !r.ZeroSet() {
		t.Errorf("ASL($80) incorrect. got: $%02X, CC: %s", uint8(v), r.FlagString())
	}

	r.CC = 0
	if v := rotateLeft(&r, 0x40); v != 0x80 || r.CarrySet() || !r.OverflowSet() || !r.NegativeSet() {
		t.Errorf("ROL($40) incorrect. got: $%02X, CC: %s", uint8(v), r.FlagString())
	}
}

func TestIncrementDecrementPreserveCarry(t *testing.T) {
	r := Registers{CC: CarryFlag}
	if v := increment(&r, 0xff); v != 0x00 || !r.ZeroSet() || !r.CarrySet() || r.OverflowSet() {
		t.Errorf("INC($FF) incorrect. got: $%02X, CC: %s", uint8(v), r.FlagString())
	}

	r.CC = 0
	if v := decrement(&r, 0x80); v != 0x7f || r.OverflowSet() || r.CarrySet() || r.NegativeSet() {
		t.Errorf("DEC($80) incorrect. got: $%02X, CC: %s", uint8(v), r.FlagString())
	}

	r.CC = 0
	if v := decrement(&r, 0x01); v != 0x00 || !r.ZeroSet() || r.CarrySet() {
		t.Errorf("DEC($01) incorrect. got: $%02X, CC: %s", uint8(v), r.FlagString())
	}
}

func TestComplementAndClear(t *testing.T) {
	r := Registers{CC: OverflowFlag}
	if v := complement(&r, 0x0f); v != 0xf0 || !r.CarrySet() || !r.NegativeSet() || r.OverflowSet() {
		t.Errorf("COM($0F) incorrect. got: $%02X, CC: %s", uint8(v), r.FlagString())
	}

	r.CC = HalfCarryFlag | NegativeFlag
	if v := clearByte(&r, 0xaa); v != 0 || !r.ZeroSet() || r.NegativeSet() || !r.HalfCarrySet() {
		t.Errorf("CLR incorrect. got: $%02X, CC: %s", uint8(v), r.FlagString())
	}
}
