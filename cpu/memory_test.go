package cpu_test

import (
	"errors"
	"testing"

	"github.com/beevik/go6809/cpu"
)

func TestFlatMemory(t *testing.T) {
	mem := cpu.NewFlatMemory(cpu.DefaultMemorySize)
	if mem.Size() != 512*1024 {
		t.Errorf("size incorrect. exp: %d, got: %d", 512*1024, mem.Size())
	}

	mem.StoreByte(0x1234, 0xab)
	if v := mem.LoadByte(0x1234); v != 0xab {
		t.Errorf("LoadByte incorrect. exp: $AB, got: $%02X", uint8(v))
	}

	mem.StoreBytes(0x2000, []byte{0x12, 0x34})
	if v := mem.LoadWord(0x2000); v != 0x1234 {
		t.Errorf("LoadWord incorrect. exp: $1234, got: $%04X", uint16(v))
	}

	mem.StoreWord(0x3000, 0xbeef)
	b := make([]byte, 2)
	mem.LoadBytes(0x3000, b)
	if b[0] != 0xbe || b[1] != 0xef {
		t.Errorf("StoreWord not big-endian: % X", b)
	}

	mem.StorePhysical(0x7ffff, 0x5a)
	if v := mem.LoadPhysical(0x7ffff); v != 0x5a {
		t.Errorf("LoadPhysical incorrect. exp: $5A, got: $%02X", uint8(v))
	}
}

func TestFlatMemoryOutOfRange(t *testing.T) {
	mem := cpu.NewFlatMemory(0x100)

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, cpu.ErrAddressOutOfRange) {
			t.Errorf("expected out of range panic, got %v", r)
		}
	}()
	mem.LoadByte(0x200)
	t.Error("LoadByte did not panic")
}
