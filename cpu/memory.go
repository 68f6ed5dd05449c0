// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "fmt"

// DefaultMemorySize is the size of a Color Computer 3 memory image: 512K,
// addressed physically with 19 bits.
const DefaultMemorySize = 512 * 1024

// The Memory interface presents an interface to the CPU through which all
// memory accesses occur. Systems that map devices into the address space
// wrap a Memory and intercept the calls they care about.
type Memory interface {
	// LoadByte loads a single byte from the address and returns it.
	LoadByte(addr Word) Byte

	// LoadBytes loads multiple bytes from the address and stores them into
	// the buffer 'b'.
	LoadBytes(addr Word, b []byte)

	// LoadWord loads a big-endian 16-bit value from the requested address.
	LoadWord(addr Word) Word

	// StoreByte stores a byte to the requested address.
	StoreByte(addr Word, v Byte)

	// StoreBytes stores multiple bytes to the requested address.
	StoreBytes(addr Word, b []byte)
}

// FlatMemory is a single contiguous memory image. The CPU sees the first
// 64K of it; the rest is reachable through the physical accessors.
type FlatMemory struct {
	b []byte
}

// NewFlatMemory creates a memory image holding 'size' bytes.
func NewFlatMemory(size int) *FlatMemory {
	return &FlatMemory{b: make([]byte, size)}
}

// Size returns the number of bytes in the memory image.
func (m *FlatMemory) Size() int {
	return len(m.b)
}

func (m *FlatMemory) check(addr int) {
	if addr < 0 || addr >= len(m.b) {
		panic(&AddressOutOfRangeError{Address: addr, Size: len(m.b)})
	}
}

// LoadByte loads a single byte from the address and returns it.
func (m *FlatMemory) LoadByte(addr Word) Byte {
	m.check(int(addr))
	return Byte(m.b[addr])
}

// LoadBytes loads len(b) consecutive bytes starting at addr. The address
// wraps from $FFFF to $0000.
func (m *FlatMemory) LoadBytes(addr Word, b []byte) {
	for i := range b {
		b[i] = byte(m.LoadByte(addr))
		addr++
	}
}

// LoadWord loads a 16-bit value stored high byte first.
func (m *FlatMemory) LoadWord(addr Word) Word {
	return MakeWord(m.LoadByte(addr), m.LoadByte(addr.Next()))
}

// StoreByte stores a byte at the requested address.
func (m *FlatMemory) StoreByte(addr Word, v Byte) {
	m.check(int(addr))
	m.b[addr] = byte(v)
}

// StoreBytes stores multiple bytes to the requested address. The address
// wraps from $FFFF to $0000.
func (m *FlatMemory) StoreBytes(addr Word, b []byte) {
	for _, v := range b {
		m.StoreByte(addr, Byte(v))
		addr++
	}
}

// StoreWord stores a 16-bit value high byte first.
func (m *FlatMemory) StoreWord(addr Word, v Word) {
	m.StoreByte(addr, v.High())
	m.StoreByte(addr.Next(), v.Low())
}

// LoadPhysical loads a byte using a physical address into the whole image.
func (m *FlatMemory) LoadPhysical(addr int) Byte {
	m.check(addr)
	return Byte(m.b[addr])
}

// StorePhysical stores a byte using a physical address into the whole
// image.
func (m *FlatMemory) StorePhysical(addr int, v Byte) {
	m.check(addr)
	m.b[addr] = byte(v)
}

// AddressOutOfRangeError is the panic value raised when an access falls
// outside the memory image. It indicates a misconfigured system rather than
// a condition the emulated program can cause.
type AddressOutOfRangeError struct {
	Address int
	Size    int
}

func (e *AddressOutOfRangeError) Error() string {
	return fmt.Sprintf("address $%05X outside %d-byte memory", e.Address, e.Size)
}

func (e *AddressOutOfRangeError) Is(err error) bool {
	return err == ErrAddressOutOfRange
}
