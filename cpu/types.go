// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "fmt"

// A Byte is an 8-bit value held in a register or memory cell.
type Byte uint8

// A Word is a 16-bit value. Arithmetic on words wraps modulo 65536.
type Word uint16

// Signed returns the value of the byte interpreted as a two's complement
// number, with bit 7 as the sign.
func (b Byte) Signed() int {
	return int(int8(b))
}

// IsMasked returns true if every bit in mask is set in the byte.
func (b Byte) IsMasked(mask Byte) bool {
	return b&mask == mask
}

// And returns the byte ANDed with mask.
func (b Byte) And(mask Byte) Byte {
	return b & mask
}

// Or returns the byte ORed with mask.
func (b Byte) Or(mask Byte) Byte {
	return b | mask
}

// TwosComplement returns the two's complement negation of the byte.
func (b Byte) TwosComplement() Byte {
	return ^b + 1
}

// IsZero returns true if the byte is zero.
func (b Byte) IsZero() bool {
	return b == 0
}

// IsNegative returns true if bit 7 is set.
func (b Byte) IsNegative() bool {
	return b&0x80 != 0
}

func (b Byte) String() string {
	return fmt.Sprintf("%02X", uint8(b))
}

// MakeWord builds a word from a high and a low byte.
func MakeWord(high, low Byte) Word {
	return Word(high)<<8 | Word(low)
}

// High returns the most significant byte of the word.
func (w Word) High() Byte {
	return Byte(w >> 8)
}

// Low returns the least significant byte of the word.
func (w Word) Low() Byte {
	return Byte(w)
}

// Next returns the word that follows w, wrapping from $FFFF to $0000.
func (w Word) Next() Word {
	return w + 1
}

// AddSigned returns w offset by n. The result wraps modulo 65536.
func (w Word) AddSigned(n int) Word {
	return Word(int(w) + n)
}

// Signed returns the value of the word interpreted as a two's complement
// number, with bit 15 as the sign.
func (w Word) Signed() int {
	return int(int16(w))
}

// IsMasked returns true if every bit in mask is set in the word.
func (w Word) IsMasked(mask Word) bool {
	return w&mask == mask
}

// TwosComplement returns the two's complement negation of the word.
func (w Word) TwosComplement() Word {
	return ^w + 1
}

// IsZero returns true if the word is zero.
func (w Word) IsZero() bool {
	return w == 0
}

// IsNegative returns true if bit 15 is set.
func (w Word) IsNegative() bool {
	return w&0x8000 != 0
}

func (w Word) String() string {
	return fmt.Sprintf("%04X", uint16(w))
}
