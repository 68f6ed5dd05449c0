// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrInvalidAddressingMode = errors.New("invalid addressing mode")
	ErrUnimplementedOpcode   = errors.New("unimplemented opcode")
	ErrAddressOutOfRange     = errors.New("address out of range")
)

// InvalidPostbyteError is returned when an indexed postbyte selects a
// sub-mode the processor does not define.
type InvalidPostbyteError struct {
	Postbyte Byte // the offending postbyte
	Address  Word // where the postbyte was read
}

func (e *InvalidPostbyteError) Error() string {
	return fmt.Sprintf("%v: postbyte $%02X at $%04X", ErrInvalidAddressingMode,
		uint8(e.Postbyte), uint16(e.Address))
}

func (e *InvalidPostbyteError) Unwrap() error {
	return ErrInvalidAddressingMode
}

// UnimplementedOpcodeError is returned when the CPU fetches an opcode that
// has no entry in the instruction set.
type UnimplementedOpcodeError struct {
	Page    int  // 0 for the base page, 1 for the $10 page
	Opcode  Byte // opcode within the page
	Address Word // address of the first instruction byte
}

func (e *UnimplementedOpcodeError) Error() string {
	if e.Page == 0 {
		return fmt.Sprintf("%v: $%02X at $%04X", ErrUnimplementedOpcode,
			uint8(e.Opcode), uint16(e.Address))
	}
	return fmt.Sprintf("%v: $10 $%02X at $%04X", ErrUnimplementedOpcode,
		uint8(e.Opcode), uint16(e.Address))
}

func (e *UnimplementedOpcodeError) Unwrap() error {
	return ErrUnimplementedOpcode
}
