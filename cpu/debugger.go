// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"cmp"
	"slices"
)

// A Debugger watches a CPU for breakpoints. It is notified after every
// executed instruction and before every byte the CPU stores.
type Debugger struct {
	breakpointHandler BreakpointHandler
	breakpoints       map[Word]*Breakpoint
	dataBreakpoints   map[Word]*DataBreakpoint
}

// The BreakpointHandler interface should be implemented by any object that
// wishes to receive debugger breakpoint notifications.
type BreakpointHandler interface {
	OnBreakpoint(cpu *CPU, b *Breakpoint)
	OnDataBreakpoint(cpu *CPU, b *DataBreakpoint)
}

// A Breakpoint represents an address that will cause the debugger to stop
// code execution when the program counter reaches it.
type Breakpoint struct {
	Address  Word // address of execution breakpoint
	Disabled bool // this breakpoint is currently disabled
}

// A DataBreakpoint represents an address that will cause the debugger to
// stop executing code when a byte is stored to it.
type DataBreakpoint struct {
	Address     Word // breakpoint triggered by stores to this address
	Disabled    bool // this breakpoint is currently disabled
	Conditional bool // this breakpoint is conditional on a certain Value being stored
	Value       Byte // the value that must be stored if the breakpoint is conditional
}

// NewDebugger creates a new CPU debugger.
func NewDebugger(breakpointHandler BreakpointHandler) *Debugger {
	return &Debugger{
		breakpointHandler: breakpointHandler,
		breakpoints:       make(map[Word]*Breakpoint),
		dataBreakpoints:   make(map[Word]*DataBreakpoint),
	}
}

// GetBreakpoint looks up a breakpoint by address and returns it if found.
// Otherwise it returns nil.
func (d *Debugger) GetBreakpoint(addr Word) *Breakpoint {
	return d.breakpoints[addr]
}

// GetBreakpoints returns all breakpoints currently set in the debugger,
// ordered by address.
func (d *Debugger) GetBreakpoints() []*Breakpoint {
	var breakpoints []*Breakpoint
	for _, b := range d.breakpoints {
		breakpoints = append(breakpoints, b)
	}
	slices.SortFunc(breakpoints, func(a, b *Breakpoint) int {
		return cmp.Compare(a.Address, b.Address)
	})
	return breakpoints
}

// AddBreakpoint adds a new breakpoint address to the debugger, replacing
// any breakpoint already set there.
func (d *Debugger) AddBreakpoint(addr Word) *Breakpoint {
	b := &Breakpoint{Address: addr}
	d.breakpoints[addr] = b
	return b
}

// RemoveBreakpoint removes a breakpoint from the debugger.
func (d *Debugger) RemoveBreakpoint(addr Word) {
	delete(d.breakpoints, addr)
}

// GetDataBreakpoint looks up a data breakpoint on the provided address
// and returns it if found. Otherwise it returns nil.
func (d *Debugger) GetDataBreakpoint(addr Word) *DataBreakpoint {
	return d.dataBreakpoints[addr]
}

// GetDataBreakpoints returns all data breakpoints currently set in the
// debugger, ordered by address.
func (d *Debugger) GetDataBreakpoints() []*DataBreakpoint {
	var breakpoints []*DataBreakpoint
	for _, b := range d.dataBreakpoints {
		breakpoints = append(breakpoints, b)
	}
	slices.SortFunc(breakpoints, func(a, b *DataBreakpoint) int {
		return cmp.Compare(a.Address, b.Address)
	})
	return breakpoints
}

// AddDataBreakpoint adds an unconditional data breakpoint on the requested
// address.
func (d *Debugger) AddDataBreakpoint(addr Word) *DataBreakpoint {
	b := &DataBreakpoint{Address: addr}
	d.dataBreakpoints[addr] = b
	return b
}

// AddConditionalDataBreakpoint adds a conditional data breakpoint on the
// requested address.
func (d *Debugger) AddConditionalDataBreakpoint(addr Word, value Byte) *DataBreakpoint {
	b := &DataBreakpoint{
		Address:     addr,
		Conditional: true,
		Value:       value,
	}
	d.dataBreakpoints[addr] = b
	return b
}

// RemoveDataBreakpoint removes a (conditional or unconditional) data
// breakpoint at the requested address.
func (d *Debugger) RemoveDataBreakpoint(addr Word) {
	delete(d.dataBreakpoints, addr)
}

func (d *Debugger) onUpdatePC(cpu *CPU, addr Word) {
	if d.breakpointHandler != nil {
		if b, ok := d.breakpoints[addr]; ok && !b.Disabled {
			d.breakpointHandler.OnBreakpoint(cpu, b)
		}
	}
}

func (d *Debugger) onDataStore(cpu *CPU, addr Word, v Byte) {
	if d.breakpointHandler != nil {
		if b, ok := d.dataBreakpoints[addr]; ok && !b.Disabled {
			if !b.Conditional || b.Value == v {
				d.breakpointHandler.OnDataBreakpoint(cpu, b)
			}
		}
	}
}
