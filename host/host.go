// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host allows you to create a "host" that emulates a computer system
// with a 6809 CPU, 512K of memory, a built-in debugger, and other useful
// tools.
//
// Within the host it is possible to load machine code into memory, debug
// and step through machine code, measure the number of CPU cycles elapsed,
// set address and data breakpoints, dump the contents of memory,
// disassemble the contents of memory, manipulate CPU registers and memory,
// and evaluate arbitrary expressions.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/beevik/cmd"
	"github.com/beevik/go6809/cpu"
	"github.com/beevik/go6809/disasm"
)

// ErrQuit is returned by RunCommands when the quit command is executed.
var ErrQuit = errors.New("exiting program")

// Scripts may execute other scripts, up to this depth.
const maxScriptDepth = 16

type displayFlags uint8

const (
	displayRegisters displayFlags = 1 << iota
	displayCycles

	displayAll = displayRegisters | displayCycles
)

type state byte

// A selection is a command chosen from the command tree together with the
// arguments that followed it on the command line.
type selection struct {
	Command *cmd.Command
	Args    []string
}

const (
	stateProcessingCommands state = iota
	stateRunning
	stateBreakpoint
	stateFault
)

// A Host represents a fully emulated 6809 system, 512K of memory, a
// built-in debugger, and other useful tools.
type Host struct {
	output      *bufio.Writer
	interactive bool
	mem         *cpu.FlatMemory
	cpu         *cpu.CPU
	debugger    *cpu.Debugger
	lastCmd     *selection
	state       state
	interrupted atomic.Bool
	scriptDepth int
	exprParser  *exprParser
	settings    *settings
}

// New creates a new 6809 host environment.
func New() *Host {
	h := &Host{
		state:      stateProcessingCommands,
		exprParser: newExprParser(),
		settings:   newSettings(),
	}

	// Create the emulated CPU and memory.
	h.mem = cpu.NewFlatMemory(cpu.DefaultMemorySize)
	h.cpu = cpu.NewCPU(h.mem)

	// Create a CPU debugger and attach it to the CPU.
	h.debugger = cpu.NewDebugger(newDebugHandler(h))
	h.cpu.AttachDebugger(h.debugger)

	return h
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the the next command to be entered. It returns nil
// when the reader is exhausted, and ErrQuit if a quit command was
// executed.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) error {
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	if interactive {
		h.println()
	}

	h.displayPC()
	return h.runCommands(r)
}

// Break interrupts a running CPU. It is safe to call from another
// goroutine.
func (h *Host) Break() {
	h.interrupted.Store(true)
}

func (h *Host) runCommands(r io.Reader) error {
	input := bufio.NewScanner(r)
	for {
		h.prompt()

		if !input.Scan() {
			return input.Err()
		}

		if err := h.processLine(input.Text()); err != nil {
			return err
		}
	}
}

func (h *Host) processLine(line string) error {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return nil
	}

	var c selection
	if line != "" {
		n, args, err := cmds.Lookup(line)
		switch {
		case errors.Is(err, cmd.ErrNotFound):
			h.println("Command not found.")
			return nil
		case errors.Is(err, cmd.ErrAmbiguous):
			h.println("Command is ambiguous.")
			return nil
		case err != nil:
			h.printf("ERROR: %v.\n", err)
			return nil
		}

		switch n := n.(type) {
		case *cmd.Tree:
			n.DisplayHelp(h.output)
			h.flush()
			return nil
		case *cmd.Command:
			c = selection{Command: n, Args: args}
		}
	} else if h.lastCmd != nil && h.interactive {
		c = *h.lastCmd
	}

	if c.Command == nil {
		return nil
	}
	h.lastCmd = &c

	handler := c.Command.Data.(func(*Host, selection) error)
	return handler(h, c)
}

func (h *Host) print(args ...any) {
	fmt.Fprint(h.output, args...)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) prompt() {
	if h.interactive {
		h.print("* ")
		h.flush()
	}
}

func (h *Host) displayPC() {
	if h.interactive {
		d, _ := h.disassemble(h.cpu.Reg.PC, displayAll)
		h.println(d)
	}
}

func (h *Host) cmdBreakpointList(c selection) error {
	h.println("Addr  Enabled")
	h.println("----- -------")
	for _, b := range h.debugger.GetBreakpoints() {
		h.printf("$%04X %v\n", uint16(b.Address), !b.Disabled)
	}
	return nil
}

func (h *Host) cmdBreakpointAdd(c selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.debugger.AddBreakpoint(addr)
	h.printf("Breakpoint added at $%04X.\n", uint16(addr))
	return nil
}

func (h *Host) cmdBreakpointRemove(c selection) error {
	addr, b, ok := h.selectBreakpoint(c)
	if !ok {
		return nil
	}

	h.debugger.RemoveBreakpoint(b.Address)
	h.printf("Breakpoint at $%04X removed.\n", uint16(addr))
	return nil
}

func (h *Host) cmdBreakpointEnable(c selection) error {
	addr, b, ok := h.selectBreakpoint(c)
	if !ok {
		return nil
	}

	b.Disabled = false
	h.printf("Breakpoint at $%04X enabled.\n", uint16(addr))
	return nil
}

func (h *Host) cmdBreakpointDisable(c selection) error {
	addr, b, ok := h.selectBreakpoint(c)
	if !ok {
		return nil
	}

	b.Disabled = true
	h.printf("Breakpoint at $%04X disabled.\n", uint16(addr))
	return nil
}

// Parse the address argument of a breakpoint command and look up the
// breakpoint set there, reporting any problem to the user.
func (h *Host) selectBreakpoint(c selection) (cpu.Word, *cpu.Breakpoint, bool) {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return 0, nil, false
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return 0, nil, false
	}

	b := h.debugger.GetBreakpoint(addr)
	if b == nil {
		h.printf("No breakpoint was set on $%04X.\n", uint16(addr))
		return 0, nil, false
	}
	return addr, b, true
}

func (h *Host) cmdDataBreakpointList(c selection) error {
	h.println("Addr  Enabled  Value")
	h.println("----- -------  -----")
	for _, b := range h.debugger.GetDataBreakpoints() {
		if b.Conditional {
			h.printf("$%04X %-5v    $%02X\n", uint16(b.Address), !b.Disabled, uint8(b.Value))
		} else {
			h.printf("$%04X %-5v    <none>\n", uint16(b.Address), !b.Disabled)
		}
	}
	return nil
}

func (h *Host) cmdDataBreakpointAdd(c selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	if len(c.Args) > 1 {
		value, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.debugger.AddConditionalDataBreakpoint(addr, value.Low())
		h.printf("Conditional data breakpoint added at $%04X for value $%02X.\n",
			uint16(addr), uint8(value.Low()))
	} else {
		h.debugger.AddDataBreakpoint(addr)
		h.printf("Data breakpoint added at $%04X.\n", uint16(addr))
	}

	return nil
}

func (h *Host) cmdDataBreakpointRemove(c selection) error {
	addr, b, ok := h.selectDataBreakpoint(c)
	if !ok {
		return nil
	}

	h.debugger.RemoveDataBreakpoint(b.Address)
	h.printf("Data breakpoint at $%04X removed.\n", uint16(addr))
	return nil
}

func (h *Host) cmdDataBreakpointEnable(c selection) error {
	addr, b, ok := h.selectDataBreakpoint(c)
	if !ok {
		return nil
	}

	b.Disabled = false
	h.printf("Data breakpoint at $%04X enabled.\n", uint16(addr))
	return nil
}

func (h *Host) cmdDataBreakpointDisable(c selection) error {
	addr, b, ok := h.selectDataBreakpoint(c)
	if !ok {
		return nil
	}

	b.Disabled = true
	h.printf("Data breakpoint at $%04X disabled.\n", uint16(addr))
	return nil
}

func (h *Host) selectDataBreakpoint(c selection) (cpu.Word, *cpu.DataBreakpoint, bool) {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return 0, nil, false
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return 0, nil, false
	}

	b := h.debugger.GetDataBreakpoint(addr)
	if b == nil {
		h.printf("No data breakpoint was set on $%04X.\n", uint16(addr))
		return 0, nil, false
	}
	return addr, b, true
}

func (h *Host) cmdDisassemble(c selection) error {
	addr := h.settings.NextDisasmAddr
	if len(c.Args) > 0 && c.Args[0] != "$" {
		a, err := h.parseExpr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	lines := h.settings.DisasmLines
	if len(c.Args) > 1 {
		l, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		lines = int(l)
	}

	for i := 0; i < lines; i++ {
		d, next := h.disassemble(addr, 0)
		h.println(d)
		addr = next
	}

	h.settings.NextDisasmAddr = addr
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", lines)}
	return nil
}

func (h *Host) cmdEvaluate(c selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	expr := strings.Join(c.Args, " ")
	v, err := h.parseExpr(expr)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.printf("$%04X\n", uint16(v))
	return nil
}

func (h *Host) cmdExecute(c selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	if h.scriptDepth >= maxScriptDepth {
		h.println("Scripts nested too deeply.")
		return nil
	}

	filename := c.Args[0]
	file, err := os.Open(filename)
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filepath.Base(filename), err)
		return nil
	}
	defer file.Close()

	interactive := h.interactive
	h.interactive = false
	h.scriptDepth++
	defer func() {
		h.interactive = interactive
		h.scriptDepth--
	}()

	return h.runCommands(file)
}

func (h *Host) cmdHelp(c selection) error {
	if err := cmds.GetHelp(h.output, c.Args); err != nil {
		h.printf("%v.\n", err)
	}
	h.flush()
	return nil
}

func (h *Host) cmdLoad(c selection) error {
	if len(c.Args) < 2 {
		h.displayHelpText(c.Command)
		return nil
	}

	filename := c.Args[0]
	if filepath.Ext(filename) == "" {
		filename += ".bin"
	}

	addr, err := h.parseExpr(c.Args[1])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.load(filename, addr)
	return nil
}

func (h *Host) cmdMemoryDump(c selection) error {
	addr := h.settings.NextMemDumpAddr
	if len(c.Args) > 0 && c.Args[0] != "$" {
		a, err := h.parseExpr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	bytes := cpu.Word(h.settings.MemDumpBytes)
	if len(c.Args) > 1 {
		var err error
		bytes, err = h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
	}

	h.dumpMemory(addr, bytes)

	h.settings.NextMemDumpAddr = addr + bytes
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", bytes)}
	return nil
}

func (h *Host) cmdMemorySet(c selection) error {
	if len(c.Args) < 2 {
		h.displayHelpText(c.Command)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	// Parse every value before storing any of them.
	values := make([]byte, 0, len(c.Args)-1)
	for _, arg := range c.Args[1:] {
		v, err := h.parseExpr(arg)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		values = append(values, byte(v.Low()))
	}

	h.cpu.Mem.StoreBytes(addr, values)
	h.printf("Stored %d byte(s) at $%04X.\n", len(values), uint16(addr))
	return nil
}

func (h *Host) cmdMemoryCopy(c selection) error {
	if len(c.Args) < 3 {
		h.displayHelpText(c.Command)
		return nil
	}

	var addr [3]cpu.Word
	for i := range addr {
		a, err := h.parseExpr(c.Args[i])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr[i] = a
	}

	dst, begin, end := addr[0], addr[1], addr[2]
	if end < begin {
		h.println("Source range end precedes its beginning.")
		return nil
	}

	b := make([]byte, int(end-begin)+1)
	h.cpu.Mem.LoadBytes(begin, b)
	h.cpu.Mem.StoreBytes(dst, b)
	h.printf("Copied $%04X..$%04X to $%04X.\n", uint16(begin), uint16(end), uint16(dst))
	return nil
}

func (h *Host) cmdQuit(c selection) error {
	return ErrQuit
}

// Condition code flags that may be changed by name.
var flagNames = map[string]cpu.Byte{
	"carry":     cpu.CarryFlag,
	"overflow":  cpu.OverflowFlag,
	"zero":      cpu.ZeroFlag,
	"negative":  cpu.NegativeFlag,
	"irqmask":   cpu.IRQMaskFlag,
	"halfcarry": cpu.HalfCarryFlag,
	"firqmask":  cpu.FIRQMaskFlag,
	"entire":    cpu.EntireFlag,
}

func (h *Host) cmdRegister(c selection) error {
	switch len(c.Args) {
	case 0:
		d, _ := h.disassemble(h.cpu.Reg.PC, displayAll)
		h.println(d)
		return nil
	case 1:
		h.displayHelpText(c.Command)
		return nil
	}

	key := strings.ToLower(c.Args[0])
	v, err := h.parseExpr(strings.Join(c.Args[1:], " "))
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	r := &h.cpu.Reg
	sz := 2
	switch key {
	case "a":
		r.A, sz = v.Low(), 1
	case "b":
		r.B, sz = v.Low(), 1
	case "dp":
		r.DP, sz = v.Low(), 1
	case "cc":
		r.CC, sz = v.Low(), 1
	case "d":
		r.SetD(v)
	case "x":
		r.X = v
	case "y":
		r.Y = v
	case "u":
		r.U = v
	case "s":
		r.S = v
	case ".", "pc":
		key = "pc"
		r.PC = v
		h.settings.NextDisasmAddr = v
	default:
		flag, ok := flagNames[key]
		if !ok {
			h.printf("Unknown register '%s'.\n", c.Args[0])
			return nil
		}
		r.ClearFlags(flag)
		r.SetFlagsIf(flag, v != 0)
		h.printf("Flag %s set to %v.\n", strings.ToUpper(key), v != 0)
		return nil
	}

	if sz == 1 {
		h.printf("Register %s set to $%02X.\n", strings.ToUpper(key), uint8(v.Low()))
	} else {
		h.printf("Register %s set to $%04X.\n", strings.ToUpper(key), uint16(v))
	}
	return nil
}

func (h *Host) cmdRun(c selection) error {
	if len(c.Args) > 0 {
		pc, err := h.parseExpr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.cpu.SetPC(pc)
	}

	h.printf("Running from $%04X. Press ctrl-C to break.\n", uint16(h.cpu.Reg.PC))

	h.interrupted.Store(false)
	h.state = stateRunning
	for h.state == stateRunning {
		h.step()
	}
	h.state = stateProcessingCommands

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdSet(c selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()

	case 1:
		h.displayHelpText(c.Command)

	default:
		key, value := c.Args[0], strings.Join(c.Args[1:], " ")

		var err error
		switch h.settings.Kind(key) {
		case reflect.Invalid:
			err = fmt.Errorf("setting '%s' not found", key)
		case reflect.Bool:
			var b bool
			b, err = stringToBool(value)
			if err == nil {
				err = h.settings.Set(key, b)
			}
		default:
			var v int64
			v, err = h.exprParser.Parse(value, h)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		}

		if err == nil {
			h.println("Setting updated.")
		} else {
			h.printf("%v\n", err)
		}

		h.onSettingsUpdate()
	}

	return nil
}

func (h *Host) cmdStep(c selection) error {
	// Parse the number of steps.
	count := 1
	if len(c.Args) > 0 {
		n, err := h.parseExpr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		count = int(n)
	}

	// Step the CPU count times.
	h.interrupted.Store(false)
	h.state = stateRunning
	for i := count - 1; i >= 0 && h.state == stateRunning; i-- {
		h.step()
		switch {
		case i == h.settings.MaxStepLines:
			h.println("...")
		case i < h.settings.MaxStepLines:
			h.displayPC()
		}
	}
	h.state = stateProcessingCommands

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

// Load the raw contents of a binary file into memory at addr and point the
// program counter at it.
func (h *Host) load(filename string, addr cpu.Word) {
	b, err := os.ReadFile(filename)
	if err != nil {
		h.printf("Failed to read '%s': %v\n", filepath.Base(filename), err)
		return
	}

	if len(b) == 0 || len(b) > 0x10000 {
		h.printf("File '%s' must hold between 1 and 65536 bytes.\n", filepath.Base(filename))
		return
	}

	h.cpu.Mem.StoreBytes(addr, b)
	h.printf("Loaded '%s' to $%04X..$%04X.\n", filepath.Base(filename),
		uint16(addr), uint16(addr+cpu.Word(len(b)-1)))

	h.cpu.SetPC(addr)
	h.settings.NextDisasmAddr = addr
}

// Execute a single instruction, stopping the run loop if the instruction
// faults or the user interrupted execution.
func (h *Host) step() {
	_, err := h.cpu.Step()
	if err != nil {
		h.state = stateFault
		h.printf("ERROR: %v.\n", err)
		h.displayPC()
		return
	}

	if h.interrupted.Swap(false) && h.state == stateRunning {
		h.state = stateProcessingCommands
		h.println()
		h.displayPC()
	}
}

func (h *Host) onSettingsUpdate() {
	h.exprParser.hexMode = h.settings.HexMode
}

// Evaluate an expression, wrapping its value to 16 bits.
func (h *Host) parseExpr(expr string) (cpu.Word, error) {
	v, err := h.exprParser.Parse(expr, h)
	if err != nil {
		return 0, err
	}
	return cpu.Word(v), nil
}

func (h *Host) disassemble(addr cpu.Word, flags displayFlags) (str string, next cpu.Word) {
	var line string
	line, next = disasm.Disassemble(h.cpu.Mem, addr)

	b := make([]byte, next-addr)
	h.cpu.Mem.LoadBytes(addr, b)

	str = fmt.Sprintf("%04X-   %-14s  %-17s", uint16(addr), codeString(b), line)

	if (flags & displayRegisters) != 0 {
		str += " " + disasm.GetRegisterString(&h.cpu.Reg)
	}

	if (flags & displayCycles) != 0 {
		str += fmt.Sprintf(" C=%d", h.cpu.Cycles)
	}

	return str, next
}

func (h *Host) dumpMemory(addr0, bytes cpu.Word) {
	if bytes == 0 {
		return
	}

	addr1 := addr0 + bytes - 1
	if addr1 < addr0 {
		addr1 = 0xffff
	}

	buf := []byte("    -" + strings.Repeat(" ", 35))

	// Don't align display for short dumps.
	if addr1-addr0 < 8 {
		addrToBuf(addr0, buf[0:4])
		for a, c1, c2 := uint32(addr0), 6, 32; a <= uint32(addr1); a, c1, c2 = a+1, c1+3, c2+1 {
			m := h.cpu.Mem.LoadByte(cpu.Word(a))
			byteToBuf(m, buf[c1:c1+2])
			buf[c2] = toPrintableChar(m)
		}
		h.println(string(buf))
		return
	}

	// Align addr0 and addr1 to 8-byte boundaries.
	start := uint32(addr0) & 0xfff8
	stop := (uint32(addr1) + 8) & 0xffff8
	if stop > 0x10000 {
		stop = 0x10000
	}

	a := uint32(start)
	for r := start; r < stop; r += 8 {
		addrToBuf(cpu.Word(a), buf[0:4])
		for c1, c2 := 6, 32; c1 < 29; c1, c2, a = c1+3, c2+1, a+1 {
			if a >= uint32(addr0) && a <= uint32(addr1) {
				m := h.cpu.Mem.LoadByte(cpu.Word(a))
				byteToBuf(m, buf[c1:c1+2])
				buf[c2] = toPrintableChar(m)
			} else {
				buf[c1] = ' '
				buf[c1+1] = ' '
				buf[c2] = ' '
			}
		}
		h.println(string(buf))
	}
}

func (h *Host) displayHelpText(c *cmd.Command) {
	if c.Usage == "" {
		h.println("<no help text>")
		return
	}
	c.DisplayUsage(h.output)
	h.flush()
}

func (h *Host) resolveIdentifier(s string) (int64, error) {
	r := &h.cpu.Reg
	switch strings.ToLower(s) {
	case "a":
		return int64(r.A), nil
	case "b":
		return int64(r.B), nil
	case "d":
		return int64(r.D()), nil
	case "dp":
		return int64(r.DP), nil
	case "cc":
		return int64(r.CC), nil
	case "x":
		return int64(r.X), nil
	case "y":
		return int64(r.Y), nil
	case "u":
		return int64(r.U), nil
	case "s":
		return int64(r.S), nil
	case ".", "pc":
		return int64(r.PC), nil
	}
	return 0, fmt.Errorf("identifier '%s' not found", s)
}

func (h *Host) onBreakpoint(c *cpu.CPU, b *cpu.Breakpoint) {
	h.state = stateBreakpoint
	h.printf("Breakpoint hit at $%04X.\n", uint16(b.Address))
	h.displayPC()
}

func (h *Host) onDataBreakpoint(c *cpu.CPU, b *cpu.DataBreakpoint) {
	h.printf("Data breakpoint hit on address $%04X.\n", uint16(b.Address))

	h.state = stateBreakpoint

	if c.LastPC != c.Reg.PC {
		d, _ := h.disassemble(c.LastPC, displayAll)
		h.println(d)
	}

	h.displayPC()
}
