// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/beevik/cmd"
	"github.com/beevik/go6809/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runScript(t *testing.T, h *Host, script string) string {
	t.Helper()
	var buf bytes.Buffer
	err := h.RunCommands(strings.NewReader(script), &buf, false)
	require.NoError(t, err)
	return buf.String()
}

func TestRegisterCommand(t *testing.T) {
	h := New()
	out := runScript(t, h, `
register a $12
register d $3456
register x $1234
register pc $2000
register zero 1
register dp 7
`)

	r := &h.cpu.Reg
	assert.Equal(t, cpu.Byte(0x34), r.A)
	assert.Equal(t, cpu.Byte(0x56), r.B)
	assert.Equal(t, cpu.Word(0x1234), r.X)
	assert.Equal(t, cpu.Word(0x2000), r.PC)
	assert.Equal(t, cpu.Byte(7), r.DP)
	assert.True(t, r.ZeroSet())
	assert.Equal(t, cpu.Word(0x2000), h.settings.NextDisasmAddr)

	assert.Contains(t, out, "Register A set to $12.")
	assert.Contains(t, out, "Register D set to $3456.")
	assert.Contains(t, out, "Flag ZERO set to true.")
}

func TestRegisterUnknown(t *testing.T) {
	h := New()
	out := runScript(t, h, "register q 1\n")
	assert.Contains(t, out, "Unknown register 'q'.")
}

func TestMemorySetAndDump(t *testing.T) {
	h := New()
	out := runScript(t, h, `
memory set $1000 $41 $42 $43
memory dump $1000 3
`)

	assert.Equal(t, cpu.Byte(0x41), h.mem.LoadByte(0x1000))
	assert.Equal(t, cpu.Byte(0x43), h.mem.LoadByte(0x1002))
	assert.Contains(t, out, "Stored 3 byte(s) at $1000.")
	assert.Contains(t, out, "1000- 41 42 43")
	assert.Contains(t, out, "ABC")
	assert.Equal(t, cpu.Word(0x1003), h.settings.NextMemDumpAddr)
}

func TestMemorySetBadValue(t *testing.T) {
	h := New()
	runScript(t, h, "memory set $1000 1 )\n")
	assert.Equal(t, cpu.Byte(0), h.mem.LoadByte(0x1000))
}

func TestMemoryCopy(t *testing.T) {
	h := New()
	runScript(t, h, `
ms $1000 1 2 3 4
mc $2000 $1000 $1003
`)

	b := make([]byte, 4)
	h.mem.LoadBytes(0x2000, b)
	assert.Equal(t, []byte{1, 2, 3, 4}, b)
}

func TestEvaluate(t *testing.T) {
	h := New()
	out := runScript(t, h, "evaluate $10 + 2 * 3\n")
	assert.Equal(t, "$0016\n", out)
}

func TestExpressions(t *testing.T) {
	h := New()
	h.cpu.Reg.A = 0x12
	h.cpu.Reg.SetD(0x1234)
	h.cpu.Reg.X = 0x4000
	h.cpu.Reg.PC = 0x1000

	tests := []struct {
		expr string
		v    int64
	}{
		{"1+2*3", 7},
		{"(1+2)*3", 9},
		{"10-4-3", 3},
		{"64/4/2", 8},
		{"$ff", 0xff},
		{"0x1F", 0x1f},
		{"0b101", 5},
		{"0d99", 99},
		{"%1010", 10},
		{"17 % 5", 2},
		{"'A'", 65},
		{"1 << 4 | 1", 17},
		{"$ff & ~$0f", 0xf0},
		{"-3 + 5", 2},
		{"$f0 ^ $ff", 0x0f},
		{"x + 1", 0x4001},
		{"d", 0x1234},
		{"a", 0x12},
		{". + 2", 0x1002},
		{"PC", 0x1000},
	}

	for _, test := range tests {
		v, err := h.exprParser.Parse(test.expr, h)
		if assert.NoError(t, err, test.expr) {
			assert.Equal(t, test.v, v, test.expr)
		}
	}
}

func TestExpressionErrors(t *testing.T) {
	h := New()
	for _, expr := range []string{"", "1 +", "(1", "1)", "foo", "1 / 0", "5 % 0", "$", "1 <> 2"} {
		_, err := h.exprParser.Parse(expr, h)
		assert.Error(t, err, expr)
	}
}

func TestHexMode(t *testing.T) {
	h := New()
	h.cpu.Reg.X = 0x4000
	out := runScript(t, h, "set hexmode on\n")
	assert.Contains(t, out, "Setting updated.")
	assert.True(t, h.exprParser.hexMode)

	tests := []struct {
		expr string
		v    int64
	}{
		{"10", 0x10},
		{"ff", 0xff},
		{"0b1", 0xb1},
		{"0x20", 0x20},
		{"x", 0x4000},
	}
	for _, test := range tests {
		v, err := h.exprParser.Parse(test.expr, h)
		if assert.NoError(t, err, test.expr) {
			assert.Equal(t, test.v, v, test.expr)
		}
	}
}

func TestSetCommand(t *testing.T) {
	h := New()
	out := runScript(t, h, `
set disasmlines 4
set memdump 16
set hexmode 12
set bogus 1
`)

	assert.Equal(t, 4, h.settings.DisasmLines)
	assert.Equal(t, 16, h.settings.MemDumpBytes)
	assert.False(t, h.settings.HexMode)
	assert.Contains(t, out, "setting 'bogus' not found")

	out = runScript(t, h, "set\n")
	assert.Contains(t, out, "DisasmLines")
	assert.Contains(t, out, "(default number of lines to disassemble)")
}

func TestRunStopsAtFault(t *testing.T) {
	h := New()
	// INC <$20; INC <$20; unimplemented $12
	h.mem.StoreBytes(0x1000, []byte{0x0c, 0x20, 0x0c, 0x20, 0x12})
	out := runScript(t, h, "run $1000\n")

	assert.Contains(t, out, "Running from $1000.")
	assert.Contains(t, out, "ERROR: unimplemented opcode: $12 at $1004.")
	assert.Equal(t, cpu.Byte(2), h.mem.LoadByte(0x0020))
	assert.Equal(t, cpu.Word(0x1004), h.cpu.Reg.PC)
	assert.Equal(t, uint64(12), h.cpu.Cycles)
	assert.Equal(t, stateProcessingCommands, h.state)
}

func TestRunStopsAtBreakpoint(t *testing.T) {
	h := New()
	h.mem.StoreBytes(0x1000, []byte{0x0c, 0x20, 0x0c, 0x20, 0x12})
	out := runScript(t, h, `
breakpoint add $1002
run $1000
`)

	assert.Contains(t, out, "Breakpoint added at $1002.")
	assert.Contains(t, out, "Breakpoint hit at $1002.")
	assert.Equal(t, cpu.Word(0x1002), h.cpu.Reg.PC)
	assert.Equal(t, cpu.Byte(1), h.mem.LoadByte(0x0020))

	// A disabled breakpoint is passed over.
	out = runScript(t, h, `
breakpoint disable $1002
run $1000
breakpoint list
`)
	assert.NotContains(t, out, "Breakpoint hit")
	assert.Equal(t, cpu.Word(0x1004), h.cpu.Reg.PC)
	assert.Contains(t, out, "$1002 false")

	out = runScript(t, h, "br $1002\nbr $1002\n")
	assert.Contains(t, out, "Breakpoint at $1002 removed.")
	assert.Contains(t, out, "No breakpoint was set on $1002.")
}

func TestDataBreakpoint(t *testing.T) {
	h := New()
	// CLR [$3000]; INC [$3000]; INC [$3000]; unimplemented $12
	h.mem.StoreBytes(0x1000, []byte{0x7f, 0x30, 0x00, 0x7c, 0x30, 0x00, 0x7c, 0x30, 0x00, 0x12})
	h.mem.StoreBytes(0x3000, []byte{0x20, 0x00})
	out := runScript(t, h, `
databreakpoint add $2000 2
run $1000
`)

	assert.Contains(t, out, "Conditional data breakpoint added at $2000 for value $02.")
	assert.Contains(t, out, "Data breakpoint hit on address $2000.")
	assert.Equal(t, cpu.Word(0x1009), h.cpu.Reg.PC)
	assert.Equal(t, cpu.Byte(2), h.mem.LoadByte(0x2000))

	out = runScript(t, h, "dbl\n")
	assert.Contains(t, out, "$2000 true     $02")
}

func TestStep(t *testing.T) {
	h := New()
	h.mem.StoreBytes(0x1000, []byte{0x0c, 0x20, 0x0c, 0x20, 0x0c, 0x20})
	h.cpu.SetPC(0x1000)
	runScript(t, h, "step 2\n")

	assert.Equal(t, cpu.Word(0x1004), h.cpu.Reg.PC)
	assert.Equal(t, cpu.Byte(2), h.mem.LoadByte(0x0020))
	assert.Equal(t, cpu.Word(0x1004), h.settings.NextDisasmAddr)
}

func TestDisassembleCommand(t *testing.T) {
	h := New()
	// JMP [$1234]; LBEQ $1017; SWI3
	h.mem.StoreBytes(0x1000, []byte{0x7e, 0x12, 0x34, 0x10, 0x27, 0x00, 0x10, 0x10, 0x3f})
	out := runScript(t, h, "disassemble $1000 3\n")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "1000-   7E 12 34")
	assert.Contains(t, lines[0], "JMP   [$1234]")
	assert.Contains(t, lines[1], "LBEQ  $1017")
	assert.Contains(t, lines[2], "SWI3")
	assert.Equal(t, cpu.Word(0x1009), h.settings.NextDisasmAddr)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "prog.bin")
	require.NoError(t, os.WriteFile(filename, []byte{0x4f, 0x0c, 0x20}, 0o644))

	h := New()
	out := runScript(t, h, "load "+filepath.Join(dir, "prog")+" $3000\n")

	assert.Contains(t, out, "Loaded 'prog.bin' to $3000..$3002.")
	assert.Equal(t, cpu.Word(0x3000), h.cpu.Reg.PC)
	assert.Equal(t, cpu.Byte(0x0c), h.mem.LoadByte(0x3001))

	out = runScript(t, h, "load "+filepath.Join(dir, "missing.bin")+" 0\n")
	assert.Contains(t, out, "Failed to read 'missing.bin'")
}

func TestExecuteScript(t *testing.T) {
	dir := t.TempDir()
	inner := filepath.Join(dir, "inner.cmd")
	require.NoError(t, os.WriteFile(inner, []byte("# comment\nregister y $55aa\n"), 0o644))

	h := New()
	out := runScript(t, h, "execute "+inner+"\n")
	assert.Contains(t, out, "Register Y set to $55AA.")
	assert.Equal(t, cpu.Word(0x55aa), h.cpu.Reg.Y)
}

func TestExecuteRecursionLimit(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "loop.cmd")
	require.NoError(t, os.WriteFile(script, []byte("execute "+script+"\n"), 0o644))

	h := New()
	out := runScript(t, h, "execute "+script+"\n")
	assert.Contains(t, out, "Scripts nested too deeply.")
	assert.Equal(t, 0, h.scriptDepth)
}

func TestQuit(t *testing.T) {
	h := New()
	var buf bytes.Buffer
	err := h.RunCommands(strings.NewReader("quit\nregister a 1\n"), &buf, false)
	assert.ErrorIs(t, err, ErrQuit)
	assert.Equal(t, cpu.Byte(0), h.cpu.Reg.A)
}

func TestUnknownCommand(t *testing.T) {
	h := New()
	out := runScript(t, h, "frobnicate\n")
	assert.Equal(t, "Command not found.\n", out)
}

func TestSubcommandListing(t *testing.T) {
	h := New()
	out := runScript(t, h, "memory\n")
	assert.Contains(t, out, "memory commands:")
	assert.Contains(t, out, "dump")
	assert.Contains(t, out, "copy")
}

func TestHelp(t *testing.T) {
	h := New()
	out := runScript(t, h, "help load\n")
	assert.Contains(t, out, "Usage: load <filename> <address>")
	assert.Contains(t, out, "Description:")

	out = runScript(t, h, "help\n")
	assert.Contains(t, out, "go6809 commands:")
	assert.Contains(t, out, "breakpoint")

	out = runScript(t, h, "? memory\n")
	assert.Contains(t, out, "memory commands:")

	out = runScript(t, h, "help frobnicate\n")
	assert.Contains(t, out, "Command not found.")
}

func TestMissingArguments(t *testing.T) {
	h := New()
	out := runScript(t, h, "breakpoint add\nms\n")
	assert.Contains(t, out, "Usage: breakpoint add <address>")
	assert.Contains(t, out, "Usage: memory set <address> <byte> [<byte> ...]")
}

func TestBreakInterruptsRun(t *testing.T) {
	h := New()
	h.output = bufio.NewWriter(io.Discard)

	// JMP ,X
	h.mem.StoreBytes(0x1000, []byte{0x6e, 0x84})
	h.cpu.Reg.X = 0x1000
	h.cpu.SetPC(0x1000)

	h.state = stateRunning
	steps := 0
	for ; steps < 100 && h.state == stateRunning; steps++ {
		if steps == 50 {
			h.Break()
		}
		h.step()
	}
	assert.Equal(t, 51, steps)
	assert.Equal(t, stateProcessingCommands, h.state)
	assert.False(t, h.interrupted.Load())
}

func TestSettingsRange(t *testing.T) {
	s := newSettings()
	assert.ErrorIs(t, s.Set("disasmlines", int64(-1)), errSettingRange)
	assert.ErrorIs(t, s.Set("maxstep", int64(5000)), errSettingRange)
	assert.ErrorIs(t, s.Set("nextdisasm", int64(0x10000)), errSettingRange)
	assert.ErrorIs(t, s.Set("hexmode", int64(1)), errSettingType)
	assert.ErrorIs(t, s.Set("memdump", true), errSettingType)

	require.NoError(t, s.Set("nextmem", int64(0xfff0)))
	assert.Equal(t, cpu.Word(0xfff0), s.NextMemDumpAddr)
	assert.Equal(t, reflect.Int, s.Kind("Disasm"))
	assert.Equal(t, reflect.Invalid, s.Kind("next"))
}

func TestCommandLookup(t *testing.T) {
	_, _, err := cmds.Lookup("b")
	assert.ErrorIs(t, err, cmd.ErrAmbiguous)

	_, _, err = cmds.Lookup("gamma")
	assert.ErrorIs(t, err, cmd.ErrNotFound)

	c, args, err := cmds.LookupCommand("breakpoint ad $10  2")
	require.NoError(t, err)
	assert.Equal(t, "add", c.Name)
	assert.Equal(t, []string{"$10", "2"}, args)

	c, args, err = cmds.LookupCommand("dba $2000")
	require.NoError(t, err)
	assert.Equal(t, "add", c.Name)
	assert.Equal(t, "databreakpoint", c.Parent().Name)
	assert.Equal(t, []string{"$2000"}, args)

	for shortcut, name := range map[string]string{
		"d": "disassemble",
		"e": "evaluate",
		"m": "dump",
		"r": "register",
		"s": "step",
		"?": "help",
	} {
		c, _, err := cmds.LookupCommand(shortcut)
		require.NoError(t, err, shortcut)
		assert.Equal(t, name, c.Name, shortcut)
	}

	n, args, err := cmds.Lookup("memory")
	require.NoError(t, err)
	assert.Empty(t, args)
	_, ok := n.(*cmd.Tree)
	assert.True(t, ok)
}
