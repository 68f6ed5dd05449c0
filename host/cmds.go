// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import "github.com/beevik/cmd"

var cmds *cmd.Tree

func init() {
	// Create a command tree, where the data stored with each command is
	// a host callback capable of handling the command.
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "go6809"})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "help",
		Brief:       "Display help for a command",
		Description: "Display help for a command or a group of commands.",
		Usage:       "help [<command>]",
		Data:        (*Host).cmdHelp,
	})

	// Breakpoint commands
	bp := root.AddSubtree(cmd.TreeDescriptor{Name: "breakpoint", Brief: "Breakpoint commands"})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "list",
		Brief:       "List breakpoints",
		Description: "List all current breakpoints.",
		Usage:       "breakpoint list",
		Data:        (*Host).cmdBreakpointList,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:  "add",
		Brief: "Add a breakpoint",
		Description: "Add a breakpoint at the specified address." +
			" The breakpoint starts enabled.",
		Usage: "breakpoint add <address>",
		Data:  (*Host).cmdBreakpointAdd,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "remove",
		Brief:       "Remove a breakpoint",
		Description: "Remove a breakpoint at the specified address.",
		Usage:       "breakpoint remove <address>",
		Data:        (*Host).cmdBreakpointRemove,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "enable",
		Brief:       "Enable a breakpoint",
		Description: "Enable a previously added breakpoint.",
		Usage:       "breakpoint enable <address>",
		Data:        (*Host).cmdBreakpointEnable,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:  "disable",
		Brief: "Disable a breakpoint",
		Description: "Disable a previously added breakpoint. This" +
			" prevents the breakpoint from being hit when running the" +
			" CPU.",
		Usage: "breakpoint disable <address>",
		Data:  (*Host).cmdBreakpointDisable,
	})

	// Data breakpoint commands
	db := root.AddSubtree(cmd.TreeDescriptor{Name: "databreakpoint", Brief: "Data breakpoint commands"})
	db.AddCommand(cmd.CommandDescriptor{
		Name:        "list",
		Brief:       "List data breakpoints",
		Description: "List all current data breakpoints.",
		Usage:       "databreakpoint list",
		Data:        (*Host).cmdDataBreakpointList,
	})
	db.AddCommand(cmd.CommandDescriptor{
		Name:  "add",
		Brief: "Add a data breakpoint",
		Description: "Add a new data breakpoint at the specified" +
			" memory address. When the CPU stores data at this address," +
			" the breakpoint will stop the CPU. Optionally, a byte" +
			" value may be specified, and the CPU will stop only" +
			" when this value is stored. The data breakpoint starts" +
			" enabled.",
		Usage: "databreakpoint add <address> [<value>]",
		Data:  (*Host).cmdDataBreakpointAdd,
	})
	db.AddCommand(cmd.CommandDescriptor{
		Name:  "remove",
		Brief: "Remove a data breakpoint",
		Description: "Remove a previously added data breakpoint at" +
			" the specified memory address.",
		Usage: "databreakpoint remove <address>",
		Data:  (*Host).cmdDataBreakpointRemove,
	})
	db.AddCommand(cmd.CommandDescriptor{
		Name:        "enable",
		Brief:       "Enable a data breakpoint",
		Description: "Enable a previously added data breakpoint.",
		Usage:       "databreakpoint enable <address>",
		Data:        (*Host).cmdDataBreakpointEnable,
	})
	db.AddCommand(cmd.CommandDescriptor{
		Name:        "disable",
		Brief:       "Disable a data breakpoint",
		Description: "Disable a previously added data breakpoint.",
		Usage:       "databreakpoint disable <address>",
		Data:        (*Host).cmdDataBreakpointDisable,
	})

	root.AddCommand(cmd.CommandDescriptor{
		Name:  "disassemble",
		Brief: "Disassemble code",
		Description: "Disassemble machine code starting at the requested" +
			" address. The number of instruction lines to disassemble may be" +
			" specified as an option. If no address is specified, the" +
			" disassembly continues from where the last disassembly left off.",
		Usage: "disassemble [<address>] [<lines>]",
		Data:  (*Host).cmdDisassemble,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "evaluate",
		Brief:       "Evaluate an expression",
		Description: "Evaluate a mathematical expression.",
		Usage:       "evaluate <expression>",
		Data:        (*Host).cmdEvaluate,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "execute",
		Brief: "Execute a script file",
		Description: "Load a script file from disk and execute the" +
			" commands it contains.",
		Usage: "execute <filename>",
		Data:  (*Host).cmdExecute,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "load",
		Brief: "Load a binary file",
		Description: "Load the raw contents of a binary file into the" +
			" emulated system's memory at the specified address, and" +
			" point the program counter at it.",
		Usage: "load <filename> <address>",
		Data:  (*Host).cmdLoad,
	})

	// Memory commands
	mem := root.AddSubtree(cmd.TreeDescriptor{Name: "memory", Brief: "Memory commands"})
	mem.AddCommand(cmd.CommandDescriptor{
		Name:  "dump",
		Brief: "Dump memory at address",
		Description: "Dump the contents of memory starting from the" +
			" specified address. The number of bytes to dump may be" +
			" specified as an option. If no address is specified, the" +
			" memory dump continues from where the last dump left off.",
		Usage: "memory dump [<address>] [<bytes>]",
		Data:  (*Host).cmdMemoryDump,
	})
	mem.AddCommand(cmd.CommandDescriptor{
		Name:  "set",
		Brief: "Set memory at address",
		Description: "Set the contents of memory starting from the" +
			" specified address. The values to assign should be a" +
			" series of space-separated byte values.",
		Usage: "memory set <address> <byte> [<byte> ...]",
		Data:  (*Host).cmdMemorySet,
	})
	mem.AddCommand(cmd.CommandDescriptor{
		Name:  "copy",
		Brief: "Copy memory",
		Description: "Copy memory from one range of addresses to" +
			" another. You must specify the destination address, the" +
			" first byte of the source address, and the last byte of" +
			" the source address.",
		Usage: "memory copy <dst addr> <src addr begin> <src addr end>",
		Data:  (*Host).cmdMemoryCopy,
	})

	root.AddCommand(cmd.CommandDescriptor{
		Name:        "quit",
		Brief:       "Quit the program",
		Description: "Quit the program.",
		Usage:       "quit",
		Data:        (*Host).cmdQuit,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "register",
		Brief: "View or change register values",
		Description: "When used without arguments, this command displays" +
			" the current contents of the CPU registers. When used with" +
			" arguments, this command changes the value of a register or" +
			" one of the CPU's condition code flags. Allowed register names" +
			" are A, B, D, DP, CC, X, Y, U, S and PC. Allowed flag names" +
			" are Carry, Overflow, Zero, Negative, IRQMask, HalfCarry," +
			" FIRQMask and Entire.",
		Usage: "register [<name> <value>]",
		Data:  (*Host).cmdRegister,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "run",
		Brief: "Run the CPU",
		Description: "Run the CPU until a breakpoint is hit, an" +
			" instruction faults, or the user types Ctrl-C.",
		Usage: "run [<address>]",
		Data:  (*Host).cmdRun,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "set",
		Brief: "Set a configuration variable",
		Description: "Set the value of a configuration variable. To see the" +
			" current values of all configuration variables, type set" +
			" without any arguments.",
		Usage: "set [<var> <value>]",
		Data:  (*Host).cmdSet,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "step",
		Brief: "Step the CPU",
		Description: "Step the CPU by a single instruction. The number" +
			" of steps may be specified as an option.",
		Usage: "step [<count>]",
		Data:  (*Host).cmdStep,
	})

	// Shortcuts to nested commands. Shortcuts may only name commands, so
	// the breakpoint groups are reached through their own prefixes.
	root.AddShortcut("?", "help")
	root.AddShortcut("ba", "breakpoint add")
	root.AddShortcut("br", "breakpoint remove")
	root.AddShortcut("bl", "breakpoint list")
	root.AddShortcut("be", "breakpoint enable")
	root.AddShortcut("bd", "breakpoint disable")
	root.AddShortcut("d", "disassemble")
	root.AddShortcut("dbl", "databreakpoint list")
	root.AddShortcut("dba", "databreakpoint add")
	root.AddShortcut("dbr", "databreakpoint remove")
	root.AddShortcut("dbe", "databreakpoint enable")
	root.AddShortcut("dbd", "databreakpoint disable")
	root.AddShortcut("e", "evaluate")
	root.AddShortcut("m", "memory dump")
	root.AddShortcut("mc", "memory copy")
	root.AddShortcut("ms", "memory set")
	root.AddShortcut("r", "register")
	root.AddShortcut("s", "step")

	cmds = root
}
