// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
)

var lastcmd []string

func indexFormat(count int, extra string) string {
	digits := math.Floor(math.Log10(float64(count + 1)))
	return fmt.Sprintf("#%%0%dd: %%#04x%s\n", int64(digits)+1, extra)
}

func debugBreak(dbg *debugger.Debugger, args []string) {
	const usage = "break [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x###|label]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		addr, ok := dbg.Lookup(args[0])

		if !ok {
			fmt.Printf("Unable to find '%s'\n", args[0])
			return
		}

		if dbg.AddBreakpoint(addr) {
			fmt.Printf("Breakpoint added [%#04x]\n", addr)
		}

	case "l", "ls", "list":
		fmtstring := indexFormat(len(dbg.Breakpoints), "")

		for i, breakpoint := range dbg.Breakpoints {
			fmt.Printf(fmtstring, i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Breakpoints)) {
			log.Println("Invalid breakpoint number")
			return
		}

		dbg.Breakpoints = append(dbg.Breakpoints[:i], dbg.Breakpoints[i+1:]...)
		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = nil
		fmt.Println("Breakpoints reset")

	default:
		log.Printf("break: '%s' is not a valid command\n", cmd)
		log.Println(usage)
	}
}

func parseWatchType(name string) (debugger.WatchpointType, bool) {
	switch name {
	case "r", "read":
		return debugger.ReadWatch, true
	case "w", "write":
		return debugger.WriteWatch, true
	case "rw", "readwrite":
		return debugger.ReadWriteWatch, true
	}

	return 0, false
}

func debugWatch(dbg *debugger.Debugger, args []string) {
	const usage = "watch [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x###|label] [read|write|readwrite]"

		if len(args) != 2 {
			log.Println(usage)
			return
		}

		addr, ok := dbg.Lookup(args[0])

		if !ok {
			fmt.Printf("Unable to find '%s'\n", args[0])
			return
		}

		wtype, ok := parseWatchType(args[1])

		if !ok {
			log.Println(usage)
			return
		}

		if dbg.AddWatchpoint(addr, wtype) {
			fmt.Printf("Watchpoint added [%#04x] (%s)\n", addr, wtype)
		}

	case "l", "ls", "list":
		fmtstring := indexFormat(len(dbg.Watchpoints), " %s")

		for i, watchpoint := range dbg.Watchpoints {
			fmt.Printf(fmtstring, i, watchpoint.Addr, watchpoint.Type)
		}

	case "r", "rm", "remove":
		const usage = "watch remove [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Watchpoints)) {
			log.Println("Invalid watchpoint number")
			return
		}

		dbg.Watchpoints = append(dbg.Watchpoints[:i], dbg.Watchpoints[i+1:]...)
		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = nil
		fmt.Println("Watchpoints reset")

	default:
		log.Printf("watch: '%s' is not a valid command\n", cmd)
		log.Println(usage)
	}
}

func debugReg(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "register [V#|I|PC|DT|ST] [0x###]"

	if len(args) == 0 {
		dbg.PrintRegisters(mc)
		return
	}

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	value, err := encoding.DecodeHex(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	name := strings.ToUpper(args[0])

	switch {
	case name == "I":
		mc.Index = value
	case name == "PC":
		mc.Program = value
	case name == "DT" || name == "ST" || (len(name) == 2 && name[0] == 'V'):
		if value > math.MaxUint8 {
			log.Println("Value exceeds register size")
			return
		}

		switch name {
		case "DT":
			mc.Delay = uint8(value)
		case "ST":
			mc.Sound = uint8(value)
		default:
			reg, err := strconv.ParseUint(name[1:], 16, 8)

			if err != nil {
				log.Println("Invalid register")
				return
			}

			mc.Registers[reg] = uint8(value)
		}
	default:
		log.Println("Invalid register")
		return
	}

	fmt.Printf("\033[1m%s:\033[0m %#04x\n", name, value)
}

// Resolves an optional [addr|label] [#] pair, defaulting to the PC
func parseRange(dbg *debugger.Debugger, mc *machine.MachineState, args []string, size uint16) (uint16, uint16, bool) {
	addr := mc.Program

	if len(args) > 0 {
		if found, ok := dbg.Lookup(args[0]); ok {
			addr = found
		} else if value, err := strconv.ParseUint(args[0], 10, 16); err == nil {
			size = uint16(value)
		} else {
			fmt.Printf("Unable to find '%s'\n", args[0])
			return 0, 0, false
		}
	}

	if len(args) > 1 {
		value, err := strconv.ParseUint(args[1], 10, 16)

		if err != nil {
			log.Println(err)
			return 0, 0, false
		}

		size = uint16(value)
	}

	return addr, size, true
}

func debugSource(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "source [0x###|label] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	if addr, size, ok := parseRange(dbg, mc, args, 3); ok {
		dbg.PrintSource(addr, size)
	}
}

func debugDisasm(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "disasm [0x###|label] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	if addr, size, ok := parseRange(dbg, mc, args, 8); ok {
		dbg.PrintDisasm(mc, addr, size)
	}
}

func debugMemory(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "memory [0x###|label] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	if addr, size, ok := parseRange(dbg, mc, args, 1); ok {
		dbg.PrintMem(mc, addr, size)
	}
}

func debugLabels(dbg *debugger.Debugger, args []string) {
	const usage = "labels"

	if len(args) > 0 {
		fmt.Println(usage)
		return
	}

	if dbg.SymTable == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	for _, addr := range dbg.SortedLabels() {
		fmt.Printf(
			"\033[1m[%#04x]\033[0m %s\n", addr, dbg.SymTable.Labels[addr],
		)
	}
}

func debugJump(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "jump [0x###|label]"

	if len(args) != 1 {
		fmt.Println(usage)
		return
	}

	addr, ok := dbg.Lookup(args[0])

	if !ok {
		fmt.Printf("Unable to find '%s'\n", args[0])
		return
	}

	mc.Program = addr
	fmt.Printf("\033[1mPC:\033[0m %#04x\n", addr)
}

func debugSet(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "set [0x###] [0x##]"

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	addr, ok := dbg.Lookup(args[0])

	if !ok {
		fmt.Printf("Unable to find '%s'\n", args[0])
		return
	}

	value, err := encoding.DecodeHex(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	if value > math.MaxUint8 {
		log.Println("Value exceeds byte size")
		return
	}

	mc.Memory[addr] = uint8(value)
	dbg.PrintMem(mc, addr, 1)
}

func debugKey(kp *Keypad, mc *machine.MachineState, args []string) {
	const usage = "key [0-F]"

	if len(args) == 0 {
		for i, down := range mc.Keys {
			if down {
				fmt.Printf("%X ", i)
			}
		}

		fmt.Println()
		return
	}

	if len(args) != 1 {
		log.Println(usage)
		return
	}

	key, err := strconv.ParseUint(args[0], 16, 8)

	if err != nil || key >= machine.KEY_COUNT {
		log.Println(usage)
		return
	}

	mc.Keys[key] = kp.Latch(uint8(key))

	if mc.Keys[key] {
		fmt.Printf("Key %X down\n", key)
	} else {
		fmt.Printf("Key %X up\n", key)
	}
}

func debugREPL(dbg *debugger.Debugger, mc *machine.Machine) {
	exitRawTerm()

	defer func() {
		if err := enterRawTerm(); err != nil {
			log.Println(err)
			shouldexit = true
		}

		fmt.Print("\033[H\033[2J")
		mc.State.Redraw = true
	}()

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		if !scanner.Scan() {
			fmt.Println()
			shouldexit = true
			return
		}

		args := strings.Fields(scanner.Text())

		if len(args) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = make([]string, len(args))
			copy(lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, args)

		case "r", "reg", "register", "registers":
			debugReg(dbg, &mc.State, args)

		case "s", "src", "source":
			debugSource(dbg, &mc.State, args)

		case "d", "dis", "disasm":
			debugDisasm(dbg, &mc.State, args)

		case "l", "label", "labels":
			debugLabels(dbg, args)

		case "j", "jmp", "jump":
			debugJump(dbg, &mc.State, args)

		case "m", "mem", "memory":
			debugMemory(dbg, &mc.State, args)

		case "set":
			debugSet(dbg, &mc.State, args)

		case "k", "key":
			debugKey(&keypad, &mc.State, args)

		case "screen":
			dbg.PrintDisplay(&mc.State)

		case "c", "continue":
			dbg.Break = false
			return

		case "n", "next":
			dbg.Break = true
			return

		case "q", "quit", "exit":
			shouldexit = true
			return

		case "clear":
			fmt.Print("\033[H\033[2J")

		case "reset":
			resetpending = true
			fmt.Println("Machine resets once the current instruction finishes")

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

// Reloads the program once the instruction that asked for it has finished,
// so a reset from inside a watchpoint never lands on a half-run instruction
func resetIfPending(mc *machine.Machine) {
	if !resetpending {
		return
	}

	resetpending = false

	if err := mc.LoadBin(bytes.NewReader(rom)); err != nil {
		log.Println(err)
		return
	}

	mc.State.Redraw = true
}

func handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	exitRawTerm()

	if !dbg.Break {
		fmt.Println()
		fmt.Println("Program stopped")
	}

	dbg.PrintDisasm(&mc.State, mc.State.Program, 1)
	debugREPL(dbg, mc)
}

func handleRead(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	exitRawTerm()

	fmt.Println()
	fmt.Println("Program stopped (read)")
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}

func handleWrite(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	exitRawTerm()

	fmt.Println()
	fmt.Println("Program stopped (write)")
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}

func handleDebugFault(err error, dbg *debugger.Debugger, mc *machine.Machine) {
	exitRawTerm()

	fmt.Println()
	fmt.Printf("Program faulted: %s\n", err)
	dbg.PrintRegisters(&mc.State)
	debugREPL(dbg, mc)
}
