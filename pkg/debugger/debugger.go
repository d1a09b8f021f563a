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

package debugger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/lassandro/gochip8/pkg/disassembler"
	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
)

func (dbg *Debugger) out() io.Writer {
	if dbg.Output == nil {
		return os.Stdout
	}

	return dbg.Output
}

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.HandleBreak == nil {
		return
	}

	if dbg.Break {
		dbg.HandleBreak(dbg, mc)
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.Program == breakpoint.Addr {
			dbg.HandleBreak(dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	if dbg.HandleRead == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleRead(addr, dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	if dbg.HandleWrite == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleWrite(addr, dbg, mc)
			break
		}
	}
}

// Fault is called by the host when Step returns an error. Without a fault
// handler the machine drops into the break handler instead.
func (dbg *Debugger) Fault(err error, mc *machine.Machine) {
	switch {
	case dbg.HandleFault != nil:
		dbg.HandleFault(err, dbg, mc)
	case dbg.HandleBreak != nil:
		fmt.Fprintln(dbg.out(), err)
		dbg.HandleBreak(dbg, mc)
	}
}

func (dbg *Debugger) AddBreakpoint(addr uint16) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return true
}

func (dbg *Debugger) AddWatchpoint(addr uint16, wtype WatchpointType) bool {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type == wtype {
			return false
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
	return true
}

// Lookup resolves a label or a hex address
func (dbg *Debugger) Lookup(name string) (uint16, bool) {
	if dbg.SymTable != nil {
		for addr, label := range dbg.SymTable.Labels {
			if label == name {
				return addr, true
			}
		}
	}

	addr, err := encoding.DecodeHex(name)

	if err != nil || addr >= machine.MEMSPACE_END {
		return 0, false
	}

	return addr, true
}

func (dbg *Debugger) SortedLabels() []uint16 {
	if dbg.SymTable == nil {
		return nil
	}

	keys := make([]uint16, 0, len(dbg.SymTable.Labels))
	for addr := range dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}

func (dbg *Debugger) PrintSource(addr uint16, count uint16) {
	w := dbg.out()

	if dbg.Source == nil {
		fmt.Fprintln(w, "No source file loaded")
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(w, "No symbol table loaded")
		return
	}

	offset, exists := dbg.SymTable.Symbols[addr]

	if !exists {
		fmt.Fprintf(w, "No instruction found at %#04x\n", addr)
		return
	}

	if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
		fmt.Fprintln(w, err)
		return
	}

	lines := make(map[int64]uint16, len(dbg.SymTable.Symbols))
	for lineaddr, linebyte := range dbg.SymTable.Symbols {
		lines[linebyte] = lineaddr
	}

	scanner := bufio.NewScanner(dbg.Source)
	scanner.Split(bufio.ScanLines)

	for i := uint16(0); i < count; i++ {
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()

		if lineaddr, found := lines[offset]; found {
			fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", lineaddr)
		} else {
			fmt.Fprint(w, "\033[1;30m~~~~~~~~\033[0m ")
		}

		fmt.Fprintln(w, line)

		offset += int64(len(line) + 1)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(w, err)
	}
}

func (dbg *Debugger) PrintMem(mc *machine.MachineState, addr, count uint16) {
	w := dbg.out()
	end := int(addr) + int(count)

	if end > machine.MEMORY_SIZE {
		end = machine.MEMORY_SIZE
	}

	for i := int(addr); i < end; i++ {
		if i == int(addr) {
			fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", i)
		} else if (i-int(addr))%8 == 0 {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", i)
		}

		result := mc.Memory[i]

		if result == 0 {
			fmt.Fprintf(w, "\033[1;30m0x%02X\033[0m ", result)
		} else {
			fmt.Fprintf(w, "0x%02X ", result)
		}
	}

	fmt.Fprintln(w)
}

// PrintDisasm lists count instructions from addr, marking the program counter
// and any labels from the symbol table.
func (dbg *Debugger) PrintDisasm(mc *machine.MachineState, addr, count uint16) {
	w := dbg.out()

	for _, line := range disassembler.Listing(mc.Memory[:], addr, int(count)) {
		if dbg.SymTable != nil {
			if label, ok := dbg.SymTable.Labels[line.Addr]; ok {
				fmt.Fprintf(w, "%s:\n", label)
			}
		}

		marker := " "
		if line.Addr == mc.Program {
			marker = ">"
		}

		fmt.Fprintf(
			w,
			"%s\033[1m[%#04x]\033[0m %04X  %s\n",
			marker,
			line.Addr,
			uint16(line.Instruction.Opcode),
			line.Instruction,
		)
	}
}

func (dbg *Debugger) PrintRegisters(mc *machine.MachineState) {
	w := dbg.out()

	for i, register := range mc.Registers {
		fmt.Fprintf(w, "\033[1mV%X:\033[0m 0x%02X\t", i, register)
		if i%4 == 3 {
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintf(
		w,
		"\033[1mPC:\033[0m %#04x\t\033[1mI:\033[0m %#04x\t"+
			"\033[1mDT:\033[0m %d\t\033[1mST:\033[0m %d\n",
		mc.Program,
		mc.Index,
		mc.Delay,
		mc.Sound,
	)

	fmt.Fprintf(w, "\033[1mSP:\033[0m %d\t", mc.StackPtr)
	for i := uint8(0); i < mc.StackPtr && int(i) < machine.STACK_DEPTH; i++ {
		fmt.Fprintf(w, "%#04x ", mc.Stack[i])
	}
	fmt.Fprintln(w)

	if mc.Waiting {
		fmt.Fprintf(w, "Waiting for key into V%X\n", mc.WaitRegister)
	}
}

func (dbg *Debugger) PrintDisplay(mc *machine.MachineState) {
	w := dbg.out()

	for _, row := range mc.Display {
		line := make([]byte, len(row))

		for x, pixel := range row {
			if pixel {
				line[x] = '#'
			} else {
				line[x] = '.'
			}
		}

		fmt.Fprintln(w, string(line))
	}
}
