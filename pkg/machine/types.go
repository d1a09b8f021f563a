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

package machine

// MachineState is the architectural state of a single CHIP-8 CPU. It holds no
// behavior of its own beyond Reset and LoadProgram; the host may write Keys
// and read Display, Redraw and the timers between steps.
type MachineState struct {
	Memory    [MEMORY_SIZE]byte
	Registers [REGISTER_COUNT]uint8
	Index     uint16
	Program   uint16

	Stack    [STACK_DEPTH]uint16
	StackPtr uint8

	Delay uint8
	Sound uint8

	Keys    [KEY_COUNT]bool
	Display [DISPLAY_HEIGHT][DISPLAY_WIDTH]bool
	Redraw  bool

	// Set by FX0A while no key is down; Step polls Keys until one is
	Waiting      bool
	WaitRegister uint8
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

// RandomSource feeds CXNN. *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	Uint32() uint32
}

type Machine struct {
	State    MachineState
	Quirks   Quirks
	Random   RandomSource
	Debugger MachineDebugger
}
