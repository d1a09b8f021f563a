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

import (
	"fmt"
)

type ProgramTooLargeError struct {
	Size  int
	Limit int
}

func (err *ProgramTooLargeError) Error() string {
	return fmt.Sprintf(
		"Program exceeds allowed size\n\twant:%d\n\thave:%d",
		err.Limit,
		err.Size,
	)
}

// Addr is the location of the faulting instruction, not the advanced PC.
type UnknownOpcodeError struct {
	Opcode uint16
	Addr   uint16
}

func (err *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("[%#04x] Unknown opcode %04X", err.Addr, err.Opcode)
}

type StackOverflowError struct {
	Addr uint16
}

func (err *StackOverflowError) Error() string {
	return fmt.Sprintf(
		"[%#04x] Stack overflow (depth %d)", err.Addr, STACK_DEPTH,
	)
}

type StackUnderflowError struct {
	Addr uint16
}

func (err *StackUnderflowError) Error() string {
	return fmt.Sprintf("[%#04x] Return with empty stack", err.Addr)
}

type AddressError struct {
	Addr  uint16
	Write bool
}

func (err *AddressError) Error() string {
	if err.Write {
		return fmt.Sprintf("Write outside program memory [%#04x]", err.Addr)
	}

	return fmt.Sprintf("Read outside memory [%#04x]", err.Addr)
}
