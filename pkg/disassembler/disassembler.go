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

// Package disassembler turns CHIP-8 instruction words back into the source
// syntax accepted by the assembler package.
package disassembler

import (
	"fmt"

	"github.com/lassandro/gochip8/pkg/encoding"
)

type Instruction struct {
	Opcode   encoding.Opcode
	Name     string
	Operands string
}

func (ins Instruction) String() string {
	if ins.Operands == "" {
		return ins.Name
	}

	return ins.Name + " " + ins.Operands
}

func (ins Instruction) IsJump() bool {
	return ins.Name == "JP"
}

func (ins Instruction) IsCall() bool {
	return ins.Name == "CALL"
}

func (ins Instruction) IsReturn() bool {
	return ins.Name == "RET"
}

func (ins Instruction) IsSkip() bool {
	switch ins.Name {
	case "SE", "SNE", "SKP", "SKNP":
		return true
	}

	return false
}

type UnknownOpcodeError struct {
	Opcode uint16
}

func (err *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("Unknown opcode %04X", err.Opcode)
}

type pattern struct {
	Mask     uint16
	Value    uint16
	Name     string
	Operands func(op encoding.Opcode) string
}

func none(op encoding.Opcode) string {
	return ""
}

func address(op encoding.Opcode) string {
	return fmt.Sprintf("0x%03X", op.NNN())
}

func regByte(op encoding.Opcode) string {
	return fmt.Sprintf("V%X, 0x%02X", op.X(), op.NN())
}

func regReg(op encoding.Opcode) string {
	return fmt.Sprintf("V%X, V%X", op.X(), op.Y())
}

func reg(op encoding.Opcode) string {
	return fmt.Sprintf("V%X", op.X())
}

// Formats VX in the given position around a fixed operand
func fixed(left, right string) func(op encoding.Opcode) string {
	return func(op encoding.Opcode) string {
		if left == "" {
			return fmt.Sprintf("V%X, %s", op.X(), right)
		}

		return fmt.Sprintf("%s, V%X", left, op.X())
	}
}

// Indexed by the top nibble, first match wins
var patterns = [16][]pattern{
	0x0: {
		{0xFFFF, 0x00E0, "CLS", none},
		{0xFFFF, 0x00EE, "RET", none},
	},
	0x1: {
		{0xF000, 0x1000, "JP", address},
	},
	0x2: {
		{0xF000, 0x2000, "CALL", address},
	},
	0x3: {
		{0xF000, 0x3000, "SE", regByte},
	},
	0x4: {
		{0xF000, 0x4000, "SNE", regByte},
	},
	0x5: {
		{0xF00F, 0x5000, "SE", regReg},
	},
	0x6: {
		{0xF000, 0x6000, "LD", regByte},
	},
	0x7: {
		{0xF000, 0x7000, "ADD", regByte},
	},
	0x8: {
		{0xF00F, 0x8000, "LD", regReg},
		{0xF00F, 0x8001, "OR", regReg},
		{0xF00F, 0x8002, "AND", regReg},
		{0xF00F, 0x8003, "XOR", regReg},
		{0xF00F, 0x8004, "ADD", regReg},
		{0xF00F, 0x8005, "SUB", regReg},
		{0xF00F, 0x8006, "SHR", regReg},
		{0xF00F, 0x8007, "SUBN", regReg},
		{0xF00F, 0x800E, "SHL", regReg},
	},
	0x9: {
		{0xF00F, 0x9000, "SNE", regReg},
	},
	0xA: {
		{0xF000, 0xA000, "LD", func(op encoding.Opcode) string {
			return "I, " + address(op)
		}},
	},
	0xB: {
		{0xF000, 0xB000, "JP", func(op encoding.Opcode) string {
			return "V0, " + address(op)
		}},
	},
	0xC: {
		{0xF000, 0xC000, "RND", regByte},
	},
	0xD: {
		{0xF000, 0xD000, "DRW", func(op encoding.Opcode) string {
			return fmt.Sprintf("V%X, V%X, %d", op.X(), op.Y(), op.N())
		}},
	},
	0xE: {
		{0xF0FF, 0xE09E, "SKP", reg},
		{0xF0FF, 0xE0A1, "SKNP", reg},
	},
	0xF: {
		{0xF0FF, 0xF007, "LD", fixed("", "DT")},
		{0xF0FF, 0xF00A, "LD", fixed("", "K")},
		{0xF0FF, 0xF015, "LD", fixed("DT", "")},
		{0xF0FF, 0xF018, "LD", fixed("ST", "")},
		{0xF0FF, 0xF01E, "ADD", fixed("I", "")},
		{0xF0FF, 0xF029, "LD", fixed("F", "")},
		{0xF0FF, 0xF033, "LD", fixed("B", "")},
		{0xF0FF, 0xF055, "LD", fixed("[I]", "")},
		{0xF0FF, 0xF065, "LD", fixed("", "[I]")},
	},
}

func Disassemble(word uint16) (Instruction, error) {
	op := encoding.Opcode(word)

	for _, p := range patterns[op.Group()] {
		if word&p.Mask == p.Value {
			return Instruction{op, p.Name, p.Operands(op)}, nil
		}
	}

	return Instruction{Opcode: op}, &UnknownOpcodeError{word}
}

type Line struct {
	Addr        uint16
	Instruction Instruction
	Err         error
}

// Listing decodes up to count words starting at addr. Words that are not
// instructions are rendered as .WORD data so the listing reassembles.
func Listing(memory []byte, addr uint16, count int) []Line {
	lines := make([]Line, 0, count)

	for i := 0; i < count; i++ {
		if int(addr)+1 >= len(memory) {
			break
		}

		word := uint16(encoding.MakeOpcode(memory[addr], memory[addr+1]))
		ins, err := Disassemble(word)

		if err != nil {
			ins.Name = ".WORD"
			ins.Operands = fmt.Sprintf("0x%04X", word)
		}

		lines = append(lines, Line{addr, ins, err})
		addr += 2
	}

	return lines
}
