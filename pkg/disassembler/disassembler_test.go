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

package disassembler_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/retroenv/retrogolib/assert"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/disassembler"
)

func TestDisassemble(t *testing.T) {
	tests := []struct {
		word     uint16
		expected string
	}{
		{0x00E0, "CLS"},
		{0x00EE, "RET"},
		{0x1345, "JP 0x345"},
		{0x2208, "CALL 0x208"},
		{0x3142, "SE V1, 0x42"},
		{0x4142, "SNE V1, 0x42"},
		{0x5120, "SE V1, V2"},
		{0x612A, "LD V1, 0x2A"},
		{0x7105, "ADD V1, 0x05"},
		{0x8120, "LD V1, V2"},
		{0x8121, "OR V1, V2"},
		{0x8122, "AND V1, V2"},
		{0x8123, "XOR V1, V2"},
		{0x8124, "ADD V1, V2"},
		{0x8125, "SUB V1, V2"},
		{0x8126, "SHR V1, V2"},
		{0x8127, "SUBN V1, V2"},
		{0x812E, "SHL V1, V2"},
		{0x9120, "SNE V1, V2"},
		{0xA123, "LD I, 0x123"},
		{0xB300, "JP V0, 0x300"},
		{0xC5FF, "RND V5, 0xFF"},
		{0xD015, "DRW V0, V1, 5"},
		{0xEA9E, "SKP VA"},
		{0xEBA1, "SKNP VB"},
		{0xF307, "LD V3, DT"},
		{0xF30A, "LD V3, K"},
		{0xF315, "LD DT, V3"},
		{0xF318, "LD ST, V3"},
		{0xF41E, "ADD I, V4"},
		{0xF329, "LD F, V3"},
		{0xF333, "LD B, V3"},
		{0xF355, "LD [I], V3"},
		{0xF365, "LD V3, [I]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			ins, err := disassembler.Disassemble(tt.word)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, ins.String())
			assert.Equal(t, tt.word, uint16(ins.Opcode))
		})
	}
}

func TestDisassembleUnknown(t *testing.T) {
	for _, word := range []uint16{0x0000, 0x0123, 0x5121, 0x8128, 0x9121, 0xE000, 0xF0FF} {
		_, err := disassembler.Disassemble(word)

		var unknown *disassembler.UnknownOpcodeError
		assert.Equal(t, true, errors.As(err, &unknown))
		assert.Equal(t, word, unknown.Opcode)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		word                         uint16
		jump, call, isReturn, isSkip bool
	}{
		{0x1200, true, false, false, false},
		{0xB200, true, false, false, false},
		{0x2200, false, true, false, false},
		{0x00EE, false, false, true, false},
		{0x3000, false, false, false, true},
		{0x9120, false, false, false, true},
		{0xE19E, false, false, false, true},
		{0xE1A1, false, false, false, true},
		{0x6000, false, false, false, false},
	}

	for _, tt := range tests {
		ins, err := disassembler.Disassemble(tt.word)
		assert.NoError(t, err)
		assert.Equal(t, tt.jump, ins.IsJump())
		assert.Equal(t, tt.call, ins.IsCall())
		assert.Equal(t, tt.isReturn, ins.IsReturn())
		assert.Equal(t, tt.isSkip, ins.IsSkip())
	}
}

func TestListing(t *testing.T) {
	memory := make([]byte, 0x1000)
	copy(memory[0x200:], []byte{
		0x00, 0xE0,
		0x01, 0x23,
		0x12, 0x00,
	})

	lines := disassembler.Listing(memory, 0x200, 3)

	assert.Equal(t, 3, len(lines))
	assert.Equal(t, uint16(0x200), lines[0].Addr)
	assert.Equal(t, "CLS", lines[0].Instruction.String())
	assert.NoError(t, lines[0].Err)
	assert.Equal(t, uint16(0x202), lines[1].Addr)
	assert.Equal(t, ".WORD 0x0123", lines[1].Instruction.String())
	assert.Equal(t, true, lines[1].Err != nil)
	assert.Equal(t, "JP 0x200", lines[2].Instruction.String())

	// Stops before reading past the end of memory
	tail := disassembler.Listing(memory, 0xFFE, 4)
	assert.Equal(t, 1, len(tail))
	assert.Equal(t, uint16(0xFFE), tail[0].Addr)
}

func TestListingReassembles(t *testing.T) {
	memory := make([]byte, 0x1000)
	source := []byte{0x61, 0x05, 0x01, 0x23, 0xF1, 0x29, 0xD0, 0x15}
	copy(memory[0x200:], source)

	var builder strings.Builder
	for _, line := range disassembler.Listing(memory, 0x200, 4) {
		builder.WriteString(line.Instruction.String())
		builder.WriteString("\n")
	}

	image, errs := assembler.AssembleChip8Source(
		strings.NewReader(builder.String()), nil,
	)

	assert.Equal(t, 0, len(errs))
	assert.Equal(t, source, image)
}

func TestProperty_RoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 1000

	properties := gopter.NewProperties(parameters)

	properties.Property("decoded instructions assemble to the same word", prop.ForAll(
		func(word uint16) bool {
			ins, err := disassembler.Disassemble(word)
			if err != nil {
				return true
			}

			image, errs := assembler.AssembleChip8Source(
				strings.NewReader(ins.String()), nil,
			)

			return len(errs) == 0 &&
				len(image) == 2 &&
				image[0] == byte(word>>8) &&
				image[1] == byte(word)
		},
		gen.UInt16(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
