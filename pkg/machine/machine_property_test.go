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

package machine_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/lassandro/gochip8/pkg/machine"
)

func newPropertyMachine(words ...uint16) *machine.Machine {
	mc := &machine.Machine{}
	mc.State.Reset()

	for i, word := range words {
		addr := machine.MEMSPACE_PROGRAM + uint16(i*2)
		mc.State.Memory[addr] = uint8(word >> 8)
		mc.State.Memory[addr+1] = uint8(word)
	}

	return mc
}

func TestProperty_Arithmetic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500

	properties := gopter.NewProperties(parameters)

	properties.Property("8XY4 stores the low byte and carries past 255", prop.ForAll(
		func(a, b uint8) bool {
			mc := newPropertyMachine(0x8124)
			mc.State.Registers[1] = a
			mc.State.Registers[2] = b

			if mc.Step() != nil {
				return false
			}

			sum := int(a) + int(b)
			carry := uint8(0)
			if sum > 255 {
				carry = 1
			}

			return mc.State.Registers[1] == uint8(sum) &&
				mc.State.Registers[0xF] == carry
		},
		gen.UInt8(),
		gen.UInt8(),
	))

	properties.Property("8XY5 wraps the difference and flags no borrow", prop.ForAll(
		func(a, b uint8) bool {
			mc := newPropertyMachine(0x8125)
			mc.State.Registers[1] = a
			mc.State.Registers[2] = b

			if mc.Step() != nil {
				return false
			}

			noBorrow := uint8(0)
			if a >= b {
				noBorrow = 1
			}

			return mc.State.Registers[1] == uint8(int(a)-int(b)+256) &&
				mc.State.Registers[0xF] == noBorrow
		},
		gen.UInt8(),
		gen.UInt8(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_RegisterMemoryRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("FX55 then FX65 restores V0..VX", prop.ForAll(
		func(values []uint8, x int, index int) bool {
			// LD [I],Vx then clobber V0..Vx then LD Vx,[I]
			store := uint16(0xF055 | x<<8)
			load := uint16(0xF065 | x<<8)

			mc := newPropertyMachine(store, load)
			mc.State.Index = uint16(index)
			copy(mc.State.Registers[:], values)

			if mc.Step() != nil {
				return false
			}

			for i := 0; i <= x; i++ {
				mc.State.Registers[i] = ^values[i]
			}

			if mc.Step() != nil {
				return false
			}

			for i := 0; i <= x; i++ {
				if mc.State.Registers[i] != values[i] {
					return false
				}
			}

			return mc.State.Index == uint16(index)
		},
		gen.SliceOfN(machine.REGISTER_COUNT, gen.UInt8()),
		gen.IntRange(0, machine.REGISTER_COUNT-1),
		gen.IntRange(0x300, machine.MEMORY_SIZE-machine.REGISTER_COUNT),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_DrawSelfInverse(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("drawing a sprite twice restores the display", prop.ForAll(
		func(sprite []uint8, rows uint16, vx, vy uint8, wrap bool) bool {
			mc := newPropertyMachine(0xD010|rows, 0xD010|rows)
			mc.Quirks.WrapSprites = wrap
			mc.State.Index = 0x300
			mc.State.Registers[0] = vx
			mc.State.Registers[1] = vy
			copy(mc.State.Memory[0x300:], sprite)

			before := mc.State.Display

			if mc.Step() != nil || mc.Step() != nil {
				return false
			}

			return mc.State.Display == before && mc.State.Redraw
		},
		gen.SliceOfN(15, gen.UInt8()),
		gen.UInt16Range(0, 15),
		gen.UInt8(),
		gen.UInt8(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ProgramSize(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("images up to the limit load", prop.ForAll(
		func(size int) bool {
			var state machine.MachineState
			state.Reset()

			return state.LoadProgram(make([]byte, size)) == nil
		},
		gen.IntRange(0, machine.PROGRAM_LIMIT),
	))

	properties.Property("images past the limit are rejected", prop.ForAll(
		func(size int) bool {
			var state machine.MachineState
			state.Reset()

			image := make([]byte, size)
			for i := range image {
				image[i] = 0xAA
			}

			err := state.LoadProgram(image)
			if _, ok := err.(*machine.ProgramTooLargeError); !ok {
				return false
			}

			return state.Memory[machine.MEMSPACE_PROGRAM] == 0
		},
		gen.IntRange(machine.PROGRAM_LIMIT+1, machine.PROGRAM_LIMIT*2),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
