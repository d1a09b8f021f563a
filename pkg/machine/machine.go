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
	"io"
	"math/rand/v2"

	"github.com/lassandro/gochip8/pkg/encoding"
)

func (mc *MachineState) Reset() {
	*mc = MachineState{}

	// Glyphs live below the program space and are never written again
	copy(mc.Memory[MEMSPACE_FONT:], FONTSET[:])

	mc.Program = MEMSPACE_PROGRAM
}

// LoadProgram copies a flat program image to the start of program space.
// Memory is left untouched if the image does not fit.
func (mc *MachineState) LoadProgram(program []byte) error {
	if len(program) > PROGRAM_LIMIT {
		return &ProgramTooLargeError{len(program), PROGRAM_LIMIT}
	}

	copy(mc.Memory[MEMSPACE_PROGRAM:], program)
	return nil
}

func (mc *MachineState) pressedKey() (uint8, bool) {
	for key, pressed := range mc.Keys {
		if pressed {
			return uint8(key), true
		}
	}

	return 0, false
}

func (mc *Machine) Reset() {
	mc.State.Reset()
}

// LoadBin resets the machine and loads a program image from reader. The
// state is only reset once the whole image is known to fit.
func (mc *Machine) LoadBin(reader io.Reader) error {
	program, err := io.ReadAll(io.LimitReader(reader, int64(PROGRAM_LIMIT)+1))

	if err != nil {
		return err
	}

	if len(program) > PROGRAM_LIMIT {
		return &ProgramTooLargeError{len(program), PROGRAM_LIMIT}
	}

	mc.State.Reset()
	return mc.State.LoadProgram(program)
}

func (mc *Machine) TickTimers() {
	if mc.State.Delay > 0 {
		mc.State.Delay--
	}

	if mc.State.Sound > 0 {
		mc.State.Sound--
	}
}

// Tone reports whether the host should currently be sounding the buzzer.
func (mc *Machine) Tone() bool {
	return mc.State.Sound > 0
}

func (mc *Machine) checkRead(addr uint16, count int) error {
	if end := int(addr) + count; end > MEMORY_SIZE {
		if addr < MEMSPACE_END {
			addr = MEMSPACE_END
		}

		return &AddressError{addr, false}
	}

	return nil
}

func (mc *Machine) checkWrite(addr uint16, count int) error {
	if addr < MEMSPACE_PROGRAM {
		return &AddressError{addr, true}
	}

	if end := int(addr) + count; end > MEMORY_SIZE {
		if addr < MEMSPACE_END {
			addr = MEMSPACE_END
		}

		return &AddressError{addr, true}
	}

	return nil
}

func (mc *Machine) read(addr uint16) byte {
	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return mc.State.Memory[addr]
}

func (mc *Machine) write(addr uint16, value byte) {
	mc.State.Memory[addr] = value

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

func (mc *Machine) random() uint8 {
	if mc.Random == nil {
		return uint8(rand.Uint32())
	}

	return uint8(mc.Random.Uint32())
}

func (mc *Machine) skip() {
	mc.State.Program += 2
}

// Writes an ALU result together with its VF post-condition. The order only
// matters when the destination is VF itself.
func (mc *Machine) setResult(x uint8, result uint8, flag uint8) {
	if mc.Quirks.FlagBeforeResult {
		mc.State.Registers[FLAG_REGISTER] = flag
		mc.State.Registers[x] = result
	} else {
		mc.State.Registers[x] = result
		mc.State.Registers[FLAG_REGISTER] = flag
	}
}

func (mc *Machine) setLogic(x uint8, result uint8) {
	if mc.Quirks.LogicKeepsFlag {
		mc.State.Registers[x] = result
	} else {
		mc.setResult(x, result, 0)
	}
}

// VF after a subtraction of b from a
func (mc *Machine) noBorrow(a, b uint8) uint8 {
	if mc.Quirks.StrictBorrow {
		return flag(a > b)
	}

	return flag(a >= b)
}

// Moves I after FX55/FX65 transferred count registers
func (mc *Machine) advanceIndex(count int) {
	switch {
	case mc.Quirks.IndexStepOne:
		mc.State.Index++
	case mc.Quirks.IndexIncrement:
		mc.State.Index += uint16(count)
	}
}

func flag(condition bool) uint8 {
	if condition {
		return 1
	}

	return 0
}

// Step executes exactly one instruction. A returned error describes an
// instruction that was skipped; the program counter has already moved past
// it, so the host may log the fault and keep stepping.
func (mc *Machine) Step() error {
	err := mc.execute()

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return err
}

func (mc *Machine) execute() error {
	state := &mc.State

	if state.Waiting {
		if key, pressed := state.pressedKey(); pressed {
			state.Registers[state.WaitRegister] = key
			state.Waiting = false
		}

		return nil
	}

	addr := state.Program

	if err := mc.checkRead(addr, 2); err != nil {
		return err
	}

	op := encoding.MakeOpcode(mc.read(addr), mc.read(addr+1))
	state.Program += 2

	x := op.X()
	vx := state.Registers[x]
	vy := state.Registers[op.Y()]

	switch op.Group() {
	// CLS  |0000    |0000   |1110   |0000   | Clear display
	// RET  |0000    |0000   |1110   |1110   | Return from subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SYS:
		switch uint16(op) {
		case SYS_CLS:
			state.Display = [DISPLAY_HEIGHT][DISPLAY_WIDTH]bool{}
			state.Redraw = true

		case SYS_RET:
			if state.StackPtr == 0 {
				return &StackUnderflowError{addr}
			}

			// The stack holds the CALL itself, resume after it
			state.StackPtr--
			state.Program = state.Stack[state.StackPtr] + 2

		default:
			return &UnknownOpcodeError{uint16(op), addr}
		}

	// JP   |0001    |NNN                    | Jump
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JP:
		state.Program = op.NNN()

	// CALL |0010    |NNN                    | Call subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_CALL:
		if state.StackPtr == STACK_DEPTH {
			return &StackOverflowError{addr}
		}

		state.Stack[state.StackPtr] = addr
		state.StackPtr++
		state.Program = op.NNN()

	// SE   |0011    |X      |NN             | Skip if VX == NN
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SE_BYTE:
		if vx == op.NN() {
			mc.skip()
		}

	// SNE  |0100    |X      |NN             | Skip if VX != NN
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SNE_BYTE:
		if vx != op.NN() {
			mc.skip()
		}

	// SE   |0101    |X      |Y      |0000   | Skip if VX == VY
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SE_REG:
		if op.N() != 0 {
			return &UnknownOpcodeError{uint16(op), addr}
		}

		if vx == vy {
			mc.skip()
		}

	// LD   |0110    |X      |NN             | Load byte
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD_BYTE:
		state.Registers[x] = op.NN()

	// ADD  |0111    |X      |NN             | Add byte (VF untouched)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ADD_BYTE:
		state.Registers[x] = vx + op.NN()

	case OP_ALU:
		return mc.executeALU(op, addr)

	// SNE  |1001    |X      |Y      |0000   | Skip if VX != VY
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SNE_REG:
		if op.N() != 0 {
			return &UnknownOpcodeError{uint16(op), addr}
		}

		if vx != vy {
			mc.skip()
		}

	// LD   |1010    |NNN                    | Load index
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD_I:
		state.Index = op.NNN()

	// JP   |1011    |NNN                    | Jump to V0 + NNN
	// JP   |1011    |X      |NN             | Jump to VX + XNN (quirk)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JP_V0:
		base := state.Registers[0]

		if mc.Quirks.JumpWithVX {
			base = vx
		}

		state.Program = uint16(base) + op.NNN()

	// RND  |1100    |X      |NN             | Random byte AND NN
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_RND:
		state.Registers[x] = mc.random() & op.NN()

	// DRW  |1101    |X      |Y      |N      | Draw N-row sprite at (VX, VY)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_DRW:
		return mc.draw(vx, vy, op.N())

	// SKP  |1110    |X      |10011110       | Skip if key VX down
	// SKNP |1110    |X      |10100001       | Skip if key VX up
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SKP:
		pressed := state.Keys[vx&0xF]

		switch op.NN() {
		case SKP_PRESSED:
			if pressed {
				mc.skip()
			}

		case SKP_RELEASED:
			if !pressed {
				mc.skip()
			}

		default:
			return &UnknownOpcodeError{uint16(op), addr}
		}

	case OP_MISC:
		return mc.executeMisc(op, addr)
	}

	return nil
}

// ---- |1000    |X      |Y      |op     | Register arithmetic
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) executeALU(op encoding.Opcode, addr uint16) error {
	state := &mc.State

	x := op.X()
	vx := state.Registers[x]
	vy := state.Registers[op.Y()]

	switch op.N() {
	case ALU_LD:
		state.Registers[x] = vy

	case ALU_OR:
		mc.setLogic(x, vx|vy)

	case ALU_AND:
		mc.setLogic(x, vx&vy)

	case ALU_XOR:
		mc.setLogic(x, vx^vy)

	case ALU_ADD:
		sum := uint16(vx) + uint16(vy)
		mc.setResult(x, uint8(sum), flag(sum > 0xFF))

	case ALU_SUB:
		mc.setResult(x, vx-vy, mc.noBorrow(vx, vy))

	case ALU_SUBN:
		mc.setResult(x, vy-vx, mc.noBorrow(vy, vx))

	case ALU_SHR:
		src := vy
		if mc.Quirks.ShiftInPlace {
			src = vx
		}

		mc.setResult(x, src>>1, vx&0x1)

	case ALU_SHL:
		src := vy
		if mc.Quirks.ShiftInPlace {
			src = vx
		}

		mc.setResult(x, src<<1, vx>>7)

	default:
		return &UnknownOpcodeError{uint16(op), addr}
	}

	return nil
}

// ---- |1111    |X      |op             | Timers, keys and index memory
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) executeMisc(op encoding.Opcode, addr uint16) error {
	state := &mc.State

	x := op.X()
	vx := state.Registers[x]

	switch op.NN() {
	case MISC_LD_VX_DT:
		state.Registers[x] = state.Delay

	case MISC_LD_VX_K:
		if key, pressed := state.pressedKey(); pressed {
			state.Registers[x] = key
		} else {
			state.Waiting = true
			state.WaitRegister = x
		}

	case MISC_LD_DT_VX:
		state.Delay = vx

	case MISC_LD_ST_VX:
		state.Sound = vx

	case MISC_ADD_I_VX:
		state.Index += uint16(vx)

	case MISC_LD_F_VX:
		state.Index = MEMSPACE_FONT + uint16(vx)*GLYPH_SIZE

	case MISC_LD_B_VX:
		if err := mc.checkWrite(state.Index, 3); err != nil {
			return err
		}

		for i, digit := range encoding.SplitDecimal(vx) {
			mc.write(state.Index+uint16(i), digit)
		}

	case MISC_LD_I_VX:
		count := int(x) + 1

		if err := mc.checkWrite(state.Index, count); err != nil {
			return err
		}

		for i := 0; i < count; i++ {
			mc.write(state.Index+uint16(i), state.Registers[i])
		}

		mc.advanceIndex(count)

	case MISC_LD_VX_I:
		count := int(x) + 1

		if err := mc.checkRead(state.Index, count); err != nil {
			return err
		}

		for i := 0; i < count; i++ {
			state.Registers[i] = mc.read(state.Index + uint16(i))
		}

		mc.advanceIndex(count)

	default:
		return &UnknownOpcodeError{uint16(op), addr}
	}

	return nil
}

func (mc *Machine) draw(vx, vy, rows uint8) error {
	state := &mc.State

	if err := mc.checkRead(state.Index, int(rows)); err != nil {
		return err
	}

	originX := int(vx) % DISPLAY_WIDTH
	originY := int(vy) % DISPLAY_HEIGHT

	var collision bool

	for row := 0; row < int(rows); row++ {
		y := originY + row

		if y >= DISPLAY_HEIGHT {
			if !mc.Quirks.WrapSprites {
				break
			}

			y %= DISPLAY_HEIGHT
		}

		sprite := mc.read(state.Index + uint16(row))

		for col := 0; col < 8; col++ {
			if sprite&(0x80>>col) == 0 {
				continue
			}

			x := originX + col

			if x >= DISPLAY_WIDTH {
				if !mc.Quirks.WrapSprites {
					break
				}

				x %= DISPLAY_WIDTH
			}

			if state.Display[y][x] {
				collision = true
			}

			state.Display[y][x] = !state.Display[y][x]
		}
	}

	state.Registers[FLAG_REGISTER] = flag(collision)
	state.Redraw = true

	return nil
}
