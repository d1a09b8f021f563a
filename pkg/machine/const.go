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

const (
	MEMORY_SIZE    = 4096
	REGISTER_COUNT = 16
	STACK_DEPTH    = 16
	KEY_COUNT      = 16
	FLAG_REGISTER  = 0xF
)

const (
	DISPLAY_WIDTH  = 64
	DISPLAY_HEIGHT = 32
)

const (
	MEMSPACE_FONT    uint16 = 0x0000
	MEMSPACE_PROGRAM uint16 = 0x0200
	MEMSPACE_END     uint16 = MEMORY_SIZE

	PROGRAM_LIMIT = MEMORY_SIZE - int(MEMSPACE_PROGRAM)
)

const (
	GLYPH_SIZE  = 5
	GLYPH_COUNT = 16
)

const (
	OP_SYS      uint8 = 0x0
	OP_JP       uint8 = 0x1
	OP_CALL     uint8 = 0x2
	OP_SE_BYTE  uint8 = 0x3
	OP_SNE_BYTE uint8 = 0x4
	OP_SE_REG   uint8 = 0x5
	OP_LD_BYTE  uint8 = 0x6
	OP_ADD_BYTE uint8 = 0x7
	OP_ALU      uint8 = 0x8
	OP_SNE_REG  uint8 = 0x9
	OP_LD_I     uint8 = 0xA
	OP_JP_V0    uint8 = 0xB
	OP_RND      uint8 = 0xC
	OP_DRW      uint8 = 0xD
	OP_SKP      uint8 = 0xE
	OP_MISC     uint8 = 0xF
)

// 0x0 group, matched on the full word
const (
	SYS_CLS uint16 = 0x00E0
	SYS_RET uint16 = 0x00EE
)

// 0x8 group, matched on N
const (
	ALU_LD   uint8 = 0x0
	ALU_OR   uint8 = 0x1
	ALU_AND  uint8 = 0x2
	ALU_XOR  uint8 = 0x3
	ALU_ADD  uint8 = 0x4
	ALU_SUB  uint8 = 0x5
	ALU_SHR  uint8 = 0x6
	ALU_SUBN uint8 = 0x7
	ALU_SHL  uint8 = 0xE
)

// 0xE group, matched on NN
const (
	SKP_PRESSED  uint8 = 0x9E
	SKP_RELEASED uint8 = 0xA1
)

// 0xF group, matched on NN
const (
	MISC_LD_VX_DT uint8 = 0x07
	MISC_LD_VX_K  uint8 = 0x0A
	MISC_LD_DT_VX uint8 = 0x15
	MISC_LD_ST_VX uint8 = 0x18
	MISC_ADD_I_VX uint8 = 0x1E
	MISC_LD_F_VX  uint8 = 0x29
	MISC_LD_B_VX  uint8 = 0x33
	MISC_LD_I_VX  uint8 = 0x55
	MISC_LD_VX_I  uint8 = 0x65
)

var FONTSET = [GLYPH_COUNT * GLYPH_SIZE]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}
