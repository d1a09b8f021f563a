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

package encoding

import (
	"errors"
	"strconv"
	"strings"
)

// Decodes a hexidecimal string in the formats: 0xFFF, xFFF, 0xFF, xFF
func DecodeHex(s string) (uint16, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes a base-10 string in the formats: #123, 123
func DecodeInt(s string) (int16, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseInt(s, 10, 16)

	if err != nil {
		return 0, err
	}

	return int16(result), nil
}

// Decodes a base-2 string in the format: 0b10110
func DecodeBinary(s string) (uint16, error) {
	if len(s) < 3 || s[0] != '0' || (s[1] != 'b' && s[1] != 'B') {
		return 0, errors.New("Invalid binary string")
	}

	result, err := strconv.ParseUint(s[2:], 2, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Opcode is a single big-endian instruction word.
//
//	[ G G G G | X X X X | Y Y Y Y | N N N N ]
//	            [ NNN                       ]
//	                      [ NN              ]
type Opcode uint16

func MakeOpcode(hi, lo byte) Opcode {
	return Opcode(uint16(hi)<<8 | uint16(lo))
}

func (op Opcode) Group() uint8 { return uint8(op >> 12) }
func (op Opcode) X() uint8     { return uint8(op>>8) & 0xF }
func (op Opcode) Y() uint8     { return uint8(op>>4) & 0xF }
func (op Opcode) N() uint8     { return uint8(op) & 0xF }
func (op Opcode) NN() uint8    { return uint8(op) }
func (op Opcode) NNN() uint16  { return uint16(op) & 0x0FFF }

func (op Opcode) Bytes() (hi, lo byte) {
	return byte(op >> 8), byte(op)
}

// Splits a value into its hundreds, tens and ones digits
func SplitDecimal(value uint8) [3]uint8 {
	return [3]uint8{value / 100, (value % 100) / 10, value % 10}
}
