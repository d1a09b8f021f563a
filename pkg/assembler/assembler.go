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

package assembler

import (
	"bufio"
	"io"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/lassandro/gochip8/pkg/encoding"
)

var directives = map[string]DirectiveType{
	".ORIG": DIRECTIVE_ORIG,
	".BYTE": DIRECTIVE_BYTE,
	".WORD": DIRECTIVE_WORD,
	".BLKB": DIRECTIVE_BLKB,
	".END":  DIRECTIVE_END,
}

var instructions = map[string]InstructionType{
	"CLS":  INSTRUCTION_CLS,
	"RET":  INSTRUCTION_RET,
	"JP":   INSTRUCTION_JP,
	"CALL": INSTRUCTION_CALL,
	"SE":   INSTRUCTION_SE,
	"SNE":  INSTRUCTION_SNE,
	"LD":   INSTRUCTION_LD,
	"ADD":  INSTRUCTION_ADD,
	"OR":   INSTRUCTION_OR,
	"AND":  INSTRUCTION_AND,
	"XOR":  INSTRUCTION_XOR,
	"SUB":  INSTRUCTION_SUB,
	"SHR":  INSTRUCTION_SHR,
	"SUBN": INSTRUCTION_SUBN,
	"SHL":  INSTRUCTION_SHL,
	"RND":  INSTRUCTION_RND,
	"DRW":  INSTRUCTION_DRW,
	"SKP":  INSTRUCTION_SKP,
	"SKNP": INSTRUCTION_SKNP,
}

var reservedOperands = map[string]OperandType{
	"I":   OPERAND_INDEX,
	"[I]": OPERAND_INDIRECT,
	"DT":  OPERAND_DELAY,
	"ST":  OPERAND_SOUND,
	"K":   OPERAND_KEY,
	"F":   OPERAND_FONT,
	"B":   OPERAND_BCD,
}

func parseDirective(ident string) DirectiveType {
	return directives[strings.ToUpper(ident)]
}

func parseInstruction(ident string) InstructionType {
	return instructions[strings.ToUpper(ident)]
}

func parseLiteral(token *Token, bits LiteralType) (uint16, error) {
	value := token.Value
	limit := 1 << bits

	var result int

	switch {
	case strings.ContainsAny(value, "xX"):
		hex, err := encoding.DecodeHex(value)

		if err != nil {
			return 0, &InvalidLiteralError{token.Position}
		}

		result = int(hex)

	case len(value) > 2 && value[0] == '0' && (value[1] == 'b' || value[1] == 'B'):
		bin, err := encoding.DecodeBinary(value)

		if err != nil {
			return 0, &InvalidLiteralError{token.Position}
		}

		result = int(bin)

	default:
		dec, err := encoding.DecodeInt(value)

		if err != nil {
			return 0, &InvalidLiteralError{token.Position}
		}

		result = int(dec)

		// Negative decimals are stored as two's complement of the field
		if result < 0 {
			if result < -(limit >> 1) {
				return 0, &OversizedLiteralError{token.Position, limit - 1, result}
			}

			result += limit
		}
	}

	if result >= limit {
		return 0, &OversizedLiteralError{token.Position, limit - 1, result}
	}

	return uint16(result), nil
}

func parseRegister(token *Token) (uint8, bool) {
	ident := token.Value

	if len(ident) != 2 || (ident[0] != 'V' && ident[0] != 'v') {
		return 0, false
	}

	reg, err := strconv.ParseUint(ident[1:], 16, 8)

	if err != nil {
		return 0, false
	}

	return uint8(reg), true
}

type operand struct {
	Kind  OperandType
	Token *Token
	Reg   uint8
}

func parseOperand(token *Token) operand {
	switch token.Type {
	case TOKEN_LITERAL:
		return operand{OPERAND_LITERAL, token, 0}

	case TOKEN_IDENT:
		if reg, ok := parseRegister(token); ok {
			return operand{OPERAND_REGISTER, token, reg}
		}

		if kind, ok := reservedOperands[strings.ToUpper(token.Value)]; ok {
			return operand{kind, token, 0}
		}

		if !strings.ContainsAny(token.Value, "[]") {
			return operand{OPERAND_LABEL, token, 0}
		}
	}

	return operand{OPERAND_INVALID, token, 0}
}

// Identifiers of the form x1F are hex literals without the leading zero
func isHexWord(value string) bool {
	if len(value) < 2 || (value[0] != 'x' && value[0] != 'X') {
		return false
	}

	for _, char := range value[1:] {
		if !unicode.Is(unicode.ASCII_Hex_Digit, char) {
			return false
		}
	}

	return true
}

func tokenizeLine(line string, cursor Cursor) (tokens []Token, errs []error) {
	var builder strings.Builder
	var tokenStart int = 0
	var tokenType TokenType = TOKEN_NONE

	builder.Grow(len(line))
	cursor.Size = int64(len(line))

	for column, char := range line {
		cursor.Column = column + 1

		var flush bool = false
		var skip bool = false

		if tokenType == TOKEN_NONE {
			tokenStart = cursor.Column
		}

		switch {
		// Whitespace
		case unicode.IsSpace(char):
			if tokenType == TOKEN_NONE {
				continue
			}

			flush = true

		// Comments
		case char == ';':
			flush = true
			skip = true

		// Assembler Directives
		case char == '.':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_DIRECTIVE
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Operand Separator
		case char == ',':
			flush = true

		// Base 10 Literal (i.e. #42)
		case char == '#':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Numeric Literal (i.e. 42, 0x2A, 0b101010)
		case unicode.IsDigit(char):
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			}

		// Numeric Sign
		case char == '-':
			if tokenType != TOKEN_LITERAL {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Underscore'd or bracketed Identifier (i.e. _loop, [I])
		case char == '_' || char == '[' || char == ']':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_IDENT
			} else if tokenType != TOKEN_IDENT {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Identifier
		case unicode.IsLetter(char):
			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
			}

			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_IDENT
			}

		default:
			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}
		}

		if !flush && !skip {
			builder.WriteRune(char)
		}

		if cursor.Column == len(line) {
			if char == ',' {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

			flush = true
		}

		if flush {
			if builder.Len() > 0 {
				value := builder.String()

				if tokenType == TOKEN_IDENT && isHexWord(value) {
					tokenType = TOKEN_LITERAL
				}

				tokens = append(tokens, Token{
					Type: tokenType,
					Position: Cursor{
						Line:     cursor.Line,
						Column:   tokenStart,
						Byte:     cursor.Byte + int64(tokenStart-1),
						Size:     int64(builder.Len()),
						LineByte: cursor.Byte,
					},
					Value: value,
				})

				builder.Reset()
			}

			tokenType = TOKEN_NONE
		}

		if skip {
			break
		}
	}

	return
}

type labelRef struct {
	Label    string
	Addr     uint16
	Size     LiteralType
	Position Cursor
}

type statement struct {
	Keyword  *Token
	Operands []operand
	Addr     uint16
	Errs     []error
	Refs     []labelRef
}

type form struct {
	Operands []OperandType
	Encode   func(st *statement) uint16
}

func (st *statement) fail(err error) {
	st.Errs = append(st.Errs, err)
}

func (st *statement) reg(i int) uint16 {
	return uint16(st.Operands[i].Reg)
}

func (st *statement) literal(i int, bits LiteralType) uint16 {
	value, err := parseLiteral(st.Operands[i].Token, bits)

	if err != nil {
		st.fail(err)
	}

	return value
}

// Labels are resolved once every line has been seen
func (st *statement) address(i int) uint16 {
	if op := st.Operands[i]; op.Kind == OPERAND_LABEL {
		st.Refs = append(st.Refs, labelRef{
			op.Token.Value,
			st.Addr,
			LITERAL_ADDRESS,
			op.Token.Position,
		})

		return 0
	}

	return st.literal(i, LITERAL_ADDRESS)
}

func accepts(want, have OperandType) bool {
	if want == OPERAND_ADDRESS {
		return have == OPERAND_LITERAL || have == OPERAND_LABEL
	}

	return want == have
}

func (st *statement) matches(kinds []OperandType) bool {
	if len(kinds) != len(st.Operands) {
		return false
	}

	for i, kind := range kinds {
		if !accepts(kind, st.Operands[i].Kind) {
			return false
		}
	}

	return true
}

// Reports the first operand that no remaining form accepts
func (st *statement) reject(forms []form) {
	count := len(st.Operands)
	candidates := make([]form, 0, len(forms))

	for _, f := range forms {
		if len(f.Operands) == count {
			candidates = append(candidates, f)
		}
	}

	if len(candidates) == 0 {
		st.fail(&InvalidNumArgumentsError{
			st.Keyword.Position, len(forms[0].Operands), count,
		})

		return
	}

	for i, op := range st.Operands {
		var required []OperandType
		var narrowed []form

		for _, f := range candidates {
			if !slices.Contains(required, f.Operands[i]) {
				required = append(required, f.Operands[i])
			}

			if accepts(f.Operands[i], op.Kind) {
				narrowed = append(narrowed, f)
			}
		}

		if len(narrowed) == 0 {
			st.fail(&InvalidOperandError{op.Token.Position, required, op.Kind})
			return
		}

		candidates = narrowed
	}
}

func (st *statement) assemble(forms []form) uint16 {
	for _, f := range forms {
		if st.matches(f.Operands) {
			return f.Encode(st)
		}
	}

	st.reject(forms)
	return 0
}

func constant(word uint16) form {
	return form{nil, func(st *statement) uint16 {
		return word
	}}
}

func registerOnly(base uint16) form {
	return form{
		[]OperandType{OPERAND_REGISTER},
		func(st *statement) uint16 {
			return base | st.reg(0)<<8
		},
	}
}

func registerByte(base uint16) form {
	return form{
		[]OperandType{OPERAND_REGISTER, OPERAND_LITERAL},
		func(st *statement) uint16 {
			return base | st.reg(0)<<8 | st.literal(1, LITERAL_BYTE)
		},
	}
}

func registerPair(base uint16) form {
	return form{
		[]OperandType{OPERAND_REGISTER, OPERAND_REGISTER},
		func(st *statement) uint16 {
			return base | st.reg(0)<<8 | st.reg(1)<<4
		},
	}
}

// Single register shifts read and write the same register
func registerShift(base uint16) form {
	return form{
		[]OperandType{OPERAND_REGISTER},
		func(st *statement) uint16 {
			return base | st.reg(0)<<8 | st.reg(0)<<4
		},
	}
}

func registerFrom(kind OperandType, base uint16) form {
	return form{
		[]OperandType{OPERAND_REGISTER, kind},
		func(st *statement) uint16 {
			return base | st.reg(0)<<8
		},
	}
}

func registerInto(kind OperandType, base uint16) form {
	return form{
		[]OperandType{kind, OPERAND_REGISTER},
		func(st *statement) uint16 {
			return base | st.reg(1)<<8
		},
	}
}

var instructionForms = map[InstructionType][]form{
	// CLS  |0000    |0000   |1110   |0000   | Clear display
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_CLS: {constant(0x00E0)},

	// RET  |0000    |0000   |1110   |1110   | Return from subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_RET: {constant(0x00EE)},

	// JP   |0001    |NNN                    | Jump
	// JP   |1011    |NNN                    | Jump to V0 + NNN
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_JP: {
		{
			[]OperandType{OPERAND_ADDRESS},
			func(st *statement) uint16 {
				return 0x1000 | st.address(0)
			},
		},
		{
			[]OperandType{OPERAND_REGISTER, OPERAND_ADDRESS},
			func(st *statement) uint16 {
				if st.reg(0) != 0 {
					st.fail(&InvalidRegisterError{st.Operands[0].Token.Position})
				}

				return 0xB000 | st.address(1)
			},
		},
	},

	// CALL |0010    |NNN                    | Call subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_CALL: {
		{
			[]OperandType{OPERAND_ADDRESS},
			func(st *statement) uint16 {
				return 0x2000 | st.address(0)
			},
		},
	},

	// SE   |0011    |X      |NN             | Skip if VX == NN
	// SE   |0101    |X      |Y      |0000   | Skip if VX == VY
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_SE: {registerByte(0x3000), registerPair(0x5000)},

	// SNE  |0100    |X      |NN             | Skip if VX != NN
	// SNE  |1001    |X      |Y      |0000   | Skip if VX != VY
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_SNE: {registerByte(0x4000), registerPair(0x9000)},

	// LD   |0110    |X      |NN             | Load byte
	// LD   |1000    |X      |Y      |0000   | Copy register
	// LD   |1010    |NNN                    | Load index
	// LD   |1111    |X      |op             | Timers, keys and index memory
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_LD: {
		registerByte(0x6000),
		registerPair(0x8000),
		{
			[]OperandType{OPERAND_INDEX, OPERAND_ADDRESS},
			func(st *statement) uint16 {
				return 0xA000 | st.address(1)
			},
		},
		registerFrom(OPERAND_DELAY, 0xF007),
		registerFrom(OPERAND_KEY, 0xF00A),
		registerInto(OPERAND_DELAY, 0xF015),
		registerInto(OPERAND_SOUND, 0xF018),
		registerInto(OPERAND_FONT, 0xF029),
		registerInto(OPERAND_BCD, 0xF033),
		registerInto(OPERAND_INDIRECT, 0xF055),
		registerFrom(OPERAND_INDIRECT, 0xF065),
	},

	// ADD  |0111    |X      |NN             | Add byte
	// ADD  |1000    |X      |Y      |0100   | Add with carry
	// ADD  |1111    |X      |00011110       | I += VX
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_ADD: {
		registerByte(0x7000),
		registerPair(0x8004),
		registerInto(OPERAND_INDEX, 0xF01E),
	},

	// ---- |1000    |X      |Y      |op     | Register arithmetic
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_OR:   {registerPair(0x8001)},
	INSTRUCTION_AND:  {registerPair(0x8002)},
	INSTRUCTION_XOR:  {registerPair(0x8003)},
	INSTRUCTION_SUB:  {registerPair(0x8005)},
	INSTRUCTION_SHR:  {registerShift(0x8006), registerPair(0x8006)},
	INSTRUCTION_SUBN: {registerPair(0x8007)},
	INSTRUCTION_SHL:  {registerShift(0x800E), registerPair(0x800E)},

	// RND  |1100    |X      |NN             | Random byte AND NN
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_RND: {registerByte(0xC000)},

	// DRW  |1101    |X      |Y      |N      | Draw N-row sprite at (VX, VY)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_DRW: {
		{
			[]OperandType{OPERAND_REGISTER, OPERAND_REGISTER, OPERAND_LITERAL},
			func(st *statement) uint16 {
				return 0xD000 | st.reg(0)<<8 | st.reg(1)<<4 |
					st.literal(2, LITERAL_NIBBLE)
			},
		},
	},

	// SKP  |1110    |X      |10011110       | Skip if key VX down
	// SKNP |1110    |X      |10100001       | Skip if key VX up
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	INSTRUCTION_SKP:  {registerOnly(0xE09E)},
	INSTRUCTION_SKNP: {registerOnly(0xE0A1)},
}

// AssembleChip8Source assembles a source file into a flat program image. The
// image starts at the beginning of program space and ends at the last byte
// emitted.
func AssembleChip8Source(input io.ReadSeeker, symtable *SymTable) (result []byte, errs []error) {
	var labels = make(map[string]uint16)
	var labelRefs []labelRef

	var program uint32 = uint32(PROGRAM_START)
	var end uint32 = uint32(PROGRAM_START)

	var image = make([]byte, PROGRAM_END)
	var scanner = bufio.NewScanner(input)

	var cursor = Cursor{Line: 1, Column: 0, Size: 0, Byte: 0}

	errs = make([]error, 0)

	emit := func(value byte) bool {
		if program >= uint32(PROGRAM_END) {
			errs = append(errs, &OversizedBinaryError{})
			return false
		}

		image[program] = value
		program++

		if program > end {
			end = program
		}

		return true
	}

	// Process:
	// - Tokenize line
	// - Assemble line
	for scanner.Scan() {
		line := scanner.Text()

		tokens, lineErrs := tokenizeLine(line, cursor)
		errs = append(errs, lineErrs...)

		nextLine := func() {
			cursor.Line++
			cursor.Byte += int64(len(line) + 1)
			cursor.LineByte += int64(len(line) + 1)
		}

		// Pass any potential assembler errors if we already had parser errors
		if len(tokens) == 0 || len(lineErrs) > 0 {
			nextLine()
			continue
		}

		var label *Token = nil
		var keyword *Token = &tokens[0]

		instruction := parseInstruction(tokens[0].Value)
		directive := parseDirective(tokens[0].Value)

		if instruction == INSTRUCTION_INVALID && directive == DIRECTIVE_INVALID {
			label = &tokens[0]
			keyword = nil

			if label.Type != TOKEN_IDENT {
				errs = append(
					errs, &UnknownIdentifierError{label.Position, label.Value},
				)

				nextLine()
				continue
			}

			if _, exists := labels[label.Value]; !exists {
				labels[label.Value] = uint16(program)
			} else {
				errs = append(
					errs, &RedeclaredLabelError{label.Position, label.Value},
				)
			}

			// No need to assemble label-only statements
			if len(tokens) == 1 {
				nextLine()
				continue
			}

			instruction = parseInstruction(tokens[1].Value)
			directive = parseDirective(tokens[1].Value)

			if instruction == INSTRUCTION_INVALID && directive == DIRECTIVE_INVALID {
				errs = append(
					errs,
					&UnknownIdentifierError{tokens[1].Position, tokens[1].Value},
				)

				nextLine()
				continue
			}

			keyword = &tokens[1]
		}

		operands := tokens[1:]
		if label != nil {
			operands = tokens[2:]
		}

		if directive == DIRECTIVE_END {
			if count := len(operands); count != 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 0, count},
				)
			}

			break
		}

		// Only statements that emit something at the current address
		if symtable != nil && (instruction != INSTRUCTION_INVALID ||
			directive == DIRECTIVE_BYTE || directive == DIRECTIVE_WORD) {
			symtable.Symbols[uint16(program)] = cursor.LineByte
		}

		var stop bool = false

		switch directive {
		// .ORIG addr
		case DIRECTIVE_ORIG:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			if operands[0].Type != TOKEN_LITERAL {
				errs = append(
					errs,
					&InvalidOperandError{
						operands[0].Position,
						[]OperandType{OPERAND_LITERAL},
						parseOperand(&operands[0]).Kind,
					},
				)

				break
			}

			origin, err := parseLiteral(&operands[0], LITERAL_WORD)

			if err != nil {
				errs = append(errs, err)
				break
			}

			if origin < PROGRAM_START || origin >= PROGRAM_END {
				errs = append(
					errs, &InvalidOriginError{operands[0].Position, origin},
				)

				break
			}

			program = uint32(origin)

		// .BYTE #[, #...]
		case DIRECTIVE_BYTE:
			if len(operands) == 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, 0},
				)

				break
			}

			for i := range operands {
				if operands[i].Type != TOKEN_LITERAL {
					errs = append(
						errs,
						&InvalidOperandError{
							operands[i].Position,
							[]OperandType{OPERAND_LITERAL},
							parseOperand(&operands[i]).Kind,
						},
					)

					continue
				}

				literal, err := parseLiteral(&operands[i], LITERAL_BYTE)

				if err != nil {
					errs = append(errs, err)
				}

				if !emit(byte(literal)) {
					stop = true
					break
				}
			}

		// .WORD #|label
		case DIRECTIVE_WORD:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			var literal uint16

			switch op := parseOperand(&operands[0]); op.Kind {
			case OPERAND_LITERAL:
				var err error

				if literal, err = parseLiteral(&operands[0], LITERAL_WORD); err != nil {
					errs = append(errs, err)
				}

			case OPERAND_LABEL:
				labelRefs = append(
					labelRefs,
					labelRef{
						operands[0].Value,
						uint16(program),
						LITERAL_WORD,
						operands[0].Position,
					},
				)

			default:
				errs = append(
					errs,
					&InvalidOperandError{
						operands[0].Position,
						[]OperandType{OPERAND_LITERAL, OPERAND_LABEL},
						op.Kind,
					},
				)
			}

			stop = !emit(byte(literal>>8)) || !emit(byte(literal))

		// .BLKB #
		case DIRECTIVE_BLKB:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			if operands[0].Type != TOKEN_LITERAL {
				errs = append(
					errs,
					&InvalidOperandError{
						operands[0].Position,
						[]OperandType{OPERAND_LITERAL},
						parseOperand(&operands[0]).Kind,
					},
				)

				break
			}

			literal, err := parseLiteral(&operands[0], LITERAL_WORD)

			if err != nil {
				errs = append(errs, err)
				break
			}

			for i := 0; i < int(literal); i++ {
				if !emit(0) {
					stop = true
					break
				}
			}
		}

		if instruction != INSTRUCTION_INVALID {
			st := statement{Keyword: keyword, Addr: uint16(program)}

			for i := range operands {
				st.Operands = append(st.Operands, parseOperand(&operands[i]))
			}

			word := st.assemble(instructionForms[instruction])

			errs = append(errs, st.Errs...)
			labelRefs = append(labelRefs, st.Refs...)

			stop = !emit(byte(word>>8)) || !emit(byte(word))
		}

		if stop {
			return nil, errs
		}

		nextLine()
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}

	// Label
	// - Validate and resolve label references
	// - Add labels to symbol table
	for _, ref := range labelRefs {
		addr, exists := labels[ref.Label]

		if !exists {
			errs = append(errs, &UnknownLabelError{ref.Position, ref.Label})
			continue
		}

		if ref.Size == LITERAL_WORD {
			image[ref.Addr] = byte(addr >> 8)
			image[ref.Addr+1] = byte(addr)
			continue
		}

		if addr >= PROGRAM_END {
			errs = append(
				errs, &OversizedLabelError{ref.Position, PROGRAM_END - 1, addr},
			)

			continue
		}

		image[ref.Addr] |= byte(addr>>8) & 0x0F
		image[ref.Addr+1] = byte(addr)
	}

	if symtable != nil {
		for label, addr := range labels {
			symtable.Labels[addr] = label
		}
	}

	return image[PROGRAM_START:end], errs
}
