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

package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/lassandro/gochip8/pkg/machine"
)

// Two pixel rows share one text row through half-block glyphs
const (
	SCREEN_COLUMNS = machine.DISPLAY_WIDTH
	SCREEN_ROWS    = machine.DISPLAY_HEIGHT/2 + 1
)

type TermSizeError struct {
	Width  int
	Height int
}

func (err *TermSizeError) Error() string {
	return fmt.Sprintf(
		"Terminal too small\n\twant:%dx%d\n\thave:%dx%d",
		SCREEN_COLUMNS,
		SCREEN_ROWS,
		err.Width,
		err.Height,
	)
}

var halfBlocks = [4]string{" ", "▀", "▄", "█"}

func renderFrame(buffer *bytes.Buffer, display *[machine.DISPLAY_HEIGHT][machine.DISPLAY_WIDTH]bool) {
	buffer.WriteString("\033[H")

	for y := 0; y < machine.DISPLAY_HEIGHT; y += 2 {
		for x := 0; x < machine.DISPLAY_WIDTH; x++ {
			glyph := 0

			if display[y][x] {
				glyph |= 1
			}

			if display[y+1][x] {
				glyph |= 2
			}

			buffer.WriteString(halfBlocks[glyph])
		}

		buffer.WriteString("\033[K\r\n")
	}
}

type Screen struct {
	Output io.Writer
	Status string

	buffer bytes.Buffer
	tone   bool
}

// Draw writes a frame when the machine flagged a display change
func (s *Screen) Draw(state *machine.MachineState) error {
	if !state.Redraw {
		return nil
	}

	state.Redraw = false

	s.buffer.Reset()
	renderFrame(&s.buffer, &state.Display)
	s.buffer.WriteString(s.Status)
	s.buffer.WriteString("\033[K")

	_, err := s.Output.Write(s.buffer.Bytes())
	return err
}

// Rings the terminal bell when the buzzer turns on
func (s *Screen) Tone(on bool) error {
	defer func() { s.tone = on }()

	if on && !s.tone {
		_, err := io.WriteString(s.Output, "\a")
		return err
	}

	return nil
}

func (s *Screen) Clear() error {
	_, err := io.WriteString(s.Output, "\033[H\033[2J")
	return err
}
