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
	"errors"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

var termRestore *term.State

func stdinFd() int {
	return int(os.Stdin.Fd())
}

func enterRawTerm() error {
	state, err := term.MakeRaw(stdinFd())

	if err != nil {
		return err
	}

	termRestore = state

	return unix.SetNonblock(stdinFd(), true)
}

func exitRawTerm() {
	if termRestore == nil {
		return
	}

	_ = unix.SetNonblock(stdinFd(), false)
	_ = term.Restore(stdinFd(), termRestore)
	termRestore = nil
}

// Returns whatever input is pending without blocking
func readPending(buf []byte) ([]byte, error) {
	n, err := unix.Read(stdinFd(), buf)

	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return buf[:n], nil
}

func checkTermSize() error {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))

	if err != nil {
		return err
	}

	if width < SCREEN_COLUMNS || height < SCREEN_ROWS {
		return &TermSizeError{width, height}
	}

	return nil
}
