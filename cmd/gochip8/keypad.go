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
	"time"
	"unicode"

	"github.com/lassandro/gochip8/pkg/machine"
)

// 1 2 3 C      1 2 3 4
// 4 5 6 D  ->  Q W E R
// 7 8 9 E      A S D F
// A 0 B F      Z X C V
var keymap = map[rune]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

const (
	KEY_INTERRUPT = 0x03
	KEY_ESCAPE    = 0x1B
)

// Keypad turns key-down events from the terminal into held keys. Terminals
// send no key-up, so each press holds the key for a fixed time. Latched keys
// stay down until latched again, whatever the terminal sends.
type Keypad struct {
	Hold    time.Duration
	Latched [machine.KEY_COUNT]bool
	until   [machine.KEY_COUNT]time.Time
}

func mapKey(char rune) (uint8, bool) {
	key, ok := keymap[unicode.ToLower(char)]
	return key, ok
}

func (kp *Keypad) Press(char rune, now time.Time) bool {
	key, ok := mapKey(char)

	if ok {
		kp.until[key] = now.Add(kp.Hold)
	}

	return ok
}

func (kp *Keypad) Apply(keys *[machine.KEY_COUNT]bool, now time.Time) {
	for i, until := range kp.until {
		keys[i] = now.Before(until) || kp.Latched[i]
	}
}

// Latch toggles a latched key and returns whether it is now down
func (kp *Keypad) Latch(key uint8) bool {
	kp.Latched[key] = !kp.Latched[key]
	return kp.Latched[key]
}

// Release drops every timed hold. Latched keys are kept.
func (kp *Keypad) Release() {
	kp.until = [machine.KEY_COUNT]time.Time{}
}
