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
	"fmt"
	"sort"
	"strings"
)

// Quirks selects between the interpreter behaviors that historical CHIP-8
// implementations disagree on. The zero value is the standard set.
type Quirks struct {
	// 8XY6/8XYE shift VX instead of loading VY first
	ShiftInPlace bool

	// Arithmetic and shifts write VF before VX, so VX wins when X is 0xF
	FlagBeforeResult bool

	// 8XY1/8XY2/8XY3 leave VF alone instead of clearing it
	LogicKeepsFlag bool

	// 8XY5/8XY7 only set VF when the minuend is strictly greater, so equal
	// operands report a borrow
	StrictBorrow bool

	// FX55/FX65 leave I pointing past the last register transferred
	IndexIncrement bool

	// FX55/FX65 advance I by one regardless of X. Takes precedence over
	// IndexIncrement
	IndexStepOne bool

	// DXYN wraps pixels that fall off the screen to the opposite edge
	WrapSprites bool

	// BNNN is read as BXNN and jumps to VX + XNN
	JumpWithVX bool
}

var quirkProfiles = map[string]Quirks{
	"standard": {},
	"cosmac": {
		IndexIncrement: true,
	},
	"chip48": {
		ShiftInPlace:   true,
		LogicKeepsFlag: true,
		JumpWithVX:     true,
	},
	"legacy": {
		FlagBeforeResult: true,
		StrictBorrow:     true,
		IndexStepOne:     true,
	},
}

func ParseQuirks(name string) (Quirks, error) {
	if quirks, exists := quirkProfiles[strings.ToLower(name)]; exists {
		return quirks, nil
	}

	return Quirks{}, fmt.Errorf(
		"Unknown quirk profile '%s' (want one of: %s)",
		name,
		strings.Join(QuirkProfiles(), ", "),
	)
}

func QuirkProfiles() []string {
	names := make([]string, 0, len(quirkProfiles))
	for name := range quirkProfiles {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

func (q Quirks) String() string {
	var enabled []string

	if q.ShiftInPlace {
		enabled = append(enabled, "shift-in-place")
	}
	if q.FlagBeforeResult {
		enabled = append(enabled, "flag-before-result")
	}
	if q.LogicKeepsFlag {
		enabled = append(enabled, "logic-keeps-flag")
	}
	if q.StrictBorrow {
		enabled = append(enabled, "strict-borrow")
	}
	if q.IndexIncrement {
		enabled = append(enabled, "index-increment")
	}
	if q.IndexStepOne {
		enabled = append(enabled, "index-step-one")
	}
	if q.WrapSprites {
		enabled = append(enabled, "wrap-sprites")
	}
	if q.JumpWithVX {
		enabled = append(enabled, "jump-with-vx")
	}

	if len(enabled) == 0 {
		return "standard"
	}

	return strings.Join(enabled, ",")
}
