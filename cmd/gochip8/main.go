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
	"encoding/gob"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/retroenv/retrogolib/buildinfo"
	rlog "github.com/retroenv/retrogolib/log"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/logger"
	"github.com/lassandro/gochip8/pkg/machine"
)

var (
	version = "0.1.0"
	commit  = ""
	date    = ""
)

var helpvar bool
var versionvar bool
var debugvar bool
var haltvar bool
var quirksvar string
var loglevelvar string
var hzvar int
var holdvar time.Duration
var seedvar uint64

var shouldexit bool

// Program image as loaded, kept for the debugger's reset command
var rom []byte

// Set by the debugger's reset command and served between instructions
var resetpending bool

var keypad Keypad

const usage = "gochip8 [-debug] [-quirks profile] [-hz #] filename"

const FRAME_RATE = 60

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&versionvar, "version", false, "Displays the version")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine in a debug CLI")
	flag.BoolVar(
		&haltvar, "halt-on-fault", false,
		"Stops the machine on the first execution fault instead of "+
			"logging it and continuing",
	)
	flag.StringVar(
		&quirksvar, "quirks", "standard",
		"Interpreter quirk profile, one of: "+
			strings.Join(machine.QuirkProfiles(), ", "),
	)
	flag.StringVar(
		&loglevelvar, "log-level", "warn",
		"Log level (debug|info|warn|error)",
	)
	flag.IntVar(&hzvar, "hz", 700, "Instructions executed per second")
	flag.DurationVar(
		&holdvar, "hold", 150*time.Millisecond,
		"How long a key stays down after the terminal reports it",
	)
	flag.Uint64Var(
		&seedvar, "seed", 0,
		"Seeds the random number generator, 0 picks a random seed",
	)
}

func loadSymbols(dbg *debugger.Debugger, romfile string) {
	filename := filepath.Join(
		filepath.Dir(romfile),
		strings.TrimSuffix(filepath.Base(romfile), filepath.Ext(romfile))+".c8db",
	)

	file, err := os.Open(filename)

	if err != nil {
		log.Println("Error loading symbol file")
		log.Println(err)
		return
	}

	defer file.Close()

	var symtable assembler.SymTable

	if err := gob.NewDecoder(file).Decode(&symtable); err != nil {
		log.Println("Error loading symbol file")
		log.Println(err)
		return
	}

	dbg.SymTable = &symtable
}

func stepsPerFrame(hz int) int {
	if steps := hz / FRAME_RATE; steps > 0 {
		return steps
	}

	return 1
}

// Logs a fault with its location and reports whether the run should stop
func handleFault(err error, mc *machine.Machine) bool {
	fields := []rlog.Field{logger.Hex("pc", mc.State.Program), rlog.Err(err)}

	if unknown, ok := err.(*machine.UnknownOpcodeError); ok {
		fields = append(
			fields,
			logger.Hex("addr", unknown.Addr),
			logger.Hex("opcode", unknown.Opcode),
		)
	}

	logger.GetLogger().Warn("Machine fault", fields...)

	if dbg, ok := mc.Debugger.(*debugger.Debugger); ok {
		dbg.Fault(err, mc)
		return shouldexit
	}

	return haltvar
}

func handleInput(buf []byte, keypad *Keypad, mc *machine.Machine, now time.Time) {
	input, err := readPending(buf)

	if err != nil {
		logger.GetLogger().Error("Reading input failed", rlog.Err(err))
		shouldexit = true
		return
	}

	for _, char := range string(input) {
		switch char {
		case KEY_ESCAPE:
			shouldexit = true

		case KEY_INTERRUPT:
			if dbg, ok := mc.Debugger.(*debugger.Debugger); ok {
				keypad.Release()
				dbg.Break = true
			} else {
				shouldexit = true
			}

		default:
			keypad.Press(char, now)
		}
	}

	keypad.Apply(&mc.State.Keys, now)
}

func gochip8() int {
	flag.Parse()

	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	if versionvar {
		fmt.Printf("version: %s\n", buildinfo.Version(version, commit, date))
		return 0
	}

	if err := logger.InitLogger(loglevelvar); err != nil {
		log.Println(err)
		return 1
	}

	args := flag.Args()

	if len(args) != 1 {
		log.Println(usage)
		return 1
	}

	quirks, err := machine.ParseQuirks(quirksvar)

	if err != nil {
		log.Println(err)
		return 1
	}

	if rom, err = os.ReadFile(args[0]); err != nil {
		log.Println(err)
		return 1
	}

	var mc machine.Machine
	mc.Quirks = quirks

	if seedvar != 0 {
		mc.Random = rand.New(rand.NewPCG(seedvar, seedvar))
	}

	if err := mc.LoadBin(bytes.NewReader(rom)); err != nil {
		log.Println(err)
		return 1
	}

	if err := checkTermSize(); err != nil {
		log.Println(err)
		return 1
	}

	screen := Screen{
		Output: os.Stdout,
		Status: fmt.Sprintf(
			"%s  %d Hz  quirks: %s  esc: quit",
			filepath.Base(args[0]), hzvar, quirks,
		),
	}

	keypad = Keypad{Hold: holdvar}

	if debugvar {
		var dbg debugger.Debugger
		dbg.HandleBreak = handleBreak
		dbg.HandleRead = handleRead
		dbg.HandleWrite = handleWrite
		dbg.HandleFault = handleDebugFault
		mc.Debugger = &dbg

		loadSymbols(&dbg, args[0])

		if dbg.SymTable != nil && dbg.SymTable.Source != "" {
			if file, err := os.Open(dbg.SymTable.Source); err == nil {
				dbg.Source = file
				defer file.Close()
			} else {
				log.Println("Error loading source file")
				log.Println(err)
			}
		}
	}

	logger.GetLogger().Info(
		"Program loaded",
		rlog.String("file", args[0]),
		rlog.Int("size", len(rom)),
		rlog.Stringer("quirks", quirks),
		rlog.Int("hz", hzvar),
	)

	if err := enterRawTerm(); err != nil {
		log.Println(err)
		return 1
	}

	defer exitRawTerm()

	if err := screen.Clear(); err != nil {
		log.Println(err)
		return 1
	}

	if debugvar {
		debugREPL(mc.Debugger.(*debugger.Debugger), &mc)
		resetIfPending(&mc)
	}

	ticker := time.NewTicker(time.Second / FRAME_RATE)
	defer ticker.Stop()

	buf := make([]byte, 64)
	steps := stepsPerFrame(hzvar)

	// Timers run at 60 Hz regardless of the instruction rate
	for !shouldexit {
		now := <-ticker.C

		handleInput(buf, &keypad, &mc, now)

		for i := 0; i < steps && !shouldexit; i++ {
			if err := mc.Step(); err != nil && handleFault(err, &mc) {
				shouldexit = true
			}

			resetIfPending(&mc)
		}

		mc.TickTimers()

		if err := screen.Draw(&mc.State); err != nil {
			logger.GetLogger().Error("Drawing failed", rlog.Err(err))
			return 1
		}

		if err := screen.Tone(mc.Tone()); err != nil {
			logger.GetLogger().Error("Sounding failed", rlog.Err(err))
			return 1
		}
	}

	return 0
}

func main() {
	os.Exit(gochip8())
}
