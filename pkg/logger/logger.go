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

// Package logger holds the process-wide structured logger. Records go to
// stderr since stdout carries the display.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrogolib/log"
)

var globalLogger *log.Logger

func ParseLevel(level string) (log.Level, error) {
	switch level {
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "warn":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	}

	return 0, fmt.Errorf("invalid log level: %s", level)
}

func NewLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := ParseLevel(level)

	if err != nil {
		return nil, err
	}

	cfg := log.DefaultConfig()
	cfg.Level = lvl
	cfg.Output = w

	return log.NewWithConfig(cfg), nil
}

func InitLogger(level string) error {
	logger, err := NewLogger(os.Stderr, level)

	if err != nil {
		return err
	}

	globalLogger = logger
	log.SetDefaultLevel(logger.Level())

	return nil
}

func GetLogger() *log.Logger {
	if globalLogger == nil {
		cfg := log.DefaultConfig()
		cfg.Output = os.Stderr
		globalLogger = log.NewWithConfig(cfg)
	}

	return globalLogger
}

// Hex formats an address or opcode field the way the debugger prints them
func Hex(key string, value uint16) log.Field {
	return log.String(key, fmt.Sprintf("%#04x", value))
}
