// Copyright 2014 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package rmmlog is the monitor's internal logger. It mirrors the shape of
// the teacher's own log package: levelled, key/value call sites, a
// colorized handler on a real terminal and a plain one otherwise.
//
// Debug-level output is the only place register contents or realm
// addresses may ever be printed (spec §7): build a release binary with
// SetLevel(LevelInfo) or above to make that a compile-time non-issue in
// practice, since nothing above Debug ever receives such arguments.
package rmmlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

type Level int

const (
	LevelCrit Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

func (l Level) String() string {
	switch l {
	case LevelCrit:
		return "CRIT"
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelTrace:
		return "TRACE"
	default:
		return "?"
	}
}

var (
	mu       sync.Mutex
	minLevel = LevelInfo
	out      io.Writer
	colorize bool
)

func init() {
	w := colorable.NewColorableStderr()
	out = w
	colorize = isatty.IsTerminal(os.Stderr.Fd())
}

// SetLevel sets the process-wide minimum level that is actually written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// SetOutput redirects log output, used by tests to capture lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	colorize = false
}

func levelColor(l Level) string {
	switch l {
	case LevelCrit, LevelError:
		return "\x1b[31m"
	case LevelWarn:
		return "\x1b[33m"
	case LevelDebug, LevelTrace:
		return "\x1b[36m"
	default:
		return "\x1b[32m"
	}
}

func logf(l Level, msg string, ctx ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if l > minLevel {
		return
	}
	ts := time.Now().Format("15:04:05.000")
	var line string
	if colorize {
		line = fmt.Sprintf("%s%-5s\x1b[0m[%s] %s", levelColor(l), l, ts, msg)
	} else {
		line = fmt.Sprintf("%-5s[%s] %s", l, ts, msg)
	}
	for i := 0; i+1 < len(ctx); i += 2 {
		line += fmt.Sprintf(" %v=%v", ctx[i], ctx[i+1])
	}
	fmt.Fprintln(out, line)
}

func Crit(msg string, ctx ...interface{})  { logf(LevelCrit, msg, ctx...) }
func Error(msg string, ctx ...interface{}) { logf(LevelError, msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { logf(LevelWarn, msg, ctx...) }
func Info(msg string, ctx ...interface{})  { logf(LevelInfo, msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { logf(LevelDebug, msg, ctx...) }
func Trace(msg string, ctx ...interface{}) { logf(LevelTrace, msg, ctx...) }

// Dump spew-dumps v at Debug level under the given label. Never call this
// with realm register state at a level higher than Debug.
func Dump(label string, v interface{}) {
	mu.Lock()
	enabled := minLevel >= LevelDebug
	mu.Unlock()
	if !enabled {
		return
	}
	Debug(label + "\n" + spew.Sdump(v))
}
