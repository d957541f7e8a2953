/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package log defines the leveled logger the pipeline components write to.
package log

import (
	"io"
	golog "log"
)

// Logger is the leveled logging contract of the module. Implementations write
// structured lines to one or more io.Writer outputs.
type Logger interface {
	// Debug logs message-level detail.
	Debug(...any)
	// Debugf logs formatted message-level detail.
	Debugf(string, ...any)
	// Info logs lifecycle events.
	Info(...any)
	// Infof logs formatted lifecycle events.
	Infof(string, ...any)
	// Warn logs recoverable anomalies.
	Warn(...any)
	// Warnf logs formatted recoverable anomalies.
	Warnf(string, ...any)
	// Error logs failures.
	Error(...any)
	// Errorf logs formatted failures.
	Errorf(string, ...any)
	// Fatal logs the message then terminates the process with os.Exit(1).
	Fatal(...any)
	// Fatalf logs the formatted message then terminates the process with
	// os.Exit(1).
	Fatalf(string, ...any)
	// LogLevel returns the minimum level the logger emits.
	LogLevel() Level
	// LogOutput returns the writers the logger emits to.
	LogOutput() []io.Writer
	// StdLogger bridges the logger to the standard library log.Logger.
	StdLogger() *golog.Logger
}
