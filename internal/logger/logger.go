/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package logger provides a configurable logger that can be silenced for the MCP stdio server.
package logger

import (
	"io"
	"log"
	"os"
	"sync"
)

var (
	mu sync.Mutex

	// Default logs to stderr. Set to io.Discard for silent mode (MCP).
	output  io.Writer = os.Stderr
	logger  *log.Logger
	verbose bool
)

func init() {
	logger = log.New(output, "", 0)
}

// SetOutput configures the logger output destination.
// Use io.Discard to silence all logging.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	logger = log.New(output, "", 0)
}

// SetVerbose enables or disables Debug output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// Error logs an error message.
func Error(format string, args ...any) {
	printf("error: "+format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...any) {
	printf("warning: "+format, args...)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	printf(format, args...)
}

// Debug logs a debug message. Silent unless SetVerbose(true).
func Debug(format string, args ...any) {
	mu.Lock()
	v := verbose
	mu.Unlock()
	if v {
		printf("debug: "+format, args...)
	}
}

func printf(format string, args ...any) {
	mu.Lock()
	l := logger
	mu.Unlock()
	l.Printf(format, args...)
}
