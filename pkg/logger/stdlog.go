// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"bytes"
	"log"

	"github.com/rs/zerolog"
)

// stdWriter forwards lines written by a standard library logger to zerolog
type stdWriter struct {
	level zerolog.Level
	name  string
}

func (w stdWriter) Write(p []byte) (int, error) {
	globalLogger.WithLevel(w.level).Str("component", w.name).Msg(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

// StandardLogger returns a *log.Logger that writes at the given level.
// Used for http.Server.ErrorLog.
func StandardLogger(name string, level zerolog.Level) *log.Logger {
	return log.New(stdWriter{level: level, name: name}, "", 0)
}
