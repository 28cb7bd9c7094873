// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package glog provides the verbosity-gated `glog.V(level).Infof(...)` call
// style the teacher's core/types/transaction.go uses for fallible sign
// recovery logging.
package glog

import (
	"fmt"
	"os"
	"time"

	"github.com/m8ttyB/nearcore/logger"
)

// Verbose is returned by V; calling Infof on it only prints when the
// process's global verbosity is at or above the requested level.
type Verbose bool

// V reports whether verbosity level l is enabled.
func V(l logger.LogLevel) Verbose {
	return Verbose(logger.Verbosity() >= l)
}

func (v Verbose) Infof(format string, args ...interface{}) {
	if !v {
		return
	}
	fmt.Fprintf(os.Stderr, "%s [runtime] "+format+"\n", append([]interface{}{time.Now().Format("15:04:05.000")}, args...)...)
}

func (v Verbose) Info(args ...interface{}) {
	if !v {
		return
	}
	fmt.Fprintln(os.Stderr, append([]interface{}{time.Now().Format("15:04:05.000"), "[runtime]"}, args...)...)
}
