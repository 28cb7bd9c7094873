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

// Package logger defines the leveled-verbosity logging facility used
// throughout this module, in the style of the teacher's glog-backed logger.
package logger

import (
	"log"
	"os"
	"sync/atomic"
)

// LogLevel mirrors the teacher's verbosity scale.
type LogLevel int

const (
	Silence LogLevel = iota
	Error
	Warn
	Info
	Debug
	Detail
)

var verbosity int32 = int32(Info)

// SetVerbosity sets the global log verbosity; messages above this level are
// dropped by glog.V.
func SetVerbosity(v LogLevel) { atomic.StoreInt32(&verbosity, int32(v)) }

// Verbosity returns the current global verbosity.
func Verbosity() LogLevel { return LogLevel(atomic.LoadInt32(&verbosity)) }

// std is a process-wide stderr logger. glog's Infof and Info write their
// target-tagged lines to os.Stderr directly and do not go through it.
var std = log.New(os.Stderr, "", log.LstdFlags)
