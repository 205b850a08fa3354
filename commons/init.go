// Copyright (c) 2014 The SurgeMQ Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commons

import (
	"log"
	"os"

	"go.uber.org/zap"
)

var (
	SystemDebug bool
	Log         *zap.Logger
)

func init() {
	var err error

	SystemDebug = os.Getenv("MQTTSIM_DEBUG") == "1"

	if Log, err = NewLogger(SystemDebug); err != nil {
		log.Fatal(err)
	}
}

// NewLogger returns a production logger, or a development logger with debug
// level enabled when debug is set.
func NewLogger(debug bool) (*zap.Logger, error) {
	if !debug {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}

// SetDebug swaps the package logger for one built with the given debug flag.
func SetDebug(debug bool) error {
	l, err := NewLogger(debug)
	if err != nil {
		return err
	}

	Log.Sync()

	SystemDebug = debug
	Log = l

	return nil
}
