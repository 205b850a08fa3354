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

package cluster

import (
	"strings"

	"github.com/jjv7/Server-Horizontal-Scaling-Sim/topics"
)

type Command string

const (
	CmdScaleIn     Command = "!scalein"
	CmdScaleOut    Command = "!scaleout"
	CmdSimNormal   Command = "!simnormal"
	CmdSimIncrease Command = "!simincrease"
	CmdSimDecrease Command = "!simdecrease"

	// Understood by loggers listening on the commands topic, not by the cluster.
	CmdStartLog Command = "!startlog"
	CmdStopLog  Command = "!stoplog"
)

// ParseCommand normalises payload and reports whether it is a command the
// cluster acts on.
func ParseCommand(payload string) (Command, bool) {
	cmd := Command(strings.ToLower(strings.TrimSpace(payload)))

	switch cmd {
	case CmdScaleIn, CmdScaleOut, CmdSimNormal, CmdSimIncrease, CmdSimDecrease:
		return cmd, true
	}

	return cmd, false
}

// Apply returns m with the command applied.
func (this Command) Apply(m Metrics) Metrics {
	switch this {
	case CmdScaleIn:
		return ScaleIn(m)
	case CmdScaleOut:
		return ScaleOut(m)
	case CmdSimNormal:
		m.Mode = ModeNormal
	case CmdSimIncrease:
		m.Mode = ModeIncreasing
	case CmdSimDecrease:
		m.Mode = ModeDecreasing
	}

	return m
}

type Topics struct {
	Utilization string
	Servers     string
	Warnings    string
	Commands    string
}

const DefaultBaseTopic = "simulation"

func NewTopics(base string) Topics {
	return Topics{
		Utilization: topics.Join(base, "servers", "avg_cpu_util"),
		Servers:     topics.Join(base, "servers", "active"),
		Warnings:    topics.Join(base, "warnings"),
		Commands:    topics.Join(base, "commands"),
	}
}
