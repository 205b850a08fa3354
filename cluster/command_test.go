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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	valid := []struct {
		in   string
		want Command
	}{
		{"!scalein", CmdScaleIn},
		{"  !ScaleOut\n", CmdScaleOut},
		{"!SIMNORMAL", CmdSimNormal},
		{"\t!simincrease  ", CmdSimIncrease},
		{"!simDecrease\r\n", CmdSimDecrease},
	}

	for _, tc := range valid {
		cmd, ok := ParseCommand(tc.in)
		require.True(t, ok, tc.in)
		require.Equal(t, tc.want, cmd)
	}

	for _, in := range []string{"", "scalein", "!scale in", "!startlog", "!stoplog", "hello"} {
		_, ok := ParseCommand(in)
		require.False(t, ok, in)
	}
}

func TestCommandApply(t *testing.T) {
	m := Metrics{Utilization: 40, Servers: 2, Mode: ModeNormal}

	require.Equal(t, Metrics{Utilization: 80, Servers: 1, Mode: ModeNormal}, CmdScaleIn.Apply(m))
	require.Equal(t, Metrics{Utilization: 20, Servers: 4, Mode: ModeNormal}, CmdScaleOut.Apply(m))
	require.Equal(t, ModeIncreasing, CmdSimIncrease.Apply(m).Mode)
	require.Equal(t, ModeDecreasing, CmdSimDecrease.Apply(m).Mode)
	require.Equal(t, ModeNormal, CmdSimNormal.Apply(Metrics{Mode: ModeDecreasing}).Mode)
	require.Equal(t, m, CmdStartLog.Apply(m))
}

func TestNewTopics(t *testing.T) {
	tp := NewTopics("simulation")

	require.Equal(t, "simulation/servers/avg_cpu_util", tp.Utilization)
	require.Equal(t, "simulation/servers/active", tp.Servers)
	require.Equal(t, "simulation/warnings", tp.Warnings)
	require.Equal(t, "simulation/commands", tp.Commands)
}
