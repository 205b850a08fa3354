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

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStrlist(t *testing.T) {
	var l strlist

	require.NoError(t, l.Set("simulation/#, public/+"))
	require.NoError(t, l.Set("simulation/warnings,"))

	require.Equal(t, strlist{"simulation/#", "public/+", "simulation/warnings"}, l)
	require.Equal(t, "strlist", l.Type())
}

func TestLoadConfigBindsCommandFlags(t *testing.T) {
	t.Setenv("BROKER", "localhost")

	require.NoError(t, demoCmd.Flags().Set("hold", "3s"))
	require.NoError(t, demoCmd.Flags().Set("utilization-interval", "250ms"))

	require.NoError(t, loadConfig(demoCmd, nil))

	require.Equal(t, "localhost", cfg.Broker)
	require.Equal(t, 3*time.Second, cfg.HoldPeriod)
	require.Equal(t, 250*time.Millisecond, cfg.UtilizationInterval)
	require.Equal(t, "tcp://localhost:1883", cfg.BrokerURI())
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"cluster", "monitor", "broker", "pub", "sub", "demo"} {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		require.Equal(t, name, c.Name())
	}
}
