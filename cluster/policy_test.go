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

func TestScaleIn(t *testing.T) {
	m := ScaleIn(Metrics{Utilization: 40, Servers: 2, Mode: ModeNormal})
	require.Equal(t, Metrics{Utilization: 80, Servers: 1, Mode: ModeNormal}, m)

	// only one server left
	m = ScaleIn(Metrics{Utilization: 40, Servers: 1, Mode: ModeIncreasing})
	require.Equal(t, Metrics{Utilization: 40, Servers: 1, Mode: ModeIncreasing}, m)

	// clamped at 100
	m = ScaleIn(Metrics{Utilization: 60, Servers: 2})
	require.Equal(t, 100, m.Utilization)
	require.Equal(t, 1, m.Servers)

	// truncates like integer division
	m = ScaleIn(Metrics{Utilization: 25, Servers: 3})
	require.Equal(t, 37, m.Utilization)
	require.Equal(t, 2, m.Servers)
}

func TestScaleOut(t *testing.T) {
	m := ScaleOut(Metrics{Utilization: 40, Servers: 2, Mode: ModeNormal})
	require.Equal(t, Metrics{Utilization: 20, Servers: 4, Mode: ModeNormal}, m)

	m = ScaleOut(Metrics{Utilization: 70, Servers: 7})
	require.Equal(t, 8, m.Servers)
	require.Equal(t, 61, m.Utilization)

	// already at capacity
	m = ScaleOut(Metrics{Utilization: 90, Servers: 8})
	require.Equal(t, 8, m.Servers)
	require.Equal(t, 90, m.Utilization)

	m = ScaleOut(Metrics{Utilization: 9, Servers: 1})
	require.Equal(t, 3, m.Servers)
	require.Equal(t, 3, m.Utilization)
}

func TestScaleBounds(t *testing.T) {
	for s := MinServers; s <= MaxServers; s++ {
		for u := MinUtilization; u <= MaxUtilization; u++ {
			m := Metrics{Utilization: u, Servers: s, Mode: ModeNormal}

			for _, f := range []func(Metrics) Metrics{ScaleIn, ScaleOut} {
				n := f(m)
				require.True(t, n.Servers >= MinServers && n.Servers <= MaxServers, "%v -> %v", m, n)
				require.True(t, n.Utilization >= MinUtilization && n.Utilization <= MaxUtilization, "%v -> %v", m, n)
			}

			require.LessOrEqual(t, ScaleIn(m).Servers, s)
			require.GreaterOrEqual(t, ScaleOut(m).Servers, s)
		}
	}
}

func TestDrift(t *testing.T) {
	require.Equal(t, 15, Drift(Metrics{Utilization: 10}, 5).Utilization)
	require.Equal(t, 0, Drift(Metrics{Utilization: 3}, -15).Utilization)
	require.Equal(t, 100, Drift(Metrics{Utilization: 95}, 15).Utilization)
}

func TestDeltaRange(t *testing.T) {
	lo, hi := ModeNormal.DeltaRange()
	require.Equal(t, []int{-5, 5}, []int{lo, hi})

	lo, hi = ModeIncreasing.DeltaRange()
	require.Equal(t, []int{-5, 15}, []int{lo, hi})

	lo, hi = ModeDecreasing.DeltaRange()
	require.Equal(t, []int{-15, 5}, []int{lo, hi})
}

func TestStateClamps(t *testing.T) {
	s := NewStateFrom(Metrics{Utilization: 150, Servers: 12})
	require.Equal(t, Metrics{Utilization: 100, Servers: 8, Mode: ModeNormal}, s.Snapshot())

	require.Equal(t, DefaultMetrics(), NewState().Snapshot())
	require.Equal(t, Metrics{Utilization: 10, Servers: 1, Mode: ModeNormal}, DefaultMetrics())

	m := s.Update(func(m Metrics) Metrics {
		m.Utilization = -4
		m.Servers = 0
		return m
	})
	require.Equal(t, 0, m.Utilization)
	require.Equal(t, 1, m.Servers)

	require.Equal(t, ModeDecreasing, s.SetMode(ModeDecreasing).Mode)
}

func TestStateScale(t *testing.T) {
	s := NewStateFrom(Metrics{Utilization: 40, Servers: 2})

	require.Equal(t, 4, s.ScaleOut().Servers)
	require.Equal(t, 20, s.Snapshot().Utilization)

	require.Equal(t, 3, s.ScaleIn().Servers)
	require.Equal(t, 26, s.Snapshot().Utilization)
}

func TestRandomDeltaInRange(t *testing.T) {
	d := RandomDelta(newRand(1))

	for i := 0; i < 1000; i++ {
		v := d(-15, 5)
		require.True(t, v >= -15 && v <= 5, "%d", v)
	}
}
