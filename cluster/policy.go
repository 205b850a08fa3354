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

// ScaleIn removes one server, unless only one is left, and raises the
// utilisation proportionally.
func ScaleIn(m Metrics) Metrics {
	if m.Servers <= MinServers {
		return m
	}

	return resize(m, m.Servers-1)
}

// ScaleOut adds two servers, capped at MaxServers, and lowers the
// utilisation proportionally.
func ScaleOut(m Metrics) Metrics {
	n := m.Servers + ScaleOutStep
	if n > MaxServers {
		n = MaxServers
	}

	return resize(m, n)
}

// Drift changes the utilisation by delta, clamped to [0,100].
func Drift(m Metrics, delta int) Metrics {
	m.Utilization = clamp(m.Utilization+delta, MinUtilization, MaxUtilization)
	return m
}

func resize(m Metrics, servers int) Metrics {
	if servers == m.Servers {
		return m
	}

	m.Utilization = clamp(m.Utilization*m.Servers/servers, MinUtilization, MaxUtilization)
	m.Servers = servers

	return m
}

func clampMetrics(m Metrics) Metrics {
	m.Utilization = clamp(m.Utilization, MinUtilization, MaxUtilization)
	m.Servers = clamp(m.Servers, MinServers, MaxServers)

	if m.Mode < ModeNormal || m.Mode > ModeDecreasing {
		m.Mode = ModeNormal
	}

	return m
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
