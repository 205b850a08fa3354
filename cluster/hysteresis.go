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

type Warning int

const (
	WarningNone Warning = iota
	WarningLow
	WarningHigh
	WarningCapacity
)

// String returns the payload published for the warning.
func (this Warning) String() string {
	switch this {
	case WarningLow:
		return "Warning: CPU utilisation low"
	case WarningHigh:
		return "Warning: CPU utilisation high"
	case WarningCapacity:
		return "Warning: Servers are at capacity"
	}

	return ""
}

// Kind is a short label for logs and metrics.
func (this Warning) Kind() string {
	switch this {
	case WarningLow:
		return "low"
	case WarningHigh:
		return "high"
	case WarningCapacity:
		return "capacity"
	}

	return "none"
}

// ParseWarning maps a warning payload back to its Warning. Anything else is
// WarningNone.
func ParseWarning(payload string) Warning {
	for _, w := range []Warning{WarningLow, WarningHigh, WarningCapacity} {
		if payload == w.String() {
			return w
		}
	}

	return WarningNone
}

const (
	DefaultLowThreshold  = 20
	DefaultHighThreshold = 80
	DefaultLowTicks      = 10
	DefaultHighTicks     = 5
)

type Thresholds struct {
	// Utilisation strictly below Low counts towards a low warning, as long as
	// more than one server is active.
	Low int

	// Utilisation strictly above High counts towards a high warning.
	High int

	// Consecutive readings needed before warning.
	LowTicks  int
	HighTicks int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Low:       DefaultLowThreshold,
		High:      DefaultHighThreshold,
		LowTicks:  DefaultLowTicks,
		HighTicks: DefaultHighTicks,
	}
}

// Hysteresis counts consecutive out-of-range readings so that a single noisy
// reading never triggers a warning. It is not safe for concurrent use; the
// utilisation loop owns it.
type Hysteresis struct {
	Thresholds

	LowStreak  int
	HighStreak int
}

func NewHysteresis(t Thresholds) *Hysteresis {
	return &Hysteresis{Thresholds: t}
}

// Observe records one reading and returns the warning to emit, if any. The
// streak that produced a warning starts over from zero.
func (this *Hysteresis) Observe(m Metrics) Warning {
	if m.Utilization < this.Low && m.Servers > MinServers {
		this.LowStreak++
	} else {
		this.LowStreak = 0
	}

	if m.Utilization > this.High {
		this.HighStreak++
	} else {
		this.HighStreak = 0
	}

	if this.LowStreak >= this.LowTicks {
		this.LowStreak = 0
		return WarningLow
	}

	if this.HighStreak >= this.HighTicks {
		this.HighStreak = 0

		if m.Servers < MaxServers {
			return WarningHigh
		}

		return WarningCapacity
	}

	return WarningNone
}

func (this *Hysteresis) Reset() {
	this.LowStreak = 0
	this.HighStreak = 0
}
