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
	"fmt"
	"sync"
)

const (
	MinServers   = 1
	MaxServers   = 8
	ScaleOutStep = 2

	MinUtilization = 0
	MaxUtilization = 100

	DefaultUtilization = 10
)

type SimMode int

const (
	ModeNormal SimMode = iota + 1
	ModeIncreasing
	ModeDecreasing
)

func (this SimMode) String() string {
	switch this {
	case ModeNormal:
		return "normal"
	case ModeIncreasing:
		return "increasing"
	case ModeDecreasing:
		return "decreasing"
	}

	return fmt.Sprintf("SimMode(%d)", int(this))
}

// DeltaRange returns the inclusive bounds of the random change applied to the
// utilisation on every reading.
func (this SimMode) DeltaRange() (lo, hi int) {
	switch this {
	case ModeIncreasing:
		return -5, 15
	case ModeDecreasing:
		return -15, 5
	}

	return -5, 5
}

// Metrics is the simulated cluster state. Utilization is kept in [0,100] and
// Servers in [1,8] by every function in this package.
type Metrics struct {
	Utilization int
	Servers     int
	Mode        SimMode
}

func DefaultMetrics() Metrics {
	return Metrics{
		Utilization: DefaultUtilization,
		Servers:     MinServers,
		Mode:        ModeNormal,
	}
}

func (this Metrics) String() string {
	return fmt.Sprintf("utilisation=%d%% servers=%d mode=%s", this.Utilization, this.Servers, this.Mode)
}

// State owns the cluster Metrics. Every read-modify-write goes through its
// mutex; nothing blocks while the lock is held.
type State struct {
	mu sync.Mutex
	m  Metrics
}

func NewState() *State {
	return NewStateFrom(DefaultMetrics())
}

// NewStateFrom starts the state at m, clamped into range.
func NewStateFrom(m Metrics) *State {
	return &State{m: clampMetrics(m)}
}

func (this *State) Snapshot() Metrics {
	this.mu.Lock()
	defer this.mu.Unlock()

	return this.m
}

// Update applies f atomically and returns the new value.
func (this *State) Update(f func(Metrics) Metrics) Metrics {
	this.mu.Lock()
	defer this.mu.Unlock()

	this.m = clampMetrics(f(this.m))

	return this.m
}

func (this *State) ScaleIn() Metrics {
	return this.Update(ScaleIn)
}

func (this *State) ScaleOut() Metrics {
	return this.Update(ScaleOut)
}

func (this *State) SetMode(mode SimMode) Metrics {
	return this.Update(func(m Metrics) Metrics {
		m.Mode = mode
		return m
	})
}
