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

package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jjv7/Server-Horizontal-Scaling-Sim/cluster"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/metrics"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/transport"
)

type commandLog struct {
	mu   sync.Mutex
	cmds []string
}

func (this *commandLog) HandleMessage(msg *transport.Message) {
	this.mu.Lock()
	defer this.mu.Unlock()

	this.cmds = append(this.cmds, string(msg.Payload))
}

func (this *commandLog) get() []string {
	this.mu.Lock()
	defer this.mu.Unlock()

	return append([]string(nil), this.cmds...)
}

func startMonitor(t *testing.T, hold time.Duration, opts ...Option) (*Monitor, *transport.Bus, *commandLog, context.CancelFunc, chan error) {
	bus := transport.NewBus()

	log := &commandLog{}
	require.NoError(t, bus.Client("logger").Subscribe("simulation/commands", log))

	opts = append([]Option{WithHoldPeriod(hold), WithLogger(zap.NewNop())}, opts...)
	m := New(bus.Client("monitor"), opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- m.Run(ctx)
	}()

	return m, bus, log, cancel, done
}

func TestResponse(t *testing.T) {
	cmd, ok := Response(cluster.WarningLow)
	require.True(t, ok)
	require.Equal(t, cluster.CmdScaleIn, cmd)

	cmd, ok = Response(cluster.WarningHigh)
	require.True(t, ok)
	require.Equal(t, cluster.CmdScaleOut, cmd)

	_, ok = Response(cluster.WarningCapacity)
	require.False(t, ok)

	_, ok = Response(cluster.WarningNone)
	require.False(t, ok)
}

func TestRespondSequence(t *testing.T) {
	m, _, log, cancel, done := startMonitor(t, 10*time.Millisecond)
	defer cancel()

	require.Eventually(t, func() bool { return m.Offer(cluster.WarningLow) }, time.Second, time.Millisecond)

	require.Eventually(t, func() bool { return len(log.get()) == 3 }, time.Second, time.Millisecond)
	require.Equal(t, []string{"!startlog", "!scalein", "!stoplog"}, log.get())

	cancel()
	require.NoError(t, <-done)
}

func TestDropsWarningsWhileBusy(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	m, bus, log, cancel, done := startMonitor(t, time.Hour, WithMetrics(c))
	require.NoError(t, m.Subscribe(bus.Client("monitor-sub")))

	require.Eventually(t, func() bool { return m.Offer(cluster.WarningHigh) }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return len(log.get()) == 2 }, time.Second, time.Millisecond)

	before := droppedWarnings(t, reg)

	require.False(t, m.Offer(cluster.WarningLow))
	require.NoError(t, bus.Client("cluster").Publish("simulation/warnings", cluster.WarningLow.String()))
	require.Equal(t, []string{"!startlog", "!scaleout"}, log.get())

	// shutting down still stops the log
	cancel()
	require.NoError(t, <-done)
	require.Equal(t, []string{"!startlog", "!scaleout", "!stoplog"}, log.get())

	require.Equal(t, before+2, droppedWarnings(t, reg))
}

func droppedWarnings(t *testing.T, reg prometheus.Gatherer) float64 {
	t.Helper()

	mfs, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range mfs {
		if mf.GetName() == "mqttsim_monitor_dropped_warnings_total" {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}

	return 0
}

func TestIgnoresCapacityWarnings(t *testing.T) {
	m, bus, log, cancel, done := startMonitor(t, time.Millisecond)

	require.NoError(t, m.Subscribe(bus.Client("monitor-sub")))

	require.False(t, m.Offer(cluster.WarningCapacity))
	require.NoError(t, bus.Client("cluster").Publish("simulation/warnings", cluster.WarningCapacity.String()))
	require.NoError(t, bus.Client("cluster").Publish("simulation/warnings", "Warning: unknown"))

	cancel()
	require.NoError(t, <-done)
	require.Empty(t, log.get())
}

func TestScalesClusterOut(t *testing.T) {
	bus := transport.NewBus()

	c := cluster.New(bus.Client("cluster"),
		cluster.WithLogger(zap.NewNop()),
		cluster.WithDelta(func(lo, hi int) int { return 0 }),
		cluster.WithState(cluster.NewStateFrom(cluster.Metrics{Utilization: 90, Servers: 2})))
	require.NoError(t, c.Subscribe(bus.Client("cluster-sub")))

	m := New(bus.Client("monitor"), WithHoldPeriod(time.Millisecond), WithLogger(zap.NewNop()))
	require.NoError(t, m.Subscribe(bus.Client("monitor-sub"), "simulation/servers/#"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go m.Run(ctx)

	require.Eventually(t, func() bool {
		c.TickUtilization()
		return c.State().Snapshot().Servers == 4
	}, 5*time.Second, time.Millisecond)

	require.Equal(t, 45, c.State().Snapshot().Utilization)
}
