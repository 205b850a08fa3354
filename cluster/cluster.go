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
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jjv7/Server-Horizontal-Scaling-Sim/commons"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/metrics"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/transport"
)

const (
	DefaultUtilizationInterval = 2 * time.Second
	DefaultServersInterval     = 5 * time.Second
)

// DeltaFunc returns a value in [lo,hi].
type DeltaFunc func(lo, hi int) int

func RandomDelta(r *rand.Rand) DeltaFunc {
	return func(lo, hi int) int {
		return lo + r.Intn(hi-lo+1)
	}
}

type Option func(*Cluster)

func WithTopics(t Topics) Option {
	return func(c *Cluster) { c.topics = t }
}

func WithIntervals(utilization, servers time.Duration) Option {
	return func(c *Cluster) {
		c.utilizationInterval = utilization
		c.serversInterval = servers
	}
}

func WithThresholds(t Thresholds) Option {
	return func(c *Cluster) { c.hyst = NewHysteresis(t) }
}

func WithState(s *State) Option {
	return func(c *Cluster) { c.state = s }
}

func WithDelta(f DeltaFunc) Option {
	return func(c *Cluster) { c.delta = f }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Cluster) { c.log = l }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(c *Cluster) { c.metrics = m }
}

// Cluster runs the two metric publishers and applies inbound commands. It is
// a transport.Handler for the commands topic.
type Cluster struct {
	pub     transport.Publisher
	state   *State
	hyst    *Hysteresis
	topics  Topics
	delta   DeltaFunc
	log     *zap.Logger
	metrics *metrics.Collector

	utilizationInterval time.Duration
	serversInterval     time.Duration
}

var _ transport.Handler = (*Cluster)(nil)

func New(pub transport.Publisher, opts ...Option) *Cluster {
	this := &Cluster{
		pub:                 pub,
		state:               NewState(),
		hyst:                NewHysteresis(DefaultThresholds()),
		topics:              NewTopics(DefaultBaseTopic),
		delta:               RandomDelta(rand.New(rand.NewSource(time.Now().UnixNano()))),
		log:                 commons.Log,
		utilizationInterval: DefaultUtilizationInterval,
		serversInterval:     DefaultServersInterval,
	}

	for _, opt := range opts {
		opt(this)
	}

	return this
}

func (this *Cluster) State() *State {
	return this.state
}

func (this *Cluster) Topics() Topics {
	return this.topics
}

// Subscribe registers the cluster for commands on c. Any extra filters are
// subscribed with a handler that ignores the messages, so they are only seen
// by whatever wraps c, e.g. a transport.Echo.
func (this *Cluster) Subscribe(c transport.Client, extra ...string) error {
	if err := c.Subscribe(this.topics.Commands, this); err != nil {
		return fmt.Errorf("cluster: subscribing to %s: %w", this.topics.Commands, err)
	}

	ignore := transport.HandlerFunc(func(*transport.Message) {})

	for _, f := range extra {
		if err := c.Subscribe(f, ignore); err != nil {
			return fmt.Errorf("cluster: subscribing to %s: %w", f, err)
		}
	}

	this.log.Info("Subscribed to topics", zap.String("commands", this.topics.Commands), zap.Strings("extra", extra))

	return nil
}

// Run publishes utilisation and active server readings until ctx is done.
func (this *Cluster) Run(ctx context.Context) error {
	this.log.Info("Starting publishing loops",
		zap.Duration("utilisation", this.utilizationInterval),
		zap.Duration("servers", this.serversInterval))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return loop(ctx, this.utilizationInterval, func() { this.TickUtilization() })
	})

	g.Go(func() error {
		return loop(ctx, this.serversInterval, this.TickServers)
	})

	err := g.Wait()

	this.log.Info("Stopped publishing loops")

	return err
}

func loop(ctx context.Context, interval time.Duration, tick func()) error {
	if interval <= 0 {
		return fmt.Errorf("cluster: invalid interval %v", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		tick()

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// TickUtilization publishes the current utilisation, lets it drift according
// to the simulation mode and publishes a warning if one is due. It must not
// be called concurrently with itself.
func (this *Cluster) TickUtilization() Warning {
	cur := this.state.Snapshot()
	this.publish(this.topics.Utilization, fmt.Sprintf("Avg CPU utilisation: %d%%", cur.Utilization))

	next := this.state.Update(func(m Metrics) Metrics {
		return Drift(m, this.delta(m.Mode.DeltaRange()))
	})

	this.metrics.SetUtilization(next.Utilization)
	this.metrics.SetServers(next.Servers)

	w := this.hyst.Observe(next)
	if w == WarningNone {
		return w
	}

	this.log.Info("Utilisation warning", zap.String("kind", w.Kind()), zap.Stringer("metrics", next))
	this.metrics.IncWarning(w.Kind())
	this.publish(this.topics.Warnings, w.String())

	return w
}

// TickServers publishes the number of active servers.
func (this *Cluster) TickServers() {
	cur := this.state.Snapshot()
	this.metrics.SetServers(cur.Servers)
	this.publish(this.topics.Servers, fmt.Sprintf("Active servers: %d", cur.Servers))
}

// HandleMessage applies commands arriving on the commands topic. Anything
// else, including unknown commands, is ignored.
func (this *Cluster) HandleMessage(msg *transport.Message) {
	if msg.Topic != this.topics.Commands {
		return
	}

	cmd, ok := ParseCommand(string(msg.Payload))
	if !ok {
		this.log.Debug("Ignoring command", zap.String("command", string(cmd)))
		return
	}

	this.Execute(cmd)
}

// Execute applies cmd to the cluster state.
func (this *Cluster) Execute(cmd Command) Metrics {
	var before Metrics

	after := this.state.Update(func(m Metrics) Metrics {
		before = m
		return cmd.Apply(m)
	})

	this.metrics.IncCommand(string(cmd))
	this.metrics.SetUtilization(after.Utilization)
	this.metrics.SetServers(after.Servers)

	this.log.Info("Applied command",
		zap.String("command", string(cmd)),
		zap.Stringer("before", before),
		zap.Stringer("after", after))

	return after
}

// publish logs failures and carries on, the next tick will try again.
func (this *Cluster) publish(topic, payload string) {
	if err := this.pub.Publish(topic, payload); err != nil {
		this.metrics.IncPublishFailure(topic)
		this.log.Error("Failed to publish", zap.String("topic", topic), zap.String("payload", payload), zap.Error(err))
	}
}
