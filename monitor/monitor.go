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

// Package monitor watches the warnings published by a cluster and answers
// them with scale commands. Each response is bracketed by !startlog and
// !stoplog so that a logger on the commands topic can keep a record of the
// cluster metrics while the cluster adjusts.
package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jjv7/Server-Horizontal-Scaling-Sim/cluster"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/commons"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/metrics"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/transport"
)

const DefaultHoldPeriod = 10 * time.Second

type Option func(*Monitor)

func WithTopics(t cluster.Topics) Option {
	return func(m *Monitor) { m.topics = t }
}

// WithHoldPeriod sets how long logging stays on after a command is sent.
func WithHoldPeriod(d time.Duration) Option {
	return func(m *Monitor) { m.hold = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Monitor) { m.log = l }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(m *Monitor) { m.metrics = c }
}

// Monitor handles one warning at a time. Warnings that arrive while a
// response is in progress are dropped.
type Monitor struct {
	pub     transport.Publisher
	topics  cluster.Topics
	hold    time.Duration
	log     *zap.Logger
	metrics *metrics.Collector

	// unbuffered: a send only succeeds while Run is idle
	warnings chan cluster.Warning
}

var _ transport.Handler = (*Monitor)(nil)

func New(pub transport.Publisher, opts ...Option) *Monitor {
	this := &Monitor{
		pub:      pub,
		topics:   cluster.NewTopics(cluster.DefaultBaseTopic),
		hold:     DefaultHoldPeriod,
		log:      commons.Log,
		warnings: make(chan cluster.Warning),
	}

	for _, opt := range opts {
		opt(this)
	}

	return this
}

// Response returns the command that resolves w.
func Response(w cluster.Warning) (cluster.Command, bool) {
	switch w {
	case cluster.WarningLow:
		return cluster.CmdScaleIn, true
	case cluster.WarningHigh:
		return cluster.CmdScaleOut, true
	}

	// Nothing to do when the servers are at capacity
	return "", false
}

// Subscribe registers the monitor for warnings on c, plus any extra filters
// whose messages are only meant to be echoed.
func (this *Monitor) Subscribe(c transport.Client, extra ...string) error {
	if err := c.Subscribe(this.topics.Warnings, this); err != nil {
		return fmt.Errorf("monitor: subscribing to %s: %w", this.topics.Warnings, err)
	}

	ignore := transport.HandlerFunc(func(*transport.Message) {})

	for _, f := range extra {
		if err := c.Subscribe(f, ignore); err != nil {
			return fmt.Errorf("monitor: subscribing to %s: %w", f, err)
		}
	}

	return nil
}

func (this *Monitor) HandleMessage(msg *transport.Message) {
	if msg.Topic != this.topics.Warnings {
		return
	}

	this.Offer(cluster.ParseWarning(string(msg.Payload)))
}

// Offer hands w to Run and reports whether it was accepted. Warnings without
// a response are never accepted.
func (this *Monitor) Offer(w cluster.Warning) bool {
	if _, ok := Response(w); !ok {
		return false
	}

	select {
	case this.warnings <- w:
		return true

	default:
		this.log.Debug("Already handling a warning, dropping", zap.String("kind", w.Kind()))
		this.metrics.IncDropped()
		return false
	}
}

// Run answers warnings until ctx is done.
func (this *Monitor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case w := <-this.warnings:
			this.respond(ctx, w)
		}
	}
}

func (this *Monitor) respond(ctx context.Context, w cluster.Warning) {
	cmd, _ := Response(w)

	this.log.Info("Handling warning", zap.String("warning", w.String()), zap.String("command", string(cmd)))
	this.metrics.IncResponse(string(cmd))

	this.publish(cluster.CmdStartLog)
	this.publish(cmd)

	timer := time.NewTimer(this.hold)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}

	// Always stop the log, even when shutting down
	this.publish(cluster.CmdStopLog)
}

func (this *Monitor) publish(cmd cluster.Command) {
	if err := this.pub.Publish(this.topics.Commands, string(cmd)); err != nil {
		this.log.Error("Failed to publish command", zap.String("command", string(cmd)), zap.Error(err))
	}
}
