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

// Package metrics exports the simulated cluster state and the activity of the
// simulator as Prometheus metrics. A nil *Collector is valid and records
// nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "mqttsim"

type Collector struct {
	utilization     prometheus.Gauge
	servers         prometheus.Gauge
	warnings        *prometheus.CounterVec
	commands        *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	responses       *prometheus.CounterVec
	dropped         prometheus.Counter
}

// NewCollector creates the collectors and registers them with reg, unless reg
// is nil.
func NewCollector(reg prometheus.Registerer) *Collector {
	this := &Collector{
		utilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_utilisation_percent",
			Help:      "Simulated average CPU utilisation across active servers",
		}),
		servers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_servers",
			Help:      "Simulated number of active servers",
		}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Warnings emitted by the cluster, by kind",
		}, []string{"kind"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands applied by the cluster",
		}, []string{"command"}),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Failed publishes, by topic",
		}, []string{"topic"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_responses_total",
			Help:      "Commands sent by the monitor in response to warnings",
		}, []string{"command"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_dropped_warnings_total",
			Help:      "Warnings ignored because a response was already in flight",
		}),
	}

	if reg != nil {
		reg.MustRegister(this.utilization, this.servers, this.warnings, this.commands,
			this.publishFailures, this.responses, this.dropped)
	}

	return this
}

func (this *Collector) SetUtilization(v int) {
	if this == nil {
		return
	}
	this.utilization.Set(float64(v))
}

func (this *Collector) SetServers(v int) {
	if this == nil {
		return
	}
	this.servers.Set(float64(v))
}

func (this *Collector) IncWarning(kind string) {
	if this == nil {
		return
	}
	this.warnings.WithLabelValues(kind).Inc()
}

func (this *Collector) IncCommand(cmd string) {
	if this == nil {
		return
	}
	this.commands.WithLabelValues(cmd).Inc()
}

func (this *Collector) IncPublishFailure(topic string) {
	if this == nil {
		return
	}
	this.publishFailures.WithLabelValues(topic).Inc()
}

func (this *Collector) IncResponse(cmd string) {
	if this == nil {
		return
	}
	this.responses.WithLabelValues(cmd).Inc()
}

func (this *Collector) IncDropped() {
	if this == nil {
		return
	}
	this.dropped.Inc()
}

// Serve exposes g on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		srv.Shutdown(sctx)
	}()

	log.Info("Serving metrics", zap.String("addr", addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
