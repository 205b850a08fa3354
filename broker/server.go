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

// Package broker runs an embedded SurgeMQ broker so the simulator can be
// tried without an external MQTT service. It is a thin wrapper: all of the
// MQTT handling is done by github.com/surgemq/surgemq/service.
package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/surgemq/message"
	"github.com/surgemq/surgemq/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jjv7/Server-Horizontal-Scaling-Sim/commons"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/transport"
)

const (
	DefaultAddr          = ":1883"
	DefaultWebsocketPath = "/mqtt"

	startTimeout = 5 * time.Second
)

var (
	ErrNotRunning = errors.New("broker: server is not running")
)

type Options struct {
	// Address of the plain MQTT listener. If not set then default to :1883.
	Addr string

	// Address of the websocket listener, eg. ':8080'. Disabled when empty.
	WebsocketAddr string

	// URL path the websocket listener accepts upgrades on. If not set then
	// default to /mqtt.
	WebsocketPath string

	// Seconds, passed on to service.Server. Zero means the library default.
	KeepAlive      int
	ConnectTimeout int

	// Name of a registered authenticator, see auth.RegisterStatic. If not set
	// then default to service.DefaultAuthenticator.
	Authenticator string

	Logger *zap.Logger
}

// Server owns a service.Server for the lifetime of one ListenAndServe call.
type Server struct {
	opts Options
	log  *zap.Logger
	svr  *service.Server

	mu      sync.Mutex
	ready   chan struct{}
	running bool
}

var _ transport.Publisher = (*Server)(nil)

func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}

	if opts.WebsocketPath == "" {
		opts.WebsocketPath = DefaultWebsocketPath
	}

	if opts.Authenticator == "" {
		opts.Authenticator = service.DefaultAuthenticator
	}

	if opts.Logger == nil {
		opts.Logger = commons.Log
	}

	return &Server{
		opts:  opts,
		log:   opts.Logger.With(zap.String("component", "broker")),
		ready: make(chan struct{}),
		svr: &service.Server{
			KeepAlive:        opts.KeepAlive,
			ConnectTimeout:   opts.ConnectTimeout,
			Authenticator:    opts.Authenticator,
			SessionsProvider: "mem", // keeps sessions in memory
			TopicsProvider:   "mem", // keeps topic subscriptions in memory
		},
	}
}

// URI is the address clients connect to, in the form service.Server expects.
func (this *Server) URI() string {
	return "tcp://" + this.opts.Addr
}

// Ready is closed once the MQTT listener accepts connections.
func (this *Server) Ready() <-chan struct{} {
	return this.ready
}

// ListenAndServe runs the broker, and the websocket listener if configured,
// until ctx is cancelled. It can only be called once per Server.
func (this *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)

	go func() {
		errc <- this.svr.ListenAndServe(this.URI())
	}()

	if err := waitListening(this.opts.Addr, errc, startTimeout); err != nil {
		return fmt.Errorf("broker: listening on %s: %w", this.opts.Addr, err)
	}

	this.mu.Lock()
	this.running = true
	close(this.ready)
	this.mu.Unlock()

	this.log.Info("Broker is ready",
		zap.String("addr", this.opts.Addr),
		zap.String("auth", this.opts.Authenticator))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		select {
		case <-ctx.Done():
			this.Close()
			<-errc
			return nil

		case err := <-errc:
			this.markStopped()
			if err != nil {
				return fmt.Errorf("broker: %w", err)
			}
			return ErrNotRunning
		}
	})

	if this.opts.WebsocketAddr != "" {
		g.Go(func() error {
			h := WebsocketHandler("tcp", dialAddr(this.opts.Addr), this.log)
			return ServeWebsocket(ctx, this.opts.WebsocketAddr, this.opts.WebsocketPath, h, this.log)
		})
	}

	return g.Wait()
}

// Publish sends payload to every client subscribed to a filter matching
// topic, with QoS 0.
func (this *Server) Publish(topic, payload string) error {
	this.mu.Lock()
	defer this.mu.Unlock()

	if !this.running {
		return ErrNotRunning
	}

	msg := message.NewPublishMessage()

	if err := msg.SetTopic([]byte(topic)); err != nil {
		return fmt.Errorf("broker: %w", err)
	}

	if err := msg.SetQoS(message.QosAtMostOnce); err != nil {
		return fmt.Errorf("broker: %w", err)
	}

	msg.SetPayload([]byte(payload))

	return this.svr.Publish(msg, nil)
}

// Close stops the broker. It is safe to call more than once.
func (this *Server) Close() error {
	this.mu.Lock()
	defer this.mu.Unlock()

	if !this.running {
		return nil
	}

	this.running = false
	this.log.Info("Stopping broker")

	return this.svr.Close()
}

func (this *Server) markStopped() {
	this.mu.Lock()
	this.running = false
	this.mu.Unlock()
}

// Heartbeat publishes the broker uptime to topic every interval until ctx is
// cancelled or the broker stops.
func (this *Server) Heartbeat(ctx context.Context, topic string, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("broker: invalid heartbeat interval %v", interval)
	}

	select {
	case <-this.ready:
	case <-ctx.Done():
		return nil
	}

	start := time.Now()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-tick.C:
			up := time.Since(start).Round(time.Second)
			if err := this.Publish(topic, fmt.Sprintf("Broker uptime: %v", up)); err != nil {
				if errors.Is(err, ErrNotRunning) {
					return nil
				}
				this.log.Warn("Heartbeat failed", zap.String("topic", topic), zap.Error(err))
			}
		}
	}
}

// waitListening blocks until addr accepts a TCP connection, the server
// reports an error or timeout expires. It ignores cancellation so that the
// server is never closed before its listener exists.
func waitListening(addr string, errc <-chan error, timeout time.Duration) error {
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	deadline := time.After(timeout)

	for {
		conn, err := net.DialTimeout("tcp", dialAddr(addr), 100*time.Millisecond)
		if err == nil {
			conn.Close()
			return nil
		}

		select {
		case err := <-errc:
			if err == nil {
				err = ErrNotRunning
			}
			return err

		case <-deadline:
			return fmt.Errorf("not ready after %v", timeout)

		case <-tick.C:
		}
	}
}

// dialAddr turns a listen address such as ':1883' into one that can be
// dialled locally.
func dialAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}
