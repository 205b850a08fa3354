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

package transport

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/jjv7/Server-Horizontal-Scaling-Sim/commons"
)

const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultQuiesce        = 250 // milliseconds
)

type Options struct {
	// Broker URI, e.g. tcp://localhost:1883 or ws://localhost:8080/mqtt
	Broker string

	ClientID string

	// Credentials are only sent when Username is set.
	Username string
	Password string

	// How long to wait for CONNACK, SUBACK and publish completion.
	// If not set then default to 5 seconds.
	ConnectTimeout time.Duration

	Logger *zap.Logger
}

// MQTTClient is a Client backed by the paho MQTT library. All traffic uses
// QoS 0. Inbound messages are routed through a Router so that handlers are
// chosen by filter rather than by paho callback.
type MQTTClient struct {
	opts   Options
	log    *zap.Logger
	router *Router
	client mqtt.Client

	mu      sync.Mutex
	filters map[string]struct{}
}

var _ Client = (*MQTTClient)(nil)

func NewMQTTClient(opts Options) *MQTTClient {
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}

	if opts.Logger == nil {
		opts.Logger = commons.Log
	}

	this := &MQTTClient{
		opts:    opts,
		log:     opts.Logger.With(zap.String("client", opts.ClientID)),
		router:  NewRouter(),
		filters: make(map[string]struct{}),
	}

	copts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(opts.ConnectTimeout).
		SetDefaultPublishHandler(this.onMessage).
		SetOnConnectHandler(this.onConnect).
		SetConnectionLostHandler(this.onConnectionLost)

	if opts.Username != "" {
		copts.SetUsername(opts.Username)
		copts.SetPassword(opts.Password)
	}

	this.client = mqtt.NewClient(copts)

	return this
}

// Connect opens the connection to the broker and blocks until it is
// acknowledged or the connect timeout expires.
func (this *MQTTClient) Connect() error {
	this.log.Info("Attempting to connect", zap.String("broker", this.opts.Broker))

	if err := this.wait(this.client.Connect()); err != nil {
		return fmt.Errorf("transport: connecting to %s: %w", this.opts.Broker, err)
	}

	return nil
}

func (this *MQTTClient) Publish(topic, payload string) error {
	if !this.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	return this.wait(this.client.Publish(topic, 0, false, payload))
}

func (this *MQTTClient) Subscribe(filter string, h Handler) error {
	if err := this.router.Handle(filter, h); err != nil {
		return err
	}

	this.mu.Lock()
	this.filters[filter] = struct{}{}
	this.mu.Unlock()

	if !this.client.IsConnectionOpen() {
		// Picked up by onConnect
		return nil
	}

	if err := this.wait(this.client.Subscribe(filter, 0, nil)); err != nil {
		return err
	}

	this.log.Info("Subscribed", zap.String("filter", filter))

	return nil
}

func (this *MQTTClient) Unsubscribe(filter string) error {
	this.mu.Lock()
	delete(this.filters, filter)
	this.mu.Unlock()

	if err := this.router.Remove(filter); err != nil {
		return err
	}

	if !this.client.IsConnectionOpen() {
		return nil
	}

	return this.wait(this.client.Unsubscribe(filter))
}

func (this *MQTTClient) Disconnect() {
	this.client.Disconnect(DefaultQuiesce)
	this.log.Info("Disconnected from MQTT broker")
}

func (this *MQTTClient) wait(token mqtt.Token) error {
	if !token.WaitTimeout(this.opts.ConnectTimeout) {
		return ErrTimeout
	}

	return token.Error()
}

func (this *MQTTClient) onMessage(_ mqtt.Client, m mqtt.Message) {
	msg := &Message{
		Topic:    m.Topic(),
		Payload:  m.Payload(),
		QoS:      m.Qos(),
		Retained: m.Retained(),
	}

	n, err := this.router.Dispatch(msg)
	if err != nil {
		this.log.Error("Dropping message", zap.String("topic", msg.Topic), zap.Error(err))
		return
	}

	if n == 0 {
		this.log.Debug("No handler for message", zap.String("topic", msg.Topic))
	}
}

// onConnect restores subscriptions, since every session is clean.
func (this *MQTTClient) onConnect(c mqtt.Client) {
	this.log.Info("Connected to MQTT Broker")

	this.mu.Lock()
	filters := make(map[string]byte, len(this.filters))
	for f := range this.filters {
		filters[f] = 0
	}
	this.mu.Unlock()

	if len(filters) == 0 {
		return
	}

	// Must not wait on the token from within the connect handler
	c.SubscribeMultiple(filters, nil)
}

func (this *MQTTClient) onConnectionLost(_ mqtt.Client, err error) {
	this.log.Warn("Connection lost", zap.Error(err))
}
