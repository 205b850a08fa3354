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

// Package transport decouples the simulator from the MQTT client library. The
// simulator only ever sees Message values handed to a Handler, and publishes
// plain string payloads through a Publisher.
package transport

import "errors"

var (
	ErrNotConnected = errors.New("transport: not connected")
	ErrTimeout      = errors.New("transport: operation timed out")
	ErrNilHandler   = errors.New("transport: handler is nil")
)

// Message is an inbound PUBLISH as seen by handlers.
type Message struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

func (this *Message) String() string {
	return string(this.Payload)
}

// Handler is invoked once per received message.
type Handler interface {
	HandleMessage(msg *Message)
}

type HandlerFunc func(msg *Message)

func (f HandlerFunc) HandleMessage(msg *Message) {
	f(msg)
}

type Publisher interface {
	Publish(topic, payload string) error
}

type Client interface {
	Publisher

	// Subscribe routes messages matching filter to h. Subscribing to the same
	// filter again replaces the handler.
	Subscribe(filter string, h Handler) error
	Unsubscribe(filter string) error
	Disconnect()
}
