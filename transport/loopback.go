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
	"sync"

	"github.com/jjv7/Server-Horizontal-Scaling-Sim/topics"
)

// Bus is an in-process stand-in for a broker. Messages published by any of
// its clients are delivered synchronously to every matching subscription.
type Bus struct {
	tree *topics.Tree
}

func NewBus() *Bus {
	return &Bus{
		tree: topics.NewTree(),
	}
}

// Client returns a new client attached to the bus. id must be unique per bus.
func (this *Bus) Client(id string) *Loopback {
	return &Loopback{
		id:      id,
		bus:     this,
		filters: make(map[string]struct{}),
	}
}

func (this *Bus) deliver(msg *Message) error {
	var subs []interface{}

	if err := this.tree.Match(msg.Topic, &subs); err != nil {
		return err
	}

	for _, s := range subs {
		s.(Handler).HandleMessage(msg)
	}

	return nil
}

type Loopback struct {
	id  string
	bus *Bus

	mu      sync.Mutex
	closed  bool
	filters map[string]struct{}
}

var _ Client = (*Loopback)(nil)

func (this *Loopback) Publish(topic, payload string) error {
	if this.isClosed() {
		return ErrNotConnected
	}

	if err := topics.ValidTopic(topic); err != nil {
		return err
	}

	return this.bus.deliver(&Message{Topic: topic, Payload: []byte(payload)})
}

func (this *Loopback) Subscribe(filter string, h Handler) error {
	if h == nil {
		return ErrNilHandler
	}

	this.mu.Lock()
	defer this.mu.Unlock()

	if this.closed {
		return ErrNotConnected
	}

	if err := this.bus.tree.Insert(filter, this.key(filter), h); err != nil {
		return err
	}

	this.filters[filter] = struct{}{}

	return nil
}

func (this *Loopback) Unsubscribe(filter string) error {
	this.mu.Lock()
	defer this.mu.Unlock()

	if _, ok := this.filters[filter]; !ok {
		return topics.ErrNotFound
	}

	delete(this.filters, filter)

	return this.bus.tree.Remove(filter, this.key(filter))
}

func (this *Loopback) Disconnect() {
	this.mu.Lock()
	defer this.mu.Unlock()

	for f := range this.filters {
		this.bus.tree.Remove(f, this.key(f))
	}

	this.filters = make(map[string]struct{})
	this.closed = true
}

func (this *Loopback) isClosed() bool {
	this.mu.Lock()
	defer this.mu.Unlock()

	return this.closed
}

func (this *Loopback) key(filter string) string {
	return this.id + " " + filter
}
