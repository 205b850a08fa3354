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

package topics

import (
	"strings"
	"sync"
)

// Tree keeps subscribers indexed by topic filter. Each subscriber is stored
// under an id so it can be replaced or removed without comparing the
// subscriber values themselves.
type Tree struct {
	mu   sync.RWMutex
	root *node
	size int
}

func NewTree() *Tree {
	return &Tree{
		root: newNode(),
	}
}

// Insert adds sub under filter. Inserting again with the same id replaces
// the previous subscriber.
func (this *Tree) Insert(filter, id string, sub interface{}) error {
	if err := ValidFilter(filter); err != nil {
		return err
	}

	this.mu.Lock()
	defer this.mu.Unlock()

	if this.root.insert(strings.Split(filter, SEP), id, sub) {
		this.size++
	}

	return nil
}

// Remove deletes the subscriber with the given id from filter.
func (this *Tree) Remove(filter, id string) error {
	if err := ValidFilter(filter); err != nil {
		return err
	}

	this.mu.Lock()
	defer this.mu.Unlock()

	if err := this.root.remove(strings.Split(filter, SEP), id); err != nil {
		return err
	}

	this.size--

	return nil
}

// Match appends all the subscribers whose filter matches topic to subs. The
// slice is reset first so callers can reuse it between calls.
func (this *Tree) Match(topic string, subs *[]interface{}) error {
	if err := ValidTopic(topic); err != nil {
		return err
	}

	this.mu.RLock()
	defer this.mu.RUnlock()

	*subs = (*subs)[0:0]

	this.root.match(strings.Split(topic, SEP), strings.HasPrefix(topic, SYS), subs)

	return nil
}

// Len returns the number of stored subscriptions.
func (this *Tree) Len() int {
	this.mu.RLock()
	defer this.mu.RUnlock()

	return this.size
}

type entry struct {
	id  string
	sub interface{}
}

type node struct {
	// If this is the end of the filter, then add subscribers here
	subs []entry

	// Otherwise add the next topic level here
	nodes map[string]*node
}

func newNode() *node {
	return &node{
		nodes: make(map[string]*node, 4),
	}
}

// insert reports whether a new entry was added, as opposed to replaced.
func (this *node) insert(levels []string, id string, sub interface{}) bool {
	if len(levels) == 0 {
		for i := range this.subs {
			if this.subs[i].id == id {
				this.subs[i].sub = sub
				return false
			}
		}

		this.subs = append(this.subs, entry{id: id, sub: sub})
		return true
	}

	n, ok := this.nodes[levels[0]]
	if !ok {
		n = newNode()
		this.nodes[levels[0]] = n
	}

	return n.insert(levels[1:], id, sub)
}

func (this *node) remove(levels []string, id string) error {
	if len(levels) == 0 {
		for i := range this.subs {
			if this.subs[i].id == id {
				this.subs = append(this.subs[:i], this.subs[i+1:]...)
				return nil
			}
		}

		return ErrNotFound
	}

	n, ok := this.nodes[levels[0]]
	if !ok {
		return ErrNotFound
	}

	if err := n.remove(levels[1:], id); err != nil {
		return err
	}

	// Prune the branch once nothing hangs off it anymore
	if len(n.subs) == 0 && len(n.nodes) == 0 {
		delete(this.nodes, levels[0])
	}

	return nil
}

// match collects the subscribers matching the remaining topic levels. sys is
// only set for the first level of a $ topic.
func (this *node) match(levels []string, sys bool, subs *[]interface{}) {
	if len(levels) == 0 {
		this.collect(subs)

		// "sport/#" also matches "sport"
		if n, ok := this.nodes[MWC]; ok {
			n.collect(subs)
		}

		return
	}

	for k, n := range this.nodes {
		switch k {
		case MWC:
			if !sys {
				n.collect(subs)
			}

		case SWC:
			if !sys {
				n.match(levels[1:], false, subs)
			}

		case levels[0]:
			n.match(levels[1:], false, subs)
		}
	}
}

func (this *node) collect(subs *[]interface{}) {
	for _, e := range this.subs {
		*subs = append(*subs, e.sub)
	}
}
