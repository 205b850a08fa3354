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
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/topics"
)

// Router dispatches messages to the handlers of all matching filters. One
// handler is kept per filter.
type Router struct {
	tree *topics.Tree
}

func NewRouter() *Router {
	return &Router{
		tree: topics.NewTree(),
	}
}

func (this *Router) Handle(filter string, h Handler) error {
	if h == nil {
		return ErrNilHandler
	}

	return this.tree.Insert(filter, filter, h)
}

func (this *Router) Remove(filter string) error {
	return this.tree.Remove(filter, filter)
}

// Dispatch calls every matching handler and returns how many were called.
// Handlers run after the tree lock is released, so they may subscribe or
// publish themselves.
func (this *Router) Dispatch(msg *Message) (int, error) {
	var subs []interface{}

	if err := this.tree.Match(msg.Topic, &subs); err != nil {
		return 0, err
	}

	for _, s := range subs {
		s.(Handler).HandleMessage(msg)
	}

	return len(subs), nil
}
