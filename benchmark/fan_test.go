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

// Package benchmark measures message routing and simulation ticks without a
// broker.
//
// Usage: go test -bench=. ./benchmark
package benchmark

import (
	"fmt"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jjv7/Server-Horizontal-Scaling-Sim/cluster"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/topics"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/transport"
)

var (
	publishers  = 20
	subscribers = 20
	messages    = 1000
)

func count(n *int64) transport.Handler {
	return transport.HandlerFunc(func(*transport.Message) {
		atomic.AddInt64(n, 1)
	})
}

// TestFan publishes from every publisher concurrently and checks that every
// subscriber sees every message.
func TestFan(t *testing.T) {
	var (
		wg        sync.WaitGroup
		totalRcvd int64
	)

	bus := transport.NewBus()

	for i := 0; i < subscribers; i++ {
		require.NoError(t, bus.Client(fmt.Sprintf("sub-%d", i)).Subscribe("simulation/+/avg_cpu_util", count(&totalRcvd)))
	}

	for i := 0; i < publishers; i++ {
		wg.Add(1)

		go func(c transport.Client) {
			defer wg.Done()

			for j := 0; j < messages; j++ {
				c.Publish("simulation/servers/avg_cpu_util", fmt.Sprintf("Avg CPU utilisation: %d%%", j%101))
			}
		}(bus.Client(fmt.Sprintf("pub-%d", i)))
	}

	wg.Wait()

	require.Equal(t, int64(publishers*subscribers*messages), atomic.LoadInt64(&totalRcvd))
}

func BenchmarkFanOut(b *testing.B) {
	var rcvd int64

	bus := transport.NewBus()

	for i := 0; i < subscribers; i++ {
		bus.Client(fmt.Sprintf("sub-%d", i)).Subscribe("simulation/#", count(&rcvd))
	}

	pub := bus.Client("pub")

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		pub.Publish("simulation/servers/active", "Active servers: 4")
	}
}

func BenchmarkTopicsMatch(b *testing.B) {
	tree := topics.NewTree()

	for i := 0; i < 100; i++ {
		tree.Insert(fmt.Sprintf("simulation/servers/%d", i), fmt.Sprintf("id-%d", i), i)
	}

	tree.Insert("simulation/+/avg_cpu_util", "plus", "plus")
	tree.Insert("simulation/#", "all", "all")

	var subs []interface{}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		subs = subs[:0]
		tree.Match("simulation/servers/avg_cpu_util", &subs)
	}
}

func BenchmarkTickUtilization(b *testing.B) {
	bus := transport.NewBus()
	pub := transport.NewEcho(bus.Client("cluster"), io.Discard)

	c := cluster.New(pub,
		cluster.WithDelta(cluster.RandomDelta(rand.New(rand.NewSource(1)))),
		cluster.WithLogger(zap.NewNop()))

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		c.TickUtilization()
	}
}
