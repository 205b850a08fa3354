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

package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jjv7/Server-Horizontal-Scaling-Sim/cluster"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/commons"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/monitor"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/transport"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "demo runs the cluster and the monitor in one process, without a broker",
	RunE:  runDemo,
}

func init() {
	addClusterFlags(demoCmd.Flags())
	addMonitorFlags(demoCmd.Flags())
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx, stop := commons.CaptureSigint(cmd.Context())
	defer stop()

	bus := transport.NewBus()

	// Only the cluster side is printed, the monitor traffic shows up there.
	cc := echo(bus.Client("cluster"))
	mc := bus.Client("monitor")

	defer cc.Disconnect()
	defer mc.Disconnect()

	g, ctx := errgroup.WithContext(ctx)

	col := startMetrics(ctx, g)

	sim := cluster.New(cc,
		cluster.WithTopics(cfg.Topics()),
		cluster.WithIntervals(cfg.UtilizationInterval, cfg.ServersInterval),
		cluster.WithDelta(cluster.RandomDelta(newRand())),
		cluster.WithMetrics(col))

	mon := monitor.New(mc,
		monitor.WithTopics(cfg.Topics()),
		monitor.WithHoldPeriod(cfg.HoldPeriod),
		monitor.WithMetrics(col))

	// The cluster also listens to the warnings so the echo prints them.
	if err := sim.Subscribe(cc, cfg.Topics().Warnings); err != nil {
		return err
	}

	if err := mon.Subscribe(mc); err != nil {
		return err
	}

	g.Go(func() error {
		return sim.Run(ctx)
	})

	g.Go(func() error {
		return mon.Run(ctx)
	})

	return g.Wait()
}
