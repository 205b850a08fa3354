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
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/jjv7/Server-Horizontal-Scaling-Sim/cluster"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/commons"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/monitor"
)

var (
	clusterCmd = &cobra.Command{
		Use:   "cluster",
		Short: "cluster publishes the simulated readings and obeys scale commands",
		RunE:  runCluster,
	}

	monitorCmd = &cobra.Command{
		Use:   "monitor",
		Short: "monitor answers cluster warnings with scale commands",
		RunE:  runMonitor,
	}
)

func init() {
	addClusterFlags(clusterCmd.Flags())
	addMonitorFlags(monitorCmd.Flags())
}

func addClusterFlags(f *pflag.FlagSet) {
	f.Duration("utilization-interval", cluster.DefaultUtilizationInterval, "how often to publish the average CPU utilisation")
	f.Duration("servers-interval", cluster.DefaultServersInterval, "how often to publish the number of active servers")
}

func addMonitorFlags(f *pflag.FlagSet) {
	f.Duration("hold", monitor.DefaultHoldPeriod, "how long to wait between a scale command and !stoplog")
}

func runCluster(cmd *cobra.Command, args []string) error {
	ctx, stop := commons.CaptureSigint(cmd.Context())
	defer stop()

	c, err := connect("cluster")
	if err != nil {
		return err
	}
	defer c.Disconnect()

	g, ctx := errgroup.WithContext(ctx)

	sim := cluster.New(c,
		cluster.WithTopics(cfg.Topics()),
		cluster.WithIntervals(cfg.UtilizationInterval, cfg.ServersInterval),
		cluster.WithDelta(cluster.RandomDelta(newRand())),
		cluster.WithMetrics(startMetrics(ctx, g)))

	if err := sim.Subscribe(c, extraFilters()...); err != nil {
		return err
	}

	g.Go(func() error {
		return sim.Run(ctx)
	})

	return g.Wait()
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, stop := commons.CaptureSigint(cmd.Context())
	defer stop()

	c, err := connect("monitor")
	if err != nil {
		return err
	}
	defer c.Disconnect()

	g, ctx := errgroup.WithContext(ctx)

	m := monitor.New(c,
		monitor.WithTopics(cfg.Topics()),
		monitor.WithHoldPeriod(cfg.HoldPeriod),
		monitor.WithMetrics(startMetrics(ctx, g)))

	if err := m.Subscribe(c, extraFilters()...); err != nil {
		return err
	}

	g.Go(func() error {
		return m.Run(ctx)
	})

	return g.Wait()
}
