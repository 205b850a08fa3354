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
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jjv7/Server-Horizontal-Scaling-Sim/auth"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/broker"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/commons"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/topics"
)

var (
	brokerCmd = &cobra.Command{
		Use:   "broker",
		Short: "broker runs an embedded SurgeMQ broker for the simulation",
		RunE:  runBroker,
	}

	brokerAddr        string
	brokerWSAddr      string
	brokerWSPath      string
	brokerKeepAlive   int
	brokerHeartbeat   time.Duration
	brokerHeartbeatTo string
)

func init() {
	f := brokerCmd.Flags()
	f.StringVarP(&brokerAddr, "listen", "l", broker.DefaultAddr, "address to accept MQTT connections on")
	f.StringVar(&brokerWSAddr, "wsaddr", "", "HTTP websocket address, eg. ':8080'")
	f.StringVar(&brokerWSPath, "wspath", broker.DefaultWebsocketPath, "HTTP websocket path")
	f.IntVar(&brokerKeepAlive, "keepalive", 0, "keepalive in seconds (default 300)")
	f.DurationVar(&brokerHeartbeat, "heartbeat", 0, "publish the broker uptime at this interval, 0 to disable")
	f.StringVar(&brokerHeartbeatTo, "heartbeat-topic", "public/heartbeat", "topic for the broker uptime")
}

func runBroker(cmd *cobra.Command, args []string) error {
	ctx, stop := commons.CaptureSigint(cmd.Context())
	defer stop()

	if brokerHeartbeat > 0 {
		if err := topics.ValidTopic(brokerHeartbeatTo); err != nil {
			return err
		}
	}

	user, pass, _ := cfg.Credentials()

	srv := broker.New(broker.Options{
		Addr:          brokerAddr,
		WebsocketAddr: brokerWSAddr,
		WebsocketPath: brokerWSPath,
		KeepAlive:     brokerKeepAlive,
		Authenticator: auth.RegisterStatic(user, pass),
	})

	g, ctx := errgroup.WithContext(ctx)

	startMetrics(ctx, g)

	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})

	if brokerHeartbeat > 0 {
		g.Go(func() error {
			return srv.Heartbeat(ctx, brokerHeartbeatTo, brokerHeartbeat)
		})
	}

	return g.Wait()
}
