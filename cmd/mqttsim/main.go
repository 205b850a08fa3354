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

// mqttsim simulates a horizontally scaling server cluster over MQTT.
//
// The cluster publishes its average CPU utilisation and number of active
// servers, and raises warnings when the utilisation stays too low or too high.
// The monitor answers those warnings with scale commands. Both talk to any
// MQTT broker; mqttsim can also run one.
//
// Settings are read from ./.env (or --config), the environment and flags:
//
//   BROKER=localhost
//   MQTT_PORT=1883
//   MQTT_USERNAME=
//   MQTT_PASSWORD=
//
// The following commands start a broker, the cluster and the monitor.
//
//   $ ./mqttsim broker --listen :1883
//   $ ./mqttsim cluster -b localhost
//   $ ./mqttsim monitor -b localhost
//
// Commands can also be sent by hand.
//
//   $ ./mqttsim pub -b localhost -m '!scaleout'
//   $ ./mqttsim pub -b localhost -m '!simincrease'
//
// To watch all the traffic of the simulation:
//
//   $ ./mqttsim sub -b localhost -t 'simulation/#'
//
// Or run cluster and monitor in one process, without a broker:
//
//   $ ./mqttsim demo
//
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jjv7/Server-Horizontal-Scaling-Sim/commons"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/config"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/metrics"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/transport"
)

// strlist is a comma separated list of topics.
type strlist []string

func (this *strlist) String() string {
	return fmt.Sprint(*this)
}

func (this *strlist) Type() string {
	return "strlist"
}

func (this *strlist) Set(value string) error {
	for _, t := range strings.Split(value, ",") {
		if t = strings.TrimSpace(t); t != "" {
			*this = append(*this, t)
		}
	}

	return nil
}

var (
	rootCmd = &cobra.Command{
		Use:   "mqttsim",
		Short: "mqttsim simulates a horizontally scaling server cluster over MQTT.",
		Long: `mqttsim publishes synthetic CPU utilisation and active server readings
for a simulated cluster, raises warnings when the utilisation stays out of
bounds, and scales the cluster in and out in response to commands.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}

	v       = viper.New()
	cfg     *config.Config
	cfgFile string
)

// flagKeys maps persistent flag names to configuration keys.
var flagKeys = map[string]string{
	"broker":          "broker",
	"port":            "mqtt_port",
	"username":        "mqtt_username",
	"password":        "mqtt_password",
	"client-id":       "client_id",
	"base-topic":      "base_topic",
	"public-topic":    "public_topic",
	"connect-timeout": "connect_timeout",
	"metrics-addr":    "metrics_addr",
	"quiet":           "quiet",
	"debug":           "debug",
}

// commandKeys maps the flag names of individual commands to configuration
// keys. They are bound once the command to run is known.
var commandKeys = map[string]string{
	"utilization-interval": "utilization_interval",
	"servers-interval":     "servers_interval",
	"hold":                 "hold_period",
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "settings file in .env format (default ./.env when present)")
	f.StringP("broker", "b", "", "MQTT broker host, or URI such as ws://host:8080/mqtt")
	f.IntP("port", "p", config.DefaultPort, "MQTT broker port")
	f.StringP("username", "u", "", "MQTT username")
	f.String("password", "", "MQTT password")
	f.String("client-id", "", "MQTT client id (default <role>-<random>)")
	f.String("base-topic", "", "topic prefix of the simulation (default simulation)")
	f.String("public-topic", "", "extra filter whose messages are only printed (default public/#)")
	f.Duration("connect-timeout", transport.DefaultConnectTimeout, "how long to wait for the broker")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address, eg. ':9090'")
	f.BoolP("quiet", "q", false, "do not print published and received messages")
	f.Bool("debug", false, "enable debug logging")

	if err := bindFlags(f, flagKeys); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(clusterCmd, monitorCmd, brokerCmd, pubCmd, subCmd, demoCmd)
}

// bindFlags binds the flags of f found in keys to their configuration keys.
func bindFlags(f *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		fl := f.Lookup(name)
		if fl == nil {
			continue
		}

		if err := v.BindPFlag(key, fl); err != nil {
			return err
		}
	}

	return nil
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd.Flags(), commandKeys); err != nil {
		return err
	}

	c, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	if c.Debug || commons.SystemDebug {
		if err := commons.SetDebug(true); err != nil {
			return err
		}
	}

	if err := c.Validate(); err != nil {
		return err
	}

	cfg = c

	return nil
}

// connect returns a connected client for role, printing its traffic to
// stdout unless quiet is set.
func connect(role string) (transport.Client, error) {
	if err := cfg.RequireBroker(); err != nil {
		return nil, err
	}

	id := cfg.ClientID
	if id == "" {
		id = fmt.Sprintf("%s-%d", role, rand.Intn(1001))
	}

	opts := transport.Options{
		Broker:         cfg.BrokerURI(),
		ClientID:       id,
		ConnectTimeout: cfg.ConnectTimeout,
	}

	if user, pass, ok := cfg.Credentials(); ok {
		opts.Username, opts.Password = user, pass
	} else if cfg.Username != "" || cfg.Password != "" {
		commons.Log.Warn("MQTT_USERNAME and MQTT_PASSWORD must both be set, connecting without credentials")
	}

	mc := transport.NewMQTTClient(opts)
	if err := mc.Connect(); err != nil {
		return nil, err
	}

	commons.Log.Info("Connected", zap.String("broker", opts.Broker), zap.String("client", id))

	return echo(mc), nil
}

func echo(c transport.Client) transport.Client {
	if cfg.Quiet {
		return c
	}

	return transport.NewEcho(c, os.Stdout)
}

// extraFilters returns the filters subscribed to only for printing.
func extraFilters() []string {
	if cfg.PublicTopic == "" {
		return nil
	}

	return []string{cfg.PublicTopic}
}

// startMetrics serves a new registry on the metrics address, if one is set,
// and returns a collector registered with it. The collector is nil otherwise.
func startMetrics(ctx context.Context, g *errgroup.Group) *metrics.Collector {
	if cfg.MetricsAddr == "" {
		return nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	col := metrics.NewCollector(reg)

	g.Go(func() error {
		return metrics.Serve(ctx, cfg.MetricsAddr, reg, commons.Log)
	})

	return col
}

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	commons.Log.Sync()

	if err != nil {
		os.Exit(1)
	}
}
