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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jjv7/Server-Horizontal-Scaling-Sim/commons"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/topics"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/transport"
)

var (
	pubCmd = &cobra.Command{
		Use:   "pub",
		Short: "pub publishes one message, by default a command to the cluster",
		Args:  cobra.NoArgs,
		RunE:  runPub,
	}

	subCmd = &cobra.Command{
		Use:   "sub",
		Short: "sub subscribes to topics and prints the messages received",
		Args:  cobra.NoArgs,
		RunE:  runSub,
	}

	pubTopic   string
	pubMessage string

	subTopics strlist
)

func init() {
	pubCmd.Flags().StringVarP(&pubTopic, "topic", "t", "", "topic to publish to (default <base-topic>/commands)")
	pubCmd.Flags().StringVarP(&pubMessage, "message", "m", "", "payload to publish, eg. '!scaleout'")
	pubCmd.MarkFlagRequired("message")

	subCmd.Flags().VarP(&subTopics, "topic", "t", "Comma separated list of topic filters (default <base-topic>/#)")
}

func runPub(cmd *cobra.Command, args []string) error {
	topic := pubTopic
	if topic == "" {
		topic = cfg.Topics().Commands
	}

	if err := topics.ValidTopic(topic); err != nil {
		return err
	}

	c, err := connect("pub")
	if err != nil {
		return err
	}
	defer c.Disconnect()

	return c.Publish(topic, pubMessage)
}

func runSub(cmd *cobra.Command, args []string) error {
	ctx, stop := commons.CaptureSigint(cmd.Context())
	defer stop()

	filters := []string(subTopics)
	if len(filters) == 0 {
		filters = []string{topics.Join(cfg.BaseTopic, topics.MWC)}
	}

	for _, f := range filters {
		if err := topics.ValidFilter(f); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
	}

	c, err := connect("sub")
	if err != nil {
		return err
	}
	defer c.Disconnect()

	// The echo already prints every message unless quiet is set.
	h := transport.HandlerFunc(func(msg *transport.Message) {
		if cfg.Quiet {
			fmt.Fprintf(os.Stdout, "%s: %s\n", msg.Topic, msg.Payload)
		}
	})

	for _, f := range filters {
		if err := c.Subscribe(f, h); err != nil {
			return err
		}
	}

	<-ctx.Done()

	return nil
}
