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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pahoMessage struct {
	topic   string
	payload []byte
}

func (this *pahoMessage) Duplicate() bool   { return false }
func (this *pahoMessage) Qos() byte         { return 0 }
func (this *pahoMessage) Retained() bool    { return false }
func (this *pahoMessage) Topic() string     { return this.topic }
func (this *pahoMessage) MessageID() uint16 { return 0 }
func (this *pahoMessage) Payload() []byte   { return this.payload }
func (this *pahoMessage) Ack()              {}

func newOfflineClient() *MQTTClient {
	return NewMQTTClient(Options{
		Broker:         "tcp://127.0.0.1:1",
		ClientID:       "offline",
		ConnectTimeout: 500 * time.Millisecond,
		Logger:         zap.NewNop(),
	})
}

func TestMQTTClientDefaults(t *testing.T) {
	c := NewMQTTClient(Options{Broker: "tcp://127.0.0.1:1883", ClientID: "x"})

	require.Equal(t, DefaultConnectTimeout, c.opts.ConnectTimeout)
	require.NotNil(t, c.log)
}

func TestMQTTClientOffline(t *testing.T) {
	c := newOfflineClient()

	require.ErrorIs(t, c.Publish("simulation/commands", "!scaleout"), ErrNotConnected)

	// Subscriptions made while offline are remembered for the next connect.
	require.NoError(t, c.Subscribe("simulation/commands", HandlerFunc(func(*Message) {})))
	require.Contains(t, c.filters, "simulation/commands")

	require.NoError(t, c.Unsubscribe("simulation/commands"))
	require.NotContains(t, c.filters, "simulation/commands")

	require.Error(t, c.Subscribe("simulation/#/x", HandlerFunc(func(*Message) {})))
}

func TestMQTTClientConnectRefused(t *testing.T) {
	c := newOfflineClient()

	require.Error(t, c.Connect())
}

func TestMQTTClientRoutesMessages(t *testing.T) {
	c := newOfflineClient()

	var got []*Message

	require.NoError(t, c.Subscribe("simulation/+/active", HandlerFunc(func(msg *Message) {
		got = append(got, msg)
	})))

	c.onMessage(nil, &pahoMessage{topic: "simulation/servers/active", payload: []byte("Active servers: 3")})
	c.onMessage(nil, &pahoMessage{topic: "simulation/warnings", payload: []byte("Warning: CPU utilisation low")})

	require.Len(t, got, 1)
	require.Equal(t, "simulation/servers/active", got[0].Topic)
	require.Equal(t, "Active servers: 3", string(got[0].Payload))
}
