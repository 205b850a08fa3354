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
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const ruleWidth = 45

var (
	pubStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	subStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Echo wraps a Client and prints every publish and every received message to
// out, in the same block layout as an MQTT desktop client.
type Echo struct {
	Client

	mu  sync.Mutex
	out io.Writer
}

func NewEcho(c Client, out io.Writer) *Echo {
	return &Echo{
		Client: c,
		out:    out,
	}
}

func (this *Echo) Publish(topic, payload string) error {
	err := this.Client.Publish(topic, payload)
	this.write(FormatPublish(topic, payload, err))
	return err
}

func (this *Echo) Subscribe(filter string, h Handler) error {
	if h == nil {
		return ErrNilHandler
	}

	return this.Client.Subscribe(filter, HandlerFunc(func(msg *Message) {
		this.write(FormatMessage(msg))
		h.HandleMessage(msg)
	}))
}

func (this *Echo) write(s string) {
	this.mu.Lock()
	defer this.mu.Unlock()

	io.WriteString(this.out, s)
}

// FormatPublish renders the block printed for an outgoing message.
func FormatPublish(topic, payload string, err error) string {
	var b strings.Builder

	b.WriteString(banner("[PUB]", "-", pubStyle))
	b.WriteString(topic + "\n\n")

	if err == nil {
		b.WriteString("Sent:\n" + payload + "\n")
	} else {
		b.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", err)) + "\n")
		b.WriteString(fmt.Sprintf("Failed to publish: %q\n", payload))
	}

	b.WriteString(strings.Repeat("-", ruleWidth) + "\n\n")

	return b.String()
}

// FormatMessage renders the block printed for a received message.
func FormatMessage(msg *Message) string {
	var b strings.Builder

	b.WriteString(banner("[SUB]", "=", subStyle))
	b.WriteString(msg.Topic + "\n")
	b.WriteString(fmt.Sprintf("QoS: %d\n", msg.QoS))
	b.WriteString(fmt.Sprintf("Retained?: %t\n\n", msg.Retained))
	b.WriteString("Message:\n" + string(msg.Payload) + "\n")
	b.WriteString(strings.Repeat("=", ruleWidth) + "\n\n")

	return b.String()
}

func banner(label, fill string, style lipgloss.Style) string {
	side := (ruleWidth - len(label)) / 2
	line := strings.Repeat(fill, side) + label + strings.Repeat(fill, ruleWidth-side-len(label))

	return style.Render(line) + "\n"
}
