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

// mqttsim is an instructional simulation of a server cluster that scales
// horizontally in response to load, with every reading, warning and command
// exchanged over MQTT.
//
// The packages of interest are cluster and monitor. Package cluster owns the
// simulated metrics (average CPU utilisation, number of active servers and
// simulation mode), the scaling policy and the hysteresis that turns
// sustained low or high utilisation into warnings. Package monitor listens to
// those warnings and answers them with scale commands.
//
//   The cluster publishes to
//   - <base>/servers/avg_cpu_util  "Avg CPU utilisation: N%", every 2 seconds
//   - <base>/servers/active        "Active servers: N", every 5 seconds
//   - <base>/warnings              "Warning: CPU utilisation low" and friends
//
//   and obeys commands on <base>/commands:
//   - !scalein      removes one server, down to 1
//   - !scaleout     adds two servers, up to 8
//   - !simnormal    utilisation drifts by -5..+5 per reading
//   - !simincrease  utilisation drifts by -5..+15 per reading
//   - !simdecrease  utilisation drifts by -15..+5 per reading
//
// Both sides talk through package transport, which has a paho MQTT client
// for real brokers and an in-process bus for tests and single process runs.
// Package broker embeds a SurgeMQ broker for trying things out locally.
//
// A quick example of running the simulation without a broker:
//   func main() {
//       bus := transport.NewBus()
//       cc, mc := bus.Client("cluster"), bus.Client("monitor")
//
//       sim := cluster.New(cc)
//       sim.Subscribe(cc)
//
//       mon := monitor.New(mc)
//       mon.Subscribe(mc)
//
//       go mon.Run(ctx)
//       sim.Run(ctx)
//   }
package mqttsim
