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

// Package cluster simulates a horizontally scaled group of servers. It
// publishes a synthetic average CPU utilisation and the number of active
// servers, warns when utilisation stays too low or too high for a number of
// consecutive readings, and applies scale commands received over MQTT.
//
// The simulation assumes a constant workload, so utilisation is inversely
// proportional to the number of active servers:
//
//	{Utilization: 40, Servers: 2} --ScaleIn-->  {Utilization: 80, Servers: 1}
//	{Utilization: 40, Servers: 2} --ScaleOut--> {Utilization: 20, Servers: 4}
//
// Topics, relative to a base topic (default "simulation"):
//
//	<base>/servers/avg_cpu_util   "Avg CPU utilisation: 42%"
//	<base>/servers/active         "Active servers: 3"
//	<base>/warnings               "Warning: CPU utilisation high"
//	<base>/commands               "!scalein", "!scaleout", "!simnormal", ...
package cluster
