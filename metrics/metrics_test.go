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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.SetUtilization(42)
	c.SetServers(3)
	c.IncWarning("low")
	c.IncWarning("low")
	c.IncCommand("!scalein")
	c.IncPublishFailure("simulation/warnings")
	c.IncResponse("!scaleout")
	c.IncDropped()

	require.Equal(t, 42.0, testutil.ToFloat64(c.utilization))
	require.Equal(t, 3.0, testutil.ToFloat64(c.servers))
	require.Equal(t, 2.0, testutil.ToFloat64(c.warnings.WithLabelValues("low")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.commands.WithLabelValues("!scalein")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.publishFailures.WithLabelValues("simulation/warnings")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.responses.WithLabelValues("!scaleout")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.dropped))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	require.Equal(t, 7, n)
}

func TestNilCollector(t *testing.T) {
	var c *Collector

	require.NotPanics(t, func() {
		c.SetUtilization(1)
		c.SetServers(1)
		c.IncWarning("high")
		c.IncCommand("!scaleout")
		c.IncPublishFailure("t")
		c.IncResponse("!scalein")
		c.IncDropped()
	})
}
