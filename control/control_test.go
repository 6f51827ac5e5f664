package control_test

import (
	"runtime"
	"testing"

	"github.com/momentics/hioload-echo/control"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountersAndSnapshot(t *testing.T) {
	m := control.NewMetrics()
	m.Accepted.Inc()
	m.Accepted.Inc()
	m.BytesReceived.Add(42)
	m.Closed.WithLabelValues(control.ReasonPeer).Inc()
	m.Closed.WithLabelValues(control.ReasonError).Inc()
	m.OpenConns.Set(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Accepted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Closed.WithLabelValues(control.ReasonPeer)))

	snap := m.GetSnapshot()
	assert.Equal(t, 2.0, snap["hioload_echo_connections_accepted_total"])
	assert.Equal(t, 42.0, snap["hioload_echo_received_bytes_total"])
	assert.Equal(t, 2.0, snap["hioload_echo_connections_closed_total"])
	assert.Equal(t, 3.0, snap["hioload_echo_connections_open"])
}

func TestMetricsRegistriesAreIndependent(t *testing.T) {
	a := control.NewMetrics()
	b := control.NewMetrics()
	a.BytesSent.Add(10)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.BytesSent))

	n, err := testutil.GatherAndCount(a.Registry(), "hioload_echo_sent_bytes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDebugProbes(t *testing.T) {
	dp := control.NewDebugProbes()
	counter := 0
	dp.RegisterProbe("calls", func() any { counter++; return counter })
	control.RegisterPlatformProbes(dp)

	state := dp.DumpState()
	assert.Equal(t, 1, state["calls"])
	assert.Equal(t, runtime.GOOS, state["platform.os"])
	assert.Equal(t, runtime.NumCPU(), state["platform.cpus"])

	assert.Equal(t, 2, dp.DumpState()["calls"])
}
