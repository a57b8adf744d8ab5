package metrics_test

import (
	"testing"

	"pairchat/backend/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.New(reg)

	c.ObserveState(4, 1, 1)
	c.Match(true)
	c.Match(false)
	c.Match(false)
	c.Teardown("skip")
	c.BusyRejection()
	c.FriendWrite(false)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 7)

	count, err := testutil.GatherAndCount(reg, "pairchat_matches_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per kind")

	busy, err := testutil.GatherAndCount(reg, "pairchat_call_busy_rejections_total")
	require.NoError(t, err)
	assert.Equal(t, 1, busy)
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *metrics.Collector

	assert.NotPanics(t, func() {
		c.ObserveState(1, 1, 1)
		c.Match(true)
		c.Teardown("disconnect")
		c.BusyRejection()
		c.FriendWrite(true)
	})
}
