package websocket

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionMetrics_Aggregates(t *testing.T) {
	cm := NewConnectionMetrics(3)

	cm.RecordBroadcastMetric("general", 2*time.Millisecond, 3, 1, 120)
	cm.RecordBroadcastMetric("family", 5*time.Millisecond, 2, 0, 80)
	cm.RecordConnect()
	cm.RecordConnect()
	cm.RecordDisconnect()
	cm.RecordAlert("general", time.Millisecond, nil)
	cm.RecordAlert("general", time.Millisecond, errors.New("broker down"))
	cm.RecordAlertDropped("crisis")

	agg := cm.GetAggregatedMetrics()
	assert.Equal(t, 2, agg["totalBroadcasts"])
	assert.Equal(t, 6, agg["totalMessages"])
	assert.Equal(t, 1, agg["totalFailedMessages"])
	assert.Equal(t, 4, agg["peakRecipients"])
	assert.Equal(t, 120, agg["peakMessageSize"])
	assert.Equal(t, 2, agg["totalConnections"])
	assert.Equal(t, 1, agg["totalDisconnections"])
	assert.Equal(t, 2, agg["totalCrisisAlerts"])
	assert.Equal(t, 1, agg["failedCrisisAlerts"])
	assert.Equal(t, 1, agg["droppedCrisisAlerts"])

	history := cm.GetMetricsHistory()
	require.Len(t, history, 3, "history keeps only the newest samples")
	assert.Equal(t, MetricAlert, history[1].Type)
	assert.Equal(t, 1, history[1].FailureCount)
	assert.Equal(t, MetricAlertDrop, history[2].Type)
	assert.Equal(t, "crisis", history[2].Room)
}

func TestConnectionMetrics_MonitorCallback(t *testing.T) {
	cm := NewConnectionMetrics(0)

	var seen []MetricType
	cm.SetMonitorCallback(func(m PerformanceMetric) {
		seen = append(seen, m.Type)
	})

	cm.RecordConnect()
	cm.RecordBroadcastMetric("general", time.Millisecond, 1, 0, 10)

	assert.Equal(t, []MetricType{MetricConnection, MetricBroadcast}, seen)
}

func TestSlowOperationMonitor(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	cm := NewConnectionMetrics(10)
	cm.SetMonitorCallback(SlowOperationMonitor(log, 50*time.Millisecond))

	cm.RecordBroadcastMetric("general", time.Millisecond, 2, 0, 40)
	cm.RecordConnect()
	assert.Empty(t, buf.String())

	cm.RecordBroadcastMetric("family", 80*time.Millisecond, 3, 1, 40)
	assert.Contains(t, buf.String(), "Slow hub operation")
	assert.Contains(t, buf.String(), "room=family")
	assert.Contains(t, buf.String(), "recipients=4")

	buf.Reset()
	cm.RecordAlert("crisis", time.Second, nil)
	assert.Contains(t, buf.String(), "operation=publish_alert")
}
