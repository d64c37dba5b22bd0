package websocket

import (
	"log/slog"
	"sync"
	"time"
)

// MetricType represents different types of metrics that can be collected
type MetricType string

const (
	MetricBroadcast  MetricType = "broadcast"
	MetricConnection MetricType = "connection"
	MetricAlert      MetricType = "crisis_alert"
	MetricAlertDrop  MetricType = "crisis_alert_dropped"
)

// PerformanceMetric represents a single measurement
type PerformanceMetric struct {
	Type         MetricType    `json:"type"`
	Operation    string        `json:"operation"`
	Duration     time.Duration `json:"duration"`
	SuccessCount int           `json:"successCount"`
	FailureCount int           `json:"failureCount"`
	Room         string        `json:"room,omitempty"`
	MessageSize  int           `json:"messageSize,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}

// ConnectionMetrics tracks fan-out and connection counters for the hub.
type ConnectionMetrics struct {
	// circular buffer
	history     []PerformanceMetric
	historySize int
	historyPos  int
	historyLock sync.RWMutex

	aggLock              sync.RWMutex
	totalBroadcasts      int
	totalMessages        int
	totalBroadcastTime   time.Duration
	totalSuccessMessages int
	totalFailedMessages  int
	peakBroadcastTime    time.Duration
	peakMessageSize      int
	peakRecipients       int
	totalConnections     int
	totalDisconnections  int
	totalAlerts          int
	failedAlerts         int
	droppedAlerts        int

	monitorCallback func(PerformanceMetric)
}

// NewConnectionMetrics creates a metrics tracker keeping the last historySize samples.
func NewConnectionMetrics(historySize int) *ConnectionMetrics {
	if historySize <= 0 {
		historySize = 100
	}
	return &ConnectionMetrics{
		history:     make([]PerformanceMetric, historySize),
		historySize: historySize,
	}
}

// RecordMetric records a new performance metric
func (cm *ConnectionMetrics) RecordMetric(metric PerformanceMetric) {
	cm.historyLock.Lock()
	cm.history[cm.historyPos] = metric
	cm.historyPos = (cm.historyPos + 1) % cm.historySize
	cm.historyLock.Unlock()

	cm.aggLock.Lock()
	switch metric.Type {
	case MetricBroadcast:
		cm.totalBroadcasts++
		cm.totalMessages += metric.SuccessCount + metric.FailureCount
		cm.totalBroadcastTime += metric.Duration
		cm.totalSuccessMessages += metric.SuccessCount
		cm.totalFailedMessages += metric.FailureCount
		if metric.Duration > cm.peakBroadcastTime {
			cm.peakBroadcastTime = metric.Duration
		}
		if metric.MessageSize > cm.peakMessageSize {
			cm.peakMessageSize = metric.MessageSize
		}
		if n := metric.SuccessCount + metric.FailureCount; n > cm.peakRecipients {
			cm.peakRecipients = n
		}
	case MetricConnection:
		cm.totalConnections += metric.SuccessCount
		cm.totalDisconnections += metric.FailureCount
	case MetricAlert:
		cm.totalAlerts += metric.SuccessCount + metric.FailureCount
		cm.failedAlerts += metric.FailureCount
	case MetricAlertDrop:
		cm.droppedAlerts += metric.FailureCount
	}
	callback := cm.monitorCallback
	cm.aggLock.Unlock()

	if callback != nil {
		callback(metric)
	}
}

// RecordBroadcastMetric is a convenience method for recording broadcast metrics
func (cm *ConnectionMetrics) RecordBroadcastMetric(room string, duration time.Duration, successCount, failureCount, messageSize int) {
	cm.RecordMetric(PerformanceMetric{
		Type:         MetricBroadcast,
		Operation:    "broadcast_to_room",
		Duration:     duration,
		SuccessCount: successCount,
		FailureCount: failureCount,
		Room:         room,
		MessageSize:  messageSize,
		Timestamp:    time.Now(),
	})
}

func (cm *ConnectionMetrics) RecordConnect() {
	cm.RecordMetric(PerformanceMetric{Type: MetricConnection, Operation: "connect", SuccessCount: 1, Timestamp: time.Now()})
}

func (cm *ConnectionMetrics) RecordDisconnect() {
	cm.RecordMetric(PerformanceMetric{Type: MetricConnection, Operation: "disconnect", FailureCount: 1, Timestamp: time.Now()})
}

func (cm *ConnectionMetrics) RecordAlert(room string, duration time.Duration, err error) {
	metric := PerformanceMetric{Type: MetricAlert, Operation: "publish_alert", Duration: duration, Room: room, Timestamp: time.Now()}
	if err != nil {
		metric.FailureCount = 1
	} else {
		metric.SuccessCount = 1
	}
	cm.RecordMetric(metric)
}

// RecordAlertDropped counts an alert that never reached the delivery queue.
func (cm *ConnectionMetrics) RecordAlertDropped(room string) {
	cm.RecordMetric(PerformanceMetric{Type: MetricAlertDrop, Operation: "drop_alert", FailureCount: 1, Room: room, Timestamp: time.Now()})
}

// GetMetricsHistory returns the recent metrics, oldest first.
func (cm *ConnectionMetrics) GetMetricsHistory() []PerformanceMetric {
	cm.historyLock.RLock()
	defer cm.historyLock.RUnlock()

	history := make([]PerformanceMetric, 0, cm.historySize)
	for i := 0; i < cm.historySize; i++ {
		pos := (cm.historyPos + i) % cm.historySize
		if !cm.history[pos].Timestamp.IsZero() {
			history = append(history, cm.history[pos])
		}
	}
	return history
}

// GetAggregatedMetrics returns aggregated performance metrics
func (cm *ConnectionMetrics) GetAggregatedMetrics() map[string]interface{} {
	cm.aggLock.RLock()
	defer cm.aggLock.RUnlock()

	avgBroadcastTime := time.Duration(0)
	if cm.totalBroadcasts > 0 {
		avgBroadcastTime = cm.totalBroadcastTime / time.Duration(cm.totalBroadcasts)
	}

	successRate := float64(100)
	if cm.totalMessages > 0 {
		successRate = float64(cm.totalSuccessMessages) / float64(cm.totalMessages) * 100
	}

	return map[string]interface{}{
		"totalBroadcasts":      cm.totalBroadcasts,
		"totalMessages":        cm.totalMessages,
		"totalSuccessMessages": cm.totalSuccessMessages,
		"totalFailedMessages":  cm.totalFailedMessages,
		"avgBroadcastTime":     avgBroadcastTime.String(),
		"peakBroadcastTime":    cm.peakBroadcastTime.String(),
		"peakMessageSize":      cm.peakMessageSize,
		"peakRecipients":       cm.peakRecipients,
		"successRate":          successRate,
		"totalConnections":     cm.totalConnections,
		"totalDisconnections":  cm.totalDisconnections,
		"totalCrisisAlerts":    cm.totalAlerts,
		"failedCrisisAlerts":   cm.failedAlerts,
		"droppedCrisisAlerts":  cm.droppedAlerts,
	}
}

// SetMonitorCallback sets a callback invoked after every recorded metric.
func (cm *ConnectionMetrics) SetMonitorCallback(callback func(PerformanceMetric)) {
	cm.aggLock.Lock()
	defer cm.aggLock.Unlock()
	cm.monitorCallback = callback
}

// SlowOperationMonitor returns a monitor callback that logs broadcasts and
// alert deliveries taking at least threshold.
func SlowOperationMonitor(log *slog.Logger, threshold time.Duration) func(PerformanceMetric) {
	return func(m PerformanceMetric) {
		if m.Type == MetricConnection || m.Duration < threshold {
			return
		}
		log.Warn("Slow hub operation",
			"type", m.Type,
			"operation", m.Operation,
			"room", m.Room,
			"duration", m.Duration,
			"recipients", m.SuccessCount+m.FailureCount)
	}
}
