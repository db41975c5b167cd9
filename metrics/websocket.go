// Package metrics collects socket connection counters.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector collects message/byte/error/connection counters for the
// sockets it is handed. Client passes one Collector to all four plant
// workers, so its counters are totals across plants and Connected
// reflects the most recent connection change on any of them.
type Collector struct {
	messagesReceived atomic.Int64
	messagesSent     atomic.Int64
	bytesReceived    atomic.Int64
	bytesSent        atomic.Int64
	errors           atomic.Int64
	rejects          atomic.Int64

	connected        atomic.Bool
	totalConnections atomic.Int64

	mu              sync.RWMutex
	latencies       []time.Duration
	maxLatencyCount int
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		maxLatencyCount: 1000,
		latencies:       make([]time.Duration, 0, 1000),
	}
}

// RecordMessageReceived records an inbound frame and a latency sample;
// a zero latency records no sample. The middleware chain passes the time
// the frame's dispatch took.
func (c *Collector) RecordMessageReceived(bytes int, latency time.Duration) {
	c.messagesReceived.Add(1)
	c.bytesReceived.Add(int64(bytes))
	if latency > 0 {
		c.recordLatency(latency)
	}
}

// RecordMessageSent records an outbound frame.
func (c *Collector) RecordMessageSent(bytes int) {
	c.messagesSent.Add(1)
	c.bytesSent.Add(int64(bytes))
}

// RecordError records a transport or protocol error.
func (c *Collector) RecordError() {
	c.errors.Add(1)
}

// RecordReject records a template-75 reject frame.
func (c *Collector) RecordReject() {
	c.rejects.Add(1)
}

// RecordConnection records a connection state change.
func (c *Collector) RecordConnection(connected bool) {
	c.connected.Store(connected)
	if connected {
		c.totalConnections.Add(1)
	}
}

func (c *Collector) recordLatency(latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.latencies) >= c.maxLatencyCount {
		c.latencies = c.latencies[1:]
	}
	c.latencies = append(c.latencies, latency)
}

// Snapshot is a point-in-time read of a Collector's counters.
type Snapshot struct {
	MessagesReceived int64
	MessagesSent     int64
	BytesReceived    int64
	BytesSent        int64
	Errors           int64
	Rejects          int64
	Connected        bool
	TotalConnections int64
	AvgLatencyMs     float64
	SampleCount      int
}

// Snapshot returns the current metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		MessagesReceived: c.messagesReceived.Load(),
		MessagesSent:     c.messagesSent.Load(),
		BytesReceived:    c.bytesReceived.Load(),
		BytesSent:        c.bytesSent.Load(),
		Errors:           c.errors.Load(),
		Rejects:          c.rejects.Load(),
		Connected:        c.connected.Load(),
		TotalConnections: c.totalConnections.Load(),
	}

	if len(c.latencies) > 0 {
		var sum time.Duration
		for _, lat := range c.latencies {
			sum += lat
		}
		s.AvgLatencyMs = float64(sum.Milliseconds()) / float64(len(c.latencies))
		s.SampleCount = len(c.latencies)
	}

	return s
}
