package searcher

import (
	"sync/atomic"
	"time"
)

type MoveMetrics struct {
	StartTime time.Time
	Duration  time.Duration
	Episodes  int64
	Ties      int64
	MaxDepth  int64
}

type MetricsCollector interface {
	Start()
	AddEpisode(depth int, tie bool)
	Complete() MoveMetrics
}

type metricsCollector struct {
	startTime time.Time
	episodes  atomic.Int64
	ties      atomic.Int64
	maxDepth  atomic.Int64
}

func NewMetricsCollector() MetricsCollector {
	return &metricsCollector{}
}

// Start resets the counters for a new search.
func (m *metricsCollector) Start() {
	m.startTime = time.Now()
	m.episodes.Store(0)
	m.ties.Store(0)
	m.maxDepth.Store(0)
}

func (m *metricsCollector) AddEpisode(depth int, tie bool) {
	m.episodes.Add(1)
	if tie {
		m.ties.Add(1)
	}
	for {
		current := m.maxDepth.Load()
		if int64(depth) <= current || m.maxDepth.CompareAndSwap(current, int64(depth)) {
			return
		}
	}
}

func (m *metricsCollector) Complete() MoveMetrics {
	return MoveMetrics{
		StartTime: m.startTime,
		Duration:  time.Since(m.startTime),
		Episodes:  m.episodes.Load(),
		Ties:      m.ties.Load(),
		MaxDepth:  m.maxDepth.Load(),
	}
}

type noMetricsCollector struct{}

func NewNoMetricsCollector() MetricsCollector {
	return &noMetricsCollector{}
}

func (m *noMetricsCollector) Start()                         {}
func (m *noMetricsCollector) AddEpisode(depth int, tie bool) {}
func (m *noMetricsCollector) Complete() MoveMetrics          { return MoveMetrics{} }
