package metrics

import (
	"sync/atomic"
	"time"
)

// RoundMetric summarises the games of one scheduling round.
type RoundMetric struct {
	Workers      int
	Games        int
	Ties         int
	Stalled      int
	IllegalMoves int
	Byes         int
	Retries      int
	StartTime    time.Time
	Duration     time.Duration
}

// Decisive is the number of games that produced a winner.
func (m RoundMetric) Decisive() int {
	return m.Games - m.Ties
}

// Merge adds the counters of other to m. The earliest start time is kept and
// durations are summed.
func (m RoundMetric) Merge(other RoundMetric) RoundMetric {
	if m.StartTime.IsZero() || (!other.StartTime.IsZero() && other.StartTime.Before(m.StartTime)) {
		m.StartTime = other.StartTime
	}
	if other.Workers > m.Workers {
		m.Workers = other.Workers
	}
	m.Games += other.Games
	m.Ties += other.Ties
	m.Stalled += other.Stalled
	m.IllegalMoves += other.IllegalMoves
	m.Byes += other.Byes
	m.Retries += other.Retries
	m.Duration += other.Duration
	return m
}

// Collector counts round events. Implementations are safe for concurrent use
// by the workers of a round.
type Collector interface {
	Start(workers int)
	AddGame(tie, stalled bool, illegalMoves int)
	AddBye()
	AddRetry()
	Complete() RoundMetric
}

type collector struct {
	workers      int
	startTime    time.Time
	games        atomic.Int32
	ties         atomic.Int32
	stalled      atomic.Int32
	illegalMoves atomic.Int32
	byes         atomic.Int32
	retries      atomic.Int32
}

func NewCollector() Collector {
	return &collector{}
}

// Start resets the counters for a new round.
func (m *collector) Start(workers int) {
	m.workers = workers
	m.startTime = time.Now()
	m.games.Store(0)
	m.ties.Store(0)
	m.stalled.Store(0)
	m.illegalMoves.Store(0)
	m.byes.Store(0)
	m.retries.Store(0)
}

func (m *collector) AddGame(tie, stalled bool, illegalMoves int) {
	m.games.Add(1)
	if tie {
		m.ties.Add(1)
	}
	if stalled {
		m.stalled.Add(1)
	}
	m.illegalMoves.Add(int32(illegalMoves))
}

func (m *collector) AddBye() {
	m.byes.Add(1)
}

func (m *collector) AddRetry() {
	m.retries.Add(1)
}

func (m *collector) Complete() RoundMetric {
	return RoundMetric{
		Workers:      m.workers,
		Games:        int(m.games.Load()),
		Ties:         int(m.ties.Load()),
		Stalled:      int(m.stalled.Load()),
		IllegalMoves: int(m.illegalMoves.Load()),
		Byes:         int(m.byes.Load()),
		Retries:      int(m.retries.Load()),
		StartTime:    m.startTime,
		Duration:     time.Since(m.startTime),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(workers int)                           {}
func (m *dummyCollector) AddGame(tie, stalled bool, illegalMoves int) {}
func (m *dummyCollector) AddBye()                                     {}
func (m *dummyCollector) AddRetry()                                   {}
func (m *dummyCollector) Complete() RoundMetric                       { return RoundMetric{} }
