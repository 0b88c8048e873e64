package gamemaster

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"evotac/agent"
	"evotac/elo"
	"evotac/engine"
	"evotac/experiments/metrics"
	"evotac/meta"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	ErrMatchFailed      = errors.New("match failed")
	ErrNotRunning       = errors.New("scheduler is not running")
	ErrAlreadyRunning   = errors.New("scheduler is already running")
	ErrIncompleteRound  = errors.New("round finished with agents missing")
	ErrDuplicateAgent   = errors.New("agent scheduled twice in one round")
	ErrSchedulerStopped = errors.New("scheduler stopped")
)

type Option func(s *Scheduler)

func WithEloK(k float64) Option {
	return func(s *Scheduler) {
		if k > 0 {
			s.k = k
		}
	}
}

// WithMaxRetries sets how many fresh games a failing pair gets before the
// failure becomes fatal.
func WithMaxRetries(retries int) Option {
	return func(s *Scheduler) {
		if retries >= 0 {
			s.maxRetries = retries
		}
	}
}

func WithMetrics(collector metrics.Collector) Option {
	return func(s *Scheduler) {
		if collector != nil {
			s.metrics = collector
		}
	}
}

// RoundResult is everything a finished round produced.
type RoundResult struct {
	Results []MatchResult
	Metric  metrics.RoundMetric
}

// Scheduler plays rounds of games on a fixed pool of workers. Each agent
// plays at most once per round, against the agent queued next to it.
type Scheduler struct {
	workers    int
	k          float64
	maxRetries int
	metrics    metrics.Collector

	// mu serialises rounds and lifecycle changes.
	mu      sync.Mutex
	running bool
	queue   *WorkQueue
	group   *errgroup.Group
	gctx    context.Context
	release func() bool

	stopOnce sync.Once
	stopErr  error
}

func NewScheduler(workers int, options ...Option) *Scheduler {
	if workers < 1 {
		panic("scheduler needs at least one worker")
	}
	s := &Scheduler{ // Default values
		workers:    workers,
		k:          meta.DEFAULT_ELO_K,
		maxRetries: meta.DEFAULT_MAX_RETRIES,
		metrics:    metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *Scheduler) Workers() int {
	return s.workers
}

// Start launches the persistent worker pool. Workers idle between rounds and
// exit when Stop is called or ctx ends.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	if s.group != nil {
		return ErrSchedulerStopped
	}

	queue := NewWorkQueue(true)
	g, gctx := errgroup.WithContext(ctx)
	s.release = context.AfterFunc(gctx, queue.Close)
	for i := 0; i < s.workers; i++ {
		id := i
		g.Go(func() error {
			return s.work(gctx, id, queue)
		})
	}
	s.queue = queue
	s.group = g
	s.gctx = gctx
	s.running = true
	log.Debug().Msgf("scheduler started with %d workers", s.workers)
	return nil
}

// Stop signals every worker, waits for them to exit and returns the first
// worker error. It is safe to call more than once.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.shutdown()
}

// shutdown must be called with mu held. Workers never take mu, so waiting for
// them here cannot deadlock.
func (s *Scheduler) shutdown() error {
	s.running = false
	if s.group == nil {
		return nil
	}
	s.stopOnce.Do(func() {
		s.queue.Close()
		s.stopErr = s.group.Wait()
		s.release()
		log.Debug().Msg("scheduler stopped")
	})
	return s.stopErr
}

// Round plays one game for every agent on the running pool and blocks until
// all of them are done. With an odd number of agents the last one left gets a
// bye. If ctx ends first the round's pending agents are dropped; callers must
// Stop the scheduler before touching the agents again.
func (s *Scheduler) Round(ctx context.Context, agents []*agent.Evolvable) (RoundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return RoundResult{}, ErrNotRunning
	}
	if err := checkDistinct(agents); err != nil {
		return RoundResult{}, err
	}

	done := NewDoneSet(len(agents))
	s.metrics.Start(s.workers)
	if err := s.queue.Push(done, agents...); err != nil {
		if s.gctx.Err() != nil {
			return RoundResult{}, s.abort()
		}
		return RoundResult{}, err
	}

	select {
	case <-done.Done():
		return RoundResult{Results: done.Results(), Metric: s.metrics.Complete()}, nil
	case <-ctx.Done():
		dropped := s.queue.Discard(done)
		log.Warn().Msgf("round cancelled with %d agents still queued", dropped)
		return RoundResult{}, ctx.Err()
	case <-s.gctx.Done():
		return RoundResult{}, s.abort()
	}
}

// abort shuts the pool down after its context ended and returns the worker
// error, or the context error when no worker failed.
func (s *Scheduler) abort() error {
	if err := s.shutdown(); err != nil {
		return err
	}
	return s.gctx.Err()
}

// RunRound plays a single round on a pool that lives only for this call.
// Workers exit as soon as no pair is left in the queue.
func (s *Scheduler) RunRound(ctx context.Context, agents []*agent.Evolvable) (RoundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkDistinct(agents); err != nil {
		return RoundResult{}, err
	}

	queue := NewWorkQueue(false)
	done := NewDoneSet(len(agents))
	s.metrics.Start(s.workers)
	if err := queue.Push(done, agents...); err != nil {
		return RoundResult{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	release := context.AfterFunc(gctx, queue.Close)
	defer release()
	for i := 0; i < s.workers; i++ {
		id := i
		g.Go(func() error {
			return s.work(gctx, id, queue)
		})
	}
	if err := g.Wait(); err != nil {
		return RoundResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return RoundResult{}, err
	}
	if !done.Complete() {
		return RoundResult{}, fmt.Errorf("%w: %d of %d", ErrIncompleteRound, done.Len(), len(agents))
	}
	return RoundResult{Results: done.Results(), Metric: s.metrics.Complete()}, nil
}

func (s *Scheduler) work(ctx context.Context, id int, queue *WorkQueue) error {
	for {
		pair, err := queue.ReservePair()
		if errors.Is(err, ErrQueueClosed) || errors.Is(err, ErrQueueExhausted) {
			return nil
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		if pair.Bye() {
			log.Debug().Msgf("worker %d: %s has no opponent this round", id, pair.A.ID())
			s.metrics.AddBye()
			if err := pair.done.Add(byeResult(pair.A), pair.A); err != nil {
				return err
			}
			continue
		}

		result, err := s.playMatch(id, pair.A, pair.B)
		if err != nil {
			return err
		}
		if err := pair.done.Add(result, pair.A, pair.B); err != nil {
			return err
		}
	}
}

// playMatch runs one game and applies its rating change. The worker owns both
// agents until they are handed to the done set.
func (s *Scheduler) playMatch(id int, a, b *agent.Evolvable) (MatchResult, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			s.metrics.AddRetry()
			log.Warn().Err(lastErr).Msgf("worker %d: retrying game %s vs %s (attempt %d)", id, a.ID(), b.ID(), attempt+1)
		}
		r, err := safePlay(a, b)
		if err != nil {
			lastErr = err
			continue
		}

		result := newMatchResult(a, b, r)
		if result.Tie {
			elo.Update(a, b, true, s.k)
		} else {
			elo.Update(result.Winner, result.Loser, false, s.k)
		}
		s.metrics.AddGame(r.Tie, r.Stalled, r.IllegalMoves[0]+r.IllegalMoves[1])
		return result, nil
	}
	return MatchResult{}, fmt.Errorf("%w: %s vs %s: %w", ErrMatchFailed, a.ID(), b.ID(), lastErr)
}

func safePlay(a, b *agent.Evolvable) (r engine.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic during game: %v", p)
		}
	}()
	return engine.Play(a, b), nil
}

func checkDistinct(agents []*agent.Evolvable) error {
	seen := make(map[string]struct{}, len(agents))
	for _, a := range agents {
		if _, ok := seen[a.ID()]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateAgent, a.ID())
		}
		seen[a.ID()] = struct{}{}
	}
	return nil
}
