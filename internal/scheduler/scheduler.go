// Package scheduler runs the background jobs: fixed-interval loops and
// cron-scheduled tasks. Each job is its own fault domain; a failing or
// panicking iteration is logged and the job continues on its next tick.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/okcoin/okcoin-api/internal/pkg/metrics"
)

// JobFunc is one iteration of a job.
type JobFunc func(ctx context.Context) error

type loop struct {
	name     string
	interval time.Duration
	fn       JobFunc
}

// Scheduler owns the background jobs.
type Scheduler struct {
	cron    *cron.Cron
	loops   []loop
	timeout time.Duration

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New creates a scheduler whose cron jobs are evaluated in UTC.
func New() *Scheduler {
	cronLog := log.With().Str("component", "cron").Logger()
	logger := cron.PrintfLogger(&cronLog)

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(logger)),
			cron.WithLogger(logger),
		),
		timeout: 10 * time.Minute,
	}
}

// Every runs fn every interval, the first time right after Start.
func (s *Scheduler) Every(name string, interval time.Duration, fn JobFunc) {
	s.loops = append(s.loops, loop{name: name, interval: interval, fn: fn})
}

// Cron runs fn on a standard five-field cron spec.
func (s *Scheduler) Cron(name, spec string, fn JobFunc) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()
		if ctx == nil || ctx.Err() != nil {
			return
		}
		s.run(ctx, name, fn)
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	log.Info().Str("job", name).Str("spec", spec).Msg("Job scheduled")
	return nil
}

// Start launches every loop and the cron runner.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)

	for _, l := range s.loops {
		s.wg.Add(1)
		go s.runLoop(s.ctx, l)
	}
	s.cron.Start()
	log.Info().Int("loops", len(s.loops)).Int("cron_jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop cancels the loops and waits for running iterations to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.wg.Wait()
	log.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) runLoop(ctx context.Context, l loop) {
	defer s.wg.Done()
	log.Info().Str("job", l.name).Dur("interval", l.interval).Msg("Job loop started")

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	s.run(ctx, l.name, l.fn)
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("job", l.name).Msg("Job loop stopped")
			return
		case <-ticker.C:
			s.run(ctx, l.name, l.fn)
		}
	}
}

// run executes one iteration with a timeout, recording the outcome.
func (s *Scheduler) run(ctx context.Context, name string, fn JobFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	var err error
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic: %v", rec)
				log.Error().
					Str("job", name).
					Interface("panic", rec).
					Str("stack", string(debug.Stack())).
					Msg("Job panicked")
			}
		}()
		err = fn(ctx)
	}()

	metrics.RecordJobRun(name, err, time.Since(start))
	if err != nil && ctx.Err() == nil {
		log.Error().Err(err).Str("job", name).Msg("Job iteration failed")
	}
}
