// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sink receives published payloads. publish.Connection, publish.Fanout and
// recorder.Recorder implement it.
type Sink interface {
	CreatePublisher(topic string) error
	Publish(topic string, payload any) error
}

// Logger is the subset of logging.Logger the scheduler uses.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// CycleError reports which stage of a cycle failed.
type CycleError struct {
	Job   string
	Stage string // "poll" or "publish"
	Err   error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Job, e.Stage, e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }

// Scheduler runs jobs one at a time: poll, publish, sleep until the next due
// job. Nothing runs concurrently, so jobs sharing a bus never overlap.
type Scheduler struct {
	Sink   Sink
	Logger Logger

	// now and sleep are replaced in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewScheduler returns a scheduler publishing to sink.
func NewScheduler(sink Sink, logger Logger) *Scheduler {
	return &Scheduler{
		Sink:   sink,
		Logger: logger,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Cycle performs one poll and, on success, one publish of the job.
// A failed poll publishes nothing.
func (s *Scheduler) Cycle(j Job) error {
	payload, err := j.Poll()
	if err != nil {
		return &CycleError{Job: j.Name, Stage: "poll", Err: err}
	}
	if err := s.Sink.Publish(j.Topic, payload); err != nil {
		return &CycleError{Job: j.Name, Stage: "publish", Err: err}
	}
	return nil
}

// Run registers a publisher per job topic and cycles the jobs until ctx is
// done. A failed cycle is logged and skipped.
func (s *Scheduler) Run(ctx context.Context, jobs ...Job) error {
	if len(jobs) == 0 {
		return errors.New("poll: no jobs to run")
	}
	for _, j := range jobs {
		if err := s.Sink.CreatePublisher(j.Topic); err != nil {
			return fmt.Errorf("poll: create publisher %q: %w", j.Topic, err)
		}
	}

	start := s.now()
	due := make([]time.Time, len(jobs))
	for i := range due {
		due[i] = start
	}

	for {
		next := 0
		for i := range due {
			if due[i].Before(due[next]) {
				next = i
			}
		}

		if wait := due[next].Sub(s.now()); wait > 0 {
			if err := s.sleep(ctx, wait); err != nil {
				return nil
			}
		} else if ctx.Err() != nil {
			return nil
		}

		j := jobs[next]
		if err := s.Cycle(j); err != nil {
			s.Logger.Warn("cycle skipped", "job", j.Name, "topic", j.Topic, "error", err)
		}

		due[next] = due[next].Add(j.Interval)
		if now := s.now(); due[next].Before(now) {
			// Overran; do not try to catch up.
			due[next] = now.Add(j.Interval)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
