package scheduler

import (
	"context"
	"log"
	"time"

	"ftsomon/app/internal/alerting"
	"ftsomon/app/internal/database"
	"ftsomon/app/internal/extract"
	"ftsomon/app/internal/models"
	"ftsomon/app/internal/source"
	"ftsomon/app/internal/threshold"
)

// maxLogRows bounds the monitor_logs table; older rows are pruned after
// each successful cycle so the journal file stays small on long runs.
const maxLogRows = 1000

// Scheduler drives the scrape-parse-evaluate-notify pipeline on a fixed
// interval. Cycles never overlap; one must finish or fail before the next
// begins. Acquisition failures stretch the wait before the next attempt via
// capped doubling, and after FailureAlertAfter consecutive failures a
// self-health alert tells operators the monitor itself is degraded.
type Scheduler struct {
	Source            source.Source
	Extractor         *extract.Extractor
	Thresholds        models.ThresholdConfig
	Alerts            *alerting.Manager
	Interval          time.Duration
	BackoffCap        time.Duration
	FailureAlertAfter int

	// Backoff state, transitioned deterministically so growth and reset
	// are testable without real timers.
	failures int
	backoff  time.Duration

	sleep func(ctx context.Context, d time.Duration) bool
}

// New creates a scheduler over the assembled pipeline.
func New(src source.Source, ex *extract.Extractor, th models.ThresholdConfig, alerts *alerting.Manager, interval, backoffCap time.Duration, failureAlertAfter int) *Scheduler {
	if backoffCap < interval {
		backoffCap = interval
	}
	return &Scheduler{
		Source:            src,
		Extractor:         ex,
		Thresholds:        th,
		Alerts:            alerts,
		Interval:          interval,
		BackoffCap:        backoffCap,
		FailureAlertAfter: failureAlertAfter,
		sleep:             sleepCtx,
	}
}

// Run loops until the context is cancelled. It returns nil on graceful
// shutdown; no failure inside a cycle ever terminates the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Printf("scheduler: starting, interval %s", s.Interval)
	for {
		if ctx.Err() != nil {
			return nil
		}
		wait := s.RunCycle(ctx)
		if !s.sleep(ctx, wait) {
			log.Printf("scheduler: shutdown requested, stopping")
			return nil
		}
	}
}

// RunCycle executes one full cycle and returns the wait before the next.
// All stage failures resolve into "skip this cycle, continue".
func (s *Scheduler) RunCycle(ctx context.Context) time.Duration {
	raw, err := s.Source.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return 0
		}
		wait := s.observeFailure()
		log.Printf("scheduler: fetch failed (%d consecutive): %v; next attempt in %s", s.failures, err, wait)
		_ = database.InsertLog(database.LogLevelError, database.LogCategoryFetch, "", "Dashboard fetch failed", err.Error())
		if s.failures == s.FailureAlertAfter {
			s.Alerts.SendSelfHealth(ctx, s.failures, err)
		}
		return wait
	}

	snap, err := s.Extractor.Extract(ctx, raw)
	if err != nil {
		// Skipped at the natural tick; extraction trouble is not an
		// acquisition failure and never feeds the backoff counter.
		log.Printf("scheduler: extraction failed, skipping cycle: %v", err)
		_ = database.InsertLog(database.LogLevelWarn, database.LogCategoryExtract, "", "Extraction failed, cycle skipped", err.Error())
		return s.Interval
	}

	verdicts := threshold.Evaluate(snap, s.Thresholds)
	s.Alerts.Apply(ctx, verdicts)

	_ = database.SaveSnapshot(snap)
	_ = database.InsertLog(database.LogLevelInfo, database.LogCategorySchedule, "", "Cycle complete",
		string(snap.Method))
	_ = database.PruneLogs(maxLogRows)

	s.observeSuccess()
	return s.Interval
}

// observeFailure advances the backoff state: the first failure retries at
// the base interval, each further failure doubles the wait up to the cap.
func (s *Scheduler) observeFailure() time.Duration {
	s.failures++
	if s.backoff == 0 {
		s.backoff = s.Interval
	} else {
		s.backoff *= 2
		if s.backoff > s.BackoffCap {
			s.backoff = s.BackoffCap
		}
	}
	return s.backoff
}

// observeSuccess resets the backoff state after a fully successful cycle.
func (s *Scheduler) observeSuccess() {
	s.failures = 0
	s.backoff = 0
}

// sleepCtx waits for d or until the context is done. Returns false when the
// wait was interrupted by shutdown.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
