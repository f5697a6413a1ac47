package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"ftsomon/app/internal/alerting"
	"ftsomon/app/internal/database"
	"ftsomon/app/internal/extract"
	"ftsomon/app/internal/models"
	"ftsomon/app/internal/notify"
	"ftsomon/app/internal/source"
)

const healthyBody = `LAST 6 HOURS
99.87 %
LAST 6 HOURS
48.80 % / 95.87 %
LAST 24 HOURS
99.45 %
LAST 24 HOURS
46.60 % / 95.85 %`

// fakeSource replays a scripted sequence of fetch results.
type fakeSource struct {
	results []fetchResult
	calls   int
}

type fetchResult struct {
	body string
	err  error
}

func (f *fakeSource) Fetch(ctx context.Context) (string, error) {
	r := f.results[f.calls%len(f.results)]
	f.calls++
	return r.body, r.err
}

type countingNotifier struct {
	sent []string
}

func (c *countingNotifier) Send(ctx context.Context, text string) error {
	c.sent = append(c.sent, text)
	return nil
}

var _ notify.Notifier = (*countingNotifier)(nil)

func acquisitionFailure() fetchResult {
	return fetchResult{err: &source.AcquisitionError{Kind: source.KindNavigationFailed, Err: errors.New("boom")}}
}

func newTestScheduler(t *testing.T, src source.Source, sem extract.SemanticClient) (*Scheduler, *countingNotifier) {
	t.Helper()
	if err := database.Init(":memory:"); err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	cn := &countingNotifier{}
	alerts := alerting.NewManager(cn, "0xProvider")
	th := models.ThresholdConfig{
		MinAvailability6h:  90.0,
		MinAvailability24h: 90.0,
		MinSuccess6hPri:    20.0,
		MinSuccess6hSec:    85.0,
		MinSuccess24hPri:   20.0,
		MinSuccess24hSec:   85.0,
	}
	s := New(src, extract.New(sem), th, alerts, 900*time.Second, 3600*time.Second, 5)
	return s, cn
}

// --- backoff state machine ---

func TestRunCycle_BackoffGrowsAndCaps(t *testing.T) {
	src := &fakeSource{results: []fetchResult{acquisitionFailure()}}
	s, _ := newTestScheduler(t, src, nil)
	ctx := context.Background()

	wants := []time.Duration{
		900 * time.Second,  // first failure retries at the base interval
		1800 * time.Second, // then capped doubling
		3600 * time.Second,
		3600 * time.Second,
		3600 * time.Second,
	}
	for i, want := range wants {
		if got := s.RunCycle(ctx); got != want {
			t.Errorf("failure %d: wait = %s, want %s", i+1, got, want)
		}
	}
	if s.failures != 5 {
		t.Errorf("consecutive failures = %d, want 5", s.failures)
	}
}

func TestRunCycle_SuccessResetsBackoff(t *testing.T) {
	src := &fakeSource{results: []fetchResult{
		acquisitionFailure(),
		acquisitionFailure(),
		{body: healthyBody},
		acquisitionFailure(),
	}}
	s, _ := newTestScheduler(t, src, nil)
	ctx := context.Background()

	s.RunCycle(ctx) // fail -> 900
	s.RunCycle(ctx) // fail -> 1800

	if got := s.RunCycle(ctx); got != 900*time.Second {
		t.Errorf("successful cycle should wait the base interval, got %s", got)
	}
	if s.failures != 0 || s.backoff != 0 {
		t.Errorf("backoff state not reset: failures=%d backoff=%s", s.failures, s.backoff)
	}

	// Growth starts over after the reset.
	if got := s.RunCycle(ctx); got != 900*time.Second {
		t.Errorf("first failure after reset should wait the base interval, got %s", got)
	}
}

// --- self-health alert (scenario E) ---

func TestRunCycle_SelfHealthAlertFiresOnceAtThreshold(t *testing.T) {
	src := &fakeSource{results: []fetchResult{acquisitionFailure()}}
	s, cn := newTestScheduler(t, src, nil)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		s.RunCycle(ctx)
	}
	if len(cn.sent) != 0 {
		t.Fatalf("self-health alert fired before the threshold: %d", len(cn.sent))
	}

	s.RunCycle(ctx) // fifth consecutive failure
	if len(cn.sent) != 1 {
		t.Fatalf("expected exactly 1 self-health alert at the threshold, got %d", len(cn.sent))
	}

	for i := 0; i < 3; i++ {
		s.RunCycle(ctx)
	}
	if len(cn.sent) != 1 {
		t.Errorf("self-health alert must not repeat past the threshold, got %d", len(cn.sent))
	}
}

func TestRunCycle_SelfHealthReArmsAfterReset(t *testing.T) {
	results := make([]fetchResult, 0, 11)
	for i := 0; i < 5; i++ {
		results = append(results, acquisitionFailure())
	}
	results = append(results, fetchResult{body: healthyBody})
	for i := 0; i < 5; i++ {
		results = append(results, acquisitionFailure())
	}
	src := &fakeSource{results: results}
	s, cn := newTestScheduler(t, src, nil)
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		s.RunCycle(ctx)
	}
	if len(cn.sent) != 2 {
		t.Errorf("expected one self-health alert per degradation episode, got %d", len(cn.sent))
	}
}

// --- extraction failure (scenario D) ---

func TestRunCycle_ExtractionFailureSkipsCycle(t *testing.T) {
	// 4 of 6 fields present, and no semantic client to fall back on.
	partial := `LAST 6 HOURS 99.87 % LAST 6 HOURS 48.80 % / 95.87 % LAST 24 HOURS 99.45 %`
	src := &fakeSource{results: []fetchResult{{body: partial}}}
	s, cn := newTestScheduler(t, src, nil)

	wait := s.RunCycle(context.Background())
	if wait != 900*time.Second {
		t.Errorf("extraction failure should wait the base interval, got %s", wait)
	}
	if s.failures != 0 {
		t.Error("extraction failure must not feed the acquisition failure count")
	}
	if len(s.Alerts.States()) != 0 {
		t.Error("no AlertRecord may be mutated when extraction fails")
	}
	if len(cn.sent) != 0 {
		t.Errorf("no notification expected, got %d", len(cn.sent))
	}
}

// --- full pipeline ---

func TestRunCycle_BreachFlowsThroughToNotifier(t *testing.T) {
	degraded := `LAST 6 HOURS
89.90 %
LAST 6 HOURS
48.80 % / 95.87 %
LAST 24 HOURS
99.45 %
LAST 24 HOURS
46.60 % / 95.85 %`
	src := &fakeSource{results: []fetchResult{{body: degraded}}}
	s, cn := newTestScheduler(t, src, nil)

	s.RunCycle(context.Background())
	if len(cn.sent) != 1 {
		t.Fatalf("expected 1 breach alert, got %d", len(cn.sent))
	}

	// Snapshot persisted for the status API.
	snap, err := database.LatestSnapshot()
	if err != nil || snap == nil {
		t.Fatalf("LatestSnapshot: %v, %v", snap, err)
	}
	if snap.Availability6h != 89.90 {
		t.Errorf("persisted availability_6h = %v", snap.Availability6h)
	}
}

// --- log pruning ---

func TestRunCycle_SuccessfulCyclePrunesLogs(t *testing.T) {
	src := &fakeSource{results: []fetchResult{{body: healthyBody}}}
	s, _ := newTestScheduler(t, src, nil)

	for i := 0; i < maxLogRows+10; i++ {
		_ = database.InsertLog(database.LogLevelInfo, database.LogCategorySystem, "", "entry", "")
	}

	s.RunCycle(context.Background())

	logs, err := database.GetLogs(maxLogRows+100, "", "")
	if err != nil {
		t.Fatalf("GetLogs: %v", err)
	}
	if len(logs) != maxLogRows {
		t.Errorf("log table should be pruned to %d rows, got %d", maxLogRows, len(logs))
	}
}

// --- shutdown ---

func TestRun_StopsOnContextCancel(t *testing.T) {
	src := &fakeSource{results: []fetchResult{{body: healthyBody}}}
	s, _ := newTestScheduler(t, src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("graceful shutdown should return nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop promptly after cancellation")
	}
}
