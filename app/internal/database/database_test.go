package database

import (
	"testing"
	"time"

	"ftsomon/app/internal/models"
)

func initTestDB(t *testing.T) {
	t.Helper()
	if err := Init(":memory:"); err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
}

// --- logs ---

func TestInsertAndGetLogs(t *testing.T) {
	initTestDB(t)

	if err := InsertLog(LogLevelInfo, LogCategorySchedule, "", "Cycle complete", "structural"); err != nil {
		t.Fatalf("InsertLog: %v", err)
	}
	if err := InsertLog(LogLevelError, LogCategoryFetch, "", "Dashboard fetch failed", "timeout"); err != nil {
		t.Fatalf("InsertLog: %v", err)
	}

	logs, err := GetLogs(10, "", "")
	if err != nil {
		t.Fatalf("GetLogs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}

	errorsOnly, err := GetLogs(10, LogLevelError, "")
	if err != nil {
		t.Fatalf("GetLogs filtered: %v", err)
	}
	if len(errorsOnly) != 1 || errorsOnly[0].Category != LogCategoryFetch {
		t.Errorf("filtered logs = %+v", errorsOnly)
	}
}

func TestGetLogStats(t *testing.T) {
	initTestDB(t)

	_ = InsertLog(LogLevelInfo, LogCategorySystem, "", "a", "")
	_ = InsertLog(LogLevelWarn, LogCategoryExtract, "", "b", "")
	_ = InsertLog(LogLevelError, LogCategoryAlert, "", "c", "")

	stats, err := GetLogStats()
	if err != nil {
		t.Fatalf("GetLogStats: %v", err)
	}
	if stats.TotalLogs != 3 || stats.ErrorCount != 1 || stats.WarnCount != 1 || stats.InfoCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestPruneLogs(t *testing.T) {
	initTestDB(t)

	for i := 0; i < 10; i++ {
		_ = InsertLog(LogLevelInfo, LogCategorySystem, "", "entry", "")
	}
	if err := PruneLogs(3); err != nil {
		t.Fatalf("PruneLogs: %v", err)
	}
	logs, _ := GetLogs(100, "", "")
	if len(logs) != 3 {
		t.Errorf("expected 3 logs after pruning, got %d", len(logs))
	}
}

// --- alert events ---

func TestAlertEventLifecycle(t *testing.T) {
	initTestDB(t)

	if err := InsertAlertEvent(models.MetricAvailability6h, AlertKindBreach, "breach text", false); err != nil {
		t.Fatalf("InsertAlertEvent: %v", err)
	}
	if err := MarkAlertDelivered(models.MetricAvailability6h, AlertKindBreach); err != nil {
		t.Fatalf("MarkAlertDelivered: %v", err)
	}

	events, err := RecentAlertEvents(10)
	if err != nil {
		t.Fatalf("RecentAlertEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if !events[0].Delivered {
		t.Error("event should be marked delivered")
	}
	if events[0].Kind != AlertKindBreach || events[0].Metric != models.MetricAvailability6h {
		t.Errorf("event = %+v", events[0])
	}
}

func TestRecentAlertEvents_NewestFirst(t *testing.T) {
	initTestDB(t)

	_ = InsertAlertEvent(models.MetricAvailability6h, AlertKindBreach, "first", true)
	_ = InsertAlertEvent(models.MetricAvailability6h, AlertKindRecovery, "second", true)

	events, err := RecentAlertEvents(10)
	if err != nil {
		t.Fatalf("RecentAlertEvents: %v", err)
	}
	if len(events) != 2 || events[0].Message != "second" {
		t.Errorf("events = %+v", events)
	}
}

// --- snapshots ---

func TestSaveAndLatestSnapshot(t *testing.T) {
	initTestDB(t)

	if snap, err := LatestSnapshot(); err != nil || snap != nil {
		t.Fatalf("empty table should yield nil, nil; got %v, %v", snap, err)
	}

	first := &models.MetricSnapshot{
		Timestamp:       time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
		Availability6h:  99.87,
		Availability24h: 99.45,
		Success6hPri:    48.80,
		Success6hSec:    95.87,
		Success24hPri:   46.60,
		Success24hSec:   95.85,
		Method:          models.MethodStructural,
	}
	if err := SaveSnapshot(first); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	second := *first
	second.Timestamp = second.Timestamp.Add(15 * time.Minute)
	second.Availability6h = 98.00
	second.Method = models.MethodSemantic
	if err := SaveSnapshot(&second); err != nil {
		t.Fatalf("SaveSnapshot upsert: %v", err)
	}

	got, err := LatestSnapshot()
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if got.Availability6h != 98.00 {
		t.Errorf("upsert did not replace: %v", got.Availability6h)
	}
	if got.Method != models.MethodSemantic {
		t.Errorf("method = %s", got.Method)
	}
	if !got.Timestamp.Equal(second.Timestamp) {
		t.Errorf("timestamp = %s, want %s", got.Timestamp, second.Timestamp)
	}
}
