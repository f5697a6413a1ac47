package alerting

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"ftsomon/app/internal/database"
	"ftsomon/app/internal/models"
	"ftsomon/app/internal/notify"
)

// AlertRecord is the per-metric alert state. Records are created lazily on
// the first verdict for a metric and live for the whole process. The
// scheduler goroutine mutates them through Apply while status API handlers
// read them through States, so all access goes through the Manager's mutex.
type AlertRecord struct {
	Current      models.AlertState
	LastNotified models.AlertState
	BreachSince  time.Time
	owed         *owedMessage
}

// owedMessage is a notification that has not yet been delivered. It is
// retried on later cycles until a send succeeds; the transition that
// produced it is never re-run.
type owedMessage struct {
	kind string
	text string
}

// Manager consumes verdicts cycle after cycle and decides when a
// notification is due: first breach of an episode, recovery, or nothing.
// Repeated breaches inside one episode are suppressed.
type Manager struct {
	notifier notify.Notifier
	provider string

	mu      sync.Mutex
	records map[string]*AlertRecord

	now func() time.Time
}

// NewManager creates an alert manager for the given provider address.
func NewManager(notifier notify.Notifier, provider string) *Manager {
	return &Manager{
		notifier: notifier,
		provider: provider,
		records:  make(map[string]*AlertRecord),
		now:      time.Now,
	}
}

// Apply runs one cycle of verdicts through the state machine, sending
// whatever notifications fall due. Metrics are handled independently; one
// metric's episode never masks another's.
func (m *Manager) Apply(ctx context.Context, verdicts []models.Verdict) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range verdicts {
		m.applyOne(ctx, v)
	}
}

func (m *Manager) applyOne(ctx context.Context, v models.Verdict) {
	rec := m.record(v.Metric)

	switch {
	case v.Status == models.VerdictBreach && rec.Current == models.StateNormal:
		// First breach of a new episode.
		rec.Current = models.StateAlerting
		rec.BreachSince = m.now()
		m.queue(rec, v.Metric, database.AlertKindBreach, m.breachMessage(v))
		log.Printf("alert: %s entered breach (%.2f < %.2f)", v.Metric, v.Observed, v.Threshold)

	case v.Status == models.VerdictBreach:
		// Sustained breach: suppressed, breach_since unchanged.

	case rec.Current == models.StateAlerting:
		// Recovery closes the episode.
		rec.Current = models.StateNormal
		rec.BreachSince = time.Time{}
		// Give an undelivered breach alert one last chance before the
		// recovery message replaces it; the journal keeps the record
		// either way.
		m.flushOwed(ctx, rec, v.Metric)
		m.queue(rec, v.Metric, database.AlertKindRecovery, m.recoveryMessage(v))
		log.Printf("alert: %s recovered (%.2f >= %.2f)", v.Metric, v.Observed, v.Threshold)
	}

	m.flushOwed(ctx, rec, v.Metric)
}

func (m *Manager) record(metric string) *AlertRecord {
	rec, ok := m.records[metric]
	if !ok {
		rec = &AlertRecord{Current: models.StateNormal, LastNotified: models.StateNormal}
		m.records[metric] = rec
	}
	return rec
}

// queue journals the notification and arms it for delivery.
func (m *Manager) queue(rec *AlertRecord, metric, kind, text string) {
	_ = database.InsertAlertEvent(metric, kind, text, false)
	rec.owed = &owedMessage{kind: kind, text: text}
}

// flushOwed attempts delivery of a pending notification. On failure the
// message stays owed and the record's status is left untouched; state
// reflects observed reality, not notification success.
func (m *Manager) flushOwed(ctx context.Context, rec *AlertRecord, metric string) {
	if rec.owed == nil {
		return
	}
	if err := m.notifier.Send(ctx, rec.owed.text); err != nil {
		log.Printf("alert: delivery failed for %s (%s), will retry next cycle: %v", metric, rec.owed.kind, err)
		_ = database.InsertLog(database.LogLevelError, database.LogCategoryAlert, metric, "Delivery failed, message re-armed", err.Error())
		return
	}
	_ = database.MarkAlertDelivered(metric, rec.owed.kind)
	switch rec.owed.kind {
	case database.AlertKindBreach:
		rec.LastNotified = models.StateAlerting
	case database.AlertKindRecovery:
		rec.LastNotified = models.StateNormal
	}
	rec.owed = nil
}

// SendSelfHealth reports the monitor's own inability to acquire data. This
// is a distinct alert class and does not touch any metric's record.
func (m *Manager) SendSelfHealth(ctx context.Context, consecutiveFailures int, cause error) {
	text := fmt.Sprintf("*FLARE PROVIDER MONITOR ERROR*\n\nProvider: `%s`\n\n"+
		"🔴 The monitor has failed to fetch the dashboard %d times in a row and is backing off. "+
		"Last error: %v\n\n_Timestamp: %s_",
		m.provider, consecutiveFailures, cause, m.timestamp())

	err := m.notifier.Send(ctx, text)
	_ = database.InsertAlertEvent("", database.AlertKindSelfHealth, text, err == nil)
	if err != nil {
		log.Printf("alert: self-health delivery failed: %v", err)
		return
	}
	log.Printf("alert: self-health notification sent after %d consecutive failures", consecutiveFailures)
}

// States returns a copy of the per-metric alert state for the status API.
// Safe to call from handler goroutines while the scheduler is applying
// verdicts.
func (m *Manager) States() map[string]models.MetricStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.MetricStatus, len(m.records))
	for metric, rec := range m.records {
		st := models.MetricStatus{
			Metric:       metric,
			State:        rec.Current,
			LastNotified: rec.LastNotified,
			OwedMessage:  rec.owed != nil,
		}
		if !rec.BreachSince.IsZero() {
			since := rec.BreachSince
			st.BreachSince = &since
		}
		out[metric] = st
	}
	return out
}

// metricLabels maps metric names to the wording used in alert texts.
var metricLabels = map[string]string{
	models.MetricAvailability6h:  "6h Availability",
	models.MetricAvailability24h: "24h Availability",
	models.MetricSuccess6hPri:    "6h Primary Success Rate",
	models.MetricSuccess6hSec:    "6h Secondary Success Rate",
	models.MetricSuccess24hPri:   "24h Primary Success Rate",
	models.MetricSuccess24hSec:   "24h Secondary Success Rate",
}

func label(metric string) string {
	if l, ok := metricLabels[metric]; ok {
		return l
	}
	return metric
}

func (m *Manager) breachMessage(v models.Verdict) string {
	return fmt.Sprintf("*FLARE PROVIDER ALERT*\n\nProvider: `%s`\n\n"+
		"⚠️ %s is low: %.2f%% (threshold: %.2f%%)\n\n_Timestamp: %s_",
		m.provider, label(v.Metric), v.Observed, v.Threshold, m.timestamp())
}

func (m *Manager) recoveryMessage(v models.Verdict) string {
	return fmt.Sprintf("*FLARE PROVIDER RECOVERY*\n\nProvider: `%s`\n\n"+
		"✅ %s recovered: %.2f%% (threshold: %.2f%%)\n\n_Timestamp: %s_",
		m.provider, label(v.Metric), v.Observed, v.Threshold, m.timestamp())
}

func (m *Manager) timestamp() string {
	return m.now().UTC().Format("2006-01-02 15:04:05")
}
