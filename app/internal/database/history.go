package database

import (
	"database/sql"
	"time"

	"ftsomon/app/internal/models"
)

// Alert event kinds stored in the history.
const (
	AlertKindBreach     = "breach"
	AlertKindRecovery   = "recovery"
	AlertKindSelfHealth = "self_health"
)

// InsertAlertEvent records one notification attempt and its outcome.
func InsertAlertEvent(metric, kind, message string, delivered bool) error {
	d := 0
	if delivered {
		d = 1
	}
	_, err := DB.Exec(`INSERT INTO alert_events (created_at, metric, kind, message, delivered)
		VALUES (datetime('now'), ?, ?, ?, ?)`, metric, kind, message, d)
	return err
}

// MarkAlertDelivered flips the delivered flag on the newest event for a
// metric/kind pair, used when an owed message finally goes out.
func MarkAlertDelivered(metric, kind string) error {
	_, err := DB.Exec(`UPDATE alert_events SET delivered = 1 WHERE id = (
		SELECT id FROM alert_events WHERE metric = ? AND kind = ? ORDER BY id DESC LIMIT 1
	)`, metric, kind)
	return err
}

// RecentAlertEvents returns the newest events, most recent first.
func RecentAlertEvents(limit int) ([]models.AlertEvent, error) {
	rows, err := DB.Query(`SELECT id, created_at, metric, kind, message, delivered
		FROM alert_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.AlertEvent
	for rows.Next() {
		var ev models.AlertEvent
		var delivered int
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &ev.Metric, &ev.Kind, &ev.Message, &delivered); err != nil {
			return nil, err
		}
		ev.Delivered = delivered == 1
		events = append(events, ev)
	}
	return events, rows.Err()
}

// SaveSnapshot upserts the latest successfully extracted snapshot.
func SaveSnapshot(s *models.MetricSnapshot) error {
	_, err := DB.Exec(`INSERT INTO snapshots
		(id, taken_at, availability_6h, availability_24h, success_6h_primary, success_6h_secondary, success_24h_primary, success_24h_secondary, method)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		taken_at=excluded.taken_at,
		availability_6h=excluded.availability_6h,
		availability_24h=excluded.availability_24h,
		success_6h_primary=excluded.success_6h_primary,
		success_6h_secondary=excluded.success_6h_secondary,
		success_24h_primary=excluded.success_24h_primary,
		success_24h_secondary=excluded.success_24h_secondary,
		method=excluded.method`,
		s.Timestamp.UTC().Format(time.RFC3339), s.Availability6h, s.Availability24h,
		s.Success6hPri, s.Success6hSec, s.Success24hPri, s.Success24hSec, string(s.Method))
	return err
}

// LatestSnapshot returns the most recently persisted snapshot, or nil if
// none has been stored yet.
func LatestSnapshot() (*models.MetricSnapshot, error) {
	var s models.MetricSnapshot
	var takenAt, method string
	err := DB.QueryRow(`SELECT taken_at, availability_6h, availability_24h,
		success_6h_primary, success_6h_secondary, success_24h_primary, success_24h_secondary, method
		FROM snapshots WHERE id = 1`).
		Scan(&takenAt, &s.Availability6h, &s.Availability24h,
			&s.Success6hPri, &s.Success6hSec, &s.Success24hPri, &s.Success24hSec, &method)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if ts, perr := time.Parse(time.RFC3339, takenAt); perr == nil {
		s.Timestamp = ts
	}
	s.Method = models.ExtractionMethod(method)
	return &s, nil
}
