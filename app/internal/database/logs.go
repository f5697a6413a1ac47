package database

import "ftsomon/app/internal/models"

// LogLevel constants
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// LogCategory constants
const (
	LogCategoryFetch    = "fetch"
	LogCategoryExtract  = "extract"
	LogCategoryAlert    = "alert"
	LogCategorySchedule = "schedule"
	LogCategorySystem   = "system"
)

// InsertLog adds a new log entry
func InsertLog(level, category, metric, message, details string) error {
	_, err := DB.Exec(`INSERT INTO monitor_logs (timestamp, level, category, metric, message, details)
		VALUES (datetime('now'), ?, ?, ?, ?, ?)`,
		level, category, metric, message, details)
	return err
}

// GetLogs retrieves logs with optional filtering
func GetLogs(limit int, level, category string) ([]models.LogEntry, error) {
	query := `SELECT id, timestamp, level, category, COALESCE(metric, ''), message, COALESCE(details, '')
		FROM monitor_logs WHERE 1=1`
	args := []interface{}{}

	if level != "" {
		query += " AND level = ?"
		args = append(args, level)
	}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}

	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.LogEntry
	for rows.Next() {
		var entry models.LogEntry
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Level, &entry.Category, &entry.Metric, &entry.Message, &entry.Details); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// GetLogStats returns statistics about logs
func GetLogStats() (*models.LogStats, error) {
	var stats models.LogStats

	err := DB.QueryRow(`SELECT COUNT(*) FROM monitor_logs`).Scan(&stats.TotalLogs)
	if err != nil {
		return nil, err
	}

	_ = DB.QueryRow(`SELECT COUNT(*) FROM monitor_logs WHERE level = 'error'`).Scan(&stats.ErrorCount)
	_ = DB.QueryRow(`SELECT COUNT(*) FROM monitor_logs WHERE level = 'warn'`).Scan(&stats.WarnCount)
	_ = DB.QueryRow(`SELECT COUNT(*) FROM monitor_logs WHERE level = 'info'`).Scan(&stats.InfoCount)
	_ = DB.QueryRow(`SELECT COUNT(*) FROM monitor_logs WHERE level = 'debug'`).Scan(&stats.DebugCount)

	return &stats, nil
}

// PruneLogs removes old logs to keep the database size manageable (keeps last N logs)
func PruneLogs(keepCount int) error {
	_, err := DB.Exec(`DELETE FROM monitor_logs WHERE id NOT IN (
		SELECT id FROM monitor_logs ORDER BY timestamp DESC, id DESC LIMIT ?
	)`, keepCount)
	return err
}
