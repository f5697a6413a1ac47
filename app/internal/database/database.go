package database

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// DB is the global database instance
var DB *sql.DB

// Init initializes the database connection and creates schema
func Init(dbPath string) error {
	var err error
	DB, err = sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	return EnsureSchema()
}

// EnsureSchema creates all necessary database tables
func EnsureSchema() error {
	_, err := DB.Exec(`
CREATE TABLE IF NOT EXISTS alert_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  created_at TEXT NOT NULL,
  metric TEXT NOT NULL,
  kind TEXT NOT NULL,
  message TEXT NOT NULL,
  delivered INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alert_events_created ON alert_events(created_at);
CREATE INDEX IF NOT EXISTS idx_alert_events_metric ON alert_events(metric);

CREATE TABLE IF NOT EXISTS monitor_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  timestamp TEXT NOT NULL,
  level TEXT NOT NULL,
  category TEXT NOT NULL,
  metric TEXT,
  message TEXT NOT NULL,
  details TEXT
);
CREATE INDEX IF NOT EXISTS idx_monitor_logs_ts ON monitor_logs(timestamp);

CREATE TABLE IF NOT EXISTS snapshots (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  taken_at TEXT NOT NULL,
  availability_6h REAL NOT NULL,
  availability_24h REAL NOT NULL,
  success_6h_primary REAL NOT NULL,
  success_6h_secondary REAL NOT NULL,
  success_24h_primary REAL NOT NULL,
  success_24h_secondary REAL NOT NULL,
  method TEXT NOT NULL
);
`)
	return err
}

// Close closes the database connection.
func Close() error {
	if DB == nil {
		return nil
	}
	return DB.Close()
}
