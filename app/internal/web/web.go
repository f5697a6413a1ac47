package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ftsomon/app/internal/alerting"
	"ftsomon/app/internal/database"
	"ftsomon/app/internal/models"
)

// HandleHealthz reports that the monitor process is alive.
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// HandleStatus returns the latest snapshot, the per-metric alert states and
// the recent alert history as one payload.
func HandleStatus(alerts *alerting.Manager, provider, network string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := models.StatusPayload{
			T:        time.Now().UTC(),
			Provider: provider,
			Network:  network,
			Metrics:  alerts.States(),
		}

		if snap, err := database.LatestSnapshot(); err == nil {
			out.Snapshot = snap
		}
		if events, err := database.RecentAlertEvents(20); err == nil {
			out.Alerts = events
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// HandleLogs returns recent monitor logs with optional filtering.
func HandleLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 100
		if l := r.URL.Query().Get("limit"); l != "" {
			fmt.Sscanf(l, "%d", &limit)
			if limit > 500 {
				limit = 500
			}
		}

		level := r.URL.Query().Get("level")
		category := r.URL.Query().Get("category")

		logs, err := database.GetLogs(limit, level, category)
		if err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}

		if logs == nil {
			logs = []models.LogEntry{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"logs": logs,
		})
	}
}

// HandleLogStats returns log statistics.
func HandleLogStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.GetLogStats()
		if err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats)
	}
}

// SetupRoutes wires the read-only status endpoints.
func SetupRoutes(alerts *alerting.Manager, provider, network string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", HandleHealthz())
	mux.HandleFunc("/api/status", HandleStatus(alerts, provider, network))
	mux.HandleFunc("/api/logs", HandleLogs())
	mux.HandleFunc("/api/logs/stats", HandleLogStats())
	return mux
}
