package threshold

import "ftsomon/app/internal/models"

// Evaluate compares a snapshot against the configured minimums and returns
// one verdict per metric, in the fixed metric order. A value exactly equal
// to its threshold is OK; only strictly lower values breach.
//
// Pure function: identical input always yields the identical verdict slice.
func Evaluate(snap *models.MetricSnapshot, cfg models.ThresholdConfig) []models.Verdict {
	verdicts := make([]models.Verdict, 0, len(models.MetricNames))
	for _, name := range models.MetricNames {
		observed := snap.Value(name)
		min := cfg.Min(name)
		status := models.VerdictOK
		if observed < min {
			status = models.VerdictBreach
		}
		verdicts = append(verdicts, models.Verdict{
			Metric:    name,
			Observed:  observed,
			Threshold: min,
			Status:    status,
		})
	}
	return verdicts
}
