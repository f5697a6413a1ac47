package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ftsomon/app/internal/models"
)

// Kind classifies an extraction failure.
type Kind string

const (
	KindIncomplete       Kind = "incomplete"
	KindStructureChanged Kind = "structure_changed"
)

// ExtractionError is returned when neither parsing path yields six valid
// percentages. The cycle that hit it is skipped; nothing is retried within
// the same tick.
type ExtractionError struct {
	Kind    Kind
	Missing []string
	Err     error
}

func (e *ExtractionError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("extraction %s: missing %s", e.Kind, strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		return fmt.Sprintf("extraction %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("extraction %s", e.Kind)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// SemanticClient extracts the six metric fields from raw page content using
// a language-understanding service. Its output is untrusted and re-validated
// against the [0,100] range rule.
type SemanticClient interface {
	ExtractFields(ctx context.Context, content string) (map[string]float64, error)
}

// Extractor parses raw dashboard content into a MetricSnapshot. It tries
// deterministic structural parsing first and only consults the semantic
// client when the structural pass comes back incomplete.
type Extractor struct {
	Semantic SemanticClient
	now      func() time.Time
}

// New creates an Extractor. The semantic client may be nil, in which case
// incomplete structural parses fail outright.
func New(semantic SemanticClient) *Extractor {
	return &Extractor{Semantic: semantic, now: time.Now}
}

// Extract parses raw content into a fully-populated snapshot or fails.
// Partial snapshots are never produced.
func (e *Extractor) Extract(ctx context.Context, raw string) (*models.MetricSnapshot, error) {
	fields := parseStructural(raw)
	if snap, ok := e.buildSnapshot(fields, models.MethodStructural); ok {
		return snap, nil
	}

	if e.Semantic == nil {
		return nil, structuralFailure(fields)
	}

	extracted, err := e.Semantic.ExtractFields(ctx, raw)
	if err != nil {
		return nil, &ExtractionError{Kind: KindIncomplete, Missing: missingNames(fields), Err: err}
	}

	fields = validateFields(extracted)
	if snap, ok := e.buildSnapshot(fields, models.MethodSemantic); ok {
		return snap, nil
	}
	return nil, &ExtractionError{Kind: KindIncomplete, Missing: missingNames(fields)}
}

func structuralFailure(fields map[string]float64) error {
	if len(fields) == 0 {
		return &ExtractionError{Kind: KindStructureChanged, Missing: missingNames(fields)}
	}
	return &ExtractionError{Kind: KindIncomplete, Missing: missingNames(fields)}
}

func (e *Extractor) buildSnapshot(fields map[string]float64, method models.ExtractionMethod) (*models.MetricSnapshot, bool) {
	if len(missingNames(fields)) > 0 {
		return nil, false
	}
	return &models.MetricSnapshot{
		Timestamp:       e.now().UTC(),
		Availability6h:  fields[models.MetricAvailability6h],
		Availability24h: fields[models.MetricAvailability24h],
		Success6hPri:    fields[models.MetricSuccess6hPri],
		Success6hSec:    fields[models.MetricSuccess6hSec],
		Success24hPri:   fields[models.MetricSuccess24hPri],
		Success24hSec:   fields[models.MetricSuccess24hSec],
		Method:          method,
	}, true
}

func missingNames(fields map[string]float64) []string {
	var missing []string
	for _, name := range models.MetricNames {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// anchorRe matches the dashboard's window blocks: a "LAST 6 HOURS" or
// "LAST 24 HOURS" label followed by either a lone percentage (availability)
// or a "primary % / secondary %" pair (success rate).
var anchorRe = regexp.MustCompile(`(?is)LAST\s+(6|24)\s+HOURS\s*([0-9]+(?:\.[0-9]+)?)\s*%(?:\s*/\s*([0-9]+(?:\.[0-9]+)?)\s*%)?`)

// parseStructural locates the six fields via the fixed content anchors.
// Values outside [0,100] or non-numeric are treated as absent, never clamped.
func parseStructural(raw string) map[string]float64 {
	fields := make(map[string]float64)
	set := func(name string, v float64, ok bool) {
		if !ok {
			return
		}
		if _, seen := fields[name]; !seen {
			fields[name] = v
		}
	}

	for _, m := range anchorRe.FindAllStringSubmatch(raw, -1) {
		window := m[1]
		if m[3] != "" {
			// "primary % / secondary %" pair
			pri, okPri := parsePercent(m[2])
			sec, okSec := parsePercent(m[3])
			if window == "6" {
				set(models.MetricSuccess6hPri, pri, okPri)
				set(models.MetricSuccess6hSec, sec, okSec)
			} else {
				set(models.MetricSuccess24hPri, pri, okPri)
				set(models.MetricSuccess24hSec, sec, okSec)
			}
			continue
		}
		v, ok := parsePercent(m[2])
		if window == "6" {
			set(models.MetricAvailability6h, v, ok)
		} else {
			set(models.MetricAvailability24h, v, ok)
		}
	}
	return fields
}

// validateFields filters a semantic-extraction result down to known metric
// names with in-range values.
func validateFields(extracted map[string]float64) map[string]float64 {
	fields := make(map[string]float64)
	for _, name := range models.MetricNames {
		if v, ok := extracted[name]; ok && v >= 0 && v <= 100 {
			fields[name] = v
		}
	}
	return fields
}

func parsePercent(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || v > 100 {
		return 0, false
	}
	return v, true
}
