// Package preprocess validates and repairs raw telemetry batches: envelope
// clipping, duplicate-key resolution, bounded forward-fill of missing values,
// and per-unit contiguity validation. Cleaning is a pure function of the input
// batch and the policy; defects surface in the report, never as a panic or an
// aborted run.
package preprocess

import (
	"sort"
	"time"

	"go.uber.org/zap"

	gserr "github.com/gridguardian/gridsim/pkg/errors"
	"github.com/gridguardian/gridsim/pkg/models"
)

// Policy configures the cleaning pass.
type Policy struct {
	// Envelopes are the physical bounds used to clip out-of-range values.
	Envelopes [models.NumChannels]models.Envelope
	// MaxFillGap bounds forward-filling of missing sensor values: a missing
	// reading further than this from the unit's last valid reading drops the row.
	MaxFillGap time.Duration
}

// DefaultPolicy uses the documented envelopes and a three-hour fill bound.
func DefaultPolicy() Policy {
	return Policy{Envelopes: models.DefaultEnvelopes, MaxFillGap: 3 * time.Hour}
}

// Report describes everything the cleaning pass repaired or rejected.
type Report struct {
	InputRows         int
	OutputRows        int
	DuplicatesDropped int
	ValuesClipped     int
	ValuesFilled      int
	RowsDropped       int // unusable key or unfillable missing value

	// Excluded lists units whose series was not a contiguous hourly sequence
	// after cleaning; their rows are absent from the output batch.
	Excluded []*gserr.DataIntegrityError
}

// Preprocessor cleans raw telemetry batches under a fixed policy.
type Preprocessor struct {
	policy Policy
	logger *zap.Logger
}

// New builds a preprocessor.
func New(policy Policy, logger *zap.Logger) *Preprocessor {
	if policy.MaxFillGap < 0 {
		policy.MaxFillGap = 0
	}
	return &Preprocessor{policy: policy, logger: logger}
}

// Clean returns a new batch ordered ascending by (equipment ID, timestamp) with
// the same key space as the input minus dropped rows and excluded units. The
// input batch is never mutated.
func (p *Preprocessor) Clean(batch []models.TelemetryRecord) ([]models.TelemetryRecord, Report) {
	report := Report{InputRows: len(batch)}

	byUnit := make(map[string][]models.TelemetryRecord)
	var unitOrder []string
	for _, rec := range batch {
		if !rec.HasKey() {
			report.RowsDropped++
			continue
		}
		if _, seen := byUnit[rec.EquipmentID]; !seen {
			unitOrder = append(unitOrder, rec.EquipmentID)
		}
		byUnit[rec.EquipmentID] = append(byUnit[rec.EquipmentID], rec)
	}
	sort.Strings(unitOrder)

	cleaned := make([]models.TelemetryRecord, 0, len(batch))
	for _, id := range unitOrder {
		series, unitReport := p.cleanSeries(id, byUnit[id])
		report.DuplicatesDropped += unitReport.DuplicatesDropped
		report.ValuesClipped += unitReport.ValuesClipped
		report.ValuesFilled += unitReport.ValuesFilled
		report.RowsDropped += unitReport.RowsDropped

		if diag := contiguityError(id, series); diag != nil {
			report.Excluded = append(report.Excluded, diag)
			p.logger.Warn("excluding equipment unit from batch",
				zap.String("equipment_id", id),
				zap.String("reason", diag.Detail))
			continue
		}
		cleaned = append(cleaned, series...)
	}

	report.OutputRows = len(cleaned)
	return cleaned, report
}

// cleanSeries sorts, deduplicates, clips, and fill-or-drops one unit's rows.
func (p *Preprocessor) cleanSeries(id string, rows []models.TelemetryRecord) ([]models.TelemetryRecord, Report) {
	var report Report

	// Stable sort keeps generation order among equal timestamps, so "keep the
	// most recently generated duplicate" is "keep the last occurrence".
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})

	deduped := rows[:0:0]
	for i, rec := range rows {
		if i+1 < len(rows) && rows[i+1].Timestamp.Equal(rec.Timestamp) {
			report.DuplicatesDropped++
			continue
		}
		deduped = append(deduped, rec)
	}

	var lastValid [models.NumChannels]float64
	var lastValidAt [models.NumChannels]time.Time

	series := make([]models.TelemetryRecord, 0, len(deduped))
	for _, rec := range deduped {
		keep := true
		clipped, filled := 0, 0
		var observed [models.NumChannels]bool
		for ch := 0; ch < models.NumChannels; ch++ {
			c := models.Channel(ch)
			if rec.IsMissing(c) {
				// Forward-fill from the unit's own series, bounded by the gap
				// policy; an unfillable value invalidates the whole row.
				if !lastValidAt[ch].IsZero() && rec.Timestamp.Sub(lastValidAt[ch]) <= p.policy.MaxFillGap {
					rec.SetValue(c, lastValid[ch])
					filled++
				} else {
					keep = false
					break
				}
			} else {
				env := p.policy.Envelopes[ch]
				if !env.Contains(rec.Value(c)) {
					rec.SetValue(c, env.Clamp(rec.Value(c)))
					clipped++
				}
				observed[ch] = true
			}
		}
		if !keep {
			report.RowsDropped++
			continue
		}
		// Repairs count, and observed values become fill sources, only once the
		// row is known to survive; a dropped row contributes neither.
		report.ValuesClipped += clipped
		report.ValuesFilled += filled
		for ch, ok := range observed {
			if ok {
				lastValid[ch] = rec.Value(models.Channel(ch))
				lastValidAt[ch] = rec.Timestamp
			}
		}
		series = append(series, rec)
	}
	return series, report
}

// contiguityError verifies the strictly hourly, gap-free timestamp invariant
// after cleaning. A nil return means the series is usable downstream.
func contiguityError(id string, series []models.TelemetryRecord) *gserr.DataIntegrityError {
	if len(series) == 0 {
		return gserr.NewDataIntegrityError(id, "non_contiguous", "no rows survived cleaning")
	}
	for i := 1; i < len(series); i++ {
		gap := series[i].Timestamp.Sub(series[i-1].Timestamp)
		if gap != time.Hour {
			return gserr.NewDataIntegrityError(id, "non_contiguous",
				"gap of %s after %s", gap, series[i-1].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}
