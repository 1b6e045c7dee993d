// Package features derives the model-training feature table from cleaned
// telemetry: temporal encodings, causal rolling statistics, equipment one-hot
// encoding, and the deterministic risk classification.
package features

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/gridguardian/gridsim/internal/registry"
	gserr "github.com/gridguardian/gridsim/pkg/errors"
	"github.com/gridguardian/gridsim/pkg/models"
)

// Engine derives feature records. The one-hot width and rolling column schema
// are fixed when the engine is built, so every batch it transforms shares one
// column layout.
type Engine struct {
	windows     []int
	thresholds  Thresholds
	reg         *registry.Registry
	rollingCols []string
	logger      *zap.Logger
}

// NewEngine builds an engine against a registry snapshot. Windows are trailing
// lengths in hours, e.g. 3/6/12/24.
func NewEngine(reg *registry.Registry, windows []int, thresholds Thresholds, logger *zap.Logger) (*Engine, error) {
	if len(windows) == 0 {
		return nil, gserr.NewConfigurationError("features.rolling_windows", "at least one window required")
	}
	for _, w := range windows {
		if w <= 0 {
			return nil, gserr.NewConfigurationError("features.rolling_windows", "window must be positive, got %d", w)
		}
	}

	e := &Engine{
		windows:    windows,
		thresholds: thresholds,
		reg:        reg,
		logger:     logger,
	}
	e.rollingCols = buildRollingColumns(windows)
	return e, nil
}

var rollingStats = []string{"mean", "std", "min", "max"}

func buildRollingColumns(windows []int) []string {
	cols := make([]string, 0, models.NumChannels*len(windows)*len(rollingStats))
	for ch := 0; ch < models.NumChannels; ch++ {
		for _, w := range windows {
			for _, stat := range rollingStats {
				cols = append(cols, fmt.Sprintf("%s_rolling_%s_%dh", models.ChannelNames[ch], stat, w))
			}
		}
	}
	return cols
}

// RollingColumns returns the column names the Rolling vector of every produced
// FeatureRecord is aligned to.
func (e *Engine) RollingColumns() []string {
	return e.rollingCols
}

// OneHotWidth returns the equipment-identity encoding width (the registry
// cardinality at engine build time).
func (e *Engine) OneHotWidth() int {
	return e.reg.Len()
}

// Transform derives one feature record per input record. The batch must be
// ordered ascending by (equipment ID, timestamp), as the preprocessor emits it,
// since rolling windows consume each unit's series in order. Rows
// are never dropped here.
func (e *Engine) Transform(batch []models.TelemetryRecord) []models.FeatureRecord {
	out := make([]models.FeatureRecord, 0, len(batch))
	buffers := make(map[string]*seriesBuffer)

	unseen := 0
	for i := range batch {
		rec := &batch[i]
		buf, ok := buffers[rec.EquipmentID]
		if !ok {
			buf = newSeriesBuffer(models.NumChannels)
			buffers[rec.EquipmentID] = buf
		}
		buf.push(rec.Values[:])

		fr := models.FeatureRecord{TelemetryRecord: *rec}
		e.temporal(&fr)
		e.rolling(&fr, buf)
		e.rateOfChange(&fr, buf)
		if !e.oneHot(&fr) {
			unseen++
		}
		fr.RiskLevel = ClassifyRisk(rec, e.thresholds)
		fr.FailureProbability = FailureProbability(rec)
		out = append(out, fr)
	}

	if unseen > 0 {
		e.logger.Warn("records with identities outside the registry mapped to the default encoding",
			zap.Int("records", unseen))
	}
	return out
}

// temporal fills hour/day/month integers, the weekend flag, and the cyclical
// sine/cosine pairs for the 24-hour and 7-day cycles.
func (e *Engine) temporal(fr *models.FeatureRecord) {
	ts := fr.Timestamp
	fr.Hour = ts.Hour()
	// time.Weekday is Sunday-based; the feature table uses Monday=0.
	fr.DayOfWeek = (int(ts.Weekday()) + 6) % 7
	fr.Month = int(ts.Month())
	fr.IsWeekend = fr.DayOfWeek >= 5

	fr.HourSin = math.Sin(2 * math.Pi * float64(fr.Hour) / 24)
	fr.HourCos = math.Cos(2 * math.Pi * float64(fr.Hour) / 24)
	fr.DaySin = math.Sin(2 * math.Pi * float64(fr.DayOfWeek) / 7)
	fr.DayCos = math.Cos(2 * math.Pi * float64(fr.DayOfWeek) / 7)
}

func (e *Engine) rolling(fr *models.FeatureRecord, buf *seriesBuffer) {
	fr.Rolling = make([]float64, 0, len(e.rollingCols))
	for ch := 0; ch < models.NumChannels; ch++ {
		for _, w := range e.windows {
			mean, std, lo, hi := buf.windowStats(ch, w)
			fr.Rolling = append(fr.Rolling, mean, std, lo, hi)
		}
	}
}

func (e *Engine) rateOfChange(fr *models.FeatureRecord, buf *seriesBuffer) {
	for ch := 0; ch < models.NumChannels; ch++ {
		if prev, ok := buf.last(ch); ok {
			fr.RateOfChange[ch] = fr.Values[ch] - prev
		}
	}
}

// oneHot encodes the equipment identity; identities outside the registry get
// the all-zero vector rather than an error, so inference-time batches with new
// units pass through. Returns false for an unseen identity.
func (e *Engine) oneHot(fr *models.FeatureRecord) bool {
	fr.OneHot = make([]float64, e.reg.Len())
	idx := e.reg.Index(fr.EquipmentID)
	if idx < 0 {
		return false
	}
	fr.OneHot[idx] = 1
	return true
}
