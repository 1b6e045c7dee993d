package models

import (
	"math"
	"time"
)

// TelemetryRecord is one multivariate sensor reading, uniquely keyed by
// (equipment ID, timestamp). A missing sensor value is represented as NaN;
// the simulator never emits NaN, externally supplied batches may.
type TelemetryRecord struct {
	EquipmentID string    `json:"equipment_id"`
	Timestamp   time.Time `json:"timestamp"`

	// Values holds the 16 sensor channels, indexed by Channel.
	Values [NumChannels]float64 `json:"values"`
}

// Value returns the reading for one channel.
func (r *TelemetryRecord) Value(c Channel) float64 {
	return r.Values[c]
}

// SetValue overwrites the reading for one channel.
func (r *TelemetryRecord) SetValue(c Channel, v float64) {
	r.Values[c] = v
}

// IsMissing reports whether the channel reading is absent.
func (r *TelemetryRecord) IsMissing(c Channel) bool {
	return math.IsNaN(r.Values[c])
}

// HasKey reports whether the record carries a usable composite key. Records
// without one cannot be placed in any unit's series and must be dropped.
func (r *TelemetryRecord) HasKey() bool {
	return r.EquipmentID != "" && !r.Timestamp.IsZero()
}
