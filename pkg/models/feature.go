package models

// FeatureRecord extends a cleaned telemetry record with the engineered columns
// consumed by the dashboard and model training. One feature record exists per
// input record; the feature engine never drops rows.
type FeatureRecord struct {
	TelemetryRecord

	// Temporal encodings.
	Hour      int     `json:"hour"`
	DayOfWeek int     `json:"day_of_week"` // 0=Monday .. 6=Sunday
	Month     int     `json:"month"`
	IsWeekend bool    `json:"is_weekend"`
	HourSin   float64 `json:"hour_sin"`
	HourCos   float64 `json:"hour_cos"`
	DaySin    float64 `json:"day_sin"`
	DayCos    float64 `json:"day_cos"`

	// Rolling holds the trailing-window statistics, flattened in the column
	// order published by the feature engine's RollingColumns.
	Rolling []float64 `json:"rolling"`

	// RateOfChange is the first difference of each channel within the unit's
	// series; zero at the first record.
	RateOfChange [NumChannels]float64 `json:"rate_of_change"`

	// OneHot is the equipment-identity encoding, sized to the registry
	// cardinality fixed at engine build time. Unseen identities map to the
	// all-zero vector.
	OneHot []float64 `json:"one_hot"`

	RiskLevel          RiskLevel `json:"risk_level"`
	FailureProbability float64   `json:"failure_probability"`
}
