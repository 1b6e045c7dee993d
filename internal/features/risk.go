package features

import "github.com/gridguardian/gridsim/pkg/models"

// Thresholds are the per-indicator risk guards. They were taken from transformer
// monitoring guides rather than calibrated against fleet history, so they are
// configuration, not constants.
type Thresholds struct {
	TempHighC          float64
	TempMediumC        float64
	AcetyleneHighPPM   float64
	AcetyleneMediumPPM float64
	VibrationHighMMS   float64
	VibrationMediumMMS float64
}

// DefaultThresholds returns the documented guard values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TempHighC:          100,
		TempMediumC:        85,
		AcetyleneHighPPM:   100,
		AcetyleneMediumPPM: 50,
		VibrationHighMMS:   8,
		VibrationMediumMMS: 5,
	}
}

// ClassifyRisk fuses the failure-indicator channels into an ordinal label. It is
// a pure function of the single record: same values in, same label out. The
// High guard is evaluated first and short-circuits, so a record satisfying both
// High and Medium conditions resolves to High.
func ClassifyRisk(rec *models.TelemetryRecord, t Thresholds) models.RiskLevel {
	temp := rec.Value(models.ChTemperatureTop)
	c2h2 := rec.Value(models.ChGasC2H2)
	vibMax := max3(rec.Value(models.ChVibrationX), rec.Value(models.ChVibrationY), rec.Value(models.ChVibrationZ))

	if temp > t.TempHighC || c2h2 > t.AcetyleneHighPPM || vibMax > t.VibrationHighMMS {
		return models.RiskHigh
	}
	if temp > t.TempMediumC || c2h2 > t.AcetyleneMediumPPM || vibMax > t.VibrationMediumMMS {
		return models.RiskMedium
	}
	return models.RiskLow
}

// FailureProbability is the auxiliary regression target: a weighted blend of the
// indicator channels, each normalized against its critical scale and clipped to
// [0,1]. Monotone in every indicator and deterministic; not calibrated.
func FailureProbability(rec *models.TelemetryRecord) float64 {
	return 0.25*unit(rec.Value(models.ChGasC2H2)/200) +
		0.20*unit(rec.Value(models.ChGasH2)/500) +
		0.15*unit(rec.Value(models.ChGasCH4)/300) +
		0.20*unit(rec.Value(models.ChTemperatureTop)/150) +
		0.20*unit(rec.Value(models.ChVibrationX)/10)
}

func unit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
