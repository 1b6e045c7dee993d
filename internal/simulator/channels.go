package simulator

import (
	"math"
	"math/rand"
	"time"

	"github.com/gridguardian/gridsim/pkg/models"
)

// Normal-operation channel model. Nominal values follow the diurnal/weekly load
// curve; degradation severity shifts the failure-indicator channels toward
// their thresholds. All outputs are clamped to the physical envelope.

const (
	loadBase      = 0.6
	loadSwing     = 0.3
	loadNoiseStd  = 0.05
	loadFloor     = 0.3
	loadCeil      = 1.0
	weekendFactor = 0.92 // fleet load eases off-peak days
)

// loadFraction is the diurnal/weekly demand curve in [loadFloor, loadCeil]:
// a sinusoid peaking mid-afternoon, damped on weekends, plus bounded noise.
func (s *Simulator) loadFraction(ts time.Time, rng *rand.Rand) float64 {
	hour := float64(ts.Hour())
	load := loadBase + loadSwing*math.Sin((hour-6)*math.Pi/12)
	if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
		load *= weekendFactor
	}
	load += rng.NormFloat64() * loadNoiseStd * s.noiseScale
	return clamp(load, loadFloor, loadCeil)
}

// reading produces one record for a unit at the given timestamp. Severity is
// the unit's degradation multiplier in [0,1] for this hour; zero means normal
// operation. Thermal and electrical channels couple to load, so a hot afternoon
// reads hotter than the same severity at night.
func (s *Simulator) reading(equipmentID string, ts time.Time, severity float64, rng *rand.Rand) models.TelemetryRecord {
	load := s.loadFraction(ts, rng)
	noise := func(std float64) float64 { return rng.NormFloat64() * std * s.noiseScale }

	rec := models.TelemetryRecord{EquipmentID: equipmentID, Timestamp: ts}

	rec.SetValue(models.ChTemperatureTop, 65+15*load+30*severity+noise(3))
	rec.SetValue(models.ChTemperatureOil, 55+12*load+25*severity+noise(2))

	// The three phases share one supply-side variation; degradation pulls them
	// apart, which is what the voltage-imbalance indicators key on.
	supply := noise(2)
	rec.SetValue(models.ChVoltagePhaseA, 230+supply-5*severity)
	rec.SetValue(models.ChVoltagePhaseB, 230+supply-4*severity)
	rec.SetValue(models.ChVoltagePhaseC, 230+supply-6*severity)

	currentBase := 400 * load
	rec.SetValue(models.ChCurrentPhaseA, currentBase+noise(10)+50*severity)
	rec.SetValue(models.ChCurrentPhaseB, currentBase+noise(10)+45*severity)
	rec.SetValue(models.ChCurrentPhaseC, currentBase+noise(10)+55*severity)

	// Dissolved gas is the leading failure indicator; acetylene most of all.
	rec.SetValue(models.ChGasH2, 50+200*severity+noise(10))
	rec.SetValue(models.ChGasCH4, 30+150*severity+noise(8))
	rec.SetValue(models.ChGasC2H2, 5+100*severity+noise(5))

	rec.SetValue(models.ChVibrationX, 2.0+5*severity+noise(0.3))
	rec.SetValue(models.ChVibrationY, 2.0+4*severity+noise(0.3))
	rec.SetValue(models.ChVibrationZ, 2.0+6*severity+noise(0.3))

	rec.SetValue(models.ChHumidity, 45+20*severity+noise(5))
	rec.SetValue(models.ChLoadPercentage, load*100)

	for ch := 0; ch < models.NumChannels; ch++ {
		rec.Values[ch] = s.envelopes[ch].Clamp(rec.Values[ch])
	}
	return rec
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
