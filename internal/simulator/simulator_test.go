package simulator

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gridguardian/gridsim/internal/registry"
	"github.com/gridguardian/gridsim/pkg/models"
)

var testStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func testSimulator(t *testing.T, opts Options, sched *registry.Schedule) *Simulator {
	t.Helper()
	if sched == nil {
		sched = registry.NewSchedule(nil)
	}
	sim, err := New(opts, sched, zaptest.NewLogger(t))
	require.NoError(t, err)
	return sim
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	sched := registry.NewSchedule(nil)

	_, err := New(Options{Start: testStart, Horizon: 0}, sched, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = New(Options{Horizon: 24}, sched, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = New(Options{Start: testStart, Horizon: 24, NoiseScale: -1}, sched, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestNewDefaultsWorkersToCPUCount(t *testing.T) {
	sim := testSimulator(t, Options{Start: testStart, Horizon: 24}, nil)
	assert.Equal(t, runtime.GOMAXPROCS(0), sim.workers)
}

func TestRunRejectsEmptyRegistry(t *testing.T) {
	sim := testSimulator(t, Options{Start: testStart, Horizon: 24, NoiseScale: 1}, nil)
	_, err := sim.Run(context.Background(), &registry.Registry{})
	assert.Error(t, err)
}

func TestSeriesIsHourlyAndComplete(t *testing.T) {
	reg, err := registry.Build(1, 3, 42)
	require.NoError(t, err)

	const horizon = 200
	sim := testSimulator(t, Options{Start: testStart, Horizon: horizon, ChunkHours: 48, NoiseScale: 1}, nil)

	batch, err := sim.Run(context.Background(), reg)
	require.NoError(t, err)
	require.Len(t, batch, 3*horizon)

	perUnit := make(map[string][]models.TelemetryRecord)
	for _, rec := range batch {
		perUnit[rec.EquipmentID] = append(perUnit[rec.EquipmentID], rec)
	}
	require.Len(t, perUnit, 3)

	for id, series := range perUnit {
		require.Len(t, series, horizon, "unit %s", id)
		assert.True(t, series[0].Timestamp.Equal(testStart))
		for i := 1; i < len(series); i++ {
			assert.Equal(t, time.Hour, series[i].Timestamp.Sub(series[i-1].Timestamp),
				"unit %s at row %d", id, i)
		}
	}
}

func TestBatchOrderedByUnitThenTime(t *testing.T) {
	reg, err := registry.Build(2, 2, 42)
	require.NoError(t, err)

	sim := testSimulator(t, Options{Start: testStart, Horizon: 30, Workers: 4, ChunkHours: 7, NoiseScale: 1}, nil)
	batch, err := sim.Run(context.Background(), reg)
	require.NoError(t, err)

	for i := 1; i < len(batch); i++ {
		prev, cur := batch[i-1], batch[i]
		if prev.EquipmentID == cur.EquipmentID {
			assert.True(t, cur.Timestamp.After(prev.Timestamp))
		} else {
			assert.Less(t, prev.EquipmentID, cur.EquipmentID)
		}
	}
}

func TestAllChannelsWithinEnvelope(t *testing.T) {
	reg, err := registry.Build(1, 2, 42)
	require.NoError(t, err)

	// Degradation pushes channels toward their limits; they must still clamp.
	sched := registry.NewSchedule(map[string]registry.Episode{
		"SUB001_EQ01": {OnsetHour: 10, FailureHour: 100},
	})
	sim := testSimulator(t, Options{Start: testStart, Horizon: 300, NoiseScale: 1}, sched)

	batch, err := sim.Run(context.Background(), reg)
	require.NoError(t, err)

	for _, rec := range batch {
		for ch := 0; ch < models.NumChannels; ch++ {
			env := models.DefaultEnvelopes[ch]
			assert.True(t, env.Contains(rec.Values[ch]),
				"%s %s=%f outside [%f,%f]", rec.EquipmentID, models.ChannelNames[ch], rec.Values[ch], env.Min, env.Max)
		}
	}
}

func TestDeterministicAcrossWorkerCounts(t *testing.T) {
	reg, err := registry.Build(2, 3, 42)
	require.NoError(t, err)

	sched := registry.NewSchedule(map[string]registry.Episode{
		"SUB002_EQ02": {OnsetHour: 20, FailureHour: 60},
	})

	serial := testSimulator(t, Options{Start: testStart, Horizon: 72, Seed: 9, Workers: 1, NoiseScale: 1}, sched)
	parallel := testSimulator(t, Options{Start: testStart, Horizon: 72, Seed: 9, Workers: 8, ChunkHours: 10, NoiseScale: 1}, sched)

	a, err := serial.Run(context.Background(), reg)
	require.NoError(t, err)
	b, err := parallel.Run(context.Background(), reg)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other := testSimulator(t, Options{Start: testStart, Horizon: 72, Seed: 10, Workers: 1, NoiseScale: 1}, sched)
	c, err := other.Run(context.Background(), reg)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestDegradationLiftsFailureIndicators(t *testing.T) {
	reg, err := registry.Build(1, 1, 42)
	require.NoError(t, err)

	const (
		onset   = 100
		failure = 200
		horizon = 210
	)
	sched := registry.NewSchedule(map[string]registry.Episode{
		"SUB001_EQ01": {OnsetHour: onset, FailureHour: failure},
	})
	sim := testSimulator(t, Options{Start: testStart, Horizon: horizon, NoiseScale: 1}, sched)

	batch, err := sim.Run(context.Background(), reg)
	require.NoError(t, err)
	require.Len(t, batch, horizon)

	indicators := []models.Channel{
		models.ChTemperatureTop,
		models.ChGasH2, models.ChGasCH4, models.ChGasC2H2,
		models.ChVibrationX, models.ChVibrationY, models.ChVibrationZ,
	}

	// Average over the last 10% of the episode vs the pre-episode baseline.
	lastTenth := batch[failure-(failure-onset)/10 : failure]
	baseline := batch[:onset]

	for _, ch := range indicators {
		var lateSum, baseSum float64
		for _, rec := range lastTenth {
			lateSum += rec.Value(ch)
		}
		for _, rec := range baseline {
			baseSum += rec.Value(ch)
		}
		lateMean := lateSum / float64(len(lastTenth))
		baseMean := baseSum / float64(len(baseline))
		assert.Greater(t, lateMean, baseMean, "channel %s", models.ChannelNames[ch])
	}
}

func TestSimulateUnitChunksAreContiguous(t *testing.T) {
	reg, err := registry.Build(1, 1, 42)
	require.NoError(t, err)
	unit := reg.Units()[0]

	sim := testSimulator(t, Options{Start: testStart, Horizon: 100, ChunkHours: 33, NoiseScale: 1}, nil)

	var sizes []int
	var all []models.TelemetryRecord
	err = sim.SimulateUnit(context.Background(), unit, func(chunk []models.TelemetryRecord) error {
		sizes = append(sizes, len(chunk))
		all = append(all, chunk...)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{33, 33, 33, 1}, sizes)
	require.Len(t, all, 100)
	for i := 1; i < len(all); i++ {
		assert.Equal(t, time.Hour, all[i].Timestamp.Sub(all[i-1].Timestamp))
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	reg, err := registry.Build(2, 5, 42)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim := testSimulator(t, Options{Start: testStart, Horizon: 5000, NoiseScale: 1}, nil)
	_, err = sim.Run(ctx, reg)
	assert.Error(t, err)
}
