package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridguardian/gridsim/pkg/models"
)

func TestBuildEnumeratesFleet(t *testing.T) {
	reg, err := Build(2, 10, 42)
	require.NoError(t, err)

	units := reg.Units()
	require.Len(t, units, 20)

	assert.Equal(t, "SUB001_EQ01", units[0].ID)
	assert.Equal(t, "SUB002_EQ10", units[19].ID)
	assert.Equal(t, "SUB001", units[0].SubstationID)

	// Slot position drives hardware type.
	assert.Equal(t, models.TypePowerTransformer, units[0].Type)
	assert.Equal(t, models.TypeVoltageRegulator, units[9].Type)

	for _, u := range units {
		assert.NotEmpty(t, u.SubstationName)
		assert.NotZero(t, u.Latitude)
		assert.GreaterOrEqual(t, u.InstallationYear, 1990)
		assert.Positive(t, u.CapacityMW)
	}
}

func TestBuildRejectsEmptyFleet(t *testing.T) {
	_, err := Build(0, 10, 42)
	assert.Error(t, err)

	_, err = Build(3, -1, 42)
	assert.Error(t, err)
}

func TestBuildIsDeterministic(t *testing.T) {
	a, err := Build(3, 5, 7)
	require.NoError(t, err)
	b, err := Build(3, 5, 7)
	require.NoError(t, err)
	assert.Equal(t, a.Units(), b.Units())

	c, err := Build(3, 5, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a.Units(), c.Units())
}

func TestLookupAndIndex(t *testing.T) {
	reg, err := Build(2, 3, 1)
	require.NoError(t, err)

	u, ok := reg.Lookup("SUB002_EQ01")
	require.True(t, ok)
	assert.Equal(t, "SUB002", u.SubstationID)
	assert.Equal(t, 3, reg.Index("SUB002_EQ01"))

	_, ok = reg.Lookup("SUB099_EQ01")
	assert.False(t, ok)
	assert.Equal(t, -1, reg.Index("SUB099_EQ01"))
}

func TestBuildSchedulePreselectsFraction(t *testing.T) {
	reg, err := Build(10, 10, 42)
	require.NoError(t, err)

	const horizon = 17520
	sched := BuildSchedule(reg, horizon, 0.05, 42)
	assert.Equal(t, 5, sched.DegradedCount())

	for _, u := range reg.Units() {
		ep, ok := sched.Episode(u.ID)
		if !ok {
			continue
		}
		assert.GreaterOrEqual(t, ep.OnsetHour, 0)
		assert.Greater(t, ep.FailureHour, ep.OnsetHour)
		assert.Less(t, ep.FailureHour, horizon)
		// Failures land in the back 80% of the horizon.
		assert.GreaterOrEqual(t, ep.FailureHour, horizon/5)
		// Onset leads failure by at most a month.
		assert.LessOrEqual(t, ep.FailureHour-ep.OnsetHour, maxOnsetLeadHours)
	}
}

func TestBuildScheduleDeterministic(t *testing.T) {
	reg, err := Build(5, 10, 42)
	require.NoError(t, err)

	a := BuildSchedule(reg, 8760, 0.1, 99)
	b := BuildSchedule(reg, 8760, 0.1, 99)
	for _, u := range reg.Units() {
		ea, oka := a.Episode(u.ID)
		eb, okb := b.Episode(u.ID)
		assert.Equal(t, oka, okb)
		assert.Equal(t, ea, eb)
	}
}

func TestEpisodeSeverityCurve(t *testing.T) {
	ep := Episode{OnsetHour: 100, FailureHour: 200}

	assert.Zero(t, ep.Severity(0))
	assert.Zero(t, ep.Severity(99))
	assert.Zero(t, ep.Severity(100))
	assert.InDelta(t, 0.25, ep.Severity(150), 1e-9)
	assert.Equal(t, 1.0, ep.Severity(200))
	assert.Equal(t, 1.0, ep.Severity(5000))

	// Convex: the ramp accelerates toward failure.
	first := ep.Severity(125)
	mid := ep.Severity(150) - ep.Severity(125)
	late := ep.Severity(175) - ep.Severity(150)
	assert.Greater(t, mid, first)
	assert.Greater(t, late, mid)

	// Monotone non-decreasing across the whole lifetime.
	prev := -1.0
	for h := 0; h <= 250; h++ {
		sev := ep.Severity(h)
		assert.GreaterOrEqual(t, sev, prev)
		prev = sev
	}
}

func TestScheduleSeverityWithoutEpisode(t *testing.T) {
	s := NewSchedule(nil)
	assert.Zero(t, s.Severity("SUB001_EQ01", 100))
}
