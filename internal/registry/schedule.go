package registry

import (
	"math/rand"
	"sort"
)

// Episode is one bounded degradation interval: sensor behavior worsens over
// [OnsetHour, FailureHour) and the unit reads as failed from FailureHour on.
type Episode struct {
	OnsetHour   int
	FailureHour int
}

// Severity returns the episode's severity multiplier at an hour offset:
// zero before onset, a convex ramp (squared progress) inside the episode,
// and 1.0 at and after the failure hour.
func (e Episode) Severity(hour int) float64 {
	switch {
	case hour < e.OnsetHour:
		return 0
	case hour >= e.FailureHour:
		return 1
	default:
		progress := float64(hour-e.OnsetHour) / float64(e.FailureHour-e.OnsetHour)
		return progress * progress
	}
}

// Schedule maps equipment IDs to their single degradation episode. Units absent
// from the map operate normally for the whole horizon. Computed once at
// registry-build time and immutable afterwards.
type Schedule struct {
	episodes map[string]Episode
}

const (
	// Onset precedes failure by one week to one month.
	minOnsetLeadHours = 168
	maxOnsetLeadHours = 720
)

// BuildSchedule pre-selects round(fraction * fleet) units for exactly one
// episode each. Failure hours land in the back 80% of the horizon; onsets lead
// them by 1 week to 1 month, clamped to the horizon start. Deterministic for a
// given registry and seed.
func BuildSchedule(r *Registry, horizonHours int, fraction float64, seed int64) *Schedule {
	rng := rand.New(rand.NewSource(seed))
	n := r.Len()
	count := int(fraction*float64(n) + 0.5)
	if count > n {
		count = n
	}

	// Seeded shuffle of unit ordinals picks the degrading subset.
	order := rng.Perm(n)[:count]
	sort.Ints(order)

	s := &Schedule{episodes: make(map[string]Episode, count)}
	units := r.Units()
	for _, idx := range order {
		earliest := horizonHours / 5
		failure := earliest + rng.Intn(horizonHours-earliest)
		if failure < 1 {
			failure = 1
		}
		onset := failure - (minOnsetLeadHours + rng.Intn(maxOnsetLeadHours-minOnsetLeadHours))
		if onset < 0 {
			onset = 0
		}
		s.episodes[units[idx].ID] = Episode{OnsetHour: onset, FailureHour: failure}
	}
	return s
}

// NewSchedule builds a schedule from explicit episodes, for tests and replay.
func NewSchedule(episodes map[string]Episode) *Schedule {
	copied := make(map[string]Episode, len(episodes))
	for id, e := range episodes {
		copied[id] = e
	}
	return &Schedule{episodes: copied}
}

// Episode returns the unit's episode, if it has one.
func (s *Schedule) Episode(equipmentID string) (Episode, bool) {
	e, ok := s.episodes[equipmentID]
	return e, ok
}

// Severity returns the severity multiplier for a unit at an hour offset; zero
// for units with no episode.
func (s *Schedule) Severity(equipmentID string, hour int) float64 {
	e, ok := s.episodes[equipmentID]
	if !ok {
		return 0
	}
	return e.Severity(hour)
}

// DegradedCount returns how many units carry an episode.
func (s *Schedule) DegradedCount() int {
	return len(s.episodes)
}
