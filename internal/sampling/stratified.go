// Package sampling draws bounded-size samples from the feature table while
// preserving the empirical risk-class proportions, for interactive consumers
// that cannot hold the full table.
package sampling

import (
	"math/rand"
	"sort"

	gserr "github.com/gridguardian/gridsim/pkg/errors"
	"github.com/gridguardian/gridsim/pkg/models"
)

// Stratified returns a sample of at most n rows whose per-risk-level proportions
// match the source within rounding. Each class receives floor(n * p_class) rows
// drawn uniformly without replacement; the flooring remainder goes to the
// largest classes first, so the total equals min(n, len(source)). A class with
// no source rows is simply allocated zero. Deterministic for a given seed.
//
// When n exceeds the source size the whole source is returned along with a
// SamplingError describing the shortfall; the caller decides whether the
// degraded sample is acceptable.
func Stratified(source []models.FeatureRecord, n int, seed int64) ([]models.FeatureRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	if n >= len(source) {
		out := make([]models.FeatureRecord, len(source))
		copy(out, source)
		if n > len(source) {
			return out, &gserr.SamplingError{Requested: n, Available: len(source)}
		}
		return out, nil
	}

	// Row indices per class, in source order.
	byClass := make(map[models.RiskLevel][]int)
	for i := range source {
		byClass[source[i].RiskLevel] = append(byClass[source[i].RiskLevel], i)
	}

	total := float64(len(source))
	alloc := make(map[models.RiskLevel]int, len(byClass))
	allocated := 0
	for _, level := range models.RiskLevels {
		rows := byClass[level]
		share := int(float64(n) * float64(len(rows)) / total)
		if share > len(rows) {
			share = len(rows)
		}
		alloc[level] = share
		allocated += share
	}

	// Distribute the flooring remainder to the largest classes first, never
	// claiming more rows of a class than exist.
	for allocated < n {
		progressed := false
		for _, level := range classesBySize(byClass) {
			if allocated == n {
				break
			}
			if alloc[level] < len(byClass[level]) {
				alloc[level]++
				allocated++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	rng := rand.New(rand.NewSource(seed))
	picked := make([]int, 0, allocated)
	for _, level := range models.RiskLevels {
		rows := byClass[level]
		k := alloc[level]
		if k == 0 {
			continue
		}
		// Partial Fisher-Yates: the first k positions are a uniform draw
		// without replacement.
		shuffled := make([]int, len(rows))
		copy(shuffled, rows)
		for i := 0; i < k; i++ {
			j := i + rng.Intn(len(shuffled)-i)
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		}
		picked = append(picked, shuffled[:k]...)
	}

	// Keep the source's (equipment ID, timestamp) ordering in the sample.
	sort.Ints(picked)
	out := make([]models.FeatureRecord, 0, len(picked))
	for _, i := range picked {
		out = append(out, source[i])
	}
	return out, nil
}

// classesBySize orders risk levels by descending source count, breaking ties by
// ascending level so remainder distribution is deterministic.
func classesBySize(byClass map[models.RiskLevel][]int) []models.RiskLevel {
	levels := make([]models.RiskLevel, len(models.RiskLevels))
	copy(levels, models.RiskLevels)
	sort.SliceStable(levels, func(i, j int) bool {
		return len(byClass[levels[i]]) > len(byClass[levels[j]])
	})
	return levels
}
