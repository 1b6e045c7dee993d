package features

import "math"

// seriesBuffer is a unit-local append-only arena of past channel values. Rolling
// statistics read backwards from the append position, never forwards, which
// keeps the causal-only constraint explicit: a window at row N sees rows
// [N-window+1, N] and nothing later.
type seriesBuffer struct {
	values [][]float64 // per channel, appended in timestamp order
}

func newSeriesBuffer(channels int) *seriesBuffer {
	return &seriesBuffer{values: make([][]float64, channels)}
}

// push appends one record's channel values.
func (b *seriesBuffer) push(vals []float64) {
	for ch, v := range vals {
		b.values[ch] = append(b.values[ch], v)
	}
}

// len returns how many records have been pushed.
func (b *seriesBuffer) len() int {
	if len(b.values) == 0 {
		return 0
	}
	return len(b.values[0])
}

// windowStats computes mean/std/min/max over the trailing window ending at the
// most recently pushed record. Early in a series the window covers however many
// rows exist, so the first record's statistics equal its raw value and std is
// zero (population std over min(N, window) points, so there are no leading nulls).
func (b *seriesBuffer) windowStats(ch, window int) (mean, std, lo, hi float64) {
	series := b.values[ch]
	start := len(series) - window
	if start < 0 {
		start = 0
	}
	span := series[start:]

	lo = span[0]
	hi = span[0]
	var sum float64
	for _, v := range span {
		sum += v
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	mean = sum / float64(len(span))

	var sq float64
	for _, v := range span {
		d := v - mean
		sq += d * d
	}
	std = math.Sqrt(sq / float64(len(span)))
	return mean, std, lo, hi
}

// last returns the previous value of a channel (one before the latest push),
// and false at the start of a series.
func (b *seriesBuffer) last(ch int) (float64, bool) {
	series := b.values[ch]
	if len(series) < 2 {
		return 0, false
	}
	return series[len(series)-2], true
}
