package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RecordsGenerated counts telemetry records produced by the simulator, by substation
var RecordsGenerated = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gridsim_records_generated_total",
		Help: "Total number of telemetry records produced by the simulator",
	},
	[]string{"substation"},
)

// StageDuration records wall-clock duration of each pipeline stage
var StageDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "gridsim_stage_duration_seconds",
		Help:    "Duration in seconds of each pipeline stage",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"stage"},
)

// Preprocessing repair/drop metrics
var (
	RowsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridsim_rows_dropped_total",
			Help: "Rows removed during preprocessing",
		},
		[]string{"reason"},
	)

	ValuesRepaired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridsim_values_repaired_total",
			Help: "Sensor values clipped to envelope or forward-filled",
		},
		[]string{"kind"},
	)

	UnitsExcluded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gridsim_units_excluded_total",
			Help: "Equipment units excluded for unrepairable series defects",
		},
	)
)

func init() {
	prometheus.MustRegister(RecordsGenerated, StageDuration)
	prometheus.MustRegister(RowsDropped, ValuesRepaired, UnitsExcluded)
}
