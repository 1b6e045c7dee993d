package models

// Channel indexes one of the fixed sensor channels carried by every telemetry record.
type Channel int

const (
	ChTemperatureTop Channel = iota
	ChTemperatureOil
	ChVoltagePhaseA
	ChVoltagePhaseB
	ChVoltagePhaseC
	ChCurrentPhaseA
	ChCurrentPhaseB
	ChCurrentPhaseC
	ChGasH2
	ChGasCH4
	ChGasC2H2
	ChVibrationX
	ChVibrationY
	ChVibrationZ
	ChHumidity
	ChLoadPercentage

	// NumChannels is the width of the fixed sensor schema.
	NumChannels = int(ChLoadPercentage) + 1
)

// ChannelNames are the stable column names of the sensor schema, indexed by Channel.
// Downstream consumers join on these names; do not reorder.
var ChannelNames = [NumChannels]string{
	"temperature_top",
	"temperature_oil",
	"voltage_phase_a",
	"voltage_phase_b",
	"voltage_phase_c",
	"current_phase_a",
	"current_phase_b",
	"current_phase_c",
	"gas_h2",
	"gas_ch4",
	"gas_c2h2",
	"vibration_x",
	"vibration_y",
	"vibration_z",
	"humidity",
	"load_percentage",
}

func (c Channel) String() string {
	if c < 0 || int(c) >= NumChannels {
		return "unknown"
	}
	return ChannelNames[c]
}

// Envelope is the physically plausible range for a sensor channel. Values outside
// the envelope are generator or ingestion defects.
type Envelope struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies inside the envelope.
func (e Envelope) Contains(v float64) bool {
	return v >= e.Min && v <= e.Max
}

// Clamp returns v limited to the envelope.
func (e Envelope) Clamp(v float64) float64 {
	if v < e.Min {
		return e.Min
	}
	if v > e.Max {
		return e.Max
	}
	return v
}

// DefaultEnvelopes holds the documented per-channel physical bounds. The same table
// bounds the simulator's output and backs the preprocessor's envelope check.
var DefaultEnvelopes = [NumChannels]Envelope{
	ChTemperatureTop: {Min: 20, Max: 150},
	ChTemperatureOil: {Min: 20, Max: 120},
	ChVoltagePhaseA:  {Min: 200, Max: 250},
	ChVoltagePhaseB:  {Min: 200, Max: 250},
	ChVoltagePhaseC:  {Min: 200, Max: 250},
	ChCurrentPhaseA:  {Min: 0, Max: 800},
	ChCurrentPhaseB:  {Min: 0, Max: 800},
	ChCurrentPhaseC:  {Min: 0, Max: 800},
	ChGasH2:          {Min: 0, Max: 500},
	ChGasCH4:         {Min: 0, Max: 300},
	ChGasC2H2:        {Min: 0, Max: 200},
	ChVibrationX:     {Min: 0, Max: 20},
	ChVibrationY:     {Min: 0, Max: 20},
	ChVibrationZ:     {Min: 0, Max: 20},
	ChHumidity:       {Min: 10, Max: 95},
	ChLoadPercentage: {Min: 0, Max: 100},
}

// ChannelByName resolves a column name back to its Channel index. The second
// return is false for names outside the sensor schema.
func ChannelByName(name string) (Channel, bool) {
	for i, n := range ChannelNames {
		if n == name {
			return Channel(i), true
		}
	}
	return 0, false
}
