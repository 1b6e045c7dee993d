package models

// RiskLevel is the three-valued ordinal classification derived from a single
// record's sensor values. The numeric values are stable join keys for the
// dashboard and training tables: Low=0 < Medium=1 < High=2.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

func (l RiskLevel) String() string {
	switch l {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// RiskLevels enumerates all levels in ascending severity order.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh}
