package models

import "fmt"

// EquipmentType classifies a monitored unit by hardware role.
type EquipmentType string

const (
	TypePowerTransformer        EquipmentType = "power_transformer"
	TypeDistributionTransformer EquipmentType = "distribution_transformer"
	TypeCircuitBreaker          EquipmentType = "circuit_breaker"
	TypeVoltageRegulator        EquipmentType = "voltage_regulator"
)

// EquipmentUnit is one piece of monitored grid hardware. Units are immutable once
// the registry is built; everything downstream treats them as read-only metadata.
type EquipmentUnit struct {
	ID               string        `json:"equipment_id"`
	SubstationID     string        `json:"substation_id"`
	SubstationName   string        `json:"substation_name"`
	Region           string        `json:"region"`
	Slot             int           `json:"slot"`
	Latitude         float64       `json:"latitude"`
	Longitude        float64       `json:"longitude"`
	Type             EquipmentType `json:"equipment_type"`
	CapacityMW       float64       `json:"capacity_mw"`
	VoltageClassKV   int           `json:"voltage_class_kv"`
	InstallationYear int           `json:"installation_year"`
}

// EquipmentID builds the composite key for a substation slot, e.g. "SUB003_EQ07".
func EquipmentID(substation, slot int) string {
	return fmt.Sprintf("SUB%03d_EQ%02d", substation, slot)
}
