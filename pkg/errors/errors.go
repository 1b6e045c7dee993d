// Package errors defines the pipeline error taxonomy: configuration defects that
// abort a run before generation, per-unit data-integrity defects reported as
// diagnostics, and sampling shortfalls that degrade gracefully.
package errors

import (
	"errors"
	"fmt"
)

// Standard error functions
var (
	Is     = errors.Is
	As     = errors.As
	Join   = errors.Join
	Unwrap = errors.Unwrap
	New    = errors.New
)

// ConfigurationError is fatal: it is raised while validating configuration and
// no generation begins once one is returned.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// NewConfigurationError reports an invalid configuration field.
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DataIntegrityError describes a defect in one equipment unit's series. The
// offending unit is excluded from the batch; the run continues and the caller
// decides whether partial output is acceptable.
type DataIntegrityError struct {
	EquipmentID string
	Kind        string // "duplicate_key", "out_of_envelope", "non_contiguous", "missing_key"
	Detail      string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity (%s) on %s: %s", e.Kind, e.EquipmentID, e.Detail)
}

// NewDataIntegrityError reports a per-unit data defect.
func NewDataIntegrityError(equipmentID, kind, format string, args ...any) *DataIntegrityError {
	return &DataIntegrityError{EquipmentID: equipmentID, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// SamplingError records a sampling request that could not be met in full. The
// sampler still returns the maximum available rows alongside it.
type SamplingError struct {
	Requested int
	Available int
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("sample of %d requested, only %d rows available", e.Requested, e.Available)
}
