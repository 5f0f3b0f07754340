package models

import (
	"fmt"
	"sort"
)

// Field names a CircuitTestResult attribute by its JSON name.
type Field string

const (
	FieldID                       Field = "id"
	FieldCircuitDesignation       Field = "circuitDesignation"
	FieldCircuitDescription       Field = "circuitDescription"
	FieldTypeOfWiring             Field = "typeOfWiring"
	FieldReferenceMethod          Field = "referenceMethod"
	FieldPointsServed             Field = "pointsServed"
	FieldLiveSize                 Field = "liveSize"
	FieldCpcSize                  Field = "cpcSize"
	FieldBSStandard               Field = "bsStandard"
	FieldProtectiveDeviceCurve    Field = "protectiveDeviceCurve"
	FieldProtectiveDeviceRating   Field = "protectiveDeviceRating"
	FieldProtectiveDeviceKaRating Field = "protectiveDeviceKaRating"
	FieldMaxZs                    Field = "maxZs"
	FieldRCDBSStandard            Field = "rcdBsStandard"
	FieldRCDType                  Field = "rcdType"
	FieldRCDRating                Field = "rcdRating"
	FieldRCDRatingA               Field = "rcdRatingA"
	FieldRingR1                   Field = "ringR1"
	FieldRingRn                   Field = "ringRn"
	FieldRingR2                   Field = "ringR2"
	FieldR1R2                     Field = "r1r2"
	FieldRingContinuityLive       Field = "ringContinuityLive"
	FieldInsulationTestVoltage    Field = "insulationTestVoltage"
	FieldInsulationLiveNeutral    Field = "insulationLiveNeutral"
	FieldInsulationLiveEarth      Field = "insulationLiveEarth"
	FieldPolarity                 Field = "polarity"
	FieldZs                       Field = "zs"
	FieldRCDOneX                  Field = "rcdOneX"
	FieldRCDTestButton            Field = "rcdTestButton"
	FieldAFDDTest                 Field = "afddTest"
	FieldFunctionalTesting        Field = "functionalTesting"
	FieldNotes                    Field = "notes"
	FieldSourceCircuitID          Field = "sourceCircuitId"
	FieldAutoFilled               Field = "autoFilled"
)

// fieldColumns maps every editable field to its database column, in
// schedule column order.
var fieldColumns = []struct {
	field  Field
	column string
	label  string
}{
	{FieldCircuitDesignation, "circuit_designation", "Circuit"},
	{FieldCircuitDescription, "circuit_description", "Description"},
	{FieldTypeOfWiring, "type_of_wiring", "Type of wiring"},
	{FieldReferenceMethod, "reference_method", "Ref. method"},
	{FieldPointsServed, "points_served", "Points served"},
	{FieldLiveSize, "live_size", "Live (mm²)"},
	{FieldCpcSize, "cpc_size", "CPC (mm²)"},
	{FieldBSStandard, "bs_standard", "BS (EN)"},
	{FieldProtectiveDeviceCurve, "protective_device_curve", "Type"},
	{FieldProtectiveDeviceRating, "protective_device_rating", "Rating (A)"},
	{FieldProtectiveDeviceKaRating, "protective_device_ka_rating", "Breaking capacity (kA)"},
	{FieldMaxZs, "max_zs", "Max Zs (Ω)"},
	{FieldRCDBSStandard, "rcd_bs_standard", "RCD BS (EN)"},
	{FieldRCDType, "rcd_type", "RCD type"},
	{FieldRCDRating, "rcd_rating", "RCD IΔn (mA)"},
	{FieldRCDRatingA, "rcd_rating_a", "RCD rating (A)"},
	{FieldRingR1, "ring_r1", "r1 (Ω)"},
	{FieldRingRn, "ring_rn", "rn (Ω)"},
	{FieldRingR2, "ring_r2", "r2 (Ω)"},
	{FieldR1R2, "r1r2", "R1+R2 (Ω)"},
	{FieldRingContinuityLive, "ring_continuity_live", "R2 (Ω)"},
	{FieldInsulationTestVoltage, "insulation_test_voltage", "Test voltage (V)"},
	{FieldInsulationLiveNeutral, "insulation_live_neutral", "L-N (MΩ)"},
	{FieldInsulationLiveEarth, "insulation_live_earth", "L-E (MΩ)"},
	{FieldPolarity, "polarity", "Polarity"},
	{FieldZs, "zs", "Zs (Ω)"},
	{FieldRCDOneX, "rcd_one_x", "RCD 1x (ms)"},
	{FieldRCDTestButton, "rcd_test_button", "RCD test button"},
	{FieldAFDDTest, "afdd_test", "AFDD test"},
	{FieldFunctionalTesting, "functional_testing", "Functional"},
	{FieldNotes, "notes", "Notes"},
	{FieldSourceCircuitID, "source_circuit_id", "Source circuit"},
	{FieldAutoFilled, "auto_filled", "Auto-filled"},
}

var fieldIndex = func() map[Field]int {
	m := make(map[Field]int, len(fieldColumns))
	for i, fc := range fieldColumns {
		m[fc.field] = i
	}
	return m
}()

// ParseField validates a field name coming from outside.
func ParseField(name string) (Field, error) {
	f := Field(name)
	if f == FieldID {
		return "", fmt.Errorf("%w: %q", ErrImmutableField, name)
	}
	if _, ok := fieldIndex[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// IsEditable reports whether f may be written through Set.
func (f Field) IsEditable() bool {
	_, ok := fieldIndex[f]
	return ok
}

// Column returns the database column backing f, or "" for unknown fields.
func (f Field) Column() string {
	if i, ok := fieldIndex[f]; ok {
		return fieldColumns[i].column
	}
	return ""
}

// Label returns the schedule column heading for f.
func (f Field) Label() string {
	if i, ok := fieldIndex[f]; ok {
		return fieldColumns[i].label
	}
	return string(f)
}

// EditableFields lists every editable field in schedule column order.
func EditableFields() []Field {
	out := make([]Field, len(fieldColumns))
	for i, fc := range fieldColumns {
		out[i] = fc.field
	}
	return out
}

// FieldUpdates is a set of field assignments for a single record.
type FieldUpdates map[Field]string

// Fields returns the updated fields in schedule column order so that
// callers iterate deterministically.
func (u FieldUpdates) Fields() []Field {
	out := make([]Field, 0, len(u))
	for f := range u {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		ii, iok := fieldIndex[out[i]]
		jj, jok := fieldIndex[out[j]]
		if iok != jok {
			return iok
		}
		if !iok {
			return out[i] < out[j]
		}
		return ii < jj
	})
	return out
}

// Validate rejects unknown and immutable fields.
func (u FieldUpdates) Validate() error {
	for _, f := range u.Fields() {
		if _, err := ParseField(string(f)); err != nil {
			return err
		}
	}
	return nil
}

// Columns converts the updates into a column map for gorm Updates.
// auto_filled is converted to a bool.
func (u FieldUpdates) Columns() (map[string]interface{}, error) {
	var scratch CircuitTestResult
	cols := make(map[string]interface{}, len(u))
	for _, f := range u.Fields() {
		if err := scratch.Set(f, u[f]); err != nil {
			return nil, err
		}
		if f == FieldAutoFilled {
			cols[f.Column()] = scratch.AutoFilled
			continue
		}
		cols[f.Column()] = u[f]
	}
	return cols, nil
}
