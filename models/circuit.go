package models

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUnknownField   = errors.New("unknown circuit field")
	ErrImmutableField = errors.New("circuit field is not editable")
	ErrInvalidValue   = errors.New("invalid field value")
)

// CircuitTestResult is one row of a circuit schedule: the recorded
// inspection and test data for a single final circuit.
type CircuitTestResult struct {
	ID         string `gorm:"type:uuid;primaryKey"                     json:"id"`
	ScheduleID string `gorm:"column:schedule_id;type:uuid;index"        json:"scheduleId"`
	Position   int    `gorm:"column:position;not null;default:0"        json:"position"`

	CircuitDesignation string `gorm:"column:circuit_designation"  json:"circuitDesignation"`
	CircuitDescription string `gorm:"column:circuit_description"  json:"circuitDescription"`
	TypeOfWiring       string `gorm:"column:type_of_wiring"       json:"typeOfWiring"`
	ReferenceMethod    string `gorm:"column:reference_method"     json:"referenceMethod"`
	PointsServed       string `gorm:"column:points_served"        json:"pointsServed"`
	LiveSize           string `gorm:"column:live_size"            json:"liveSize"`
	CpcSize            string `gorm:"column:cpc_size"             json:"cpcSize"`

	// Protective device
	BSStandard               string `gorm:"column:bs_standard"                 json:"bsStandard"`
	ProtectiveDeviceCurve    string `gorm:"column:protective_device_curve"     json:"protectiveDeviceCurve"`
	ProtectiveDeviceRating   string `gorm:"column:protective_device_rating"    json:"protectiveDeviceRating"`
	ProtectiveDeviceKaRating string `gorm:"column:protective_device_ka_rating" json:"protectiveDeviceKaRating"`
	MaxZs                    string `gorm:"column:max_zs"                      json:"maxZs"`

	// RCD
	RCDBSStandard string `gorm:"column:rcd_bs_standard" json:"rcdBsStandard"`
	RCDType       string `gorm:"column:rcd_type"        json:"rcdType"`
	RCDRating     string `gorm:"column:rcd_rating"      json:"rcdRating"`
	RCDRatingA    string `gorm:"column:rcd_rating_a"    json:"rcdRatingA"`

	// Continuity
	RingR1             string `gorm:"column:ring_r1"              json:"ringR1"`
	RingRn             string `gorm:"column:ring_rn"              json:"ringRn"`
	RingR2             string `gorm:"column:ring_r2"              json:"ringR2"`
	R1R2               string `gorm:"column:r1r2"                 json:"r1r2"`
	RingContinuityLive string `gorm:"column:ring_continuity_live" json:"ringContinuityLive"`

	// Insulation resistance
	InsulationTestVoltage string `gorm:"column:insulation_test_voltage" json:"insulationTestVoltage"`
	InsulationLiveNeutral string `gorm:"column:insulation_live_neutral" json:"insulationLiveNeutral"`
	InsulationLiveEarth   string `gorm:"column:insulation_live_earth"   json:"insulationLiveEarth"`

	Polarity          string `gorm:"column:polarity"           json:"polarity"`
	Zs                string `gorm:"column:zs"                 json:"zs"`
	RCDOneX           string `gorm:"column:rcd_one_x"          json:"rcdOneX"`
	RCDTestButton     string `gorm:"column:rcd_test_button"    json:"rcdTestButton"`
	AFDDTest          string `gorm:"column:afdd_test"          json:"afddTest"`
	FunctionalTesting string `gorm:"column:functional_testing" json:"functionalTesting"`
	Notes             string `gorm:"column:notes;type:text"    json:"notes"`

	// Provenance. Weak back-reference to the circuit this row was derived from.
	SourceCircuitID string `gorm:"column:source_circuit_id" json:"sourceCircuitId,omitempty"`
	AutoFilled      bool   `gorm:"column:auto_filled;default:false" json:"autoFilled"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index"          json:"-"`
}

// TableName specifies the table name
func (CircuitTestResult) TableName() string {
	return "circuit_test_results"
}

// BeforeCreate hook for CircuitTestResult
func (c *CircuitTestResult) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return
}

// stringField returns the address of the string backing f, or nil when f is
// not a string field.
func (c *CircuitTestResult) stringField(f Field) *string {
	switch f {
	case FieldCircuitDesignation:
		return &c.CircuitDesignation
	case FieldCircuitDescription:
		return &c.CircuitDescription
	case FieldTypeOfWiring:
		return &c.TypeOfWiring
	case FieldReferenceMethod:
		return &c.ReferenceMethod
	case FieldPointsServed:
		return &c.PointsServed
	case FieldLiveSize:
		return &c.LiveSize
	case FieldCpcSize:
		return &c.CpcSize
	case FieldBSStandard:
		return &c.BSStandard
	case FieldProtectiveDeviceCurve:
		return &c.ProtectiveDeviceCurve
	case FieldProtectiveDeviceRating:
		return &c.ProtectiveDeviceRating
	case FieldProtectiveDeviceKaRating:
		return &c.ProtectiveDeviceKaRating
	case FieldMaxZs:
		return &c.MaxZs
	case FieldRCDBSStandard:
		return &c.RCDBSStandard
	case FieldRCDType:
		return &c.RCDType
	case FieldRCDRating:
		return &c.RCDRating
	case FieldRCDRatingA:
		return &c.RCDRatingA
	case FieldRingR1:
		return &c.RingR1
	case FieldRingRn:
		return &c.RingRn
	case FieldRingR2:
		return &c.RingR2
	case FieldR1R2:
		return &c.R1R2
	case FieldRingContinuityLive:
		return &c.RingContinuityLive
	case FieldInsulationTestVoltage:
		return &c.InsulationTestVoltage
	case FieldInsulationLiveNeutral:
		return &c.InsulationLiveNeutral
	case FieldInsulationLiveEarth:
		return &c.InsulationLiveEarth
	case FieldPolarity:
		return &c.Polarity
	case FieldZs:
		return &c.Zs
	case FieldRCDOneX:
		return &c.RCDOneX
	case FieldRCDTestButton:
		return &c.RCDTestButton
	case FieldAFDDTest:
		return &c.AFDDTest
	case FieldFunctionalTesting:
		return &c.FunctionalTesting
	case FieldNotes:
		return &c.Notes
	case FieldSourceCircuitID:
		return &c.SourceCircuitID
	}
	return nil
}

// Get returns the current value of f in its string form.
func (c CircuitTestResult) Get(f Field) (string, error) {
	switch f {
	case FieldID:
		return c.ID, nil
	case FieldAutoFilled:
		return strconv.FormatBool(c.AutoFilled), nil
	}
	if p := c.stringField(f); p != nil {
		return *p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, f)
}

// Set assigns value to f. The id is never reassigned.
func (c *CircuitTestResult) Set(f Field, value string) error {
	switch f {
	case FieldID:
		return fmt.Errorf("%w: %q", ErrImmutableField, f)
	case FieldAutoFilled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, f, value)
		}
		c.AutoFilled = b
		return nil
	}
	p := c.stringField(f)
	if p == nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	*p = value
	return nil
}

// Apply sets every field in updates. Nothing is changed if any field is
// rejected.
func (c *CircuitTestResult) Apply(updates FieldUpdates) error {
	next := *c
	for _, f := range updates.Fields() {
		if err := next.Set(f, updates[f]); err != nil {
			return err
		}
	}
	*c = next
	return nil
}
