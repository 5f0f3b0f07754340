package models

import "p9e.in/eicr/pkg/zs"

// Pass marks used by the tick-box style test columns.
const (
	PassMark      = "✓"
	FailMark      = "✗"
	NotApplicable = "N/A"
)

// Polarity values.
const (
	PolarityCorrect   = "Correct"
	PolarityIncorrect = "Incorrect"
)

// Option is one entry of a closed vocabulary.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func plain(values ...string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v, Label: v}
	}
	return out
}

var (
	RCDRatingOptions  = []string{"10", "30", "100", "300", "500"}
	RCDRatingAOptions = []string{"16", "20", "25", "32", "40", "63", "80", "100"}
)

// Options is the reference data for every closed-vocabulary column.
type Options struct {
	TypeOfWiring          []Option `json:"typeOfWiring"`
	ReferenceMethod       []Option `json:"referenceMethod"`
	CableSizes            []Option `json:"cableSizes"`
	BSStandards           []Option `json:"bsStandards"`
	Curves                []Option `json:"curves"`
	DeviceRatings         []Option `json:"deviceRatings"`
	RCDBSStandards        []Option `json:"rcdBsStandards"`
	RCDTypes              []Option `json:"rcdTypes"`
	RCDRatings            []Option `json:"rcdRatings"`
	RCDRatingsA           []Option `json:"rcdRatingsA"`
	InsulationTestVoltage []Option `json:"insulationTestVoltage"`
	Polarity              []Option `json:"polarity"`
	PassMarks             []Option `json:"passMarks"`
}

// DefaultOptions returns the built-in vocabularies.
func DefaultOptions() Options {
	return Options{
		TypeOfWiring: []Option{
			{Value: "A", Label: "A - PVC/PVC"},
			{Value: "B", Label: "B - PVC cables in metallic conduit"},
			{Value: "C", Label: "C - PVC cables in non-metallic conduit"},
			{Value: "D", Label: "D - PVC cables in metallic trunking"},
			{Value: "E", Label: "E - PVC cables in non-metallic trunking"},
			{Value: "F", Label: "F - PVC/SWA"},
			{Value: "G", Label: "G - XLPE/SWA"},
			{Value: "H", Label: "H - Mineral insulated"},
			{Value: "O", Label: "O - Other"},
		},
		ReferenceMethod: plain("A", "B", "C", "D", "E", "F", "G", "100", "101", "102", "103"),
		CableSizes:      plain("1.0", "1.5", "2.5", "4.0", "6.0", "10", "16", "25", "35", "50"),
		BSStandards:     plain(zs.Standards()...),
		Curves:          plain("B", "C", "D", "1", "2", "3"),
		DeviceRatings:   plain("3", "5", "6", "10", "13", "15", "16", "20", "25", "30", "32", "40", "45", "50", "60", "63", "80", "100", "125"),
		RCDBSStandards:  plain("BS EN 61008", "BS EN 61009", "BS EN 62423", "BS 7288", "BS 4293"),
		RCDTypes:        plain("AC", "A", "F", "B", "S"),
		RCDRatings:      plain(RCDRatingOptions...),
		RCDRatingsA:     plain(RCDRatingAOptions...),
		InsulationTestVoltage: []Option{
			{Value: "250", Label: "250 V"},
			{Value: "500", Label: "500 V"},
			{Value: "1000", Label: "1000 V"},
		},
		Polarity:  plain(PolarityCorrect, PolarityIncorrect, NotApplicable),
		PassMarks: plain(PassMark, FailMark, NotApplicable),
	}
}

// BulkChoices returns the allowed values for a header bulk-fill field.
func (o Options) BulkChoices(f Field) []Option {
	switch f {
	case FieldRCDBSStandard:
		return o.RCDBSStandards
	case FieldRCDType:
		return o.RCDTypes
	case FieldRCDRating:
		return o.RCDRatings
	case FieldRCDRatingA:
		return o.RCDRatingsA
	case FieldRCDTestButton, FieldAFDDTest:
		return []Option{{Value: PassMark, Label: PassMark}}
	}
	return nil
}

// HasValue reports whether value appears in opts.
func HasValue(opts []Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
