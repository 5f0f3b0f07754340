package models

import "fmt"

// RCDPreset is a named bundle of the four RCD values applied together.
type RCDPreset struct {
	Label      string `json:"label"      yaml:"label"`
	BSStandard string `json:"bsStandard" yaml:"bsStandard"`
	Type       string `json:"type"       yaml:"type"`
	Rating     string `json:"rating"     yaml:"rating"`
	RatingA    string `json:"ratingA"    yaml:"ratingA"`
}

// Updates returns the four RCD field assignments carried by the preset.
func (p RCDPreset) Updates() FieldUpdates {
	return FieldUpdates{
		FieldRCDBSStandard: p.BSStandard,
		FieldRCDType:       p.Type,
		FieldRCDRating:     p.Rating,
		FieldRCDRatingA:    p.RatingA,
	}
}

// Validate requires a label and a recognised RCD rating.
func (p RCDPreset) Validate() error {
	if p.Label == "" {
		return fmt.Errorf("%w: preset label is required", ErrInvalidValue)
	}
	if !contains(RCDRatingOptions, p.Rating) {
		return fmt.Errorf("%w: preset %q has unsupported rcd rating %q", ErrInvalidValue, p.Label, p.Rating)
	}
	return nil
}

// DefaultRCDPresets are offered when no preset catalog file is configured.
var DefaultRCDPresets = []RCDPreset{
	{Label: "30mA Type A RCBO", BSStandard: "BS EN 61009", Type: "A", Rating: "30", RatingA: "32"},
	{Label: "30mA Type AC RCCB", BSStandard: "BS EN 61008", Type: "AC", Rating: "30", RatingA: "63"},
	{Label: "30mA Type A RCCB", BSStandard: "BS EN 61008", Type: "A", Rating: "30", RatingA: "80"},
	{Label: "100mA Type S Time Delay", BSStandard: "BS EN 61008", Type: "S", Rating: "100", RatingA: "100"},
	{Label: "30mA Type B RCD", BSStandard: "BS EN 62423", Type: "B", Rating: "30", RatingA: "40"},
}

// FindPreset looks a preset up by label.
func FindPreset(presets []RCDPreset, label string) (RCDPreset, bool) {
	for _, p := range presets {
		if p.Label == label {
			return p, true
		}
	}
	return RCDPreset{}, false
}
