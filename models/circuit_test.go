package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitSetAndGet(t *testing.T) {
	var c CircuitTestResult
	for _, f := range EditableFields() {
		if f == FieldAutoFilled {
			continue
		}
		require.NoError(t, c.Set(f, "v-"+string(f)), f)
		got, err := c.Get(f)
		require.NoError(t, err)
		assert.Equal(t, "v-"+string(f), got)
	}

	require.NoError(t, c.Set(FieldAutoFilled, "true"))
	assert.True(t, c.AutoFilled)
	got, _ := c.Get(FieldAutoFilled)
	assert.Equal(t, "true", got)
}

func TestCircuitSetRejections(t *testing.T) {
	c := CircuitTestResult{ID: "c1"}

	assert.ErrorIs(t, c.Set(FieldID, "c2"), ErrImmutableField)
	assert.Equal(t, "c1", c.ID)
	assert.ErrorIs(t, c.Set("nope", "x"), ErrUnknownField)
	assert.ErrorIs(t, c.Set(FieldAutoFilled, "perhaps"), ErrInvalidValue)

	_, err := c.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestCircuitApplyIsAllOrNothing(t *testing.T) {
	c := CircuitTestResult{ID: "c1", RCDType: "AC"}
	err := c.Apply(FieldUpdates{FieldRCDType: "A", FieldID: "c2"})
	require.ErrorIs(t, err, ErrImmutableField)
	assert.Equal(t, "AC", c.RCDType)

	require.NoError(t, c.Apply(RCDPreset{BSStandard: "BS EN 61008", Type: "A", Rating: "30", RatingA: "63"}.Updates()))
	assert.Equal(t, "BS EN 61008", c.RCDBSStandard)
	assert.Equal(t, "A", c.RCDType)
	assert.Equal(t, "30", c.RCDRating)
	assert.Equal(t, "63", c.RCDRatingA)
}

func TestParseField(t *testing.T) {
	tests := []struct {
		name string
		in   string
		err  error
	}{
		{"editable", "maxZs", nil},
		{"provenance", "sourceCircuitId", nil},
		{"id is immutable", "id", ErrImmutableField},
		{"unknown", "max_zs", ErrUnknownField},
		{"empty", "", ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseField(tt.in)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Field(tt.in), f)
		})
	}
}

func TestFieldUpdatesFieldsFollowColumnOrder(t *testing.T) {
	u := FieldUpdates{FieldNotes: "n", FieldCircuitDesignation: "1", FieldMaxZs: "1.44"}
	assert.Equal(t, []Field{FieldCircuitDesignation, FieldMaxZs, FieldNotes}, u.Fields())
}

func TestFieldUpdatesColumns(t *testing.T) {
	cols, err := FieldUpdates{FieldRCDRating: "30", FieldAutoFilled: "1"}.Columns()
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"rcd_rating": "30", "auto_filled": true}, cols)

	_, err = FieldUpdates{FieldAutoFilled: "x"}.Columns()
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestPresetValidate(t *testing.T) {
	for _, p := range DefaultRCDPresets {
		assert.NoError(t, p.Validate(), p.Label)
	}
	assert.ErrorIs(t, RCDPreset{Label: "x", Rating: "25"}.Validate(), ErrInvalidValue)
	assert.ErrorIs(t, RCDPreset{Rating: "30"}.Validate(), ErrInvalidValue)
}
