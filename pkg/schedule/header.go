package schedule

import (
	"context"
	"fmt"

	"p9e.in/eicr/models"
)

// HeaderControls are the "apply to all rows" actions on the schedule header.
type HeaderControls struct {
	table    *Table
	notifier Notifier
}

// BulkFields lists the fields the header can fill.
var BulkFields = []models.Field{
	models.FieldRCDTestButton,
	models.FieldAFDDTest,
	models.FieldRCDBSStandard,
	models.FieldRCDType,
	models.FieldRCDRating,
	models.FieldRCDRatingA,
}

// IsBulkField reports whether the header exposes a fill for f.
func IsBulkField(f models.Field) bool {
	for _, b := range BulkFields {
		if b == f {
			return true
		}
	}
	return false
}

// FillRCDTestButton marks the RCD test button as passed on every circuit.
func (h *HeaderControls) FillRCDTestButton(ctx context.Context) (*Batch, error) {
	batch, err := h.table.BulkFieldUpdate(ctx, models.FieldRCDTestButton, models.PassMark)
	if err != nil {
		return nil, err
	}
	h.notifyCount("RCD Test Button", batch)
	return batch, nil
}

// FillAFDDTest marks the AFDD test as passed on every circuit.
func (h *HeaderControls) FillAFDDTest(ctx context.Context) (*Batch, error) {
	batch, err := h.table.BulkFieldUpdate(ctx, models.FieldAFDDTest, models.PassMark)
	if err != nil {
		return nil, err
	}
	h.notifyCount("AFDD Test", batch)
	return batch, nil
}

// SetRCDBSStandard applies one RCD standard to every circuit.
func (h *HeaderControls) SetRCDBSStandard(ctx context.Context, value string) (*Batch, error) {
	return h.setValue(ctx, models.FieldRCDBSStandard, "RCD BS Standard", value, value)
}

// SetRCDType applies one RCD type to every circuit.
func (h *HeaderControls) SetRCDType(ctx context.Context, value string) (*Batch, error) {
	return h.setValue(ctx, models.FieldRCDType, "RCD Type", value, "Type "+value)
}

// SetRCDRating applies one residual operating current to every circuit.
func (h *HeaderControls) SetRCDRating(ctx context.Context, value string) (*Batch, error) {
	return h.setValue(ctx, models.FieldRCDRating, "RCD Rating", value, value+"mA")
}

// SetRCDRatingA applies one RCD current rating to every circuit.
func (h *HeaderControls) SetRCDRatingA(ctx context.Context, value string) (*Batch, error) {
	return h.setValue(ctx, models.FieldRCDRatingA, "RCD Rating (A)", value, value+"A")
}

// Fill dispatches a fill by field; pass-mark fields ignore value.
func (h *HeaderControls) Fill(ctx context.Context, field models.Field, value string) (*Batch, error) {
	switch field {
	case models.FieldRCDTestButton:
		return h.FillRCDTestButton(ctx)
	case models.FieldAFDDTest:
		return h.FillAFDDTest(ctx)
	case models.FieldRCDBSStandard:
		return h.SetRCDBSStandard(ctx, value)
	case models.FieldRCDType:
		return h.SetRCDType(ctx, value)
	case models.FieldRCDRating:
		return h.SetRCDRating(ctx, value)
	case models.FieldRCDRatingA:
		return h.SetRCDRatingA(ctx, value)
	}
	return nil, fmt.Errorf("%w: %q has no header fill", models.ErrUnknownField, field)
}

func (h *HeaderControls) setValue(ctx context.Context, field models.Field, title, value, shown string) (*Batch, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: %s requires a value", models.ErrInvalidValue, field)
	}
	batch, err := h.table.BulkFieldUpdate(ctx, field, value)
	if err != nil {
		return nil, err
	}
	h.notifier.Notify(models.NewSuccessNotification(
		title+" Updated",
		fmt.Sprintf("All circuits set to %s", shown),
	))
	return batch, nil
}

func (h *HeaderControls) notifyCount(title string, batch *Batch) {
	n := batch.Result().Targets
	h.notifier.Notify(models.NewSuccessNotification(
		title+" Updated",
		fmt.Sprintf("All %d %s marked as pass", n, plural(n, "circuit", "circuits")),
	))
}
