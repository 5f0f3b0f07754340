package schedule

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"p9e.in/eicr/models"
	"p9e.in/eicr/pkg/zs"
)

// BorderCue is the provenance marker drawn on a row's left edge.
type BorderCue string

const (
	BorderNone       BorderCue = "none"
	BorderLinked     BorderCue = "linked"
	BorderAutoFilled BorderCue = "auto_filled"
)

// CueFor picks the border cue: a source circuit wins over the auto-filled
// flag.
func CueFor(rec models.CircuitTestResult) BorderCue {
	switch {
	case rec.SourceCircuitID != "":
		return BorderLinked
	case rec.AutoFilled:
		return BorderAutoFilled
	}
	return BorderNone
}

// FieldUpdate is one mutation emitted to the sink.
type FieldUpdate struct {
	ID    string       `json:"id"`
	Field models.Field `json:"field"`
	Value string       `json:"value"`
}

// RowEditor edits one circuit at a time. It holds no record state: every
// call receives the record as last supplied by the owner.
type RowEditor struct {
	sink     MutationSink
	notifier Notifier
	logger   *zap.Logger
}

// NewRowEditor creates a row editor that emits to sink.
func NewRowEditor(sink MutationSink, notifier Notifier, logger *zap.Logger) *RowEditor {
	if notifier == nil {
		notifier = discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RowEditor{sink: sink, notifier: notifier, logger: logger}
}

func isDeviceField(f models.Field) bool {
	return f == models.FieldBSStandard ||
		f == models.FieldProtectiveDeviceCurve ||
		f == models.FieldProtectiveDeviceRating
}

// Edit emits the update for field and then any derived update. Editing the
// device standard, curve or rating re-evaluates the maximum Zs with the
// post-edit value; a lookup miss leaves maxZs untouched.
func (e *RowEditor) Edit(ctx context.Context, rec models.CircuitTestResult, field models.Field, value string) ([]FieldUpdate, error) {
	if err := e.sink.Update(ctx, rec.ID, field, value); err != nil {
		return nil, err
	}
	emitted := []FieldUpdate{{ID: rec.ID, Field: field, Value: value}}

	if !isDeviceField(field) {
		return emitted, nil
	}

	standard, curve, rating := rec.BSStandard, rec.ProtectiveDeviceCurve, rec.ProtectiveDeviceRating
	switch field {
	case models.FieldBSStandard:
		standard = value
	case models.FieldProtectiveDeviceCurve:
		curve = value
	case models.FieldProtectiveDeviceRating:
		rating = value
	}

	if zs.RequiresCurve(standard) && strings.TrimSpace(curve) == "" {
		return emitted, nil
	}
	maxZs, ok := zs.MaxDisconnectionImpedance(standard, curve, rating)
	if !ok {
		e.logger.Debug("no max zs match",
			zap.String("circuit_id", rec.ID),
			zap.String("bs_standard", standard),
			zap.String("curve", curve),
			zap.String("rating", rating))
		return emitted, nil
	}

	formatted := zs.Format(maxZs)
	if err := e.sink.Update(ctx, rec.ID, models.FieldMaxZs, formatted); err != nil {
		return emitted, fmt.Errorf("auto-fill max zs: %w", err)
	}
	return append(emitted, FieldUpdate{ID: rec.ID, Field: models.FieldMaxZs, Value: formatted}), nil
}

// RingContinuityResult is the outcome of an R1+R2 calculation.
type RingContinuityResult struct {
	Computed bool     `json:"computed"`
	Value    string   `json:"value,omitempty"`
	Missing  []string `json:"missing,omitempty"`
}

func parseOhms(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// CalculateRingContinuity derives R1+R2 = (r1 + r2) / 4 from the ring end
// to end readings. Unparseable readings raise a warning and change nothing.
func (e *RowEditor) CalculateRingContinuity(ctx context.Context, rec models.CircuitTestResult) (RingContinuityResult, error) {
	r1, ok1 := parseOhms(rec.RingR1)
	r2, ok2 := parseOhms(rec.RingR2)

	var missing []string
	if !ok1 {
		missing = append(missing, "r1")
	}
	if !ok2 {
		missing = append(missing, "r2")
	}
	if len(missing) > 0 {
		e.notifier.Notify(models.NewWarningNotification(
			"Missing Values",
			fmt.Sprintf("Please enter valid %s values first", strings.Join(missing, " and ")),
		))
		return RingContinuityResult{Missing: missing}, nil
	}

	value := strconv.FormatFloat((r1+r2)/4, 'f', 3, 64)
	if err := e.sink.Update(ctx, rec.ID, models.FieldR1R2, value); err != nil {
		return RingContinuityResult{}, err
	}
	e.notifier.Notify(models.NewSuccessNotification(
		"R1+R2 Calculated",
		fmt.Sprintf("R1+R2 = %s Ω", value),
	))
	return RingContinuityResult{Computed: true, Value: value}, nil
}
