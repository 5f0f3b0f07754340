package circuitstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"p9e.in/eicr/models"
	"p9e.in/eicr/pkg/schedule"
)

var (
	_ schedule.Store             = (*ScheduleStore)(nil)
	_ schedule.FieldBulkUpdater  = (*ScheduleStore)(nil)
	_ schedule.RecordBulkUpdater = (*ScheduleStore)(nil)
)

// ScheduleStore is the mutation surface for the circuits of one schedule.
type ScheduleStore struct {
	db         *gorm.DB
	scheduleID string
	logger     *zap.Logger
}

func (s *ScheduleStore) circuits(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.CircuitTestResult{}).
		Where("schedule_id = ?", s.scheduleID)
}

func (s *ScheduleStore) List(ctx context.Context) ([]models.CircuitTestResult, error) {
	var out []models.CircuitTestResult
	if err := s.circuits(ctx).Order("position ASC, created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ScheduleStore) Update(ctx context.Context, id string, field models.Field, value string) error {
	return s.BulkUpdate(ctx, id, models.FieldUpdates{field: value})
}

func (s *ScheduleStore) Remove(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND schedule_id = ?", id, s.scheduleID).
		Delete(&models.CircuitTestResult{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete circuit: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", schedule.ErrNotFound, id)
	}
	return nil
}

// BulkFieldUpdate sets one column on every circuit of the schedule in a
// single UPDATE statement.
func (s *ScheduleStore) BulkFieldUpdate(ctx context.Context, field models.Field, value string) (int, error) {
	if _, err := models.ParseField(string(field)); err != nil {
		return 0, err
	}
	cols, err := models.FieldUpdates{field: value}.Columns()
	if err != nil {
		return 0, err
	}
	result := s.circuits(ctx).Updates(cols)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update %s: %w", field, result.Error)
	}
	s.logger.Debug("bulk field update",
		zap.String("schedule_id", s.scheduleID),
		zap.String("field", string(field)),
		zap.Int64("rows", result.RowsAffected))
	return int(result.RowsAffected), nil
}

// BulkUpdate sets several columns on one circuit in a single statement.
func (s *ScheduleStore) BulkUpdate(ctx context.Context, id string, updates models.FieldUpdates) error {
	if err := updates.Validate(); err != nil {
		return err
	}
	cols, err := updates.Columns()
	if err != nil {
		return err
	}
	result := s.circuits(ctx).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return fmt.Errorf("failed to update circuit %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", schedule.ErrNotFound, id)
	}
	return nil
}
