// Package circuitstore persists schedules and their circuits with gorm and
// exposes each schedule as a schedule.Store with both batch capabilities.
package circuitstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"p9e.in/eicr/models"
	"p9e.in/eicr/pkg/schedule"
)

var ErrScheduleNotFound = errors.New("schedule not found")

// Store handles schedule persistence
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New creates a new store instance
func New(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// CreateSchedule inserts a new, empty schedule.
func (s *Store) CreateSchedule(ctx context.Context, sched *models.Schedule) error {
	sched.Circuits = nil
	if err := s.db.WithContext(ctx).Create(sched).Error; err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

// GetSchedule loads a schedule with its circuits in render order.
func (s *Store) GetSchedule(ctx context.Context, id string) (models.Schedule, error) {
	var sched models.Schedule
	err := s.db.WithContext(ctx).
		Preload("Circuits", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		First(&sched, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Schedule{}, fmt.Errorf("%w: %s", ErrScheduleNotFound, id)
	}
	if err != nil {
		return models.Schedule{}, err
	}
	return sched, nil
}

// HasSchedule reports whether a live schedule with id exists.
func (s *Store) HasSchedule(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Schedule{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListSchedules returns every schedule, newest first, without circuits.
func (s *Store) ListSchedules(ctx context.Context) ([]models.Schedule, error) {
	var out []models.Schedule
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// AddCircuit appends rec to the end of the schedule.
func (s *Store) AddCircuit(ctx context.Context, scheduleID string, rec models.CircuitTestResult) (models.CircuitTestResult, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := New(tx, s.logger).HasSchedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrScheduleNotFound, scheduleID)
		}

		var maxPos sql.NullInt64
		if err := tx.Model(&models.CircuitTestResult{}).
			Where("schedule_id = ?", scheduleID).
			Select("MAX(position)").
			Row().Scan(&maxPos); err != nil {
			return err
		}
		rec.ScheduleID = scheduleID
		rec.Position = 0
		if maxPos.Valid {
			rec.Position = int(maxPos.Int64) + 1
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return models.CircuitTestResult{}, err
	}
	return rec, nil
}

// RecordAudit stores the outcome of one bulk action.
func (s *Store) RecordAudit(ctx context.Context, scheduleID string, action models.AuditAction, field, value, label string, ids []string, updates models.FieldUpdates, res schedule.BatchResult) error {
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	updatesJSON, err := json.Marshal(updates)
	if err != nil {
		return err
	}
	failedJSON, err := json.Marshal(res.Failures)
	if err != nil {
		return err
	}
	audit := models.ScheduleAudit{
		ScheduleID: scheduleID,
		Action:     action,
		Field:      field,
		Value:      value,
		Label:      label,
		CircuitIDs: datatypes.JSON(idsJSON),
		Updates:    datatypes.JSON(updatesJSON),
		Path:       string(res.Path),
		Applied:    res.Applied,
		Failed:     datatypes.JSON(failedJSON),
	}
	if err := s.db.WithContext(ctx).Create(&audit).Error; err != nil {
		s.logger.Error("failed to record schedule audit", zap.String("schedule_id", scheduleID), zap.Error(err))
		return err
	}
	if len(res.Failures) > 0 {
		s.logger.Warn("bulk action partially applied",
			zap.String("schedule_id", scheduleID),
			zap.String("action", string(action)),
			zap.String("path", string(res.Path)),
			zap.Int("applied", res.Applied),
			zap.Int("failed", len(res.Failures)))
	}
	return nil
}

// Audits lists the bulk actions recorded against a schedule, oldest first.
func (s *Store) Audits(ctx context.Context, scheduleID string) ([]models.ScheduleAudit, error) {
	var out []models.ScheduleAudit
	err := s.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// ForSchedule scopes the mutation surface to one schedule.
func (s *Store) ForSchedule(scheduleID string) *ScheduleStore {
	return &ScheduleStore{db: s.db, scheduleID: scheduleID, logger: s.logger}
}
