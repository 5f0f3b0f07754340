package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Schedule is the schedule of test results for one distribution board. It
// owns the ordered list of circuits.
type Schedule struct {
	ID             string         `gorm:"type:uuid;primaryKey"             json:"id"`
	Name           string         `gorm:"column:name;size:200;not null"    json:"name"`
	BoardReference string         `gorm:"column:board_reference;size:100"  json:"boardReference"`
	Location       string         `gorm:"column:location;size:255"         json:"location"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"                   json:"createdAt"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"                   json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index"                            json:"-"`

	Circuits []CircuitTestResult `gorm:"foreignKey:ScheduleID" json:"circuits,omitempty"`
}

// TableName specifies the table name
func (Schedule) TableName() string {
	return "schedules"
}

// BeforeCreate hook for Schedule
func (s *Schedule) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return
}

// AuditAction identifies the bulk action recorded in a ScheduleAudit.
type AuditAction string

const (
	AuditActionBulkField AuditAction = "bulk_field"
	AuditActionPreset    AuditAction = "rcd_preset"
)

// ScheduleAudit records one bulk action against a schedule and its outcome.
// Failed holds the rejected sub-updates with their error text.
type ScheduleAudit struct {
	ID         string         `gorm:"type:uuid;primaryKey"                   json:"id"`
	ScheduleID string         `gorm:"column:schedule_id;type:uuid;index"     json:"scheduleId"`
	Action     AuditAction    `gorm:"column:action;size:50;not null"         json:"action"`
	Field      string         `gorm:"column:field;size:100"                  json:"field,omitempty"`
	Value      string         `gorm:"column:value;size:255"                  json:"value,omitempty"`
	Label      string         `gorm:"column:label;size:255"                  json:"label,omitempty"`
	CircuitIDs datatypes.JSON `gorm:"column:circuit_ids"                     json:"circuitIds"`
	Updates    datatypes.JSON `gorm:"column:updates"                         json:"updates,omitempty"`
	Path       string         `gorm:"column:path;size:20"                    json:"path"`
	Applied    int            `gorm:"column:applied;not null;default:0"      json:"applied"`
	Failed     datatypes.JSON `gorm:"column:failed"                          json:"failed,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"                         json:"createdAt"`
}

// TableName specifies the table name
func (ScheduleAudit) TableName() string {
	return "schedule_audits"
}

// BeforeCreate hook for ScheduleAudit
func (a *ScheduleAudit) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return
}
