package models

import "time"

// RunModel is the gorm row for one RunRecord.
type RunModel struct {
	RunID      string `gorm:"primaryKey"`
	Trigger    string
	StartedAt  time.Time `gorm:"index"`
	FinishedAt *time.Time
	State      string
	Error      string
	CountsJSON string
}

// TableName pins the table name regardless of struct renames.
func (RunModel) TableName() string { return "runs" }
