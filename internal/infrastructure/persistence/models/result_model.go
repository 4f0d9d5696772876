package models

import "time"

// ResultModel is the gorm row for one AnalysisResult, keyed by the item
// it was derived from so re-analysis overwrites rather than duplicates.
type ResultModel struct {
	SourceItemID string `gorm:"primaryKey"`
	Category     string `gorm:"index"`
	WeightScore  int
	Summary      string
	Source       string
	TimeStr      string
	CreatedAt    time.Time
}

// TableName pins the table name regardless of struct renames.
func (ResultModel) TableName() string { return "results" }
