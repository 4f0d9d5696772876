package models

import "time"

// ItemModel is the gorm row for a fetched, deduplicated ContentItem.
type ItemModel struct {
	ID          string `gorm:"primaryKey"`
	URL         string
	Title       string
	Content     string
	PublishTime time.Time `gorm:"index"`
	SourceName  string
	SourceType  string
	FirstSeen   time.Time
}

// TableName pins the table name regardless of struct renames.
func (ItemModel) TableName() string { return "items" }
