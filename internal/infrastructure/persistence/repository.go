// Package persistence implements Repository (the pipeline's storage
// boundary) atop a gorm-backed single-file sqlite store.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/newsbot/cryptonews/internal/domain/entity"
	"github.com/newsbot/cryptonews/internal/domain/service"
	"github.com/newsbot/cryptonews/internal/infrastructure/persistence/models"
)

// Repository is the concrete service.Repository implementation.
type Repository struct {
	db *gorm.DB
}

var _ service.Repository = (*Repository)(nil)

// NewRepository wraps an already-migrated gorm connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertItems inserts items not already present by ID, leaving existing
// rows untouched (idempotent re-fetch).
func (r *Repository) UpsertItems(ctx context.Context, items []entity.ContentItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]models.ItemModel, 0, len(items))
	now := time.Now().UTC()
	for _, item := range items {
		rows = append(rows, models.ItemModel{
			ID:          item.ID,
			URL:         item.URL,
			Title:       item.Title,
			Content:     item.Content,
			PublishTime: item.PublishTime,
			SourceName:  item.SourceName,
			SourceType:  string(item.SourceType),
			FirstSeen:   now,
		})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&rows).Error
}

// ListUnanalyzedItems returns items inside window with no row in results.
func (r *Repository) ListUnanalyzedItems(ctx context.Context, window service.TimeWindow) ([]entity.ContentItem, error) {
	var rows []models.ItemModel
	err := r.db.WithContext(ctx).
		Where("publish_time BETWEEN ? AND ?", window.Start, window.End).
		Where("id NOT IN (?)", r.db.Model(&models.ResultModel{}).Select("source_item_id")).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list unanalyzed items: %w", err)
	}

	out := make([]entity.ContentItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.ContentItem{
			ID:          row.ID,
			Title:       row.Title,
			Content:     row.Content,
			URL:         row.URL,
			PublishTime: row.PublishTime,
			SourceName:  row.SourceName,
			SourceType:  entity.SourceType(row.SourceType),
		})
	}
	return out, nil
}

// StoreResults upserts by SourceItemID so re-analysis overwrites rather
// than duplicates.
func (r *Repository) StoreResults(ctx context.Context, results []entity.AnalysisResult) error {
	if len(results) == 0 {
		return nil
	}
	rows := make([]models.ResultModel, 0, len(results))
	now := time.Now().UTC()
	for _, res := range results {
		rows = append(rows, models.ResultModel{
			SourceItemID: res.SourceItemID,
			Category:     res.Category,
			WeightScore:  res.WeightScore,
			Summary:      res.Summary,
			Source:       res.Source,
			TimeStr:      res.Time,
			CreatedAt:    now,
		})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_item_id"}},
		UpdateAll: true,
	}).Create(&rows).Error
}

// SaveRun upserts a RunRecord by RunID.
func (r *Repository) SaveRun(ctx context.Context, run entity.RunRecord) error {
	counts, err := json.Marshal(run.Counts)
	if err != nil {
		return fmt.Errorf("marshal run counts: %w", err)
	}
	row := models.RunModel{
		RunID:      run.RunID,
		Trigger:    string(run.Trigger),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		State:      string(run.State),
		Error:      run.Error,
		CountsJSON: string(counts),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "run_id"}},
		UpdateAll: true,
	}).Create(&row).Error
}

// ListRecentRuns returns up to limit most recent RunRecords, most recent first.
func (r *Repository) ListRecentRuns(ctx context.Context, limit int) ([]entity.RunRecord, error) {
	var rows []models.RunModel
	q := r.db.WithContext(ctx).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}

	out := make([]entity.RunRecord, 0, len(rows))
	for _, row := range rows {
		var counts entity.ItemCounts
		_ = json.Unmarshal([]byte(row.CountsJSON), &counts)
		out = append(out, entity.RunRecord{
			RunID:      row.RunID,
			Trigger:    entity.TriggerReason(row.Trigger),
			StartedAt:  row.StartedAt,
			FinishedAt: row.FinishedAt,
			State:      entity.RunState(row.State),
			Error:      row.Error,
			Counts:     counts,
		})
	}
	return out, nil
}

// DeleteOlderThan removes items/results/runs whose timestamps predate
// the retention cutoff, backing the retention-sweep maintenance task.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoffDays int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -cutoffDays)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("started_at < ?", cutoff).Delete(&models.RunModel{}).Error; err != nil {
			return fmt.Errorf("delete old runs: %w", err)
		}
		if err := tx.Where("created_at < ?", cutoff).Delete(&models.ResultModel{}).Error; err != nil {
			return fmt.Errorf("delete old results: %w", err)
		}
		if err := tx.Where("first_seen < ?", cutoff).Delete(&models.ItemModel{}).Error; err != nil {
			return fmt.Errorf("delete old items: %w", err)
		}
		return nil
	})
}
