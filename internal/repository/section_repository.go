package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"medication-agent/internal/model"
)

type SectionRepository struct {
	db *gorm.DB
}

func NewSectionRepository(db *gorm.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// UpsertChunks writes the chunks of one (item, section) in part order,
// replacing the text of existing part indexes in place.
func (r *SectionRepository) UpsertChunks(ctx context.Context, itemSeq, section string, texts []string) error {
	if len(texts) == 0 {
		return nil
	}
	rows := make([]model.ProductSection, len(texts))
	for idx, text := range texts {
		rows[idx] = model.ProductSection{
			ItemSeq: itemSeq,
			Section: section,
			PartIdx: idx,
			Text:    text,
		}
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_seq"}, {Name: "section"}, {Name: "part_idx"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("upsert chunks %s/%s: %w: %w", itemSeq, section, ErrWrite, err)
	}
	return nil
}

// DeleteTail removes chunks at or past fromIdx, left over when a re-ingest of
// the section produced fewer chunks than before.
func (r *SectionRepository) DeleteTail(ctx context.Context, itemSeq, section string, fromIdx int) error {
	err := r.db.WithContext(ctx).
		Where("item_seq = ? AND section = ? AND part_idx >= ?", itemSeq, section, fromIdx).
		Delete(&model.ProductSection{}).Error
	if err != nil {
		return fmt.Errorf("delete chunk tail %s/%s: %w: %w", itemSeq, section, ErrWrite, err)
	}
	return nil
}

// Count returns the number of stored chunks for one (item, section).
func (r *SectionRepository) Count(ctx context.Context, itemSeq, section string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ProductSection{}).
		Where("item_seq = ? AND section = ?", itemSeq, section).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count chunks %s/%s failed: %w", itemSeq, section, err)
	}
	return int(count), nil
}
