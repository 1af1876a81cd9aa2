package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"medication-agent/internal/model"
)

type AliasRepository struct {
	db *gorm.DB
}

func NewAliasRepository(db *gorm.DB) *AliasRepository {
	return &AliasRepository{db: db}
}

// Insert records that the product is reachable under the alias. Re-inserting
// an existing (alias, item_seq) pair is a no-op.
func (r *AliasRepository) Insert(ctx context.Context, alias, itemSeq string) error {
	row := model.ProductAlias{Alias: alias, ItemSeq: itemSeq}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("insert alias %q for %s: %w: %w", alias, itemSeq, ErrWrite, err)
	}
	return nil
}

// ListByItemSeq returns every alias observed for the item, ordered for
// deterministic payloads.
func (r *AliasRepository) ListByItemSeq(ctx context.Context, itemSeq string) ([]string, error) {
	var aliases []string
	err := r.db.WithContext(ctx).
		Model(&model.ProductAlias{}).
		Where("item_seq = ?", itemSeq).
		Order("alias").
		Pluck("alias", &aliases).Error
	if err != nil {
		return nil, fmt.Errorf("list aliases for %s failed: %w", itemSeq, err)
	}
	return aliases, nil
}
