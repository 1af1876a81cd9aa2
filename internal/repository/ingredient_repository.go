package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"medication-agent/internal/model"
)

type IngredientRepository struct {
	db *gorm.DB
}

func NewIngredientRepository(db *gorm.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

// InsertAll records the extracted ingredient tokens for an item. Duplicate
// (item_seq, ingredient) pairs are no-ops.
func (r *IngredientRepository) InsertAll(ctx context.Context, itemSeq string, ingredients []string) error {
	if len(ingredients) == 0 {
		return nil
	}
	rows := make([]model.ProductIngredient, 0, len(ingredients))
	seen := make(map[string]struct{}, len(ingredients))
	for _, ing := range ingredients {
		if _, ok := seen[ing]; ok {
			continue
		}
		seen[ing] = struct{}{}
		rows = append(rows, model.ProductIngredient{ItemSeq: itemSeq, Ingredient: ing})
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("insert ingredients for %s: %w: %w", itemSeq, ErrWrite, err)
	}
	return nil
}

// ListByItemSeq returns the accumulated ingredient set for the item, ordered.
func (r *IngredientRepository) ListByItemSeq(ctx context.Context, itemSeq string) ([]string, error) {
	var ingredients []string
	err := r.db.WithContext(ctx).
		Model(&model.ProductIngredient{}).
		Where("item_seq = ?", itemSeq).
		Order("ingredient").
		Pluck("ingredient", &ingredients).Error
	if err != nil {
		return nil, fmt.Errorf("list ingredients for %s failed: %w", itemSeq, err)
	}
	return ingredients, nil
}
