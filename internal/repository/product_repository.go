package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"medication-agent/internal/model"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Upsert creates the product or fully replaces its mutable fields. Idempotent
// on item_seq.
func (r *ProductRepository) Upsert(ctx context.Context, product *model.Product) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "item_seq"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"entp_name", "item_name", "item_image", "bizrno",
			"open_de", "update_de", "raw_json", "updated_at",
		}),
	}).Create(product).Error
	if err != nil {
		return fmt.Errorf("upsert product %s: %w: %w", product.ItemSeq, ErrWrite, err)
	}
	return nil
}

func (r *ProductRepository) GetByItemSeq(ctx context.Context, itemSeq string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Where("item_seq = ?", itemSeq).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s failed: %w", itemSeq, err)
	}
	return &product, nil
}
