package model

import "time"

// ProductAlias links a human-searchable name (brand name, colloquial name) to a
// product. Many-to-many: the same alias can cover several products and one
// product can carry several aliases. Insertion is idempotent on the pair.
type ProductAlias struct {
	Alias     string    `gorm:"primaryKey;size:255" json:"alias"`
	ItemSeq   string    `gorm:"primaryKey;size:32;index" json:"item_seq"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProductAlias) TableName() string {
	return "product_aliases"
}
