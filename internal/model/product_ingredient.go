package model

import "time"

// ProductIngredient is an active-ingredient token extracted from the product
// display name. Derived data: re-derivable from the name at any time.
type ProductIngredient struct {
	ItemSeq    string    `gorm:"primaryKey;size:32" json:"item_seq"`
	Ingredient string    `gorm:"primaryKey;size:255" json:"ingredient"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ProductIngredient) TableName() string {
	return "product_ingredients"
}
