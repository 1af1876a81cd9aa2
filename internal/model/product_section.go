package model

import "time"

// ProductSection is one retrieval chunk of a label section's text.
// (item_seq, section, part_idx) is the natural key; re-ingesting the same
// section replaces the text in place.
type ProductSection struct {
	ItemSeq   string    `gorm:"primaryKey;size:32" json:"item_seq"`
	Section   string    `gorm:"primaryKey;size:32" json:"section"`
	PartIdx   int       `gorm:"primaryKey" json:"part_idx"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProductSection) TableName() string {
	return "product_sections"
}
