package model

import "time"

// Product is one marketed drug item from the public label data. ItemSeq is the
// stable external identifier and the upsert key; RawJSON keeps the source
// record verbatim for auditability.
type Product struct {
	ItemSeq   string    `gorm:"primaryKey;size:32" json:"item_seq"`
	EntpName  string    `gorm:"size:255" json:"entp_name"`
	ItemName  string    `gorm:"size:512" json:"item_name"`
	ItemImage string    `gorm:"size:1024" json:"item_image"`
	Bizrno    string    `gorm:"size:32" json:"bizrno"`
	OpenDe    string    `gorm:"size:10" json:"open_de"`
	UpdateDe  string    `gorm:"size:10" json:"update_de"`
	RawJSON   string    `gorm:"type:text" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}
