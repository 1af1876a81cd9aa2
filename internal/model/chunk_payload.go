package model

// ChunkPayload is the denormalized metadata stored alongside each embedding
// point. It carries everything a search result needs so hits are
// self-contained without a join back to the relational store. Aliases and
// Ingredients are the accumulated sets observed for the item, not just the
// alias of the ingest pass that wrote the point.
type ChunkPayload struct {
	ItemSeq     string   `json:"item_seq"`
	Section     string   `json:"section"`
	PartIdx     int      `json:"part_idx"`
	EntpName    string   `json:"entp_name"`
	ItemName    string   `json:"item_name"`
	Aliases     []string `json:"aliases"`
	Ingredients []string `json:"ingredients"`
	IsOTC       bool     `json:"is_otc"`
	UpdateDe    string   `json:"update_de"`
	Text        string   `json:"text"`
}
