package ingest

import (
	"encoding/json"
	"unicode/utf8"
)

// Record mirrors one product entry of the crawled label JSON. Field names
// follow the nedrug open-API payload. The raw bytes are kept so the product
// row can store the source record verbatim.
type Record struct {
	ItemSeq   string `json:"itemSeq"`
	ItemName  string `json:"itemName"`
	EntpName  string `json:"entpName"`
	ItemImage string `json:"itemImage"`
	Bizrno    string `json:"bizrno"`
	OpenDe    string `json:"openDe"`
	UpdateDe  string `json:"updateDe"`

	EfcyQesitm          string `json:"efcyQesitm"`
	UseMethodQesitm     string `json:"useMethodQesitm"`
	AtpnWarnQesitm      string `json:"atpnWarnQesitm"`
	AtpnQesitm          string `json:"atpnQesitm"`
	IntrcQesitm         string `json:"intrcQesitm"`
	SeQesitm            string `json:"seQesitm"`
	DepositMethodQesitm string `json:"depositMethodQesitm"`

	raw json.RawMessage
}

func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Record(p)
	r.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Raw returns the source record bytes; records built in code (tests) fall
// back to re-marshaling.
func (r *Record) Raw() string {
	if r.raw != nil {
		return string(r.raw)
	}
	b, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	return string(b)
}

// Batch is the ingest input shape, keyed by product alias.
type Batch map[string][]Record

// clipDate trims a source timestamp like "2021-01-29 00:00:00" down to the
// date part, matching how dates are stored.
func clipDate(s string) string {
	if utf8.RuneCountInString(s) <= 10 {
		return s
	}
	return string([]rune(s)[:10])
}
