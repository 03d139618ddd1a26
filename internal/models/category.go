package models

// Category is a debt category from the pre-seeded taxonomy
type Category struct {
	ID  int64  `json:"id"`
	Key string `json:"key"` // canonical label, e.g. "TAX_DEBT"
}
