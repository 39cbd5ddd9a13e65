package datasets

import "time"

// Dataset is a registered dataset descriptor in the catalog. Descriptors
// are produced by ingestion and consulted by the retrieval stage.
type Dataset struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	Description string    `json:"description,omitempty"`
	Columns     []string  `json:"columns"`
	RowCount    int64     `json:"rowCount"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
