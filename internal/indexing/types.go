package indexing

// Record is one entry of the site's search index (index.json), as emitted by
// the theme's search output format.
type Record struct {
	ID         string   `json:"objectID"`
	Title      string   `json:"title"`
	Tags       []string `json:"tags,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Content    string   `json:"content"`
	URI        string   `json:"uri"`
	Date       string   `json:"date,omitempty"`
}
