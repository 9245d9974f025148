package search

import (
	"context"

	"github.com/blevesearch/bleve/v2"
)

// Index is the slice of bleve.Index the local backend needs. Tests swap in
// an in-memory fake.
type Index interface {
	SearchInContext(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error)
	DocCount() (uint64, error)
	Close() error
}

// bleveIndex adapts bleve.Index to Index
type bleveIndex struct {
	bleve.Index
}

// WrapBleve exposes a bleve index through the Index interface
func WrapBleve(idx bleve.Index) Index {
	return bleveIndex{Index: idx}
}
