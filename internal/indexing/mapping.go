package indexing

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	// Language analyzers selectable through search.languageCode
	_ "github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/en"
)

// NewIndexMapping builds the mapping shared by the indexer and the in-memory
// backend. Searchable fields keep term vectors so hits carry match
// locations; uri and date are stored only.
func NewIndexMapping(analyzer string) mapping.IndexMapping {
	if analyzer == "" {
		analyzer = standard.Name
	}

	text := bleve.NewTextFieldMapping()
	text.Analyzer = analyzer
	text.Store = true
	text.IncludeTermVectors = true

	stored := bleve.NewTextFieldMapping()
	stored.Index = false
	stored.Store = true
	stored.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	for _, field := range SearchableFields {
		doc.AddFieldMappingsAt(field, text)
	}
	doc.AddFieldMappingsAt(FieldURI, stored)
	doc.AddFieldMappingsAt(FieldDate, stored)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = analyzer
	return im
}

// IndexRecords adds records to idx in batches of BatchSize. progress, when
// non-nil, is called after each record is queued.
func IndexRecords(idx bleve.Index, records []Record, progress func()) error {
	batch := idx.NewBatch()
	for i, rec := range records {
		if err := batch.Index(rec.ID, rec); err != nil {
			return fmt.Errorf("failed to add record %s to batch: %w", rec.ID, err)
		}
		if progress != nil {
			progress()
		}

		if (i+1)%BatchSize == 0 {
			if err := idx.Batch(batch); err != nil {
				return fmt.Errorf("failed to index batch: %w", err)
			}
			batch = idx.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return fmt.Errorf("failed to index final batch: %w", err)
		}
	}
	return nil
}
