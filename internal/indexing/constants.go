package indexing

// Field names of the indexed document, matching the index.json keys.
const (
	FieldTitle      = "title"
	FieldTags       = "tags"
	FieldCategories = "categories"
	FieldContent    = "content"
	FieldURI        = "uri"
	FieldDate       = "date"
)

// Query-time boosts per field
const (
	TitleBoost      = 50
	TagsBoost       = 20
	CategoriesBoost = 20
	ContentBoost    = 10
)

const (
	// BatchSize is the number of records submitted per bleve batch
	BatchSize = 100

	// IndexSchemaVersion increments when the mapping or record shape changes
	// v1: single content field, v2: weighted fields with term vectors
	IndexSchemaVersion = 2
)

// SearchableFields lists the weighted fields in boost order.
var SearchableFields = []string{FieldTitle, FieldTags, FieldCategories, FieldContent}

// FieldBoost returns the query-time boost for a searchable field, or 0.
func FieldBoost(field string) float64 {
	switch field {
	case FieldTitle:
		return TitleBoost
	case FieldTags:
		return TagsBoost
	case FieldCategories:
		return CategoriesBoost
	case FieldContent:
		return ContentBoost
	}
	return 0
}

// Files kept beside a persisted index directory
const (
	VersionFile = ".index_version"
	LockFile    = ".index.lock"
)
