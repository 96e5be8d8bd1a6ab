package documents

import (
	"net/url"

	"github.com/JaimeStill/factotum/pkg/query"
	"github.com/JaimeStill/factotum/pkg/repository"
)

const returning = `
		RETURNING id, title, filename, content_type, size_bytes, page_count,
				  storage_key, data_group, document_type, created_at, updated_at`

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("title", "Title").
	Project("filename", "Filename").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("storage_key", "StorageKey").
	Project("data_group", "DataGroup").
	Project("document_type", "DocumentType").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for document queries.
// Nil fields are ignored. Filename uses case-insensitive contains matching;
// the rest match exactly.
type Filters struct {
	Filename     *string `json:"filename,omitempty"`
	ContentType  *string `json:"content_type,omitempty"`
	DataGroup    *string `json:"data_group,omitempty"`
	DocumentType *string `json:"document_type,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("Filename", f.Filename).
		WhereEquals("ContentType", f.ContentType).
		WhereEquals("DataGroup", f.DataGroup).
		WhereEquals("DocumentType", f.DocumentType)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if fn := values.Get("filename"); fn != "" {
		f.Filename = &fn
	}

	if ct := values.Get("content_type"); ct != "" {
		f.ContentType = &ct
	}

	if dg := values.Get("data_group"); dg != "" {
		f.DataGroup = &dg
	}

	if dt := values.Get("document_type"); dt != "" {
		f.DocumentType = &dt
	}

	return f
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.Title,
		&d.Filename,
		&d.ContentType,
		&d.SizeBytes,
		&d.PageCount,
		&d.StorageKey,
		&d.DataGroup,
		&d.DocumentType,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}
