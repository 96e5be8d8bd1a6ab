// Package documents manages the sourcing data documents that products and
// extracted texts come from. Document files live in blob storage; rows hold
// their metadata and the data group used to stratify QA samples.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Document is a registered sourcing document and its blob storage reference.
type Document struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Filename     string    `json:"filename"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	PageCount    *int      `json:"page_count"`
	StorageKey   string    `json:"storage_key"`
	DataGroup    string    `json:"data_group"`
	DocumentType string    `json:"document_type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateCommand carries an uploaded file and its metadata.
// PageCount is set by the handler for PDF uploads; nil is stored as NULL.
// An empty Title defaults to Filename.
type CreateCommand struct {
	Data         []byte
	Filename     string
	ContentType  string
	Title        string
	DataGroup    string
	DocumentType string
	PageCount    *int
}

// UpdateCommand replaces a document's descriptive metadata.
type UpdateCommand struct {
	Title        string `json:"title"`
	DataGroup    string `json:"data_group"`
	DocumentType string `json:"document_type"`
}
