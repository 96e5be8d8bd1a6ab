// Package products manages the consumer products that are classified into PUCs.
package products

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product is a consumer product. UberPUCID is the PUC of the product's winning
// classification, or nil when the product is unclassified.
type Product struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	UPC          string     `json:"upc"`
	Manufacturer string     `json:"manufacturer"`
	BrandName    string     `json:"brand_name"`
	DocumentID   *uuid.UUID `json:"document_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	UberPUCID    *uuid.UUID `json:"uber_puc_id"`
}

// CreateCommand carries the fields of a new product.
type CreateCommand struct {
	Title        string     `json:"title"`
	UPC          string     `json:"upc"`
	Manufacturer string     `json:"manufacturer"`
	BrandName    string     `json:"brand_name"`
	DocumentID   *uuid.UUID `json:"document_id,omitempty"`
}

// UpdateCommand replaces the editable fields of a product.
type UpdateCommand CreateCommand

func (c *CreateCommand) normalize() error {
	c.Title = strings.TrimSpace(c.Title)
	c.UPC = strings.TrimSpace(c.UPC)
	c.Manufacturer = strings.TrimSpace(c.Manufacturer)
	c.BrandName = strings.TrimSpace(c.BrandName)

	if c.Title == "" {
		return ErrTitleRequired
	}
	if c.UPC == "" {
		return ErrUPCRequired
	}
	return nil
}
