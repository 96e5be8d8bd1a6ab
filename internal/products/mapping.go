package products

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/pkg/query"
	"github.com/JaimeStill/factotum/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "products", "pr").
	Project("id", "ID").
	Project("title", "Title").
	Project("upc", "UPC").
	Project("manufacturer", "Manufacturer").
	Project("brand_name", "BrandName").
	Project("document_id", "DocumentID").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt").
	Join("public", "product_to_puc", "u", "LEFT JOIN", "u.product_id = pr.id AND u.is_uber_puc").
	Project("puc_id", "UberPUCID")

var defaultSort = query.SortField{Field: "Title"}

// Filters contains optional filtering criteria for product queries.
// PUCID matches the uberpuc. Unclassified true selects products without any
// classification; false selects classified products.
type Filters struct {
	PUCID        *uuid.UUID `json:"puc_id,omitempty"`
	DocumentID   *uuid.UUID `json:"document_id,omitempty"`
	Unclassified *bool      `json:"unclassified,omitempty"`
	BrandName    *string    `json:"brand_name,omitempty"`
	Manufacturer *string    `json:"manufacturer,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("UberPUCID", f.PUCID).
		WhereEquals("DocumentID", f.DocumentID).
		WhereIsNull("UberPUCID", f.Unclassified).
		WhereContains("BrandName", f.BrandName).
		WhereContains("Manufacturer", f.Manufacturer)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("puc_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.PUCID = &id
		}
	}

	if v := values.Get("document_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.DocumentID = &id
		}
	}

	if v := values.Get("unclassified"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Unclassified = &b
		}
	}

	if v := values.Get("brand_name"); v != "" {
		f.BrandName = &v
	}

	if v := values.Get("manufacturer"); v != "" {
		f.Manufacturer = &v
	}

	return f
}

func scanProduct(s repository.Scanner) (Product, error) {
	var p Product
	err := s.Scan(
		&p.ID,
		&p.Title,
		&p.UPC,
		&p.Manufacturer,
		&p.BrandName,
		&p.DocumentID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.UberPUCID,
	)
	return p, err
}
