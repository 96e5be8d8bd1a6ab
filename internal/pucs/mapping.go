package pucs

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/pkg/query"
	"github.com/JaimeStill/factotum/pkg/repository"
)

const levelExpr = "CASE WHEN p.prod_fam = '' THEN 1 WHEN p.prod_type = '' THEN 2 ELSE 3 END"

var projection = query.
	NewProjectionMap("public", "pucs", "p").
	Project("id", "ID").
	Project("kind", "Kind").
	Project("gen_cat", "GenCat").
	Project("prod_fam", "ProdFam").
	Project("prod_type", "ProdType").
	Project("description", "Description").
	Project("last_edited_by", "LastEditedBy").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt").
	ProjectExpr(levelExpr, "Level").
	Join("public", "puc_product_counts", "pc", "LEFT JOIN", "pc.puc_id = p.id").
	ProjectExpr("COALESCE(pc.product_count, 0)", "ProductCount").
	Join("public", "puc_cumulative_counts", "cc", "LEFT JOIN", "cc.puc_id = p.id").
	ProjectExpr("COALESCE(cc.cumulative_product_count, 0)", "CumulativeProductCount")

var defaultSort = []query.SortField{
	{Field: "GenCat"},
	{Field: "ProdFam"},
	{Field: "ProdType"},
}

var productProjection = query.
	NewProjectionMap("public", "products", "pr").
	Project("id", "ID").
	Project("title", "Title").
	Project("upc", "UPC").
	Project("brand_name", "BrandName").
	Project("manufacturer", "Manufacturer").
	Join("public", "product_to_puc", "l", "JOIN", "l.product_id = pr.id AND l.is_uber_puc").
	Project("classification_method", "Method").
	Project("puc_id", "PUCID")

// Filters contains optional filtering criteria for PUC queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	Kind     *Kind   `json:"kind,omitempty"`
	GenCat   *string `json:"gen_cat,omitempty"`
	ProdFam  *string `json:"prod_fam,omitempty"`
	ProdType *string `json:"prod_type,omitempty"`
	Level    *Level  `json:"level,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Kind", f.Kind).
		WhereEquals("GenCat", f.GenCat).
		WhereEquals("ProdFam", f.ProdFam).
		WhereEquals("ProdType", f.ProdType).
		WhereEquals("Level", f.Level)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if k := values.Get("kind"); k != "" {
		kind := Kind(k)
		f.Kind = &kind
	}

	if g := values.Get("gen_cat"); g != "" {
		f.GenCat = &g
	}

	if p := values.Get("prod_fam"); p != "" {
		f.ProdFam = &p
	}

	if p := values.Get("prod_type"); p != "" {
		f.ProdType = &p
	}

	if l := values.Get("level"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n >= 1 && n <= 3 {
			level := Level(n)
			f.Level = &level
		}
	}

	return f
}

func scanPUC(s repository.Scanner) (PUC, error) {
	var p PUC
	err := s.Scan(
		&p.ID,
		&p.Kind,
		&p.GenCat,
		&p.ProdFam,
		&p.ProdType,
		&p.Description,
		&p.LastEditedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Level,
		&p.ProductCount,
		&p.CumulativeProductCount,
	)
	return p, err
}

func scanProductSummary(s repository.Scanner) (ProductSummary, error) {
	var p ProductSummary
	var pucID uuid.UUID
	err := s.Scan(
		&p.ID,
		&p.Title,
		&p.UPC,
		&p.BrandName,
		&p.Manufacturer,
		&p.Method,
		&pucID,
	)
	return p, err
}

type productCount struct {
	pucID uuid.UUID
	count int64
}

func scanProductCount(s repository.Scanner) (productCount, error) {
	var c productCount
	err := s.Scan(&c.pucID, &c.count)
	return c, err
}
