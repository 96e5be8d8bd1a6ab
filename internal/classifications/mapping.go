package classifications

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/pkg/query"
	"github.com/JaimeStill/factotum/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "product_to_puc", "l").
	Project("id", "ID").
	Project("product_id", "ProductID").
	Project("puc_id", "PUCID").
	Project("classification_method", "Method").
	Join("public", "classification_methods", "m", "JOIN", "m.code = l.classification_method").
	Project("rank", "MethodRank").
	ProjectExpr("l.confidence", "Confidence").
	ProjectExpr("l.assigned_by", "AssignedBy").
	ProjectExpr("l.is_uber_puc", "IsUberPUC").
	ProjectExpr("l.created_at", "CreatedAt").
	ProjectExpr("l.updated_at", "UpdatedAt")

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

// prioritySort orders a product's links from winner to loser.
var prioritySort = []query.SortField{
	{Field: "MethodRank"},
	{Field: "CreatedAt", Descending: true},
	{Field: "ID"},
}

// Filters contains optional filtering criteria for classification queries.
// Nil fields are ignored.
type Filters struct {
	ProductID  *uuid.UUID  `json:"product_id,omitempty"`
	PUCID      *uuid.UUID  `json:"puc_id,omitempty"`
	Method     *MethodCode `json:"classification_method,omitempty"`
	IsUberPUC  *bool       `json:"is_uber_puc,omitempty"`
	AssignedBy *string     `json:"assigned_by,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ProductID", f.ProductID).
		WhereEquals("PUCID", f.PUCID).
		WhereEquals("Method", f.Method).
		WhereEquals("IsUberPUC", f.IsUberPUC).
		WhereEquals("AssignedBy", f.AssignedBy)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("product_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.ProductID = &id
		}
	}

	if v := values.Get("puc_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.PUCID = &id
		}
	}

	if v := values.Get("classification_method"); v != "" {
		m := MethodCode(v)
		f.Method = &m
	}

	if v := values.Get("is_uber_puc"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.IsUberPUC = &b
		}
	}

	if v := values.Get("assigned_by"); v != "" {
		f.AssignedBy = &v
	}

	return f
}

func scanClassification(s repository.Scanner) (Classification, error) {
	var c Classification
	err := s.Scan(
		&c.ID,
		&c.ProductID,
		&c.PUCID,
		&c.Method,
		&c.MethodRank,
		&c.Confidence,
		&c.AssignedBy,
		&c.IsUberPUC,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func scanMethod(s repository.Scanner) (Method, error) {
	var m Method
	err := s.Scan(&m.Code, &m.Name, &m.Rank)
	return m, err
}
