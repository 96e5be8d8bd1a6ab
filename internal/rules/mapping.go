package rules

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/pkg/query"
	"github.com/JaimeStill/factotum/pkg/repository"
)

const returning = `
		RETURNING id, name, puc_id, pattern, field, description, active, created_at, updated_at`

var projection = query.
	NewProjectionMap("public", "classification_rules", "r").
	Project("id", "ID").
	Project("name", "Name").
	Project("puc_id", "PUCID").
	Project("pattern", "Pattern").
	Project("field", "Field").
	Project("description", "Description").
	Project("active", "Active").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{Field: "Name"}

// Filters contains optional filtering criteria for rule queries.
// Nil fields are ignored. Name uses case-insensitive contains matching.
type Filters struct {
	Name   *string    `json:"name,omitempty"`
	PUCID  *uuid.UUID `json:"puc_id,omitempty"`
	Field  *Field     `json:"field,omitempty"`
	Active *bool      `json:"active,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("Name", f.Name).
		WhereEquals("PUCID", f.PUCID).
		WhereEquals("Field", f.Field).
		WhereEquals("Active", f.Active)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	if p := values.Get("puc_id"); p != "" {
		if id, err := uuid.Parse(p); err == nil {
			f.PUCID = &id
		}
	}

	if fl := values.Get("field"); fl != "" {
		field := Field(fl)
		f.Field = &field
	}

	if a := values.Get("active"); a != "" {
		if v, err := strconv.ParseBool(a); err == nil {
			f.Active = &v
		}
	}

	return f
}

func scanRule(s repository.Scanner) (Rule, error) {
	var r Rule
	err := s.Scan(
		&r.ID,
		&r.Name,
		&r.PUCID,
		&r.Pattern,
		&r.Field,
		&r.Description,
		&r.Active,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

func scanCandidate(s repository.Scanner) (Candidate, error) {
	var c Candidate
	err := s.Scan(&c.ID, &c.Title, &c.BrandName, &c.Manufacturer)
	return c, err
}

type ruleLink struct {
	productID uuid.UUID
	pucID     uuid.UUID
}

func scanRuleLink(s repository.Scanner) (ruleLink, error) {
	var l ruleLink
	err := s.Scan(&l.productID, &l.pucID)
	return l, err
}
