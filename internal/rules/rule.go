// Package rules implements rule-based product classification. A rule pairs a
// case-insensitive regular expression over one product field with the PUC that
// matching products are assigned to under the RU method.
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field names the product attribute a rule pattern is evaluated against.
type Field string

const (
	FieldTitle        Field = "title"
	FieldBrandName    Field = "brand_name"
	FieldManufacturer Field = "manufacturer"
)

// Fields returns the fields a rule may match.
func Fields() []Field {
	return []Field{FieldTitle, FieldBrandName, FieldManufacturer}
}

// ParseField validates s as a Field. An empty string defaults to FieldTitle.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.TrimSpace(s)); f {
	case "":
		return FieldTitle, nil
	case FieldTitle, FieldBrandName, FieldManufacturer:
		return f, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidField, s)
}

// Rule maps products whose Field matches Pattern to PUCID.
type Rule struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	PUCID       uuid.UUID `json:"puc_id"`
	Pattern     string    `json:"pattern"`
	Field       Field     `json:"field"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateCommand carries the fields of a new rule.
type CreateCommand struct {
	Name        string    `json:"name"`
	PUCID       uuid.UUID `json:"puc_id"`
	Pattern     string    `json:"pattern"`
	Field       Field     `json:"field"`
	Description string    `json:"description"`
}

// UpdateCommand replaces the editable fields of a rule.
type UpdateCommand CreateCommand

func (c *CreateCommand) normalize() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return ErrNameRequired
	}

	f, err := ParseField(string(c.Field))
	if err != nil {
		return err
	}
	c.Field = f

	if _, err := compile(c.Pattern); err != nil {
		return err
	}
	return nil
}

func compile(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, ErrInvalidPattern
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return re, nil
}

// ImportResult counts the rules written by an import.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// ApplyResult reports the outcome of evaluating the active rules against every product.
// Unchanged counts matches whose product already carries the same RU classification.
type ApplyResult struct {
	Rules     int `json:"rules"`
	Evaluated int `json:"evaluated"`
	Matched   int `json:"matched"`
	Assigned  int `json:"assigned"`
	Unchanged int `json:"unchanged"`
}
