// Package audit records field-level changes to the classification tables.
// Changes are captured by generated PL/pgSQL row triggers that write one
// audit_log row per changed field, attributed to the transaction's actor.
package audit

import (
	"fmt"
	"regexp"
)

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// maxTable keeps the generated audit_<table>_trg names within the 63 byte
// identifier limit.
const maxTable = 63 - len("audit__trg")

// Declaration names a table, its primary key column, and the columns whose
// changes are logged.
type Declaration struct {
	Table  string   `json:"table"`
	Key    string   `json:"key"`
	Fields []string `json:"fields"`
}

// Declarations returns the audited tables.
func Declarations() []Declaration {
	return []Declaration{
		{
			Table:  "products",
			Key:    "id",
			Fields: []string{"title", "upc", "manufacturer", "brand_name", "document_id"},
		},
		{
			Table: "product_to_puc",
			Key:   "id",
			Fields: []string{
				"product_id", "puc_id", "classification_method",
				"confidence", "assigned_by", "is_uber_puc",
			},
		},
		{
			Table:  "pucs",
			Key:    "id",
			Fields: []string{"kind", "gen_cat", "prod_fam", "prod_type", "description"},
		},
		{
			Table: "extracted_texts",
			Key:   "id",
			Fields: []string{
				"prod_name", "doc_date", "rev_num", "qa_checked", "qa_edited",
				"qa_approved_by", "qa_notes", "qa_group_id",
			},
		},
	}
}

// Validate checks every identifier in d. Identifiers are interpolated into
// generated SQL, so only lower-case unquoted names are accepted.
func (d Declaration) Validate() error {
	if !identifier.MatchString(d.Table) || len(d.Table) > maxTable {
		return fmt.Errorf("%w: table %q", ErrInvalidIdentifier, d.Table)
	}
	if !identifier.MatchString(d.Key) {
		return fmt.Errorf("%w: key %q", ErrInvalidIdentifier, d.Key)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("%w: %s", ErrNoFields, d.Table)
	}
	for _, f := range d.Fields {
		if !identifier.MatchString(f) {
			return fmt.Errorf("%w: field %q", ErrInvalidIdentifier, f)
		}
	}
	return nil
}

// FunctionName returns the name of the generated trigger function.
func (d Declaration) FunctionName() string {
	return "audit_" + d.Table + "_fn"
}

// TriggerName returns the name of the generated row trigger.
func (d Declaration) TriggerName() string {
	return "audit_" + d.Table + "_trg"
}
