package audit

import (
	"net/url"
	"time"

	"github.com/JaimeStill/factotum/pkg/query"
	"github.com/JaimeStill/factotum/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "audit_log", "a").
	Project("id", "ID").
	Project("model_name", "ModelName").
	Project("field_name", "FieldName").
	Project("rec_id", "RecID").
	Project("old_value", "OldValue").
	Project("new_value", "NewValue").
	Project("action", "Action").
	Project("user_id", "UserID").
	Project("date_created", "DateCreated")

var defaultSort = []query.SortField{
	{Field: "DateCreated", Descending: true},
	{Field: "ID", Descending: true},
}

// Filters contains optional filtering criteria for audit queries.
// All fields match exactly; Since and Until bound DateCreated.
type Filters struct {
	ModelName *string    `json:"model_name,omitempty"`
	FieldName *string    `json:"field_name,omitempty"`
	RecID     *string    `json:"rec_id,omitempty"`
	UserID    *string    `json:"user_id,omitempty"`
	Action    *Action    `json:"action,omitempty"`
	Since     *time.Time `json:"since,omitempty"`
	Until     *time.Time `json:"until,omitempty"`
}

// Validate rejects unknown actions.
func (f Filters) Validate() error {
	if f.Action != nil && !f.Action.Valid() {
		return ErrInvalidAction
	}
	return nil
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.
		WhereEquals("ModelName", f.ModelName).
		WhereEquals("FieldName", f.FieldName).
		WhereEquals("RecID", f.RecID).
		WhereEquals("UserID", f.UserID).
		WhereEquals("Action", f.Action)

	if f.Since != nil {
		b.WhereRaw("a.date_created >= $%d", *f.Since)
	}
	if f.Until != nil {
		b.WhereRaw("a.date_created < $%d", *f.Until)
	}
	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Since and Until are RFC 3339 timestamps; unparseable values are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if m := values.Get("model_name"); m != "" {
		f.ModelName = &m
	}
	if fn := values.Get("field_name"); fn != "" {
		f.FieldName = &fn
	}
	if r := values.Get("rec_id"); r != "" {
		f.RecID = &r
	}
	if u := values.Get("user_id"); u != "" {
		f.UserID = &u
	}
	if a := values.Get("action"); a != "" {
		action := Action(a)
		f.Action = &action
	}
	if s := values.Get("since"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			f.Since = &t
		}
	}
	if u := values.Get("until"); u != "" {
		if t, err := time.Parse(time.RFC3339, u); err == nil {
			f.Until = &t
		}
	}

	return f
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var e Entry
	err := s.Scan(
		&e.ID,
		&e.ModelName,
		&e.FieldName,
		&e.RecID,
		&e.OldValue,
		&e.NewValue,
		&e.Action,
		&e.UserID,
		&e.DateCreated,
	)
	return e, err
}
