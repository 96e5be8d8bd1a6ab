package audit

import (
	"time"
)

// Action is the kind of row change an entry records.
type Action string

const (
	ActionInsert Action = "I"
	ActionUpdate Action = "U"
	ActionDelete Action = "D"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionInsert, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Entry is one changed field of one row. Values are stored as text; a null
// old value means the row was inserted and a null new value that it was deleted.
type Entry struct {
	ID          int64     `json:"id"`
	ModelName   string    `json:"model_name"`
	FieldName   string    `json:"field_name"`
	RecID       string    `json:"rec_id"`
	OldValue    *string   `json:"old_value"`
	NewValue    *string   `json:"new_value"`
	Action      Action    `json:"action"`
	UserID      string    `json:"user_id"`
	DateCreated time.Time `json:"date_created"`
}

// InstallResult lists the tables whose triggers were installed.
type InstallResult struct {
	Tables []string `json:"tables"`
}
