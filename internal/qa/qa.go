// Package qa implements the review workflow for text extracted from
// documents. Each extraction script is reviewed in groups; a group holds every
// unreviewed text of a small script or a stratified sample of a large one.
package qa

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/pkg/formatting"
)

// Script is an extraction script whose output is reviewed.
// TextCount and CheckedCount are derived from its extracted texts.
type Script struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	QABegun      bool      `json:"qa_begun"`
	QAComplete   bool      `json:"qa_complete"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	TextCount    int       `json:"text_count"`
	CheckedCount int       `json:"checked_count"`
}

// ExtractedText is the output of a script for one document.
type ExtractedText struct {
	ID             uuid.UUID  `json:"id"`
	DocumentID     uuid.UUID  `json:"document_id"`
	ScriptID       uuid.UUID  `json:"extraction_script_id"`
	ProdName       string     `json:"prod_name"`
	DocDate        string     `json:"doc_date"`
	RevNum         string     `json:"rev_num"`
	QAChecked      bool       `json:"qa_checked"`
	QAEdited       bool       `json:"qa_edited"`
	QAApprovedDate *time.Time `json:"qa_approved_date"`
	QAApprovedBy   string     `json:"qa_approved_by"`
	QANotes        string     `json:"qa_notes"`
	QAGroupID      *uuid.UUID `json:"qa_group_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Group is a set of extracted texts under review. A script has at most one
// open group.
type Group struct {
	ID          uuid.UUID  `json:"id"`
	ScriptID    uuid.UUID  `json:"extraction_script_id"`
	QAComplete  bool       `json:"qa_complete"`
	Reviewer    string     `json:"reviewer"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Progress summarizes review of a group.
type Progress struct {
	GroupID         uuid.UUID `json:"group_id"`
	Total           int       `json:"total"`
	Approved        int       `json:"approved"`
	PercentComplete float64   `json:"percent_complete"`
}

// NewProgress computes the percentage of approved texts rounded to two
// decimals. An empty group is 0% complete.
func NewProgress(groupID uuid.UUID, total, approved int) Progress {
	return Progress{
		GroupID:         groupID,
		Total:           total,
		Approved:        approved,
		PercentComplete: formatting.Percent(approved, total, 2),
	}
}

// Empty reports whether the group has no texts left, as happens when every
// sampled text was deleted with its document.
func (p Progress) Empty() bool {
	return p.Total == 0
}

// Done reports whether every text in the group is approved.
func (p Progress) Done() bool {
	return p.Total > 0 && p.Approved == p.Total
}

// CreateScriptCommand carries the fields of a new extraction script.
type CreateScriptCommand struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

func (c *CreateScriptCommand) normalize() error {
	c.Title = strings.TrimSpace(c.Title)
	c.URL = strings.TrimSpace(c.URL)
	if c.Title == "" {
		return ErrTitleRequired
	}
	return nil
}

// RegisterTextCommand records a script's output for a document.
type RegisterTextCommand struct {
	DocumentID uuid.UUID `json:"document_id"`
	ScriptID   uuid.UUID `json:"extraction_script_id"`
	ProdName   string    `json:"prod_name"`
	DocDate    string    `json:"doc_date"`
	RevNum     string    `json:"rev_num"`
}

// BeginCommand starts or resumes review of a script.
type BeginCommand struct {
	Reviewer string `json:"reviewer"`
}

// ApproveCommand marks an extracted text as reviewed. Notes are required
// when the reviewer edited the text.
type ApproveCommand struct {
	Notes    string `json:"notes"`
	Edited   bool   `json:"edited"`
	Reviewer string `json:"reviewer"`
}

// Validate checks that an edited approval carries notes.
func (c *ApproveCommand) Validate() error {
	c.Notes = strings.TrimSpace(c.Notes)
	if c.Edited && c.Notes == "" {
		return ErrNotesRequired
	}
	return nil
}
