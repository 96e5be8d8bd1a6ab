package qa

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/pkg/query"
	"github.com/JaimeStill/factotum/pkg/repository"
)

const (
	scriptReturning = `
		RETURNING id, title, url, qa_begun, qa_complete, created_at, updated_at, 0, 0`

	textColumns = `id, document_id, extraction_script_id, prod_name, doc_date, rev_num,
				  qa_checked, qa_edited, qa_approved_date, qa_approved_by, qa_notes,
				  qa_group_id, created_at, updated_at`

	groupColumns = `id, extraction_script_id, qa_complete, reviewer, created_at, completed_at`
)

var scriptProjection = query.
	NewProjectionMap("public", "extraction_scripts", "s").
	Project("id", "ID").
	Project("title", "Title").
	Project("url", "URL").
	Project("qa_begun", "QABegun").
	Project("qa_complete", "QAComplete").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt").
	ProjectExpr("(SELECT COUNT(*) FROM public.extracted_texts t WHERE t.extraction_script_id = s.id)", "TextCount").
	ProjectExpr("(SELECT COUNT(*) FROM public.extracted_texts t WHERE t.extraction_script_id = s.id AND t.qa_checked)", "CheckedCount")

var scriptDefaultSort = query.SortField{Field: "Title"}

var textProjection = query.
	NewProjectionMap("public", "extracted_texts", "t").
	Project("id", "ID").
	Project("document_id", "DocumentID").
	Project("extraction_script_id", "ScriptID").
	Project("prod_name", "ProdName").
	Project("doc_date", "DocDate").
	Project("rev_num", "RevNum").
	Project("qa_checked", "QAChecked").
	Project("qa_edited", "QAEdited").
	Project("qa_approved_date", "QAApprovedDate").
	Project("qa_approved_by", "QAApprovedBy").
	Project("qa_notes", "QANotes").
	Project("qa_group_id", "QAGroupID").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var textDefaultSort = query.SortField{Field: "CreatedAt"}

// ScriptFilters contains optional filtering criteria for script queries.
type ScriptFilters struct {
	Title      *string `json:"title,omitempty"`
	QABegun    *bool   `json:"qa_begun,omitempty"`
	QAComplete *bool   `json:"qa_complete,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f ScriptFilters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("Title", f.Title).
		WhereEquals("QABegun", f.QABegun).
		WhereEquals("QAComplete", f.QAComplete)
}

// ScriptFiltersFromQuery extracts filter values from URL query parameters.
func ScriptFiltersFromQuery(values url.Values) ScriptFilters {
	var f ScriptFilters

	if t := values.Get("title"); t != "" {
		f.Title = &t
	}
	f.QABegun = parseBool(values.Get("qa_begun"))
	f.QAComplete = parseBool(values.Get("qa_complete"))

	return f
}

// TextFilters narrows extracted text queries.
type TextFilters struct {
	ScriptID  *uuid.UUID `json:"extraction_script_id,omitempty"`
	GroupID   *uuid.UUID `json:"qa_group_id,omitempty"`
	QAChecked *bool      `json:"qa_checked,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f TextFilters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ScriptID", f.ScriptID).
		WhereEquals("QAGroupID", f.GroupID).
		WhereEquals("QAChecked", f.QAChecked)
}

// TextFiltersFromQuery extracts filter values from URL query parameters.
func TextFiltersFromQuery(values url.Values) TextFilters {
	var f TextFilters

	if s := values.Get("extraction_script_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			f.ScriptID = &id
		}
	}
	if g := values.Get("qa_group_id"); g != "" {
		if id, err := uuid.Parse(g); err == nil {
			f.GroupID = &id
		}
	}
	f.QAChecked = parseBool(values.Get("qa_checked"))

	return f
}

func parseBool(s string) *bool {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &v
}

func scanScript(s repository.Scanner) (Script, error) {
	var sc Script
	err := s.Scan(
		&sc.ID,
		&sc.Title,
		&sc.URL,
		&sc.QABegun,
		&sc.QAComplete,
		&sc.CreatedAt,
		&sc.UpdatedAt,
		&sc.TextCount,
		&sc.CheckedCount,
	)
	return sc, err
}

func scanText(s repository.Scanner) (ExtractedText, error) {
	var t ExtractedText
	err := s.Scan(
		&t.ID,
		&t.DocumentID,
		&t.ScriptID,
		&t.ProdName,
		&t.DocDate,
		&t.RevNum,
		&t.QAChecked,
		&t.QAEdited,
		&t.QAApprovedDate,
		&t.QAApprovedBy,
		&t.QANotes,
		&t.QAGroupID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

func scanGroup(s repository.Scanner) (Group, error) {
	var g Group
	err := s.Scan(
		&g.ID,
		&g.ScriptID,
		&g.QAComplete,
		&g.Reviewer,
		&g.CreatedAt,
		&g.CompletedAt,
	)
	return g, err
}

func scanCandidate(s repository.Scanner) (Candidate, error) {
	var c Candidate
	err := s.Scan(&c.ID, &c.Stratum)
	return c, err
}
