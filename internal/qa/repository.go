package qa

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/pkg/auth"
	"github.com/JaimeStill/factotum/pkg/metrics"
	"github.com/JaimeStill/factotum/pkg/pagination"
	"github.com/JaimeStill/factotum/pkg/query"
	"github.com/JaimeStill/factotum/pkg/repository"
)

type repo struct {
	db         *sql.DB
	metrics    *metrics.Metrics
	logger     *slog.Logger
	pagination pagination.Config
	threshold  int
	fraction   float64
}

// New creates a QA repository implementing the System interface. Scripts with
// more than threshold candidates are sampled at fraction.
func New(
	db *sql.DB,
	metrics *metrics.Metrics,
	logger *slog.Logger,
	pagination pagination.Config,
	threshold int,
	fraction float64,
) System {
	return &repo{
		db:         db,
		metrics:    metrics,
		logger:     logger.With("system", "qa"),
		pagination: pagination,
		threshold:  threshold,
		fraction:   fraction,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) ListScripts(
	ctx context.Context,
	page pagination.PageRequest,
	filters ScriptFilters,
) (*pagination.PageResult[Script], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(scriptProjection, scriptDefaultSort).
		WhereSearch(page.Search, "Title", "URL")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count scripts: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanScript)
	if err != nil {
		return nil, fmt.Errorf("query scripts: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) FindScript(ctx context.Context, id uuid.UUID) (*Script, error) {
	q, args := query.NewBuilder(scriptProjection).BuildSingle("ID", id)
	s, err := repository.QueryOne(ctx, r.db, q, args, scanScript)
	if err != nil {
		return nil, repository.MapError(err, ErrScriptNotFound, nil)
	}
	return &s, nil
}

func (r *repo) CreateScript(ctx context.Context, cmd CreateScriptCommand) (*Script, error) {
	if err := cmd.normalize(); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO extraction_scripts (title, url)
		VALUES ($1, $2)` + scriptReturning

	s, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Script, error) {
		return repository.QueryOne(ctx, tx, q, []any{cmd.Title, cmd.URL}, scanScript)
	})
	if err != nil {
		return nil, fmt.Errorf("create script: %w", err)
	}

	r.logger.Info("extraction script created", "id", s.ID, "title", s.Title)
	return &s, nil
}

func (r *repo) ListTexts(
	ctx context.Context,
	page pagination.PageRequest,
	filters TextFilters,
) (*pagination.PageResult[ExtractedText], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(textProjection, textDefaultSort).
		WhereSearch(page.Search, "ProdName", "RevNum")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count extracted texts: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanText)
	if err != nil {
		return nil, fmt.Errorf("query extracted texts: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) FindText(ctx context.Context, id uuid.UUID) (*ExtractedText, error) {
	q, args := query.NewBuilder(textProjection).BuildSingle("ID", id)
	t, err := repository.QueryOne(ctx, r.db, q, args, scanText)
	if err != nil {
		return nil, repository.MapError(err, ErrTextNotFound, nil)
	}
	return &t, nil
}

func (r *repo) RegisterText(ctx context.Context, cmd RegisterTextCommand) (*ExtractedText, error) {
	q := `
		INSERT INTO extracted_texts (document_id, extraction_script_id, prod_name, doc_date, rev_num)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + textColumns

	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (ExtractedText, error) {
		return repository.QueryOne(ctx, tx, q, []any{
			cmd.DocumentID, cmd.ScriptID, cmd.ProdName, cmd.DocDate, cmd.RevNum,
		}, scanText)
	})
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, ErrReferenceNotFound
		}
		return nil, repository.MapError(err, ErrTextNotFound, ErrDuplicate)
	}

	r.logger.Info("extracted text registered",
		"id", t.ID,
		"document_id", t.DocumentID,
		"script_id", t.ScriptID,
	)
	return &t, nil
}

func (r *repo) FindGroup(ctx context.Context, id uuid.UUID) (*Group, error) {
	g, err := findGroup(ctx, r.db, id, false)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repo) GroupTexts(ctx context.Context, groupID uuid.UUID) ([]ExtractedText, error) {
	if _, err := findGroup(ctx, r.db, groupID, false); err != nil {
		return nil, err
	}

	q, args := query.
		NewBuilder(textProjection, textDefaultSort).
		WhereEquals("QAGroupID", groupID).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanText)
	if err != nil {
		return nil, fmt.Errorf("query group texts: %w", err)
	}
	return items, nil
}

func (r *repo) BeginQA(ctx context.Context, scriptID uuid.UUID, cmd BeginCommand) (*Group, error) {
	if cmd.Reviewer == "" {
		cmd.Reviewer = auth.Actor(ctx)
	}

	type begun struct {
		group     Group
		sampled   int
		pool      int
		resumed   bool
		discarded *uuid.UUID
	}

	candidatesQ := `
		SELECT t.id, d.data_group
		FROM extracted_texts t
		JOIN documents d ON d.id = t.document_id
		WHERE t.extraction_script_id = $1
		AND NOT t.qa_checked
		AND t.qa_group_id IS NULL
		ORDER BY t.created_at, t.id`

	insertQ := `
		INSERT INTO qa_groups (extraction_script_id, reviewer)
		VALUES ($1, $2)
		RETURNING ` + groupColumns

	b, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (begun, error) {
		var complete bool
		if err := tx.QueryRowContext(ctx,
			"SELECT qa_complete FROM extraction_scripts WHERE id = $1 FOR UPDATE", scriptID,
		).Scan(&complete); err != nil {
			return begun{}, repository.MapError(err, ErrScriptNotFound, nil)
		}
		if complete {
			return begun{}, ErrAlreadyComplete
		}

		open, err := repository.QueryOne(ctx, tx,
			"SELECT "+groupColumns+" FROM qa_groups WHERE extraction_script_id = $1 AND NOT qa_complete",
			[]any{scriptID}, scanGroup,
		)
		var discarded *uuid.UUID
		switch {
		case err == nil:
			p, err := progress(ctx, tx, open.ID)
			if err != nil {
				return begun{}, err
			}
			if !p.Empty() {
				return begun{group: open, resumed: true}, nil
			}
			// Every sampled text was removed with its document.
			if _, err := tx.ExecContext(ctx, "DELETE FROM qa_groups WHERE id = $1", open.ID); err != nil {
				return begun{}, fmt.Errorf("discard empty group: %w", err)
			}
			discarded = &open.ID
		case !errors.Is(err, sql.ErrNoRows):
			return begun{}, err
		}

		candidates, err := repository.QueryMany(ctx, tx, candidatesQ, []any{scriptID}, scanCandidate)
		if err != nil {
			return begun{}, err
		}
		if len(candidates) == 0 {
			return begun{}, ErrNothingToReview
		}

		rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		sample := Sample(candidates, r.threshold, r.fraction, rng)

		g, err := repository.QueryOne(ctx, tx, insertQ, []any{scriptID, cmd.Reviewer}, scanGroup)
		if err != nil {
			return begun{}, err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE extracted_texts SET qa_group_id = $1, updated_at = NOW()
			WHERE id = ANY($2::text[]::uuid[])`,
			g.ID, idStrings(sample),
		); err != nil {
			return begun{}, err
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE extraction_scripts SET qa_begun = TRUE, updated_at = NOW() WHERE id = $1",
			scriptID,
		); err != nil {
			return begun{}, err
		}

		return begun{group: g, sampled: len(sample), pool: len(candidates), discarded: discarded}, nil
	})

	if err != nil {
		if errors.Is(err, ErrScriptNotFound) ||
			errors.Is(err, ErrNothingToReview) ||
			errors.Is(err, ErrAlreadyComplete) {
			return nil, err
		}
		return nil, fmt.Errorf("begin qa: %w", err)
	}

	if b.discarded != nil {
		r.logger.Warn("empty qa group discarded", "group_id", *b.discarded, "script_id", scriptID)
	}

	if b.resumed {
		r.logger.Info("qa group resumed", "group_id", b.group.ID, "script_id", scriptID)
		return &b.group, nil
	}

	r.metrics.QASampled.Add(float64(b.sampled))
	r.logger.Info("qa group created",
		"group_id", b.group.ID,
		"script_id", scriptID,
		"reviewer", b.group.Reviewer,
		"candidates", b.pool,
		"sampled", b.sampled,
	)
	return &b.group, nil
}

func (r *repo) Approve(ctx context.Context, textID uuid.UUID, cmd ApproveCommand) (*ExtractedText, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if cmd.Reviewer == "" {
		cmd.Reviewer = auth.Actor(ctx)
	}

	q := `
		UPDATE extracted_texts t
		SET qa_checked = TRUE, qa_edited = $2, qa_notes = $3,
			qa_approved_by = $4, qa_approved_date = NOW(), updated_at = NOW()
		FROM qa_groups g
		WHERE t.id = $1 AND g.id = t.qa_group_id AND NOT g.qa_complete
		RETURNING t.id, t.document_id, t.extraction_script_id, t.prod_name, t.doc_date, t.rev_num,
				  t.qa_checked, t.qa_edited, t.qa_approved_date, t.qa_approved_by, t.qa_notes,
				  t.qa_group_id, t.created_at, t.updated_at`

	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (ExtractedText, error) {
		t, err := repository.QueryOne(ctx, tx, q, []any{textID, cmd.Edited, cmd.Notes, cmd.Reviewer}, scanText)
		if err == nil || !errors.Is(err, sql.ErrNoRows) {
			return t, err
		}

		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM extracted_texts WHERE id = $1)", textID,
		).Scan(&exists); err != nil {
			return ExtractedText{}, err
		}
		if !exists {
			return ExtractedText{}, ErrTextNotFound
		}
		return ExtractedText{}, ErrNotInGroup
	})

	if err != nil {
		if errors.Is(err, ErrTextNotFound) || errors.Is(err, ErrNotInGroup) {
			return nil, err
		}
		return nil, fmt.Errorf("approve text: %w", err)
	}

	r.metrics.QAApprovals.Inc()
	r.logger.Info("extracted text approved",
		"id", t.ID,
		"group_id", t.QAGroupID,
		"reviewer", t.QAApprovedBy,
		"edited", t.QAEdited,
	)
	return &t, nil
}

func (r *repo) Progress(ctx context.Context, groupID uuid.UUID) (*Progress, error) {
	if _, err := findGroup(ctx, r.db, groupID, false); err != nil {
		return nil, err
	}

	p, err := progress(ctx, r.db, groupID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) Complete(ctx context.Context, groupID uuid.UUID) (*Group, error) {
	g, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Group, error) {
		g, err := findGroup(ctx, tx, groupID, true)
		if err != nil {
			return Group{}, err
		}
		if g.QAComplete {
			return g, nil
		}

		p, err := progress(ctx, tx, groupID)
		if err != nil {
			return Group{}, err
		}
		if !p.Done() {
			return Group{}, fmt.Errorf("%w: %d of %d approved", ErrIncomplete, p.Approved, p.Total)
		}

		g, err = repository.QueryOne(ctx, tx, `
			UPDATE qa_groups SET qa_complete = TRUE, completed_at = NOW()
			WHERE id = $1
			RETURNING `+groupColumns,
			[]any{groupID}, scanGroup,
		)
		if err != nil {
			return Group{}, err
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE extraction_scripts SET qa_complete = TRUE, updated_at = NOW() WHERE id = $1",
			g.ScriptID,
		); err != nil {
			return Group{}, err
		}
		return g, nil
	})

	if err != nil {
		if errors.Is(err, ErrGroupNotFound) || errors.Is(err, ErrIncomplete) {
			return nil, err
		}
		return nil, fmt.Errorf("complete qa group: %w", err)
	}

	r.logger.Info("qa group completed", "group_id", g.ID, "script_id", g.ScriptID)
	return &g, nil
}

func findGroup(ctx context.Context, db repository.Querier, id uuid.UUID, lock bool) (Group, error) {
	q := "SELECT " + groupColumns + " FROM qa_groups WHERE id = $1"
	if lock {
		q += " FOR UPDATE"
	}
	g, err := repository.QueryOne(ctx, db, q, []any{id}, scanGroup)
	if err != nil {
		return Group{}, repository.MapError(err, ErrGroupNotFound, nil)
	}
	return g, nil
}

func progress(ctx context.Context, db repository.Querier, groupID uuid.UUID) (Progress, error) {
	var total, approved int
	if err := db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE qa_checked)
		FROM extracted_texts WHERE qa_group_id = $1`,
		groupID,
	).Scan(&total, &approved); err != nil {
		return Progress{}, fmt.Errorf("count group texts: %w", err)
	}
	return NewProgress(groupID, total, approved), nil
}

func idStrings(ids []uuid.UUID) []string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = id.String()
	}
	return s
}
