package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/factotum/pkg/pagination"
	"github.com/JaimeStill/factotum/pkg/query"
	"github.com/JaimeStill/factotum/pkg/repository"
)

type repo struct {
	db           *sql.DB
	declarations []Declaration
	logger       *slog.Logger
	pagination   pagination.Config
}

// New creates an audit repository implementing the System interface.
func New(
	db *sql.DB,
	declarations []Declaration,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:           db,
		declarations: declarations,
		logger:       logger.With("system", "audit"),
		pagination:   pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.declarations, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Entry], error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort...).
		WhereSearch(page.Search, "OldValue", "NewValue")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count audit entries: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Entry, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)
	e, err := repository.QueryOne(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, nil)
	}
	return &e, nil
}

func (r *repo) Install(ctx context.Context) (*InstallResult, error) {
	stmts := make([]string, len(r.declarations))
	for i, d := range r.declarations {
		s, err := TriggerSQL(d)
		if err != nil {
			return nil, err
		}
		stmts[i] = s
	}

	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (InstallResult, error) {
		res := InstallResult{Tables: make([]string, 0, len(stmts))}
		for i, s := range stmts {
			if _, err := tx.ExecContext(ctx, s); err != nil {
				return res, fmt.Errorf("install %s: %w", r.declarations[i].Table, err)
			}
			res.Tables = append(res.Tables, r.declarations[i].Table)
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("audit triggers installed", "tables", result.Tables)
	return &result, nil
}
