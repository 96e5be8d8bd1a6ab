package rules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/factotum/internal/classifications"
	"github.com/JaimeStill/factotum/pkg/metrics"
	"github.com/JaimeStill/factotum/pkg/pagination"
	"github.com/JaimeStill/factotum/pkg/query"
	"github.com/JaimeStill/factotum/pkg/repository"
)

type repo struct {
	db              *sql.DB
	classifications classifications.System
	metrics         *metrics.Metrics
	logger          *slog.Logger
	pagination      pagination.Config
	concurrency     int
}

// New creates a rule repository implementing the System interface.
// Apply writes at most concurrency classifications at a time.
func New(
	db *sql.DB,
	cls classifications.System,
	metrics *metrics.Metrics,
	logger *slog.Logger,
	pagination pagination.Config,
	concurrency int,
) System {
	return &repo{
		db:              db,
		classifications: cls,
		metrics:         metrics,
		logger:          logger.With("system", "rules"),
		pagination:      pagination,
		concurrency:     max(concurrency, 1),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Rule], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Pattern", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count rules: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRule)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Rule, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	rule, err := repository.QueryOne(ctx, r.db, q, args, scanRule)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rule, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Rule, error) {
	if err := cmd.normalize(); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO classification_rules(name, puc_id, pattern, field, description)
		VALUES ($1, $2, $3, $4, $5)` + returning

	args := []any{cmd.Name, cmd.PUCID, cmd.Pattern, cmd.Field, cmd.Description}

	rule, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Rule, error) {
		return repository.QueryOne(ctx, tx, q, args, scanRule)
	})

	if err != nil {
		return nil, mapWriteError(err)
	}

	r.logger.Info("rule created", "id", rule.ID, "name", rule.Name, "puc_id", rule.PUCID)
	return &rule, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Rule, error) {
	c := CreateCommand(cmd)
	if err := c.normalize(); err != nil {
		return nil, err
	}

	q := `
		UPDATE classification_rules
		SET name = $1, puc_id = $2, pattern = $3, field = $4, description = $5, updated_at = NOW()
		WHERE id = $6` + returning

	args := []any{c.Name, c.PUCID, c.Pattern, c.Field, c.Description, id}

	rule, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Rule, error) {
		return repository.QueryOne(ctx, tx, q, args, scanRule)
	})

	if err != nil {
		return nil, mapWriteError(err)
	}

	r.logger.Info("rule updated", "id", rule.ID, "name", rule.Name)
	return &rule, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM classification_rules WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("rule deleted", "id", id)
	return nil
}

func (r *repo) Activate(ctx context.Context, id uuid.UUID) (*Rule, error) {
	return r.setActive(ctx, id, true)
}

func (r *repo) Deactivate(ctx context.Context, id uuid.UUID) (*Rule, error) {
	return r.setActive(ctx, id, false)
}

func (r *repo) setActive(ctx context.Context, id uuid.UUID, active bool) (*Rule, error) {
	q := `
		UPDATE classification_rules SET active = $1, updated_at = NOW()
		WHERE id = $2` + returning

	rule, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Rule, error) {
		return repository.QueryOne(ctx, tx, q, []any{active, id}, scanRule)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("rule active state changed", "id", rule.ID, "name", rule.Name, "active", active)
	return &rule, nil
}

func (r *repo) Import(ctx context.Context, f *File) (*ImportResult, error) {
	upsertQ := `
		INSERT INTO classification_rules(name, puc_id, pattern, field, description, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			puc_id = EXCLUDED.puc_id,
			pattern = EXCLUDED.pattern,
			field = EXCLUDED.field,
			description = EXCLUDED.description,
			active = EXCLUDED.active,
			updated_at = NOW()
		RETURNING (xmax = 0)`

	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (ImportResult, error) {
		var res ImportResult
		for _, fr := range f.Rules {
			pucID, err := resolvePUC(ctx, tx, fr)
			if err != nil {
				return res, fmt.Errorf("rule %q: %w", fr.Name, err)
			}

			var inserted bool
			if err := tx.QueryRowContext(ctx, upsertQ,
				fr.Name, pucID, fr.Pattern, fr.Field, fr.Description, fr.IsActive(),
			).Scan(&inserted); err != nil {
				return res, fmt.Errorf("rule %q: %w", fr.Name, err)
			}

			if inserted {
				res.Created++
			} else {
				res.Updated++
			}
		}
		return res, nil
	})

	if err != nil {
		return nil, mapWriteError(err)
	}

	r.logger.Info("rules imported", "created", result.Created, "updated", result.Updated)
	return &result, nil
}

func (r *repo) Apply(ctx context.Context) (*ApplyResult, error) {
	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("Active", true).
		Build()

	active, err := repository.QueryMany(ctx, r.db, q, args, scanRule)
	if err != nil {
		return nil, fmt.Errorf("load active rules: %w", err)
	}

	matcher, err := NewMatcher(active)
	if err != nil {
		return nil, err
	}

	candidates, err := repository.QueryMany(ctx, r.db,
		"SELECT id, title, brand_name, manufacturer FROM products ORDER BY id",
		nil, scanCandidate,
	)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	links, err := repository.QueryMany(ctx, r.db,
		"SELECT product_id, puc_id FROM product_to_puc WHERE classification_method = $1",
		[]any{classifications.MethodRule}, scanRuleLink,
	)
	if err != nil {
		return nil, fmt.Errorf("load rule classifications: %w", err)
	}

	current := make(map[uuid.UUID]uuid.UUID, len(links))
	for _, l := range links {
		current[l.productID] = l.pucID
	}

	result := ApplyResult{Rules: matcher.Len(), Evaluated: len(candidates)}
	var assigned atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, c := range candidates {
		rule, ok := matcher.Match(c)
		if !ok {
			continue
		}
		result.Matched++

		if pucID, ok := current[c.ID]; ok && pucID == rule.PUCID {
			result.Unchanged++
			continue
		}

		g.Go(func() error {
			_, err := r.classifications.Assign(gctx, classifications.AssignCommand{
				ProductID:  c.ID,
				PUCID:      rule.PUCID,
				Method:     classifications.MethodRule,
				AssignedBy: "rule:" + rule.Name,
			})
			if err != nil {
				return fmt.Errorf("apply rule %q to product %s: %w", rule.Name, c.ID, err)
			}
			assigned.Add(1)
			return nil
		})
	}

	err = g.Wait()
	result.Assigned = int(assigned.Load())
	r.metrics.RuleMatches.Add(float64(result.Matched))

	if err != nil {
		return &result, err
	}

	r.logger.Info("rules applied",
		"rules", result.Rules,
		"evaluated", result.Evaluated,
		"matched", result.Matched,
		"assigned", result.Assigned,
		"unchanged", result.Unchanged,
	)
	return &result, nil
}

func resolvePUC(ctx context.Context, tx *sql.Tx, fr FileRule) (uuid.UUID, error) {
	var (
		id  uuid.UUID
		err error
	)

	if fr.PUCID != nil {
		err = tx.QueryRowContext(ctx, "SELECT id FROM pucs WHERE id = $1", *fr.PUCID).Scan(&id)
	} else {
		err = tx.QueryRowContext(ctx,
			"SELECT id FROM pucs WHERE gen_cat = $1 AND prod_fam = $2 AND prod_type = $3",
			fr.PUC.GenCat, fr.PUC.ProdFam, fr.PUC.ProdType,
		).Scan(&id)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrPUCNotFound
	}
	return id, err
}

func mapWriteError(err error) error {
	if repository.IsForeignKeyViolation(err) {
		return ErrPUCNotFound
	}
	if repository.IsCheckViolation(err) {
		return ErrInvalidField
	}
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}
