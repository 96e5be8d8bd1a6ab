package classifications

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/pkg/auth"
	"github.com/JaimeStill/factotum/pkg/metrics"
	"github.com/JaimeStill/factotum/pkg/pagination"
	"github.com/JaimeStill/factotum/pkg/query"
	"github.com/JaimeStill/factotum/pkg/repository"
)

// Winners are ranked the same way as Compare. Stale flags are cleared before
// new ones are set so the one-uberpuc-per-product index holds after each statement.
const (
	winnersCTE = `
		WITH winners AS (
			SELECT DISTINCT ON (l.product_id) l.id
			FROM product_to_puc l
			JOIN classification_methods m ON m.code = l.classification_method
			%s
			ORDER BY l.product_id, m.rank, l.created_at DESC, l.id
		)`

	clearStaleQ = `
		UPDATE product_to_puc SET is_uber_puc = FALSE
		WHERE is_uber_puc %s
		AND id NOT IN (SELECT id FROM winners)`

	flagWinnersQ = `
		UPDATE product_to_puc SET is_uber_puc = TRUE
		WHERE NOT is_uber_puc
		AND id IN (SELECT id FROM winners)`

	productScope = "WHERE l.product_id = ANY($1::text[]::uuid[])"
	updateScope  = "AND product_id = ANY($1::text[]::uuid[])"

	// Writers lock the product rows in id order before touching their links,
	// so two transactions never resolve the same product at once.
	lockProductsQ = "SELECT 1 FROM products WHERE id = ANY($1::text[]::uuid[]) ORDER BY id FOR UPDATE"
	lockLinksQ    = "LOCK TABLE product_to_puc IN SHARE ROW EXCLUSIVE MODE"
)

type repo struct {
	db         *sql.DB
	tree       TreeInvalidator
	metrics    *metrics.Metrics
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a classification repository implementing the System interface.
// tree is invalidated after every change to the links.
func New(
	db *sql.DB,
	tree TreeInvalidator,
	metrics *metrics.Metrics,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		tree:       tree,
		metrics:    metrics,
		logger:     logger.With("system", "classifications"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Classification], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "AssignedBy")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count classifications: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanClassification)
	if err != nil {
		return nil, fmt.Errorf("query classifications: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Classification, error) {
	return find(ctx, r.db, id)
}

func (r *repo) ForProduct(ctx context.Context, productID uuid.UUID) ([]Classification, error) {
	q, args := query.
		NewBuilder(projection, prioritySort...).
		WhereEquals("ProductID", productID).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanClassification)
	if err != nil {
		return nil, fmt.Errorf("query product classifications: %w", err)
	}
	return items, nil
}

func (r *repo) Methods(ctx context.Context) ([]Method, error) {
	items, err := repository.QueryMany(
		ctx, r.db,
		"SELECT code, name, rank FROM classification_methods ORDER BY rank",
		nil, scanMethod,
	)
	if err != nil {
		return nil, fmt.Errorf("query methods: %w", err)
	}
	return items, nil
}

func (r *repo) Assign(ctx context.Context, cmd AssignCommand) (*Classification, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if cmd.AssignedBy == "" {
		cmd.AssignedBy = auth.Actor(ctx)
	}

	upsertQ := `
		INSERT INTO product_to_puc (product_id, puc_id, classification_method, confidence, assigned_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id, classification_method) DO UPDATE SET
			puc_id = EXCLUDED.puc_id,
			confidence = EXCLUDED.confidence,
			assigned_by = EXCLUDED.assigned_by,
			updated_at = NOW()
		RETURNING id`

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Classification, error) {
		if err := lockProducts(ctx, tx, []uuid.UUID{cmd.ProductID}); err != nil {
			return Classification{}, err
		}

		var id uuid.UUID
		if err := tx.QueryRowContext(ctx, upsertQ,
			cmd.ProductID, cmd.PUCID, cmd.Method, cmd.Confidence, cmd.AssignedBy,
		).Scan(&id); err != nil {
			return Classification{}, err
		}

		if _, err := recompute(ctx, tx, []uuid.UUID{cmd.ProductID}); err != nil {
			return Classification{}, err
		}

		cl, err := find(ctx, tx, id)
		if err != nil {
			return Classification{}, err
		}
		return *cl, nil
	})

	if err != nil {
		return nil, mapWriteError(err)
	}

	r.metrics.Assignments.WithLabelValues(string(c.Method)).Inc()
	r.metrics.Recomputes.Inc()
	r.invalidate(ctx)

	r.logger.Info("product classified",
		"id", c.ID,
		"product_id", c.ProductID,
		"puc_id", c.PUCID,
		"method", c.Method,
		"is_uber_puc", c.IsUberPUC,
	)
	return &c, nil
}

func (r *repo) BulkAssign(ctx context.Context, cmd BulkAssignCommand) (*BulkResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if cmd.AssignedBy == "" {
		cmd.AssignedBy = auth.Actor(ctx)
	}

	ids := uniqueIDs(cmd.ProductIDs)

	insertQ := `
		INSERT INTO product_to_puc (product_id, puc_id, classification_method, assigned_by)
		SELECT product_id, $2, $3, $4
		FROM unnest($1::text[]::uuid[]) AS product_id
		ON CONFLICT (product_id, classification_method) DO UPDATE SET
			puc_id = EXCLUDED.puc_id,
			confidence = NULL,
			assigned_by = EXCLUDED.assigned_by,
			updated_at = NOW()`

	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (BulkResult, error) {
		if err := lockProducts(ctx, tx, ids); err != nil {
			return BulkResult{}, err
		}

		assigned, err := repository.ExecAffected(ctx, tx, insertQ,
			idStrings(ids), cmd.PUCID, cmd.Method, cmd.AssignedBy,
		)
		if err != nil {
			return BulkResult{}, err
		}

		rc, err := recompute(ctx, tx, ids)
		if err != nil {
			return BulkResult{}, err
		}

		return BulkResult{
			Products:  len(ids),
			Assigned:  assigned,
			Recompute: rc,
		}, nil
	})

	if err != nil {
		return nil, mapWriteError(err)
	}

	r.metrics.Assignments.WithLabelValues(string(cmd.Method)).Add(float64(result.Assigned))
	r.metrics.Recomputes.Add(float64(len(ids)))
	r.invalidate(ctx)

	r.logger.Info("bulk classification applied",
		"puc_id", cmd.PUCID,
		"method", cmd.Method,
		"products", result.Products,
		"assigned", result.Assigned,
	)
	return &result, nil
}

func (r *repo) Remove(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		var productID uuid.UUID
		if err := tx.QueryRowContext(ctx,
			"SELECT product_id FROM product_to_puc WHERE id = $1", id,
		).Scan(&productID); err != nil {
			return struct{}{}, err
		}

		if err := lockProducts(ctx, tx, []uuid.UUID{productID}); err != nil {
			return struct{}{}, err
		}

		if err := repository.ExecExpectOne(ctx, tx,
			"DELETE FROM product_to_puc WHERE id = $1", id,
		); err != nil {
			return struct{}{}, err
		}

		_, err := recompute(ctx, tx, []uuid.UUID{productID})
		return struct{}{}, err
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.metrics.Recomputes.Inc()
	r.invalidate(ctx)

	r.logger.Info("classification removed", "id", id)
	return nil
}

func (r *repo) Recompute(ctx context.Context) (*RecomputeResult, error) {
	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (RecomputeResult, error) {
		if _, err := tx.ExecContext(ctx, lockLinksQ); err != nil {
			return RecomputeResult{}, fmt.Errorf("lock classifications: %w", err)
		}
		return recompute(ctx, tx, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("recompute uberpucs: %w", err)
	}

	r.metrics.Recomputes.Add(float64(result.Cleared + result.Flagged))
	r.invalidate(ctx)

	r.logger.Info("uberpucs recomputed",
		"cleared", result.Cleared,
		"flagged", result.Flagged,
	)
	return &result, nil
}

func (r *repo) Verify(ctx context.Context) (*VerifyResult, error) {
	q, args := query.NewBuilder(projection).Build()

	links, err := repository.QueryMany(ctx, r.db, q, args, scanClassification)
	if err != nil {
		return nil, fmt.Errorf("load classifications: %w", err)
	}

	result := Verify(links)

	if len(result.Mismatches) > 0 {
		r.logger.Warn("uberpuc flags out of date",
			"products", result.Products,
			"mismatches", len(result.Mismatches),
		)
	}
	return &result, nil
}

func (r *repo) invalidate(ctx context.Context) {
	if r.tree == nil {
		return
	}
	if err := r.tree.InvalidateTree(ctx); err != nil {
		r.logger.Warn("invalidate puc tree", "error", err)
	}
}

// recompute re-resolves the uberpuc of productIDs, or of every product when
// productIDs is nil.
func recompute(ctx context.Context, tx *sql.Tx, productIDs []uuid.UUID) (RecomputeResult, error) {
	var (
		winners = fmt.Sprintf(winnersCTE, "")
		stale   = fmt.Sprintf(clearStaleQ, "")
		args    []any
	)

	if productIDs != nil {
		winners = fmt.Sprintf(winnersCTE, productScope)
		stale = fmt.Sprintf(clearStaleQ, updateScope)
		args = []any{idStrings(productIDs)}
	}

	cleared, err := repository.ExecAffected(ctx, tx, winners+stale, args...)
	if err != nil {
		return RecomputeResult{}, fmt.Errorf("clear stale uberpucs: %w", err)
	}

	flagged, err := repository.ExecAffected(ctx, tx, winners+flagWinnersQ, args...)
	if err != nil {
		return RecomputeResult{}, fmt.Errorf("flag uberpucs: %w", err)
	}

	return RecomputeResult{Cleared: cleared, Flagged: flagged}, nil
}

func lockProducts(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, lockProductsQ, idStrings(ids)); err != nil {
		return fmt.Errorf("lock products: %w", err)
	}
	return nil
}

func find(ctx context.Context, db repository.Querier, id uuid.UUID) (*Classification, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, db, q, args, scanClassification)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func mapWriteError(err error) error {
	if repository.IsForeignKeyViolation(err) {
		return ErrReferenceNotFound
	}
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
