package pucs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/factotum/pkg/auth"
	"github.com/JaimeStill/factotum/pkg/cache"
	"github.com/JaimeStill/factotum/pkg/metrics"
	"github.com/JaimeStill/factotum/pkg/pagination"
	"github.com/JaimeStill/factotum/pkg/query"
	"github.com/JaimeStill/factotum/pkg/repository"
)

const (
	treeCacheKey   = "pucs:tree"
	treeVersionKey = "pucs:tree:version"
)

type repo struct {
	db         *sql.DB
	cache      cache.System
	metrics    *metrics.Metrics
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a PUC repository implementing the System interface.
func New(
	db *sql.DB,
	cache cache.System,
	metrics *metrics.Metrics,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		cache:      cache,
		metrics:    metrics,
		logger:     logger.With("system", "pucs"),
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
) (*pagination.PageResult[PUC], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort...).
		WhereSearch(page.Search, "GenCat", "ProdFam", "ProdType", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count pucs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanPUC)
	if err != nil {
		return nil, fmt.Errorf("query pucs: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*PUC, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPUC)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*PUC, error) {
	if err := cmd.normalize(); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO pucs (kind, gen_cat, prod_fam, prod_type, description, last_edited_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	id, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (uuid.UUID, error) {
		var id uuid.UUID
		err := tx.QueryRowContext(ctx, q,
			cmd.Kind, cmd.GenCat, cmd.ProdFam, cmd.ProdType, cmd.Description, auth.Actor(ctx),
		).Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, r.mapWriteError(err)
	}

	r.invalidate(ctx)
	r.logger.Info("puc created", "id", id, "path", PUC{GenCat: cmd.GenCat, ProdFam: cmd.ProdFam, ProdType: cmd.ProdType}.String())
	return r.Find(ctx, id)
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*PUC, error) {
	create := CreateCommand(cmd)
	if err := create.normalize(); err != nil {
		return nil, err
	}

	q := `
		UPDATE pucs
		SET kind = $1, gen_cat = $2, prod_fam = $3, prod_type = $4,
			description = $5, last_edited_by = $6, updated_at = NOW()
		WHERE id = $7`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, q,
			create.Kind, create.GenCat, create.ProdFam, create.ProdType,
			create.Description, auth.Actor(ctx), id,
		)
	})
	if err != nil {
		return nil, r.mapWriteError(err)
	}

	r.invalidate(ctx)
	r.logger.Info("puc updated", "id", id)
	return r.Find(ctx, id)
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, "DELETE FROM pucs WHERE id = $1", id)
	})
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.invalidate(ctx)
	r.logger.Info("puc deleted", "id", id)
	return nil
}

func (r *repo) Children(ctx context.Context, id uuid.UUID) ([]PUC, error) {
	parent, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if parent.Level == LevelProductType {
		return []PUC{}, nil
	}

	qb := query.
		NewBuilder(projection, defaultSort...).
		WhereEquals("GenCat", parent.GenCat).
		WhereEquals("Level", parent.Level+1)

	if parent.Level == LevelProductFamily {
		qb.WhereEquals("ProdFam", parent.ProdFam)
	}

	q, args := qb.Build()
	items, err := repository.QueryMany(ctx, r.db, q, args, scanPUC)
	if err != nil {
		return nil, fmt.Errorf("query children of %s: %w", id, err)
	}
	return items, nil
}

func (r *repo) Products(
	ctx context.Context,
	id uuid.UUID,
	page pagination.PageRequest,
) (*pagination.PageResult[ProductSummary], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(productProjection, query.SortField{Field: "Title"}).
		WhereEquals("PUCID", id).
		WhereSearch(page.Search, "Title", "BrandName", "UPC")

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count puc products: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanProductSummary)
	if err != nil {
		return nil, fmt.Errorf("query puc products: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Tree(ctx context.Context) ([]*TreeNode, error) {
	return r.cachedTree(ctx, r.loadTree)
}

// cachedTree keys the cached tree by the current version counter, read before
// loading. A tree built while an invalidation bumps the counter is stored under
// the superseded version and never served again.
func (r *repo) cachedTree(
	ctx context.Context,
	load func(context.Context) ([]*TreeNode, error),
) ([]*TreeNode, error) {
	version, err := r.cache.Version(ctx, treeVersionKey)
	if err != nil {
		r.logger.Warn("tree cache version read failed", "error", err)
		r.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return load(ctx)
	}
	key := fmt.Sprintf("%s:%d", treeCacheKey, version)

	if data, ok, err := r.cache.Get(ctx, key); err != nil {
		r.logger.Warn("tree cache read failed", "error", err)
	} else if ok {
		var tree []*TreeNode
		if err := json.Unmarshal(data, &tree); err == nil {
			r.metrics.CacheLookups.WithLabelValues("hit").Inc()
			return tree, nil
		}
	}
	r.metrics.CacheLookups.WithLabelValues("miss").Inc()

	tree, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(tree); err == nil {
		if err := r.cache.Set(ctx, key, data); err != nil {
			r.logger.Warn("tree cache write failed", "error", err)
		}
	}

	return tree, nil
}

func (r *repo) InvalidateTree(ctx context.Context) error {
	_, err := r.cache.Bump(ctx, treeVersionKey)
	return err
}

func (r *repo) Export(ctx context.Context, w io.Writer) error {
	items, err := r.all(ctx)
	if err != nil {
		return err
	}

	if err := WriteWorkbook(w, items); err != nil {
		return fmt.Errorf("export pucs: %w", err)
	}

	r.logger.Info("pucs exported", "rows", len(items))
	return nil
}

// loadTree reads the PUC rows and the per-node product counts concurrently,
// then aggregates cumulative counts in Go.
func (r *repo) loadTree(ctx context.Context) ([]*TreeNode, error) {
	var (
		items  []PUC
		counts []productCount
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		items, err = r.all(gctx)
		return err
	})

	g.Go(func() error {
		var err error
		counts, err = repository.QueryMany(
			gctx, r.db,
			"SELECT puc_id, product_count FROM puc_product_counts",
			nil, scanProductCount,
		)
		if err != nil {
			return fmt.Errorf("query product counts: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		byID[c.pucID] = c.count
	}

	return BuildTree(items, byID), nil
}

func (r *repo) all(ctx context.Context) ([]PUC, error) {
	q, args := query.NewBuilder(projection, defaultSort...).Build()
	items, err := repository.QueryMany(ctx, r.db, q, args, scanPUC)
	if err != nil {
		return nil, fmt.Errorf("query pucs: %w", err)
	}
	return items, nil
}

func (r *repo) invalidate(ctx context.Context) {
	if err := r.InvalidateTree(ctx); err != nil {
		r.logger.Warn("tree cache invalidation failed", "error", err)
	}
}

func (r *repo) mapWriteError(err error) error {
	if repository.IsCheckViolation(err) {
		return ErrInvalidHierarchy
	}
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}
