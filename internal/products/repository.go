package products

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/internal/classifications"
	"github.com/JaimeStill/factotum/pkg/pagination"
	"github.com/JaimeStill/factotum/pkg/query"
	"github.com/JaimeStill/factotum/pkg/repository"
)

type repo struct {
	db              *sql.DB
	classifications classifications.System
	tree            classifications.TreeInvalidator
	logger          *slog.Logger
	pagination      pagination.Config
}

// New creates a product repository implementing the System interface.
// Deleting a product cascades to its classifications, so tree is invalidated
// after deletes.
func New(
	db *sql.DB,
	cls classifications.System,
	tree classifications.TreeInvalidator,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:              db,
		classifications: cls,
		tree:            tree,
		logger:          logger.With("system", "products"),
		pagination:      pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Product], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title", "UPC", "BrandName", "Manufacturer")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Product, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanProduct)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Product, error) {
	if err := cmd.normalize(); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO products (title, upc, manufacturer, brand_name, document_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	id, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (uuid.UUID, error) {
		var id uuid.UUID
		err := tx.QueryRowContext(ctx, q,
			cmd.Title, cmd.UPC, cmd.Manufacturer, cmd.BrandName, cmd.DocumentID,
		).Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, mapWriteError(err)
	}

	r.logger.Info("product created", "id", id, "upc", cmd.UPC)
	return r.Find(ctx, id)
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Product, error) {
	c := CreateCommand(cmd)
	if err := c.normalize(); err != nil {
		return nil, err
	}

	q := `
		UPDATE products
		SET title = $1, upc = $2, manufacturer = $3, brand_name = $4,
			document_id = $5, updated_at = NOW()
		WHERE id = $6`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, q,
			c.Title, c.UPC, c.Manufacturer, c.BrandName, c.DocumentID, id,
		)
	})
	if err != nil {
		return nil, mapWriteError(err)
	}

	r.logger.Info("product updated", "id", id)
	return r.Find(ctx, id)
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx,
			"DELETE FROM products WHERE id = $1", id,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if r.tree != nil {
		if err := r.tree.InvalidateTree(ctx); err != nil {
			r.logger.Warn("invalidate puc tree", "error", err)
		}
	}

	r.logger.Info("product deleted", "id", id)
	return nil
}

func (r *repo) Classifications(ctx context.Context, id uuid.UUID) ([]classifications.Classification, error) {
	if _, err := r.Find(ctx, id); err != nil {
		return nil, err
	}
	return r.classifications.ForProduct(ctx, id)
}

func mapWriteError(err error) error {
	if repository.IsForeignKeyViolation(err) {
		return ErrDocumentNotFound
	}
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}
