package pucs_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/factotum/internal/dbtest"
	"github.com/JaimeStill/factotum/internal/pucs"
	"github.com/JaimeStill/factotum/pkg/cache"
	"github.com/JaimeStill/factotum/pkg/metrics"
	"github.com/JaimeStill/factotum/pkg/pagination"
)

func newRepo(db *sql.DB) pucs.System {
	return pucs.New(
		db,
		cache.New(&cache.Config{}, dbtest.Logger()),
		metrics.New("factotum_test"),
		dbtest.Logger(),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

// classify gives n new products the PUC as their uberpuc.
func classify(t *testing.T, db *sql.DB, pucID uuid.UUID, n int) {
	t.Helper()
	for range n {
		var productID uuid.UUID
		upc := uuid.NewString()
		require.NoError(t, db.QueryRow(
			"INSERT INTO products (title, upc) VALUES ($1, $2) RETURNING id", upc, upc,
		).Scan(&productID))

		_, err := db.Exec(`
			INSERT INTO product_to_puc (product_id, puc_id, classification_method, is_uber_puc)
			VALUES ($1, $2, 'MA', TRUE)`,
			productID, pucID,
		)
		require.NoError(t, err)
	}
}

func walk(nodes []*pucs.TreeNode, visit func(*pucs.TreeNode)) {
	for _, n := range nodes {
		visit(n)
		walk(n.Children, visit)
	}
}

func TestRepositoryCountViewsMatchTree(t *testing.T) {
	db := dbtest.Open(t)
	sys := newRepo(db)
	ctx := context.Background()

	create := func(genCat, prodFam, prodType string) uuid.UUID {
		p, err := sys.Create(ctx, pucs.CreateCommand{GenCat: genCat, ProdFam: prodFam, ProdType: prodType})
		require.NoError(t, err)
		return p.ID
	}

	petCare := create("Pet care", "", "")
	grooming := create("Pet care", "grooming", "")
	shampoo := create("Pet care", "grooming", "shampoo")
	brush := create("Pet care", "grooming", "brush")
	cleaning := create("Home maintenance", "cleaning", "")

	classify(t, db, shampoo, 2)
	classify(t, db, brush, 1)
	classify(t, db, grooming, 1)
	classify(t, db, cleaning, 3)

	page, err := sys.List(ctx, pagination.PageRequest{Page: 1, PageSize: 100}, pucs.Filters{})
	require.NoError(t, err)
	require.Len(t, page.Data, 5)

	fromViews := make(map[uuid.UUID]pucs.PUC, len(page.Data))
	for _, p := range page.Data {
		fromViews[p.ID] = p
	}

	tree, err := sys.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 2)

	seen := 0
	walk(tree, func(n *pucs.TreeNode) {
		if n.PUC == nil {
			return
		}
		seen++
		v, ok := fromViews[n.PUC.ID]
		require.True(t, ok, "tree node %s has no row", n.Name)
		assert.Equal(t, v.ProductCount, n.ProductCount, "product count of %s", v)
		assert.Equal(t, v.CumulativeProductCount, n.CumulativeProductCount, "cumulative count of %s", v)
	})
	assert.Equal(t, 5, seen)

	assert.EqualValues(t, 4, fromViews[petCare].CumulativeProductCount)
	assert.EqualValues(t, 0, fromViews[petCare].ProductCount)
	assert.EqualValues(t, 3, fromViews[grooming].CumulativeProductCount)
	assert.EqualValues(t, 3, fromViews[cleaning].CumulativeProductCount)

	// Home maintenance has no row of its own; the tree synthesizes it.
	home := tree[0]
	assert.Equal(t, "Home maintenance", home.Name)
	assert.Nil(t, home.PUC)
	assert.EqualValues(t, 3, home.CumulativeProductCount)
}

func TestRepositoryTreeAfterInvalidation(t *testing.T) {
	db := dbtest.Open(t)
	sys := newRepo(db)
	ctx := context.Background()

	p, err := sys.Create(ctx, pucs.CreateCommand{GenCat: "Pet care"})
	require.NoError(t, err)

	tree, err := sys.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Zero(t, tree[0].CumulativeProductCount)

	classify(t, db, p.ID, 2)
	require.NoError(t, sys.InvalidateTree(ctx))

	tree, err = sys.Tree(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, tree[0].CumulativeProductCount)
}
