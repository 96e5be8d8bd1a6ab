package audit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/factotum/internal/audit"
	"github.com/JaimeStill/factotum/internal/dbtest"
	"github.com/JaimeStill/factotum/internal/pucs"
	"github.com/JaimeStill/factotum/pkg/auth"
	"github.com/JaimeStill/factotum/pkg/cache"
	"github.com/JaimeStill/factotum/pkg/metrics"
	"github.com/JaimeStill/factotum/pkg/pagination"
)

func TestRepositoryRecordsActorChanges(t *testing.T) {
	db := dbtest.Open(t)
	page := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

	log := audit.New(db, audit.Declarations(), dbtest.Logger(), page)
	hierarchy := pucs.New(
		db,
		cache.New(&cache.Config{}, dbtest.Logger()),
		metrics.New("factotum_test"),
		dbtest.Logger(),
		page,
	)

	ctx := context.Background()
	installed, err := log.Install(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"products", "product_to_puc", "pucs", "extracted_texts"}, installed.Tables)

	// Installing twice replaces the triggers.
	_, err = log.Install(ctx)
	require.NoError(t, err)

	ctx = auth.WithActor(ctx, "jdoe")

	p, err := hierarchy.Create(ctx, pucs.CreateCommand{GenCat: "Pet care", ProdFam: "grooming"})
	require.NoError(t, err)

	_, err = hierarchy.Update(ctx, p.ID, pucs.UpdateCommand{
		Kind:        p.Kind,
		GenCat:      "Pet care",
		ProdFam:     "bathing",
		Description: "shampoo and rinses",
	})
	require.NoError(t, err)

	list := func(action audit.Action) []audit.Entry {
		t.Helper()
		model, rec := "pucs", p.ID.String()
		result, err := log.List(ctx,
			pagination.PageRequest{Page: 1, PageSize: 100},
			audit.Filters{ModelName: &model, RecID: &rec, Action: &action},
		)
		require.NoError(t, err)
		return result.Data
	}

	inserts := list(audit.ActionInsert)
	assert.Len(t, inserts, 5, "one row per non-null field")
	for _, e := range inserts {
		assert.Nil(t, e.OldValue)
		assert.Equal(t, "jdoe", e.UserID)
	}

	updates := list(audit.ActionUpdate)
	require.Len(t, updates, 2)

	byField := map[string]audit.Entry{}
	for _, e := range updates {
		byField[e.FieldName] = e
		assert.Equal(t, "jdoe", e.UserID)
	}

	fam, ok := byField["prod_fam"]
	require.True(t, ok)
	require.NotNil(t, fam.OldValue)
	require.NotNil(t, fam.NewValue)
	assert.Equal(t, "grooming", *fam.OldValue)
	assert.Equal(t, "bathing", *fam.NewValue)

	desc, ok := byField["description"]
	require.True(t, ok)
	assert.Equal(t, "", *desc.OldValue)
	assert.Equal(t, "shampoo and rinses", *desc.NewValue)

	found, err := log.Find(ctx, fam.ID)
	require.NoError(t, err)
	assert.Equal(t, fam, *found)

	require.NoError(t, hierarchy.Delete(auth.WithActor(context.Background(), "asmith"), p.ID))
	deletes := list(audit.ActionDelete)
	assert.Len(t, deletes, 5)
	for _, e := range deletes {
		assert.Nil(t, e.NewValue)
		assert.Equal(t, "asmith", e.UserID)
	}
}
