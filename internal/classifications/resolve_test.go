package classifications_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/factotum/internal/classifications"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func link(product uuid.UUID, method classifications.MethodCode, age time.Duration) classifications.Classification {
	return classifications.Classification{
		ID:        uuid.New(),
		ProductID: product,
		PUCID:     uuid.New(),
		Method:    method,
		CreatedAt: base.Add(-age),
	}
}

func TestMethodCode(t *testing.T) {
	tests := []struct {
		code  classifications.MethodCode
		rank  int
		valid bool
		bulk  bool
	}{
		{classifications.MethodManual, 1, true, false},
		{classifications.MethodRule, 2, true, false},
		{classifications.MethodManualBatch, 3, true, true},
		{classifications.MethodBulk, 4, true, true},
		{classifications.MethodAutomatic, 5, true, false},
		{"XX", 0, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			rank, ok := tt.code.Rank()
			assert.Equal(t, tt.rank, rank)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.valid, tt.code.Valid())
			assert.Equal(t, tt.bulk, tt.code.Bulk())
		})
	}
}

func TestCompare(t *testing.T) {
	product := uuid.New()

	t.Run("lower rank wins regardless of age", func(t *testing.T) {
		manual := link(product, classifications.MethodManual, 48*time.Hour)
		auto := link(product, classifications.MethodAutomatic, 0)
		assert.True(t, classifications.Outranks(manual, auto))
		assert.False(t, classifications.Outranks(auto, manual))
	})

	t.Run("stored rank takes precedence over code", func(t *testing.T) {
		a := link(product, classifications.MethodAutomatic, 0)
		a.MethodRank = 1
		b := link(product, classifications.MethodManual, 0)
		b.MethodRank = 2
		assert.True(t, classifications.Outranks(a, b))
	})

	t.Run("newer wins within rank", func(t *testing.T) {
		older := link(product, classifications.MethodRule, time.Hour)
		newer := link(product, classifications.MethodRule, 0)
		assert.True(t, classifications.Outranks(newer, older))
	})

	t.Run("smallest id breaks exact ties", func(t *testing.T) {
		a := link(product, classifications.MethodBulk, 0)
		b := link(product, classifications.MethodBulk, 0)
		a.ID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
		b.ID = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
		assert.True(t, classifications.Outranks(a, b))
		assert.Zero(t, classifications.Compare(a, a))
	})
}

func TestSortByPriority(t *testing.T) {
	product := uuid.New()
	auto := link(product, classifications.MethodAutomatic, 0)
	rule := link(product, classifications.MethodRule, time.Hour)
	manual := link(product, classifications.MethodManual, 2*time.Hour)

	links := []classifications.Classification{auto, rule, manual}
	classifications.SortByPriority(links)

	assert.Equal(t, []uuid.UUID{manual.ID, rule.ID, auto.ID},
		[]uuid.UUID{links[0].ID, links[1].ID, links[2].ID})
}

func TestResolve(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()

	p1Auto := link(p1, classifications.MethodAutomatic, 0)
	p1Batch := link(p1, classifications.MethodManualBatch, time.Hour)
	p2Bulk := link(p2, classifications.MethodBulk, 0)

	winners := classifications.Resolve([]classifications.Classification{p1Auto, p2Bulk, p1Batch})

	require.Len(t, winners, 2)
	assert.Equal(t, p1Batch.ID, winners[p1].ID)
	assert.Equal(t, p2Bulk.ID, winners[p2].ID)

	assert.Empty(t, classifications.Resolve(nil))
}

func TestVerify(t *testing.T) {
	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()

	// p1 is consistent.
	p1Manual := link(p1, classifications.MethodManual, 0)
	p1Manual.IsUberPUC = true
	p1Auto := link(p1, classifications.MethodAutomatic, 0)

	// p2 has the loser flagged.
	p2Rule := link(p2, classifications.MethodRule, 0)
	p2Auto := link(p2, classifications.MethodAutomatic, 0)
	p2Auto.IsUberPUC = true

	// p3 has nothing flagged.
	p3Bulk := link(p3, classifications.MethodBulk, 0)

	result := classifications.Verify([]classifications.Classification{
		p1Manual, p1Auto, p2Rule, p2Auto, p3Bulk,
	})

	assert.Equal(t, 3, result.Products)
	assert.Equal(t, 5, result.Links)
	require.Len(t, result.Mismatches, 2)

	byProduct := map[uuid.UUID]classifications.Mismatch{}
	for _, m := range result.Mismatches {
		byProduct[m.ProductID] = m
	}

	assert.Equal(t, p2Rule.ID, byProduct[p2].Expected)
	assert.Equal(t, []uuid.UUID{p2Auto.ID}, byProduct[p2].Flagged)

	assert.Equal(t, p3Bulk.ID, byProduct[p3].Expected)
	assert.Empty(t, byProduct[p3].Flagged)

	assert.NotContains(t, byProduct, p1)
}

func TestVerifyConsistent(t *testing.T) {
	p := uuid.New()
	only := link(p, classifications.MethodAutomatic, 0)
	only.IsUberPUC = true

	result := classifications.Verify([]classifications.Classification{only})
	assert.NotNil(t, result.Mismatches)
	assert.Empty(t, result.Mismatches)
}

func TestCommandValidate(t *testing.T) {
	conf := func(v float64) *float64 { return &v }

	assert.NoError(t, classifications.AssignCommand{Method: classifications.MethodAutomatic, Confidence: conf(0.75)}.Validate())
	assert.ErrorIs(t, classifications.AssignCommand{Method: "ZZ"}.Validate(), classifications.ErrInvalidMethod)
	assert.ErrorIs(t, classifications.AssignCommand{Method: classifications.MethodAutomatic, Confidence: conf(1.5)}.Validate(), classifications.ErrInvalidConfidence)

	assert.NoError(t, classifications.BulkAssignCommand{Method: classifications.MethodBulk, ProductIDs: []uuid.UUID{uuid.New()}}.Validate())
	assert.ErrorIs(t, classifications.BulkAssignCommand{Method: classifications.MethodManual, ProductIDs: []uuid.UUID{uuid.New()}}.Validate(), classifications.ErrInvalidBulkMethod)
	assert.ErrorIs(t, classifications.BulkAssignCommand{Method: classifications.MethodManualBatch}.Validate(), classifications.ErrNoProducts)
}
