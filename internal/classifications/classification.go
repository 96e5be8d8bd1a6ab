// Package classifications links products to PUCs and resolves each product's
// uberpuc: the single link whose classification method has the highest priority.
package classifications

import (
	"time"

	"github.com/google/uuid"
)

// MethodCode identifies how a product was linked to a PUC.
type MethodCode string

const (
	MethodManual      MethodCode = "MA"
	MethodRule        MethodCode = "RU"
	MethodManualBatch MethodCode = "MB"
	MethodBulk        MethodCode = "BA"
	MethodAutomatic   MethodCode = "AU"
)

// Method is a classification method with its resolution rank.
// A lower rank takes priority.
type Method struct {
	Code MethodCode `json:"code"`
	Name string     `json:"name"`
	Rank int        `json:"rank"`
}

// builtinMethods mirrors the seeded classification_methods table.
var builtinMethods = []Method{
	{MethodManual, "Manual", 1},
	{MethodRule, "Rule-based", 2},
	{MethodManualBatch, "Manual batch", 3},
	{MethodBulk, "Bulk assignment", 4},
	{MethodAutomatic, "Automatic", 5},
}

// Rank returns the resolution rank of c and whether c is a known method.
func (c MethodCode) Rank() (int, bool) {
	for _, m := range builtinMethods {
		if m.Code == c {
			return m.Rank, true
		}
	}
	return 0, false
}

// Valid reports whether c is a known method.
func (c MethodCode) Valid() bool {
	_, ok := c.Rank()
	return ok
}

// Bulk reports whether c may be used for bulk assignment.
func (c MethodCode) Bulk() bool {
	return c == MethodManualBatch || c == MethodBulk
}

// Classification is a product-to-PUC link. IsUberPUC marks the link that wins
// resolution for its product.
type Classification struct {
	ID         uuid.UUID  `json:"id"`
	ProductID  uuid.UUID  `json:"product_id"`
	PUCID      uuid.UUID  `json:"puc_id"`
	Method     MethodCode `json:"classification_method"`
	MethodRank int        `json:"method_rank"`
	Confidence *float64   `json:"confidence,omitempty"`
	AssignedBy string     `json:"assigned_by"`
	IsUberPUC  bool       `json:"is_uber_puc"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// AssignCommand links a product to a PUC under one method. An existing link for
// the same product and method is replaced. An empty AssignedBy defaults to the
// request actor.
type AssignCommand struct {
	ProductID  uuid.UUID  `json:"product_id"`
	PUCID      uuid.UUID  `json:"puc_id"`
	Method     MethodCode `json:"classification_method"`
	Confidence *float64   `json:"confidence,omitempty"`
	AssignedBy string     `json:"assigned_by,omitempty"`
}

// Validate checks the method and the confidence range.
func (c AssignCommand) Validate() error {
	if !c.Method.Valid() {
		return ErrInvalidMethod
	}
	if c.Confidence != nil && (*c.Confidence < 0 || *c.Confidence > 1) {
		return ErrInvalidConfidence
	}
	return nil
}

// BulkAssignCommand links one PUC to many products with a batch method.
type BulkAssignCommand struct {
	PUCID      uuid.UUID   `json:"puc_id"`
	ProductIDs []uuid.UUID `json:"product_ids"`
	Method     MethodCode  `json:"classification_method"`
	AssignedBy string      `json:"assigned_by,omitempty"`
}

// Validate checks the batch method and that at least one product is given.
func (c BulkAssignCommand) Validate() error {
	if !c.Method.Bulk() {
		return ErrInvalidBulkMethod
	}
	if len(c.ProductIDs) == 0 {
		return ErrNoProducts
	}
	return nil
}

// BulkResult reports the outcome of a bulk assignment.
type BulkResult struct {
	Products  int             `json:"products"`
	Assigned  int64           `json:"assigned"`
	Recompute RecomputeResult `json:"recompute"`
}

// RecomputeResult counts the links whose uberpuc flag changed.
type RecomputeResult struct {
	Cleared int64 `json:"cleared"`
	Flagged int64 `json:"flagged"`
}

// Mismatch describes a product whose stored uberpuc flags disagree with resolution.
type Mismatch struct {
	ProductID uuid.UUID   `json:"product_id"`
	Expected  uuid.UUID   `json:"expected"`
	Flagged   []uuid.UUID `json:"flagged"`
}

// VerifyResult summarizes a consistency check of the stored uberpuc flags.
type VerifyResult struct {
	Products   int        `json:"products"`
	Links      int        `json:"links"`
	Mismatches []Mismatch `json:"mismatches"`
}
