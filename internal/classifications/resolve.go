package classifications

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

func rank(c Classification) int {
	if c.MethodRank > 0 {
		return c.MethodRank
	}
	if r, ok := c.Method.Rank(); ok {
		return r
	}
	return len(builtinMethods) + 1
}

// Compare orders links by priority: lower method rank first, then the newest
// CreatedAt, then the lexically smallest ID.
func Compare(a, b Classification) int {
	if d := rank(a) - rank(b); d != 0 {
		return d
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}

// Outranks reports whether a wins resolution over b.
func Outranks(a, b Classification) bool {
	return Compare(a, b) < 0
}

// SortByPriority orders links from winner to loser.
func SortByPriority(links []Classification) {
	slices.SortFunc(links, Compare)
}

// Resolve returns the winning link for each product that has any links.
func Resolve(links []Classification) map[uuid.UUID]Classification {
	winners := make(map[uuid.UUID]Classification)
	for _, l := range links {
		if w, ok := winners[l.ProductID]; !ok || Outranks(l, w) {
			winners[l.ProductID] = l
		}
	}
	return winners
}

// Verify compares the stored IsUberPUC flags with Resolve. A product is reported
// unless exactly its winning link is flagged. Mismatches are ordered by product ID.
func Verify(links []Classification) VerifyResult {
	winners := Resolve(links)

	flagged := make(map[uuid.UUID][]uuid.UUID)
	for _, l := range links {
		if l.IsUberPUC {
			flagged[l.ProductID] = append(flagged[l.ProductID], l.ID)
		}
	}

	result := VerifyResult{
		Products:   len(winners),
		Links:      len(links),
		Mismatches: []Mismatch{},
	}

	for productID, w := range winners {
		f := flagged[productID]
		if len(f) == 1 && f[0] == w.ID {
			continue
		}
		result.Mismatches = append(result.Mismatches, Mismatch{
			ProductID: productID,
			Expected:  w.ID,
			Flagged:   f,
		})
	}

	slices.SortFunc(result.Mismatches, func(a, b Mismatch) int {
		return strings.Compare(a.ProductID.String(), b.ProductID.String())
	})
	return result
}
