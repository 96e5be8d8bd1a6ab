package qa

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"
)

// Candidate is an unreviewed text eligible for a new group. Stratum is the
// data group of its document.
type Candidate struct {
	ID      uuid.UUID
	Stratum string
}

// SampleSize returns how many of n candidates a group receives. At or below
// threshold every candidate is reviewed; above it ceil(n*fraction).
func SampleSize(n, threshold int, fraction float64) int {
	if n <= threshold {
		return n
	}
	// the epsilon keeps 0.2*105 from rounding up to 22
	size := int(math.Ceil(float64(n)*fraction - 1e-9))
	return min(max(size, 1), n)
}

// Allocate splits size across strata in proportion to their counts using
// the largest remainder method. Ties go to the larger stratum, then by name.
func Allocate(counts map[string]int, size int) map[string]int {
	total := 0
	for _, n := range counts {
		total += n
	}

	alloc := make(map[string]int, len(counts))
	if total == 0 || size <= 0 {
		return alloc
	}
	size = min(size, total)

	type share struct {
		stratum   string
		count     int
		remainder int
	}

	shares := make([]share, 0, len(counts))
	assigned := 0
	for s, n := range counts {
		q := size * n
		alloc[s] = q / total
		assigned += q / total
		shares = append(shares, share{stratum: s, count: n, remainder: q % total})
	}

	slices.SortFunc(shares, func(a, b share) int {
		if c := cmp.Compare(b.remainder, a.remainder); c != 0 {
			return c
		}
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.stratum, b.stratum)
	})

	for i := 0; assigned < size; i++ {
		alloc[shares[i].stratum]++
		assigned++
	}

	return alloc
}

// Sample selects the texts for a new group. Small candidate sets are taken
// whole; larger ones are drawn at random within each stratum according to
// Allocate.
func Sample(candidates []Candidate, threshold int, fraction float64, rng *rand.Rand) []uuid.UUID {
	size := SampleSize(len(candidates), threshold, fraction)
	if size == len(candidates) {
		ids := make([]uuid.UUID, len(candidates))
		for i, c := range candidates {
			ids[i] = c.ID
		}
		return ids
	}

	strata := make(map[string][]uuid.UUID)
	counts := make(map[string]int)
	for _, c := range candidates {
		strata[c.Stratum] = append(strata[c.Stratum], c.ID)
		counts[c.Stratum]++
	}

	alloc := Allocate(counts, size)

	names := make([]string, 0, len(strata))
	for s := range strata {
		names = append(names, s)
	}
	slices.Sort(names)

	ids := make([]uuid.UUID, 0, size)
	for _, s := range names {
		pool := strata[s]
		rng.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
		ids = append(ids, pool[:alloc[s]]...)
	}
	return ids
}
