package rules

import (
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Candidate is the product data rules are evaluated against.
type Candidate struct {
	ID           uuid.UUID
	Title        string
	BrandName    string
	Manufacturer string
}

func (c Candidate) value(f Field) string {
	switch f {
	case FieldBrandName:
		return c.BrandName
	case FieldManufacturer:
		return c.Manufacturer
	default:
		return c.Title
	}
}

type compiled struct {
	rule Rule
	re   *regexp.Regexp
}

// Matcher evaluates active rules in name order; the first match wins.
type Matcher struct {
	rules []compiled
}

// NewMatcher compiles the active rules. Inactive rules are skipped.
func NewMatcher(rules []Rule) (*Matcher, error) {
	active := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Active {
			active = append(active, r)
		}
	}

	slices.SortFunc(active, func(a, b Rule) int {
		return strings.Compare(a.Name, b.Name)
	})

	m := &Matcher{rules: make([]compiled, 0, len(active))}
	for _, r := range active {
		re, err := compile(r.Pattern)
		if err != nil {
			return nil, err
		}
		m.rules = append(m.rules, compiled{rule: r, re: re})
	}
	return m, nil
}

// Len returns the number of active rules.
func (m *Matcher) Len() int {
	return len(m.rules)
}

// Match returns the first rule whose pattern matches the candidate.
func (m *Matcher) Match(c Candidate) (Rule, bool) {
	for _, cr := range m.rules {
		if cr.re.MatchString(c.value(cr.rule.Field)) {
			return cr.rule, true
		}
	}
	return Rule{}, false
}
