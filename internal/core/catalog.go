package core

import (
	"fmt"
	"regexp"
	"strings"
)

// ExternalIDPattern is the identity format every record must satisfy.
var ExternalIDPattern = regexp.MustCompile(`^B[0-9A-Z]{9}$`)

// Catalog is the compiled, read-only rule set of one domain.
// It is built once at startup and shared by every validation run.
type Catalog struct {
	domain Domain
	schema Schema
	rules  []compiledRule
}

type compiledRule struct {
	Rule
	pattern *regexp.Regexp
	enum    map[string]bool
	terms   map[Locale][]termMatcher
}

type termMatcher struct {
	term string
	re   *regexp.Regexp
}

// NewCatalog validates rules against the schema and compiles their patterns.
// Any reference to an unknown field, gate, or a malformed pattern is a
// configuration error.
func NewCatalog(domain Domain, schema Schema, rules []Rule) (*Catalog, error) {
	c := &Catalog{domain: domain, schema: schema}
	var errs []string

	for i, r := range rules {
		cr := compiledRule{Rule: r}

		for _, f := range r.referenced() {
			if !c.knowsField(f) {
				errs = append(errs, fmt.Sprintf("rule %d (%s): unknown field %q", i, r.Kind, f))
			}
		}
		if r.When != "" && !c.knowsField(r.When) {
			errs = append(errs, fmt.Sprintf("rule %d (%s): unknown gate %q", i, r.Kind, r.When))
		}
		if len(r.WhenIn) > 0 && r.When == "" {
			errs = append(errs, fmt.Sprintf("rule %d (%s): gate values without a gate", i, r.Kind))
		}

		switch r.Kind {
		case ConstraintRequired, ConstraintCrossField:
			if r.Kind == ConstraintCrossField && r.Params.Cross == CrossRequireAny && len(r.Params.Fields) == 0 {
				errs = append(errs, fmt.Sprintf("rule %d: requireAny needs fields", i))
			}
		case ConstraintMaxLength, ConstraintMinLength:
			if r.Params.Length <= 0 {
				errs = append(errs, fmt.Sprintf("rule %d (%s): length must be positive", i, r.Kind))
			}
		case ConstraintNumericRange:
			if r.Params.Range.Min > r.Params.Range.Max {
				errs = append(errs, fmt.Sprintf("rule %d: range min > max", i))
			}
		case ConstraintPattern:
			re, err := regexp.Compile(`^(?:` + r.Params.Pattern + `)$`)
			if err != nil {
				errs = append(errs, fmt.Sprintf("rule %d: pattern: %v", i, err))
			}
			cr.pattern = re
		case ConstraintEnum:
			cr.enum = make(map[string]bool, len(r.Params.Values))
			for _, v := range r.Params.Values {
				cr.enum[strings.ToLower(v)] = true
			}
		case ConstraintProhibitedTerm:
			cr.terms = compileTerms(r.Params.Terms)
		case ConstraintForbiddenChars:
			if r.Params.Chars == "" {
				errs = append(errs, fmt.Sprintf("rule %d: forbiddenChars needs characters", i))
			}
			if r.Params.Other != "" && !c.knowsField(r.Params.Other) {
				errs = append(errs, fmt.Sprintf("rule %d (%s): unknown exception field %q", i, r.Kind, r.Params.Other))
			}
		case ConstraintRepetition:
			if r.Params.MaxRepeats <= 0 {
				errs = append(errs, fmt.Sprintf("rule %d: maxRepeats must be positive", i))
			}
		default:
			errs = append(errs, fmt.Sprintf("rule %d: unknown kind %q", i, r.Kind))
		}

		c.rules = append(c.rules, cr)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("catalog %s:\n  - %s", domain, strings.Join(errs, "\n  - "))
	}
	return c, nil
}

// MustCatalog is NewCatalog that panics on configuration errors.
// Use it for the static domain catalogs built at init time.
func MustCatalog(domain Domain, schema Schema, rules []Rule) *Catalog {
	c, err := NewCatalog(domain, schema, rules)
	if err != nil {
		panic(err)
	}
	return c
}

// Domain returns the domain the catalog belongs to.
func (c *Catalog) Domain() Domain {
	return c.domain
}

// Schema returns the field map the catalog was validated against.
func (c *Catalog) Schema() Schema {
	return c.schema
}

// Rules returns a copy of the configured rules.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.Rule
	}
	return out
}

func (c *Catalog) knowsField(key string) bool {
	if key == FieldExternalID || key == FieldSKU {
		return true
	}
	_, ok := c.schema.Field(key)
	return ok
}

// compileTerms builds whole-word, case-insensitive matchers.
// Word boundaries are Unicode letters and digits so "Garantie" does not match "garantiert".
func compileTerms(terms map[Locale][]string) map[Locale][]termMatcher {
	out := make(map[Locale][]termMatcher, len(terms))
	for loc, list := range terms {
		for _, t := range list {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			re := regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(t) + `(?:$|[^\p{L}\p{N}])`)
			out[loc] = append(out[loc], termMatcher{term: t, re: re})
		}
	}
	return out
}
