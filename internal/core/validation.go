package core

// validation.go runs a domain catalog against a record.
//
// Validation happens at two levels:
//  1. Identity: a malformed external ID or missing SKU ends the run with only
//     identity findings, since nothing else about the row can be trusted.
//  2. Rules: every catalog rule runs independently (no early exit) and
//     appends findings. Order never changes the final set; the output is
//     de-duplicated and sorted.
//
// Validation never returns an error. Data problems are findings.

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// fieldValue is one readable value of a field; localized fields yield one per locale.
type fieldValue struct {
	name string // finding field, e.g. "title[de_DE]"
	loc  Locale // empty for non-localized fields
	raw  string
	val  Value
}

// Validate returns the findings of one record against the catalog.
// With overrideNonCritical, non-critical rules are skipped entirely.
func Validate(rec *Record, cat *Catalog, overrideNonCritical bool) []Finding {
	var findings []Finding

	if idf := identityFindings(rec); len(idf) > 0 {
		return finalize(rec, idf)
	}

	findings = append(findings, rec.extracted...)

	for i := range cat.rules {
		r := &cat.rules[i]

		if overrideNonCritical && r.skippable() {
			continue
		}
		if !cat.selected(rec, r.Rule) {
			continue
		}
		if r.When != "" && !cat.gateOn(rec, r.When, r.WhenIn) {
			if r.NoteWhenDisabled && !overrideNonCritical && cat.anyFilled(rec, r.referenced()) {
				findings = append(findings, Finding{
					Field:    r.Field,
					Code:     CodeFeatureDisabled,
					Category: CategoryWarning,
					Message:  fmt.Sprintf("%s is off; settings for %s are ignored", r.When, r.Field),
				})
			}
			continue
		}

		findings = append(findings, cat.check(rec, r)...)
	}

	return finalize(rec, findings)
}

// identityFindings checks the identity precondition.
func identityFindings(rec *Record) []Finding {
	var out []Finding
	if !ExternalIDPattern.MatchString(rec.Identity.ExternalID) {
		out = append(out, Finding{
			Field:    FieldExternalID,
			Code:     CodeExternalIDFormat,
			Category: CategoryError,
			Message:  fmt.Sprintf("external ID %q must be B followed by 9 digits or capital letters", rec.Identity.ExternalID),
		})
	}
	if strings.TrimSpace(rec.Identity.SKU) == "" {
		out = append(out, Finding{
			Field:    FieldSKU,
			Code:     CodeSKUMissing,
			Category: CategoryError,
			Message:  "SKU is required",
		})
	}
	return out
}

// finalize stamps row and remediation, removes duplicates, and sorts.
func finalize(rec *Record, findings []Finding) []Finding {
	seen := make(map[[3]string]bool, len(findings))
	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		k := [3]string{f.Field, f.Code, f.Message}
		if seen[k] {
			continue
		}
		seen[k] = true
		if f.Remediation == "" {
			f.Remediation = Remediation(f.Code)
		}
		f.Row = rec.RowIndex
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Message < out[j].Message
	})
	return out
}

// selected reports whether at least one field the rule reads was extracted.
func (c *Catalog) selected(rec *Record, r Rule) bool {
	for _, key := range r.referenced() {
		if key == FieldExternalID || key == FieldSKU {
			return true
		}
		if f, ok := c.schema.Field(key); ok && rec.GroupSelected(f.Group) {
			return true
		}
	}
	return false
}

// gateOn reports whether the gate field enables its rules. With a value list
// the gate must match one of them; otherwise it must be truthy.
func (c *Catalog) gateOn(rec *Record, gate string, in []string) bool {
	for _, v := range c.values(rec, gate) {
		if len(in) > 0 {
			for _, want := range in {
				if strings.EqualFold(strings.TrimSpace(v.raw), want) {
					return true
				}
			}
			continue
		}
		if v.loc != "" {
			if v.raw != "" {
				return true
			}
			continue
		}
		if v.val.Truthy() {
			return true
		}
	}
	return false
}

// anySet reports whether any field carries a usable value. Flags count only when true.
func (c *Catalog) anySet(rec *Record, keys []string) bool {
	for _, k := range keys {
		for _, v := range c.values(rec, k) {
			if v.val.Kind == KindBool && v.loc == "" {
				if v.val.Truthy() {
					return true
				}
				continue
			}
			if strings.TrimSpace(v.raw) != "" {
				return true
			}
		}
	}
	return false
}

// anyFilled reports whether any field has a non-empty cell, whatever its value.
func (c *Catalog) anyFilled(rec *Record, keys []string) bool {
	for _, k := range keys {
		for _, v := range c.values(rec, k) {
			if v.raw != "" {
				return true
			}
		}
	}
	return false
}

// values returns every value of a field in the record.
// A payload field missing from the record yields one empty value.
func (c *Catalog) values(rec *Record, key string) []fieldValue {
	switch key {
	case FieldExternalID:
		return []fieldValue{{name: key, raw: rec.Identity.ExternalID, val: Value{Raw: rec.Identity.ExternalID, Valid: true}}}
	case FieldSKU:
		return []fieldValue{{name: key, raw: rec.Identity.SKU, val: Value{Raw: rec.Identity.SKU, Valid: true}}}
	}

	def, ok := c.schema.Field(key)
	if !ok {
		return nil
	}

	if def.Localized {
		var out []fieldValue
		for _, loc := range Locales {
			content, ok := rec.Localized[loc]
			if !ok {
				continue
			}
			raw, ok := content[key]
			if !ok {
				continue
			}
			out = append(out, fieldValue{name: LocalizedField(key, loc), loc: loc, raw: raw, val: Value{Raw: raw, Valid: true}})
		}
		return out
	}

	v, ok := rec.Payload[key]
	if !ok {
		v = Value{Kind: def.Kind, Valid: true}
	}
	return []fieldValue{{name: key, raw: v.Raw, val: v}}
}

// check runs one active rule.
func (c *Catalog) check(rec *Record, r *compiledRule) []Finding {
	switch r.Kind {
	case ConstraintRequired:
		return c.checkRequired(rec, r)
	case ConstraintCrossField:
		return c.checkCrossField(rec, r)
	case ConstraintForbiddenChars:
		return c.checkForbiddenChars(rec, r)
	}

	var out []Finding
	for _, v := range c.values(rec, r.Field) {
		if v.raw == "" {
			continue
		}
		if f, ok := checkValue(r, v); ok {
			out = append(out, f...)
		}
	}
	return out
}

func (c *Catalog) checkRequired(rec *Record, r *compiledRule) []Finding {
	for _, v := range c.values(rec, r.Field) {
		if strings.TrimSpace(v.raw) != "" {
			return nil
		}
	}
	return []Finding{r.finding(r.Field, CodeRequired, fmt.Sprintf("%s is required", r.Field))}
}

func (c *Catalog) checkCrossField(rec *Record, r *compiledRule) []Finding {
	switch r.Params.Cross {
	case CrossRequireAny:
		if c.anySet(rec, r.Params.Fields) {
			return nil
		}
		return []Finding{r.finding(r.Field, CodeDependency,
			fmt.Sprintf("%s needs at least one of: %s", r.Field, strings.Join(r.Params.Fields, ", ")))}

	case CrossAtLeast:
		a := c.number(rec, r.Field)
		b := c.number(rec, r.Params.Other)
		if a == nil || b == nil {
			return nil
		}
		if *a < *b {
			return []Finding{r.finding(r.Field, CodeOrdering,
				fmt.Sprintf("%s (%s) must be at least %s (%s)", r.Field, formatNumber(*a), r.Params.Other, formatNumber(*b)))}
		}
	}
	return nil
}

// checkForbiddenChars reports each forbidden character of every value. A
// character also present in the exception field of the same locale is allowed.
func (c *Catalog) checkForbiddenChars(rec *Record, r *compiledRule) []Finding {
	var out []Finding
	for _, v := range c.values(rec, r.Field) {
		if v.raw == "" {
			continue
		}
		allowed := c.sameLocale(rec, r.Params.Other, v.loc)
		for _, ch := range r.Params.Chars {
			if !strings.ContainsRune(v.raw, ch) || strings.ContainsRune(allowed, ch) {
				continue
			}
			out = append(out, r.finding(v.name, CodeForbiddenChar,
				fmt.Sprintf("%s contains %q, which is not allowed", v.name, ch)))
		}
	}
	return out
}

// sameLocale returns the raw value of key in loc, or the plain value when key
// is not localized. An empty key yields "".
func (c *Catalog) sameLocale(rec *Record, key string, loc Locale) string {
	if key == "" {
		return ""
	}
	for _, v := range c.values(rec, key) {
		if v.loc == loc || v.loc == "" {
			return v.raw
		}
	}
	return ""
}

// number returns the parsed number of a non-localized field, or nil if absent or unparseable.
func (c *Catalog) number(rec *Record, key string) *float64 {
	vals := c.values(rec, key)
	if len(vals) != 1 || vals[0].raw == "" {
		return nil
	}
	v := vals[0].val
	if v.Kind == KindNumber {
		if !v.Valid {
			return nil
		}
		return &v.Num
	}
	n, ok := ParseNumber(v.Raw)
	if !ok {
		return nil
	}
	return &n
}

// checkValue applies a single-value rule to a non-empty value.
func checkValue(r *compiledRule, v fieldValue) ([]Finding, bool) {
	switch r.Kind {
	case ConstraintMaxLength:
		if n := utf8.RuneCountInString(v.raw); n > r.Params.Length {
			return []Finding{r.finding(v.name, CodeMaxLength,
				fmt.Sprintf("%s is %d characters; the limit is %d", v.name, n, r.Params.Length))}, true
		}

	case ConstraintMinLength:
		if n := utf8.RuneCountInString(v.raw); n < r.Params.Length {
			return []Finding{r.finding(v.name, CodeBelowRecommended,
				fmt.Sprintf("%s is %d characters; at least %d is recommended", v.name, n, r.Params.Length))}, true
		}

	case ConstraintNumericRange:
		n := v.val.Num
		if v.val.Kind != KindNumber || !v.val.Valid {
			var ok bool
			if n, ok = ParseNumber(v.raw); !ok {
				return []Finding{notNumber(v.name, v.raw)}, true
			}
		}
		if n < r.Params.Range.Min || n > r.Params.Range.Max {
			code := CodeOutOfRange
			if r.Severity == SeveritySoft {
				code = CodeOutOfRecommended
			}
			return []Finding{r.finding(v.name, code,
				fmt.Sprintf("%s is %s; expected %s to %s", v.name, formatNumber(n),
					formatNumber(r.Params.Range.Min), formatNumber(r.Params.Range.Max)))}, true
		}

	case ConstraintPattern:
		if !r.pattern.MatchString(strings.TrimSpace(v.raw)) {
			return []Finding{r.finding(v.name, CodePattern,
				fmt.Sprintf("%s %q has an invalid format", v.name, v.raw))}, true
		}

	case ConstraintEnum:
		if !r.enum[strings.ToLower(strings.TrimSpace(v.raw))] {
			return []Finding{r.finding(v.name, CodeUnknownEnum,
				fmt.Sprintf("%s %q is not a known value", v.name, v.raw))}, true
		}

	case ConstraintProhibitedTerm:
		var out []Finding
		for _, t := range r.matchTerms(v) {
			out = append(out, r.finding(v.name, CodeProhibitedTerm,
				fmt.Sprintf("%s contains prohibited term %q", v.name, t)))
		}
		return out, len(out) > 0

	case ConstraintRepetition:
		if words := repeatedWords(v.raw, r.Params.MaxRepeats); len(words) > 0 {
			return []Finding{r.finding(v.name, CodeRepetition,
				fmt.Sprintf("%s repeats %s more than %d times", v.name, strings.Join(words, ", "), r.Params.MaxRepeats))}, true
		}
	}
	return nil, false
}

// matchTerms returns the terms found in the value. Localized values are
// checked against their locale's list and the all-locale list.
func (r *compiledRule) matchTerms(v fieldValue) []string {
	lists := [][]termMatcher{r.terms[AllLocales]}
	if v.loc != "" {
		lists = append(lists, r.terms[v.loc])
	}
	var found []string
	for _, list := range lists {
		for _, m := range list {
			if m.re.MatchString(v.raw) && !slices.Contains(found, m.term) {
				found = append(found, m.term)
			}
		}
	}
	return found
}

// finding builds a finding in the rule's category, honoring overrides.
func (r *compiledRule) finding(field, code, msg string) Finding {
	if r.Code != "" {
		code = r.Code
	}
	if r.Message != "" {
		msg = fmt.Sprintf("%s: %s", field, r.Message)
	}
	return Finding{Field: field, Code: code, Category: r.category(), Message: msg}
}

// repeatedWords returns the sorted words of at least three letters that occur
// more than limit times.
func repeatedWords(s string, limit int) []string {
	counts := make(map[string]int)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if utf8.RuneCountInString(w) >= 3 {
			counts[w]++
		}
	}
	var words []string
	for w, n := range counts {
		if n > limit {
			words = append(words, w)
		}
	}
	sort.Strings(words)
	return words
}

// notNumber is the finding for a present but unparseable numeric cell.
func notNumber(field, raw string) Finding {
	return Finding{
		Field:    field,
		Code:     CodeNotNumber,
		Category: CategoryError,
		Message:  fmt.Sprintf("%s: %q is not a number", field, raw),
	}
}

// notBool is the finding for a present but unparseable flag cell.
func notBool(field, raw string) Finding {
	return Finding{
		Field:    field,
		Code:     CodeNotBool,
		Category: CategoryError,
		Message:  fmt.Sprintf("%s: %q is not a yes/no value", field, raw),
	}
}

func formatNumber(n float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.4f", n), "0"), ".")
}

// Summary aggregates a validation run.
type Summary struct {
	Evaluated int `json:"evaluated"`
	Valid     int `json:"valid"`
	Errors    int `json:"errors"`
	Warnings  int `json:"warnings"`
}

// Summarize folds evaluations into counts. It reads only the finding lists.
func Summarize(evals []Evaluation) Summary {
	var s Summary
	for _, e := range evals {
		s.Evaluated++
		if e.Valid() {
			s.Valid++
		}
		for _, f := range e.Findings {
			switch f.Category {
			case CategoryError:
				s.Errors++
			case CategoryWarning:
				s.Warnings++
			}
		}
	}
	return s
}

// ValidateHeaders checks that the identity columns exist and returns the index.
func ValidateHeaders(headers []string, schema Schema) (HeaderIndex, error) {
	idx := MakeHeaderIndex(headers)
	var missing []string

	for _, h := range []string{schema.Identity.ExternalID, schema.Identity.SKU, schema.Identity.Export} {
		if !idx.Has(h) {
			missing = append(missing, h)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("invalid csv: missing required columns: %s", strings.Join(missing, ", "))
	}

	return idx, nil
}
