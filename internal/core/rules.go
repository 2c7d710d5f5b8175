package core

// ConstraintKind selects how a rule checks its field.
type ConstraintKind string

const (
	ConstraintRequired       ConstraintKind = "required"
	ConstraintMaxLength      ConstraintKind = "maxLength"
	ConstraintMinLength      ConstraintKind = "minLength"
	ConstraintNumericRange   ConstraintKind = "numericRange"
	ConstraintPattern        ConstraintKind = "pattern"
	ConstraintEnum           ConstraintKind = "enum"
	ConstraintProhibitedTerm ConstraintKind = "prohibitedTerm"
	ConstraintCrossField     ConstraintKind = "crossField"
	ConstraintRepetition     ConstraintKind = "repetition"
	ConstraintForbiddenChars ConstraintKind = "forbiddenChars"
)

// Severity distinguishes hard platform limits from soft recommendations.
// Only numericRange and crossField rules consult it; the other kinds have a
// fixed category.
type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

// CrossFieldKind selects the dependency a crossField rule enforces.
type CrossFieldKind string

const (
	// CrossRequireAny requires at least one of Params.Fields to be non-empty.
	CrossRequireAny CrossFieldKind = "requireAny"
	// CrossAtLeast requires the number at Rule.Field to be >= the number at Params.Other.
	CrossAtLeast CrossFieldKind = "atLeast"
)

// AllLocales keys a prohibited-term list that applies to every field.
const AllLocales Locale = "*"

// NumericRange bounds a number, inclusive.
type NumericRange struct {
	Min float64
	Max float64
}

// RuleParams carries the kind-specific configuration of a rule.
type RuleParams struct {
	Length     int                 // maxLength / minLength
	Range      NumericRange        // numericRange
	Pattern    string              // pattern (anchored by the catalog)
	Values     []string            // enum
	Terms      map[Locale][]string // prohibitedTerm; AllLocales applies everywhere
	Cross      CrossFieldKind      // crossField
	Fields     []string            // crossField requireAny
	Other      string              // crossField atLeast; forbiddenChars exception field
	Chars      string              // forbiddenChars
	MaxRepeats int                 // repetition
}

// Rule is one static catalog entry.
type Rule struct {
	Field            string
	Kind             ConstraintKind
	Params           RuleParams
	Severity         Severity
	NonCritical      bool     // Skipped entirely when non-critical checks are overridden
	When             string   // Gate field; the rule only runs while it is truthy
	WhenIn           []string // If set, the gate must equal one of these values instead
	NoteWhenDisabled bool     // Emit an XF003 note when the gate is off but governed fields are filled
	Code             string   // Overrides the default finding code
	Message          string   // Overrides the default finding message
}

// Required fails on an empty value. For a localized field at least one locale must be filled.
func Required(field string) Rule {
	return Rule{Field: field, Kind: ConstraintRequired, Severity: SeverityHard}
}

// MaxLength bounds the character count of every value of field.
func MaxLength(field string, n int) Rule {
	return Rule{Field: field, Kind: ConstraintMaxLength, Params: RuleParams{Length: n}, Severity: SeverityHard}
}

// MinLength recommends a minimum character count.
func MinLength(field string, n int) Rule {
	return Rule{Field: field, Kind: ConstraintMinLength, Params: RuleParams{Length: n}, Severity: SeveritySoft, NonCritical: true}
}

// Range bounds a number as a hard platform limit.
func Range(field string, lower, upper float64) Rule {
	return Rule{Field: field, Kind: ConstraintNumericRange, Params: RuleParams{Range: NumericRange{Min: lower, Max: upper}}, Severity: SeverityHard}
}

// Pattern requires the trimmed value to match expr in full.
func Pattern(field, expr string) Rule {
	return Rule{Field: field, Kind: ConstraintPattern, Params: RuleParams{Pattern: expr}, Severity: SeverityHard}
}

// Enum flags values outside the known set.
func Enum(field string, values ...string) Rule {
	return Rule{Field: field, Kind: ConstraintEnum, Params: RuleParams{Values: values}, Severity: SeveritySoft}
}

// Prohibited rejects whole-word matches of the locale's terms.
func Prohibited(field string, terms map[Locale][]string) Rule {
	return Rule{Field: field, Kind: ConstraintProhibitedTerm, Params: RuleParams{Terms: terms}, Severity: SeverityHard}
}

// RequireAny requires at least one of fields to be set. A flag counts as set
// only when true. name is the finding field.
func RequireAny(name string, fields ...string) Rule {
	return Rule{Field: name, Kind: ConstraintCrossField, Params: RuleParams{Cross: CrossRequireAny, Fields: fields}, Severity: SeverityHard}
}

// AtLeast requires the number at field to be >= the number at other.
func AtLeast(field, other string) Rule {
	return Rule{Field: field, Kind: ConstraintCrossField, Params: RuleParams{Cross: CrossAtLeast, Other: other}, Severity: SeverityHard}
}

// Repetition warns when any word occurs more than maxRepeats times.
func Repetition(field string, maxRepeats int) Rule {
	return Rule{Field: field, Kind: ConstraintRepetition, Params: RuleParams{MaxRepeats: maxRepeats}, Severity: SeveritySoft, NonCritical: true}
}

// ForbiddenChars rejects every listed character found in field, one finding
// per character.
func ForbiddenChars(field, chars string) Rule {
	return Rule{Field: field, Kind: ConstraintForbiddenChars, Params: RuleParams{Chars: chars}, Severity: SeverityHard}
}

// Except allows a forbidden character when the same locale's value of field
// contains it too, e.g. a brand name spelled with "!".
func (r Rule) Except(field string) Rule {
	r.Params.Other = field
	return r
}

// Soft turns the rule into a non-critical recommendation.
func (r Rule) Soft() Rule {
	r.Severity = SeveritySoft
	r.NonCritical = true
	return r
}

// Gated makes the rule conditional on the gate field being truthy.
func (r Rule) Gated(gate string) Rule {
	r.When = gate
	return r
}

// GatedOn makes the rule conditional on the gate field holding one of values
// (case-insensitive).
func (r Rule) GatedOn(gate string, values ...string) Rule {
	r.When = gate
	r.WhenIn = values
	return r
}

// WithNote emits an informational note when the gate is off but governed fields are filled.
func (r Rule) WithNote() Rule {
	r.NoteWhenDisabled = true
	return r
}

// WithCode overrides the finding code.
func (r Rule) WithCode(code string) Rule {
	r.Code = code
	return r
}

// WithMessage overrides the finding message.
func (r Rule) WithMessage(msg string) Rule {
	r.Message = msg
	return r
}

// category returns the finding category the rule produces.
func (r Rule) category() Category {
	switch r.Kind {
	case ConstraintRequired, ConstraintPattern, ConstraintMaxLength, ConstraintProhibitedTerm, ConstraintForbiddenChars:
		return CategoryError
	case ConstraintEnum, ConstraintMinLength, ConstraintRepetition:
		return CategoryWarning
	}
	if r.Severity == SeveritySoft {
		return CategoryWarning
	}
	return CategoryError
}

// skippable reports whether overriding non-critical checks removes this rule.
// Hard limits and content policy are never skippable.
func (r Rule) skippable() bool {
	if !r.NonCritical {
		return false
	}
	switch r.Kind {
	case ConstraintRequired, ConstraintPattern, ConstraintMaxLength, ConstraintProhibitedTerm, ConstraintForbiddenChars:
		return false
	}
	return true
}

// referenced returns every field the rule reads, excluding the gate.
func (r Rule) referenced() []string {
	if r.Kind == ConstraintCrossField {
		switch r.Params.Cross {
		case CrossRequireAny:
			return r.Params.Fields
		case CrossAtLeast:
			return []string{r.Field, r.Params.Other}
		}
	}
	return []string{r.Field}
}
