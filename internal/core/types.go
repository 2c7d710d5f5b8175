// Package core provides the validate-then-export pipeline for catalog records.
// This package has no transport or storage dependencies and can be used by any frontend.
package core

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Domain identifies one configuration of the pipeline. The value doubles as
// the action tag sent to the synchronization service.
type Domain string

const (
	DomainCoreProduct   Domain = "core-product"
	DomainCompliance    Domain = "compliance"
	DomainCustomization Domain = "customization"
	DomainMedia         Domain = "media"
)

// KnownDomains lists every action tag the synchronization service accepts.
var KnownDomains = []Domain{DomainCoreProduct, DomainCompliance, DomainCustomization, DomainMedia}

// IsKnown reports whether d is one of the fixed action tags.
func (d Domain) IsKnown() bool {
	for _, k := range KnownDomains {
		if d == k {
			return true
		}
	}
	return false
}

// Locale is a marketplace language code.
type Locale string

// Locales is the fixed set of supported marketplace locales.
var Locales = []Locale{"en_GB", "de_DE", "fr_FR", "it_IT", "es_ES", "nl_NL", "pl_PL", "sv_SE"}

// UpdateMode controls whether empty optional fields are carried in a record.
type UpdateMode string

const (
	ModeFull    UpdateMode = "FULL"
	ModePartial UpdateMode = "PARTIAL"
)

// ParseUpdateMode converts a user-supplied mode, defaulting to PARTIAL.
func ParseUpdateMode(s string) UpdateMode {
	if strings.EqualFold(s, string(ModeFull)) {
		return ModeFull
	}
	return ModePartial
}

// Identity is the remote key of a record.
type Identity struct {
	ExternalID string `json:"externalId"`
	SKU        string `json:"sku"`
}

// FieldKind is the expected data type of a payload field.
type FieldKind int

const (
	KindText FieldKind = iota
	KindNumber
	KindBool
)

// Value is a single extracted payload cell.
type Value struct {
	Raw   string    // Cleaned cell text
	Kind  FieldKind // Declared kind from the schema
	Num   float64   // Parsed number (KindNumber)
	Bool  bool      // Parsed flag (KindBool)
	Valid bool      // False if a non-empty cell failed to parse
}

// Empty reports whether the source cell was blank.
func (v Value) Empty() bool {
	return v.Raw == ""
}

// Truthy reports whether the value enables a gated rule:
// a true flag, or any non-empty text.
func (v Value) Truthy() bool {
	if v.Kind == KindBool {
		return v.Valid && v.Bool
	}
	return !v.Empty()
}

// MarshalJSON writes the typed value. Empty numbers default to zero and
// unparseable cells are sent as their raw text.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		if !v.Valid {
			return json.Marshal(v.Raw)
		}
		return []byte(strconv.FormatFloat(v.Num, 'f', -1, 64)), nil
	case KindBool:
		if !v.Valid {
			return json.Marshal(v.Raw)
		}
		return json.Marshal(v.Bool)
	default:
		return json.Marshal(v.Raw)
	}
}

// Record is the typed unit of work extracted from one row.
type Record struct {
	Domain          Domain
	Identity        Identity
	Localized       map[Locale]map[string]string
	Payload         map[string]Value
	ExportRequested bool // Row-level "export" flag
	IdentityValid   bool // External ID matched the identity pattern
	RowIndex        int  // Back-reference for status write-back only

	groups    []string  // Selected groups; nil means all
	extracted []Finding // Findings raised while parsing cells
}

// Eligible reports whether the row asked to be exported and carries a usable identity.
func (r *Record) Eligible() bool {
	return r.ExportRequested && r.IdentityValid
}

// Key returns the stable status-store key for the record.
func (r *Record) Key() RecordKey {
	return NewRecordKey(r.Domain, r.Identity.SKU, r.RowIndex)
}

// GroupSelected reports whether group was part of the extraction selection.
func (r *Record) GroupSelected(group string) bool {
	if r.groups == nil {
		return true
	}
	for _, g := range r.groups {
		if g == group {
			return true
		}
	}
	return false
}

// ExtractionFindings returns the findings raised while parsing the row.
func (r *Record) ExtractionFindings() []Finding {
	return append([]Finding(nil), r.extracted...)
}

type recordJSON struct {
	ExternalID       string                       `json:"externalId,omitempty"`
	SKU              string                       `json:"sku"`
	LocalizedContent map[Locale]map[string]string `json:"localizedContent,omitempty"`
	Payload          map[string]Value             `json:"payload,omitempty"`
}

// MarshalJSON serializes the record for the synchronization service.
// Internal-only fields (row index, eligibility) are dropped.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ExternalID:       r.Identity.ExternalID,
		SKU:              r.Identity.SKU,
		LocalizedContent: r.Localized,
		Payload:          r.Payload,
	})
}

// Category separates blocking findings from informational ones.
type Category string

const (
	CategoryError   Category = "error"
	CategoryWarning Category = "warning"
)

// Finding is one validation outcome attached to a field.
type Finding struct {
	Field       string   `json:"field"`
	Code        string   `json:"code"`
	Category    Category `json:"category"`
	Message     string   `json:"message"`
	Remediation string   `json:"remediation,omitempty"`
	Row         int      `json:"row"`
}

// Evaluation pairs a record with the findings of its latest validation run.
type Evaluation struct {
	Record   *Record
	Findings []Finding
}

// Valid reports whether the evaluation has no error-category findings.
func (e Evaluation) Valid() bool {
	return !HasErrors(e.Findings)
}

// HasErrors reports whether any finding blocks export.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Category == CategoryError {
			return true
		}
	}
	return false
}

// Status is the export state of a single record.
type Status string

const (
	StatusNone    Status = "NONE"
	StatusPending Status = "PENDING"
	StatusDone    Status = "DONE"
	StatusFailed  Status = "FAILED"
)

// StatusEntry is the persisted export state of one record.
type StatusEntry struct {
	Key            RecordKey `json:"key"`
	Status         Status    `json:"status"`
	LastExportedAt time.Time `json:"lastExportedAt,omitzero"`
	LastError      string    `json:"lastError,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time
