package core

import "fmt"

// Field references used by identity rules.
const (
	FieldExternalID = "identity.externalId"
	FieldSKU        = "identity.sku"
)

// FieldDef maps one logical record field to its source column.
type FieldDef struct {
	Key       string    // Logical name in the record ("price", "title")
	Header    string    // Column header; localized fields expand per locale
	Group     string    // Selection group ("title", "pricing", "images")
	Kind      FieldKind // Expected data type
	Localized bool      // One column per locale, stored in Record.Localized
}

// IdentityColumns names the columns that are always extracted.
type IdentityColumns struct {
	ExternalID string
	SKU        string
	Export     string
}

// DefaultIdentityColumns matches the shared sheet layout.
var DefaultIdentityColumns = IdentityColumns{
	ExternalID: "ASIN",
	SKU:        "SKU",
	Export:     "Export",
}

// Columns lists the identity headers in sheet order.
func (c IdentityColumns) Columns() []string {
	return []string{c.Export, c.ExternalID, c.SKU}
}

// Schema is the declarative field map for one domain.
type Schema struct {
	Identity IdentityColumns
	Fields   []FieldDef
}

// Field returns the definition for a logical key.
func (s Schema) Field(key string) (FieldDef, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Groups returns the distinct selection groups in declaration order.
func (s Schema) Groups() []string {
	seen := make(map[string]bool)
	var groups []string
	for _, f := range s.Fields {
		if !seen[f.Group] {
			seen[f.Group] = true
			groups = append(groups, f.Group)
		}
	}
	return groups
}

// HasGroup reports whether group is declared by any field.
func (s Schema) HasGroup(group string) bool {
	for _, f := range s.Fields {
		if f.Group == group {
			return true
		}
	}
	return false
}

// Headers returns every column header the schema reads, identity columns first.
// Localized fields expand to one header per locale.
func (s Schema) Headers() []string {
	headers := s.Identity.Columns()
	for _, f := range s.Fields {
		if !f.Localized {
			headers = append(headers, f.Header)
			continue
		}
		for _, loc := range Locales {
			headers = append(headers, LocalizedHeader(f.Header, loc))
		}
	}
	return headers
}

// LocalizedHeader returns the column header of a localized field, e.g. "Title (de_DE)".
func LocalizedHeader(header string, loc Locale) string {
	return fmt.Sprintf("%s (%s)", header, loc)
}

// LocalizedField returns the finding field name for a localized value, e.g. "title[de_DE]".
func LocalizedField(key string, loc Locale) string {
	return fmt.Sprintf("%s[%s]", key, loc)
}
