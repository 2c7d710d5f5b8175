package core

import (
	"time"
)

// Test fixtures shared by the core tests: a small catalog with one rule of
// every kind and helpers to build rows by header name.

const (
	validASIN = "B0ABCDE123"
	validSKU  = "SKU-1"
)

func testSchema() Schema {
	return Schema{
		Identity: DefaultIdentityColumns,
		Fields: []FieldDef{
			{Key: "title", Header: "Title", Group: "title", Kind: KindText, Localized: true},
			{Key: "price", Header: "Price", Group: "pricing", Kind: KindNumber},
			{Key: "listPrice", Header: "List Price", Group: "pricing", Kind: KindNumber},
			{Key: "featureEnabled", Header: "Feature Enabled", Group: "feature", Kind: KindBool},
			{Key: "featureLabel", Header: "Feature Label", Group: "feature", Kind: KindText},
			{Key: "featureSize", Header: "Feature Size", Group: "feature", Kind: KindNumber},
			{Key: "status", Header: "Status", Group: "attributes", Kind: KindText},
			{Key: "statusNote", Header: "Status Note", Group: "attributes", Kind: KindText},
			{Key: "color", Header: "Color", Group: "attributes", Kind: KindText},
		},
	}
}

func testRules() []Rule {
	return []Rule{
		Required("title"),
		MaxLength("title", 200),
		MinLength("title", 20),
		Repetition("title", 2),
		Prohibited("title", map[Locale][]string{
			AllLocales: {"amazon"},
			"en_GB":    {"free"},
			"de_DE":    {"kostenlos"},
		}),
		Range("price", 0.01, 1000),
		Range("price", 0, 500).Soft(),
		AtLeast("listPrice", "price"),
		RequireAny("featureEnabled", "featureLabel", "featureSize").Gated("featureEnabled").WithNote(),
		RequireAny("statusNote", "statusNote").GatedOn("status", "Pending"),
		Enum("color", "red", "blue"),
	}
}

func testCatalog() *Catalog {
	return MustCatalog(DomainCoreProduct, testSchema(), testRules())
}

// testRow builds a row in header order from header-to-value pairs.
func testRow(header []string, cells map[string]string) []string {
	row := make([]string, len(header))
	for i, h := range header {
		row[i] = cells[h]
	}
	return row
}

// validCells is a row that passes every rule of the test catalog.
func validCells() map[string]string {
	return map[string]string{
		"Export":        "TRUE",
		"ASIN":          validASIN,
		"SKU":           validSKU,
		"Title (en_GB)": "Stainless steel water bottle",
	}
}

func extractTest(cells map[string]string, opts ExtractOptions) *Record {
	header := testSchema().Headers()
	return Extract(DomainCoreProduct, testSchema(), testRow(header, cells), MakeHeaderIndex(header), 2, opts)
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func codes(findings []Finding) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = f.Code
	}
	return out
}
