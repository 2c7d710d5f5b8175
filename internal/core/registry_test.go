package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	def := Definition{Domain: DomainCoreProduct, Label: "Core product", Catalog: testCatalog()}

	require.NoError(t, r.Register(def))
	assert.Equal(t, 1, r.Len())

	got, err := r.Get(DomainCoreProduct)
	require.NoError(t, err)
	assert.Equal(t, "Core product", got.Label)
	assert.Equal(t, testSchema().Headers(), got.Schema().Headers())

	_, err = r.Get(DomainMedia)
	assert.ErrorIs(t, err, ErrUnknownDomain)
}

func TestRegistry_RejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{name: "unknown action tag", def: Definition{Domain: "pricing", Catalog: testCatalog()}},
		{name: "missing catalog", def: Definition{Domain: DomainMedia}},
		{name: "catalog of another domain", def: Definition{Domain: DomainMedia, Catalog: testCatalog()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, NewRegistry().Register(tt.def))
		})
	}

	t.Run("duplicate", func(t *testing.T) {
		r := NewRegistry()
		r.MustRegister(Definition{Domain: DomainCoreProduct, Catalog: testCatalog()})
		assert.Error(t, r.Register(Definition{Domain: DomainCoreProduct, Catalog: testCatalog()}))
		assert.Panics(t, func() { r.MustRegister(Definition{Domain: DomainCoreProduct, Catalog: testCatalog()}) })
	})
}

func TestRegistry_AllIsSorted(t *testing.T) {
	r := NewRegistry()
	for _, d := range []Domain{DomainMedia, DomainCompliance, DomainCoreProduct} {
		r.MustRegister(Definition{Domain: d, Catalog: MustCatalog(d, testSchema(), nil)})
	}

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, DomainCompliance, all[0].Domain)
	assert.Equal(t, DomainCoreProduct, all[1].Domain)
	assert.Equal(t, DomainMedia, all[2].Domain)
}

func TestNewCatalog_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr string
	}{
		{name: "unknown field", rule: Required("subtitle"), wantErr: `unknown field "subtitle"`},
		{name: "unknown gate", rule: Required("title").Gated("enabled"), wantErr: `unknown gate "enabled"`},
		{name: "bad pattern", rule: Pattern("title", "("), wantErr: "pattern"},
		{name: "empty requireAny", rule: RequireAny("title"), wantErr: "requireAny needs fields"},
		{name: "inverted range", rule: Range("price", 10, 1), wantErr: "range min > max"},
		{name: "zero length", rule: MaxLength("title", 0), wantErr: "length must be positive"},
		{name: "gate values without gate", rule: Rule{Field: "title", Kind: ConstraintRequired, WhenIn: []string{"Yes"}}, wantErr: "gate values without a gate"},
		{name: "unknown kind", rule: Rule{Field: "title", Kind: "fuzzy"}, wantErr: `unknown kind "fuzzy"`},
		{name: "no forbidden characters", rule: ForbiddenChars("title", ""), wantErr: "forbiddenChars needs characters"},
		{name: "unknown exception field", rule: ForbiddenChars("title", "!").Except("maker"), wantErr: `unknown exception field "maker"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(DomainCoreProduct, testSchema(), []Rule{tt.rule})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Panics(t, func() { MustCatalog(DomainCoreProduct, testSchema(), []Rule{tt.rule}) })
		})
	}
}

func TestCatalog_RulesAreCopied(t *testing.T) {
	cat := testCatalog()
	rules := cat.Rules()
	rules[0].Field = "changed"

	assert.Equal(t, "title", cat.Rules()[0].Field)
	assert.Equal(t, DomainCoreProduct, cat.Domain())
}
