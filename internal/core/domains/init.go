// Package domains holds the four domain configurations of the pipeline.
// Each domain is data only: a schema and a rule catalog.
package domains

import "github.com/JonMunkholm/catalogsync/internal/core"

// Register adds every domain definition to r.
func Register(r *core.Registry) error {
	for _, def := range []core.Definition{
		CoreProduct(),
		Compliance(),
		Customization(),
		Media(),
	} {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding every domain.
func NewRegistry() *core.Registry {
	r := core.NewRegistry()
	if err := Register(r); err != nil {
		panic(err)
	}
	return r
}

// Shared value formats.
const (
	urlPattern   = `https?://\S+`
	emailPattern = `[^\s@]+@[^\s@]+\.[^\s@]+`
	imagePattern = `(?i)https?://\S+\.(jpe?g|png|gif|webp|tiff?)(\?\S*)?`
)

func text(key, header, group string) core.FieldDef {
	return core.FieldDef{Key: key, Header: header, Group: group, Kind: core.KindText}
}

func number(key, header, group string) core.FieldDef {
	return core.FieldDef{Key: key, Header: header, Group: group, Kind: core.KindNumber}
}

func flag(key, header, group string) core.FieldDef {
	return core.FieldDef{Key: key, Header: header, Group: group, Kind: core.KindBool}
}

func localized(key, header, group string) core.FieldDef {
	return core.FieldDef{Key: key, Header: header, Group: group, Kind: core.KindText, Localized: true}
}
