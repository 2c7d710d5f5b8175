package domains

import "github.com/JonMunkholm/catalogsync/internal/core"

// prohibitedTerms are marketing and health claims the marketplace rejects in
// listing text. Matching is whole-word and case-insensitive.
var prohibitedTerms = map[core.Locale][]string{
	core.AllLocales: {"amazon", "COVID"},
	"en_GB":         {"best", "best seller", "cheapest", "free", "guaranteed", "FDA approved", "cure", "treatment"},
	"de_DE":         {"beste", "bestseller", "am billigsten", "kostenlos", "garantiert", "FDA-zugelassen", "Heilung"},
	"fr_FR":         {"meilleur", "best-seller", "moins cher", "gratuit", "garanti", "approuvé FDA", "guérison"},
	"it_IT":         {"migliore", "bestseller", "più economico", "gratuito", "garantito", "approvato FDA", "cura"},
	"es_ES":         {"mejor", "más vendido", "más barato", "gratis", "garantizado", "aprobado FDA", "cura"},
	"nl_NL":         {"beste", "bestseller", "goedkoopste", "gratis", "gegarandeerd", "FDA-goedgekeurd", "genezing"},
	"pl_PL":         {"najlepszy", "bestseller", "najtańszy", "darmowy", "gwarantowany", "zatwierdzony przez FDA", "leczyć"},
	"sv_SE":         {"bäst", "bästsäljare", "billigast", "gratis", "garanterad", "FDA-godkänd", "bota"},
}

// ProhibitedTerms returns a copy of the term lists keyed by locale.
func ProhibitedTerms() map[core.Locale][]string {
	out := make(map[core.Locale][]string, len(prohibitedTerms))
	for loc, terms := range prohibitedTerms {
		out[loc] = append([]string(nil), terms...)
	}
	return out
}
