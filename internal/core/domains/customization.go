package domains

import (
	"fmt"

	"github.com/JonMunkholm/catalogsync/internal/core"
)

// Customization option counts and recommendations.
const (
	TextOptions             = 3
	Surfaces                = 5
	RecommendedMaxChars     = 100
	RecommendedMaxFileMB    = 10
	RecommendedMaxLeadDays  = 30
	customizationPriceLimit = 10000
)

// Customization returns the personalization options definition.
func Customization() core.Definition {
	return core.Definition{
		Domain:      core.DomainCustomization,
		Label:       "Customization",
		Description: "Text engraving, surfaces, image upload and gift options",
		Catalog:     core.MustCatalog(core.DomainCustomization, customizationSchema(), customizationRules()),
	}
}

func textKey(i int, name string) string { return fmt.Sprintf("text%d%s", i, name) }

func surfaceKey(i int, name string) string { return fmt.Sprintf("surface%d%s", i, name) }

func customizationSchema() core.Schema {
	fields := []core.FieldDef{
		flag("enabled", "Customization Enabled", "general"),
		text("customizationType", "Customization Type", "general"),
		localized("instructions", "Customization Instructions", "general"),

		flag("textEnabled", "Text Customization Enabled", "text"),
	}
	for i := 1; i <= TextOptions; i++ {
		label := fmt.Sprintf("Text %d", i)
		fields = append(fields,
			flag(textKey(i, "Enabled"), label+" Enabled", "text"),
			text(textKey(i, "Label"), label+" Label", "text"),
			number(textKey(i, "MaxChars"), label+" Max Characters", "text"),
			text(textKey(i, "Placeholder"), label+" Placeholder", "text"),
			flag(textKey(i, "Required"), label+" Required", "text"),
			number(textKey(i, "Price"), label+" Price", "text"),
		)
	}

	fields = append(fields, flag("surfacesEnabled", "Surface Customization Enabled", "surfaces"))
	for i := 1; i <= Surfaces; i++ {
		label := fmt.Sprintf("Surface %d", i)
		fields = append(fields,
			text(surfaceKey(i, "Name"), label+" Name", "surfaces"),
			flag(surfaceKey(i, "Enabled"), label+" Enabled", "surfaces"),
			number(surfaceKey(i, "Price"), label+" Price", "surfaces"),
		)
	}

	fields = append(fields,
		flag("imageUploadEnabled", "Image Upload Enabled", "imageUpload"),
		number("imageMinWidth", "Image Min Width (px)", "imageUpload"),
		number("imageMinHeight", "Image Min Height (px)", "imageUpload"),
		number("imageMaxFileSize", "Image Max File Size (MB)", "imageUpload"),
		text("imageAllowedFormats", "Image Allowed Formats", "imageUpload"),
		number("imagePrice", "Image Upload Price", "imageUpload"),

		number("customizationFee", "Customization Fee", "pricing"),
		number("maxCustomizationPrice", "Max Customization Price", "pricing"),
		number("processingTime", "Processing Time (days)", "pricing"),

		flag("giftMessageEnabled", "Gift Message Enabled", "gifting"),
		number("giftMessagePrice", "Gift Message Price", "gifting"),
		flag("giftWrapEnabled", "Gift Wrap Enabled", "gifting"),
		number("giftWrapPrice", "Gift Wrap Price", "gifting"),

		text("previewImageUrl", "Preview Image URL", "preview"),
	)

	return core.Schema{Identity: core.DefaultIdentityColumns, Fields: fields}
}

func customizationRules() []core.Rule {
	rules := []core.Rule{
		core.RequireAny("enabled", "textEnabled", "surfacesEnabled", "imageUploadEnabled").
			Gated("enabled").
			WithMessage("customization is enabled but no text, surface or image option is"),
		core.MaxLength("instructions", 500),

		core.RequireAny("surfacesEnabled", surfaceKey(1, "Enabled"), surfaceKey(2, "Enabled"), surfaceKey(3, "Enabled"), surfaceKey(4, "Enabled"), surfaceKey(5, "Enabled")).
			Gated("surfacesEnabled").
			WithMessage("surface customization is enabled but no surface is"),

		core.Range("imageMinWidth", 1, 20000).Gated("imageUploadEnabled").WithNote(),
		core.Range("imageMinHeight", 1, 20000).Gated("imageUploadEnabled").WithNote(),
		core.Range("imageMaxFileSize", 0.01, 1000).Gated("imageUploadEnabled").WithNote(),
		core.Range("imageMaxFileSize", 0, RecommendedMaxFileMB).Soft().Gated("imageUploadEnabled"),
		core.RequireAny("imageAllowedFormats", "imageAllowedFormats").Soft().Gated("imageUploadEnabled").
			WithMessage("no allowed formats listed; JPEG and PNG are assumed"),
		core.Range("imagePrice", 0, customizationPriceLimit).Gated("imageUploadEnabled"),

		core.Range("customizationFee", 0, customizationPriceLimit),
		core.Range("maxCustomizationPrice", 0, customizationPriceLimit),
		core.AtLeast("maxCustomizationPrice", "customizationFee"),
		core.Range("processingTime", 0, 365),
		core.Range("processingTime", 0, RecommendedMaxLeadDays).Soft(),

		core.Range("giftMessagePrice", 0, customizationPriceLimit).Gated("giftMessageEnabled").WithNote(),
		core.Range("giftWrapPrice", 0, customizationPriceLimit).Gated("giftWrapEnabled").WithNote(),

		core.Pattern("previewImageUrl", imagePattern).WithMessage("must be an http(s) link to an image file"),
	}

	for i := 1; i <= TextOptions; i++ {
		enabled := textKey(i, "Enabled")
		rules = append(rules,
			core.Required(textKey(i, "Label")).Gated(enabled),
			core.Required(textKey(i, "MaxChars")).Gated(enabled),
			core.MaxLength(textKey(i, "Label"), 100),
			core.MaxLength(textKey(i, "Placeholder"), 100),
			core.Range(textKey(i, "MaxChars"), 1, 1000).Gated(enabled).WithNote(),
			core.Range(textKey(i, "MaxChars"), 1, RecommendedMaxChars).Soft().Gated(enabled),
			core.Range(textKey(i, "Price"), 0, customizationPriceLimit).Gated(enabled).WithNote(),
		)
	}
	rules = append(rules,
		core.RequireAny("textEnabled", textKey(1, "Enabled"), textKey(2, "Enabled"), textKey(3, "Enabled")).
			Gated("textEnabled").
			WithMessage("text customization is enabled but no text option is"),
	)

	for i := 1; i <= Surfaces; i++ {
		enabled := surfaceKey(i, "Enabled")
		rules = append(rules,
			core.Required(surfaceKey(i, "Name")).Gated(enabled),
			core.MaxLength(surfaceKey(i, "Name"), 50),
			core.Range(surfaceKey(i, "Price"), 0, customizationPriceLimit).Gated(enabled).WithNote(),
		)
	}

	return rules
}
