package domains

import (
	"fmt"

	"github.com/JonMunkholm/catalogsync/internal/core"
)

// Videos is the number of video slots per product.
const Videos = 3

// VideoTypes are the video categories the marketplace recognizes.
var VideoTypes = []string{
	"Product Demo", "How-To / Tutorial", "Unboxing", "Customer Review", "360° View",
	"Lifestyle", "Comparison", "Installation Guide", "Features Overview", "Brand Story",
}

// VideoLanguages are the spoken languages accepted for video metadata.
var VideoLanguages = []string{
	"English", "German", "French", "Italian", "Spanish", "Dutch", "Polish", "Swedish",
}

// durationPattern accepts "m:ss", "h:mm:ss" or a whole number of seconds.
const durationPattern = `(\d+:)?\d{1,2}:\d{2}|\d+`

// Media returns the product video definition.
func Media() core.Definition {
	return core.Definition{
		Domain:      core.DomainMedia,
		Label:       "Media",
		Description: "Product videos with thumbnails and metadata",
		Catalog:     core.MustCatalog(core.DomainMedia, mediaSchema(), mediaRules()),
	}
}

func videoKey(i int, name string) string { return fmt.Sprintf("video%d%s", i, name) }

func mediaSchema() core.Schema {
	var fields []core.FieldDef
	for i := 1; i <= Videos; i++ {
		label := fmt.Sprintf("Video %d", i)
		group := fmt.Sprintf("video%d", i)
		fields = append(fields,
			text(videoKey(i, "Url"), label+" URL", group),
			text(videoKey(i, "Thumbnail"), label+" Thumbnail URL", group),
			text(videoKey(i, "Duration"), label+" Duration", group),
			text(videoKey(i, "Title"), label+" Title", group),
			text(videoKey(i, "Description"), label+" Description", group),
			text(videoKey(i, "Type"), label+" Type", group),
			text(videoKey(i, "Language"), label+" Language", group),
		)
	}
	fields = append(fields, flag("videosApproved", "Videos Approved", "review"))

	return core.Schema{Identity: core.DefaultIdentityColumns, Fields: fields}
}

func mediaRules() []core.Rule {
	rules := []core.Rule{
		core.Required(videoKey(1, "Url")),
	}

	for i := 1; i <= Videos; i++ {
		url := videoKey(i, "Url")
		rules = append(rules,
			core.Pattern(url, urlPattern).WithMessage("must be an http(s) link"),
			core.Pattern(videoKey(i, "Thumbnail"), imagePattern).WithMessage("must be an http(s) link to an image file"),
			core.Pattern(videoKey(i, "Duration"), durationPattern).WithMessage("must be m:ss, h:mm:ss or a number of seconds"),
			core.MaxLength(videoKey(i, "Title"), 100),
			core.MaxLength(videoKey(i, "Description"), 500),
			core.Prohibited(videoKey(i, "Title"), ProhibitedTerms()),
			core.Enum(videoKey(i, "Type"), VideoTypes...),
			core.Enum(videoKey(i, "Language"), VideoLanguages...),

			core.RequireAny(videoKey(i, "Thumbnail"), videoKey(i, "Thumbnail")).Soft().Gated(url).
				WithMessage("no thumbnail; the marketplace will pick a frame"),
			core.RequireAny(videoKey(i, "Metadata"), videoKey(i, "Title"), videoKey(i, "Description"), videoKey(i, "Type")).
				Soft().
				Gated(url).
				WithNote().
				WithMessage("describe the video with a title, description or type"),
		)
	}

	return rules
}
