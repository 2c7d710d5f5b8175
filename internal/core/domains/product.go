package domains

import (
	"fmt"

	"github.com/JonMunkholm/catalogsync/internal/core"
)

// Core product limits.
const (
	TitleMaxLength       = 200
	TitleMinLength       = 50
	TitleMaxWordRepeats  = 2
	BulletCount          = 5
	BulletMaxLength      = 500
	DescriptionMaxLength = 2000
	KeywordsMaxLength    = 250
	BrandMaxLength       = 50
	AdditionalImages     = 8
)

// ProductTypes are the listing types the sheet offers.
var ProductTypes = []string{
	"PRODUCT", "BOOK", "CLOTHING", "SHOES", "BEAUTY", "HOME",
	"KITCHEN", "ELECTRONICS", "TOYS", "SPORTS", "AUTOMOTIVE",
}

// titleCharacters are symbols the marketplace strips from titles.
const titleCharacters = "!$?_{}^¬¦"

// CoreProduct returns the core product definition.
func CoreProduct() core.Definition {
	return core.Definition{
		Domain:      core.DomainCoreProduct,
		Label:       "Core product",
		Description: "Titles, bullets, descriptions, images, dimensions and pricing",
		Catalog:     core.MustCatalog(core.DomainCoreProduct, productSchema(), productRules()),
	}
}

func bulletKey(i int) string { return fmt.Sprintf("bullet%d", i) }

func imageKey(i int) string { return fmt.Sprintf("additionalImage%dUrl", i) }

func productSchema() core.Schema {
	fields := []core.FieldDef{
		text("productType", "Product Type", "productInfo"),
		text("parentSku", "Parent SKU", "productInfo"),
		text("ean", "EAN", "productInfo"),
		text("upc", "UPC", "productInfo"),
		text("modelNumber", "Model Number", "productInfo"),

		localized("title", "Title", "title"),
		localized("brand", "Brand", "brand"),
	}
	for i := 1; i <= BulletCount; i++ {
		fields = append(fields, localized(bulletKey(i), fmt.Sprintf("Bullet Point %d", i), "bulletPoints"))
	}
	fields = append(fields,
		localized("description", "Description", "description"),
		localized("keywords", "Search Keywords", "keywords"),

		number("itemLength", "Item Length (cm)", "dimensions"),
		number("itemWidth", "Item Width (cm)", "dimensions"),
		number("itemHeight", "Item Height (cm)", "dimensions"),
		number("itemWeight", "Item Weight (kg)", "dimensions"),
		number("packageQuantity", "Package Quantity", "dimensions"),

		text("mainImageUrl", "Main Image URL", "images"),
	)
	for i := 1; i <= AdditionalImages; i++ {
		fields = append(fields, text(imageKey(i), fmt.Sprintf("Additional Image %d URL", i), "images"))
	}
	fields = append(fields,
		number("price", "Price", "pricing"),
		number("listPrice", "List Price", "pricing"),
		number("quantity", "Quantity", "pricing"),
	)

	return core.Schema{Identity: core.DefaultIdentityColumns, Fields: fields}
}

func productRules() []core.Rule {
	terms := ProhibitedTerms()

	rules := []core.Rule{
		core.Required("productType"),
		core.Enum("productType", ProductTypes...),
		core.Pattern("ean", `\d{13}`).WithMessage("EAN must be 13 digits"),
		core.Pattern("upc", `\d{12}`).WithMessage("UPC must be 12 digits"),

		core.Required("title"),
		core.MaxLength("title", TitleMaxLength),
		core.MinLength("title", TitleMinLength),
		core.ForbiddenChars("title", titleCharacters).Except("brand"),
		core.Repetition("title", TitleMaxWordRepeats),
		core.Prohibited("title", terms),

		core.Required("brand"),
		core.MaxLength("brand", BrandMaxLength),

		core.MaxLength("description", DescriptionMaxLength),
		core.Prohibited("description", terms),
		core.MaxLength("keywords", KeywordsMaxLength),

		core.Required("mainImageUrl"),
		core.Pattern("mainImageUrl", imagePattern).WithMessage("must be an http(s) link to a JPEG, PNG, GIF, WEBP or TIFF image"),

		core.Range("itemLength", 0, 10000),
		core.Range("itemWidth", 0, 10000),
		core.Range("itemHeight", 0, 10000),
		core.Range("itemWeight", 0, 10000),
		core.Range("packageQuantity", 1, 10000),

		core.Range("price", 0.01, 1000000),
		core.Range("listPrice", 0.01, 1000000),
		core.AtLeast("listPrice", "price"),
		core.Range("quantity", 0, 1000000),
	}

	for i := 1; i <= BulletCount; i++ {
		rules = append(rules,
			core.MaxLength(bulletKey(i), BulletMaxLength),
			core.Prohibited(bulletKey(i), terms),
		)
	}
	for i := 1; i <= AdditionalImages; i++ {
		rules = append(rules, core.Pattern(imageKey(i), imagePattern).WithMessage("must be an http(s) link to an image file"))
	}

	return rules
}
