package domains

import "github.com/JonMunkholm/catalogsync/internal/core"

// ComplianceStatuses are the accepted values of the compliance flag.
var ComplianceStatuses = []string{"Yes", "No", "Pending"}

// parties are the economic operators a compliant product may name.
var parties = []struct {
	key, label string
}{
	{"manufacturer", "Manufacturer"},
	{"importer", "Importer"},
	{"responsiblePerson", "Responsible Person"},
}

// safetyDocuments are the links to supporting documentation.
var safetyDocuments = []struct {
	key, label string
}{
	{"safetyLabelUrl", "Safety Label URL"},
	{"safetyInstructionsUrl", "Safety Instructions URL"},
	{"ceCertificateUrl", "CE Certificate URL"},
	{"testReportsUrl", "Test Reports URL"},
	{"riskAssessmentUrl", "Risk Assessment URL"},
	{"declarationUrl", "Declaration of Conformity URL"},
}

// Compliance returns the product safety compliance definition.
func Compliance() core.Definition {
	return core.Definition{
		Domain:      core.DomainCompliance,
		Label:       "Compliance",
		Description: "EU product safety contacts, warnings and documentation",
		Catalog:     core.MustCatalog(core.DomainCompliance, complianceSchema(), complianceRules()),
	}
}

func complianceSchema() core.Schema {
	fields := []core.FieldDef{
		text("compliant", "GPSR Compliant", "status"),
	}
	for _, p := range parties {
		fields = append(fields,
			text(p.key+"Name", p.label+" Name", "parties"),
			text(p.key+"Address", p.label+" Address", "parties"),
			text(p.key+"Email", p.label+" Email", "parties"),
			text(p.key+"Phone", p.label+" Phone", "parties"),
		)
	}
	fields = append(fields,
		localized("safetyWarning", "Safety Warning", "warnings"),
		localized("legalDisclaimer", "Legal Disclaimer", "warnings"),
	)
	for _, d := range safetyDocuments {
		fields = append(fields, text(d.key, d.label, "documents"))
	}

	return core.Schema{Identity: core.DefaultIdentityColumns, Fields: fields}
}

func complianceRules() []core.Rule {
	rules := []core.Rule{
		core.Required("compliant"),
		core.Pattern("compliant", `(?i)yes|no|pending`).WithMessage("must be Yes, No or Pending"),

		core.RequireAny("parties", "manufacturerName", "importerName", "responsiblePersonName").
			GatedOn("compliant", "Yes").
			WithMessage("a compliant product needs at least one named manufacturer, importer or responsible person"),

		core.MaxLength("safetyWarning", 1000),
		core.MaxLength("legalDisclaimer", 1000),
		core.Prohibited("safetyWarning", ProhibitedTerms()),
	}

	for _, p := range parties {
		rules = append(rules,
			core.Pattern(p.key+"Email", emailPattern).WithMessage("is not a valid email address"),
			core.Pattern(p.key+"Phone", `\+?[0-9 ()./-]{6,20}`).WithMessage("is not a valid phone number"),
			core.RequireAny(p.key+"Address", p.key+"Address").
				Gated(p.key+"Name").
				WithMessage("a named party needs a postal address"),
		)
	}

	docs := make([]string, 0, len(safetyDocuments))
	for _, d := range safetyDocuments {
		docs = append(docs, d.key)
		rules = append(rules, core.Pattern(d.key, urlPattern).WithMessage("must be an http(s) link"))
	}
	rules = append(rules,
		core.RequireAny("documents", docs...).
			GatedOn("compliant", "Yes").
			Soft().
			WithMessage("no safety documentation linked; recommended for compliance"),
	)

	return rules
}
