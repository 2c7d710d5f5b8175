package core

// codes.go is the reference of finding codes. When a seller quotes a code,
// look it up here for what triggered it and how to fix the row.
//
// # Identity (ID001-ID099)
//
//	ID001 - External ID malformed: must be "B" followed by 9 digits or capitals
//	ID002 - SKU missing: every row needs a seller SKU
//
// # Presence and format (REQ, PAT, LEN)
//
//	REQ001 - Required field is empty
//	PAT001 - Value does not match the expected format
//	PAT002 - Character not allowed in the field (unless the brand contains it)
//	LEN001 - Value exceeds the platform character limit (hard limit, never a warning)
//
// # Numbers and flags (NUM, BOOL)
//
//	NUM001 - Cell is not a number
//	NUM002 - Number outside the platform range (error)
//	NUM003 - Number outside the recommended range (warning)
//	BOOL001 - Cell is not a yes/no value
//
// # Catalog values (ENUM)
//
//	ENUM001 - Value is not in the known list (warning; may be a new category)
//
// # Content policy (TERM)
//
//	TERM001 - Prohibited term for the locale (always an error)
//
// # Dependencies (XF)
//
//	XF001 - Feature enabled but none of its required sub-fields is filled
//	XF002 - Value must be at least the value of a related field
//	XF003 - Feature disabled but its settings are still filled (note)
//
// # Style (STY, non-critical)
//
//	STY001 - Word repeated too often
//	STY002 - Shorter than the recommended length

// Finding codes.
const (
	CodeExternalIDFormat = "ID001"
	CodeSKUMissing       = "ID002"
	CodeRequired         = "REQ001"
	CodePattern          = "PAT001"
	CodeForbiddenChar    = "PAT002"
	CodeMaxLength        = "LEN001"
	CodeNotNumber        = "NUM001"
	CodeOutOfRange       = "NUM002"
	CodeOutOfRecommended = "NUM003"
	CodeNotBool          = "BOOL001"
	CodeUnknownEnum      = "ENUM001"
	CodeProhibitedTerm   = "TERM001"
	CodeDependency       = "XF001"
	CodeOrdering         = "XF002"
	CodeFeatureDisabled  = "XF003"
	CodeRepetition       = "STY001"
	CodeBelowRecommended = "STY002"
)

// remediations holds the default fix suggestion per code.
var remediations = map[string]string{
	CodeExternalIDFormat: "Use the 10-character identifier, e.g. B0ABCDE123",
	CodeSKUMissing:       "Enter the seller SKU for this row",
	CodeRequired:         "Fill in the field before exporting",
	CodePattern:          "Correct the value to the documented format",
	CodeForbiddenChar:    "Remove the character unless it is part of the brand name",
	CodeMaxLength:        "Shorten the text to fit the limit",
	CodeNotNumber:        "Enter a plain number without text",
	CodeOutOfRange:       "Enter a value inside the allowed range",
	CodeOutOfRecommended: "Consider a value inside the recommended range",
	CodeNotBool:          "Use yes/no, true/false or a checkbox",
	CodeUnknownEnum:      "Check the allowed values; new values may still be accepted",
	CodeProhibitedTerm:   "Remove the term; it is not allowed on the marketplace",
	CodeDependency:       "Fill in at least one of the listed fields or disable the feature",
	CodeOrdering:         "Adjust the values so the ordering holds",
	CodeFeatureDisabled:  "Enable the feature or clear its settings",
	CodeRepetition:       "Rephrase to avoid repeating the same word",
	CodeBelowRecommended: "Add detail to reach the recommended length",
}

// Remediation returns the default fix suggestion for a code.
func Remediation(code string) string {
	return remediations[code]
}
