package core

// extract.go turns a raw sheet row into a typed Record.
//
// Extraction is a pure function of (row, header index, mode, selection):
//   - Identity columns and the export flag are always read.
//   - A field is included iff (no selection OR its group is selected)
//     AND (mode is FULL OR its cell is non-empty).
//   - Localized fields are read for every locale; in PARTIAL mode a locale
//     that contributes no value is omitted entirely.
//   - Unparseable numbers and flags are kept as raw text and reported as
//     error findings, never as a silent zero.

import "strings"

// ExtractOptions controls which fields reach the record.
type ExtractOptions struct {
	Mode   UpdateMode
	Groups []string // nil extracts every group; an empty non-nil slice extracts none
}

// Extract builds a Record from one row.
func Extract(domain Domain, schema Schema, row []string, idx HeaderIndex, rowIndex int, opts ExtractOptions) *Record {
	rec := &Record{
		Domain:    domain,
		RowIndex:  rowIndex,
		Localized: make(map[Locale]map[string]string),
		Payload:   make(map[string]Value),
	}
	if opts.Groups != nil {
		rec.groups = append([]string{}, opts.Groups...)
	}

	rec.Identity.ExternalID, _ = idx.Cell(row, schema.Identity.ExternalID)
	rec.Identity.ExternalID = strings.ToUpper(rec.Identity.ExternalID)
	rec.Identity.SKU, _ = idx.Cell(row, schema.Identity.SKU)
	rec.IdentityValid = ExternalIDPattern.MatchString(rec.Identity.ExternalID) && rec.Identity.SKU != ""

	if flag, ok := idx.Cell(row, schema.Identity.Export); ok {
		rec.ExportRequested, _ = ParseBool(flag)
	}

	full := opts.Mode == ModeFull

	for _, f := range schema.Fields {
		if !rec.GroupSelected(f.Group) {
			continue
		}

		if f.Localized {
			for _, loc := range Locales {
				raw, _ := idx.Cell(row, LocalizedHeader(f.Header, loc))
				if raw == "" && !full {
					continue
				}
				if rec.Localized[loc] == nil {
					rec.Localized[loc] = make(map[string]string)
				}
				rec.Localized[loc][f.Key] = raw
			}
			continue
		}

		raw, _ := idx.Cell(row, f.Header)
		if raw == "" && !full {
			continue
		}
		rec.Payload[f.Key] = rec.parseValue(f, raw)
	}

	return rec
}

// parseValue converts a cell to its declared kind, recording parse failures.
func (r *Record) parseValue(f FieldDef, raw string) Value {
	v := Value{Raw: raw, Kind: f.Kind, Valid: true}
	if raw == "" {
		return v
	}

	switch f.Kind {
	case KindNumber:
		n, ok := ParseNumber(raw)
		if !ok {
			v.Valid = false
			r.extracted = append(r.extracted, notNumber(f.Key, raw))
			return v
		}
		v.Num = n
	case KindBool:
		b, ok := ParseBool(raw)
		if !ok {
			v.Valid = false
			r.extracted = append(r.extracted, notBool(f.Key, raw))
			return v
		}
		v.Bool = b
	}
	return v
}

// ExtractRows extracts every non-empty data row. firstRow is the sheet row
// number of rows[0] and is carried as the record's back-reference.
func ExtractRows(domain Domain, schema Schema, rows [][]string, idx HeaderIndex, firstRow int, opts ExtractOptions) []*Record {
	records := make([]*Record, 0, len(rows))
	for i, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		records = append(records, Extract(domain, schema, row, idx, firstRow+i, opts))
	}
	return records
}

// isEmptyRow returns true if all cells in the row are empty or whitespace.
func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
