package search

import (
	"strconv"
	"strings"

	"github.com/civisearch/govseek/internal/cache"
)

// Field weights for scoring: terms from title-like fields score triple,
// name-like fields double.
const (
	weightTitle = 3
	weightName  = 2
	weightBody  = 1
)

// docField is one searchable chunk of text extracted from a document
type docField struct {
	name   string
	text   string
	weight int
}

// extractFields pulls the category-specific searchable text out of a cached
// payload. Unknown shapes fall back to the generic full-tree walk.
func extractFields(category cache.Category, payload any) []docField {
	switch category {
	case cache.CategoryCrime:
		return recordFields(payload, crimeRecordFields)
	case cache.CategoryPlanning:
		return recordFields(payload, planningRecordFields)
	case cache.CategorySpending:
		return recordFields(payload, spendingRecordFields)
	default:
		return genericFields(payload)
	}
}

func crimeRecordFields(rec map[string]any) []docField {
	return []docField{
		{name: "category", text: stringAt(rec, "category"), weight: weightTitle},
		{name: "street", text: stringAt(rec, "location", "street", "name"), weight: weightName},
		{name: "location_type", text: stringAt(rec, "location_type"), weight: weightBody},
		{name: "outcome", text: stringAt(rec, "outcome_status", "category"), weight: weightBody},
		{name: "context", text: stringAt(rec, "context"), weight: weightBody},
	}
}

func planningRecordFields(rec map[string]any) []docField {
	return []docField{
		{name: "name", text: stringAt(rec, "name"), weight: weightTitle},
		{name: "type", text: stringAt(rec, "type"), weight: weightName},
		{name: "description", text: stringAt(rec, "description"), weight: weightBody},
		{name: "status", text: stringAt(rec, "status"), weight: weightBody},
	}
}

func spendingRecordFields(rec map[string]any) []docField {
	return []docField{
		{name: "supplier", text: stringAt(rec, "supplier"), weight: weightName},
		{name: "description", text: stringAt(rec, "description"), weight: weightBody},
		{name: "service_area", text: stringAt(rec, "service_area"), weight: weightBody},
		{name: "expense_type", text: stringAt(rec, "expense_type"), weight: weightBody},
	}
}

// recordFields applies a per-record extractor across a payload that is either
// a single record or an array of records. Non-record payloads fall back to
// the generic walk.
func recordFields(payload any, extract func(map[string]any) []docField) []docField {
	records := asRecords(payload)
	if len(records) == 0 {
		return genericFields(payload)
	}

	var fields []docField
	for _, rec := range records {
		for _, f := range extract(rec) {
			if f.text != "" {
				fields = append(fields, f)
			}
		}
	}
	return fields
}

// genericFields walks the whole payload tree and collects every string and
// stringified scalar as body text.
func genericFields(payload any) []docField {
	var parts []string
	collectStrings(payload, &parts)
	if len(parts) == 0 {
		return nil
	}
	return []docField{{name: "text", text: strings.Join(parts, " "), weight: weightBody}}
}

func collectStrings(v any, parts *[]string) {
	switch val := v.(type) {
	case string:
		if val != "" {
			*parts = append(*parts, val)
		}
	case float64:
		*parts = append(*parts, strconv.FormatFloat(val, 'f', -1, 64))
	case bool:
		*parts = append(*parts, strconv.FormatBool(val))
	case map[string]any:
		for _, child := range val {
			collectStrings(child, parts)
		}
	case []any:
		for _, child := range val {
			collectStrings(child, parts)
		}
	}
}

// asRecords normalizes a payload into a list of JSON objects
func asRecords(payload any) []map[string]any {
	switch val := payload.(type) {
	case map[string]any:
		return []map[string]any{val}
	case []any:
		records := make([]map[string]any, 0, len(val))
		for _, item := range val {
			if rec, ok := item.(map[string]any); ok {
				records = append(records, rec)
			}
		}
		return records
	default:
		return nil
	}
}

// stringAt walks nested objects along path and returns the string leaf, or ""
func stringAt(rec map[string]any, path ...string) string {
	current := any(rec)
	for _, name := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = m[name]
		if !ok {
			return ""
		}
	}
	s, _ := current.(string)
	return s
}
