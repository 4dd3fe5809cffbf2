// Package typemap maps Airtable field types to TypeScript type expressions.
package typemap

import (
	"strings"

	"github.com/lestrrat-go/attypes/airtable"
	"github.com/lestrrat-go/attypes/internal/genutil"
)

// Any is used for every field type that cannot be resolved.
const Any = "any"

var types = map[string]string{
	"singleLineText":        "string",
	"email":                 "string",
	"url":                   "string",
	"multilineText":         "string",
	"number":                "number",
	"percent":               "number",
	"currency":              "number",
	"singleSelect":          "string",
	"multipleSelects":       "string[]",
	"singleCollaborator":    "string",
	"multipleCollaborators": "string[]",
	"multipleRecordLinks":   "string[]",
	"date":                  "string",
	"dateTime":              "string",
	"phoneNumber":           "string",
	"multipleAttachments":   "Attachment[]",
	"checkbox":              "boolean",
	"formula":               "string",
	"createdTime":           "string",
	"rollup":                "any",
	"count":                 "number",
	"lookup":                "any",
	"multipleLookupValues":  "any[]",
	"autoNumber":            "number",
	"barcode":               "string",
	"rating":                "number",
	"richText":              "string",
	"duration":              "string",
	"lastModifiedTime":      "string",
	"button":                "string",
	"createdBy":             "string",
	"lastModifiedBy":        "string",
	"externalSyncSource":    "string",
	"aiText":                "string",
}

// Lookup returns the type expression registered for a field type tag.
func Lookup(tag string) (string, bool) {
	t, ok := types[tag]
	return t, ok
}

// Tags returns the number of known field type tags.
func Tags() int {
	return len(types)
}

func lookupOrAny(tag string) string {
	if t, ok := types[tag]; ok {
		return t
	}
	return Any
}

// Map returns the TypeScript type for the given field. It never fails:
// unknown field types become `any`.
func Map(f airtable.Field) string {
	switch f.Type {
	case "singleSelect":
		if choices := f.Choices(); len(choices) > 0 {
			return union(choices)
		}
	case "multipleSelects":
		if choices := f.Choices(); len(choices) > 0 {
			return "(" + union(choices) + ")[]"
		}
	case "formula":
		if rt := f.ResultType(); rt != "" {
			return lookupOrAny(rt)
		}
	case "rollup", "multipleLookupValues":
		return computed(f) + "[]"
	}
	return lookupOrAny(f.Type)
}

// computed resolves the result type of a rollup or lookup field. Nested
// results add a single level of array notation, no more.
func computed(f airtable.Field) string {
	t := Any
	if rt := f.ResultType(); rt != "" {
		t = lookupOrAny(rt)
	}
	if nestedArray(f) {
		t += "[]"
	}
	return t
}

func nestedArray(f airtable.Field) bool {
	if f.Options == nil || f.Options.Result == nil {
		return false
	}
	r := f.Options.Result
	switch f.Type {
	case "multipleLookupValues":
		v := strings.TrimSpace(string(r.ValuesByLinkedRecordID))
		return strings.HasPrefix(v, "[")
	case "rollup":
		return r.Options != nil && r.Options.NestedArray
	}
	return false
}

func union(choices []airtable.Choice) string {
	l := make([]string, len(choices))
	for i, c := range choices {
		l[i] = genutil.Quote(c.Name)
	}
	return strings.Join(l, " | ")
}

// Options returns the option names of a select field, in API order.
func Options(f airtable.Field) []string {
	switch f.Type {
	case "singleSelect", "multipleSelects":
	default:
		return nil
	}
	choices := f.Choices()
	l := make([]string, len(choices))
	for i, c := range choices {
		l[i] = c.Name
	}
	return l
}
