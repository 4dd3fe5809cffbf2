package airtable

import "encoding/json"

// Base is a single Airtable base along with the tables it contains,
// as returned by the metadata API.
type Base struct {
	ID     string  `json:"-"`
	Name   string  `json:"name"`
	Tables []Table `json:"tables"`
}

type Table struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	PrimaryFieldID string  `json:"primaryFieldId"`
	Fields         []Field `json:"fields"`
}

type Field struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Type    string        `json:"type"`
	Options *FieldOptions `json:"options,omitempty"`
}

// FieldOptions holds the type dependent metadata of a field. Only the
// parts that influence the generated declarations are decoded.
type FieldOptions struct {
	Choices     []Choice     `json:"choices,omitempty"`
	Result      *FieldResult `json:"result,omitempty"`
	NestedArray bool         `json:"nestedArray,omitempty"`
}

type Choice struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// FieldResult describes the value produced by a computed field
// (formula, rollup, multipleLookupValues).
type FieldResult struct {
	Type                   string          `json:"type"`
	Options                *FieldOptions   `json:"options,omitempty"`
	ValuesByLinkedRecordID json.RawMessage `json:"valuesByLinkedRecordId,omitempty"`
}

// ResultType returns the type tag of the computed result, if any.
func (f Field) ResultType() string {
	if f.Options == nil || f.Options.Result == nil {
		return ""
	}
	return f.Options.Result.Type
}

func (f Field) Choices() []Choice {
	if f.Options == nil {
		return nil
	}
	return f.Options.Choices
}

// TableNames lists the table names in the order the API returned them.
func (b *Base) TableNames() []string {
	l := make([]string, len(b.Tables))
	for i, t := range b.Tables {
		l[i] = t.Name
	}
	return l
}
