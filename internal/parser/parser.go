package parser

import (
	"strings"

	"github.com/lestrrat-go/attypes/airtable"
	"github.com/lestrrat-go/attypes/internal/genutil"
	"github.com/lestrrat-go/attypes/internal/typemap"
	"github.com/pkg/errors"
)

type Result struct {
	BaseID     string
	BaseName   string
	TableNames []string
	Interfaces []Interface
}

// Interface is the declaration generated for a single table.
type Interface struct {
	Name       string
	Table      string
	Properties []Property
}

type Property struct {
	Name     string
	Optional bool
	Type     string
	Comment  string
}

type Options struct {
	// RequirePrimary leaves the primary field of each table non-optional.
	// By default every property is declared optional.
	RequirePrimary bool
}

func Parse(b *airtable.Base, opts Options) (*Result, error) {
	if b == nil {
		return nil, errors.New("failed to parse Airtable schema: base is nil")
	}

	ctx := Result{
		BaseID:     b.ID,
		BaseName:   b.Name,
		TableNames: b.TableNames(),
		Interfaces: make([]Interface, len(b.Tables)),
	}

	if err := parse(&ctx, b, opts); err != nil {
		return nil, errors.Wrap(err, "failed to parse Airtable schema")
	}
	return &ctx, nil
}

func parse(ctx *Result, b *airtable.Base, opts Options) error {
	for i, table := range b.Tables {
		if table.Fields == nil {
			return errors.Errorf("table %q has no field list", table.Name)
		}

		iface := Interface{
			Name:       genutil.SanitizeName(table.Name),
			Table:      table.Name,
			Properties: make([]Property, len(table.Fields)),
		}
		for j, field := range table.Fields {
			iface.Properties[j] = Property{
				Name:     genutil.PropertyName(field.Name),
				Optional: !opts.RequirePrimary || field.ID != table.PrimaryFieldID,
				Type:     typemap.Map(field),
				Comment:  comment(field),
			}
		}
		ctx.Interfaces[i] = iface
	}
	return nil
}

func comment(f airtable.Field) string {
	c := f.Type
	if options := typemap.Options(f); len(options) > 0 {
		c += " (Options: " + strings.Join(options, ", ") + ")"
	}
	return c
}
