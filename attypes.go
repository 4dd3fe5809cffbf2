// Package attypes generates TypeScript declarations from the schema of
// Airtable bases.
//
//	g := attypes.New(airtable.New(token), dts.New())
//	err := g.Run(ctx, []string{"appXXXXXXXXXXXXXX"})
package attypes

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/lestrrat-go/attypes/airtable"
	"github.com/lestrrat-go/pdebug"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves the schema of a single base.
type Fetcher interface {
	FetchTables(context.Context, string) (*airtable.Base, error)
}

// Processor turns a fetched base into generated files.
type Processor interface {
	Process(*airtable.Base) error
}

type Generator struct {
	Fetcher   Fetcher
	Processor Processor
	Logger    logr.Logger

	// Concurrency is the number of bases handled at the same time.
	// Values below 2 process bases one after the other.
	Concurrency int
}

func New(f Fetcher, p Processor) *Generator {
	return &Generator{
		Fetcher:     f,
		Processor:   p,
		Concurrency: 1,
	}
}

// Run generates the declarations of every base. It stops at the first
// failure; files written for bases handled before it are kept.
func (g *Generator) Run(ctx context.Context, baseIDs []string) (err error) {
	if pdebug.Enabled {
		mg := pdebug.Marker("attypes.Run").BindError(&err)
		defer mg.End()
	}

	limit := g.Concurrency
	if limit < 1 {
		limit = 1
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for _, baseID := range baseIDs {
		baseID := baseID
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return g.generate(ctx, baseID)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	g.Logger.Info("type generation complete", "bases", len(baseIDs))
	return nil
}

func (g *Generator) generate(ctx context.Context, baseID string) error {
	log := g.Logger.WithValues("base", baseID)

	log.Info("fetching schema")
	base, err := g.Fetcher.FetchTables(ctx, baseID)
	if err != nil {
		return err
	}

	log.Info("generating types", "name", base.Name, "tables", len(base.Tables))
	for _, t := range base.Tables {
		log.V(1).Info("processing table", "table", t.Name, "fields", len(t.Fields))
	}
	if err := g.Processor.Process(base); err != nil {
		return errors.Wrapf(err, "failed to generate types for base %s", baseID)
	}
	return nil
}
