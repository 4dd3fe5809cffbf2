// Package dts renders Airtable base schemas as TypeScript declaration
// files.
package dts

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"
	"github.com/lestrrat-go/attypes/airtable"
	"github.com/lestrrat-go/attypes/internal/genutil"
	"github.com/lestrrat-go/attypes/internal/parser"
	"github.com/lestrrat-go/pdebug"
	"github.com/pkg/errors"
)

const (
	FilePrefix     = "Airtable"
	FileSuffix     = ".d.ts"
	AttachmentFile = "Airtable-Filetypes"
	timestampFmt   = "02/01/2006, 15:04:05"
)

var paris = mustLoadLocation("Europe/Paris")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

type Builder struct {
	Dir            string
	Logger         logr.Logger
	Now            func() time.Time
	RequirePrimary bool

	attachmentMu sync.Mutex
}

type genctx struct {
	*parser.Result
	Dir       string
	Logger    logr.Logger
	Now       time.Time
	Overwrite bool
}

func New() *Builder {
	return &Builder{
		Dir: "types",
		Now: time.Now,
	}
}

// Filename returns the name of the declaration file generated for a base.
func Filename(baseID string) string {
	return FilePrefix + "-" + baseID + FileSuffix
}

func (b *Builder) Process(base *airtable.Base) (err error) {
	if pdebug.Enabled {
		g := pdebug.Marker("dts.Process").BindError(&err)
		defer g.End()
	}

	pres, err := parser.Parse(base, parser.Options{RequirePrimary: b.RequirePrimary})
	if err != nil {
		return err
	}

	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	ctx := genctx{
		Result: pres,
		Dir:    b.Dir,
		Logger: b.Logger.WithValues("base", base.ID),
		Now:    now(),
	}

	b.attachmentMu.Lock()
	defer b.attachmentMu.Unlock()
	return generateFiles(&ctx)
}

func generateFile(ctx *genctx, fn string, cb func(io.Writer, *genctx) error) error {
	if _, err := os.Stat(fn); err == nil {
		if !ctx.Overwrite {
			ctx.Logger.V(1).Info("file already exists, skipping", "path", fn)
			return nil
		}
		ctx.Logger.V(1).Info("file already exists, overwriting", "path", fn)
	}

	buf := bytes.Buffer{}
	if err := cb(&buf, ctx); err != nil {
		return err
	}

	ctx.Logger.Info("writing types", "path", fn, "size", humanize.Bytes(uint64(buf.Len())))
	f, err := genutil.CreateFile(fn)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", fn)
	}
	defer f.Close()

	if _, err := buf.WriteTo(f); err != nil {
		return errors.Wrapf(err, "failed to write %s", fn)
	}
	return errors.Wrapf(f.Sync(), "failed to sync %s", fn)
}

func generateFiles(ctx *genctx) error {
	{
		ctx.Overwrite = false
		fn := filepath.Join(ctx.Dir, AttachmentFile+FileSuffix)
		if err := generateFile(ctx, fn, generateAttachmentCode); err != nil {
			return err
		}
	}

	{
		ctx.Overwrite = true
		fn := filepath.Join(ctx.Dir, Filename(ctx.BaseID))
		if err := generateFile(ctx, fn, generateDeclarations); err != nil {
			return err
		}
	}

	return nil
}

func generateDeclarations(out io.Writer, ctx *genctx) error {
	return Render(out, ctx.Result, ctx.Now)
}

// Timestamp formats t the way it appears in the header of generated
// files: Paris local time, day first.
func Timestamp(t time.Time) string {
	return t.In(paris).Format(timestampFmt)
}

// Render writes the declarations of a parsed base. Apart from the
// timestamp line the output only depends on res.
func Render(out io.Writer, res *parser.Result, now time.Time) error {
	buf := bytes.Buffer{}

	fmt.Fprintf(&buf, "// Base ID: %s\n", res.BaseID)
	fmt.Fprintf(&buf, "// List of Tables: %s\n\n", strings.Join(res.TableNames, ", "))
	fmt.Fprintf(&buf, "// This types file was generated automatically by the Airtable Types Generator on %s, Paris time\n\n", Timestamp(now))
	buf.WriteString("// Imported Types\n")
	if err := genutil.WriteImports(&buf, "./"+AttachmentFile, "Attachment"); err != nil {
		return err
	}

	for _, iface := range res.Interfaces {
		fmt.Fprintf(&buf, "export interface %s {\n", iface.Name)
		for _, p := range iface.Properties {
			buf.WriteString("  ")
			buf.WriteString(p.Name)
			if p.Optional {
				buf.WriteRune('?')
			}
			fmt.Fprintf(&buf, ": %s; // %s\n", p.Type, p.Comment)
		}
		buf.WriteString("}\n\n")
	}

	_, err := buf.WriteTo(out)
	return err
}

const attachmentCode = `export interface Attachment {
  id: string;
  url: string;
  filename: string;
  size: number;
  type: string; // e.g., 'image/jpeg', 'application/pdf'
  width?: number; // only for images
  height?: number; // only for images
  thumbnails?: { [key: string]: { url: string; width: number; height: number } };
}
`

func generateAttachmentCode(out io.Writer, _ *genctx) error {
	_, err := io.WriteString(out, attachmentCode)
	return err
}
