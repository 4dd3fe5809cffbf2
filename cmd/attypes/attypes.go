package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
	"github.com/jessevdk/go-flags"
	"github.com/lestrrat-go/attypes"
	"github.com/lestrrat-go/attypes/airtable"
	"github.com/lestrrat-go/attypes/config"
	"github.com/lestrrat-go/attypes/dts"
	"github.com/lestrrat-go/attypes/internal/log"
	"github.com/pkg/errors"
)

const defaultOutputDir = "./types"

func main() {
	os.Exit(_main())
}

type options struct {
	Config         string `short:"c" long:"config" default:"at-types.config.json" description:"configuration file"`
	Verbose        bool   `short:"v" long:"verbose" description:"print debug messages"`
	Parallel       int    `long:"parallel" default:"1" description:"number of bases to process at the same time"`
	RequirePrimary bool   `long:"require-primary" description:"do not mark the primary field of each table as optional"`

	ctx      context.Context `no-flag:"yes"`
	endpoint string          `no-flag:"yes"`
	stdout   io.Writer       `no-flag:"yes"`
	stderr   io.Writer       `no-flag:"yes"`
}

type outputArgs struct {
	OutputDir string `positional-arg-name:"OUTPUT_DIR" description:"directory to write the declaration files to (default: ./types)"`
}

func (a outputArgs) dir() string {
	if a.OutputDir == "" {
		return defaultOutputDir
	}
	return a.OutputDir
}

type generateCommand struct {
	opts *options   `no-flag:"yes"`
	Args outputArgs `positional-args:"yes"`
}

type baseCommand struct {
	opts   *options   `no-flag:"yes"`
	BaseID string     `short:"b" long:"base-id" description:"base to process instead of AIRTABLE_BASE_ID"`
	Args   outputArgs `positional-args:"yes"`
}

type setupCommand struct {
	opts *options `no-flag:"yes"`
}

func _main() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr, airtable.DefaultEndpoint)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, endpoint string) int {
	opts := options{
		ctx:      ctx,
		endpoint: endpoint,
		stdout:   stdout,
		stderr:   stderr,
	}

	p := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	p.SubcommandsOptional = true
	p.Usage = "[OPTIONS] [OUTPUT_DIR | <command>]"
	p.AddCommand("generate", "Generate types for every configured base",
		"Generate one declaration file per base listed in AIRTABLE_BASE_IDS", &generateCommand{opts: &opts})
	p.AddCommand("base", "Generate types for a single base",
		"Generate the declaration file of the base in AIRTABLE_BASE_ID", &baseCommand{opts: &opts})
	p.AddCommand("setup", "Create a configuration file",
		"Create at-types.config.json with placeholder values and exit", &setupCommand{opts: &opts})

	rest, err := p.ParseArgs(args)
	if err == nil && p.Active == nil {
		// no command given: behave like `generate [OUTPUT_DIR]`
		err = opts.generateDefault(rest)
	}
	if err != nil {
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, ferr.Message)
			return 0
		}
		color.New(color.FgRed).Fprintf(stderr, "[x] Error generating Airtable types: %s\n", err)
		return 1
	}
	return 0
}

func (o *options) generateDefault(rest []string) error {
	var a outputArgs
	switch len(rest) {
	case 0:
	case 1:
		a.OutputDir = rest[0]
	default:
		return errors.Errorf("too many arguments: %s", strings.Join(rest, " "))
	}
	return o.generate(a.dir(), (*config.Config).BaseIDList)
}

func (o *options) configPath() (string, error) {
	return filepath.Abs(o.Config)
}

func (o *options) newLogger() (logr.Logger, func() error) {
	return log.New("attypes", o.stderr, o.Verbose)
}

func (o *options) generate(dir string, ids func(*config.Config) ([]string, error)) error {
	logger, flush := o.newLogger()
	defer flush()

	path, err := o.configPath()
	if err != nil {
		return err
	}
	logger.V(1).Info("loading config", "path", path)
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	baseIDs, err := ids(cfg)
	if err != nil {
		return err
	}

	client := airtable.New(cfg.Token)
	client.Endpoint = o.endpoint
	client.Logger = logger.WithName("airtable")

	b := dts.New()
	b.Dir = dir
	b.Logger = logger.WithName("dts")
	b.RequirePrimary = o.RequirePrimary

	g := attypes.New(client, b)
	g.Logger = logger
	g.Concurrency = o.Parallel

	logger.Info("generating types", "dir", dir, "bases", len(baseIDs))
	if err := g.Run(o.ctx, baseIDs); err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintln(o.stdout, "Airtable types generated successfully!")
	return nil
}

func (c *generateCommand) Execute(_ []string) error {
	return c.opts.generate(c.Args.dir(), (*config.Config).BaseIDList)
}

func (c *baseCommand) Execute(_ []string) error {
	return c.opts.generate(c.Args.dir(), func(cfg *config.Config) ([]string, error) {
		if c.BaseID != "" {
			return []string{c.BaseID}, nil
		}
		id, err := cfg.SingleBaseID()
		if err != nil {
			return nil, err
		}
		return []string{id}, nil
	})
}

func (c *setupCommand) Execute(_ []string) error {
	path, err := c.opts.configPath()
	if err != nil {
		return err
	}

	created, err := config.Setup(path)
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintln(c.opts.stdout, "Configuration file already exists. Skipping creation.")
		return nil
	}
	color.New(color.FgGreen).Fprintf(c.opts.stdout, "Configuration file created at %s. Please open and update it with your Airtable credentials.\n", path)
	return nil
}
