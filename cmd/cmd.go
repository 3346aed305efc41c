// Package cmd implements the treeline command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	logging "github.com/ipfs/go-log/v2"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/rubiojr/treeline/ast"
	"github.com/rubiojr/treeline/compiler"
	"github.com/rubiojr/treeline/config"
	"github.com/rubiojr/treeline/report"
)

// Execute runs the treeline CLI with the given version string.
func Execute(version string) {
	if err := Run(context.Background(), os.Args, os.Stdout, os.Stderr, version); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
		os.Exit(1)
	}
}

// app carries state resolved by the global flags.
type app struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
	color  bool
}

// Run parses args and runs the selected command, writing to stdout and
// stderr.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer, version string) error {
	a := &app{stdout: stdout, stderr: stderr}
	formatFlag := &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, json, yaml or msgpack",
		Value:   string(report.Text),
	}
	cmd := &cli.Command{
		Name:                   "treeline",
		Usage:                  "Expand indentation-structured sources and report symbol usage",
		Version:                version,
		UseShortOptionHandling: true,
		Writer:                 stdout,
		ErrWriter:              stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to treeline.toml (default: nearest one above the working directory)",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Load environment variables from these files",
				Value: []string{".env"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log pipeline activity to stderr",
			},
			&cli.BoolFlag{
				Name:    "no-color",
				Aliases: []string{"C"},
				Usage:   "Disable ANSI color output",
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			{
				Name:      "expand",
				Usage:     "Expand source files",
				ArgsUsage: "<file.tl|dir>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write each result into this directory instead of stdout",
					},
					&cli.IntFlag{
						Name:    "jobs",
						Aliases: []string{"j"},
						Usage:   "Files expanded in parallel",
						Value:   1,
					},
				},
				Action: a.expandAction,
			},
			{
				Name:      "tree",
				Usage:     "Dump the line tree of a source file",
				ArgsUsage: "<file.tl>",
				Flags:     []cli.Flag{formatFlag},
				Action:    a.treeAction,
			},
			{
				Name:      "symbols",
				Usage:     "Report symbol usage of a serialized expression tree",
				ArgsUsage: "<ast.json|ast.yaml>",
				Flags: []cli.Flag{
					formatFlag,
					&cli.BoolFlag{
						Name:    "imports",
						Aliases: []string{"i"},
						Usage:   "Synthesize import lines for missing names",
					},
				},
				Action: a.symbolsAction,
			},
		},
	}
	return cmd.Run(ctx, args)
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	for _, f := range cmd.StringSlice("env-file") {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return ctx, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	if cmd.Bool("verbose") {
		if err := logging.SetLogLevelRegex("treeline/.*", "debug"); err != nil {
			return ctx, err
		}
	}

	a.color = !cmd.Bool("no-color") && os.Getenv("NO_COLOR") == "" && isTerminal(a.stdout)
	if !a.color {
		color.NoColor = true
	}

	var err error
	if path := cmd.String("config"); path != "" {
		a.cfg, err = config.Load(path)
	} else {
		a.cfg, err = config.Discover(".")
	}
	return ctx, err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) expandAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: treeline expand [-o dir] [-j N] <file.tl|dir>...")
	}
	comp, err := compiler.New(a.cfg)
	if err != nil {
		return err
	}
	files, err := compiler.CollectSources(cmd.Args().Slice(), a.cfg.Extensions...)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no source files found")
	}
	outDir := cmd.String("output")
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	jobs := int(cmd.Int("jobs"))
	if jobs < 1 {
		jobs = 1
	}

	// Indexes are unique per goroutine.
	results := make([]*compiler.Result, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := comp.ExpandFile(path)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = res
			if outDir != "" {
				errs[i] = writeOutput(outDir, path, res.Text, a.cfg.Extensions)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	warn := color.New(color.FgYellow)
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(a.stderr, "%s %s\n", warn.Sprint("warning:"), w)
		}
		if outDir == "" {
			if _, err := io.WriteString(a.stdout, res.Text); err != nil {
				return err
			}
		}
	}
	return multierr.Combine(errs...)
}

// writeOutput stores text under dir, named after path with its source
// extension removed.
func writeOutput(dir, path, text string, exts []string) error {
	name := filepath.Base(path)
	trimmed := compiler.TrimExt(name, exts...)
	if trimmed == name {
		trimmed += ".out"
	}
	out := filepath.Join(dir, trimmed)
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return nil
}

func (a *app) treeAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("usage: treeline tree [--format F] <file.tl>")
	}
	format, err := report.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	comp, err := compiler.New(a.cfg)
	if err != nil {
		return err
	}
	res, err := comp.ExpandFile(cmd.Args().First())
	if err != nil {
		return err
	}
	recs, err := report.Dump(res.Tree)
	if err != nil {
		return err
	}
	return report.WriteDump(a.stdout, format, recs, a.color)
}

func (a *app) symbolsAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("usage: treeline symbols [--format F] [--imports] <ast.json|ast.yaml>")
	}
	format, err := report.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	path := cmd.Args().First()
	prog, err := ast.ParseFile(path)
	if err != nil {
		return err
	}
	comp, err := compiler.New(a.cfg)
	if err != nil {
		return err
	}
	rep, err := comp.Analyze(filepath.Base(path), prog)
	if err != nil {
		return err
	}
	if !cmd.Bool("imports") {
		rep.Imports = nil
	}
	// Text output lists warnings itself.
	if format != report.Text {
		for _, w := range rep.Warnings {
			fmt.Fprintf(a.stderr, "%s %s\n", color.New(color.FgYellow).Sprint("warning:"), w)
		}
	}
	return rep.Write(a.stdout, format, a.color)
}
