// libctx generates LLM-oriented Markdown API references for Python packages.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/phobologic/libctx/internal/collect"
	"github.com/phobologic/libctx/internal/config"
	"github.com/phobologic/libctx/internal/inject"
	"github.com/phobologic/libctx/internal/model"
	"github.com/phobologic/libctx/internal/render"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	output         string
	includePrivate bool
	noReadme       bool
	maxReadmeLines int
	configPath     string
	quiet          bool
	verbose        bool
	dryRun         bool
	diff           bool
	python         string
}

type rendered struct {
	name    string
	content string
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("libctx", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		opts        options
		showVersion bool
	)

	fs.StringVar(&opts.output, "o", "", "output file; context is injected between markers")
	fs.StringVar(&opts.output, "output", "", "output file; context is injected between markers")
	fs.BoolVar(&opts.includePrivate, "include-private", false, "include private (_-prefixed) modules and members")
	fs.BoolVar(&opts.noReadme, "no-readme", false, "do not include the package README")
	fs.IntVar(&opts.maxReadmeLines, "max-readme-lines", 0, "maximum README lines to include (default from config, else 100)")
	fs.StringVar(&opts.configPath, "config", "", "pyproject.toml with a [tool.libcontext] table")
	fs.BoolVar(&opts.quiet, "q", false, "suppress informational messages")
	fs.BoolVar(&opts.quiet, "quiet", false, "suppress informational messages")
	fs.BoolVar(&opts.verbose, "v", false, "enable debug logging")
	fs.BoolVar(&opts.verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "print the updated output file instead of writing it")
	fs.BoolVar(&opts.diff, "diff", false, "print a line diff of the output file instead of writing it")
	fs.StringVar(&opts.python, "python", collect.DefaultPython, "interpreter used to locate installed packages")
	fs.BoolVar(&showVersion, "V", false, "show version and exit")
	fs.BoolVar(&showVersion, "version", false, "show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: libctx [flags] PACKAGE...

Generate an LLM-oriented Markdown context file from one or more Python
packages. PACKAGE is an importable name or a path to a package directory or
module file. Output goes to stdout unless -o is given.

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if showVersion {
		_, _ = fmt.Fprintf(stdout, "libctx %s\n", version)
		return nil
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("at least one package is required")
	}
	if opts.maxReadmeLines < 0 || (opts.maxReadmeLines == 0 && flagSet(fs, "max-readme-lines")) {
		return fmt.Errorf("--max-readme-lines must be positive, got %d", opts.maxReadmeLines)
	}
	if opts.output == "" && (opts.dryRun || opts.diff) {
		return errors.New("--dry-run and --diff require --output")
	}

	log := setupLogger(stderr, opts.verbose, opts.quiet)

	var cfg *config.Config
	if opts.configPath != "" {
		c, err := config.Load(opts.configPath)
		if err != nil {
			return fmt.Errorf("error in config: %w", err)
		}
		cfg = &c
	}

	c := &collect.Collector{
		Config:         cfg,
		IncludePrivate: opts.includePrivate,
		IncludeReadme:  !opts.noReadme,
		Logger:         log,
	}
	if needsSearchPaths(fs.Args()) {
		paths, err := collect.DefaultSearchPaths(context.Background(), opts.python)
		if err != nil {
			log.WithError(err).Warn("cannot query interpreter; only PYTHONPATH is searched")
		}
		c.SearchPaths = paths
	}

	var blocks []rendered
	for _, target := range fs.Args() {
		log.Infof("Inspecting %s", target)

		res, err := c.Collect(target)
		if err != nil {
			if errors.Is(err, config.ErrInvalid) {
				return fmt.Errorf("error in config: %w", err)
			}
			return err
		}

		ro := render.Options{
			IncludeReadme:  !opts.noReadme,
			MaxReadmeLines: res.Config.MaxReadmeLines,
			ExtraContext:   res.Config.ExtraContext,
		}
		if opts.maxReadmeLines > 0 {
			ro.MaxReadmeLines = opts.maxReadmeLines
		}

		blocks = append(blocks, rendered{name: res.Package.Name, content: render.Package(res.Package, ro)})
		logStats(log, res.Package)
	}

	if opts.output == "" {
		for _, b := range blocks {
			_, _ = fmt.Fprintln(stdout, b.content)
		}
		return nil
	}

	return writeOutput(opts, blocks, stdout, log)
}

func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// needsSearchPaths reports whether any target must be resolved as an
// installed package rather than a filesystem path.
func needsSearchPaths(targets []string) bool {
	for _, t := range targets {
		if _, err := os.Stat(t); err != nil {
			return true
		}
	}
	return false
}

func logStats(log logrus.FieldLogger, pkg *model.Package) {
	classes, functions := 0, 0
	for _, m := range pkg.Modules {
		classes += len(m.Classes)
		functions += len(m.Functions)
	}
	log.Infof("Found %d modules, %d classes, %d functions.", len(pkg.NonEmptyModules()), classes, functions)
}

// writeOutput injects every rendered block into the output file, preserving
// the rest of its content.
func writeOutput(opts options, blocks []rendered, stdout io.Writer, log logrus.FieldLogger) error {
	existing := ""
	data, err := os.ReadFile(opts.output)
	switch {
	case err == nil:
		if !utf8.Valid(data) {
			return fmt.Errorf("cannot read %s: file is not valid UTF-8", opts.output)
		}
		existing = string(data)
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("cannot read %s: %w", opts.output, err)
	}

	updated := existing
	for _, b := range blocks {
		updated = inject.Apply(b.content, b.name, &updated)
	}

	if opts.diff {
		_, _ = fmt.Fprint(stdout, lineDiff(opts.output, existing, updated))
		return nil
	}
	if opts.dryRun {
		_, _ = fmt.Fprint(stdout, updated)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
		return fmt.Errorf("cannot write to %s: %w", opts.output, err)
	}
	if err := os.WriteFile(opts.output, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("cannot write to %s: %w", opts.output, err)
	}

	log.Infof("Context written to %s", opts.output)
	return nil
}

func setupLogger(w io.Writer, verbose, quiet bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})

	level := logrus.InfoLevel
	switch {
	case verbose:
		level = logrus.DebugLevel
	case quiet:
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)

	return logger
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-o": true, "--o": true,
	"-output": true, "--output": true,
	"-max-readme-lines": true, "--max-readme-lines": true,
	"-config": true, "--config": true,
	"-python": true, "--python": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			flags = append(flags, "--")
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
