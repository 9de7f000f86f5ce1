package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	jen "github.com/goliatone/go-jen"
	"github.com/goliatone/go-jen/internal/config"
	"github.com/goliatone/go-jen/pkg/scaffold"
	"github.com/goliatone/go-jen/pkg/session"
	"github.com/goliatone/go-jen/pkg/sink"
	"github.com/goliatone/go-jen/pkg/template"
)

const remoteTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, surveyPrompter{}); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "jen: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, p prompter) error {
	if len(args) > 0 && args[0] == "scaffold" {
		return runScaffold(ctx, args[1:], stdout, stderr, p)
	}
	return runGenerate(ctx, args, stdout, stderr, p)
}

func runGenerate(ctx context.Context, args []string, stdout, stderr io.Writer, p prompter) error {
	fs := flag.NewFlagSet("jen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var flags config.Config
	configPath := fs.String("config", "", "config file (JSON or YAML)")
	interactive := fs.Bool("interactive", false, "prompt for missing settings")
	fs.StringVar(&flags.Template, "template", "", "template file path, URL, or builtin:<name>")
	fs.IntVar(&flags.Amount, "amount", 1, "number of documents to generate")
	fs.IntVar(&flags.Workers, "workers", 0, "concurrent workers (0 = one per CPU)")
	fs.Uint64Var(&flags.Limit, "limit", 0, "hard cap on emitted documents (0 = none)")
	fs.BoolVar(&flags.Combine, "combine", false, "emit all documents as one JSON array")
	fs.BoolVar(&flags.Pretty, "pretty", false, "pretty-print JSON documents")
	fs.BoolVar(&flags.Textual, "textual", false, "emit documents verbatim, without JSON handling")
	fs.StringVar(&flags.Output, "output", "", "output file, bolt:<path>, or stdout if empty")
	fs.StringVar(&flags.Bucket, "bucket", "", "bucket name for bolt output")
	fs.BoolVar(&flags.Progress, "progress", false, "show a progress bar on stderr")
	fs.StringVar(&flags.LogLevel, "log-level", "warn", "log level: debug, info, warn, error")
	fs.IntVar(&flags.Amount, "a", 1, "shorthand for -amount")
	fs.BoolVar(&flags.Combine, "c", false, "shorthand for -combine")
	fs.BoolVar(&flags.Pretty, "p", false, "shorthand for -pretty")
	fs.BoolVar(&flags.Textual, "t", false, "shorthand for -textual")
	if err := fs.Parse(args); err != nil {
		return err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[flagKey(f.Name)] = true
	})
	if fs.NArg() > 0 && !set[config.KeyTemplate] {
		flags.Template = fs.Arg(0)
		set[config.KeyTemplate] = true
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg = cfg.Merge(flags, set)

	if *interactive {
		completed, err := completeConfig(ctx, p, cfg, set)
		if err != nil {
			return err
		}
		cfg = completed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return generate(ctx, cfg, stdout, stderr)
}

func generate(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	src, loader := templateSource(cfg.Template)
	options := []session.Option{
		session.WithWorkers(cfg.Workers),
		session.WithLimit(cfg.Limit),
		session.WithLogger(logger),
		session.WithLoader(loader),
	}

	var bar *progressbar.ProgressBar
	if cfg.Progress {
		bar = progressbar.NewOptions64(expected(cfg),
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription("generating"),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		options = append(options, session.WithProgress(func(int) { _ = bar.Add(1) }))
	}

	sess, err := session.New(ctx, src, options...)
	if err != nil {
		return err
	}

	dest, err := config.ParseOutput(cfg.Output)
	if err != nil {
		return err
	}
	format := sink.Formatter{Pretty: cfg.Pretty, Textual: cfg.Textual}

	if dest.Kind == config.OutputBolt {
		store, err := sink.NewBolt(dest.Path, cfg.Bucket, format)
		if err != nil {
			return err
		}
		defer store.Close()

		report, runErr := sess.Run(ctx, cfg.Amount, store)
		finish(bar)
		fmt.Fprintf(stderr, "jen: stored %s documents in %s in %s\n",
			humanize.Comma(int64(report.Emitted)), dest.Path, report.Elapsed.Round(time.Millisecond))
		return runErr
	}

	out, closeOut, err := openOutput(dest, stdout)
	if err != nil {
		return err
	}
	defer closeOut()

	var (
		report  session.Report
		runErr  error
		written uint64
	)
	if cfg.Combine {
		collector := sink.NewCollector(cfg.Amount)
		report, runErr = sess.Run(ctx, cfg.Amount, collector)
		finish(bar)
		if runErr != nil {
			return runErr
		}
		n, err := collector.Flush(out, format)
		if err != nil {
			return fmt.Errorf("jen: write combined output: %w", err)
		}
		written = uint64(n)
	} else {
		writer := sink.NewWriter(out, format)
		report, runErr = sess.Run(ctx, cfg.Amount, writer)
		finish(bar)
		written = writer.Bytes()
	}

	if dest.Kind == config.OutputFile || cfg.Progress {
		fmt.Fprintf(stderr, "jen: %s documents (%s) written to %s in %s\n",
			humanize.Comma(int64(report.Emitted)), humanize.Bytes(written), describe(dest), report.Elapsed.Round(time.Millisecond))
	}
	return runErr
}

func runScaffold(ctx context.Context, args []string, stdout, stderr io.Writer, p prompter) error {
	fs := flag.NewFlagSet("jen scaffold", flag.ContinueOnError)
	fs.SetOutput(stderr)
	specPath := fs.String("openapi", "", "OpenAPI document path")
	schema := fs.String("schema", "", "component schema to scaffold")
	output := fs.String("output", "", "template output file (stdout if empty)")
	depth := fs.Int("depth", 0, "maximum nesting depth (0 = default)")
	items := fs.Int("items", 0, "items per open-ended array (0 = default)")
	interactive := fs.Bool("interactive", false, "pick the schema from a list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *specPath == "" {
		return errors.New("scaffold: -openapi is required")
	}

	data, err := os.ReadFile(*specPath)
	if err != nil {
		return fmt.Errorf("scaffold: read %s: %w", *specPath, err)
	}

	name := *schema
	if name == "" {
		if !*interactive {
			return errors.New("scaffold: -schema is required")
		}
		names, err := scaffold.Schemas(ctx, data)
		if err != nil {
			return err
		}
		idx, err := p.Select(ctx, selectConfig{Message: "Schema:", Options: names})
		if err != nil {
			return err
		}
		if idx < 0 {
			return errors.New("scaffold: no schema selected")
		}
		name = names[idx]
	}

	text, err := scaffold.FromOpenAPI(ctx, data, name, scaffold.WithMaxDepth(*depth), scaffold.WithItems(*items))
	if err != nil {
		return err
	}

	if *output == "" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	if err := os.WriteFile(*output, []byte(text), 0o644); err != nil {
		return fmt.Errorf("scaffold: write %s: %w", *output, err)
	}
	fmt.Fprintf(stderr, "Template written to %s\n", *output)
	return nil
}

func templateSource(raw string) (template.Source, *template.Loader) {
	path := strings.TrimSpace(raw)
	if name, ok := strings.CutPrefix(path, "builtin:"); ok {
		return jen.BundledTemplate(name)
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return template.SourceFromURL(path), template.NewLoader(template.WithHTTPFallback(remoteTimeout))
	}
	return template.SourceFromFile(path), template.NewLoader()
}

func openOutput(dest config.Output, stdout io.Writer) (io.Writer, func(), error) {
	if dest.Kind != config.OutputFile {
		return stdout, func() {}, nil
	}
	f, err := os.Create(dest.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("jen: create %s: %w", dest.Path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

var shortFlags = map[string]string{
	"a":         config.KeyAmount,
	"c":         config.KeyCombine,
	"p":         config.KeyPretty,
	"t":         config.KeyTextual,
	"log-level": config.KeyLogLevel,
}

func flagKey(name string) string {
	if key, ok := shortFlags[name]; ok {
		return key
	}
	return name
}

func expected(cfg config.Config) int64 {
	total := int64(cfg.Amount)
	if cfg.Limit > 0 && cfg.Limit < uint64(total) {
		total = int64(cfg.Limit)
	}
	return total
}

func finish(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
	}
}

func describe(dest config.Output) string {
	if dest.Kind == config.OutputFile {
		return dest.Path
	}
	return "stdout"
}
