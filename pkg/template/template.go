package template

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-jen/pkg/helper"
)

const (
	autoescapeOpen  = "{% autoescape off %}"
	autoescapeClose = "{% endautoescape %}"
)

var extendsPattern = regexp.MustCompile(`\{%-?\s*extends\s`)

// Option configures compilation.
type Option func(*config)

type config struct {
	logger     *slog.Logger
	loader     *Loader
	autoescape bool
}

// WithLogger routes compile diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithLoader overrides the loader used by Compile to resolve sources.
func WithLoader(loader *Loader) Option {
	return func(cfg *config) {
		if loader != nil {
			cfg.loader = loader
		}
	}
}

// WithAutoescape turns HTML escaping of printed values on. Documents are
// rendered verbatim by default.
func WithAutoescape(enabled bool) Option {
	return func(cfg *config) {
		cfg.autoescape = enabled
	}
}

func newConfig(options []Option) *config {
	cfg := &config{}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.loader == nil {
		cfg.loader = NewLoader()
	}
	return cfg
}

// Template is compiled, validated template text bound to a snapshot of the
// helper registry taken at compile time. A Template holds no mutable state:
// every Render starts from an empty variable context.
type Template struct {
	source  Source
	name    string
	tpl     *pongo2.Template
	helpers map[string]helper.Helper
	sites   []CallSite
}

// Compile loads src and compiles it against reg. See CompileContent.
func Compile(ctx context.Context, src Source, reg *helper.Registry, options ...Option) (*Template, error) {
	cfg := newConfig(options)
	content, err := cfg.loader.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return compile(content, reg, cfg)
}

// CompileContent parses content and validates it with one dry-run render.
//
// Compilation fails with a *ParseError for malformed syntax and with a
// *ValidationError when the template calls an unknown helper, passes a
// keyword the helper does not declare, or when any helper call fails during
// the dry run (bad arity, bad argument types, an invalid range). The dry run
// invokes every referenced helper at least once, but stateful helpers run
// against detached copies: validating a template never advances the session
// index.
func CompileContent(content Content, reg *helper.Registry, options ...Option) (*Template, error) {
	return compile(content, reg, newConfig(options))
}

func compile(content Content, reg *helper.Registry, cfg *config) (*Template, error) {
	if reg == nil {
		return nil, errors.New("template: helper registry is required")
	}
	if content.source == nil {
		return nil, errors.New("template: content has no source")
	}
	registerDefaultFilters()

	name := content.Location()
	helpers := snapshot(reg)

	text, sites, err := scan(name, string(content.raw), helpers)
	if err != nil {
		return nil, err
	}

	prefix := 0
	if !cfg.autoescape && !extendsPattern.MatchString(text) {
		text = autoescapeOpen + text + autoescapeClose
		prefix = len(autoescapeOpen)
	}

	loader, err := engineLoader(content)
	if err != nil {
		return nil, fmt.Errorf("template: %s: %w", name, err)
	}
	set := pongo2.NewSet("jen", loader)
	tpl, err := set.FromBytes([]byte(text))
	if err != nil {
		return nil, parseError(name, err, prefix)
	}

	t := &Template{
		source:  content.source,
		name:    name,
		tpl:     tpl,
		helpers: helpers,
		sites:   sites,
	}

	if _, err := t.execute(snapshot(reg.Detached())); err != nil {
		ve := &ValidationError{Source: name, Err: err}
		var callErr *helper.CallError
		if errors.As(err, &callErr) {
			ve.Helper = callErr.Helper
			if site, ok := firstSite(sites, callErr.Helper); ok {
				ve.Line, ve.Column = site.Line, site.Column
			}
		}
		cfg.logger.Debug("template validation failed", "source", name, "error", err)
		return nil, ve
	}

	cfg.logger.Debug("template compiled", "source", name, "helpers", t.Helpers())
	return t, nil
}

// Render executes the template once with fresh helper bindings. Helper
// failures come back as a *RenderError wrapping the helper's *CallError.
func (t *Template) Render() (string, error) {
	out, err := t.execute(t.helpers)
	if err != nil {
		return "", &RenderError{Source: t.name, Err: err}
	}
	return out, nil
}

func (t *Template) execute(helpers map[string]helper.Helper) (string, error) {
	state := &callState{}
	out, err := t.tpl.Execute(bindHelpers(helpers, state))
	if err != nil {
		if state.err != nil {
			return "", state.err
		}
		return "", err
	}
	return out, nil
}

// Source returns where the template text came from.
func (t *Template) Source() Source { return t.source }

// Name returns the source location used in errors.
func (t *Template) Name() string { return t.name }

// Helpers lists the distinct helper names the template calls directly.
func (t *Template) Helpers() []string { return helperNames(t.sites) }

// CallSites returns every direct helper call in source order.
func (t *Template) CallSites() []CallSite {
	return append([]CallSite(nil), t.sites...)
}

func snapshot(reg *helper.Registry) map[string]helper.Helper {
	helpers := make(map[string]helper.Helper, reg.Len())
	reg.Each(func(h helper.Helper) {
		helpers[h.Name()] = h
	})
	return helpers
}

func firstSite(sites []CallSite, name string) (CallSite, bool) {
	for _, site := range sites {
		if site.Name == name {
			return site, true
		}
	}
	return CallSite{}, false
}

func engineLoader(content Content) (pongo2.TemplateLoader, error) {
	if content.files != nil {
		return pongo2.NewFSLoader(content.files), nil
	}
	return pongo2.NewLocalFileSystemLoader("")
}

func parseError(name string, err error, prefix int) error {
	var perr *pongo2.Error
	if !errors.As(err, &perr) {
		return &ParseError{Source: name, Err: err}
	}
	pe := &ParseError{Source: name, Line: perr.Line, Column: perr.Column, Err: perr.OrigError}
	if pe.Err == nil {
		pe.Err = err
	}
	if perr.Token != nil {
		pe.Near = perr.Token.Val
	}
	if pe.Line == 1 && prefix > 0 {
		pe.Column = max(pe.Column-prefix, 1)
	}
	return pe
}
