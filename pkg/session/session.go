// Package session runs a generation job: one template, one helper registry,
// one shared index counter and an optional global document limit, spread over
// a pool of workers that each own an independent document stream.
//
//	sess, err := session.New(ctx, template.SourceFromFile("user.tpl"),
//		session.WithWorkers(4),
//		session.WithLimit(1000),
//	)
//	if err != nil {
//		return err // unknown helper, syntax error, failed dry run
//	}
//	report, err := sess.Run(ctx, 5000, sink.NewWriter(os.Stdout, sink.Formatter{}))
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/goliatone/go-jen/pkg/generator"
	"github.com/goliatone/go-jen/pkg/helper"
	"github.com/goliatone/go-jen/pkg/schedule"
	"github.com/goliatone/go-jen/pkg/sink"
	"github.com/goliatone/go-jen/pkg/template"
)

// Option configures a Session.
type Option func(*Session)

// WithWorkers sets the number of concurrent streams. Values below one fall
// back to the host parallelism.
func WithWorkers(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLimit caps the number of documents emitted over the session's lifetime,
// across every Run. Zero means unlimited.
func WithLimit(n uint64) Option {
	return func(s *Session) {
		if n > 0 {
			s.limit = schedule.NewLimit(n)
		}
	}
}

// WithLogger routes worker lifecycle events to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLoader overrides how the template source is fetched.
func WithLoader(loader *template.Loader) Option {
	return func(s *Session) {
		if loader != nil {
			s.loader = loader
		}
	}
}

// WithHelpers registers extra helpers on top of the built-in catalog. A
// helper named like a built-in replaces it.
func WithHelpers(helpers ...helper.Helper) Option {
	return func(s *Session) {
		s.extra = append(s.extra, helpers...)
	}
}

// WithFaker overrides the fake-data provider behind the flavour helpers.
func WithFaker(f *gofakeit.Faker) Option {
	return func(s *Session) {
		if f != nil {
			s.faker = f
		}
	}
}

// WithTemplateOptions forwards options to every template compilation.
func WithTemplateOptions(options ...template.Option) Option {
	return func(s *Session) {
		s.tplOptions = append(s.tplOptions, options...)
	}
}

// WithProgress installs a callback invoked after each emitted document. It
// is called concurrently from every worker.
func WithProgress(fn func(worker int)) Option {
	return func(s *Session) {
		s.progress = fn
	}
}

// Session owns everything workers share. Build it with New; the zero value is
// not usable.
type Session struct {
	workers    int
	limit      *schedule.Limit
	logger     *slog.Logger
	loader     *template.Loader
	faker      *gofakeit.Faker
	extra      []helper.Helper
	tplOptions []template.Option
	progress   func(worker int)

	index    *helper.Counter
	registry *helper.Registry
	content  template.Content
	tpl      *template.Template
}

// New loads src, builds the helper registry and compiles the template once.
// Any compile or validation failure is returned here, before a single
// document is produced.
func New(ctx context.Context, src template.Source, options ...Option) (*Session, error) {
	if src == nil {
		return nil, errors.New("session: template source is required")
	}

	s := &Session{
		workers: runtime.NumCPU(),
		index:   helper.NewCounter(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.loader == nil {
		s.loader = template.NewLoader()
	}

	s.registry = helper.Builtin(helper.WithIndex(s.index), helper.WithFaker(s.faker))
	for _, h := range s.extra {
		if err := s.registry.Register(h); err != nil {
			return nil, fmt.Errorf("session: register helper: %w", err)
		}
	}

	content, err := s.loader.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("session: load template: %w", err)
	}
	s.content = content

	tpl, err := s.compile()
	if err != nil {
		return nil, err
	}
	s.tpl = tpl
	return s, nil
}

// Template returns the template compiled during New.
func (s *Session) Template() *template.Template { return s.tpl }

// Registry returns the session's helper registry.
func (s *Session) Registry() *helper.Registry { return s.registry }

// Workers reports the configured worker count.
func (s *Session) Workers() int { return s.workers }

// Index reports the next value the index helper will hand out.
func (s *Session) Index() uint64 { return s.index.Peek() }

// Limit returns the session's global limit, nil when unlimited.
func (s *Session) Limit() *schedule.Limit { return s.limit }

func (s *Session) compile() (*template.Template, error) {
	options := append([]template.Option{template.WithLogger(s.logger)}, s.tplOptions...)
	return template.CompileContent(s.content, s.registry, options...)
}

// Report summarises one Run.
type Report struct {
	Requested int
	Emitted   uint64
	Workers   int
	Shares    []int
	PerWorker []uint64
	Errors    []error
	Elapsed   time.Duration
}

// WorkerError ties a failure to the worker that hit it.
type WorkerError struct {
	Worker int
	Err    error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("session: worker %d: %v", e.Worker, e.Err)
}

func (e *WorkerError) Unwrap() error { return e.Err }

// Run generates total documents into out. total is split across the workers
// with schedule.Split; each worker compiles its own template against the
// shared registry and emits its share one document at a time, acquiring a
// limit slot first. A worker stops at its first error or when the limit is
// exhausted. Run waits for every worker, then returns the first error in
// spawn order; Report.Errors lists all of them.
func (s *Session) Run(ctx context.Context, total int, out sink.Sink) (Report, error) {
	if out == nil {
		return Report{}, errors.New("session: sink is required")
	}

	started := time.Now()
	shares := schedule.Split(total, s.workers)
	report := Report{
		Requested: max(total, 0),
		Workers:   len(shares),
		Shares:    shares,
		PerWorker: make([]uint64, len(shares)),
	}
	failures := make([]error, len(shares))

	s.logger.Info("session started",
		"total", report.Requested,
		"workers", report.Workers,
		"limit", s.limit.Max(),
	)

	var wg sync.WaitGroup
	for id, share := range shares {
		wg.Add(1)
		go func(id, share int) {
			defer wg.Done()
			report.PerWorker[id], failures[id] = s.work(ctx, id, share, out)
		}(id, share)
	}
	wg.Wait()

	for id, err := range failures {
		report.Emitted += report.PerWorker[id]
		if err != nil {
			report.Errors = append(report.Errors, &WorkerError{Worker: id, Err: err})
		}
	}
	report.Elapsed = time.Since(started)

	s.logger.Info("session finished",
		"emitted", report.Emitted,
		"errors", len(report.Errors),
		"elapsed", report.Elapsed,
	)

	if len(report.Errors) > 0 {
		return report, report.Errors[0]
	}
	return report, nil
}

func (s *Session) work(ctx context.Context, id, share int, out sink.Sink) (uint64, error) {
	log := s.logger.With("worker", id, "share", share)
	if share == 0 {
		return 0, nil
	}
	log.Debug("worker start")

	tpl, err := s.compile()
	if err != nil {
		log.Warn("worker error", "error", err)
		return 0, err
	}
	stream, err := generator.New(tpl)
	if err != nil {
		return 0, err
	}

	var emitted uint64
	for range share {
		if err := ctx.Err(); err != nil {
			log.Warn("worker error", "emitted", emitted, "error", err)
			return emitted, err
		}
		if !s.limit.Acquire() {
			log.Debug("worker limit reached", "emitted", emitted)
			break
		}
		doc, err := stream.Next()
		if err != nil {
			log.Warn("worker error", "emitted", emitted, "error", err)
			return emitted, err
		}
		if err := out.Write(ctx, doc); err != nil {
			log.Warn("worker error", "emitted", emitted, "error", err)
			return emitted, fmt.Errorf("session: write document: %w", err)
		}
		emitted++
		if s.progress != nil {
			s.progress(id)
		}
	}

	log.Debug("worker finish", "emitted", emitted)
	return emitted, nil
}
