// Package jen generates batches of synthetic documents from templates that
// call random-data helpers. The sub-packages hold the moving parts; this
// package re-exports the common entry points.
package jen

import (
	"context"

	"github.com/goliatone/go-jen/pkg/helper"
	"github.com/goliatone/go-jen/pkg/session"
	"github.com/goliatone/go-jen/pkg/sink"
	"github.com/goliatone/go-jen/pkg/template"
)

// Source aliases template.Source for callers pointing at template text.
type Source = template.Source

// Helper aliases helper.Helper so custom helpers can be declared from the
// root package.
type Helper = helper.Helper

// Report aliases session.Report.
type Report = session.Report

// SourceFromFile, SourceFromURL and SourceFromString mirror the template
// package constructors.
var (
	SourceFromFile   = template.SourceFromFile
	SourceFromURL    = template.SourceFromURL
	SourceFromString = template.SourceFromString
)

// NewRegistry returns the built-in helper catalog.
func NewRegistry(options ...helper.Option) *helper.Registry {
	return helper.Builtin(options...)
}

// NewSession exposes the session constructor from the top-level module.
func NewSession(ctx context.Context, src Source, options ...session.Option) (*session.Session, error) {
	return session.New(ctx, src, options...)
}

// Generate renders n documents from src and returns them in arrival order.
func Generate(ctx context.Context, src Source, n int, options ...session.Option) ([]string, error) {
	sess, err := session.New(ctx, src, options...)
	if err != nil {
		return nil, err
	}
	out := sink.NewCollector(n)
	if _, err := sess.Run(ctx, n, out); err != nil {
		return out.Docs(), err
	}
	return out.Docs(), nil
}

// GenerateJSON renders n documents and combines them into one JSON array.
func GenerateJSON(ctx context.Context, src Source, n int, format sink.Formatter, options ...session.Option) ([]byte, error) {
	docs, err := Generate(ctx, src, n, options...)
	if err != nil {
		return nil, err
	}
	return format.Combine(docs)
}
