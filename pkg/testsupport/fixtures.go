package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-jen/pkg/helper"
	"github.com/goliatone/go-jen/pkg/sink"
	"github.com/goliatone/go-jen/pkg/template"
)

// FixedTime is the clock reading used by SeededRegistry.
var FixedTime = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// ErrSinkFull is returned by FlakySink once its budget is spent.
var ErrSinkFull = errors.New("testsupport: sink full")

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// SeededRegistry returns the built-in catalog with a seeded fake-data
// provider and a frozen clock, so flavour helpers repeat across runs.
func SeededRegistry(seed uint64) *helper.Registry {
	return helper.Builtin(
		helper.WithFaker(gofakeit.New(seed)),
		helper.WithClock(func() time.Time { return FixedTime }),
	)
}

// MustCompile compiles inline template text against reg, failing the test on
// error. A nil reg means the default built-in catalog.
func MustCompile(t *testing.T, reg *helper.Registry, text string, options ...template.Option) *template.Template {
	t.Helper()

	if reg == nil {
		reg = helper.Builtin()
	}
	tpl, err := template.Compile(Context(), template.SourceFromString(t.Name(), text), reg, options...)
	if err != nil {
		t.Fatalf("compile template: %v", err)
	}
	return tpl
}

// MustRender renders tpl once, failing the test on error.
func MustRender(t *testing.T, tpl *template.Template) string {
	t.Helper()

	out, err := tpl.Render()
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out
}

// DecodeDocuments unmarshals every document as a JSON object.
func DecodeDocuments(t *testing.T, docs []string) []map[string]any {
	t.Helper()

	out := make([]map[string]any, len(docs))
	for i, doc := range docs {
		if err := json.Unmarshal([]byte(doc), &out[i]); err != nil {
			t.Fatalf("document %d is not a JSON object: %v\n%s", i, err, doc)
		}
	}
	return out
}

// CompareJSON decodes both payloads and returns a diff string if the values
// differ. Formatting differences are ignored.
func CompareJSON(want, got []byte) string {
	var w, g any
	if err := json.Unmarshal(want, &w); err != nil {
		return fmt.Sprintf("want is not JSON: %v", err)
	}
	if err := json.Unmarshal(got, &g); err != nil {
		return fmt.Sprintf("got is not JSON: %v", err)
	}
	return cmp.Diff(w, g)
}

// MemorySink collects documents in memory.
func MemorySink() *sink.Collector {
	return sink.NewCollector(0)
}

// FlakySink accepts Budget documents and then fails every write with
// ErrSinkFull.
type FlakySink struct {
	Budget int64
	writes atomic.Int64
	Inner  sink.Sink
}

// Write forwards doc to Inner (when set) while the budget lasts.
func (s *FlakySink) Write(ctx context.Context, doc string) error {
	if s.writes.Add(1) > s.Budget {
		return ErrSinkFull
	}
	if s.Inner == nil {
		return nil
	}
	return s.Inner.Write(ctx, doc)
}
