package generator

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-jen/pkg/helper"
	"github.com/goliatone/go-jen/pkg/template"
)

func compile(t *testing.T, text string) *template.Template {
	t.Helper()
	tpl, err := template.Compile(context.Background(), template.SourceFromString("stream", text), helper.Builtin())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return tpl
}

func TestStream_IndexSequence(t *testing.T) {
	stream, err := New(compile(t, `{{ index() }}`))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	const n = 100
	docs, err := stream.Take(n)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	want := make([]string, n)
	for i := range want {
		want[i] = strconv.Itoa(i)
	}
	if diff := cmp.Diff(want, docs); diff != "" {
		t.Fatalf("sequence mismatch (-want +got):\n%s", diff)
	}
	if stream.Emitted() != n {
		t.Fatalf("expected %d emitted, got %d", n, stream.Emitted())
	}
}

func TestStream_DocumentsVary(t *testing.T) {
	stream, err := New(compile(t, `{{ uuid() }}`))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	seen := make(map[string]bool)
	for doc, err := range stream.All() {
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if seen[doc] {
			t.Fatalf("duplicate document %q", doc)
		}
		seen[doc] = true
		if len(seen) == 200 {
			break
		}
	}
}

type failing struct{ after int }

func (f *failing) Render() (string, error) {
	if f.after == 0 {
		return "", errors.New("boom")
	}
	f.after--
	return "doc", nil
}

func TestStream_TakeStopsAtFirstError(t *testing.T) {
	stream, err := New(&failing{after: 2})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	docs, err := stream.Take(5)
	if err == nil {
		t.Fatalf("expected error")
	}
	if diff := cmp.Diff([]string{"doc", "doc"}, docs); diff != "" {
		t.Fatalf("partial docs mismatch (-want +got):\n%s", diff)
	}
}

func TestStream_AllYieldsErrorOnce(t *testing.T) {
	stream, _ := New(&failing{after: 1})
	var errs, docs int
	for _, err := range stream.All() {
		if err != nil {
			errs++
			continue
		}
		docs++
	}
	if docs != 1 || errs != 1 {
		t.Fatalf("expected 1 doc and 1 error, got %d and %d", docs, errs)
	}
}

func TestNew_RequiresRenderer(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected nil renderer to be rejected")
	}
}
