package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-jen/internal/config"
	"github.com/goliatone/go-jen/pkg/sink"
)

type fakePrompter struct {
	inputs   []string
	selects  []int
	confirms []bool
}

func (f *fakePrompter) Input(_ context.Context, cfg inputConfig) (string, error) {
	v := f.inputs[0]
	f.inputs = f.inputs[1:]
	if cfg.Validator != nil {
		if err := cfg.Validator(v); err != nil {
			return "", err
		}
	}
	return v, nil
}

func (f *fakePrompter) Confirm(context.Context, string, bool) (bool, error) {
	v := f.confirms[0]
	f.confirms = f.confirms[1:]
	return v, nil
}

func (f *fakePrompter) Select(context.Context, selectConfig) (int, error) {
	v := f.selects[0]
	f.selects = f.selects[1:]
	return v, nil
}

func writeTemplate(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.tpl")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	return path
}

func TestRun_LinesToStdout(t *testing.T) {
	tpl := writeTemplate(t, `{"id": {{ index() }}, "name": "{{ name() }}"}`)
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"-amount", "12", "-workers", "3", tpl}, &stdout, &stderr, nil)
	if err != nil {
		t.Fatalf("run: %v (%s)", err, stderr.String())
	}
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 12 {
		t.Fatalf("expected 12 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !json.Valid([]byte(line)) {
			t.Fatalf("line is not JSON: %q", line)
		}
	}
}

func TestRun_CombineToFileWithLimit(t *testing.T) {
	tpl := writeTemplate(t, `{"n": {{ integer(1, 3) }}}`)
	out := filepath.Join(t.TempDir(), "out.json")
	var stdout, stderr bytes.Buffer

	args := []string{"-template", tpl, "-amount", "50", "-limit", "20", "-combine", "-output", out}
	if err := run(context.Background(), args, &stdout, &stderr, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var docs []map[string]int
	if err := json.Unmarshal(data, &docs); err != nil {
		t.Fatalf("combined output: %v", err)
	}
	if len(docs) != 20 {
		t.Fatalf("expected 20 documents, got %d", len(docs))
	}
	if !strings.Contains(stderr.String(), "20 documents") {
		t.Fatalf("expected a summary on stderr, got %q", stderr.String())
	}
}

func TestRun_BoltOutput(t *testing.T) {
	tpl := writeTemplate(t, `{"id": "{{ uuid() }}"}`)
	db := filepath.Join(t.TempDir(), "docs.db")
	var stdout, stderr bytes.Buffer

	args := []string{"-amount", "30", "-output", "bolt:" + db, "-bucket", "ids", tpl}
	if err := run(context.Background(), args, &stdout, &stderr, nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	store, err := sink.NewBolt(db, "ids", sink.Formatter{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	if n, err := store.Count(); err != nil || n != 30 {
		t.Fatalf("expected 30 stored documents, got %d (%v)", n, err)
	}
}

func TestRun_ConfigFileAndFlags(t *testing.T) {
	tpl := writeTemplate(t, `{{ index() }}`)
	cfgPath := filepath.Join(t.TempDir(), "jen.yaml")
	cfgText := "template: " + tpl + "\namount: 4\ntextual: true\n"
	if err := os.WriteFile(cfgPath, []byte(cfgText), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	var stdout, stderr bytes.Buffer

	if err := run(context.Background(), []string{"-config", cfgPath, "-amount", "2", "-workers", "1"}, &stdout, &stderr, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := stdout.String(); got != "0\n1\n" {
		t.Fatalf("expected the flag amount to win, got %q", got)
	}
}

func TestRun_ShortFlags(t *testing.T) {
	tpl := writeTemplate(t, `{"n": {{ index() }}}`)
	var stdout, stderr bytes.Buffer

	if err := run(context.Background(), []string{"-a", "5", "-c", "-p", tpl}, &stdout, &stderr, nil); err != nil {
		t.Fatalf("run: %v (%s)", err, stderr.String())
	}
	var docs []map[string]int
	if err := json.Unmarshal(stdout.Bytes(), &docs); err != nil {
		t.Fatalf("combined output: %v\n%s", err, stdout.String())
	}
	if len(docs) != 5 {
		t.Fatalf("expected 5 documents, got %d", len(docs))
	}
	if !strings.Contains(stdout.String(), "\n  ") {
		t.Fatalf("expected pretty-printed output, got %q", stdout.String())
	}

	stdout.Reset()
	if err := run(context.Background(), []string{"-a", "2", "-t", "-workers", "1", tpl}, &stdout, &stderr, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := stdout.String(); got != "{\"n\": 0}\n{\"n\": 1}\n" {
		t.Fatalf("expected textual output, got %q", got)
	}
}

func TestRun_UnknownHelperProducesNothing(t *testing.T) {
	tpl := writeTemplate(t, `{{ integer() }} {{ nonsense() }}`)
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"-amount", "5", tpl}, &stdout, &stderr, nil)
	if err == nil || !strings.Contains(err.Error(), "nonsense") {
		t.Fatalf("expected unknown helper error, got %v", err)
	}
	if stdout.Len() != 0 {
		t.Fatalf("expected no output, got %q", stdout.String())
	}
}

func TestCompleteConfig(t *testing.T) {
	p := &fakePrompter{
		inputs:   []string{"user.tpl", "25"},
		selects:  []int{1},
		confirms: []bool{true},
	}
	cfg, err := completeConfig(context.Background(), p, config.Default(), map[string]bool{})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	want := config.Config{Template: "user.tpl", Amount: 25, Combine: true, Pretty: true, LogLevel: "warn"}
	if cfg != want {
		t.Fatalf("expected %+v, got %+v", want, cfg)
	}

	p = &fakePrompter{inputs: []string{"-3"}}
	if _, err := completeConfig(context.Background(), p, config.Config{Template: "t"}, map[string]bool{}); err == nil {
		t.Fatalf("expected a negative amount to be rejected")
	}
}

const openapiDoc = `{
  "openapi": "3.0.0",
  "info": {"title": "Shop", "version": "1.0.0"},
  "paths": {},
  "components": {"schemas": {
    "Order": {"type": "object", "properties": {
      "id": {"type": "string", "format": "uuid"},
      "total": {"type": "number", "minimum": 1, "maximum": 500}
    }},
    "Customer": {"type": "object", "properties": {"email": {"type": "string", "format": "email"}}}
  }}
}`

func TestRun_ScaffoldThenGenerate(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "shop.json")
	if err := os.WriteFile(specPath, []byte(openapiDoc), 0o644); err != nil {
		t.Fatalf("write openapi document: %v", err)
	}
	tplPath := filepath.Join(dir, "order.tpl")
	var stdout, stderr bytes.Buffer

	p := &fakePrompter{selects: []int{1}}
	if err := run(context.Background(), []string{"scaffold", "-openapi", specPath, "-interactive", "-output", tplPath}, &stdout, &stderr, p); err != nil {
		t.Fatalf("scaffold: %v", err)
	}

	stdout.Reset()
	if err := run(context.Background(), []string{"-amount", "3", tplPath}, &stdout, &stderr, nil); err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, line := range strings.Split(strings.TrimSpace(stdout.String()), "\n") {
		var order struct {
			ID    string  `json:"id"`
			Total float64 `json:"total"`
		}
		if err := json.Unmarshal([]byte(line), &order); err != nil {
			t.Fatalf("order %q: %v", line, err)
		}
		if len(order.ID) != 36 || order.Total < 1 || order.Total > 500 {
			t.Fatalf("unexpected order %+v", order)
		}
	}
}

func TestRun_ScaffoldRequiresSchema(t *testing.T) {
	specPath := filepath.Join(t.TempDir(), "shop.json")
	if err := os.WriteFile(specPath, []byte(openapiDoc), 0o644); err != nil {
		t.Fatalf("write openapi document: %v", err)
	}
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"scaffold", "-openapi", specPath}, &stdout, &stderr, nil); err == nil {
		t.Fatalf("expected missing schema to fail")
	}
}

func TestRun_BundledTemplate(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"-amount", "3", "-combine", "builtin:order"}, &stdout, &stderr, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	var orders []struct {
		OrderID string `json:"orderId"`
		Items   []any  `json:"items"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &orders); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(orders) != 3 || len(orders[0].Items) != 2 {
		t.Fatalf("unexpected orders %+v", orders)
	}
}
