package jen_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	jen "github.com/goliatone/go-jen"
	"github.com/goliatone/go-jen/pkg/session"
	"github.com/goliatone/go-jen/pkg/sink"
)

func TestTemplateNames(t *testing.T) {
	if diff := cmp.Diff([]string{"event", "order", "user"}, jen.TemplateNames()); diff != "" {
		t.Fatalf("bundled templates mismatch (-want +got):\n%s", diff)
	}
}

func TestBundledTemplatesRender(t *testing.T) {
	for _, name := range jen.TemplateNames() {
		t.Run(name, func(t *testing.T) {
			src, loader := jen.BundledTemplate(name)
			docs, err := jen.Generate(context.Background(), src, 20, session.WithLoader(loader), session.WithWorkers(2))
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if len(docs) != 20 {
				t.Fatalf("expected 20 documents, got %d", len(docs))
			}
			for _, doc := range docs {
				if name == "event" {
					if strings.Contains(doc, "\n") || !strings.Contains(doc, "host=") {
						t.Fatalf("unexpected event line %q", doc)
					}
					continue
				}
				formatted := sink.Formatter{}.Format(doc)
				var v map[string]any
				if err := json.Unmarshal(formatted, &v); err != nil {
					t.Fatalf("%s document is not JSON: %v\n%s", name, err, doc)
				}
			}
		})
	}
}

func TestBundledUserTemplate_Fields(t *testing.T) {
	src, loader := jen.BundledTemplate("user.tpl")
	docs, err := jen.Generate(context.Background(), src, 50, session.WithLoader(loader))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, doc := range docs {
		var user struct {
			ID    string `json:"id"`
			Index int    `json:"index"`
			Age   int    `json:"age"`
		}
		if err := json.Unmarshal([]byte(doc), &user); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(user.ID) != 24 || user.Age < 18 || user.Age > 90 || user.Index < 0 || user.Index >= 50 {
			t.Fatalf("unexpected user %+v", user)
		}
	}
}
