package scaffold

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-jen/pkg/helper"
	"github.com/goliatone/go-jen/pkg/template"
)

const petstore = `
openapi: 3.0.0
info:
  title: Pets
  version: 1.0.0
paths: {}
components:
  schemas:
    Pet:
      type: object
      required: [id, name]
      properties:
        id:
          type: string
          format: uuid
        name:
          type: string
        status:
          type: string
          enum: [available, "pending \"soon\"", sold]
        age:
          type: integer
          minimum: 1
          maximum: 20
        weight:
          type: number
          minimum: 0.5
          maximum: 80
        vaccinated:
          type: boolean
        bornAt:
          type: string
          format: date-time
        owner:
          $ref: '#/components/schemas/Owner'
        tags:
          type: array
          minItems: 3
          items:
            type: string
    Owner:
      type: object
      properties:
        email:
          type: string
          format: email
        city:
          type: string
        pets:
          type: array
          items:
            $ref: '#/components/schemas/Pet'
`

func render(t *testing.T, text string) map[string]any {
	t.Helper()
	tpl, err := template.Compile(context.Background(), template.SourceFromString("scaffold", text), helper.Builtin())
	if err != nil {
		t.Fatalf("compile scaffolded template: %v\n%s", err, text)
	}
	out, err := tpl.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("scaffolded document is not JSON: %v\n%s", err, out)
	}
	return doc
}

func TestFromOpenAPI_ProducesSchemaShapedDocuments(t *testing.T) {
	text, err := FromOpenAPI(context.Background(), []byte(petstore), "Pet")
	if err != nil {
		t.Fatalf("scaffold: %v", err)
	}

	uuidPattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	for i := 0; i < 50; i++ {
		doc := render(t, text)

		if id, _ := doc["id"].(string); !uuidPattern.MatchString(id) {
			t.Fatalf("id %q is not a uuid", doc["id"])
		}
		switch doc["status"] {
		case "available", `pending "soon"`, "sold":
		default:
			t.Fatalf("status %v is not an enum member", doc["status"])
		}
		if age, _ := doc["age"].(float64); age < 1 || age > 20 || age != float64(int(age)) {
			t.Fatalf("age %v outside [1, 20]", doc["age"])
		}
		if weight, _ := doc["weight"].(float64); weight < 0.5 || weight > 80 {
			t.Fatalf("weight %v outside [0.5, 80]", doc["weight"])
		}
		if _, ok := doc["vaccinated"].(bool); !ok {
			t.Fatalf("vaccinated %v is not a bool", doc["vaccinated"])
		}
		if _, err := time.Parse(time.RFC3339, doc["bornAt"].(string)); err != nil {
			t.Fatalf("bornAt: %v", err)
		}
		if tags, _ := doc["tags"].([]any); len(tags) != 3 {
			t.Fatalf("expected 3 tags, got %v", doc["tags"])
		}

		owner, ok := doc["owner"].(map[string]any)
		if !ok {
			t.Fatalf("owner is not an object: %v", doc["owner"])
		}
		if email, _ := owner["email"].(string); !strings.Contains(email, "@") {
			t.Fatalf("owner email %q", owner["email"])
		}
		pets, _ := owner["pets"].([]any)
		if len(pets) != 2 || pets[0] != nil || pets[1] != nil {
			t.Fatalf("recursive pets should break the cycle with null, got %v", owner["pets"])
		}
	}
}

func TestFromOpenAPI_RespectsDepthAndItems(t *testing.T) {
	text, err := FromOpenAPI(context.Background(), []byte(petstore), "Owner", WithMaxDepth(1), WithItems(1))
	if err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	doc := render(t, text)
	pets, _ := doc["pets"].([]any)
	if len(pets) != 1 || pets[0] != nil {
		t.Fatalf("expected one truncated pet, got %v", doc["pets"])
	}
}

func TestFromOpenAPI_ControlCharactersInPropertyNames(t *testing.T) {
	const doc = `{
  "openapi": "3.0.0",
  "info": {"title": "Odd", "version": "1.0.0"},
  "paths": {},
  "components": {"schemas": {"Odd": {"type": "object", "properties": {
    "bell\u0007": {"type": "boolean"},
    "del\u007f": {"type": "boolean"},
    "quote\"tab\t": {"type": "boolean"}
  }}}}
}`
	text, err := FromOpenAPI(context.Background(), []byte(doc), "Odd")
	if err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	got := render(t, text)
	for _, key := range []string{"bell\a", "del\x7f", "quote\"tab\t"} {
		if _, ok := got[key].(bool); !ok {
			t.Fatalf("expected boolean under %q, got %v", key, got)
		}
	}
}

func TestFromOpenAPI_UnknownSchema(t *testing.T) {
	_, err := FromOpenAPI(context.Background(), []byte(petstore), "Store")
	if !errors.Is(err, ErrSchemaNotFound) {
		t.Fatalf("expected ErrSchemaNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "Owner, Pet") {
		t.Fatalf("error should list available schemas: %v", err)
	}
}

func TestSchemas(t *testing.T) {
	names, err := Schemas(context.Background(), []byte(petstore))
	if err != nil {
		t.Fatalf("schemas: %v", err)
	}
	if diff := cmp.Diff([]string{"Owner", "Pet"}, names); diff != "" {
		t.Fatalf("schema names mismatch (-want +got):\n%s", diff)
	}

	if _, err := Schemas(context.Background(), nil); err == nil {
		t.Fatalf("expected empty payload to fail")
	}
}

func TestStringExpr(t *testing.T) {
	cases := map[string]string{
		"firstName":  `"{{ firstName() }}"`,
		"first_name": `"{{ firstName() }}"`,
		"user_email": `"{{ email() }}"`,
		"zip":        `"{{ zip() }}"`,
		"anything":   `"{{ word() }}"`,
	}
	for name, want := range cases {
		if got := stringExpr(&openapi3.Schema{}, name); got != want {
			t.Errorf("%s: expected %s, got %s", name, want, got)
		}
	}
}
