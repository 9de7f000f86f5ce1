// Package scaffold turns an OpenAPI component schema into template text
// whose documents are shaped like that schema. Formats, enums and numeric
// bounds map onto the built-in helpers; property names pick a flavour helper
// when nothing more specific applies.
package scaffold

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrSchemaNotFound is returned when the requested component schema is not
// declared by the document.
var ErrSchemaNotFound = errors.New("scaffold: schema not found")

const (
	defaultMaxDepth = 6
	defaultItems    = 2
	defaultIndent   = "  "
	maxShortID      = 16
)

// Option configures scaffolding.
type Option func(*config)

type config struct {
	maxDepth int
	items    int
	indent   string
}

// WithMaxDepth bounds how deep nested objects and arrays are expanded.
// Anything deeper renders as null.
func WithMaxDepth(depth int) Option {
	return func(cfg *config) {
		if depth > 0 {
			cfg.maxDepth = depth
		}
	}
}

// WithItems sets how many items arrays get when the schema leaves it open.
func WithItems(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.items = n
		}
	}
}

// WithIndent sets the indentation unit of the generated template.
func WithIndent(indent string) Option {
	return func(cfg *config) {
		cfg.indent = indent
	}
}

// Schemas lists the component schema names declared by an OpenAPI document.
func Schemas(ctx context.Context, data []byte) ([]string, error) {
	doc, err := load(ctx, data)
	if err != nil {
		return nil, err
	}
	return schemaNames(doc), nil
}

// FromOpenAPI loads an OpenAPI 3 document and returns template text for the
// named component schema.
func FromOpenAPI(ctx context.Context, data []byte, schema string, options ...Option) (string, error) {
	cfg := &config{maxDepth: defaultMaxDepth, items: defaultItems, indent: defaultIndent}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	doc, err := load(ctx, data)
	if err != nil {
		return "", err
	}
	ref, ok := doc.Components.Schemas[schema]
	if !ok || ref == nil || ref.Value == nil {
		return "", fmt.Errorf("%w: %q (available: %s)", ErrSchemaNotFound, schema, strings.Join(schemaNames(doc), ", "))
	}

	b := &builder{cfg: cfg, visiting: make(map[*openapi3.Schema]bool)}
	b.value(ref.Value, "", 0)
	b.out.WriteString("\n")
	return b.out.String(), nil
}

func load(ctx context.Context, data []byte) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("scaffold: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("scaffold: load document: %w", err)
	}
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return nil, errors.New("scaffold: document declares no component schemas")
	}
	return doc, nil
}

func schemaNames(doc *openapi3.T) []string {
	if doc.Components == nil {
		return nil
	}
	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type builder struct {
	cfg      *config
	out      strings.Builder
	visiting map[*openapi3.Schema]bool
}

func (b *builder) value(schema *openapi3.Schema, name string, depth int) {
	if schema == nil || depth > b.cfg.maxDepth || b.visiting[schema] {
		b.out.WriteString("null")
		return
	}
	b.visiting[schema] = true
	defer delete(b.visiting, schema)

	if len(schema.Enum) > 0 {
		b.out.WriteString(enumCall(schema.Enum))
		return
	}

	switch schemaType(schema) {
	case openapi3.TypeObject:
		b.object(schema, depth)
	case openapi3.TypeArray:
		b.array(schema, name, depth)
	case openapi3.TypeInteger:
		b.out.WriteString(integerCall(schema))
	case openapi3.TypeNumber:
		b.out.WriteString(floatCall(schema))
	case openapi3.TypeBoolean:
		b.out.WriteString("{{ boolean() }}")
	case openapi3.TypeString:
		b.out.WriteString(stringExpr(schema, name))
	default:
		b.out.WriteString("null")
	}
}

func (b *builder) object(schema *openapi3.Schema, depth int) {
	props := properties(schema)
	if len(props) == 0 {
		b.out.WriteString("{}")
		return
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	pad := strings.Repeat(b.cfg.indent, depth+1)
	b.out.WriteString("{\n")
	for i, name := range names {
		b.out.WriteString(pad)
		b.out.Write(jsonKey(name))
		b.out.WriteString(": ")
		var prop *openapi3.Schema
		if ref := props[name]; ref != nil {
			prop = ref.Value
		}
		b.value(prop, name, depth+1)
		if i < len(names)-1 {
			b.out.WriteString(",")
		}
		b.out.WriteString("\n")
	}
	b.out.WriteString(strings.Repeat(b.cfg.indent, depth))
	b.out.WriteString("}")
}

func jsonKey(name string) []byte {
	data, _ := json.Marshal(name)
	return data
}

func (b *builder) array(schema *openapi3.Schema, name string, depth int) {
	if schema.Items == nil || schema.Items.Value == nil {
		b.out.WriteString("[]")
		return
	}
	count := b.cfg.items
	if floor := int(schema.MinItems); floor > count {
		count = floor
	}
	if schema.MaxItems != nil && int(*schema.MaxItems) < count {
		count = int(*schema.MaxItems)
	}
	if count == 0 {
		b.out.WriteString("[]")
		return
	}

	pad := strings.Repeat(b.cfg.indent, depth+1)
	b.out.WriteString("[\n")
	for i := 0; i < count; i++ {
		b.out.WriteString(pad)
		b.value(schema.Items.Value, singular(name), depth+1)
		if i < count-1 {
			b.out.WriteString(",")
		}
		b.out.WriteString("\n")
	}
	b.out.WriteString(strings.Repeat(b.cfg.indent, depth))
	b.out.WriteString("]")
}

// properties merges allOf members into the schema's own properties and falls
// back to the first oneOf/anyOf alternative.
func properties(schema *openapi3.Schema) map[string]*openapi3.SchemaRef {
	merged := make(map[string]*openapi3.SchemaRef, len(schema.Properties))
	for name, ref := range schema.Properties {
		merged[name] = ref
	}
	for _, ref := range schema.AllOf {
		if ref == nil || ref.Value == nil {
			continue
		}
		for name, prop := range properties(ref.Value) {
			if _, exists := merged[name]; !exists {
				merged[name] = prop
			}
		}
	}
	if len(merged) == 0 {
		for _, alts := range []openapi3.SchemaRefs{schema.OneOf, schema.AnyOf} {
			if len(alts) > 0 && alts[0] != nil && alts[0].Value != nil {
				return properties(alts[0].Value)
			}
		}
	}
	return merged
}

func schemaType(schema *openapi3.Schema) string {
	if schema.Type != nil {
		for _, t := range schema.Type.Slice() {
			if t != openapi3.TypeNull {
				return t
			}
		}
	}
	switch {
	case len(schema.Properties) > 0 || len(schema.AllOf) > 0 || len(schema.OneOf) > 0 || len(schema.AnyOf) > 0:
		return openapi3.TypeObject
	case schema.Items != nil:
		return openapi3.TypeArray
	}
	return ""
}

func integerCall(schema *openapi3.Schema) string {
	lo, hi := 0.0, 1000.0
	if schema.Min != nil {
		lo = math.Ceil(*schema.Min)
		if schema.ExclusiveMin {
			lo++
		}
	}
	if schema.Max != nil {
		hi = math.Floor(*schema.Max)
		if schema.ExclusiveMax {
			hi--
		}
	}
	if schema.Min != nil && schema.Max == nil {
		hi = lo + 1000
	}
	if schema.Max != nil && schema.Min == nil {
		lo = math.Min(0, hi)
	}
	return fmt.Sprintf("{{ integer(%s, %s) }}", formatNumber(lo), formatNumber(hi))
}

func floatCall(schema *openapi3.Schema) string {
	lo, hi := 0.0, 1000.0
	if schema.Min != nil {
		lo = *schema.Min
	}
	if schema.Max != nil {
		hi = *schema.Max
	}
	if schema.Min != nil && schema.Max == nil {
		hi = lo + 1000
	}
	if schema.Max != nil && schema.Min == nil {
		lo = math.Min(0, hi)
	}
	return fmt.Sprintf("{{ float(%s, %s) }}", formatFloat(lo), formatFloat(hi))
}

func formatNumber(v float64) string {
	return strconv.FormatInt(int64(v), 10)
}

// formatFloat always carries a decimal point so the template passes a float.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

var formatHelpers = map[string]string{
	"email":     `"{{ email() }}"`,
	"uuid":      `"{{ uuid() }}"`,
	"date-time": `"{{ timestamp()|rfc3339 }}"`,
	"date":      `"{{ timestamp()|rfc3339|slice:":10" }}"`,
	"hostname":  `"{{ domain() }}"`,
	"uri":       `"https://{{ domain() }}/{{ word() }}"`,
	"url":       `"https://{{ domain() }}/{{ word() }}"`,
}

// nameHelpers maps property-name fragments to flavour helpers. Order matters:
// the first fragment contained in the lowercased name wins.
var nameHelpers = []struct {
	fragment string
	helper   string
}{
	{"email", "email"},
	{"username", "username"},
	{"firstname", "firstName"},
	{"lastname", "lastName"},
	{"surname", "lastName"},
	{"company", "company"},
	{"industry", "industry"},
	{"profession", "profession"},
	{"job", "profession"},
	{"name", "name"},
	{"phone", "phone"},
	{"street", "street"},
	{"address", "street"},
	{"city", "city"},
	{"statecode", "stateCode"},
	{"state", "state"},
	{"postcode", "postcode"},
	{"postal", "postcode"},
	{"zip", "zip"},
	{"domain", "domain"},
	{"agent", "userAgent"},
	{"title", "title"},
	{"description", "paragraph"},
	{"summary", "sentence"},
	{"bio", "paragraph"},
	{"id", "objectId"},
}

func stringExpr(schema *openapi3.Schema, name string) string {
	if expr, ok := formatHelpers[schema.Format]; ok {
		return expr
	}
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(name))
	for _, candidate := range nameHelpers {
		if key != "" && strings.Contains(key, candidate.fragment) {
			return `"{{ ` + candidate.helper + `() }}"`
		}
	}
	if schema.MaxLength != nil && *schema.MaxLength > 0 && *schema.MaxLength <= maxShortID {
		return fmt.Sprintf(`"{{ shortId(%d) }}"`, *schema.MaxLength)
	}
	return `"{{ word() }}"`
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ", "\r", " ")

// enumCall picks one enum member per document. The json filter keeps strings
// quoted and numbers bare.
func enumCall(values []any) string {
	args := make([]string, 0, len(values))
	for _, v := range values {
		switch value := v.(type) {
		case string:
			args = append(args, `"`+literalEscaper.Replace(value)+`"`)
		case bool:
			args = append(args, strconv.FormatBool(value))
		case float64:
			args = append(args, strconv.FormatFloat(value, 'f', -1, 64))
		case int:
			args = append(args, strconv.Itoa(value))
		case int64:
			args = append(args, strconv.FormatInt(value, 10))
		case nil:
			continue
		default:
			args = append(args, `"`+literalEscaper.Replace(fmt.Sprint(value))+`"`)
		}
	}
	if len(args) == 0 {
		return "null"
	}
	return "{{ random(" + strings.Join(args, ", ") + ")|json }}"
}

func singular(name string) string {
	switch {
	case strings.HasSuffix(name, "ies"):
		return strings.TrimSuffix(name, "ies") + "y"
	case strings.HasSuffix(name, "s") && !strings.HasSuffix(name, "ss"):
		return strings.TrimSuffix(name, "s")
	}
	return name
}
