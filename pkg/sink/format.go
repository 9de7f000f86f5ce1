package sink

import (
	"bytes"
	"encoding/json"
	"strings"
)

const defaultIndent = "  "

// Formatter re-renders documents on their way out. JSON documents are
// compacted or pretty-printed; anything that does not parse as JSON is
// passed through untouched. Textual mode skips JSON handling entirely.
type Formatter struct {
	Pretty  bool
	Textual bool
	Indent  string
}

// Format returns the output form of one document, without a trailing newline.
func (f Formatter) Format(doc string) []byte {
	if f.Textual {
		return []byte(doc)
	}
	raw := []byte(strings.TrimSpace(doc))
	if !json.Valid(raw) {
		return []byte(doc)
	}

	var buf bytes.Buffer
	var err error
	if f.Pretty {
		err = json.Indent(&buf, raw, "", f.indent())
	} else {
		err = json.Compact(&buf, raw)
	}
	if err != nil {
		return []byte(doc)
	}
	return buf.Bytes()
}

// Combine aggregates documents into one output. In JSON mode the result is a
// JSON array; documents that are not JSON are embedded as JSON strings. In
// textual mode the documents are joined with newlines.
func (f Formatter) Combine(docs []string) ([]byte, error) {
	if f.Textual {
		return []byte(strings.Join(docs, "\n")), nil
	}

	items := make([]json.RawMessage, len(docs))
	for i, doc := range docs {
		raw := []byte(strings.TrimSpace(doc))
		if json.Valid(raw) {
			items[i] = raw
			continue
		}
		quoted, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		items[i] = quoted
	}

	if f.Pretty {
		return json.MarshalIndent(items, "", f.indent())
	}
	return json.Marshal(items)
}

func (f Formatter) indent() string {
	if f.Indent == "" {
		return defaultIndent
	}
	return f.Indent
}
