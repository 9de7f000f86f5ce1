// Package generator turns a compiled template into an endless stream of
// rendered documents.
package generator

import (
	"errors"
	"iter"

	"github.com/goliatone/go-jen/pkg/template"
)

// Renderer produces one document per call. *template.Template satisfies it.
type Renderer interface {
	Render() (string, error)
}

var _ Renderer = (*template.Template)(nil)

// Stream pulls documents from a single template. Each Next re-renders the
// template against an empty context, so successive documents differ as far as
// the helpers are random. A Stream never ends on its own; callers decide how
// many documents to pull. It is not safe for concurrent use: each worker
// owns its own Stream.
type Stream struct {
	r       Renderer
	emitted uint64
}

// New wraps r in a Stream.
func New(r Renderer) (*Stream, error) {
	if r == nil {
		return nil, errors.New("generator: renderer is required")
	}
	return &Stream{r: r}, nil
}

// Next renders the next document.
func (s *Stream) Next() (string, error) {
	doc, err := s.r.Render()
	if err != nil {
		return "", err
	}
	s.emitted++
	return doc, nil
}

// Take pulls n documents, stopping at the first error. The documents rendered
// before the failure are returned alongside it.
func (s *Stream) Take(n int) ([]string, error) {
	docs := make([]string, 0, max(n, 0))
	for i := 0; i < n; i++ {
		doc, err := s.Next()
		if err != nil {
			return docs, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// All yields documents until the consumer stops ranging or a render fails;
// the failing error is yielded once and ends the sequence.
func (s *Stream) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			doc, err := s.Next()
			if !yield(doc, err) || err != nil {
				return
			}
		}
	}
}

// Emitted reports how many documents the stream has rendered successfully.
func (s *Stream) Emitted() uint64 {
	return s.emitted
}
