package testsupport

import (
	"errors"
	"testing"
)

func TestSeededRegistry_RepeatsFlavourHelpers(t *testing.T) {
	const text = `{{ firstName() }} {{ lastName() }} from {{ city() }}`

	first := MustRender(t, MustCompile(t, SeededRegistry(42), text))
	second := MustRender(t, MustCompile(t, SeededRegistry(42), text))
	if first != second {
		t.Fatalf("seeded registries diverged: %q vs %q", first, second)
	}
}

func TestCompareJSON(t *testing.T) {
	if diff := CompareJSON([]byte(`{"a": [1, 2]}`), []byte("{\n  \"a\": [1,2]\n}")); diff != "" {
		t.Fatalf("formatting should not matter:\n%s", diff)
	}
	if diff := CompareJSON([]byte(`{"a": 1}`), []byte(`{"a": 2}`)); diff == "" {
		t.Fatalf("expected a diff")
	}
}

func TestFlakySink(t *testing.T) {
	inner := MemorySink()
	s := &FlakySink{Budget: 2, Inner: inner}
	for i := 0; i < 2; i++ {
		if err := s.Write(Context(), "doc"); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := s.Write(Context(), "doc"); !errors.Is(err, ErrSinkFull) {
		t.Fatalf("expected ErrSinkFull, got %v", err)
	}
	if inner.Len() != 2 {
		t.Fatalf("expected 2 forwarded docs, got %d", inner.Len())
	}
}

func TestDecodeDocuments(t *testing.T) {
	docs := DecodeDocuments(t, []string{`{"n": 1}`, `{"n": 2}`})
	if len(docs) != 2 || docs[1]["n"] != float64(2) {
		t.Fatalf("unexpected decode %v", docs)
	}
}
