package helper

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistry_LatestRegistrationWins(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(New("greet", func(Args) (any, error) { return "hello", nil }))
	reg.MustRegister(New("greet", func(Args) (any, error) { return "hi", nil }))

	v, err := reg.Call("greet", nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if v != "hi" {
		t.Fatalf("expected latest registration to win, got %v", v)
	}
	if diff := cmp.Diff([]string{"greet"}, reg.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_RejectsInvalidHelpers(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(nil); err == nil {
		t.Fatalf("expected nil helper to be rejected")
	}
	if err := reg.Register(New("not-valid", nil)); err == nil {
		t.Fatalf("expected dashed name to be rejected")
	}
	bad := New("pick", nil, Param{Name: "rest", Variadic: true}, Param{Name: "last"})
	if err := reg.Register(bad); err == nil {
		t.Fatalf("expected non-trailing variadic param to be rejected")
	}
}

func TestRegistry_UnknownHelper(t *testing.T) {
	reg := Builtin()

	_, err := reg.Call("nope", nil)
	if !errors.Is(err, ErrUnknownHelper) {
		t.Fatalf("expected ErrUnknownHelper, got %v", err)
	}
	if _, err := reg.Invoke("nope"); !errors.Is(err, ErrUnknownHelper) {
		t.Fatalf("expected ErrUnknownHelper from Invoke, got %v", err)
	}
}

func TestRegistry_CallRejectsUndeclaredArguments(t *testing.T) {
	reg := Builtin()

	_, err := reg.Call("integer", Args{"begin": 1})
	var argErr *ArgumentError
	if !errors.As(err, &argErr) || argErr.Param != "begin" {
		t.Fatalf("expected ArgumentError for begin, got %v", err)
	}
}

func TestBind(t *testing.T) {
	pair := New("pair", nil, Param{Name: "left", Required: true}, Param{Name: "right"})
	pick := New("pick", nil, Param{Name: "first"}, Param{Name: "rest", Variadic: true})

	cases := []struct {
		name   string
		helper Helper
		values []any
		want   Args
		errArg string
	}{
		{
			name:   "positional",
			helper: pair,
			values: []any{1, 2},
			want:   Args{"left": 1, "right": 2},
		},
		{
			name:   "optional omitted",
			helper: pair,
			values: []any{1},
			want:   Args{"left": 1},
		},
		{
			name:   "nil leaves default",
			helper: pair,
			values: []any{1, nil},
			want:   Args{"left": 1},
		},
		{
			name:   "missing required",
			helper: pair,
			values: nil,
			errArg: "left",
		},
		{
			name:   "variadic collects rest",
			helper: pick,
			values: []any{"a", "b", "c"},
			want:   Args{"first": "a", "rest": []any{"b", "c"}},
		},
		{
			name:   "variadic empty",
			helper: pick,
			values: []any{"a"},
			want:   Args{"first": "a", "rest": []any{}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Bind(tc.helper, tc.values)
			if tc.errArg != "" {
				var argErr *ArgumentError
				if !errors.As(err, &argErr) || argErr.Param != tc.errArg {
					t.Fatalf("expected ArgumentError for %q, got %v", tc.errArg, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("bind: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBind_TooManyValues(t *testing.T) {
	_, err := Bind(New("uuid", nil), []any{1})
	var argErr *ArgumentError
	if !errors.As(err, &argErr) || argErr.Param != "" {
		t.Fatalf("expected arity ArgumentError, got %v", err)
	}
}

func TestArgs_Conversions(t *testing.T) {
	args := Args{"i": uint8(7), "f": 3, "s": "x", "bad": -1.0}

	if v, err := args.Int("i", 0); err != nil || v != 7 {
		t.Fatalf("Int: %v %v", v, err)
	}
	if v, err := args.Float("f", 0); err != nil || v != 3 {
		t.Fatalf("Float: %v %v", v, err)
	}
	if v, err := args.String("s", ""); err != nil || v != "x" {
		t.Fatalf("String: %v %v", v, err)
	}
	if v, err := args.Int("bad", 0); err != nil || v != -1 {
		t.Fatalf("integral float should convert: %v %v", v, err)
	}
	if v, err := args.Int("missing", 42); err != nil || v != 42 {
		t.Fatalf("fallback: %v %v", v, err)
	}
	if diff := cmp.Diff([]any{"x"}, args.Values("s")); diff != "" {
		t.Fatalf("scalar Values mismatch:\n%s", diff)
	}
}
