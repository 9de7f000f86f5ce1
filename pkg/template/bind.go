package template

import (
	"math"
	"strconv"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-jen/pkg/helper"
)

// callState remembers the first helper failure of one render. The engine
// flattens function errors into strings, so the typed error is kept here.
type callState struct {
	err error
}

func (s *callState) record(err error) {
	if s.err == nil {
		s.err = err
	}
}

// bindHelpers exposes every helper as a callable in a fresh render context.
func bindHelpers(helpers map[string]helper.Helper, state *callState) pongo2.Context {
	ctx := make(pongo2.Context, len(helpers))
	for name, h := range helpers {
		ctx[name] = bindHelper(h, state)
	}
	return ctx
}

func bindHelper(h helper.Helper, state *callState) func(args ...*pongo2.Value) (*pongo2.Value, error) {
	return func(args ...*pongo2.Value) (*pongo2.Value, error) {
		values := make([]any, len(args))
		for i, arg := range args {
			if arg == nil || arg.IsNil() {
				continue
			}
			values[i] = arg.Interface()
		}

		bound, err := helper.Bind(h, values)
		if err != nil {
			err = &helper.CallError{Helper: h.Name(), Err: err}
			state.record(err)
			return nil, err
		}
		value, err := h.Call(bound)
		if err != nil {
			err = &helper.CallError{Helper: h.Name(), Err: err}
			state.record(err)
			return nil, err
		}
		return pongo2.AsValue(displayValue(value)), nil
	}
}

// jsonBool prints as true/false while still behaving as a bool in
// conditions.
type jsonBool bool

func (b jsonBool) String() string {
	return strconv.FormatBool(bool(b))
}

// jsonFloat prints in the shortest form that round-trips, switching to
// exponent notation for very large or small magnitudes.
type jsonFloat float64

func (f jsonFloat) String() string {
	v := float64(f)
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func displayValue(v any) any {
	switch value := v.(type) {
	case bool:
		return jsonBool(value)
	case float64:
		return jsonFloat(value)
	case float32:
		return jsonFloat(value)
	}
	return v
}
