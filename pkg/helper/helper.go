package helper

import (
	"fmt"
	"regexp"
)

// Param declares one named helper parameter. Parameters are ordered: template
// call sites may pass values positionally and Bind assigns them to names in
// declaration order. A Variadic parameter must be last and collects every
// remaining positional value.
type Param struct {
	Name     string
	Required bool
	Variadic bool
}

// Helper is a named function from arguments to a value.
type Helper interface {
	Name() string
	Params() []Param
	Call(args Args) (any, error)
}

// Detacher is implemented by helpers that hold session state. Detach returns
// an equivalent helper bound to private state, used when a template has to be
// exercised without moving the session forward.
type Detacher interface {
	Detach() Helper
}

// Func is the function signature wrapped by New.
type Func func(args Args) (any, error)

type funcHelper struct {
	name   string
	params []Param
	fn     Func
}

// New adapts fn into a Helper with the given name and parameters.
func New(name string, fn Func, params ...Param) Helper {
	return &funcHelper{name: name, params: params, fn: fn}
}

func (h *funcHelper) Name() string { return h.name }

func (h *funcHelper) Params() []Param { return h.params }

func (h *funcHelper) Call(args Args) (any, error) {
	if h.fn == nil {
		return nil, nil
	}
	return h.fn(args)
}

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidName reports whether name can be referenced from a template.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Bind assigns positional values to the helper's declared parameters. Nil
// values leave the matching parameter unset so its default applies.
func Bind(h Helper, values []any) (Args, error) {
	params := h.Params()
	args := make(Args, len(params))

	for i, param := range params {
		if param.Variadic {
			rest := make([]any, 0, len(values))
			if i < len(values) {
				rest = append(rest, values[i:]...)
			}
			args[param.Name] = rest
			return args, nil
		}
		if i < len(values) && values[i] != nil {
			args[param.Name] = values[i]
			continue
		}
		if param.Required {
			return nil, &ArgumentError{Param: param.Name, Reason: "is required"}
		}
	}

	if len(values) > len(params) {
		return nil, &ArgumentError{
			Reason: fmt.Sprintf("accepts at most %d arguments, got %d", len(params), len(values)),
		}
	}
	return args, nil
}

// Check verifies that named arguments only reference declared parameters and
// that required parameters are present.
func Check(h Helper, args Args) error {
	declared := make(map[string]Param, len(h.Params()))
	for _, param := range h.Params() {
		declared[param.Name] = param
		if param.Required && args[param.Name] == nil {
			return &ArgumentError{Param: param.Name, Reason: "is required"}
		}
	}
	for name := range args {
		if _, ok := declared[name]; !ok {
			return &ArgumentError{Param: name, Reason: "is not accepted"}
		}
	}
	return nil
}
