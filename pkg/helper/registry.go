package helper

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps helper names to implementations. It is safe for concurrent
// use; registering an existing name replaces the previous helper (the latest
// registration wins).
type Registry struct {
	mu      sync.RWMutex
	helpers map[string]Helper
}

// NewRegistry creates a registry holding the supplied helpers. Invalid
// helpers are skipped; use Register directly to observe the error.
func NewRegistry(helpers ...Helper) *Registry {
	reg := &Registry{helpers: make(map[string]Helper, len(helpers))}
	for _, h := range helpers {
		_ = reg.Register(h)
	}
	return reg
}

// Register adds h under h.Name().
func (r *Registry) Register(h Helper) error {
	if h == nil {
		return fmt.Errorf("helper: helper is required")
	}
	name := h.Name()
	if !ValidName(name) {
		return fmt.Errorf("helper: invalid helper name %q", name)
	}
	for i, param := range h.Params() {
		if param.Variadic && i != len(h.Params())-1 {
			return fmt.Errorf("helper: %q: variadic parameter %q must be last", name, param.Name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.helpers == nil {
		r.helpers = make(map[string]Helper)
	}
	r.helpers[name] = h
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(h Helper) {
	if err := r.Register(h); err != nil {
		panic(err)
	}
}

// Get retrieves a helper by name.
func (r *Registry) Get(name string) (Helper, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.helpers[name]
	return h, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.helpers))
	for name := range r.helpers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered helpers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.helpers)
}

// Call invokes the named helper with named arguments. Failures are wrapped in
// a CallError; unknown names wrap ErrUnknownHelper.
func (r *Registry) Call(name string, args Args) (any, error) {
	h, ok := r.Get(name)
	if !ok {
		return nil, &CallError{Helper: name, Err: ErrUnknownHelper}
	}
	if err := Check(h, args); err != nil {
		return nil, &CallError{Helper: name, Err: err}
	}
	return invoke(h, args)
}

// Invoke binds positional values to the helper's parameters and calls it.
func (r *Registry) Invoke(name string, values ...any) (any, error) {
	h, ok := r.Get(name)
	if !ok {
		return nil, &CallError{Helper: name, Err: ErrUnknownHelper}
	}
	args, err := Bind(h, values)
	if err != nil {
		return nil, &CallError{Helper: name, Err: err}
	}
	return invoke(h, args)
}

func invoke(h Helper, args Args) (any, error) {
	value, err := h.Call(args)
	if err != nil {
		return nil, &CallError{Helper: h.Name(), Err: err}
	}
	return value, nil
}

// Detached returns a copy of the registry in which every stateful helper is
// replaced by its detached counterpart. Pure helpers are shared.
func (r *Registry) Detached() *Registry {
	clone := &Registry{helpers: make(map[string]Helper, r.Len())}
	if r == nil {
		return clone
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, h := range r.helpers {
		if d, ok := h.(Detacher); ok {
			h = d.Detach()
		}
		clone.helpers[name] = h
	}
	return clone
}

// Each calls fn for every helper in name order.
func (r *Registry) Each(fn func(Helper)) {
	for _, name := range r.List() {
		if h, ok := r.Get(name); ok {
			fn(h)
		}
	}
}
