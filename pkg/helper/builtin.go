package helper

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Option configures the built-in catalog.
type Option func(*builtinConfig)

type builtinConfig struct {
	index Sequence
	faker *gofakeit.Faker
	now   func() time.Time
}

// WithIndex injects the Sequence backing the index helper. Sessions pass the
// counter they own so every worker shares it.
func WithIndex(seq Sequence) Option {
	return func(cfg *builtinConfig) {
		if seq != nil {
			cfg.index = seq
		}
	}
}

// WithFaker overrides the fake-data provider used by the flavour helpers.
func WithFaker(f *gofakeit.Faker) Option {
	return func(cfg *builtinConfig) {
		if f != nil {
			cfg.faker = f
		}
	}
}

// WithClock overrides the clock used by the timestamp and objectId helpers.
func WithClock(now func() time.Time) Option {
	return func(cfg *builtinConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// Builtin returns a registry holding the canonical helper catalog: the
// numeric, identifier and choice helpers plus the fake-data flavour helpers.
// Without WithIndex a fresh Counter is created.
func Builtin(options ...Option) *Registry {
	cfg := &builtinConfig{now: time.Now}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	if cfg.index == nil {
		cfg.index = NewCounter()
	}
	if cfg.faker == nil {
		cfg.faker = gofakeit.New(0)
	}

	reg := NewRegistry(Core(cfg.index, cfg.now)...)
	for _, h := range Fake(cfg.faker) {
		reg.MustRegister(h)
	}
	return reg
}
