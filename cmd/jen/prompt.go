package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/goliatone/go-jen/internal/config"
)

// errAborted is returned when the user interrupts a prompt.
var errAborted = errors.New("jen: prompt aborted")

// inputConfig configures a basic text input prompt.
type inputConfig struct {
	Message   string
	Default   string
	Help      string
	Validator func(string) error
}

// selectConfig configures a single-select prompt.
type selectConfig struct {
	Message      string
	Options      []string
	DefaultIndex int
	Help         string
}

// prompter abstracts the terminal so interactive flows can be tested without
// one.
type prompter interface {
	Input(ctx context.Context, cfg inputConfig) (string, error)
	Confirm(ctx context.Context, message string, def bool) (bool, error)
	Select(ctx context.Context, cfg selectConfig) (int, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Input(ctx context.Context, cfg inputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
	}
	var opts []survey.AskOpt
	if cfg.Validator != nil {
		opts = append(opts, survey.WithValidator(func(ans any) error {
			s, _ := ans.(string)
			return cfg.Validator(s)
		}))
	}
	if err := survey.AskOne(prompt, &out, opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Select(ctx context.Context, cfg selectConfig) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var out string
	prompt := &survey.Select{
		Message: cfg.Message,
		Options: cfg.Options,
		Help:    cfg.Help,
	}
	if cfg.DefaultIndex >= 0 && cfg.DefaultIndex < len(cfg.Options) {
		prompt.Default = cfg.Options[cfg.DefaultIndex]
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return 0, translateSurveyErr(err)
	}
	return indexOf(cfg.Options, out), nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}

// completeConfig asks for the settings a run cannot start without and that
// neither a flag nor the config file provided.
func completeConfig(ctx context.Context, p prompter, cfg config.Config, set map[string]bool) (config.Config, error) {
	if cfg.Template == "" {
		tpl, err := p.Input(ctx, inputConfig{
			Message:   "Template file or URL:",
			Validator: required,
		})
		if err != nil {
			return cfg, err
		}
		cfg.Template = tpl
	}

	if !set[config.KeyAmount] {
		raw, err := p.Input(ctx, inputConfig{
			Message:   "How many documents?",
			Default:   strconv.Itoa(cfg.Amount),
			Validator: nonNegative,
		})
		if err != nil {
			return cfg, err
		}
		cfg.Amount, _ = strconv.Atoi(raw)
	}

	if !set[config.KeyCombine] && !set[config.KeyTextual] {
		idx, err := p.Select(ctx, selectConfig{
			Message: "Output shape:",
			Options: []string{"one document per line", "single JSON array", "raw text"},
		})
		if err != nil {
			return cfg, err
		}
		cfg.Combine = idx == 1
		cfg.Textual = idx == 2
	}

	if !cfg.Textual && !set[config.KeyPretty] {
		pretty, err := p.Confirm(ctx, "Pretty-print JSON?", cfg.Pretty)
		if err != nil {
			return cfg, err
		}
		cfg.Pretty = pretty
	}
	return cfg, nil
}

func required(s string) error {
	if s == "" {
		return errors.New("value is required")
	}
	return nil
}

func nonNegative(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("%q is not a non-negative number", s)
	}
	return nil
}
