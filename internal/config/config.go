// Package config loads jen run settings from a JSON or YAML file and merges
// them with command line flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Keys accepted in config files and used to report which flags were set.
const (
	KeyTemplate = "template"
	KeyAmount   = "amount"
	KeyWorkers  = "workers"
	KeyLimit    = "limit"
	KeyCombine  = "combine"
	KeyPretty   = "pretty"
	KeyTextual  = "textual"
	KeyOutput   = "output"
	KeyBucket   = "bucket"
	KeyProgress = "progress"
	KeyLogLevel = "logLevel"
)

// Config holds every setting a generation run needs.
type Config struct {
	Template string `json:"template" yaml:"template"`
	Amount   int    `json:"amount" yaml:"amount"`
	Workers  int    `json:"workers" yaml:"workers"`
	Limit    uint64 `json:"limit" yaml:"limit"`
	Combine  bool   `json:"combine" yaml:"combine"`
	Pretty   bool   `json:"pretty" yaml:"pretty"`
	Textual  bool   `json:"textual" yaml:"textual"`
	Output   string `json:"output" yaml:"output"`
	Bucket   string `json:"bucket" yaml:"bucket"`
	Progress bool   `json:"progress" yaml:"progress"`
	LogLevel string `json:"logLevel" yaml:"logLevel"`
}

// Default returns the settings used when neither a file nor a flag says
// otherwise. Zero workers means one per CPU.
func Default() Config {
	return Config{
		Amount:   1,
		LogLevel: "warn",
	}
}

// Load reads a config file. JSON is tried first, then YAML.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config: path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes config data; source is only used in error messages.
func Parse(data []byte, source string) (Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Config{}, fmt.Errorf("config: file %s is empty", source)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err == nil {
		return cfg, nil
	}
	cfg = Default()
	if err := yaml.Unmarshal(data, &cfg); err == nil {
		return cfg, nil
	}
	return Config{}, fmt.Errorf("config: parse %s: invalid JSON or YAML", source)
}

// Merge returns c with the fields named in set taken from override. Flags
// that were set explicitly always beat file values.
func (c Config) Merge(override Config, set map[string]bool) Config {
	out := c
	if set[KeyTemplate] {
		out.Template = override.Template
	}
	if set[KeyAmount] {
		out.Amount = override.Amount
	}
	if set[KeyWorkers] {
		out.Workers = override.Workers
	}
	if set[KeyLimit] {
		out.Limit = override.Limit
	}
	if set[KeyCombine] {
		out.Combine = override.Combine
	}
	if set[KeyPretty] {
		out.Pretty = override.Pretty
	}
	if set[KeyTextual] {
		out.Textual = override.Textual
	}
	if set[KeyOutput] {
		out.Output = override.Output
	}
	if set[KeyBucket] {
		out.Bucket = override.Bucket
	}
	if set[KeyProgress] {
		out.Progress = override.Progress
	}
	if set[KeyLogLevel] {
		out.LogLevel = override.LogLevel
	}
	return out
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Template) == "" {
		return errors.New("config: template is required")
	}
	if c.Amount < 0 {
		return fmt.Errorf("config: amount must not be negative, got %d", c.Amount)
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must not be negative, got %d", c.Workers)
	}
	out, err := ParseOutput(c.Output)
	if err != nil {
		return err
	}
	if out.Kind == OutputBolt && c.Combine {
		return errors.New("config: combine cannot be used with bolt output")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. An empty value means warn.
func (c Config) Level() (slog.Level, error) {
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// OutputKind tells where documents go.
type OutputKind string

const (
	OutputStdout OutputKind = "stdout"
	OutputFile   OutputKind = "file"
	OutputBolt   OutputKind = "bolt"
)

// Output is a parsed output target.
type Output struct {
	Kind OutputKind
	Path string
}

// ParseOutput understands "" and "-" (stdout), "bolt:<path>" and a plain
// file path.
func ParseOutput(raw string) (Output, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "" || raw == "-":
		return Output{Kind: OutputStdout}, nil
	case strings.HasPrefix(raw, "bolt:"):
		path := strings.TrimPrefix(raw, "bolt:")
		if path == "" {
			return Output{}, errors.New("config: bolt output needs a database path")
		}
		return Output{Kind: OutputBolt, Path: path}, nil
	default:
		return Output{Kind: OutputFile, Path: raw}, nil
	}
}
