package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds all configurable worklog settings.
type Config struct {
	OllamaURL       string   `json:"ollama_url"`
	Model           string   `json:"model"`
	IntervalSeconds int      `json:"interval_seconds"`
	MaxDiffBytes    int      `json:"max_diff_bytes"` // per-file diff body cap
	TokenBudget     int      `json:"token_budget"`   // whole-prompt cap
	MaxAttempts     int      `json:"max_attempts"`   // summarization retries
	Baseline        string   `json:"baseline"`       // "now" | "inception"
	IgnorePatterns  []string `json:"ignore_patterns"`
}

// BaselineNow seeds the marker from the current dirty state on first run and
// writes no record; BaselineInception summarizes everything currently
// uncommitted on the first tick.
const (
	BaselineNow       = "now"
	BaselineInception = "inception"
)

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		OllamaURL:       "http://localhost:11434",
		Model:           "llama3.2",
		IntervalSeconds: 1800,
		MaxDiffBytes:    64 * 1024,
		TokenBudget:     8000,
		MaxAttempts:     3,
		Baseline:        BaselineNow,
		IgnorePatterns:  []string{},
	}
}

// LoadGlobal reads ~/.config/worklog/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(home, ".config", "worklog", "config.json")
	return loadFile(path, true)
}

// LoadProject reads .worklogconfig in the given directory.
// Returns nil (no error) if the file is absent.
func LoadProject(dir string) (*Config, error) {
	return loadFile(filepath.Join(dir, ".worklogconfig"), false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, c := range []*Config{global, project} {
		if c == nil {
			continue
		}
		if c.OllamaURL != "" {
			result.OllamaURL = c.OllamaURL
		}
		if c.Model != "" {
			result.Model = c.Model
		}
		if c.IntervalSeconds > 0 {
			result.IntervalSeconds = c.IntervalSeconds
		}
		if c.MaxDiffBytes > 0 {
			result.MaxDiffBytes = c.MaxDiffBytes
		}
		if c.TokenBudget > 0 {
			result.TokenBudget = c.TokenBudget
		}
		if c.MaxAttempts > 0 {
			result.MaxAttempts = c.MaxAttempts
		}
		if c.Baseline != "" {
			result.Baseline = c.Baseline
		}
		if len(c.IgnorePatterns) > 0 {
			result.IgnorePatterns = c.IgnorePatterns
		}
	}
	return result
}

// Validate rejects values the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Baseline != BaselineNow && c.Baseline != BaselineInception {
		return errors.New(`baseline must be "now" or "inception"`)
	}
	return nil
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
