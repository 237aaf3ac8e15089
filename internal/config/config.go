// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/vasi-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete vasi configuration.
type Config struct {
	API     APIConfig     `toml:"api" json:"api"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	Speech  SpeechConfig  `toml:"speech" json:"speech"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Log     LogConfig     `toml:"log" json:"log"`
}

// APIConfig configures the assistant endpoint.
type APIConfig struct {
	// BaseURL of the assistant API (default: http://127.0.0.1:8000)
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs bounds one request (default: 300)
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// Timeout returns TimeoutSecs as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// StorageConfig configures persistence.
type StorageConfig struct {
	// Backend is "file", "sqlite" or "memory" (default: file)
	Backend string `toml:"backend" json:"backend"`
	// Dir holds the data files (default: ~/.vasi/data)
	Dir string `toml:"dir" json:"dir"`
	// Namespace prefixes every storage key (default: vasi)
	Namespace string `toml:"namespace" json:"namespace"`
}

// SpeechConfig configures voice input and output.
type SpeechConfig struct {
	// Voice is matched against voice names first (default: Google US English)
	Voice string `toml:"voice" json:"voice"`
	// Lang for recognition and synthesis (default: en-US)
	Lang string `toml:"lang" json:"lang"`
	// Rate is relative speech speed (default: 1.0)
	Rate float64 `toml:"rate" json:"rate"`
	// SynthesizerCommand overrides engine detection; text arrives on stdin
	SynthesizerCommand string `toml:"synthesizer_command" json:"synthesizer_command"`
	// RecognizerCommand prints JSON lines {"transcript","is_final"}
	RecognizerCommand string `toml:"recognizer_command" json:"recognizer_command"`
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	// Theme is "dark" or "light" (default: dark)
	Theme string `toml:"theme" json:"theme"`
	// ShowReasoning expands reasoning traces by default
	ShowReasoning bool `toml:"show_reasoning" json:"show_reasoning"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error (default: info)
	Level string `toml:"level" json:"level"`
	// File receives log output; empty means stderr (discarded in the TUI)
	File string `toml:"file" json:"file"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "http://127.0.0.1:8000",
			TimeoutSecs: 300,
		},
		Storage: StorageConfig{
			Backend:   "file",
			Namespace: "vasi",
		},
		Speech: SpeechConfig{
			Voice: "Google US English",
			Lang:  "en-US",
			Rate:  1.0,
		},
		UI: UIConfig{
			Theme: "dark",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the vasi configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".vasi"), nil
}

// ConfigPath returns the path to the default TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir returns the storage directory, resolving the default.
func (c *Config) DataDir() (string, error) {
	if c.Storage.Dir != "" {
		return util.ExpandHome(c.Storage.Dir)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads path (or the default file when path is empty), applies
// environment overrides and validates. A missing file yields defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg and fills missing values.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	fillDefaults(cfg)
	return nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaults.API.BaseURL
	}
	if cfg.API.TimeoutSecs == 0 {
		cfg.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.Storage.Namespace == "" {
		cfg.Storage.Namespace = defaults.Storage.Namespace
	}
	if cfg.Speech.Voice == "" {
		cfg.Speech.Voice = defaults.Speech.Voice
	}
	if cfg.Speech.Lang == "" {
		cfg.Speech.Lang = defaults.Speech.Lang
	}
	if cfg.Speech.Rate == 0 {
		cfg.Speech.Rate = defaults.Speech.Rate
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg as TOML to path (or the default file when empty).
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	var buf bytes.Buffer
	buf.WriteString("# vasi configuration file\n")
	buf.WriteString("# Generated by vasi - edit with care\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validBackends  = []string{"file", "sqlite", "memory"}
	validThemes    = []string{"dark", "light"}
	validLogLevels = []string{"debug", "info", "warn", "warning", "error"}
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{Field: "api.base_url", Message: "must be an http(s) URL with a host"})
	}
	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 3600 {
		errs = append(errs, ValidationError{Field: "api.timeout_secs", Message: "must be between 1 and 3600"})
	}

	if !oneOf(c.Storage.Backend, validBackends) {
		errs = append(errs, ValidationError{Field: "storage.backend", Message: "must be one of " + strings.Join(validBackends, ", ")})
	}
	if c.Storage.Namespace == "" || strings.ContainsAny(c.Storage.Namespace, `/\. `) {
		errs = append(errs, ValidationError{Field: "storage.namespace", Message: "must be a non-empty name without separators"})
	}

	if c.Speech.Rate < 0.1 || c.Speech.Rate > 10 {
		errs = append(errs, ValidationError{Field: "speech.rate", Message: "must be between 0.1 and 10"})
	}

	if !oneOf(c.UI.Theme, validThemes) {
		errs = append(errs, ValidationError{Field: "ui.theme", Message: "must be dark or light"})
	}
	if !oneOf(c.Log.Level, validLogLevels) {
		errs = append(errs, ValidationError{Field: "log.level", Message: "must be debug, info, warn or error"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return true
		}
	}
	return false
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
//   - VASI_API_URL: overrides api.base_url
//   - VASI_STORAGE_BACKEND: overrides storage.backend
//   - VASI_DATA_DIR: overrides storage.dir
//   - VASI_NAMESPACE: overrides storage.namespace
//   - VASI_THEME: overrides ui.theme
//   - VASI_LOG_LEVEL: overrides log.level
//   - VASI_VOICE: overrides speech.voice
func (c *Config) ApplyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{"VASI_API_URL", &c.API.BaseURL},
		{"VASI_STORAGE_BACKEND", &c.Storage.Backend},
		{"VASI_DATA_DIR", &c.Storage.Dir},
		{"VASI_NAMESPACE", &c.Storage.Namespace},
		{"VASI_THEME", &c.UI.Theme},
		{"VASI_LOG_LEVEL", &c.Log.Level},
		{"VASI_VOICE", &c.Speech.Voice},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "api.base_url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "ui.theme").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup walks the struct tree for a dotted key.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("'%s' is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				boolVal = strings.EqualFold(strVal, "yes") || strings.EqualFold(strVal, "on")
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"api.base_url",
		"api.timeout_secs",
		"storage.backend",
		"storage.dir",
		"storage.namespace",
		"speech.voice",
		"speech.lang",
		"speech.rate",
		"speech.synthesizer_command",
		"speech.recognizer_command",
		"ui.theme",
		"ui.show_reasoning",
		"log.level",
		"log.file",
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone returns a copy of the config. All fields are values.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as indented JSON for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig   *Config
	globalConfigMu sync.RWMutex
)

// Global returns the process-wide configuration set by SetGlobal, or
// defaults when none was set. Thread-safe.
func Global() *Config {
	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	if globalConfig == nil {
		return Default()
	}
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
}
