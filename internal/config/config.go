// Package config loads the coursebook configuration file.
package config

import (
	"errors"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"coursebook/internal/layout"
)

var (
	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")
	// ErrConfigParseFailed is returned when the config file is not valid YAML.
	ErrConfigParseFailed = zerr.New("failed to parse config file")
	// ErrConfigInvalid is returned when a value fails validation.
	ErrConfigInvalid = zerr.New("invalid configuration")
)

// Config is the root of the configuration file.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	HTTP     HTTPConfig     `yaml:"http"`
	MCP      MCPConfig      `yaml:"mcp"`
	Layout   layout.Config  `yaml:"layout"`
	Importer ImporterConfig `yaml:"importer"`
	Export   ExportConfig   `yaml:"export"`
	Log      LogConfig      `yaml:"log"`
}

type StorageConfig struct {
	Driver   string `yaml:"driver" validate:"oneof=sqlite postgres mysql mongo"`
	DSN      string `yaml:"dsn" validate:"required"`
	Database string `yaml:"database" validate:"required_if=Driver mongo"` // mongo only
}

type HTTPConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Addr            string        `yaml:"addr" validate:"required_if=Enabled true"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" validate:"gte=0"`
}

type MCPConfig struct {
	RequireApproval bool          `yaml:"requireApproval"`
	ApprovalTimeout time.Duration `yaml:"approvalTimeout" validate:"gte=0"`
}

type ImporterConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Dir      string        `yaml:"dir" validate:"required_if=Enabled true"`
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

type ExportConfig struct {
	Dir      string `yaml:"dir" validate:"required_with=Schedule"`
	Schedule string `yaml:"schedule"` // cron expression; empty disables scheduled exports
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Storage:  StorageConfig{Driver: "sqlite", DSN: "data/coursebook.db"},
		HTTP:     HTTPConfig{Enabled: true, Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		MCP:      MCPConfig{ApprovalTimeout: 2 * time.Minute},
		Layout:   layout.DefaultConfig(),
		Importer: ImporterConfig{Dir: "data/import", Debounce: 500 * time.Millisecond},
		Export:   ExportConfig{Dir: "data/export"},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults and validates the result. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		// #nosec G304 -- path comes from the command line
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, zerr.With(zerr.Wrap(err, ErrConfigReadFailed.Error()), "path", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, zerr.With(zerr.Wrap(err, ErrConfigParseFailed.Error()), "path", path)
		}
	}
	if err := cfg.Validate(); err != nil {
		if path != "" {
			err = zerr.With(err, "path", path)
		}
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every section. The first failing field is reported.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return zerr.With(zerr.With(ErrConfigInvalid, "field", fe.Namespace()), "rule", fe.Tag())
	}
	return zerr.Wrap(err, ErrConfigInvalid.Error())
}
