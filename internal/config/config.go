// Package config loads the redline configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roach88/redline/internal/engine"
)

// DefaultPath is where the CLI looks for a configuration file.
const DefaultPath = "redline.yaml"

// Config holds settings shared by every command. Command-line flags
// override file values.
type Config struct {
	// Database is the SQLite batch log. Empty disables recording.
	Database string `yaml:"database"`

	// Format is the output format: text or json.
	Format string `yaml:"format" validate:"oneof=text json"`

	Verbose bool `yaml:"verbose"`

	// MaxActions is the batch size quota. Zero disables it.
	MaxActions int `yaml:"max_actions" validate:"gte=0"`

	HighlightColor string `yaml:"highlight_color" validate:"required"`

	// TrackChanges runs every batch with change tracking on.
	TrackChanges bool `yaml:"track_changes"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Format:         "text",
		MaxActions:     engine.DefaultMaxActions,
		HighlightColor: engine.DefaultHighlightColor,
		TrackChanges:   true,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the file at path over the defaults. A missing file is not an
// error: the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s: invalid value %v (%s)", fe.Field(), fe.Value(), fe.Tag())
		}
		return err
	}
	return nil
}
