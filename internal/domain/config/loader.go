package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file syntax.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// SearchPaths are tried in order when no file is given explicitly.
var SearchPaths = []string{
	"/etc/crostini-setup/config.yaml",
	"/etc/crostini-setup/config.yml",
	"/etc/crostini-setup/config.toml",
}

// FormatFor picks the syntax from the file extension.
func FormatFor(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	default:
		return "", false
	}
}

// Locate returns the first existing search path, or "" when none exists.
func Locate(exists func(string) bool) string {
	for _, p := range SearchPaths {
		if exists(p) {
			return p
		}
	}
	return ""
}

// Load reads the file at path over the defaults and validates the result.
// An empty path yields the validated defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Defaults()
		return cfg, cfg.Validate()
	}

	format, ok := FormatFor(path)
	if !ok {
		return nil, NewUnsupportedFormatError(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewConfigNotFoundError(path)
		}
		return nil, err
	}

	cfg, err := Parse(data, format)
	if err != nil {
		return nil, NewConfigParseError(path, format, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data over the defaults. Unknown keys are rejected; keys that
// are absent keep their default values.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Defaults()

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, errors.New(strict.String())
			}
			return nil, err
		}
	default:
		return nil, NewUnsupportedFormatError(string(format))
	}

	return cfg, nil
}

// Marshal encodes the configuration in the given format.
func (c *Config) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(c)
	case FormatTOML:
		return toml.Marshal(c)
	default:
		return nil, NewUnsupportedFormatError(string(format))
	}
}
