package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"mcphub/pkg/logging"
)

// Supported file formats, chosen by extension.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatTOML = "toml"
)

// DefaultPath returns ~/.config/mcphub/servers.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, DefaultConfigDir, DefaultConfigFile), nil
}

// FormatFor returns the format implied by the extension of path.
func FormatFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported config file extension %q (use .yaml, .yml, .json or .toml)", filepath.Ext(path))
	}
}

// Load reads, parses and validates the configuration file at path.
func Load(path string) (*File, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, newConfigurationError(path, "", ErrorTypeIO, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newConfigurationError(path, format, ErrorTypeIO, err,
				"create the file or pass --config with the path to an existing one")
		}
		return nil, newConfigurationError(path, format, ErrorTypeIO, err)
	}

	f, err := Parse(data, format)
	if err != nil {
		var verrs ValidationErrors
		if errors.As(err, &verrs) {
			return nil, newConfigurationError(path, format, ErrorTypeValidation, err)
		}
		return nil, newConfigurationError(path, format, ErrorTypeParse, err,
			fmt.Sprintf("check the file is valid %s", strings.ToUpper(format)))
	}

	logging.Info("ConfigLoader", "Loaded %d servers from %s", len(f.Servers), path)
	return f, nil
}

// Parse decodes data in the given format and validates the result.
func Parse(data []byte, format string) (*File, error) {
	var f File

	switch format {
	case FormatYAML, FormatJSON:
		// JSON is valid YAML.
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}
