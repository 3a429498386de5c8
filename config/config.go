package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Validatable is an optional interface that config structs can implement
// to validate themselves before being swapped in.
type Validatable interface {
	Validate() error
}

// LoadTOML loads a TOML config file into a struct of type T, starting from
// a copy of defaults. If the file does not exist, it returns the defaults.
// Keys that do not map to a field of T are rejected.
func LoadTOML[T any](path string, defaults *T) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return DecodeTOML(path, data, defaults)
}

// DecodeTOML decodes data the same way LoadTOML decodes a file. name is
// used in error messages only.
func DecodeTOML[T any](name string, data []byte, defaults *T) (*T, error) {
	cfg := new(T)
	if defaults != nil {
		*cfg = *defaults
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", name, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parsing config %s: unknown keys: %s", name, strings.Join(keys, ", "))
	}

	if v, ok := any(cfg).(Validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("validating config %s: %w", name, err)
		}
	}

	return cfg, nil
}
