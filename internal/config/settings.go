package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Setting keys.
const (
	KeyDebug           = "DEBUG"
	KeyOutdatedWarning = "OUTDATED-WARNING"
	KeyReference       = "REFERENCE"
)

// ErrUnknownSetting is returned for keys that are not recognised.
var ErrUnknownSetting = errors.New("not a valid setting")

// Settings are the runtime switches of the interpreter.
type Settings struct {
	Debug           bool   `yaml:"DEBUG"`
	OutdatedWarning bool   `yaml:"OUTDATED-WARNING"`
	Reference       string `yaml:"REFERENCE"`
}

// DefaultSettings returns the settings a fresh install starts with.
func DefaultSettings() Settings {
	return Settings{
		Debug:           false,
		OutdatedWarning: true,
		Reference:       "main",
	}
}

// Keys returns the recognised setting keys in display order.
func Keys() []string {
	return []string{KeyDebug, KeyOutdatedWarning, KeyReference}
}

// Set changes one setting. Boolean settings only accept values
// strconv.ParseBool understands.
func (s *Settings) Set(key, value string) error {
	switch strings.ToUpper(key) {
	case KeyDebug:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false, got %q", KeyDebug, value)
		}
		s.Debug = b
	case KeyOutdatedWarning:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false, got %q", KeyOutdatedWarning, value)
		}
		s.OutdatedWarning = b
	case KeyReference:
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s cannot be empty", KeyReference)
		}
		s.Reference = value
	default:
		return fmt.Errorf("`%s` is %w", key, ErrUnknownSetting)
	}
	return nil
}

// Get returns a setting rendered as text.
func (s Settings) Get(key string) (string, error) {
	switch strings.ToUpper(key) {
	case KeyDebug:
		return strconv.FormatBool(s.Debug), nil
	case KeyOutdatedWarning:
		return strconv.FormatBool(s.OutdatedWarning), nil
	case KeyReference:
		return s.Reference, nil
	}
	return "", fmt.Errorf("`%s` is %w", key, ErrUnknownSetting)
}

// Map returns every setting keyed by name.
func (s Settings) Map() map[string]any {
	return map[string]any{
		KeyDebug:           s.Debug,
		KeyOutdatedWarning: s.OutdatedWarning,
		KeyReference:       s.Reference,
	}
}
