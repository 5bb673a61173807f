package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cast"
)

// LegacyOptionsFile is the options file written by the older desktop tool
const LegacyOptionsFile = ".tv_renamer_options.json"

// LegacyPath returns ~/.tv_renamer_options.json
func LegacyPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, LegacyOptionsFile), nil
}

// ImportLegacy merges a legacy options file into c. Values in that file are
// loosely typed; any that cannot be coerced are skipped and reported as
// warnings. Keys absent from the file leave c unchanged.
func (c *Config) ImportLegacy(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy options: %w", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse legacy options: %w", err)
	}

	var warnings []string
	warn := func(key string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s: %v", key, err))
	}

	if v, ok := raw["folder"]; ok {
		if s, err := cast.ToStringE(v); err != nil {
			warn("folder", err)
		} else {
			c.Library.RootFolder = s
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"recursive", &c.Library.Recursive},
		{"format_only", &c.Naming.FormatOnly},
		{"write_meta_if_ok", &c.Metadata.WriteTitleTags},
		{"write_nfo", &c.Metadata.WriteNFO},
	}
	for _, b := range bools {
		v, ok := raw[b.key]
		if !ok {
			continue
		}
		parsed, err := cast.ToBoolE(v)
		if err != nil {
			warn(b.key, err)
			continue
		}
		*b.dst = parsed
	}

	if v, ok := raw["dark_mode"]; ok {
		if dark, err := cast.ToBoolE(v); err != nil {
			warn("dark_mode", err)
		} else if dark {
			c.UI.Theme = "dark"
		} else {
			c.UI.Theme = "light"
		}
	}

	// seconds, as a float
	if v, ok := raw["delay"]; ok {
		if secs, err := cast.ToFloat64E(v); err != nil {
			warn("delay", err)
		} else if secs < 0 {
			warn("delay", fmt.Errorf("negative delay %v", secs))
		} else {
			c.Lookup.RequestDelay = time.Duration(secs * float64(time.Second)).String()
		}
	}

	if v, ok := raw["custom_noise_tokens"]; ok {
		tokens, err := cast.ToStringSliceE(v)
		if err != nil {
			warn("custom_noise_tokens", err)
		} else {
			for _, t := range tokens {
				if _, err := c.AddNoiseTokens(t); err != nil {
					warn("custom_noise_tokens", err)
				}
			}
		}
	}

	return warnings, nil
}
