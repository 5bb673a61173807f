package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Nomadcxx/ezrename/internal/scanner"
)

// Config holds all ezrename configuration
type Config struct {
	Library  LibraryConfig  `toml:"library"`
	Naming   NamingConfig   `toml:"naming"`
	Metadata MetadataConfig `toml:"metadata"`
	Lookup   LookupConfig   `toml:"lookup"`
	UI       UIConfig       `toml:"ui"`
	Log      LogConfig      `toml:"log"`
	Restore  RestoreConfig  `toml:"restore"`
}

// LibraryConfig is the folder scanned when no path is given
type LibraryConfig struct {
	RootFolder string `toml:"root_folder"`
	Recursive  bool   `toml:"recursive"`
}

// NamingConfig controls parsing and target names
type NamingConfig struct {
	CustomNoiseTokens []string `toml:"custom_noise_tokens"`
	FormatOnly        bool     `toml:"format_only"`     // reformat without lookups
	FolderFallback    bool     `toml:"folder_fallback"` // guess the show from the parent folder
}

// MetadataConfig toggles are carried for external tag/NFO writers
type MetadataConfig struct {
	WriteTitleTags bool `toml:"write_title_tags"`
	WriteNFO       bool `toml:"write_nfo"`
}

// LookupConfig selects and tunes the metadata provider
type LookupConfig struct {
	Provider     string `toml:"provider"`
	BaseURL      string `toml:"base_url"`
	RequestDelay string `toml:"request_delay"` // Go duration, e.g. "400ms"
	Retries      int    `toml:"retries"`
}

type UIConfig struct {
	Theme string `toml:"theme"` // dark, light
}

type LogConfig struct {
	Level string `toml:"level"` // quiet, normal, verbose
}

// RestoreConfig locates the restore log; empty means the default location
type RestoreConfig struct {
	DBPath string `toml:"db_path"`
}

const (
	ProviderTVMaze = "tvmaze"
	DefaultBaseURL = "https://api.tvmaze.com"
)

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Library: LibraryConfig{
			Recursive: true,
		},
		Naming: NamingConfig{
			CustomNoiseTokens: []string{},
		},
		Metadata: MetadataConfig{
			WriteTitleTags: true,
		},
		Lookup: LookupConfig{
			Provider:     ProviderTVMaze,
			BaseURL:      DefaultBaseURL,
			RequestDelay: "400ms",
			Retries:      1,
		},
		UI: UIConfig{
			Theme: "dark",
		},
		Log: LogConfig{
			Level: "normal",
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}

	return filepath.Join(configDir, "ezrename", "config.toml"), nil
}

func ensureDir(configFile string) error {
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// Load reads the default config file, creating it with defaults if it
// doesn't exist
func Load() (*Config, error) {
	configFile, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configFile)
}

// LoadFrom reads configFile. Keys missing from the file keep their defaults.
func LoadFrom(configFile string) (*Config, error) {
	if err := ensureDir(configFile); err != nil {
		return nil, err
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := SaveTo(cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(configFile, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to the default location
func Save(cfg *Config) error {
	configFile, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, configFile)
}

// SaveTo writes the config to configFile
func SaveTo(cfg *Config, configFile string) error {
	if err := ensureDir(configFile); err != nil {
		return err
	}

	f, err := os.Create(configFile)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Lookup.Provider != ProviderTVMaze {
		return fmt.Errorf("invalid lookup provider: %s (must be %s)", c.Lookup.Provider, ProviderTVMaze)
	}

	if _, err := c.RequestDelay(); err != nil {
		return err
	}

	if c.Lookup.Retries < 0 {
		return fmt.Errorf("invalid lookup retries: %d", c.Lookup.Retries)
	}

	if c.UI.Theme != "dark" && c.UI.Theme != "light" {
		return fmt.Errorf("invalid theme: %s (must be dark or light)", c.UI.Theme)
	}

	if _, err := scanner.ParseLogLevel(c.Log.Level); err != nil {
		return err
	}

	if c.Library.RootFolder != "" {
		info, err := os.Stat(c.Library.RootFolder)
		if err != nil {
			return fmt.Errorf("root folder %s: %w", c.Library.RootFolder, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("root folder %s is not a directory", c.Library.RootFolder)
		}
	}

	return nil
}

// RequestDelay parses the lookup delay
func (c *Config) RequestDelay() (time.Duration, error) {
	if c.Lookup.RequestDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Lookup.RequestDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid request delay %q: %w", c.Lookup.RequestDelay, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid request delay %q: must not be negative", c.Lookup.RequestDelay)
	}
	return d, nil
}

// AddNoiseTokens adds custom noise tokens from free text (commas or
// whitespace separate tokens) and returns how many were new
func (c *Config) AddNoiseTokens(input string) (int, error) {
	tokens := scanner.ParseTokenList(input)
	if len(tokens) == 0 {
		return 0, fmt.Errorf("no tokens in %q", input)
	}

	existing := make(map[string]bool, len(c.Naming.CustomNoiseTokens))
	for _, t := range c.Naming.CustomNoiseTokens {
		existing[t] = true
	}

	added := 0
	for _, t := range tokens {
		if existing[t] {
			continue
		}
		existing[t] = true
		c.Naming.CustomNoiseTokens = append(c.Naming.CustomNoiseTokens, t)
		added++
	}
	sort.Strings(c.Naming.CustomNoiseTokens)

	return added, nil
}

// RemoveNoiseToken removes a custom noise token
func (c *Config) RemoveNoiseToken(token string) error {
	token = strings.ToLower(strings.TrimSpace(token))
	for i, existing := range c.Naming.CustomNoiseTokens {
		if existing == token {
			c.Naming.CustomNoiseTokens = append(c.Naming.CustomNoiseTokens[:i], c.Naming.CustomNoiseTokens[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("token not found: %s", token)
}
