package triviacards

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFile is read from the working directory when no path is given
const DefaultConfigFile = "triviacards.toml"

// ServerConfig contains the web front end settings
type ServerConfig struct {
	Listen         string `toml:"listen"`
	SessionKey     string `toml:"session_key"`
	MaxUploadBytes int64  `toml:"max_upload_bytes"`
}

// FilesConfig describes where bundled question files come from. When
// BaseURL is set files are fetched over HTTP, otherwise read from Dir.
type FilesConfig struct {
	Dir         string       `toml:"dir"`
	BaseURL     string       `toml:"base_url"`
	Collections []Collection `toml:"collections"`
}

// CacheConfig controls where loaded file text is held per session
type CacheConfig struct {
	Driver     string `toml:"driver"` // sqlite or memory
	Path       string `toml:"path"`
	TTLMinutes int    `toml:"ttl_minutes"`
}

// LoggingConfig contains configuration for log output
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ExplainConfig enables optional LLM answer explanations
type ExplainConfig struct {
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Config is the full application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Files   FilesConfig   `toml:"files"`
	Cache   CacheConfig   `toml:"cache"`
	Logging LoggingConfig `toml:"logging"`
	Explain ExplainConfig `toml:"explain"`
}

// DefaultConfig returns the settings used when no file overrides them
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Listen:         ":8180",
			MaxUploadBytes: 10 << 20,
		},
		Files: FilesConfig{
			Dir: "public",
			Collections: []Collection{
				{Name: "AnansiSlagalicaQuestions.csv", DisplayName: "Slagalica Questions (Standard)"},
				{Name: "AnansiSlagalicaQuestions-1080p.csv", DisplayName: "Slagalica Questions (1080p)"},
			},
		},
		Cache: CacheConfig{
			Driver:     "sqlite",
			Path:       "./triviacards.db",
			TTLMinutes: 24 * 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Explain: ExplainConfig{
			Model:          "gpt-4o",
			TimeoutSeconds: 30,
		},
	}
}

// LoadConfig reads a TOML config file over the defaults. A missing file is
// not an error when the path was not given explicitly.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("open config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Listen = ":" + port
	}
	if key := os.Getenv("TRIVIA_SESSION_KEY"); key != "" {
		c.Server.SessionKey = key
	}
	if c.Explain.APIKey == "" {
		c.Explain.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	c.Cache.Driver = strings.ToLower(strings.TrimSpace(c.Cache.Driver))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Files.BaseURL = strings.TrimRight(strings.TrimSpace(c.Files.BaseURL), "/")
	for i := range c.Files.Collections {
		if c.Files.Collections[i].DisplayName == "" {
			c.Files.Collections[i].DisplayName = c.Files.Collections[i].Name
		}
	}
}

// Validate reports the first setting that cannot work
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return errors.New("server.listen must be set")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server.max_upload_bytes must be positive")
	}
	switch c.Cache.Driver {
	case "sqlite":
		if c.Cache.Path == "" {
			return errors.New("cache.path must be set for the sqlite driver")
		}
	case "memory":
	default:
		return fmt.Errorf("cache.driver: unsupported value %q", c.Cache.Driver)
	}
	if c.Cache.TTLMinutes <= 0 {
		return errors.New("cache.ttl_minutes must be positive")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	for _, col := range c.Files.Collections {
		if !strings.HasSuffix(col.Name, ".csv") {
			return fmt.Errorf("files.collections: %q is not a .csv file", col.Name)
		}
	}
	if c.Explain.TimeoutSeconds <= 0 {
		return errors.New("explain.timeout_seconds must be positive")
	}
	return nil
}

// CacheTTL is how long a loaded file is kept for an idle session
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// ExplainEnabled reports whether answer explanations can be requested
func (c *Config) ExplainEnabled() bool {
	return c.Explain.APIKey != ""
}

// Collection looks up a configured collection by file name
func (c *Config) Collection(name string) (Collection, bool) {
	for _, col := range c.Files.Collections {
		if col.Name == name {
			return col, true
		}
	}
	return Collection{}, false
}

// Marshal renders the config as TOML
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
