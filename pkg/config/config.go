// Package config loads campaignkit settings.
//
// Settings come from three layers, later layers winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file, by default $XDG_CONFIG_HOME/campaignkit/config.toml
//  3. environment variables, optionally from a .env file in the working directory
//
// API keys are only read from the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/generate"
)

// AppName names config and cache directories.
const AppName = "campaignkit"

// Environment variables.
const (
	EnvArchiveDriver  = "CAMPAIGNKIT_ARCHIVE_DRIVER"
	EnvArchiveDSN     = "CAMPAIGNKIT_ARCHIVE_DSN"
	EnvRegistryDriver = "CAMPAIGNKIT_REGISTRY_DRIVER"
	EnvRegistryDSN    = "CAMPAIGNKIT_REGISTRY_DSN"
	EnvCacheDriver    = "CAMPAIGNKIT_CACHE_DRIVER"
	EnvCacheDir       = "CAMPAIGNKIT_CACHE_DIR"
	EnvRedisAddr      = "CAMPAIGNKIT_REDIS_ADDR"
	EnvAMQPURL        = "CAMPAIGNKIT_AMQP_URL"
	EnvNavigator      = "CAMPAIGNKIT_NAVIGATOR"
	EnvServerAddr     = "CAMPAIGNKIT_SERVER_ADDR"
	EnvGenerator      = "CAMPAIGNKIT_GENERATOR"
	EnvGeminiKey      = "GEMINI_API_KEY"
	EnvOpenAIKey      = "OPENAI_API_KEY"
)

// Config is the full application configuration.
type Config struct {
	Archive  ArchiveConfig   `toml:"archive"`
	Registry RegistryConfig  `toml:"registry"`
	Cache    CacheConfig     `toml:"cache"`
	Generate GenerateConfig  `toml:"generate"`
	Dispatch DispatchConfig  `toml:"dispatch"`
	Server   ServerConfig    `toml:"server"`
	Design   design.Settings `toml:"design"`
}

// ArchiveConfig selects the campaign archive backend.
type ArchiveConfig struct {
	Driver string `toml:"driver"` // memory, file, sqlite, postgres, mongodb
	DSN    string `toml:"dsn"`
}

// RegistryConfig selects the recipient registry.
type RegistryConfig struct {
	Driver string `toml:"driver"` // toml, memory, sqlite, postgres
	DSN    string `toml:"dsn"`    // file path for toml
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Driver   string `toml:"driver"` // file, redis, none
	Dir      string `toml:"dir"`
	Addr     string `toml:"addr"`
	Password string `toml:"-"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// GenerateConfig selects the AI backend.
type GenerateConfig struct {
	Provider     string `toml:"provider"` // gemini, openai, mock
	Model        string `toml:"model"`
	ImageModel   string `toml:"image_model"`
	BaseURL      string `toml:"base_url"`
	GeminiAPIKey string `toml:"-"`
	OpenAIAPIKey string `toml:"-"`
}

// Generator returns the generate.Config for the selected provider.
func (g GenerateConfig) Generator() generate.Config {
	cfg := generate.Config{
		Provider:   g.Provider,
		Model:      g.Model,
		ImageModel: g.ImageModel,
		BaseURL:    g.BaseURL,
	}
	switch strings.ToLower(g.Provider) {
	case "gemini", "google":
		cfg.APIKey = g.GeminiAPIKey
	case "openai":
		cfg.APIKey = g.OpenAIAPIKey
	}
	return cfg
}

// DispatchConfig configures the sequencer's side effects.
type DispatchConfig struct {
	Navigator     string `toml:"navigator"` // browser, log, queue
	Clipboard     bool   `toml:"clipboard"`
	AMQPURL       string `toml:"amqp_url"`
	PublishEvents bool   `toml:"publish_events"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Dir returns the configuration directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", AppName)
	}
	return filepath.Join(os.TempDir(), AppName)
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// DefaultCacheDir returns the default file cache directory.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(os.TempDir(), AppName+"-cache")
}

// Default returns the built-in configuration: everything local, file cache,
// mock generator, browser navigation.
func Default() Config {
	dir := Dir()
	return Config{
		Archive:  ArchiveConfig{Driver: "sqlite", DSN: filepath.Join(dir, "campaigns.db")},
		Registry: RegistryConfig{Driver: "toml", DSN: filepath.Join(dir, "recipients.toml")},
		Cache:    CacheConfig{Driver: "file", Dir: DefaultCacheDir(), Prefix: AppName + ":"},
		Generate: GenerateConfig{Provider: "mock"},
		Dispatch: DispatchConfig{Navigator: "browser", Clipboard: true},
		Server:   ServerConfig{Addr: ":8080"},
		Design:   design.DefaultSettings(),
	}
}

// Load reads the configuration. An empty path uses DefaultPath, which may be
// missing; an explicit path must exist.
func Load(path string) (Config, error) {
	_ = godotenv.Load()
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
		}
	} else if explicit {
		return Config{}, errors.Wrap(errors.ErrCodeNotFound, err, "config file %s", path)
	}

	applyEnv(&cfg, lookup)
	cfg.Design = cfg.Design.Normalize()
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvArchiveDriver, &cfg.Archive.Driver)
	set(EnvArchiveDSN, &cfg.Archive.DSN)
	set(EnvRegistryDriver, &cfg.Registry.Driver)
	set(EnvRegistryDSN, &cfg.Registry.DSN)
	set(EnvCacheDriver, &cfg.Cache.Driver)
	set(EnvCacheDir, &cfg.Cache.Dir)
	set(EnvNavigator, &cfg.Dispatch.Navigator)
	set(EnvServerAddr, &cfg.Server.Addr)
	set(EnvGenerator, &cfg.Generate.Provider)
	set(EnvGeminiKey, &cfg.Generate.GeminiAPIKey)
	set(EnvOpenAIKey, &cfg.Generate.OpenAIAPIKey)
	set("CAMPAIGNKIT_REDIS_PASSWORD", &cfg.Cache.Password)

	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		cfg.Cache.Addr = v
		if _, explicit := lookup(EnvCacheDriver); !explicit {
			cfg.Cache.Driver = "redis"
		}
	}
	if v, ok := lookup("CAMPAIGNKIT_REDIS_DB"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = n
		}
	}
	if v, ok := lookup(EnvAMQPURL); ok && v != "" {
		cfg.Dispatch.AMQPURL = v
		cfg.Dispatch.PublishEvents = true
	}
}

// Validate checks driver names and required settings.
func (c Config) Validate() error {
	if err := oneOf("archive driver", c.Archive.Driver, "memory", "file", "sqlite", "sqlite3", "postgres", "postgresql", "mongodb", "mongo"); err != nil {
		return err
	}
	if err := oneOf("registry driver", c.Registry.Driver, "toml", "memory", "sqlite", "sqlite3", "postgres", "postgresql"); err != nil {
		return err
	}
	if err := oneOf("cache driver", c.Cache.Driver, "file", "redis", "none"); err != nil {
		return err
	}
	if err := oneOf("navigator", c.Dispatch.Navigator, "browser", "log", "queue"); err != nil {
		return err
	}
	if err := oneOf("generator", c.Generate.Provider, "mock", "gemini", "google", "openai"); err != nil {
		return err
	}
	if c.Cache.Driver == "redis" && c.Cache.Addr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "cache driver redis needs an address (%s)", EnvRedisAddr)
	}
	if (c.Dispatch.Navigator == "queue" || c.Dispatch.PublishEvents) && c.Dispatch.AMQPURL == "" {
		return errors.New(errors.ErrCodeInvalidInput, "queue features need an AMQP url (%s)", EnvAMQPURL)
	}
	if c.Generate.BaseURL != "" {
		if err := errors.ValidateURL(c.Generate.BaseURL); err != nil {
			return err
		}
	}
	return c.Design.Validate()
}

func oneOf(what, v string, allowed ...string) error {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown %s %q (use %s)", what, v, strings.Join(allowed, ", "))
}

// Write stores cfg as TOML at path, creating parent directories.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create config dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create %s", path)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write %s", path)
	}
	return nil
}
