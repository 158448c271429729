package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// DefaultPath is the site file used when none is given.
const DefaultPath = "site.yaml"

// envFiles are loaded from the site file's directory. Variables already in the
// environment are never overridden, so earlier files take precedence.
var envFiles = []string{".env.local", ".env"}

// Load reads, expands, decodes, defaults and validates the site file at path.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.ConfigError("invalid config path").WithCause(err).WithContext("path", path).Build()
	}
	dir := filepath.Dir(abs)

	if err := loadEnvFiles(dir); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").WithContext("path", path).UserAction().Build()
		}
		return nil, errors.FileSystemError("failed to read config file").WithCause(err).WithContext("path", path).Build()
	}

	cfg, err := Parse(filepath.Ext(abs), data)
	if err != nil {
		return nil, err
	}
	cfg.Dir = dir
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data as YAML or TOML according to ext, after expanding ${VAR}
// references, and applies defaults. Paths are left as written.
func Parse(ext string, data []byte) (*Config, error) {
	expanded := []byte(os.ExpandEnv(string(data)))

	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(expanded))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && err != io.EOF {
			return nil, errors.ConfigError("failed to parse YAML config").WithCause(err).Build()
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(expanded)).DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, errors.ConfigError("failed to parse TOML config").WithCause(err).Build()
		}
	default:
		return nil, errors.ConfigError("unsupported config format").
			WithContext("extension", ext).
			UserAction().
			Build()
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

func loadEnvFiles(dir string) error {
	for _, name := range envFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.ConfigError("failed to load env file").WithCause(err).WithContext("path", p).Build()
		}
	}
	return nil
}

// resolvePaths makes every configured path absolute relative to Dir.
func (c *Config) resolvePaths() {
	c.Source = c.abs(c.Source)
	c.Output = c.abs(c.Output)
	if c.Templates != "" {
		c.Templates = c.abs(c.Templates)
	}
	c.History.Path = c.abs(c.History.Path)
}

func (c *Config) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}
