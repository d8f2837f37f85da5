package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigDir  = ".panelctl"
	defaultConfigFile = "config.yaml"
	// DotEnvFile is read from the working directory when present.
	DotEnvFile = ".env"

	// Tokens live in the config file.
	configFileMode = 0o600
)

var ErrConfigNotFound = errors.New("config file not found")

// DefaultPath is ~/.panelctl/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err == nil && strings.TrimSpace(home) == "" {
		err = errors.New("empty home directory")
	}
	if err != nil {
		return "", fmt.Errorf("locate config: %w", err)
	}
	return filepath.Join(home, defaultConfigDir, defaultConfigFile), nil
}

// Dir returns the directory the config file lives in; the state file sits next to it.
func Dir(configPath string) string {
	return filepath.Dir(configPath)
}

// LoadDotEnv loads KEY=value pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = DotEnvFile
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// ResolvePath picks --config, then PANELCTL_CONFIG, then DefaultPath.
func ResolvePath(explicit string) (string, error) {
	for _, p := range []string{explicit, os.Getenv(EnvConfigPath)} {
		if p = strings.TrimSpace(p); p != "" {
			return p, nil
		}
	}
	return DefaultPath()
}

// Load reads the config at the resolved path and also returns that path.
func Load(explicitPath string) (Config, string, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Config{}, "", err
	}
	cfg, err := LoadFromPath(path)
	return cfg, path, err
}

// LoadOrEmpty is Load for commands that create the file, such as context set.
func LoadOrEmpty(explicitPath string) (Config, string, error) {
	cfg, path, err := Load(explicitPath)
	if errors.Is(err, ErrConfigNotFound) {
		cfg = Config{}
		cfg.normalize()
		return cfg, path, nil
	}
	return cfg, path, err
}

// LoadFromPath parses and validates the config at path. Unknown keys are
// rejected so a misspelt "rate_limit" does not silently do nothing.
func LoadFromPath(path string) (Config, error) {
	var cfg Config

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("%w at %s (run 'panelctl context set' or set %s)", ErrConfigNotFound, path, EnvConfigPath)
	}
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config file %s: %w", path, err)
	}

	if info, err := f.Stat(); err == nil && info.Mode().Perm()&0o077 != 0 && cfg.hasTokens() {
		cfg.ExposedTokens = true
	}
	return cfg, nil
}

// Save validates cfg and replaces the file at path through a temp file. The
// result is always owner-only.
func Save(path string, cfg Config) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("config path is required")
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config file %s: %w", path, err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return replaceFile(path, buf.Bytes())
}

func replaceFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp config in %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := tmp.Chmod(configFileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("restrict temp config: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace config file %s: %w", path, err)
	}
	return nil
}
