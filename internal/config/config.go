package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures what readshelf needs to reach the reading service.
type Config struct {
	APIURL            string
	Token             string
	LogDir            string
	RequestsPerSecond float64
	OptimisticAdd     bool
}

const (
	defaultConfigPath = "~/.config/readshelf/config.toml"
	defaultLogDir     = "~/.local/share/readshelf/logs"
	defaultAPIURL     = "http://127.0.0.1:8080"
	defaultRPS        = 5

	envAPIURL        = "READSHELF_API_URL"
	envToken         = "READSHELF_TOKEN"
	envOptimisticAdd = "READSHELF_OPTIMISTIC_ADD"
)

// Load locates and parses the config, falling back to defaults when missing.
// Values from the environment, then from envFile, override the file. An
// empty envFile skips the dotenv step.
func Load(path, envFile string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{APIURL: defaultAPIURL, LogDir: mustExpand(defaultLogDir), RequestsPerSecond: defaultRPS}

	if err := cfg.readFile(resolved); err != nil {
		return Config{}, err
	}

	dotenv, err := readDotEnv(envFile)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(dotenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL            string   `toml:"api_url"`
		Token             string   `toml:"token"`
		LogDir            string   `toml:"log_dir"`
		RequestsPerSecond *float64 `toml:"requests_per_second"`
		OptimisticAdd     bool     `toml:"optimistic_add"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		c.APIURL = v
	}
	c.Token = strings.TrimSpace(raw.Token)
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		c.LogDir = mustExpand(v)
	}
	if raw.RequestsPerSecond != nil {
		if *raw.RequestsPerSecond < 0 {
			return fmt.Errorf("parse config: requests_per_second must not be negative")
		}
		c.RequestsPerSecond = *raw.RequestsPerSecond
	}
	c.OptimisticAdd = raw.OptimisticAdd
	return nil
}

// applyEnv overrides fields from the process environment first and dotenv
// second, so a real variable always wins over the file.
func (c *Config) applyEnv(dotenv map[string]string) error {
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
		if v := strings.TrimSpace(dotenv[key]); v != "" {
			return v, true
		}
		return "", false
	}

	if v, ok := lookup(envAPIURL); ok {
		c.APIURL = v
	}
	if v, ok := lookup(envToken); ok {
		c.Token = v
	}
	if v, ok := lookup(envOptimisticAdd); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envOptimisticAdd, err)
		}
		c.OptimisticAdd = enabled
	}
	return nil
}

func readDotEnv(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return values, nil
}

// LogPath returns the path to the readshelf log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return filepath.Join(mustExpand(defaultLogDir), "readshelf.log")
	}
	return filepath.Join(c.LogDir, "readshelf.log")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
