package healthguard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultConfigFile = "config.json"
	envPrefix         = "HEALTHGUARD_"
)

// LoadConfig loads configuration from the given path or the default config.json, then
// applies HEALTHGUARD_* overrides from the process environment and from a .env file
// next to the config file. A missing config file yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dotenv, err := godotenv.Read(filepath.Join(filepath.Dir(path), ".env"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("read .env: %w", err)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := applyEnvOverrides(&cfg, lookup); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// WriteConfig writes cfg, with defaults filled in, as indented JSON. An existing file
// is only replaced when overwrite is set; otherwise the error matches os.ErrExist.
// The file is written next to path first and renamed into place.
func WriteConfig(path string, cfg Config, overwrite bool) error {
	if path == "" {
		path = defaultConfigFile
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s: %w", path, os.ErrExist)
		}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("install config: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("STORE_TYPE", &cfg.Store.Type)
	str("MODEL_DIR", &cfg.Store.Dir)
	str("S3_ENDPOINT", &cfg.Store.S3.Endpoint)
	str("S3_REGION", &cfg.Store.S3.Region)
	str("S3_BUCKET", &cfg.Store.S3.Bucket)
	str("S3_PREFIX", &cfg.Store.S3.Prefix)
	str("S3_ACCESS_KEY", &cfg.Store.S3.AccessKey)
	str("S3_SECRET_KEY", &cfg.Store.S3.SecretKey)
	str("ORT_DLL", &cfg.OrtDLL)
	str("KNOWLEDGE_BASE", &cfg.Chat.KnowledgeBase)
	str("TOKENIZER", &cfg.Chat.TokenizerPath)
	str("REPORT_DIR", &cfg.ReportDir)
	str("LOG_LEVEL", &cfg.LogLevel)

	if v, ok := lookup(envPrefix + "MIN_SCORE"); ok && strings.TrimSpace(v) != "" {
		score, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("parse %sMIN_SCORE: %w", envPrefix, err)
		}
		cfg.Chat.MinScore = &score
	}
	return nil
}
