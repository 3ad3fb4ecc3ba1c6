package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables recognized by ferry.
const (
	EnvContainer       = "S3_BUCKET"
	EnvInputSubpath    = "INPUT_BUCKET"
	EnvOutputSubpath   = "OUTPUT_BUCKET"
	EnvRegion          = "REGION"
	EnvResultFilename  = "PROCESSED_FILENAME"
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvBackend         = "FERRY_STORAGE_BACKEND"
	EnvEndpoint        = "FERRY_STORAGE_ENDPOINT"
	EnvPollInterval    = "FERRY_POLL_INTERVAL"
	EnvNotFound        = "FERRY_NOT_FOUND"
	EnvLogLevel        = "FERRY_LOG_LEVEL"
)

// Load reads a YAML config file, expands environment variables, and
// unmarshals into a Config struct. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup LookupFunc) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	expanded := Expand(string(data), lookup)

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	return &cfg, nil
}

// Sources names the inputs to Resolve. Empty paths are skipped.
type Sources struct {
	// ConfigFile is a ferry.yaml path.
	ConfigFile string
	// EnvFile is a dotenv file. Process environment wins over its values.
	EnvFile string
	// EnvFileOptional suppresses the error for a missing EnvFile.
	EnvFileOptional bool
}

// Resolve builds the effective configuration: defaults, then the config
// file, then environment variables. The result is not validated.
func Resolve(src Sources) (*Config, error) {
	lookup, err := envLookup(src.EnvFile, src.EnvFileOptional)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if src.ConfigFile != "" {
		cfg, err = load(src.ConfigFile, lookup)
		if err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// envLookup layers the process environment over an optional dotenv file.
func envLookup(envFile string, optional bool) (LookupFunc, error) {
	if envFile == "" {
		return os.LookupEnv, nil
	}
	fileVars, err := godotenv.Read(envFile)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return os.LookupEnv, nil
		}
		return nil, fmt.Errorf("cannot read env file %q: %w", envFile, err)
	}
	return func(name string) (string, bool) {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
		v, ok := fileVars[name]
		return v, ok
	}, nil
}

// ApplyEnv overrides config values with set, non-empty variables.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str(EnvContainer, &c.Storage.Container)
	str(EnvInputSubpath, &c.Storage.InputSubpath)
	str(EnvOutputSubpath, &c.Storage.OutputSubpath)
	str(EnvRegion, &c.Storage.Region)
	str(EnvResultFilename, &c.Result.Filename)
	str(EnvAccessKeyID, &c.Storage.AccessKeyID)
	str(EnvSecretAccessKey, &c.Storage.SecretAccessKey)
	str(EnvBackend, &c.Storage.Backend)
	str(EnvEndpoint, &c.Storage.Endpoint)
	str(EnvNotFound, &c.Result.NotFound)
	str(EnvLogLevel, &c.Log.Level)

	if v, ok := lookup(EnvPollInterval); ok && v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPollInterval, err)
		}
		c.Result.PollInterval.Duration = d
	}
	return nil
}

// parseInterval accepts a Go duration ("30s") or a bare millisecond count ("35000").
// The interval must be positive.
func parseInterval(s string) (time.Duration, error) {
	var d time.Duration
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		d = time.Duration(ms) * time.Millisecond
	} else if d, err = time.ParseDuration(s); err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %q", s)
	}
	return d, nil
}
