package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pithecene-io/ferry/poller"
	"github.com/pithecene-io/ferry/store"
	"github.com/pithecene-io/ferry/transfer"
	"github.com/pithecene-io/ferry/types"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultBackend      = "s3"
	DefaultPollInterval = poller.DefaultInterval
	DefaultLogLevel     = "info"
)

// Config represents a ferry.yaml configuration file.
// Values are layered: defaults, then the file, then environment, then flags.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Upload  UploadConfig  `yaml:"upload"`
	Result  ResultConfig  `yaml:"result"`
	Adapter AdapterConfig `yaml:"adapter"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects and addresses the object store.
type StorageConfig struct {
	// Container is the base bucket; input and output subpaths hang off it.
	Container       string `yaml:"container"`
	InputSubpath    string `yaml:"input_subpath"`
	OutputSubpath   string `yaml:"output_subpath"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	// Backend is s3, minio, fs or memory.
	Backend     string `yaml:"backend"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
	UseSSL      bool   `yaml:"use_ssl"`
	// Path is the filesystem root for the fs backend.
	Path string `yaml:"path"`
}

// UploadConfig holds upload options.
type UploadConfig struct {
	Visibility  string `yaml:"visibility"`
	ContentType string `yaml:"content_type"`
}

// ResultConfig identifies the awaited result and how to poll for it.
type ResultConfig struct {
	Filename     string   `yaml:"filename"`
	PollInterval Duration `yaml:"poll_interval"`
	NotFound     string   `yaml:"not_found"`
}

// AdapterConfig holds notification adapter settings.
type AdapterConfig struct {
	Type     string            `yaml:"type"`
	URL      string            `yaml:"url"`
	Channel  string            `yaml:"channel,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`
	Timeout  Duration          `yaml:"timeout,omitempty"`
	Retries  *int              `yaml:"retries,omitempty"`
	Encoding string            `yaml:"encoding,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "30s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "30s" or "1m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML writes the duration in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultBackend
	}
	if c.Upload.Visibility == "" {
		c.Upload.Visibility = string(store.VisibilityPublicRead)
	}
	if c.Result.PollInterval.Duration == 0 {
		c.Result.PollInterval.Duration = DefaultPollInterval
	}
	if c.Result.NotFound == "" {
		c.Result.NotFound = string(poller.NotFoundFail)
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate checks that the configuration is complete and consistent.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case "s3", "minio":
		if c.Storage.Container == "" {
			errs = append(errs, errors.New("storage.container (S3_BUCKET) is required"))
		}
		if (c.Storage.AccessKeyID == "") != (c.Storage.SecretAccessKey == "") {
			errs = append(errs, errors.New("storage.access_key_id and storage.secret_access_key must be set together"))
		}
		if c.Storage.Backend == "minio" && c.Storage.Endpoint == "" {
			errs = append(errs, errors.New("storage.endpoint is required for the minio backend"))
		}
	case "fs":
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the fs backend"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q (valid: s3, minio, fs, memory)", c.Storage.Backend))
	}

	if c.Result.Filename == "" {
		errs = append(errs, errors.New("result.filename (PROCESSED_FILENAME) is required"))
	} else if strings.Contains(c.Result.Filename, "..") {
		errs = append(errs, fmt.Errorf("result.filename %q must not contain ..", c.Result.Filename))
	}
	if c.Result.PollInterval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("result.poll_interval must be positive, got %v", c.Result.PollInterval.Duration))
	}
	if _, err := poller.ParseNotFoundPolicy(c.Result.NotFound); err != nil {
		errs = append(errs, fmt.Errorf("result.not_found: %w", err))
	}

	switch store.Visibility(c.Upload.Visibility) {
	case "", store.VisibilityPublicRead, store.VisibilityPrivate:
	default:
		errs = append(errs, fmt.Errorf("unknown upload.visibility %q (valid: public-read, private)", c.Upload.Visibility))
	}

	switch c.Adapter.Type {
	case "":
	case "webhook", "redis":
		if c.Adapter.URL == "" {
			errs = append(errs, fmt.Errorf("adapter.url is required for the %s adapter", c.Adapter.Type))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown adapter.type %q (valid: webhook, redis)", c.Adapter.Type))
	}

	return errors.Join(errs...)
}

// InputContainer is the upload destination: container joined with the input subpath.
func (c *Config) InputContainer() string {
	return store.JoinContainer(c.Storage.Container, c.Storage.InputSubpath)
}

// OutputContainer is where the result object appears.
func (c *Config) OutputContainer() string {
	return store.JoinContainer(c.Storage.Container, c.Storage.OutputSubpath)
}

// Target is the result object the poller awaits.
func (c *Config) Target() types.PollTarget {
	return types.PollTarget{Container: c.OutputContainer(), Key: c.Result.Filename}
}

// TransferConfig derives the transfer controller configuration.
func (c *Config) TransferConfig() transfer.Config {
	return transfer.Config{
		Container:   c.InputContainer(),
		Visibility:  store.Visibility(c.Upload.Visibility),
		ContentType: c.Upload.ContentType,
	}
}

// PollerConfig derives the poller configuration.
func (c *Config) PollerConfig() poller.Config {
	return poller.Config{
		Interval: c.Result.PollInterval.Duration,
		NotFound: poller.NotFoundPolicy(c.Result.NotFound),
	}
}
