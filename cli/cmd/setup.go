package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ferry/adapter"
	"github.com/pithecene-io/ferry/adapter/redis"
	"github.com/pithecene-io/ferry/adapter/webhook"
	"github.com/pithecene-io/ferry/cli/config"
	"github.com/pithecene-io/ferry/log"
	"github.com/pithecene-io/ferry/metrics"
	"github.com/pithecene-io/ferry/store"
	"github.com/pithecene-io/ferry/types"
)

// Exit codes.
const (
	exitCompleted = 0
	exitFailed    = 1
	exitConfig    = 2
)

// defaultConfigFile is read when --config is not given and the file exists.
const defaultConfigFile = "ferry.yaml"

// loadConfig resolves the effective configuration: defaults, file,
// dotenv, environment, then flags. The result is validated.
func loadConfig(c *cli.Context) (*config.Config, error) {
	src := config.Sources{
		ConfigFile:      c.String(ConfigFlag.Name),
		EnvFile:         c.String(EnvFileFlag.Name),
		EnvFileOptional: !c.IsSet(EnvFileFlag.Name),
	}
	if src.ConfigFile == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			src.ConfigFile = defaultConfigFile
		}
	}

	cfg, err := config.Resolve(src)
	if err != nil {
		return nil, err
	}
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	str := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	str(BackendFlag.Name, &cfg.Storage.Backend)
	str(EndpointFlag.Name, &cfg.Storage.Endpoint)
	str(ContainerFlag.Name, &cfg.Storage.Container)
	str(InputSubpathFlag.Name, &cfg.Storage.InputSubpath)
	str(OutputSubpathFlag.Name, &cfg.Storage.OutputSubpath)
	str(RegionFlag.Name, &cfg.Storage.Region)
	str(StorePathFlag.Name, &cfg.Storage.Path)
	str(ResultFlag.Name, &cfg.Result.Filename)
	str(NotFoundFlag.Name, &cfg.Result.NotFound)
	str(LogLevelFlag.Name, &cfg.Log.Level)
	if c.IsSet(IntervalFlag.Name) {
		cfg.Result.PollInterval.Duration = c.Duration(IntervalFlag.Name)
	}
}

// buildStore creates the configured storage backend.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	s := cfg.Storage
	switch s.Backend {
	case "s3":
		st, err := store.NewS3Store(ctx, store.S3Config{
			Region:          s.Region,
			Endpoint:        s.Endpoint,
			UsePathStyle:    s.S3PathStyle,
			AccessKeyID:     s.AccessKeyID,
			SecretAccessKey: s.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	case "minio":
		st, err := store.NewMinioStore(store.MinioConfig{
			Endpoint:        s.Endpoint,
			Region:          s.Region,
			AccessKeyID:     s.AccessKeyID,
			SecretAccessKey: s.SecretAccessKey,
			UseSSL:          s.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	case "fs":
		st, err := store.NewFSStore(s.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

// buildAdapter creates the configured notification adapter.
// It returns nil when no adapter is configured.
func buildAdapter(cfg *config.Config) (adapter.Adapter, error) {
	a := cfg.Adapter
	switch a.Type {
	case "":
		return nil, nil
	case "webhook":
		wh, err := webhook.New(webhook.Config{
			URL:      a.URL,
			Headers:  a.Headers,
			Timeout:  a.Timeout.Duration,
			Retries:  retriesOr(a.Retries, webhook.DefaultRetries),
			Encoding: adapter.Encoding(a.Encoding),
		})
		if err != nil {
			return nil, err
		}
		return wh, nil
	case "redis":
		rd, err := redis.New(redis.Config{
			URL:      a.URL,
			Channel:  a.Channel,
			Timeout:  a.Timeout.Duration,
			Retries:  retriesOr(a.Retries, redis.DefaultRetries),
			Encoding: adapter.Encoding(a.Encoding),
		})
		if err != nil {
			return nil, err
		}
		return rd, nil
	default:
		return nil, fmt.Errorf("unknown adapter type %q", a.Type)
	}
}

// retriesOr distinguishes an explicit zero from an unset value.
func retriesOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func newCollector(cfg *config.Config) *metrics.Collector {
	return metrics.NewCollector(cfg.Storage.Backend, cfg.Result.NotFound, cfg.Adapter.Type)
}

func newLogger(c *cli.Context, cfg *config.Config) (*log.Logger, error) {
	return log.NewLoggerWithWriter(errWriter(c), cfg.Log.Level)
}

func errWriter(c *cli.Context) io.Writer {
	if c.App != nil && c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// configExit reports a configuration or usage problem.
func configExit(err error) error {
	return cli.Exit(fmt.Sprintf("configuration error: %v", err), exitConfig)
}

// Summary is the rendered outcome of submit and await.
type Summary struct {
	State   types.WorkflowState `json:"state" yaml:"state"`
	Result  any                 `json:"result,omitempty" yaml:"result,omitempty"`
	Metrics metrics.Snapshot    `json:"metrics" yaml:"metrics"`
}

// newSummary lifts the decoded result out of the state.
func newSummary(final types.WorkflowState, snap metrics.Snapshot) Summary {
	s := Summary{State: final, Metrics: snap}
	if final.Result != nil {
		s.Result = final.Result.Data
		s.State.Result = nil
	}
	return s
}

// exitFor maps a terminal state to the command result.
func exitFor(final types.WorkflowState) error {
	switch final.Kind {
	case types.StateCompleted:
		return nil
	case types.StateFailed:
		return cli.Exit(final.Reason, exitFailed)
	default:
		return cli.Exit(fmt.Sprintf("submission ended in state %s", final.Kind), exitFailed)
	}
}
