// Package cmd provides CLI commands for the ferry binary.
package cmd

import "github.com/urfave/cli/v2"

// Output flags.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// TUIFlag enables Bubble Tea interactive mode (submit only).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Show an interactive progress view",
	}

	// QuietFlag suppresses progress lines on stderr.
	QuietFlag = &cli.BoolFlag{
		Name:    "quiet",
		Aliases: []string{"q"},
		Usage:   "Suppress progress output",
	}
)

// Configuration flags. Each overrides the matching config file key or
// environment variable when set.
var (
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to ferry.yaml (default ./ferry.yaml when present)",
		EnvVars: []string{"FERRY_CONFIG"},
	}
	EnvFileFlag = &cli.StringFlag{
		Name:  "env-file",
		Usage: "Dotenv file loaded beneath the process environment",
		Value: ".env",
	}
	BackendFlag = &cli.StringFlag{
		Name:  "backend",
		Usage: "Storage backend: s3, minio, fs, memory",
	}
	EndpointFlag = &cli.StringFlag{
		Name:  "endpoint",
		Usage: "Storage endpoint (s3 URL or minio host:port)",
	}
	ContainerFlag = &cli.StringFlag{
		Name:  "container",
		Usage: "Destination bucket",
	}
	InputSubpathFlag = &cli.StringFlag{
		Name:  "input-subpath",
		Usage: "Prefix uploads are written under",
	}
	OutputSubpathFlag = &cli.StringFlag{
		Name:  "output-subpath",
		Usage: "Prefix the result appears under",
	}
	RegionFlag = &cli.StringFlag{
		Name:  "region",
		Usage: "Storage region",
	}
	StorePathFlag = &cli.StringFlag{
		Name:  "store-path",
		Usage: "Root directory for the fs backend",
	}
	ResultFlag = &cli.StringFlag{
		Name:  "result",
		Usage: "Result filename to await",
	}
	IntervalFlag = &cli.DurationFlag{
		Name:  "interval",
		Usage: "Result poll interval",
	}
	NotFoundFlag = &cli.StringFlag{
		Name:  "not-found",
		Usage: "Poll behavior for a missing result: fail or retry",
	}
	LogLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn, error",
	}
)

// OutputFlags returns the shared rendering flags.
func OutputFlags() []cli.Flag {
	return []cli.Flag{FormatFlag}
}

// ConfigFlags returns the flags that build a config.Config.
func ConfigFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		EnvFileFlag,
		BackendFlag,
		EndpointFlag,
		ContainerFlag,
		InputSubpathFlag,
		OutputSubpathFlag,
		RegionFlag,
		StorePathFlag,
		ResultFlag,
		IntervalFlag,
		NotFoundFlag,
		LogLevelFlag,
	}
}
