package cmd

import (
	"maps"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ferry/cli/config"
	"github.com/pithecene-io/ferry/cli/render"
)

const redacted = "********"

// ConfigCommand returns the config command.
// It prints the effective configuration with secrets redacted.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:   "config",
		Usage:  "Show the effective configuration",
		Flags:  ConfigFlags(),
		Action: configAction,
	}
}

func configAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return configExit(err)
	}
	return render.NewRendererWithWriter(render.FormatYAML, c.App.Writer).Render(redact(cfg))
}

// redact returns a copy of cfg with credentials and header values masked.
func redact(cfg *config.Config) *config.Config {
	out := *cfg
	if out.Storage.SecretAccessKey != "" {
		out.Storage.SecretAccessKey = redacted
	}
	if len(cfg.Adapter.Headers) > 0 {
		out.Adapter.Headers = maps.Clone(cfg.Adapter.Headers)
		for k := range out.Adapter.Headers {
			out.Adapter.Headers[k] = redacted
		}
	}
	return &out
}
