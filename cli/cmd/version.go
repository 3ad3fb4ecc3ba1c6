package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ferry/cli/render"
	"github.com/pithecene-io/ferry/types"
)

// VersionResponse is the response for the version command.
type VersionResponse struct {
	Version       string `json:"version" yaml:"version"`
	EventContract string `json:"event_contract" yaml:"event_contract"`
	Commit        string `json:"commit" yaml:"commit"`
}

// VersionCommand returns the version command.
// It reads no configuration and contacts no store.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show version information",
		Flags:  OutputFlags(),
		Action: versionAction(commit),
	}
}

func versionAction(commit string) cli.ActionFunc {
	return func(c *cli.Context) error {
		r, err := render.NewRenderer(c)
		if err != nil {
			return configExit(err)
		}
		return r.Render(VersionResponse{
			Version:       types.Version,
			EventContract: types.EventContractVersion,
			Commit:        commit,
		})
	}
}
