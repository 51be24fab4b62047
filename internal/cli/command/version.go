package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/stmkit/internal/infra/buildinfo"
)

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			e, err := envFrom(c)
			if err != nil {
				return err
			}
			return e.render(c.App.Writer, buildinfo.Get())
		},
	}
}
