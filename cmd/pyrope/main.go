package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pyrope-pm/pyrope/internal/cli/add"
	"github.com/pyrope-pm/pyrope/internal/cli/initcmd"
	"github.com/pyrope-pm/pyrope/internal/cli/install"
	"github.com/pyrope-pm/pyrope/internal/cli/list"
	"github.com/pyrope-pm/pyrope/internal/cli/remove"
	"github.com/pyrope-pm/pyrope/internal/cli/self"
	"github.com/pyrope-pm/pyrope/internal/cli/update"
)

func main() {
	app := &cli.App{
		Name:    "pyrope",
		Usage:   "A small package manager with reproducible installs",
		Version: "v0.1.0",
		Action: func(c *cli.Context) error {
			// Default action if no command is specified
			_ = cli.ShowAppHelp(c)
			return nil
		},
		Commands: []*cli.Command{
			initcmd.GetInitCommand(),
			add.NewAddCommand(),
			install.NewInstallCommand(),
			update.NewUpdateCommand(),
			list.ListCmd,
			remove.RemoveCommand(),
			self.NewSelfCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
