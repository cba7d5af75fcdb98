// Package remove implements the "remove" command.
package remove

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/pyrope-pm/pyrope/internal/core/config"
	"github.com/pyrope-pm/pyrope/internal/core/lockfile"
	"github.com/pyrope-pm/pyrope/internal/core/project"
)

// RemoveCommand builds the "remove" command: drop a dependency from the
// manifest and every lock entry recorded under its name.
func RemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Aliases:   []string{"rm"},
		Usage:     "Remove a dependency from the project",
		ArgsUsage: "<dependency_name>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.Exit("Error: Missing dependency name argument.", 1)
			}
			name := c.Args().First()

			paths, err := config.NewPaths()
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error resolving tool paths: %v", err), 1)
			}

			manifest, err := project.Load(paths.CurrentDir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: Failed to load %s: %v", project.ManifestName, err), 1)
			}

			if !manifest.RemoveDependency(name) {
				return cli.Exit(fmt.Sprintf("Error: Dependency '%s' not found in %s.", name, project.ManifestName), 1)
			}
			if err := project.Save(paths.CurrentDir, manifest); err != nil {
				return cli.Exit(fmt.Sprintf("Error saving manifest: %v", err), 1)
			}

			lf, err := lockfile.Load(paths.LockfilePath)
			if err != nil {
				if errors.Is(err, lockfile.ErrIO) {
					// No lockfile yet; only the manifest needed updating.
					color.Green("Removed %s", name)
					return nil
				}
				return cli.Exit(fmt.Sprintf("Error loading lockfile: %v", err), 1)
			}

			if lf.RemoveAll(name) > 0 {
				if err := lf.Save(); err != nil {
					return cli.Exit(fmt.Sprintf("Error saving lockfile: %v", err), 1)
				}
			}

			color.Green("Removed %s", name)
			return nil
		},
	}
}
