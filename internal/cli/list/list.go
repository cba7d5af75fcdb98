// Package list implements the "list" command.
package list

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/pyrope-pm/pyrope/internal/core/config"
	"github.com/pyrope-pm/pyrope/internal/core/lockfile"
	"github.com/pyrope-pm/pyrope/internal/core/project"
)

// ListCmd defines the "list" command: print every locked dependency in
// canonical key order, flagging entries the manifest no longer asks for.
var ListCmd = &cli.Command{
	Name:    "list",
	Aliases: []string{"ls"},
	Usage:   "Display locked dependencies and their pinned versions",
	Action: func(c *cli.Context) error {
		paths, err := config.NewPaths()
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error resolving tool paths: %v", err), 1)
		}

		manifest, err := project.Load(paths.CurrentDir)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error: %s not found. No project configuration loaded.", project.ManifestName), 1)
		}

		lf, err := lockfile.Load(paths.LockfilePath)
		if err != nil {
			if errors.Is(err, lockfile.ErrIO) {
				fmt.Println("No dependencies locked.")
				return nil
			}
			return cli.Exit(fmt.Sprintf("Error loading lockfile: %v", err), 1)
		}
		if len(lf.Dependencies) == 0 {
			fmt.Println("No dependencies locked.")
			return nil
		}

		keys := make([]string, 0, len(lf.Dependencies))
		for key := range lf.Dependencies {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		color.New(color.Bold).Printf("%s@%s\n", manifest.Name, manifest.Version)
		for _, key := range keys {
			locked := lf.Dependencies[key]
			id, err := lockfile.ParseDependencyID(key)
			status := ""
			if err == nil {
				if _, wanted := manifest.Dependencies[id.Name]; !wanted {
					status = color.YellowString(" (not in manifest)")
				}
			}
			fmt.Printf("  %s %s%s\n", color.CyanString(key), locked.Version, status)
			fmt.Printf("    %s\n", locked.Tarball)
		}
		return nil
	},
}
