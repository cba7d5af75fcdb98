// Package update implements the "update" command: re-resolve manifest
// dependencies against the registry's latest published versions.
package update

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/pyrope-pm/pyrope/internal/core/config"
	"github.com/pyrope-pm/pyrope/internal/core/downloader"
	"github.com/pyrope-pm/pyrope/internal/core/integrity"
	"github.com/pyrope-pm/pyrope/internal/core/lockfile"
	"github.com/pyrope-pm/pyrope/internal/core/project"
	"github.com/pyrope-pm/pyrope/internal/core/registry"
)

// NewUpdateCommand builds the "update" command.
func NewUpdateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Re-pin dependencies to the latest published versions",
		ArgsUsage: "[dependency_names...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "registry",
				Usage: "Override the registry base URL",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
		},
		Action: func(c *cli.Context) error {
			verbose := c.Bool("verbose")

			paths, err := config.NewPaths()
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error resolving tool paths: %v", err), 1)
			}
			settings, err := config.LoadSettings(paths.GlobalDir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error loading settings: %v", err), 1)
			}
			registryURL := c.String("registry")
			if registryURL == "" {
				registryURL = settings.Registry
			}
			client := registry.NewClient(registryURL)

			manifest, err := project.Load(paths.CurrentDir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error loading %s: %v", project.ManifestName, err), 1)
			}

			// With no arguments every manifest dependency is a candidate.
			var names []string
			if c.NArg() > 0 {
				names = c.Args().Slice()
				for _, name := range names {
					if _, ok := manifest.Dependencies[name]; !ok {
						return cli.Exit(fmt.Sprintf("Error: Dependency '%s' not found in %s.", name, project.ManifestName), 1)
					}
				}
			} else {
				for name := range manifest.Dependencies {
					names = append(names, name)
				}
				sort.Strings(names)
			}
			if len(names) == 0 {
				fmt.Println("No dependencies to update.")
				return nil
			}

			lf, err := lockfile.Load(paths.LockfilePath)
			if err != nil {
				if !errors.Is(err, lockfile.ErrIO) {
					return cli.Exit(fmt.Sprintf("Error loading lockfile: %v", err), 1)
				}
				lf = lockfile.New(paths.LockfilePath)
			}

			updated := 0
			for _, name := range names {
				oldSpec := manifest.Dependencies[name]

				pkg, err := client.FetchPackage(name)
				if err != nil {
					return cli.Exit(fmt.Sprintf("Error fetching metadata for %s: %v", name, err), 1)
				}
				latest, err := registry.ResolveVersion(pkg, "latest")
				if err != nil {
					return cli.Exit(fmt.Sprintf("Error resolving latest %s: %v", name, err), 1)
				}

				oldID := lockfile.DependencyID{Name: name, Spec: oldSpec}
				if locked, ok := lf.Dependencies[oldID.String()]; ok {
					current, errCur := semver.StrictNewVersion(locked.Version)
					next, errNext := semver.StrictNewVersion(latest.Version)
					if errCur == nil && errNext == nil && !next.GreaterThan(current) {
						if verbose {
							fmt.Printf("%s already at %s\n", name, locked.Version)
						}
						continue
					}
				}

				data, err := downloader.DownloadTarball(latest.Dist.Tarball)
				if err != nil {
					return cli.Exit(fmt.Sprintf("Error downloading %s@%s: %v", name, latest.Version, err), 1)
				}
				digest, err := integrity.Calculate(data, integrity.SHA512)
				if err != nil {
					return cli.Exit(fmt.Sprintf("Error computing digest for %s: %v", name, err), 1)
				}

				// The manifest and lock key both move to the new pin.
				lf.RemoveAll(name)
				manifest.AddDependency(name, latest.Version)
				lf.Add(
					lockfile.DependencyID{Name: name, Spec: latest.Version},
					lockfile.DependencyLock{
						Name:    name,
						Version: latest.Version,
						Tarball: latest.Dist.Tarball,
						Sha1:    digest,
					},
				)
				updated++
				color.Green("Updated %s: %s -> %s", name, oldSpec, latest.Version)
			}

			if updated == 0 {
				fmt.Println("All dependencies are up to date.")
				return nil
			}
			if err := lf.Save(); err != nil {
				return cli.Exit(fmt.Sprintf("Error saving lockfile: %v", err), 1)
			}
			if err := project.Save(paths.CurrentDir, manifest); err != nil {
				return cli.Exit(fmt.Sprintf("Error saving manifest: %v", err), 1)
			}
			return nil
		},
	}
}
