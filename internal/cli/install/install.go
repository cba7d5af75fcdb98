// Package install implements the "install" command: bring the lockfile
// in line with the manifest, reusing verified lock entries and
// resolving the rest.
package install

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/pyrope-pm/pyrope/internal/core/config"
	"github.com/pyrope-pm/pyrope/internal/core/downloader"
	"github.com/pyrope-pm/pyrope/internal/core/integrity"
	"github.com/pyrope-pm/pyrope/internal/core/lockfile"
	"github.com/pyrope-pm/pyrope/internal/core/project"
	"github.com/pyrope-pm/pyrope/internal/core/registry"
)

// NewInstallCommand builds the "install" command.
func NewInstallCommand() *cli.Command {
	return &cli.Command{
		Name:  "install",
		Usage: "Download and verify every dependency listed in the manifest",
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
		Action: func(cCtx *cli.Context) error {
			verbose := cCtx.Bool("verbose")

			paths, err := config.NewPaths()
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error resolving tool paths: %v", err), 1)
			}
			settings, err := config.LoadSettings(paths.GlobalDir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error loading settings: %v", err), 1)
			}
			registryURL := cCtx.String("registry")
			if registryURL == "" {
				registryURL = settings.Registry
			}
			client := registry.NewClient(registryURL)

			manifest, err := project.Load(paths.CurrentDir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error loading %s (run 'pyrope init' first?): %v", project.ManifestName, err), 1)
			}
			if len(manifest.Dependencies) == 0 {
				fmt.Println("No dependencies to install.")
				return nil
			}

			lf, err := lockfile.Load(paths.LockfilePath)
			if err != nil {
				if !errors.Is(err, lockfile.ErrIO) {
					return cli.Exit(fmt.Sprintf("Error loading lockfile: %v", err), 1)
				}
				lf = lockfile.New(paths.LockfilePath)
			}

			// Stable processing order for stable output.
			names := make([]string, 0, len(manifest.Dependencies))
			for name := range manifest.Dependencies {
				names = append(names, name)
			}
			sort.Strings(names)

			installed, reused := 0, 0
			for _, name := range names {
				spec := manifest.Dependencies[name]
				id := lockfile.DependencyID{Name: name, Spec: spec}

				if locked, ok := lf.Dependencies[id.String()]; ok {
					data, err := downloader.DownloadTarball(locked.Tarball)
					if err == nil && integrity.Verify(data, locked.Sha1) == nil {
						if verbose {
							fmt.Printf("%s@%s already locked at %s, digest verified\n", name, spec, locked.Version)
						}
						reused++
						continue
					}
					color.Yellow("Lock entry for %s is stale or failed verification, re-resolving", id)
				}

				pkg, err := client.FetchPackage(name)
				if err != nil {
					return cli.Exit(fmt.Sprintf("Error fetching metadata for %s: %v", name, err), 1)
				}
				resolved, err := registry.ResolveVersion(pkg, spec)
				if err != nil {
					return cli.Exit(fmt.Sprintf("Error resolving %s@%s: %v", name, spec, err), 1)
				}
				data, err := downloader.DownloadTarball(resolved.Dist.Tarball)
				if err != nil {
					return cli.Exit(fmt.Sprintf("Error downloading %s@%s: %v", name, resolved.Version, err), 1)
				}
				digest, err := integrity.Calculate(data, integrity.SHA512)
				if err != nil {
					return cli.Exit(fmt.Sprintf("Error computing digest for %s: %v", name, err), 1)
				}

				lf.Add(id, lockfile.DependencyLock{
					Name:    name,
					Version: resolved.Version,
					Tarball: resolved.Dist.Tarball,
					Sha1:    digest,
				})
				installed++
				if verbose {
					fmt.Printf("Locked %s@%s at %s\n", name, spec, resolved.Version)
				}
			}

			// One save at the end; persistence has a single writer here.
			if err := lf.Save(); err != nil {
				return cli.Exit(fmt.Sprintf("Error saving lockfile: %v", err), 1)
			}

			color.Green("Install complete: %d resolved, %d reused", installed, reused)
			return nil
		},
	}
}
