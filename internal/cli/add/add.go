// Package add implements the "add" command: resolve one dependency,
// download its tarball, and pin it in the manifest and lockfile.
package add

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/pyrope-pm/pyrope/internal/core/config"
	"github.com/pyrope-pm/pyrope/internal/core/downloader"
	"github.com/pyrope-pm/pyrope/internal/core/integrity"
	"github.com/pyrope-pm/pyrope/internal/core/lockfile"
	"github.com/pyrope-pm/pyrope/internal/core/project"
	"github.com/pyrope-pm/pyrope/internal/core/registry"
)

// splitArg separates "name[@version]" on the last "@" so scoped names
// like "@tools/runner" survive without a version suffix.
func splitArg(arg string) (name, spec string) {
	if at := strings.LastIndex(arg, "@"); at > 0 {
		return arg[:at], arg[at+1:]
	}
	return arg, ""
}

// NewAddCommand builds the "add" command.
func NewAddCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Resolve a dependency and pin it in the manifest and lockfile",
		ArgsUsage: "<name[@version]>",
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
			if cCtx.NArg() < 1 {
				return cli.Exit("Error: <name[@version]> argument is required.", 1)
			}
			name, spec := splitArg(cCtx.Args().Get(0))
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

			if verbose {
				fmt.Printf("Fetching metadata for %s from %s...\n", name, client.BaseURL)
			}
			pkg, err := client.FetchPackage(name)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error fetching metadata: %v", err), 1)
			}

			resolved, err := registry.ResolveVersion(pkg, spec)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error resolving version: %v", err), 1)
			}
			if verbose {
				fmt.Printf("Resolved %s@%s -> %s (%s)\n", name, spec, resolved.Version, resolved.Dist.Tarball)
			}

			data, err := downloader.DownloadTarball(resolved.Dist.Tarball)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error downloading tarball: %v", err), 1)
			}
			digest, err := integrity.Calculate(data, integrity.SHA512)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error computing digest: %v", err), 1)
			}

			// The manifest records the spec the user asked for; with no
			// spec given, the resolved version is pinned exactly.
			manifestSpec := spec
			if manifestSpec == "" {
				manifestSpec = resolved.Version
			}
			manifest.AddDependency(name, manifestSpec)

			lf, err := lockfile.Load(paths.LockfilePath)
			if err != nil {
				if !errors.Is(err, lockfile.ErrIO) {
					return cli.Exit(fmt.Sprintf("Error loading lockfile: %v", err), 1)
				}
				lf = lockfile.New(paths.LockfilePath)
			}
			lf.Add(
				lockfile.DependencyID{Name: name, Spec: manifestSpec},
				lockfile.DependencyLock{
					Name:    name,
					Version: resolved.Version,
					Tarball: resolved.Dist.Tarball,
					Sha1:    digest,
				},
			)

			if err := lf.Save(); err != nil {
				return cli.Exit(fmt.Sprintf("Error saving lockfile: %v", err), 1)
			}
			if err := project.Save(paths.CurrentDir, manifest); err != nil {
				return cli.Exit(fmt.Sprintf("Error saving manifest: %v", err), 1)
			}

			color.Green("Added %s@%s", name, resolved.Version)
			return nil
		},
	}
}
