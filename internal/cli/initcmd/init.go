// Package initcmd implements the "init" command: interactive creation
// of a fresh package.json manifest.
package initcmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/pyrope-pm/pyrope/internal/core/project"
)

// KnownLicenses are the license identifiers offered during init. Any
// other value is accepted with a warning.
var KnownLicenses = []string{
	"MIT",
	"Apache-2.0",
	"BSD-3-Clause",
	"BSD-2-Clause",
	"GPL-3.0",
	"LGPL-3.0",
	"MPL-2.0",
	"Unlicense",
	"ISC",
}

func knownLicense(name string) bool {
	for _, l := range KnownLicenses {
		if l == name {
			return true
		}
	}
	return false
}

// promptWithDefault asks for one value, falling back to defaultValue on
// empty input.
func promptWithDefault(reader *bufio.Reader, promptText string, defaultValue string) (string, error) {
	if defaultValue != "" {
		fmt.Printf("%s (default: %s): ", promptText, defaultValue)
	} else {
		fmt.Printf("%s: ", promptText)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input for '%s': %w", promptText, err)
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue, nil
	}
	return input, nil
}

// GetInitCommand returns the definition for the "init" command.
func GetInitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new project (creates " + project.ManifestName + ")",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Accept all defaults without prompting",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing manifest",
			},
		},
		Action: func(c *cli.Context) error {
			currentDir, err := os.Getwd()
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error resolving current directory: %v", err), 1)
			}

			if _, err := project.Load(currentDir); err == nil && !c.Bool("force") {
				return cli.Exit(fmt.Sprintf("Error: %s already exists (use --force to overwrite).", project.ManifestName), 1)
			}

			defaultName := "my-project"
			if base := filepath.Base(currentDir); base != "." && base != string(filepath.Separator) {
				defaultName = base
			}

			manifest := &project.Manifest{
				Name:    defaultName,
				Version: "0.1.0",
				Main:    "index.js",
				License: "MIT",
			}

			if !c.Bool("yes") {
				reader := bufio.NewReader(os.Stdin)

				if manifest.Name, err = promptWithDefault(reader, "Package name", defaultName); err != nil {
					return cli.Exit(err.Error(), 1)
				}
				if manifest.Version, err = promptWithDefault(reader, "Version", "0.1.0"); err != nil {
					return cli.Exit(err.Error(), 1)
				}
				if manifest.Description, err = promptWithDefault(reader, "Description (optional)", ""); err != nil {
					return cli.Exit(err.Error(), 1)
				}
				if manifest.Main, err = promptWithDefault(reader, "Entry point", "index.js"); err != nil {
					return cli.Exit(err.Error(), 1)
				}
				if manifest.Author, err = promptWithDefault(reader, "Author (optional)", ""); err != nil {
					return cli.Exit(err.Error(), 1)
				}
				if manifest.License, err = promptWithDefault(reader, "License", "MIT"); err != nil {
					return cli.Exit(err.Error(), 1)
				}
				if manifest.Repository, err = promptWithDefault(reader, "Repository (optional)", ""); err != nil {
					return cli.Exit(err.Error(), 1)
				}
			}

			if !knownLicense(manifest.License) {
				color.Yellow("Warning: %q is not a recognized license identifier.", manifest.License)
			}

			if err := project.Save(currentDir, manifest); err != nil {
				return cli.Exit(fmt.Sprintf("Error writing %s: %v", project.ManifestName, err), 1)
			}

			color.Green("Wrote %s for %s@%s", project.ManifestName, manifest.Name, manifest.Version)
			return nil
		},
	}
}
