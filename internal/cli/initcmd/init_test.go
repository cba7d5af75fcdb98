// Package initcmd_test contains tests for the 'init' command.
package initcmd_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/pyrope-pm/pyrope/internal/cli/initcmd"
	"github.com/pyrope-pm/pyrope/internal/core/project"
)

func setupWorkDir(t *testing.T) string {
	t.Helper()
	workDir := t.TempDir()

	originalWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(workDir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(originalWd)) })
	return workDir
}

func runInitCommand(t *testing.T, args ...string) error {
	t.Helper()
	app := &cli.App{
		Name:     "pyrope-test",
		Commands: []*cli.Command{initcmd.GetInitCommand()},
		ExitErrHandler: func(context *cli.Context, err error) {
			// Let test assertions handle errors.
		},
	}
	return app.Run(append([]string{"pyrope-test", "init"}, args...))
}

func TestInitCommand_WithDefaults(t *testing.T) {
	workDir := setupWorkDir(t)

	require.NoError(t, runInitCommand(t, "--yes"))

	manifest, err := project.Load(workDir)
	require.NoError(t, err)
	assert.NotEmpty(t, manifest.Name)
	assert.Equal(t, "0.1.0", manifest.Version)
	assert.Equal(t, "index.js", manifest.Main)
	assert.Equal(t, "MIT", manifest.License)
	assert.Empty(t, manifest.Dependencies)
}

func TestInitCommand_RefusesToOverwrite(t *testing.T) {
	workDir := setupWorkDir(t)
	require.NoError(t, project.Save(workDir, &project.Manifest{Name: "existing", Version: "1.0.0"}))

	err := runInitCommand(t, "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	manifest, err := project.Load(workDir)
	require.NoError(t, err)
	assert.Equal(t, "existing", manifest.Name, "existing manifest must be untouched")
}

func TestInitCommand_ForceOverwrites(t *testing.T) {
	workDir := setupWorkDir(t)
	require.NoError(t, project.Save(workDir, &project.Manifest{Name: "existing", Version: "1.0.0"}))

	require.NoError(t, runInitCommand(t, "--yes", "--force"))

	manifest, err := project.Load(workDir)
	require.NoError(t, err)
	assert.NotEqual(t, "existing", manifest.Name)
	assert.Equal(t, "0.1.0", manifest.Version)
}

func TestKnownLicenses(t *testing.T) {
	t.Parallel()
	assert.Contains(t, initcmd.KnownLicenses, "MIT")
	assert.Contains(t, initcmd.KnownLicenses, "Apache-2.0")
}
