// Package install_test contains tests for the 'install' command.
package install_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	installcmd "github.com/pyrope-pm/pyrope/internal/cli/install"
	"github.com/pyrope-pm/pyrope/internal/core/integrity"
	"github.com/pyrope-pm/pyrope/internal/core/lockfile"
	"github.com/pyrope-pm/pyrope/internal/core/project"
)

// mockRegistry serves one package's metadata and tarball and counts the
// metadata requests, so tests can assert whether resolution happened.
type mockRegistry struct {
	server        *httptest.Server
	metadataCalls atomic.Int64
	tarball       []byte
	tarballURL    string
}

func startMockRegistry(t *testing.T, name, version string, tarball []byte) *mockRegistry {
	t.Helper()
	reg := &mockRegistry{tarball: tarball}
	tarballPath := fmt.Sprintf("/%s/-/%s-%s.tgz", name, name, version)

	mux := http.NewServeMux()
	mux.HandleFunc("/"+name, func(w http.ResponseWriter, r *http.Request) {
		reg.metadataCalls.Add(1)
		meta := fmt.Sprintf(`{
			"name": %q,
			"dist-tags": {"latest": %q},
			"versions": {
				%q: {"name": %q, "version": %q, "dist": {"tarball": %q}}
			}
		}`, name, version, version, name, version, reg.server.URL+tarballPath)
		_, err := w.Write([]byte(meta))
		assert.NoError(t, err)
	})
	mux.HandleFunc(tarballPath, func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write(reg.tarball)
		assert.NoError(t, err)
	})

	reg.server = httptest.NewServer(mux)
	t.Cleanup(reg.server.Close)
	reg.tarballURL = reg.server.URL + tarballPath
	return reg
}

func setupProjectDir(t *testing.T, manifest *project.Manifest) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	workDir := t.TempDir()

	originalWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(workDir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(originalWd)) })

	if manifest != nil {
		require.NoError(t, project.Save(workDir, manifest))
	}
	return workDir
}

func runInstallCommand(t *testing.T, args ...string) error {
	t.Helper()
	app := &cli.App{
		Name:     "pyrope-test",
		Commands: []*cli.Command{installcmd.NewInstallCommand()},
		ExitErrHandler: func(context *cli.Context, err error) {
			// Let test assertions handle errors.
		},
	}
	return app.Run(append([]string{"pyrope-test", "install"}, args...))
}

func TestInstallCommand_ResolvesMissingDependencies(t *testing.T) {
	tarball := []byte("react tarball bytes")
	reg := startMockRegistry(t, "react", "17.0.2", tarball)

	manifest := &project.Manifest{Name: "demo", Version: "0.1.0"}
	manifest.AddDependency("react", "17.0.2")
	workDir := setupProjectDir(t, manifest)

	require.NoError(t, runInstallCommand(t, "--registry", reg.server.URL))

	lf, err := lockfile.Load(filepath.Join(workDir, lockfile.LockfileName))
	require.NoError(t, err)
	locked, ok := lf.Dependencies["react@17.0.2"]
	require.True(t, ok, "install must lock the manifest dependency")
	assert.Equal(t, "17.0.2", locked.Version)
	require.NoError(t, integrity.Verify(tarball, locked.Sha1))
	assert.Equal(t, int64(1), reg.metadataCalls.Load())
}

func TestInstallCommand_ReusesVerifiedLockEntry(t *testing.T) {
	tarball := []byte("react tarball bytes")
	reg := startMockRegistry(t, "react", "17.0.2", tarball)

	manifest := &project.Manifest{Name: "demo", Version: "0.1.0"}
	manifest.AddDependency("react", "17.0.2")
	workDir := setupProjectDir(t, manifest)

	digest, err := integrity.Calculate(tarball, integrity.SHA512)
	require.NoError(t, err)
	lf := lockfile.New(filepath.Join(workDir, lockfile.LockfileName))
	lf.Add(
		lockfile.DependencyID{Name: "react", Spec: "17.0.2"},
		lockfile.DependencyLock{Name: "react", Version: "17.0.2", Tarball: reg.tarballURL, Sha1: digest},
	)
	require.NoError(t, lf.Save())

	require.NoError(t, runInstallCommand(t, "--registry", reg.server.URL))
	assert.Equal(t, int64(0), reg.metadataCalls.Load(), "a verified lock entry must skip resolution")
}

func TestInstallCommand_ReResolvesOnDigestMismatch(t *testing.T) {
	tarball := []byte("react tarball bytes")
	reg := startMockRegistry(t, "react", "17.0.2", tarball)

	manifest := &project.Manifest{Name: "demo", Version: "0.1.0"}
	manifest.AddDependency("react", "17.0.2")
	workDir := setupProjectDir(t, manifest)

	staleDigest, err := integrity.Calculate([]byte("different bytes"), integrity.SHA512)
	require.NoError(t, err)
	lf := lockfile.New(filepath.Join(workDir, lockfile.LockfileName))
	lf.Add(
		lockfile.DependencyID{Name: "react", Spec: "17.0.2"},
		lockfile.DependencyLock{Name: "react", Version: "17.0.2", Tarball: reg.tarballURL, Sha1: staleDigest},
	)
	require.NoError(t, lf.Save())

	require.NoError(t, runInstallCommand(t, "--registry", reg.server.URL))
	assert.Equal(t, int64(1), reg.metadataCalls.Load(), "a failed verification must trigger re-resolution")

	reloaded, err := lockfile.Load(filepath.Join(workDir, lockfile.LockfileName))
	require.NoError(t, err)
	require.NoError(t, integrity.Verify(tarball, reloaded.Dependencies["react@17.0.2"].Sha1), "lock entry must be refreshed with the real digest")
}

func TestInstallCommand_NoDependencies(t *testing.T) {
	workDir := setupProjectDir(t, &project.Manifest{Name: "demo", Version: "0.1.0"})

	require.NoError(t, runInstallCommand(t))

	_, err := os.Stat(filepath.Join(workDir, lockfile.LockfileName))
	assert.True(t, os.IsNotExist(err), "an empty manifest must not create a lockfile")
}

func TestInstallCommand_NoManifest(t *testing.T) {
	setupProjectDir(t, nil)
	err := runInstallCommand(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), project.ManifestName)
}
