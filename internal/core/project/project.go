// Package project models the package.json manifest at a project root.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the fixed manifest filename at a project root.
const ManifestName = "package.json"

// Manifest is the project manifest. Dependencies maps package name to
// the requested version spec; encoding/json writes map keys sorted, so
// saving is deterministic the same way the lockfile is.
type Manifest struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Description  string            `json:"description,omitempty"`
	Main         string            `json:"main,omitempty"`
	Repository   string            `json:"repository,omitempty"`
	Author       string            `json:"author,omitempty"`
	License      string            `json:"license,omitempty"`
	Private      bool              `json:"private,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Load reads and parses the manifest in dirPath.
func Load(dirPath string) (*Manifest, error) {
	fullPath := filepath.Join(dirPath, ManifestName)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", fullPath, err)
	}
	return &m, nil
}

// Save writes the manifest into dirPath, overwriting any existing file.
func Save(dirPath string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	fullPath := filepath.Join(dirPath, ManifestName)
	if err := os.WriteFile(fullPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", fullPath, err)
	}
	return nil
}

// AddDependency records or replaces the requested spec for a package.
func (m *Manifest) AddDependency(name, spec string) {
	if m.Dependencies == nil {
		m.Dependencies = make(map[string]string)
	}
	m.Dependencies[name] = spec
}

// RemoveDependency drops a package from the manifest and reports whether
// it was present.
func (m *Manifest) RemoveDependency(name string) bool {
	if _, ok := m.Dependencies[name]; !ok {
		return false
	}
	delete(m.Dependencies, name)
	return true
}
