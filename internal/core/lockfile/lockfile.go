// Package lockfile persists the resolved dependency graph of a project:
// exact versions, tarball URLs, and content digests, keyed by the
// requested dependency in canonical "name@spec" form. The on-disk file is
// a single JSON object whose keys are always sorted, so two lockfiles
// with the same logical content are byte-identical no matter the order
// the dependencies were added in.
package lockfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// LockfileName is the fixed lockfile filename at a project root.
const LockfileName = "pyrope.lock"

var (
	// ErrIO marks failures opening or creating the lockfile.
	ErrIO = errors.New("unable to access lock file")
	// ErrDecode marks malformed on-disk content found during Load.
	ErrDecode = errors.New("unable to decode lock file")
	// ErrEncode marks serialization failures during Save.
	ErrEncode = errors.New("unable to encode lock file")
)

// DependencyID identifies a requested dependency: the package name plus
// the version spec it was requested under. Identity, ordering, and the
// on-disk key are all derived from the single canonical string form
// returned by String; two IDs are the same dependency iff their
// canonical strings are equal.
type DependencyID struct {
	Name string
	Spec string
}

// String returns the canonical "name@spec" form.
func (id DependencyID) String() string {
	return id.Name + "@" + id.Spec
}

// ParseDependencyID parses a canonical "name@spec" string. The split is
// on the last "@" so that scoped names such as "@tools/runner@^1.0.0"
// keep their leading scope intact. A string with no delimiter, or with
// an empty name segment, is malformed.
func ParseDependencyID(s string) (DependencyID, error) {
	at := strings.LastIndex(s, "@")
	if at <= 0 {
		return DependencyID{}, fmt.Errorf("%w: dependency key %q is not in name@spec form", ErrDecode, s)
	}
	return DependencyID{Name: s[:at], Spec: s[at+1:]}, nil
}

// DependencyLock is the pinned result of resolving and downloading one
// dependency. The digest field is named "sha1" on disk for historical
// reasons; it holds a tagged integrity string from whichever algorithm
// produced it. Records are replaced wholesale on re-resolution.
type DependencyLock struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Tarball string `json:"tarball"`
	Sha1    string `json:"sha1"`
}

// DependenciesMap stores lock records keyed by the canonical dependency
// string. Lookups and inserts go through the unordered map; the sorted
// projection only exists at serialization time.
type DependenciesMap map[string]DependencyLock

// MarshalJSON writes the map as a single JSON object with keys in
// ascending byte order, independent of map iteration order.
func (m DependenciesMap) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		entry, err := json.Marshal(m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(entry)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts entries in any order and rejects keys that are
// not valid canonical dependency strings.
func (m *DependenciesMap) UnmarshalJSON(data []byte) error {
	raw := make(map[string]DependencyLock)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed := make(DependenciesMap, len(raw))
	for k, v := range raw {
		if _, err := ParseDependencyID(k); err != nil {
			return err
		}
		parsed[k] = v
	}
	*m = parsed
	return nil
}

// Lockfile owns a filesystem path and the dependency map persisted
// there. It is created empty with New or hydrated from disk with Load;
// mutations happen in memory via Add and only reach disk through an
// explicit Save.
type Lockfile struct {
	Path         string
	Dependencies DependenciesMap
}

// New returns an empty lockfile bound to path. No filesystem access
// happens until Save.
func New(path string) *Lockfile {
	return &Lockfile{
		Path:         path,
		Dependencies: make(DependenciesMap, 1), // at least one dependency will be added
	}
}

// Load reads and decodes the lockfile at path. Open failures (including
// a missing file) report ErrIO; malformed content reports ErrDecode.
func Load(path string) (*Lockfile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() { _ = file.Close() }()

	var deps DependenciesMap
	if err := json.NewDecoder(bufio.NewReader(file)).Decode(&deps); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	if deps == nil {
		deps = make(DependenciesMap, 1)
	}
	return &Lockfile{Path: path, Dependencies: deps}, nil
}

// Add upserts the lock record for id. An existing record under the same
// canonical key is replaced; nothing of the old record is kept.
func (lf *Lockfile) Add(id DependencyID, lock DependencyLock) {
	if lf.Dependencies == nil {
		lf.Dependencies = make(DependenciesMap, 1)
	}
	lf.Dependencies[id.String()] = lock
}

// RemoveAll deletes every record locked under the given package name and
// reports how many were removed.
func (lf *Lockfile) RemoveAll(name string) int {
	removed := 0
	for key := range lf.Dependencies {
		id, err := ParseDependencyID(key)
		if err == nil && id.Name == name {
			delete(lf.Dependencies, key)
			removed++
		}
	}
	return removed
}

// Save creates or truncates the file at lf.Path and writes the sorted
// snapshot through a buffered writer. The write either succeeds or
// returns an error, but there is no temp-file-and-rename step: a crash
// mid-write can leave a truncated file behind.
func (lf *Lockfile) Save() error {
	data, err := json.MarshalIndent(lf.Dependencies, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	file, err := os.Create(lf.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() { _ = file.Close() }()

	writer := bufio.NewWriter(file)
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
