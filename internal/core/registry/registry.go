// Package registry speaks to an npm-compatible package index: it fetches
// package metadata documents and maps a requested version spec onto one
// concrete published version.
package registry

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// DefaultBaseURL is the public npm registry.
const DefaultBaseURL = "https://registry.npmjs.org"

// DistTags holds the registry's named version pointers.
type DistTags struct {
	Latest string `json:"latest"`
}

// Dist describes where one published version's tarball lives and what
// its content should digest to.
type Dist struct {
	Integrity string `json:"integrity"`
	Shasum    string `json:"shasum"`
	Tarball   string `json:"tarball"`
}

// Version is one published version of a package, trimmed to the fields
// the install pipeline reads.
type Version struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
	Dist         Dist              `json:"dist"`
}

// Package is a registry metadata document.
type Package struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	License     string             `json:"license"`
	DistTags    DistTags           `json:"dist-tags"`
	Versions    map[string]Version `json:"versions"`
}

// Client fetches metadata documents from one registry.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client for the given registry base URL, falling
// back to the public npm registry when baseURL is empty.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{BaseURL: baseURL, HTTPClient: http.DefaultClient}
}

// FetchPackage retrieves the metadata document for a package. Scoped
// names are path-escaped the way the npm registry expects
// ("@scope%2Fname").
func (c *Client) FetchPackage(name string) (*Package, error) {
	endpoint := c.BaseURL + "/" + url.PathEscape(name)
	resp, err := c.HTTPClient.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata for %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch metadata for %s: received status code %d", name, resp.StatusCode)
	}

	var pkg Package
	if err := json.NewDecoder(resp.Body).Decode(&pkg); err != nil {
		return nil, fmt.Errorf("failed to decode metadata for %s: %w", name, err)
	}
	return &pkg, nil
}

// ResolveVersion maps a requested spec onto one concrete published
// version. An empty spec or "latest" resolves through the latest
// dist-tag (or, if the tag is absent, the highest published version by
// semver comparison); an exact published version resolves to itself.
// Range specs are deliberately not solved here: anything else is an
// error.
func ResolveVersion(pkg *Package, spec string) (Version, error) {
	if spec == "" || spec == "latest" {
		if tagged, ok := pkg.Versions[pkg.DistTags.Latest]; ok {
			return tagged, nil
		}
		return highestVersion(pkg)
	}

	ver, ok := pkg.Versions[spec]
	if !ok {
		return Version{}, fmt.Errorf("no published version of %s matches %q (only exact versions and \"latest\" are supported)", pkg.Name, spec)
	}
	if _, err := semver.StrictNewVersion(spec); err != nil {
		return Version{}, fmt.Errorf("version %q of %s is not a concrete semantic version: %w", spec, pkg.Name, err)
	}
	return ver, nil
}

// highestVersion picks the greatest published version by semver
// comparison, skipping any version string that does not parse strictly.
func highestVersion(pkg *Package) (Version, error) {
	parsed := make([]*semver.Version, 0, len(pkg.Versions))
	for raw := range pkg.Versions {
		v, err := semver.StrictNewVersion(raw)
		if err != nil {
			continue
		}
		parsed = append(parsed, v)
	}
	if len(parsed) == 0 {
		return Version{}, fmt.Errorf("package %s has no resolvable published versions", pkg.Name)
	}
	sort.Sort(semver.Collection(parsed))
	return pkg.Versions[parsed[len(parsed)-1].String()], nil
}
