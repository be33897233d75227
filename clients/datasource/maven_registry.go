// Copyright 2025 Red Hat, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package datasource fetches version metadata and artifacts from Maven
// registries.
package datasource

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"deps.dev/util/maven"
	"deps.dev/util/semver"
	"golang.org/x/net/html/charset"
	"golang.org/x/oauth2/google"

	"github.com/jmesnil/wildfly-channel/log"
)

// mavenCentral holds the URL of Maven Central Repository.
const mavenCentral = "https://repo.maven.apache.org/maven2"

// artifactRegistryScheme defines the scheme for Google Artifact Registry.
const artifactRegistryScheme = "artifactregistry"

// defaultExtension is the artifact extension used when a request does not
// name one.
const defaultExtension = "jar"

var errAPIFailed = errors.New("registry query failed")

// MavenRegistry defines a Maven registry the client talks to.
type MavenRegistry struct {
	URL    string
	Parsed *url.URL

	ID               string
	ReleasesEnabled  bool
	SnapshotsEnabled bool
}

// MavenRegistryAPIClient fetches metadata and artifacts from a set of Maven
// registries, trying each in order. Metadata responses are cached for the
// lifetime of the client; artifacts are downloaded once into a local
// repository layout.
type MavenRegistryAPIClient struct {
	registries    []MavenRegistry
	registryAuths map[string]*HTTPAuthentication // keyed by registry ID, from settings.xml
	localDir      string                         // root of the local artifact layout

	googleClient      *http.Client // used for Artifact Registry URLs
	disableGoogleAuth bool

	responses *RequestCache[string, response]
}

type response struct {
	StatusCode int
	Body       []byte
}

// NewMavenRegistryAPIClient returns a client over the given registries.
// With no registries, Maven Central is used. Artifacts are downloaded below
// localDir.
func NewMavenRegistryAPIClient(ctx context.Context, registries []MavenRegistry, localDir string, disableGoogleAuth bool) (*MavenRegistryAPIClient, error) {
	if len(registries) == 0 {
		registries = []MavenRegistry{{URL: mavenCentral, ID: "central", ReleasesEnabled: true}}
	}

	client := &MavenRegistryAPIClient{
		localDir:          localDir,
		registryAuths:     settingsAuths(),
		disableGoogleAuth: disableGoogleAuth,
		responses:         NewRequestCache[string, response](),
	}
	for i, registry := range registries {
		u, err := url.Parse(registry.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid Maven registry %s: %w", registry.URL, err)
		}
		registry.Parsed = u
		if registry.ID == "" {
			registry.ID = fmt.Sprintf("repository-%d", i)
		}
		client.registries = append(client.registries, registry)
		if u.Scheme == artifactRegistryScheme {
			client.createGoogleClient(ctx)
		}
	}
	return client, nil
}

// GetRegistries returns the registries the client was built over.
func (m *MavenRegistryAPIClient) GetRegistries() []MavenRegistry {
	return m.registries
}

// createGoogleClient creates a client for authenticating with Google services.
func (m *MavenRegistryAPIClient) createGoogleClient(ctx context.Context) {
	if m.googleClient != nil || m.disableGoogleAuth {
		return
	}
	client, err := google.DefaultClient(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		// Fall back to a regular http client.
		log.Warnf("failed to create Google default client, Artifact Registry access will be unavailable: %v", err)
		return
	}
	m.googleClient = client
}

// GetVersions returns the available versions of the artifact specified by
// groupID and artifactID. Versions found in all registries are unioned,
// then sorted under the Maven version order.
func (m *MavenRegistryAPIClient) GetVersions(ctx context.Context, groupID, artifactID string) ([]maven.String, error) {
	var versions []maven.String
	for _, registry := range m.registries {
		metadata, err := m.getArtifactMetadata(ctx, registry, groupID, artifactID)
		if err != nil {
			continue
		}
		versions = append(versions, metadata.Versioning.Versions...)
	}
	slices.SortFunc(versions, func(a, b maven.String) int { return semver.Maven.Compare(string(a), string(b)) })

	return slices.Compact(versions), nil
}

// GetMetadata returns the artifact-level repository metadata merged across
// registries: the version union plus the greatest latest and release
// markers any registry reports.
func (m *MavenRegistryAPIClient) GetMetadata(ctx context.Context, groupID, artifactID string) (maven.Metadata, error) {
	merged := maven.Metadata{GroupID: maven.String(groupID), ArtifactID: maven.String(artifactID)}
	found := false
	for _, registry := range m.registries {
		metadata, err := m.getArtifactMetadata(ctx, registry, groupID, artifactID)
		if err != nil {
			continue
		}
		found = true
		merged.Versioning.Versions = append(merged.Versioning.Versions, metadata.Versioning.Versions...)
		if laterVersion(metadata.Versioning.Latest, merged.Versioning.Latest) {
			merged.Versioning.Latest = metadata.Versioning.Latest
		}
		if laterVersion(metadata.Versioning.Release, merged.Versioning.Release) {
			merged.Versioning.Release = metadata.Versioning.Release
		}
	}
	if !found {
		return maven.Metadata{}, fmt.Errorf("%w: no metadata for %s:%s in any registry", errAPIFailed, groupID, artifactID)
	}
	slices.SortFunc(merged.Versioning.Versions, func(a, b maven.String) int { return semver.Maven.Compare(string(a), string(b)) })
	merged.Versioning.Versions = slices.Compact(merged.Versioning.Versions)

	return merged, nil
}

func laterVersion(candidate, current maven.String) bool {
	if candidate == "" {
		return false
	}
	return current == "" || semver.Maven.Compare(string(candidate), string(current)) > 0
}

// DownloadArtifact fetches one artifact into the local repository layout
// and returns its path. An artifact already present locally is not fetched
// again.
//
// TODO: resolve timestamped snapshot file names from version-level metadata.
func (m *MavenRegistryAPIClient) DownloadArtifact(ctx context.Context, groupID, artifactID, extension, classifier, version string) (string, error) {
	if extension == "" {
		extension = defaultExtension
	}
	filename := artifactID + "-" + version
	if classifier != "" {
		filename += "-" + classifier
	}
	filename += "." + extension

	paths := append(strings.Split(groupID, "."), artifactID, version, filename)
	localPath := filepath.Join(append([]string{m.localDir}, paths...)...)
	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	snapshot := strings.HasSuffix(version, "-SNAPSHOT")
	for _, registry := range m.registries {
		if snapshot && !registry.SnapshotsEnabled {
			continue
		}
		if !snapshot && !registry.ReleasesEnabled {
			continue
		}
		b, err := m.fetch(ctx, registry, paths)
		if err != nil {
			log.Debugf("registry %s: %v", registry.ID, err)
			continue
		}
		if err := writeFile(localPath, b); err != nil {
			return "", err
		}
		return localPath, nil
	}

	return "", fmt.Errorf("%w: %s:%s:%s not available in any registry", errAPIFailed, groupID, artifactID, version)
}

// getArtifactMetadata fetches an artifact level maven-metadata.xml and
// parses it to maven.Metadata.
func (m *MavenRegistryAPIClient) getArtifactMetadata(ctx context.Context, registry MavenRegistry, groupID, artifactID string) (maven.Metadata, error) {
	var metadata maven.Metadata
	paths := append(strings.Split(groupID, "."), artifactID, "maven-metadata.xml")
	if err := m.get(ctx, registry, paths, &metadata); err != nil {
		return maven.Metadata{}, err
	}
	return metadata, nil
}

// get performs a cached GET of a metadata document and decodes it into dst.
func (m *MavenRegistryAPIClient) get(ctx context.Context, registry MavenRegistry, paths []string, dst any) error {
	httpClient, requestURL := m.requestTarget(registry)
	u := requestURL.JoinPath(paths...).String()

	resp, err := m.responses.Get(u, func() (response, error) {
		log.Debugf("fetching %s", u)
		resp, err := m.registryAuths[registry.ID].Get(ctx, httpClient, u)
		if err != nil {
			return response{}, fmt.Errorf("%w: %w", errAPIFailed, err)
		}
		defer resp.Body.Close()

		// Only cache responses whose status is meaningful to retry-free use.
		if !slices.Contains([]int{http.StatusOK, http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden}, resp.StatusCode) {
			return response{}, fmt.Errorf("%w: status %d for %s", errAPIFailed, resp.StatusCode, u)
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return response{}, fmt.Errorf("failed to read body of %s: %w", u, err)
		}
		return response{StatusCode: resp.StatusCode, Body: b}, nil
	})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d for %s", errAPIFailed, resp.StatusCode, u)
	}

	return NewMavenDecoder(bytes.NewReader(resp.Body)).Decode(dst)
}

// fetch performs an uncached GET of an artifact and returns its bytes.
func (m *MavenRegistryAPIClient) fetch(ctx context.Context, registry MavenRegistry, paths []string) ([]byte, error) {
	httpClient, requestURL := m.requestTarget(registry)
	u := requestURL.JoinPath(paths...).String()

	log.Infof("downloading %s", u)
	resp, err := m.registryAuths[registry.ID].Get(ctx, httpClient, u)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errAPIFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d for %s", errAPIFailed, resp.StatusCode, u)
	}
	return io.ReadAll(resp.Body)
}

// requestTarget returns the http client and base URL for a registry,
// rewriting Artifact Registry URLs to HTTPS with the Google client.
func (m *MavenRegistryAPIClient) requestTarget(registry MavenRegistry) (*http.Client, url.URL) {
	httpClient := http.DefaultClient
	requestURL := *registry.Parsed
	if requestURL.Scheme == artifactRegistryScheme {
		requestURL.Scheme = "https"
		if m.googleClient != nil {
			httpClient = m.googleClient
		}
	}
	return httpClient, requestURL
}

// writeFile writes the bytes to the file specified by the given path.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer outFile.Close()

	if _, err := outFile.Write(data); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}

// NewMavenDecoder returns an xml decoder with CharsetReader and Entity set.
func NewMavenDecoder(reader io.Reader) *xml.Decoder {
	decoder := xml.NewDecoder(reader)
	// Convert from non-UTF-8 charsets into UTF-8.
	decoder.CharsetReader = charset.NewReaderLabel
	// Translate non-standard entity names.
	decoder.Entity = xml.HTMLEntity

	return decoder
}
