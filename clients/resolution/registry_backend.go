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

// Package resolution binds the Maven registry client to the resolver's
// backend capability.
package resolution

import (
	"context"
	"fmt"
	"os"

	"github.com/jmesnil/wildfly-channel/channel"
	"github.com/jmesnil/wildfly-channel/clients/datasource"
	"github.com/jmesnil/wildfly-channel/resolver"
	"github.com/jmesnil/wildfly-channel/version"
)

const (
	manifestExtension  = "yaml"
	manifestClassifier = "manifest"
)

// RegistryFactory builds registry-backed resolver backends. The zero value
// downloads artifacts below a temporary directory.
type RegistryFactory struct {
	// CacheDir is the root of the local artifact layout shared by the
	// backends the factory creates.
	CacheDir string
	// DisableGoogleAuth prevents the creation of a Google client for
	// Artifact Registry URLs.
	DisableGoogleAuth bool
}

// New builds a backend over the given repositories.
func (f *RegistryFactory) New(ctx context.Context, repositories []channel.Repository) (resolver.Backend, error) {
	if f.CacheDir == "" {
		dir, err := os.MkdirTemp("", "wildfly-channel-")
		if err != nil {
			return nil, err
		}
		f.CacheDir = dir
	}

	registries := make([]datasource.MavenRegistry, len(repositories))
	for i, repo := range repositories {
		registries[i] = datasource.MavenRegistry{ID: repo.ID, URL: repo.URL, ReleasesEnabled: true}
	}
	api, err := datasource.NewMavenRegistryAPIClient(ctx, registries, f.CacheDir, f.DisableGoogleAuth)
	if err != nil {
		return nil, err
	}
	return &RegistryBackend{api: api}, nil
}

// RegistryBackend implements resolver.Backend over a Maven registry client.
type RegistryBackend struct {
	api *datasource.MavenRegistryAPIClient
}

// NewRegistryBackend returns a backend over an existing registry client.
func NewRegistryBackend(api *datasource.MavenRegistryAPIClient) *RegistryBackend {
	return &RegistryBackend{api: api}
}

// ResolveArtifact downloads one artifact and returns its local path.
func (b *RegistryBackend) ResolveArtifact(ctx context.Context, groupID, artifactID, extension, classifier, version string) (string, error) {
	return b.api.DownloadArtifact(ctx, groupID, artifactID, extension, classifier, version)
}

// ResolveArtifacts downloads several artifacts, preserving input order.
func (b *RegistryBackend) ResolveArtifacts(ctx context.Context, coordinates []resolver.ArtifactCoordinate) ([]string, error) {
	paths := make([]string, len(coordinates))
	for i, coord := range coordinates {
		path, err := b.api.DownloadArtifact(ctx, coord.GroupID, coord.ArtifactID, coord.Extension, coord.Classifier, coord.Version)
		if err != nil {
			return nil, err
		}
		paths[i] = path
	}
	return paths, nil
}

// GetAllVersions returns the versions the registries know for the
// coordinate. Maven version metadata is artifact level, so the extension
// and classifier do not narrow the result.
func (b *RegistryBackend) GetAllVersions(ctx context.Context, groupID, artifactID, _, _ string) ([]string, error) {
	versions, err := b.api.GetVersions(ctx, groupID, artifactID)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(versions))
	for i, v := range versions {
		out[i] = string(v)
	}
	return out, nil
}

// GetMetadataLatestVersion returns the metadata "latest" marker, or "" when
// the registries report none.
func (b *RegistryBackend) GetMetadataLatestVersion(ctx context.Context, groupID, artifactID string) (string, error) {
	metadata, err := b.api.GetMetadata(ctx, groupID, artifactID)
	if err != nil {
		return "", err
	}
	return string(metadata.Versioning.Latest), nil
}

// GetMetadataReleaseVersion returns the metadata "release" marker, or ""
// when the registries report none.
func (b *RegistryBackend) GetMetadataReleaseVersion(ctx context.Context, groupID, artifactID string) (string, error) {
	metadata, err := b.api.GetMetadata(ctx, groupID, artifactID)
	if err != nil {
		return "", err
	}
	return string(metadata.Versioning.Release), nil
}

// ResolveChannelMetadata downloads the manifest documents the coordinates
// point at and returns their local paths, in input order. A coordinate
// without a version resolves to the greatest published manifest version.
func (b *RegistryBackend) ResolveChannelMetadata(ctx context.Context, refs []channel.MavenCoordinate) ([]string, error) {
	paths := make([]string, len(refs))
	for i, ref := range refs {
		v := ref.Version
		if v == "" {
			all, err := b.GetAllVersions(ctx, ref.GroupID, ref.ArtifactID, manifestExtension, manifestClassifier)
			if err != nil {
				return nil, err
			}
			latest, ok := version.Latest(all)
			if !ok {
				return nil, fmt.Errorf("no manifest published for %s", ref)
			}
			v = latest
		}
		path, err := b.api.DownloadArtifact(ctx, ref.GroupID, ref.ArtifactID, manifestExtension, manifestClassifier, v)
		if err != nil {
			return nil, err
		}
		paths[i] = path
	}
	return paths, nil
}

// Close releases the backend. The registry client holds no connections of
// its own, so there is nothing to release beyond letting caches go.
func (b *RegistryBackend) Close() error { return nil }
