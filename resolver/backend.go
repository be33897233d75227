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

// Package resolver implements the channel resolution session: it maps a
// Maven coordinate to the winning stream across a set of channels and their
// transitively required manifests, fetches the artifact from the channel
// that won, and records every resolution into a replayable manifest.
package resolver

import (
	"context"

	"github.com/jmesnil/wildfly-channel/channel"
)

// ArtifactCoordinate identifies one artifact to resolve. Extension and
// Classifier may be empty. For resolution requests the Version is the base
// version the caller knows about, if any.
type ArtifactCoordinate struct {
	GroupID    string
	ArtifactID string
	Extension  string
	Classifier string
	Version    string
}

func (c ArtifactCoordinate) String() string {
	s := c.GroupID + ":" + c.ArtifactID
	if c.Extension != "" {
		s += ":" + c.Extension
	}
	if c.Classifier != "" {
		s += ":" + c.Classifier
	}
	if c.Version != "" {
		s += ":" + c.Version
	}
	return s
}

// Backend is the injected repository capability the resolver fetches
// artifacts and version information through. Implementations may block on
// network I/O; transient failures surface unchanged to the session caller.
type Backend interface {
	// ResolveArtifact fetches one artifact and returns a local file path.
	ResolveArtifact(ctx context.Context, groupID, artifactID, extension, classifier, version string) (string, error)
	// ResolveArtifacts fetches several artifacts. The returned paths are in
	// the same order as the coordinates.
	ResolveArtifacts(ctx context.Context, coordinates []ArtifactCoordinate) ([]string, error)
	// GetAllVersions returns the versions the repositories know for the
	// coordinate.
	GetAllVersions(ctx context.Context, groupID, artifactID, extension, classifier string) ([]string, error)
	// GetMetadataLatestVersion returns the repository metadata "latest"
	// marker, or "" if the metadata does not carry one.
	GetMetadataLatestVersion(ctx context.Context, groupID, artifactID string) (string, error)
	// GetMetadataReleaseVersion returns the repository metadata "release"
	// marker, or "" if the metadata does not carry one.
	GetMetadataReleaseVersion(ctx context.Context, groupID, artifactID string) (string, error)
	// ResolveChannelMetadata maps manifest coordinates to URLs the manifest
	// documents can be read from, in input order. A coordinate without a
	// version resolves to the greatest available manifest version.
	ResolveChannelMetadata(ctx context.Context, refs []channel.MavenCoordinate) ([]string, error)
	// Close releases the backend's resources.
	Close() error
}

// Factory builds Backends for sets of repositories. The session calls it
// once per channel with the channel's effective repositories, and once with
// the union of all repositories for direct resolution.
type Factory interface {
	New(ctx context.Context, repositories []channel.Repository) (Backend, error)
}

// MavenArtifact is a resolved artifact: the coordinate the session settled
// on and the local file the backend delivered.
type MavenArtifact struct {
	GroupID    string
	ArtifactID string
	Extension  string
	Classifier string
	Version    string
	File       string
}
