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

package channel

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidChannel reports a malformed channel, manifest or blocklist
// document: schema version mismatch, missing required fields, or a stream
// with an ambiguous selector.
var ErrInvalidChannel = errors.New("invalid channel document")

// ManifestSchemaVersion is the schema version written for new manifests.
// Manifests of any 1.x schema are accepted.
const ManifestSchemaVersion = "1.1.0"

const manifestSchemaMajor = 1

// MavenCoordinate locates an artifact in a Maven repository. An empty
// Version means the greatest available version.
type MavenCoordinate struct {
	GroupID    string `yaml:"groupId"`
	ArtifactID string `yaml:"artifactId"`
	Version    string `yaml:"version,omitempty"`
}

func (c MavenCoordinate) String() string {
	if c.Version == "" {
		return c.GroupID + ":" + c.ArtifactID
	}
	return c.GroupID + ":" + c.ArtifactID + ":" + c.Version
}

// ManifestRequirement names another manifest this manifest depends on,
// either by logical id (resolved against the session's channel list) or by
// Maven coordinates.
type ManifestRequirement struct {
	ID    string           `yaml:"id,omitempty"`
	Maven *MavenCoordinate `yaml:"maven,omitempty"`
}

// Manifest is a named collection of streams plus the manifests it requires.
type Manifest struct {
	SchemaVersion  string                `yaml:"schemaVersion"`
	ID             string                `yaml:"id,omitempty"`
	Name           string                `yaml:"name,omitempty"`
	LogicalVersion string                `yaml:"logical-version,omitempty"`
	Description    string                `yaml:"description,omitempty"`
	Streams        []Stream              `yaml:"streams,omitempty"`
	Requires       []ManifestRequirement `yaml:"requires,omitempty"`
}

// ParseManifest decodes and validates a manifest document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		if errors.Is(err, ErrInvalidChannel) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidChannel, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ToYAML encodes the manifest.
func (m *Manifest) ToYAML() ([]byte, error) {
	return yaml.Marshal(m)
}

func (m *Manifest) validate() error {
	if err := checkSchemaVersion(m.SchemaVersion, manifestSchemaMajor, "manifest"); err != nil {
		return err
	}
	for _, r := range m.Requires {
		if r.ID == "" && r.Maven == nil {
			return fmt.Errorf("%w: manifest requirement names neither an id nor Maven coordinates", ErrInvalidChannel)
		}
	}

	slices.SortStableFunc(m.Streams, compareStreams)
	for i := 1; i < len(m.Streams); i++ {
		if compareStreams(m.Streams[i-1], m.Streams[i]) == 0 {
			return fmt.Errorf("%w: duplicate stream %s:%s", ErrInvalidChannel, m.Streams[i].GroupID, m.Streams[i].ArtifactID)
		}
	}
	return nil
}

func compareStreams(a, b Stream) int {
	if c := strings.Compare(a.GroupID, b.GroupID); c != 0 {
		return c
	}
	return strings.Compare(a.ArtifactID, b.ArtifactID)
}

// FindStream returns the stream applying to the coordinate. An exact
// (groupId, artifactId) stream wins over a (groupId, "*") wildcard in the
// same manifest.
func (m *Manifest) FindStream(groupID, artifactID string) (*Stream, bool) {
	var wildcard *Stream
	for i := range m.Streams {
		s := &m.Streams[i]
		if !s.Matches(groupID, artifactID) {
			continue
		}
		if s.ArtifactID != Wildcard {
			return s, true
		}
		if wildcard == nil {
			wildcard = s
		}
	}
	return wildcard, wildcard != nil
}

// checkSchemaVersion validates a document's schemaVersion against the major
// version the resolver understands. Newer minor versions are accepted for
// forward compatibility.
func checkSchemaVersion(v string, major int, kind string) error {
	if v == "" {
		return fmt.Errorf("%w: %s is missing schemaVersion", ErrInvalidChannel, kind)
	}
	head, _, _ := strings.Cut(v, ".")
	got, err := strconv.Atoi(head)
	if err != nil {
		return fmt.Errorf("%w: %s schemaVersion %q is not a version number", ErrInvalidChannel, kind, v)
	}
	if got != major {
		return fmt.Errorf("%w: unsupported %s schemaVersion %q", ErrInvalidChannel, kind, v)
	}
	return nil
}
