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
	"fmt"
	"regexp"

	"bitbucket.org/creachadair/stringset"
	"gopkg.in/yaml.v3"

	"github.com/jmesnil/wildfly-channel/version"
)

// BlocklistSchemaVersion is the schema version written for new blocklists.
const BlocklistSchemaVersion = "1.0.0"

const blocklistSchemaMajor = 1

// BlockedArtifact disallows versions of one (groupId, artifactId)
// coordinate, by exact version or by pattern. The artifactId may be the "*"
// wildcard.
type BlockedArtifact struct {
	GroupID    string
	ArtifactID string
	Versions   stringset.Set
	Pattern    *regexp.Regexp
}

type blockedArtifactYAML struct {
	GroupID        string   `yaml:"groupId"`
	ArtifactID     string   `yaml:"artifactId"`
	Versions       []string `yaml:"versions,omitempty"`
	VersionPattern string   `yaml:"versionPattern,omitempty"`
}

// UnmarshalYAML decodes one blocklist entry.
func (b *BlockedArtifact) UnmarshalYAML(node *yaml.Node) error {
	var raw blockedArtifactYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.GroupID == "" || raw.ArtifactID == "" {
		return fmt.Errorf("%w: blocklist entry is missing groupId or artifactId", ErrInvalidChannel)
	}
	if len(raw.Versions) == 0 && raw.VersionPattern == "" {
		return fmt.Errorf("%w: blocklist entry %s:%s blocks no versions", ErrInvalidChannel, raw.GroupID, raw.ArtifactID)
	}
	b.GroupID = raw.GroupID
	b.ArtifactID = raw.ArtifactID
	b.Versions = stringset.New(raw.Versions...)
	if raw.VersionPattern != "" {
		rx, err := regexp.Compile(raw.VersionPattern)
		if err != nil {
			return fmt.Errorf("%w: invalid blocklist versionPattern %q: %v", ErrInvalidChannel, raw.VersionPattern, err)
		}
		b.Pattern = rx
	}
	return nil
}

// Blocklist is a per-channel set of disallowed artifact versions.
type Blocklist struct {
	SchemaVersion string            `yaml:"schemaVersion"`
	Blocks        []BlockedArtifact `yaml:"blocks,omitempty"`
}

// ParseBlocklist decodes and validates a blocklist document.
func ParseBlocklist(data []byte) (*Blocklist, error) {
	var b Blocklist
	if err := unmarshalStrictErr(data, &b); err != nil {
		return nil, err
	}
	if err := checkSchemaVersion(b.SchemaVersion, blocklistSchemaMajor, "blocklist"); err != nil {
		return nil, err
	}
	return &b, nil
}

// IsBlocked reports whether the version of the coordinate is disallowed.
// A nil blocklist blocks nothing.
func (b *Blocklist) IsBlocked(groupID, artifactID, v string) bool {
	if b == nil {
		return false
	}
	for i := range b.Blocks {
		blk := &b.Blocks[i]
		if blk.GroupID != groupID {
			continue
		}
		if blk.ArtifactID != artifactID && blk.ArtifactID != Wildcard {
			continue
		}
		if blk.Versions.Contains(v) {
			return true
		}
		if blk.Pattern != nil && version.Matches(v, blk.Pattern) {
			return true
		}
	}
	return false
}
