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

	"gopkg.in/yaml.v3"
)

// ChannelSchemaVersion is the schema version written for new channel
// definitions. Channels of any 2.x schema are accepted.
const ChannelSchemaVersion = "2.1.0"

const channelSchemaMajor = 2

// NoStreamStrategy governs the fallback when no stream of a channel or its
// required channels matches a coordinate.
type NoStreamStrategy string

// The supported no-stream strategies.
const (
	// NoStreamNone yields no version, letting the session try other channels.
	NoStreamNone NoStreamStrategy = "none"
	// NoStreamLatest yields the greatest version known to the repositories.
	NoStreamLatest NoStreamStrategy = "latest"
	// NoStreamMavenLatest yields the metadata "latest" marker.
	NoStreamMavenLatest NoStreamStrategy = "maven-latest"
	// NoStreamMavenRelease yields the metadata "release" marker.
	NoStreamMavenRelease NoStreamStrategy = "maven-release"
	// NoStreamOriginal yields the base version the caller asked about.
	NoStreamOriginal NoStreamStrategy = "original"
)

var noStreamStrategies = map[NoStreamStrategy]bool{
	NoStreamNone:         true,
	NoStreamLatest:       true,
	NoStreamMavenLatest:  true,
	NoStreamMavenRelease: true,
	NoStreamOriginal:     true,
}

// Repository names a Maven repository a channel resolves artifacts from.
type Repository struct {
	ID  string `yaml:"id"`
	URL string `yaml:"url"`
}

// SourceRef points at a document to load, either by inline URL or by Maven
// coordinates. Exactly one of the fields is set.
type SourceRef struct {
	URL   string           `yaml:"url,omitempty"`
	Maven *MavenCoordinate `yaml:"maven,omitempty"`
	// SignatureURL locates a detached signature for the document.
	// Signatures are carried for callers that verify them.
	SignatureURL string `yaml:"signature-url,omitempty"`
}

// Channel is the definition of a channel: where its manifest lives, the
// repositories serving its artifacts, an optional blocklist, and the
// fallback behavior when no stream matches.
type Channel struct {
	SchemaVersion    string           `yaml:"schemaVersion"`
	Name             string           `yaml:"name,omitempty"`
	Description      string           `yaml:"description,omitempty"`
	Manifest         SourceRef        `yaml:"manifest"`
	Repositories     []Repository     `yaml:"repositories"`
	Blocklist        *SourceRef       `yaml:"blocklist,omitempty"`
	NoStreamStrategy NoStreamStrategy `yaml:"resolve-if-no-stream,omitempty"`
	GPGCheck         bool             `yaml:"gpg-check,omitempty"`
	GPGURLs          []string         `yaml:"gpg-urls,omitempty"`
}

// ParseChannel decodes and validates a single channel definition.
func ParseChannel(data []byte) (*Channel, error) {
	var c Channel
	if err := unmarshalStrictErr(data, &c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ParseChannels decodes a YAML list of channel definitions.
func ParseChannels(data []byte) ([]*Channel, error) {
	var cs []*Channel
	if err := unmarshalStrictErr(data, &cs); err != nil {
		return nil, err
	}
	for _, c := range cs {
		if err := c.validate(); err != nil {
			return nil, err
		}
	}
	return cs, nil
}

func unmarshalStrictErr(data []byte, dst any) error {
	if err := yaml.Unmarshal(data, dst); err != nil {
		if errors.Is(err, ErrInvalidChannel) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInvalidChannel, err)
	}
	return nil
}

func (c *Channel) validate() error {
	if err := checkSchemaVersion(c.SchemaVersion, channelSchemaMajor, "channel"); err != nil {
		return err
	}
	if err := c.Manifest.validate("manifest"); err != nil {
		return err
	}
	if c.Blocklist != nil {
		if err := c.Blocklist.validate("blocklist"); err != nil {
			return err
		}
	}
	if c.NoStreamStrategy == "" {
		c.NoStreamStrategy = NoStreamNone
	}
	if !noStreamStrategies[c.NoStreamStrategy] {
		return fmt.Errorf("%w: unknown resolve-if-no-stream strategy %q", ErrInvalidChannel, c.NoStreamStrategy)
	}
	return nil
}

func (r *SourceRef) validate(kind string) error {
	switch {
	case r.URL == "" && r.Maven == nil:
		return fmt.Errorf("%w: %s names neither a url nor Maven coordinates", ErrInvalidChannel, kind)
	case r.URL != "" && r.Maven != nil:
		return fmt.Errorf("%w: %s names both a url and Maven coordinates", ErrInvalidChannel, kind)
	}
	return nil
}
