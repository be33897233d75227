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

// Package channel defines the channel, manifest and blocklist documents the
// resolver operates on, together with their YAML serialization.
package channel

import (
	"fmt"
	"regexp"

	"bitbucket.org/creachadair/stringset"
	"gopkg.in/yaml.v3"

	"github.com/jmesnil/wildfly-channel/version"
)

// Wildcard is the artifactId value matching any artifact of a group that is
// not matched by a more specific stream.
const Wildcard = "*"

// VersionSelector picks a version for a stream out of the candidate versions
// known to a repository. Exactly one selector variant is attached to a stream.
type VersionSelector interface {
	// Select returns the chosen version, or false if no candidate qualifies.
	Select(candidates []string) (string, bool)
}

// FixedVersion selects its literal version, whether or not the repository
// knows about it.
type FixedVersion string

// Select returns the fixed version regardless of candidates.
func (f FixedVersion) Select([]string) (string, bool) { return string(f), true }

func (f FixedVersion) String() string { return string(f) }

// VersionPattern selects the greatest candidate version fully matching a
// regular expression.
type VersionPattern struct {
	rx *regexp.Regexp
}

// NewVersionPattern compiles expr into a VersionPattern.
func NewVersionPattern(expr string) (VersionPattern, error) {
	rx, err := regexp.Compile(expr)
	if err != nil {
		return VersionPattern{}, fmt.Errorf("%w: invalid versionPattern %q: %v", ErrInvalidChannel, expr, err)
	}
	return VersionPattern{rx: rx}, nil
}

// Select returns the greatest candidate matching the pattern.
func (p VersionPattern) Select(candidates []string) (string, bool) {
	return version.LatestMatching(candidates, func(v string) bool {
		return version.Matches(v, p.rx)
	})
}

func (p VersionPattern) String() string { return p.rx.String() }

// VersionSet selects the greatest candidate contained in a finite version
// set. Reserved for base-version disambiguation.
type VersionSet struct {
	set stringset.Set
}

// NewVersionSet builds a VersionSet out of the given versions.
func NewVersionSet(versions ...string) VersionSet {
	return VersionSet{set: stringset.New(versions...)}
}

// Select returns the greatest candidate present in the set.
func (s VersionSet) Select(candidates []string) (string, bool) {
	return version.LatestMatching(candidates, func(v string) bool {
		return s.set.Contains(v)
	})
}

// Versions returns the set elements in sorted order.
func (s VersionSet) Versions() []string { return s.set.Elements() }

// Stream maps a Maven (groupId, artifactId) coordinate to a version
// selector. The artifactId may be the "*" wildcard.
type Stream struct {
	GroupID    string
	ArtifactID string
	Selector   VersionSelector
}

// Matches reports whether the stream applies to the coordinate. An exact
// artifactId matches; the "*" wildcard matches any artifact of the stream's
// group. A wildcard groupId never matches.
func (s *Stream) Matches(groupID, artifactID string) bool {
	if s.GroupID == Wildcard || s.GroupID != groupID {
		return false
	}
	return s.ArtifactID == artifactID || s.ArtifactID == Wildcard
}

type streamYAML struct {
	GroupID        string   `yaml:"groupId"`
	ArtifactID     string   `yaml:"artifactId"`
	Version        string   `yaml:"version,omitempty"`
	VersionPattern string   `yaml:"versionPattern,omitempty"`
	Versions       []string `yaml:"versions,omitempty"`
}

// UnmarshalYAML decodes a stream, rejecting documents that populate more or
// less than one selector.
func (s *Stream) UnmarshalYAML(node *yaml.Node) error {
	var raw streamYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.GroupID == "" {
		return fmt.Errorf("%w: stream is missing groupId", ErrInvalidChannel)
	}
	if raw.ArtifactID == "" {
		return fmt.Errorf("%w: stream %s is missing artifactId", ErrInvalidChannel, raw.GroupID)
	}

	selectors := 0
	if raw.Version != "" {
		selectors++
		s.Selector = FixedVersion(raw.Version)
	}
	if raw.VersionPattern != "" {
		selectors++
		p, err := NewVersionPattern(raw.VersionPattern)
		if err != nil {
			return err
		}
		s.Selector = p
	}
	if len(raw.Versions) > 0 {
		selectors++
		s.Selector = NewVersionSet(raw.Versions...)
	}
	if selectors != 1 {
		return fmt.Errorf("%w: stream %s:%s must declare exactly one of version, versionPattern or versions", ErrInvalidChannel, raw.GroupID, raw.ArtifactID)
	}

	s.GroupID = raw.GroupID
	s.ArtifactID = raw.ArtifactID
	return nil
}

// MarshalYAML encodes the stream with the field matching its selector.
func (s Stream) MarshalYAML() (any, error) {
	raw := streamYAML{GroupID: s.GroupID, ArtifactID: s.ArtifactID}
	switch sel := s.Selector.(type) {
	case FixedVersion:
		raw.Version = string(sel)
	case VersionPattern:
		raw.VersionPattern = sel.String()
	case VersionSet:
		raw.Versions = sel.Versions()
	default:
		return nil, fmt.Errorf("%w: stream %s:%s has no selector", ErrInvalidChannel, s.GroupID, s.ArtifactID)
	}
	return raw, nil
}
