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

package channel_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/jmesnil/wildfly-channel/channel"
)

func TestParseManifest(t *testing.T) {
	m, err := channel.ParseManifest([]byte(`
schemaVersion: 1.0.0
id: base
name: Base manifest
logical-version: "1"
description: streams of the base layer
requires:
  - id: other
  - maven:
      groupId: org.example
      artifactId: other-manifest
      version: 1.0.0
streams:
  - groupId: org.example
    artifactId: lib
    version: 1.2.3
  - groupId: org.example
    artifactId: "*"
    versionPattern: "2\\..*"
`))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if m.ID != "base" || m.Name != "Base manifest" || m.LogicalVersion != "1" {
		t.Errorf("unexpected manifest header: %+v", m)
	}
	if len(m.Requires) != 2 {
		t.Fatalf("got %d requirements, want 2", len(m.Requires))
	}
	if m.Requires[1].Maven == nil || m.Requires[1].Maven.ArtifactID != "other-manifest" {
		t.Errorf("maven requirement not decoded: %+v", m.Requires[1])
	}
	if len(m.Streams) != 2 {
		t.Fatalf("got %d streams, want 2", len(m.Streams))
	}
}

func TestParseManifestUnknownFieldsIgnored(t *testing.T) {
	_, err := channel.ParseManifest([]byte(`
schemaVersion: 1.0.0
some-future-field: whatever
streams: []
`))
	if err != nil {
		t.Fatalf("ParseManifest with unknown field: %v", err)
	}
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing schemaVersion", doc: `
streams: []
`},
		{name: "unsupported schemaVersion", doc: `
schemaVersion: 9.0.0
streams: []
`},
		{name: "both selectors", doc: `
schemaVersion: 1.0.0
streams:
  - groupId: org.example
    artifactId: lib
    version: 1.2.3
    versionPattern: "1\\..*"
`},
		{name: "no selector", doc: `
schemaVersion: 1.0.0
streams:
  - groupId: org.example
    artifactId: lib
`},
		{name: "duplicate streams", doc: `
schemaVersion: 1.0.0
streams:
  - groupId: org.example
    artifactId: lib
    version: 1.0.0
  - groupId: org.example
    artifactId: lib
    version: 2.0.0
`},
		{name: "requirement without id or maven", doc: `
schemaVersion: 1.0.0
requires:
  - {}
streams: []
`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := channel.ParseManifest([]byte(tc.doc)); !errors.Is(err, channel.ErrInvalidChannel) {
				t.Errorf("error = %v, want ErrInvalidChannel", err)
			}
		})
	}
}

func TestFindStreamExactBeforeWildcard(t *testing.T) {
	m, err := channel.ParseManifest([]byte(`
schemaVersion: 1.0.0
streams:
  - groupId: org.example
    artifactId: "*"
    version: 1.0.0
  - groupId: org.example
    artifactId: lib
    version: 2.0.0
`))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	st, ok := m.FindStream("org.example", "lib")
	if !ok || st.ArtifactID != "lib" {
		t.Errorf("FindStream(lib) = %+v, want the exact stream", st)
	}

	st, ok = m.FindStream("org.example", "anything-else")
	if !ok || st.ArtifactID != channel.Wildcard {
		t.Errorf("FindStream(anything-else) = %+v, want the wildcard stream", st)
	}

	if _, ok := m.FindStream("org.other", "lib"); ok {
		t.Error("FindStream matched across groups")
	}
}

func TestManifestRoundTrip(t *testing.T) {
	m := &channel.Manifest{
		SchemaVersion: channel.ManifestSchemaVersion,
		Streams: []channel.Stream{
			{GroupID: "org.example", ArtifactID: "lib", Selector: channel.FixedVersion("1.2.3")},
			{GroupID: "org.example", ArtifactID: "other", Selector: mustPattern(t, `1\..*`)},
		},
	}
	data, err := m.ToYAML()
	if err != nil {
		t.Fatalf("ToYAML: %v", err)
	}
	if !strings.Contains(string(data), "version: 1.2.3") || !strings.Contains(string(data), "versionPattern:") {
		t.Fatalf("unexpected serialization:\n%s", data)
	}

	got, err := channel.ParseManifest(data)
	if err != nil {
		t.Fatalf("ParseManifest(round trip): %v", err)
	}
	if len(got.Streams) != 2 {
		t.Fatalf("round trip lost streams: %+v", got.Streams)
	}
	if v, ok := got.Streams[0].Selector.(channel.FixedVersion); !ok || string(v) != "1.2.3" {
		t.Errorf("round trip selector = %#v, want fixed 1.2.3", got.Streams[0].Selector)
	}
}

func mustPattern(t *testing.T, expr string) channel.VersionPattern {
	t.Helper()
	p, err := channel.NewVersionPattern(expr)
	if err != nil {
		t.Fatalf("NewVersionPattern(%q): %v", expr, err)
	}
	return p
}
