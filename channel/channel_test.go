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
	"testing"

	"github.com/jmesnil/wildfly-channel/channel"
)

func TestParseChannel(t *testing.T) {
	c, err := channel.ParseChannel([]byte(`
schemaVersion: 2.0.0
name: Example channel
description: curated versions of the example stack
manifest:
  maven:
    groupId: org.example.channels
    artifactId: base
repositories:
  - id: central
    url: https://repo1.maven.org/maven2
  - id: example
    url: https://maven.example.org
blocklist:
  url: https://example.org/blocklist.yaml
resolve-if-no-stream: maven-latest
gpg-check: true
gpg-urls:
  - https://example.org/public.key
`))
	if err != nil {
		t.Fatalf("ParseChannel: %v", err)
	}
	if c.Manifest.Maven == nil || c.Manifest.Maven.GroupID != "org.example.channels" {
		t.Errorf("manifest source not decoded: %+v", c.Manifest)
	}
	if len(c.Repositories) != 2 || c.Repositories[0].ID != "central" {
		t.Errorf("repositories not decoded: %+v", c.Repositories)
	}
	if c.NoStreamStrategy != channel.NoStreamMavenLatest {
		t.Errorf("strategy = %q, want maven-latest", c.NoStreamStrategy)
	}
	if !c.GPGCheck || len(c.GPGURLs) != 1 {
		t.Errorf("gpg fields not carried: check=%v urls=%v", c.GPGCheck, c.GPGURLs)
	}
}

func TestParseChannelDefaultsStrategyToNone(t *testing.T) {
	c, err := channel.ParseChannel([]byte(`
schemaVersion: 2.0.0
manifest:
  url: https://example.org/manifest.yaml
repositories:
  - id: central
    url: https://repo1.maven.org/maven2
`))
	if err != nil {
		t.Fatalf("ParseChannel: %v", err)
	}
	if c.NoStreamStrategy != channel.NoStreamNone {
		t.Errorf("strategy = %q, want none", c.NoStreamStrategy)
	}
}

func TestParseChannels(t *testing.T) {
	cs, err := channel.ParseChannels([]byte(`
- schemaVersion: 2.0.0
  name: first
  manifest:
    url: https://example.org/first.yaml
  repositories:
    - id: central
      url: https://repo1.maven.org/maven2
- schemaVersion: 2.0.0
  name: second
  manifest:
    url: https://example.org/second.yaml
  repositories:
    - id: central
      url: https://repo1.maven.org/maven2
`))
	if err != nil {
		t.Fatalf("ParseChannels: %v", err)
	}
	if len(cs) != 2 || cs[0].Name != "first" || cs[1].Name != "second" {
		t.Errorf("unexpected channels: %+v", cs)
	}
}

func TestParseChannelErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing schemaVersion", doc: `
manifest:
  url: https://example.org/manifest.yaml
`},
		{name: "unsupported schemaVersion", doc: `
schemaVersion: 1.0.0
manifest:
  url: https://example.org/manifest.yaml
`},
		{name: "no manifest source", doc: `
schemaVersion: 2.0.0
manifest: {}
`},
		{name: "two manifest sources", doc: `
schemaVersion: 2.0.0
manifest:
  url: https://example.org/manifest.yaml
  maven:
    groupId: org.example
    artifactId: base
`},
		{name: "unknown strategy", doc: `
schemaVersion: 2.0.0
manifest:
  url: https://example.org/manifest.yaml
resolve-if-no-stream: sometimes
`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := channel.ParseChannel([]byte(tc.doc)); !errors.Is(err, channel.ErrInvalidChannel) {
				t.Errorf("error = %v, want ErrInvalidChannel", err)
			}
		})
	}
}
