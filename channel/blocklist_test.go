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

func TestBlocklist(t *testing.T) {
	b, err := channel.ParseBlocklist([]byte(`
schemaVersion: 1.0.0
blocks:
  - groupId: org.example
    artifactId: lib
    versions:
      - 1.0.1
  - groupId: org.example
    artifactId: "*"
    versionPattern: ".*-SNAPSHOT"
`))
	if err != nil {
		t.Fatalf("ParseBlocklist: %v", err)
	}

	tests := []struct {
		g, a, v string
		want    bool
	}{
		{"org.example", "lib", "1.0.1", true},
		{"org.example", "lib", "1.0.2", false},
		{"org.example", "anything", "2.0.0-SNAPSHOT", true},
		{"org.example", "anything", "2.0.0", false},
		{"org.other", "lib", "1.0.1", false},
		// The pattern is anchored.
		{"org.example", "lib", "2.0.0-SNAPSHOT-extra", false},
	}
	for _, tc := range tests {
		if got := b.IsBlocked(tc.g, tc.a, tc.v); got != tc.want {
			t.Errorf("IsBlocked(%s, %s, %s) = %v, want %v", tc.g, tc.a, tc.v, got, tc.want)
		}
	}
}

func TestNilBlocklistBlocksNothing(t *testing.T) {
	var b *channel.Blocklist
	if b.IsBlocked("org.example", "lib", "1.0.0") {
		t.Error("nil blocklist blocked a version")
	}
}

func TestParseBlocklistErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing schemaVersion", doc: `
blocks: []
`},
		{name: "entry without coordinate", doc: `
schemaVersion: 1.0.0
blocks:
  - versions: [1.0.0]
`},
		{name: "entry without versions", doc: `
schemaVersion: 1.0.0
blocks:
  - groupId: org.example
    artifactId: lib
`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := channel.ParseBlocklist([]byte(tc.doc)); !errors.Is(err, channel.ErrInvalidChannel) {
				t.Errorf("error = %v, want ErrInvalidChannel", err)
			}
		})
	}
}
