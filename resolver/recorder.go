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

package resolver

import (
	"slices"
	"strings"

	"github.com/jmesnil/wildfly-channel/channel"
)

// recorder accumulates the (groupId, artifactId, version) triples resolved
// during a session. Recording the same triple twice is a no-op.
type recorder struct {
	entries []recordedStream
	seen    map[recordedStream]bool
}

type recordedStream struct {
	groupID    string
	artifactID string
	version    string
}

func newRecorder() *recorder {
	return &recorder{seen: make(map[recordedStream]bool)}
}

func (r *recorder) record(groupID, artifactID, version string) {
	e := recordedStream{groupID: groupID, artifactID: artifactID, version: version}
	if r.seen[e] {
		return
	}
	r.seen[e] = true
	r.entries = append(r.entries, e)
}

// manifest synthesizes a manifest of fixed streams out of the recorded
// triples. Fed back into a session as the sole channel over the same
// repositories, it resolves every recorded coordinate to the identical
// version.
func (r *recorder) manifest() *channel.Manifest {
	streams := make([]channel.Stream, 0, len(r.entries))
	for _, e := range r.entries {
		streams = append(streams, channel.Stream{
			GroupID:    e.groupID,
			ArtifactID: e.artifactID,
			Selector:   channel.FixedVersion(e.version),
		})
	}
	slices.SortStableFunc(streams, func(a, b channel.Stream) int {
		if c := strings.Compare(a.GroupID, b.GroupID); c != 0 {
			return c
		}
		return strings.Compare(a.ArtifactID, b.ArtifactID)
	})
	return &channel.Manifest{
		SchemaVersion: channel.ManifestSchemaVersion,
		Streams:       streams,
	}
}
