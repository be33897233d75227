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
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jmesnil/wildfly-channel/channel"
	"github.com/jmesnil/wildfly-channel/log"
	"github.com/jmesnil/wildfly-channel/version"
)

// instance is the runtime form of a channel: its definition, loaded
// manifest and blocklist, the backend over its effective repositories, and
// the channels its manifest requires.
type instance struct {
	def       *channel.Channel
	manifest  *channel.Manifest
	backend   Backend
	blocklist *channel.Blocklist
	required  []*instance

	// dependency is set when a sibling channel requires this instance by
	// manifest id. Dependencies are not session roots.
	dependency bool

	closeOnce sync.Once
	closeErr  error
}

// graphKey names the instance in requirement cycles and logs.
func (c *instance) graphKey() string {
	switch {
	case c.manifest.ID != "":
		return c.manifest.ID
	case c.def.Manifest.Maven != nil:
		return c.def.Manifest.Maven.String()
	case c.def.Name != "":
		return c.def.Name
	}
	return "unnamed channel"
}

// noStreamFallbacks dispatches the strategy applied when neither the
// instance nor its required channels have a matching stream.
var noStreamFallbacks = map[channel.NoStreamStrategy]func(*instance, context.Context, ArtifactCoordinate) (string, *instance, error){
	channel.NoStreamNone:         (*instance).fallbackNone,
	channel.NoStreamLatest:       (*instance).fallbackLatest,
	channel.NoStreamMavenLatest:  (*instance).fallbackMavenLatest,
	channel.NoStreamMavenRelease: (*instance).fallbackMavenRelease,
	channel.NoStreamOriginal:     (*instance).fallbackOriginal,
}

// resolveLatestVersion maps the coordinate to a version through this
// channel: its own streams first, then its required channels depth-first in
// declared order, then the channel's no-stream fallback. A nil instance in
// the result means the channel has nothing to offer; ErrArtifactNotResolved
// means a stream matched but no repository version satisfies it.
func (c *instance) resolveLatestVersion(ctx context.Context, coord ArtifactCoordinate) (string, *instance, error) {
	if st, ok := c.manifest.FindStream(coord.GroupID, coord.ArtifactID); ok {
		v, winner, err := c.resolveStream(ctx, st, coord)
		if err != nil || winner != nil {
			return v, winner, err
		}
		// The stream's fixed version is blocklisted; continue as if no
		// stream had matched.
	}

	for _, child := range c.required {
		v, winner, err := child.resolveLatestVersion(ctx, coord)
		if err != nil {
			if errors.Is(err, ErrArtifactNotResolved) {
				log.Debugf("required channel %s has no candidate for %s: %v", child.graphKey(), coord, err)
				continue
			}
			return "", nil, err
		}
		if winner != nil {
			return v, winner, nil
		}
	}

	fallback, ok := noStreamFallbacks[c.def.NoStreamStrategy]
	if !ok {
		// Definitions built outside ParseChannel may leave the strategy
		// unset; treat that like none.
		return "", nil, nil
	}
	return fallback(c, ctx, coord)
}

func (c *instance) resolveStream(ctx context.Context, st *channel.Stream, coord ArtifactCoordinate) (string, *instance, error) {
	if fixed, ok := st.Selector.(channel.FixedVersion); ok {
		v := string(fixed)
		if c.blocklist.IsBlocked(coord.GroupID, coord.ArtifactID, v) {
			log.Debugf("channel %s blocklists %s:%s:%s", c.graphKey(), coord.GroupID, coord.ArtifactID, v)
			return "", nil, nil
		}
		return v, c, nil
	}

	all, err := c.backend.GetAllVersions(ctx, coord.GroupID, coord.ArtifactID, coord.Extension, coord.Classifier)
	if err != nil {
		return "", nil, err
	}
	v, ok := st.Selector.Select(c.withoutBlocked(coord, all))
	if !ok {
		return "", nil, fmt.Errorf("%w: no version of %s:%s in channel %s satisfies its stream", ErrArtifactNotResolved, coord.GroupID, coord.ArtifactID, c.graphKey())
	}
	return v, c, nil
}

func (c *instance) withoutBlocked(coord ArtifactCoordinate, versions []string) []string {
	if c.blocklist == nil {
		return versions
	}
	kept := versions[:0:0]
	for _, v := range versions {
		if !c.blocklist.IsBlocked(coord.GroupID, coord.ArtifactID, v) {
			kept = append(kept, v)
		}
	}
	return kept
}

func (c *instance) fallbackNone(context.Context, ArtifactCoordinate) (string, *instance, error) {
	return "", nil, nil
}

func (c *instance) fallbackLatest(ctx context.Context, coord ArtifactCoordinate) (string, *instance, error) {
	all, err := c.backend.GetAllVersions(ctx, coord.GroupID, coord.ArtifactID, coord.Extension, coord.Classifier)
	if err != nil {
		return "", nil, err
	}
	v, ok := version.Latest(c.withoutBlocked(coord, all))
	if !ok {
		return "", nil, nil
	}
	return v, c, nil
}

func (c *instance) fallbackMavenLatest(ctx context.Context, coord ArtifactCoordinate) (string, *instance, error) {
	return c.fallbackMetadata(ctx, coord, Backend.GetMetadataLatestVersion)
}

func (c *instance) fallbackMavenRelease(ctx context.Context, coord ArtifactCoordinate) (string, *instance, error) {
	return c.fallbackMetadata(ctx, coord, Backend.GetMetadataReleaseVersion)
}

func (c *instance) fallbackMetadata(ctx context.Context, coord ArtifactCoordinate, marker func(Backend, context.Context, string, string) (string, error)) (string, *instance, error) {
	v, err := marker(c.backend, ctx, coord.GroupID, coord.ArtifactID)
	if err != nil {
		return "", nil, err
	}
	if v == "" || c.blocklist.IsBlocked(coord.GroupID, coord.ArtifactID, v) {
		return "", nil, nil
	}
	return v, c, nil
}

func (c *instance) fallbackOriginal(_ context.Context, coord ArtifactCoordinate) (string, *instance, error) {
	if coord.Version == "" || c.blocklist.IsBlocked(coord.GroupID, coord.ArtifactID, coord.Version) {
		return "", nil, nil
	}
	return coord.Version, c, nil
}

// resolveArtifact fetches one artifact through the channel's backend.
func (c *instance) resolveArtifact(ctx context.Context, groupID, artifactID, extension, classifier, version string) (string, error) {
	return c.backend.ResolveArtifact(ctx, groupID, artifactID, extension, classifier, version)
}

// resolveArtifacts fetches several artifacts through the channel's backend,
// preserving input order.
func (c *instance) resolveArtifacts(ctx context.Context, coordinates []ArtifactCoordinate) ([]string, error) {
	return c.backend.ResolveArtifacts(ctx, coordinates)
}

// close releases the instance's backend exactly once.
func (c *instance) close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.backend.Close()
	})
	return c.closeErr
}
