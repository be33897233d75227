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
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/jmesnil/wildfly-channel/channel"
	"github.com/jmesnil/wildfly-channel/log"
	"github.com/jmesnil/wildfly-channel/version"
)

// Session resolves Maven coordinates across a set of channels. A session is
// built once from channel definitions, arbitrates the winning channel per
// coordinate, and records every resolution for replay. Sessions are not safe
// for concurrent use.
type Session struct {
	factory Factory

	roots    []*instance
	all      []*instance
	siblings []*instance
	combined Backend
	recorder *recorder

	// mavenInstances caches channel instances created for maven-resolved
	// manifest requirements, keyed by resolved coordinates.
	mavenInstances map[channel.MavenCoordinate]*instance

	closeOnce sync.Once
	closeErr  error
}

// NewSession builds the runtime channels for the definitions, loads their
// manifests and blocklists, wires the manifest requirement graph, and
// validates the session roots. The factory is called once per channel with
// the channel's effective repositories and once with the union of all
// repositories for direct resolution.
func NewSession(ctx context.Context, channels []*channel.Channel, factory Factory) (*Session, error) {
	combined, err := factory.New(ctx, unionRepositories(channels))
	if err != nil {
		return nil, err
	}

	s := &Session{
		factory:        factory,
		combined:       combined,
		recorder:       newRecorder(),
		mavenInstances: make(map[channel.MavenCoordinate]*instance),
	}

	if err := s.init(ctx, channels); err != nil {
		return nil, multierr.Append(err, s.Close())
	}
	return s, nil
}

func (s *Session) init(ctx context.Context, channels []*channel.Channel) error {
	// Phase one: construct an instance node per definition.
	for _, def := range channels {
		inst, err := s.newInstance(ctx, def)
		if err != nil {
			return err
		}
		s.all = append(s.all, inst)
	}
	s.siblings = append([]*instance(nil), s.all...)

	// Phase two: resolve requirement edges depth-first, coloring nodes to
	// detect cycles. Sibling references demote the referenced channel from
	// the session roots; maven-resolved requirements do not.
	colors := make(map[*instance]int)
	for _, inst := range s.siblings {
		if colors[inst] == colorWhite {
			if err := s.wire(ctx, inst, colors, nil); err != nil {
				return err
			}
		}
	}

	for _, inst := range s.siblings {
		if !inst.dependency {
			s.roots = append(s.roots, inst)
		}
	}

	seen := make(map[string]*instance)
	for _, root := range s.roots {
		id := root.manifest.ID
		if id == "" {
			continue
		}
		if other, ok := seen[id]; ok {
			return fmt.Errorf("%w: %q is provided by both %s and %s", ErrDuplicateManifestID, id, other.graphKey(), root.graphKey())
		}
		seen[id] = root
	}
	return nil
}

const (
	colorWhite = iota
	colorGray
	colorBlack
)

func (s *Session) wire(ctx context.Context, inst *instance, colors map[*instance]int, path []string) error {
	colors[inst] = colorGray
	path = append(path, inst.graphKey())

	for _, req := range inst.manifest.Requires {
		child, err := s.requiredInstance(ctx, inst, req)
		if err != nil {
			return err
		}
		switch colors[child] {
		case colorGray:
			cycle := append(path, child.graphKey())
			return fmt.Errorf("%w: %s", ErrCyclicDependency, strings.Join(cycle, " -> "))
		case colorWhite:
			if err := s.wire(ctx, child, colors, path); err != nil {
				return err
			}
		}
		inst.required = append(inst.required, child)
	}

	colors[inst] = colorBlack
	return nil
}

// requiredInstance materializes one manifest requirement. Requirements with
// Maven coordinates are fetched through the parent's backend and cached by
// resolved coordinates; requirements by id attach a sibling channel of the
// session and mark it as a dependency.
func (s *Session) requiredInstance(ctx context.Context, parent *instance, req channel.ManifestRequirement) (*instance, error) {
	if req.Maven != nil {
		coord := *req.Maven
		if coord.Version == "" {
			all, err := parent.backend.GetAllVersions(ctx, coord.GroupID, coord.ArtifactID, metadataExtension, manifestClassifier)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrUnresolvedRequiredManifest, coord, err)
			}
			latest, ok := version.Latest(all)
			if !ok {
				return nil, fmt.Errorf("%w: no version of %s is published", ErrUnresolvedRequiredManifest, coord)
			}
			coord.Version = latest
		}
		if inst, ok := s.mavenInstances[coord]; ok {
			return inst, nil
		}

		m, err := loadManifest(ctx, parent.backend, channel.SourceRef{Maven: &coord})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnresolvedRequiredManifest, err)
		}
		// A required manifest has no definition of its own: it inherits the
		// parent's repositories and never falls back past its streams.
		def := &channel.Channel{
			SchemaVersion:    channel.ChannelSchemaVersion,
			Name:             "requirement " + coord.String(),
			Manifest:         channel.SourceRef{Maven: &coord},
			Repositories:     parent.def.Repositories,
			NoStreamStrategy: channel.NoStreamNone,
		}
		backend, err := s.factory.New(ctx, def.Repositories)
		if err != nil {
			return nil, err
		}
		inst := &instance{def: def, manifest: m, backend: backend}
		s.mavenInstances[coord] = inst
		s.all = append(s.all, inst)
		return inst, nil
	}

	for _, sib := range s.siblings {
		if sib != parent && sib.manifest.ID == req.ID {
			sib.dependency = true
			return sib, nil
		}
	}
	return nil, fmt.Errorf("%w: no channel in the session provides manifest id %q", ErrUnresolvedRequiredManifest, req.ID)
}

func (s *Session) newInstance(ctx context.Context, def *channel.Channel) (*instance, error) {
	backend, err := s.factory.New(ctx, def.Repositories)
	if err != nil {
		return nil, err
	}
	m, err := loadManifest(ctx, backend, def.Manifest)
	if err != nil {
		return nil, multierr.Append(err, backend.Close())
	}
	bl, err := loadBlocklist(ctx, backend, def.Blocklist)
	if err != nil {
		return nil, multierr.Append(err, backend.Close())
	}
	return &instance{def: def, manifest: m, backend: backend, blocklist: bl}, nil
}

func unionRepositories(channels []*channel.Channel) []channel.Repository {
	var union []channel.Repository
	seen := make(map[channel.Repository]bool)
	for _, def := range channels {
		for _, repo := range def.Repositories {
			if !seen[repo] {
				seen[repo] = true
				union = append(union, repo)
			}
		}
	}
	return union
}

// findLatest arbitrates the winning channel for a coordinate: every root is
// asked for its candidate in input order and the greatest version under the
// Maven ordering wins. Equal versions keep the earliest root.
func (s *Session) findLatest(ctx context.Context, coord ArtifactCoordinate) (string, *instance, error) {
	var bestVersion string
	var best *instance
	for _, root := range s.roots {
		v, winner, err := root.resolveLatestVersion(ctx, coord)
		if err != nil {
			if errors.Is(err, ErrArtifactNotResolved) {
				log.Debugf("channel %s has no candidate for %s: %v", root.graphKey(), coord, err)
				continue
			}
			return "", nil, err
		}
		if winner == nil {
			continue
		}
		if best == nil || version.Compare(v, bestVersion) > 0 {
			bestVersion, best = v, winner
		}
	}
	if best == nil {
		return "", nil, fmt.Errorf("%w: %s", ErrUnresolvedMavenArtifact, coord)
	}
	return bestVersion, best, nil
}

// FindLatestMavenArtifactVersion arbitrates the version for the coordinate
// without fetching the artifact and without recording.
func (s *Session) FindLatestMavenArtifactVersion(ctx context.Context, groupID, artifactID, extension, classifier, baseVersion string) (string, error) {
	v, _, err := s.findLatest(ctx, ArtifactCoordinate{
		GroupID: groupID, ArtifactID: artifactID,
		Extension: extension, Classifier: classifier,
		Version: baseVersion,
	})
	return v, err
}

// ResolveMavenArtifact arbitrates the winning channel for the coordinate,
// fetches the artifact through it, and records the resolution.
func (s *Session) ResolveMavenArtifact(ctx context.Context, groupID, artifactID, extension, classifier, baseVersion string) (*MavenArtifact, error) {
	coord := ArtifactCoordinate{
		GroupID: groupID, ArtifactID: artifactID,
		Extension: extension, Classifier: classifier,
		Version: baseVersion,
	}
	v, winner, err := s.findLatest(ctx, coord)
	if err != nil {
		return nil, err
	}
	file, err := winner.resolveArtifact(ctx, groupID, artifactID, extension, classifier, v)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s:%s:%s: %w", ErrUnresolvedMavenArtifact, groupID, artifactID, v, err)
	}
	s.recorder.record(groupID, artifactID, v)
	return &MavenArtifact{
		GroupID: groupID, ArtifactID: artifactID,
		Extension: extension, Classifier: classifier,
		Version: v, File: file,
	}, nil
}

// ResolveMavenArtifacts resolves several coordinates, grouping the fetches
// by winning channel. Within one channel the input order is preserved; the
// overall result order follows the channels in the order they were first
// won, not the request order.
func (s *Session) ResolveMavenArtifacts(ctx context.Context, coordinates []ArtifactCoordinate) ([]*MavenArtifact, error) {
	groups := make(map[*instance][]ArtifactCoordinate)
	var order []*instance
	for _, coord := range coordinates {
		v, winner, err := s.findLatest(ctx, coord)
		if err != nil {
			return nil, err
		}
		resolved := coord
		resolved.Version = v
		if _, ok := groups[winner]; !ok {
			order = append(order, winner)
		}
		groups[winner] = append(groups[winner], resolved)
	}

	var out []*MavenArtifact
	for _, winner := range order {
		coords := groups[winner]
		files, err := winner.resolveArtifacts(ctx, coords)
		if err != nil {
			return nil, fmt.Errorf("%w: fetching from channel %s: %w", ErrUnresolvedMavenArtifact, winner.graphKey(), err)
		}
		for i, coord := range coords {
			s.recorder.record(coord.GroupID, coord.ArtifactID, coord.Version)
			out = append(out, &MavenArtifact{
				GroupID: coord.GroupID, ArtifactID: coord.ArtifactID,
				Extension: coord.Extension, Classifier: coord.Classifier,
				Version: coord.Version, File: files[i],
			})
		}
	}
	return out, nil
}

// ResolveDirectMavenArtifact fetches one artifact at an explicit version
// through the combined backend, bypassing channel arbitration. The
// resolution is still recorded.
func (s *Session) ResolveDirectMavenArtifact(ctx context.Context, groupID, artifactID, extension, classifier, version string) (*MavenArtifact, error) {
	file, err := s.combined.ResolveArtifact(ctx, groupID, artifactID, extension, classifier, version)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s:%s:%s: %w", ErrUnresolvedMavenArtifact, groupID, artifactID, version, err)
	}
	s.recorder.record(groupID, artifactID, version)
	return &MavenArtifact{
		GroupID: groupID, ArtifactID: artifactID,
		Extension: extension, Classifier: classifier,
		Version: version, File: file,
	}, nil
}

// ResolveDirectMavenArtifacts fetches several artifacts at explicit
// versions through the combined backend, in input order.
func (s *Session) ResolveDirectMavenArtifacts(ctx context.Context, coordinates []ArtifactCoordinate) ([]*MavenArtifact, error) {
	files, err := s.combined.ResolveArtifacts(ctx, coordinates)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnresolvedMavenArtifact, err)
	}
	out := make([]*MavenArtifact, len(coordinates))
	for i, coord := range coordinates {
		s.recorder.record(coord.GroupID, coord.ArtifactID, coord.Version)
		out[i] = &MavenArtifact{
			GroupID: coord.GroupID, ArtifactID: coord.ArtifactID,
			Extension: coord.Extension, Classifier: coord.Classifier,
			Version: coord.Version, File: files[i],
		}
	}
	return out, nil
}

// RecordedManifest synthesizes a manifest of fixed streams from every
// resolution performed so far.
func (s *Session) RecordedManifest() *channel.Manifest {
	return s.recorder.manifest()
}

// Close releases every channel backend and the combined backend exactly
// once. Close is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var err error
		for _, inst := range s.all {
			err = multierr.Append(err, inst.close())
		}
		s.closeErr = multierr.Append(err, s.combined.Close())
	})
	return s.closeErr
}
