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

import "errors"

var (
	// ErrUnresolvedMavenArtifact reports that no channel yields a version for
	// a coordinate, or that a backend failed to deliver a resolved version.
	ErrUnresolvedMavenArtifact = errors.New("unable to resolve Maven artifact")

	// ErrArtifactNotResolved reports that a channel's stream matched a
	// coordinate but no repository version satisfies the stream's selector.
	ErrArtifactNotResolved = errors.New("artifact not resolved")

	// ErrUnresolvedRequiredManifest reports a manifest requirement that can
	// neither be resolved by sibling id nor by Maven coordinates.
	ErrUnresolvedRequiredManifest = errors.New("unable to resolve required manifest")

	// ErrCyclicDependency reports a cycle in the manifest requirement graph.
	ErrCyclicDependency = errors.New("cyclic dependency between manifests")

	// ErrDuplicateManifestID reports two root channels whose manifests share
	// a non-empty id.
	ErrDuplicateManifestID = errors.New("duplicate manifest id")
)
