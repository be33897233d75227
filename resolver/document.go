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
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/jmesnil/wildfly-channel/channel"
	"github.com/jmesnil/wildfly-channel/log"
	"github.com/jmesnil/wildfly-channel/version"
)

const (
	metadataExtension   = "yaml"
	manifestClassifier  = "manifest"
	blocklistClassifier = "blocklist"
)

// readDocument reads a channel metadata document from a http(s) URL, a
// file:// URL, or a plain file path.
func readDocument(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("reading %s: status %d", ref, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(strings.TrimPrefix(ref, "file://"))
}

// loadManifest reads and parses the manifest a channel definition points at.
func loadManifest(ctx context.Context, b Backend, ref channel.SourceRef) (*channel.Manifest, error) {
	url := ref.URL
	if ref.Maven != nil {
		urls, err := b.ResolveChannelMetadata(ctx, []channel.MavenCoordinate{*ref.Maven})
		if err != nil {
			return nil, fmt.Errorf("resolving manifest %s: %w", ref.Maven, err)
		}
		url = urls[0]
	}
	data, err := readDocument(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", url, err)
	}
	return channel.ParseManifest(data)
}

// loadBlocklist reads and parses a channel's blocklist, if it declares one.
// A blocklist referenced by Maven coordinates with no published version is
// treated as empty.
func loadBlocklist(ctx context.Context, b Backend, ref *channel.SourceRef) (*channel.Blocklist, error) {
	if ref == nil {
		return nil, nil
	}

	url := ref.URL
	if ref.Maven != nil {
		v := ref.Maven.Version
		if v == "" {
			all, err := b.GetAllVersions(ctx, ref.Maven.GroupID, ref.Maven.ArtifactID, metadataExtension, blocklistClassifier)
			if err != nil {
				return nil, err
			}
			latest, ok := version.Latest(all)
			if !ok {
				log.Debugf("no blocklist published for %s", ref.Maven)
				return nil, nil
			}
			v = latest
		}
		path, err := b.ResolveArtifact(ctx, ref.Maven.GroupID, ref.Maven.ArtifactID, metadataExtension, blocklistClassifier, v)
		if err != nil {
			return nil, err
		}
		url = path
	}

	data, err := readDocument(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("reading blocklist %s: %w", url, err)
	}
	return channel.ParseBlocklist(data)
}
