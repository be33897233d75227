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

package datasource_test

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jmesnil/wildfly-channel/clients/clienttest"
	"github.com/jmesnil/wildfly-channel/clients/datasource"
)

const exampleMetadata = `
<metadata>
  <groupId>org.example</groupId>
  <artifactId>x.y.z</artifactId>
  <versioning>
    <latest>3.0.0</latest>
    <release>2.0.0</release>
    <versions>
      <version>2.0.0</version>
      <version>1.0.0</version>
      <version>3.0.0</version>
    </versions>
  </versioning>
</metadata>
`

func newTestClient(t *testing.T, srv *clienttest.MockHTTPServer) *datasource.MavenRegistryAPIClient {
	t.Helper()
	client, err := datasource.NewMavenRegistryAPIClient(t.Context(), []datasource.MavenRegistry{
		{ID: "test", URL: srv.URL, ReleasesEnabled: true},
	}, t.TempDir(), true)
	if err != nil {
		t.Fatalf("NewMavenRegistryAPIClient: %v", err)
	}
	return client
}

func TestGetVersions(t *testing.T) {
	srv := clienttest.NewMockHTTPServer(t)
	srv.SetResponse(t, "org/example/x.y.z/maven-metadata.xml", []byte(exampleMetadata))
	client := newTestClient(t, srv)

	got, err := client.GetVersions(t.Context(), "org.example", "x.y.z")
	if err != nil {
		t.Fatalf("GetVersions: %v", err)
	}
	versions := make([]string, len(got))
	for i, v := range got {
		versions[i] = string(v)
	}
	// Versions are sorted under the Maven order.
	want := []string{"1.0.0", "2.0.0", "3.0.0"}
	if diff := cmp.Diff(want, versions); diff != "" {
		t.Errorf("GetVersions diff (-want +got):\n%s", diff)
	}
}

func TestGetMetadata(t *testing.T) {
	srv := clienttest.NewMockHTTPServer(t)
	srv.SetResponse(t, "org/example/x.y.z/maven-metadata.xml", []byte(exampleMetadata))
	client := newTestClient(t, srv)

	metadata, err := client.GetMetadata(t.Context(), "org.example", "x.y.z")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if string(metadata.Versioning.Latest) != "3.0.0" {
		t.Errorf("latest = %q, want 3.0.0", metadata.Versioning.Latest)
	}
	if string(metadata.Versioning.Release) != "2.0.0" {
		t.Errorf("release = %q, want 2.0.0", metadata.Versioning.Release)
	}
}

func TestGetMetadataMissing(t *testing.T) {
	srv := clienttest.NewMockHTTPServer(t)
	client := newTestClient(t, srv)

	if _, err := client.GetMetadata(t.Context(), "org.example", "absent"); err == nil {
		t.Error("GetMetadata for an absent artifact succeeded")
	}
}

func TestDownloadArtifact(t *testing.T) {
	srv := clienttest.NewMockHTTPServer(t)
	srv.SetResponse(t, "org/example/x.y.z/1.0.0/x.y.z-1.0.0.jar", []byte("jar bytes"))
	client := newTestClient(t, srv)

	path, err := client.DownloadArtifact(t.Context(), "org.example", "x.y.z", "", "", "1.0.0")
	if err != nil {
		t.Fatalf("DownloadArtifact: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading downloaded artifact: %v", err)
	}
	if string(b) != "jar bytes" {
		t.Errorf("downloaded %q, want %q", b, "jar bytes")
	}

	// A second download is served from the local layout.
	again, err := client.DownloadArtifact(t.Context(), "org.example", "x.y.z", "", "", "1.0.0")
	if err != nil {
		t.Fatalf("second DownloadArtifact: %v", err)
	}
	if again != path {
		t.Errorf("second download path %q, want %q", again, path)
	}
}

func TestDownloadArtifactWithClassifier(t *testing.T) {
	srv := clienttest.NewMockHTTPServer(t)
	srv.SetResponse(t, "org/example/x.y.z/1.0.0/x.y.z-1.0.0-manifest.yaml", []byte("schemaVersion: 1.0.0"))
	client := newTestClient(t, srv)

	path, err := client.DownloadArtifact(t.Context(), "org.example", "x.y.z", "yaml", "manifest", "1.0.0")
	if err != nil {
		t.Fatalf("DownloadArtifact: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading downloaded artifact: %v", err)
	}
	if string(b) != "schemaVersion: 1.0.0" {
		t.Errorf("downloaded %q", b)
	}
}

func TestDownloadArtifactMissing(t *testing.T) {
	srv := clienttest.NewMockHTTPServer(t)
	client := newTestClient(t, srv)

	if _, err := client.DownloadArtifact(t.Context(), "org.example", "x.y.z", "", "", "1.0.0"); err == nil {
		t.Error("DownloadArtifact for an absent artifact succeeded")
	}
}
