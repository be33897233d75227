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

package version_test

import (
	"regexp"
	"testing"

	"github.com/jmesnil/wildfly-channel/version"
)

func TestCompareOrder(t *testing.T) {
	// Each pair is expected to order strictly increasing.
	increasing := [][2]string{
		{"1", "2"},
		{"1.5", "1.10"},
		{"1.0.0", "1.0.1"},
		{"1.2.3", "1.2.3.1"},
		{"1.0-alpha", "1.0-beta"},
		{"1.0-beta", "1.0-milestone"},
		{"1.0-milestone", "1.0-rc"},
		{"1.0-rc", "1.0-snapshot"},
		{"1.0-SNAPSHOT", "1.0"},
		{"1.0", "1.0-sp"},
		{"1.0-sp", "1.0-zeta"}, // unknown qualifiers sort after known ones
		{"1.0-alpha-1", "1.0-alpha-2"},
		{"2.0.0.Alpha1", "2.0.0.Final"},
	}
	for _, pair := range increasing {
		if got := version.Compare(pair[0], pair[1]); got >= 0 {
			t.Errorf("Compare(%q, %q) = %d, want < 0", pair[0], pair[1], got)
		}
		if got := version.Compare(pair[1], pair[0]); got <= 0 {
			t.Errorf("Compare(%q, %q) = %d, want > 0", pair[1], pair[0], got)
		}
	}
}

func TestCompareEqual(t *testing.T) {
	equal := [][2]string{
		{"1", "1.0"},
		{"1", "1.0.0"},
		{"1.0", "1.0-ga"},
		{"1.0", "1.0-final"},
		{"1.0-alpha", "1.0-ALPHA"},
	}
	for _, pair := range equal {
		if got := version.Compare(pair[0], pair[1]); got != 0 {
			t.Errorf("Compare(%q, %q) = %d, want 0", pair[0], pair[1], got)
		}
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		v       string
		pattern string
		want    bool
	}{
		{"1.2.3", `1\..*`, true},
		{"2.0.0", `1\..*`, false},
		{"1.2.3.Final", `.*\.Final`, true},
		// The match is anchored, a prefix match is not enough.
		{"1.2.3-SNAPSHOT", `1\.2\.3`, false},
		{"11.0", `1\..*`, false},
	}
	for _, tc := range tests {
		rx := regexp.MustCompile(tc.pattern)
		if got := version.Matches(tc.v, rx); got != tc.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tc.v, tc.pattern, got, tc.want)
		}
	}
}

func TestLatest(t *testing.T) {
	got, ok := version.Latest([]string{"1.0.0", "1.2.3", "1.2.3-SNAPSHOT", "1.10.0"})
	if !ok || got != "1.10.0" {
		t.Errorf("Latest() = %q, %v, want %q, true", got, ok, "1.10.0")
	}

	if _, ok := version.Latest(nil); ok {
		t.Error("Latest(nil) reported a result, want none")
	}
}

func TestLatestMatching(t *testing.T) {
	rx := regexp.MustCompile(`1\..*`)
	got, ok := version.LatestMatching([]string{"1.0.0", "1.2.3", "2.0.0"}, func(v string) bool {
		return version.Matches(v, rx)
	})
	if !ok || got != "1.2.3" {
		t.Errorf("LatestMatching() = %q, %v, want %q, true", got, ok, "1.2.3")
	}

	if _, ok := version.LatestMatching([]string{"2.0.0"}, func(string) bool { return false }); ok {
		t.Error("LatestMatching() with rejecting predicate reported a result, want none")
	}
}
