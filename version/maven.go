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

// Package version provides the Maven version ordering used to arbitrate
// between candidate artifact versions.
//
// The ordering follows Maven's ComparableVersion semantics: versions are
// tokenized into numeric and alphanumeric runs, qualifiers order as
// alpha < beta < milestone < rc < snapshot < "" < sp, and unknown
// qualifiers sort lexically after the known ones. Every other part of the
// resolver defers to this package so that a single ordering decides which
// artifact wins.
package version

import (
	"regexp"

	"deps.dev/util/semver"
)

// Compare returns a negative number, zero, or a positive number when a
// orders before, equal to, or after b under Maven version semantics.
func Compare(a, b string) int {
	return semver.Maven.Compare(a, b)
}

// Matches reports whether the whole version string matches the pattern.
// The pattern is anchored: a partial match does not count.
func Matches(v string, rx *regexp.Regexp) bool {
	anchored, err := regexp.Compile(`^(?:` + rx.String() + `)$`)
	if err != nil {
		return false
	}
	return anchored.MatchString(v)
}

// Latest returns the greatest element of candidates under Compare.
// The second return value is false if candidates is empty.
func Latest(candidates []string) (string, bool) {
	return LatestMatching(candidates, nil)
}

// LatestMatching returns the greatest candidate under Compare for which
// keep returns true. A nil keep accepts every candidate.
func LatestMatching(candidates []string, keep func(string) bool) (string, bool) {
	var best string
	found := false
	for _, v := range candidates {
		if keep != nil && !keep(v) {
			continue
		}
		if !found || Compare(v, best) > 0 {
			best = v
			found = true
		}
	}
	return best, found
}
