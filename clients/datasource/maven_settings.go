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

package datasource

import (
	"encoding/xml"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"unicode"
)

// Registry credentials come from Maven settings.xml files, with user
// settings overriding global ones.
// https://maven.apache.org/settings.html

type mavenSettings struct {
	Servers []mavenServer `xml:"servers>server"`
}

type mavenServer struct {
	ID       string `xml:"id"`
	Username string `xml:"username"`
	Password string `xml:"password"`
}

var settingsEnvRef = regexp.MustCompile(`\${env\.[^}]*}`)

// settingsAuths returns the authentication information of the global and
// user Maven settings, keyed by server id.
func settingsAuths() map[string]*HTTPAuthentication {
	auths := make(map[string]*HTTPAuthentication)
	for _, path := range []string{globalSettingsFile(), userSettingsFile()} {
		for _, server := range parseSettings(path).Servers {
			auths[server.ID] = &HTTPAuthentication{
				SupportedMethods: []HTTPAuthMethod{AuthDigest, AuthBasic},
				Username:         server.Username,
				Password:         server.Password,
			}
		}
	}
	return auths
}

func parseSettings(path string) mavenSettings {
	if path == "" {
		return mavenSettings{}
	}
	f, err := os.Open(path)
	if err != nil {
		return mavenSettings{}
	}
	defer f.Close()

	var settings mavenSettings
	if err := xml.NewDecoder(f).Decode(&settings); err != nil {
		return mavenSettings{}
	}

	// Interpolate environment variable references. System properties are
	// not interpolated, they cannot be determined reliably.
	for i := range settings.Servers {
		settings.Servers[i].ID = interpolateEnv(settings.Servers[i].ID)
		settings.Servers[i].Username = interpolateEnv(settings.Servers[i].Username)
		settings.Servers[i].Password = interpolateEnv(settings.Servers[i].Password)
	}
	return settings
}

func interpolateEnv(s string) string {
	return settingsEnvRef.ReplaceAllStringFunc(s, func(match string) string {
		env := match[len("${env.") : len(match)-1]
		// Environment variables on Windows are case-insensitive, but Maven
		// only replaces them when referenced in all-caps.
		if runtime.GOOS == "windows" && strings.ContainsFunc(env, unicode.IsLower) {
			return match
		}
		if val, ok := os.LookupEnv(env); ok {
			return val
		}
		return match
	})
}

// globalSettingsFile locates ${maven.home}/conf/settings.xml from the
// installed mvn binary.
func globalSettingsFile() string {
	mvnExec, err := exec.LookPath("mvn")
	if err != nil {
		return ""
	}
	mvnExec, err = filepath.EvalSymlinks(mvnExec)
	if err != nil {
		return ""
	}
	settings, err := filepath.Abs(filepath.Join(filepath.Dir(mvnExec), "..", "conf", "settings.xml"))
	if err != nil {
		return ""
	}
	return settings
}

// userSettingsFile locates ${user.home}/.m2/settings.xml.
func userSettingsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".m2", "settings.xml")
}
