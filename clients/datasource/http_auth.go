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
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/icholy/digest"
)

// HTTPAuthMethod is an authentication scheme a registry may challenge with.
type HTTPAuthMethod int

// The authentication schemes understood by the client.
const (
	AuthBasic HTTPAuthMethod = iota
	AuthDigest
)

// HTTPAuthentication holds the credentials for one registry and the schemes
// they may be sent with.
type HTTPAuthentication struct {
	SupportedMethods []HTTPAuthMethod
	// AlwaysAuth sends basic credentials preemptively instead of waiting
	// for a challenge.
	AlwaysAuth bool
	Username   string
	Password   string
}

func (auth *HTTPAuthentication) supports(m HTTPAuthMethod) bool {
	return auth != nil && slices.Contains(auth.SupportedMethods, m)
}

// Get performs an authenticated GET. A nil receiver or empty credentials
// perform a plain request. On a 401 challenge the request is retried when
// the scheme of the first WWW-Authenticate challenge, digest or basic, is
// one the credentials support; later challenges are not considered.
func (auth *HTTPAuthentication) Get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if auth == nil || auth.Username == "" {
		return client.Do(req)
	}

	if auth.AlwaysAuth && auth.supports(AuthBasic) {
		req.SetBasicAuth(auth.Username, auth.Password)
		return client.Do(req)
	}

	resp, err := client.Do(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	challenge := strings.ToLower(resp.Header.Get("WWW-Authenticate"))
	switch {
	case strings.HasPrefix(challenge, "digest") && auth.supports(AuthDigest):
		resp.Body.Close()
		retry, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		digestClient := &http.Client{Transport: &digest.Transport{
			Username:  auth.Username,
			Password:  auth.Password,
			Transport: client.Transport,
		}}
		return digestClient.Do(retry)
	case strings.HasPrefix(challenge, "basic") && auth.supports(AuthBasic):
		resp.Body.Close()
		retry, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		retry.SetBasicAuth(auth.Username, auth.Password)
		return client.Do(retry)
	}
	return resp, nil
}
