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

import "sync"

// RequestCache caches successful request results by key so that repeated
// registry queries within one session hit the network only once. Failed
// requests are not cached and will be retried.
type RequestCache[K comparable, V any] struct {
	mu    sync.Mutex
	cache map[K]V
}

// NewRequestCache returns an empty RequestCache.
func NewRequestCache[K comparable, V any]() *RequestCache[K, V] {
	return &RequestCache[K, V]{cache: make(map[K]V)}
}

// Get returns the cached value for key, calling fn to compute and store it
// on a miss.
func (c *RequestCache[K, V]) Get(key K, fn func() (V, error)) (V, error) {
	c.mu.Lock()
	if v, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := fn()
	if err != nil {
		return v, err
	}

	c.mu.Lock()
	c.cache[key] = v
	c.mu.Unlock()
	return v, nil
}
