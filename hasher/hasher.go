// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package hasher provides a registry mapping algorithm names to fresh
// incremental hash instances. Names double as line keys in the wire
// format, so they are restricted to letters, digits, and underscores.
package hasher

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"sync"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// ErrUnknownAlgorithm is returned by Lookup for names with no registered
// constructor
var ErrUnknownAlgorithm = errors.New("hasher: unknown algorithm")

// Constructor creates a fresh hash instance
type Constructor func() (hash.Hash, error)

// Registry maps algorithm names to hash constructors. The zero value is
// an empty registry; use New or Default to create one. Safe for
// concurrent use
type Registry struct {
	mutex        sync.RWMutex
	constructors map[string]Constructor
}

// New returns an empty Registry
func New() *Registry {
	return &Registry{
		constructors: map[string]Constructor{},
	}
}

// Default returns a Registry populated with the standard algorithms:
// md5, sha1, sha224, sha256, sha384, sha512, sha3_256, sha3_512,
// blake2b_256, blake2b_384, blake2b_512, and blake2s_256
func Default() *Registry {
	r := New()
	r.Register("md5", func() (hash.Hash, error) { return md5.New(), nil })
	r.Register("sha1", func() (hash.Hash, error) { return sha1.New(), nil })
	r.Register(
		"sha224",
		func() (hash.Hash, error) { return sha256.New224(), nil },
	)
	r.Register(
		"sha256",
		func() (hash.Hash, error) { return sha256.New(), nil },
	)
	r.Register(
		"sha384",
		func() (hash.Hash, error) { return sha512.New384(), nil },
	)
	r.Register(
		"sha512",
		func() (hash.Hash, error) { return sha512.New(), nil },
	)
	r.Register(
		"sha3_256",
		func() (hash.Hash, error) { return sha3.New256(), nil },
	)
	r.Register(
		"sha3_512",
		func() (hash.Hash, error) { return sha3.New512(), nil },
	)
	r.Register(
		"blake2b_256",
		func() (hash.Hash, error) { return blake2b.New256(nil) },
	)
	r.Register(
		"blake2b_384",
		func() (hash.Hash, error) { return blake2b.New384(nil) },
	)
	r.Register(
		"blake2b_512",
		func() (hash.Hash, error) { return blake2b.New512(nil) },
	)
	r.Register(
		"blake2s_256",
		func() (hash.Hash, error) { return blake2s.New256(nil) },
	)
	return r
}

// Register adds or replaces the constructor for the given name
func (r *Registry) Register(name string, constructor Constructor) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.constructors == nil {
		r.constructors = map[string]Constructor{}
	}
	r.constructors[name] = constructor
}

// Lookup returns a fresh hash for the named algorithm. Unregistered names
// return an error wrapping ErrUnknownAlgorithm
func (r *Registry) Lookup(name string) (hash.Hash, error) {
	r.mutex.RLock()
	constructor, ok := r.constructors[name]
	r.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	h, err := constructor()
	if err != nil {
		return nil, fmt.Errorf("hasher: create %q: %w", name, err)
	}
	return h, nil
}

// Names returns the registered algorithm names in unspecified order
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	return names
}
