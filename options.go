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

package kvnl

import (
	"hash"
	"log/slog"

	"github.com/blinklabs-io/kvnl/hasher"
)

// HashRegistry maps an algorithm name to a fresh incremental hash. The
// core treats algorithm availability as injected configuration and
// performs no registration itself. Lookup must return an error wrapping
// hasher.ErrUnknownAlgorithm for names it does not recognize
type HashRegistry interface {
	Lookup(name string) (hash.Hash, error)
}

// Config holds configuration shared by the parse and serialize paths
type Config struct {
	// HashAlgorithm enables hash-line insertion on serialize and hash
	// verification on parse
	HashAlgorithm string
	// HashRegistry supplies hash algorithms by name. Defaults to
	// hasher.Default() whenever a registry is needed
	HashRegistry HashRegistry
	// UnhashedLines are serialized after the hash line and are excluded
	// from its coverage
	UnhashedLines []Line
	// ForceSized always emits an explicit ":size" segment
	ForceSized bool
	// NestingDepth is the number of structure levels above blocks. Depth 1
	// is a message of blocks, depth 2 a message of messages, and so on
	NestingDepth int
	// Logger receives diagnostics such as hash mismatches. Defaults to
	// slog.Default()
	Logger *slog.Logger
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		NestingDepth: 1,
	}
}

// Option is a functional option for configuring parse and serialize
// operations
type Option func(*Config)

// WithHashAlgorithm enables hash handling using the named algorithm. On
// serialize a hash line is inserted after the hashed lines; on parse the
// algorithm name is validated eagerly against the registry and hash lines
// are verified
func WithHashAlgorithm(name string) Option {
	return func(c *Config) {
		c.HashAlgorithm = name
	}
}

// WithHashRegistry replaces the default hash registry. Setting a registry
// also enables hash-line verification on parse
func WithHashRegistry(registry HashRegistry) Option {
	return func(c *Config) {
		c.HashRegistry = registry
	}
}

// WithUnhashedLines appends extra lines after the hash line on serialize,
// excluded from its coverage
func WithUnhashedLines(lines ...Line) Option {
	return func(c *Config) {
		c.UnhashedLines = append(c.UnhashedLines, lines...)
	}
}

// WithForceSized always emits an explicit ":size" segment on serialize
func WithForceSized(forceSized bool) Option {
	return func(c *Config) {
		c.ForceSized = forceSized
	}
}

// WithNestingDepth sets the number of structure levels above blocks.
// Values below zero are treated as zero (bare blocks)
func WithNestingDepth(depth int) Option {
	return func(c *Config) {
		if depth < 0 {
			depth = 0
		}
		c.NestingDepth = depth
	}
}

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

func buildConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// verifyRegistry returns the registry used for parse-side hash
// verification, or nil when verification is disabled
func (c *Config) verifyRegistry() HashRegistry {
	if c.HashRegistry != nil {
		return c.HashRegistry
	}
	if c.HashAlgorithm != "" {
		return hasher.Default()
	}
	return nil
}

// serializeRegistry returns the registry used to resolve the configured
// algorithm on serialize
func (c *Config) serializeRegistry() HashRegistry {
	if c.HashRegistry != nil {
		return c.HashRegistry
	}
	return hasher.Default()
}
