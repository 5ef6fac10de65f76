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
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/kvnl/hasher"
	"github.com/jinzhu/copier"
)

// Block is an ordered sequence of lines terminated by one empty line.
// Key repetition and line order are both significant: hash lines certify
// exactly the serialized bytes of the lines preceding them.
type Block struct {
	Lines []Line
	// Mismatches records hash lines whose value did not match the digest
	// of the preceding lines. Populated only when hash verification is
	// enabled; a non-empty slice does not abort the parse
	Mismatches []HashMismatchError
}

// NewBlock creates a Block from the given lines
func NewBlock(lines ...Line) Block {
	return Block{
		Lines: lines,
	}
}

// Copy returns a deep copy of the block
func (b *Block) Copy() (*Block, error) {
	var ret Block
	if err := copier.CopyWithOption(
		&ret,
		b,
		copier.Option{DeepCopy: true},
	); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Get returns the value of the first line with the given key
func (b *Block) Get(key string) ([]byte, bool) {
	for _, line := range b.Lines {
		if line.Key == key {
			return line.Value, true
		}
	}
	return nil, false
}

// blockAccumulator groups lines into blocks and intercepts hash lines.
// With a registry configured, the raw accumulator reflects the serialized
// bytes of all lines added so far, so a hash line is verified against the
// bytes before it and is itself covered by any later hash line. Without
// one, no raw bytes are retained.
type blockAccumulator struct {
	registry HashRegistry
	logger   *slog.Logger
	block    Block
	raw      []byte
}

func newBlockAccumulator(
	registry HashRegistry,
	logger *slog.Logger,
) *blockAccumulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &blockAccumulator{
		registry: registry,
		logger:   logger,
	}
}

// add appends a line to the current block and returns the stored copy.
// raw must be the line's exact serialized bytes including the trailing
// newline. The line is deep-copied so callers may reuse the backing buffer
func (a *blockAccumulator) add(line *Line, raw []byte) (*Line, error) {
	if a.registry != nil {
		h, err := a.registry.Lookup(line.Key)
		switch {
		case err == nil:
			h.Write(a.raw)
			computed := hex.EncodeToString(h.Sum(nil))
			if !bytes.Equal([]byte(computed), line.Value) {
				mismatch := HashMismatchError{
					Algorithm: line.Key,
					Expected:  string(line.Value),
					Actual:    computed,
				}
				a.block.Mismatches = append(a.block.Mismatches, mismatch)
				a.logger.Warn(
					"hash mismatch",
					"algorithm", mismatch.Algorithm,
					"expected", mismatch.Expected,
					"actual", mismatch.Actual,
				)
			}
		case errors.Is(err, hasher.ErrUnknownAlgorithm):
			// not a hash line, just an ordinary line
		default:
			return nil, fmt.Errorf(
				"kvnl: hash registry lookup %q: %w",
				line.Key,
				err,
			)
		}
	}
	stored, err := line.Copy()
	if err != nil {
		return nil, fmt.Errorf("kvnl: copy line: %w", err)
	}
	a.block.Lines = append(a.block.Lines, *stored)
	if a.registry != nil {
		a.raw = append(a.raw, raw...)
	}
	return stored, nil
}

// finish completes the current block, returning it and resetting the line
// list and raw accumulator
func (a *blockAccumulator) finish() *Block {
	ret := a.block
	a.block = Block{}
	a.raw = a.raw[:0]
	return &ret
}

// pending reports whether the current block has accumulated any lines
func (a *blockAccumulator) pending() bool {
	return len(a.block.Lines) > 0
}
