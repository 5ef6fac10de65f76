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
	"errors"
	"fmt"

	"github.com/blinklabs-io/kvnl/hasher"
)

// ErrInvalidKey is returned when a key does not match the key grammar:
// dot-separated segments of letters, digits, and underscores, where each
// segment must not start with a digit
var ErrInvalidKey = errors.New("kvnl: invalid key")

// ErrInvalidSize is returned when the size portion of a line is not a
// plain base-10 unsigned integer
var ErrInvalidSize = errors.New("kvnl: invalid size")

// ErrTruncatedValue is returned when a stream ends before a sized value's
// declared byte count has been delivered
var ErrTruncatedValue = errors.New("kvnl: truncated value")

// ErrMissingTrailingNewline is returned when the byte following a sized
// value is not a newline
var ErrMissingTrailingNewline = errors.New(
	"kvnl: missing trailing newline after sized value",
)

// ErrUnexpectedEndOfStream is returned when the caller declares end of
// stream while the decoder still holds partial structure
var ErrUnexpectedEndOfStream = errors.New("kvnl: unexpected end of stream")

// ErrUnknownHashAlgorithm is returned when a requested hash algorithm is
// not present in the configured registry. It aliases the registry's own
// sentinel so errors.Is works across both packages
var ErrUnknownHashAlgorithm = hasher.ErrUnknownAlgorithm

// ErrDecoderFailed is returned from further calls on a Decoder after a
// fatal structural error. The original error is wrapped alongside it
var ErrDecoderFailed = errors.New("kvnl: decoder previously failed")

// errNeedMoreBytes signals that the available bytes end before a required
// structural boundary. It is a suspension point, not a failure, and never
// escapes the package API
var errNeedMoreBytes = errors.New("kvnl: need more bytes")

// HashMismatchError records a hash line whose value did not match the
// digest of the preceding lines in its block. It is attached to the
// completed Block rather than aborting the parse
type HashMismatchError struct {
	Algorithm string
	Expected  string
	Actual    string
}

func (e HashMismatchError) Error() string {
	return fmt.Sprintf(
		"kvnl: %s hash mismatch: expected %s, got %s",
		e.Algorithm,
		e.Expected,
		e.Actual,
	)
}
