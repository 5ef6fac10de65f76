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
	"fmt"
	"strconv"

	"github.com/jinzhu/copier"
)

// Line is a single key/value record. Sized records whether the line was
// (or should be) serialized with an explicit ":size" segment, which is the
// only form that permits newline bytes inside the value.
type Line struct {
	Key   string
	Value []byte
	Sized bool
}

// NewLine creates a Line with the given key and value
func NewLine(key string, value []byte) Line {
	return Line{
		Key:   key,
		Value: value,
	}
}

// Copy returns a deep copy of the line. The decoder hands out copies so
// that emitted lines never alias its internal feed buffer
func (l *Line) Copy() (*Line, error) {
	var ret Line
	if err := copier.CopyWithOption(
		&ret,
		l,
		copier.Option{DeepCopy: true},
	); err != nil {
		return nil, err
	}
	// copier leaves nil slices nil, which is fine, but an empty non-nil
	// value should stay non-nil for equality with serialized round-trips
	if l.Value != nil && ret.Value == nil {
		ret.Value = []byte{}
	}
	return &ret, nil
}

func (l *Line) String() string {
	if l.Sized {
		return fmt.Sprintf("%s:%d=%q", l.Key, len(l.Value), l.Value)
	}
	return fmt.Sprintf("%s=%q", l.Key, l.Value)
}

// ValidKey reports whether key matches the key grammar: one or more
// segments joined by single dots, where each segment starts with a letter
// or underscore and continues with letters, digits, and underscores
func ValidKey(key string) bool {
	if key == "" {
		return false
	}
	segStart := true
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case segStart:
			if !isSegmentStart(c) {
				return false
			}
			segStart = false
		case c == '.':
			segStart = true
		default:
			if !isSegmentByte(c) {
				return false
			}
		}
	}
	// a trailing dot leaves us expecting another segment
	return !segStart
}

func isSegmentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isSegmentByte(c byte) bool {
	return isSegmentStart(c) || (c >= '0' && c <= '9')
}

// decodeLine decodes a single line from the front of data. It returns
// (nil, 1, nil) for a structural empty line, the decoded line and its
// serialized length on success, or errNeedMoreBytes when data ends before
// a required boundary
func decodeLine(data []byte) (*Line, int, error) {
	if len(data) == 0 {
		return nil, 0, errNeedMoreBytes
	}
	if data[0] == '\n' {
		return nil, 1, nil
	}
	eqIdx := bytes.IndexByte(data, '=')
	if eqIdx == -1 {
		if nlIdx := bytes.IndexByte(data, '\n'); nlIdx != -1 {
			// newline before any '=' means the keyspec itself is malformed
			return nil, 0, fmt.Errorf(
				"%w: %q",
				ErrInvalidKey,
				string(data[:nlIdx]),
			)
		}
		return nil, 0, errNeedMoreBytes
	}
	// only the keyspec needs checking for a stray newline, so avoid
	// scanning the (possibly large) value portion of the buffer
	if nlIdx := bytes.IndexByte(data[:eqIdx], '\n'); nlIdx != -1 {
		return nil, 0, fmt.Errorf(
			"%w: %q",
			ErrInvalidKey,
			string(data[:nlIdx]),
		)
	}
	key := string(data[:eqIdx])
	sized := false
	size := 0
	if colonIdx := bytes.IndexByte(data[:eqIdx], ':'); colonIdx != -1 {
		sizeText := key[colonIdx+1:]
		key = key[:colonIdx]
		var err error
		size, err = parseSize(sizeText)
		if err != nil {
			return nil, 0, err
		}
		sized = true
	}
	if !ValidKey(key) {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	valStart := eqIdx + 1
	if sized {
		// exactly size bytes followed by a newline; compare against the
		// available bytes rather than valStart+size+1, which can overflow
		// for a huge declared size
		if size > len(data)-valStart-1 {
			return nil, 0, errNeedMoreBytes
		}
		if data[valStart+size] != '\n' {
			return nil, 0, fmt.Errorf(
				"%w: key %q, size %d",
				ErrMissingTrailingNewline,
				key,
				size,
			)
		}
		ret := &Line{
			Key:   key,
			Value: data[valStart : valStart+size],
			Sized: true,
		}
		return ret, valStart + size + 1, nil
	}
	valEnd := bytes.IndexByte(data[valStart:], '\n')
	if valEnd == -1 {
		return nil, 0, errNeedMoreBytes
	}
	ret := &Line{
		Key:   key,
		Value: data[valStart : valStart+valEnd],
	}
	return ret, valStart + valEnd + 1, nil
}

// parseSize parses the size portion of a keyspec: base-10 digits only, no
// sign, no whitespace
func parseSize(text string) (int, error) {
	if text == "" {
		return 0, fmt.Errorf("%w: empty size", ErrInvalidSize)
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidSize, text)
		}
	}
	size, err := strconv.Atoi(text)
	if err != nil {
		// all-digit text can still overflow int
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, text)
	}
	return size, nil
}

// classifyEndOfStream maps a partial line left over at end of stream to
// the appropriate fatal error. A sized value cut short is reported as
// truncated; anything else is a plain unexpected end of stream
func classifyEndOfStream(data []byte) error {
	eqIdx := bytes.IndexByte(data, '=')
	if eqIdx == -1 {
		return fmt.Errorf(
			"%w: %d bytes of partial line",
			ErrUnexpectedEndOfStream,
			len(data),
		)
	}
	if colonIdx := bytes.IndexByte(data[:eqIdx], ':'); colonIdx != -1 {
		if size, err := parseSize(string(data[colonIdx+1 : eqIdx])); err == nil {
			if have := len(data) - eqIdx - 1; have < size {
				return fmt.Errorf(
					"%w: expected %d bytes in value, got %d",
					ErrTruncatedValue,
					size,
					have,
				)
			}
		}
	}
	return fmt.Errorf(
		"%w: %d bytes of partial line",
		ErrUnexpectedEndOfStream,
		len(data),
	)
}
