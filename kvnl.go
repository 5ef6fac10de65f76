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

// Package kvnl implements a line-oriented, binary-safe serialization
// format: key/value lines grouped into blocks, blocks grouped into
// messages, arbitrarily nestable.
//
// The wire format is:
//
//	line    := key [":" size] "=" value NL
//	key     := segment ("." segment)*      ; segment = [A-Za-z_][A-Za-z0-9_]*
//	size    := [0-9]+
//	value   := exactly size bytes if size given, else bytes with no NL
//	block   := line* NL
//	message := block* NL
//
// K+1 consecutive empty lines close K nested levels simultaneously. A
// block may contain hash lines: lines whose key names a hash algorithm
// and whose value is the lowercase hex digest of all preceding lines in
// the block, letting a block self-certify the integrity of its contents.
//
// The batch functions here operate on complete byte buffers. Decoder
// provides the streaming equivalent for byte streams that deliver data in
// arbitrary fragments, including non-blocking sockets.
package kvnl

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
)

// ParseLine parses a single line from the front of data, returning the
// line and the number of bytes consumed. A structural empty line returns
// a nil Line and consumes one byte. Data ending before the line is
// complete is a fatal error in batch mode
func ParseLine(data []byte) (*Line, int, error) {
	line, n, err := decodeLine(data)
	if errors.Is(err, errNeedMoreBytes) {
		return nil, 0, classifyEndOfStream(data)
	}
	if err != nil {
		return nil, 0, err
	}
	if line == nil {
		return nil, n, nil
	}
	stored, err := line.Copy()
	if err != nil {
		return nil, 0, fmt.Errorf("kvnl: copy line: %w", err)
	}
	return stored, n, nil
}

// ParseBlock parses one block from the front of data, returning the block
// and the number of bytes consumed (including the terminating empty
// line). Trailing data beyond the block is left untouched. With a hash
// algorithm or registry configured, hash lines are verified and any
// mismatches annotated on the block
func ParseBlock(data []byte, opts ...Option) (*Block, int, error) {
	cfg := buildConfig(opts...)
	registry := cfg.verifyRegistry()
	if cfg.HashAlgorithm != "" {
		if _, err := registry.Lookup(cfg.HashAlgorithm); err != nil {
			return nil, 0, err
		}
	}
	acc := newBlockAccumulator(registry, cfg.Logger)
	pos := 0
	for {
		line, n, err := decodeLine(data[pos:])
		if errors.Is(err, errNeedMoreBytes) {
			return nil, pos, classifyEndOfStream(data[pos:])
		}
		if err != nil {
			return nil, pos, err
		}
		pos += n
		if line == nil {
			return acc.finish(), pos, nil
		}
		if _, err := acc.add(line, data[pos-n:pos]); err != nil {
			return nil, pos, err
		}
	}
}

// ParseMessage parses one message (a sequence of blocks terminated by two
// consecutive empty lines) from the front of data, returning the message
// and the number of bytes consumed. Trailing data beyond the message is
// left untouched
func ParseMessage(data []byte, opts ...Option) (*Message, int, error) {
	cfg := buildConfig(opts...)
	registry := cfg.verifyRegistry()
	if cfg.HashAlgorithm != "" {
		if _, err := registry.Lookup(cfg.HashAlgorithm); err != nil {
			return nil, 0, err
		}
	}
	acc := newBlockAccumulator(registry, cfg.Logger)
	nest := newNestingAccumulator(1)
	var msg Message
	pos := 0
	for {
		line, n, err := decodeLine(data[pos:])
		if errors.Is(err, errNeedMoreBytes) {
			return nil, pos, classifyEndOfStream(data[pos:])
		}
		if err != nil {
			return nil, pos, err
		}
		pos += n
		if line == nil {
			level, done := nest.emptyLine()
			if level == 0 {
				msg.Blocks = append(msg.Blocks, *acc.finish())
			}
			if done {
				return &msg, pos, nil
			}
		} else {
			if _, err := acc.add(line, data[pos-n:pos]); err != nil {
				return nil, pos, err
			}
			nest.line()
		}
	}
}

// SerializeLine serializes a single line. An explicit ":size" segment is
// emitted when WithForceSized is set or when the value contains a newline
// byte, since an unsized value cannot contain one
func SerializeLine(key string, value []byte, opts ...Option) ([]byte, error) {
	cfg := buildConfig(opts...)
	sized := cfg.ForceSized || bytes.IndexByte(value, '\n') != -1
	return appendLine(nil, key, value, sized)
}

// SerializeBlock serializes lines in order followed by the terminating
// empty line. With WithHashAlgorithm, a hash line covering exactly the
// preceding lines is inserted, followed by any WithUnhashedLines
func SerializeBlock(lines []Line, opts ...Option) ([]byte, error) {
	cfg := buildConfig(opts...)
	return appendBlock(nil, lines, &cfg)
}

// SerializeMessage serializes each block in order followed by one more
// empty line. Options apply to every block
func SerializeMessage(blocks []Block, opts ...Option) ([]byte, error) {
	cfg := buildConfig(opts...)
	var ret []byte
	var err error
	for _, block := range blocks {
		ret, err = appendBlock(ret, block.Lines, &cfg)
		if err != nil {
			return nil, err
		}
	}
	return append(ret, '\n'), nil
}

func appendLine(
	dst []byte,
	key string,
	value []byte,
	sized bool,
) ([]byte, error) {
	if !ValidKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if !sized && bytes.IndexByte(value, '\n') != -1 {
		// an unsized value cannot contain a newline
		sized = true
	}
	dst = append(dst, key...)
	if sized {
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, int64(len(value)), 10)
	}
	dst = append(dst, '=')
	dst = append(dst, value...)
	dst = append(dst, '\n')
	return dst, nil
}

func appendBlock(dst []byte, lines []Line, cfg *Config) ([]byte, error) {
	start := len(dst)
	var err error
	for _, line := range lines {
		dst, err = appendLine(
			dst,
			line.Key,
			line.Value,
			line.Sized || cfg.ForceSized,
		)
		if err != nil {
			return nil, err
		}
	}
	if cfg.HashAlgorithm != "" {
		h, err := cfg.serializeRegistry().Lookup(cfg.HashAlgorithm)
		if err != nil {
			return nil, err
		}
		h.Write(dst[start:])
		digest := hex.EncodeToString(h.Sum(nil))
		dst, err = appendLine(
			dst,
			cfg.HashAlgorithm,
			[]byte(digest),
			cfg.ForceSized,
		)
		if err != nil {
			return nil, err
		}
	}
	for _, line := range cfg.UnhashedLines {
		dst, err = appendLine(
			dst,
			line.Key,
			line.Value,
			line.Sized || cfg.ForceSized,
		)
		if err != nil {
			return nil, err
		}
	}
	return append(dst, '\n'), nil
}
