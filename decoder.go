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
)

// Event is a structural event emitted by the Decoder. Concrete types are
// LineEvent, BlockEvent, and MessageEvent
type Event interface {
	isEvent()
}

// LineEvent is emitted for each completed data line. Structural empty
// lines do not produce a LineEvent
type LineEvent struct {
	Line *Line
}

// BlockEvent is emitted when an empty line completes the current block.
// The block carries its lines and any hash mismatch annotations
type BlockEvent struct {
	Block *Block
}

// MessageEvent is emitted when a run of consecutive empty lines closes a
// structure above the block level. Level 1 is a message of blocks, level 2
// a message of messages, and so on. The decoder does not buffer message
// contents; callers fold preceding BlockEvents themselves if they need the
// assembled structure
type MessageEvent struct {
	Level int
}

func (LineEvent) isEvent()    {}
func (BlockEvent) isEvent()   {}
func (MessageEvent) isEvent() {}

// Decoder is a resumable streaming parser. It never performs I/O and
// never blocks: Feed consumes whatever bytes are available and returns
// when the remainder is an incomplete structure, buffering it for the
// next call. Each Decoder owns its buffers exclusively; separate
// instances may run fully independently in separate goroutines.
type Decoder struct {
	cfg    Config
	blocks *blockAccumulator
	nest   nestingAccumulator
	buf    []byte
	err    error
}

// NewDecoder creates a Decoder. A configured hash algorithm is resolved
// against the registry immediately so an unknown name fails here rather
// than mid-stream
func NewDecoder(opts ...Option) (*Decoder, error) {
	cfg := buildConfig(opts...)
	registry := cfg.verifyRegistry()
	if cfg.HashAlgorithm != "" {
		if _, err := registry.Lookup(cfg.HashAlgorithm); err != nil {
			return nil, err
		}
	}
	return &Decoder{
		cfg:    cfg,
		blocks: newBlockAccumulator(registry, cfg.Logger),
		nest:   newNestingAccumulator(cfg.NestingDepth),
	}, nil
}

// Feed appends data to the internal buffer and drives the parse as far as
// the available bytes allow. It returns the events produced, the number
// of bytes structurally consumed during this call, and any fatal error.
// Unconsumed partial bytes remain buffered for the next call. Structural
// errors are sticky: once Feed returns an error, the stream cannot be
// resynchronized and every later call fails
func (d *Decoder) Feed(data []byte) ([]Event, int, error) {
	if d.err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDecoderFailed, d.err)
	}
	d.buf = append(d.buf, data...)
	var events []Event
	pos := 0
	for {
		line, n, err := decodeLine(d.buf[pos:])
		if errors.Is(err, errNeedMoreBytes) {
			break
		}
		if err != nil {
			d.err = err
			d.compact(pos)
			return events, pos, err
		}
		if line == nil {
			level, _ := d.nest.emptyLine()
			if level == 0 {
				events = append(events, BlockEvent{Block: d.blocks.finish()})
			} else {
				events = append(events, MessageEvent{Level: level})
			}
		} else {
			stored, err := d.blocks.add(line, d.buf[pos:pos+n])
			if err != nil {
				d.err = err
				d.compact(pos)
				return events, pos, err
			}
			d.nest.line()
			events = append(events, LineEvent{Line: stored})
		}
		pos += n
	}
	d.compact(pos)
	return events, pos, nil
}

// Done declares end of stream. It returns nil when the buffer is empty
// and every structure level is closed; otherwise the pending partial
// state is reported as a fatal error. A decoder that was never fed is a
// clean finish
func (d *Decoder) Done() error {
	if d.err != nil {
		return fmt.Errorf("%w: %w", ErrDecoderFailed, d.err)
	}
	if len(d.buf) > 0 {
		d.err = classifyEndOfStream(d.buf)
		return d.err
	}
	if !d.nest.clean || d.blocks.pending() {
		d.err = fmt.Errorf(
			"%w: unterminated structure",
			ErrUnexpectedEndOfStream,
		)
		return d.err
	}
	return nil
}

// Buffered returns the number of unconsumed bytes held for the next Feed
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// compact drops consumed bytes from the front of the buffer while keeping
// the allocation for reuse
func (d *Decoder) compact(pos int) {
	if pos == 0 {
		return
	}
	remaining := copy(d.buf, d.buf[pos:])
	d.buf = d.buf[:remaining]
}
