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
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

// Encoder writes the wire format to an io.Writer incrementally. With a
// hash algorithm configured it maintains a running digest over the bytes
// written since the last block boundary, so WriteHashLine can certify a
// block without buffering it.
type Encoder struct {
	w    io.Writer
	cfg  Config
	hash hash.Hash
}

// NewEncoder creates an Encoder writing to w. A configured hash algorithm
// is resolved against the registry immediately
func NewEncoder(w io.Writer, opts ...Option) (*Encoder, error) {
	cfg := buildConfig(opts...)
	var h hash.Hash
	if cfg.HashAlgorithm != "" {
		var err error
		h, err = cfg.serializeRegistry().Lookup(cfg.HashAlgorithm)
		if err != nil {
			return nil, err
		}
	}
	return &Encoder{
		w:    w,
		cfg:  cfg,
		hash: h,
	}, nil
}

// WriteLine writes one line and folds its bytes into the running hash
func (e *Encoder) WriteLine(key string, value []byte) error {
	data, err := SerializeLine(key, value, WithForceSized(e.cfg.ForceSized))
	if err != nil {
		return err
	}
	if e.hash != nil {
		e.hash.Write(data)
	}
	_, err = e.w.Write(data)
	return err
}

// WriteHashLine writes a line whose key is the configured algorithm name
// and whose value is the hex digest of everything written since the last
// block boundary. The hash line's own bytes are not folded into the
// running hash
func (e *Encoder) WriteHashLine() error {
	if e.hash == nil {
		return fmt.Errorf(
			"%w: no hash algorithm configured",
			ErrUnknownHashAlgorithm,
		)
	}
	digest := hex.EncodeToString(e.hash.Sum(nil))
	data, err := SerializeLine(
		e.cfg.HashAlgorithm,
		[]byte(digest),
		WithForceSized(e.cfg.ForceSized),
	)
	if err != nil {
		return err
	}
	_, err = e.w.Write(data)
	return err
}

// WriteEmptyLine writes a structural empty line. One empty line
// terminates the current block and resets the running hash; additional
// consecutive empty lines terminate enclosing levels
func (e *Encoder) WriteEmptyLine() error {
	if e.hash != nil {
		e.hash.Reset()
	}
	_, err := e.w.Write([]byte{'\n'})
	return err
}

// WriteBlock writes a complete block: the given lines, a hash line when
// an algorithm is configured, any configured unhashed lines, and the
// terminating empty line. Output is identical to SerializeBlock with the
// same options
func (e *Encoder) WriteBlock(lines []Line) error {
	data, err := appendBlock(nil, lines, &e.cfg)
	if err != nil {
		return err
	}
	if e.hash != nil {
		e.hash.Reset()
	}
	_, err = e.w.Write(data)
	return err
}

// EndMessage writes the empty line that closes the current message. The
// caller must have just closed a block (or a deeper message) for the
// output to remain well-formed
func (e *Encoder) EndMessage() error {
	return e.WriteEmptyLine()
}
