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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerializeMessage(t *testing.T) {
	data, err := SerializeMessage(
		[]Block{
			NewBlock(
				NewLine("a", []byte("hello")),
				NewLine("c", []byte("world")),
			),
			NewBlock(
				NewLine("x", []byte("y")),
			),
		},
	)
	assert.NoError(t, err)
	assert.Equal(t, []byte("a=hello\nc=world\n\nx=y\n\n\n"), data)
}

func TestSerializeMessageWithHash(t *testing.T) {
	// the hash option applies to every block
	data, err := SerializeMessage(
		[]Block{
			NewBlock(
				NewLine("a", []byte("hello")),
				NewLine("c", []byte("world")),
			),
		},
		WithHashAlgorithm("md5"),
	)
	assert.NoError(t, err)
	assert.Equal(
		t,
		[]byte("a=hello\nc=world\nmd5=c5133712016d519e3b899e1db0fe7652\n\n\n"),
		data,
	)
}

func TestParseMessage(t *testing.T) {
	data := []byte("a=hello\nc=world\n\nx=y\n\n\n")
	msg, consumed, err := ParseMessage(data)
	assert.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(
		t,
		[]Block{
			NewBlock(
				NewLine("a", []byte("hello")),
				NewLine("c", []byte("world")),
			),
			NewBlock(
				NewLine("x", []byte("y")),
			),
		},
		msg.Blocks,
	)
}

func TestParseMessageTrailingData(t *testing.T) {
	msg, consumed, err := ParseMessage([]byte("a=b\n\n\nnext=message\n"))
	assert.NoError(t, err)
	assert.Equal(t, 6, consumed)
	assert.Len(t, msg.Blocks, 1)
}

func TestParseMessageEmptyBlock(t *testing.T) {
	// two consecutive empty lines close an empty block, then the message
	msg, consumed, err := ParseMessage([]byte("\n\n"))
	assert.NoError(t, err)
	assert.Equal(t, 2, consumed)
	assert.Len(t, msg.Blocks, 1)
	assert.Empty(t, msg.Blocks[0].Lines)
}

func TestParseMessageTruncated(t *testing.T) {
	_, _, err := ParseMessage([]byte("a=b\n\n"))
	assert.ErrorIs(t, err, ErrUnexpectedEndOfStream)
}

func TestMessageRoundTrip(t *testing.T) {
	orig := NewMessage(
		NewBlock(
			NewLine("id", []byte("42")),
			NewLine("payload", []byte("raw \x00\xff bytes and \n newline")),
		),
		NewBlock(
			NewLine("meta.created", []byte("2026-08-30")),
		),
	)
	data, err := SerializeMessage(orig.Blocks)
	assert.NoError(t, err)
	msg, consumed, err := ParseMessage(data)
	assert.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Len(t, msg.Blocks, 2)
	for i, block := range msg.Blocks {
		assert.Len(t, block.Lines, len(orig.Blocks[i].Lines))
		for j, line := range block.Lines {
			assert.Equal(t, orig.Blocks[i].Lines[j].Key, line.Key)
			assert.Equal(t, orig.Blocks[i].Lines[j].Value, line.Value)
		}
	}
}
