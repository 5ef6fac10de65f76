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

func TestValidKey(t *testing.T) {
	testDefs := []struct {
		key   string
		valid bool
	}{
		{"a", true},
		{"a.b", true},
		{"abc123", true},
		{"_x.y_2", true},
		{"blake2b_256", true},
		{"some.nested.key", true},
		{"", false},
		{".a", false},
		{"a.", false},
		{"a..b", false},
		{"9a", false},
		{"a.9", false},
		{"a-b", false},
		{"a b", false},
		{"a\nb", false},
		{"k\xc3\xa9y", false},
	}
	for _, testDef := range testDefs {
		assert.Equal(
			t,
			testDef.valid,
			ValidKey(testDef.key),
			"key %q",
			testDef.key,
		)
	}
}

func TestParseLine(t *testing.T) {
	testDefs := []struct {
		data     string
		key      string
		value    string
		sized    bool
		consumed int
	}{
		{"name=data\n", "name", "data", false, 10},
		{"name:4=data\n", "name", "data", true, 12},
		{"name:15=multi\nline\ndata\n", "name", "multi\nline\ndata", true, 24},
		{"a=\n", "a", "", false, 3},
		{"a:0=\n", "a", "", true, 5},
		{"k=v\nextra", "k", "v", false, 4},
		{"a=b=c\n", "a", "b=c", false, 6},
		{"a:3=x\ny\n", "a", "x\ny", true, 8},
	}
	for _, testDef := range testDefs {
		line, consumed, err := ParseLine([]byte(testDef.data))
		assert.NoError(t, err, "data %q", testDef.data)
		if line == nil {
			t.Fatalf("unexpected nil line for data %q", testDef.data)
		}
		assert.Equal(t, testDef.key, line.Key, "data %q", testDef.data)
		assert.Equal(
			t,
			[]byte(testDef.value),
			line.Value,
			"data %q",
			testDef.data,
		)
		assert.Equal(t, testDef.sized, line.Sized, "data %q", testDef.data)
		assert.Equal(t, testDef.consumed, consumed, "data %q", testDef.data)
	}
}

func TestParseLineEmpty(t *testing.T) {
	line, consumed, err := ParseLine([]byte("\n"))
	assert.NoError(t, err)
	assert.Nil(t, line)
	assert.Equal(t, 1, consumed)
}

func TestParseLineErrors(t *testing.T) {
	testDefs := []struct {
		data string
		err  error
	}{
		{"9a=b\n", ErrInvalidKey},
		{".a=b\n", ErrInvalidKey},
		{"a.=b\n", ErrInvalidKey},
		{"a..b=c\n", ErrInvalidKey},
		{"a\nb=c\n", ErrInvalidKey},
		{"a:x=b\n", ErrInvalidSize},
		{"a:-1=b\n", ErrInvalidSize},
		{"a:=b\n", ErrInvalidSize},
		{"a:1=xy\n", ErrMissingTrailingNewline},
		{"a:5=ab", ErrTruncatedValue},
		// a declared size near the int limit must not wrap the bounds check
		{"a:9223372036854775807=x\n", ErrTruncatedValue},
		{"a=b", ErrUnexpectedEndOfStream},
		{"a", ErrUnexpectedEndOfStream},
		{"a:2=xy", ErrUnexpectedEndOfStream},
		{"", ErrUnexpectedEndOfStream},
	}
	for _, testDef := range testDefs {
		_, _, err := ParseLine([]byte(testDef.data))
		assert.ErrorIs(t, err, testDef.err, "data %q", testDef.data)
	}
}

func TestSerializeLine(t *testing.T) {
	data, err := SerializeLine("name", []byte("data"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("name=data\n"), data)

	// embedded newline forces the sized form
	data, err = SerializeLine("name", []byte("multi\nline\ndata"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("name:15=multi\nline\ndata\n"), data)

	data, err = SerializeLine("name", []byte("data"), WithForceSized(true))
	assert.NoError(t, err)
	assert.Equal(t, []byte("name:4=data\n"), data)

	_, err = SerializeLine("not valid", []byte("data"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestLineCopy(t *testing.T) {
	orig := Line{
		Key:   "a",
		Value: []byte("value"),
		Sized: true,
	}
	dup, err := orig.Copy()
	assert.NoError(t, err)
	assert.Equal(t, orig, *dup)
	// mutating the copy must not affect the original
	dup.Value[0] = 'X'
	assert.Equal(t, []byte("value"), orig.Value)
}
