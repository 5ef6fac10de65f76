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

// Message is an ordered sequence of blocks terminated by two consecutive
// empty lines
type Message struct {
	Blocks []Block
}

// NewMessage creates a Message from the given blocks
func NewMessage(blocks ...Block) Message {
	return Message{
		Blocks: blocks,
	}
}

// nestingAccumulator folds structures by counting consecutive empty lines
// observed between lines. The r-th consecutive empty line closes structure
// level r-1, where level 0 is the block, level 1 the message, and level d
// a d-fold nesting of messages. Closing the outermost configured level
// resets the counter, so a longer run of empty lines starts a fresh cycle
// with an empty block.
type nestingAccumulator struct {
	// depth is the number of levels above blocks (0 parses bare blocks)
	depth int
	// run is the current count of consecutive empty lines
	run int
	// clean is true when every level is closed and nothing is pending
	clean bool
}

func newNestingAccumulator(depth int) nestingAccumulator {
	return nestingAccumulator{
		depth: depth,
		clean: true,
	}
}

// line records a data line, resetting the empty-line run
func (n *nestingAccumulator) line() {
	n.run = 0
	n.clean = false
}

// emptyLine records a structural empty line. It returns the level being
// closed (0 = block) and whether that was the outermost configured level
func (n *nestingAccumulator) emptyLine() (int, bool) {
	n.run++
	level := n.run - 1
	if level >= n.depth {
		n.run = 0
		n.clean = true
		return level, true
	}
	n.clean = false
	return level, false
}
