// Copyright © 2019 mg
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package main

import (
	"github.com/mccartney/stackestimator/platform"
	"github.com/mccartney/stackestimator/platform/avr"
	"github.com/mccartney/stackestimator/platform/msp430"
)

// boardEntry names the objdump-family binary a board's platform needs.
type boardEntry struct {
	plat       platform.Platform
	objdumpBin string
}

var boardRegistry = buildBoardRegistry()

func buildBoardRegistry() map[string]boardEntry {
	reg := make(map[string]boardEntry)
	for _, board := range msp430.Boards {
		reg[board] = boardEntry{plat: msp430.New(), objdumpBin: "msp430-objdump"}
	}
	for _, board := range avr.Boards {
		reg[board] = boardEntry{plat: avr.New(), objdumpBin: "avr-objdump"}
	}
	return reg
}

// resolveBoard looks up a board name against both platform families.
func resolveBoard(name string) (boardEntry, bool) {
	e, ok := boardRegistry[name]
	return e, ok
}
