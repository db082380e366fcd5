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

// Package analysis runs the dependency populator, recursion repair, the
// memoized worst-case stack computation, and the whole-program aggregator
// that turns a parsed program.Program into a stack.h.
package analysis

// Config carries the handful of run-time knobs §4.4 and §4.7 call out as
// overridable: the TinyOS critical-section boundary names and the header
// exception set.
type Config struct {
	CriticalStart string
	CriticalStop  string

	// ExceptionTitles are short task titles (post $-stripping) excluded
	// from the generated header even though they are tasks.
	ExceptionTitles map[string]bool
}

// DefaultConfig returns the TinyOS-flavored defaults §4.4 and §4.7 name.
func DefaultConfig() Config {
	return Config{
		CriticalStart: "__nesc_atomic_start",
		CriticalStop:  "__nesc_atomic_end",
		ExceptionTitles: map[string]bool{
			"__ctors_end-0x3a": true,
			"ccitt_crc16_tabl": true,
			"thread_task":      true,
		},
	}
}
