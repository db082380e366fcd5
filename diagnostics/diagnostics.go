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

// Package diagnostics collects and reports the non-fatal conditions the
// analyzer runs into while walking a disassembly (§7 of the analysis spec):
// parse warnings, dangling callees, insane interrupt masking, indirect
// calls and recursion. None of these stop a run on their own.
package diagnostics

import (
	"fmt"
	"os"
)

// Kind classifies a Diagnostic.
type Kind int

const (
	ParseWarning Kind = iota
	DanglingCallee
	InsaneMasking
	IndirectCall
	Cycle
	Info
)

func (k Kind) String() string {
	switch k {
	case ParseWarning:
		return "parse-warning"
	case DanglingCallee:
		return "dangling-callee"
	case InsaneMasking:
		return "insane-masking"
	case IndirectCall:
		return "indirect-call"
	case Cycle:
		return "cycle"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Diagnostic carries enough context to be grep-debuggable: the function it
// occurred in, the offending opcode/operands, and a human message.
type Diagnostic struct {
	Kind     Kind
	Function string
	Opcode   string
	Operands []string
	Message  string
}

func (d Diagnostic) String() string {
	if d.Function == "" {
		return fmt.Sprintf("[%s] %s", d.Kind, d.Message)
	}
	if d.Opcode == "" {
		return fmt.Sprintf("[%s] %s: %s", d.Kind, d.Function, d.Message)
	}
	return fmt.Sprintf("[%s] %s (%s %v): %s", d.Kind, d.Function, d.Opcode, d.Operands, d.Message)
}

// Sink receives diagnostics as the analysis runs. Implementations must not
// retain the Diagnostic's slices beyond the call without copying them.
type Sink interface {
	Emit(d Diagnostic)
}

type defaultSink struct{}

func (defaultSink) Emit(d Diagnostic) {
	if !verbose && d.Kind == Info {
		return
	}
	fmt.Fprintln(os.Stdout, d.String())
}

var (
	defaultSinkImpl = defaultSink{}
	sink            Sink = defaultSinkImpl
	verbose              = false
)

// SetSink installs the Sink every Emit call below this package's default
// helpers will be routed through. A nil impl restores the default sink.
func SetSink(impl Sink) {
	if impl == nil {
		sink = defaultSinkImpl
	} else {
		sink = impl
	}
}

// SetVerbose controls whether the default sink prints Info-kind diagnostics.
func SetVerbose(enable bool) {
	verbose = enable
}

// Default returns the currently installed package-level Sink.
func Default() Sink {
	return sink
}

// Emit routes a diagnostic through the package-level sink. Callers that hold
// their own Sink (e.g. passed down through an analysis pass) should call
// Sink.Emit directly instead.
func Emit(d Diagnostic) {
	sink.Emit(d)
}

// Collector is a Sink that records every Diagnostic it receives, useful for
// tests and for any caller that wants structured access rather than text.
type Collector struct {
	items []Diagnostic
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Emit(d Diagnostic) {
	d.Operands = append([]string(nil), d.Operands...)
	c.items = append(c.items, d)
}

// List returns every Diagnostic recorded so far, in emission order.
func (c *Collector) List() []Diagnostic {
	return c.items
}

// Count returns how many Diagnostics of the given Kind have been recorded.
func (c *Collector) Count(k Kind) int {
	n := 0
	for _, d := range c.items {
		if d.Kind == k {
			n++
		}
	}
	return n
}
