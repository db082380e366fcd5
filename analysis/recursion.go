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

package analysis

import (
	"fmt"

	"github.com/mccartney/stackestimator/diagnostics"
	"github.com/mccartney/stackestimator/program"
)

// DetectAndRepair performs the depth-first recursion scan of §4.5, starting
// a fresh traversal from every function. A callee found anywhere on the
// current path is a cycle: direct if it is the path's own top, indirect
// otherwise. With repair enabled the back-edge is dropped from the calling
// function's deps/deps_masked (kept parallel) and the walk continues past
// it; without repair the first cycle found aborts with an error, matching
// §4.5's "cycle detected verdict that aborts analysis".
//
// The path is threaded as a freshly-grown slice at each call rather than a
// shared mutable stack, so that two branches exploring the same function
// never alias or corrupt each other's notion of "the current path".
func DetectAndRepair(p *program.Program, repair bool, sink diagnostics.Sink) error {
	if sink == nil {
		sink = diagnostics.Default()
	}
	for _, f := range p.Functions {
		if err := visit(p, f, nil, repair, sink); err != nil {
			return err
		}
	}
	return nil
}

func visit(p *program.Program, f *program.Function, path []string, repair bool, sink diagnostics.Sink) error {
	current := make([]string, len(path)+1)
	copy(current, path)
	current[len(path)] = f.Name

	deps := append([]string(nil), f.Deps...)
	masked := append([]bool(nil), f.DepsMasked...)

	var keepDeps []string
	var keepMasked []bool
	mutated := false

	for i, calleeName := range deps {
		if onPath(current, calleeName) {
			direct := calleeName == f.Name
			sink.Emit(diagnostics.Diagnostic{
				Kind: diagnostics.Cycle, Function: f.Name,
				Message: cycleMessage(direct, calleeName),
			})
			if !repair {
				return fmt.Errorf("analysis: cycle detected: %q calls %q, which is already on the current call path", f.Name, calleeName)
			}
			mutated = true
			continue
		}

		keepDeps = append(keepDeps, calleeName)
		keepMasked = append(keepMasked, masked[i])

		callee, ok := p.ByName(calleeName)
		if !ok {
			continue
		}
		if err := visit(p, callee, current, repair, sink); err != nil {
			return err
		}
	}

	if mutated {
		f.Deps = keepDeps
		f.DepsMasked = keepMasked
	}
	return nil
}

func onPath(path []string, name string) bool {
	for _, n := range path {
		if n == name {
			return true
		}
	}
	return false
}

func cycleMessage(direct bool, calleeName string) string {
	if direct {
		return fmt.Sprintf("direct recursion: calls itself (%q)", calleeName)
	}
	return fmt.Sprintf("indirect recursion: calls %q, which is already on the current call path", calleeName)
}
