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

package platform

import "github.com/mccartney/stackestimator/program"

// ListUncalledExcluding returns every Function with a zero DepCount (§4.4's
// dependency populator and analysis.ComputeDepCounts must have already run)
// whose name is not in exclude. Both the MSP430 and AVR platforms share
// this definition of "task" - only the exclude set differs.
func ListUncalledExcluding(p *program.Program, exclude map[string]bool) []string {
	var tasks []string
	for _, f := range p.Functions {
		if f.DepCount != 0 {
			continue
		}
		if exclude[f.Name] {
			continue
		}
		tasks = append(tasks, f.Name)
	}
	return tasks
}

// WellKnownRuntimeEntries names the TinyOS runtime functions that are never
// tasks even when uncalled.
func WellKnownRuntimeEntries() []string {
	return []string{"_unexpected_", "__stop_progExec__"}
}
