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
	"sort"
	"strings"

	"github.com/mccartney/stackestimator/program"
)

// FormatCallGraph renders one line per function listing its direct
// dependencies (-p); when deep is true, each such line is followed by a
// recursive indented tree of that function's full call graph (-v). Supplements §6's CLI sketch, which
// names the flags without specifying the print format.
func FormatCallGraph(p *program.Program, deep bool) string {
	var b strings.Builder
	for _, f := range p.Functions {
		fmt.Fprintf(&b, "%s: %s\n", f.Name, strings.Join(f.Deps, ", "))
		if deep {
			visited := map[string]bool{f.Name: true}
			printDeep(&b, p, f, 1, visited)
		}
	}
	return b.String()
}

func printDeep(b *strings.Builder, p *program.Program, f *program.Function, depth int, visited map[string]bool) {
	indent := strings.Repeat("  ", depth)
	for _, depName := range f.Deps {
		fmt.Fprintf(b, "%s%s\n", indent, depName)
		if visited[depName] {
			continue // already expanded on this path; call graph is a DAG post-repair
		}
		callee, ok := p.ByName(depName)
		if !ok {
			continue
		}
		visited[depName] = true
		printDeep(b, p, callee, depth+1, visited)
		delete(visited, depName)
	}
}

// FormatFunctionSizes renders one "name: size" line per function, sorted by
// name (-s), where size is the function's byte length in the disassembly.
func FormatFunctionSizes(p *program.Program) string {
	names := make([]string, len(p.Functions))
	for i, f := range p.Functions {
		names[i] = f.Name
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		f, _ := p.ByName(name)
		fmt.Fprintf(&b, "%s: %d\n", f.Name, f.High-f.Low)
	}
	return b.String()
}
