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
	"github.com/mccartney/stackestimator/diagnostics"
	"github.com/mccartney/stackestimator/program"
)

// WorstCase is the (m_any, m_unmasked, override_seen) triple §4.6 computes
// per function.
type WorstCase struct {
	MAny      uint32
	MUnmasked uint32
	Override  bool
}

type worstCaseEngine struct {
	p          *program.Program
	memo       map[string]WorstCase
	inProgress map[string]bool
	sink       diagnostics.Sink
}

// ComputeWorstCase runs §4.6's memoized W over every function in p and
// returns the per-name results; it also writes WorstCaseStack = m_any onto
// each program.Function, matching "Store m_any as worst_case_stack". Must
// run after Populate and, if repair is enabled, after DetectAndRepair - W
// assumes the call graph is a DAG.
func ComputeWorstCase(p *program.Program, sink diagnostics.Sink) map[string]WorstCase {
	if sink == nil {
		sink = diagnostics.Default()
	}
	e := &worstCaseEngine{
		p:          p,
		memo:       make(map[string]WorstCase, len(p.Functions)),
		inProgress: make(map[string]bool),
		sink:       sink,
	}
	for _, f := range p.Functions {
		e.worstCase(f)
	}
	return e.memo
}

// worstCase implements §4.6's W: m_any and m_unmasked each start at
// f.local_stack (f's own frame) and then have the deepest child's
// contribution to the matching pool added on top - calls within f are
// sequential, so only the single deepest callee matters, but its depth
// still stacks above f's own, it never replaces it.
func (e *worstCaseEngine) worstCase(f *program.Function) WorstCase {
	if wc, ok := e.memo[f.Name]; ok {
		return wc
	}
	if e.inProgress[f.Name] {
		// Should be unreachable once DetectAndRepair has run; guard against
		// an un-repaired cycle slipping through rather than recursing
		// forever.
		e.sink.Emit(diagnostics.Diagnostic{
			Kind:     diagnostics.Cycle,
			Function: f.Name,
			Message:  "worst-case computation revisited a function still on its own call path; treating it as contributing no further depth",
		})
		return WorstCase{MAny: f.LocalStack, MUnmasked: f.LocalStackWithInterrupts, Override: f.InterruptOverride}
	}
	e.inProgress[f.Name] = true

	override := f.InterruptOverride
	var maxChildAny, maxChildUnmasked uint32

	for i, calleeName := range f.Deps {
		callee, ok := e.p.ByName(calleeName)
		if !ok {
			continue // dangling callee, already diagnosed by the populator
		}
		child := e.worstCase(callee)

		override = override || child.Override
		if child.MAny > maxChildAny {
			maxChildAny = child.MAny
		}

		var contribution uint32
		switch {
		case child.Override:
			// The callee manually unmasks somewhere in its own body, so
			// even a masked call into it exposes its full depth.
			contribution = child.MAny
		case i < len(f.DepsMasked) && f.DepsMasked[i]:
			// Entered with interrupts off; does not contribute to the
			// unmasked pool.
			contribution = 0
		default:
			contribution = child.MUnmasked
		}
		if contribution > maxChildUnmasked {
			maxChildUnmasked = contribution
		}
	}

	// The deepest callee's frame sits on top of this function's own frame -
	// calls are sequential, so only the single deepest one matters, but its
	// depth still stacks on top of f's own local_stack rather than replacing
	// it.
	result := WorstCase{
		MAny:      f.LocalStack + maxChildAny,
		MUnmasked: f.LocalStack + maxChildUnmasked,
		Override:  override,
	}

	delete(e.inProgress, f.Name)
	e.memo[f.Name] = result
	f.WorstCaseStack = result.MAny
	return result
}
