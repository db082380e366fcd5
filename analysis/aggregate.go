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

	"github.com/mccartney/stackestimator/platform"
	"github.com/mccartney/stackestimator/program"
)

// Totals is the whole-program bound §4.7 derives, plus the legacy "Simple"
// figure kept for comparison.
type Totals struct {
	Total  uint32
	Simple uint32

	IntOverhead     uint32
	SigMax          uint32
	TaskMaxAny      uint32
	TaskMaxUnmasked uint32
	MainAny         uint32
	MainIndirect    uint32

	Interrupts []string
	Signals    []string
	Tasks      []string
}

// NestedInterruptStack computes the worst-case additional stack consumed
// by however many of the given interrupts happen to preempt one another,
// given each interrupt's enabled-depth (entered with interrupts already on)
// and any-depth (its own full m_any, for whichever interrupt is the one
// actually executing).
//
// §4.7 describes this as a search over every permutation and cut-point:
// sum the enabled-depths of the interrupts before the cut, add the any-depth
// of the interrupt at the cut, and ignore everything after it. Since every
// enabled/any depth is non-negative, moving an interrupt from "after the
// cut" to "before the cut" can only add its enabled-depth to the sum - it
// never costs anything to include everyone. The worst ordering therefore
// always includes every interrupt before the cut except the one actually
// chosen to run at full depth, collapsing the search to picking which single
// interrupt sits at the cut:
//
//	result = Σ enabled[i]  +  max_j ( any[j] - enabled[j] )
//
// which is what is computed below in O(n) instead of O(n! · n).
func NestedInterruptStack(enabled, any []uint32) uint32 {
	if len(enabled) == 0 {
		return 0
	}
	var sum uint32
	for _, e := range enabled {
		sum += e
	}
	bestDelta := int64(any[0]) - int64(enabled[0])
	for i := 1; i < len(enabled); i++ {
		if delta := int64(any[i]) - int64(enabled[i]); delta > bestDelta {
			bestDelta = delta
		}
	}
	return uint32(int64(sum) + bestDelta)
}

// Aggregate combines main, tasks, signals and interrupts into the
// whole-program bound (§4.7). wc must already hold every function's
// ComputeWorstCase result.
func Aggregate(p *program.Program, plat platform.Platform, wc map[string]WorstCase) (Totals, error) {
	isrNames, err := plat.Interrupts(p)
	if err != nil {
		return Totals{}, err
	}
	taskNames := plat.ListTasks(p)

	var interrupts, signals []string
	for _, name := range isrNames {
		if wc[name].Override {
			signals = append(signals, name)
		} else {
			interrupts = append(interrupts, name)
		}
	}

	var sigMax uint32
	for _, name := range signals {
		if wc[name].MAny > sigMax {
			sigMax = wc[name].MAny
		}
	}

	enabled := make([]uint32, len(interrupts))
	anyDepth := make([]uint32, len(interrupts))
	for i, name := range interrupts {
		enabled[i] = wc[name].MUnmasked
		anyDepth[i] = wc[name].MAny
	}
	intOverhead := NestedInterruptStack(enabled, anyDepth) + sigMax + plat.InterruptCost()*uint32(len(interrupts))

	var taskMaxAny, taskMaxUnmasked uint32
	for _, name := range taskNames {
		w := wc[name]
		if w.MAny > taskMaxAny {
			taskMaxAny = w.MAny
		}
		if w.MUnmasked > taskMaxUnmasked {
			taskMaxUnmasked = w.MUnmasked
		}
	}

	mainName := plat.MainName(p)
	mainFn, ok := p.ByName(mainName)
	if !ok {
		return Totals{}, fmt.Errorf("analysis: no %q function found", mainName)
	}
	mainAny := wc[mainName].MAny
	mainIndirect := mainFn.IndirectCallStackAtPoint

	total := mainIndirect + maxU32(taskMaxAny, taskMaxUnmasked+intOverhead)
	if mainAny > total {
		total = mainAny + intOverhead
	}

	var simple uint32
	for _, name := range isrNames {
		simple += wc[name].MAny
	}
	simple += taskMaxAny + mainAny + plat.InterruptCost()*uint32(len(isrNames))

	return Totals{
		Total:           total,
		Simple:          simple,
		IntOverhead:     intOverhead,
		SigMax:          sigMax,
		TaskMaxAny:      taskMaxAny,
		TaskMaxUnmasked: taskMaxUnmasked,
		MainAny:         mainAny,
		MainIndirect:    mainIndirect,
		Interrupts:      interrupts,
		Signals:         signals,
		Tasks:           taskNames,
	}, nil
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// shortTitle strips any prefix up through the last '$', the convention
// TinyOS component-qualified task names use (§4.7).
func shortTitle(name string) string {
	if idx := strings.LastIndex(name, "$"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// GenerateHeader renders the #define block §4.7 describes: per surviving
// task short-title, the max of (m_any, m_unmasked+overhead) plus twice the
// call cost, collisions resolved by keeping the larger value, titles in cfg
// or containing '.' excluded.
func GenerateHeader(p *program.Program, plat platform.Platform, wc map[string]WorstCase, intOverhead uint32, cfg Config) string {
	threadingOverhead := 2 * plat.CallCost()
	sizes := make(map[string]uint32)

	for _, name := range plat.ListTasks(p) {
		title := shortTitle(name)
		if cfg.ExceptionTitles[title] || strings.Contains(title, ".") {
			continue
		}
		w := wc[name]
		size := maxU32(w.MAny, w.MUnmasked+intOverhead) + threadingOverhead
		if existing, ok := sizes[title]; !ok || size > existing {
			sizes[title] = size
		}
	}

	titles := make([]string, 0, len(sizes))
	for t := range sizes {
		titles = append(titles, t)
	}
	sort.Strings(titles)

	var b strings.Builder
	for _, t := range titles {
		fmt.Fprintf(&b, "#define %s_STACKSIZE %d\n", t, sizes[t])
	}
	return b.String()
}
