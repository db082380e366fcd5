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

// Package dashboard is an optional interactive terminal viewer over an
// already-analyzed program.Program: a scrollable list of functions ranked
// by worst-case stack, with a detail pane of its deps and masking state.
// Nothing in the core analyzer depends on this package.
package dashboard

import (
	"fmt"
	"sort"
	"strings"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/mccartney/stackestimator/analysis"
	"github.com/mccartney/stackestimator/program"
)

// Run takes over the terminal until the user quits. wc must already hold
// every function's worst-case result (analysis.ComputeWorstCase).
func Run(p *program.Program, wc map[string]analysis.WorstCase) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("dashboard: failed to initialize termui: %w", err)
	}
	defer ui.Close()

	names := sortedByWorstCase(p, wc)

	list := widgets.NewList()
	list.Title = "Functions (worst-case stack, desc)"
	list.Rows = rowsFor(names, wc)
	list.SetRect(0, 0, 54, 32)

	detail := widgets.NewParagraph()
	detail.Title = "Detail"
	detail.SetRect(54, 0, 112, 32)

	tips := widgets.NewParagraph()
	tips.Title = "Tips"
	tips.Text = "j/k or arrows to select, q to quit"
	tips.SetRect(0, 32, 112, 35)

	render := func() {
		renderDetail(detail, p, names, list.SelectedRow, wc)
		ui.Render(list, detail, tips)
	}
	render()

	for e := range ui.PollEvents() {
		if e.Type != ui.KeyboardEvent {
			continue
		}
		switch e.ID {
		case "q", "Q", "<C-c>":
			return nil
		case "j", "<Down>":
			list.ScrollDown()
		case "k", "<Up>":
			list.ScrollUp()
		case "<C-d>":
			list.ScrollHalfPageDown()
		case "<C-u>":
			list.ScrollHalfPageUp()
		}
		render()
	}
	return nil
}

func sortedByWorstCase(p *program.Program, wc map[string]analysis.WorstCase) []string {
	names := make([]string, len(p.Functions))
	for i, f := range p.Functions {
		names[i] = f.Name
	}
	sort.Slice(names, func(i, j int) bool {
		if wc[names[i]].MAny != wc[names[j]].MAny {
			return wc[names[i]].MAny > wc[names[j]].MAny
		}
		return names[i] < names[j]
	})
	return names
}

func rowsFor(names []string, wc map[string]analysis.WorstCase) []string {
	rows := make([]string, len(names))
	for i, name := range names {
		rows[i] = fmt.Sprintf("%6d  %s", wc[name].MAny, name)
	}
	return rows
}

func renderDetail(p *widgets.Paragraph, prog *program.Program, names []string, selected int, wc map[string]analysis.WorstCase) {
	if selected < 0 || selected >= len(names) {
		p.Text = ""
		return
	}
	name := names[selected]
	f, ok := prog.ByName(name)
	if !ok {
		p.Text = ""
		return
	}
	w := wc[name]

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", name)
	fmt.Fprintf(&b, "range:      [%#x, %#x]\n", f.Low, f.High)
	fmt.Fprintf(&b, "local:      %d\n", f.LocalStack)
	fmt.Fprintf(&b, "local(int): %d\n", f.LocalStackWithInterrupts)
	fmt.Fprintf(&b, "worst any:  %d\n", w.MAny)
	fmt.Fprintf(&b, "worst unm.: %d\n", w.MUnmasked)
	fmt.Fprintf(&b, "override:   %v\n", w.Override)
	fmt.Fprintf(&b, "indirect:   %v\n", f.HasIndirectCall)
	fmt.Fprintln(&b, "deps:")
	for i, dep := range f.Deps {
		masked := i < len(f.DepsMasked) && f.DepsMasked[i]
		fmt.Fprintf(&b, "  %-30s masked=%v\n", dep, masked)
	}
	p.Text = b.String()
}
