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

// Package program holds the data model the rest of the analyzer operates
// on: parsed Instructions grouped into Functions, indexed by a Program.
// Nothing in this package parses text or performs analysis; it is the
// arena the other stages populate.
package program

import "fmt"

// Instruction is one disassembled line. It is immutable once parsed.
type Instruction struct {
	Address     uint32
	Size        uint32
	Opcode      string
	Operands    []string
	Disassembly string
	Comment     string
}

// Function is a contiguous address range of Instructions plus everything
// the dependency populator, recursion repairer and aggregator attach to it.
type Function struct {
	Name         string
	Low          uint32
	High         uint32
	Instructions []Instruction

	LocalStack               uint32
	LocalStackWithInterrupts uint32

	// Deps and DepsMasked are parallel: DepsMasked[i] is true when the
	// call to Deps[i] occurs while interrupts are masked.
	Deps       []string
	DepsMasked []bool

	HasIndirectCall          bool
	IndirectCallStackAtPoint uint32

	InterruptOverride bool

	DepCount uint32

	WorstCaseStack uint32
}

// Contains reports whether addr falls within the function's address range.
// The range is half-open ([Low, High)): High is one-past-the-end, the
// address the next function (if any) starts at, so two functions packed
// back-to-back in the disassembly never both claim the boundary address.
func (f *Function) Contains(addr uint32) bool {
	return f.Low <= addr && addr < f.High
}

// Program is an ordered collection of Functions plus a name index.
type Program struct {
	Functions []*Function
	byName    map[string]int
}

// New returns an empty Program.
func New() *Program {
	return &Program{byName: make(map[string]int)}
}

// Add appends f to the Program. It rejects a duplicate name or an address
// range overlapping an existing Function, per the Program invariants.
func (p *Program) Add(f *Function) error {
	if _, exists := p.byName[f.Name]; exists {
		return fmt.Errorf("program: duplicate function name %q", f.Name)
	}
	if f.Low > f.High {
		return fmt.Errorf("program: function %q has inverted address range [%#x, %#x]", f.Name, f.Low, f.High)
	}
	for _, other := range p.Functions {
		if f.Low < other.High && other.Low < f.High {
			return fmt.Errorf("program: function %q [%#x,%#x) overlaps %q [%#x,%#x)",
				f.Name, f.Low, f.High, other.Name, other.Low, other.High)
		}
	}
	p.byName[f.Name] = len(p.Functions)
	p.Functions = append(p.Functions, f)
	return nil
}

// ByName looks up a Function by its exact name.
func (p *Program) ByName(name string) (*Function, bool) {
	idx, ok := p.byName[name]
	if !ok {
		return nil, false
	}
	return p.Functions[idx], true
}

// ByAddress returns the Function whose address range contains addr, if any.
// Ranges are disjoint, so a linear scan is unambiguous; the arena is small
// enough (a few thousand functions at most) that this never needs an
// interval index.
func (p *Program) ByAddress(addr uint32) (*Function, bool) {
	for _, f := range p.Functions {
		if f.Contains(addr) {
			return f, true
		}
	}
	return nil, false
}
