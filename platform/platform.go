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

// Package platform defines the capability set (§4.3, §9 "Polymorphism over
// platforms") an architecture must provide so the populator and aggregator
// can stay architecture-agnostic. There is no base/derived hierarchy here:
// a Platform is just a small table of opcode names plus a handful of
// functions, parameterizing the analysis over an opcode lookup table
// instead of a type per chip.
package platform

import "github.com/mccartney/stackestimator/program"

// MaskEvent is what a single instruction did to the interrupt-mask state,
// as decided by a Context's ProcessInstruction.
type MaskEvent int

const (
	// NoMaskEvent means the instruction had no effect on masking.
	NoMaskEvent MaskEvent = iota
	// CriticalStart means a critical section was entered.
	CriticalStart
	// CriticalStop means a critical section was left.
	CriticalStop
	// Insane means the instruction did something the masking model
	// cannot make sense of (e.g. a bare cli with no matching save).
	Insane
)

// Opcodes names the small set of mnemonics the populator needs to
// recognize directly, in addition to whatever the Context handles.
// ICall and DInt may be set to a string no real opcode will ever produce,
// meaning "this architecture doesn't have one" / "this architecture routes
// masking entirely through the Context instead".
type Opcodes struct {
	Push  string
	Pop   string
	Call  string
	ICall string
	EInt  string
	DInt  string
}

// Context is the per-function instruction interpreter state (§9 "Per
// function interpreter state"). A fresh Context is created at every
// function boundary via Platform.NewContext and discarded once that
// function's instructions have all been processed - register-tag leakage
// across functions is the one correctness bug this design rules out
// structurally.
type Context interface {
	// ProcessInstruction handles any opcode the populator doesn't already
	// special-case (push/pop/call/icall/eint/dint), returning the
	// resulting stack delta and any masking event it implies.
	ProcessInstruction(inst program.Instruction) (delta int32, event MaskEvent)
}

// Platform is the full per-architecture capability set.
type Platform interface {
	Name() string

	PushCost() uint32
	CallCost() uint32
	InterruptCost() uint32

	Opcodes() Opcodes

	// NewContext resets per-function interpreter state for the function
	// about to be walked.
	NewContext() Context

	// ResolveCall maps a call/icall operand to its target Function, when
	// the operand names an address that falls inside a known Function.
	ResolveCall(p *program.Program, operand string) (*program.Function, bool)

	// MainName returns the name of the program's entry point.
	MainName(p *program.Program) string

	// Interrupts enumerates the Function names reachable as ISRs by
	// decoding the architecture's interrupt vector table.
	Interrupts(p *program.Program) ([]string, error)

	// ListTasks enumerates uncalled Functions excluding ISRs, main, the
	// vector table, and well-known runtime entries.
	ListTasks(p *program.Program) []string
}
