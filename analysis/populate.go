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
	"github.com/mccartney/stackestimator/platform"
	"github.com/mccartney/stackestimator/program"
)

// Populate walks every function's instructions once (§4.4), deriving its
// local stack contribution, call-graph edges, masking behavior and indirect
// call presence. It must run before recursion repair or worst-case
// computation; both depend on the deps/deps_masked it writes.
func Populate(p *program.Program, plat platform.Platform, cfg Config, sink diagnostics.Sink) {
	if sink == nil {
		sink = diagnostics.Default()
	}
	opcodes := plat.Opcodes()
	for _, f := range p.Functions {
		populateFunction(p, f, plat, opcodes, cfg, sink)
	}
}

func populateFunction(p *program.Program, f *program.Function, plat platform.Platform, opcodes platform.Opcodes, cfg Config, sink diagnostics.Sink) {
	ctx := plat.NewContext()

	var stack int64
	var stackMax int64
	var stackMaxUnmasked int64
	maskDepth := 0
	callPending := false
	var hasIndirect bool
	var indirectStackAtPoint int64
	override := false

	f.Deps = nil
	f.DepsMasked = nil

	for _, inst := range f.Instructions {
		if callPending {
			stack -= int64(plat.CallCost())
			callPending = false
		}

		switch {
		case inst.Opcode == opcodes.Push:
			stack += int64(plat.PushCost())

		case inst.Opcode == opcodes.Pop:
			stack -= int64(plat.PushCost())

		case inst.Opcode == opcodes.Call:
			stack += int64(plat.CallCost())
			callPending = true
			handleCall(p, f, inst, plat, cfg, sink, &stack, &maskDepth)

		case inst.Opcode == opcodes.ICall:
			stack += int64(plat.CallCost())
			callPending = true
			hasIndirect = true
			indirectStackAtPoint = stack
			sink.Emit(diagnostics.Diagnostic{
				Kind:     diagnostics.IndirectCall,
				Function: f.Name,
				Opcode:   inst.Opcode,
				Operands: inst.Operands,
				Message:  "indirect call target cannot be resolved statically",
			})

		case inst.Opcode == opcodes.DInt:
			if maskDepth == 0 {
				maskDepth = 1
				if f.Name != cfg.CriticalStart {
					sink.Emit(diagnostics.Diagnostic{
						Kind: diagnostics.InsaneMasking, Function: f.Name, Opcode: inst.Opcode,
						Message: fmt.Sprintf("interrupts disabled outside the designated critical-section-start function %q", cfg.CriticalStart),
					})
				}
			}

		case inst.Opcode == opcodes.EInt:
			maskDepth = 0
			if f.Name != cfg.CriticalStop {
				override = true
				sink.Emit(diagnostics.Diagnostic{
					Kind: diagnostics.InsaneMasking, Function: f.Name, Opcode: inst.Opcode,
					Message: fmt.Sprintf("interrupts re-enabled outside the designated critical-section-stop function %q", cfg.CriticalStop),
				})
			}

		default:
			delta, event := ctx.ProcessInstruction(inst)
			stack += int64(delta)
			switch event {
			case platform.CriticalStart:
				maskDepth++
			case platform.CriticalStop:
				if maskDepth > 0 {
					maskDepth--
				}
			case platform.Insane:
				override = true
				sink.Emit(diagnostics.Diagnostic{
					Kind: diagnostics.InsaneMasking, Function: f.Name, Opcode: inst.Opcode, Operands: inst.Operands,
					Message: "instruction left the interrupt-masking model in an inconsistent state",
				})
			}
		}

		if stack > stackMax {
			stackMax = stack
		}
		if maskDepth == 0 && stack > stackMaxUnmasked {
			stackMaxUnmasked = stack
		}
	}

	if stackMax < 0 {
		stackMax = 0
	}
	if stackMaxUnmasked < 0 {
		stackMaxUnmasked = 0
	}

	f.LocalStack = uint32(stackMax)
	f.LocalStackWithInterrupts = uint32(stackMaxUnmasked)
	f.HasIndirectCall = hasIndirect
	if hasIndirect && indirectStackAtPoint > 0 {
		f.IndirectCallStackAtPoint = uint32(indirectStackAtPoint)
	}
	f.InterruptOverride = override
}

// handleCall resolves a call's target, threads it through the critical
// section state machine, and appends to deps/deps_masked. Masking is
// asymmetric at the boundary calls themselves: the call into the
// critical-section-start function is recorded as masked (mask_depth is
// incremented before the flag is captured), while the call into the
// critical-section-stop function is likewise recorded as masked (the flag
// is captured before mask_depth is decremented) - both boundary calls read
// as "inside" the section they delimit.
func handleCall(p *program.Program, f *program.Function, inst program.Instruction, plat platform.Platform, cfg Config, sink diagnostics.Sink, stack *int64, maskDepth *int) {
	var operand string
	if len(inst.Operands) > 0 {
		operand = inst.Operands[0]
	}

	callee, ok := plat.ResolveCall(p, operand)
	if !ok {
		sink.Emit(diagnostics.Diagnostic{
			Kind: diagnostics.DanglingCallee, Function: f.Name, Opcode: inst.Opcode, Operands: inst.Operands,
			Message: "call target address falls outside every known function range",
		})
		f.Deps = append(f.Deps, operand)
		f.DepsMasked = append(f.DepsMasked, *maskDepth > 0)
		return
	}

	if callee.Name == cfg.CriticalStart {
		*maskDepth++
	}
	masked := *maskDepth > 0
	if callee.Name == cfg.CriticalStop {
		if *maskDepth > 0 {
			*maskDepth--
		}
	}

	f.Deps = append(f.Deps, callee.Name)
	f.DepsMasked = append(f.DepsMasked, masked)
}

// ComputeDepCounts recomputes every Function's DepCount as the number of
// deps entries, across all Functions (repeated calls and self-calls
// included), that name it - the in-degree the platform's
// ListTasks relies on to find uncalled functions. Re-run after recursion
// repair edits deps.
func ComputeDepCounts(p *program.Program) {
	counts := make(map[string]uint32, len(p.Functions))
	for _, f := range p.Functions {
		for _, dep := range f.Deps {
			counts[dep]++
		}
	}
	for _, f := range p.Functions {
		f.DepCount = counts[f.Name]
	}
}
