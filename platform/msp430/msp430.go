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

// Package msp430 implements platform.Platform for the TI MSP430 family
// (§4.3.1). Stack-pointer arithmetic is read directly off register r1; the
// interrupt vector table lives in the function named InterruptVectors.
package msp430

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mccartney/stackestimator/diagnostics"
	"github.com/mccartney/stackestimator/platform"
	"github.com/mccartney/stackestimator/program"
)

const vectorTableName = "InterruptVectors"

// Boards lists the MSP430-family board names the CLI accepts.
var Boards = []string{"telos", "telosa", "telosb", "tmote", "eyesIFX", "eyesIFXv1", "eyesIFXv2"}

type msp430 struct{}

// New returns the MSP430 platform.Platform.
func New() platform.Platform {
	return msp430{}
}

func (msp430) Name() string { return "msp430" }

func (msp430) PushCost() uint32      { return 2 }
func (msp430) CallCost() uint32      { return 2 }
func (msp430) InterruptCost() uint32 { return 4 }

func (msp430) Opcodes() platform.Opcodes {
	return platform.Opcodes{
		Push:  "push",
		Pop:   "pop",
		Call:  "call",
		ICall: "aflyingaardvark", // no opcode on this architecture will ever match
		EInt:  "eint",
		DInt:  "dint",
	}
}

type context struct{}

func (msp430) NewContext() platform.Context {
	return context{}
}

// ProcessInstruction recognizes stack-pointer arithmetic against r1. No
// opcode here emits a masking event - the populator handles eint/dint
// directly since this architecture exposes them as real opcodes.
func (context) ProcessInstruction(inst program.Instruction) (int32, platform.MaskEvent) {
	switch inst.Opcode {
	case "sub":
		if len(inst.Operands) >= 2 && inst.Operands[1] == "r1" {
			if n, ok := immediate(inst.Operands[0]); ok {
				return int32(n), platform.NoMaskEvent
			}
		}
	case "add":
		if len(inst.Operands) >= 2 && inst.Operands[1] == "r1" {
			if n, ok := immediate(inst.Operands[0]); ok {
				return -int32(n), platform.NoMaskEvent
			}
		}
	case "decd":
		if len(inst.Operands) >= 1 && inst.Operands[0] == "r1" {
			return 2, platform.NoMaskEvent
		}
	case "incd":
		if len(inst.Operands) >= 1 && inst.Operands[0] == "r1" {
			return -2, platform.NoMaskEvent
		}
	case "dec":
		if len(inst.Operands) >= 1 && inst.Operands[0] == "r1" {
			return 1, platform.NoMaskEvent
		}
	case "inc":
		if len(inst.Operands) >= 1 && inst.Operands[0] == "r1" {
			return -1, platform.NoMaskEvent
		}
	}
	return 0, platform.NoMaskEvent
}

// immediate parses an operand of the form "#123".
func immediate(operand string) (int64, bool) {
	operand = strings.TrimSpace(operand)
	if !strings.HasPrefix(operand, "#") {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(operand, "#"), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ResolveCall parses an immediate operand of the form "#<decimal>"; values
// are taken modulo 0x10000, sign-extending negative decimals (§4.3.1).
func (msp430) ResolveCall(p *program.Program, operand string) (*program.Function, bool) {
	n, ok := immediate(operand)
	if !ok {
		return nil, false
	}
	if n < 0 {
		n += 0x10000
	}
	addr := uint32(n % 0x10000)
	return p.ByAddress(addr)
}

func (msp430) MainName(p *program.Program) string {
	return "main"
}

// Interrupts decodes the interrupt vector table out of InterruptVectors:
// the first two instructions' disassembled byte columns (first 48 columns
// of each) are read as a sequence of little-endian 16-bit words; every
// other word is a vector address (§4.3.1, and §9's open question about
// validating the table's actual length).
func (m msp430) Interrupts(p *program.Program) ([]string, error) {
	table, ok := p.ByName(vectorTableName)
	if !ok {
		return nil, fmt.Errorf("msp430: no %s function found", vectorTableName)
	}
	if len(table.Instructions) < 2 {
		diagnostics.Emit(diagnostics.Diagnostic{
			Kind:     diagnostics.ParseWarning,
			Function: vectorTableName,
			Message:  fmt.Sprintf("expected at least 2 instructions to decode the vector table, found %d", len(table.Instructions)),
		})
		return nil, nil
	}

	var tokens []string
	for i := 0; i < 2; i++ {
		col := table.Instructions[i].Disassembly
		if len(col) > 48 {
			col = col[:48]
		} else if len(col) < 48 {
			diagnostics.Emit(diagnostics.Diagnostic{
				Kind:     diagnostics.ParseWarning,
				Function: vectorTableName,
				Message:  fmt.Sprintf("vector table instruction %d byte column is only %d characters, expected 48 - vector table may be truncated", i, len(col)),
			})
		}
		tokens = append(tokens, strings.Fields(strings.TrimSpace(col))...)
	}

	seen := make(map[string]bool)
	var names []string
	for i := 1; i < len(tokens); i += 4 {
		hi, errHi := strconv.ParseUint(tokens[i], 16, 32)
		lo, errLo := strconv.ParseUint(tokens[i-1], 16, 32)
		if errHi != nil || errLo != nil {
			continue
		}
		addr := uint32(hi)*256 + uint32(lo)
		if f, ok := p.ByAddress(addr); ok && !seen[f.Name] {
			seen[f.Name] = true
			names = append(names, f.Name)
		}
	}
	return names, nil
}

func (m msp430) ListTasks(p *program.Program) []string {
	exclude := map[string]bool{
		vectorTableName: true,
		"main":          true,
	}
	for _, n := range platform.WellKnownRuntimeEntries() {
		exclude[n] = true
	}
	if ints, err := m.Interrupts(p); err == nil {
		for _, n := range ints {
			exclude[n] = true
		}
	}
	return platform.ListUncalledExcluding(p, exclude)
}
