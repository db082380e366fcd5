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

// Package avr implements platform.Platform for the Atmel ATmega family
// (§4.3.2). Unlike MSP430, dint has no real opcode here: the critical
// section idiom is a save-status/cli/restore-status sequence, so it is
// recognized by a small per-function register-tag interpreter instead.
package avr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mccartney/stackestimator/diagnostics"
	"github.com/mccartney/stackestimator/platform"
	"github.com/mccartney/stackestimator/program"
)

const vectorTableName = "__vectors"

// Boards lists the ATmega-family board names the CLI accepts.
var Boards = []string{"mica", "mica2", "micaz", "atmega8", "mica2dot", "rene2", "mica128"}

type avr struct{}

// New returns the AVR platform.Platform.
func New() platform.Platform {
	return avr{}
}

func (avr) Name() string { return "avr" }

func (avr) PushCost() uint32      { return 1 }
func (avr) CallCost() uint32      { return 2 }
func (avr) InterruptCost() uint32 { return 2 }

func (avr) Opcodes() platform.Opcodes {
	return platform.Opcodes{
		Push:  "push",
		Pop:   "pop",
		Call:  "call",
		ICall: "icall",
		EInt:  "sei",
		DInt:  "does not exist", // dint is deliberately disabled; cli is routed through the interpreter
	}
}

// regTag classifies what a virtual register currently holds.
type regTag int

const (
	tagTrash regTag = iota
	tagStackPtrLow
	tagStackPtrHigh
	tagStatus
	tagConst
)

type regState struct {
	tag   regTag
	value uint32
}

// context is the per-function interpreter state of §4.3.2: 32 tagged
// virtual registers and a latch tracking whether a saved status register
// is waiting to be paired with a cli.
type context struct {
	regs                 [32]regState
	expectingAtomicStart bool
}

func (avr) NewContext() platform.Context {
	return &context{}
}

var regexRegister = regexp.MustCompile(`^r(\d+)$`)

func regIndex(operand string) (int, bool) {
	m := regexRegister.FindStringSubmatch(strings.TrimSpace(operand))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 || n >= 32 {
		return 0, false
	}
	return n, true
}

// parseHex accepts an optional "0x"/"0X" prefix and parses the rest as hex,
// stopping at the first non-hex-digit character (objdump sometimes tacks a
// "<symbol>" comment directly onto the operand column).
func parseHex(operand string) (int64, bool) {
	s := strings.TrimSpace(operand)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	end := 0
	for end < len(s) && isHexDigit(s[end]) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 16, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// ProcessInstruction recognizes the AVR critical-section idiom: save the
// status register, cli, ... restore the status register. Everything else
// it sees is stack-pointer bookkeeping via the in/out/subi/sbci/mov forms
// §4.3.2 lists.
func (c *context) ProcessInstruction(inst program.Instruction) (int32, platform.MaskEvent) {
	switch inst.Opcode {
	case "in":
		if len(inst.Operands) < 2 {
			return 0, platform.NoMaskEvent
		}
		rIdx, ok := regIndex(inst.Operands[0])
		if !ok {
			return 0, platform.NoMaskEvent
		}
		switch strings.ToLower(strings.TrimSpace(inst.Operands[1])) {
		case "0x3d":
			c.regs[rIdx] = regState{tag: tagStackPtrLow}
		case "0x3e":
			c.regs[rIdx] = regState{tag: tagStackPtrHigh}
		case "0x3f":
			c.regs[rIdx] = regState{tag: tagStatus}
			c.expectingAtomicStart = true
		}

	case "cli":
		if c.expectingAtomicStart {
			c.expectingAtomicStart = false
			return 0, platform.CriticalStart
		}
		return 0, platform.Insane

	case "out":
		if len(inst.Operands) < 2 {
			return 0, platform.NoMaskEvent
		}
		rIdx, ok := regIndex(inst.Operands[1])
		if !ok {
			return 0, platform.NoMaskEvent
		}
		switch strings.ToLower(strings.TrimSpace(inst.Operands[0])) {
		case "0x3d":
			if c.regs[rIdx].tag == tagStackPtrLow {
				return int32(c.regs[rIdx].value), platform.NoMaskEvent
			}
			diagnostics.Emit(diagnostics.Diagnostic{
				Kind: diagnostics.ParseWarning, Opcode: inst.Opcode, Operands: inst.Operands,
				Message: "stack pointer low byte stored from a register of unknown provenance",
			})
		case "0x3e":
			if c.regs[rIdx].tag == tagStackPtrHigh {
				return int32(c.regs[rIdx].value) * 256, platform.NoMaskEvent
			}
			diagnostics.Emit(diagnostics.Diagnostic{
				Kind: diagnostics.ParseWarning, Opcode: inst.Opcode, Operands: inst.Operands,
				Message: "stack pointer high byte stored from a register of unknown provenance",
			})
		case "0x3f":
			if c.regs[rIdx].tag == tagStatus {
				return 0, platform.CriticalStop
			}
			diagnostics.Emit(diagnostics.Diagnostic{
				Kind: diagnostics.InsaneMasking, Opcode: inst.Opcode, Operands: inst.Operands,
				Message: "status register restored from a register that never saved it",
			})
		}

	case "subi", "sbci":
		if len(inst.Operands) < 2 {
			return 0, platform.NoMaskEvent
		}
		rIdx, ok := regIndex(inst.Operands[0])
		if !ok {
			return 0, platform.NoMaskEvent
		}
		k, ok := parseHex(inst.Operands[1])
		if !ok {
			return 0, platform.NoMaskEvent
		}
		switch c.regs[rIdx].tag {
		case tagStackPtrLow:
			c.regs[rIdx].value += uint32(k)
		case tagStackPtrHigh:
			c.regs[rIdx].value = (c.regs[rIdx].value + uint32(k)) % 256
		}

	case "mov":
		if len(inst.Operands) < 2 {
			return 0, platform.NoMaskEvent
		}
		dst, ok1 := regIndex(inst.Operands[0])
		src, ok2 := regIndex(inst.Operands[1])
		if ok1 && ok2 {
			c.regs[dst] = c.regs[src]
		}
	}
	return 0, platform.NoMaskEvent
}

// ResolveCall parses a bare hex address, with the same two-byte wrap
// convention as MSP430 (§4.3.2).
func (avr) ResolveCall(p *program.Program, operand string) (*program.Function, bool) {
	n, ok := parseHex(operand)
	if !ok {
		return nil, false
	}
	if n < 0 {
		n += 0x10000
	}
	addr := uint32(n % 0x10000)
	return p.ByAddress(addr)
}

func (avr) MainName(p *program.Program) string {
	return "main"
}

// Interrupts walks every instruction in __vectors, resolving each call
// target to a Function (§4.3.2).
func (a avr) Interrupts(p *program.Program) ([]string, error) {
	table, ok := p.ByName(vectorTableName)
	if !ok {
		return nil, fmt.Errorf("avr: no %s function found", vectorTableName)
	}
	seen := make(map[string]bool)
	var names []string
	for _, inst := range table.Instructions {
		if len(inst.Operands) == 0 {
			continue
		}
		if f, ok := a.ResolveCall(p, inst.Operands[0]); ok && !seen[f.Name] {
			seen[f.Name] = true
			names = append(names, f.Name)
		}
	}
	return names, nil
}

func (a avr) ListTasks(p *program.Program) []string {
	exclude := map[string]bool{
		vectorTableName: true,
		"main":          true,
	}
	for _, n := range platform.WellKnownRuntimeEntries() {
		exclude[n] = true
	}
	if ints, err := a.Interrupts(p); err == nil {
		for _, n := range ints {
			exclude[n] = true
		}
	}
	return platform.ListUncalledExcluding(p, exclude)
}
