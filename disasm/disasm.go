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

// Package disasm recognizes and parses lines of textual disassembly, and
// groups them into program.Functions. It never interprets an opcode's
// semantics - that is the platform package's job.
package disasm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mccartney/stackestimator/diagnostics"
	"github.com/mccartney/stackestimator/program"
)

// LineKind classifies a single line of disassembly text.
type LineKind int

const (
	KindUnknown LineKind = iota
	KindBlank
	KindEllipsis
	KindFunctionHeader
	KindInstruction
)

var headerName = regexp.MustCompile(`<.+>:$`)

// Classify reports what kind of disassembly line the raw text is, without
// fully parsing it.
func Classify(line string) LineKind {
	if strings.TrimSpace(line) == "" {
		return KindBlank
	}
	if strings.Contains(line, "...") {
		return KindEllipsis
	}
	if isInstructionLine(line) {
		return KindInstruction
	}
	if isFunctionHeader(line) {
		return KindFunctionHeader
	}
	return KindUnknown
}

// isInstructionLine applies §4.1's recognition rule: split on tab, the
// first field strips to a nonempty token ending in ':' whose prefix parses
// as an unsigned hex integer.
func isInstructionLine(line string) bool {
	if !strings.Contains(line, "\t") {
		return false
	}
	fields := strings.Split(line, "\t")
	if len(fields) < 2 {
		return false
	}
	first := strings.TrimSpace(fields[0])
	if first == "" || !strings.HasSuffix(first, ":") {
		return false
	}
	_, err := strconv.ParseUint(strings.TrimSuffix(first, ":"), 16, 32)
	return err == nil
}

// isFunctionHeader recognizes a line of the form "<hex address> <name>:".
func isFunctionHeader(line string) bool {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return false
	}
	if _, err := strconv.ParseUint(fields[0], 16, 32); err != nil {
		return false
	}
	return headerName.MatchString(fields[1])
}

// FunctionHeader returns the address and name carried by a function header
// line. The caller must have already confirmed Classify(line) ==
// KindFunctionHeader.
func FunctionHeader(line string) (name string, addr uint32, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", 0, fmt.Errorf("disasm: malformed function header %q", line)
	}
	a, err := strconv.ParseUint(fields[0], 16, 32)
	if err != nil {
		return "", 0, fmt.Errorf("disasm: malformed function header address %q: %w", line, err)
	}
	loc := headerName.FindString(fields[1])
	if loc == "" || len(loc) < 3 {
		return "", 0, fmt.Errorf("disasm: malformed function header name %q", line)
	}
	name = loc[1 : len(loc)-2]
	return name, uint32(a), nil
}

// ParseInstruction parses an already-classified instruction line into a
// program.Instruction. size is derived from the raw byte column as
// (whitespace-separated token count) / 2: two tokens count as one byte.
func ParseInstruction(line string) (program.Instruction, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 2 {
		return program.Instruction{}, fmt.Errorf("disasm: instruction line has fewer than 2 fields: %q", line)
	}

	addrField := strings.TrimSpace(fields[0])
	addr, err := strconv.ParseUint(strings.TrimSuffix(addrField, ":"), 16, 32)
	if err != nil {
		return program.Instruction{}, fmt.Errorf("disasm: malformed hex address %q: %w", addrField, err)
	}

	disassembly := strings.TrimSpace(fields[1])
	size := uint32(len(strings.Fields(disassembly)) / 2)

	inst := program.Instruction{
		Address:     uint32(addr),
		Size:        size,
		Disassembly: disassembly,
	}
	if len(fields) > 2 {
		inst.Opcode = strings.TrimSpace(fields[2])
	}
	if len(fields) > 3 {
		raw := strings.TrimSpace(fields[3])
		if raw != "" {
			parts := strings.Split(raw, ",")
			for _, p := range parts {
				inst.Operands = append(inst.Operands, strings.TrimSpace(p))
			}
		}
	}
	if len(fields) > 4 {
		inst.Comment = strings.TrimSpace(fields[4])
	}
	return inst, nil
}

// Group walks a sequence of disassembly lines and assembles the Functions
// it finds (§4.2). Unknown lines are diagnosed and skipped; malformed
// instruction lines inside an open function are diagnosed and skipped too.
func Group(lines []string, sink diagnostics.Sink) (*program.Program, error) {
	if sink == nil {
		sink = diagnostics.Default()
	}
	p := program.New()

	var current *program.Function
	var size uint32

	closeCurrent := func() {
		if current == nil {
			return
		}
		current.High = current.Low + size
		if err := p.Add(current); err != nil {
			sink.Emit(diagnostics.Diagnostic{
				Kind:     diagnostics.ParseWarning,
				Function: current.Name,
				Message:  err.Error(),
			})
		}
		current = nil
		size = 0
	}

	for _, line := range lines {
		switch Classify(line) {
		case KindBlank:
			closeCurrent()
		case KindEllipsis:
			// zero-fill marker, ignored
		case KindFunctionHeader:
			closeCurrent()
			name, addr, err := FunctionHeader(line)
			if err != nil {
				sink.Emit(diagnostics.Diagnostic{Kind: diagnostics.ParseWarning, Message: err.Error()})
				continue
			}
			current = &program.Function{Name: name, Low: addr}
			size = 0
		case KindInstruction:
			inst, err := ParseInstruction(line)
			if err != nil {
				sink.Emit(diagnostics.Diagnostic{Kind: diagnostics.ParseWarning, Message: err.Error()})
				continue
			}
			if current == nil {
				sink.Emit(diagnostics.Diagnostic{
					Kind:    diagnostics.ParseWarning,
					Message: fmt.Sprintf("instruction at %#x found outside any function", inst.Address),
				})
				continue
			}
			current.Instructions = append(current.Instructions, inst)
			size += inst.Size
		default:
			if strings.TrimSpace(line) != "" {
				sink.Emit(diagnostics.Diagnostic{
					Kind:    diagnostics.ParseWarning,
					Message: fmt.Sprintf("unknown line %q", line),
				})
			}
		}
	}
	closeCurrent()

	return p, nil
}
