package msp430

import (
	"testing"

	"github.com/mccartney/stackestimator/program"
)

func TestResolveCallPositive(t *testing.T) {
	p := program.New()
	f := &program.Function{Name: "target", Low: 0x1000, High: 0x1002}
	if err := p.Add(f); err != nil {
		t.Fatal(err)
	}
	got, ok := New().ResolveCall(p, "#4096")
	if !ok || got.Name != "target" {
		t.Fatalf("ResolveCall(#4096) = %v, %v; want target, true", got, ok)
	}
}

func TestResolveCallNegativeWraps(t *testing.T) {
	p := program.New()
	// 0x10000 - 4 = 0xfffc
	f := &program.Function{Name: "target", Low: 0xfffc, High: 0xfffe}
	if err := p.Add(f); err != nil {
		t.Fatal(err)
	}
	got, ok := New().ResolveCall(p, "#-4")
	if !ok || got.Name != "target" {
		t.Fatalf("ResolveCall(#-4) = %v, %v; want target, true", got, ok)
	}
}

func TestInterruptsDecodesVectorTable(t *testing.T) {
	p := program.New()
	isr := &program.Function{Name: "isr_a", Low: 0x3000, High: 0x3002}
	if err := p.Add(isr); err != nil {
		t.Fatal(err)
	}

	// Two instructions, each 48-char byte column, encoding one vector word
	// each: little-endian 0x3000 -> bytes "00 30" -> tokens "00","30".
	col0 := padTo48("00 30")
	col1 := padTo48("00 30")
	table := &program.Function{
		Name: vectorTableName, Low: 0xffe0, High: 0xffe4,
		Instructions: []program.Instruction{
			{Address: 0xffe0, Disassembly: col0},
			{Address: 0xffe2, Disassembly: col1},
		},
	}
	if err := p.Add(table); err != nil {
		t.Fatal(err)
	}

	names, err := New().Interrupts(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) == 0 || names[0] != "isr_a" {
		t.Errorf("Interrupts() = %v, want [isr_a ...]", names)
	}
}

func padTo48(s string) string {
	for len(s) < 48 {
		s += " "
	}
	return s
}
