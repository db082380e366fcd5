package disasm

import (
	"testing"

	"github.com/mccartney/stackestimator/diagnostics"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		line string
		want LineKind
	}{
		{"", KindBlank},
		{"   ", KindBlank},
		{"        ...", KindEllipsis},
		{"0000 <main>:", KindFunctionHeader},
		{"  1a:\t90 12 \tpush\tr4", KindInstruction},
		{"garbage line with no structure", KindUnknown},
	}
	for _, c := range cases {
		if got := Classify(c.line); got != c.want {
			t.Errorf("Classify(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

func TestFunctionHeader(t *testing.T) {
	name, addr, err := FunctionHeader("1c00 <foo>:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "foo" || addr != 0x1c00 {
		t.Errorf("got name=%q addr=%#x, want foo/0x1c00", name, addr)
	}
}

func TestParseInstruction(t *testing.T) {
	inst, err := ParseInstruction("1a00:\t31 40 00 02 \tsub\t#4,r1\t; comment")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inst.Address != 0x1a00 {
		t.Errorf("address = %#x, want 0x1a00", inst.Address)
	}
	if inst.Size != 2 {
		t.Errorf("size = %d, want 2", inst.Size)
	}
	if inst.Opcode != "sub" {
		t.Errorf("opcode = %q, want sub", inst.Opcode)
	}
	if len(inst.Operands) != 2 || inst.Operands[0] != "#4" || inst.Operands[1] != "r1" {
		t.Errorf("operands = %v, want [#4 r1]", inst.Operands)
	}
	if inst.Comment != "; comment" {
		t.Errorf("comment = %q", inst.Comment)
	}
}

func TestGroupSingleFunction(t *testing.T) {
	lines := []string{
		"1a00 <foo>:",
		"1a00:\t10 41 \tpush\tr4",
		"1a02:\t50 41 \tpush\tr5",
		"1a04:\t21 40 \tret",
		"",
	}
	p, err := Group(lines, diagnostics.NewCollector())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, ok := p.ByName("foo")
	if !ok {
		t.Fatal("expected function foo")
	}
	if f.Low != 0x1a00 {
		t.Errorf("low = %#x, want 0x1a00", f.Low)
	}
	if len(f.Instructions) != 3 {
		t.Fatalf("got %d instructions, want 3", len(f.Instructions))
	}
	if f.High != f.Low+f.Instructions[0].Size+f.Instructions[1].Size+f.Instructions[2].Size {
		t.Errorf("high = %#x not derived from summed sizes", f.High)
	}
}

func TestGroupUnknownLineDiagnosed(t *testing.T) {
	lines := []string{
		"1a00 <foo>:",
		"1a00:\t10 41 \tpush\tr4",
		"this is not a recognized line",
		"",
	}
	c := diagnostics.NewCollector()
	_, err := Group(lines, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Count(diagnostics.ParseWarning) != 1 {
		t.Errorf("expected one parse-warning diagnostic, got %d", c.Count(diagnostics.ParseWarning))
	}
}
