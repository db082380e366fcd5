package avr

import (
	"testing"

	"github.com/mccartney/stackestimator/program"
)

func TestResolveCallBareHex(t *testing.T) {
	p := program.New()
	f := &program.Function{Name: "target", Low: 0x100, High: 0x102}
	if err := p.Add(f); err != nil {
		t.Fatal(err)
	}
	got, ok := New().ResolveCall(p, "0x100")
	if !ok || got.Name != "target" {
		t.Fatalf("ResolveCall(0x100) = %v, %v; want target, true", got, ok)
	}
}

func TestContextStackPointerStoreLow(t *testing.T) {
	c := &context{}
	c.ProcessInstruction(program.Instruction{Opcode: "in", Operands: []string{"r16", "0x3d"}})
	c.ProcessInstruction(program.Instruction{Opcode: "subi", Operands: []string{"r16", "04"}})
	delta, event := c.ProcessInstruction(program.Instruction{Opcode: "out", Operands: []string{"0x3d", "r16"}})
	if delta != 4 {
		t.Errorf("delta = %d, want 4", delta)
	}
	if event != 0 {
		t.Errorf("event = %v, want NoMaskEvent", event)
	}
}

func TestContextBareCliIsInsane(t *testing.T) {
	c := &context{}
	_, event := c.ProcessInstruction(program.Instruction{Opcode: "cli"})
	if int(event) != 3 { // platform.Insane
		t.Errorf("event = %v, want Insane", event)
	}
}

func TestInterruptsFromVectorTable(t *testing.T) {
	p := program.New()
	handler := &program.Function{Name: "handler", Low: 0x50, High: 0x52}
	if err := p.Add(handler); err != nil {
		t.Fatal(err)
	}
	vectors := &program.Function{
		Name: vectorTableName, Low: 0x0, High: 0x4,
		Instructions: []program.Instruction{
			{Address: 0x0, Opcode: "jmp", Operands: []string{"0x50"}},
		},
	}
	if err := p.Add(vectors); err != nil {
		t.Fatal(err)
	}

	names, err := New().Interrupts(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "handler" {
		t.Errorf("Interrupts() = %v, want [handler]", names)
	}
}
