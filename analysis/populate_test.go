package analysis

import (
	"testing"

	"github.com/mccartney/stackestimator/diagnostics"
	"github.com/mccartney/stackestimator/platform/avr"
	"github.com/mccartney/stackestimator/platform/msp430"
	"github.com/mccartney/stackestimator/program"
)

func inst(addr uint32, opcode string, operands ...string) program.Instruction {
	return program.Instruction{Address: addr, Size: 2, Opcode: opcode, Operands: operands}
}

// Scenario 1 (§8): one leaf MSP430 function.
func TestPopulateMSP430Leaf(t *testing.T) {
	p := program.New()
	foo := &program.Function{
		Name: "foo", Low: 0x1000,
		Instructions: []program.Instruction{
			inst(0x1000, "push", "r4"),
			inst(0x1002, "push", "r5"),
			inst(0x1004, "sub", "#4", "r1"),
			inst(0x1006, "pop", "r5"),
			inst(0x1008, "pop", "r4"),
			inst(0x100a, "ret"),
		},
	}
	foo.High = 0x100c
	if err := p.Add(foo); err != nil {
		t.Fatal(err)
	}

	Populate(p, msp430.New(), DefaultConfig(), diagnostics.NewCollector())

	if foo.LocalStack != 8 {
		t.Errorf("local_stack = %d, want 8", foo.LocalStack)
	}
	if foo.LocalStackWithInterrupts != 8 {
		t.Errorf("local_stack_with_interrupts = %d, want 8", foo.LocalStackWithInterrupts)
	}
	if len(foo.Deps) != 0 {
		t.Errorf("deps = %v, want empty", foo.Deps)
	}

	ComputeDepCounts(p)
	if err := DetectAndRepair(p, false, diagnostics.NewCollector()); err != nil {
		t.Fatal(err)
	}
	wc := ComputeWorstCase(p, diagnostics.NewCollector())
	got := wc["foo"]
	if got.MAny != 8 || got.MUnmasked != 8 || got.Override {
		t.Errorf("W(foo) = %+v, want {8 8 false}", got)
	}
}

// Scenario 2 (§8): MSP430 function with an inline critical section delimited
// by calls to the configured critical_start/critical_stop functions.
func TestPopulateMSP430CriticalSection(t *testing.T) {
	p := program.New()

	start := &program.Function{Name: "__nesc_atomic_start", Low: 0x2000, High: 0x2002,
		Instructions: []program.Instruction{inst(0x2000, "ret")}}
	baz := &program.Function{Name: "baz", Low: 0x2010, High: 0x2012,
		Instructions: []program.Instruction{inst(0x2010, "ret")}}
	end := &program.Function{Name: "__nesc_atomic_end", Low: 0x2020, High: 0x2022,
		Instructions: []program.Instruction{inst(0x2020, "ret")}}

	for _, f := range []*program.Function{start, baz, end} {
		if err := p.Add(f); err != nil {
			t.Fatal(err)
		}
	}

	bar := &program.Function{
		Name: "bar", Low: 0x3000,
		Instructions: []program.Instruction{
			inst(0x3000, "call", "#8192"), // 0x2000 == start
			inst(0x3002, "call", "#8208"), // 0x2010 == baz
			inst(0x3004, "call", "#8224"), // 0x2020 == end
		},
	}
	bar.High = 0x3006
	if err := p.Add(bar); err != nil {
		t.Fatal(err)
	}

	Populate(p, msp430.New(), DefaultConfig(), diagnostics.NewCollector())

	wantDeps := []string{"__nesc_atomic_start", "baz", "__nesc_atomic_end"}
	if len(bar.Deps) != len(wantDeps) {
		t.Fatalf("deps = %v, want %v", bar.Deps, wantDeps)
	}
	for i, d := range wantDeps {
		if bar.Deps[i] != d {
			t.Errorf("deps[%d] = %q, want %q", i, bar.Deps[i], d)
		}
	}
	for i, masked := range bar.DepsMasked {
		if !masked {
			t.Errorf("deps_masked[%d] = false, want true (dep %q)", i, bar.Deps[i])
		}
	}
}

// Scenario 3 (§8): AVR inline critical section via save-status/cli/restore.
func TestPopulateAVRInlineCriticalSection(t *testing.T) {
	p := program.New()

	worker := &program.Function{Name: "worker", Low: 0x100, High: 0x102,
		Instructions: []program.Instruction{inst(0x100, "ret")}}
	if err := p.Add(worker); err != nil {
		t.Fatal(err)
	}

	region := &program.Function{
		Name: "atomic_region", Low: 0x200,
		Instructions: []program.Instruction{
			inst(0x200, "in", "r24", "0x3f"),
			inst(0x202, "cli"),
			inst(0x204, "call", "0x100"),
			inst(0x206, "out", "0x3f", "r24"),
		},
	}
	region.High = 0x208
	if err := p.Add(region); err != nil {
		t.Fatal(err)
	}

	Populate(p, avr.New(), DefaultConfig(), diagnostics.NewCollector())

	if len(region.Deps) != 1 || region.Deps[0] != "worker" {
		t.Fatalf("deps = %v, want [worker]", region.Deps)
	}
	if !region.DepsMasked[0] {
		t.Error("deps_masked[0] = false, want true")
	}
	if region.InterruptOverride {
		t.Error("interrupt_override = true, want false")
	}
}

// Scenario 4 (§8): AVR function with a bare sei and no matching save/restore.
func TestPopulateAVRBareSei(t *testing.T) {
	p := program.New()
	rogue := &program.Function{
		Name: "rogue_isr", Low: 0x400,
		Instructions: []program.Instruction{
			inst(0x400, "push", "r16"),
			inst(0x402, "sei"),
			inst(0x404, "pop", "r16"),
		},
	}
	rogue.High = 0x406
	if err := p.Add(rogue); err != nil {
		t.Fatal(err)
	}

	Populate(p, avr.New(), DefaultConfig(), diagnostics.NewCollector())

	if !rogue.InterruptOverride {
		t.Error("interrupt_override = false, want true")
	}
}

// Scenario 5 (§8): direct recursion, with and without repair.
func TestRecursionDirectWithoutRepair(t *testing.T) {
	p := program.New()
	a := &program.Function{Name: "a", Low: 0x500, High: 0x502,
		Instructions: []program.Instruction{inst(0x500, "call", "#1280")}} // 0x500 == a itself
	if err := p.Add(a); err != nil {
		t.Fatal(err)
	}
	Populate(p, msp430.New(), DefaultConfig(), diagnostics.NewCollector())

	if err := DetectAndRepair(p, false, diagnostics.NewCollector()); err == nil {
		t.Fatal("expected a fatal cycle error without repair")
	}
}

func TestRecursionDirectWithRepair(t *testing.T) {
	p := program.New()
	a := &program.Function{Name: "a", Low: 0x500, High: 0x502,
		Instructions: []program.Instruction{inst(0x500, "call", "#1280")}} // 0x500 == a itself
	if err := p.Add(a); err != nil {
		t.Fatal(err)
	}
	Populate(p, msp430.New(), DefaultConfig(), diagnostics.NewCollector())

	if err := DetectAndRepair(p, true, diagnostics.NewCollector()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Deps) != 0 {
		t.Errorf("deps = %v, want empty after repair", a.Deps)
	}

	ComputeDepCounts(p)
	wc := ComputeWorstCase(p, diagnostics.NewCollector())
	got := wc["a"]
	if got.MAny != a.LocalStack || got.MUnmasked != a.LocalStackWithInterrupts || got.Override != a.InterruptOverride {
		t.Errorf("W(a) = %+v, want {%d %d %v}", got, a.LocalStack, a.LocalStackWithInterrupts, a.InterruptOverride)
	}
}
