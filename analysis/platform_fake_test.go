package analysis

import (
	"github.com/mccartney/stackestimator/platform"
	"github.com/mccartney/stackestimator/program"
)

// fakePlatform is a minimal platform.Platform stand-in for aggregator and
// header-generation tests that don't need real opcode semantics.
type fakePlatform struct {
	tasks    []string
	callCost uint32
}

func (f fakePlatform) Name() string                { return "fake" }
func (f fakePlatform) PushCost() uint32             { return 1 }
func (f fakePlatform) CallCost() uint32             { return f.callCost }
func (f fakePlatform) InterruptCost() uint32        { return 1 }
func (f fakePlatform) Opcodes() platform.Opcodes    { return platform.Opcodes{} }
func (f fakePlatform) NewContext() platform.Context { return fakeContext{} }
func (f fakePlatform) ResolveCall(p *program.Program, operand string) (*program.Function, bool) {
	return nil, false
}
func (f fakePlatform) MainName(p *program.Program) string { return "main" }
func (f fakePlatform) Interrupts(p *program.Program) ([]string, error) {
	return nil, nil
}
func (f fakePlatform) ListTasks(p *program.Program) []string { return f.tasks }

type fakeContext struct{}

func (fakeContext) ProcessInstruction(inst program.Instruction) (int32, platform.MaskEvent) {
	return 0, platform.NoMaskEvent
}
