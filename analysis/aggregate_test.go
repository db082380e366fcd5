package analysis

import "testing"

func TestNestedInterruptStackEmpty(t *testing.T) {
	if got := NestedInterruptStack(nil, nil); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestNestedInterruptStackSingle(t *testing.T) {
	// One interrupt: enabled-depth 10, any-depth 30 -> the whole overhead is
	// that one interrupt running at its full depth.
	got := NestedInterruptStack([]uint32{10}, []uint32{30})
	if got != 30 {
		t.Errorf("got %d, want 30", got)
	}
}

func TestNestedInterruptStackMultiple(t *testing.T) {
	// Three interrupts; the worst ordering sums everyone's enabled-depth and
	// lets whichever has the biggest (any-enabled) gap run at full depth.
	enabled := []uint32{4, 6, 2}
	any := []uint32{4, 6, 20} // interrupt 2 has a big masked-section depth
	got := NestedInterruptStack(enabled, any)
	want := uint32(4+6+2) + (20 - 2)
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestGenerateHeaderCollisionAndExclusion(t *testing.T) {
	// Two task names collapsing to the same short title take the max; a
	// dotted title and an excepted title are both skipped (§8 scenario 6).
	wc := map[string]WorstCase{
		"Module$handler": {MAny: 10, MUnmasked: 10},
		"handler":         {MAny: 40, MUnmasked: 5},
		"foo.bar":         {MAny: 999, MUnmasked: 999},
		"thread_task":     {MAny: 999, MUnmasked: 999},
	}
	tasks := []string{"Module$handler", "handler", "foo.bar", "thread_task"}
	plat := fakePlatform{tasks: tasks, callCost: 2}
	cfg := DefaultConfig()

	header := GenerateHeader(nil, plat, wc, 0, cfg)

	if !containsLine(header, "#define handler_STACKSIZE 44") {
		t.Errorf("header = %q, want a handler_STACKSIZE line of 44 (40+2*2)", header)
	}
	if containsSubstring(header, "foo") {
		t.Errorf("header = %q, expected foo.bar to be excluded", header)
	}
	if containsSubstring(header, "thread_task") {
		t.Errorf("header = %q, expected thread_task to be excluded", header)
	}
}

func containsLine(s, line string) bool {
	for _, l := range splitLines(s) {
		if l == line {
			return true
		}
	}
	return false
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return lines
}

func containsSubstring(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
