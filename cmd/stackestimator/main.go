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

// Command stackestimator computes worst-case stack depth for an MSP430 or
// AVR firmware image and emits stack.h. It shells out to the platform's
// objdump to get a disassembly, then hands the text to the analyzer core.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"gopkg.in/urfave/cli.v2"

	"github.com/mccartney/stackestimator/analysis"
	"github.com/mccartney/stackestimator/cmd/stackestimator/dashboard"
	"github.com/mccartney/stackestimator/diagnostics"
	"github.com/mccartney/stackestimator/disasm"
)

func main() {
	app := &cli.App{
		Name:    "stackestimator",
		Usage:   "worst-case stack depth analysis for MSP430/AVR firmware",
		Version: "v0.1.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "r", Usage: "repair recursion instead of failing on it"},
			&cli.BoolFlag{Name: "p", Usage: "print the call graph"},
			&cli.BoolFlag{Name: "v", Usage: "print the call graph in depth"},
			&cli.BoolFlag{Name: "s", Usage: "print per-function byte sizes sorted by name"},
			&cli.StringFlag{Name: "b", Usage: "override the critical-section-begin function name"},
			&cli.StringFlag{Name: "e", Usage: "override the critical-section-end function name"},
			&cli.BoolFlag{Name: "verbose", Usage: "print info-level diagnostics too"},
			&cli.BoolFlag{Name: "dashboard", Usage: "open the interactive terminal call-graph viewer instead of printing"},
		},
		ArgsUsage: "<platform> [<binary-path>]",
		Action:    run,
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	boardName := c.Args().Get(0)
	if boardName == "" {
		cli.ShowAppHelp(c)
		return cli.Exit("a platform argument is required", 2)
	}
	board, ok := resolveBoard(boardName)
	if !ok {
		return cli.Exit(fmt.Sprintf("unknown platform %q", boardName), 2)
	}

	binaryPath := c.Args().Get(1)
	if binaryPath == "" {
		binaryPath = fmt.Sprintf("./build/%s/main.exe", boardName)
	}
	if _, err := os.Stat(binaryPath); err != nil {
		return cli.Exit(fmt.Sprintf("missing input binary %q", binaryPath), 3)
	}

	diagnostics.SetVerbose(c.Bool("verbose"))

	lines, err := disassemble(board.objdumpBin, binaryPath)
	if err != nil {
		return cli.Exit(err.Error(), 3)
	}

	p, err := disasm.Group(lines, diagnostics.Default())
	if err != nil {
		return cli.Exit(err.Error(), 3)
	}

	cfg := analysis.DefaultConfig()
	if b := c.String("b"); b != "" {
		cfg.CriticalStart = b
		diagnostics.Emit(diagnostics.Diagnostic{Kind: diagnostics.Info, Message: fmt.Sprintf("atomic_start set to %s", b)})
	}
	if e := c.String("e"); e != "" {
		cfg.CriticalStop = e
		diagnostics.Emit(diagnostics.Diagnostic{Kind: diagnostics.Info, Message: fmt.Sprintf("atomic_end set to %s", e)})
	}

	analysis.Populate(p, board.plat, cfg, diagnostics.Default())
	analysis.ComputeDepCounts(p)

	repair := c.Bool("r")
	if err := analysis.DetectAndRepair(p, repair, diagnostics.Default()); err != nil {
		return cli.Exit(err.Error(), 4)
	}
	if repair {
		analysis.ComputeDepCounts(p)
	}

	wc := analysis.ComputeWorstCase(p, diagnostics.Default())

	totals, err := analysis.Aggregate(p, board.plat, wc)
	if err != nil {
		return cli.Exit(err.Error(), 5)
	}

	header := analysis.GenerateHeader(p, board.plat, wc, totals.IntOverhead, cfg)
	if err := os.WriteFile("stack.h", []byte(header), 0644); err != nil {
		return cli.Exit(err.Error(), 5)
	}

	printSummary(boardName, totals)

	if c.Bool("dashboard") {
		return dashboard.Run(p, wc)
	}

	if c.Bool("v") {
		fmt.Print(analysis.FormatCallGraph(p, true))
	} else if c.Bool("p") {
		fmt.Print(analysis.FormatCallGraph(p, false))
	}
	if c.Bool("s") {
		fmt.Print(analysis.FormatFunctionSizes(p))
	}

	return nil
}

func disassemble(objdumpBin, binaryPath string) ([]string, error) {
	out, err := exec.Command(objdumpBin, "-d", binaryPath).Output()
	if err != nil {
		return nil, fmt.Errorf("running %s on %s: %w", objdumpBin, binaryPath, err)
	}
	return strings.Split(string(out), "\n"), nil
}

func printSummary(boardName string, t analysis.Totals) {
	fmt.Printf("platform:            %s\n", boardName)
	fmt.Printf("interrupts:          %d\n", len(t.Interrupts))
	fmt.Printf("signals:             %d\n", len(t.Signals))
	fmt.Printf("tasks:               %d\n", len(t.Tasks))
	fmt.Printf("main (any):          %d\n", t.MainAny)
	fmt.Printf("main indirect call:  %d\n", t.MainIndirect)
	fmt.Printf("interrupt overhead:  %d\n", t.IntOverhead)
	fmt.Printf("task max (any):      %d\n", t.TaskMaxAny)
	fmt.Printf("task max (unmasked): %d\n", t.TaskMaxUnmasked)
	fmt.Printf("total:               %d\n", t.Total)
	fmt.Printf("simple (legacy):     %d\n", t.Simple)
}
