/*
Copyright (C) 2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Command slispc is the external driver: it wires internal/parser,
// internal/compiler, internal/backend, internal/vm and internal/eval
// together behind the CLI surface, the way main.go wires scm.Globalenv
// and storage together for cpdb. ELF linking and the freestanding runtime
// archive are out of scope, so --emit obj/exe stop at printing the
// backend's Program contract; --run executes compiled IR directly through
// internal/vm as the in-repo stand-in for "link and execute".
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	units "github.com/docker/go-units"
	"github.com/google/uuid"

	"github.com/launix-de/slisp/internal/backend"
	"github.com/launix-de/slisp/internal/compiler"
	"github.com/launix-de/slisp/internal/eval"
	"github.com/launix-de/slisp/internal/ir"
	"github.com/launix-de/slisp/internal/parser"
	"github.com/launix-de/slisp/internal/runtime"
	"github.com/launix-de/slisp/internal/vm"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("slispc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	emit := fs.String("emit", "exe", "output artifact: ir|asm|obj|exe")
	doRun := fs.Bool("run", false, "execute the compiled program via the IR interpreter")
	telemetry := fs.Bool("telemetry", false, "enable allocator telemetry and print a summary after --run")
	doEval := fs.Bool("eval", false, "use the tree-walking evaluator instead of the compiler")
	out := fs.String("o", "", "write --emit ir output here (.lz4 suffix compresses it)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		if *doEval {
			return repl(stdout, stderr)
		}
		fmt.Fprintln(stderr, "slispc: a source file is required unless --eval is given with none")
		return 2
	}

	source, err := os.ReadFile(rest[0])
	if err != nil {
		fmt.Fprintln(stderr, "slispc:", err)
		return 2
	}

	forms, err := parser.ParseProgram(string(source))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	if *doEval {
		result, err := eval.RunProgram(forms)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintln(stdout, result.String())
		return 0
	}

	prog, err := compiler.CompileProgram(forms)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if *doRun {
		return runCompiled(prog, *telemetry, stdout, stderr)
	}

	switch *emit {
	case "ir":
		return emitIR(prog, *out, stdout, stderr)
	case "asm", "obj", "exe":
		return emitBackend(prog, *telemetry, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "slispc: unknown --emit value %q\n", *emit)
		return 2
	}
}

// emitIR prints (or, with -o, writes) a disassembly report: a per-run
// build id so two --emit ir invocations of the same source can be told
// apart in logs, then Program.Disassemble's instruction stream. A .lz4
// -o suffix compresses the report the way a build pipeline would archive
// a large intermediate artifact rather than keeping it as plain text.
func emitIR(prog *ir.Program, outPath string, stdout, stderr io.Writer) int {
	report := fmt.Sprintf("; slispc ir build=%s\n%s", uuid.New(), prog.Disassemble())
	if outPath == "" {
		fmt.Fprint(stdout, report)
		return 0
	}
	if strings.HasSuffix(outPath, ".lz4") {
		if err := writeLZ4(outPath, []byte(report)); err != nil {
			fmt.Fprintln(stderr, "slispc:", err)
			return 1
		}
		return 0
	}
	if err := os.WriteFile(outPath, []byte(report), 0644); err != nil {
		fmt.Fprintln(stderr, "slispc:", err)
		return 1
	}
	return 0
}

// emitBackend runs the two-pass x86-64 backend and prints its Program
// contract as a human-readable report (code length, relocations, string
// table, function symbol addresses) since the ELF framing that would turn
// this into obj/exe is out of scope; --run is the only flag that actually
// executes a program end to end.
func emitBackend(prog *ir.Program, telemetryOn bool, stdout, stderr io.Writer) int {
	out := backend.CompileProgram(prog, backend.Options{TelemetryEnabled: telemetryOn})
	fmt.Fprintf(stdout, "; slispc build=%s\ncode: %s\n", uuid.New(), units.HumanSize(float64(len(out.Code))))
	fmt.Fprintf(stdout, "entry symbol: %s\n", out.EntrySymbol)
	for name, addr := range out.FunctionSymbols {
		fmt.Fprintf(stdout, "symbol %s @0x%x\n", name, addr)
	}
	for _, r := range out.Relocations {
		fmt.Fprintf(stdout, "reloc %s @0x%x kind=%d\n", r.Symbol, r.Offset, r.Kind)
	}
	for _, s := range out.StringTable {
		fmt.Fprintf(stdout, "string %s %q\n", s.Symbol, s.Bytes)
	}
	return 0
}

// runCompiled drives --run: compile then interpret, standing in for
// linking and executing the program since ELF linking isn't available
// here. Exit code mirrors a real executable's rax-as-return
// convention: a final Number result becomes the process exit code,
// anything else (the common case, since most programs end on a println
// call returning Nil) exits 0.
func runCompiled(prog *ir.Program, telemetryOn bool, stdout, stderr io.Writer) int {
	m := vm.New(prog)
	if telemetryOn {
		m.Heap().Telemetry().Enable(true)
	}
	result, err := m.Run("")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if telemetryOn {
		snap := m.Heap().Telemetry().Snapshot()
		fmt.Fprintf(stdout, "[allocator] outstanding=%s peak=%s allocations=%d frees=%d reused=%d dropped=%d\n",
			units.BytesSize(float64(snap.Outstanding)), units.BytesSize(float64(snap.PeakOutstanding)),
			snap.TotalAllocations, snap.TotalFrees, snap.TotalReuses, snap.EventsDropped)
	}
	if result.Tag == runtime.TagNumber {
		return int(int64(result.Ptr)) & 0xff
	}
	return 0
}

// repl is the --eval-with-no-file path: a chzyer/readline loop over
// internal/eval, in the shape of the teacher's scm.Repl but against a
// single shared eval.Environment per session instead of scm.Env.
func repl(stdout, stderr io.Writer) int {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "slisp> ",
		HistoryFile:     ".slisp-history.tmp",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer l.Close()

	env := eval.NewEnvironment()
	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return 0
		}
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		form, err := parser.ParseOne(line)
		if err != nil {
			fmt.Fprintln(stderr, err)
			continue
		}
		v, err := eval.Eval(form, env)
		if err != nil {
			fmt.Fprintln(stderr, err)
			continue
		}
		fmt.Fprintln(stdout, v.String())
	}
}
