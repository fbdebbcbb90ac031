// Command zc is the core's collaborator-level CLI surface (spec §6):
// `check` runs the front-end-supplied typed tree through C1..C3 and
// publishes diagnostics, `lsp` runs the stdio language server. Since
// spec §1 places lexing/parsing/name resolution out of the core's
// scope, `check` reads a typed-tree fixture document (internal/fixture)
// rather than `.z` source text.
//
// Grounded on the teacher's cmd/ailang/main.go: a flag.Bool flag set
// plus a switch over flag.Arg(0), fatih/color status lines, process
// exit codes on error.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/zc-lang/zc/internal/config"
	"github.com/zc-lang/zc/internal/diag"
	"github.com/zc-lang/zc/internal/fixture"
	"github.com/zc-lang/zc/internal/lir"
	"github.com/zc-lang/zc/internal/lspserver"
	"github.com/zc-lang/zc/internal/mir"
	"github.com/zc-lang/zc/internal/names"
	"github.com/zc-lang/zc/internal/pipeline"
	"github.com/zc-lang/zc/internal/types"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a zc.yaml config file")
		jsonFlag    = flag.Bool("json", false, "emit diagnostics as JSON")
		watchFlag   = flag.Bool("watch", false, "re-run check on demand via a line prompt")
		versionFl   = flag.Bool("version", false, "print version information")
		debugMIRFl  = flag.Bool("debug-mir", false, "dump MIR (with live type annotations) to stderr")
		debugLIRFl  = flag.Bool("debug-lir", false, "dump LIR (with liveness annotations) to stderr")
	)
	flag.Parse()

	if *versionFl {
		fmt.Printf("%s %s\n", bold("zc"), "dev")
		return
	}
	if flag.NArg() == 0 {
		printHelp()
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.JSON = cfg.JSON || *jsonFlag
	cfg.DebugMIR = cfg.DebugMIR || *debugMIRFl
	cfg.DebugLIR = cfg.DebugLIR || *debugLIRFl

	switch flag.Arg(0) {
	case "check":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing typed-tree file argument\n", red("Error"))
			fmt.Println("Usage: zc check <typedtree.json>")
			os.Exit(1)
		}
		if *watchFlag {
			watchCheck(flag.Arg(1), cfg)
			return
		}
		os.Exit(runCheck(flag.Arg(1), cfg))

	case "lsp":
		runLSP(cfg)

	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), flag.Arg(0))
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(bold("zc - a range-refined functional language compiler core"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  zc <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s <file>   run C1..C3 over a typed-tree fixture and publish diagnostics\n", cyan("check"))
	fmt.Printf("  %s            run the language server over stdio\n", cyan("lsp"))
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --config <path>   load settings from a zc.yaml document")
	fmt.Println("  --json            emit diagnostics as JSON instead of text")
	fmt.Println("  --watch           (check only) re-run on a line prompt instead of once")
	fmt.Println("  --debug-mir       (check only) dump MIR to stderr")
	fmt.Println("  --debug-lir       (check only) dump LIR to stderr")
}

// runCheck runs one typed-tree fixture through the pipeline's C1..C3
// stages and prints its diagnostics, returning the process exit code
// (0 clean, 1 if any error-severity diagnostic fired).
func runCheck(path string, cfg *config.Config) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %q: %v\n", red("Error"), path, err)
		return 1
	}

	ns := names.NewStore()
	ts := types.NewStore()
	root, err := fixture.Decode(data, ns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 1
	}
	d, err := cfg.Descriptor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 1
	}

	fmt.Printf("%s Checking %s...\n", cyan("→"), path)
	// check's contract (spec §6) is C1..C3 only; debug dumps need MIR/LIR
	// to exist, so a --debug-mir/--debug-lir run pushes the pipeline all
	// the way through code generation instead of stopping at type check.
	stopAfterTypeCheck := !cfg.DebugMIR && !cfg.DebugLIR
	res := pipeline.Run(pipeline.Config{StopAfterTypeCheck: stopAfterTypeCheck, SkipPartialEval: cfg.SkipPartialEval, MaxErrors: cfg.MaxErrors}, root, ns, ts, d)

	if cfg.DebugMIR && res.MIR != nil {
		fmt.Fprintln(os.Stderr, bold("-- MIR --"))
		fmt.Fprint(os.Stderr, (&mir.Printer{Names: ns, Types: ts, Explain: true}).Print(res.MIR))
	}
	if cfg.DebugLIR && res.LIR != nil {
		fmt.Fprintln(os.Stderr, bold("-- LIR --"))
		// Printed one procedure at a time: block IDs are scoped per
		// procedure, so a single shared live-in/live-out map would
		// collide across procedures.
		for _, proc := range res.LIR.Procedures {
			in, out := pipeline.LiveSets(proc)
			p := &lir.Printer{Explain: true, LiveIn: in, LiveOut: out}
			fmt.Fprint(os.Stderr, p.Print(&lir.Module{Procedures: []*lir.Procedure{proc}}))
		}
	}

	printReports(res.Sink.Reports(), cfg.JSON)
	if res.Sink.ErrorCount() > 0 {
		return 1
	}
	fmt.Printf("%s No errors found!\n", green("✓"))
	return 0
}

func printReports(reports []*diag.Report, asJSON bool) {
	if asJSON {
		for _, r := range reports {
			s, err := r.ToJSON(true)
			if err != nil {
				continue
			}
			fmt.Println(s)
		}
		return
	}
	p := diag.NewPrinter(os.Stdout)
	for _, r := range reports {
		p.Print(r)
	}
}

func runLSP(cfg *config.Config) {
	srv := lspserver.New(os.Stdout, cfg)
	os.Exit(srv.Run(os.Stdin))
}
