package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meenmo/mocurve/cmd/calibrate/internal/cs01"
	"github.com/meenmo/mocurve/cmd/calibrate/internal/curve"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch cmd := strings.ToLower(strings.TrimSpace(args[0])); cmd {
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	case "curve":
		return curve.Run(args[1:], stdin, stdout, stderr)
	case "cs01":
		return cs01.Run(args[1:], stdin, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  calibrate <command> [flags] < input.json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  curve   Calibrate a discounting curve to deposit quotes")
	fmt.Fprintln(w, "  cs01    Parallel and bucketed CS01 of a CDS from par spread pillars")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags common to every command:")
	fmt.Fprintln(w, "  -input <path>    read JSON from a file instead of stdin")
	fmt.Fprintln(w, "  -config <path>   YAML/JSON/TOML solver settings (MOCURVE_* env overrides)")
	fmt.Fprintln(w, "  -v               debug logging to stderr")
}
