// Package cli holds the flag handling and I/O shared by the calibrate commands.
package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/meenmo/mocurve/config"
)

// Options are the flags every command accepts.
type Options struct {
	Input   string
	Config  string
	Verbose bool
}

// Parse reads the common flags. ok is false when the command should return
// code right away.
func Parse(name string, args []string, stderr io.Writer, usage func(io.Writer)) (opts Options, code int, ok bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.Input, "input", "", "JSON input path (optional; if set, ignores stdin)")
	fs.StringVar(&opts.Config, "config", "", "solver configuration file (optional)")
	fs.BoolVar(&opts.Verbose, "v", false, "debug logging to stderr")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return opts, 2, false
	}
	if *help {
		usage(stderr)
		return opts, 0, false
	}
	opts.Input = strings.TrimSpace(opts.Input)
	return opts, 0, true
}

// Interactive reports whether stdin is a terminal, in which case there is
// nothing to read.
func Interactive(stdin io.Reader) bool {
	f, ok := stdin.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	return err == nil && stat.Mode()&os.ModeCharDevice != 0
}

// Decode reads JSON from path, or stdin when path is empty.
func Decode(stdin io.Reader, path string, v any) error {
	var (
		b   []byte
		err error
	)
	if path != "" {
		b, err = os.ReadFile(path)
	} else {
		b, err = io.ReadAll(stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("failed to parse JSON input: %w", err)
	}
	return nil
}

// Config loads the solver settings named by the -config flag.
func Config(opts Options) (config.Config, error) {
	c, err := config.Load(opts.Config)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return c, nil
}

// Logger writes console-encoded logs to w: debug and up with -v, warnings otherwise.
func Logger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level))
}

// Write prints v as a single JSON line.
func Write(stdout io.Writer, v any) {
	b, _ := json.Marshal(v)
	fmt.Fprintln(stdout, string(b))
}

// Round converts v to a decimal with the given number of places for reporting.
func Round(v float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(places)
}
