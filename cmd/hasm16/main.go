// Command hasm16 assembles a source file for the hasm16 processor,
// writing a hex machine-code image and, optionally, a listing and
// address-to-line map. It is a thin wrapper around the assembler
// packages: all assembly logic lives in parser/linker/emit, not here.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lookbusy1344/hasm16/config"
	"github.com/lookbusy1344/hasm16/emit"
	"github.com/lookbusy1344/hasm16/linker"
	"github.com/lookbusy1344/hasm16/parser"
)

// defineFlag accumulates repeated --define KEY=VALUE flags into a map.
type defineFlag map[string]int64

func (d defineFlag) String() string { return fmt.Sprintf("%v", map[string]int64(d)) }

func (d defineFlag) Set(s string) error {
	name, valStr, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("--define expects KEY=VALUE, got %q", s)
	}
	val, err := strconv.ParseInt(valStr, 0, 64)
	if err != nil {
		return fmt.Errorf("--define %s: %w", name, err)
	}
	d[name] = val
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("hasm16", flag.ContinueOnError)
	outBase := fs.String("o", "", "output file base name (defaults to the input file's base name)")
	wantHex := fs.Bool("hex", false, "emit the hex machine-code image")
	wantLst := fs.Bool("lst", false, "emit a listing file")
	wantMap := fs.Bool("map", false, "emit an address-to-line map file")
	wantAll := fs.Bool("all", false, "emit hex, listing, and map")
	controlWords := fs.Bool("control-words", false, "dump the opcode control-word table and exit")
	configPath := fs.String("config", "", "path to a TOML config file (defaults to the platform config path)")
	quiet := fs.Bool("quiet", false, "suppress informational logging")
	verbose := fs.Bool("verbose", false, "enable debug-level logging")
	defines := make(defineFlag)
	fs.Var(defines, "define", "KEY=VALUE, repeatable; seeds the symbol table before assembly")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := newLogger(*quiet, *verbose)

	if *controlWords {
		if err := emit.ControlWords(os.Stdout); err != nil {
			logger.Error("writing control-word dump", "error", err)
			return 1
		}
		return 0
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: hasm16 <input> [-o base] [--hex] [--lst] [--map] [--all] [--control-words] [--config path] [--quiet] [--verbose] [--define KEY=VALUE]")
		return 2
	}
	input := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("loading config", "error", err)
		return 1
	}

	emitHex, emitLst, emitMap := resolveArtifacts(*wantHex, *wantLst, *wantMap, *wantAll, cfg)

	prog, _, err := parser.ParseFile(input, parser.ParseFileOptions{Defines: defines})
	if err != nil {
		logger.Error(diagnostic(err))
		return 1
	}

	if err := linker.Link(prog); err != nil {
		logger.Error(diagnostic(err))
		return 1
	}

	base := *outBase
	if base == "" {
		base = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}

	if emitHex {
		if err := writeArtifact(base+".hex", func(f *os.File) error { return emit.Hex(f, prog) }); err != nil {
			logger.Error("writing hex", "error", err)
			return 1
		}
		logger.Info("wrote hex", "file", base+".hex")
	}
	if emitLst {
		if err := writeArtifact(base+".lst", func(f *os.File) error { return emit.Listing(f, prog) }); err != nil {
			logger.Error("writing listing", "error", err)
			return 1
		}
		logger.Info("wrote listing", "file", base+".lst")
	}
	if emitMap {
		if err := writeArtifact(base+".map", func(f *os.File) error { return emit.Map(f, prog) }); err != nil {
			logger.Error("writing map", "error", err)
			return 1
		}
		logger.Info("wrote map", "file", base+".map")
	}

	return 0
}

func resolveArtifacts(wantHex, wantLst, wantMap, wantAll bool, cfg *config.Config) (emitHex, emitLst, emitMap bool) {
	if wantAll {
		return true, true, true
	}
	if wantHex || wantLst || wantMap {
		return wantHex, wantLst, wantMap
	}
	return cfg.Output.EmitHex, cfg.Output.EmitListing, cfg.Output.EmitMap
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func writeArtifact(path string, write func(f *os.File) error) error {
	f, err := os.Create(path) // #nosec G304 -- output path is derived from the CLI's own -o/input flags
	if err != nil {
		return err
	}
	defer f.Close()
	return write(f)
}

func newLogger(quiet, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func diagnostic(err error) string {
	return err.Error()
}
