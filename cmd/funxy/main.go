package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/sestcore/sest/internal/config"
	"github.com/sestcore/sest/internal/ir"
	"github.com/sestcore/sest/internal/pipeline"
	"github.com/sestcore/sest/internal/store"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <source%s> -o <dir> [-cache <path>] [-debug-levels]\n", os.Args[0], config.SourceFileExt)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	sourcePath := os.Args[1]
	outDir := ""
	cachePath := ""
	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "-o":
			if i+1 >= len(os.Args) {
				fmt.Fprintln(os.Stderr, "-o requires a directory argument")
				os.Exit(1)
			}
			outDir = os.Args[i+1]
			i++
		case "-cache":
			if i+1 >= len(os.Args) {
				fmt.Fprintln(os.Stderr, "-cache requires a path argument")
				os.Exit(1)
			}
			cachePath = os.Args[i+1]
			i++
		case "-debug-levels":
			config.IsLevelDebugMode = true
		default:
			fmt.Fprintf(os.Stderr, "unrecognized flag %q\n", os.Args[i])
			os.Exit(1)
		}
	}
	if outDir == "" {
		usage()
		os.Exit(1)
	}
	if !config.HasSourceExt(sourcePath) {
		fmt.Fprintf(os.Stderr, "warning: %s does not have a recognized source extension (%s)\n", sourcePath, config.SourceFileExt)
	}

	src, err := os.ReadFile(sourcePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading %s: %s\n", sourcePath, err)
		os.Exit(1)
	}

	modulePath := config.TrimSourceExt(filepath.Base(sourcePath))

	var cache *store.Backend
	if cachePath != "" {
		cache, err = store.Open(cachePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "opening cache %s: %s\n", cachePath, err)
			os.Exit(1)
		}
		defer cache.Close()
	}

	ctx := pipeline.NewContext(sourcePath, modulePath, string(src))
	ctx = pipeline.Standard().Run(ctx)

	colorize := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	if !ctx.OK() {
		for _, e := range ctx.Errors {
			printDiagnostic(e, colorize)
		}
		os.Exit(1)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "creating %s: %s\n", outDir, err)
		os.Exit(1)
	}

	outPath := filepath.Join(outDir, modulePath+".json")
	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "writing %s: %s\n", outPath, err)
		os.Exit(1)
	}
	defer f.Close()
	if err := ir.Encode(f, ctx.IR); err != nil {
		fmt.Fprintf(os.Stderr, "encoding %s: %s\n", outPath, err)
		os.Exit(1)
	}

	if cache != nil {
		if err := cacheResult(cache, ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: caching IR for %s failed: %s\n", modulePath, err)
		}
	}
}

// cacheResult persists the module's lowered IR, keyed by module path and a
// content hash of its source (spec §5's "process-wide tables" reading
// extended across invocations by internal/store). Nothing in the CLI reads
// the cached entry back; every run executes the whole pipeline.
func cacheResult(cache *store.Backend, ctx *pipeline.PipelineContext) error {
	sum := sha256.Sum256([]byte(ctx.Source))
	hash := hex.EncodeToString(sum[:])

	var buf strings.Builder
	if err := ir.Encode(&buf, ctx.IR); err != nil {
		return err
	}
	arena := ""
	if ctx.Checker != nil && ctx.Checker.Supply != nil {
		arena = ctx.Checker.Supply.Arena.String()
	}
	return cache.Put(ctx.ModulePath, hash, arena, []byte(buf.String()))
}

func printDiagnostic(err error, colorize bool) {
	if !colorize {
		fmt.Fprintln(os.Stderr, err.Error())
		return
	}
	const red = "\x1b[31m"
	const reset = "\x1b[0m"
	fmt.Fprintf(os.Stderr, "%s%s%s\n", red, err.Error(), reset)
}
