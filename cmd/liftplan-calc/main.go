package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/claude/liftplan/internal/engine"
	"github.com/claude/liftplan/internal/intake"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	format := flag.String("format", "", "input format: json or csv (default: from file extension, json for stdin)")
	block := flag.String("block", "", "block type (prep or peak), overrides the document")
	indent := flag.Bool("indent", true, "indent the output")
	verbose := flag.Bool("v", false, "log debug output to stderr")
	version := flag.Bool("version", false, "print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: liftplan-calc [flags] [file]\n\nReads an input document (or stdin) and prints the calculated program.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		fmt.Println("liftplan-calc", Version)
		return
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var (
		data []byte
		err  error
		name = "stdin"
	)
	switch flag.NArg() {
	case 0:
		data, err = io.ReadAll(os.Stdin)
	case 1:
		name = flag.Arg(0)
		data, err = os.ReadFile(name)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error("failed to read input", "file", name, "error", err)
		os.Exit(1)
	}

	if *format == "" {
		*format = "json"
		if strings.EqualFold(filepath.Ext(name), ".csv") {
			*format = "csv"
		}
	}

	in, err := decode(*format, data)
	if err != nil {
		log.Error("failed to parse input", "file", name, "format", *format, "error", err)
		os.Exit(1)
	}
	if *block != "" {
		in.Block = *block
	}

	out, err := engine.NewCalculator(log).Calculate(context.Background(), in)
	if err != nil {
		log.Error("calculation failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	if *indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		log.Error("failed to write output", "error", err)
		os.Exit(1)
	}
}

func decode(format string, data []byte) (engine.Input, error) {
	switch format {
	case "csv":
		return intake.Parse(bytes.NewReader(data))
	case "json":
		var in engine.Input
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			return engine.Input{}, err
		}
		return in, nil
	default:
		return engine.Input{}, fmt.Errorf("unknown format %q", format)
	}
}
