// Package main provides a command-line translator for raw binary
// acquisitions described by a YAML sidecar. It writes a standardized
// zarr container next to the input unless an output path is given.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/DancingQuanta/pycroscopy/usid"
)

func main() {
	output := pflag.StringP("output", "o", "", "output container path (default: input name with .zarr)")
	maxMem := pflag.Int("max-mem-mb", usid.DefaultMaxMemMB, "memory budget for raw data, in MB")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Parse()

	args := pflag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: translate [flags] <descriptor.yaml>")
		pflag.PrintDefaults()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	input := args[0]
	out := *output
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + ".zarr"
	}

	path, err := usid.NewBinaryTranslator(*maxMem).Translate(input, out)
	if err != nil {
		slog.Error("translation failed", "input", input, "error", err)
		os.Exit(1)
	}
	fmt.Println(path)
}
