// Package main provides a command-line utility to inspect standardized
// containers. It prints the group/dataset tree with shapes, dtypes and
// attributes for debugging.
package main

import (
	"fmt"
	"log"
	"os"
	"sort"

	zarr "github.com/qri-io/zarr-go"
	"github.com/spf13/pflag"

	"github.com/DancingQuanta/pycroscopy/usid"
)

func main() {
	showAttrs := pflag.Bool("attrs", true, "print object attributes")
	pflag.Parse()

	args := pflag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: dump_usid [flags] <container.zarr>")
		pflag.PrintDefaults()
		os.Exit(2)
	}

	f, err := usid.OpenZarr(args[0])
	if err != nil {
		log.Fatalf("Failed to open container: %v", err)
	}

	err = f.Walk(func(path string, meta *zarr.ArrayMeta, attrs zarr.Attributes) error {
		if meta != nil {
			fmt.Printf("[Dataset] %s  shape=%v dtype=%s chunks=%v\n",
				path, meta.Shape, meta.Dtype.Dtype.String(), meta.Chunks)
		} else {
			fmt.Printf("[Group]   %s\n", path)
		}

		if *showAttrs && len(attrs) > 0 {
			keys := make([]string, 0, len(attrs))
			for k := range attrs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("    %s = %v\n", k, attrs[k])
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to walk container: %v", err)
	}
}
