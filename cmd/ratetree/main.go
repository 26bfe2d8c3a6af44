package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meenmo/ratetree/cmd/ratetree/internal/calibrate"
	"github.com/meenmo/ratetree/cmd/ratetree/internal/price"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "calibrate", "bdt":
		return calibrate.Run(args[1:], stdin, stdout, stderr)
	case "price":
		return price.Run(args[1:], stdin, stdout, stderr)
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: ratetree <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  calibrate  Fit a BDT lattice to a yield curve and report ZCB prices")
	fmt.Fprintln(w, "  price      Price bonds, forwards, futures, caps, floors, swaps and swaptions")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run `ratetree <command> -h` for command-specific help.")
}
