// Command vanityengine searches for Tor v3 onion addresses matching one
// or more caller-supplied patterns and writes each match's hidden-service
// key files to an output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vanitytor/vanityengine/internal/engine"
	"github.com/vanitytor/vanityengine/internal/ui"
	"github.com/vanitytor/vanityengine/pkg/vanity"
)

const version = "0.1"

const usage = `Usage:
    vanityengine [flags] PATTERN [PATTERN...]

A PATTERN is a base32 string (a-z2-7), optionally suffixed with
":suffix" or ":anywhere" to change where it must match (the default is
a prefix match). Example:

    vanityengine -out ./keys -mode auto abc def:suffix ghi:anywhere

Flags:
`

func parsePattern(arg string) vanity.Pattern {
	value := arg
	position := vanity.Prefix
	if idx := strings.LastIndex(arg, ":"); idx >= 0 {
		switch arg[idx+1:] {
		case "prefix":
			value, position = arg[:idx], vanity.Prefix
		case "suffix":
			value, position = arg[:idx], vanity.Suffix
		case "anywhere":
			value, position = arg[:idx], vanity.Anywhere
		}
	}
	return vanity.Pattern{Value: value, Position: position}
}

func main() {
	outDir := flag.String("out", "keys", "output directory for found key pairs")
	modeFlag := flag.String("mode", "auto", "backend mode: auto, cpu, gpu, or hybrid")
	threads := flag.Int("threads", 0, "CPU worker threads (0 = all cores)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	patterns := make([]vanity.Pattern, 0, len(args))
	for _, arg := range args {
		patterns = append(patterns, parsePattern(arg))
	}

	mode, err := parseMode(*modeFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s%v%s\n", ui.ColorRed, err, ui.ColorReset)
		os.Exit(1)
	}

	e := engine.New()
	if err := e.Select(mode, *threads); err != nil {
		fmt.Fprintf(os.Stderr, "%s%v%s\n", ui.ColorRed, err, ui.ColorReset)
		os.Exit(1)
	}

	ui.PrintBanner(version)
	ui.PrintPatterns(patterns, mode.String())

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	remaining := len(patterns)
	frame := 0
	progress := func(p vanity.Progress) {
		ui.PrintProgress(p, remaining, frame)
		frame++
	}
	result := func(fk vanity.FoundKey) {
		remaining--
		ui.ClearLine()
		ui.PrintFound(fk)
	}

	start := time.Now()
	if err := e.Run(ctx, patterns, *outDir, progress, result); err != nil {
		ui.ClearLine()
		if ve, ok := err.(*vanity.Error); ok && ve.Kind == vanity.Stopped {
			fmt.Printf("\n%sstopped after %s%s\n", ui.ColorYellow, ui.FormatDuration(time.Since(start)), ui.ColorReset)
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "\n%s%v%s\n", ui.ColorRed, err, ui.ColorReset)
		os.Exit(1)
	}

	ui.ClearLine()
	fmt.Printf("\n%sdone in %s%s\n", ui.ColorGreen+ui.ColorBold, ui.FormatDuration(time.Since(start)), ui.ColorReset)
}

func parseMode(s string) (vanity.Mode, error) {
	switch strings.ToLower(s) {
	case "auto":
		return vanity.Auto, nil
	case "cpu":
		return vanity.CPUOnly, nil
	case "gpu":
		return vanity.GPUOnly, nil
	case "hybrid":
		return vanity.Hybrid, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want auto, cpu, gpu, or hybrid)", s)
	}
}
