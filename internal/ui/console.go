// Package ui renders a vanity search run to a terminal: a banner, the
// requested patterns, a live progress line, and a found-key
// announcement.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/vanitytor/vanityengine/pkg/vanity"
)

// ANSI color codes.
const (
	ColorReset  = "\033[0m"
	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorRed    = "\033[31m"
	ColorPurple = "\033[35m"
	ColorBold   = "\033[1m"
	ColorDim    = "\033[2m"
)

// PrintBanner shows the welcome banner.
func PrintBanner(version string) {
	fmt.Println()
	fmt.Printf("%s%s", ColorCyan, ColorBold)
	fmt.Println("  ╔══════════════════════════════════════════════════════════╗")
	fmt.Printf("  ║  vanityengine %s· v%s%s                                        ║\n", ColorDim, version, ColorCyan+ColorBold)
	fmt.Println("  ║  Tor v3 onion vanity address search                        ║")
	fmt.Println("  ╚══════════════════════════════════════════════════════════╝")
	fmt.Print(ColorReset)
	fmt.Println()
}

// PrintPatterns lists every pattern a run is searching for, and the
// backend it will use.
func PrintPatterns(patterns []vanity.Pattern, backend string) {
	fmt.Printf("    %sSEARCHING%s (%s)\n", ColorGreen+ColorBold, ColorReset, backend)
	for _, p := range patterns {
		fmt.Printf("      %s%s%s %s%s%s\n", ColorCyan, p.Position, ColorReset, ColorBold, p.Value, ColorReset)
	}
	fmt.Println()
}

// PrintProgress renders a single-line progress update.
func PrintProgress(p vanity.Progress, remaining int, frame int) {
	spinners := []string{"◐", "◓", "◑", "◒"}
	spinner := spinners[frame%len(spinners)]

	fmt.Printf("\r    %s%s%s %s%s remaining%s │ %s%s examined%s │ %s%s%s │ %s",
		ColorCyan, spinner, ColorReset,
		ColorYellow, fmt.Sprint(remaining), ColorReset,
		ColorDim, FormatNumber(p.CandidatesExamined), ColorReset,
		ColorGreen+ColorBold, vanity.FormatRate(uint64(p.CandidatesPerSecond))+"/s", ColorReset,
		FormatDuration(time.Duration(p.ElapsedSeconds*float64(time.Second))))
}

// PrintFound announces a claimed pattern.
func PrintFound(fk vanity.FoundKey) {
	fmt.Printf("\n\n    %s%s✓ FOUND%s %s%s%s\n", ColorGreen, ColorBold, ColorReset, ColorBold, fk.Address, ColorReset)
	fmt.Printf("      pattern: %s%s(%s)%s\n", ColorCyan, fk.Pattern.Value, fk.Pattern.Position, ColorReset)
	fmt.Printf("      saved:   %s%s%s\n\n", ColorDim, fk.OnDiskPath, ColorReset)
}

// ClearLine clears the current terminal line.
func ClearLine() {
	fmt.Print("\r" + strings.Repeat(" ", 100) + "\r")
}

// FormatNumber adds thousands separators to n.
func FormatNumber(n uint64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	result := make([]byte, 0, len(s)+(len(s)-1)/3)
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}

// FormatDuration formats d the way a progress line should: compact, with
// the coarsest unit that fits.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
