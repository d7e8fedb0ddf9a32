// Package vanity defines the public types shared by the onion vanity
// search engine: patterns, progress samples, found keys, backend
// descriptors, and the error taxonomy returned by a search run.
package vanity

import (
	"fmt"
)

// Position selects where a Pattern must match within the 56-character
// onion name portion of an address.
type Position int

const (
	// Prefix matches at the start of the name.
	Prefix Position = iota
	// Suffix matches at the end of the name.
	Suffix
	// Anywhere matches at any offset within the name.
	Anywhere
)

func (p Position) String() string {
	switch p {
	case Prefix:
		return "prefix"
	case Suffix:
		return "suffix"
	case Anywhere:
		return "anywhere"
	default:
		return "unknown"
	}
}

// Pattern is a caller-supplied lowercase base32 string plus the position
// it must occupy within an onion address's name portion.
type Pattern struct {
	Value    string
	Position Position
}

func (p Pattern) String() string {
	return fmt.Sprintf("%s(%s)", p.Value, p.Position)
}

// FoundKey is produced exactly once per claimed pattern.
type FoundKey struct {
	Pattern    Pattern
	Address    string // full 62-character onion address, including ".onion"
	OnDiskPath string
}

// Progress is a monotonic sample of search throughput.
type Progress struct {
	CandidatesExamined  uint64
	CandidatesPerSecond float64
	ElapsedSeconds      float64
}

// BackendDescriptor names a computation backend and its rough throughput.
type BackendDescriptor struct {
	Name                          string
	EstimatedThroughputPerSecond  uint64
}

// Mode selects which backend(s) Engine.Select should run.
type Mode int

const (
	// Auto prefers Hybrid, then GPU, then CPU, degrading silently.
	Auto Mode = iota
	CPUOnly
	GPUOnly
	Hybrid
)

func (m Mode) String() string {
	switch m {
	case Auto:
		return "auto"
	case CPUOnly:
		return "cpu"
	case GPUOnly:
		return "gpu"
	case Hybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// FormatRate renders a throughput number with a human-scale K/M/B suffix,
// the way a front end would display a BackendDescriptor's estimate.
func FormatRate(perSecond uint64) string {
	switch {
	case perSecond >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(perSecond)/1_000_000_000)
	case perSecond >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(perSecond)/1_000_000)
	case perSecond >= 1_000:
		return fmt.Sprintf("%.1fK", float64(perSecond)/1_000)
	default:
		return fmt.Sprintf("%d", perSecond)
	}
}
