// Package pattern implements matching a Tor v3 onion name against a
// caller-supplied base32 pattern, in both a string form (used by the CPU
// worker pool against a decoded onion name) and a byte-prefix form (used
// to build a device-side predicate, spec.md §4.2).
package pattern

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/vanitytor/vanityengine/pkg/vanity"
)

const (
	// Alphabet is the lowercase base32 character set a pattern may use.
	Alphabet = "abcdefghijklmnopqrstuvwxyz234567"
	// MaxLength bounds a single pattern; longer patterns are rejected
	// at validation (spec.md §3: 1..<=12 characters).
	MaxLength = 12
)

var decodeEncoding = base32.NewEncoding(Alphabet).WithPadding(base32.NoPadding)

// Matcher tests a decoded 56-character onion name against one Pattern.
type Matcher struct {
	pattern vanity.Pattern
	value   string // pre-lowered pattern value
}

// New validates and compiles a Pattern into a Matcher. An empty pattern
// is accepted and matches every address (spec.md §4.2's "tap" case). A
// non-empty pattern must decode as base32-lower and must not exceed
// MaxLength.
func New(p vanity.Pattern) (*Matcher, error) {
	value := strings.ToLower(p.Value)
	if len(value) > MaxLength {
		return nil, vanity.NewInvalidPatternError(p.Value)
	}
	if value != "" {
		if strings.Trim(value, Alphabet) != "" {
			return nil, vanity.NewInvalidPatternError(p.Value)
		}
		// Validate decodability the way the byte-prefix form will need
		// to (padded to a whole quantum), catching malformed patterns
		// before any worker spawns.
		if _, _, err := decodePrefixBits(value); err != nil {
			return nil, vanity.NewInvalidPatternError(p.Value)
		}
	}
	return &Matcher{pattern: vanity.Pattern{Value: value, Position: p.Position}, value: value}, nil
}

// Pattern returns the (lowered) pattern this matcher was built from.
func (m *Matcher) Pattern() vanity.Pattern { return m.pattern }

// Matches reports whether name (the 56-character onion name, without
// ".onion") satisfies this pattern at its configured position.
func (m *Matcher) Matches(name string) bool {
	if m.value == "" {
		return true
	}
	switch m.pattern.Position {
	case vanity.Prefix:
		return strings.HasPrefix(name, m.value)
	case vanity.Suffix:
		return strings.HasSuffix(name, m.value)
	case vanity.Anywhere:
		return strings.Contains(name, m.value)
	default:
		return false
	}
}

// BytePredicate is the device-facing prefix predicate described in
// spec.md §4.2: a byte buffer to compare in full, plus a final byte
// index/mask for the last partial byte. Only meaningful for Position ==
// Prefix; device kernels only ever test prefixes.
type BytePredicate struct {
	Bytes         []byte
	LastByteIndex int
	LastByteMask  byte
	lastByteValue byte // Bytes[LastByteIndex] & LastByteMask, precomputed
}

// NewBytePredicate builds the device-facing predicate for a prefix
// pattern: pad it with 'a' to a whole 8-character base32 quantum and
// decode that, then mask off the bits below the 5*len(pattern)-th bit of
// the stream.
func NewBytePredicate(value string) (BytePredicate, error) {
	value = strings.ToLower(value)
	if value == "" {
		return BytePredicate{}, fmt.Errorf("pattern: empty prefix has no byte form")
	}
	prefixBytes, bits, err := decodePrefixBits(value)
	if err != nil {
		return BytePredicate{}, err
	}
	return bytePredicateFromBits(prefixBytes, bits), nil
}

// decodePrefixBits decodes a pattern padded to a base32 quantum and
// returns the raw bytes plus the number of meaningful bits (5 per
// pattern character).
func decodePrefixBits(value string) ([]byte, int, error) {
	bits := 5 * len(value)
	quantums := (len(value) + 7) / 8
	padded := value + strings.Repeat("a", quantums*8-len(value))
	buf := make([]byte, quantums*5)
	if _, err := decodeEncoding.Decode(buf, []byte(padded)); err != nil {
		return nil, 0, fmt.Errorf("pattern: invalid base32 characters: %w", err)
	}
	return buf, bits, nil
}

func bytePredicateFromBits(prefix []byte, bits int) BytePredicate {
	fullBytes := bits / 8
	rem := bits % 8
	if rem == 0 {
		return BytePredicate{
			Bytes:         prefix[:fullBytes],
			LastByteIndex: fullBytes - 1,
			LastByteMask:  0xFF,
			lastByteValue: prefix[fullBytes-1],
		}
	}
	shift := uint(8 - rem)
	mask := byte(0xFF << shift)
	return BytePredicate{
		Bytes:         prefix[:fullBytes],
		LastByteIndex: fullBytes,
		LastByteMask:  mask,
		lastByteValue: prefix[fullBytes] & mask,
	}
}

// LastByteValue returns the target masked value at LastByteIndex:
// Bytes[LastByteIndex]&LastByteMask for a whole-byte predicate, or the
// partial byte's masked bits otherwise. A device-side predicate buffer
// needs this value explicitly, since it is not always present in Bytes.
func (p BytePredicate) LastByteValue() byte { return p.lastByteValue }

// MatchesBytes reports whether data (the raw pre-encoded key material,
// MSB-first) satisfies the byte-prefix predicate. This is the host-side
// equivalent of the comparison a device kernel performs.
func (p BytePredicate) MatchesBytes(data []byte) bool {
	if len(data) <= p.LastByteIndex {
		return false
	}
	for i, b := range p.Bytes {
		if data[i] != b {
			return false
		}
	}
	return data[p.LastByteIndex]&p.LastByteMask == p.lastByteValue
}
