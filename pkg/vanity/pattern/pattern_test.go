package pattern

import (
	"testing"

	"github.com/vanitytor/vanityengine/pkg/vanity"
)

func TestMatcherPrefix(t *testing.T) {
	m, err := New(vanity.Pattern{Value: "ab", Position: vanity.Prefix})
	if err != nil {
		t.Fatal(err)
	}
	if !m.Matches("ab" + "c" + "2345677777777777777777777777777777777777777777") {
		t.Fatalf("expected prefix match")
	}
	if m.Matches("ba" + "cdefg") {
		t.Fatalf("did not expect prefix match")
	}
}

func TestMatcherSuffix(t *testing.T) {
	m, err := New(vanity.Pattern{Value: "zz", Position: vanity.Suffix})
	if err != nil {
		t.Fatal(err)
	}
	if !m.Matches("aaaaaaazz") {
		t.Fatalf("expected suffix match")
	}
}

func TestMatcherAnywhere(t *testing.T) {
	m, err := New(vanity.Pattern{Value: "cd", Position: vanity.Anywhere})
	if err != nil {
		t.Fatal(err)
	}
	if !m.Matches("abcdef") {
		t.Fatalf("expected contains match")
	}
	if m.Matches("abxyef") {
		t.Fatalf("did not expect contains match")
	}
}

func TestEmptyPatternMatchesEverything(t *testing.T) {
	m, err := New(vanity.Pattern{Value: "", Position: vanity.Prefix})
	if err != nil {
		t.Fatal(err)
	}
	if !m.Matches("whatever") {
		t.Fatalf("expected empty pattern to match everything")
	}
}

func TestNewRejectsInvalidCharacters(t *testing.T) {
	if _, err := New(vanity.Pattern{Value: "!bad", Position: vanity.Prefix}); err == nil {
		t.Fatalf("expected invalid pattern error")
	}
}

func TestNewRejectsTooLong(t *testing.T) {
	if _, err := New(vanity.Pattern{Value: "abcdefghijklm", Position: vanity.Prefix}); err == nil {
		t.Fatalf("expected invalid pattern error for length > 12")
	}
}

func TestBytePredicateAgreesWithStringMatcher(t *testing.T) {
	for _, value := range []string{"a", "ab", "abc", "zzzzz", "a2b3c4"} {
		bp, err := NewBytePredicate(value)
		if err != nil {
			t.Fatalf("%s: %v", value, err)
		}
		m, err := New(vanity.Pattern{Value: value, Position: vanity.Prefix})
		if err != nil {
			t.Fatal(err)
		}

		// Build a 56-char name starting with `value`, decode its data
		// bytes via the same padding scheme NewBytePredicate uses, and
		// confirm both forms agree.
		padded := value
		for len(padded) < 56 {
			padded += "a"
		}
		data, _, err := decodePrefixBits(padded[:((len(padded)+7)/8)*8])
		if err != nil {
			t.Fatal(err)
		}
		if !m.Matches(padded) {
			t.Fatalf("string matcher rejected its own construction for %q", value)
		}
		if !bp.MatchesBytes(data) {
			t.Fatalf("byte predicate rejected matching bytes for %q", value)
		}
	}
}

func TestBytePredicateRejectsNonMatchingBytes(t *testing.T) {
	bp, err := NewBytePredicate("ab")
	if err != nil {
		t.Fatal(err)
	}
	data, _, err := decodePrefixBits("zzzzzzzz")
	if err != nil {
		t.Fatal(err)
	}
	if bp.MatchesBytes(data) {
		t.Fatalf("did not expect a match")
	}
}
