package targetset

import (
	"encoding/base32"
	"sync"
	"testing"

	"github.com/vanitytor/vanityengine/pkg/vanity"
)

var testEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

func TestNewRejectsInvalidPattern(t *testing.T) {
	_, err := New([]vanity.Pattern{{Value: "!!!", Position: vanity.Prefix}})
	if err == nil {
		t.Fatalf("expected invalid pattern error")
	}
}

func TestIsEmptyAndLen(t *testing.T) {
	s, err := New([]vanity.Pattern{
		{Value: "ab", Position: vanity.Prefix},
		{Value: "cd", Position: vanity.Suffix},
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.IsEmpty() {
		t.Fatalf("expected non-empty set")
	}
	if s.Len() != 2 {
		t.Fatalf("got len %d, want 2", s.Len())
	}
}

func TestClaimStringRemovesMatchedPattern(t *testing.T) {
	s, err := New([]vanity.Pattern{{Value: "ab", Position: vanity.Prefix}})
	if err != nil {
		t.Fatal(err)
	}
	name := "ab" + "234567234567234567234567234567234567234567234567234567234567"
	name = name[:56]

	m, ok := s.ClaimString(name)
	if !ok {
		t.Fatalf("expected a claim")
	}
	if m.Pattern.Value != "ab" {
		t.Fatalf("got pattern %q, want ab", m.Pattern.Value)
	}
	if !s.IsEmpty() {
		t.Fatalf("expected set to be empty after the only pattern was claimed")
	}

	if _, ok := s.ClaimString(name); ok {
		t.Fatalf("expected a second claim on an already-claimed pattern to fail")
	}
}

func TestClaimBytesAgreesWithClaimString(t *testing.T) {
	s, err := New([]vanity.Pattern{{Value: "zz", Position: vanity.Prefix}})
	if err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("got %d byte predicates, want 1", len(snap))
	}

	name := "zz" + "234567234567234567234567234567234567234567234567234567234567"
	name = name[:56]
	data, err := decodeForTest(name)
	if err != nil {
		t.Fatal(err)
	}
	if !snap[0].MatchesBytes(data) {
		t.Fatalf("expected snapshot predicate to match encoded prefix bytes")
	}

	m, ok := s.ClaimBytes(data)
	if !ok {
		t.Fatalf("expected a byte claim")
	}
	if m.Pattern.Value != "zz" {
		t.Fatalf("got pattern %q, want zz", m.Pattern.Value)
	}
	if !s.IsEmpty() {
		t.Fatalf("expected set to be empty after claim")
	}
}

// TestConcurrentClaimIsExclusive spawns many goroutines racing to claim the
// same single pattern against the same matching name; exactly one must
// succeed, proving claim-once exclusivity under concurrency.
func TestConcurrentClaimIsExclusive(t *testing.T) {
	s, err := New([]vanity.Pattern{{Value: "ab", Position: vanity.Prefix}})
	if err != nil {
		t.Fatal(err)
	}
	name := "ab" + "234567234567234567234567234567234567234567234567234567234567"
	name = name[:56]

	const workers = 64
	var wg sync.WaitGroup
	var claims int
	var mu sync.Mutex
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, ok := s.ClaimString(name); ok {
				mu.Lock()
				claims++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if claims != 1 {
		t.Fatalf("got %d successful claims, want exactly 1", claims)
	}
	if !s.IsEmpty() {
		t.Fatalf("expected set to be empty after the race")
	}
}

func decodeForTest(name string) ([]byte, error) {
	return testEncoding.DecodeString(name)
}
