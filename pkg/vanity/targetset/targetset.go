// Package targetset implements the concurrent claim-once set of patterns a
// search run is working against: every worker goroutine and GPU device
// tests candidates against the same live set, and the first one to find a
// match claims (removes) that pattern so no other worker reports it again.
package targetset

import (
	"sync"
	"sync/atomic"

	"github.com/vanitytor/vanityengine/pkg/vanity"
	"github.com/vanitytor/vanityengine/pkg/vanity/pattern"
)

// entry pairs a compiled Matcher with its byte-prefix form, built once at
// insert time so GPU workers don't recompile it per batch.
type entry struct {
	matcher *pattern.Matcher
	bytes   pattern.BytePredicate
	hasByte bool
}

// Set is a concurrency-safe collection of outstanding patterns. The zero
// value is not usable; construct with New.
type Set struct {
	mu      sync.Mutex
	entries map[string]*entry // keyed by pattern.Matcher.Pattern().Value+Position tag
	count   int64             // atomic mirror of len(entries), for a lock-free IsEmpty
}

// New builds a Set from the given patterns, validating and compiling each
// one. The returned error is an InvalidPattern vanity.Error naming the
// first pattern that failed to compile.
func New(patterns []vanity.Pattern) (*Set, error) {
	s := &Set{entries: make(map[string]*entry, len(patterns))}
	for _, p := range patterns {
		if err := s.insert(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func key(p vanity.Pattern) string {
	return p.Position.String() + ":" + p.Value
}

func (s *Set) insert(p vanity.Pattern) error {
	m, err := pattern.New(p)
	if err != nil {
		return err
	}
	e := &entry{matcher: m}
	if p.Position == vanity.Prefix && m.Pattern().Value != "" {
		bp, err := pattern.NewBytePredicate(m.Pattern().Value)
		if err == nil {
			e.bytes = bp
			e.hasByte = true
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(m.Pattern())
	if _, dup := s.entries[k]; dup {
		return nil
	}
	s.entries[k] = e
	atomic.AddInt64(&s.count, 1)
	return nil
}

// IsEmpty reports whether every pattern has been claimed. It is safe to
// call from any goroutine without holding the lock and is the check a
// worker's hot loop should poll to decide whether to keep running.
func (s *Set) IsEmpty() bool {
	return atomic.LoadInt64(&s.count) == 0
}

// Len returns the number of outstanding (unclaimed) patterns.
func (s *Set) Len() int {
	return int(atomic.LoadInt64(&s.count))
}

// Match describes a successful claim: the pattern that matched, returned
// so the caller can report which pattern the candidate satisfied.
type Match struct {
	Pattern vanity.Pattern
}

// ClaimString tests name against every outstanding pattern and, on the
// first one that matches, removes it from the set and returns it. Returns
// (Match{}, false) if no outstanding pattern matches. Safe for concurrent
// use by any number of CPU workers.
func (s *Set) ClaimString(name string) (Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if e.matcher.Matches(name) {
			delete(s.entries, k)
			atomic.AddInt64(&s.count, -1)
			return Match{Pattern: e.matcher.Pattern()}, true
		}
	}
	return Match{}, false
}

// ClaimBytes tests raw prefix bytes (as a device kernel would) against
// every outstanding prefix-form pattern, claiming and returning the first
// match. Patterns with Position != Prefix never participate here; the
// caller must also call ClaimString for those once it has decoded the
// full name.
func (s *Set) ClaimBytes(data []byte) (Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if !e.hasByte {
			continue
		}
		if e.bytes.MatchesBytes(data) {
			delete(s.entries, k)
			atomic.AddInt64(&s.count, -1)
			return Match{Pattern: e.matcher.Pattern()}, true
		}
	}
	return Match{}, false
}

// Snapshot returns the byte-prefix predicates of every outstanding
// prefix-form pattern, for a GPU worker to upload to its device as a
// single batch at the start of a run or after a claim changes the set.
func (s *Set) Snapshot() []pattern.BytePredicate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pattern.BytePredicate, 0, len(s.entries))
	for _, e := range s.entries {
		if e.hasByte {
			out = append(out, e.bytes)
		}
	}
	return out
}
