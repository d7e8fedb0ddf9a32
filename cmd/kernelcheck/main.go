// Command kernelcheck cross-checks the host-side byte-prefix predicate
// against the string-form Matcher for a batch of random candidates,
// without requiring an OpenCL device. It exists to catch a divergence
// between the two matching paths before it ever reaches a GPU run.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"

	"github.com/vanitytor/vanityengine/pkg/vanity"
	"github.com/vanitytor/vanityengine/pkg/vanity/onion"
	"github.com/vanitytor/vanityengine/pkg/vanity/pattern"
)

const trials = 20000

func main() {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("  ║           kernelcheck: byte predicate vs string matcher         ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════════════╝")
	fmt.Println()

	patterns := []string{"a", "ab", "abc", "z", "zz", "234", "ab2", "qqqqq"}
	mismatches := 0

	for _, value := range patterns {
		m, err := pattern.New(vanity.Pattern{Value: value, Position: vanity.Prefix})
		if err != nil {
			fmt.Printf("  ✗ pattern %q failed to compile: %v\n", value, err)
			os.Exit(1)
		}
		bp, err := pattern.NewBytePredicate(value)
		if err != nil {
			fmt.Printf("  ✗ pattern %q has no byte form: %v\n", value, err)
			os.Exit(1)
		}

		agree, disagree := 0, 0
		for i := 0; i < trials; i++ {
			_, priv, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				fmt.Printf("  ✗ key generation failed: %v\n", err)
				os.Exit(1)
			}
			pub := priv.Public().(ed25519.PublicKey)
			name, err := onion.EncodeName(pub)
			if err != nil {
				fmt.Printf("  ✗ encoding failed: %v\n", err)
				os.Exit(1)
			}

			want := m.Matches(name)
			got := bp.MatchesBytes(pub)
			if want == got {
				agree++
			} else {
				disagree++
				mismatches++
			}
		}

		status := "✓"
		if disagree > 0 {
			status = "✗"
		}
		fmt.Printf("  %s prefix %-8q agree=%d disagree=%d\n", status, value, agree, disagree)
	}

	fmt.Println()
	if mismatches > 0 {
		fmt.Println("  ✗ byte predicate and string matcher disagreed on some candidates")
		os.Exit(1)
	}
	fmt.Println("  ✓ byte predicate and string matcher agree on every trial")
}
