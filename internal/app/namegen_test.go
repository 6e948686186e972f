package app

import (
	"math/rand"
	"testing"
)

func TestRandomNameFormat(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		name := randomName(rnd)
		if len(name) != nameLetters+nameDigits {
			t.Fatalf("name %q has length %d, want %d", name, len(name), nameLetters+nameDigits)
		}
		seen := map[byte]bool{}
		for j := 0; j < nameLetters; j++ {
			c := name[j]
			if c < 'a' || c > 'z' {
				t.Fatalf("name %q: position %d is not a lowercase letter", name, j)
			}
			if seen[c] {
				t.Fatalf("name %q repeats letter %q", name, c)
			}
			seen[c] = true
		}
		seen = map[byte]bool{}
		for j := nameLetters; j < nameLetters+nameDigits; j++ {
			c := name[j]
			if c < '0' || c > '9' {
				t.Fatalf("name %q: position %d is not a digit", name, j)
			}
			if seen[c] {
				t.Fatalf("name %q repeats digit %q", name, c)
			}
			seen[c] = true
		}
	}
}
