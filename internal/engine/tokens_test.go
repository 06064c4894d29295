package engine

import (
	"testing"

	"dogwalk-server/internal/core/types"
)

func TestTokenSourceFormat(t *testing.T) {
	src := newTokenSource()

	for i := 0; i < 200; i++ {
		tok := src.Generate()
		if _, err := types.ParseToken(tok.String()); err != nil {
			t.Fatalf("generated token %q is malformed: %v", tok, err)
		}
	}
}

func TestTokenSourceDoesNotRepeat(t *testing.T) {
	src := newTokenSource()

	seen := make(map[types.Token]bool, 1000)
	for i := 0; i < 1000; i++ {
		tok := src.Generate()
		if seen[tok] {
			t.Fatalf("token %q repeated after %d draws", tok, i)
		}
		seen[tok] = true
	}
}
