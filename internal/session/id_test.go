package session_test

import (
	"testing"

	"github.com/zsprackett/uploadwatch/internal/session"
)

func TestNewID_Shape(t *testing.T) {
	for i := 0; i < 200; i++ {
		id := session.NewID()
		if len(id) != session.IDLength {
			t.Fatalf("id %q: length %d want %d", id, len(id), session.IDLength)
		}
		for _, r := range id {
			if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z') {
				t.Fatalf("id %q: unexpected rune %q", id, r)
			}
		}
	}
}

func TestNewID_Distinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := session.NewID()
		if seen[id] {
			t.Fatalf("duplicate id %q after %d draws", id, i)
		}
		seen[id] = true
	}
}
