package scope

import "testing"

func TestIsValid(t *testing.T) {
	for _, s := range []Scope{All, Only, Nearby} {
		if !s.IsValid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []Scope{"", "near", "ALL"} {
		if s.IsValid() {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}
