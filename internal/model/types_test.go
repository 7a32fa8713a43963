package model

import "testing"

func TestIntentKindValid(t *testing.T) {
	for _, k := range []IntentKind{IntentRead, IntentWrite, IntentDelete, IntentUnknown} {
		if !k.Valid() {
			t.Errorf("expected %q to be valid", k)
		}
	}
	if IntentKind("archive").Valid() {
		t.Error("expected unrecognized kind to be invalid")
	}
}

func TestParamsCloneIndependence(t *testing.T) {
	p := Params{KeyFrom: "john@example.com"}
	c := p.Clone()
	c[KeyFrom] = "attacker@evil.com"

	if p[KeyFrom] != "john@example.com" {
		t.Errorf("clone mutated original: %v", p)
	}
}

func TestParamsCloneNil(t *testing.T) {
	var p Params
	if c := p.Clone(); c != nil {
		t.Errorf("expected nil clone of nil params, got %v", c)
	}
}
