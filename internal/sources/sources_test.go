// Package sources includes tests for the static source registry.
package sources

import "testing"

// TestRegistryIDsUnique ensures no source key is reused across active and
// disabled entries.
func TestRegistryIDsUnique(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, s := range append(All(), Disabled()...) {
		if seen[s.ID] {
			t.Fatalf("duplicate source id %q", s.ID)
		}
		seen[s.ID] = true
	}
}

// TestRegistryFieldsPopulated checks every entry carries the fields the
// pipeline propagates into the metadata store and index.
func TestRegistryFieldsPopulated(t *testing.T) {
	t.Parallel()

	for _, s := range append(All(), Disabled()...) {
		if s.ID == "" || s.URL == "" || s.Title == "" || s.Category == "" {
			t.Fatalf("incomplete source entry: %+v", s)
		}
		if s.Kind != KindPage && s.Kind != KindDocument {
			t.Fatalf("source %s has unknown kind %q", s.ID, s.Kind)
		}
		if s.Cadence != CadenceWeekly && s.Cadence != CadenceMonthly {
			t.Fatalf("source %s has unknown cadence %q", s.ID, s.Cadence)
		}
	}
}

// TestByID confirms lookup hits and misses behave.
func TestByID(t *testing.T) {
	t.Parallel()

	got, ok := ByID("design-guidelines")
	if !ok {
		t.Fatal("expected design-guidelines to exist")
	}
	if got.Kind != KindPage || got.Cadence != CadenceWeekly {
		t.Fatalf("unexpected descriptor: %+v", got)
	}

	if _, ok := ByID("no-such-source"); ok {
		t.Fatal("expected lookup miss for unknown id")
	}
}

// TestByCadencePreservesOrder verifies filtering keeps registry order.
func TestByCadencePreservesOrder(t *testing.T) {
	t.Parallel()

	weekly := ByCadence(CadenceWeekly)
	if len(weekly) == 0 {
		t.Fatal("expected weekly sources")
	}
	idx := map[string]int{}
	for i, s := range All() {
		idx[s.ID] = i
	}
	last := -1
	for _, s := range weekly {
		if idx[s.ID] < last {
			t.Fatalf("cadence filter reordered sources at %s", s.ID)
		}
		last = idx[s.ID]
	}
}

// TestAllReturnsCopy ensures callers cannot mutate the registry.
func TestAllReturnsCopy(t *testing.T) {
	t.Parallel()

	first := All()
	first[0].ID = "mutated"
	if got := All()[0].ID; got == "mutated" {
		t.Fatal("All() exposed the underlying registry slice")
	}
}

// TestParseCadence covers the accepted wire values.
func TestParseCadence(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Cadence
		ok   bool
	}{
		{"weekly", CadenceWeekly, true},
		{"monthly", CadenceMonthly, true},
		{"daily", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseCadence(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseCadence(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
