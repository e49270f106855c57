package tiers

import (
	"errors"
	"testing"
)

func TestResolvePriorityTable(t *testing.T) {
	table := PriorityThresholds()
	cases := []struct {
		value uint64
		want  uint8
	}{
		{0, 0},
		{999 * Unit, 0},
		{1_000 * Unit, 1},
		{9_999 * Unit, 1},
		{10_000 * Unit, 2},
		{100_000*Unit - 1, 2},
		{100_000 * Unit, 3},
		{5_000_000 * Unit, 3},
	}
	for _, tc := range cases {
		if got := Resolve(table, tc.value); got != tc.want {
			t.Fatalf("Resolve(%d) = %d, want %d", tc.value, got, tc.want)
		}
	}
}

func TestResolveMonotonic(t *testing.T) {
	for _, name := range Names() {
		table, ok := Named(name)
		if !ok {
			t.Fatalf("missing table %s", name)
		}
		var prev uint8
		for value := uint64(0); value <= 6_000_000*Unit; value += 37_000 * Unit {
			tier := Resolve(table, value)
			if tier < prev {
				t.Fatalf("%s: tier decreased at %d (%d < %d)", name, value, tier, prev)
			}
			prev = tier
		}
	}
}

func TestResolveEmptyTable(t *testing.T) {
	if got := Resolve(nil, 42); got != 0 {
		t.Fatalf("expected tier 0, got %d", got)
	}
}

func TestValidate(t *testing.T) {
	for _, name := range Names() {
		table, _ := Named(name)
		if err := Validate(table); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
	invalid := [][]uint64{
		nil,
		{1, 2, 3},
		{0, 5, 5},
		{0, 10, 3},
	}
	for _, table := range invalid {
		if err := Validate(table); !errors.Is(err, ErrInvalidThresholds) {
			t.Fatalf("expected ErrInvalidThresholds for %v, got %v", table, err)
		}
	}
}

func TestValidateAscendingAllowsNonZeroStart(t *testing.T) {
	if err := ValidateAscending([]uint64{500, 1000}); err != nil {
		t.Fatalf("ascending table rejected: %v", err)
	}
	if err := Validate([]uint64{500, 1000}); !errors.Is(err, ErrInvalidThresholds) {
		t.Fatalf("expected governance validation to require a zero start, got %v", err)
	}
	for _, table := range [][]uint64{nil, {0, 5, 5}, {10, 3}} {
		if err := ValidateAscending(table); !errors.Is(err, ErrInvalidThresholds) {
			t.Fatalf("expected ErrInvalidThresholds for %v, got %v", table, err)
		}
	}
}

func TestNamedReturnsCopy(t *testing.T) {
	table, ok := Named(" Access ")
	if !ok {
		t.Fatalf("expected access table")
	}
	table[1] = 1
	again, _ := Named(TableAccess)
	if again[1] != 5_000*Unit {
		t.Fatalf("builtin table mutated: %v", again)
	}
	if _, ok := Named("unknown"); ok {
		t.Fatalf("unexpected table")
	}
}
