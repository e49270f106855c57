package common

import (
	"errors"
	"math"
	"testing"
)

func TestAddSubOverflow(t *testing.T) {
	if _, err := AddU64(math.MaxUint64, 1); !errors.Is(err, ErrMathOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if _, err := SubU64(1, 2); !errors.Is(err, ErrMathOverflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
	sum, err := AddU64(40, 2)
	if err != nil || sum != 42 {
		t.Fatalf("unexpected sum %d err %v", sum, err)
	}
	diff, err := SubU64(42, 2)
	if err != nil || diff != 40 {
		t.Fatalf("unexpected diff %d err %v", diff, err)
	}
}

func TestMulU64(t *testing.T) {
	if _, err := MulU64(math.MaxUint64, 2); !errors.Is(err, ErrMathOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	product, err := MulU64(507_009, 31_557_600)
	if err != nil {
		t.Fatalf("mul: %v", err)
	}
	if product != 15_999_987_218_400 {
		t.Fatalf("unexpected product %d", product)
	}
}

func TestMulDivUsesWideIntermediate(t *testing.T) {
	// amount*rate exceeds uint64 but the quotient does not.
	got, err := MulDiv(math.MaxUint64, 5_000, BasisPoints)
	if err != nil {
		t.Fatalf("muldiv: %v", err)
	}
	if got != math.MaxUint64/2 {
		t.Fatalf("unexpected quotient %d", got)
	}
	if _, err := MulDiv(math.MaxUint64, 3, 2); !errors.Is(err, ErrMathOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if _, err := MulDiv(1, 1, 0); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}
}

func TestApplyBpsFloors(t *testing.T) {
	got, err := ApplyBps(999, 1_000)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got != 99 {
		t.Fatalf("expected floor 99, got %d", got)
	}
}

type staticPauses map[string]bool

func (s staticPauses) IsPaused(module string) bool { return s[module] }

func TestGuard(t *testing.T) {
	if err := Guard(nil, ModuleStaking); err != nil {
		t.Fatalf("nil view should not block: %v", err)
	}
	pauses := staticPauses{ModuleRewards: true}
	if err := Guard(pauses, ModuleRewards); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected paused, got %v", err)
	}
	if err := Guard(pauses, ModuleStaking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !IsKnownModule(ModuleReferral) || IsKnownModule("swap") {
		t.Fatalf("unexpected module registry")
	}
}
