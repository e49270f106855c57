// Package tiers maps quantities onto discrete tiers using ascending threshold
// tables. Every table that can be changed at runtime goes through Validate
// before it is stored.
package tiers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidThresholds is returned when a table is empty, does not start at
// zero, or is not strictly ascending.
var ErrInvalidThresholds = errors.New("tiers: invalid thresholds")

// Token base units per whole FRAC.
const Unit uint64 = 1_000_000_000

// Table names exposed through the query interface.
const (
	TablePriority   = "priority"
	TableAccess     = "access"
	TableCollateral = "collateral"
)

// Resolve returns the largest index i such that value >= thresholds[i],
// scanning from the highest threshold down. A value below every threshold
// resolves to tier 0.
func Resolve(thresholds []uint64, value uint64) uint8 {
	for i := len(thresholds) - 1; i >= 0; i-- {
		if value >= thresholds[i] {
			return uint8(i)
		}
	}
	return 0
}

// Validate checks that thresholds[0] == 0 and the table strictly ascends.
// Tables that can be set by governance must pass it.
func Validate(thresholds []uint64) error {
	if err := ValidateAscending(thresholds); err != nil {
		return err
	}
	if thresholds[0] != 0 {
		return fmt.Errorf("%w: first threshold must be zero", ErrInvalidThresholds)
	}
	return nil
}

// ValidateAscending accepts any non-empty strictly ascending table. Queries
// use it; a table whose first entry is above zero still resolves.
func ValidateAscending(thresholds []uint64) error {
	if len(thresholds) == 0 {
		return fmt.Errorf("%w: table is empty", ErrInvalidThresholds)
	}
	if len(thresholds) > 255 {
		return fmt.Errorf("%w: table has %d entries", ErrInvalidThresholds, len(thresholds))
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return fmt.Errorf("%w: threshold %d (%d) not above %d", ErrInvalidThresholds, i, thresholds[i], thresholds[i-1])
		}
	}
	return nil
}

func tokens(values ...uint64) []uint64 {
	out := make([]uint64, len(values))
	for i, v := range values {
		out[i] = v * Unit
	}
	return out
}

// PriorityThresholds is the default staking priority table:
// 1,000 / 10,000 / 100,000 FRAC map to tiers 1 / 2 / 3.
func PriorityThresholds() []uint64 { return tokens(0, 1_000, 10_000, 100_000) }

// AccessThresholds is the feature-access table consumed by gating services.
func AccessThresholds() []uint64 { return tokens(0, 5_000, 15_000, 50_000, 150_000) }

// CollateralThresholds is the enterprise collateral table.
func CollateralThresholds() []uint64 {
	return tokens(0, 100_000, 500_000, 1_000_000, 5_000_000)
}

var builtin = map[string]func() []uint64{
	TablePriority:   PriorityThresholds,
	TableAccess:     AccessThresholds,
	TableCollateral: CollateralThresholds,
}

// Named returns a copy of a built-in table.
func Named(name string) ([]uint64, bool) {
	fn, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// Names lists the built-in tables in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy of thresholds.
func Clone(thresholds []uint64) []uint64 {
	if thresholds == nil {
		return nil
	}
	return append([]uint64(nil), thresholds...)
}
