package genesis

import (
	"fmt"
	"strings"

	"fracledger/native/common"
	"fracledger/native/tiers"
)

const decimals = 9

// ParseAmount converts a token amount such as "1000" or "0.25" into base
// units. At most nine fractional digits are accepted.
func ParseAmount(raw string) (uint64, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(raw), "_", "")
	if trimmed == "" {
		return 0, fmt.Errorf("amount must not be empty")
	}
	whole, frac, hasFrac := strings.Cut(trimmed, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && (frac == "" || len(frac) > decimals) {
		return 0, fmt.Errorf("amount %q: fractional part must have 1-%d digits", raw, decimals)
	}
	wholeUnits, err := parseDigits(whole)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", raw, err)
	}
	base, err := common.MulU64(wholeUnits, tiers.Unit)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", raw, err)
	}
	if !hasFrac {
		return base, nil
	}
	fracUnits, err := parseDigits(frac + strings.Repeat("0", decimals-len(frac)))
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", raw, err)
	}
	total, err := common.AddU64(base, fracUnits)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", raw, err)
	}
	return total, nil
}

func parseDigits(s string) (uint64, error) {
	var out uint64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid digit %q", r)
		}
		next, err := common.MulU64(out, 10)
		if err != nil {
			return 0, err
		}
		if out, err = common.AddU64(next, uint64(r-'0')); err != nil {
			return 0, err
		}
	}
	return out, nil
}
