package milestones

import (
	"fmt"
	"strings"
)

// ActivityKind selects the counter an activity report feeds.
type ActivityKind uint8

const (
	ActivityTrading ActivityKind = iota
	ActivityStaking
	ActivityVoting
	ActivityVaultCreation
	ActivityReferral
	ActivityTierHolding
)

var activityNames = map[ActivityKind]string{
	ActivityTrading:       "trading",
	ActivityStaking:       "staking",
	ActivityVoting:        "voting",
	ActivityVaultCreation: "vault_creation",
	ActivityReferral:      "referral",
	ActivityTierHolding:   "tier_holding",
}

func (k ActivityKind) String() string {
	if name, ok := activityNames[k]; ok {
		return name
	}
	return fmt.Sprintf("activity(%d)", uint8(k))
}

// Valid reports whether k is a known kind.
func (k ActivityKind) Valid() bool {
	_, ok := activityNames[k]
	return ok
}

// ParseActivityKind accepts the String form, case-insensitively.
func ParseActivityKind(raw string) (ActivityKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for kind, name := range activityNames {
		if name == normalized || strings.ReplaceAll(name, "_", "") == normalized {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownActivity, raw)
}

// Progress is a user's lifetime activity record. Counters only grow.
type Progress struct {
	User            [20]byte
	TradingVolume   uint64
	StakingDays     uint64
	VotesCast       uint64
	VaultsCreated   uint64
	VaultTVL        uint64
	Referrals       uint64
	TierHoldingDays uint64
	LastUpdated     uint64
}

// Clone returns a copy of the progress record.
func (p *Progress) Clone() *Progress {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
