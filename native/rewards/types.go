package rewards

import (
	"fmt"
	"strings"

	"fracledger/native/milestones"
	"fracledger/native/tiers"
)

const (
	// DefaultSmallThreshold separates immediate grants from linear ones.
	DefaultSmallThreshold = 1_000 * tiers.Unit
	// DefaultMediumThreshold separates linear grants from milestone ones.
	DefaultMediumThreshold = 10_000 * tiers.Unit
)

// Category records why a grant was awarded.
type Category uint8

const (
	CategoryTradingRebate Category = iota
	CategoryLiquidityProvision
	CategoryReferral
	CategoryGovernanceVoting
	CategoryVaultCreation
	CategoryTesterAirdrop
	CategoryCommunityGrant
)

var categoryNames = []string{
	"trading_rebate",
	"liquidity_provision",
	"referral",
	"governance_voting",
	"vault_creation",
	"tester_airdrop",
	"community_grant",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool { return int(c) < len(categoryNames) }

// ParseCategory accepts the String form, case-insensitively.
func ParseCategory(raw string) (Category, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	for i, name := range categoryNames {
		if name == normalized || strings.ReplaceAll(name, "_", "") == normalized {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, raw)
}

// Policy determines how a grant vests.
type Policy uint8

const (
	PolicyImmediate Policy = iota
	PolicyLinear
	PolicyMilestone
)

func (p Policy) String() string {
	switch p {
	case PolicyImmediate:
		return "immediate"
	case PolicyLinear:
		return "linear"
	case PolicyMilestone:
		return "milestone"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// Status is the grant lifecycle state.
type Status uint8

const (
	StatusActive Status = iota
	StatusCompleted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Grant is a single incentive award.
type Grant struct {
	ID              uint64
	Recipient       [20]byte
	Category        Category
	TotalAmount     uint64
	Policy          Policy
	GrantTime       uint64
	VestingDuration uint64
	Claimed         uint64
	StageUnlocked   [milestones.Stages]bool
	// MilestoneStage is the highest unlocked stage.
	MilestoneStage uint8
	Status         Status
}

// Clone returns a copy of the grant.
func (g *Grant) Clone() *Grant {
	if g == nil {
		return nil
	}
	clone := *g
	return &clone
}

// Unlocked reports whether stage 1..3 has been unlocked.
func (g *Grant) Unlocked(stage uint8) bool {
	if g == nil || stage < 1 || int(stage) > len(g.StageUnlocked) {
		return false
	}
	return g.StageUnlocked[stage-1]
}

// UnlockedPercent sums the release share of every unlocked stage.
func (g *Grant) UnlockedPercent() uint64 {
	var pct uint64
	for i, unlocked := range g.StageUnlocked {
		if unlocked {
			pct += milestones.Percent(uint8(i + 1))
		}
	}
	return pct
}

// Params configure policy selection and the reserve vault.
type Params struct {
	SmallThreshold  uint64
	MediumThreshold uint64
	Vault           [20]byte
}

// DefaultParams returns the launch thresholds paying out of vault.
func DefaultParams(vault [20]byte) *Params {
	return &Params{
		SmallThreshold:  DefaultSmallThreshold,
		MediumThreshold: DefaultMediumThreshold,
		Vault:           vault,
	}
}

// Clone returns a copy of the params.
func (p *Params) Clone() *Params {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// Thresholds renders the policy table used with tiers.Resolve.
func (p *Params) Thresholds() []uint64 {
	return []uint64{0, p.SmallThreshold, p.MediumThreshold}
}

// Validate checks the policy table ordering.
func (p *Params) Validate() error {
	if p == nil {
		return fmt.Errorf("rewards: params missing")
	}
	return tiers.Validate(p.Thresholds())
}

// SelectPolicy maps a grant amount onto its vesting policy.
func (p *Params) SelectPolicy(amount uint64) Policy {
	return Policy(tiers.Resolve(p.Thresholds(), amount))
}
