package staking

import (
	"fmt"
	"sort"
	"strings"

	"fracledger/native/tiers"
)

const (
	// SecondsPerYear uses the Julian year.
	SecondsPerYear uint64 = 31_557_600
	// SecondsPerDay converts lock durations into deadlines.
	SecondsPerDay uint64 = 86_400
	// DefaultMinStake is 100 FRAC.
	DefaultMinStake = 100 * tiers.Unit
	// DefaultEarlyExitPenaltyBps is the fixed-term early exit penalty (10%).
	DefaultEarlyExitPenaltyBps uint64 = 1_000
	// MaxAPYBps caps any configured rate at 100%.
	MaxAPYBps uint64 = 10_000
)

// LockDurations lists the accepted lock lengths in days.
var LockDurations = []uint64{0, 30, 90, 180, 365}

// IsAllowedLock reports whether days is an accepted lock length.
func IsAllowedLock(days uint64) bool {
	for _, allowed := range LockDurations {
		if allowed == days {
			return true
		}
	}
	return false
}

// Kind distinguishes flexible positions from fixed-term locks.
type Kind uint8

const (
	KindFlexible Kind = iota
	KindFixedTerm
)

func (k Kind) String() string {
	switch k {
	case KindFlexible:
		return "flexible"
	case KindFixedTerm:
		return "fixed_term"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind accepts the String form, case-insensitively.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "flexible":
		return KindFlexible, nil
	case "fixed_term", "fixedterm", "fixed":
		return KindFixedTerm, nil
	default:
		return 0, fmt.Errorf("unknown stake kind %q", raw)
	}
}

// Position is a single stake action. Positions are never deleted; once the
// principal reaches zero they stay inactive.
type Position struct {
	ID             uint64
	Owner          [20]byte
	Amount         uint64
	Kind           Kind
	LockDays       uint64
	APYBps         uint64
	StartTime      uint64
	LockEnd        uint64
	LastClaimTime  uint64
	Active         bool
	PriorityTier   uint8
	RewardsClaimed uint64
}

// Clone returns a copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// Locked reports whether an early exit at now would be penalised.
func (p *Position) Locked(now uint64) bool {
	return p != nil && p.Kind == KindFixedTerm && now < p.LockEnd
}

// RateEntry maps a lock duration onto an annual rate.
type RateEntry struct {
	LockDays uint64
	APYBps   uint64
}

// RateTable is kept sorted by LockDays.
type RateTable []RateEntry

// DefaultRateTable returns 5% / 7% / 10% / 13% / 16% for 0 / 30 / 90 / 180 / 365 days.
func DefaultRateTable() RateTable {
	return RateTable{
		{LockDays: 0, APYBps: 500},
		{LockDays: 30, APYBps: 700},
		{LockDays: 90, APYBps: 1_000},
		{LockDays: 180, APYBps: 1_300},
		{LockDays: 365, APYBps: 1_600},
	}
}

// Rate returns the annual rate for a lock duration.
func (t RateTable) Rate(lockDays uint64) (uint64, bool) {
	for _, entry := range t {
		if entry.LockDays == lockDays {
			return entry.APYBps, true
		}
	}
	return 0, false
}

// Clone returns a sorted copy.
func (t RateTable) Clone() RateTable {
	out := append(RateTable(nil), t...)
	sort.Slice(out, func(i, j int) bool { return out[i].LockDays < out[j].LockDays })
	return out
}

// Map renders the table as lock days to bps.
func (t RateTable) Map() map[uint64]uint64 {
	out := make(map[uint64]uint64, len(t))
	for _, entry := range t {
		out[entry.LockDays] = entry.APYBps
	}
	return out
}

// Validate requires exactly one rate per allowed lock and caps each at 100%.
func (t RateTable) Validate() error {
	if len(t) != len(LockDurations) {
		return fmt.Errorf("%w: expected %d rates, got %d", ErrInvalidLockDuration, len(LockDurations), len(t))
	}
	seen := make(map[uint64]struct{}, len(t))
	for _, entry := range t {
		if !IsAllowedLock(entry.LockDays) {
			return fmt.Errorf("%w: %d days", ErrInvalidLockDuration, entry.LockDays)
		}
		if _, dup := seen[entry.LockDays]; dup {
			return fmt.Errorf("%w: duplicate rate for %d days", ErrInvalidLockDuration, entry.LockDays)
		}
		seen[entry.LockDays] = struct{}{}
		if entry.APYBps > MaxAPYBps {
			return fmt.Errorf("%w: %d bps for %d days", ErrInvalidApyRate, entry.APYBps, entry.LockDays)
		}
	}
	return nil
}

// RateTableFromMap builds a sorted table from lock days to bps.
func RateTableFromMap(rates map[uint64]uint64) RateTable {
	out := make(RateTable, 0, len(rates))
	for days, bps := range rates {
		out = append(out, RateEntry{LockDays: days, APYBps: bps})
	}
	return out.Clone()
}

// Params are the staking knobs persisted with the pool.
type Params struct {
	MinStake            uint64
	EarlyExitPenaltyBps uint64
	Rates               RateTable
	PriorityThresholds  []uint64
	// Vault holds staked principal.
	Vault [20]byte
	// RewardsVault funds yield payouts.
	RewardsVault [20]byte
	// Treasury receives early exit penalties.
	Treasury [20]byte
}

// DefaultParams returns the launch configuration with the supplied accounts.
func DefaultParams(vault, rewardsVault, treasury [20]byte) *Params {
	return &Params{
		MinStake:            DefaultMinStake,
		EarlyExitPenaltyBps: DefaultEarlyExitPenaltyBps,
		Rates:               DefaultRateTable(),
		PriorityThresholds:  tiers.PriorityThresholds(),
		Vault:               vault,
		RewardsVault:        rewardsVault,
		Treasury:            treasury,
	}
}

// Clone returns a deep copy of the params.
func (p *Params) Clone() *Params {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Rates = p.Rates.Clone()
	clone.PriorityThresholds = tiers.Clone(p.PriorityThresholds)
	return &clone
}

// Validate checks the params before they are stored.
func (p *Params) Validate() error {
	if p == nil {
		return fmt.Errorf("staking: params missing")
	}
	if p.MinStake == 0 {
		return fmt.Errorf("staking: min stake must be positive")
	}
	if p.EarlyExitPenaltyBps > MaxAPYBps {
		return fmt.Errorf("staking: penalty %d bps exceeds 10000", p.EarlyExitPenaltyBps)
	}
	if err := p.Rates.Validate(); err != nil {
		return err
	}
	return tiers.Validate(p.PriorityThresholds)
}

// UnstakeResult describes the funds moved by an unstake.
type UnstakeResult struct {
	Position *Position
	Amount   uint64
	Returned uint64
	Penalty  uint64
}
