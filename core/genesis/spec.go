package genesis

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"fracledger/crypto"
	"fracledger/native/common"
	"fracledger/native/rewards"
	"fracledger/native/staking"
	"fracledger/native/tiers"
)

// Spec describes the initial ledger state. JSON documents are accepted too
// since they are valid YAML.
type Spec struct {
	Authority     string            `yaml:"authority" json:"authority"`
	Reporters     []string          `yaml:"reporters" json:"reporters"`
	Accounts      AccountsSpec      `yaml:"accounts" json:"accounts"`
	RewardPool    string            `yaml:"rewardPool" json:"rewardPool"`
	Alloc         map[string]string `yaml:"alloc" json:"alloc"`
	Staking       StakingSpec       `yaml:"staking" json:"staking"`
	Rewards       RewardsSpec       `yaml:"rewards" json:"rewards"`
	PausedModules []string          `yaml:"pausedModules" json:"pausedModules"`
}

// AccountsSpec names the system accounts.
type AccountsSpec struct {
	StakingVault string `yaml:"stakingVault" json:"stakingVault"`
	RewardsVault string `yaml:"rewardsVault" json:"rewardsVault"`
	Treasury     string `yaml:"treasury" json:"treasury"`
}

// StakingSpec overrides staking defaults. Empty fields keep the default.
type StakingSpec struct {
	MinStake            string            `yaml:"minStake" json:"minStake"`
	EarlyExitPenaltyBps *uint64           `yaml:"earlyExitPenaltyBps" json:"earlyExitPenaltyBps"`
	Rates               map[string]uint64 `yaml:"rates" json:"rates"`
	PriorityThresholds  []string          `yaml:"priorityThresholds" json:"priorityThresholds"`
}

// RewardsSpec overrides the vesting policy thresholds.
type RewardsSpec struct {
	SmallThreshold  string `yaml:"smallThreshold" json:"smallThreshold"`
	MediumThreshold string `yaml:"mediumThreshold" json:"mediumThreshold"`
}

// Load reads and validates the genesis file at path.
func Load(path string) (*Spec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	spec, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("genesis spec %q: %w", path, err)
	}
	return spec, nil
}

// Parse decodes and validates a genesis document. Unknown fields are rejected.
func Parse(raw []byte) (*Spec, error) {
	var spec Spec
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode: empty document")
		}
		return nil, fmt.Errorf("decode: %w", err)
	}
	if _, err := spec.Resolve(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Resolved is the validated, binary form of a Spec.
type Resolved struct {
	Authority       [20]byte
	Reporters       [][20]byte
	StakingVault    [20]byte
	RewardsVault    [20]byte
	Treasury        [20]byte
	RewardPool      uint64
	Alloc           []Allocation
	Staking         *staking.Params
	SmallThreshold  uint64
	MediumThreshold uint64
	Paused          []string
}

// Allocation is an initial balance.
type Allocation struct {
	Account [20]byte
	Amount  uint64
}

// Resolve parses addresses and amounts and applies defaults.
func (s *Spec) Resolve() (*Resolved, error) {
	out := &Resolved{}
	var err error
	if out.Authority, err = crypto.ParseAccount(s.Authority); err != nil {
		return nil, fmt.Errorf("authority: %w", err)
	}
	for i, raw := range s.Reporters {
		addr, err := crypto.ParseAccount(raw)
		if err != nil {
			return nil, fmt.Errorf("reporters[%d]: %w", i, err)
		}
		out.Reporters = append(out.Reporters, addr)
	}
	if out.StakingVault, err = crypto.ParseAccount(s.Accounts.StakingVault); err != nil {
		return nil, fmt.Errorf("accounts.stakingVault: %w", err)
	}
	if out.RewardsVault, err = crypto.ParseAccount(s.Accounts.RewardsVault); err != nil {
		return nil, fmt.Errorf("accounts.rewardsVault: %w", err)
	}
	if out.Treasury, err = crypto.ParseAccount(s.Accounts.Treasury); err != nil {
		return nil, fmt.Errorf("accounts.treasury: %w", err)
	}
	if out.StakingVault == out.RewardsVault {
		return nil, fmt.Errorf("accounts: staking vault and rewards vault must differ")
	}
	if out.RewardPool, err = ParseAmount(s.RewardPool); err != nil {
		return nil, fmt.Errorf("rewardPool: %w", err)
	}

	accounts := make([]string, 0, len(s.Alloc))
	for account := range s.Alloc {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	for _, account := range accounts {
		addr, err := crypto.ParseAccount(account)
		if err != nil {
			return nil, fmt.Errorf("alloc[%q]: %w", account, err)
		}
		if addr == out.RewardsVault {
			return nil, fmt.Errorf("alloc[%q]: rewards vault is funded by rewardPool", account)
		}
		amount, err := ParseAmount(s.Alloc[account])
		if err != nil {
			return nil, fmt.Errorf("alloc[%q]: %w", account, err)
		}
		out.Alloc = append(out.Alloc, Allocation{Account: addr, Amount: amount})
	}

	params := staking.DefaultParams(out.StakingVault, out.RewardsVault, out.Treasury)
	if strings.TrimSpace(s.Staking.MinStake) != "" {
		if params.MinStake, err = ParseAmount(s.Staking.MinStake); err != nil {
			return nil, fmt.Errorf("staking.minStake: %w", err)
		}
	}
	if s.Staking.EarlyExitPenaltyBps != nil {
		params.EarlyExitPenaltyBps = *s.Staking.EarlyExitPenaltyBps
	}
	if len(s.Staking.Rates) > 0 {
		rates := make(map[uint64]uint64, len(s.Staking.Rates))
		for rawDays, bps := range s.Staking.Rates {
			days, err := strconv.ParseUint(strings.TrimSpace(rawDays), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("staking.rates[%q]: %w", rawDays, err)
			}
			rates[days] = bps
		}
		params.Rates = staking.RateTableFromMap(rates)
	}
	if len(s.Staking.PriorityThresholds) > 0 {
		thresholds := make([]uint64, 0, len(s.Staking.PriorityThresholds))
		for i, raw := range s.Staking.PriorityThresholds {
			value, err := ParseAmount(raw)
			if err != nil {
				return nil, fmt.Errorf("staking.priorityThresholds[%d]: %w", i, err)
			}
			thresholds = append(thresholds, value)
		}
		params.PriorityThresholds = thresholds
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("staking: %w", err)
	}
	out.Staking = params

	out.SmallThreshold = rewards.DefaultSmallThreshold
	out.MediumThreshold = rewards.DefaultMediumThreshold
	if strings.TrimSpace(s.Rewards.SmallThreshold) != "" {
		if out.SmallThreshold, err = ParseAmount(s.Rewards.SmallThreshold); err != nil {
			return nil, fmt.Errorf("rewards.smallThreshold: %w", err)
		}
	}
	if strings.TrimSpace(s.Rewards.MediumThreshold) != "" {
		if out.MediumThreshold, err = ParseAmount(s.Rewards.MediumThreshold); err != nil {
			return nil, fmt.Errorf("rewards.mediumThreshold: %w", err)
		}
	}
	if err := tiers.Validate([]uint64{0, out.SmallThreshold, out.MediumThreshold}); err != nil {
		return nil, fmt.Errorf("rewards: %w", err)
	}

	for _, module := range s.PausedModules {
		normalized := strings.ToLower(strings.TrimSpace(module))
		if !common.IsKnownModule(normalized) {
			return nil, fmt.Errorf("pausedModules: unknown module %q", module)
		}
		out.Paused = append(out.Paused, normalized)
	}
	return out, nil
}
