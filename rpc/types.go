package rpc

import (
	"fracledger/crypto"
	"fracledger/native/milestones"
	"fracledger/native/pool"
	"fracledger/native/referral"
	"fracledger/native/rewards"
	"fracledger/native/staking"
)

// Amounts are rendered as base-unit decimal strings.

type StakeResult struct {
	ID             uint64 `json:"id"`
	Owner          string `json:"owner"`
	Amount         string `json:"amount"`
	Kind           string `json:"kind"`
	LockDays       uint64 `json:"lockDays"`
	APYBps         uint64 `json:"apyBps"`
	StartTime      uint64 `json:"startTime"`
	LockEnd        uint64 `json:"lockEnd"`
	LastClaimTime  uint64 `json:"lastClaimTime"`
	Active         bool   `json:"active"`
	PriorityTier   uint8  `json:"priorityTier"`
	RewardsClaimed string `json:"rewardsClaimed"`
}

func stakeResult(pos *staking.Position) *StakeResult {
	if pos == nil {
		return nil
	}
	return &StakeResult{
		ID:             pos.ID,
		Owner:          crypto.FormatAccount(pos.Owner),
		Amount:         formatAmount(pos.Amount),
		Kind:           pos.Kind.String(),
		LockDays:       pos.LockDays,
		APYBps:         pos.APYBps,
		StartTime:      pos.StartTime,
		LockEnd:        pos.LockEnd,
		LastClaimTime:  pos.LastClaimTime,
		Active:         pos.Active,
		PriorityTier:   pos.PriorityTier,
		RewardsClaimed: formatAmount(pos.RewardsClaimed),
	}
}

type UnstakeResult struct {
	Stake    *StakeResult `json:"stake"`
	Amount   string       `json:"amount"`
	Returned string       `json:"returned"`
	Penalty  string       `json:"penalty"`
}

type GrantResult struct {
	ID              uint64 `json:"id"`
	Recipient       string `json:"recipient"`
	Category        string `json:"category"`
	TotalAmount     string `json:"totalAmount"`
	Policy          string `json:"policy"`
	GrantTime       uint64 `json:"grantTime"`
	VestingDuration uint64 `json:"vestingDuration"`
	Claimed         string `json:"claimed"`
	StagesUnlocked  []bool `json:"stagesUnlocked,omitempty"`
	MilestoneStage  uint8  `json:"milestoneStage"`
	Status          string `json:"status"`
}

func grantResult(grant *rewards.Grant) *GrantResult {
	if grant == nil {
		return nil
	}
	out := &GrantResult{
		ID:              grant.ID,
		Recipient:       crypto.FormatAccount(grant.Recipient),
		Category:        grant.Category.String(),
		TotalAmount:     formatAmount(grant.TotalAmount),
		Policy:          grant.Policy.String(),
		GrantTime:       grant.GrantTime,
		VestingDuration: grant.VestingDuration,
		Claimed:         formatAmount(grant.Claimed),
		MilestoneStage:  grant.MilestoneStage,
		Status:          grant.Status.String(),
	}
	if grant.Policy == rewards.PolicyMilestone {
		out.StagesUnlocked = append([]bool(nil), grant.StageUnlocked[:]...)
	}
	return out
}

type ClaimResult struct {
	Paid  string       `json:"paid"`
	Grant *GrantResult `json:"grant"`
}

type CancelResult struct {
	Grant    *GrantResult `json:"grant"`
	Returned string       `json:"returned"`
}

type EvaluationResult struct {
	Stage     uint8    `json:"stage"`
	Met       []string `json:"met"`
	Missing   []string `json:"missing"`
	Quorum    int      `json:"quorum"`
	Satisfied bool     `json:"satisfied"`
}

func evaluationResult(eval milestones.Evaluation) EvaluationResult {
	return EvaluationResult{
		Stage:     eval.Stage,
		Met:       eval.Met,
		Missing:   eval.Missing,
		Quorum:    eval.Quorum,
		Satisfied: eval.Satisfied,
	}
}

type UnlockResult struct {
	Grant      *GrantResult     `json:"grant"`
	Evaluation EvaluationResult `json:"evaluation"`
}

type ProgressResult struct {
	User            string `json:"user"`
	TradingVolume   string `json:"tradingVolume"`
	StakingDays     uint64 `json:"stakingDays"`
	VotesCast       uint64 `json:"votesCast"`
	VaultsCreated   uint64 `json:"vaultsCreated"`
	VaultTVL        string `json:"vaultTvl"`
	Referrals       uint64 `json:"referrals"`
	TierHoldingDays uint64 `json:"tierHoldingDays"`
	LastUpdated     uint64 `json:"lastUpdated"`
}

func progressResult(user [20]byte, p *milestones.Progress) *ProgressResult {
	if p == nil {
		p = &milestones.Progress{User: user}
	}
	return &ProgressResult{
		User:            crypto.FormatAccount(user),
		TradingVolume:   formatAmount(p.TradingVolume),
		StakingDays:     p.StakingDays,
		VotesCast:       p.VotesCast,
		VaultsCreated:   p.VaultsCreated,
		VaultTVL:        formatAmount(p.VaultTVL),
		Referrals:       p.Referrals,
		TierHoldingDays: p.TierHoldingDays,
		LastUpdated:     p.LastUpdated,
	}
}

type ReferralResult struct {
	Referrer       string `json:"referrer"`
	Code           string `json:"code"`
	TotalReferrals uint64 `json:"totalReferrals"`
	CreatedAt      uint64 `json:"createdAt"`
}

func referralResult(code *referral.Code) *ReferralResult {
	if code == nil {
		return nil
	}
	return &ReferralResult{
		Referrer:       crypto.FormatAccount(code.Referrer),
		Code:           code.Code,
		TotalReferrals: code.TotalReferrals,
		CreatedAt:      code.CreatedAt,
	}
}

type PoolResult struct {
	Allocation    string `json:"allocation"`
	Distributed   string `json:"distributed"`
	Remaining     string `json:"remaining"`
	VestedPending string `json:"vestedPending"`
	TotalStaked   string `json:"totalStaked"`
	ActiveGrants  uint64 `json:"activeGrants"`
}

func poolResult(p *pool.Pool) *PoolResult {
	return &PoolResult{
		Allocation:    formatAmount(p.Allocation),
		Distributed:   formatAmount(p.Distributed),
		Remaining:     formatAmount(p.Remaining),
		VestedPending: formatAmount(p.VestedPending),
		TotalStaked:   formatAmount(p.TotalStaked),
		ActiveGrants:  p.ActiveGrants,
	}
}

type BalanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type TierResult struct {
	Tier uint8 `json:"tier"`
}

type AmountResult struct {
	Amount string `json:"amount"`
}
