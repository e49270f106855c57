package milestones

import "fracledger/native/tiers"

const secondsPerDay uint64 = 86_400

// VestingHorizon is the vesting duration recorded on milestone grants.
const VestingHorizon = 1_095 * secondsPerDay

// Criterion is a single checklist item evaluated against a progress record.
type Criterion struct {
	Name  string
	Check func(*Progress) bool
}

// Requirement describes what unlocking a stage takes.
type Requirement struct {
	Stage uint8
	// MinAge is the minimum time since the grant was created, in seconds.
	MinAge uint64
	// Quorum is the number of criteria that must hold.
	Quorum int
	// Percent of the grant released once the stage is unlocked.
	Percent  uint64
	Criteria []Criterion
}

func volumeAtLeast(tokens uint64) Criterion {
	return Criterion{Name: "trading_volume", Check: func(p *Progress) bool { return p.TradingVolume >= tokens*tiers.Unit }}
}

func stakingDaysAtLeast(days uint64) Criterion {
	return Criterion{Name: "staking_days", Check: func(p *Progress) bool { return p.StakingDays >= days }}
}

func votesAtLeast(votes uint64) Criterion {
	return Criterion{Name: "votes", Check: func(p *Progress) bool { return p.VotesCast >= votes }}
}

func vaultsAtLeast(count, tvlTokens uint64) Criterion {
	return Criterion{Name: "vaults", Check: func(p *Progress) bool {
		return p.VaultsCreated >= count && p.VaultTVL >= tvlTokens*tiers.Unit
	}}
}

func referralsAtLeast(count uint64) Criterion {
	return Criterion{Name: "referrals", Check: func(p *Progress) bool { return p.Referrals >= count }}
}

func tierHoldingAtLeast(days uint64) Criterion {
	return Criterion{Name: "tier_holding_days", Check: func(p *Progress) bool { return p.TierHoldingDays >= days }}
}

var requirements = [...]Requirement{
	{
		Stage:   1,
		MinAge:  365 * secondsPerDay,
		Quorum:  2,
		Percent: 10,
		Criteria: []Criterion{
			volumeAtLeast(10_000),
			stakingDaysAtLeast(90),
			votesAtLeast(5),
			referralsAtLeast(3),
		},
	},
	{
		Stage:   2,
		MinAge:  730 * secondsPerDay,
		Quorum:  3,
		Percent: 30,
		Criteria: []Criterion{
			volumeAtLeast(50_000),
			stakingDaysAtLeast(180),
			votesAtLeast(15),
			vaultsAtLeast(1, 10_000),
			referralsAtLeast(10),
		},
	},
	{
		Stage:   3,
		MinAge:  1_095 * secondsPerDay,
		Quorum:  3,
		Percent: 60,
		Criteria: []Criterion{
			volumeAtLeast(200_000),
			stakingDaysAtLeast(365),
			votesAtLeast(30),
			vaultsAtLeast(3, 50_000),
			referralsAtLeast(25),
			tierHoldingAtLeast(180),
		},
	},
}

// Stages is the number of milestone stages.
const Stages = len(requirements)

// RequirementFor returns the requirement of stage 1..3.
func RequirementFor(stage uint8) (Requirement, error) {
	if stage < 1 || int(stage) > len(requirements) {
		return Requirement{}, ErrInvalidStage
	}
	return requirements[stage-1], nil
}

// Percent returns the share released by stage, or 0 for unknown stages.
func Percent(stage uint8) uint64 {
	req, err := RequirementFor(stage)
	if err != nil {
		return 0
	}
	return req.Percent
}

// Evaluation reports how a progress record fares against a stage.
type Evaluation struct {
	Stage     uint8
	Met       []string
	Missing   []string
	Quorum    int
	Satisfied bool
}

// Evaluate checks the stage checklist against progress. A nil progress
// record satisfies nothing.
func Evaluate(stage uint8, progress *Progress) (Evaluation, error) {
	req, err := RequirementFor(stage)
	if err != nil {
		return Evaluation{}, err
	}
	if progress == nil {
		progress = &Progress{}
	}
	eval := Evaluation{Stage: stage, Quorum: req.Quorum}
	for _, criterion := range req.Criteria {
		if criterion.Check(progress) {
			eval.Met = append(eval.Met, criterion.Name)
		} else {
			eval.Missing = append(eval.Missing, criterion.Name)
		}
	}
	eval.Satisfied = len(eval.Met) >= req.Quorum
	return eval, nil
}
