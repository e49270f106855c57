package core

import (
	"fmt"

	"fracledger/core/events"
	"fracledger/native/common"
	"fracledger/native/milestones"
	"fracledger/native/pool"
	"fracledger/native/referral"
	"fracledger/native/rewards"
	"fracledger/native/staking"
	"fracledger/native/tiers"

	ledgererrors "fracledger/core/errors"
)

// ResolveTier maps value onto a tier. A named table wins over explicit
// thresholds; the priority table reflects the live staking parameters.
func (l *Ledger) ResolveTier(table string, thresholds []uint64, value uint64) (uint8, error) {
	if table == "" {
		if err := tiers.ValidateAscending(thresholds); err != nil {
			return 0, err
		}
		return tiers.Resolve(thresholds, value), nil
	}
	if normalizeName(table) == tiers.TablePriority {
		return l.PriorityTier(value)
	}
	named, ok := tiers.Named(table)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ledgererrors.ErrUnknownTable, table)
	}
	return tiers.Resolve(named, value), nil
}

// PriorityTier resolves a staked total against the configured priority table.
func (l *Ledger) PriorityTier(totalStaked uint64) (uint8, error) {
	var tier uint8
	err := l.view(func(s *session) error {
		var err error
		tier, err = s.staking.PriorityTier(totalStaked)
		return err
	})
	return tier, err
}

func (l *Ledger) CreateStake(owner [20]byte, amount uint64, kind staking.Kind, lockDays uint64) (*staking.Position, error) {
	var pos *staking.Position
	err := l.update("createStake", func(s *session) error {
		var err error
		pos, err = s.staking.CreateStake(owner, amount, kind, lockDays)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.metrics.RecordStakeCreated(kind.String())
	return pos, nil
}

func (l *Ledger) ClaimStakeRewards(owner [20]byte, id uint64) (uint64, error) {
	var paid uint64
	err := l.update("claimStakeRewards", func(s *session) error {
		var err error
		paid, err = s.staking.ClaimRewards(owner, id)
		return err
	})
	if err != nil {
		return 0, err
	}
	l.metrics.RecordStakeRewards(paid)
	return paid, nil
}

// Unstake withdraws amount of principal; zero withdraws everything.
func (l *Ledger) Unstake(owner [20]byte, id uint64, amount uint64) (*staking.UnstakeResult, error) {
	var result *staking.UnstakeResult
	err := l.update("unstake", func(s *session) error {
		var err error
		result, err = s.staking.Unstake(owner, id, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.metrics.RecordPenalty(result.Penalty)
	return result, nil
}

func (l *Ledger) PreviewStakeRewards(id uint64) (uint64, error) {
	var amount uint64
	err := l.view(func(s *session) error {
		var err error
		amount, err = s.staking.PreviewRewards(id)
		return err
	})
	return amount, err
}

func (l *Ledger) Stake(id uint64) (*staking.Position, error) {
	var pos *staking.Position
	err := l.view(func(s *session) error {
		var err error
		pos, err = s.staking.Position(id)
		return err
	})
	return pos, err
}

func (l *Ledger) Stakes(owner [20]byte) ([]*staking.Position, error) {
	var out []*staking.Position
	err := l.view(func(s *session) error {
		var err error
		out, err = s.staking.Positions(owner)
		return err
	})
	return out, err
}

func (l *Ledger) UpdateApyRates(caller [20]byte, rates staking.RateTable) error {
	return l.update("updateApyRates", func(s *session) error {
		return s.staking.UpdateRates(caller, rates)
	})
}

func (l *Ledger) UpdatePriorityThresholds(caller [20]byte, thresholds []uint64) error {
	return l.update("updatePriorityThresholds", func(s *session) error {
		return s.staking.UpdatePriorityThresholds(caller, thresholds)
	})
}

func (l *Ledger) StakingParams() (*staking.Params, error) {
	var params *staking.Params
	err := l.view(func(s *session) error {
		var err error
		params, err = s.manager.StakingParams()
		return err
	})
	return params, err
}

func (l *Ledger) GrantReward(caller, recipient [20]byte, category rewards.Category, amount, linearDuration uint64) (*rewards.Grant, error) {
	var grant *rewards.Grant
	err := l.update("grantReward", func(s *session) error {
		var err error
		grant, err = s.rewards.GrantReward(caller, recipient, category, amount, linearDuration)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.metrics.RecordGrant(grant.Policy.String())
	return grant, nil
}

func (l *Ledger) ClaimReward(caller [20]byte, id uint64) (uint64, *rewards.Grant, error) {
	var (
		paid  uint64
		grant *rewards.Grant
	)
	err := l.update("claimReward", func(s *session) error {
		var err error
		paid, grant, err = s.rewards.Claim(caller, id)
		return err
	})
	if err != nil {
		return 0, nil, err
	}
	l.metrics.RecordGrantClaim(grant.Policy.String())
	return paid, grant, nil
}

// Claimable previews what ClaimReward would pay now.
func (l *Ledger) Claimable(id uint64) (uint64, error) {
	var amount uint64
	err := l.view(func(s *session) error {
		var err error
		amount, err = s.rewards.Claimable(id)
		return err
	})
	return amount, err
}

func (l *Ledger) CancelGrant(caller [20]byte, id uint64) (*rewards.Grant, uint64, error) {
	var (
		grant    *rewards.Grant
		returned uint64
	)
	err := l.update("cancelGrant", func(s *session) error {
		var err error
		grant, returned, err = s.rewards.CancelGrant(caller, id)
		return err
	})
	return grant, returned, err
}

func (l *Ledger) UnlockMilestoneStage(caller [20]byte, id uint64, stage uint8) (*rewards.Grant, milestones.Evaluation, error) {
	var (
		grant      *rewards.Grant
		evaluation milestones.Evaluation
	)
	err := l.update("unlockMilestoneStage", func(s *session) error {
		var err error
		grant, evaluation, err = s.rewards.UnlockMilestoneStage(caller, id, stage)
		return err
	})
	if err != nil {
		return nil, evaluation, err
	}
	l.metrics.RecordStageUnlocked(stageLabel(stage))
	return grant, evaluation, nil
}

func (l *Ledger) UpdateRewardParams(caller [20]byte, small, medium *uint64) (*rewards.Params, error) {
	var params *rewards.Params
	err := l.update("updateRewardParams", func(s *session) error {
		var err error
		params, err = s.rewards.UpdateParams(caller, small, medium)
		return err
	})
	return params, err
}

func (l *Ledger) Grant(id uint64) (*rewards.Grant, error) {
	var grant *rewards.Grant
	err := l.view(func(s *session) error {
		var err error
		grant, err = s.rewards.Grant(id)
		return err
	})
	return grant, err
}

func (l *Ledger) Grants(recipient [20]byte) ([]*rewards.Grant, error) {
	var out []*rewards.Grant
	err := l.view(func(s *session) error {
		var err error
		out, err = s.rewards.Grants(recipient)
		return err
	})
	return out, err
}

func (l *Ledger) RewardParams() (*rewards.Params, error) {
	var params *rewards.Params
	err := l.view(func(s *session) error {
		var err error
		params, err = s.manager.RewardParams()
		return err
	})
	return params, err
}

func (l *Ledger) RecordActivity(reporter, user [20]byte, kind milestones.ActivityKind, amount uint64) (*milestones.Progress, error) {
	var progress *milestones.Progress
	err := l.update("recordActivity", func(s *session) error {
		var err error
		progress, err = s.tracker.RecordActivity(reporter, user, kind, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.metrics.RecordActivity(kind.String())
	return progress, nil
}

func (l *Ledger) Progress(user [20]byte) (*milestones.Progress, error) {
	var progress *milestones.Progress
	err := l.view(func(s *session) error {
		var err error
		progress, err = s.tracker.Progress(user)
		return err
	})
	return progress, err
}

func (l *Ledger) CreateReferralCode(user [20]byte) (*referral.Code, error) {
	var code *referral.Code
	err := l.update("createReferralCode", func(s *session) error {
		var err error
		code, err = s.referrals.CreateCode(user)
		return err
	})
	return code, err
}

func (l *Ledger) CompleteReferral(reporter [20]byte, code string, referee [20]byte) (*referral.Code, error) {
	var record *referral.Code
	err := l.update("completeReferral", func(s *session) error {
		var err error
		record, err = s.referrals.CompleteReferral(reporter, code, referee)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.metrics.RecordReferral()
	return record, nil
}

// Referral returns the code owned by user, if any.
func (l *Ledger) Referral(user [20]byte) (*referral.Code, bool, error) {
	var (
		record *referral.Code
		found  bool
	)
	err := l.view(func(s *session) error {
		var err error
		record, found, err = s.referrals.CodeOf(user)
		return err
	})
	return record, found, err
}

func (l *Ledger) LookupReferral(code string) (*referral.Code, error) {
	var record *referral.Code
	err := l.view(func(s *session) error {
		var err error
		record, err = s.referrals.Lookup(code)
		return err
	})
	return record, err
}

// SetModulePaused toggles a module's pause flag. Only the authority may call
// it and unpausing is always possible.
func (l *Ledger) SetModulePaused(caller [20]byte, module string, paused bool) error {
	module = normalizeName(module)
	if !common.IsKnownModule(module) {
		return fmt.Errorf("%w: %q", ledgererrors.ErrUnknownModule, module)
	}
	return l.update("setModulePaused", func(s *session) error {
		if err := s.requireAuthority(caller); err != nil {
			return err
		}
		if err := s.manager.SetPaused(module, paused); err != nil {
			return err
		}
		s.emitter.Emit(events.ModulePauseToggled{Module: module, Paused: paused})
		return nil
	})
}

// SetActivityReporter grants or revokes activity reporting rights.
func (l *Ledger) SetActivityReporter(caller, reporter [20]byte, allowed bool) error {
	return l.update("setActivityReporter", func(s *session) error {
		if err := s.requireAuthority(caller); err != nil {
			return err
		}
		if err := s.manager.SetActivityReporter(reporter, allowed); err != nil {
			return err
		}
		s.emitter.Emit(events.ReporterUpdated{Reporter: reporter, Allowed: allowed})
		return nil
	})
}

// Paused lists the paused modules.
func (l *Ledger) Paused() ([]string, error) {
	var out []string
	err := l.view(func(s *session) error {
		for _, module := range common.Modules() {
			if s.manager.IsPaused(module) {
				out = append(out, module)
			}
		}
		return nil
	})
	return out, err
}

func (l *Ledger) Pool() (*pool.Pool, error) {
	var p *pool.Pool
	err := l.view(func(s *session) error {
		var err error
		p, err = s.manager.RewardPool()
		return err
	})
	return p, err
}

func (l *Ledger) Balance(addr [20]byte) (uint64, error) {
	var balance uint64
	err := l.view(func(s *session) error {
		var err error
		balance, err = s.manager.Balance(addr)
		return err
	})
	return balance, err
}
