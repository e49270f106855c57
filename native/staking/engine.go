package staking

import (
	"fmt"
	"time"

	"fracledger/core/events"
	"fracledger/native/common"
	"fracledger/native/pool"
	"fracledger/native/tiers"
)

type engineState interface {
	StakingParams() (*Params, error)
	PutStakingParams(params *Params) error
	StakePositionGet(id uint64) (*Position, bool, error)
	StakePositionPut(pos *Position) error
	StakePositionIDs(owner [20]byte) ([]uint64, error)
	StakePositionIndex(owner [20]byte, id uint64) error
	NextStakePositionID() (uint64, error)
	RewardPool() (*pool.Pool, error)
	PutRewardPool(p *pool.Pool) error
	Transfer(from, to [20]byte, amount uint64) error
	IsAuthority(addr [20]byte) (bool, error)
}

// Engine implements stake positions and their yield accrual.
type Engine struct {
	state   engineState
	emitter events.Emitter
	pauses  common.PauseView
	nowFn   func() int64
}

// NewEngine constructs a staking engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses wires the pause registry consulted before mutations.
func (e *Engine) SetPauses(p common.PauseView) { e.pauses = p }

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() uint64 {
	var ts int64
	if e == nil || e.nowFn == nil {
		ts = time.Now().Unix()
	} else {
		ts = e.nowFn()
	}
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nil
}

// CreateStake opens a new position for owner and moves amount into the
// staking vault.
func (e *Engine) CreateStake(owner [20]byte, amount uint64, kind Kind, lockDays uint64) (*Position, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.pauses, common.ModuleStaking); err != nil {
		return nil, err
	}
	params, err := e.state.StakingParams()
	if err != nil {
		return nil, err
	}
	if amount < params.MinStake {
		return nil, ErrStakeAmountTooLow
	}
	if !IsAllowedLock(lockDays) {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidLockDuration, lockDays)
	}
	if kind != KindFlexible && kind != KindFixedTerm {
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalidLockDuration, kind)
	}
	apy, ok := params.Rates.Rate(lockDays)
	if !ok {
		return nil, fmt.Errorf("%w: no rate for %d days", ErrInvalidLockDuration, lockDays)
	}
	now := e.now()
	// Flexible positions keep the rate of their lock choice but never lock.
	var lockEnd uint64
	if kind == KindFixedTerm {
		span, err := common.MulU64(lockDays, SecondsPerDay)
		if err != nil {
			return nil, err
		}
		if lockEnd, err = common.AddU64(now, span); err != nil {
			return nil, err
		}
	}
	rewardPool, err := e.state.RewardPool()
	if err != nil {
		return nil, err
	}
	if err := rewardPool.AddStake(amount); err != nil {
		return nil, err
	}
	id, err := e.state.NextStakePositionID()
	if err != nil {
		return nil, err
	}
	if err := e.state.Transfer(owner, params.Vault, amount); err != nil {
		return nil, fmt.Errorf("stake transfer: %w", err)
	}
	pos := &Position{
		ID:            id,
		Owner:         owner,
		Amount:        amount,
		Kind:          kind,
		LockDays:      lockDays,
		APYBps:        apy,
		StartTime:     now,
		LockEnd:       lockEnd,
		LastClaimTime: now,
		Active:        true,
		PriorityTier:  tiers.Resolve(params.PriorityThresholds, amount),
	}
	if err := e.state.StakePositionPut(pos); err != nil {
		return nil, err
	}
	if err := e.state.StakePositionIndex(owner, id); err != nil {
		return nil, err
	}
	if err := e.state.PutRewardPool(rewardPool); err != nil {
		return nil, err
	}
	e.emit(events.StakeCreated{
		ID:           pos.ID,
		Owner:        owner,
		Amount:       amount,
		Kind:         kind.String(),
		LockDays:     lockDays,
		APYBps:       apy,
		LockEnd:      lockEnd,
		PriorityTier: pos.PriorityTier,
	})
	return pos.Clone(), nil
}

// Accrued computes the yield owed to pos at now. The per-second rate is
// floored before it is multiplied by the elapsed time.
func Accrued(pos *Position, now uint64) (uint64, error) {
	if pos == nil || !pos.Active || now <= pos.LastClaimTime {
		return 0, nil
	}
	elapsed := now - pos.LastClaimTime
	denominator, err := common.MulU64(common.BasisPoints, SecondsPerYear)
	if err != nil {
		return 0, err
	}
	perSecond, err := common.MulDiv(pos.Amount, pos.APYBps, denominator)
	if err != nil {
		return 0, err
	}
	return common.MulU64(perSecond, elapsed)
}

func (e *Engine) ownedActive(owner [20]byte, id uint64) (*Position, error) {
	pos, ok, err := e.state.StakePositionGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPositionNotFound
	}
	if pos.Owner != owner {
		return nil, ErrUnauthorized
	}
	if !pos.Active {
		return nil, ErrStakeNotActive
	}
	return pos, nil
}

// ClaimRewards pays the yield accrued since the last claim out of the reward
// reserve.
func (e *Engine) ClaimRewards(owner [20]byte, id uint64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if err := common.Guard(e.pauses, common.ModuleStaking); err != nil {
		return 0, err
	}
	pos, err := e.ownedActive(owner, id)
	if err != nil {
		return 0, err
	}
	now := e.now()
	payable, err := Accrued(pos, now)
	if err != nil {
		return 0, err
	}
	if payable == 0 {
		return 0, ErrNoRewardsToClaim
	}
	params, err := e.state.StakingParams()
	if err != nil {
		return 0, err
	}
	rewardPool, err := e.state.RewardPool()
	if err != nil {
		return 0, err
	}
	if err := rewardPool.Distribute(payable); err != nil {
		return 0, err
	}
	claimed, err := common.AddU64(pos.RewardsClaimed, payable)
	if err != nil {
		return 0, err
	}
	if err := e.state.Transfer(params.RewardsVault, owner, payable); err != nil {
		return 0, fmt.Errorf("reward transfer: %w", err)
	}
	elapsed := now - pos.LastClaimTime
	pos.LastClaimTime = now
	pos.RewardsClaimed = claimed
	if err := e.state.StakePositionPut(pos); err != nil {
		return 0, err
	}
	if err := e.state.PutRewardPool(rewardPool); err != nil {
		return 0, err
	}
	e.emit(events.StakeRewardsClaimed{ID: id, Owner: owner, Paid: payable, Elapsed: elapsed})
	return payable, nil
}

// Unstake withdraws amount of principal, or all of it when amount is zero.
// Fixed-term positions exiting before their lock end pay the early exit
// penalty to the treasury.
func (e *Engine) Unstake(owner [20]byte, id uint64, amount uint64) (*UnstakeResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.pauses, common.ModuleStaking); err != nil {
		return nil, err
	}
	pos, err := e.ownedActive(owner, id)
	if err != nil {
		return nil, err
	}
	if amount > pos.Amount {
		return nil, ErrInsufficientStakedAmount
	}
	if amount == 0 {
		amount = pos.Amount
	}
	params, err := e.state.StakingParams()
	if err != nil {
		return nil, err
	}
	var penalty uint64
	if pos.Locked(e.now()) {
		if penalty, err = common.ApplyBps(amount, params.EarlyExitPenaltyBps); err != nil {
			return nil, err
		}
	}
	returned, err := common.SubU64(amount, penalty)
	if err != nil {
		return nil, err
	}
	remaining, err := common.SubU64(pos.Amount, amount)
	if err != nil {
		return nil, err
	}
	rewardPool, err := e.state.RewardPool()
	if err != nil {
		return nil, err
	}
	if err := rewardPool.RemoveStake(amount); err != nil {
		return nil, err
	}
	if returned > 0 {
		if err := e.state.Transfer(params.Vault, owner, returned); err != nil {
			return nil, fmt.Errorf("unstake transfer: %w", err)
		}
	}
	if penalty > 0 {
		if err := e.state.Transfer(params.Vault, params.Treasury, penalty); err != nil {
			return nil, fmt.Errorf("penalty transfer: %w", err)
		}
	}
	pos.Amount = remaining
	pos.Active = remaining > 0
	pos.PriorityTier = tiers.Resolve(params.PriorityThresholds, remaining)
	if remaining == 0 {
		pos.PriorityTier = 0
	}
	if err := e.state.StakePositionPut(pos); err != nil {
		return nil, err
	}
	if err := e.state.PutRewardPool(rewardPool); err != nil {
		return nil, err
	}
	e.emit(events.StakeUnstaked{
		ID:           id,
		Owner:        owner,
		Amount:       amount,
		Returned:     returned,
		Penalty:      penalty,
		Remaining:    remaining,
		Active:       pos.Active,
		PriorityTier: pos.PriorityTier,
	})
	return &UnstakeResult{Position: pos.Clone(), Amount: amount, Returned: returned, Penalty: penalty}, nil
}

func (e *Engine) requireAuthority(caller [20]byte) error {
	ok, err := e.state.IsAuthority(caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// UpdateRates replaces the APY table. Existing positions keep the rate they
// were created with.
func (e *Engine) UpdateRates(caller [20]byte, rates RateTable) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireAuthority(caller); err != nil {
		return err
	}
	if err := rates.Validate(); err != nil {
		return err
	}
	params, err := e.state.StakingParams()
	if err != nil {
		return err
	}
	params.Rates = rates.Clone()
	if err := e.state.PutStakingParams(params); err != nil {
		return err
	}
	e.emit(events.StakeRatesUpdated{Rates: params.Rates.Map()})
	return nil
}

// UpdatePriorityThresholds replaces the priority tier table.
func (e *Engine) UpdatePriorityThresholds(caller [20]byte, thresholds []uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireAuthority(caller); err != nil {
		return err
	}
	if err := tiers.Validate(thresholds); err != nil {
		return err
	}
	params, err := e.state.StakingParams()
	if err != nil {
		return err
	}
	params.PriorityThresholds = tiers.Clone(thresholds)
	if err := e.state.PutStakingParams(params); err != nil {
		return err
	}
	e.emit(events.StakeThresholdsUpdated{Thresholds: tiers.Clone(thresholds)})
	return nil
}

// PriorityTier resolves a staked total against the configured table.
func (e *Engine) PriorityTier(totalStaked uint64) (uint8, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	params, err := e.state.StakingParams()
	if err != nil {
		return 0, err
	}
	return tiers.Resolve(params.PriorityThresholds, totalStaked), nil
}

// Position returns a copy of the stored position.
func (e *Engine) Position(id uint64) (*Position, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	pos, ok, err := e.state.StakePositionGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPositionNotFound
	}
	return pos, nil
}

// Positions lists every position ever opened by owner.
func (e *Engine) Positions(owner [20]byte) ([]*Position, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	ids, err := e.state.StakePositionIDs(owner)
	if err != nil {
		return nil, err
	}
	out := make([]*Position, 0, len(ids))
	for _, id := range ids {
		pos, ok, err := e.state.StakePositionGet(id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, pos)
		}
	}
	return out, nil
}

// PreviewRewards reports what ClaimRewards would pay right now.
func (e *Engine) PreviewRewards(id uint64) (uint64, error) {
	pos, err := e.Position(id)
	if err != nil {
		return 0, err
	}
	return Accrued(pos, e.now())
}
