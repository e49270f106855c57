package rewards

import (
	"fmt"
	"time"

	"fracledger/core/events"
	"fracledger/native/common"
	"fracledger/native/milestones"
	"fracledger/native/pool"
)

type engineState interface {
	RewardParams() (*Params, error)
	PutRewardParams(params *Params) error
	RewardGrantGet(id uint64) (*Grant, bool, error)
	RewardGrantPut(grant *Grant) error
	RewardGrantIDs(recipient [20]byte) ([]uint64, error)
	RewardGrantIndex(recipient [20]byte, id uint64) error
	NextRewardGrantID() (uint64, error)
	RewardPool() (*pool.Pool, error)
	PutRewardPool(p *pool.Pool) error
	MilestoneProgressGet(user [20]byte) (*milestones.Progress, bool, error)
	Transfer(from, to [20]byte, amount uint64) error
	IsAuthority(addr [20]byte) (bool, error)
}

// Engine implements incentive grants and their vesting.
type Engine struct {
	state   engineState
	emitter events.Emitter
	pauses  common.PauseView
	nowFn   func() int64
}

// NewEngine constructs a rewards engine with default dependencies.
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
	ts := time.Now().Unix()
	if e.nowFn != nil {
		ts = e.nowFn()
	}
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) emit(evt events.Event) {
	if e.emitter == nil || evt == nil {
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

// GrantReward reserves amount for recipient. The vesting policy is chosen
// from amount and never re-evaluated.
func (e *Engine) GrantReward(caller, recipient [20]byte, category Category, amount, linearDuration uint64) (*Grant, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.pauses, common.ModuleRewards); err != nil {
		return nil, err
	}
	if err := e.requireAuthority(caller); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}
	params, err := e.state.RewardParams()
	if err != nil {
		return nil, err
	}
	policy := params.SelectPolicy(amount)
	var duration uint64
	switch policy {
	case PolicyLinear:
		if linearDuration == 0 {
			return nil, ErrInvalidVestingDuration
		}
		duration = linearDuration
	case PolicyMilestone:
		duration = milestones.VestingHorizon
	}
	rewardPool, err := e.state.RewardPool()
	if err != nil {
		return nil, err
	}
	if err := rewardPool.Reserve(amount); err != nil {
		return nil, err
	}
	if err := rewardPool.OpenGrant(); err != nil {
		return nil, err
	}
	id, err := e.state.NextRewardGrantID()
	if err != nil {
		return nil, err
	}
	grant := &Grant{
		ID:              id,
		Recipient:       recipient,
		Category:        category,
		TotalAmount:     amount,
		Policy:          policy,
		GrantTime:       e.now(),
		VestingDuration: duration,
		Status:          StatusActive,
	}
	if err := e.state.RewardGrantPut(grant); err != nil {
		return nil, err
	}
	if err := e.state.RewardGrantIndex(recipient, id); err != nil {
		return nil, err
	}
	if err := e.state.PutRewardPool(rewardPool); err != nil {
		return nil, err
	}
	e.emit(events.RewardGranted{
		ID:              id,
		Recipient:       recipient,
		Category:        category.String(),
		Amount:          amount,
		Policy:          policy.String(),
		VestingDuration: duration,
	})
	return grant.Clone(), nil
}

// Entitled returns how much of the grant has vested at now, ignoring what
// was already claimed.
func Entitled(g *Grant, now uint64) (uint64, error) {
	if g == nil {
		return 0, nil
	}
	switch g.Policy {
	case PolicyImmediate:
		return g.TotalAmount, nil
	case PolicyLinear:
		if now <= g.GrantTime {
			return 0, nil
		}
		elapsed := now - g.GrantTime
		if g.VestingDuration == 0 || elapsed >= g.VestingDuration {
			return g.TotalAmount, nil
		}
		return common.MulDiv(g.TotalAmount, elapsed, g.VestingDuration)
	case PolicyMilestone:
		return common.MulDiv(g.TotalAmount, g.UnlockedPercent(), 100)
	default:
		return 0, fmt.Errorf("rewards: unknown policy %d", g.Policy)
	}
}

// ClaimableAt returns the amount an active grant can pay out at now.
func ClaimableAt(g *Grant, now uint64) (uint64, error) {
	if g == nil || g.Status != StatusActive {
		return 0, nil
	}
	entitled, err := Entitled(g, now)
	if err != nil {
		return 0, err
	}
	if entitled <= g.Claimed {
		return 0, nil
	}
	return entitled - g.Claimed, nil
}

func (e *Engine) load(id uint64) (*Grant, error) {
	grant, ok, err := e.state.RewardGrantGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGrantNotFound
	}
	return grant, nil
}

// Claim pays the vested but unclaimed part of a grant to its recipient.
func (e *Engine) Claim(caller [20]byte, id uint64) (uint64, *Grant, error) {
	if err := e.ready(); err != nil {
		return 0, nil, err
	}
	if err := common.Guard(e.pauses, common.ModuleRewards); err != nil {
		return 0, nil, err
	}
	grant, err := e.load(id)
	if err != nil {
		return 0, nil, err
	}
	if grant.Recipient != caller {
		return 0, nil, ErrUnauthorized
	}
	if grant.Status != StatusActive {
		return 0, nil, ErrGrantNotActive
	}
	amount, err := ClaimableAt(grant, e.now())
	if err != nil {
		return 0, nil, err
	}
	if amount == 0 {
		return 0, nil, ErrNoClaimableRewards
	}
	claimed, err := common.AddU64(grant.Claimed, amount)
	if err != nil {
		return 0, nil, err
	}
	if claimed > grant.TotalAmount {
		return 0, nil, common.ErrMathOverflow
	}
	params, err := e.state.RewardParams()
	if err != nil {
		return 0, nil, err
	}
	rewardPool, err := e.state.RewardPool()
	if err != nil {
		return 0, nil, err
	}
	if err := rewardPool.Release(amount); err != nil {
		return 0, nil, err
	}
	grant.Claimed = claimed
	if claimed == grant.TotalAmount {
		grant.Status = StatusCompleted
		if err := rewardPool.CloseGrant(); err != nil {
			return 0, nil, err
		}
	}
	if err := e.state.Transfer(params.Vault, caller, amount); err != nil {
		return 0, nil, fmt.Errorf("grant transfer: %w", err)
	}
	if err := e.state.RewardGrantPut(grant); err != nil {
		return 0, nil, err
	}
	if err := e.state.PutRewardPool(rewardPool); err != nil {
		return 0, nil, err
	}
	e.emit(events.RewardClaimed{
		ID:        id,
		Recipient: caller,
		Amount:    amount,
		Claimed:   claimed,
		Status:    grant.Status.String(),
	})
	return amount, grant.Clone(), nil
}

// Claimable previews Claim without mutating state.
func (e *Engine) Claimable(id uint64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	grant, err := e.load(id)
	if err != nil {
		return 0, err
	}
	return ClaimableAt(grant, e.now())
}

// CancelGrant ends an active grant and returns its unclaimed remainder to
// the reserve.
func (e *Engine) CancelGrant(caller [20]byte, id uint64) (*Grant, uint64, error) {
	if err := e.ready(); err != nil {
		return nil, 0, err
	}
	if err := e.requireAuthority(caller); err != nil {
		return nil, 0, err
	}
	grant, err := e.load(id)
	if err != nil {
		return nil, 0, err
	}
	if grant.Status != StatusActive {
		return nil, 0, ErrGrantNotActive
	}
	returned, err := common.SubU64(grant.TotalAmount, grant.Claimed)
	if err != nil {
		return nil, 0, err
	}
	rewardPool, err := e.state.RewardPool()
	if err != nil {
		return nil, 0, err
	}
	if err := rewardPool.Restore(returned); err != nil {
		return nil, 0, err
	}
	if err := rewardPool.CloseGrant(); err != nil {
		return nil, 0, err
	}
	grant.Status = StatusCancelled
	if err := e.state.RewardGrantPut(grant); err != nil {
		return nil, 0, err
	}
	if err := e.state.PutRewardPool(rewardPool); err != nil {
		return nil, 0, err
	}
	e.emit(events.RewardCancelled{ID: id, Recipient: grant.Recipient, Returned: returned})
	return grant.Clone(), returned, nil
}

// UnlockMilestoneStage flips a stage flag once its age, prerequisite and
// checklist are satisfied. No funds move; the recipient claims separately.
func (e *Engine) UnlockMilestoneStage(caller [20]byte, id uint64, stage uint8) (*Grant, milestones.Evaluation, error) {
	var eval milestones.Evaluation
	if err := e.ready(); err != nil {
		return nil, eval, err
	}
	if err := common.Guard(e.pauses, common.ModuleRewards); err != nil {
		return nil, eval, err
	}
	grant, err := e.load(id)
	if err != nil {
		return nil, eval, err
	}
	if grant.Recipient != caller {
		return nil, eval, ErrUnauthorized
	}
	req, err := milestones.RequirementFor(stage)
	if err != nil {
		return nil, eval, err
	}
	if grant.Policy != PolicyMilestone {
		return nil, eval, ErrNotMilestoneVesting
	}
	if grant.Status != StatusActive {
		return nil, eval, ErrGrantNotActive
	}
	if grant.Unlocked(stage) {
		return nil, eval, ErrAlreadyUnlocked
	}
	if stage > 1 && !grant.Unlocked(stage-1) {
		return nil, eval, ErrPreviousStageLocked
	}
	now := e.now()
	if now < grant.GrantTime || now-grant.GrantTime < req.MinAge {
		return nil, eval, ErrTimeRequirementNotMet
	}
	progress, _, err := e.state.MilestoneProgressGet(grant.Recipient)
	if err != nil {
		return nil, eval, err
	}
	eval, err = milestones.Evaluate(stage, progress)
	if err != nil {
		return nil, eval, err
	}
	if !eval.Satisfied {
		return nil, eval, fmt.Errorf("%w: %d of %d criteria met", ErrMilestonesNotMet, len(eval.Met), eval.Quorum)
	}
	grant.StageUnlocked[stage-1] = true
	if stage > grant.MilestoneStage {
		grant.MilestoneStage = stage
	}
	if err := e.state.RewardGrantPut(grant); err != nil {
		return nil, eval, err
	}
	e.emit(events.RewardStageUnlocked{
		ID:          id,
		Recipient:   grant.Recipient,
		Stage:       stage,
		CriteriaMet: uint8(len(eval.Met)),
	})
	return grant.Clone(), eval, nil
}

// UpdateParams changes the policy thresholds. Nil values keep the current
// setting. Existing grants keep their policy.
func (e *Engine) UpdateParams(caller [20]byte, small, medium *uint64) (*Params, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.requireAuthority(caller); err != nil {
		return nil, err
	}
	params, err := e.state.RewardParams()
	if err != nil {
		return nil, err
	}
	next := params.Clone()
	if small != nil {
		next.SmallThreshold = *small
	}
	if medium != nil {
		next.MediumThreshold = *medium
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if err := e.state.PutRewardParams(next); err != nil {
		return nil, err
	}
	e.emit(events.RewardParamsUpdated{SmallThreshold: next.SmallThreshold, MediumThreshold: next.MediumThreshold})
	return next.Clone(), nil
}

// Grant returns a copy of the stored grant.
func (e *Engine) Grant(id uint64) (*Grant, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.load(id)
}

// Grants lists every grant awarded to recipient.
func (e *Engine) Grants(recipient [20]byte) ([]*Grant, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	ids, err := e.state.RewardGrantIDs(recipient)
	if err != nil {
		return nil, err
	}
	out := make([]*Grant, 0, len(ids))
	for _, id := range ids {
		grant, ok, err := e.state.RewardGrantGet(id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, grant)
		}
	}
	return out, nil
}
