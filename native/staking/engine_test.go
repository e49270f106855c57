package staking

import (
	"errors"
	"testing"

	"fracledger/core/events"
	"fracledger/native/common"
	"fracledger/native/pool"
	"fracledger/native/tiers"
)

var errInsufficientBalance = errors.New("insufficient balance")

type mockState struct {
	params    *Params
	positions map[uint64]*Position
	index     map[[20]byte][]uint64
	nextID    uint64
	pool      *pool.Pool
	balances  map[[20]byte]uint64
	authority [20]byte
}

func newMockState(allocation uint64) *mockState {
	return &mockState{
		params:    DefaultParams(addr(0xA1), addr(0xA2), addr(0xA3)),
		positions: make(map[uint64]*Position),
		index:     make(map[[20]byte][]uint64),
		pool:      pool.New(allocation),
		balances:  map[[20]byte]uint64{addr(0xA2): allocation},
		authority: addr(0xAD),
	}
}

func (m *mockState) StakingParams() (*Params, error)  { return m.params.Clone(), nil }
func (m *mockState) PutStakingParams(p *Params) error { m.params = p.Clone(); return nil }

func (m *mockState) StakePositionGet(id uint64) (*Position, bool, error) {
	pos, ok := m.positions[id]
	if !ok {
		return nil, false, nil
	}
	return pos.Clone(), true, nil
}

func (m *mockState) StakePositionPut(pos *Position) error {
	m.positions[pos.ID] = pos.Clone()
	return nil
}

func (m *mockState) StakePositionIDs(owner [20]byte) ([]uint64, error) {
	return append([]uint64(nil), m.index[owner]...), nil
}

func (m *mockState) StakePositionIndex(owner [20]byte, id uint64) error {
	m.index[owner] = append(m.index[owner], id)
	return nil
}

func (m *mockState) NextStakePositionID() (uint64, error) {
	m.nextID++
	return m.nextID, nil
}

func (m *mockState) RewardPool() (*pool.Pool, error) { return m.pool.Clone(), nil }
func (m *mockState) PutRewardPool(p *pool.Pool) error {
	m.pool = p.Clone()
	return nil
}

func (m *mockState) Transfer(from, to [20]byte, amount uint64) error {
	if m.balances[from] < amount {
		return errInsufficientBalance
	}
	m.balances[from] -= amount
	m.balances[to] += amount
	return nil
}

func (m *mockState) IsAuthority(a [20]byte) (bool, error) { return a == m.authority, nil }

type pauseSet map[string]bool

func (p pauseSet) IsPaused(module string) bool { return p[module] }

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

const unit = tiers.Unit

func newTestEngine(t *testing.T) (*Engine, *mockState, *int64) {
	t.Helper()
	state := newMockState(1_000_000 * unit)
	engine := NewEngine()
	engine.SetState(state)
	now := int64(1_700_000_000)
	engine.SetNowFunc(func() int64 { return now })
	return engine, state, &now
}

func TestCreateStakeValidation(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	owner := addr(1)
	state.balances[owner] = 1_000 * unit

	if _, err := engine.CreateStake(owner, 99*unit, KindFlexible, 0); !errors.Is(err, ErrStakeAmountTooLow) {
		t.Fatalf("expected ErrStakeAmountTooLow, got %v", err)
	}
	if _, err := engine.CreateStake(owner, 100*unit, KindFixedTerm, 45); !errors.Is(err, ErrInvalidLockDuration) {
		t.Fatalf("expected ErrInvalidLockDuration, got %v", err)
	}
	if _, err := engine.CreateStake(owner, 100*unit, Kind(9), 30); !errors.Is(err, ErrInvalidLockDuration) {
		t.Fatalf("expected unknown kind rejection, got %v", err)
	}
	if _, err := engine.CreateStake(owner, 2_000*unit, KindFlexible, 0); !errors.Is(err, errInsufficientBalance) {
		t.Fatalf("expected transfer failure, got %v", err)
	}
	if len(state.positions) != 0 || state.pool.TotalStaked != 0 {
		t.Fatalf("failed stakes must not persist state")
	}
}

func TestCreateStakeFreezesRateAndTier(t *testing.T) {
	engine, state, now := newTestEngine(t)
	owner := addr(1)
	state.balances[owner] = 20_000 * unit
	buf := &events.Buffer{}
	engine.SetEmitter(buf)

	pos, err := engine.CreateStake(owner, 10_000*unit, KindFixedTerm, 90)
	if err != nil {
		t.Fatalf("create stake: %v", err)
	}
	if pos.APYBps != 1_000 {
		t.Fatalf("expected 1000 bps, got %d", pos.APYBps)
	}
	if pos.LockEnd != uint64(*now)+90*SecondsPerDay {
		t.Fatalf("unexpected lock end %d", pos.LockEnd)
	}
	if pos.PriorityTier != 2 {
		t.Fatalf("expected tier 2, got %d", pos.PriorityTier)
	}
	if state.balances[state.params.Vault] != 10_000*unit {
		t.Fatalf("vault not funded")
	}
	if state.pool.TotalStaked != 10_000*unit {
		t.Fatalf("total staked not updated")
	}

	rates := DefaultRateTable()
	rates[2].APYBps = 2_000
	if err := engine.UpdateRates(state.authority, rates); err != nil {
		t.Fatalf("update rates: %v", err)
	}
	stored, err := engine.Position(pos.ID)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if stored.APYBps != 1_000 {
		t.Fatalf("existing position rate changed to %d", stored.APYBps)
	}
	second, err := engine.CreateStake(owner, 100*unit, KindFixedTerm, 90)
	if err != nil {
		t.Fatalf("second stake: %v", err)
	}
	if second.APYBps != 2_000 {
		t.Fatalf("new position should use updated rate, got %d", second.APYBps)
	}
	drained := buf.Drain()
	if len(drained) != 3 || drained[0].EventType() != events.TypeStakeCreated || drained[1].EventType() != events.TypeStakeRatesUpdated {
		t.Fatalf("unexpected events %v", drained)
	}
}

func TestClaimRewardsOneYearAtSixteenPercent(t *testing.T) {
	engine, state, now := newTestEngine(t)
	owner := addr(1)
	state.balances[owner] = 100_000 * unit

	pos, err := engine.CreateStake(owner, 100_000*unit, KindFixedTerm, 365)
	if err != nil {
		t.Fatalf("create stake: %v", err)
	}
	*now += int64(SecondsPerYear)
	preview, err := engine.PreviewRewards(pos.ID)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	paid, err := engine.ClaimRewards(owner, pos.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	const want = uint64(507_009) * 31_557_600
	if paid != want || preview != want {
		t.Fatalf("expected %d, got paid=%d preview=%d", want, paid, preview)
	}
	if state.balances[owner] != want {
		t.Fatalf("owner balance %d", state.balances[owner])
	}
	if state.pool.Distributed != want || state.pool.Validate() != nil {
		t.Fatalf("pool not updated: %+v", state.pool)
	}
	if _, err := engine.ClaimRewards(owner, pos.ID); !errors.Is(err, ErrNoRewardsToClaim) {
		t.Fatalf("expected ErrNoRewardsToClaim, got %v", err)
	}
	stored, _ := engine.Position(pos.ID)
	if stored.LastClaimTime != uint64(*now) || stored.RewardsClaimed != want {
		t.Fatalf("claim clock not reset: %+v", stored)
	}
}

func TestClaimRewardsChecks(t *testing.T) {
	engine, state, now := newTestEngine(t)
	owner := addr(1)
	state.balances[owner] = 1_000 * unit
	pos, err := engine.CreateStake(owner, 1_000*unit, KindFlexible, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	*now += 86_400
	if _, err := engine.ClaimRewards(addr(2), pos.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := engine.ClaimRewards(owner, 999); !errors.Is(err, ErrPositionNotFound) {
		t.Fatalf("expected ErrPositionNotFound, got %v", err)
	}
	state.pool = &pool.Pool{Allocation: 1, Remaining: 1}
	if _, err := engine.ClaimRewards(owner, pos.ID); !errors.Is(err, pool.ErrInsufficientRewardsPool) {
		t.Fatalf("expected ErrInsufficientRewardsPool, got %v", err)
	}
	engine.SetPauses(pauseSet{common.ModuleStaking: true})
	if _, err := engine.ClaimRewards(owner, pos.ID); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
}

func TestEarlyUnstakePaysPenalty(t *testing.T) {
	engine, state, now := newTestEngine(t)
	owner := addr(1)
	state.balances[owner] = 5_000 * unit
	pos, err := engine.CreateStake(owner, 5_000*unit, KindFixedTerm, 180)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	*now += 10 * int64(SecondsPerDay)
	res, err := engine.Unstake(owner, pos.ID, 0)
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if res.Penalty != 500*unit || res.Returned != 4_500*unit {
		t.Fatalf("unexpected split %+v", res)
	}
	if state.balances[state.params.Treasury] != 500*unit || state.balances[owner] != 4_500*unit {
		t.Fatalf("unexpected balances treasury=%d owner=%d", state.balances[state.params.Treasury], state.balances[owner])
	}
	if res.Position.Active || res.Position.Amount != 0 || res.Position.PriorityTier != 0 {
		t.Fatalf("position should be inactive: %+v", res.Position)
	}
	if state.pool.TotalStaked != 0 {
		t.Fatalf("total staked not reduced")
	}
	if _, err := engine.Unstake(owner, pos.ID, 0); !errors.Is(err, ErrStakeNotActive) {
		t.Fatalf("expected ErrStakeNotActive, got %v", err)
	}
	if _, err := engine.ClaimRewards(owner, pos.ID); !errors.Is(err, ErrStakeNotActive) {
		t.Fatalf("expected ErrStakeNotActive on claim, got %v", err)
	}
}

func TestPartialUnstakeAfterLock(t *testing.T) {
	engine, state, now := newTestEngine(t)
	owner := addr(1)
	state.balances[owner] = 12_000 * unit
	pos, err := engine.CreateStake(owner, 12_000*unit, KindFixedTerm, 30)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := engine.Unstake(owner, pos.ID, 12_001*unit); !errors.Is(err, ErrInsufficientStakedAmount) {
		t.Fatalf("expected ErrInsufficientStakedAmount, got %v", err)
	}
	*now += 30 * int64(SecondsPerDay)
	res, err := engine.Unstake(owner, pos.ID, 3_000*unit)
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if res.Penalty != 0 || res.Returned != 3_000*unit {
		t.Fatalf("no penalty expected after lock end: %+v", res)
	}
	if !res.Position.Active || res.Position.Amount != 9_000*unit || res.Position.PriorityTier != 1 {
		t.Fatalf("unexpected position %+v", res.Position)
	}
	positions, err := engine.Positions(owner)
	if err != nil || len(positions) != 1 {
		t.Fatalf("positions: %v %v", positions, err)
	}
}

func TestAdminUpdatesRequireAuthority(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	if err := engine.UpdateRates(addr(9), DefaultRateTable()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	bad := DefaultRateTable()
	bad[4].APYBps = 10_001
	if err := engine.UpdateRates(state.authority, bad); !errors.Is(err, ErrInvalidApyRate) {
		t.Fatalf("expected ErrInvalidApyRate, got %v", err)
	}
	if err := engine.UpdateRates(state.authority, bad[:4]); !errors.Is(err, ErrInvalidLockDuration) {
		t.Fatalf("expected incomplete table rejection, got %v", err)
	}
	if err := engine.UpdatePriorityThresholds(state.authority, []uint64{0, 10, 5}); !errors.Is(err, tiers.ErrInvalidThresholds) {
		t.Fatalf("expected ErrInvalidThresholds, got %v", err)
	}
	if err := engine.UpdatePriorityThresholds(state.authority, []uint64{0, 50 * unit}); err != nil {
		t.Fatalf("update thresholds: %v", err)
	}
	tier, err := engine.PriorityTier(60 * unit)
	if err != nil || tier != 1 {
		t.Fatalf("expected tier 1, got %d (%v)", tier, err)
	}
}

func TestAccruedFloorsPerSecondRate(t *testing.T) {
	pos := &Position{Amount: 100 * unit, APYBps: 500, LastClaimTime: 10, Active: true}
	// 100e9 * 500 / 10000 / 31557600 = 158.4..., floored to 158 per second.
	got, err := Accrued(pos, 20)
	if err != nil {
		t.Fatalf("accrued: %v", err)
	}
	if got != 1_580 {
		t.Fatalf("expected 1580, got %d", got)
	}
	if zero, _ := Accrued(pos, 5); zero != 0 {
		t.Fatalf("expected zero before last claim")
	}
}

func TestCreateStakeAcceptsAnyKindWithAllowedLock(t *testing.T) {
	engine, state, now := newTestEngine(t)
	owner := addr(1)
	state.balances[owner] = 1_000 * unit

	flexible, err := engine.CreateStake(owner, 100*unit, KindFlexible, 30)
	if err != nil {
		t.Fatalf("flexible with 30 day lock: %v", err)
	}
	if flexible.LockEnd != 0 {
		t.Fatalf("flexible positions have no lock end, got %d", flexible.LockEnd)
	}
	if flexible.APYBps != 700 {
		t.Fatalf("expected 30 day rate 700, got %d", flexible.APYBps)
	}
	fixed, err := engine.CreateStake(owner, 100*unit, KindFixedTerm, 0)
	if err != nil {
		t.Fatalf("fixed term with no lock: %v", err)
	}
	if fixed.LockEnd != uint64(*now) || fixed.APYBps != 500 {
		t.Fatalf("unexpected fixed term position %+v", fixed)
	}

	// Neither position is locked, so both exit without penalty.
	*now += 86_400
	for _, id := range []uint64{flexible.ID, fixed.ID} {
		res, err := engine.Unstake(owner, id, 0)
		if err != nil {
			t.Fatalf("unstake %d: %v", id, err)
		}
		if res.Penalty != 0 || res.Returned != 100*unit {
			t.Fatalf("unexpected unstake result for %d: %+v", id, res)
		}
	}
}
