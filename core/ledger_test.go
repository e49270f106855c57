package core

import (
	"bytes"
	"errors"
	"testing"

	"fracledger/core/events"
	"fracledger/core/genesis"
	"fracledger/crypto"
	"fracledger/native/bank"
	"fracledger/native/common"
	"fracledger/native/milestones"
	"fracledger/native/referral"
	"fracledger/native/rewards"
	"fracledger/native/staking"
	"fracledger/native/tiers"
	"fracledger/storage"

	ledgererrors "fracledger/core/errors"
)

const (
	genesisTime = int64(1_700_000_000)
	day         = int64(staking.SecondsPerDay)
)

var (
	authority    = raw(0xA1)
	reporter     = raw(0xA2)
	stakingVault = raw(0xB1)
	rewardsVault = raw(0xB2)
	treasury     = raw(0xB3)
	alice        = raw(0x01)
	bob          = raw(0x02)
)

func raw(b byte) [20]byte {
	var out [20]byte
	copy(out[:], bytes.Repeat([]byte{b}, 20))
	return out
}

func bech(addr [20]byte) string {
	return crypto.FormatAccount(addr)
}

type testClock struct{ now int64 }

func (c *testClock) Now() int64 { return c.now }
func (c *testClock) Advance(seconds int64) { c.now += seconds }

type recordingSink struct{ events []events.Event }

func (r *recordingSink) Emit(evt events.Event) { r.events = append(r.events, evt) }

func testSpec() *genesis.Spec {
	return &genesis.Spec{
		Authority: bech(authority),
		Reporters: []string{bech(reporter)},
		Accounts: genesis.AccountsSpec{
			StakingVault: bech(stakingVault),
			RewardsVault: bech(rewardsVault),
			Treasury:     bech(treasury),
		},
		RewardPool: "1000000",
		Alloc: map[string]string{
			bech(alice): "200000",
			bech(bob):   "50",
		},
	}
}

func newTestLedger(t *testing.T, db storage.Database) (*Ledger, *testClock, *recordingSink) {
	t.Helper()
	clock := &testClock{now: genesisTime}
	sink := &recordingSink{}
	ledger, err := NewLedger(db, WithClock(clock.Now), WithEventSink(sink))
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	ok, err := ledger.Initialised()
	if err != nil {
		t.Fatalf("initialised: %v", err)
	}
	if !ok {
		if err := ledger.InitGenesis(testSpec()); err != nil {
			t.Fatalf("genesis: %v", err)
		}
	}
	return ledger, clock, sink
}

func tokens(n uint64) uint64 { return n * tiers.Unit }

func requirePoolBalanced(t *testing.T, ledger *Ledger) {
	t.Helper()
	p, err := ledger.Pool()
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if p.Distributed+p.Remaining+p.VestedPending != p.Allocation {
		t.Fatalf("pool imbalanced: %+v", p)
	}
}

func balance(t *testing.T, ledger *Ledger, addr [20]byte) uint64 {
	t.Helper()
	amount, err := ledger.Balance(addr)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return amount
}

func TestLedgerRequiresGenesis(t *testing.T) {
	ledger, err := NewLedger(storage.NewMemDB())
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	if _, err := ledger.CreateStake(alice, tokens(100), staking.KindFlexible, 0); !errors.Is(err, ledgererrors.ErrNotInitialised) {
		t.Fatalf("expected ErrNotInitialised, got %v", err)
	}
	if _, err := ledger.Pool(); !errors.Is(err, ledgererrors.ErrNotInitialised) {
		t.Fatalf("expected ErrNotInitialised on read, got %v", err)
	}
	if _, err := NewLedger(nil); err == nil {
		t.Fatalf("expected error for nil database")
	}
}

func TestGenesisCannotBeReapplied(t *testing.T) {
	ledger, _, _ := newTestLedger(t, storage.NewMemDB())
	if err := ledger.InitGenesis(testSpec()); !errors.Is(err, genesis.ErrAlreadyInitialised) {
		t.Fatalf("expected ErrAlreadyInitialised, got %v", err)
	}
}

func TestStakeFullYearClaim(t *testing.T) {
	ledger, clock, _ := newTestLedger(t, storage.NewMemDB())

	pos, err := ledger.CreateStake(alice, tokens(100_000), staking.KindFixedTerm, 365)
	if err != nil {
		t.Fatalf("create stake: %v", err)
	}
	if pos.ID != 1 || pos.APYBps != 1600 || pos.PriorityTier != 3 {
		t.Fatalf("unexpected position %+v", pos)
	}
	if got := balance(t, ledger, stakingVault); got != tokens(100_000) {
		t.Fatalf("vault not funded: %d", got)
	}

	clock.Advance(int64(staking.SecondsPerYear))
	preview, err := ledger.PreviewStakeRewards(pos.ID)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	paid, err := ledger.ClaimStakeRewards(alice, pos.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	const want = uint64(507_009) * staking.SecondsPerYear
	if paid != want || preview != want {
		t.Fatalf("expected %d, got paid=%d preview=%d", want, paid, preview)
	}
	if got := balance(t, ledger, alice); got != tokens(100_000)+want {
		t.Fatalf("unexpected alice balance %d", got)
	}
	p, _ := ledger.Pool()
	if p.Distributed != want || p.TotalStaked != tokens(100_000) {
		t.Fatalf("unexpected pool %+v", p)
	}
	requirePoolBalanced(t, ledger)

	if _, err := ledger.ClaimStakeRewards(alice, pos.ID); !errors.Is(err, staking.ErrNoRewardsToClaim) {
		t.Fatalf("expected ErrNoRewardsToClaim, got %v", err)
	}
}

func TestEarlyUnstakePaysPenalty(t *testing.T) {
	ledger, clock, _ := newTestLedger(t, storage.NewMemDB())
	pos, err := ledger.CreateStake(alice, tokens(1_000), staking.KindFixedTerm, 90)
	if err != nil {
		t.Fatalf("create stake: %v", err)
	}
	clock.Advance(10 * day)
	before := balance(t, ledger, alice)

	result, err := ledger.Unstake(alice, pos.ID, 0)
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if result.Penalty != tokens(100) || result.Returned != tokens(900) {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Position.Active || result.Position.Amount != 0 {
		t.Fatalf("position should be closed: %+v", result.Position)
	}
	if got := balance(t, ledger, treasury); got != tokens(100) {
		t.Fatalf("treasury got %d", got)
	}
	if got := balance(t, ledger, alice); got != before+tokens(900) {
		t.Fatalf("alice got %d", got-before)
	}
	if _, err := ledger.ClaimStakeRewards(alice, pos.ID); !errors.Is(err, staking.ErrStakeNotActive) {
		t.Fatalf("expected ErrStakeNotActive, got %v", err)
	}
	p, _ := ledger.Pool()
	if p.TotalStaked != 0 {
		t.Fatalf("total staked not reduced: %+v", p)
	}
}

func TestFailedTransferRollsBackEverything(t *testing.T) {
	ledger, _, sink := newTestLedger(t, storage.NewMemDB())

	_, err := ledger.CreateStake(bob, tokens(100), staking.KindFlexible, 0)
	if !errors.Is(err, bank.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if len(sink.events) != 0 {
		t.Fatalf("events published for a rejected operation: %v", sink.events)
	}
	stakes, err := ledger.Stakes(bob)
	if err != nil {
		t.Fatalf("stakes: %v", err)
	}
	if len(stakes) != 0 {
		t.Fatalf("position leaked from rolled back call: %+v", stakes)
	}
	p, _ := ledger.Pool()
	if p.TotalStaked != 0 {
		t.Fatalf("pool mutated by rolled back call: %+v", p)
	}

	pos, err := ledger.CreateStake(alice, tokens(100), staking.KindFlexible, 0)
	if err != nil {
		t.Fatalf("create stake: %v", err)
	}
	if pos.ID != 1 {
		t.Fatalf("sequence advanced by rolled back call: id %d", pos.ID)
	}
	if len(sink.events) == 0 {
		t.Fatalf("expected committed events to be published")
	}
}

func TestImmediateAndLinearGrants(t *testing.T) {
	ledger, clock, _ := newTestLedger(t, storage.NewMemDB())

	small, err := ledger.GrantReward(authority, bob, rewards.CategoryTesterAirdrop, tokens(500), 0)
	if err != nil {
		t.Fatalf("grant immediate: %v", err)
	}
	if small.Policy != rewards.PolicyImmediate {
		t.Fatalf("expected immediate policy, got %s", small.Policy)
	}
	paid, grant, err := ledger.ClaimReward(bob, small.ID)
	if err != nil {
		t.Fatalf("claim immediate: %v", err)
	}
	if paid != tokens(500) || grant.Status != rewards.StatusCompleted {
		t.Fatalf("unexpected claim %d %+v", paid, grant)
	}

	linear, err := ledger.GrantReward(authority, bob, rewards.CategoryLiquidityProvision, tokens(5_000), 1_000_000)
	if err != nil {
		t.Fatalf("grant linear: %v", err)
	}
	if linear.Policy != rewards.PolicyLinear {
		t.Fatalf("expected linear policy, got %s", linear.Policy)
	}
	requirePoolBalanced(t, ledger)

	clock.Advance(500_000)
	claimable, err := ledger.Claimable(linear.ID)
	if err != nil {
		t.Fatalf("claimable: %v", err)
	}
	if claimable != tokens(2_500) {
		t.Fatalf("expected half vested, got %d", claimable)
	}
	if paid, _, err = ledger.ClaimReward(bob, linear.ID); err != nil || paid != tokens(2_500) {
		t.Fatalf("first linear claim: paid=%d err=%v", paid, err)
	}
	clock.Advance(500_000)
	if paid, grant, err = ledger.ClaimReward(bob, linear.ID); err != nil || paid != tokens(2_500) {
		t.Fatalf("second linear claim: paid=%d err=%v", paid, err)
	}
	if grant.Status != rewards.StatusCompleted {
		t.Fatalf("expected completed grant")
	}
	p, _ := ledger.Pool()
	if p.VestedPending != 0 || p.Distributed != tokens(5_500) || p.ActiveGrants != 0 {
		t.Fatalf("unexpected pool %+v", p)
	}
	requirePoolBalanced(t, ledger)

	if _, err := ledger.GrantReward(bob, bob, rewards.CategoryReferral, tokens(1), 0); !errors.Is(err, rewards.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCancelGrantRestoresReserve(t *testing.T) {
	ledger, clock, _ := newTestLedger(t, storage.NewMemDB())
	grant, err := ledger.GrantReward(authority, bob, rewards.CategoryCommunityGrant, tokens(4_000), 400)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	clock.Advance(100)
	if _, _, err := ledger.ClaimReward(bob, grant.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	cancelled, returned, err := ledger.CancelGrant(authority, grant.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if returned != tokens(3_000) || cancelled.Status != rewards.StatusCancelled {
		t.Fatalf("unexpected cancel result %d %+v", returned, cancelled)
	}
	p, _ := ledger.Pool()
	if p.Remaining != tokens(1_000_000)-tokens(1_000) || p.VestedPending != 0 {
		t.Fatalf("unexpected pool %+v", p)
	}
	if _, _, err := ledger.ClaimReward(bob, grant.ID); !errors.Is(err, rewards.ErrGrantNotActive) {
		t.Fatalf("expected ErrGrantNotActive, got %v", err)
	}
	if amount, err := ledger.Claimable(grant.ID); err != nil || amount != 0 {
		t.Fatalf("cancelled grant should preview 0, got %d err=%v", amount, err)
	}
}

func TestMilestoneGrantFlow(t *testing.T) {
	ledger, clock, _ := newTestLedger(t, storage.NewMemDB())
	grant, err := ledger.GrantReward(authority, bob, rewards.CategoryVaultCreation, tokens(50_000), 0)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if grant.Policy != rewards.PolicyMilestone {
		t.Fatalf("expected milestone policy, got %s", grant.Policy)
	}

	if _, _, err := ledger.UnlockMilestoneStage(bob, grant.ID, 2); !errors.Is(err, rewards.ErrPreviousStageLocked) {
		t.Fatalf("expected ErrPreviousStageLocked, got %v", err)
	}
	clock.Advance(365 * day)
	if _, _, err := ledger.UnlockMilestoneStage(bob, grant.ID, 1); !errors.Is(err, rewards.ErrMilestonesNotMet) {
		t.Fatalf("expected ErrMilestonesNotMet, got %v", err)
	}

	if _, err := ledger.RecordActivity(bob, bob, milestones.ActivityTrading, tokens(10_000)); !errors.Is(err, milestones.ErrUnauthorizedReporter) {
		t.Fatalf("expected ErrUnauthorizedReporter, got %v", err)
	}
	if _, err := ledger.RecordActivity(reporter, bob, milestones.ActivityTrading, tokens(10_000)); err != nil {
		t.Fatalf("record trading: %v", err)
	}
	progress, err := ledger.RecordActivity(reporter, bob, milestones.ActivityStaking, 90)
	if err != nil {
		t.Fatalf("record staking: %v", err)
	}
	if progress.TradingVolume != tokens(10_000) || progress.StakingDays != 90 {
		t.Fatalf("unexpected progress %+v", progress)
	}

	unlocked, evaluation, err := ledger.UnlockMilestoneStage(bob, grant.ID, 1)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if !evaluation.Satisfied || !unlocked.StageUnlocked[0] || unlocked.MilestoneStage != 1 {
		t.Fatalf("unexpected unlock %+v %+v", unlocked, evaluation)
	}
	if _, _, err := ledger.UnlockMilestoneStage(bob, grant.ID, 1); !errors.Is(err, rewards.ErrAlreadyUnlocked) {
		t.Fatalf("expected ErrAlreadyUnlocked, got %v", err)
	}
	paid, _, err := ledger.ClaimReward(bob, grant.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if paid != tokens(5_000) {
		t.Fatalf("expected 10%% of grant, got %d", paid)
	}
	requirePoolBalanced(t, ledger)
}

func TestReferralFeedsProgress(t *testing.T) {
	ledger, _, _ := newTestLedger(t, storage.NewMemDB())
	code, err := ledger.CreateReferralCode(alice)
	if err != nil {
		t.Fatalf("create code: %v", err)
	}
	if _, err := ledger.CreateReferralCode(alice); !errors.Is(err, referral.ErrCodeExists) {
		t.Fatalf("expected ErrCodeExists, got %v", err)
	}
	if _, err := ledger.CompleteReferral(reporter, code.Code, bob); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := ledger.CompleteReferral(reporter, code.Code, bob); !errors.Is(err, referral.ErrAlreadyReferred) {
		t.Fatalf("expected ErrAlreadyReferred, got %v", err)
	}
	record, err := ledger.LookupReferral(code.Code)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if record.TotalReferrals != 1 || record.Referrer != alice {
		t.Fatalf("unexpected referral %+v", record)
	}
	progress, err := ledger.Progress(alice)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if progress.Referrals != 1 {
		t.Fatalf("referral not recorded as activity: %+v", progress)
	}
}

func TestPauseBlocksMutations(t *testing.T) {
	ledger, _, sink := newTestLedger(t, storage.NewMemDB())
	if err := ledger.SetModulePaused(alice, common.ModuleStaking, true); !errors.Is(err, ledgererrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := ledger.SetModulePaused(authority, "lending", true); !errors.Is(err, ledgererrors.ErrUnknownModule) {
		t.Fatalf("expected ErrUnknownModule, got %v", err)
	}
	if err := ledger.SetModulePaused(authority, "Staking", true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := ledger.CreateStake(alice, tokens(100), staking.KindFlexible, 0); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	paused, err := ledger.Paused()
	if err != nil || len(paused) != 1 || paused[0] != common.ModuleStaking {
		t.Fatalf("unexpected paused set %v err=%v", paused, err)
	}
	if err := ledger.SetModulePaused(authority, common.ModuleStaking, false); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if _, err := ledger.CreateStake(alice, tokens(100), staking.KindFlexible, 0); err != nil {
		t.Fatalf("create after unpause: %v", err)
	}
	var toggles int
	for _, evt := range sink.events {
		if evt.EventType() == events.TypeModulePauseToggled {
			toggles++
		}
	}
	if toggles != 2 {
		t.Fatalf("expected 2 pause events, got %d", toggles)
	}
}

func TestResolveTierTables(t *testing.T) {
	ledger, _, _ := newTestLedger(t, storage.NewMemDB())
	tier, err := ledger.ResolveTier("access", nil, tokens(20_000))
	if err != nil || tier != 2 {
		t.Fatalf("access tier: %d err=%v", tier, err)
	}
	tier, err = ledger.ResolveTier("", []uint64{0, 10, 20}, 15)
	if err != nil || tier != 1 {
		t.Fatalf("explicit tier: %d err=%v", tier, err)
	}
	tier, err = ledger.ResolveTier("", []uint64{500, 1000}, 750)
	if err != nil || tier != 0 {
		t.Fatalf("query table without zero start: %d err=%v", tier, err)
	}
	tier, err = ledger.ResolveTier("", []uint64{500, 1000}, 1000)
	if err != nil || tier != 1 {
		t.Fatalf("query table top tier: %d err=%v", tier, err)
	}
	if _, err := ledger.ResolveTier("", []uint64{10, 5}, 15); !errors.Is(err, tiers.ErrInvalidThresholds) {
		t.Fatalf("expected ErrInvalidThresholds, got %v", err)
	}
	if _, err := ledger.ResolveTier("unknown", nil, 1); !errors.Is(err, ledgererrors.ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}

	if err := ledger.UpdatePriorityThresholds(authority, []uint64{0, tokens(10)}); err != nil {
		t.Fatalf("update thresholds: %v", err)
	}
	tier, err = ledger.ResolveTier("priority", nil, tokens(10))
	if err != nil || tier != 1 {
		t.Fatalf("priority tier after update: %d err=%v", tier, err)
	}
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.NewLevelDB(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ledger, _, _ := newTestLedger(t, db)
	pos, err := ledger.CreateStake(alice, tokens(1_000), staking.KindFlexible, 0)
	if err != nil {
		t.Fatalf("create stake: %v", err)
	}
	grant, err := ledger.GrantReward(authority, bob, rewards.CategoryReferral, tokens(20), 0)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	db.Close()

	reopened, err := storage.NewLevelDB(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	ledger, _, _ = newTestLedger(t, reopened)
	loaded, err := ledger.Stake(pos.ID)
	if err != nil {
		t.Fatalf("stake after reopen: %v", err)
	}
	if loaded.Amount != tokens(1_000) || !loaded.Active {
		t.Fatalf("unexpected position %+v", loaded)
	}
	loadedGrant, err := ledger.Grant(grant.ID)
	if err != nil {
		t.Fatalf("grant after reopen: %v", err)
	}
	if loadedGrant.TotalAmount != tokens(20) {
		t.Fatalf("unexpected grant %+v", loadedGrant)
	}
	p, err := ledger.Pool()
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if p.TotalStaked != tokens(1_000) || p.VestedPending != tokens(20) {
		t.Fatalf("unexpected pool %+v", p)
	}
}
