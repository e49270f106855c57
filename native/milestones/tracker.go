package milestones

import (
	"time"

	"fracledger/core/events"
	"fracledger/native/common"
)

type trackerState interface {
	MilestoneProgressGet(user [20]byte) (*Progress, bool, error)
	MilestoneProgressPut(progress *Progress) error
	IsActivityReporter(addr [20]byte) (bool, error)
}

// Tracker maintains per-user lifetime activity counters.
type Tracker struct {
	state   trackerState
	emitter events.Emitter
	pauses  common.PauseView
	nowFn   func() int64
}

// NewTracker returns a tracker with a wall clock and a no-op emitter.
func NewTracker() *Tracker {
	return &Tracker{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the progress store.
func (t *Tracker) SetState(state trackerState) { t.state = state }

// SetEmitter configures the event emitter. Nil restores the no-op emitter.
func (t *Tracker) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		t.emitter = events.NoopEmitter{}
		return
	}
	t.emitter = emitter
}

// SetPauses wires the pause registry consulted before recording.
func (t *Tracker) SetPauses(p common.PauseView) { t.pauses = p }

// SetNowFunc overrides the time source used for deterministic testing.
func (t *Tracker) SetNowFunc(now func() int64) {
	if now == nil {
		t.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	t.nowFn = now
}

func (t *Tracker) now() uint64 {
	ts := time.Now().Unix()
	if t.nowFn != nil {
		ts = t.nowFn()
	}
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// RecordActivity applies a report from an authorized reporter.
func (t *Tracker) RecordActivity(reporter, user [20]byte, kind ActivityKind, amount uint64) (*Progress, error) {
	if t == nil || t.state == nil {
		return nil, errNilState
	}
	allowed, err := t.state.IsActivityReporter(reporter)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrUnauthorizedReporter
	}
	return t.record(reporter, user, kind, amount)
}

// Record applies a report raised by another module of the ledger. Callers
// are responsible for authorizing the activity.
func (t *Tracker) Record(user [20]byte, kind ActivityKind, amount uint64) (*Progress, error) {
	if t == nil || t.state == nil {
		return nil, errNilState
	}
	return t.record([20]byte{}, user, kind, amount)
}

func (t *Tracker) record(reporter, user [20]byte, kind ActivityKind, amount uint64) (*Progress, error) {
	if err := common.Guard(t.pauses, common.ModuleMilestones); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, ErrUnknownActivity
	}
	progress, ok, err := t.state.MilestoneProgressGet(user)
	if err != nil {
		return nil, err
	}
	if !ok {
		progress = &Progress{User: user}
	}
	if err := apply(progress, kind, amount); err != nil {
		return nil, err
	}
	progress.LastUpdated = t.now()
	if err := t.state.MilestoneProgressPut(progress); err != nil {
		return nil, err
	}
	t.emitter.Emit(events.MilestoneActivityRecorded{
		User:     user,
		Reporter: reporter,
		Kind:     kind.String(),
		Amount:   amount,
	})
	return progress.Clone(), nil
}

func apply(p *Progress, kind ActivityKind, amount uint64) error {
	next := *p
	var err error
	switch kind {
	case ActivityTrading:
		next.TradingVolume, err = common.AddU64(p.TradingVolume, amount)
	case ActivityStaking:
		next.StakingDays, err = common.AddU64(p.StakingDays, amount)
	case ActivityVoting:
		next.VotesCast, err = common.AddU64(p.VotesCast, 1)
	case ActivityVaultCreation:
		if next.VaultsCreated, err = common.AddU64(p.VaultsCreated, 1); err == nil {
			next.VaultTVL, err = common.AddU64(p.VaultTVL, amount)
		}
	case ActivityReferral:
		next.Referrals, err = common.AddU64(p.Referrals, 1)
	case ActivityTierHolding:
		next.TierHoldingDays, err = common.AddU64(p.TierHoldingDays, amount)
	default:
		return ErrUnknownActivity
	}
	if err != nil {
		return err
	}
	*p = next
	return nil
}

// Progress returns the stored record, or an empty record for unknown users.
func (t *Tracker) Progress(user [20]byte) (*Progress, error) {
	if t == nil || t.state == nil {
		return nil, errNilState
	}
	progress, ok, err := t.state.MilestoneProgressGet(user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Progress{User: user}, nil
	}
	return progress, nil
}
