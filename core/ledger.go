package core

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"fracledger/core/events"
	"fracledger/core/genesis"
	"fracledger/core/state"
	"fracledger/native/bank"
	"fracledger/native/milestones"
	"fracledger/native/referral"
	"fracledger/native/rewards"
	"fracledger/native/staking"
	"fracledger/observability"
	"fracledger/observability/metrics"
	"fracledger/storage"

	ledgererrors "fracledger/core/errors"
)

// Ledger hosts the reward engines. Calls are serialised and each one runs
// against a fresh state overlay that is committed as a single batch or
// discarded as a whole.
type Ledger struct {
	db      storage.Database
	stateMu sync.Mutex
	nowFn   func() int64
	logger  *slog.Logger
	metrics *metrics.RewardsMetrics
	sink    events.Emitter
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the unix-seconds time source.
func WithClock(now func() int64) Option {
	return func(l *Ledger) {
		if now != nil {
			l.nowFn = now
		}
	}
}

// WithLogger sets the logger used for operation outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMetrics enables prometheus recording.
func WithMetrics(m *metrics.RewardsMetrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithEventSink receives every event once its operation has committed.
func WithEventSink(sink events.Emitter) Option {
	return func(l *Ledger) {
		if sink != nil {
			l.sink = sink
		}
	}
}

// NewLedger opens a ledger over db.
func NewLedger(db storage.Database, opts ...Option) (*Ledger, error) {
	if db == nil {
		return nil, fmt.Errorf("ledger: database must not be nil")
	}
	l := &Ledger{
		db:     db,
		nowFn:  func() int64 { return time.Now().Unix() },
		logger: slog.Default(),
		sink:   events.NoopEmitter{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

type session struct {
	emitter   events.Emitter
	manager   *state.Manager
	bank      *bank.Bank
	staking   *staking.Engine
	rewards   *rewards.Engine
	tracker   *milestones.Tracker
	referrals *referral.Registry
}

// engineBackend exposes the state manager plus the transfer primitive the
// engines expect.
type engineBackend struct {
	*state.Manager
	bank *bank.Bank
}

func (b engineBackend) Transfer(from, to [20]byte, amount uint64) error {
	return b.bank.Transfer(from, to, amount)
}

func (l *Ledger) newSession(manager *state.Manager, emitter events.Emitter) *session {
	ledgerBank := bank.New(manager, emitter)
	backend := engineBackend{Manager: manager, bank: ledgerBank}

	stakingEngine := staking.NewEngine()
	stakingEngine.SetState(backend)
	stakingEngine.SetEmitter(emitter)
	stakingEngine.SetPauses(manager)
	stakingEngine.SetNowFunc(l.nowFn)

	rewardsEngine := rewards.NewEngine()
	rewardsEngine.SetState(backend)
	rewardsEngine.SetEmitter(emitter)
	rewardsEngine.SetPauses(manager)
	rewardsEngine.SetNowFunc(l.nowFn)

	tracker := milestones.NewTracker()
	tracker.SetState(manager)
	tracker.SetEmitter(emitter)
	tracker.SetPauses(manager)
	tracker.SetNowFunc(l.nowFn)

	registry := referral.NewRegistry()
	registry.SetState(manager)
	registry.SetActivityRecorder(tracker)
	registry.SetEmitter(emitter)
	registry.SetPauses(manager)
	registry.SetNowFunc(l.nowFn)

	return &session{
		emitter:   emitter,
		manager:   manager,
		bank:      ledgerBank,
		staking:   stakingEngine,
		rewards:   rewardsEngine,
		tracker:   tracker,
		referrals: registry,
	}
}

// update runs fn inside a fresh overlay. The pool identity is re-checked
// before commit; any error discards every staged write and buffered event.
func (l *Ledger) update(op string, fn func(*session) error) error {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()

	manager := state.NewManager(l.db)
	buffer := &events.Buffer{}
	s := l.newSession(manager, buffer)

	err := l.requireGenesis(manager)
	if err == nil {
		err = fn(s)
	}
	if err == nil {
		err = l.checkPool(manager)
	}
	if err != nil {
		manager.Discard()
		l.metrics.RecordRejected(op, err)
		l.logger.Info("ledger operation rejected",
			slog.String("component", "ledger"),
			slog.String("op", op),
			slog.String("error", err.Error()))
		return err
	}
	if err := manager.Commit(); err != nil {
		l.logger.Error("ledger commit failed",
			slog.String("component", "ledger"),
			slog.String("op", op),
			slog.String("error", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	}
	published := buffer.Drain()
	for _, evt := range published {
		observability.Events().RecordEvent(evt.EventType())
		if transfer, ok := evt.(events.Transfer); ok {
			observability.Events().RecordTransfer(transfer.Reason)
		}
		l.sink.Emit(evt)
	}
	l.logger.Debug("ledger operation committed",
		slog.String("component", "ledger"),
		slog.String("op", op),
		slog.Int("events", len(published)))
	return nil
}

// view runs fn against committed state. Nothing it stages is persisted.
func (l *Ledger) view(fn func(*session) error) error {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()

	manager := state.NewManager(l.db)
	defer manager.Discard()
	if err := l.requireGenesis(manager); err != nil {
		return err
	}
	return fn(l.newSession(manager, events.NoopEmitter{}))
}

func (l *Ledger) requireGenesis(manager *state.Manager) error {
	ok, err := genesis.Initialised(manager)
	if err != nil {
		return err
	}
	if !ok {
		return ledgererrors.ErrNotInitialised
	}
	return nil
}

func (l *Ledger) checkPool(manager *state.Manager) error {
	p, err := manager.RewardPool()
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	l.metrics.SetPool(p.Allocation, p.Distributed, p.Remaining, p.VestedPending, p.TotalStaked, p.ActiveGrants)
	return nil
}

// InitGenesis applies spec to an empty store.
func (l *Ledger) InitGenesis(spec *genesis.Spec) error {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()

	manager := state.NewManager(l.db)
	if err := genesis.Apply(manager, spec); err != nil {
		manager.Discard()
		return err
	}
	if err := l.checkPool(manager); err != nil {
		manager.Discard()
		return err
	}
	if err := manager.Commit(); err != nil {
		return fmt.Errorf("genesis: %w", err)
	}
	l.logger.Info("genesis applied", slog.String("component", "ledger"))
	return nil
}

// Initialised reports whether genesis has been applied.
func (l *Ledger) Initialised() (bool, error) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return genesis.Initialised(state.NewManager(l.db))
}

// Now returns the ledger clock in unix seconds.
func (l *Ledger) Now() int64 { return l.nowFn() }

func (s *session) requireAuthority(caller [20]byte) error {
	ok, err := s.manager.IsAuthority(caller)
	if err != nil {
		return err
	}
	if !ok {
		return ledgererrors.ErrUnauthorized
	}
	return nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func stageLabel(stage uint8) string {
	return strconv.FormatUint(uint64(stage), 10)
}
