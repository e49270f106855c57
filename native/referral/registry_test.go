package referral

import (
	"errors"
	"strings"
	"testing"

	"fracledger/native/common"
	"fracledger/native/milestones"
)

type mockState struct {
	codes     map[[20]byte]*Code
	owners    map[string][20]byte
	referees  map[[20]byte][20]byte
	reporters map[[20]byte]bool
	progress  map[[20]byte]*milestones.Progress
}

func newMockState() *mockState {
	return &mockState{
		codes:     make(map[[20]byte]*Code),
		owners:    make(map[string][20]byte),
		referees:  make(map[[20]byte][20]byte),
		reporters: make(map[[20]byte]bool),
		progress:  make(map[[20]byte]*milestones.Progress),
	}
}

func (m *mockState) ReferralGet(referrer [20]byte) (*Code, bool, error) {
	c, ok := m.codes[referrer]
	if !ok {
		return nil, false, nil
	}
	return c.Clone(), true, nil
}

func (m *mockState) ReferralPut(c *Code) error {
	m.codes[c.Referrer] = c.Clone()
	return nil
}

func (m *mockState) ReferralOwner(code string) ([20]byte, bool, error) {
	owner, ok := m.owners[code]
	return owner, ok, nil
}

func (m *mockState) ReferralIndexCode(code string, referrer [20]byte) error {
	m.owners[code] = referrer
	return nil
}

func (m *mockState) RefereeGet(referee [20]byte) ([20]byte, bool, error) {
	referrer, ok := m.referees[referee]
	return referrer, ok, nil
}

func (m *mockState) RefereePut(referee, referrer [20]byte) error {
	m.referees[referee] = referrer
	return nil
}

func (m *mockState) IsActivityReporter(a [20]byte) (bool, error) { return m.reporters[a], nil }

func (m *mockState) MilestoneProgressGet(user [20]byte) (*milestones.Progress, bool, error) {
	p, ok := m.progress[user]
	if !ok {
		return nil, false, nil
	}
	return p.Clone(), true, nil
}

func (m *mockState) MilestoneProgressPut(p *milestones.Progress) error {
	m.progress[p.User] = p.Clone()
	return nil
}

type pauseSet map[string]bool

func (p pauseSet) IsPaused(module string) bool { return p[module] }

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

func newRegistry(t *testing.T) (*Registry, *mockState, *int64) {
	t.Helper()
	state := newMockState()
	state.reporters[addr(0xEE)] = true
	now := int64(1_700_000_000)
	tracker := milestones.NewTracker()
	tracker.SetState(state)
	tracker.SetNowFunc(func() int64 { return now })
	registry := NewRegistry()
	registry.SetState(state)
	registry.SetActivityRecorder(tracker)
	registry.SetNowFunc(func() int64 { return now })
	return registry, state, &now
}

func TestGenerateCodeIsDeterministicPerUserAndTime(t *testing.T) {
	a := GenerateCode(addr(1), 100)
	if a != GenerateCode(addr(1), 100) {
		t.Fatalf("code not deterministic")
	}
	if a == GenerateCode(addr(1), 101) || a == GenerateCode(addr(2), 100) {
		t.Fatalf("codes should differ per user and timestamp")
	}
	if !strings.HasPrefix(a, "REF") || len(a) != 15 {
		t.Fatalf("unexpected code format %q", a)
	}
}

func TestCreateCode(t *testing.T) {
	registry, state, _ := newRegistry(t)
	user := addr(1)
	record, err := registry.CreateCode(user)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if record.TotalReferrals != 0 || record.CreatedAt != 1_700_000_000 || record.Referrer != user {
		t.Fatalf("unexpected record %+v", record)
	}
	if _, err := registry.CreateCode(user); !errors.Is(err, ErrCodeExists) {
		t.Fatalf("expected ErrCodeExists, got %v", err)
	}
	state.owners[GenerateCode(addr(2), 1_700_000_000)] = addr(9)
	if _, err := registry.CreateCode(addr(2)); !errors.Is(err, ErrCodeCollision) {
		t.Fatalf("expected ErrCodeCollision, got %v", err)
	}
	found, err := registry.Lookup(strings.ToLower(record.Code))
	if err != nil || found.Referrer != user {
		t.Fatalf("lookup: %+v %v", found, err)
	}
}

func TestCompleteReferralCreditsReferrer(t *testing.T) {
	registry, state, _ := newRegistry(t)
	referrer, referee := addr(1), addr(2)
	reporter := addr(0xEE)
	record, err := registry.CreateCode(referrer)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := registry.CompleteReferral(addr(3), record.Code, referee); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := registry.CompleteReferral(reporter, "REFMISSING", referee); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound, got %v", err)
	}
	if _, err := registry.CompleteReferral(reporter, strings.Repeat("X", 40), referee); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	if _, err := registry.CompleteReferral(reporter, record.Code, referrer); !errors.Is(err, ErrSelfReferral) {
		t.Fatalf("expected ErrSelfReferral, got %v", err)
	}

	updated, err := registry.CompleteReferral(reporter, record.Code, referee)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if updated.TotalReferrals != 1 {
		t.Fatalf("expected 1 referral, got %d", updated.TotalReferrals)
	}
	if state.progress[referrer] == nil || state.progress[referrer].Referrals != 1 {
		t.Fatalf("tracker not credited: %+v", state.progress[referrer])
	}
	if _, err := registry.CompleteReferral(reporter, record.Code, referee); !errors.Is(err, ErrAlreadyReferred) {
		t.Fatalf("expected ErrAlreadyReferred, got %v", err)
	}
}

func TestPausedRegistry(t *testing.T) {
	registry, _, _ := newRegistry(t)
	registry.SetPauses(pauseSet{common.ModuleReferral: true})
	if _, err := registry.CreateCode(addr(1)); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
}
