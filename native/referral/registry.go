// Package referral issues referral codes and attributes referees to their
// referrers. Completed referrals feed the milestone tracker.
package referral

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"lukechampine.com/blake3"

	"fracledger/core/events"
	"fracledger/native/common"
	"fracledger/native/milestones"
)

// MaxCodeLength bounds user supplied codes.
const MaxCodeLength = 32

const codePrefix = "REF"

var (
	errNilState = errors.New("referral: state not configured")

	ErrCodeExists      = errors.New("referral: code already created")
	ErrCodeCollision   = errors.New("referral: code already in use")
	ErrCodeNotFound    = errors.New("referral: code not found")
	ErrInvalidCode     = errors.New("referral: invalid code")
	ErrSelfReferral    = errors.New("referral: cannot refer yourself")
	ErrAlreadyReferred = errors.New("referral: referee already attributed")
	ErrUnauthorized    = errors.New("referral: reporter not authorized")
)

// Code is the referral record of a single referrer.
type Code struct {
	Referrer       [20]byte
	Code           string
	TotalReferrals uint64
	CreatedAt      uint64
}

// Clone returns a copy of the record.
func (c *Code) Clone() *Code {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

type registryState interface {
	ReferralGet(referrer [20]byte) (*Code, bool, error)
	ReferralPut(code *Code) error
	ReferralOwner(code string) ([20]byte, bool, error)
	ReferralIndexCode(code string, referrer [20]byte) error
	RefereeGet(referee [20]byte) ([20]byte, bool, error)
	RefereePut(referee, referrer [20]byte) error
	IsActivityReporter(addr [20]byte) (bool, error)
}

type activityRecorder interface {
	Record(user [20]byte, kind milestones.ActivityKind, amount uint64) (*milestones.Progress, error)
}

// Registry manages referral codes.
type Registry struct {
	state    registryState
	activity activityRecorder
	emitter  events.Emitter
	pauses   common.PauseView
	nowFn    func() int64
}

// NewRegistry returns a registry with a wall clock and a no-op emitter.
func NewRegistry() *Registry {
	return &Registry{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the referral store.
func (r *Registry) SetState(state registryState) { r.state = state }

// SetActivityRecorder wires the tracker credited on completed referrals.
func (r *Registry) SetActivityRecorder(rec activityRecorder) { r.activity = rec }

// SetEmitter configures the event emitter. Nil restores the no-op emitter.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetPauses wires the pause registry consulted before mutations.
func (r *Registry) SetPauses(p common.PauseView) { r.pauses = p }

// SetNowFunc overrides the time source used for deterministic testing.
func (r *Registry) SetNowFunc(now func() int64) {
	if now == nil {
		r.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	r.nowFn = now
}

func (r *Registry) now() uint64 {
	ts := time.Now().Unix()
	if r.nowFn != nil {
		ts = r.nowFn()
	}
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// GenerateCode derives the code for user at ts.
func GenerateCode(user [20]byte, ts uint64) string {
	var buf [28]byte
	copy(buf[:20], user[:])
	binary.BigEndian.PutUint64(buf[20:], ts)
	sum := blake3.Sum256(buf[:])
	return codePrefix + strings.ToUpper(hex.EncodeToString(sum[:6]))
}

// NormalizeCode trims and upper-cases a code and checks its length.
func NormalizeCode(code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" || len(normalized) > MaxCodeLength {
		return "", ErrInvalidCode
	}
	return normalized, nil
}

// CreateCode issues the referral code of user.
func (r *Registry) CreateCode(user [20]byte) (*Code, error) {
	if r == nil || r.state == nil {
		return nil, errNilState
	}
	if err := common.Guard(r.pauses, common.ModuleReferral); err != nil {
		return nil, err
	}
	if _, exists, err := r.state.ReferralGet(user); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrCodeExists
	}
	now := r.now()
	code := GenerateCode(user, now)
	if _, taken, err := r.state.ReferralOwner(code); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrCodeCollision
	}
	record := &Code{Referrer: user, Code: code, CreatedAt: now}
	if err := r.state.ReferralPut(record); err != nil {
		return nil, err
	}
	if err := r.state.ReferralIndexCode(code, user); err != nil {
		return nil, err
	}
	r.emitter.Emit(events.ReferralCodeCreated{Referrer: user, Code: code})
	return record.Clone(), nil
}

// CompleteReferral attributes referee to the owner of code and credits the
// referrer with a referral activity.
func (r *Registry) CompleteReferral(reporter [20]byte, code string, referee [20]byte) (*Code, error) {
	if r == nil || r.state == nil {
		return nil, errNilState
	}
	if err := common.Guard(r.pauses, common.ModuleReferral); err != nil {
		return nil, err
	}
	allowed, err := r.state.IsActivityReporter(reporter)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrUnauthorized
	}
	normalized, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	referrer, ok, err := r.state.ReferralOwner(normalized)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCodeNotFound
	}
	if referrer == referee {
		return nil, ErrSelfReferral
	}
	if _, attributed, err := r.state.RefereeGet(referee); err != nil {
		return nil, err
	} else if attributed {
		return nil, ErrAlreadyReferred
	}
	record, ok, err := r.state.ReferralGet(referrer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCodeNotFound
	}
	total, err := common.AddU64(record.TotalReferrals, 1)
	if err != nil {
		return nil, err
	}
	record.TotalReferrals = total
	if err := r.state.RefereePut(referee, referrer); err != nil {
		return nil, err
	}
	if err := r.state.ReferralPut(record); err != nil {
		return nil, err
	}
	if r.activity != nil {
		if _, err := r.activity.Record(referrer, milestones.ActivityReferral, 1); err != nil {
			return nil, err
		}
	}
	r.emitter.Emit(events.ReferralCompleted{
		Referrer: referrer,
		Referee:  referee,
		Code:     normalized,
		Total:    total,
	})
	return record.Clone(), nil
}

// CodeOf returns the referral record of user.
func (r *Registry) CodeOf(user [20]byte) (*Code, bool, error) {
	if r == nil || r.state == nil {
		return nil, false, errNilState
	}
	return r.state.ReferralGet(user)
}

// Lookup resolves a code to its referral record.
func (r *Registry) Lookup(code string) (*Code, error) {
	if r == nil || r.state == nil {
		return nil, errNilState
	}
	normalized, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	referrer, ok, err := r.state.ReferralOwner(normalized)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCodeNotFound
	}
	record, ok, err := r.state.ReferralGet(referrer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCodeNotFound
	}
	return record, nil
}
