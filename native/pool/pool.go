// Package pool holds the shared reward reserve. Every reward-paying operation
// moves funds through one of the transition methods below, which keep
// Distributed + Remaining + VestedPending equal to Allocation.
package pool

import (
	"errors"
	"fmt"

	"fracledger/native/common"
)

var (
	// ErrInsufficientRewardsPool is returned when a payout or reservation exceeds Remaining.
	ErrInsufficientRewardsPool = errors.New("pool: insufficient rewards pool")
	// ErrInsufficientPending is returned when a release exceeds VestedPending.
	ErrInsufficientPending = errors.New("pool: insufficient vested pending balance")
	// ErrImbalanced reports a broken accounting identity.
	ErrImbalanced = errors.New("pool: totals do not match allocation")
)

// Pool is the singleton aggregate of reward reserve totals.
type Pool struct {
	Allocation    uint64
	Distributed   uint64
	Remaining     uint64
	VestedPending uint64
	TotalStaked   uint64
	ActiveGrants  uint64
}

// New returns a pool with the full allocation available.
func New(allocation uint64) *Pool {
	return &Pool{Allocation: allocation, Remaining: allocation}
}

// Clone returns a copy of the pool.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// Validate checks the accounting identity.
func (p *Pool) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: pool missing", ErrImbalanced)
	}
	sum, err := common.AddU64(p.Distributed, p.Remaining)
	if err == nil {
		sum, err = common.AddU64(sum, p.VestedPending)
	}
	if err != nil || sum != p.Allocation {
		return fmt.Errorf("%w: distributed=%d remaining=%d pending=%d allocation=%d",
			ErrImbalanced, p.Distributed, p.Remaining, p.VestedPending, p.Allocation)
	}
	return nil
}

// Distribute pays amount straight out of Remaining.
func (p *Pool) Distribute(amount uint64) error {
	if amount > p.Remaining {
		return ErrInsufficientRewardsPool
	}
	distributed, err := common.AddU64(p.Distributed, amount)
	if err != nil {
		return err
	}
	p.Remaining -= amount
	p.Distributed = distributed
	return nil
}

// Reserve earmarks amount for a vesting grant.
func (p *Pool) Reserve(amount uint64) error {
	if amount > p.Remaining {
		return ErrInsufficientRewardsPool
	}
	pending, err := common.AddU64(p.VestedPending, amount)
	if err != nil {
		return err
	}
	p.Remaining -= amount
	p.VestedPending = pending
	return nil
}

// Release pays out amount that was previously reserved.
func (p *Pool) Release(amount uint64) error {
	if amount > p.VestedPending {
		return ErrInsufficientPending
	}
	distributed, err := common.AddU64(p.Distributed, amount)
	if err != nil {
		return err
	}
	p.VestedPending -= amount
	p.Distributed = distributed
	return nil
}

// Restore returns a reservation to Remaining.
func (p *Pool) Restore(amount uint64) error {
	if amount > p.VestedPending {
		return ErrInsufficientPending
	}
	remaining, err := common.AddU64(p.Remaining, amount)
	if err != nil {
		return err
	}
	p.VestedPending -= amount
	p.Remaining = remaining
	return nil
}

// AddStake increases the global staked total.
func (p *Pool) AddStake(amount uint64) error {
	total, err := common.AddU64(p.TotalStaked, amount)
	if err != nil {
		return err
	}
	p.TotalStaked = total
	return nil
}

// RemoveStake decreases the global staked total.
func (p *Pool) RemoveStake(amount uint64) error {
	total, err := common.SubU64(p.TotalStaked, amount)
	if err != nil {
		return err
	}
	p.TotalStaked = total
	return nil
}

// OpenGrant increments the active grant counter.
func (p *Pool) OpenGrant() error {
	count, err := common.AddU64(p.ActiveGrants, 1)
	if err != nil {
		return err
	}
	p.ActiveGrants = count
	return nil
}

// CloseGrant decrements the active grant counter.
func (p *Pool) CloseGrant() error {
	count, err := common.SubU64(p.ActiveGrants, 1)
	if err != nil {
		return err
	}
	p.ActiveGrants = count
	return nil
}
