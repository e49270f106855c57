package events

import (
	"strconv"

	"fracledger/core/types"
)

const (
	// TypeStakeCreated is emitted when a new stake position is opened.
	TypeStakeCreated = "stake.created"
	// TypeStakeRewardsClaimed is emitted when accrued yield is paid out.
	TypeStakeRewardsClaimed = "stake.rewardsClaimed"
	// TypeStakeUnstaked is emitted when principal leaves a position.
	TypeStakeUnstaked = "stake.unstaked"
	// TypeStakeRatesUpdated is emitted when the APY table changes.
	TypeStakeRatesUpdated = "stake.ratesUpdated"
	// TypeStakeThresholdsUpdated is emitted when the priority table changes.
	TypeStakeThresholdsUpdated = "stake.thresholdsUpdated"
)

type StakeCreated struct {
	ID           uint64
	Owner        [20]byte
	Amount       uint64
	Kind         string
	LockDays     uint64
	APYBps       uint64
	LockEnd      uint64
	PriorityTier uint8
}

func (StakeCreated) EventType() string { return TypeStakeCreated }

func (e StakeCreated) Event() *types.Event {
	attrs := map[string]string{
		"id":           strconv.FormatUint(e.ID, 10),
		"owner":        formatAccount(e.Owner),
		"amount":       formatAmount(e.Amount),
		"kind":         e.Kind,
		"lockDays":     strconv.FormatUint(e.LockDays, 10),
		"apyBps":       strconv.FormatUint(e.APYBps, 10),
		"priorityTier": strconv.FormatUint(uint64(e.PriorityTier), 10),
	}
	if e.LockEnd > 0 {
		attrs["lockEnd"] = strconv.FormatUint(e.LockEnd, 10)
	}
	return &types.Event{Type: TypeStakeCreated, Attributes: attrs}
}

type StakeRewardsClaimed struct {
	ID      uint64
	Owner   [20]byte
	Paid    uint64
	Elapsed uint64
}

func (StakeRewardsClaimed) EventType() string { return TypeStakeRewardsClaimed }

func (e StakeRewardsClaimed) Event() *types.Event {
	return &types.Event{Type: TypeStakeRewardsClaimed, Attributes: map[string]string{
		"id":      strconv.FormatUint(e.ID, 10),
		"owner":   formatAccount(e.Owner),
		"paid":    formatAmount(e.Paid),
		"elapsed": strconv.FormatUint(e.Elapsed, 10),
	}}
}

type StakeUnstaked struct {
	ID           uint64
	Owner        [20]byte
	Amount       uint64
	Returned     uint64
	Penalty      uint64
	Remaining    uint64
	Active       bool
	PriorityTier uint8
}

func (StakeUnstaked) EventType() string { return TypeStakeUnstaked }

func (e StakeUnstaked) Event() *types.Event {
	return &types.Event{Type: TypeStakeUnstaked, Attributes: map[string]string{
		"id":           strconv.FormatUint(e.ID, 10),
		"owner":        formatAccount(e.Owner),
		"amount":       formatAmount(e.Amount),
		"returned":     formatAmount(e.Returned),
		"penalty":      formatAmount(e.Penalty),
		"remaining":    formatAmount(e.Remaining),
		"active":       strconv.FormatBool(e.Active),
		"priorityTier": strconv.FormatUint(uint64(e.PriorityTier), 10),
	}}
}

// StakeRatesUpdated lists the new rate table as "days:bps" pairs.
type StakeRatesUpdated struct {
	Rates map[uint64]uint64
}

func (StakeRatesUpdated) EventType() string { return TypeStakeRatesUpdated }

func (e StakeRatesUpdated) Event() *types.Event {
	attrs := make(map[string]string, len(e.Rates))
	for days, bps := range e.Rates {
		attrs["lock"+strconv.FormatUint(days, 10)] = strconv.FormatUint(bps, 10)
	}
	return &types.Event{Type: TypeStakeRatesUpdated, Attributes: attrs}
}

type StakeThresholdsUpdated struct {
	Thresholds []uint64
}

func (StakeThresholdsUpdated) EventType() string { return TypeStakeThresholdsUpdated }

func (e StakeThresholdsUpdated) Event() *types.Event {
	attrs := make(map[string]string, len(e.Thresholds))
	for i, threshold := range e.Thresholds {
		attrs["tier"+strconv.Itoa(i)] = formatAmount(threshold)
	}
	return &types.Event{Type: TypeStakeThresholdsUpdated, Attributes: attrs}
}
