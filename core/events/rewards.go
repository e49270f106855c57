package events

import (
	"strconv"

	"fracledger/core/types"
)

const (
	TypeRewardGranted       = "rewards.granted"
	TypeRewardClaimed       = "rewards.claimed"
	TypeRewardCancelled     = "rewards.cancelled"
	TypeRewardStageUnlocked = "rewards.stageUnlocked"
	TypeRewardParamsUpdated = "rewards.paramsUpdated"
)

type RewardGranted struct {
	ID              uint64
	Recipient       [20]byte
	Category        string
	Amount          uint64
	Policy          string
	VestingDuration uint64
}

func (RewardGranted) EventType() string { return TypeRewardGranted }

func (e RewardGranted) Event() *types.Event {
	attrs := map[string]string{
		"id":        strconv.FormatUint(e.ID, 10),
		"recipient": formatAccount(e.Recipient),
		"category":  e.Category,
		"amount":    formatAmount(e.Amount),
		"policy":    e.Policy,
	}
	if e.VestingDuration > 0 {
		attrs["vestingDuration"] = strconv.FormatUint(e.VestingDuration, 10)
	}
	return &types.Event{Type: TypeRewardGranted, Attributes: attrs}
}

type RewardClaimed struct {
	ID        uint64
	Recipient [20]byte
	Amount    uint64
	Claimed   uint64
	Status    string
}

func (RewardClaimed) EventType() string { return TypeRewardClaimed }

func (e RewardClaimed) Event() *types.Event {
	return &types.Event{Type: TypeRewardClaimed, Attributes: map[string]string{
		"id":        strconv.FormatUint(e.ID, 10),
		"recipient": formatAccount(e.Recipient),
		"amount":    formatAmount(e.Amount),
		"claimed":   formatAmount(e.Claimed),
		"status":    e.Status,
	}}
}

type RewardCancelled struct {
	ID        uint64
	Recipient [20]byte
	Returned  uint64
}

func (RewardCancelled) EventType() string { return TypeRewardCancelled }

func (e RewardCancelled) Event() *types.Event {
	return &types.Event{Type: TypeRewardCancelled, Attributes: map[string]string{
		"id":        strconv.FormatUint(e.ID, 10),
		"recipient": formatAccount(e.Recipient),
		"returned":  formatAmount(e.Returned),
	}}
}

type RewardStageUnlocked struct {
	ID          uint64
	Recipient   [20]byte
	Stage       uint8
	CriteriaMet uint8
}

func (RewardStageUnlocked) EventType() string { return TypeRewardStageUnlocked }

func (e RewardStageUnlocked) Event() *types.Event {
	return &types.Event{Type: TypeRewardStageUnlocked, Attributes: map[string]string{
		"id":          strconv.FormatUint(e.ID, 10),
		"recipient":   formatAccount(e.Recipient),
		"stage":       strconv.FormatUint(uint64(e.Stage), 10),
		"criteriaMet": strconv.FormatUint(uint64(e.CriteriaMet), 10),
	}}
}

type RewardParamsUpdated struct {
	SmallThreshold  uint64
	MediumThreshold uint64
}

func (RewardParamsUpdated) EventType() string { return TypeRewardParamsUpdated }

func (e RewardParamsUpdated) Event() *types.Event {
	return &types.Event{Type: TypeRewardParamsUpdated, Attributes: map[string]string{
		"smallThreshold":  formatAmount(e.SmallThreshold),
		"mediumThreshold": formatAmount(e.MediumThreshold),
	}}
}
