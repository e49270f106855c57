package events

import (
	"strconv"

	"fracledger/core/types"
)

const TypeMilestoneActivityRecorded = "milestone.activityRecorded"

type MilestoneActivityRecorded struct {
	User     [20]byte
	Reporter [20]byte
	Kind     string
	Amount   uint64
}

func (MilestoneActivityRecorded) EventType() string { return TypeMilestoneActivityRecorded }

func (e MilestoneActivityRecorded) Event() *types.Event {
	attrs := map[string]string{
		"user":   formatAccount(e.User),
		"kind":   e.Kind,
		"amount": strconv.FormatUint(e.Amount, 10),
	}
	if !zeroAddress(e.Reporter) {
		attrs["reporter"] = formatAccount(e.Reporter)
	}
	return &types.Event{Type: TypeMilestoneActivityRecorded, Attributes: attrs}
}
