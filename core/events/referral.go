package events

import (
	"strconv"

	"fracledger/core/types"
)

const (
	TypeReferralCodeCreated = "referral.codeCreated"
	TypeReferralCompleted   = "referral.completed"
)

type ReferralCodeCreated struct {
	Referrer [20]byte
	Code     string
}

func (ReferralCodeCreated) EventType() string { return TypeReferralCodeCreated }

func (e ReferralCodeCreated) Event() *types.Event {
	return &types.Event{Type: TypeReferralCodeCreated, Attributes: map[string]string{
		"referrer": formatAccount(e.Referrer),
		"code":     e.Code,
	}}
}

type ReferralCompleted struct {
	Referrer [20]byte
	Referee  [20]byte
	Code     string
	Total    uint64
}

func (ReferralCompleted) EventType() string { return TypeReferralCompleted }

func (e ReferralCompleted) Event() *types.Event {
	return &types.Event{Type: TypeReferralCompleted, Attributes: map[string]string{
		"referrer": formatAccount(e.Referrer),
		"referee":  formatAccount(e.Referee),
		"code":     e.Code,
		"total":    strconv.FormatUint(e.Total, 10),
	}}
}
