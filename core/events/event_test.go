package events

import (
	"testing"

	"fracledger/crypto"
)

func TestBufferDrainPreservesOrder(t *testing.T) {
	var buf Buffer
	buf.Emit(StakeCreated{ID: 1})
	buf.Emit(nil)
	buf.Emit(RewardClaimed{ID: 2})
	if buf.Len() != 2 {
		t.Fatalf("expected 2 buffered events, got %d", buf.Len())
	}
	drained := buf.Drain()
	if drained[0].EventType() != TypeStakeCreated || drained[1].EventType() != TypeRewardClaimed {
		t.Fatalf("unexpected order: %v", drained)
	}
	if buf.Len() != 0 {
		t.Fatalf("buffer not reset")
	}
}

func TestRenderUsesBech32(t *testing.T) {
	var owner [20]byte
	owner[19] = 7
	evt := Render(StakeUnstaked{ID: 3, Owner: owner, Amount: 10, Returned: 9, Penalty: 1})
	if evt.Type != TypeStakeUnstaked {
		t.Fatalf("unexpected type %s", evt.Type)
	}
	if evt.Attr("owner") != crypto.FormatAccount(owner) {
		t.Fatalf("unexpected owner %s", evt.Attr("owner"))
	}
	if evt.Attr("penalty") != "1" || evt.Attr("returned") != "9" {
		t.Fatalf("unexpected attributes %v", evt.Attributes)
	}
}

type bareEvent struct{}

func (bareEvent) EventType() string { return "bare" }

func TestRenderFallsBackForBareEvents(t *testing.T) {
	evt := Render(bareEvent{})
	if evt.Type != "bare" || len(evt.Attributes) != 0 {
		t.Fatalf("unexpected envelope %+v", evt)
	}
	if Render(nil) != nil {
		t.Fatalf("expected nil envelope")
	}
}

func TestMultiEmitter(t *testing.T) {
	var a, b Buffer
	MultiEmitter{&a, nil, &b}.Emit(ReferralCodeCreated{Code: "REF1"})
	if a.Len() != 1 || b.Len() != 1 {
		t.Fatalf("expected fan out to both buffers")
	}
}
