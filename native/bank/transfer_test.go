package bank

import (
	"errors"
	"testing"

	"fracledger/core/events"
	"fracledger/native/common"
)

type memBalances map[[20]byte]uint64

func (m memBalances) Balance(addr [20]byte) (uint64, error) { return m[addr], nil }

func (m memBalances) SetBalance(addr [20]byte, amount uint64) error {
	m[addr] = amount
	return nil
}

func account(b byte) [20]byte {
	var out [20]byte
	out[0] = b
	return out
}

func TestTransferMovesFundsAndEmits(t *testing.T) {
	balances := memBalances{account(1): 100}
	buf := &events.Buffer{}
	b := New(balances, buf)

	if err := b.TransferWithReason(account(1), account(2), 40, "stake"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if balances[account(1)] != 60 || balances[account(2)] != 40 {
		t.Fatalf("unexpected balances %v", balances)
	}
	drained := buf.Drain()
	if len(drained) != 1 {
		t.Fatalf("expected one event, got %d", len(drained))
	}
	transfer, ok := drained[0].(events.Transfer)
	if !ok || transfer.Reason != "stake" || transfer.Amount != 40 {
		t.Fatalf("unexpected event %#v", drained[0])
	}
}

func TestTransferInsufficientBalance(t *testing.T) {
	balances := memBalances{account(1): 10}
	b := New(balances, nil)
	err := b.Transfer(account(1), account(2), 11)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if balances[account(1)] != 10 || balances[account(2)] != 0 {
		t.Fatalf("balances changed on failure: %v", balances)
	}
}

func TestTransferNoops(t *testing.T) {
	balances := memBalances{account(1): 10}
	buf := &events.Buffer{}
	b := New(balances, buf)
	if err := b.Transfer(account(1), account(1), 5); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	if err := b.Transfer(account(1), account(2), 0); err != nil {
		t.Fatalf("zero transfer: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("no-op transfers must not emit")
	}
}

func TestCreditOverflow(t *testing.T) {
	balances := memBalances{account(1): ^uint64(0)}
	b := New(balances, nil)
	if err := b.Credit(account(1), 1); !errors.Is(err, common.ErrMathOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if err := b.Credit(account(2), 7); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if balances[account(2)] != 7 {
		t.Fatalf("unexpected balance %d", balances[account(2)])
	}
}

func TestNilStateRejected(t *testing.T) {
	var b *Bank
	if err := b.Transfer(account(1), account(2), 1); err == nil {
		t.Fatalf("expected error for nil bank")
	}
}
