package bank

import (
	"errors"
	"fmt"

	"fracledger/core/events"
	"fracledger/native/common"
)

var (
	// ErrInsufficientBalance is returned when the sender cannot cover a transfer.
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
	errNilState            = errors.New("bank: state not configured")
)

type balanceState interface {
	Balance(addr [20]byte) (uint64, error)
	SetBalance(addr [20]byte, amount uint64) error
}

// Bank moves native balances between accounts.
type Bank struct {
	state   balanceState
	emitter events.Emitter
}

// New returns a bank bound to state. A nil emitter discards transfer events.
func New(state balanceState, emitter events.Emitter) *Bank {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &Bank{state: state, emitter: emitter}
}

// Transfer debits from and credits to. Zero amounts and self transfers are
// no-ops.
func (b *Bank) Transfer(from, to [20]byte, amount uint64) error {
	return b.TransferWithReason(from, to, amount, "")
}

// TransferWithReason behaves like Transfer and tags the emitted event.
func (b *Bank) TransferWithReason(from, to [20]byte, amount uint64, reason string) error {
	if b == nil || b.state == nil {
		return errNilState
	}
	if amount == 0 || from == to {
		return nil
	}
	fromBalance, err := b.state.Balance(from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, fromBalance, amount)
	}
	toBalance, err := b.state.Balance(to)
	if err != nil {
		return err
	}
	credited, err := common.AddU64(toBalance, amount)
	if err != nil {
		return err
	}
	if err := b.state.SetBalance(from, fromBalance-amount); err != nil {
		return err
	}
	if err := b.state.SetBalance(to, credited); err != nil {
		return err
	}
	b.emitter.Emit(events.Transfer{From: from, To: to, Amount: amount, Reason: reason})
	return nil
}

// Credit mints amount into addr. Only genesis uses it.
func (b *Bank) Credit(addr [20]byte, amount uint64) error {
	if b == nil || b.state == nil {
		return errNilState
	}
	balance, err := b.state.Balance(addr)
	if err != nil {
		return err
	}
	next, err := common.AddU64(balance, amount)
	if err != nil {
		return err
	}
	return b.state.SetBalance(addr, next)
}
