package state

import (
	"fmt"

	"fracledger/native/referral"
)

func (m *Manager) ReferralGet(referrer [20]byte) (*referral.Code, bool, error) {
	code := new(referral.Code)
	ok, err := m.KVGet(withAddress(referralPrefix, referrer), code)
	if err != nil || !ok {
		return nil, ok, err
	}
	return code, true, nil
}

func (m *Manager) ReferralPut(code *referral.Code) error {
	if code == nil {
		return fmt.Errorf("state: nil referral code")
	}
	return m.KVPut(withAddress(referralPrefix, code.Referrer), code)
}

func (m *Manager) ReferralOwner(code string) ([20]byte, bool, error) {
	var owner [20]byte
	ok, err := m.KVGet(ReferralCodeIndexKey(code), &owner)
	return owner, ok, err
}

func (m *Manager) ReferralIndexCode(code string, referrer [20]byte) error {
	return m.KVPut(ReferralCodeIndexKey(code), referrer)
}

func (m *Manager) RefereeGet(referee [20]byte) ([20]byte, bool, error) {
	var referrer [20]byte
	ok, err := m.KVGet(withAddress(referralRefereePrefix, referee), &referrer)
	return referrer, ok, err
}

func (m *Manager) RefereePut(referee, referrer [20]byte) error {
	return m.KVPut(withAddress(referralRefereePrefix, referee), referrer)
}
