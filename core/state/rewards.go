package state

import (
	"fmt"

	"fracledger/native/rewards"
)

func (m *Manager) RewardParams() (*rewards.Params, error) {
	params := new(rewards.Params)
	ok, err := m.KVGet(rewardParamsKeyBytes, params)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("state: reward params not initialised")
	}
	return params, nil
}

func (m *Manager) PutRewardParams(params *rewards.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	return m.KVPut(rewardParamsKeyBytes, params)
}

func (m *Manager) RewardGrantGet(id uint64) (*rewards.Grant, bool, error) {
	grant := new(rewards.Grant)
	ok, err := m.KVGet(RewardGrantKey(id), grant)
	if err != nil || !ok {
		return nil, ok, err
	}
	return grant, true, nil
}

func (m *Manager) RewardGrantPut(grant *rewards.Grant) error {
	if grant == nil {
		return fmt.Errorf("state: nil grant")
	}
	if grant.Claimed > grant.TotalAmount {
		return fmt.Errorf("state: grant %d claimed %d exceeds total %d", grant.ID, grant.Claimed, grant.TotalAmount)
	}
	return m.KVPut(RewardGrantKey(grant.ID), grant)
}

func (m *Manager) RewardGrantIDs(recipient [20]byte) ([]uint64, error) {
	var list [][]byte
	if err := m.KVGetList(withAddress(rewardRecipientPrefix, recipient), &list); err != nil {
		return nil, err
	}
	return decodeIDs(list), nil
}

func (m *Manager) RewardGrantIndex(recipient [20]byte, id uint64) error {
	return m.KVAppend(withAddress(rewardRecipientPrefix, recipient), encodeID(id))
}

func (m *Manager) NextRewardGrantID() (uint64, error) {
	return m.nextSequence(rewardSequenceKey)
}
