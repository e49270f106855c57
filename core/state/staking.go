package state

import (
	"fmt"

	"fracledger/native/pool"
	"fracledger/native/staking"
)

// RewardPool loads the singleton reserve aggregate.
func (m *Manager) RewardPool() (*pool.Pool, error) {
	p := new(pool.Pool)
	ok, err := m.KVGet(poolKeyBytes, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("state: reward pool not initialised")
	}
	return p, nil
}

// PutRewardPool stores the reserve aggregate after checking its identity.
func (m *Manager) PutRewardPool(p *pool.Pool) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return m.KVPut(poolKeyBytes, p)
}

// StakingParams loads the staking configuration.
func (m *Manager) StakingParams() (*staking.Params, error) {
	params := new(staking.Params)
	ok, err := m.KVGet(stakingParamsKeyBytes, params)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("state: staking params not initialised")
	}
	return params, nil
}

// PutStakingParams stores the staking configuration.
func (m *Manager) PutStakingParams(params *staking.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	return m.KVPut(stakingParamsKeyBytes, params)
}

func (m *Manager) StakePositionGet(id uint64) (*staking.Position, bool, error) {
	pos := new(staking.Position)
	ok, err := m.KVGet(StakePositionKey(id), pos)
	if err != nil || !ok {
		return nil, ok, err
	}
	return pos, true, nil
}

func (m *Manager) StakePositionPut(pos *staking.Position) error {
	if pos == nil {
		return fmt.Errorf("state: nil stake position")
	}
	return m.KVPut(StakePositionKey(pos.ID), pos)
}

func (m *Manager) StakePositionIDs(owner [20]byte) ([]uint64, error) {
	var list [][]byte
	if err := m.KVGetList(withAddress(stakingOwnerPrefix, owner), &list); err != nil {
		return nil, err
	}
	return decodeIDs(list), nil
}

func (m *Manager) StakePositionIndex(owner [20]byte, id uint64) error {
	return m.KVAppend(withAddress(stakingOwnerPrefix, owner), encodeID(id))
}

func (m *Manager) NextStakePositionID() (uint64, error) {
	return m.nextSequence(stakingSequenceKey)
}
