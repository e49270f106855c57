package state

import (
	"fmt"

	"fracledger/native/milestones"
)

func (m *Manager) MilestoneProgressGet(user [20]byte) (*milestones.Progress, bool, error) {
	progress := new(milestones.Progress)
	ok, err := m.KVGet(withAddress(milestonePrefix, user), progress)
	if err != nil || !ok {
		return nil, ok, err
	}
	return progress, true, nil
}

func (m *Manager) MilestoneProgressPut(progress *milestones.Progress) error {
	if progress == nil {
		return fmt.Errorf("state: nil milestone progress")
	}
	return m.KVPut(withAddress(milestonePrefix, progress.User), progress)
}
