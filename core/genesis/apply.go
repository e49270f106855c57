package genesis

import (
	"errors"
	"fmt"

	"fracledger/core/state"
	"fracledger/native/bank"
	"fracledger/native/pool"
	"fracledger/native/rewards"
)

// ErrAlreadyInitialised is returned when genesis is applied to a populated
// store.
var ErrAlreadyInitialised = errors.New("genesis: ledger already initialised")

// Initialised reports whether genesis has been applied to the state.
func Initialised(manager *state.Manager) (bool, error) {
	return manager.KVGet(genesisMarkerKey, nil)
}

var genesisMarkerKey = []byte("genesis/applied")

// Apply writes the initial records into manager. The caller commits.
func Apply(manager *state.Manager, spec *Spec) error {
	if manager == nil {
		return fmt.Errorf("genesis: state manager required")
	}
	if spec == nil {
		return fmt.Errorf("genesis: spec required")
	}
	done, err := Initialised(manager)
	if err != nil {
		return err
	}
	if done {
		return ErrAlreadyInitialised
	}
	resolved, err := spec.Resolve()
	if err != nil {
		return err
	}

	if err := manager.SetAuthority(resolved.Authority); err != nil {
		return err
	}
	for _, reporter := range resolved.Reporters {
		if err := manager.SetActivityReporter(reporter, true); err != nil {
			return err
		}
	}
	if err := manager.PutStakingParams(resolved.Staking); err != nil {
		return fmt.Errorf("genesis: staking params: %w", err)
	}
	rewardParams := rewards.DefaultParams(resolved.RewardsVault)
	rewardParams.SmallThreshold = resolved.SmallThreshold
	rewardParams.MediumThreshold = resolved.MediumThreshold
	if err := manager.PutRewardParams(rewardParams); err != nil {
		return fmt.Errorf("genesis: reward params: %w", err)
	}
	if err := manager.PutRewardPool(pool.New(resolved.RewardPool)); err != nil {
		return fmt.Errorf("genesis: reward pool: %w", err)
	}

	ledger := bank.New(manager, nil)
	if err := ledger.Credit(resolved.RewardsVault, resolved.RewardPool); err != nil {
		return fmt.Errorf("genesis: fund rewards vault: %w", err)
	}
	for _, alloc := range resolved.Alloc {
		if err := ledger.Credit(alloc.Account, alloc.Amount); err != nil {
			return fmt.Errorf("genesis: alloc: %w", err)
		}
	}
	for _, module := range resolved.Paused {
		if err := manager.SetPaused(module, true); err != nil {
			return err
		}
	}
	return manager.KVPut(genesisMarkerKey, true)
}
