package rewards

import (
	"errors"

	"fracledger/native/milestones"
)

var (
	errNilState = errors.New("rewards: state not configured")

	ErrInvalidAmount          = errors.New("rewards: invalid amount")
	ErrInvalidCategory        = errors.New("rewards: invalid category")
	ErrInvalidVestingDuration = errors.New("rewards: linear grants need a vesting duration")
	ErrGrantNotFound          = errors.New("rewards: grant not found")
	ErrUnauthorized           = errors.New("rewards: caller not authorized")
	ErrGrantNotActive         = errors.New("rewards: grant not active")
	ErrNoClaimableRewards     = errors.New("rewards: no claimable rewards")
	ErrNotMilestoneVesting    = errors.New("rewards: grant does not use milestone vesting")
	ErrAlreadyUnlocked        = errors.New("rewards: stage already unlocked")
	ErrPreviousStageLocked    = errors.New("rewards: previous stage not unlocked")
	ErrTimeRequirementNotMet  = errors.New("rewards: stage time requirement not met")
	ErrMilestonesNotMet       = errors.New("rewards: stage milestones not met")

	// ErrInvalidStage is shared with the milestone tracker.
	ErrInvalidStage = milestones.ErrInvalidStage
)
