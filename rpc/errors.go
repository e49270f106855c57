package rpc

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	ledgererrors "fracledger/core/errors"
	"fracledger/crypto"
	"fracledger/native/bank"
	"fracledger/native/common"
	"fracledger/native/milestones"
	"fracledger/native/pool"
	"fracledger/native/referral"
	"fracledger/native/rewards"
	"fracledger/native/staking"
	"fracledger/native/tiers"
)

var (
	invalidParamErrors = []error{
		staking.ErrStakeAmountTooLow,
		staking.ErrInvalidLockDuration,
		staking.ErrInvalidApyRate,
		rewards.ErrInvalidAmount,
		rewards.ErrInvalidCategory,
		rewards.ErrInvalidVestingDuration,
		milestones.ErrInvalidStage,
		milestones.ErrUnknownActivity,
		referral.ErrInvalidCode,
		tiers.ErrInvalidThresholds,
		ledgererrors.ErrUnknownModule,
		ledgererrors.ErrUnknownTable,
	}
	unauthorizedErrors = []error{
		ledgererrors.ErrUnauthorized,
		staking.ErrUnauthorized,
		rewards.ErrUnauthorized,
		referral.ErrUnauthorized,
		milestones.ErrUnauthorizedReporter,
	}
	notFoundErrors = []error{
		staking.ErrPositionNotFound,
		rewards.ErrGrantNotFound,
		referral.ErrCodeNotFound,
	}
	rejectedErrors = []error{
		pool.ErrInsufficientRewardsPool,
		pool.ErrInsufficientPending,
		bank.ErrInsufficientBalance,
		common.ErrMathOverflow,
		staking.ErrStakeNotActive,
		staking.ErrNoRewardsToClaim,
		staking.ErrInsufficientStakedAmount,
		rewards.ErrGrantNotActive,
		rewards.ErrNoClaimableRewards,
		rewards.ErrNotMilestoneVesting,
		rewards.ErrAlreadyUnlocked,
		rewards.ErrPreviousStageLocked,
		rewards.ErrTimeRequirementNotMet,
		rewards.ErrMilestonesNotMet,
		referral.ErrCodeExists,
		referral.ErrCodeCollision,
		referral.ErrSelfReferral,
		referral.ErrAlreadyReferred,
	}
)

func matches(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ledgerError maps a ledger failure onto a JSON-RPC error. Failures outside
// the domain taxonomy surface as internal errors.
func ledgerError(err error) *RPCError {
	switch {
	case errors.Is(err, common.ErrModulePaused):
		return &RPCError{Code: codeModulePaused, Message: err.Error(), status: http.StatusServiceUnavailable}
	case errors.Is(err, ledgererrors.ErrNotInitialised):
		return &RPCError{Code: codeServerError, Message: err.Error(), status: http.StatusServiceUnavailable}
	case matches(err, unauthorizedErrors):
		return &RPCError{Code: codeUnauthorized, Message: err.Error(), status: http.StatusForbidden}
	case matches(err, notFoundErrors):
		return &RPCError{Code: codeNotFound, Message: err.Error(), status: http.StatusNotFound}
	case matches(err, invalidParamErrors):
		return invalidParams(err.Error(), nil)
	case matches(err, rejectedErrors):
		return &RPCError{Code: codeServerError, Message: err.Error(), status: http.StatusConflict}
	default:
		return &RPCError{Code: codeInternalError, Message: "internal error", Data: err.Error(), status: http.StatusInternalServerError}
	}
}

func parseAccount(field, raw string) ([20]byte, *RPCError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return [20]byte{}, invalidParams(field+" is required", nil)
	}
	addr, err := crypto.ParseAccount(trimmed)
	if err != nil {
		return [20]byte{}, invalidParams("invalid "+field, err.Error())
	}
	return addr, nil
}

// parseAmount reads a base-unit amount encoded as a decimal string.
func parseAmount(field, raw string, allowZero bool) (uint64, *RPCError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		if allowZero {
			return 0, nil
		}
		return 0, invalidParams(field+" is required", nil)
	}
	value, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, invalidParams("invalid "+field, err.Error())
	}
	if value == 0 && !allowZero {
		return 0, invalidParams(field+" must be positive", nil)
	}
	return value, nil
}

func formatAmount(v uint64) string {
	return strconv.FormatUint(v, 10)
}
