package staking

import "errors"

var (
	errNilState = errors.New("staking: state not configured")

	ErrStakeAmountTooLow        = errors.New("staking: stake amount below minimum")
	ErrInvalidLockDuration      = errors.New("staking: invalid lock duration")
	ErrInvalidApyRate           = errors.New("staking: invalid apy rate")
	ErrPositionNotFound         = errors.New("staking: position not found")
	ErrUnauthorized             = errors.New("staking: caller not authorized")
	ErrStakeNotActive           = errors.New("staking: stake not active")
	ErrNoRewardsToClaim         = errors.New("staking: no rewards to claim")
	ErrInsufficientStakedAmount = errors.New("staking: insufficient staked amount")
)
