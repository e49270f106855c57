package state

import (
	"fmt"
	"strings"
)

var (
	poolKeyBytes           = []byte("pool/state")
	stakingParamsKeyBytes  = []byte("staking/params")
	stakingSequenceKey     = []byte("staking/sequence")
	stakingPositionPrefix  = "staking/position/%d"
	stakingOwnerPrefix     = []byte("staking/owner/")
	rewardParamsKeyBytes   = []byte("rewards/params")
	rewardSequenceKey      = []byte("rewards/sequence")
	rewardGrantPrefix      = "rewards/grant/%d"
	rewardRecipientPrefix  = []byte("rewards/recipient/")
	milestonePrefix        = []byte("milestones/progress/")
	referralPrefix         = []byte("referral/code/")
	referralCodeIndex      = "referral/index/%s"
	referralRefereePrefix  = []byte("referral/referee/")
	balancePrefix          = []byte("balance/")
	governanceAuthorityKey = []byte("gov/authority")
	governanceReporterKey  = []byte("gov/reporters")
	governancePausePrefix  = "gov/pause/%s"
)

func withAddress(prefix []byte, addr [20]byte) []byte {
	buf := make([]byte, len(prefix)+len(addr))
	copy(buf, prefix)
	copy(buf[len(prefix):], addr[:])
	return buf
}

// StakePositionKey returns the key of a stake position record.
func StakePositionKey(id uint64) []byte {
	return []byte(fmt.Sprintf(stakingPositionPrefix, id))
}

// RewardGrantKey returns the key of a grant record.
func RewardGrantKey(id uint64) []byte {
	return []byte(fmt.Sprintf(rewardGrantPrefix, id))
}

// ReferralCodeIndexKey returns the key resolving a code to its referrer.
func ReferralCodeIndexKey(code string) []byte {
	return []byte(fmt.Sprintf(referralCodeIndex, strings.ToUpper(code)))
}

// PauseKey returns the pause flag key of a module.
func PauseKey(module string) []byte {
	return []byte(fmt.Sprintf(governancePausePrefix, strings.ToLower(module)))
}
