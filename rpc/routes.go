package rpc

import "fracledger/native/common"

func (s *Server) routes() map[string]method {
	return map[string]method{
		"frac_resolveTier":     {module: "tiers", handle: s.handleResolveTier},
		"frac_getPriorityTier": {module: "tiers", handle: s.handleGetPriorityTier},

		"frac_createStake":              {module: common.ModuleStaking, mutates: true, handle: s.handleCreateStake},
		"frac_claimStakeRewards":        {module: common.ModuleStaking, mutates: true, handle: s.handleClaimStakeRewards},
		"frac_unstake":                  {module: common.ModuleStaking, mutates: true, handle: s.handleUnstake},
		"frac_updateApyRates":           {module: common.ModuleStaking, mutates: true, handle: s.handleUpdateApyRates},
		"frac_updatePriorityThresholds": {module: common.ModuleStaking, mutates: true, handle: s.handleUpdatePriorityThresholds},
		"frac_getStake":                 {module: common.ModuleStaking, handle: s.handleGetStake},
		"frac_getStakes":                {module: common.ModuleStaking, handle: s.handleGetStakes},
		"frac_previewStakeRewards":      {module: common.ModuleStaking, handle: s.handlePreviewStakeRewards},

		"frac_grantReward":          {module: common.ModuleRewards, mutates: true, handle: s.handleGrantReward},
		"frac_claimReward":          {module: common.ModuleRewards, mutates: true, handle: s.handleClaimReward},
		"frac_cancelGrant":          {module: common.ModuleRewards, mutates: true, handle: s.handleCancelGrant},
		"frac_unlockMilestoneStage": {module: common.ModuleRewards, mutates: true, handle: s.handleUnlockMilestoneStage},
		"frac_updateRewardParams":   {module: common.ModuleRewards, mutates: true, handle: s.handleUpdateRewardParams},
		"frac_getClaimable":         {module: common.ModuleRewards, handle: s.handleGetClaimable},
		"frac_getGrant":             {module: common.ModuleRewards, handle: s.handleGetGrant},
		"frac_getGrants":            {module: common.ModuleRewards, handle: s.handleGetGrants},

		"frac_recordActivity": {module: common.ModuleMilestones, mutates: true, handle: s.handleRecordActivity},
		"frac_getProgress":    {module: common.ModuleMilestones, handle: s.handleGetProgress},

		"frac_createReferralCode": {module: common.ModuleReferral, mutates: true, handle: s.handleCreateReferralCode},
		"frac_completeReferral":   {module: common.ModuleReferral, mutates: true, handle: s.handleCompleteReferral},
		"frac_getReferral":        {module: common.ModuleReferral, handle: s.handleGetReferral},

		"frac_setModulePaused":     {module: "admin", mutates: true, handle: s.handleSetModulePaused},
		"frac_setActivityReporter": {module: "admin", mutates: true, handle: s.handleSetActivityReporter},
		"frac_getPaused":           {module: "admin", handle: s.handleGetPaused},
		"frac_getPool":             {module: "ledger", handle: s.handleGetPool},
		"frac_getBalance":          {module: "ledger", handle: s.handleGetBalance},
	}
}
