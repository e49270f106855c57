package common

import "errors"

var ErrModulePaused = errors.New("module paused")

// Module names recognised by the pause registry.
const (
	ModuleStaking    = "staking"
	ModuleRewards    = "rewards"
	ModuleMilestones = "milestones"
	ModuleReferral   = "referral"
)

// Modules lists every pausable module in a stable order.
func Modules() []string {
	return []string{ModuleStaking, ModuleRewards, ModuleMilestones, ModuleReferral}
}

// IsKnownModule reports whether name identifies a pausable module.
func IsKnownModule(name string) bool {
	for _, module := range Modules() {
		if module == name {
			return true
		}
	}
	return false
}

// PauseView reports module pause flags.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard returns ErrModulePaused when module is paused. A nil view never pauses.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
