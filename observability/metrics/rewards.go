package metrics

import (
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// RewardsMetrics tracks stake, grant and pool activity of the ledger.
type RewardsMetrics struct {
	stakesCreated     *prometheus.CounterVec
	stakeRewardsPaid  prometheus.Counter
	penalties         prometheus.Counter
	grants            *prometheus.CounterVec
	grantClaims       *prometheus.CounterVec
	stagesUnlocked    *prometheus.CounterVec
	poolBalance       *prometheus.GaugeVec
	totalStaked       prometheus.Gauge
	activeGrants      prometheus.Gauge
	rejected          *prometheus.CounterVec
	activityRecorded  *prometheus.CounterVec
	referralsComplete prometheus.Counter
}

var (
	rewardsOnce     sync.Once
	rewardsRegistry *RewardsMetrics
)

// Rewards returns the process wide registry.
func Rewards() *RewardsMetrics {
	rewardsOnce.Do(func() {
		rewardsRegistry = &RewardsMetrics{
			stakesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "frac_stakes_created_total",
				Help: "Count of stake positions opened by kind.",
			}, []string{"kind"}),
			stakeRewardsPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "frac_stake_rewards_paid_base_units_total",
				Help: "Staking yield paid out of the reward pool in base units.",
			}),
			penalties: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "frac_early_exit_penalties_base_units_total",
				Help: "Early exit penalties routed to the treasury in base units.",
			}),
			grants: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "frac_grants_created_total",
				Help: "Count of incentive grants by vesting policy.",
			}, []string{"policy"}),
			grantClaims: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "frac_grant_claims_total",
				Help: "Count of grant claims by vesting policy.",
			}, []string{"policy"}),
			stagesUnlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "frac_milestone_stages_unlocked_total",
				Help: "Count of milestone stages unlocked by stage.",
			}, []string{"stage"}),
			poolBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "frac_reward_pool_base_units",
				Help: "Reward pool buckets in base units.",
			}, []string{"bucket"}),
			totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "frac_total_staked_base_units",
				Help: "Principal currently locked in active stake positions.",
			}),
			activeGrants: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "frac_active_grants",
				Help: "Number of grants that are neither completed nor cancelled.",
			}),
			rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "frac_operations_rejected_total",
				Help: "Count of rejected ledger operations by operation and reason.",
			}, []string{"op", "reason"}),
			activityRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "frac_activity_recorded_total",
				Help: "Count of activity reports by kind.",
			}, []string{"kind"}),
			referralsComplete: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "frac_referrals_completed_total",
				Help: "Count of referees attributed to a referrer.",
			}),
		}
		prometheus.MustRegister(
			rewardsRegistry.stakesCreated,
			rewardsRegistry.stakeRewardsPaid,
			rewardsRegistry.penalties,
			rewardsRegistry.grants,
			rewardsRegistry.grantClaims,
			rewardsRegistry.stagesUnlocked,
			rewardsRegistry.poolBalance,
			rewardsRegistry.totalStaked,
			rewardsRegistry.activeGrants,
			rewardsRegistry.rejected,
			rewardsRegistry.activityRecorded,
			rewardsRegistry.referralsComplete,
		)
	})
	return rewardsRegistry
}

func label(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}

func (m *RewardsMetrics) RecordStakeCreated(kind string) {
	if m == nil {
		return
	}
	m.stakesCreated.WithLabelValues(label(kind)).Inc()
}

func (m *RewardsMetrics) RecordStakeRewards(amount uint64) {
	if m == nil {
		return
	}
	m.stakeRewardsPaid.Add(float64(amount))
}

func (m *RewardsMetrics) RecordPenalty(amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	m.penalties.Add(float64(amount))
}

func (m *RewardsMetrics) RecordGrant(policy string) {
	if m == nil {
		return
	}
	m.grants.WithLabelValues(label(policy)).Inc()
}

func (m *RewardsMetrics) RecordGrantClaim(policy string) {
	if m == nil {
		return
	}
	m.grantClaims.WithLabelValues(label(policy)).Inc()
}

func (m *RewardsMetrics) RecordStageUnlocked(stage string) {
	if m == nil {
		return
	}
	m.stagesUnlocked.WithLabelValues(label(stage)).Inc()
}

func (m *RewardsMetrics) RecordActivity(kind string) {
	if m == nil {
		return
	}
	m.activityRecorded.WithLabelValues(label(kind)).Inc()
}

func (m *RewardsMetrics) RecordReferral() {
	if m == nil {
		return
	}
	m.referralsComplete.Inc()
}

// SetPool publishes the pool buckets.
func (m *RewardsMetrics) SetPool(allocation, distributed, remaining, pending, staked, activeGrants uint64) {
	if m == nil {
		return
	}
	m.poolBalance.WithLabelValues("allocation").Set(float64(allocation))
	m.poolBalance.WithLabelValues("distributed").Set(float64(distributed))
	m.poolBalance.WithLabelValues("remaining").Set(float64(remaining))
	m.poolBalance.WithLabelValues("vested_pending").Set(float64(pending))
	m.totalStaked.Set(float64(staked))
	m.activeGrants.Set(float64(activeGrants))
}

// RecordRejected counts a failed operation. The reason is the innermost
// sentinel message so label cardinality stays bounded.
func (m *RewardsMetrics) RecordRejected(op string, err error) {
	if m == nil || err == nil {
		return
	}
	m.rejected.WithLabelValues(label(op), Reason(err)).Inc()
}

// Reason reduces err to a short stable label.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 {
		msg = msg[idx+2:]
	}
	if idx := strings.Index(msg, ":"); idx >= 0 {
		msg = msg[:idx]
	}
	return strings.ReplaceAll(strings.TrimSpace(msg), " ", "_")
}
