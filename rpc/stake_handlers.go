package rpc

import (
	"context"
	"strconv"
	"strings"

	"fracledger/native/staking"
)

type createStakeParams struct {
	Amount   string `json:"amount"`
	Kind     string `json:"kind,omitempty"`
	LockDays uint64 `json:"lockDays"`
}

type stakeIDParams struct {
	ID uint64 `json:"id"`
}

type unstakeParams struct {
	ID uint64 `json:"id"`
	// Amount defaults to the full principal when empty.
	Amount string `json:"amount,omitempty"`
}

type ownerParams struct {
	Owner string `json:"owner"`
}

type updateRatesParams struct {
	// Rates maps lock days to basis points.
	Rates map[string]uint64 `json:"rates"`
}

type thresholdsParams struct {
	Thresholds []string `json:"thresholds"`
}

func (s *Server) handleCreateStake(ctx context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params createStakeParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount("amount", params.Amount, false)
	if rpcErr != nil {
		return nil, rpcErr
	}
	kind := staking.KindFlexible
	if params.LockDays > 0 {
		kind = staking.KindFixedTerm
	}
	if strings.TrimSpace(params.Kind) != "" {
		parsed, err := staking.ParseKind(params.Kind)
		if err != nil {
			return nil, invalidParams(err.Error(), nil)
		}
		kind = parsed
	}
	caller, _ := callerFrom(ctx)
	pos, err := s.ledger.CreateStake(caller, amount, kind, params.LockDays)
	if err != nil {
		return nil, ledgerError(err)
	}
	return stakeResult(pos), nil
}

func (s *Server) handleClaimStakeRewards(ctx context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params stakeIDParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, _ := callerFrom(ctx)
	paid, err := s.ledger.ClaimStakeRewards(caller, params.ID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return AmountResult{Amount: formatAmount(paid)}, nil
}

func (s *Server) handleUnstake(ctx context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params unstakeParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount("amount", params.Amount, true)
	if rpcErr != nil {
		return nil, rpcErr
	}
	caller, _ := callerFrom(ctx)
	result, err := s.ledger.Unstake(caller, params.ID, amount)
	if err != nil {
		return nil, ledgerError(err)
	}
	return UnstakeResult{
		Stake:    stakeResult(result.Position),
		Amount:   formatAmount(result.Amount),
		Returned: formatAmount(result.Returned),
		Penalty:  formatAmount(result.Penalty),
	}, nil
}

func (s *Server) handleUpdateApyRates(ctx context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params updateRatesParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	rates := make(map[uint64]uint64, len(params.Rates))
	for rawDays, bps := range params.Rates {
		days, err := strconv.ParseUint(strings.TrimSpace(rawDays), 10, 64)
		if err != nil {
			return nil, invalidParams("invalid lock duration "+strconv.Quote(rawDays), nil)
		}
		rates[days] = bps
	}
	caller, _ := callerFrom(ctx)
	if err := s.ledger.UpdateApyRates(caller, staking.RateTableFromMap(rates)); err != nil {
		return nil, ledgerError(err)
	}
	return s.stakingParamsResult()
}

func (s *Server) handleUpdatePriorityThresholds(ctx context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params thresholdsParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	thresholds, rpcErr := parseThresholds(params.Thresholds)
	if rpcErr != nil {
		return nil, rpcErr
	}
	caller, _ := callerFrom(ctx)
	if err := s.ledger.UpdatePriorityThresholds(caller, thresholds); err != nil {
		return nil, ledgerError(err)
	}
	return s.stakingParamsResult()
}

type StakingParamsResult struct {
	MinStake            string            `json:"minStake"`
	EarlyExitPenaltyBps uint64            `json:"earlyExitPenaltyBps"`
	Rates               map[string]uint64 `json:"rates"`
	PriorityThresholds  []string          `json:"priorityThresholds"`
}

func (s *Server) stakingParamsResult() (interface{}, *RPCError) {
	params, err := s.ledger.StakingParams()
	if err != nil {
		return nil, ledgerError(err)
	}
	rates := make(map[string]uint64, len(params.Rates))
	for _, entry := range params.Rates {
		rates[strconv.FormatUint(entry.LockDays, 10)] = entry.APYBps
	}
	thresholds := make([]string, len(params.PriorityThresholds))
	for i, value := range params.PriorityThresholds {
		thresholds[i] = formatAmount(value)
	}
	return StakingParamsResult{
		MinStake:            formatAmount(params.MinStake),
		EarlyExitPenaltyBps: params.EarlyExitPenaltyBps,
		Rates:               rates,
		PriorityThresholds:  thresholds,
	}, nil
}

func (s *Server) handleGetStake(_ context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params stakeIDParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	pos, err := s.ledger.Stake(params.ID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return stakeResult(pos), nil
}

func (s *Server) handleGetStakes(_ context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params ownerParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := parseAccount("owner", params.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	positions, err := s.ledger.Stakes(owner)
	if err != nil {
		return nil, ledgerError(err)
	}
	out := make([]*StakeResult, 0, len(positions))
	for _, pos := range positions {
		out = append(out, stakeResult(pos))
	}
	return out, nil
}

func (s *Server) handlePreviewStakeRewards(_ context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params stakeIDParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	amount, err := s.ledger.PreviewStakeRewards(params.ID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return AmountResult{Amount: formatAmount(amount)}, nil
}

func parseThresholds(raw []string) ([]uint64, *RPCError) {
	if len(raw) == 0 {
		return nil, invalidParams("thresholds are required", nil)
	}
	out := make([]uint64, len(raw))
	for i, value := range raw {
		parsed, rpcErr := parseAmount("threshold", value, true)
		if rpcErr != nil {
			return nil, rpcErr
		}
		out[i] = parsed
	}
	return out, nil
}
