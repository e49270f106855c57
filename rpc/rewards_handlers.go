package rpc

import (
	"context"
	"strings"

	"fracledger/native/rewards"
)

type grantRewardParams struct {
	Recipient string `json:"recipient"`
	Category  string `json:"category"`
	Amount    string `json:"amount"`
	// VestingSeconds is required when the amount selects linear vesting.
	VestingSeconds uint64 `json:"vestingSeconds,omitempty"`
}

type grantIDParams struct {
	ID uint64 `json:"id"`
}

type unlockStageParams struct {
	ID    uint64 `json:"id"`
	Stage uint8  `json:"stage"`
}

type rewardParamsUpdate struct {
	SmallThreshold  string `json:"smallThreshold,omitempty"`
	MediumThreshold string `json:"mediumThreshold,omitempty"`
}

type recipientParams struct {
	Recipient string `json:"recipient"`
}

func (s *Server) handleGrantReward(ctx context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params grantRewardParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	recipient, rpcErr := parseAccount("recipient", params.Recipient)
	if rpcErr != nil {
		return nil, rpcErr
	}
	category, err := rewards.ParseCategory(params.Category)
	if err != nil {
		return nil, invalidParams(err.Error(), nil)
	}
	amount, rpcErr := parseAmount("amount", params.Amount, false)
	if rpcErr != nil {
		return nil, rpcErr
	}
	caller, _ := callerFrom(ctx)
	grant, err := s.ledger.GrantReward(caller, recipient, category, amount, params.VestingSeconds)
	if err != nil {
		return nil, ledgerError(err)
	}
	return grantResult(grant), nil
}

func (s *Server) handleClaimReward(ctx context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params grantIDParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, _ := callerFrom(ctx)
	paid, grant, err := s.ledger.ClaimReward(caller, params.ID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return ClaimResult{Paid: formatAmount(paid), Grant: grantResult(grant)}, nil
}

func (s *Server) handleCancelGrant(ctx context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params grantIDParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, _ := callerFrom(ctx)
	grant, returned, err := s.ledger.CancelGrant(caller, params.ID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return CancelResult{Grant: grantResult(grant), Returned: formatAmount(returned)}, nil
}

func (s *Server) handleUnlockMilestoneStage(ctx context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params unlockStageParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, _ := callerFrom(ctx)
	grant, evaluation, err := s.ledger.UnlockMilestoneStage(caller, params.ID, params.Stage)
	if err != nil {
		rpcErr := ledgerError(err)
		if evaluation.Stage != 0 {
			rpcErr.Data = evaluationResult(evaluation)
		}
		return nil, rpcErr
	}
	return UnlockResult{Grant: grantResult(grant), Evaluation: evaluationResult(evaluation)}, nil
}

func (s *Server) handleUpdateRewardParams(ctx context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params rewardParamsUpdate
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	var small, medium *uint64
	if strings.TrimSpace(params.SmallThreshold) != "" {
		value, rpcErr := parseAmount("smallThreshold", params.SmallThreshold, false)
		if rpcErr != nil {
			return nil, rpcErr
		}
		small = &value
	}
	if strings.TrimSpace(params.MediumThreshold) != "" {
		value, rpcErr := parseAmount("mediumThreshold", params.MediumThreshold, false)
		if rpcErr != nil {
			return nil, rpcErr
		}
		medium = &value
	}
	if small == nil && medium == nil {
		return nil, invalidParams("smallThreshold or mediumThreshold required", nil)
	}
	caller, _ := callerFrom(ctx)
	updated, err := s.ledger.UpdateRewardParams(caller, small, medium)
	if err != nil {
		return nil, ledgerError(err)
	}
	return rewardParamsUpdate{
		SmallThreshold:  formatAmount(updated.SmallThreshold),
		MediumThreshold: formatAmount(updated.MediumThreshold),
	}, nil
}

func (s *Server) handleGetClaimable(_ context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params grantIDParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	amount, err := s.ledger.Claimable(params.ID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return AmountResult{Amount: formatAmount(amount)}, nil
}

func (s *Server) handleGetGrant(_ context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params grantIDParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	grant, err := s.ledger.Grant(params.ID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return grantResult(grant), nil
}

func (s *Server) handleGetGrants(_ context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params recipientParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	recipient, rpcErr := parseAccount("recipient", params.Recipient)
	if rpcErr != nil {
		return nil, rpcErr
	}
	grants, err := s.ledger.Grants(recipient)
	if err != nil {
		return nil, ledgerError(err)
	}
	out := make([]*GrantResult, 0, len(grants))
	for _, grant := range grants {
		out = append(out, grantResult(grant))
	}
	return out, nil
}
