package rpc

import (
	"context"
	"net/http"

	"fracledger/native/milestones"
)

type recordActivityParams struct {
	User   string `json:"user"`
	Kind   string `json:"kind"`
	Amount string `json:"amount"`
}

type userParams struct {
	User string `json:"user"`
}

type completeReferralParams struct {
	Code    string `json:"code"`
	Referee string `json:"referee"`
}

type referralQueryParams struct {
	User string `json:"user,omitempty"`
	Code string `json:"code,omitempty"`
}

func (s *Server) handleRecordActivity(ctx context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params recordActivityParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	user, rpcErr := parseAccount("user", params.User)
	if rpcErr != nil {
		return nil, rpcErr
	}
	kind, err := milestones.ParseActivityKind(params.Kind)
	if err != nil {
		return nil, invalidParams(err.Error(), nil)
	}
	amount, rpcErr := parseAmount("amount", params.Amount, false)
	if rpcErr != nil {
		return nil, rpcErr
	}
	reporter, _ := callerFrom(ctx)
	progress, err := s.ledger.RecordActivity(reporter, user, kind, amount)
	if err != nil {
		return nil, ledgerError(err)
	}
	return progressResult(user, progress), nil
}

func (s *Server) handleGetProgress(_ context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params userParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	user, rpcErr := parseAccount("user", params.User)
	if rpcErr != nil {
		return nil, rpcErr
	}
	progress, err := s.ledger.Progress(user)
	if err != nil {
		return nil, ledgerError(err)
	}
	return progressResult(user, progress), nil
}

func (s *Server) handleCreateReferralCode(ctx context.Context, req *RPCRequest) (interface{}, *RPCError) {
	if len(req.Params) > 1 {
		return nil, invalidParams("no parameters expected", nil)
	}
	caller, _ := callerFrom(ctx)
	code, err := s.ledger.CreateReferralCode(caller)
	if err != nil {
		return nil, ledgerError(err)
	}
	return referralResult(code), nil
}

func (s *Server) handleCompleteReferral(ctx context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params completeReferralParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	referee, rpcErr := parseAccount("referee", params.Referee)
	if rpcErr != nil {
		return nil, rpcErr
	}
	reporter, _ := callerFrom(ctx)
	code, err := s.ledger.CompleteReferral(reporter, params.Code, referee)
	if err != nil {
		return nil, ledgerError(err)
	}
	return referralResult(code), nil
}

// handleGetReferral looks a record up by code, or by owner when no code is
// supplied.
func (s *Server) handleGetReferral(_ context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params referralQueryParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	if params.Code != "" {
		code, err := s.ledger.LookupReferral(params.Code)
		if err != nil {
			return nil, ledgerError(err)
		}
		return referralResult(code), nil
	}
	user, rpcErr := parseAccount("user", params.User)
	if rpcErr != nil {
		return nil, rpcErr
	}
	code, found, err := s.ledger.Referral(user)
	if err != nil {
		return nil, ledgerError(err)
	}
	if !found {
		return nil, &RPCError{Code: codeNotFound, Message: "referral code not found", status: http.StatusNotFound}
	}
	return referralResult(code), nil
}
