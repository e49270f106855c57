package rpc

import (
	"context"
	"strings"

	"fracledger/crypto"
)

type setPausedParams struct {
	Module string `json:"module"`
	Paused bool   `json:"paused"`
}

type setReporterParams struct {
	Reporter string `json:"reporter"`
	Allowed  bool   `json:"allowed"`
}

type resolveTierParams struct {
	Table      string   `json:"table,omitempty"`
	Thresholds []string `json:"thresholds,omitempty"`
	Value      string   `json:"value"`
}

type totalParams struct {
	Total string `json:"total"`
}

type addressParams struct {
	Address string `json:"address"`
}

func (s *Server) handleSetModulePaused(ctx context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params setPausedParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	if strings.TrimSpace(params.Module) == "" {
		return nil, invalidParams("module is required", nil)
	}
	caller, _ := callerFrom(ctx)
	if err := s.ledger.SetModulePaused(caller, params.Module, params.Paused); err != nil {
		return nil, ledgerError(err)
	}
	return s.handleGetPaused(ctx, &RPCRequest{})
}

func (s *Server) handleSetActivityReporter(ctx context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params setReporterParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	reporter, rpcErr := parseAccount("reporter", params.Reporter)
	if rpcErr != nil {
		return nil, rpcErr
	}
	caller, _ := callerFrom(ctx)
	if err := s.ledger.SetActivityReporter(caller, reporter, params.Allowed); err != nil {
		return nil, ledgerError(err)
	}
	return params, nil
}

func (s *Server) handleGetPaused(_ context.Context, _ *RPCRequest) (interface{}, *RPCError) {
	paused, err := s.ledger.Paused()
	if err != nil {
		return nil, ledgerError(err)
	}
	if paused == nil {
		paused = []string{}
	}
	return map[string][]string{"paused": paused}, nil
}

func (s *Server) handleResolveTier(_ context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params resolveTierParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	value, rpcErr := parseAmount("value", params.Value, true)
	if rpcErr != nil {
		return nil, rpcErr
	}
	var thresholds []uint64
	if params.Table == "" {
		if thresholds, rpcErr = parseThresholds(params.Thresholds); rpcErr != nil {
			return nil, rpcErr
		}
	} else if len(params.Thresholds) > 0 {
		return nil, invalidParams("table and thresholds are mutually exclusive", nil)
	}
	tier, err := s.ledger.ResolveTier(params.Table, thresholds, value)
	if err != nil {
		return nil, ledgerError(err)
	}
	return TierResult{Tier: tier}, nil
}

func (s *Server) handleGetPriorityTier(_ context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params totalParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	total, rpcErr := parseAmount("total", params.Total, true)
	if rpcErr != nil {
		return nil, rpcErr
	}
	tier, err := s.ledger.PriorityTier(total)
	if err != nil {
		return nil, ledgerError(err)
	}
	return TierResult{Tier: tier}, nil
}

func (s *Server) handleGetPool(_ context.Context, _ *RPCRequest) (interface{}, *RPCError) {
	p, err := s.ledger.Pool()
	if err != nil {
		return nil, ledgerError(err)
	}
	return poolResult(p), nil
}

func (s *Server) handleGetBalance(_ context.Context, req *RPCRequest) (interface{}, *RPCError) {
	var params addressParams
	if rpcErr := decodeObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := parseAccount("address", params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := s.ledger.Balance(addr)
	if err != nil {
		return nil, ledgerError(err)
	}
	return BalanceResult{Address: crypto.FormatAccount(addr), Balance: formatAmount(balance)}, nil
}
