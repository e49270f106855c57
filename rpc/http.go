package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fracledger/core"
	"fracledger/observability"
	telemetry "fracledger/observability/otel"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeNotFound       = -32004
	codeRateLimited    = -32020
	codeModulePaused   = -32030
)

// ServerConfig configures the JSON-RPC endpoint.
type ServerConfig struct {
	Auth      AuthConfig
	RateLimit RateLimitConfig
	// ReadHeaderTimeout bounds slowloris style clients. Defaults to 5s.
	ReadHeaderTimeout time.Duration
}

type Server struct {
	ledger  *core.Ledger
	logger  *slog.Logger
	auth    *Authenticator
	limiter *RateLimiter
	tracer  trace.Tracer
	methods map[string]method

	serverMu   sync.Mutex
	httpServer *http.Server
	cfg        ServerConfig
}

func NewServer(ledger *core.Ledger, logger *slog.Logger, cfg ServerConfig) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}
	s := &Server{
		ledger:  ledger,
		logger:  logger,
		auth:    NewAuthenticator(cfg.Auth, logger),
		limiter: NewRateLimiter(cfg.RateLimit),
		tracer:  telemetry.Tracer(),
		cfg:     cfg,
	}
	s.methods = s.routes()
	return s
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`

	status int
}

func (e *RPCError) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

func invalidParams(message string, data interface{}) *RPCError {
	return &RPCError{Code: codeInvalidParams, Message: message, Data: data, status: http.StatusBadRequest}
}

// handlerFunc serves a single method. Exactly one of the results is non-nil.
type handlerFunc func(ctx context.Context, req *RPCRequest) (interface{}, *RPCError)

type method struct {
	module  string
	mutates bool
	handle  handlerFunc
}

// Handler returns the routed and instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(requestID)
	router.Use(s.limiter.Middleware)
	router.Use(s.auth.Middleware)
	router.Post("/", s.handle)
	router.Get("/healthz", s.handleHealth)
	return otelhttp.NewHandler(router, "frac.rpc")
}

// Serve accepts connections on listener until Shutdown is called.
func (s *Server) Serve(listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}
	s.serverMu.Lock()
	s.httpServer = srv
	s.serverMu.Unlock()
	s.logger.Info("json-rpc server listening", slog.String("address", listener.Addr().String()))
	err := srv.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Start listens on addr and serves.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Shutdown gracefully stops a running server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.serverMu.Lock()
	srv := s.httpServer
	s.serverMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func writeError(w http.ResponseWriter, id interface{}, rpcErr *RPCError) {
	status := rpcErr.status
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: rpcErr}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ready, err := s.ledger.Initialised()
	if err != nil || !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]bool{"ready": false})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ready": true})
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		rpcErr := &RPCError{Code: codeInvalidRequest, Message: "failed to read request body", Data: err.Error(), status: http.StatusBadRequest}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			rpcErr.Message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
			rpcErr.status = http.StatusRequestEntityTooLarge
		}
		writeError(w, nil, rpcErr)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, nil, &RPCError{Code: codeInvalidRequest, Message: "request body required", status: http.StatusBadRequest})
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, nil, &RPCError{Code: codeParseError, Message: "invalid JSON payload", Data: err.Error(), status: http.StatusBadRequest})
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, req.ID, &RPCError{Code: codeInvalidRequest, Message: "unsupported jsonrpc version", Data: req.JSONRPC, status: http.StatusBadRequest})
		return
	}
	if req.Method == "" {
		writeError(w, req.ID, &RPCError{Code: codeInvalidRequest, Message: "method required", status: http.StatusBadRequest})
		return
	}
	m, ok := s.methods[req.Method]
	if !ok {
		writeError(w, req.ID, &RPCError{Code: codeMethodNotFound, Message: "method not found", Data: req.Method, status: http.StatusNotFound})
		return
	}

	ctx, span := s.tracer.Start(r.Context(), req.Method, trace.WithAttributes(
		attribute.String("rpc.system", "jsonrpc"),
		attribute.String("rpc.method", req.Method),
		attribute.String("frac.module", m.module),
	))
	defer span.End()

	start := time.Now()
	var (
		result interface{}
		rpcErr *RPCError
	)
	if m.mutates {
		if _, authed := callerFrom(ctx); !authed {
			rpcErr = &RPCError{Code: codeUnauthorized, Message: "bearer token required", status: http.StatusUnauthorized}
		}
	}
	if rpcErr == nil {
		result, rpcErr = m.handle(ctx, req)
	}

	code := 0
	if rpcErr != nil {
		code = rpcErr.Code
		span.SetStatus(codes.Error, rpcErr.Message)
		span.SetAttributes(attribute.Int("rpc.jsonrpc.error_code", rpcErr.Code))
	}
	observability.ModuleMetrics().Observe(m.module, req.Method, code, time.Since(start))

	if rpcErr != nil {
		if rpcErr.Code == codeInternalError {
			s.logger.Error("rpc method failed",
				slog.String("method", req.Method),
				slog.String("requestId", requestIDFrom(ctx)),
				slog.Any("error", rpcErr.Data))
			rpcErr.Data = nil
		}
		writeError(w, req.ID, rpcErr)
		return
	}
	writeResult(w, req.ID, result)
}

// decodeObject unmarshals the single positional parameter object.
func decodeObject(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return invalidParams("exactly one parameter object expected", nil)
	}
	decoder := json.NewDecoder(bytes.NewReader(req.Params[0]))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return invalidParams("invalid parameter object", err.Error())
	}
	return nil
}
