package rpc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tolchain/crypto"
	"tolchain/native/faucet"
	"tolchain/native/launchpad"
	"tolchain/native/registry"
	"tolchain/native/token"
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
	codeServerError    = -32000
	codeInvalidInput   = -32021
	codeNotFound       = -32022
	codeForbidden      = -32023
	codeConflict       = -32024
	codeResource       = -32025
)

// Server exposes the native modules over JSON-RPC 2.0. A single POST endpoint
// dispatches on the method name; /metrics serves Prometheus metrics and
// /healthz a liveness probe.
type Server struct {
	launchpads   *launchpad.Engine
	factory      *launchpad.Factory
	tokens       *token.Engine
	tokenFactory *token.Factory
	registry     *registry.Registry
	faucet       *faucet.Faucet
	logger       *slog.Logger
}

// Dependencies wires the module engines into the server.
type Dependencies struct {
	Launchpads   *launchpad.Engine
	Factory      *launchpad.Factory
	Tokens       *token.Engine
	TokenFactory *token.Factory
	Registry     *registry.Registry
	Faucet       *faucet.Faucet
	Logger       *slog.Logger
}

// NewServer constructs a server over the provided engines.
func NewServer(deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		launchpads:   deps.Launchpads,
		factory:      deps.Factory,
		tokens:       deps.Tokens,
		tokenFactory: deps.TokenFactory,
		registry:     deps.Registry,
		faucet:       deps.Faucet,
		logger:       logger,
	}
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start serves JSON-RPC on the address until the listener fails.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting JSON-RPC server", "addr", addr)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
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
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.dispatch(recorder, r, req)
	observeRequest(req.Method, recorder.status, time.Since(started))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	switch req.Method {
	case "launchpad_create":
		s.handleLaunchpadCreate(w, r, req)
	case "launchpad_get":
		s.handleLaunchpadGet(w, r, req)
	case "launchpad_stake":
		s.handleLaunchpadStake(w, r, req)
	case "launchpad_contribute":
		s.handleLaunchpadContribute(w, r, req)
	case "launchpad_finalize":
		s.handleLaunchpadFinalize(w, r, req)
	case "launchpad_withdraw":
		s.handleLaunchpadWithdraw(w, r, req)
	case "launchpad_refund":
		s.handleLaunchpadRefund(w, r, req)
	case "launchpad_emergencyWithdraw":
		s.handleLaunchpadEmergencyWithdraw(w, r, req)
	case "launchpad_getContribution":
		s.handleLaunchpadGetContribution(w, r, req)
	case "token_create":
		s.handleTokenCreate(w, r, req)
	case "token_mint":
		s.handleTokenMint(w, r, req)
	case "token_transfer":
		s.handleTokenTransfer(w, r, req)
	case "token_approve":
		s.handleTokenApprove(w, r, req)
	case "token_transferFrom":
		s.handleTokenTransferFrom(w, r, req)
	case "token_balanceOf":
		s.handleTokenBalanceOf(w, r, req)
	case "token_allowance":
		s.handleTokenAllowance(w, r, req)
	case "token_totalSupply":
		s.handleTokenTotalSupply(w, r, req)
	case "token_holdingTime":
		s.handleTokenHoldingTime(w, r, req)
	case "token_setMinimumHoldingTime":
		s.handleTokenSetMinimumHoldingTime(w, r, req)
	case "registry_get":
		s.handleRegistryGet(w, r, req)
	case "registry_update":
		s.handleRegistryUpdate(w, r, req)
	case "registry_terminate":
		s.handleRegistryTerminate(w, r, req)
	case "registry_boost":
		s.handleRegistryBoost(w, r, req)
	case "registry_setBoostRate":
		s.handleRegistrySetBoostRate(w, r, req)
	case "registry_verify":
		s.handleRegistryVerify(w, r, req)
	case "faucet_claim":
		s.handleFaucetClaim(w, r, req)
	case "faucet_deposit":
		s.handleFaucetDeposit(w, r, req)
	case "faucet_withdraw":
		s.handleFaucetWithdraw(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %s not found", req.Method), nil)
	}
}

// moduleError maps sentinel module errors onto RPC error codes and HTTP
// statuses so callers can distinguish validation, authorization, lifecycle
// and resource failures.
func (s *Server) moduleError(w http.ResponseWriter, id interface{}, err error) {
	status := http.StatusInternalServerError
	code := codeServerError
	switch {
	case errors.Is(err, launchpad.ErrInvalidParameters),
		errors.Is(err, launchpad.ErrOutOfRange),
		errors.Is(err, launchpad.ErrInvalidAmount),
		errors.Is(err, token.ErrInvalidSymbol),
		errors.Is(err, token.ErrInvalidName),
		errors.Is(err, token.ErrInvalidAmount),
		errors.Is(err, registry.ErrInvalidBoostRate),
		errors.Is(err, registry.ErrInvalidPayload),
		errors.Is(err, registry.ErrInvalidAmount),
		errors.Is(err, faucet.ErrInvalidAmount):
		status, code = http.StatusBadRequest, codeInvalidInput
	case errors.Is(err, launchpad.ErrUnauthorized),
		errors.Is(err, token.ErrUnauthorized),
		errors.Is(err, registry.ErrUnauthorized),
		errors.Is(err, registry.ErrOnlyFactory),
		errors.Is(err, registry.ErrOnlyProjectOwner),
		errors.Is(err, faucet.ErrUnauthorized):
		status, code = http.StatusForbidden, codeForbidden
	case errors.Is(err, launchpad.ErrNotFound),
		errors.Is(err, token.ErrTokenNotFound),
		errors.Is(err, registry.ErrProjectNotFound):
		status, code = http.StatusNotFound, codeNotFound
	case errors.Is(err, launchpad.ErrSaleClosed),
		errors.Is(err, launchpad.ErrNotYetClosed),
		errors.Is(err, launchpad.ErrAlreadyResolved),
		errors.Is(err, launchpad.ErrNotEligible),
		errors.Is(err, launchpad.ErrCampaignClosed),
		errors.Is(err, registry.ErrTerminated),
		errors.Is(err, token.ErrTokenExists),
		errors.Is(err, faucet.ErrClaimTooSoon):
		status, code = http.StatusConflict, codeConflict
	case errors.Is(err, launchpad.ErrInsufficientStake),
		errors.Is(err, launchpad.ErrTransferFailed),
		errors.Is(err, launchpad.ErrInsufficientRewardSupply),
		errors.Is(err, launchpad.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance),
		errors.Is(err, registry.ErrTransferFailed),
		errors.Is(err, faucet.ErrTransferFailed):
		status, code = http.StatusConflict, codeResource
	}
	writeError(w, status, id, code, err.Error(), nil)
}

func singleParam(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected exactly one params object")
	}
	return json.Unmarshal(req.Params[0], out)
}

// parseAddress accepts bech32 (tol1...) and 0x-prefixed hex addresses.
func parseAddress(value string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return out, fmt.Errorf("address required")
	}
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		raw, err := hex.DecodeString(trimmed[2:])
		if err != nil {
			return out, fmt.Errorf("invalid hex address: %w", err)
		}
		if len(raw) != 20 {
			return out, fmt.Errorf("address must be 20 bytes, got %d", len(raw))
		}
		copy(out[:], raw)
		return out, nil
	}
	decoded, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return out, err
	}
	copy(out[:], decoded.Bytes())
	return out, nil
}

func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("amount must be a base-10 integer, got %q", value)
	}
	return amount, nil
}

func formatAddress(addr [20]byte) string {
	return crypto.NewAddress(crypto.TOLPrefix, addr[:]).String()
}
