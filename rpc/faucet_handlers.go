package rpc

import (
	"net/http"
)

type faucetClaimParams struct {
	Caller string `json:"caller"`
}

type faucetAmountParams struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

func (s *Server) handleFaucetClaim(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params faucetClaimParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.faucet.Claim(caller)
	if err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"claimed": amount.String()})
}

func (s *Server) handleFaucetDeposit(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params faucetAmountParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.faucet.Deposit(caller, amount); err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleFaucetWithdraw(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params faucetAmountParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.faucet.WithdrawTokens(caller, amount); err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}
