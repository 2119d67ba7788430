package rpc

import (
	"encoding/hex"
	"net/http"
	"strings"

	"tolchain/native/registry"
)

type registryGetParams struct {
	ID uint64 `json:"id"`
}

type registryUpdateParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
	CID    string `json:"cid"`
}

type registryTerminateParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
}

type registryBoostParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
	Amount string `json:"amount"`
}

type registryBoostRateParams struct {
	Caller string `json:"caller"`
	Rate   string `json:"rate"`
}

type registryVerifyParams struct {
	Payload string `json:"payload"`
}

type projectJSON struct {
	ID              uint64 `json:"id"`
	Owner           string `json:"owner"`
	ContractAddress string `json:"contractAddress"`
	CID             string `json:"cid"`
	BoostPoint      string `json:"boostPoint"`
	IsCertified     bool   `json:"isCertified"`
	IsTerminated    bool   `json:"isTerminated"`
	CreatedAt       int64  `json:"createdAt"`
}

func projectToJSON(p *registry.Project) *projectJSON {
	return &projectJSON{
		ID:              p.ID,
		Owner:           formatAddress(p.Owner),
		ContractAddress: formatAddress(p.ContractAddress),
		CID:             p.CID,
		BoostPoint:      p.BoostPoint.String(),
		IsCertified:     p.IsCertified,
		IsTerminated:    p.IsTerminated,
		CreatedAt:       p.CreatedAt,
	}
}

func (s *Server) handleRegistryGet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params registryGetParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	project, err := s.registry.Get(params.ID)
	if err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, projectToJSON(project))
}

func (s *Server) handleRegistryUpdate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params registryUpdateParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.registry.UpdateProject(caller, params.ID, params.CID); err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleRegistryTerminate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params registryTerminateParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.registry.TerminateProject(caller, params.ID); err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleRegistryBoost(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params registryBoostParams
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
	if err := s.registry.BoostProject(caller, params.ID, amount); err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleRegistrySetBoostRate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params registryBoostRateParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	rate, err := parseAmount(params.Rate)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.registry.SetBoostRate(caller, rate); err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleRegistryVerify(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params registryVerifyParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	payload, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(params.Payload), "0x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "payload must be hex encoded", err.Error())
		return
	}
	if err := s.registry.Verify(payload); err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}
