package rpc

import (
	"net/http"

	"tolchain/native/launchpad"
)

type launchpadCreateParams struct {
	Caller             string `json:"caller"`
	RewardToken        string `json:"rewardToken"`
	MinBuy             string `json:"minBuy"`
	MaxBuy             string `json:"maxBuy"`
	Rate               string `json:"rate"`
	Deadline           int64  `json:"deadline"`
	TargetRaise        string `json:"targetRaise"`
	RewardRatePerStake string `json:"rewardRatePerStake"`
	CID                string `json:"cid,omitempty"`
}

type launchpadRefParams struct {
	Launchpad string `json:"launchpad"`
}

type launchpadActorParams struct {
	Launchpad string `json:"launchpad"`
	Caller    string `json:"caller"`
}

type launchpadAmountParams struct {
	Launchpad string `json:"launchpad"`
	Caller    string `json:"caller"`
	Amount    string `json:"amount"`
}

type launchpadParticipantParams struct {
	Launchpad   string `json:"launchpad"`
	Participant string `json:"participant"`
}

type campaignJSON struct {
	Launchpad          string `json:"launchpad"`
	Owner              string `json:"owner"`
	RewardToken        string `json:"rewardToken"`
	StakeToken         string `json:"stakeToken"`
	MinBuy             string `json:"minBuy"`
	MaxBuy             string `json:"maxBuy"`
	Rate               string `json:"rate"`
	Deadline           int64  `json:"deadline"`
	TargetRaise        string `json:"targetRaise"`
	RewardRatePerStake string `json:"rewardRatePerStake"`
	CID                string `json:"cid,omitempty"`
	CreatedAt          int64  `json:"createdAt"`
	TotalRaised        string `json:"totalRaised"`
	Resolution         string `json:"resolution"`
	ProjectID          uint64 `json:"projectId,omitempty"`
}

func campaignToJSON(c *launchpad.Campaign) *campaignJSON {
	return &campaignJSON{
		Launchpad:          formatAddress(c.Addr),
		Owner:              formatAddress(c.Owner),
		RewardToken:        c.RewardToken,
		StakeToken:         c.StakeToken,
		MinBuy:             c.MinBuy.String(),
		MaxBuy:             c.MaxBuy.String(),
		Rate:               c.Rate.String(),
		Deadline:           c.Deadline,
		TargetRaise:        c.TargetRaise.String(),
		RewardRatePerStake: c.RewardRatePerStake.String(),
		CID:                c.CID,
		CreatedAt:          c.CreatedAt,
		TotalRaised:        c.TotalRaised.String(),
		Resolution:         c.Resolution.String(),
		ProjectID:          c.ProjectID,
	}
}

func (s *Server) handleLaunchpadCreate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params launchpadCreateParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	minBuy, err := parseAmount(params.MinBuy)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	maxBuy, err := parseAmount(params.MaxBuy)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	rate, err := parseAmount(params.Rate)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	target, err := parseAmount(params.TargetRaise)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	rewardRate, err := parseAmount(params.RewardRatePerStake)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	campaign, err := s.factory.CreateLaunchpad(caller, launchpad.CreateParams{
		RewardToken:        params.RewardToken,
		MinBuy:             minBuy,
		MaxBuy:             maxBuy,
		Rate:               rate,
		Deadline:           params.Deadline,
		TargetRaise:        target,
		RewardRatePerStake: rewardRate,
		CID:                params.CID,
	})
	if err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, campaignToJSON(campaign))
}

func (s *Server) handleLaunchpadGet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params launchpadRefParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Launchpad)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	campaign, err := s.launchpads.Get(addr)
	if err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, campaignToJSON(campaign))
}

func (s *Server) handleLaunchpadStake(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params launchpadAmountParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Launchpad)
	if err != nil {
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
	if err := s.launchpads.Stake(addr, caller, amount); err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleLaunchpadContribute(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params launchpadAmountParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Launchpad)
	if err != nil {
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
	if err := s.launchpads.Contribute(addr, caller, amount); err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleLaunchpadFinalize(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params launchpadRefParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Launchpad)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	resolution, err := s.launchpads.Finalize(addr)
	if err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"resolution": resolution.String()})
}

func (s *Server) handleLaunchpadWithdraw(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params launchpadActorParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Launchpad)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	reward, err := s.launchpads.Withdraw(addr, caller)
	if err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"reward": reward.String()})
}

func (s *Server) handleLaunchpadRefund(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params launchpadActorParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Launchpad)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.launchpads.Refund(addr, caller)
	if err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"refunded": amount.String()})
}

func (s *Server) handleLaunchpadEmergencyWithdraw(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params launchpadActorParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Launchpad)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.launchpads.EmergencyWithdraw(addr, caller)
	if err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"withdrawn": amount.String()})
}

func (s *Server) handleLaunchpadGetContribution(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params launchpadParticipantParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Launchpad)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	participant, err := parseAddress(params.Participant)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.launchpads.GetContribution(addr, participant)
	if err != nil {
		s.moduleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"contribution": amount.String()})
}
