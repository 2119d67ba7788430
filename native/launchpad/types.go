package launchpad

import (
	"fmt"
	"math/big"
	"strings"
)

// Resolution is the tri-state outcome of a campaign. It starts Open and is
// committed exactly once by Finalize after the deadline has passed.
type Resolution uint8

const (
	ResolutionOpen Resolution = iota
	ResolutionSuccess
	ResolutionFailure
)

// Valid reports whether the resolution value is within the supported range.
func (r Resolution) Valid() bool {
	switch r {
	case ResolutionOpen, ResolutionSuccess, ResolutionFailure:
		return true
	default:
		return false
	}
}

func (r Resolution) String() string {
	switch r {
	case ResolutionOpen:
		return "open"
	case ResolutionSuccess:
		return "success"
	case ResolutionFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Campaign holds the immutable sale parameters fixed at creation plus the
// mutable aggregate state (total raised, resolution). The campaign address is
// derived deterministically by the factory and doubles as the custody vault
// for raised native value and the pre-funded reward balance.
type Campaign struct {
	Addr               [20]byte   `json:"addr"`
	Owner              [20]byte   `json:"owner"`
	RewardToken        string     `json:"rewardToken"`
	StakeToken         string     `json:"stakeToken"`
	MinBuy             *big.Int   `json:"minBuy"`
	MaxBuy             *big.Int   `json:"maxBuy"`
	Rate               *big.Int   `json:"rate"`
	Deadline           int64      `json:"deadline"`
	TargetRaise        *big.Int   `json:"targetRaise"`
	RewardRatePerStake *big.Int   `json:"rewardRatePerStake"`
	CID                string     `json:"cid"`
	CreatedAt          int64      `json:"createdAt"`
	TotalRaised        *big.Int   `json:"totalRaised"`
	Resolution         Resolution `json:"resolution"`
	ProjectID          uint64     `json:"projectId,omitempty"`
}

// Clone returns a deep copy of the campaign so callers can safely mutate the
// copy without affecting the stored instance.
func (c *Campaign) Clone() *Campaign {
	if c == nil {
		return nil
	}
	clone := *c
	clone.MinBuy = cloneBigInt(c.MinBuy)
	clone.MaxBuy = cloneBigInt(c.MaxBuy)
	clone.Rate = cloneBigInt(c.Rate)
	clone.TargetRaise = cloneBigInt(c.TargetRaise)
	clone.RewardRatePerStake = cloneBigInt(c.RewardRatePerStake)
	clone.TotalRaised = cloneBigInt(c.TotalRaised)
	return &clone
}

// Contribution is the per-participant record, created lazily on the first
// stake or contribution. Settled marks the record as terminally paid out
// (reward, refund or emergency exit); a settled record can never settle again.
type Contribution struct {
	Campaign    [20]byte `json:"campaign"`
	Participant [20]byte `json:"participant"`
	Amount      *big.Int `json:"amount"`
	Staked      *big.Int `json:"staked"`
	Settled     bool     `json:"settled"`
}

// Clone returns a deep copy of the contribution record.
func (c *Contribution) Clone() *Contribution {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Amount = cloneBigInt(c.Amount)
	clone.Staked = cloneBigInt(c.Staked)
	return &clone
}

// SanitizeCampaign validates and normalises a campaign record, returning a
// cloned instance with canonical token casing and non-nil amount fields. The
// original value is not mutated.
func SanitizeCampaign(c *Campaign) (*Campaign, error) {
	if c == nil {
		return nil, fmt.Errorf("nil campaign")
	}
	clone := c.Clone()
	clone.RewardToken = strings.ToUpper(strings.TrimSpace(clone.RewardToken))
	clone.StakeToken = strings.ToUpper(strings.TrimSpace(clone.StakeToken))
	if clone.RewardToken == "" {
		return nil, fmt.Errorf("campaign reward token must not be empty")
	}
	if clone.StakeToken == "" {
		return nil, fmt.Errorf("campaign stake token must not be empty")
	}
	if clone.MinBuy.Sign() <= 0 {
		return nil, fmt.Errorf("campaign min buy must be positive")
	}
	if clone.MinBuy.Cmp(clone.MaxBuy) > 0 {
		return nil, fmt.Errorf("campaign min buy exceeds max buy")
	}
	if clone.TotalRaised.Sign() < 0 {
		return nil, fmt.Errorf("campaign total raised must be non-negative")
	}
	if !clone.Resolution.Valid() {
		return nil, fmt.Errorf("invalid campaign resolution: %d", clone.Resolution)
	}
	return clone, nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
