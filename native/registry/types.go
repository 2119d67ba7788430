package registry

import "math/big"

// Project is one registered launchpad campaign with its discovery metadata.
// BoostPoint accumulates third-party stake placed behind the project's
// visibility; certification is set through the Verify path.
type Project struct {
	ID              uint64   `json:"id"`
	Owner           [20]byte `json:"owner"`
	ContractAddress [20]byte `json:"contractAddress"`
	CID             string   `json:"cid"`
	BoostPoint      *big.Int `json:"boostPoint"`
	IsCertified     bool     `json:"isCertified"`
	IsTerminated    bool     `json:"isTerminated"`
	CreatedAt       int64    `json:"createdAt"`
}

// Clone returns a deep copy of the project record.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	clone := *p
	if p.BoostPoint != nil {
		clone.BoostPoint = new(big.Int).Set(p.BoostPoint)
	} else {
		clone.BoostPoint = big.NewInt(0)
	}
	return &clone
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
