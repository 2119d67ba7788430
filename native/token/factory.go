package token

import "math/big"

// Factory spins up generic fungible tokens: it registers the token with the
// caller as owner and mints the initial supply to them in one call.
type Factory struct {
	engine *Engine
}

// NewFactory wraps the token engine with the one-shot creation flow.
func NewFactory(engine *Engine) *Factory {
	return &Factory{engine: engine}
}

// CreateToken registers a new token owned by the caller and mints the initial
// supply to the caller's balance. A zero initial supply leaves the token
// empty until the owner mints.
func (f *Factory) CreateToken(caller [20]byte, name string, symbol string, initialSupply *big.Int) (*Token, error) {
	tok, err := f.engine.Create(caller, name, symbol, 18)
	if err != nil {
		return nil, err
	}
	supply := cloneBigInt(initialSupply)
	if supply.Sign() > 0 {
		if err := f.engine.Mint(caller, tok.Symbol, caller, supply); err != nil {
			return nil, err
		}
	}
	return f.engine.Metadata(tok.Symbol)
}
