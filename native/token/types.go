package token

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// Token is the metadata record for one fungible token managed by the ledger.
// Balances, allowances and holding timestamps live in separate state keys.
type Token struct {
	Symbol             string   `json:"symbol"`
	Name               string   `json:"name"`
	Decimals           uint8    `json:"decimals"`
	Owner              [20]byte `json:"owner"`
	TotalSupply        *big.Int `json:"totalSupply"`
	MinimumHoldingTime int64    `json:"minimumHoldingTime"`
	CreatedAt          int64    `json:"createdAt"`
}

// Clone returns a deep copy of the token metadata.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	clone := *t
	if t.TotalSupply != nil {
		clone.TotalSupply = new(big.Int).Set(t.TotalSupply)
	} else {
		clone.TotalSupply = big.NewInt(0)
	}
	return &clone
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{2,12}$`)

// NormalizeSymbol canonicalises a token symbol to its uppercase form and
// rejects symbols outside the supported character set.
func NormalizeSymbol(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return trimmed, nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
