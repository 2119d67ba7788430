package token

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"tolchain/core/events"
	"tolchain/core/types"
)

var errNilState = errors.New("token engine: state not configured")

type engineState interface {
	TokenGet(symbol string) (*Token, bool, error)
	TokenPut(token *Token) error
	TokenBalanceGet(symbol string, addr [20]byte) (*big.Int, error)
	TokenBalancePut(symbol string, addr [20]byte, amount *big.Int) error
	TokenAllowanceGet(symbol string, owner [20]byte, spender [20]byte) (*big.Int, error)
	TokenAllowancePut(symbol string, owner [20]byte, spender [20]byte, amount *big.Int) error
	TokenHoldingGet(symbol string, addr [20]byte) (int64, error)
	TokenHoldingPut(symbol string, addr [20]byte, since int64) error
}

// Engine implements the fungible-token ledger: owner-gated minting, standard
// transfer/approve/transferFrom semantics and per-address holding-time
// tracking. It also satisfies the launchpad module's Ledger interface.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a token engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) loadToken(symbol string) (*Token, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	tok, ok, err := e.state.TokenGet(normalized)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, normalized)
	}
	return tok, nil
}

// Create registers a new token owned by the given address with zero supply.
func (e *Engine) Create(owner [20]byte, name string, symbol string, decimals uint8) (*Token, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}
	if _, ok, err := e.state.TokenGet(normalized); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("%w: %s", ErrTokenExists, normalized)
	}
	tok := &Token{
		Symbol:      normalized,
		Name:        strings.TrimSpace(name),
		Decimals:    decimals,
		Owner:       owner,
		TotalSupply: big.NewInt(0),
		CreatedAt:   e.now(),
	}
	if err := e.state.TokenPut(tok); err != nil {
		return nil, err
	}
	e.emit(CreatedEvent(tok))
	return tok.Clone(), nil
}

// credit adds to an address balance and starts the holding clock when the
// balance moves off zero.
func (e *Engine) credit(symbol string, addr [20]byte, amount *big.Int) error {
	balance, err := e.state.TokenBalanceGet(symbol, addr)
	if err != nil {
		return err
	}
	balance = cloneBigInt(balance)
	if balance.Sign() == 0 {
		if err := e.state.TokenHoldingPut(symbol, addr, e.now()); err != nil {
			return err
		}
	}
	balance = balance.Add(balance, amount)
	return e.state.TokenBalancePut(symbol, addr, balance)
}

// debit removes from an address balance and resets the holding clock when the
// balance returns to zero.
func (e *Engine) debit(symbol string, addr [20]byte, amount *big.Int) error {
	balance, err := e.state.TokenBalanceGet(symbol, addr)
	if err != nil {
		return err
	}
	balance = cloneBigInt(balance)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	balance = balance.Sub(balance, amount)
	if balance.Sign() == 0 {
		if err := e.state.TokenHoldingPut(symbol, addr, 0); err != nil {
			return err
		}
	}
	return e.state.TokenBalancePut(symbol, addr, balance)
}

// Mint creates new supply for the recipient. Only the token owner may mint.
func (e *Engine) Mint(caller [20]byte, symbol string, to [20]byte, amount *big.Int) error {
	tok, err := e.loadToken(symbol)
	if err != nil {
		return err
	}
	if caller != tok.Owner {
		return fmt.Errorf("%w: only the token owner can mint", ErrUnauthorized)
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := e.credit(tok.Symbol, to, amt); err != nil {
		return err
	}
	tok.TotalSupply = new(big.Int).Add(tok.TotalSupply, amt)
	if err := e.state.TokenPut(tok); err != nil {
		return err
	}
	e.emit(MintedEvent(tok.Symbol, to, amt))
	return nil
}

// Transfer moves tokens between addresses.
func (e *Engine) Transfer(from [20]byte, to [20]byte, symbol string, amount *big.Int) error {
	tok, err := e.loadToken(symbol)
	if err != nil {
		return err
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := e.debit(tok.Symbol, from, amt); err != nil {
		return err
	}
	if err := e.credit(tok.Symbol, to, amt); err != nil {
		return err
	}
	e.emit(TransferredEvent(tok.Symbol, from, to, amt))
	return nil
}

// Approve sets the spender's allowance over the owner's balance.
func (e *Engine) Approve(owner [20]byte, spender [20]byte, symbol string, amount *big.Int) error {
	tok, err := e.loadToken(symbol)
	if err != nil {
		return err
	}
	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return ErrInvalidAmount
	}
	if err := e.state.TokenAllowancePut(tok.Symbol, owner, spender, amt); err != nil {
		return err
	}
	e.emit(ApprovedEvent(tok.Symbol, owner, spender, amt))
	return nil
}

// TransferFrom moves tokens on behalf of the balance owner, consuming the
// spender's allowance.
func (e *Engine) TransferFrom(spender [20]byte, from [20]byte, to [20]byte, symbol string, amount *big.Int) error {
	tok, err := e.loadToken(symbol)
	if err != nil {
		return err
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return ErrInvalidAmount
	}
	allowance, err := e.state.TokenAllowanceGet(tok.Symbol, from, spender)
	if err != nil {
		return err
	}
	allowance = cloneBigInt(allowance)
	if allowance.Cmp(amt) < 0 {
		return ErrInsufficientAllowance
	}
	if err := e.debit(tok.Symbol, from, amt); err != nil {
		return err
	}
	if err := e.credit(tok.Symbol, to, amt); err != nil {
		return err
	}
	allowance = allowance.Sub(allowance, amt)
	if err := e.state.TokenAllowancePut(tok.Symbol, from, spender, allowance); err != nil {
		return err
	}
	e.emit(TransferredEvent(tok.Symbol, from, to, amt))
	return nil
}

// BalanceOf returns the address balance for the token.
func (e *Engine) BalanceOf(addr [20]byte, symbol string) (*big.Int, error) {
	tok, err := e.loadToken(symbol)
	if err != nil {
		return nil, err
	}
	balance, err := e.state.TokenBalanceGet(tok.Symbol, addr)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(balance), nil
}

// Allowance returns the spender's remaining allowance over the owner's balance.
func (e *Engine) Allowance(owner [20]byte, spender [20]byte, symbol string) (*big.Int, error) {
	tok, err := e.loadToken(symbol)
	if err != nil {
		return nil, err
	}
	allowance, err := e.state.TokenAllowanceGet(tok.Symbol, owner, spender)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(allowance), nil
}

// TotalSupply returns the token's minted supply.
func (e *Engine) TotalSupply(symbol string) (*big.Int, error) {
	tok, err := e.loadToken(symbol)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(tok.TotalSupply), nil
}

// Metadata returns a copy of the token record.
func (e *Engine) Metadata(symbol string) (*Token, error) {
	tok, err := e.loadToken(symbol)
	if err != nil {
		return nil, err
	}
	return tok.Clone(), nil
}

// SetMinimumHoldingTime configures the token's minimum holding period in
// seconds. Only the token owner may change it.
func (e *Engine) SetMinimumHoldingTime(caller [20]byte, symbol string, seconds int64) error {
	tok, err := e.loadToken(symbol)
	if err != nil {
		return err
	}
	if caller != tok.Owner {
		return fmt.Errorf("%w: only the token owner can set the holding time", ErrUnauthorized)
	}
	if seconds < 0 {
		return fmt.Errorf("token: holding time must be non-negative")
	}
	tok.MinimumHoldingTime = seconds
	return e.state.TokenPut(tok)
}

// MinimumHoldingTime returns the configured minimum holding period.
func (e *Engine) MinimumHoldingTime(symbol string) (int64, error) {
	tok, err := e.loadToken(symbol)
	if err != nil {
		return 0, err
	}
	return tok.MinimumHoldingTime, nil
}

// HoldingTime reports how long the address has continuously held a non-zero
// balance, in seconds. Addresses at zero balance read as zero.
func (e *Engine) HoldingTime(symbol string, addr [20]byte) (int64, error) {
	tok, err := e.loadToken(symbol)
	if err != nil {
		return 0, err
	}
	balance, err := e.state.TokenBalanceGet(tok.Symbol, addr)
	if err != nil {
		return 0, err
	}
	if balance == nil || balance.Sign() == 0 {
		return 0, nil
	}
	since, err := e.state.TokenHoldingGet(tok.Symbol, addr)
	if err != nil {
		return 0, err
	}
	if since <= 0 {
		return 0, nil
	}
	held := e.now() - since
	if held < 0 {
		return 0, nil
	}
	return held, nil
}
