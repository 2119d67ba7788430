package faucet

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"tolchain/core/events"
	"tolchain/core/types"
	nativecommon "tolchain/native/common"
)

const moduleName = "faucet"

var (
	ErrClaimTooSoon   = errors.New("faucet: claim interval has not passed")
	ErrUnauthorized   = errors.New("faucet: unauthorized")
	ErrInvalidAmount  = errors.New("faucet: amount must be positive")
	ErrTransferFailed = errors.New("faucet: token transfer failed")

	errNilState  = errors.New("faucet: state not configured")
	errNilLedger = errors.New("faucet: ledger not configured")
)

type faucetState interface {
	FaucetLastClaimGet(addr [20]byte) (int64, error)
	FaucetLastClaimPut(addr [20]byte, ts int64) error
}

// Ledger is the token collaborator the faucet draws from and deposits to.
type Ledger interface {
	Transfer(from [20]byte, to [20]byte, symbol string, amount *big.Int) error
	TransferFrom(spender [20]byte, from [20]byte, to [20]byte, symbol string, amount *big.Int) error
}

// Faucet hands out a fixed amount of test tokens per address per interval.
// The faucet's own address is the vault its claims are paid from.
type Faucet struct {
	state         faucetState
	ledger        Ledger
	emitter       events.Emitter
	pauses        nativecommon.PauseView
	nowFn         func() int64
	addr          [20]byte
	owner         [20]byte
	token         string
	claimAmount   *big.Int
	claimInterval int64
}

// New constructs a faucet dispensing claimAmount of the token every
// claimInterval seconds per address.
func New(addr [20]byte, owner [20]byte, token string, claimAmount *big.Int, claimInterval int64) *Faucet {
	amount := big.NewInt(0)
	if claimAmount != nil {
		amount = new(big.Int).Set(claimAmount)
	}
	return &Faucet{
		emitter:       events.NoopEmitter{},
		nowFn:         func() int64 { return time.Now().Unix() },
		addr:          addr,
		owner:         owner,
		token:         strings.ToUpper(strings.TrimSpace(token)),
		claimAmount:   amount,
		claimInterval: claimInterval,
	}
}

// SetState configures the state backend used by the faucet.
func (f *Faucet) SetState(state faucetState) { f.state = state }

// SetLedger configures the token ledger.
func (f *Faucet) SetLedger(ledger Ledger) { f.ledger = ledger }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (f *Faucet) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		f.emitter = events.NoopEmitter{}
		return
	}
	f.emitter = emitter
}

// SetPauses configures the module pause switchboard.
func (f *Faucet) SetPauses(p nativecommon.PauseView) { f.pauses = p }

// SetNowFunc overrides the time source, primarily for tests.
func (f *Faucet) SetNowFunc(now func() int64) {
	if now == nil {
		f.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	f.nowFn = now
}

// Address returns the faucet vault address.
func (f *Faucet) Address() [20]byte { return f.addr }

// ClaimAmount returns the configured per-claim amount.
func (f *Faucet) ClaimAmount() *big.Int { return new(big.Int).Set(f.claimAmount) }

// ClaimInterval returns the configured per-address interval in seconds.
func (f *Faucet) ClaimInterval() int64 { return f.claimInterval }

func (f *Faucet) emit(evt *types.Event) {
	if f == nil || f.emitter == nil || evt == nil {
		return
	}
	f.emitter.Emit(WrapEvent(evt))
}

func (f *Faucet) now() int64 {
	if f == nil || f.nowFn == nil {
		return time.Now().Unix()
	}
	return f.nowFn()
}

// Claim pays the claim amount to the caller once per interval. The claim
// timestamp is committed before the transfer and restored if it fails.
func (f *Faucet) Claim(caller [20]byte) (*big.Int, error) {
	if f == nil || f.state == nil {
		return nil, errNilState
	}
	if f.ledger == nil {
		return nil, errNilLedger
	}
	if err := nativecommon.Guard(f.pauses, moduleName); err != nil {
		return nil, err
	}
	last, err := f.state.FaucetLastClaimGet(caller)
	if err != nil {
		return nil, err
	}
	now := f.now()
	if last > 0 && now-last < f.claimInterval {
		return nil, ErrClaimTooSoon
	}
	amount := new(big.Int).Set(f.claimAmount)
	if err := f.state.FaucetLastClaimPut(caller, now); err != nil {
		return nil, err
	}
	if err := f.ledger.Transfer(f.addr, caller, f.token, amount); err != nil {
		if putErr := f.state.FaucetLastClaimPut(caller, last); putErr != nil {
			return nil, putErr
		}
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	f.emit(ClaimedEvent(caller, f.token, amount))
	return amount, nil
}

// SetClaimAmount configures the per-claim amount. Owner only.
func (f *Faucet) SetClaimAmount(caller [20]byte, amount *big.Int) error {
	if caller != f.owner {
		return ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	f.claimAmount = new(big.Int).Set(amount)
	return nil
}

// SetClaimInterval configures the per-address interval. Owner only.
func (f *Faucet) SetClaimInterval(caller [20]byte, seconds int64) error {
	if caller != f.owner {
		return ErrUnauthorized
	}
	if seconds <= 0 {
		return ErrInvalidAmount
	}
	f.claimInterval = seconds
	return nil
}

// Deposit pulls tokens from the depositor into the faucet vault. The
// depositor must have approved the faucet address beforehand.
func (f *Faucet) Deposit(from [20]byte, amount *big.Int) error {
	if f.ledger == nil {
		return errNilLedger
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := f.ledger.TransferFrom(f.addr, from, f.addr, f.token, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	f.emit(DepositedEvent(from, f.token, amount))
	return nil
}

// WithdrawTokens moves tokens from the vault back to the owner. Owner only.
func (f *Faucet) WithdrawTokens(caller [20]byte, amount *big.Int) error {
	if f.ledger == nil {
		return errNilLedger
	}
	if caller != f.owner {
		return ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := f.ledger.Transfer(f.addr, f.owner, f.token, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	f.emit(WithdrawnEvent(f.owner, f.token, amount))
	return nil
}
