package launchpad

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"tolchain/core/events"
	"tolchain/core/types"
	nativecommon "tolchain/native/common"
)

const moduleName = "launchpad"

var errNilState = errors.New("launchpad engine: state not configured")
var errNilLedger = errors.New("launchpad engine: ledger not configured")

type engineState interface {
	LaunchpadGet(addr [20]byte) (*Campaign, bool, error)
	LaunchpadPut(campaign *Campaign) error
	ContributionGet(campaign [20]byte, participant [20]byte) (*Contribution, bool, error)
	ContributionPut(record *Contribution) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Ledger is the fungible-token collaborator consumed by the launchpad. The
// implementation is assumed to enforce balances and allowances atomically;
// the engine only reacts to its success or failure.
type Ledger interface {
	BalanceOf(addr [20]byte, symbol string) (*big.Int, error)
	Transfer(from [20]byte, to [20]byte, symbol string, amount *big.Int) error
	TransferFrom(spender [20]byte, from [20]byte, to [20]byte, symbol string, amount *big.Int) error
}

// Engine drives every campaign state machine. Campaign instances share the
// engine; each operation addresses one campaign by its vault address.
type Engine struct {
	state   engineState
	ledger  Ledger
	emitter events.Emitter
	pauses  nativecommon.PauseView
	nowFn   func() int64
}

// NewEngine constructs a launchpad engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the token ledger used for stake and reward movements.
func (e *Engine) SetLedger(ledger Ledger) { e.ledger = ledger }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses configures the module pause switchboard.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
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

func (e *Engine) loadCampaign(addr [20]byte) (*Campaign, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	campaign, ok, err := e.state.LaunchpadGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return campaign, nil
}

func (e *Engine) loadContribution(campaign [20]byte, participant [20]byte) (*Contribution, bool, error) {
	record, ok, err := e.state.ContributionGet(campaign, participant)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	if record.Amount == nil {
		record.Amount = big.NewInt(0)
	}
	if record.Staked == nil {
		record.Staked = big.NewInt(0)
	}
	return record, true, nil
}

func newContribution(campaign [20]byte, participant [20]byte) *Contribution {
	return &Contribution{
		Campaign:    campaign,
		Participant: participant,
		Amount:      big.NewInt(0),
		Staked:      big.NewInt(0),
	}
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

// transferNative moves chain-native value between accounts. It is the only
// path raised value travels on and fails without side effects when the
// sender's balance is short.
func (e *Engine) transferNative(from [20]byte, to [20]byte, amount *big.Int) error {
	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return fmt.Errorf("launchpad: negative native transfer")
	}
	if amt.Sign() == 0 {
		return nil
	}
	fromAcc, err := e.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := e.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	toAcc = ensureAccount(toAcc)
	if fromAcc.Balance.Cmp(amt) < 0 {
		return ErrInsufficientBalance
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amt)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amt)
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to[:], toAcc)
}

// Stake locks stake tokens with the campaign via the ledger's transfer-from
// path; the participant must have approved the campaign address beforehand.
// Staking is open until the campaign resolves and carries no upper bound.
func (e *Engine) Stake(campaign [20]byte, caller [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.ledger == nil {
		return errNilLedger
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return ErrInvalidAmount
	}
	c, err := e.loadCampaign(campaign)
	if err != nil {
		return err
	}
	if c.Resolution != ResolutionOpen {
		return ErrCampaignClosed
	}
	record, ok, err := e.loadContribution(campaign, caller)
	if err != nil {
		return err
	}
	if !ok {
		record = newContribution(campaign, caller)
	}
	if record.Settled {
		return ErrNotEligible
	}
	if err := e.ledger.TransferFrom(c.Addr, caller, c.Addr, c.StakeToken, amt); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	record.Staked = new(big.Int).Add(record.Staked, amt)
	if err := e.state.ContributionPut(record); err != nil {
		return err
	}
	e.emit(StakedEvent(c, caller, amt, record.Staked))
	return nil
}

// Contribute records native value attached by the caller. Every individual
// call must satisfy minBuy <= value <= maxBuy; repeat calls are allowed and
// each is bounded independently.
func (e *Engine) Contribute(campaign [20]byte, caller [20]byte, value *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	amt := cloneBigInt(value)
	if amt.Sign() <= 0 {
		return ErrInvalidAmount
	}
	c, err := e.loadCampaign(campaign)
	if err != nil {
		return err
	}
	if c.Resolution != ResolutionOpen {
		return ErrSaleClosed
	}
	if e.now() >= c.Deadline {
		return ErrSaleClosed
	}
	if amt.Cmp(c.MinBuy) < 0 || amt.Cmp(c.MaxBuy) > 0 {
		return ErrOutOfRange
	}
	record, ok, err := e.loadContribution(campaign, caller)
	if err != nil {
		return err
	}
	if !ok {
		record = newContribution(campaign, caller)
	}
	if record.Settled {
		return ErrNotEligible
	}
	if err := e.transferNative(caller, c.Addr, amt); err != nil {
		return err
	}
	record.Amount = new(big.Int).Add(record.Amount, amt)
	c.TotalRaised = new(big.Int).Add(c.TotalRaised, amt)
	if err := e.state.ContributionPut(record); err != nil {
		return err
	}
	if err := e.state.LaunchpadPut(c); err != nil {
		return err
	}
	e.emit(ContributionEvent(c, caller, amt, record.Amount))
	return nil
}

// Finalize commits the campaign outcome. Anyone may call it once the deadline
// has passed; the decision compares the raised total against the target and
// is guarded so it can only ever succeed once. No funds move here.
func (e *Engine) Finalize(campaign [20]byte) (Resolution, error) {
	if e == nil || e.state == nil {
		return ResolutionOpen, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return ResolutionOpen, err
	}
	c, err := e.loadCampaign(campaign)
	if err != nil {
		return ResolutionOpen, err
	}
	if c.Resolution != ResolutionOpen {
		return c.Resolution, ErrAlreadyResolved
	}
	if e.now() < c.Deadline {
		return ResolutionOpen, ErrNotYetClosed
	}
	if c.TotalRaised.Cmp(c.TargetRaise) >= 0 {
		c.Resolution = ResolutionSuccess
	} else {
		c.Resolution = ResolutionFailure
	}
	if err := e.state.LaunchpadPut(c); err != nil {
		return ResolutionOpen, err
	}
	e.emit(ResolvedEvent(c))
	return c.Resolution, nil
}

// Withdraw pays out the reward for a successful campaign: contributed value
// times the issuance rate plus staked balance times the per-stake reward
// rate. The record is settled before the reward transfer so a reentrant call
// from the recipient cannot trigger a second payout.
func (e *Engine) Withdraw(campaign [20]byte, caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.ledger == nil {
		return nil, errNilLedger
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	c, err := e.loadCampaign(campaign)
	if err != nil {
		return nil, err
	}
	if c.Resolution != ResolutionSuccess {
		return nil, ErrNotEligible
	}
	record, ok, err := e.loadContribution(campaign, caller)
	if err != nil {
		return nil, err
	}
	if !ok || record.Settled {
		return nil, ErrNotEligible
	}
	reward := new(big.Int).Mul(record.Amount, c.Rate)
	reward = reward.Add(reward, new(big.Int).Mul(record.Staked, c.RewardRatePerStake))
	supply, err := e.ledger.BalanceOf(c.Addr, c.RewardToken)
	if err != nil {
		return nil, err
	}
	if supply.Cmp(reward) < 0 {
		return nil, ErrInsufficientRewardSupply
	}
	record.Settled = true
	if err := e.state.ContributionPut(record); err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(c.Addr, caller, c.RewardToken, reward); err != nil {
		record.Settled = false
		if putErr := e.state.ContributionPut(record); putErr != nil {
			return nil, putErr
		}
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	e.emit(SettledEvent(c, caller, reward, SettlementReward))
	return reward, nil
}

// Refund returns the caller's contributed native value after a failed
// campaign. Staked tokens are not touched. Settlement is committed before the
// value transfer.
func (e *Engine) Refund(campaign [20]byte, caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	c, err := e.loadCampaign(campaign)
	if err != nil {
		return nil, err
	}
	if c.Resolution != ResolutionFailure {
		return nil, ErrNotEligible
	}
	record, ok, err := e.loadContribution(campaign, caller)
	if err != nil {
		return nil, err
	}
	if !ok || record.Settled {
		return nil, ErrNotEligible
	}
	amount := cloneBigInt(record.Amount)
	record.Settled = true
	if err := e.state.ContributionPut(record); err != nil {
		return nil, err
	}
	if err := e.transferNative(c.Addr, caller, amount); err != nil {
		record.Settled = false
		if putErr := e.state.ContributionPut(record); putErr != nil {
			return nil, putErr
		}
		return nil, err
	}
	e.emit(SettledEvent(c, caller, amount, SettlementRefund))
	return amount, nil
}

// EmergencyWithdraw is the pre-resolution escape hatch: the caller's entire
// contributed value comes back immediately, the aggregate raised total drops
// by the same amount, and the record settles permanently, forfeiting any
// later reward or refund. Settlement and the aggregate decrement are
// committed before the value transfer.
func (e *Engine) EmergencyWithdraw(campaign [20]byte, caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	c, err := e.loadCampaign(campaign)
	if err != nil {
		return nil, err
	}
	if c.Resolution != ResolutionOpen {
		return nil, ErrCampaignClosed
	}
	record, ok, err := e.loadContribution(campaign, caller)
	if err != nil {
		return nil, err
	}
	if !ok || record.Settled {
		return nil, ErrNotEligible
	}
	amount := cloneBigInt(record.Amount)
	record.Amount = big.NewInt(0)
	record.Settled = true
	c.TotalRaised = new(big.Int).Sub(c.TotalRaised, amount)
	if err := e.state.ContributionPut(record); err != nil {
		return nil, err
	}
	if err := e.state.LaunchpadPut(c); err != nil {
		return nil, err
	}
	if err := e.transferNative(c.Addr, caller, amount); err != nil {
		record.Amount = amount
		record.Settled = false
		c.TotalRaised = new(big.Int).Add(c.TotalRaised, amount)
		if putErr := e.state.ContributionPut(record); putErr != nil {
			return nil, putErr
		}
		if putErr := e.state.LaunchpadPut(c); putErr != nil {
			return nil, putErr
		}
		return nil, err
	}
	e.emit(SettledEvent(c, caller, amount, SettlementEmergency))
	return amount, nil
}

// Get returns a copy of the campaign stored at the address.
func (e *Engine) Get(campaign [20]byte) (*Campaign, error) {
	c, err := e.loadCampaign(campaign)
	if err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

// GetContribution returns the participant's currently recorded contribution
// amount. Unknown participants read as zero.
func (e *Engine) GetContribution(campaign [20]byte, participant [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, err := e.loadCampaign(campaign); err != nil {
		return nil, err
	}
	record, ok, err := e.loadContribution(campaign, participant)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return cloneBigInt(record.Amount), nil
}

// Contribution returns a copy of the participant's full record, or nil when
// the participant never interacted with the campaign.
func (e *Engine) Contribution(campaign [20]byte, participant [20]byte) (*Contribution, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, err := e.loadCampaign(campaign); err != nil {
		return nil, err
	}
	record, ok, err := e.loadContribution(campaign, participant)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return record.Clone(), nil
}
