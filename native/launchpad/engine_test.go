package launchpad

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"tolchain/core/types"
)

type mockState struct {
	campaigns     map[[20]byte]*Campaign
	contributions map[[40]byte]*Contribution
	accounts      map[[20]byte]*types.Account
}

func newMockState() *mockState {
	return &mockState{
		campaigns:     make(map[[20]byte]*Campaign),
		contributions: make(map[[40]byte]*Contribution),
		accounts:      make(map[[20]byte]*types.Account),
	}
}

func contributionKey(campaign [20]byte, participant [20]byte) [40]byte {
	var key [40]byte
	copy(key[:20], campaign[:])
	copy(key[20:], participant[:])
	return key
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func (m *mockState) LaunchpadGet(addr [20]byte) (*Campaign, bool, error) {
	c, ok := m.campaigns[addr]
	if !ok {
		return nil, false, nil
	}
	return c.Clone(), true, nil
}

func (m *mockState) LaunchpadPut(campaign *Campaign) error {
	sanitized, err := SanitizeCampaign(campaign)
	if err != nil {
		return err
	}
	m.campaigns[sanitized.Addr] = sanitized
	return nil
}

func (m *mockState) ContributionGet(campaign [20]byte, participant [20]byte) (*Contribution, bool, error) {
	record, ok := m.contributions[contributionKey(campaign, participant)]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

func (m *mockState) ContributionPut(record *Contribution) error {
	if record == nil {
		return fmt.Errorf("nil contribution")
	}
	m.contributions[contributionKey(record.Campaign, record.Participant)] = record.Clone()
	return nil
}

func (m *mockState) GetAccount(addr []byte) (*types.Account, error) {
	var key [20]byte
	copy(key[:], addr)
	acc, ok := m.accounts[key]
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	return acc.Clone(), nil
}

func (m *mockState) PutAccount(addr []byte, account *types.Account) error {
	var key [20]byte
	copy(key[:], addr)
	m.accounts[key] = account.Clone()
	return nil
}

func (m *mockState) setBalance(addr [20]byte, amount int64) {
	m.accounts[addr] = &types.Account{Balance: big.NewInt(amount)}
}

func (m *mockState) balance(addr [20]byte) *big.Int {
	acc, ok := m.accounts[addr]
	if !ok || acc.Balance == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(acc.Balance)
}

type mockLedger struct {
	balances     map[string]map[[20]byte]*big.Int
	transferErr  error
	transferFrom func(spender, from, to [20]byte, symbol string, amount *big.Int) error
	onTransfer   func()
}

func newMockLedger() *mockLedger {
	return &mockLedger{balances: make(map[string]map[[20]byte]*big.Int)}
}

func (m *mockLedger) setBalance(addr [20]byte, symbol string, amount int64) {
	if m.balances[symbol] == nil {
		m.balances[symbol] = make(map[[20]byte]*big.Int)
	}
	m.balances[symbol][addr] = big.NewInt(amount)
}

func (m *mockLedger) BalanceOf(addr [20]byte, symbol string) (*big.Int, error) {
	if m.balances[symbol] == nil || m.balances[symbol][addr] == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(m.balances[symbol][addr]), nil
}

func (m *mockLedger) Transfer(from, to [20]byte, symbol string, amount *big.Int) error {
	if m.onTransfer != nil {
		m.onTransfer()
	}
	if m.transferErr != nil {
		return m.transferErr
	}
	balance, _ := m.BalanceOf(from, symbol)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("ledger: insufficient balance")
	}
	if m.balances[symbol] == nil {
		m.balances[symbol] = make(map[[20]byte]*big.Int)
	}
	m.balances[symbol][from] = new(big.Int).Sub(balance, amount)
	toBalance, _ := m.BalanceOf(to, symbol)
	m.balances[symbol][to] = new(big.Int).Add(toBalance, amount)
	return nil
}

func (m *mockLedger) TransferFrom(spender, from, to [20]byte, symbol string, amount *big.Int) error {
	if m.transferFrom != nil {
		return m.transferFrom(spender, from, to, symbol, amount)
	}
	return m.Transfer(from, to, symbol, amount)
}

func testCampaign(addr [20]byte, owner [20]byte) *Campaign {
	return &Campaign{
		Addr:               addr,
		Owner:              owner,
		RewardToken:        "PROJ",
		StakeToken:         "TOL",
		MinBuy:             big.NewInt(10),
		MaxBuy:             big.NewInt(100),
		Rate:               big.NewInt(2),
		Deadline:           1_000,
		TargetRaise:        big.NewInt(150),
		RewardRatePerStake: big.NewInt(1),
		CreatedAt:          1,
		TotalRaised:        big.NewInt(0),
		Resolution:         ResolutionOpen,
	}
}

func newTestEngine(t *testing.T) (*Engine, *mockState, *mockLedger, [20]byte) {
	t.Helper()
	state := newMockState()
	ledger := newMockLedger()
	engine := NewEngine()
	engine.SetState(state)
	engine.SetLedger(ledger)
	engine.SetNowFunc(func() int64 { return 500 })
	campaignAddr := newTestAddress(0xC0)
	if err := state.LaunchpadPut(testCampaign(campaignAddr, newTestAddress(0x01))); err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
	return engine, state, ledger, campaignAddr
}

func TestContributeRecordsValueAndMovesFunds(t *testing.T) {
	engine, state, _, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 200)

	if err := engine.Contribute(campaign, participant, big.NewInt(60)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if err := engine.Contribute(campaign, participant, big.NewInt(40)); err != nil {
		t.Fatalf("second contribute: %v", err)
	}

	got, err := engine.GetContribution(campaign, participant)
	if err != nil {
		t.Fatalf("get contribution: %v", err)
	}
	if got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected contribution 100, got %s", got)
	}
	c, err := engine.Get(campaign)
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if c.TotalRaised.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected total raised 100, got %s", c.TotalRaised)
	}
	if bal := state.balance(participant); bal.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected participant balance 100, got %s", bal)
	}
	if bal := state.balance(campaign); bal.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected vault balance 100, got %s", bal)
	}
}

func TestContributeBoundsEachCallIndependently(t *testing.T) {
	engine, state, _, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 1_000)

	if err := engine.Contribute(campaign, participant, big.NewInt(5)); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange below min, got %v", err)
	}
	if err := engine.Contribute(campaign, participant, big.NewInt(101)); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange above max, got %v", err)
	}
	// Repeat max-sized calls may exceed maxBuy in aggregate.
	for i := 0; i < 3; i++ {
		if err := engine.Contribute(campaign, participant, big.NewInt(100)); err != nil {
			t.Fatalf("contribute %d: %v", i, err)
		}
	}
	got, err := engine.GetContribution(campaign, participant)
	if err != nil {
		t.Fatalf("get contribution: %v", err)
	}
	if got.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("expected aggregate 300, got %s", got)
	}
}

func TestContributeRejectsZeroAndNegative(t *testing.T) {
	engine, state, _, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 100)

	if err := engine.Contribute(campaign, participant, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}
	if err := engine.Contribute(campaign, participant, big.NewInt(-5)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative, got %v", err)
	}
}

func TestContributeClosesAtDeadline(t *testing.T) {
	engine, state, _, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 100)

	engine.SetNowFunc(func() int64 { return 1_000 })
	if err := engine.Contribute(campaign, participant, big.NewInt(50)); !errors.Is(err, ErrSaleClosed) {
		t.Fatalf("expected ErrSaleClosed at deadline, got %v", err)
	}
}

func TestContributeRejectsResolvedCampaign(t *testing.T) {
	engine, state, _, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 100)

	engine.SetNowFunc(func() int64 { return 2_000 })
	if _, err := engine.Finalize(campaign); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	engine.SetNowFunc(func() int64 { return 500 })
	if err := engine.Contribute(campaign, participant, big.NewInt(50)); !errors.Is(err, ErrSaleClosed) {
		t.Fatalf("expected ErrSaleClosed after resolution, got %v", err)
	}
}

func TestContributeInsufficientNativeBalance(t *testing.T) {
	engine, state, _, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 20)

	if err := engine.Contribute(campaign, participant, big.NewInt(50)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	got, err := engine.GetContribution(campaign, participant)
	if err != nil {
		t.Fatalf("get contribution: %v", err)
	}
	if got.Sign() != 0 {
		t.Fatalf("expected no recorded contribution, got %s", got)
	}
}

func TestContributeUnknownCampaign(t *testing.T) {
	engine, state, _, _ := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 100)

	if err := engine.Contribute(newTestAddress(0xEE), participant, big.NewInt(50)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStakeLocksTokensWithCampaign(t *testing.T) {
	engine, _, ledger, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	ledger.setBalance(participant, "TOL", 500)

	if err := engine.Stake(campaign, participant, big.NewInt(200)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	record, err := engine.Contribution(campaign, participant)
	if err != nil {
		t.Fatalf("contribution: %v", err)
	}
	if record == nil || record.Staked.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("expected staked 200, got %+v", record)
	}
	vault, err := ledger.BalanceOf(campaign, "TOL")
	if err != nil {
		t.Fatalf("balance of vault: %v", err)
	}
	if vault.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("expected vault stake balance 200, got %s", vault)
	}
}

func TestStakeTransferFailureWrapped(t *testing.T) {
	engine, _, ledger, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	ledger.transferFrom = func(spender, from, to [20]byte, symbol string, amount *big.Int) error {
		return fmt.Errorf("allowance exhausted")
	}

	err := engine.Stake(campaign, participant, big.NewInt(50))
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	record, stateErr := engine.Contribution(campaign, participant)
	if stateErr != nil {
		t.Fatalf("contribution: %v", stateErr)
	}
	if record != nil {
		t.Fatalf("expected no record after failed stake, got %+v", record)
	}
}

func TestStakeRejectedAfterResolution(t *testing.T) {
	engine, _, ledger, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	ledger.setBalance(participant, "TOL", 500)

	engine.SetNowFunc(func() int64 { return 2_000 })
	if _, err := engine.Finalize(campaign); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := engine.Stake(campaign, participant, big.NewInt(50)); !errors.Is(err, ErrCampaignClosed) {
		t.Fatalf("expected ErrCampaignClosed, got %v", err)
	}
}

func TestFinalizeBeforeDeadline(t *testing.T) {
	engine, _, _, campaign := newTestEngine(t)
	if _, err := engine.Finalize(campaign); !errors.Is(err, ErrNotYetClosed) {
		t.Fatalf("expected ErrNotYetClosed, got %v", err)
	}
}

func TestFinalizeCommitsOutcomeOnce(t *testing.T) {
	engine, state, _, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 500)

	// Meet the target of 150 in two calls.
	if err := engine.Contribute(campaign, participant, big.NewInt(100)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if err := engine.Contribute(campaign, participant, big.NewInt(50)); err != nil {
		t.Fatalf("contribute: %v", err)
	}

	engine.SetNowFunc(func() int64 { return 1_000 })
	resolution, err := engine.Finalize(campaign)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if resolution != ResolutionSuccess {
		t.Fatalf("expected success, got %s", resolution)
	}
	if _, err := engine.Finalize(campaign); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestFinalizeBelowTargetFails(t *testing.T) {
	engine, state, _, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 500)

	if err := engine.Contribute(campaign, participant, big.NewInt(100)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	engine.SetNowFunc(func() int64 { return 1_000 })
	resolution, err := engine.Finalize(campaign)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if resolution != ResolutionFailure {
		t.Fatalf("expected failure, got %s", resolution)
	}
}

func TestFinalizeExactTargetSucceeds(t *testing.T) {
	engine, state, _, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 500)

	if err := engine.Contribute(campaign, participant, big.NewInt(100)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if err := engine.Contribute(campaign, participant, big.NewInt(50)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	engine.SetNowFunc(func() int64 { return 1_000 })
	resolution, err := engine.Finalize(campaign)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if resolution != ResolutionSuccess {
		t.Fatalf("expected success at exact target, got %s", resolution)
	}
}

func resolveCampaign(t *testing.T, engine *Engine, campaign [20]byte, want Resolution) {
	t.Helper()
	engine.SetNowFunc(func() int64 { return 2_000 })
	resolution, err := engine.Finalize(campaign)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if resolution != want {
		t.Fatalf("expected resolution %s, got %s", want, resolution)
	}
}

func TestWithdrawPaysContributionAndStakeReward(t *testing.T) {
	engine, state, ledger, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 500)
	ledger.setBalance(participant, "TOL", 500)

	if err := engine.Stake(campaign, participant, big.NewInt(50)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if err := engine.Contribute(campaign, participant, big.NewInt(100)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if err := engine.Contribute(campaign, participant, big.NewInt(50)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	resolveCampaign(t, engine, campaign, ResolutionSuccess)

	// reward = 150*2 + 50*1 = 350
	ledger.setBalance(campaign, "PROJ", 350)
	reward, err := engine.Withdraw(campaign, participant)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if reward.Cmp(big.NewInt(350)) != 0 {
		t.Fatalf("expected reward 350, got %s", reward)
	}
	got, err := ledger.BalanceOf(participant, "PROJ")
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	if got.Cmp(big.NewInt(350)) != 0 {
		t.Fatalf("expected participant reward balance 350, got %s", got)
	}
	if _, err := engine.Withdraw(campaign, participant); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible on second withdraw, got %v", err)
	}
}

func TestWithdrawRequiresSuccess(t *testing.T) {
	engine, state, _, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 500)

	if err := engine.Contribute(campaign, participant, big.NewInt(50)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if _, err := engine.Withdraw(campaign, participant); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible while open, got %v", err)
	}
	resolveCampaign(t, engine, campaign, ResolutionFailure)
	if _, err := engine.Withdraw(campaign, participant); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible after failure, got %v", err)
	}
}

func TestWithdrawInsufficientRewardSupply(t *testing.T) {
	engine, state, ledger, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 500)

	if err := engine.Contribute(campaign, participant, big.NewInt(100)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if err := engine.Contribute(campaign, participant, big.NewInt(50)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	resolveCampaign(t, engine, campaign, ResolutionSuccess)

	ledger.setBalance(campaign, "PROJ", 10)
	if _, err := engine.Withdraw(campaign, participant); !errors.Is(err, ErrInsufficientRewardSupply) {
		t.Fatalf("expected ErrInsufficientRewardSupply, got %v", err)
	}
	// The record stays unsettled so the participant can retry once the
	// vault is topped up.
	ledger.setBalance(campaign, "PROJ", 300)
	if _, err := engine.Withdraw(campaign, participant); err != nil {
		t.Fatalf("withdraw after top-up: %v", err)
	}
}

func TestWithdrawTransferFailureRestoresRecord(t *testing.T) {
	engine, state, ledger, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 500)

	if err := engine.Contribute(campaign, participant, big.NewInt(100)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if err := engine.Contribute(campaign, participant, big.NewInt(50)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	resolveCampaign(t, engine, campaign, ResolutionSuccess)

	ledger.setBalance(campaign, "PROJ", 300)
	ledger.transferErr = fmt.Errorf("token paused")
	if _, err := engine.Withdraw(campaign, participant); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	record, err := engine.Contribution(campaign, participant)
	if err != nil {
		t.Fatalf("contribution: %v", err)
	}
	if record.Settled {
		t.Fatalf("expected record to stay unsettled after failed transfer")
	}
	ledger.transferErr = nil
	if _, err := engine.Withdraw(campaign, participant); err != nil {
		t.Fatalf("withdraw retry: %v", err)
	}
}

// reentrantLedger calls back into the engine from inside the reward transfer,
// imitating a recipient that re-enters Withdraw mid-payout.
type reentrantLedger struct {
	*mockLedger
	engine      *Engine
	campaign    [20]byte
	participant [20]byte
	reentered   bool
	innerErr    error
}

func (r *reentrantLedger) Transfer(from, to [20]byte, symbol string, amount *big.Int) error {
	if !r.reentered {
		r.reentered = true
		_, r.innerErr = r.engine.Withdraw(r.campaign, r.participant)
	}
	return r.mockLedger.Transfer(from, to, symbol, amount)
}

func TestWithdrawReentrancyPaysOnce(t *testing.T) {
	engine, state, ledger, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 500)

	if err := engine.Contribute(campaign, participant, big.NewInt(100)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if err := engine.Contribute(campaign, participant, big.NewInt(50)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	resolveCampaign(t, engine, campaign, ResolutionSuccess)

	ledger.setBalance(campaign, "PROJ", 1_000)
	wrapped := &reentrantLedger{mockLedger: ledger, engine: engine, campaign: campaign, participant: participant}
	engine.SetLedger(wrapped)

	reward, err := engine.Withdraw(campaign, participant)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if reward.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("expected reward 300, got %s", reward)
	}
	if !errors.Is(wrapped.innerErr, ErrNotEligible) {
		t.Fatalf("expected reentrant call to fail with ErrNotEligible, got %v", wrapped.innerErr)
	}
	got, balErr := ledger.BalanceOf(participant, "PROJ")
	if balErr != nil {
		t.Fatalf("balance of: %v", balErr)
	}
	if got.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("expected single payout of 300, got %s", got)
	}
}

func TestRefundReturnsContributionAfterFailure(t *testing.T) {
	engine, state, _, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 500)

	if err := engine.Contribute(campaign, participant, big.NewInt(100)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	resolveCampaign(t, engine, campaign, ResolutionFailure)

	amount, err := engine.Refund(campaign, participant)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if amount.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected refund 100, got %s", amount)
	}
	if bal := state.balance(participant); bal.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected balance restored to 500, got %s", bal)
	}
	if _, err := engine.Refund(campaign, participant); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible on second refund, got %v", err)
	}
}

func TestRefundRequiresFailure(t *testing.T) {
	engine, state, _, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 500)

	if err := engine.Contribute(campaign, participant, big.NewInt(100)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if _, err := engine.Refund(campaign, participant); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible while open, got %v", err)
	}
	if err := engine.Contribute(campaign, participant, big.NewInt(50)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	resolveCampaign(t, engine, campaign, ResolutionSuccess)
	if _, err := engine.Refund(campaign, participant); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible after success, got %v", err)
	}
}

func TestRefundLeavesStakeAlone(t *testing.T) {
	engine, state, ledger, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 500)
	ledger.setBalance(participant, "TOL", 500)

	if err := engine.Stake(campaign, participant, big.NewInt(200)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if err := engine.Contribute(campaign, participant, big.NewInt(100)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	resolveCampaign(t, engine, campaign, ResolutionFailure)

	if _, err := engine.Refund(campaign, participant); err != nil {
		t.Fatalf("refund: %v", err)
	}
	vault, err := ledger.BalanceOf(campaign, "TOL")
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	if vault.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("expected staked tokens untouched, got vault %s", vault)
	}
}

func TestEmergencyWithdrawExitsBeforeResolution(t *testing.T) {
	engine, state, _, campaign := newTestEngine(t)
	alice := newTestAddress(0x02)
	bob := newTestAddress(0x03)
	state.setBalance(alice, 500)
	state.setBalance(bob, 500)

	if err := engine.Contribute(campaign, alice, big.NewInt(100)); err != nil {
		t.Fatalf("alice contribute: %v", err)
	}
	if err := engine.Contribute(campaign, bob, big.NewInt(60)); err != nil {
		t.Fatalf("bob contribute: %v", err)
	}

	amount, err := engine.EmergencyWithdraw(campaign, alice)
	if err != nil {
		t.Fatalf("emergency withdraw: %v", err)
	}
	if amount.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected emergency withdrawal 100, got %s", amount)
	}
	if bal := state.balance(alice); bal.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected alice restored to 500, got %s", bal)
	}
	c, err := engine.Get(campaign)
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if c.TotalRaised.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected total raised 60 after exit, got %s", c.TotalRaised)
	}

	// The exit forfeits every later settlement path.
	if err := engine.Contribute(campaign, alice, big.NewInt(50)); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible after exit, got %v", err)
	}
	resolveCampaign(t, engine, campaign, ResolutionFailure)
	if _, err := engine.Refund(campaign, alice); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible refund after exit, got %v", err)
	}
	if _, err := engine.Refund(campaign, bob); err != nil {
		t.Fatalf("bob refund: %v", err)
	}
}

func TestEmergencyWithdrawClosedAfterResolution(t *testing.T) {
	engine, state, _, campaign := newTestEngine(t)
	participant := newTestAddress(0x02)
	state.setBalance(participant, 500)

	if err := engine.Contribute(campaign, participant, big.NewInt(100)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	resolveCampaign(t, engine, campaign, ResolutionFailure)
	if _, err := engine.EmergencyWithdraw(campaign, participant); !errors.Is(err, ErrCampaignClosed) {
		t.Fatalf("expected ErrCampaignClosed, got %v", err)
	}
}

func TestVaultBalanceMatchesTotalRaised(t *testing.T) {
	engine, state, _, campaign := newTestEngine(t)
	alice := newTestAddress(0x02)
	bob := newTestAddress(0x03)
	state.setBalance(alice, 1_000)
	state.setBalance(bob, 1_000)

	if err := engine.Contribute(campaign, alice, big.NewInt(100)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if err := engine.Contribute(campaign, bob, big.NewInt(80)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if _, err := engine.EmergencyWithdraw(campaign, bob); err != nil {
		t.Fatalf("emergency withdraw: %v", err)
	}
	c, err := engine.Get(campaign)
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if vault := state.balance(campaign); vault.Cmp(c.TotalRaised) != 0 {
		t.Fatalf("vault %s diverged from total raised %s", vault, c.TotalRaised)
	}
}

func TestGetContributionUnknownParticipantIsZero(t *testing.T) {
	engine, _, _, campaign := newTestEngine(t)
	got, err := engine.GetContribution(campaign, newTestAddress(0x99))
	if err != nil {
		t.Fatalf("get contribution: %v", err)
	}
	if got.Sign() != 0 {
		t.Fatalf("expected zero, got %s", got)
	}
}

func TestGetUnknownCampaign(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	if _, err := engine.Get(newTestAddress(0xEE)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
