package faucet

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"testing"
)

type mockState struct {
	lastClaims map[[20]byte]int64
}

func newMockState() *mockState {
	return &mockState{lastClaims: make(map[[20]byte]int64)}
}

func (m *mockState) FaucetLastClaimGet(addr [20]byte) (int64, error) {
	return m.lastClaims[addr], nil
}

func (m *mockState) FaucetLastClaimPut(addr [20]byte, ts int64) error {
	m.lastClaims[addr] = ts
	return nil
}

type mockLedger struct {
	balances map[[20]byte]*big.Int
	failErr  error
}

func newMockLedger() *mockLedger {
	return &mockLedger{balances: make(map[[20]byte]*big.Int)}
}

func (m *mockLedger) balance(addr [20]byte) *big.Int {
	if m.balances[addr] == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(m.balances[addr])
}

func (m *mockLedger) Transfer(from, to [20]byte, symbol string, amount *big.Int) error {
	if m.failErr != nil {
		return m.failErr
	}
	balance := m.balance(from)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("ledger: insufficient balance")
	}
	m.balances[from] = new(big.Int).Sub(balance, amount)
	m.balances[to] = new(big.Int).Add(m.balance(to), amount)
	return nil
}

func (m *mockLedger) TransferFrom(spender, from, to [20]byte, symbol string, amount *big.Int) error {
	return m.Transfer(from, to, symbol, amount)
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func newTestFaucet(t *testing.T) (*Faucet, *mockState, *mockLedger) {
	t.Helper()
	state := newMockState()
	ledger := newMockLedger()
	f := New(newTestAddress(0xFA), newTestAddress(0x01), "tol", big.NewInt(100), 3_600)
	f.SetState(state)
	f.SetLedger(ledger)
	f.SetNowFunc(func() int64 { return 10_000 })
	ledger.balances[f.Address()] = big.NewInt(1_000)
	return f, state, ledger
}

func TestClaimPaysOncePerInterval(t *testing.T) {
	f, _, ledger := newTestFaucet(t)
	caller := newTestAddress(0x02)

	amount, err := f.Claim(caller)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if amount.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected claim 100, got %s", amount)
	}
	if got := ledger.balance(caller); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected balance 100, got %s", got)
	}

	if _, err := f.Claim(caller); !errors.Is(err, ErrClaimTooSoon) {
		t.Fatalf("expected ErrClaimTooSoon, got %v", err)
	}

	f.SetNowFunc(func() int64 { return 13_600 })
	if _, err := f.Claim(caller); err != nil {
		t.Fatalf("claim after interval: %v", err)
	}
	if got := ledger.balance(caller); got.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("expected balance 200, got %s", got)
	}
}

func TestClaimIntervalIsPerAddress(t *testing.T) {
	f, _, _ := newTestFaucet(t)
	alice := newTestAddress(0x02)
	bob := newTestAddress(0x03)

	if _, err := f.Claim(alice); err != nil {
		t.Fatalf("alice claim: %v", err)
	}
	if _, err := f.Claim(bob); err != nil {
		t.Fatalf("bob claim: %v", err)
	}
}

func TestClaimTransferFailureRestoresTimestamp(t *testing.T) {
	f, state, ledger := newTestFaucet(t)
	caller := newTestAddress(0x02)

	ledger.failErr = fmt.Errorf("token paused")
	if _, err := f.Claim(caller); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if last := state.lastClaims[caller]; last != 0 {
		t.Fatalf("expected last claim restored to zero, got %d", last)
	}
	ledger.failErr = nil
	if _, err := f.Claim(caller); err != nil {
		t.Fatalf("claim retry: %v", err)
	}
}

func TestOwnerSettings(t *testing.T) {
	f, _, _ := newTestFaucet(t)
	owner := newTestAddress(0x01)
	stranger := newTestAddress(0x99)

	if err := f.SetClaimAmount(stranger, big.NewInt(5)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := f.SetClaimAmount(owner, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := f.SetClaimAmount(owner, big.NewInt(250)); err != nil {
		t.Fatalf("set claim amount: %v", err)
	}
	if got := f.ClaimAmount(); got.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("expected claim amount 250, got %s", got)
	}
	if err := f.SetClaimInterval(owner, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := f.SetClaimInterval(owner, 60); err != nil {
		t.Fatalf("set claim interval: %v", err)
	}
	if got := f.ClaimInterval(); got != 60 {
		t.Fatalf("expected interval 60, got %d", got)
	}
}

func TestDepositAndWithdraw(t *testing.T) {
	f, _, ledger := newTestFaucet(t)
	owner := newTestAddress(0x01)
	donor := newTestAddress(0x02)
	ledger.balances[donor] = big.NewInt(500)

	if err := f.Deposit(donor, big.NewInt(300)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if got := ledger.balance(f.Address()); got.Cmp(big.NewInt(1_300)) != 0 {
		t.Fatalf("expected vault 1300, got %s", got)
	}
	if err := f.WithdrawTokens(donor, big.NewInt(100)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := f.WithdrawTokens(owner, big.NewInt(100)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got := ledger.balance(owner); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected owner balance 100, got %s", got)
	}
}

func TestDepositValidation(t *testing.T) {
	f, _, _ := newTestFaucet(t)
	if err := f.Deposit(newTestAddress(0x02), big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
