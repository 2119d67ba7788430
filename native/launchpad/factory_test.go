package launchpad

import (
	"errors"
	"fmt"
	"math/big"
	"testing"
)

type factoryMockState struct {
	*mockState
	counter uint64
}

func newFactoryMockState() *factoryMockState {
	return &factoryMockState{mockState: newMockState()}
}

func (m *factoryMockState) LaunchpadCounterGet() (uint64, error) { return m.counter, nil }

func (m *factoryMockState) LaunchpadCounterPut(counter uint64) error {
	m.counter = counter
	return nil
}

type mockRegistry struct {
	nextID  uint64
	stored  []mockRegistration
	failErr error
}

type mockRegistration struct {
	caller   [20]byte
	owner    [20]byte
	contract [20]byte
	cid      string
}

func (m *mockRegistry) StoreProject(caller, owner, contractAddr [20]byte, cid string) (uint64, error) {
	if m.failErr != nil {
		return 0, m.failErr
	}
	m.nextID++
	m.stored = append(m.stored, mockRegistration{caller: caller, owner: owner, contract: contractAddr, cid: cid})
	return m.nextID, nil
}

func validParams() CreateParams {
	return CreateParams{
		RewardToken:        "proj",
		MinBuy:             big.NewInt(10),
		MaxBuy:             big.NewInt(100),
		Rate:               big.NewInt(2),
		Deadline:           1_000,
		TargetRaise:        big.NewInt(150),
		RewardRatePerStake: big.NewInt(1),
		CID:                "bafy-metadata",
	}
}

func newTestFactory(t *testing.T) (*Factory, *factoryMockState, *mockLedger) {
	t.Helper()
	state := newFactoryMockState()
	ledger := newMockLedger()
	factory := NewFactory(newTestAddress(0xF0), newTestAddress(0x01), "tol", big.NewInt(1_000))
	factory.SetState(state)
	factory.SetLedger(ledger)
	factory.SetNowFunc(func() int64 { return 100 })
	return factory, state, ledger
}

func TestCreateLaunchpadPersistsOpenCampaign(t *testing.T) {
	factory, state, ledger := newTestFactory(t)
	creator := newTestAddress(0x02)
	ledger.setBalance(creator, "TOL", 5_000)

	campaign, err := factory.CreateLaunchpad(creator, validParams())
	if err != nil {
		t.Fatalf("create launchpad: %v", err)
	}
	if campaign.Owner != creator {
		t.Fatalf("expected owner %x, got %x", creator, campaign.Owner)
	}
	if campaign.Resolution != ResolutionOpen {
		t.Fatalf("expected open resolution, got %s", campaign.Resolution)
	}
	if campaign.TotalRaised.Sign() != 0 {
		t.Fatalf("expected zero raised, got %s", campaign.TotalRaised)
	}
	if campaign.RewardToken != "PROJ" || campaign.StakeToken != "TOL" {
		t.Fatalf("expected canonical token symbols, got %s/%s", campaign.RewardToken, campaign.StakeToken)
	}
	stored, ok, err := state.LaunchpadGet(campaign.Addr)
	if err != nil || !ok {
		t.Fatalf("stored campaign missing: ok=%v err=%v", ok, err)
	}
	if stored.Deadline != 1_000 {
		t.Fatalf("expected deadline 1000, got %d", stored.Deadline)
	}
}

func TestCreateLaunchpadAddressesAreDistinct(t *testing.T) {
	factory, _, ledger := newTestFactory(t)
	creator := newTestAddress(0x02)
	ledger.setBalance(creator, "TOL", 5_000)

	first, err := factory.CreateLaunchpad(creator, validParams())
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := factory.CreateLaunchpad(creator, validParams())
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if first.Addr == second.Addr {
		t.Fatalf("expected distinct campaign addresses, both %x", first.Addr)
	}
}

func TestCreateLaunchpadValidation(t *testing.T) {
	factory, _, ledger := newTestFactory(t)
	creator := newTestAddress(0x02)
	ledger.setBalance(creator, "TOL", 5_000)

	cases := []struct {
		name   string
		mutate func(*CreateParams)
	}{
		{"zero min buy", func(p *CreateParams) { p.MinBuy = big.NewInt(0) }},
		{"min above max", func(p *CreateParams) { p.MinBuy = big.NewInt(200) }},
		{"zero rate", func(p *CreateParams) { p.Rate = big.NewInt(0) }},
		{"zero target", func(p *CreateParams) { p.TargetRaise = big.NewInt(0) }},
		{"negative reward rate", func(p *CreateParams) { p.RewardRatePerStake = big.NewInt(-1) }},
		{"empty reward token", func(p *CreateParams) { p.RewardToken = "  " }},
		{"past deadline", func(p *CreateParams) { p.Deadline = 100 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(&params)
			if _, err := factory.CreateLaunchpad(creator, params); !errors.Is(err, ErrInvalidParameters) {
				t.Fatalf("expected ErrInvalidParameters, got %v", err)
			}
		})
	}
}

func TestCreateLaunchpadStakeGate(t *testing.T) {
	factory, _, ledger := newTestFactory(t)
	creator := newTestAddress(0x02)
	ledger.setBalance(creator, "TOL", 999)

	if _, err := factory.CreateLaunchpad(creator, validParams()); !errors.Is(err, ErrInsufficientStake) {
		t.Fatalf("expected ErrInsufficientStake, got %v", err)
	}
	// The stake gate reads the balance; the tokens themselves stay put.
	ledger.setBalance(creator, "TOL", 1_000)
	if _, err := factory.CreateLaunchpad(creator, validParams()); err != nil {
		t.Fatalf("create at exact minimum: %v", err)
	}
	got, err := ledger.BalanceOf(creator, "TOL")
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	if got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("expected untouched balance 1000, got %s", got)
	}
}

func TestCreateLaunchpadRegistersProject(t *testing.T) {
	factory, _, ledger := newTestFactory(t)
	creator := newTestAddress(0x02)
	ledger.setBalance(creator, "TOL", 5_000)

	reg := &mockRegistry{}
	if err := factory.UpdateRegistryInstance(newTestAddress(0x01), reg); err != nil {
		t.Fatalf("update registry: %v", err)
	}
	campaign, err := factory.CreateLaunchpad(creator, validParams())
	if err != nil {
		t.Fatalf("create launchpad: %v", err)
	}
	if campaign.ProjectID != 1 {
		t.Fatalf("expected project id 1, got %d", campaign.ProjectID)
	}
	if len(reg.stored) != 1 {
		t.Fatalf("expected one registration, got %d", len(reg.stored))
	}
	entry := reg.stored[0]
	if entry.caller != factory.Address() {
		t.Fatalf("expected factory as registry caller, got %x", entry.caller)
	}
	if entry.owner != creator || entry.contract != campaign.Addr {
		t.Fatalf("registration mismatch: %+v", entry)
	}
}

func TestCreateLaunchpadRegistryFailureAborts(t *testing.T) {
	factory, state, ledger := newTestFactory(t)
	creator := newTestAddress(0x02)
	ledger.setBalance(creator, "TOL", 5_000)

	reg := &mockRegistry{failErr: fmt.Errorf("registry offline")}
	if err := factory.UpdateRegistryInstance(newTestAddress(0x01), reg); err != nil {
		t.Fatalf("update registry: %v", err)
	}
	if _, err := factory.CreateLaunchpad(creator, validParams()); err == nil {
		t.Fatalf("expected creation to fail when registration fails")
	}
	if state.counter != 0 {
		t.Fatalf("expected counter untouched, got %d", state.counter)
	}
	if len(state.campaigns) != 0 {
		t.Fatalf("expected no campaign persisted, got %d", len(state.campaigns))
	}
}

func TestUpdateRegistryInstanceOwnerOnly(t *testing.T) {
	factory, _, _ := newTestFactory(t)
	if err := factory.UpdateRegistryInstance(newTestAddress(0x99), &mockRegistry{}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
