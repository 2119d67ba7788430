package launchpad

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"tolchain/core/events"
	"tolchain/core/types"
	nativecommon "tolchain/native/common"
)

type factoryState interface {
	LaunchpadGet(addr [20]byte) (*Campaign, bool, error)
	LaunchpadPut(campaign *Campaign) error
	LaunchpadCounterGet() (uint64, error)
	LaunchpadCounterPut(counter uint64) error
}

// ProjectRegistry is the optional registry collaborator. When configured, the
// factory records every new campaign with it at creation time.
type ProjectRegistry interface {
	StoreProject(caller [20]byte, owner [20]byte, contractAddr [20]byte, cid string) (uint64, error)
}

// CreateParams carries the immutable campaign configuration supplied by a
// creator.
type CreateParams struct {
	RewardToken        string
	MinBuy             *big.Int
	MaxBuy             *big.Int
	Rate               *big.Int
	Deadline           int64
	TargetRaise        *big.Int
	RewardRatePerStake *big.Int
	CID                string
}

// Factory validates creation parameters and mints campaign instances. The
// factory owner controls the registry pointer; campaign creation is gated on
// the creator holding the configured minimum stake-token balance.
type Factory struct {
	state        factoryState
	ledger       Ledger
	registry     ProjectRegistry
	emitter      events.Emitter
	pauses       nativecommon.PauseView
	nowFn        func() int64
	addr         [20]byte
	owner        [20]byte
	stakeToken   string
	minimumStake *big.Int
}

// NewFactory constructs a factory owned by the given address. The stake token
// symbol and minimum balance gate campaign creation.
func NewFactory(addr [20]byte, owner [20]byte, stakeToken string, minimumStake *big.Int) *Factory {
	return &Factory{
		emitter:      events.NoopEmitter{},
		nowFn:        func() int64 { return time.Now().Unix() },
		addr:         addr,
		owner:        owner,
		stakeToken:   strings.ToUpper(strings.TrimSpace(stakeToken)),
		minimumStake: cloneBigInt(minimumStake),
	}
}

// SetState configures the state backend used by the factory.
func (f *Factory) SetState(state factoryState) { f.state = state }

// SetLedger configures the token ledger used for the creation stake gate.
func (f *Factory) SetLedger(ledger Ledger) { f.ledger = ledger }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (f *Factory) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		f.emitter = events.NoopEmitter{}
		return
	}
	f.emitter = emitter
}

// SetPauses configures the module pause switchboard.
func (f *Factory) SetPauses(p nativecommon.PauseView) { f.pauses = p }

// SetNowFunc overrides the time source, primarily for tests.
func (f *Factory) SetNowFunc(now func() int64) {
	if now == nil {
		f.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	f.nowFn = now
}

// Address returns the factory's own address.
func (f *Factory) Address() [20]byte { return f.addr }

func (f *Factory) now() int64 {
	if f == nil || f.nowFn == nil {
		return time.Now().Unix()
	}
	return f.nowFn()
}

func (f *Factory) emit(evt *types.Event) {
	if f == nil || f.emitter == nil || evt == nil {
		return
	}
	f.emitter.Emit(WrapEvent(evt))
}

// UpdateRegistryInstance stores the registry used to record new campaigns.
// Only the factory owner may change it; passing nil disables registration.
func (f *Factory) UpdateRegistryInstance(caller [20]byte, registry ProjectRegistry) error {
	if caller != f.owner {
		return ErrUnauthorized
	}
	f.registry = registry
	return nil
}

// deriveAddress computes the deterministic campaign address from the factory
// address, the creator and the per-factory creation counter.
func (f *Factory) deriveAddress(creator [20]byte, counter uint64) [20]byte {
	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], counter)
	hash := ethcrypto.Keccak256(f.addr[:], creator[:], nonce[:])
	var out [20]byte
	copy(out[:], hash[12:])
	return out
}

// CreateLaunchpad validates the campaign parameters, checks the creator's
// stake-token balance against the factory minimum and persists a fresh
// campaign in the Open state with zero raised value. When a registry is
// configured the campaign is recorded there as part of the same call.
func (f *Factory) CreateLaunchpad(caller [20]byte, params CreateParams) (*Campaign, error) {
	if f == nil || f.state == nil {
		return nil, errNilState
	}
	if f.ledger == nil {
		return nil, errNilLedger
	}
	if err := nativecommon.Guard(f.pauses, moduleName); err != nil {
		return nil, err
	}
	minBuy := cloneBigInt(params.MinBuy)
	maxBuy := cloneBigInt(params.MaxBuy)
	if minBuy.Sign() <= 0 {
		return nil, fmt.Errorf("%w: min buy must be positive", ErrInvalidParameters)
	}
	if minBuy.Cmp(maxBuy) > 0 {
		return nil, fmt.Errorf("%w: min buy exceeds max buy", ErrInvalidParameters)
	}
	rate := cloneBigInt(params.Rate)
	if rate.Sign() <= 0 {
		return nil, fmt.Errorf("%w: rate must be positive", ErrInvalidParameters)
	}
	target := cloneBigInt(params.TargetRaise)
	if target.Sign() <= 0 {
		return nil, fmt.Errorf("%w: target raise must be positive", ErrInvalidParameters)
	}
	rewardRate := cloneBigInt(params.RewardRatePerStake)
	if rewardRate.Sign() < 0 {
		return nil, fmt.Errorf("%w: reward rate must be non-negative", ErrInvalidParameters)
	}
	rewardToken := strings.ToUpper(strings.TrimSpace(params.RewardToken))
	if rewardToken == "" {
		return nil, fmt.Errorf("%w: reward token required", ErrInvalidParameters)
	}
	now := f.now()
	if params.Deadline <= now {
		return nil, fmt.Errorf("%w: deadline must be in the future", ErrInvalidParameters)
	}

	balance, err := f.ledger.BalanceOf(caller, f.stakeToken)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(f.minimumStake) < 0 {
		return nil, fmt.Errorf("%w: need %s %s", ErrInsufficientStake, f.minimumStake, f.stakeToken)
	}

	counter, err := f.state.LaunchpadCounterGet()
	if err != nil {
		return nil, err
	}
	counter++
	addr := f.deriveAddress(caller, counter)
	if _, exists, err := f.state.LaunchpadGet(addr); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("launchpad: address collision at counter %d", counter)
	}

	campaign := &Campaign{
		Addr:               addr,
		Owner:              caller,
		RewardToken:        rewardToken,
		StakeToken:         f.stakeToken,
		MinBuy:             minBuy,
		MaxBuy:             maxBuy,
		Rate:               rate,
		Deadline:           params.Deadline,
		TargetRaise:        target,
		RewardRatePerStake: rewardRate,
		CID:                strings.TrimSpace(params.CID),
		CreatedAt:          now,
		TotalRaised:        big.NewInt(0),
		Resolution:         ResolutionOpen,
	}
	if f.registry != nil {
		projectID, err := f.registry.StoreProject(f.addr, caller, addr, campaign.CID)
		if err != nil {
			return nil, err
		}
		campaign.ProjectID = projectID
	}
	if err := f.state.LaunchpadCounterPut(counter); err != nil {
		return nil, err
	}
	if err := f.state.LaunchpadPut(campaign); err != nil {
		return nil, err
	}
	f.emit(CreatedEvent(campaign))
	return campaign.Clone(), nil
}
