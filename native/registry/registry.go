package registry

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"tolchain/core/events"
	"tolchain/core/types"
	nativecommon "tolchain/native/common"
)

const moduleName = "registry"

var errNilState = errors.New("registry: state not configured")
var errNilLedger = errors.New("registry: ledger not configured")

type registryState interface {
	ProjectGet(id uint64) (*Project, bool, error)
	ProjectPut(project *Project) error
	ProjectCounterGet() (uint64, error)
	ProjectCounterPut(counter uint64) error
}

// Ledger is the token collaborator used to custody boost stakes.
type Ledger interface {
	TransferFrom(spender [20]byte, from [20]byte, to [20]byte, symbol string, amount *big.Int) error
}

// verifyArguments mirrors the wire encoding of certification payloads: an
// ABI-encoded (uint256 projectId, bool certified) pair.
var verifyArguments = func() abi.Arguments {
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	boolType, err := abi.NewType("bool", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: uint256Type}, {Type: boolType}}
}()

// Registry records launchpad projects, their boost points and certification
// state. StoreProject is reserved for the configured factory address; boosts
// move stake tokens into the registry treasury.
type Registry struct {
	state      registryState
	ledger     Ledger
	emitter    events.Emitter
	pauses     nativecommon.PauseView
	nowFn      func() int64
	addr       [20]byte
	owner      [20]byte
	factory    [20]byte
	treasury   [20]byte
	stakeToken string
	boostRate  *big.Int
}

// NewRegistry constructs a registry owned by the given address. The factory
// address gates StoreProject; the treasury receives boost stakes.
func NewRegistry(addr [20]byte, owner [20]byte, factory [20]byte, treasury [20]byte, stakeToken string) *Registry {
	return &Registry{
		emitter:    events.NoopEmitter{},
		nowFn:      func() int64 { return time.Now().Unix() },
		addr:       addr,
		owner:      owner,
		factory:    factory,
		treasury:   treasury,
		stakeToken: strings.ToUpper(strings.TrimSpace(stakeToken)),
		boostRate:  big.NewInt(1),
	}
}

// SetState configures the state backend used by the registry.
func (r *Registry) SetState(state registryState) { r.state = state }

// SetLedger configures the token ledger used for boost transfers.
func (r *Registry) SetLedger(ledger Ledger) { r.ledger = ledger }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetPauses configures the module pause switchboard.
func (r *Registry) SetPauses(p nativecommon.PauseView) { r.pauses = p }

// SetNowFunc overrides the time source, primarily for tests.
func (r *Registry) SetNowFunc(now func() int64) {
	if now == nil {
		r.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	r.nowFn = now
}

// Address returns the registry's own address.
func (r *Registry) Address() [20]byte { return r.addr }

func (r *Registry) emit(evt *types.Event) {
	if r == nil || r.emitter == nil || evt == nil {
		return
	}
	r.emitter.Emit(WrapEvent(evt))
}

func (r *Registry) now() int64 {
	if r == nil || r.nowFn == nil {
		return time.Now().Unix()
	}
	return r.nowFn()
}

func (r *Registry) loadProject(id uint64) (*Project, error) {
	if r == nil || r.state == nil {
		return nil, errNilState
	}
	project, ok, err := r.state.ProjectGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrProjectNotFound, id)
	}
	if project.BoostPoint == nil {
		project.BoostPoint = big.NewInt(0)
	}
	return project, nil
}

// StoreProject records a new project. Only the configured factory address may
// call it; the returned identifier is sequential starting at 1.
func (r *Registry) StoreProject(caller [20]byte, owner [20]byte, contractAddr [20]byte, cid string) (uint64, error) {
	if r == nil || r.state == nil {
		return 0, errNilState
	}
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return 0, err
	}
	if caller != r.factory {
		return 0, ErrOnlyFactory
	}
	counter, err := r.state.ProjectCounterGet()
	if err != nil {
		return 0, err
	}
	counter++
	project := &Project{
		ID:              counter,
		Owner:           owner,
		ContractAddress: contractAddr,
		CID:             strings.TrimSpace(cid),
		BoostPoint:      big.NewInt(0),
		CreatedAt:       r.now(),
	}
	if err := r.state.ProjectCounterPut(counter); err != nil {
		return 0, err
	}
	if err := r.state.ProjectPut(project); err != nil {
		return 0, err
	}
	r.emit(ProjectStoredEvent(project))
	return counter, nil
}

// UpdateProject replaces the project's metadata identifier. Only the project
// owner may update it, and terminated projects are frozen.
func (r *Registry) UpdateProject(caller [20]byte, id uint64, cid string) error {
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return err
	}
	project, err := r.loadProject(id)
	if err != nil {
		return err
	}
	if caller != project.Owner {
		return ErrOnlyProjectOwner
	}
	if project.IsTerminated {
		return fmt.Errorf("%w: %d", ErrTerminated, id)
	}
	project.CID = strings.TrimSpace(cid)
	if err := r.state.ProjectPut(project); err != nil {
		return err
	}
	r.emit(ProjectUpdatedEvent(project))
	return nil
}

// TerminateProject marks the project terminated. Registry owner only.
func (r *Registry) TerminateProject(caller [20]byte, id uint64) error {
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return err
	}
	if caller != r.owner {
		return fmt.Errorf("%w: only the registry owner can terminate projects", ErrUnauthorized)
	}
	project, err := r.loadProject(id)
	if err != nil {
		return err
	}
	project.IsTerminated = true
	if err := r.state.ProjectPut(project); err != nil {
		return err
	}
	r.emit(ProjectTerminatedEvent(project))
	return nil
}

// SetBoostRate configures how many staked units buy one boost point.
// Registry owner only.
func (r *Registry) SetBoostRate(caller [20]byte, rate *big.Int) error {
	if caller != r.owner {
		return fmt.Errorf("%w: only the registry owner can set the boost rate", ErrUnauthorized)
	}
	cloned := cloneBigInt(rate)
	if cloned.Sign() <= 0 {
		return ErrInvalidBoostRate
	}
	r.boostRate = cloned
	return nil
}

// BoostProject locks the booster's stake tokens in the registry treasury and
// credits the project with stakeAmount / boostRate boost points. The booster
// must have approved the registry address beforehand.
func (r *Registry) BoostProject(caller [20]byte, id uint64, stakeAmount *big.Int) error {
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return err
	}
	if r.ledger == nil {
		return errNilLedger
	}
	amt := cloneBigInt(stakeAmount)
	if amt.Sign() <= 0 {
		return ErrInvalidAmount
	}
	project, err := r.loadProject(id)
	if err != nil {
		return err
	}
	if project.IsTerminated {
		return fmt.Errorf("%w: %d", ErrTerminated, id)
	}
	if err := r.ledger.TransferFrom(r.addr, caller, r.treasury, r.stakeToken, amt); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	points := new(big.Int).Quo(amt, r.boostRate)
	project.BoostPoint = new(big.Int).Add(project.BoostPoint, points)
	if err := r.state.ProjectPut(project); err != nil {
		return err
	}
	r.emit(ProjectBoostedEvent(project, caller, amt, points))
	return nil
}

// Verify decodes an ABI-encoded (projectId, certified) pair and updates the
// project's certification flag.
func (r *Registry) Verify(payload []byte) error {
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return err
	}
	values, err := verifyArguments.Unpack(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(values) != 2 {
		return ErrInvalidPayload
	}
	rawID, ok := values[0].(*big.Int)
	if !ok || !rawID.IsUint64() {
		return ErrInvalidPayload
	}
	certified, ok := values[1].(bool)
	if !ok {
		return ErrInvalidPayload
	}
	project, err := r.loadProject(rawID.Uint64())
	if err != nil {
		return err
	}
	project.IsCertified = certified
	if err := r.state.ProjectPut(project); err != nil {
		return err
	}
	r.emit(ProjectVerifiedEvent(project))
	return nil
}

// Get returns a copy of the project record.
func (r *Registry) Get(id uint64) (*Project, error) {
	project, err := r.loadProject(id)
	if err != nil {
		return nil, err
	}
	return project.Clone(), nil
}
