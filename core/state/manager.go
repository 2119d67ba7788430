package state

import (
	"fmt"
	"math/big"
	"strconv"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"tolchain/core/types"
	"tolchain/native/launchpad"
	"tolchain/native/registry"
	"tolchain/native/token"
	"tolchain/storage"
)

// Manager persists module state in a key-value backend. Keys are keccak
// hashes of readable prefixed strings; values are RLP. It satisfies the state
// interfaces of the launchpad, token, registry and faucet modules.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func key(parts ...string) []byte {
	buf := make([]byte, 0, 64)
	for i, part := range parts {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, part...)
	}
	return ethcrypto.Keccak256(buf)
}

func addrKey(addr [20]byte) string {
	return string(addr[:])
}

func (m *Manager) getRLP(k []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(k)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) putRLP(k []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(k, encoded)
}

func (m *Manager) getCounter(k []byte) (uint64, error) {
	var counter uint64
	ok, err := m.getRLP(k, &counter)
	if err != nil || !ok {
		return 0, err
	}
	return counter, nil
}

// --- Accounts (chain-native balances) ---

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

// GetAccount loads the native account for the address, or nil when absent.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	stored := new(storedAccount)
	ok, err := m.getRLP(key("account", string(addr)), stored)
	if err != nil || !ok {
		return nil, err
	}
	balance := stored.Balance
	if balance == nil {
		balance = big.NewInt(0)
	}
	return &types.Account{Nonce: stored.Nonce, Balance: balance}, nil
}

// PutAccount stores the native account for the address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	balance := account.Balance
	if balance == nil {
		balance = big.NewInt(0)
	}
	return m.putRLP(key("account", string(addr)), &storedAccount{Nonce: account.Nonce, Balance: balance})
}

// --- Launchpad campaigns ---

type storedCampaign struct {
	Addr               [20]byte
	Owner              [20]byte
	RewardToken        string
	StakeToken         string
	MinBuy             *big.Int
	MaxBuy             *big.Int
	Rate               *big.Int
	Deadline           uint64
	TargetRaise        *big.Int
	RewardRatePerStake *big.Int
	CID                string
	CreatedAt          uint64
	TotalRaised        *big.Int
	Resolution         uint8
	ProjectID          uint64
}

func (m *Manager) LaunchpadGet(addr [20]byte) (*launchpad.Campaign, bool, error) {
	stored := new(storedCampaign)
	ok, err := m.getRLP(key("launchpad", addrKey(addr)), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	campaign := &launchpad.Campaign{
		Addr:               stored.Addr,
		Owner:              stored.Owner,
		RewardToken:        stored.RewardToken,
		StakeToken:         stored.StakeToken,
		MinBuy:             stored.MinBuy,
		MaxBuy:             stored.MaxBuy,
		Rate:               stored.Rate,
		Deadline:           int64(stored.Deadline),
		TargetRaise:        stored.TargetRaise,
		RewardRatePerStake: stored.RewardRatePerStake,
		CID:                stored.CID,
		CreatedAt:          int64(stored.CreatedAt),
		TotalRaised:        stored.TotalRaised,
		Resolution:         launchpad.Resolution(stored.Resolution),
		ProjectID:          stored.ProjectID,
	}
	sanitized, err := launchpad.SanitizeCampaign(campaign)
	if err != nil {
		return nil, false, err
	}
	return sanitized, true, nil
}

func (m *Manager) LaunchpadPut(campaign *launchpad.Campaign) error {
	sanitized, err := launchpad.SanitizeCampaign(campaign)
	if err != nil {
		return err
	}
	stored := &storedCampaign{
		Addr:               sanitized.Addr,
		Owner:              sanitized.Owner,
		RewardToken:        sanitized.RewardToken,
		StakeToken:         sanitized.StakeToken,
		MinBuy:             sanitized.MinBuy,
		MaxBuy:             sanitized.MaxBuy,
		Rate:               sanitized.Rate,
		Deadline:           uint64(sanitized.Deadline),
		TargetRaise:        sanitized.TargetRaise,
		RewardRatePerStake: sanitized.RewardRatePerStake,
		CID:                sanitized.CID,
		CreatedAt:          uint64(sanitized.CreatedAt),
		TotalRaised:        sanitized.TotalRaised,
		Resolution:         uint8(sanitized.Resolution),
		ProjectID:          sanitized.ProjectID,
	}
	return m.putRLP(key("launchpad", addrKey(sanitized.Addr)), stored)
}

func (m *Manager) LaunchpadCounterGet() (uint64, error) {
	return m.getCounter(key("launchpad-counter"))
}

func (m *Manager) LaunchpadCounterPut(counter uint64) error {
	return m.putRLP(key("launchpad-counter"), counter)
}

type storedContribution struct {
	Campaign    [20]byte
	Participant [20]byte
	Amount      *big.Int
	Staked      *big.Int
	Settled     bool
}

func (m *Manager) ContributionGet(campaign [20]byte, participant [20]byte) (*launchpad.Contribution, bool, error) {
	stored := new(storedContribution)
	ok, err := m.getRLP(key("contribution", addrKey(campaign), addrKey(participant)), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &launchpad.Contribution{
		Campaign:    stored.Campaign,
		Participant: stored.Participant,
		Amount:      stored.Amount,
		Staked:      stored.Staked,
		Settled:     stored.Settled,
	}, true, nil
}

func (m *Manager) ContributionPut(record *launchpad.Contribution) error {
	if record == nil {
		return fmt.Errorf("state: nil contribution")
	}
	clone := record.Clone()
	stored := &storedContribution{
		Campaign:    clone.Campaign,
		Participant: clone.Participant,
		Amount:      clone.Amount,
		Staked:      clone.Staked,
		Settled:     clone.Settled,
	}
	return m.putRLP(key("contribution", addrKey(clone.Campaign), addrKey(clone.Participant)), stored)
}

// --- Token ledger ---

type storedToken struct {
	Symbol             string
	Name               string
	Decimals           uint8
	Owner              [20]byte
	TotalSupply        *big.Int
	MinimumHoldingTime uint64
	CreatedAt          uint64
}

func (m *Manager) TokenGet(symbol string) (*token.Token, bool, error) {
	stored := new(storedToken)
	ok, err := m.getRLP(key("token", symbol), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	supply := stored.TotalSupply
	if supply == nil {
		supply = big.NewInt(0)
	}
	return &token.Token{
		Symbol:             stored.Symbol,
		Name:               stored.Name,
		Decimals:           stored.Decimals,
		Owner:              stored.Owner,
		TotalSupply:        supply,
		MinimumHoldingTime: int64(stored.MinimumHoldingTime),
		CreatedAt:          int64(stored.CreatedAt),
	}, true, nil
}

func (m *Manager) TokenPut(t *token.Token) error {
	if t == nil {
		return fmt.Errorf("state: nil token")
	}
	clone := t.Clone()
	stored := &storedToken{
		Symbol:             clone.Symbol,
		Name:               clone.Name,
		Decimals:           clone.Decimals,
		Owner:              clone.Owner,
		TotalSupply:        clone.TotalSupply,
		MinimumHoldingTime: uint64(clone.MinimumHoldingTime),
		CreatedAt:          uint64(clone.CreatedAt),
	}
	return m.putRLP(key("token", clone.Symbol), stored)
}

func (m *Manager) TokenBalanceGet(symbol string, addr [20]byte) (*big.Int, error) {
	balance := new(big.Int)
	ok, err := m.getRLP(key("token-balance", symbol, addrKey(addr)), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

func (m *Manager) TokenBalancePut(symbol string, addr [20]byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: negative token balance for %s", symbol)
	}
	return m.putRLP(key("token-balance", symbol, addrKey(addr)), amount)
}

func (m *Manager) TokenAllowanceGet(symbol string, owner [20]byte, spender [20]byte) (*big.Int, error) {
	allowance := new(big.Int)
	ok, err := m.getRLP(key("token-allowance", symbol, addrKey(owner), addrKey(spender)), allowance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return allowance, nil
}

func (m *Manager) TokenAllowancePut(symbol string, owner [20]byte, spender [20]byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: negative allowance for %s", symbol)
	}
	return m.putRLP(key("token-allowance", symbol, addrKey(owner), addrKey(spender)), amount)
}

func (m *Manager) TokenHoldingGet(symbol string, addr [20]byte) (int64, error) {
	var since uint64
	ok, err := m.getRLP(key("token-holding", symbol, addrKey(addr)), &since)
	if err != nil || !ok {
		return 0, err
	}
	return int64(since), nil
}

func (m *Manager) TokenHoldingPut(symbol string, addr [20]byte, since int64) error {
	if since < 0 {
		since = 0
	}
	return m.putRLP(key("token-holding", symbol, addrKey(addr)), uint64(since))
}

// --- Project registry ---

type storedProject struct {
	ID              uint64
	Owner           [20]byte
	ContractAddress [20]byte
	CID             string
	BoostPoint      *big.Int
	IsCertified     bool
	IsTerminated    bool
	CreatedAt       uint64
}

func (m *Manager) ProjectGet(id uint64) (*registry.Project, bool, error) {
	stored := new(storedProject)
	ok, err := m.getRLP(key("project", strconv.FormatUint(id, 10)), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	boost := stored.BoostPoint
	if boost == nil {
		boost = big.NewInt(0)
	}
	return &registry.Project{
		ID:              stored.ID,
		Owner:           stored.Owner,
		ContractAddress: stored.ContractAddress,
		CID:             stored.CID,
		BoostPoint:      boost,
		IsCertified:     stored.IsCertified,
		IsTerminated:    stored.IsTerminated,
		CreatedAt:       int64(stored.CreatedAt),
	}, true, nil
}

func (m *Manager) ProjectPut(project *registry.Project) error {
	if project == nil {
		return fmt.Errorf("state: nil project")
	}
	clone := project.Clone()
	stored := &storedProject{
		ID:              clone.ID,
		Owner:           clone.Owner,
		ContractAddress: clone.ContractAddress,
		CID:             clone.CID,
		BoostPoint:      clone.BoostPoint,
		IsCertified:     clone.IsCertified,
		IsTerminated:    clone.IsTerminated,
		CreatedAt:       uint64(clone.CreatedAt),
	}
	return m.putRLP(key("project", strconv.FormatUint(clone.ID, 10)), stored)
}

func (m *Manager) ProjectCounterGet() (uint64, error) {
	return m.getCounter(key("project-counter"))
}

func (m *Manager) ProjectCounterPut(counter uint64) error {
	return m.putRLP(key("project-counter"), counter)
}

// --- Faucet ---

func (m *Manager) FaucetLastClaimGet(addr [20]byte) (int64, error) {
	var ts uint64
	ok, err := m.getRLP(key("faucet-claim", addrKey(addr)), &ts)
	if err != nil || !ok {
		return 0, err
	}
	return int64(ts), nil
}

func (m *Manager) FaucetLastClaimPut(addr [20]byte, ts int64) error {
	if ts < 0 {
		ts = 0
	}
	return m.putRLP(key("faucet-claim", addrKey(addr)), uint64(ts))
}
