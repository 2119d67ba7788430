package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk node configuration.
type Config struct {
	RPCAddress  string   `toml:"RPCAddress"`
	DataDir     string   `toml:"DataDir"`
	ServiceName string   `toml:"ServiceName"`
	Environment string   `toml:"Environment"`
	Factory     Factory  `toml:"Factory"`
	Registry    Registry `toml:"Registry"`
	Faucet      Faucet   `toml:"Faucet"`
}

// Factory configures the launchpad factory module.
type Factory struct {
	StakeToken   string `toml:"StakeToken"`
	MinimumStake string `toml:"MinimumStake"`
}

// Registry configures the project registry module.
type Registry struct {
	BoostRate string `toml:"BoostRate"`
}

// Faucet configures the test-token faucet module.
type Faucet struct {
	Token                string `toml:"Token"`
	ClaimAmount          string `toml:"ClaimAmount"`
	ClaimIntervalSeconds int64  `toml:"ClaimIntervalSeconds"`
}

// Load reads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = def.RPCAddress
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = def.DataDir
	}
	if strings.TrimSpace(cfg.ServiceName) == "" {
		cfg.ServiceName = def.ServiceName
	}
	if strings.TrimSpace(cfg.Factory.StakeToken) == "" {
		cfg.Factory.StakeToken = def.Factory.StakeToken
	}
	if strings.TrimSpace(cfg.Factory.MinimumStake) == "" {
		cfg.Factory.MinimumStake = def.Factory.MinimumStake
	}
	if strings.TrimSpace(cfg.Registry.BoostRate) == "" {
		cfg.Registry.BoostRate = def.Registry.BoostRate
	}
	if strings.TrimSpace(cfg.Faucet.Token) == "" {
		cfg.Faucet.Token = def.Faucet.Token
	}
	if strings.TrimSpace(cfg.Faucet.ClaimAmount) == "" {
		cfg.Faucet.ClaimAmount = def.Faucet.ClaimAmount
	}
	if cfg.Faucet.ClaimIntervalSeconds <= 0 {
		cfg.Faucet.ClaimIntervalSeconds = def.Faucet.ClaimIntervalSeconds
	}
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		RPCAddress:  ":8545",
		DataDir:     "./tol-data",
		ServiceName: "tolchaind",
		Factory: Factory{
			StakeToken:   "TOL",
			MinimumStake: "1000000000000000000000",
		},
		Registry: Registry{
			BoostRate: "1",
		},
		Faucet: Faucet{
			Token:                "TOL",
			ClaimAmount:          "100000000000000000000",
			ClaimIntervalSeconds: 3600,
		},
	}
}

func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

func parsePositiveAmount(field, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("%s must be a base-10 integer, got %q", field, value)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", field, amount)
	}
	return amount, nil
}

// Validate checks the configuration for internally consistent values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("RPCAddress must not be empty")
	}
	if _, err := c.MinimumStake(); err != nil {
		return err
	}
	if _, err := c.BoostRate(); err != nil {
		return err
	}
	if _, err := c.FaucetClaimAmount(); err != nil {
		return err
	}
	if c.Faucet.ClaimIntervalSeconds <= 0 {
		return fmt.Errorf("Faucet.ClaimIntervalSeconds must be positive")
	}
	return nil
}

// MinimumStake parses the factory's minimum stake requirement.
func (c *Config) MinimumStake() (*big.Int, error) {
	return parsePositiveAmount("Factory.MinimumStake", c.Factory.MinimumStake)
}

// BoostRate parses the registry boost rate.
func (c *Config) BoostRate() (*big.Int, error) {
	return parsePositiveAmount("Registry.BoostRate", c.Registry.BoostRate)
}

// FaucetClaimAmount parses the faucet per-claim amount.
func (c *Config) FaucetClaimAmount() (*big.Int, error) {
	return parsePositiveAmount("Faucet.ClaimAmount", c.Faucet.ClaimAmount)
}
