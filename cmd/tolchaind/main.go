package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"tolchain/config"
	"tolchain/core/state"
	"tolchain/native/common"
	"tolchain/native/faucet"
	"tolchain/native/launchpad"
	"tolchain/native/registry"
	"tolchain/native/token"
	"tolchain/observability/logging"
	"tolchain/rpc"
	"tolchain/storage"
)

const envVar = "TOL_ENV"

// moduleAddress derives a stable address for a built-in module account.
func moduleAddress(label string) [20]byte {
	var out [20]byte
	digest := ethcrypto.Keccak256([]byte("tolchain/module/" + label))
	copy(out[:], digest[len(digest)-20:])
	return out
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	memory := flag.Bool("memory", false, "Use an in-memory database instead of LevelDB")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envVar))

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger := logging.Setup(cfg.ServiceName, env)

	var db storage.Database
	if *memory {
		db = storage.NewMemDB()
	} else {
		leveldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			panic(fmt.Sprintf("Failed to open database: %v", err))
		}
		db = leveldb
	}
	defer db.Close()

	manager := state.NewManager(db)
	emitter := logging.NewEventEmitter(logger)
	pauses := common.NewPauseSet()

	owner := moduleAddress("governance")
	factoryAddr := moduleAddress("launchpad-factory")
	registryAddr := moduleAddress("registry")
	treasuryAddr := moduleAddress("treasury")
	faucetAddr := moduleAddress("faucet")

	tokens := token.NewEngine()
	tokens.SetState(manager)
	tokens.SetEmitter(emitter)
	tokenFactory := token.NewFactory(tokens)

	minimumStake, err := cfg.MinimumStake()
	if err != nil {
		panic(fmt.Sprintf("Invalid minimum stake: %v", err))
	}
	boostRate, err := cfg.BoostRate()
	if err != nil {
		panic(fmt.Sprintf("Invalid boost rate: %v", err))
	}
	claimAmount, err := cfg.FaucetClaimAmount()
	if err != nil {
		panic(fmt.Sprintf("Invalid faucet claim amount: %v", err))
	}

	projects := registry.NewRegistry(registryAddr, owner, factoryAddr, treasuryAddr, cfg.Factory.StakeToken)
	projects.SetState(manager)
	projects.SetLedger(tokens)
	projects.SetEmitter(emitter)
	projects.SetPauses(pauses)
	if err := projects.SetBoostRate(owner, boostRate); err != nil {
		panic(fmt.Sprintf("Failed to apply boost rate: %v", err))
	}

	factory := launchpad.NewFactory(factoryAddr, owner, cfg.Factory.StakeToken, minimumStake)
	factory.SetState(manager)
	factory.SetLedger(tokens)
	factory.SetEmitter(emitter)
	factory.SetPauses(pauses)
	if err := factory.UpdateRegistryInstance(owner, projects); err != nil {
		panic(fmt.Sprintf("Failed to attach registry: %v", err))
	}

	launchpads := launchpad.NewEngine()
	launchpads.SetState(manager)
	launchpads.SetLedger(tokens)
	launchpads.SetEmitter(emitter)
	launchpads.SetPauses(pauses)

	drip := faucet.New(faucetAddr, owner, cfg.Faucet.Token, claimAmount, cfg.Faucet.ClaimIntervalSeconds)
	drip.SetState(manager)
	drip.SetLedger(tokens)
	drip.SetEmitter(emitter)
	drip.SetPauses(pauses)

	if err := ensureBaseToken(tokens, owner, faucetAddr, cfg); err != nil {
		panic(fmt.Sprintf("Failed to provision base token: %v", err))
	}

	server := rpc.NewServer(rpc.Dependencies{
		Launchpads:   launchpads,
		Factory:      factory,
		Tokens:       tokens,
		TokenFactory: tokenFactory,
		Registry:     projects,
		Faucet:       drip,
		Logger:       logger,
	})

	logger.Info("node ready",
		slog.String("rpc", cfg.RPCAddress),
		slog.String("stakeToken", cfg.Factory.StakeToken),
		slog.Bool("memory", *memory))

	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// ensureBaseToken creates the configured stake token on first boot and seeds
// the faucet vault so test claims can be served immediately.
func ensureBaseToken(tokens *token.Engine, owner [20]byte, faucetAddr [20]byte, cfg *config.Config) error {
	symbol := cfg.Factory.StakeToken
	if _, err := tokens.Metadata(symbol); err == nil {
		return nil
	} else if !errors.Is(err, token.ErrTokenNotFound) {
		return err
	}
	if _, err := tokens.Create(owner, symbol+" Token", symbol, 18); err != nil {
		return err
	}
	claimAmount, err := cfg.FaucetClaimAmount()
	if err != nil {
		return err
	}
	// Seed enough for a generous number of faucet claims.
	reserve := new(big.Int).Mul(claimAmount, big.NewInt(1_000_000))
	return tokens.Mint(owner, symbol, faucetAddr, reserve)
}
