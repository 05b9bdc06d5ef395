package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownChain       = errors.New("unknown chain")
	ErrUnknownBridgeMode  = errors.New("unknown bridge mode")
	ErrUnknownBridgeSide  = errors.New("unknown bridge side")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrUnknownBridgeInCfg = errors.New("unknown bridge id")
)

type BridgeMode string

const (
	BridgeModeArbitraryMessage BridgeMode = "AMB"
	BridgeModeErcToNative      BridgeMode = "ERC_TO_NATIVE"
	BridgeModeErcToErc         BridgeMode = "ERC_TO_ERC"
	BridgeModeNativeToErc      BridgeMode = "NATIVE_TO_ERC"
)

type BridgeSide string

const (
	BridgeSideHome    BridgeSide = "home"
	BridgeSideForeign BridgeSide = "foreign"
)

// Amount is a uint256 written as a decimal or 0x-prefixed hex string.
type Amount struct {
	*big.Int
}

func NewAmount(s string) (Amount, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok || v.Sign() < 0 || v.BitLen() > 256 {
		return Amount{}, fmt.Errorf("%q: %w", s, ErrInvalidAmount)
	}
	return Amount{v}, nil
}

func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := NewAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Value returns zero for unset amounts.
func (a Amount) Value() *big.Int {
	if a.Int == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.Int)
}

type RPCConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

type ChainConfig struct {
	RPC     *RPCConfig `yaml:"rpc"`
	ChainID string     `yaml:"chain_id"`
}

type ValidatorConfig struct {
	Address       common.Address `yaml:"address"`
	RewardAddress common.Address `yaml:"reward_address"`
}

type LimitsConfig struct {
	DailyLimit          Amount `yaml:"daily_limit"`
	MaxPerTx            Amount `yaml:"max_per_tx"`
	MinPerTx            Amount `yaml:"min_per_tx"`
	ExecutionDailyLimit Amount `yaml:"execution_daily_limit"`
	ExecutionMaxPerTx   Amount `yaml:"execution_max_per_tx"`
}

type FeesConfig struct {
	HomeFee    Amount `yaml:"home_fee"`
	ForeignFee Amount `yaml:"foreign_fee"`
}

// BridgeAlertConfig tunes one alert job, zero values fall back to the job defaults.
type BridgeAlertConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Threshold time.Duration `yaml:"threshold"`
}

type BridgeConfig struct {
	ID                 string                        `yaml:"-"`
	BridgeMode         BridgeMode                    `yaml:"bridge_mode"`
	Side               BridgeSide                    `yaml:"side"`
	ChainName          string                        `yaml:"chain"`
	Chain              *ChainConfig                  `yaml:"-"`
	Address            common.Address                `yaml:"address"`
	OtherSideAddress   common.Address                `yaml:"other_side_address"`
	TokenAddress       common.Address                `yaml:"token_address"`
	TransportAddress   common.Address                `yaml:"transport_address"`
	OtherSideBridge    string                        `yaml:"other_side_bridge"`
	StateDir           string                        `yaml:"state_dir"`
	Owner              common.Address                `yaml:"owner"`
	DecimalShift       int                           `yaml:"decimal_shift"`
	RequiredSignatures uint64                        `yaml:"required_signatures"`
	Validators         []*ValidatorConfig            `yaml:"validators"`
	Limits             *LimitsConfig                 `yaml:"limits"`
	Fees               *FeesConfig                   `yaml:"fees"`
	Alerts             map[string]*BridgeAlertConfig `yaml:"alerts"`
}

type DBConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       string `yaml:"database"`
}

type PresenterConfig struct {
	Host string `yaml:"host"`
}

type Config struct {
	Chains          map[string]*ChainConfig  `yaml:"chains"`
	Bridges         map[string]*BridgeConfig `yaml:"bridges"`
	DBConfig        *DBConfig                `yaml:"postgres"`
	LogLevel        logrus.Level             `yaml:"log_level"`
	DisabledBridges []string                 `yaml:"disabled_bridges"`
	EnabledBridges  []string                 `yaml:"enabled_bridges"`
	Presenter       *PresenterConfig         `yaml:"presenter"`
}

func (cfg *Config) init() error {
	for id, bridge := range cfg.Bridges {
		bridge.ID = id
		switch bridge.BridgeMode {
		case BridgeModeArbitraryMessage, BridgeModeErcToNative, BridgeModeErcToErc, BridgeModeNativeToErc:
		default:
			return fmt.Errorf("bridge %s: %q: %w", id, bridge.BridgeMode, ErrUnknownBridgeMode)
		}
		if bridge.Side != BridgeSideHome && bridge.Side != BridgeSideForeign {
			return fmt.Errorf("bridge %s: %q: %w", id, bridge.Side, ErrUnknownBridgeSide)
		}
		if bridge.ChainName != "" {
			chain, ok := cfg.Chains[bridge.ChainName]
			if !ok {
				return fmt.Errorf("bridge %s: %s: %w", id, bridge.ChainName, ErrUnknownChain)
			}
			bridge.Chain = chain
		}
		if bridge.OtherSideBridge != "" {
			if _, ok := cfg.Bridges[bridge.OtherSideBridge]; !ok {
				return fmt.Errorf("bridge %s: %s: %w", id, bridge.OtherSideBridge, ErrUnknownBridgeInCfg)
			}
		}
		if bridge.StateDir == "" {
			bridge.StateDir = "data/" + id
		}
		if bridge.Limits == nil {
			bridge.Limits = new(LimitsConfig)
		}
		if bridge.Fees == nil {
			bridge.Fees = new(FeesConfig)
		}
	}
	return nil
}

// ActiveBridges applies enabled_bridges and disabled_bridges.
func (cfg *Config) ActiveBridges() (map[string]*BridgeConfig, error) {
	res := make(map[string]*BridgeConfig, len(cfg.Bridges))
	if cfg.EnabledBridges != nil {
		for _, id := range cfg.EnabledBridges {
			bridge, ok := cfg.Bridges[id]
			if !ok {
				return nil, fmt.Errorf("%s: %w", id, ErrUnknownBridgeInCfg)
			}
			res[id] = bridge
		}
	} else {
		for id, bridge := range cfg.Bridges {
			res[id] = bridge
		}
	}
	for _, id := range cfg.DisabledBridges {
		delete(res, id)
	}
	return res, nil
}

func ReadConfig(blob []byte) (*Config, error) {
	cfg := new(Config)
	cfg.LogLevel = logrus.InfoLevel
	if err := parseYaml(cfg, blob); err != nil {
		return nil, err
	}
	if err := cfg.init(); err != nil {
		return nil, fmt.Errorf("can't process config: %w", err)
	}
	return cfg, nil
}

func ReadConfigWithEnv(blob []byte) (*Config, error) {
	return ReadConfig([]byte(os.ExpandEnv(string(blob))))
}

func ReadConfigFromFile(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read config file: %w", err)
	}
	return ReadConfigWithEnv(blob)
}
