package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	MongoURI string        `mapstructure:"mongo_uri"`
	DBName   string        `mapstructure:"db_name"`
	Port     string        `mapstructure:"port"`
	Eth      EthConfig     `mapstructure:"eth"`
	Wallet   WalletConfig  `mapstructure:"wallet"`
	Custody  CustodyConfig `mapstructure:"custody"`
	Notify   NotifyConfig  `mapstructure:"notify"`
}

type NotifyConfig struct {
	// WebhookURL receives lifecycle events as JSON POSTs. Empty disables
	// dispatch.
	WebhookURL string `mapstructure:"webhook_url"`
}

type EthConfig struct {
	RPC       string `mapstructure:"rpc"`
	TestToken string `mapstructure:"test_token"`
	ChainID   int64  `mapstructure:"chain_id"`
	MainNet   bool   `mapstructure:"main_net"`
}

type WalletConfig struct {
	// StrictTotals makes createSplitWallet reject a participant share sum
	// that does not match the bill total. Off by default: the mismatch is
	// logged and the caller decides.
	StrictTotals bool `mapstructure:"strict_totals"`
	// MaxWriteRetries bounds optimistic-concurrency retry loops.
	MaxWriteRetries int `mapstructure:"max_write_retries"`
}

type CustodyConfig struct {
	// MasterKey is the service passphrase under which escrow secret keys
	// are envelope-encrypted at rest.
	MasterKey string `mapstructure:"master_key"`
	// Keys maps custodial addresses to hex signing keys for the static
	// keystore. The real deployment points at the key-recovery service.
	Keys map[string]string `mapstructure:"keys"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// ENV overrides YAML
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("wallet.max_write_retries", 3)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
