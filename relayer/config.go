package relayer

// Package relayer's Config mirrors the environment-driven configuration
// style of the wider pack's pkg/config loader: viper for file/env
// merging, mapstructure tags, godotenv to pick up a local .env during
// development.

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the relayer's full configuration surface, spec §6
// "Configuration keys (enumerated effects)".
type Config struct {
	InstanceName string `mapstructure:"name"`

	ChainAWsURL string `mapstructure:"azero_node_wss_url"`
	ChainEWsURL string `mapstructure:"eth_node_wss_url"`

	RedisURL string `mapstructure:"redis_node"`

	SignerCID  string `mapstructure:"signer_cid"`
	SignerPort int    `mapstructure:"signer_port"`

	Dev             bool `mapstructure:"dev"`
	DevAccountIndex int  `mapstructure:"dev_account_index"`

	EthKeystorePath     string `mapstructure:"eth_keystore_path"`
	EthKeystorePassword string `mapstructure:"eth_keystore_password"`

	ChainAContractAddress  string `mapstructure:"azero_contract_address"`
	ChainAContractMetadata string `mapstructure:"azero_contract_metadata"`
	ChainEContractAddress  string `mapstructure:"eth_contract_address"`

	AdvisoryContractAddresses []string `mapstructure:"advisory_contract_addresses"`

	DefaultSyncFromBlockChainA uint64 `mapstructure:"default_sync_from_block_azero"`
	DefaultSyncFromBlockChainE uint64 `mapstructure:"default_sync_from_block_eth"`

	ChainETxMinConfirmations  uint64 `mapstructure:"eth_tx_min_confirmations"`
	ChainETxSubmissionRetries int    `mapstructure:"eth_tx_submission_retries"`

	ChainAMaxBlockProcessingTasks int `mapstructure:"azero_max_block_processing_tasks"`

	BackfillStride      uint64        `mapstructure:"backfill_stride"`
	MaxRequestsPerBlock int           `mapstructure:"max_requests_per_block"`
	PollInterval        time.Duration `mapstructure:"poll_interval"`
}

// setDefaults mirrors a production deployment's safe starting point; every
// value here can be overridden by a config file or environment variable.
func setDefaults() {
	viper.SetDefault("azero_max_block_processing_tasks", 16)
	viper.SetDefault("eth_tx_min_confirmations", 12)
	viper.SetDefault("eth_tx_submission_retries", 5)
	viper.SetDefault("backfill_stride", 1000)
	viper.SetDefault("max_requests_per_block", 50)
	viper.SetDefault("poll_interval", "12s")
	viper.SetDefault("dev_account_index", 0)
}

// LoadConfig reads relayer configuration from (in priority order)
// environment variables prefixed RELAYER_ (an optional .env file adds
// variables but never overrides ones already set), then a config file
// named by configName under configPaths. An empty configName
// skips the file lookup so tests can build a Config purely from
// viper.Set calls.
func LoadConfig(configName string, configPaths ...string) (*Config, error) {
	_ = godotenv.Load()

	viper.SetEnvPrefix("RELAYER")
	viper.AutomaticEnv()
	setDefaults()

	if configName != "" {
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
		for _, p := range configPaths {
			viper.AddConfigPath(p)
		}
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("guardianbridge: load relayer config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("guardianbridge: unmarshal relayer config: %w", err)
	}
	if cfg.InstanceName == "" {
		return nil, fmt.Errorf("guardianbridge: relayer config missing required \"name\"")
	}
	return &cfg, nil
}
