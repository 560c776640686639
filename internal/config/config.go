package config

import (
	"encoding/json"
	"fmt"
	"log"
	"reflect"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type Config struct {
	LogZapMode                string `mapstructure:"LOG_ZAP_MODE"`
	PrintConfigurationToLogs  string `mapstructure:"PRINT_CONFIGURATION_TO_LOGS"`
	EthereumNodeUrl           string `mapstructure:"ETHEREUM_NODE_URL"`
	RPCPort                   int    `mapstructure:"RPC_PORT"`
	StoreBackend              string `mapstructure:"STORE_BACKEND"`
	SqlitePath                string `mapstructure:"SQLITE_PATH"`
	BadgerPath                string `mapstructure:"BADGER_PATH"`
	MarketContract            string `mapstructure:"MARKET_CONTRACT"`
	AssetContracts            string `mapstructure:"ASSET_CONTRACTS"`
	MarketStartBlock          uint64 `mapstructure:"MARKET_START_BLOCK"`
	MarketWatcherMaxChunkSize uint64 `mapstructure:"MARKET_WATCHER_MAX_CHUNK_SIZE"`
	HistoryTransferScanDepth  uint64 `mapstructure:"HISTORY_TRANSFER_SCAN_DEPTH"`
}

const (
	StoreBackendSqlite = "sqlite"
	StoreBackendBadger = "badger"
)

var lock = &sync.Mutex{}
var config *Config

var Get = get

func get() Config {
	if config == nil {
		lock.Lock()
		defer lock.Unlock()
		if config == nil {
			c := loadConfig()
			config = &c
		}
	}
	return *config
}

// AssetContractList splits ASSET_CONTRACTS into lower-cased addresses.
func (c Config) AssetContractList() []string {
	var contracts []string
	for _, part := range strings.Split(c.AssetContracts, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			contracts = append(contracts, part)
		}
	}
	return contracts
}

func loadConfig() Config {
	viperAddConfigFile()
	viperSetDefaults()
	viperAddEnv()
	cfg := initializeCfg()
	debugConfig(cfg)
	return cfg
}

func viperAddConfigFile() {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("env")
}

func viperSetDefaults() {
	viper.SetDefault("RPC_PORT", 8080)
	viper.SetDefault("STORE_BACKEND", StoreBackendSqlite)
	viper.SetDefault("SQLITE_PATH", "./db/sqlite/sqlite")
	viper.SetDefault("BADGER_PATH", "./db/badger")
	viper.SetDefault("MARKET_WATCHER_MAX_CHUNK_SIZE", 2000)
	viper.SetDefault("HISTORY_TRANSFER_SCAN_DEPTH", 64)
}

func viperAddEnv() {
	viper.AutomaticEnv()
	// This makes sure that all envs are binded even if they are not represented in config file (https://github.com/spf13/viper/issues/584)
	valueOfConfig := reflect.ValueOf(&Config{}).Elem()
	fieldsOfConfig := reflect.TypeOf(&Config{}).Elem()
	for i := 0; i < valueOfConfig.NumField(); i++ {
		field, _ := fieldsOfConfig.FieldByName(valueOfConfig.Type().Field(i).Name)
		mapStructureVal := field.Tag.Get("mapstructure")
		err := viper.BindEnv(mapStructureVal)
		if err != nil {
			panic(fmt.Sprintf("Error binding env val '%v': %v", mapStructureVal, err))
		}
	}
}

func initializeCfg() Config {
	var cfg Config
	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Sprintf("fatal error reading config file: %v", err))
		}
	}

	err = viper.Unmarshal(&cfg)
	if err != nil {
		panic(fmt.Sprintf("error unmarshaling config: %v", err))
	}
	return cfg
}

func debugConfig(cfg Config) {
	if cfg.PrintConfigurationToLogs == "true" {
		b, err := json.Marshal(cfg)
		var result string
		if err != nil {
			result = "[FAILED TO CONVERT CONF TO STRING]"
		} else {
			result = string(b)
		}
		log.Printf("[APP CONFIGURATION]: %v\n", result)
	}
}
