package config

import (
	"strings"
	"time"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Env       string
	Debug     bool
	LogPath   string
	SentryDsn string

	DbPath   string
	ApiPort  string
	CacheTtl time.Duration

	Ledger        LedgerConfig
	Metadata      MetadataConfig
	ElasticSearch ElasticSearchConfig
	Aws           AwsConfig
	AmqpUri       string
}

type LedgerConfig struct {
	Address           string
	Administrator     string
	MarketplaceFeeBps uint64
	MintFeeWei        string
	MaxSaleRoyaltyBps uint64
}

type MetadataConfig struct {
	IpfsGateway string
	Retries     int
	Timeout     time.Duration
}

type ElasticSearchConfig struct {
	Hosts            []string
	Sniff            bool
	HealthCheck      bool
	Debug            bool
	Username         string
	Password         string
	Aws              bool
	Index            string
	BulkPersistCount int
	Refresh          string
}

type AwsConfig struct {
	AccessKey string
	SecretKey string
	Token     string
	Region    string
}

var defaults = map[string]interface{}{
	"ENV":                               "dev",
	"DEBUG":                             false,
	"LOG_PATH":                          "./var/ledger.log",
	"DB_PATH":                           "./var/ledger.db",
	"API_PORT":                          "8080",
	"CACHE_TTL":                         "30s",
	"LEDGER_ADDRESS":                    "0x0000000000000000000000000000000000000001",
	"ADMIN_ADDRESS":                     "",
	"MARKETPLACE_FEE_BPS":               250,
	"MINT_FEE_WEI":                      "10000000000000000",
	"MAX_SALE_ROYALTY_BPS":              1000,
	"IPFS_GATEWAY":                      "https://gateway.pinata.cloud",
	"METADATA_RETRIES":                  3,
	"METADATA_TIMEOUT":                  "10s",
	"ELASTIC_SEARCH_HOSTS":              "",
	"ELASTIC_SEARCH_SNIFF":              true,
	"ELASTIC_SEARCH_HEALTH_CHECK":       true,
	"ELASTIC_SEARCH_DEBUG":              false,
	"ELASTIC_SEARCH_AWS":                false,
	"ELASTIC_SEARCH_INDEX":              "marketplace",
	"ELASTIC_SEARCH_BULK_PERSIST_COUNT": 300,
	"ELASTIC_SEARCH_REFRESH":            "wait_for",
	"AMQP_URI":                          "",
}

// Init loads .env (if present) and installs the global logger.
func Init(name string) {
	if err := godotenv.Load(".env"); err != nil {
		zap.L().With(zap.Error(err)).Debug("Config: no .env file loaded")
	}

	cfg := Get()
	log.NewLogger(cfg.LogPath, cfg.Debug, cfg.SentryDsn)
	zap.L().With(zap.String("app", name), zap.String("env", cfg.Env)).Info("Config: initialised")
}

func Get() *Config {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	return &Config{
		Env:       v.GetString("ENV"),
		Debug:     v.GetBool("DEBUG"),
		LogPath:   v.GetString("LOG_PATH"),
		SentryDsn: v.GetString("SENTRY_DSN"),
		DbPath:    v.GetString("DB_PATH"),
		ApiPort:   v.GetString("API_PORT"),
		CacheTtl:  v.GetDuration("CACHE_TTL"),
		AmqpUri:   v.GetString("AMQP_URI"),
		Ledger: LedgerConfig{
			Address:           v.GetString("LEDGER_ADDRESS"),
			Administrator:     v.GetString("ADMIN_ADDRESS"),
			MarketplaceFeeBps: v.GetUint64("MARKETPLACE_FEE_BPS"),
			MintFeeWei:        v.GetString("MINT_FEE_WEI"),
			MaxSaleRoyaltyBps: v.GetUint64("MAX_SALE_ROYALTY_BPS"),
		},
		Metadata: MetadataConfig{
			IpfsGateway: v.GetString("IPFS_GATEWAY"),
			Retries:     v.GetInt("METADATA_RETRIES"),
			Timeout:     v.GetDuration("METADATA_TIMEOUT"),
		},
		ElasticSearch: ElasticSearchConfig{
			Hosts:            getSlice(v, "ELASTIC_SEARCH_HOSTS", ","),
			Sniff:            v.GetBool("ELASTIC_SEARCH_SNIFF"),
			HealthCheck:      v.GetBool("ELASTIC_SEARCH_HEALTH_CHECK"),
			Debug:            v.GetBool("ELASTIC_SEARCH_DEBUG"),
			Username:         v.GetString("ELASTIC_SEARCH_USERNAME"),
			Password:         v.GetString("ELASTIC_SEARCH_PASSWORD"),
			Aws:              v.GetBool("ELASTIC_SEARCH_AWS"),
			Index:            v.GetString("ELASTIC_SEARCH_INDEX"),
			BulkPersistCount: v.GetInt("ELASTIC_SEARCH_BULK_PERSIST_COUNT"),
			Refresh:          v.GetString("ELASTIC_SEARCH_REFRESH"),
		},
		Aws: AwsConfig{
			AccessKey: v.GetString("AWS_ACCESS_KEY_ID"),
			SecretKey: v.GetString("AWS_SECRET_KEY_ID"),
			Token:     v.GetString("AWS_SESSION_TOKEN"),
			Region:    v.GetString("AWS_REGION"),
		},
	}
}

func getSlice(v *viper.Viper, key string, sep string) []string {
	valStr := strings.TrimSpace(v.GetString(key))
	if valStr == "" {
		return make([]string, 0)
	}

	return strings.Split(valStr, sep)
}
