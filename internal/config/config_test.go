package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGet_Defaults(t *testing.T) {
	cfg := Get()

	assert.Equal(t, uint64(250), cfg.Ledger.MarketplaceFeeBps)
	assert.Equal(t, "10000000000000000", cfg.Ledger.MintFeeWei)
	assert.Equal(t, uint64(1000), cfg.Ledger.MaxSaleRoyaltyBps)
	assert.Equal(t, 3, cfg.Metadata.Retries)
	assert.Equal(t, 10*time.Second, cfg.Metadata.Timeout)
	assert.Equal(t, 30*time.Second, cfg.CacheTtl)
	assert.Empty(t, cfg.ElasticSearch.Hosts)
}

func TestGet_Environment(t *testing.T) {
	t.Setenv("MARKETPLACE_FEE_BPS", "500")
	t.Setenv("DEBUG", "true")
	t.Setenv("ELASTIC_SEARCH_HOSTS", "http://es1:9200,http://es2:9200")
	t.Setenv("CACHE_TTL", "1m")
	t.Setenv("ADMIN_ADDRESS", "0x00000000000000000000000000000000000000ad")

	cfg := Get()

	assert.Equal(t, uint64(500), cfg.Ledger.MarketplaceFeeBps)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.ElasticSearch.Hosts)
	assert.Equal(t, time.Minute, cfg.CacheTtl)
	assert.Equal(t, "0x00000000000000000000000000000000000000ad", cfg.Ledger.Administrator)
}
