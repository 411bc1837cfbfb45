package elastic_search

import (
	"bytes"
	"context"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/config"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndices_Get(t *testing.T) {
	assert.Equal(t, "marketplace.record", RecordIndex.Get("marketplace"))
}

func TestIndex_BuffersBySlug(t *testing.T) {
	i := newIndex(nil, config.ElasticSearchConfig{Index: "test"})

	r := entity.Record{Seq: 3, Kind: entity.SoldRecord}
	i.AddIndexRequest(RecordIndex, r)
	i.AddIndexRequest(RecordIndex, r)
	i.AddIndexRequest(RecordIndex, entity.Record{Seq: 4, Kind: entity.TransferRecord})

	requests := i.GetRequests()
	assert.Len(t, requests, 2)
	for _, req := range requests {
		assert.Equal(t, "test.record", req.Index)
	}

	i.ClearRequests()
	assert.Empty(t, i.GetRequests())
}

func TestIndex_ListenBulkIndexes(t *testing.T) {
	var (
		mu    sync.Mutex
		body  bytes.Buffer
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		paths = append(paths, r.URL.Path)
		_, _ = io.Copy(&body, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"took":1,"errors":false,"items":[]}`))
	}))
	defer srv.Close()

	cfg := config.ElasticSearchConfig{Hosts: []string{srv.URL}, Index: "test", BulkPersistCount: 1}
	idx, err := New(cfg, config.AwsConfig{})
	require.NoError(t, err)

	idx.Listen([]entity.Record{
		{Seq: 0, Kind: entity.ListedRecord, TokenId: 1, Amount: big.NewInt(5)},
		{Seq: 1, Kind: entity.SoldRecord, TokenId: 1, Amount: big.NewInt(5)},
	})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/_bulk", "/_bulk"}, paths)
	assert.Contains(t, body.String(), entity.CreateRecordSlug(1, entity.SoldRecord))
	assert.Empty(t, idx.GetRequests())

	n, err := idx.Persist(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, n)
}
