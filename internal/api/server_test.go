package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/daemon"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/dev"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/ledger"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/metadata"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/repository"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin  = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	artist = common.HexToAddress("0x0000000000000000000000000000000000000002")
	seller = common.HexToAddress("0x0000000000000000000000000000000000000003")
	buyer  = common.HexToAddress("0x0000000000000000000000000000000000000004")
)

type stubMetadata struct{}

func (stubMetadata) GetMetadata(_ context.Context, nft entity.Nft) (map[string]interface{}, error) {
	if nft.TokenUri == "" {
		return nil, metadata.ErrUnresolvableUri
	}
	return map[string]interface{}{"name": "track", "uri": nft.TokenUri}, nil
}

type flushPublisher struct {
	server *Server
}

func (p *flushPublisher) Emit(records []entity.Record) { p.server.FlushCache(records) }

func (p *flushPublisher) EmitPayouts([]entity.Payout) {}

func newTestServer(t *testing.T) (*Server, http.Handler) {
	store, err := repository.OpenStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	publisher := &flushPublisher{}
	d, err := daemon.Load(store, ledger.Options{Administrator: admin, MarketplaceFeeBps: 250, MintFee: big.NewInt(100)}, publisher)
	require.NoError(t, err)

	s := NewServer(d, store, stubMetadata{}, time.Minute)
	publisher.server = s
	return s, s.Router()
}

func do(t *testing.T, h http.Handler, method, path string, caller common.Address, value string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if caller != (common.Address{}) {
		req.Header.Set(HeaderCaller, caller.Hex())
	}
	if value != "" {
		req.Header.Set(HeaderValue, value)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func mint(t *testing.T, h http.Handler) uint64 {
	rec := do(t, h, http.MethodPost, "/tokens", seller, "100", mintRequest{
		Uri:     "ipfs://QmTrack",
		Royalty: &royaltyRequest{Artist: artist.Hex(), SaleBps: 500, ListenBps: 3000},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp tokenResponse
	decodeBody(t, rec, &resp)
	return resp.TokenId
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/health", common.Address{}, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotContains(t, rec.Body.String(), "lastSeq")

	mint(t, h)
	rec = do(t, h, http.MethodGet, "/health", common.Address{}, "", nil)
	var health struct {
		TotalSupply uint64  `json:"totalSupply"`
		LastSeq     *uint64 `json:"lastSeq"`
	}
	decodeBody(t, rec, &health)
	assert.Equal(t, uint64(1), health.TotalSupply)
	require.NotNil(t, health.LastSeq)
	assert.Equal(t, uint64(1), *health.LastSeq)
}

func TestSaleFlow(t *testing.T) {
	_, h := newTestServer(t)
	id := mint(t, h)

	rec := do(t, h, http.MethodPost, "/tokens/0/listing", seller, "", priceRequest{Price: "1eth"})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/listings", common.Address{}, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Total    int                  `json:"total"`
		Listings []entity.ListingView `json:"listings"`
	}
	decodeBody(t, rec, &page)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Listings, 1)
	assert.Equal(t, id, page.Listings[0].TokenId)

	rec = do(t, h, http.MethodPost, "/tokens/0/buy", buyer, "1eth", nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/listings", common.Address{}, "", nil)
	decodeBody(t, rec, &page)
	assert.Equal(t, 0, page.Total, "cache is flushed by the sale")

	rec = do(t, h, http.MethodGet, "/balances/"+artist.Hex(), common.Address{}, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance struct {
		Pending *big.Int `json:"pending"`
	}
	decodeBody(t, rec, &balance)
	assert.Equal(t, "50000000000000000", balance.Pending.String())

	rec = do(t, h, http.MethodPost, "/withdrawals", seller, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var withdrawn amountResponse
	decodeBody(t, rec, &withdrawn)
	assert.Equal(t, "925000000000000000", withdrawn.Amount.String())

	rec = do(t, h, http.MethodGet, "/payouts/"+seller.Hex(), common.Address{}, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var payouts []entity.Payout
	decodeBody(t, rec, &payouts)
	require.Len(t, payouts, 1)
	assert.Equal(t, "925000000000000000", payouts[0].Amount.String())

	rec = do(t, h, http.MethodGet, "/owners/"+buyer.Hex()+"/tokens", common.Address{}, "", nil)
	assert.JSONEq(t, `[0]`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/tokens/0/records", common.Address{}, "", nil)
	var records []entity.Record
	decodeBody(t, rec, &records)
	assert.NotEmpty(t, records)
}

func TestErrorMapping(t *testing.T) {
	_, h := newTestServer(t)
	mint(t, h)

	tests := []struct {
		name   string
		method string
		path   string
		caller common.Address
		value  string
		body   interface{}
		status int
	}{
		{"missing caller", http.MethodPost, "/withdrawals", common.Address{}, "", nil, http.StatusBadRequest},
		{"bad value", http.MethodPost, "/tokens/0/buy", buyer, "lots", nil, http.StatusBadRequest},
		{"not owner", http.MethodPost, "/tokens/0/listing", buyer, "", priceRequest{Price: "1"}, http.StatusForbidden},
		{"unknown token", http.MethodPost, "/tokens/9/listing", seller, "", priceRequest{Price: "1"}, http.StatusNotFound},
		{"not listed", http.MethodPost, "/tokens/0/buy", buyer, "1", nil, http.StatusUnprocessableEntity},
		{"nothing to withdraw", http.MethodPost, "/withdrawals", buyer, "", nil, http.StatusConflict},
		{"not admin", http.MethodPut, "/admin/fees/marketplace", seller, "", map[string]uint64{"bps": 10}, http.StatusForbidden},
		{"missing bps", http.MethodPut, "/admin/fees/marketplace", admin, "", map[string]string{}, http.StatusBadRequest},
		{"fee too high", http.MethodPut, "/admin/fees/marketplace", admin, "", map[string]uint64{"bps": 1000}, http.StatusUnprocessableEntity},
		{"unknown route", http.MethodGet, "/nowhere", common.Address{}, "", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.caller, tt.value, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var body dev.Error
			decodeBody(t, rec, &body)
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, "api", body.Component)
		})
	}
}

func TestStateDesyncIsConflict(t *testing.T) {
	_, h := newTestServer(t)
	mint(t, h)

	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/tokens/0/listing", seller, "", priceRequest{Price: "1000"}).Code)
	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/tokens/0/transfer", seller, "", transferRequest{From: seller.Hex(), To: artist.Hex()}).Code)

	rec := do(t, h, http.MethodPost, "/tokens/0/buy", buyer, "1000", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "StateDesync")
}

func TestBatchListens(t *testing.T) {
	_, h := newTestServer(t)
	mint(t, h)

	rec := do(t, h, http.MethodPost, "/listens", buyer, "1000", batchListensRequest{TokenIds: []uint64{0, 0}, Amounts: []string{"400", "600"}})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/listens", buyer, "10", batchListensRequest{TokenIds: []uint64{0}, Amounts: []string{"x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/balances/"+seller.Hex(), common.Address{}, "", nil)
	var balance struct {
		Pending *big.Int `json:"pending"`
	}
	decodeBody(t, rec, &balance)
	assert.Equal(t, "300", balance.Pending.String())
}

func TestFeesAreCachedUntilCommit(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/fees", common.Address{}, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))

	rec = do(t, h, http.MethodGet, "/fees", common.Address{}, "", nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec = do(t, h, http.MethodPut, "/admin/fees/mint", admin, "", map[string]string{"fee": "7"})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/fees", common.Address{}, "", nil)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	var fees ledger.Fees
	decodeBody(t, rec, &fees)
	assert.Equal(t, "7", fees.MintFee.String())
}

func TestRoyaltyAndMetadata(t *testing.T) {
	_, h := newTestServer(t)
	mint(t, h)

	rec := do(t, h, http.MethodGet, "/royalty/0?price=10000", common.Address{}, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var royalty struct {
		Artist  common.Address `json:"artist"`
		Royalty *big.Int       `json:"royalty"`
		Split   ledger.Split   `json:"split"`
	}
	decodeBody(t, rec, &royalty)
	assert.Equal(t, artist, royalty.Artist)
	assert.Equal(t, "500", royalty.Royalty.String())
	assert.Equal(t, "9250", royalty.Split.Proceeds.String())

	rec = do(t, h, http.MethodGet, "/tokens/0/metadata", common.Address{}, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ipfs://QmTrack"))
}

func TestRecordBySeq(t *testing.T) {
	_, h := newTestServer(t)
	mint(t, h)

	rec := do(t, h, http.MethodGet, "/records/1", common.Address{}, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var record entity.Record
	decodeBody(t, rec, &record)
	assert.Equal(t, uint64(1), record.Seq)
	assert.Equal(t, entity.MintedRecord, record.Kind)
	assert.Equal(t, "ipfs://QmTrack", record.Uri)

	rec = do(t, h, http.MethodGet, "/records/99", common.Address{}, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoyaltyInfo(t *testing.T) {
	_, h := newTestServer(t)
	id := mint(t, h)

	rec := do(t, h, http.MethodGet, fmt.Sprintf("/tokens/%d/royalty-info", id), common.Address{}, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		TokenId uint64              `json:"tokenId"`
		Royalty *entity.RoyaltyInfo `json:"royalty"`
	}
	decodeBody(t, rec, &resp)
	require.NotNil(t, resp.Royalty)
	assert.Equal(t, artist, resp.Royalty.Artist)
	assert.Equal(t, uint64(500), resp.Royalty.SaleBps)
	assert.Equal(t, uint64(3000), resp.Royalty.ListenBps)

	rec = do(t, h, http.MethodPost, "/tokens", seller, "100", mintRequest{Uri: "ipfs://QmPlain"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(t, h, http.MethodGet, "/tokens/1/royalty-info", common.Address{}, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp.Royalty = nil
	decodeBody(t, rec, &resp)
	assert.Equal(t, uint64(1), resp.TokenId)
	assert.Nil(t, resp.Royalty)

	rec = do(t, h, http.MethodGet, "/tokens/7/royalty-info", common.Address{}, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
