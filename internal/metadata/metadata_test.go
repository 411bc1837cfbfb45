package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMetadata_IpfsThroughGateway(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "/ipfs/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG/7.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"name":"Track 7","animation_url":"ipfs://song"}`))
	}))
	defer srv.Close()

	svc := NewMetadataService(NewClient(2, time.Second), srv.URL)
	md, err := svc.GetMetadata(context.Background(), entity.Nft{TokenId: 7, TokenUri: "ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG/7.json"})
	require.NoError(t, err)
	assert.Equal(t, "Track 7", md["name"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetMetadata_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	svc := NewMetadataService(NewClient(0, time.Second), srv.URL)

	_, err := svc.GetMetadata(context.Background(), entity.Nft{TokenUri: "ar://whatever"})
	assert.ErrorIs(t, err, ErrUnresolvableUri)

	_, err = svc.GetMetadata(context.Background(), entity.Nft{TokenUri: srv.URL + "/missing"})
	assert.ErrorIs(t, err, ErrBadStatus)

	_, err = svc.GetMetadata(context.Background(), entity.Nft{TokenUri: srv.URL + "/garbage"})
	assert.Error(t, err)
}

func TestGetMetadata_IpfsWithoutGateway(t *testing.T) {
	svc := NewMetadataService(NewClient(0, time.Second), "")

	_, err := svc.GetMetadata(context.Background(), entity.Nft{TokenUri: "ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG/7.json"})
	assert.ErrorIs(t, err, ErrUnresolvableUri)
	assert.Contains(t, err.Error(), "no ipfs gateway")
}
