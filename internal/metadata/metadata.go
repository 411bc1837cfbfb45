package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/helper"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

var (
	ErrUnresolvableUri = errors.New("metadata: token uri cannot be fetched")
	ErrBadStatus       = errors.New("metadata: unexpected status")
)

// Service resolves token metadata on demand. Nothing it fetches is stored.
type Service interface {
	GetMetadata(ctx context.Context, nft entity.Nft) (map[string]interface{}, error)
}

type service struct {
	client  *retryablehttp.Client
	gateway string
}

func NewMetadataService(client *retryablehttp.Client, gateway string) Service {
	return service{client, gateway}
}

// NewClient builds the retrying http client used for metadata fetches.
func NewClient(retries int, timeout time.Duration) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = timeout
	client.Logger = nil

	return client
}

func (s service) GetMetadata(ctx context.Context, nft entity.Nft) (map[string]interface{}, error) {
	if s.gateway == "" && helper.IsIpfs(nft.TokenUri) {
		return nil, fmt.Errorf("%w: no ipfs gateway configured for %q", ErrUnresolvableUri, nft.TokenUri)
	}

	metadataUri, err := nft.MetadataUri(s.gateway)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolvableUri, err)
	}
	if !helper.IsUrl(metadataUri) {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvableUri, metadataUri)
	}

	req, err := retryablehttp.NewRequest(http.MethodGet, metadataUri, nil)
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		zap.L().With(zap.Uint64("tokenId", nft.TokenId), zap.String("uri", metadataUri), zap.Error(err)).Warn("Metadata: fetch failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	var md map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&md); err != nil {
		return nil, fmt.Errorf("metadata: decode %s: %w", metadataUri, err)
	}

	return md, nil
}
