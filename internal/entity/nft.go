package entity

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosimple/slug"
)

type Entity interface {
	Slug() string
}

// Nft is the read model of a minted token as served to clients.
type Nft struct {
	TokenId  uint64         `json:"tokenId"`
	TokenUri string         `json:"tokenUri"`
	Owner    common.Address `json:"owner"`
	Approved common.Address `json:"approved"`

	Royalty *RoyaltyInfo `json:"royalty,omitempty"`
	Listing *Listing     `json:"listing,omitempty"`
}

func (n Nft) Slug() string {
	return CreateNftSlug(n.TokenId)
}

func CreateNftSlug(tokenId uint64) string {
	return slug.Make(fmt.Sprintf("nft-%d", tokenId))
}

var cidV0 = regexp.MustCompile("(Qm[1-9A-HJ-NP-Za-km-z]{44}.*$)")

// MetadataUri resolves the token URI into something fetchable over http,
// rewriting ipfs:// and bare CIDv0 references onto gateway.
func (n Nft) MetadataUri(gateway string) (string, error) {
	metadataUri := n.TokenUri
	if ipfs := GetIpfs(metadataUri); ipfs != "" {
		metadataUri = strings.TrimSuffix(gateway, "/") + "/ipfs/" + strings.TrimPrefix(ipfs, "ipfs://")
	}

	if !strings.HasPrefix(metadataUri, "http") {
		return "", fmt.Errorf("%w: %q", ErrInvalidTokenUri, n.TokenUri)
	}

	return metadataUri, nil
}

// GetIpfs returns the canonical ipfs:// form of uri, or "" when uri does not
// reference ipfs content.
func GetIpfs(uri string) string {
	if strings.HasPrefix(uri, "ipfs://") {
		return uri
	}

	parts := cidV0.FindStringSubmatch(uri)
	if len(parts) == 2 {
		return "ipfs://" + parts[1]
	}

	return ""
}

// CopyAmount returns a defensive copy of v, mapping nil to zero.
func CopyAmount(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
