package helper

import (
	"net/url"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
)

func IsUrl(uri string) bool {
	u, err := url.Parse(uri)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// IsIpfs reports whether uri points at ipfs content, either as ipfs:// or
// as a bare or embedded CIDv0.
func IsIpfs(uri string) bool {
	return entity.GetIpfs(uri) != ""
}
