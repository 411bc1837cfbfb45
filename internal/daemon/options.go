package daemon

import (
	"fmt"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/config"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/helper"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// OptionsFromConfig builds the options a fresh ledger is seeded with. An
// empty ADMIN_ADDRESS is only accepted when restoring a stored ledger, which
// keeps its own administrator.
func OptionsFromConfig(cfg config.LedgerConfig) (ledger.Options, error) {
	self, err := helper.ParseAddress(cfg.Address)
	if err != nil {
		return ledger.Options{}, fmt.Errorf("LEDGER_ADDRESS: %w", err)
	}
	var admin common.Address
	if cfg.Administrator != "" {
		if admin, err = helper.ParseAddress(cfg.Administrator); err != nil {
			return ledger.Options{}, fmt.Errorf("ADMIN_ADDRESS: %w", err)
		}
	}
	mintFee, err := helper.ParseAmount(cfg.MintFeeWei)
	if err != nil {
		return ledger.Options{}, fmt.Errorf("MINT_FEE_WEI: %w", err)
	}

	return ledger.Options{
		Address:           self,
		Administrator:     admin,
		MarketplaceFeeBps: cfg.MarketplaceFeeBps,
		MintFee:           mintFee,
		MaxSaleRoyaltyBps: cfg.MaxSaleRoyaltyBps,
	}, nil
}
