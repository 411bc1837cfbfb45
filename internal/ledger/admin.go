package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/ethereum/go-ethereum/common"
)

func (l *Ledger) SetMarketplaceFee(ctx context.Context, call Call, bps uint64) error {
	return l.execute(ctx, call, "setMarketplaceFee", func(t *txn) error {
		if err := nonPayable(t); err != nil {
			return err
		}
		if err := l.requireAdmin(t.caller); err != nil {
			return err
		}
		if bps >= MaxMarketplaceFeeBps {
			return fmt.Errorf("%w: %d bps", ErrFeeTooHigh, bps)
		}

		old := l.marketplaceFeeBps
		setField(t, &l.marketplaceFeeBps, bps)
		t.emit(entity.Record{
			Kind:     entity.MarketplaceFeeUpdatedRecord,
			OldValue: new(big.Int).SetUint64(old),
			NewValue: new(big.Int).SetUint64(bps),
		})
		return nil
	})
}

func (l *Ledger) SetMintFee(ctx context.Context, call Call, fee *big.Int) error {
	return l.execute(ctx, call, "setMintFee", func(t *txn) error {
		if err := nonPayable(t); err != nil {
			return err
		}
		if err := l.requireAdmin(t.caller); err != nil {
			return err
		}
		if fee == nil || fee.Sign() < 0 {
			return fmt.Errorf("%w: mint fee %v", ErrInvalidValue, fee)
		}

		old := l.mintFee
		setField(t, &l.mintFee, new(big.Int).Set(fee))
		t.emit(entity.Record{
			Kind:     entity.MintFeeUpdatedRecord,
			OldValue: new(big.Int).Set(old),
			NewValue: new(big.Int).Set(fee),
		})
		return nil
	})
}

func (l *Ledger) TransferAdministration(ctx context.Context, call Call, newAdmin common.Address) error {
	return l.execute(ctx, call, "transferAdministration", func(t *txn) error {
		if err := nonPayable(t); err != nil {
			return err
		}
		if err := l.requireAdmin(t.caller); err != nil {
			return err
		}
		if newAdmin == (common.Address{}) {
			return fmt.Errorf("%w: administrator", ErrZeroAddress)
		}

		old := l.admin
		setField(t, &l.admin, newAdmin)
		t.emit(entity.Record{Kind: entity.AdministrationTransferredRecord, From: old, To: newAdmin})
		return nil
	})
}
