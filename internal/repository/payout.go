package repository

import (
	"encoding/json"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/ethereum/go-ethereum/common"
	"go.etcd.io/bbolt"
)

type PayoutRepository interface {
	GetPayouts(from uint64, limit int) ([]entity.Payout, error)
	GetPayoutsTo(to common.Address, limit int) ([]entity.Payout, error)
}

type payoutRepository struct {
	db *bbolt.DB
}

func (r payoutRepository) GetPayouts(from uint64, limit int) ([]entity.Payout, error) {
	return r.scan(from, limit, func(entity.Payout) bool { return true })
}

func (r payoutRepository) GetPayoutsTo(to common.Address, limit int) ([]entity.Payout, error) {
	return r.scan(0, limit, func(p entity.Payout) bool { return p.To == to })
}

func (r payoutRepository) scan(from uint64, limit int, match func(entity.Payout) bool) ([]entity.Payout, error) {
	payouts := make([]entity.Payout, 0)
	if limit <= 0 {
		return payouts, nil
	}

	err := r.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketPayouts).Cursor()
		for k, v := c.Seek(seqKey(from)); k != nil && len(payouts) < limit; k, v = c.Next() {
			var p entity.Payout
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			if match(p) {
				payouts = append(payouts, p)
			}
		}
		return nil
	})
	return payouts, err
}
