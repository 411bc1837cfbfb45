package repository

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"go.etcd.io/bbolt"
)

type RecordRepository interface {
	GetRecord(seq uint64) (entity.Record, error)
	GetRecords(from uint64, limit int) ([]entity.Record, error)
	GetRecordsForToken(tokenId uint64, limit int) ([]entity.Record, error)
	LastSeq() (uint64, bool, error)
}

type recordRepository struct {
	db *bbolt.DB
}

func (r recordRepository) GetRecord(seq uint64) (entity.Record, error) {
	var record entity.Record
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRecords).Get(seqKey(seq))
		if data == nil {
			return fmt.Errorf("%w: %d", ErrRecordNotFound, seq)
		}
		return json.Unmarshal(data, &record)
	})
	return record, err
}

// GetRecords returns up to limit records with seq >= from, in order.
func (r recordRepository) GetRecords(from uint64, limit int) ([]entity.Record, error) {
	return r.scan(from, limit, func(entity.Record) bool { return true })
}

func (r recordRepository) GetRecordsForToken(tokenId uint64, limit int) ([]entity.Record, error) {
	return r.scan(0, limit, func(rec entity.Record) bool {
		return rec.TokenId == tokenId && hasToken(rec.Kind)
	})
}

func (r recordRepository) LastSeq() (uint64, bool, error) {
	var (
		seq   uint64
		found bool
	)
	err := r.db.View(func(tx *bbolt.Tx) error {
		k, _ := tx.Bucket(bucketRecords).Cursor().Last()
		if k != nil {
			seq, found = binary.BigEndian.Uint64(k), true
		}
		return nil
	})
	return seq, found, err
}

func (r recordRepository) scan(from uint64, limit int, match func(entity.Record) bool) ([]entity.Record, error) {
	records := make([]entity.Record, 0)
	if limit <= 0 {
		return records, nil
	}

	err := r.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRecords).Cursor()
		for k, v := c.Seek(seqKey(from)); k != nil && len(records) < limit; k, v = c.Next() {
			var record entity.Record
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("repository: decode record %d: %w", binary.BigEndian.Uint64(k), err)
			}
			if match(record) {
				records = append(records, record)
			}
		}
		return nil
	})
	return records, err
}

func hasToken(kind entity.RecordKind) bool {
	switch kind {
	case entity.MintedRecord, entity.TransferRecord, entity.ApprovalRecord, entity.ListedRecord,
		entity.ListingPriceUpdatedRecord, entity.ListingCancelledRecord, entity.SoldRecord,
		entity.RoyaltyAccruedRecord, entity.ListenRecordedRecord:
		return true
	}
	return false
}
