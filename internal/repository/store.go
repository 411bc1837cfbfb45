package repository

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/ledger"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var (
	bucketState   = []byte("state")
	bucketRecords = []byte("records")
	bucketPayouts = []byte("payouts")

	keyState = []byte("ledger")
)

// Store is the bbolt database holding the ledger snapshot, the record log
// and the payout queue.
type Store struct {
	db *bbolt.DB
}

// Commit is everything one ledger call changed, written in one transaction.
type Commit struct {
	State   ledger.State
	Records []entity.Record
	Payouts []entity.Payout
}

func OpenStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("repository: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("repository: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketState, bucketRecords, bucketPayouts} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository: create buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Records() RecordRepository { return recordRepository{s.db} }

func (s *Store) States() StateRepository { return stateRepository{s.db} }

func (s *Store) Payouts() PayoutRepository { return payoutRepository{s.db} }

// Commit persists a call's snapshot, records and payouts atomically. Payouts
// are assigned their sequence numbers in place.
func (s *Store) Commit(c Commit) error {
	state, err := json.Marshal(c.State)
	if err != nil {
		return fmt.Errorf("repository: encode state: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketState).Put(keyState, state); err != nil {
			return err
		}
		for _, r := range c.Records {
			if err := putJson(tx.Bucket(bucketRecords), r.Seq, r); err != nil {
				return err
			}
		}
		payouts := tx.Bucket(bucketPayouts)
		for i := range c.Payouts {
			seq, err := payouts.NextSequence()
			if err != nil {
				return err
			}
			c.Payouts[i].Seq = seq
			if err := putJson(payouts, seq, c.Payouts[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repository: commit: %w", err)
	}

	zap.L().With(
		zap.Int("records", len(c.Records)),
		zap.Int("payouts", len(c.Payouts)),
	).Debug("Repository: committed")
	return nil
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

func putJson(b *bbolt.Bucket, seq uint64, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(seqKey(seq), data)
}
