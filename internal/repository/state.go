package repository

import (
	"encoding/json"
	"fmt"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/ledger"
	"go.etcd.io/bbolt"
)

type StateRepository interface {
	GetState() (ledger.State, error)
	SaveState(state ledger.State) error
}

type stateRepository struct {
	db *bbolt.DB
}

func (r stateRepository) GetState() (ledger.State, error) {
	var state ledger.State
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketState).Get(keyState)
		if data == nil {
			return ErrStateNotFound
		}
		return json.Unmarshal(data, &state)
	})
	return state, err
}

func (r stateRepository) SaveState(state ledger.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("repository: encode state: %w", err)
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketState).Put(keyState, data)
	})
}
