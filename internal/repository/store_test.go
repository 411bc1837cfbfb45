package repository

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_StateNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.States().GetState()
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestStore_Commit(t *testing.T) {
	s := openTestStore(t)

	state := ledger.State{
		Administrator:   alice,
		MintFee:         big.NewInt(10),
		AccumulatedFees: big.NewInt(10),
		Held:            big.NewInt(10),
		NextTokenId:     1,
		NextSeq:         2,
		Tokens:          []ledger.TokenState{{Id: 0, Owner: bob, Uri: "ipfs://a"}},
	}
	records := []entity.Record{
		{Seq: 0, Kind: entity.TransferRecord, To: bob, TokenId: 0},
		{Seq: 1, Kind: entity.MintedRecord, To: bob, TokenId: 0, Uri: "ipfs://a"},
	}
	payouts := []entity.Payout{{CallId: "c1", To: bob, Amount: big.NewInt(5)}}

	require.NoError(t, s.Commit(Commit{State: state, Records: records, Payouts: payouts}))

	got, err := s.States().GetState()
	require.NoError(t, err)
	assert.Equal(t, alice, got.Administrator)
	assert.Equal(t, "10", got.Held.String())
	require.Len(t, got.Tokens, 1)
	assert.Equal(t, bob, got.Tokens[0].Owner)

	stored, err := s.Records().GetRecords(0, 10)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, entity.MintedRecord, stored[1].Kind)
	assert.Equal(t, "ipfs://a", stored[1].Uri)

	seq, found, err := s.Records().LastSeq()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(1), seq)

	queued, err := s.Payouts().GetPayoutsTo(bob, 10)
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, uint64(1), queued[0].Seq)
	assert.Equal(t, "5", queued[0].Amount.String())
}

func TestRecordRepository_Paging(t *testing.T) {
	s := openTestStore(t)

	records := make([]entity.Record, 0)
	for seq := uint64(0); seq < 10; seq++ {
		records = append(records, entity.Record{Seq: seq, Kind: entity.ListedRecord, TokenId: seq % 3, Amount: big.NewInt(int64(seq + 1))})
	}
	require.NoError(t, s.Commit(Commit{Records: records}))

	page, err := s.Records().GetRecords(4, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, uint64(4), page[0].Seq)
	assert.Equal(t, uint64(6), page[2].Seq)

	empty, err := s.Records().GetRecords(0, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	forToken, err := s.Records().GetRecordsForToken(1, 10)
	require.NoError(t, err)
	assert.Len(t, forToken, 3)

	_, err = s.Records().GetRecord(99)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	one, err := s.Records().GetRecord(9)
	require.NoError(t, err)
	assert.Equal(t, "10", one.Amount.String())
}

func TestStateRepository_RoundTripsLedger(t *testing.T) {
	s := openTestStore(t)
	transfer := ledger.TransferFunc(func(_ context.Context, _ common.Address, _ *big.Int) error { return nil })

	l, err := ledger.New(ledger.Options{Administrator: alice, MintFee: big.NewInt(0)}, transfer, nil)
	require.NoError(t, err)
	_, err = l.Mint(context.Background(), ledger.Call{From: bob}, "ipfs://a", &entity.RoyaltyInfo{Artist: alice, SaleBps: 100})
	require.NoError(t, err)
	require.NoError(t, l.ListNFT(context.Background(), ledger.Call{From: bob}, 0, big.NewInt(1000)))

	state, err := l.Snapshot(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.States().SaveState(state))

	loaded, err := s.States().GetState()
	require.NoError(t, err)

	restored, err := ledger.Restore(loaded, ledger.Options{}, transfer, nil)
	require.NoError(t, err)

	listings, err := restored.GetAllListings(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, bob, listings[0].Seller)
	assert.Equal(t, "1000", listings[0].Price.String())
}
