package daemon

import (
	"context"
	"math/big"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/config"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/ledger"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/repository"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin  = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	seller = common.HexToAddress("0x0000000000000000000000000000000000000003")
	buyer  = common.HexToAddress("0x0000000000000000000000000000000000000004")
)

type collector struct {
	mu      sync.Mutex
	records []entity.Record
	payouts []entity.Payout
}

func (c *collector) EmitPayouts(payouts []entity.Payout) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payouts = append(c.payouts, payouts...)
}

func (c *collector) Emit(records []entity.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, records...)
}

func testOptions() ledger.Options {
	return ledger.Options{Administrator: admin, MarketplaceFeeBps: 250, MintFee: big.NewInt(100)}
}

func TestDaemon_PersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	store, err := repository.OpenStore(path)
	require.NoError(t, err)

	events := &collector{}
	d, err := Load(store, testOptions(), events)
	require.NoError(t, err)

	err = d.Execute(ctx, func(ctx context.Context, l *ledger.Ledger) error {
		if _, err := l.Mint(ctx, ledger.Call{From: seller, Value: big.NewInt(150)}, "ipfs://a", nil); err != nil {
			return err
		}
		return l.ListNFT(ctx, ledger.Call{From: seller}, 0, big.NewInt(1000))
	})
	require.NoError(t, err)
	assert.Len(t, events.records, 5, "transfer, minted, refund, approval, listed")
	assert.Len(t, events.payouts, 1)

	payouts, err := store.Payouts().GetPayoutsTo(seller, 10)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, "50", payouts[0].Amount.String())
	assert.Equal(t, events.records[0].CallId, payouts[0].CallId)
	require.NoError(t, store.Close())

	store, err = repository.OpenStore(path)
	require.NoError(t, err)
	defer store.Close()

	d, err = Load(store, ledger.Options{}, nil)
	require.NoError(t, err)

	listings, err := d.Ledger().GetAllListings(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, seller, listings[0].Seller)

	fees, err := d.Ledger().AccumulatedFees(ctx)
	require.NoError(t, err)
	assert.Equal(t, "100", fees.String())

	records, err := store.Records().GetRecords(0, 100)
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestDaemon_FailedCallPersistsNothing(t *testing.T) {
	store, err := repository.OpenStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer store.Close()

	d, err := Load(store, testOptions(), nil)
	require.NoError(t, err)

	err = d.Execute(context.Background(), func(ctx context.Context, l *ledger.Ledger) error {
		return l.BuyNFT(ctx, ledger.Call{From: buyer, Value: big.NewInt(5)}, 0)
	})
	assert.ErrorIs(t, err, ledger.ErrNotListed)

	state, err := store.States().GetState()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), state.NextSeq)
	assert.Equal(t, uint64(0), state.NextTokenId)

	_, found, err := store.Records().LastSeq()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDaemon_PersistFailureRestoresLedger(t *testing.T) {
	store, err := repository.OpenStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)

	events := &collector{}
	d, err := Load(store, testOptions(), events)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = d.Execute(context.Background(), func(ctx context.Context, l *ledger.Ledger) error {
		_, err := l.Mint(ctx, ledger.Call{From: seller, Value: big.NewInt(100)}, "ipfs://a", nil)
		return err
	})
	assert.ErrorIs(t, err, ErrPersist)
	assert.Empty(t, events.records)
	assert.Empty(t, events.payouts)

	ctx := context.Background()
	supply, err := d.Ledger().TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), supply)

	state, err := d.Ledger().Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), state.NextSeq)

	fees, err := d.Ledger().AccumulatedFees(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0", fees.String())
}

func TestDaemon_PartialOpKeepsCommittedCalls(t *testing.T) {
	store, err := repository.OpenStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer store.Close()

	d, err := Load(store, testOptions(), nil)
	require.NoError(t, err)

	err = d.Execute(context.Background(), func(ctx context.Context, l *ledger.Ledger) error {
		if _, err := l.Mint(ctx, ledger.Call{From: seller, Value: big.NewInt(100)}, "ipfs://a", nil); err != nil {
			return err
		}
		return l.ListNFT(ctx, ledger.Call{From: buyer}, 0, big.NewInt(1))
	})
	assert.ErrorIs(t, err, ledger.ErrNotTokenOwner)

	state, err := store.States().GetState()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), state.NextTokenId)
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := OptionsFromConfig(config.LedgerConfig{
		Address:           "0x00000000000000000000000000000000000000aa",
		Administrator:     admin.Hex(),
		MarketplaceFeeBps: 250,
		MintFeeWei:        "0.01eth",
		MaxSaleRoyaltyBps: 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, admin, opts.Administrator)
	assert.Equal(t, "10000000000000000", opts.MintFee.String())

	opts, err = OptionsFromConfig(config.LedgerConfig{Address: "0x00000000000000000000000000000000000000aa", Administrator: ""})
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, opts.Administrator)

	_, err = OptionsFromConfig(config.LedgerConfig{Address: "0x00000000000000000000000000000000000000aa", Administrator: "zil1nope"})
	assert.Error(t, err)

	_, err = OptionsFromConfig(config.LedgerConfig{Address: "0x00000000000000000000000000000000000000aa", MintFeeWei: "-1"})
	assert.Error(t, err)
}
