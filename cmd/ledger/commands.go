package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/api"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/dev"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/helper"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage")

func serve(c *cli.Context) error {
	server := container.Get("api").(*api.Server)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{Addr: ":" + cfg.ApiPort, Handler: server.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			zap.L().With(zap.Error(err)).Error("Ledger: failed to shut down api")
		}
	}()

	zap.L().Info("Serving ledger api on :" + cfg.ApiPort)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func call(c *cli.Context) (ledger.Call, error) {
	from, err := helper.ParseAddress(c.String("from"))
	if err != nil {
		return ledger.Call{}, fmt.Errorf("--from: %w", err)
	}
	value, err := helper.ParseAmount(c.String("value"))
	if err != nil {
		return ledger.Call{}, fmt.Errorf("--value: %w", err)
	}
	return ledger.Call{From: from, Value: value}, nil
}

func arg(c *cli.Context, i int, name string) (string, error) {
	if c.Args().Len() <= i {
		return "", fmt.Errorf("%w: missing <%s>", errUsage, name)
	}
	return c.Args().Get(i), nil
}

func tokenArg(c *cli.Context, i int) (uint64, error) {
	v, err := arg(c, i, "tokenId")
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: token id %q", errUsage, v)
	}
	return id, nil
}

func addressArg(c *cli.Context, i int, name string) (common.Address, error) {
	v, err := arg(c, i, name)
	if err != nil {
		return common.Address{}, err
	}
	return helper.ParseAddress(v)
}

func amountArg(c *cli.Context, i int, name string) (*big.Int, error) {
	v, err := arg(c, i, name)
	if err != nil {
		return nil, err
	}
	return helper.ParseAmount(v)
}

// run executes fn as the --from caller and dumps its result.
func run(c *cli.Context, fn func(ctx context.Context, l *ledger.Ledger, call ledger.Call) (interface{}, error)) error {
	cl, err := call(c)
	if err != nil {
		return err
	}

	var result interface{}
	err = ledgerd.Execute(c.Context, func(ctx context.Context, l *ledger.Ledger) error {
		var err error
		result, err = fn(ctx, l, cl)
		return err
	})
	if err != nil {
		return err
	}

	if result == nil {
		result = map[string]string{"status": "ok"}
	}
	return dev.Dump(os.Stdout, result)
}

func mint(c *cli.Context) error {
	uri, err := arg(c, 0, "uri")
	if err != nil {
		return err
	}

	var royalty *entity.RoyaltyInfo
	if c.IsSet("artist") {
		artist, err := helper.ParseAddress(c.String("artist"))
		if err != nil {
			return err
		}
		royalty = &entity.RoyaltyInfo{Artist: artist, SaleBps: c.Uint64("sale-bps"), ListenBps: c.Uint64("listen-bps")}
	}

	return run(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call) (interface{}, error) {
		id, err := l.Mint(ctx, call, uri, royalty)
		return map[string]uint64{"tokenId": id}, err
	})
}

func safeMint(c *cli.Context) error {
	to, err := addressArg(c, 0, "to")
	if err != nil {
		return err
	}
	uri, err := arg(c, 1, "uri")
	if err != nil {
		return err
	}

	return run(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call) (interface{}, error) {
		id, err := l.SafeMint(ctx, call, to, uri)
		return map[string]uint64{"tokenId": id}, err
	})
}

func list(c *cli.Context) error {
	return withPrice(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call, id uint64, price *big.Int) error {
		return l.ListNFT(ctx, call, id, price)
	})
}

func updatePrice(c *cli.Context) error {
	return withPrice(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call, id uint64, price *big.Int) error {
		return l.UpdateListingPrice(ctx, call, id, price)
	})
}

func withPrice(c *cli.Context, fn func(context.Context, *ledger.Ledger, ledger.Call, uint64, *big.Int) error) error {
	id, err := tokenArg(c, 0)
	if err != nil {
		return err
	}
	price, err := amountArg(c, 1, "price")
	if err != nil {
		return err
	}

	return run(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call) (interface{}, error) {
		return nil, fn(ctx, l, call, id, price)
	})
}

func cancel(c *cli.Context) error {
	return withToken(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call, id uint64) error {
		return l.CancelListing(ctx, call, id)
	})
}

func buy(c *cli.Context) error {
	return withToken(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call, id uint64) error {
		return l.BuyNFT(ctx, call, id)
	})
}

func listen(c *cli.Context) error {
	return withToken(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call, id uint64) error {
		return l.RecordListen(ctx, call, id)
	})
}

func withToken(c *cli.Context, fn func(context.Context, *ledger.Ledger, ledger.Call, uint64) error) error {
	id, err := tokenArg(c, 0)
	if err != nil {
		return err
	}

	return run(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call) (interface{}, error) {
		return nil, fn(ctx, l, call, id)
	})
}

func batchListen(c *cli.Context) error {
	entries := c.StringSlice("entry")
	ids := make([]uint64, 0, len(entries))
	amounts := make([]*big.Int, 0, len(entries))
	for _, e := range entries {
		parts := strings.SplitN(e, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("%w: entry %q is not tokenId:amount", errUsage, e)
		}
		id, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: entry %q", errUsage, e)
		}
		amount, err := helper.ParseAmount(parts[1])
		if err != nil {
			return err
		}
		ids = append(ids, id)
		amounts = append(amounts, amount)
	}

	return run(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call) (interface{}, error) {
		return nil, l.RecordBatchListens(ctx, call, ids, amounts)
	})
}

func withdraw(c *cli.Context) error {
	return run(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call) (interface{}, error) {
		amount, err := l.WithdrawRoyalties(ctx, call)
		return map[string]string{"amount": amount.String(), "eth": helper.FormatEther(amount)}, err
	})
}

func withdrawFees(c *cli.Context) error {
	return run(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call) (interface{}, error) {
		amount, err := l.WithdrawFees(ctx, call)
		return map[string]string{"amount": amount.String(), "eth": helper.FormatEther(amount)}, err
	})
}

func setFee(c *cli.Context) error {
	v, err := arg(c, 0, "bps")
	if err != nil {
		return err
	}
	bps, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bps %q", errUsage, v)
	}

	return run(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call) (interface{}, error) {
		return nil, l.SetMarketplaceFee(ctx, call, bps)
	})
}

func setMintFee(c *cli.Context) error {
	fee, err := amountArg(c, 0, "fee")
	if err != nil {
		return err
	}

	return run(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call) (interface{}, error) {
		return nil, l.SetMintFee(ctx, call, fee)
	})
}

func setAdmin(c *cli.Context) error {
	admin, err := addressArg(c, 0, "address")
	if err != nil {
		return err
	}

	return run(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call) (interface{}, error) {
		return nil, l.TransferAdministration(ctx, call, admin)
	})
}

func transfer(c *cli.Context) error {
	id, err := tokenArg(c, 0)
	if err != nil {
		return err
	}
	from, err := addressArg(c, 1, "from")
	if err != nil {
		return err
	}
	to, err := addressArg(c, 2, "to")
	if err != nil {
		return err
	}

	return run(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call) (interface{}, error) {
		return nil, l.TransferFrom(ctx, call, from, to, id)
	})
}

func approve(c *cli.Context) error {
	id, err := tokenArg(c, 0)
	if err != nil {
		return err
	}
	to, err := addressArg(c, 1, "to")
	if err != nil {
		return err
	}

	return run(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call) (interface{}, error) {
		return nil, l.Approve(ctx, call, to, id)
	})
}

func setOperator(c *cli.Context) error {
	operator, err := addressArg(c, 0, "operator")
	if err != nil {
		return err
	}
	v, err := arg(c, 1, "true|false")
	if err != nil {
		return err
	}
	approved, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: %q", errUsage, v)
	}

	return run(c, func(ctx context.Context, l *ledger.Ledger, call ledger.Call) (interface{}, error) {
		return nil, l.SetApprovalForAll(ctx, call, operator, approved)
	})
}

func listings(c *cli.Context) error {
	l := ledgerd.Ledger()
	if c.IsSet("seller") {
		seller, err := helper.ParseAddress(c.String("seller"))
		if err != nil {
			return err
		}
		views, err := l.GetListingsBySeller(c.Context, seller)
		if err != nil {
			return err
		}
		return dev.Dump(os.Stdout, views)
	}

	views, err := l.GetAllListings(c.Context, c.Int("skip"), c.Int("take"))
	if err != nil {
		return err
	}
	return dev.Dump(os.Stdout, views)
}

func token(c *cli.Context) error {
	id, err := tokenArg(c, 0)
	if err != nil {
		return err
	}
	nft, err := ledgerd.Ledger().Token(c.Context, id)
	if err != nil {
		return err
	}
	return dev.Dump(os.Stdout, nft)
}

func owned(c *cli.Context) error {
	owner, err := addressArg(c, 0, "address")
	if err != nil {
		return err
	}
	ids, err := ledgerd.Ledger().GetNFTsByOwner(c.Context, owner)
	if err != nil {
		return err
	}
	return dev.Dump(os.Stdout, ids)
}

func balance(c *cli.Context) error {
	addr, err := addressArg(c, 0, "address")
	if err != nil {
		return err
	}
	pending, err := ledgerd.Ledger().PendingBalance(c.Context, addr)
	if err != nil {
		return err
	}
	zil, err := helper.ToBech32(addr)
	if err != nil {
		return err
	}
	return dev.Dump(os.Stdout, map[string]string{
		"address": addr.Hex(),
		"bech32":  zil,
		"pending": pending.String(),
		"eth":     helper.FormatEther(pending),
	})
}

func records(c *cli.Context) error {
	repo := store.Records()
	if c.IsSet("token") {
		rs, err := repo.GetRecordsForToken(c.Uint64("token"), c.Int("limit"))
		if err != nil {
			return err
		}
		return dev.Dump(os.Stdout, rs)
	}

	rs, err := repo.GetRecords(c.Uint64("seq"), c.Int("limit"))
	if err != nil {
		return err
	}
	return dev.Dump(os.Stdout, rs)
}

func payouts(c *cli.Context) error {
	repo := store.Payouts()
	if c.IsSet("to") {
		to, err := helper.ParseAddress(c.String("to"))
		if err != nil {
			return err
		}
		ps, err := repo.GetPayoutsTo(to, c.Int("limit"))
		if err != nil {
			return err
		}
		return dev.Dump(os.Stdout, ps)
	}

	ps, err := repo.GetPayouts(0, c.Int("limit"))
	if err != nil {
		return err
	}
	return dev.Dump(os.Stdout, ps)
}

func info(c *cli.Context) error {
	l := ledgerd.Ledger()

	fees, err := l.Fees(c.Context)
	if err != nil {
		return err
	}
	admin, err := l.Administrator(c.Context)
	if err != nil {
		return err
	}
	held, err := l.HeldValue(c.Context)
	if err != nil {
		return err
	}
	supply, err := l.TotalSupply(c.Context)
	if err != nil {
		return err
	}
	active, err := l.ActiveListingCount(c.Context)
	if err != nil {
		return err
	}

	out := map[string]interface{}{
		"address":        l.Address(),
		"administrator":  admin,
		"fees":           fees,
		"held":           held,
		"totalSupply":    supply,
		"activeListings": active,
	}

	seq, found, err := store.Records().LastSeq()
	if err != nil {
		return err
	}
	if found {
		out["lastSeq"] = seq
	}
	return dev.Dump(os.Stdout, out)
}

func verify(c *cli.Context) error {
	if err := ledgerd.Ledger().VerifyIndex(c.Context); err != nil {
		return err
	}
	zap.L().Info("Ledger: active listing index is consistent")
	return nil
}
