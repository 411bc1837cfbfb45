package main

import (
	"os"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/config"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/config/di"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/daemon"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/event"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/repository"
	sdi "github.com/sarulabs/di/v2"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	cfg       *config.Config
	container sdi.Container
	ledgerd   *daemon.Daemon
	store     *repository.Store
)

func main() {
	config.Init("ledger")
	cfg = config.Get()

	app := &cli.App{
		Name:  "ledger",
		Usage: "NFT marketplace ledger",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "caller address (hex or bech32)", EnvVars: []string{"LEDGER_FROM"}},
			&cli.StringFlag{Name: "value", Usage: "value attached to the call, in wei or with an eth suffix", Value: "0"},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			{Name: "serve", Usage: "Serve the HTTP api", Action: serve},
			{
				Name:      "mint",
				Usage:     "Mint a token to the caller, paying the mint fee",
				ArgsUsage: "<uri>",
				Action:    mint,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "artist", Usage: "royalty receiver"},
					&cli.Uint64Flag{Name: "sale-bps", Usage: "artist share of every sale"},
					&cli.Uint64Flag{Name: "listen-bps", Usage: "owner share of every listen"},
				},
			},
			{Name: "safe-mint", Usage: "Mint a token without fee (administrator)", ArgsUsage: "<to> <uri>", Action: safeMint},
			{Name: "list", Usage: "List a token for sale", ArgsUsage: "<tokenId> <price>", Action: list},
			{Name: "update-price", Usage: "Change the price of an active listing", ArgsUsage: "<tokenId> <price>", Action: updatePrice},
			{Name: "cancel", Usage: "Cancel an active listing", ArgsUsage: "<tokenId>", Action: cancel},
			{Name: "buy", Usage: "Buy a listed token, paying --value", ArgsUsage: "<tokenId>", Action: buy},
			{Name: "listen", Usage: "Pay --value for a listen of a token", ArgsUsage: "<tokenId>", Action: listen},
			{
				Name:   "batch-listen",
				Usage:  "Pay for listens of several tokens in one call",
				Action: batchListen,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "entry", Usage: "tokenId:amount, repeatable", Required: true},
				},
			},
			{Name: "withdraw", Usage: "Withdraw the caller's pending balance", Action: withdraw},
			{Name: "withdraw-fees", Usage: "Withdraw accumulated marketplace fees (administrator)", Action: withdrawFees},
			{Name: "set-fee", Usage: "Set the marketplace fee (administrator)", ArgsUsage: "<bps>", Action: setFee},
			{Name: "set-mint-fee", Usage: "Set the mint fee (administrator)", ArgsUsage: "<fee>", Action: setMintFee},
			{Name: "set-admin", Usage: "Hand over administration (administrator)", ArgsUsage: "<address>", Action: setAdmin},
			{Name: "transfer", Usage: "Transfer a token", ArgsUsage: "<tokenId> <from> <to>", Action: transfer},
			{Name: "approve", Usage: "Approve an address for a token", ArgsUsage: "<tokenId> <to>", Action: approve},
			{Name: "set-operator", Usage: "Grant or revoke an operator", ArgsUsage: "<operator> <true|false>", Action: setOperator},
			{
				Name:   "listings",
				Usage:  "Page over active listings",
				Action: listings,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "skip", Value: 0},
					&cli.IntFlag{Name: "take", Value: 50},
					&cli.StringFlag{Name: "seller", Usage: "only listings created by seller"},
				},
			},
			{Name: "token", Usage: "Show a token", ArgsUsage: "<tokenId>", Action: token},
			{Name: "owned", Usage: "Show the tokens owned by an address", ArgsUsage: "<address>", Action: owned},
			{Name: "balance", Usage: "Show the pending balance of an address", ArgsUsage: "<address>", Action: balance},
			{
				Name:   "records",
				Usage:  "Show persisted records",
				Action: records,
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "seq", Usage: "first sequence number"},
					&cli.IntFlag{Name: "limit", Value: 50},
					&cli.Uint64Flag{Name: "token", Usage: "only records for this token"},
				},
			},
			{
				Name:   "payouts",
				Usage:  "Show queued payouts",
				Action: payouts,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Usage: "only payouts to this address"},
					&cli.IntFlag{Name: "limit", Value: 50},
				},
			},
			{Name: "info", Usage: "Show fees, administrator and holdings", Action: info},
			{Name: "verify", Usage: "Check the active listing index", Action: verify},
		},
	}

	if err := app.Run(os.Args); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Ledger: command failed")
	}
}

func setup(c *cli.Context) error {
	var err error
	if container, err = di.NewContainer(cfg); err != nil {
		return err
	}

	obj, err := container.SafeGet("daemon")
	if err != nil {
		return err
	}
	ledgerd = obj.(*daemon.Daemon)
	store = container.Get("store").(*repository.Store)

	return di.RegisterListeners(container, cfg)
}

// teardown drains the event listeners before the sinks and the store close.
func teardown(c *cli.Context) error {
	if container == nil {
		return nil
	}
	container.Get("event.manager").(*event.Manager).Close()
	return container.Delete()
}
