package di

import (
	"context"
	"errors"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/api"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/config"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/daemon"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/elastic_search"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/event"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/messenger"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/metadata"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/repository"
	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"
)

var ErrNotConfigured = errors.New("di: service not configured")

func Definitions(cfg *config.Config) []di.Def {
	return []di.Def{
		{
			Name:  "store",
			Scope: di.App,
			Build: func(ctn di.Container) (interface{}, error) {
				store, err := repository.OpenStore(cfg.DbPath)
				if err != nil {
					return nil, err
				}
				return store, nil
			},
			Close: func(obj interface{}) error {
				return obj.(*repository.Store).Close()
			},
		},
		{
			Name:  "event.manager",
			Scope: di.App,
			Build: func(ctn di.Container) (interface{}, error) {
				return event.NewManager(), nil
			},
			Close: func(obj interface{}) error {
				obj.(*event.Manager).Close()
				return nil
			},
		},
		{
			Name:  "daemon",
			Scope: di.App,
			Build: func(ctn di.Container) (interface{}, error) {
				opts, err := daemon.OptionsFromConfig(cfg.Ledger)
				if err != nil {
					return nil, err
				}
				d, err := daemon.Load(
					ctn.Get("store").(*repository.Store),
					opts,
					ctn.Get("event.manager").(*event.Manager),
				)
				if err != nil {
					return nil, err
				}
				return d, nil
			},
		},
		{
			Name:  "metadata",
			Scope: di.App,
			Build: func(ctn di.Container) (interface{}, error) {
				client := metadata.NewClient(cfg.Metadata.Retries, cfg.Metadata.Timeout)
				return metadata.NewMetadataService(client, cfg.Metadata.IpfsGateway), nil
			},
		},
		{
			Name:  "api",
			Scope: di.App,
			Build: func(ctn di.Container) (interface{}, error) {
				return api.NewServer(
					ctn.Get("daemon").(*daemon.Daemon),
					ctn.Get("store").(*repository.Store),
					ctn.Get("metadata").(metadata.Service),
					cfg.CacheTtl,
				), nil
			},
		},
		{
			Name:  "elastic",
			Scope: di.App,
			Build: func(ctn di.Container) (interface{}, error) {
				if len(cfg.ElasticSearch.Hosts) == 0 {
					return nil, ErrNotConfigured
				}
				index, err := elastic_search.New(cfg.ElasticSearch, cfg.Aws)
				if err != nil {
					return nil, err
				}
				if err := index.InstallMappings(context.Background()); err != nil {
					return nil, err
				}
				return index, nil
			},
			Close: func(obj interface{}) error {
				_, err := obj.(elastic_search.Index).Persist(context.Background())
				return err
			},
		},
		{
			Name:  "messenger",
			Scope: di.App,
			Build: func(ctn di.Container) (interface{}, error) {
				if cfg.AmqpUri == "" {
					return nil, ErrNotConfigured
				}
				return messenger.NewMessenger(cfg.AmqpUri, cfg.Env), nil
			},
			Close: func(obj interface{}) error {
				return obj.(*messenger.Messenger).Close()
			},
		},
	}
}

func NewContainer(cfg *config.Config) (di.Container, error) {
	builder, err := di.NewBuilder()
	if err != nil {
		return nil, err
	}
	if err := builder.Add(Definitions(cfg)...); err != nil {
		return nil, err
	}
	return builder.Build(), nil
}

// RegisterListeners attaches the api cache and whichever sinks are
// configured to the event manager.
func RegisterListeners(ctn di.Container, cfg *config.Config) error {
	manager := ctn.Get("event.manager").(*event.Manager)

	server := ctn.Get("api").(*api.Server)
	manager.AddEventListener(event.RecordsCommittedEvent, server.FlushCache)

	if len(cfg.ElasticSearch.Hosts) != 0 {
		obj, err := ctn.SafeGet("elastic")
		if err != nil {
			return err
		}
		index := obj.(elastic_search.Index)
		manager.AddEventListener(event.RecordsCommittedEvent, index.Listen)
		manager.AddEventListener(event.PayoutsQueuedEvent, index.Listen)
	} else {
		zap.L().Info("DI: elastic search sink disabled")
	}

	if cfg.AmqpUri != "" {
		obj, err := ctn.SafeGet("messenger")
		if err != nil {
			return err
		}
		m := obj.(*messenger.Messenger)
		manager.AddEventListener(event.RecordsCommittedEvent, m.PublishRecords)
		manager.AddEventListener(event.PayoutsQueuedEvent, m.PublishPayouts)
	} else {
		zap.L().Info("DI: amqp sink disabled")
	}

	return nil
}
