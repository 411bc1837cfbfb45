package elastic_search

import (
	"context"
	"strings"
	"time"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/config"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/aws/aws-sdk-go/aws/credentials"
	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
	"github.com/olivere/elastic/v7"
	"github.com/patrickmn/go-cache"
	"github.com/sha1sum/aws_signing_client"
	"go.uber.org/zap"
)

// Index mirrors committed ledger records into Elasticsearch for search.
// Requests are buffered by slug and flushed in bulk.
type Index interface {
	GetClient() *elastic.Client

	InstallMappings(ctx context.Context) error

	AddIndexRequest(index Indices, entity entity.Entity)
	GetRequests() []Request
	ClearRequests()

	Persist(ctx context.Context) (int, error)
	Listen(msg interface{})
}

type index struct {
	client    *elastic.Client
	cache     *cache.Cache
	prefix    string
	refresh   string
	bulkCount int
}

type Request struct {
	Index  string
	Entity entity.Entity
}

func New(cfg config.ElasticSearchConfig, aws config.AwsConfig) (Index, error) {
	client, err := newClient(cfg, aws)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("ElasticSearch: Failed to create client")
		return nil, err
	}

	return newIndex(client, cfg), nil
}

func newIndex(client *elastic.Client, cfg config.ElasticSearchConfig) index {
	bulkCount := cfg.BulkPersistCount
	if bulkCount <= 0 {
		bulkCount = 300
	}
	return index{
		client:    client,
		cache:     cache.New(cache.NoExpiration, 10*time.Minute),
		prefix:    cfg.Index,
		refresh:   cfg.Refresh,
		bulkCount: bulkCount,
	}
}

func newClient(cfg config.ElasticSearchConfig, aws config.AwsConfig) (*elastic.Client, error) {
	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(cfg.Hosts...),
		elastic.SetSniff(cfg.Sniff),
		elastic.SetHealthcheck(cfg.HealthCheck),
	}

	if cfg.Debug {
		opts = append(opts, elastic.SetTraceLog(ElasticLogger{}))
	}

	if cfg.Aws {
		creds := credentials.NewStaticCredentials(aws.AccessKey, aws.SecretKey, aws.Token)
		awsClient, err := aws_signing_client.New(v4.NewSigner(creds), nil, "es", aws.Region)
		if err != nil {
			return nil, err
		}

		opts = append(opts, elastic.SetHttpClient(awsClient), elastic.SetScheme("https"))
		return elastic.NewClient(opts...)
	}

	if cfg.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(cfg.Username, cfg.Password))
	}

	return elastic.NewClient(opts...)
}

func (i index) GetClient() *elastic.Client {
	return i.client
}

func (i index) InstallMappings(ctx context.Context) error {
	zap.L().Info("ElasticSearch: Install Mappings")

	for idx, mapping := range mappings {
		name := idx.Get(i.prefix)
		exists, err := i.client.IndexExists(name).Do(ctx)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		created, err := i.client.CreateIndex(name).BodyString(mapping).Do(ctx)
		if err != nil {
			return err
		}
		if created.Acknowledged {
			zap.S().Infof("ElasticSearch: Created index %s", name)
		}
	}

	return nil
}

func (i index) AddIndexRequest(idx Indices, entity entity.Entity) {
	name := idx.Get(i.prefix)
	zap.L().With(zap.String("index", name), zap.String("slug", entity.Slug())).Debug("ElasticSearch: AddIndexRequest")

	i.cache.Set(name+"/"+entity.Slug(), Request{name, entity}, cache.NoExpiration)
}

func (i index) GetRequests() []Request {
	requests := make([]Request, 0)
	for _, item := range i.cache.Items() {
		requests = append(requests, item.Object.(Request))
	}

	return requests
}

func (i index) ClearRequests() {
	i.cache.Flush()
}

// Persist bulk indexes every buffered request. Requests stay buffered when
// the bulk call fails so the next flush retries them.
func (i index) Persist(ctx context.Context) (int, error) {
	requests := i.GetRequests()
	if len(requests) == 0 {
		return 0, nil
	}

	persisted := 0
	for start := 0; start < len(requests); start += i.bulkCount {
		end := start + i.bulkCount
		if end > len(requests) {
			end = len(requests)
		}

		bulk := i.client.Bulk()
		if i.refresh != "" {
			bulk = bulk.Refresh(i.refresh)
		}
		for _, r := range requests[start:end] {
			bulk.Add(elastic.NewBulkIndexRequest().Index(r.Index).Id(r.Entity.Slug()).Doc(r.Entity))
		}

		response, err := bulk.Do(ctx)
		if err != nil {
			zap.L().With(zap.Error(err), zap.Int("actions", end-start)).Error("ElasticSearch: Failed to persist requests")
			return persisted, err
		}

		failed := make(map[string]bool)
		for _, f := range response.Failed() {
			zap.L().With(zap.Any("error", f.Error), zap.String("index", f.Index), zap.String("id", f.Id)).
				Warn("ElasticSearch: Failed to persist request")
			failed[f.Index+"/"+f.Id] = true
		}
		for _, r := range requests[start:end] {
			key := r.Index + "/" + r.Entity.Slug()
			if !failed[key] {
				i.cache.Delete(key)
				persisted++
			}
		}
	}

	zap.L().With(zap.Int("actions", persisted)).Debug("ElasticSearch: Persisted")
	return persisted, nil
}

// Listen is the event listener for committed records and queued payouts.
func (i index) Listen(msg interface{}) {
	switch batch := msg.(type) {
	case []entity.Record:
		for _, r := range batch {
			i.AddIndexRequest(RecordIndex, r)
		}
	case []entity.Payout:
		for _, p := range batch {
			i.AddIndexRequest(PayoutIndex, p)
		}
	default:
		return
	}

	if _, err := i.Persist(context.Background()); err != nil {
		zap.L().With(zap.Error(err), zap.Int("pending", len(i.GetRequests()))).Warn("ElasticSearch: records kept for retry")
	}
}

// ElasticLogger routes client trace output into zap.
type ElasticLogger struct{}

func (ElasticLogger) Printf(format string, v ...interface{}) {
	zap.S().Debugf("ElasticSearch: "+strings.TrimSpace(format), v...)
}
