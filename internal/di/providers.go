package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"CryptoPrep/internal/domain/repository"
	"CryptoPrep/internal/handler/api"
	internalrepo "CryptoPrep/internal/repository"
	icache "CryptoPrep/internal/service/cache"
	"CryptoPrep/internal/service/coinbase"
	"CryptoPrep/internal/services/dataset"
	"CryptoPrep/internal/services/pipeline"
	"CryptoPrep/internal/services/publisher"
	"CryptoPrep/internal/usecase"
	pkgcache "CryptoPrep/pkg/cache"
	pkgch "CryptoPrep/pkg/clickhouse"
	"CryptoPrep/pkg/config"
	pkgkafka "CryptoPrep/pkg/kafka"
	applogger "CryptoPrep/pkg/logger"
	"CryptoPrep/pkg/metrics"
	"CryptoPrep/pkg/server"
	"CryptoPrep/pkg/util"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lcfg := &applogger.Config{Level: "info", Format: "console", Output: "stdout"}
	if cfg.Environment == "production" {
		lcfg.Format = "json"
	}
	return applogger.New(lcfg)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

func wantsBackend(cfg *config.Config, name string) bool {
	for _, b := range cfg.Export.Backends {
		if b == name {
			return true
		}
	}
	return false
}

// ProvideClickHouseClient creates a ClickHouse client when the backend is
// configured, nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !wantsBackend(cfg, "clickhouse") {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.Schema(cfg.ClickHouse.Database, cfg.ClickHouse.Table)); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer when the backend is
// configured, nil otherwise.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !wantsBackend(cfg, "kafka") {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideFeatureStore creates the ClickHouse feature store when a client is
// available.
func ProvideFeatureStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) *internalrepo.CHFeatureStore {
	if chClient == nil {
		return nil
	}
	store := internalrepo.NewCHFeatureStore(chClient, cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table)
	store.SetLogger(l)
	return store
}

// ProvideBarSource builds the bar loading chain: exchange client, optional
// Redis response cache, then the CSV file cache for offline reruns.
func ProvideBarSource(cfg *config.Config, l *applogger.Logger) (repository.BarSource, error) {
	var upstream repository.BarSource
	if cfg.Exchange.BaseURL != "" {
		rate := float64(cfg.Exchange.RateLimit)
		if rate <= 0 {
			rate = 3
		}
		upstream = coinbase.New(cfg.Exchange.BaseURL,
			coinbase.WithTimeout(cfg.Exchange.Timeout),
			coinbase.WithRateLimit(rate, rate),
		)
	}

	if upstream != nil && cfg.Redis.Enabled {
		host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
		if err != nil {
			return nil, fmt.Errorf("redis addr: %w", err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("redis port: %w", err)
		}
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(cfg.Redis.Password),
			pkgcache.WithRedisDB(cfg.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		layered := pkgcache.NewLayeredCache(rc)
		rs := internalrepo.NewRedisBarSource(layered, upstream, cfg.Redis.TTL)
		rs.SetLogger(l)
		upstream = rs
	}

	fileCache := internalrepo.NewCSVBarCache(cfg.Data.CacheDir)
	src := internalrepo.NewCachedBarSource(fileCache, upstream)
	src.SetLogger(l)
	return src, nil
}

// ProvideExporters assembles the export backends in configured order.
func ProvideExporters(
	cfg *config.Config,
	store *internalrepo.CHFeatureStore,
	producer *pkgkafka.Producer,
) ([]repository.Exporter, error) {
	var out []repository.Exporter
	for _, b := range cfg.Export.Backends {
		switch b {
		case "csv":
			out = append(out, internalrepo.NewCSVExporter(cfg.Export.OutDir))
		case "parquet":
			out = append(out, internalrepo.NewParquetExporter(cfg.Export.OutDir))
		case "clickhouse":
			if store == nil {
				return nil, fmt.Errorf("clickhouse backend configured without client")
			}
			out = append(out, store)
		case "kafka":
			if producer == nil {
				return nil, fmt.Errorf("kafka backend configured without producer")
			}
			out = append(out, internalrepo.NewKafkaExporter(producer, cfg.Kafka.Topic))
		case "modeling":
			if cfg.Modeling.URL == "" {
				return nil, fmt.Errorf("modeling backend configured without url")
			}
			out = append(out, publisher.New(cfg.Modeling.URL, cfg.Modeling.Timeout))
		default:
			return nil, fmt.Errorf("unknown export backend '%s'", b)
		}
	}
	return out, nil
}

// ProvidePreparer creates the pipeline use case from config.
func ProvidePreparer(source repository.BarSource, m repository.Metrics, cfg *config.Config, l *applogger.Logger) (*usecase.Preparer, error) {
	cleanCfg := pipeline.DefaultCleanConfig()
	if cfg.Pipeline.OutlierIQRK > 0 {
		cleanCfg.OutlierIQRK = cfg.Pipeline.OutlierIQRK
	}
	outages := make(map[string][]pipeline.DateRange)
	for _, o := range cfg.Data.Outages {
		from, ok := util.ParseDate(o.From)
		if !ok {
			return nil, fmt.Errorf("outage from date '%s' is not YYYY-MM-DD", o.From)
		}
		to, ok := util.ParseDate(o.To)
		if !ok {
			return nil, fmt.Errorf("outage to date '%s' is not YYYY-MM-DD", o.To)
		}
		r := pipeline.DateRange{From: from, To: to}
		if o.Currency == "" {
			cleanCfg.KnownOutages = append(cleanCfg.KnownOutages, r)
			continue
		}
		cur := string(repository.NormalizeProduct(o.Currency))
		outages[cur] = append(outages[cur], r)
	}

	dsCfg := dataset.DefaultConfig()
	if cfg.Pipeline.LagDepth > 0 {
		dsCfg.LagDepth = cfg.Pipeline.LagDepth
	}
	if cfg.Pipeline.RRLag > 0 {
		dsCfg.RRLag = cfg.Pipeline.RRLag
	}

	p := usecase.NewPreparer(source, cleanCfg, dsCfg, m)
	p.SetOutages(outages)
	p.SetLogger(l)
	return p, nil
}

// ProvideDatasetExporter creates the export use case.
func ProvideDatasetExporter(exporters []repository.Exporter, m repository.Metrics) *usecase.DatasetExporter {
	return usecase.NewDatasetExporter(exporters, m)
}

// ProvideDatasetQuery creates the read-side use case.
func ProvideDatasetQuery(store *internalrepo.CHFeatureStore) *usecase.DatasetQuery {
	if store == nil {
		return usecase.NewDatasetQuery(nil)
	}
	return usecase.NewDatasetQuery(store)
}

// ProvideDatasetHandler creates the HTTP handler with response caching.
func ProvideDatasetHandler(query *usecase.DatasetQuery, cfg *config.Config, l *applogger.Logger) *api.DatasetHandler {
	h := api.NewDatasetHandler(query)
	h.SetLogger(l)
	if cfg.Redis.Enabled {
		h.SetCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	} else {
		h.SetCache(icache.NewTTLCache())
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	preparer *usecase.Preparer,
	exporter *usecase.DatasetExporter,
	query *usecase.DatasetQuery,
	handler *api.DatasetHandler,
	chClient *pkgch.Client,
	l *applogger.Logger,
) *server.App {
	app := server.New(cfg, preparer, exporter, query, handler, chClient)
	app.SetLogger(l)
	return app
}
