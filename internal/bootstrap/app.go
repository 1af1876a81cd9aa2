package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"medication-agent/internal/ai"
	"medication-agent/internal/cache"
	"medication-agent/internal/config"
	"medication-agent/internal/ingest"
	"medication-agent/internal/model"
	postgresClient "medication-agent/internal/platform/postgres"
	qdrantClient "medication-agent/internal/platform/qdrant"
	rabbitmqClient "medication-agent/internal/platform/rabbitmq"
	redisClient "medication-agent/internal/platform/redis"
	"medication-agent/internal/repository"
	"medication-agent/internal/search"
	"medication-agent/internal/worker"
)

type App struct {
	Config   *config.Config
	Postgres *gorm.DB
	Redis    *redis.Client
	MQConn   *amqp.Connection
	Qdrant   *qdrantClient.Client

	Pipeline      *ingest.Pipeline
	SearchService *search.Service
	JobPublisher  *rabbitmqClient.JobPublisher
	Reports       *cache.ReportStore
	IngestWorker  *worker.IngestWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	pgDB, err := postgresClient.New(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}
	if err := pgDB.AutoMigrate(
		&model.Product{},
		&model.ProductAlias{},
		&model.ProductIngredient{},
		&model.ProductSection{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.IngestQueue)
	if err != nil {
		return nil, err
	}

	embedder := ai.NewClient(ai.Config{
		BaseURL:           cfg.Embedding.BaseURL,
		APIKey:            cfg.Embedding.APIKey,
		Model:             cfg.Embedding.Model,
		Dimensions:        cfg.Embedding.Dimensions,
		Timeout:           time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
		MaxRetries:        uint64(cfg.Embedding.MaxRetries),
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
	})

	qdrant := qdrantClient.New(qdrantClient.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
		Timeout:    time.Duration(cfg.Qdrant.TimeoutSeconds) * time.Second,
		MaxRetries: uint64(cfg.Qdrant.MaxRetries),
	})

	productRepo := repository.NewProductRepository(pgDB)
	aliasRepo := repository.NewAliasRepository(pgDB)
	ingredientRepo := repository.NewIngredientRepository(pgDB)
	sectionRepo := repository.NewSectionRepository(pgDB)

	enumCache := cache.NewEnumCache(redisCli, time.Duration(cfg.Redis.EnumTTLSeconds)*time.Second)
	reports := cache.NewReportStore(redisCli, time.Duration(cfg.Redis.JobTTLSeconds)*time.Second)

	pipeline := ingest.NewPipeline(
		productRepo,
		aliasRepo,
		ingredientRepo,
		sectionRepo,
		embedder,
		qdrant,
		ingest.Options{
			VectorDim:          cfg.Embedding.Dimensions,
			MaxChunkLen:        cfg.Ingest.MaxChunkLen,
			Workers:            cfg.Ingest.Workers,
			RecreateCollection: cfg.Qdrant.Recreate,
		},
	)
	pipeline.SetEnumCache(enumCache)

	searchService := search.NewService(embedder, qdrant, enumCache)
	jobPublisher := rabbitmqClient.NewJobPublisher(mqConn, cfg.RabbitMQ.IngestQueue)

	ingestWorker := worker.NewIngestWorker(mqConn, pipeline, reports, cfg.RabbitMQ.IngestQueue)
	if err := ingestWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start ingest worker failed: %w", err)
	}

	return &App{
		Config:        cfg,
		Postgres:      pgDB,
		Redis:         redisCli,
		MQConn:        mqConn,
		Qdrant:        qdrant,
		Pipeline:      pipeline,
		SearchService: searchService,
		JobPublisher:  jobPublisher,
		Reports:       reports,
		IngestWorker:  ingestWorker,
		StartedAt:     time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.IngestWorker != nil {
		a.IngestWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Postgres != nil {
		sqlDB, err := a.Postgres.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
