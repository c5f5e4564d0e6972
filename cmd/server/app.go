package main

import (
	"context"
	"fmt"

	"assistant/internal/catalog"
	"assistant/internal/config"
	"assistant/internal/repository"
	"assistant/internal/service"
	"assistant/internal/store"

	"go.uber.org/zap"
)

// app is the assembled assistant shared by serve and chat
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	catalog    *catalog.Catalog
	classifier *service.IntentClassifier
	contexts   *store.ContextStore
	chat       *service.ChatService
	repo       *repository.PostgresRepository // nil when persistence is off
	cache      service.VectorCache
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("Intent catalog loaded",
		zap.Int("intents", cat.Len()),
		zap.Int("phrases", cat.PhraseCount()),
		zap.String("path", cfg.Catalog.Path))

	a := &app{cfg: cfg, logger: logger, catalog: cat}

	var turns service.TurnStore
	if cfg.PostgreSQL.Enabled {
		repo, err := repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
		)
		if err == nil {
			err = repo.EnsureSchema(ctx)
			if err != nil {
				_ = repo.Close()
			}
		}
		if err != nil {
			// Persistence is optional; run in memory only
			logger.Warn("PostgreSQL unavailable, turn log and vector cache disabled", zap.Error(err))
		} else {
			logger.Info("Connected to PostgreSQL database")
			a.repo, a.cache, turns = repo, repo, repo
		}
	}

	embedder := newEmbedder(&cfg.Embedding, logger)
	a.classifier = service.NewIntentClassifier(embedder, service.ClassifierOptions{
		Threshold: cfg.Classifier.Threshold,
		Timeout:   cfg.Classifier.Timeout,
	}, logger)

	a.contexts = store.NewContextStore(cfg.Context.MaxUsers, cfg.Context.TTL)
	a.chat = service.NewChatService(
		a.classifier,
		service.NewEntityExtractor(logger),
		service.NewResponseComposer(cat, service.NewReplySelector(cfg.Reply.Strategy, cfg.Reply.Seed)),
		a.contexts,
		turns,
		logger,
	)
	return a, nil
}

// newEmbedder picks the embedding backend named by the configuration
func newEmbedder(cfg *config.EmbeddingConfig, logger *zap.Logger) service.Embedder {
	switch cfg.Provider {
	case "openai":
		return service.NewOpenAIEmbedder(cfg, logger)
	case "none":
		logger.Warn("Embedding provider disabled, intents will not be detected")
		return service.NewUnavailableEmbedder()
	default:
		return service.NewLexicalEmbedder(cfg.Dimensions)
	}
}

// warm builds the intent table once, for short-lived commands
func (a *app) warm(ctx context.Context) error {
	if err := a.classifier.Warm(ctx, a.catalog, a.cache, a.cfg.Embedding.WarmConcurrency); err != nil {
		return fmt.Errorf("warm intent classifier: %w", err)
	}
	return nil
}

func (a *app) Close() {
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.logger.Warn("Failed to close database", zap.Error(err))
		}
	}
}
