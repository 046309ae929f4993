package main

import (
	"context"
	"fmt"

	"github.com/newthinker/insight/internal/alert"
	"github.com/newthinker/insight/internal/app"
	"github.com/newthinker/insight/internal/cache"
	"github.com/newthinker/insight/internal/collector"
	"github.com/newthinker/insight/internal/collector/yahoo"
	"github.com/newthinker/insight/internal/config"
	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/llm/factory"
	"github.com/newthinker/insight/internal/metrics"
	"github.com/newthinker/insight/internal/model"
	"github.com/newthinker/insight/internal/news"
	"github.com/newthinker/insight/internal/news/googlenews"
	"github.com/newthinker/insight/internal/notifier"
	"github.com/newthinker/insight/internal/notifier/email"
	"github.com/newthinker/insight/internal/notifier/telegram"
	"github.com/newthinker/insight/internal/notifier/webhook"
	"github.com/newthinker/insight/internal/sentiment"
	"github.com/newthinker/insight/internal/storage/artifact"
	"github.com/newthinker/insight/internal/storage/history"
	"go.uber.org/zap"
)

// wiring is the wired application plus what must be released on exit.
type wiring struct {
	app     *app.App
	metrics *metrics.Registry
	closers []func() error
}

func (r *wiring) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// buildRuntime wires providers, model sources, cache and scorer from cfg.
func buildRuntime(ctx context.Context, cfg *config.Config, log *zap.Logger) (*wiring, error) {
	rt := &wiring{}
	if cfg.Metrics.Enabled {
		rt.metrics = metrics.NewRegistry()
	}

	registry := collector.NewRegistry()
	registry.Register(yahoo.New(yahoo.Config{
		BaseURL: cfg.Collector.BaseURL,
		Timeout: cfg.Collector.Timeout,
	}))
	col, err := registry.Lookup(cfg.Collector.Provider)
	if err != nil {
		return nil, err
	}

	deps := app.Deps{
		Collector: col,
		Metrics:   rt.metrics,
	}

	switch cfg.News.Provider {
	case "googlenews":
		deps.News = news.NewCachedProvider(googlenews.New(googlenews.Config{
			BaseURL:     cfg.News.BaseURL,
			QuerySuffix: cfg.News.QuerySuffix,
			Language:    cfg.News.Language,
			Country:     cfg.News.Country,
			Window:      cfg.News.Window,
			Timeout:     cfg.News.Timeout,
		}), cfg.Cache.SentimentTTL)
	case "", "none":
		log.Warn("no news provider configured, sentiment is disabled")
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown news provider %q", cfg.News.Provider))
	}

	models, err := buildModels(cfg.Models, log)
	if err != nil {
		return nil, err
	}
	deps.Models = models

	store, closeStore, err := buildCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	deps.Cache = store
	if closeStore != nil {
		rt.closers = append(rt.closers, closeStore)
	}

	if cfg.Sentiment.Scorer == "llm" {
		provider, err := factory.New(cfg.LLM)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("creating LLM provider: %w", err)
		}
		deps.Scorer = sentiment.NewLLMScorer(provider)
		log.Info("scoring sentiment with LLM",
			zap.String("provider", provider.Name()), zap.Duration("timeout", cfg.LLM.Timeout))
	}

	if cfg.Alerts.Enabled {
		evaluator, store, err := buildAlerts(cfg, log)
		if err != nil {
			rt.Close()
			return nil, err
		}
		deps.Alerts = evaluator
		deps.History = store
	}

	a, err := app.New(cfg, deps, log.Named("app"))
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.app = a
	return rt, nil
}

// buildAlerts registers the enabled notifiers and builds the rule evaluator
// with an in-memory alert history.
func buildAlerts(cfg *config.Config, log *zap.Logger) (*alert.Evaluator, history.Store, error) {
	notifiers, err := buildNotifiers(cfg.Notifiers)
	if err != nil {
		return nil, nil, err
	}
	if notifiers.Len() == 0 {
		log.Warn("alerts enabled without notifiers, fired alerts are only recorded")
	}

	store := history.NewMemoryStore(cfg.Alerts.HistorySize)
	evaluator := alert.NewEvaluator(cfg.Alerts.Rules, notifiers, store, log.Named("alerts"))
	if cfg.Alerts.Cooldown > 0 {
		evaluator.SetCooldown(cfg.Alerts.Cooldown)
	}
	log.Info("alerts enabled",
		zap.Int("rules", len(cfg.Alerts.Rules)),
		zap.Strings("notifiers", notifiers.Names()),
	)
	return evaluator, store, nil
}

func buildNotifiers(cfgs map[string]config.NotifierConfig) (*notifier.Registry, error) {
	registry := notifier.NewRegistry()
	for name, nc := range cfgs {
		if !nc.Enabled {
			continue
		}

		var (
			n   notifier.Notifier
			err error
		)
		switch name {
		case "telegram":
			n, err = telegram.New(nc.BotToken, nc.ChatID)
		case "webhook":
			n, err = webhook.New(nc.URL, nc.Headers)
		case "email":
			n, err = email.New(nc.Host, nc.Port, nc.Username, nc.Password, nc.From, nc.To)
		default:
			err = core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown notifier %q", name))
		}
		if err != nil {
			return nil, err
		}
		if err := registry.Register(n); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// buildModels chains the artifact store and the remote endpoint. A nil
// Source means every forecast uses the trend estimator.
func buildModels(cfg config.ModelsConfig, log *zap.Logger) (model.Source, error) {
	var chain model.Chain

	storage, err := openArtifacts(cfg.Storage)
	if err != nil {
		return nil, err
	}
	if storage != nil {
		chain = append(chain, model.NewStore(storage, cfg.Generic, log.Named("models")))
	}

	if cfg.Remote.Endpoint != "" {
		remote, err := model.NewRemote(cfg.Remote.Endpoint, cfg.Remote.Name, cfg.Remote.Lookback, cfg.Remote.Timeout)
		if err != nil {
			return nil, err
		}
		chain = append(chain, model.RemoteSource{Model: remote})
	}

	if len(chain) == 0 {
		return nil, nil
	}
	return chain, nil
}

// openArtifacts returns nil storage for type "none".
func openArtifacts(cfg config.StorageConfig) (artifact.Storage, error) {
	switch cfg.Type {
	case "", "localfs":
		return artifact.NewLocalFS(cfg.Path)
	case "s3":
		return artifact.NewS3(artifact.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	case "none":
		return nil, nil
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown model storage %q", cfg.Type))
	}
}

func buildCache(ctx context.Context, cfg config.CacheConfig) (cache.Store, func() error, error) {
	switch cfg.Backend {
	case "", "memory":
		return cache.NewMemoryStore(cfg.MaxEntries), nil, nil
	case "redis":
		rs, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return rs, rs.Close, nil
	case "none":
		return nil, nil, nil
	default:
		return nil, nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown cache backend %q", cfg.Backend))
	}
}
