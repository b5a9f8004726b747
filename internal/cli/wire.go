package cli

import (
	"context"

	"promo-quiz-service/internal/app"
	"promo-quiz-service/internal/config"
	"promo-quiz-service/internal/infra/blob"
	"promo-quiz-service/internal/infra/file"
	"promo-quiz-service/internal/infra/memory"
	"promo-quiz-service/internal/infra/redis"
	"promo-quiz-service/internal/logger"
	"github.com/rs/zerolog"
)

// services is the wired application graph shared by the subcommands.
type services struct {
	cfg         config.Config
	log         zerolog.Logger
	conn        *redis.Conn
	selector    *app.Selector
	records     *app.RecordStore
	content     *app.ContentService
	submissions *app.SubmissionService
	uploads     *app.UploadService
	localAssets *file.AssetStore
}

func loadServices(ctx context.Context, configPath string, ephemeral bool) (*services, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)
	return buildServices(ctx, cfg, log, ephemeral)
}

func buildServices(ctx context.Context, cfg config.Config, log zerolog.Logger, ephemeral bool) (*services, error) {
	redis.SetLibraryLogger(log)
	conn := redis.NewConnWithOptions(cfg.Redis.URL, redis.Options{
		DialTimeout: cfg.Redis.DialTimeout,
		Timeout:     cfg.Redis.Timeout,
	}, log)
	blobStore, err := blob.NewStore(blob.Config{
		Endpoint:  cfg.Blob.Endpoint,
		AccessKey: cfg.Blob.AccessKey,
		SecretKey: cfg.Blob.SecretKey,
		Bucket:    cfg.Blob.Bucket,
		UseSSL:    cfg.Blob.UseSSL,
		PublicURL: cfg.Blob.PublicURL,
		Prefix:    cfg.Blob.Prefix,
	}, log)
	if err != nil {
		return nil, err
	}
	if err := blobStore.EnsureBucket(ctx); err != nil {
		log.Warn().Err(err).Msg("blob bucket check failed")
	}

	localAssets := file.NewAssetStore(cfg.Storage.PublicDir, cfg.Server.PublicBaseURL)
	selCfg := app.SelectorConfig{
		KeyValue:    redis.NewRecordBackend(conn, cfg.Redis.KeyPrefix),
		Blob:        blobStore,
		File:        file.NewRecordBackend(cfg.Storage.DataDir),
		BlobAssets:  blobStore,
		LocalAssets: localAssets,
	}
	if ephemeral {
		selCfg.Ephemeral = memory.NewRecordBackend()
	}
	selector := app.NewSelector(selCfg)

	log.Info().
		Bool("keyValue", selector.KeyValueAvailable()).
		Bool("blob", selector.BlobConfigured()).
		Bool("ephemeral", ephemeral).
		Str("dataDir", cfg.Storage.DataDir).
		Str("assets", selector.AssetStore().Name()).
		Msg("storage selected")

	records := app.NewRecordStore(selector, log)
	content := app.NewContentService(records, log)
	submissions := app.NewSubmissionService(records, content, app.NewSubmissionFeed(), log)
	uploads := app.NewUploadService(selector, content, cfg.MaxUploadBytes(), log)

	return &services{
		cfg:         cfg,
		log:         log,
		conn:        conn,
		selector:    selector,
		records:     records,
		content:     content,
		submissions: submissions,
		uploads:     uploads,
		localAssets: localAssets,
	}, nil
}

func (s *services) Close() {
	if err := s.conn.Close(); err != nil {
		s.log.Warn().Err(err).Msg("close redis")
	}
}
