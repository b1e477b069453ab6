//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"storymagic-api/internal/application/quota"
	"storymagic-api/internal/application/story"
	"storymagic-api/internal/config"
	"storymagic-api/internal/domain/repository"
	"storymagic-api/internal/infrastructure/imagegen"
	"storymagic-api/internal/infrastructure/llm"
	"storymagic-api/internal/infrastructure/persistence/postgres"
	"storymagic-api/internal/infrastructure/persistence/redis"
	"storymagic-api/internal/infrastructure/storage"
	"storymagic-api/internal/interfaces/http/handler"
	"storymagic-api/internal/interfaces/http/middleware"
	"storymagic-api/internal/interfaces/http/router"
	"storymagic-api/internal/workflow/chain"
	workflowport "storymagic-api/internal/workflow/port"
)

// BootstrapDeps bootstrap 所需的最小依赖集（仅 PostgreSQL）
type BootstrapDeps struct {
	PgClient *postgres.Client
	TierRepo *postgres.SubscriptionTierRepository
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		StorageSet,
		WorkflowSet,
		StorySet,
		RouterSet,
	)
	return nil, nil, nil
}

// InitializeBootstrap 初始化 bootstrap 依赖（仅 PostgreSQL）
func InitializeBootstrap(ctx context.Context, cfg *config.Config) (*BootstrapDeps, func(), error) {
	wire.Build(
		PostgresSet,
		wire.Struct(new(BootstrapDeps), "*"),
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewUserRepository,
	postgres.NewSubscriptionTierRepository,
	postgres.NewStoryRepository,
	postgres.NewContinuationRepository,
	postgres.NewDailyUsageRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	// 接口绑定
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.UserRepository), new(*postgres.UserRepository)),
	wire.Bind(new(repository.SubscriptionTierRepository), new(*postgres.SubscriptionTierRepository)),
	wire.Bind(new(repository.StoryRepository), new(*postgres.StoryRepository)),
	wire.Bind(new(repository.ContinuationRepository), new(*postgres.ContinuationRepository)),
	wire.Bind(new(repository.DailyUsageRepository), new(*postgres.DailyUsageRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// StorageSet 对象存储提供者集合
var StorageSet = wire.NewSet(
	storage.NewR2Store,
	wire.Bind(new(story.ObjectStore), new(*storage.R2Store)),
)

// WorkflowSet LLM 工作流提供者集合
var WorkflowSet = wire.NewSet(
	llm.NewEinoFactory,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	chain.NewStoryChain,
	chain.NewContinuationChain,
	wire.Bind(new(story.StoryChainInvoker), new(*chain.StoryChain)),
	wire.Bind(new(story.ContinuationChainInvoker), new(*chain.ContinuationChain)),
)

// StorySet 故事应用服务提供者集合
var StorySet = wire.NewSet(
	imagegen.NewClient,
	imagegen.NewCompressor,
	wire.Bind(new(story.ImageGenerator), new(*imagegen.Client)),
	wire.Bind(new(story.ImageCompressor), new(*imagegen.Compressor)),
	story.NewIllustrator,
	quota.NewStoryQuotaChecker,
	quota.NewContinuationQuotaChecker,
	story.NewGenerator,
	story.NewContinuer,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideAuthConfig,
	handler.NewHealthHandler,
	handler.NewAuthHandler,
	handler.NewUserHandler,
	handler.NewTierHandler,
	handler.NewStoryHandler,
	handler.NewContinuationHandler,
	handler.NewGenerateHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideAuthConfig 提供认证配置
func ProvideAuthConfig(cfg *config.Config) middleware.AuthConfig {
	return middleware.AuthConfig{
		Secret:    cfg.Security.JWT.Secret,
		Issuer:    cfg.Security.JWT.Issuer,
		SkipPaths: middleware.DefaultSkipPaths,
		Enabled:   true,
	}
}
