// cmd/marketplace-service/main.go
package main

import (
	"context"

	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"bazaar/internal/pkg/auth"
	"bazaar/internal/pkg/bootstrap"
	"bazaar/internal/pkg/cache"
	"bazaar/internal/pkg/httpclient"
	"bazaar/internal/pkg/idempotency"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/pkg/redis"
	cartapp "bazaar/internal/service/cart/application"
	cartinfra "bazaar/internal/service/cart/infrastructure"
	cartifaces "bazaar/internal/service/cart/interfaces"
	catalogapp "bazaar/internal/service/catalog/application"
	cataloginfra "bazaar/internal/service/catalog/infrastructure"
	catalogifaces "bazaar/internal/service/catalog/interfaces"
	"bazaar/internal/service/pricing"
	promoapp "bazaar/internal/service/promotion/application"
	promoinfra "bazaar/internal/service/promotion/infrastructure"
	"bazaar/internal/service/promotion/infrastructure/adapter"
	"bazaar/internal/service/promotion/infrastructure/rule"
	promoifaces "bazaar/internal/service/promotion/interfaces"
)

const serviceName = "marketplace-service"

func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()
	logger.Init(serviceName)

	ctx := context.Background()
	tracer := otel.Tracer(serviceName)

	// 存储
	db, err := gorm.Open(mysql.Open(cfg.Infra.Mysql.DSN), &gorm.Config{})
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to connect to mysql")
	}
	if err := db.AutoMigrate(
		&cataloginfra.ProductModel{}, &cataloginfra.VariationModel{},
		&promoinfra.DealModel{}, &promoinfra.DealItemModel{}, &promoinfra.CouponModel{},
		&cartinfra.CartModel{}, &cartinfra.CartItemModel{}, &cartinfra.WishlistItemModel{},
		&auth.PrincipalModel{},
	); err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to migrate schema")
	}

	redisClient, err := redis.NewClient(ctx, cfg.Infra.Redis.Addr, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to connect to redis")
	}

	// 二级缓存：共享 L2 + 本进程 L1 + 跨实例失效广播
	local := cache.NewLocal(cfg.App.Cache.L1TTL)
	bus := mq.NewInvalidationBus(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.InvalidationTopic)
	tiered := cache.NewTiered(local, redisClient, bus)

	consumeCtx, stopConsumer := context.WithCancel(ctx)
	go mq.ConsumeInvalidations(consumeCtx, cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.InvalidationTopic,
		serviceName+"-"+bus.InstanceID(), tiered.HandleRemoteInvalidation)

	// 仓储
	productRepo := cataloginfra.NewGormProductRepository(db)
	dealRepo := promoinfra.NewGormDealRepository(db)
	couponRepo := promoinfra.NewGormCouponRepository(db)
	cartRepo := cartinfra.NewGormCartRepository(db)
	wishlistRepo := cartinfra.NewGormWishlistRepository(db)
	principalRepo := auth.NewGormPrincipalRepository(db)

	// 定价链：注册表 → 解析器
	registry := promoapp.NewRegistry(dealRepo, tracer)
	resolver := pricing.NewResolver(registry, tracer)

	ruleEngine, err := rule.NewCELRuleEngine()
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to build coupon rule engine")
	}
	uploader := adapter.NewUploadHTTPAdapter(httpclient.NewClient(tracer), cfg.Infra.Upload.BaseURL)

	// 应用服务
	catalogService := catalogapp.NewService(productRepo, resolver, tiered, tracer, cfg.App.Cache.L1TTL, cfg.App.Cache.L2TTL)
	adminService := promoapp.NewAdminService(dealRepo, couponRepo, uploader, tiered, tracer)
	queryService := promoapp.NewQueryService(dealRepo, tiered, tracer, cfg.App.Cache.L1TTL, cfg.App.Cache.L2TTL)
	cartService := cartapp.NewService(cartRepo, wishlistRepo, productRepo, couponRepo, ruleEngine, resolver, tracer,
		cfg.App.Cart.MaxQuantityPerLine, cfg.App.Cart.GuestCartTTL)

	guard := idempotency.NewGuard(redisClient, cfg.App.Idempotency.LockTTL)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.App.Port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			catalogifaces.NewCatalogHandler(catalogService).RegisterRoutes(appCtx.Mux)
			promoifaces.NewPromotionHandler(adminService, queryService).RegisterRoutes(appCtx.Mux)
			cartifaces.NewCartHandler(cartService, guard, principalRepo).RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: []func(ctx context.Context){
			func(context.Context) { stopConsumer() },
			func(context.Context) {
				if err := bus.Close(); err != nil {
					logger.Logger().Error().Err(err).Msg("error closing invalidation bus")
				}
			},
			func(context.Context) { local.Close() },
			func(context.Context) {
				if err := redisClient.Close(); err != nil {
					logger.Logger().Error().Err(err).Msg("error closing redis client")
				}
			},
		},
	})
}
