package main

import (
	"log"
	"time"

	"incubatorhub/config"
	"incubatorhub/internal/api"
	"incubatorhub/internal/db"
	"incubatorhub/internal/mq"
	redisclient "incubatorhub/internal/redis"
	"incubatorhub/internal/repository"
	"incubatorhub/internal/service/grant"
	"incubatorhub/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg := config.Load()

	zlog := logger.NewLogger()
	defer zlog.Sync()

	// 2. Init DB
	dbConn, err := db.NewConnection(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// 3. Init Redis
	rdb := redisclient.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	// 4. Init RabbitMQ Producer
	producer, err := mq.NewProducer(cfg.MQ.URL)
	if err != nil {
		log.Fatalf("failed to init producer: %v", err)
	}
	guarded := mq.NewGuardedProducer(producer)
	defer guarded.Close()

	// 5. Init repositories
	catalogRepo := repository.NewCatalogRepository(dbConn, zlog)
	milestoneRepo := repository.NewMilestoneRepository(dbConn, zlog)

	// 6. Init services
	overviewCache := redisclient.NewOverviewCache(
		rdb,
		time.Duration(cfg.Grants.OverviewCacheTTLSeconds)*time.Second,
		zlog,
	)
	grantService := grant.NewService(
		catalogRepo,
		milestoneRepo,
		guarded,
		overviewCache,
		grant.Policy{
			StrictSanctionCap:     cfg.Grants.StrictSanctionCap,
			IneligibleTagKeywords: cfg.Grants.IneligibleTags,
		},
		zlog,
	)

	// 7. Init handlers
	grantHandler := api.NewGrantHandler(grantService)
	reportHandler := api.NewReportHandler(grantService)
	portfolioHandler := api.NewPortfolioHandler(grantService)

	// 8. Init router
	router := api.NewRouter(grantHandler, reportHandler, portfolioHandler)

	// 9. Run server
	if err := router.Run(cfg.Server.Port); err != nil {
		zlog.Fatal("server start failed", zap.Error(err))
	}
}
