package main

import (
	"time"

	"go.uber.org/zap"

	"incubatorhub/config"
	"incubatorhub/internal/db"
	"incubatorhub/internal/mq"
	"incubatorhub/internal/mqhandler"
	"incubatorhub/internal/repository"
	redisclient "incubatorhub/internal/redis"
	"incubatorhub/internal/util"
)

func main() {
	// 1. Load config
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting audit worker...")

	// 2. Init Redis (event dedup)
	rdb := redisclient.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, time.Hour)

	// 3. Init DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	logger.Info("Database connection established")

	// 4. Repositories and handlers
	auditRepo := repository.NewAuditLogRepository(dbConn, logger)
	auditHandler := mqhandler.NewDisbursementAuditHandler(auditRepo, deduper, logger)

	// 5. Consumer over every disbursement workflow event
	consumer, err := mq.NewConsumer(cfg.MQ.URL, "grant.disbursement.audit.q", "grant.disbursement.*", logger)
	if err != nil {
		logger.Fatal("failed to init audit consumer", zap.Error(err))
	}
	consumer.SetHandler(auditHandler.HandleDisbursementEvent)
	defer consumer.Close()

	go func() {
		if err := consumer.StartConsuming(); err != nil {
			logger.Fatal("audit consumer failed", zap.Error(err))
		}
	}()

	logger.Info("Audit worker ready to process disbursement events")

	// Keep worker running
	select {}
}
