package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform-poc/internal/bets/engine"
	bhttp "github.com/radieske/p2p-wager-platform-poc/internal/bets/http"
	kpub "github.com/radieske/p2p-wager-platform-poc/internal/bets/producer"
	"github.com/radieske/p2p-wager-platform-poc/internal/bets/repo"
	"github.com/radieske/p2p-wager-platform-poc/internal/bets/treasury"
	ocache "github.com/radieske/p2p-wager-platform-poc/internal/oracle/cache"
	"github.com/radieske/p2p-wager-platform-poc/internal/oracle/gateway"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/config"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/db"
	sharedkafka "github.com/radieske/p2p-wager-platform-poc/internal/shared/kafka"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/logger"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	// Kafka writers (bet_events e oracle_requests)
	betWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetEvents)
	defer betWriter.Close()
	oracleWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicOracleRequests)
	defer oracleWriter.Close()

	// deps
	book := repo.NewPostgres(pg)
	oracleStore := gateway.NewPostgresStore(pg)
	publ := kpub.NewKafkaPublisher(betWriter, oracleWriter)
	gw := gateway.New(log, oracleStore, publ, cfg.GameID)

	// Leitura do snapshot: cache Redis escrito pelo relay worker, com
	// fallback pro store
	snapReader := &ocache.Reader{
		Cache:  ocache.NewSnapshotCache(rdb, 30*time.Second),
		Store:  oracleStore,
		GameID: cfg.GameID,
	}

	bank := treasury.New(cfg.TreasuryURL)

	eng := engine.New(log, book, snapReader, bank, publ, engine.Params{
		GameID:          cfg.GameID,
		StakeAsset:      cfg.StakeAsset,
		UnitValueCents:  cfg.UnitValueCents,
		ExecutionFeeBps: cfg.ExecutionFeeBps,
		FeeRecipient:    cfg.FeeRecipient,
	})

	// HTTP público
	api := bhttp.NewServer(log, eng, gw)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.PingContext(r.Context()); err != nil {
			http.Error(w, "pg", http.StatusServiceUnavailable)
			return
		}
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() {
		addr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("metrics/health", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, metricsMux)
	}()

	log.Info("bets-service listening",
		zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)),
		zap.String("game_id", cfg.GameID),
		zap.Int64("fee_bps", cfg.ExecutionFeeBps),
	)
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
