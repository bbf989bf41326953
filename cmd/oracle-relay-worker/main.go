package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	ocache "github.com/radieske/p2p-wager-platform-poc/internal/oracle/cache"
	"github.com/radieske/p2p-wager-platform-poc/internal/oracle/gateway"
	"github.com/radieske/p2p-wager-platform-poc/internal/oracle/relay"
	sharedcache "github.com/radieske/p2p-wager-platform-poc/internal/shared/cache"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/config"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/db"
	sharedkafka "github.com/radieske/p2p-wager-platform-poc/internal/shared/kafka"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/logger"
)

var (
	fulfillmentsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "oracle_relay_fulfillments_consumed_total",
		Help: "Fulfillments lidos do Kafka",
	})
	fulfillmentsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oracle_relay_fulfillments_applied_total",
		Help: "Fulfillments aplicados no gateway, por canal",
	}, []string{"kind"})
	relayErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oracle_relay_errors_total",
		Help: "Erros do relay por fase",
	}, []string{"phase"})
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(fulfillmentsConsumed, fulfillmentsApplied, relayErrors)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}

	// Kafka consumer: fulfillments do provedor de dados
	reader := sharedkafka.NewReader(cfg.KafkaBrokers, cfg.TopicOracleFulfillments, "oracle-relay")
	defer reader.Close()

	dlqWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicOracleFulfillmentsDLQ)
	defer dlqWriter.Close()

	store := gateway.NewPostgresStore(pg)
	// O worker só aplica fulfillments; nunca emite requisições, então não
	// precisa de publisher
	gw := gateway.New(log, store, nil, cfg.GameID)
	snapCache := ocache.NewSnapshotCache(rdb, 30*time.Second)

	// Servidor HTTP para métricas Prometheus e healthcheck
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			hctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			if err := pg.PingContext(hctx); err != nil {
				http.Error(w, "pg", http.StatusServiceUnavailable)
				return
			}
			if err := rdb.Ping(hctx).Err(); err != nil {
				http.Error(w, "redis", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		addr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("metrics/health", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, mux)
	}()

	worker := &relay.Relay{
		Log:     log,
		Reader:  reader,
		Gateway: gw,
		Cache:   snapCache,
		DLQ:     dlqWriter,

		OnConsumed: func() { fulfillmentsConsumed.Inc() },
		OnApplied:  func(kind string) { fulfillmentsApplied.WithLabelValues(kind).Inc() },
		OnError:    func(phase string) { relayErrors.WithLabelValues(phase).Inc() },
	}

	log.Info("oracle-relay-worker started",
		zap.String("consume", cfg.TopicOracleFulfillments),
		zap.String("dlq", cfg.TopicOracleFulfillmentsDLQ),
		zap.String("game_id", cfg.GameID),
	)

	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("relay run", zap.Error(err))
	}
	log.Info("oracle-relay-worker stopped")
}
