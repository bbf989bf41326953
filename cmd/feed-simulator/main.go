package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform-poc/internal/feedsim"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/config"
	sharedkafka "github.com/radieske/p2p-wager-platform-poc/internal/shared/kafka"
	"github.com/radieske/p2p-wager-platform-poc/internal/shared/logger"
	"github.com/radieske/p2p-wager-platform-poc/pkg/contracts/events"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	// Métricas Prometheus para monitoramento do provedor simulado
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feedsim_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
	fulfillmentsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedsim_fulfillments_sent_total",
		Help: "Fulfillments publicados, por canal",
	}, []string{"kind"})
)

// Representa uma conexão de cliente WebSocket
type clientConn struct {
	id   string
	conn *websocket.Conn
}

// hub gerencia os clientes conectados e faz broadcast dos fulfillments
type hub struct {
	mu      sync.RWMutex
	clients map[string]*clientConn
	log     *zap.Logger
}

func newHub(log *zap.Logger) *hub {
	return &hub{
		clients: make(map[string]*clientConn),
		log:     log,
	}
}

func (h *hub) add(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	wsConnections.Inc()
	h.log.Info("ws client connected", zap.String("client_id", c.id))
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		wsConnections.Dec()
		h.log.Info("ws client disconnected", zap.String("client_id", id))
	}
}

func (h *hub) broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg, _ := json.Marshal(v)
	for id, c := range h.clients {
		c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warn("ws write failed", zap.String("client_id", id), zap.Error(err))
			_ = c.conn.Close()
		}
	}
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(wsConnections, fulfillmentsSent)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	game := feedsim.NewGame(cfg.GameID)
	h := newHub(log)

	reader := sharedkafka.NewReader(cfg.KafkaBrokers, cfg.TopicOracleRequests, "feed-simulator")
	defer reader.Close()
	writer := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicOracleFulfillments)
	defer writer.Close()

	// Avança a partida simulada quando o autoplay está ligado
	if cfg.FeedSimAutoplay {
		go func() {
			ticker := time.NewTicker(time.Duration(cfg.FeedSimTickerSec) * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					game.Advance(rng)
					home, away, status := game.Snapshot()
					log.Info("game advanced",
						zap.Int64("home", home), zap.Int64("away", away), zap.String("status", status))
				}
			}
		}()
	}

	// Loop principal: responde cada requisição do oráculo com o estado
	// corrente da partida, após um atraso configurável (simula a latência
	// da rede provedora). Exatamente um fulfillment por request id.
	go func() {
		delay := time.Duration(cfg.FeedSimDelayMs) * time.Millisecond
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn("kafka read", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			var req events.OracleRequest
			if jerr := json.Unmarshal(m.Value, &req); jerr != nil {
				log.Error("unmarshal oracle request", zap.Error(jerr))
				continue
			}

			go func(req events.OracleRequest) {
				time.Sleep(delay)
				home, away, status := game.Snapshot()
				ful := events.OracleFulfillment{
					RequestID: req.RequestID,
					GameID:    req.GameID,
					Kind:      req.Kind,
					TsUnixMs:  time.Now().UnixMilli(),
				}
				switch req.Kind {
				case events.OracleKindScore:
					ful.HomeScore, ful.AwayScore = home, away
				case events.OracleKindStatus:
					ful.Status = status
				default:
					log.Warn("unknown request kind", zap.String("kind", req.Kind))
					return
				}
				b, _ := json.Marshal(ful)
				if err := sharedkafka.WriteJSON(ctx, writer, req.RequestID, b); err != nil {
					log.Error("publish fulfillment", zap.Error(err))
					return
				}
				fulfillmentsSent.WithLabelValues(req.Kind).Inc()
				h.broadcast(ful)
			}(req)
		}
	}()

	// ==== MUX PÚBLICO: /ws e endpoints de demo pra forçar estado
	appMux := http.NewServeMux()

	appMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("ws upgrade failed", zap.Error(err))
			return
		}
		id := fmt.Sprintf("%d", time.Now().UnixNano())
		c := &clientConn{id: id, conn: conn}
		h.add(c)

		go func() {
			defer func() {
				h.remove(id)
				_ = conn.Close()
			}()
			_ = conn.SetReadDeadline(time.Time{})
			for {
				// Lê e descarta mensagens do cliente para manter o socket limpo
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	appMux.HandleFunc("/sim/score", func(w http.ResponseWriter, r *http.Request) {
		var req feedsim.ForceScoreReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		game.SetScore(req.HomeScore, req.AwayScore)
		w.WriteHeader(http.StatusOK)
	})

	appMux.HandleFunc("/sim/status", func(w http.ResponseWriter, r *http.Request) {
		var req feedsim.ForceStatusReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		switch req.Status {
		case feedsim.StatusNotStarted, feedsim.StatusLive, feedsim.StatusFullTime:
		default:
			http.Error(w, "status must be NS, LIVE or FT", http.StatusBadRequest)
			return
		}
		game.SetStatus(req.Status)
		w.WriteHeader(http.StatusOK)
	})

	// ==== MUX DE MÉTRICAS (/healthz, /metrics)
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsMux.Handle("/metrics", promhttp.Handler())

	go func() {
		metricsAddr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("feed simulator (metrics) running",
			zap.String("addr", metricsAddr),
			zap.String("paths", "/healthz,/metrics"),
		)
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Fatal("metrics server error", zap.Error(err))
		}
	}()

	publicAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("feed simulator (public) running",
		zap.String("addr", publicAddr),
		zap.String("paths", "/ws,/sim/score,/sim/status"),
		zap.String("game_id", cfg.GameID),
	)
	if err := http.ListenAndServe(publicAddr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
