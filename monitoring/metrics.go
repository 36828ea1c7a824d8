// Package monitoring exposes the engine's per-tick metrics over
// Prometheus and a small JSON status API, grounded on the teacher's
// chain/monitoring/metrics.go MetricsServer.
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"valuemesh/engine"
)

// Config configures the metrics server's listen address and HTTP paths.
type Config struct {
	ListenAddr  string
	MetricsPath string
	HealthPath  string
}

// DefaultConfig mirrors the teacher's defaults (":9090", "/metrics", "/health").
func DefaultConfig() Config {
	return Config{ListenAddr: ":9090", MetricsPath: "/metrics", HealthPath: "/health"}
}

// Server scrapes one Engine's tick-by-tick state into Prometheus gauges
// and serves them alongside a health endpoint, the way the teacher's
// MetricsServer scrapes blockchain/consensus/network state.
type Server struct {
	cfg      Config
	registry *prometheus.Registry

	goldPrice          prometheus.Gauge
	pegDeviation       prometheus.Gauge
	networkVelocity    prometheus.Gauge
	activeValue        prometheus.Gauge
	volatility         prometheus.Gauge
	surgeMultiplier    prometheus.Gauge
	circuitBreakerUp   prometheus.Gauge
	tierFeeRate        *prometheus.GaugeVec
	tierPacketCount    *prometheus.GaugeVec
	settlementsTotal   prometheus.Counter
	revertsTotal       prometheus.Counter
	dissolvedTotal     prometheus.Counter
	feesCollectedTotal prometheus.Counter
	demurrageTotal     prometheus.Counter

	server *http.Server

	mu        sync.RWMutex
	lastTick  engine.TickResult
	lastAt    time.Time
	startedAt time.Time
	running   bool
}

// NewServer builds a Server with a fresh Prometheus registry.
func NewServer(cfg Config) *Server {
	s := &Server{cfg: cfg, registry: prometheus.NewRegistry(), startedAt: time.Now()}
	s.initMetrics()
	s.setupRouter()
	return s
}

func (s *Server) initMetrics() {
	s.goldPrice = prometheus.NewGauge(prometheus.GaugeOpts{Name: "valuemesh_gold_price", Help: "Current gold price input"})
	s.pegDeviation = prometheus.NewGauge(prometheus.GaugeOpts{Name: "valuemesh_peg_deviation", Help: "(price - target) / target"})
	s.networkVelocity = prometheus.NewGauge(prometheus.GaugeOpts{Name: "valuemesh_network_velocity", Help: "Turnover / active value"})
	s.activeValue = prometheus.NewGauge(prometheus.GaugeOpts{Name: "valuemesh_active_value", Help: "Value currently in node buffers or in transit"})
	s.volatility = prometheus.NewGauge(prometheus.GaugeOpts{Name: "valuemesh_volatility", Help: "Derived [0,1] price volatility signal"})
	s.surgeMultiplier = prometheus.NewGauge(prometheus.GaugeOpts{Name: "valuemesh_surge_multiplier", Help: "Governor's current settlement payout surge multiplier"})
	s.circuitBreakerUp = prometheus.NewGauge(prometheus.GaugeOpts{Name: "valuemesh_circuit_breaker_active", Help: "1 if the conservation circuit breaker is tripped"})

	s.tierFeeRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "valuemesh_tier_fee_rate", Help: "Current effective fee rate by tier"}, []string{"tier"})
	s.tierPacketCount = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "valuemesh_tier_packet_count", Help: "Non-terminal packet count by tier"}, []string{"tier"})

	s.settlementsTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "valuemesh_settlements_total", Help: "Cumulative settlements observed"})
	s.revertsTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "valuemesh_reverts_total", Help: "Cumulative TTL/orbit reverts observed"})
	s.dissolvedTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "valuemesh_dissolved_total", Help: "Cumulative dissolutions observed"})
	s.feesCollectedTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "valuemesh_fees_collected_total", Help: "Cumulative fees collected, in gold-grams"})
	s.demurrageTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "valuemesh_demurrage_burned_total", Help: "Cumulative demurrage burned, in gold-grams"})

	collectors := []prometheus.Collector{
		s.goldPrice, s.pegDeviation, s.networkVelocity, s.activeValue, s.volatility,
		s.surgeMultiplier, s.circuitBreakerUp, s.tierFeeRate, s.tierPacketCount,
		s.settlementsTotal, s.revertsTotal, s.dissolvedTotal, s.feesCollectedTotal, s.demurrageTotal,
	}
	for _, c := range collectors {
		s.registry.MustRegister(c)
	}
}

func (s *Server) setupRouter() {
	router := mux.NewRouter()
	router.Path(s.cfg.MetricsPath).Handler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	router.Path(s.cfg.HealthPath).HandlerFunc(s.healthHandler)
	router.Path("/status").HandlerFunc(s.statusHandler)
	s.server = &http.Server{Addr: s.cfg.ListenAddr, Handler: router}
}

// Observe folds one completed tick into the metric set. The per-tick
// event counts in TickResult.Counts are added to the cumulative counters
// as they are; fees and demurrage are added as the difference from the
// previously observed Totals, so callers must pass monotonic totals, as
// TickResult.Totals already is within one run (spec.md §3 WorldState
// counters are monotonic).
func (s *Server) Observe(tr engine.TickResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.goldPrice.Set(tr.GoldPrice)
	s.pegDeviation.Set(tr.PegDeviation)
	s.networkVelocity.Set(tr.NetworkVelocity)
	s.activeValue.Set(tr.ActiveValue.Float64())
	s.volatility.Set(tr.Volatility)
	s.surgeMultiplier.Set(tr.SurgeMultiplier)
	if tr.CircuitBreakerActive {
		s.circuitBreakerUp.Set(1)
	} else {
		s.circuitBreakerUp.Set(0)
	}

	for tier, rate := range tr.TierFeeRates {
		s.tierFeeRate.WithLabelValues(tier.String()).Set(rate)
	}
	for tier, count := range tr.TierDistribution {
		s.tierPacketCount.WithLabelValues(tier.String()).Set(float64(count))
	}

	if d := tr.Counts.Settlement; d > 0 {
		s.settlementsTotal.Add(float64(d))
	}
	if d := tr.Counts.Revert; d > 0 {
		s.revertsTotal.Add(float64(d))
	}
	if d := tr.Counts.Dissolved; d > 0 {
		s.dissolvedTotal.Add(float64(d))
	}

	s.feesCollectedTotal.Add(tr.Totals.FeesCollected.Sub(s.lastTick.Totals.FeesCollected).Float64())
	s.demurrageTotal.Add(tr.Totals.DemurrageBurned.Sub(s.lastTick.Totals.DemurrageBurned).Float64())

	s.lastTick = tr
	s.lastAt = time.Now()
}

// Start begins serving HTTP in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("monitoring: server already running")
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		log.Printf("monitoring: serving metrics on %s%s", s.cfg.ListenAddr, s.cfg.MetricsPath)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("monitoring: server error: %v", err)
		}
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.server.Shutdown(ctx)
	s.running = false
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := http.StatusOK
	body := map[string]interface{}{"status": "healthy", "uptime_seconds": time.Since(s.startedAt).Seconds()}
	if s.lastTick.CircuitBreakerActive {
		status = http.StatusServiceUnavailable
		body["status"] = "circuit_breaker_tripped"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.lastTick)
}
