package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"valuemesh/config"
	"valuemesh/monitoring"

	"valuemesh/benchmark"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "meshbench",
	Short: "Value-transfer mesh Monte-Carlo benchmark runner",
	Long:  "Runs the value-transfer mesh simulation engine across many seeded repetitions and reports aggregate statistics",
	Run:   runBenchmark,
}

var (
	scenarioFile string
	nodeCount    int
	ticks        int64
	goldPrice    float64
	demand       float64
	panicLevel   float64
	seed         uint64
	runs         int
	serveMetrics bool
	metricsAddr  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&scenarioFile, "scenario", "", "scenario config file (JSON)")
	rootCmd.PersistentFlags().IntVar(&nodeCount, "node-count", 0, "override node count")
	rootCmd.PersistentFlags().Int64Var(&ticks, "ticks", 0, "override tick count")
	rootCmd.PersistentFlags().Float64Var(&goldPrice, "gold-price", 0, "override base gold price")
	rootCmd.PersistentFlags().Float64Var(&demand, "demand", 0, "override base demand multiplier")
	rootCmd.PersistentFlags().Float64Var(&panicLevel, "panic", 0, "override base panic level")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "override base PRNG seed")
	rootCmd.PersistentFlags().IntVar(&runs, "runs", 0, "override Monte-Carlo run count")
	rootCmd.PersistentFlags().BoolVar(&serveMetrics, "serve-metrics", false, "expose a Prometheus /metrics endpoint while the benchmark runs")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", ":9090", "listen address for --serve-metrics")

	viper.BindPFlags(rootCmd.PersistentFlags())
}

func runBenchmark(cmd *cobra.Command, args []string) {
	log.Printf("meshbench %s (commit %s)", Version, Commit)

	cfg := config.DefaultScenarioConfig()
	if scenarioFile != "" {
		loaded, err := config.LoadScenarioConfig(scenarioFile)
		if err != nil {
			log.Fatalf("failed to load scenario config: %v", err)
		}
		cfg = loaded
	}
	config.BindFlags(viper.GetViper(), cfg)

	scenario := cfg.ToScenario()
	scenario.PassCriteria = []benchmark.PassCriterion{
		{Name: "positive-output", Eval: func(r benchmark.RunResult) bool {
			return r.FinalTick.Totals.Output.IsPositive()
		}},
		{Name: "breaker-never-trips", Eval: func(r benchmark.RunResult) bool {
			return r.Conservation.BreakerTrips() == 0
		}},
	}

	var metricsServer *monitoring.Server
	if serveMetrics {
		metricsServer = monitoring.NewServer(monitoring.Config{
			ListenAddr:  metricsAddr,
			MetricsPath: "/metrics",
			HealthPath:  "/health",
		})
		if err := metricsServer.Start(); err != nil {
			log.Printf("failed to start metrics server: %v", err)
		} else {
			defer metricsServer.Stop()
		}
	}

	log.Printf("running %d-seed Monte-Carlo sweep of %q (nodes=%d ticks=%d)", cfg.RunCount, cfg.Name, cfg.NodeCount, cfg.Ticks)
	report := benchmark.RunMonteCarlo(scenario, cfg.BaseSeed, cfg.RunCount)

	if metricsServer != nil {
		for _, r := range report.Runs {
			metricsServer.Observe(r.FinalTick)
		}
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	if err := out.Encode(report); err != nil {
		log.Fatalf("failed to encode report: %v", err)
	}

	log.Printf("pass rate: %.2f%%", report.PassRate*100)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
