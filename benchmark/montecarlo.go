package benchmark

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"valuemesh/engine"
)

// RunResult is one completed simulation run's summary (spec.md §4.K).
type RunResult struct {
	RunID string
	Seed  uint64
	Ticks int64

	FinalTick    engine.TickResult
	PegTracker   PegTracker
	Conservation ConservationTracker

	SettlementCount int64
	RevertCount     int64
	DissolvedCount  int64

	Passed      bool
	FailedGates []string
}

// MetricStat is a mean/std/min/max/95%-CI summary across runs (spec.md
// §4.K: "aggregate per-metric mean, standard deviation, min, max, and
// 95% CI using the t-statistic 1.96").
type MetricStat struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	CILow  float64
	CIHigh float64
}

// tStatistic95 is the fixed large-sample normal approximation spec.md
// §4.K specifies in place of a per-N Student's t lookup.
const tStatistic95 = 1.96

// AggregateReport is the outcome of running a Scenario N times.
type AggregateReport struct {
	ScenarioName string
	Runs         []RunResult

	PegMeanAbsDeviation MetricStat
	SettlementCount     MetricStat
	RevertCount         MetricStat
	BreakerTrips        MetricStat

	PassRate float64
}

// RunScenario executes scenario.Ticks ticks of s, once, with the engine
// seeded by seed (spec.md §4.K per-run engine instance: no shared state
// between runs).
func RunScenario(s Scenario, seed uint64) RunResult {
	e := engine.NewWithSeed(s.NodeCount, seed)
	if s.Setup != nil {
		s.Setup(e)
	}

	currentGold := valueOrDefault(s.BaseGoldPrice, engine.DefaultTargetGoldPrice)
	currentDemand := valueOrDefault(s.BaseDemand, 1.0)
	currentPanic := s.BasePanic

	e.SetGoldPrice(currentGold)
	e.SetDemandFactor(currentDemand)
	e.SetPanicLevel(currentPanic)

	var result RunResult
	// Derived via SHA-1 off (scenario name, seed) rather than uuid.New(),
	// so RunID stays reproducible for a given scenario+seed pair — two
	// runs of the same scenario at the same seed report the same RunID,
	// matching the engine's own seed-determinism (spec.md §8 property 5).
	result.RunID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s-%d", s.Name, seed))).String()
	result.Seed = seed
	result.Ticks = s.Ticks

	events := make(map[int64][]MidEvent, len(s.MidEvents))
	for _, me := range s.MidEvents {
		events[me.Tick] = append(events[me.Tick], me)
	}

	for tick := int64(1); tick <= s.Ticks; tick++ {
		if s.GoldPriceCurve != nil {
			currentGold = s.GoldPriceCurve.ValueAt(tick, currentGold)
			e.SetGoldPrice(currentGold)
		}
		if s.DemandCurve != nil {
			currentDemand = s.DemandCurve.ValueAt(tick, currentDemand)
			e.SetDemandFactor(currentDemand)
		}
		if s.PanicCurve != nil {
			currentPanic = s.PanicCurve.ValueAt(tick, currentPanic)
			e.SetPanicLevel(currentPanic)
		}

		for _, me := range events[tick] {
			me.Action(e)
		}

		tr := e.Tick()
		result.FinalTick = tr
		result.PegTracker.Observe(tr.PegDeviation)
		result.Conservation.Observe(tr)
		result.SettlementCount += int64(tr.Counts.Settlement)
		result.RevertCount += int64(tr.Counts.Revert)
		result.DissolvedCount += int64(tr.Counts.Dissolved)
	}

	result.Passed = true
	for _, pc := range s.PassCriteria {
		if !pc.Eval(result) {
			result.Passed = false
			result.FailedGates = append(result.FailedGates, pc.Name)
		}
	}

	return result
}

// valueOrDefault keeps a scenario's zero-value base fields falling back
// to the engine's own defaults instead of zeroing out gold price/demand.
func valueOrDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// RunMonteCarlo runs s runCount times with seeds base_seed, base_seed+1,
// ..., base_seed+runCount-1, each owning an independent Engine instance,
// and aggregates the per-metric statistics (spec.md §4.K).
func RunMonteCarlo(s Scenario, baseSeed uint64, runCount int) AggregateReport {
	runs := make([]RunResult, runCount)
	for i := 0; i < runCount; i++ {
		runs[i] = RunScenario(s, baseSeed+uint64(i))
	}

	report := AggregateReport{ScenarioName: s.Name, Runs: runs}

	pegSamples := make([]float64, runCount)
	settlementSamples := make([]float64, runCount)
	revertSamples := make([]float64, runCount)
	breakerSamples := make([]float64, runCount)

	var passed int
	for i, r := range runs {
		pegSamples[i] = r.PegTracker.MeanAbsDeviation()
		settlementSamples[i] = float64(r.SettlementCount)
		revertSamples[i] = float64(r.RevertCount)
		breakerSamples[i] = float64(r.Conservation.BreakerTrips())
		if r.Passed {
			passed++
		}
	}

	report.PegMeanAbsDeviation = summarize(pegSamples)
	report.SettlementCount = summarize(settlementSamples)
	report.RevertCount = summarize(revertSamples)
	report.BreakerTrips = summarize(breakerSamples)
	if runCount > 0 {
		report.PassRate = float64(passed) / float64(runCount)
	}

	return report
}

// summarize computes mean/stddev/min/max/95%-CI over a sample set.
func summarize(samples []float64) MetricStat {
	n := len(samples)
	if n == 0 {
		return MetricStat{}
	}

	var sum float64
	stat := MetricStat{Min: samples[0], Max: samples[0]}
	for _, v := range samples {
		sum += v
		if v < stat.Min {
			stat.Min = v
		}
		if v > stat.Max {
			stat.Max = v
		}
	}
	mean := sum / float64(n)
	stat.Mean = mean

	if n > 1 {
		var sqDiff float64
		for _, v := range samples {
			d := v - mean
			sqDiff += d * d
		}
		stat.StdDev = math.Sqrt(sqDiff / float64(n-1))
	}

	marginOfError := tStatistic95 * stat.StdDev / math.Sqrt(float64(n))
	stat.CILow = mean - marginOfError
	stat.CIHigh = mean + marginOfError

	return stat
}
