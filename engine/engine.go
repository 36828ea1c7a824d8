// Package engine implements the tick-driven simulation loop: packet
// lifecycle, routing, settlement, demurrage, and dissolution (spec.md
// §2, §4.H, §4.I).
package engine

import (
	"log"
	"os"
	"sort"

	"valuemesh/conservation"
	"valuemesh/dissolution"
	"valuemesh/feesplit"
	"valuemesh/governor"
	"valuemesh/meshtypes"
	"valuemesh/ngauge"
	"valuemesh/routing"
	"valuemesh/traffic"
)

var logger = log.New(os.Stderr, "engine: ", log.LstdFlags)

// DefaultTargetGoldPrice is the peg the Governor's error signal measures
// against. Scenarios may override it via WithTargetGoldPrice.
const DefaultTargetGoldPrice = 2600.0

// DefaultBreakerThreshold bounds the conservation law's cumulative error
// before it trips (spec.md §4.B leaves the exact value to the
// implementation; chosen generously relative to the per-tick epsilon so
// sustained small rounding drift over long runs doesn't false-trip).
const DefaultBreakerThreshold = 1000

type inTransitEntry struct {
	packet *meshtypes.Packet
	from   meshtypes.NodeId
}

// Engine owns every node and packet in one simulation instance. No
// process-wide singletons; Monte-Carlo parallelism constructs one Engine
// per run (spec.md §9).
type Engine struct {
	nodes     map[meshtypes.NodeId]*meshtypes.Node
	nodeOrder []meshtypes.NodeId
	nodeCount int
	seed      uint64

	inTransit []*inTransitEntry

	packetIDs *meshtypes.PacketIdAllocator
	tick      int64

	law            *conservation.Law
	gov            *governor.Chain
	ngaugeTracker  *ngauge.Tracker
	trafficGen     *traffic.Generator
	router         *routing.Router
	feeDistributor *feesplit.Distributor

	goldPrice       float64
	targetGoldPrice float64
	demandFactor    float64
	panicLevel      float64

	priceWindow  *rollingWindow
	volumeWindow *rollingWindow
	prevGoldPrice float64

	totals     Totals
	counts     Counts
	lastParams governor.GovernanceParams
	volatility float64

	circuitBreakerActive bool
}

// New constructs an Engine with nodeCount nodes laid out deterministically
// on a grid (spec.md §6 `new(node_count) -> Engine`).
func New(nodeCount int) *Engine {
	return NewWithSeed(nodeCount, 1)
}

// NewWithSeed is the Monte-Carlo entry point: construct an engine whose
// traffic generator is seeded deterministically (spec.md §4.K,
// base_seed+i per run).
func NewWithSeed(nodeCount int, seed uint64) *Engine {
	e := &Engine{
		nodeCount:       nodeCount,
		seed:            seed,
		packetIDs:       meshtypes.NewPacketIdAllocator(),
		law:             conservation.NewLaw(meshtypes.NewGoldGrams(DefaultBreakerThreshold, 0)),
		gov:             governor.NewChain(),
		ngaugeTracker:   ngauge.NewTracker(),
		trafficGen:      traffic.NewGenerator(seed),
		router:          routing.NewRouter(),
		feeDistributor:  feesplit.NewDistributor(),
		goldPrice:       DefaultTargetGoldPrice,
		targetGoldPrice: DefaultTargetGoldPrice,
		demandFactor:    1.0,
		panicLevel:      0.0,
		priceWindow:     newRollingWindow(20),
		volumeWindow:    newRollingWindow(20),
	}
	e.prevGoldPrice = e.goldPrice
	e.rebuildTopology()
	return e
}

func (e *Engine) rebuildTopology() {
	e.nodes = buildTopology(e.nodeCount)
	order := make([]meshtypes.NodeId, 0, len(e.nodes))
	for id := range e.nodes {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	e.nodeOrder = order
}

// Node implements routing.NodeLookup.
func (e *Engine) Node(id meshtypes.NodeId) (*meshtypes.Node, bool) {
	n, ok := e.nodes[id]
	return n, ok
}

// SetGoldPrice sets the current gold price used by the Governor's error
// signal (spec.md §6).
func (e *Engine) SetGoldPrice(price float64) {
	e.goldPrice = price
}

// WithTargetGoldPrice overrides the peg target (not part of the engine
// surface spec.md §6 lists, but needed to parameterize scenarios without
// hardcoding the 2600 default).
func (e *Engine) WithTargetGoldPrice(target float64) *Engine {
	e.targetGoldPrice = target
	return e
}

// SetDemandFactor sets the traffic generator's demand multiplier
// (spec.md §6).
func (e *Engine) SetDemandFactor(demand float64) {
	e.demandFactor = demand
}

// SetPanicLevel sets the Governor legacy chain's panic input (spec.md §6).
func (e *Engine) SetPanicLevel(level float64) {
	e.panicLevel = level
}

// SetNodeCrypto sets a node's egress settlement inventory (spec.md §6).
func (e *Engine) SetNodeCrypto(id meshtypes.NodeId, amount meshtypes.GoldGrams) {
	if n, ok := e.nodes[id]; ok {
		n.InventoryCrypto = amount
	}
}

// KillNode disables a node: the router no longer selects it as a next
// hop, it no longer settles, and it receives no dissolution shares.
// Packets still in its buffer keep being processed and routed onward;
// in-transit packets addressed to it are rerouted on delivery
// (spec.md §6 `kill_node(node_id)`).
func (e *Engine) KillNode(id meshtypes.NodeId) {
	if n, ok := e.nodes[id]; ok {
		n.Role = meshtypes.RoleDisabled
		logger.Printf("node %s disabled at tick %d", id, e.tick)
	}
}

// Reset restores the engine to the same state as a freshly constructed
// engine of the same node_count (spec.md §6, §8 round-trip property).
func (e *Engine) Reset() {
	e.tick = 0
	e.inTransit = nil
	e.packetIDs.Reset()
	e.law.Reset()
	e.gov.Reset()
	e.ngaugeTracker.Reset()
	e.trafficGen = traffic.NewGenerator(e.seed)
	e.goldPrice = e.targetGoldPrice
	e.demandFactor = 1.0
	e.panicLevel = 0.0
	e.priceWindow.reset()
	e.volumeWindow.reset()
	e.prevGoldPrice = e.goldPrice
	e.totals = Totals{}
	e.counts = Counts{}
	e.lastParams = governor.GovernanceParams{}
	e.volatility = 0
	e.circuitBreakerActive = false
	e.rebuildTopology()
}

// SpawnPacket mints a packet of `amount` gold-grams at ingress node
// node_id (spec.md §6 `spawn_packet`).
func (e *Engine) SpawnPacket(nodeID meshtypes.NodeId, amount meshtypes.GoldGrams) meshtypes.PacketId {
	tier := meshtypes.ClassifyTier(amount)
	id := e.packetIDs.Next()
	p := meshtypes.NewPacket(id, e.tick, nodeID, amount, tier, tier.TTLTicks())
	if n, ok := e.nodes[nodeID]; ok {
		n.PushBuffer(p)
	}
	e.totals.Input = e.totals.Input.Add(amount)
	return id
}

func (e *Engine) ingressNodeIds() []meshtypes.NodeId {
	out := make([]meshtypes.NodeId, 0)
	for _, id := range e.nodeOrder {
		if e.nodes[id].Role == meshtypes.RoleIngress {
			out = append(out, id)
		}
	}
	return out
}

func (e *Engine) qualifiedNodesSorted() []meshtypes.NodeId {
	out := make([]meshtypes.NodeId, 0)
	for _, id := range e.nodeOrder {
		n := e.nodes[id]
		if n.Role != meshtypes.RoleDisabled && n.IsQualifiedForDissolution() {
			out = append(out, id)
		}
	}
	return out
}

func routeHistorySet(history []meshtypes.NodeId) map[meshtypes.NodeId]struct{} {
	out := make(map[meshtypes.NodeId]struct{}, len(history))
	for _, id := range history {
		out[id] = struct{}{}
	}
	return out
}

// activeValue sums current_value across node buffers and the in-transit
// queue (spec.md §4.B).
func (e *Engine) activeValue() meshtypes.GoldGrams {
	var total meshtypes.GoldGrams
	for _, id := range e.nodeOrder {
		for _, p := range e.nodes[id].Buffer {
			total = total.Add(p.CurrentValue)
		}
	}
	for _, entry := range e.inTransit {
		total = total.Add(entry.packet.CurrentValue)
	}
	return total
}

func (e *Engine) tierDistribution() map[meshtypes.MarketTier]int64 {
	dist := make(map[meshtypes.MarketTier]int64, len(meshtypes.AllTiers))
	for _, t := range meshtypes.AllTiers {
		dist[t] = 0
	}
	count := func(p *meshtypes.Packet) {
		if !p.Status.IsTerminal() {
			dist[p.Tier]++
		}
	}
	for _, id := range e.nodeOrder {
		for _, p := range e.nodes[id].Buffer {
			count(p)
		}
	}
	for _, entry := range e.inTransit {
		count(entry.packet)
	}
	return dist
}
