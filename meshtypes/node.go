package meshtypes

// NodeRole is the closed set of roles a node can play (spec.md §3).
type NodeRole uint8

const (
	RoleIngress NodeRole = iota
	RoleEgress
	RoleTransit
	RoleNGauge
	RoleDisabled
)

func (r NodeRole) String() string {
	switch r {
	case RoleIngress:
		return "ingress"
	case RoleEgress:
		return "egress"
	case RoleTransit:
		return "transit"
	case RoleNGauge:
		return "ngauge"
	case RoleDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// NodeStrategy is the closed set of behavioral strategies a node follows
// during settlement and routing (spec.md §3, §4.H step 6/7).
type NodeStrategy uint8

const (
	StrategyRiskAverse NodeStrategy = iota
	StrategyGreedy
	StrategyPassive
)

func (s NodeStrategy) String() string {
	switch s {
	case StrategyRiskAverse:
		return "risk_averse"
	case StrategyGreedy:
		return "greedy"
	case StrategyPassive:
		return "passive"
	default:
		return "unknown"
	}
}

// Node is a mesh participant (spec.md §3).
type Node struct {
	ID   NodeId
	Role NodeRole

	X, Y float64

	Neighbors map[NodeId]struct{}

	InventoryFiat   GoldGrams
	InventoryCrypto GoldGrams

	Bandwidth          float64
	Latency            float64
	CurrentBufferCount int
	Uptime             float64
	TransitFee         float64

	UPIActive    bool
	NGaugeActive bool
	KYCValid     bool
	// CaesarActive tracks whether the node runs the dissolution
	// co-signing service; named after the legacy subsystem the predicate
	// originally guarded in the source this engine was modeled on.
	CaesarActive      bool
	DemonstrableCapacity bool
	RoutedTrafficEpoch bool

	TotalFeesEarned GoldGrams

	Strategy NodeStrategy

	// TierPreference, if non-nil, is the operator's preferred tier for
	// routing bonuses (spec.md §4.D operator preferences).
	TierPreference *MarketTier
	AutoMode       bool
	PreferredMin   GoldGrams
	PreferredMax   GoldGrams

	// Buffer holds packets currently resident at this node, in FIFO
	// insertion order (spec.md §5 ordering guarantee).
	Buffer []*Packet
}

// NewNode constructs a node with zeroed inventories and an empty buffer.
func NewNode(id NodeId, role NodeRole, x, y float64) *Node {
	return &Node{
		ID:              id,
		Role:            role,
		X:               x,
		Y:               y,
		Neighbors:       make(map[NodeId]struct{}),
		InventoryFiat:   Zero,
		InventoryCrypto: Zero,
		Uptime:          1.0,
		Strategy:        StrategyPassive,
	}
}

// IsQualifiedForDissolution reports whether all six dissolution
// predicates hold (spec.md §4.G).
func (n *Node) IsQualifiedForDissolution() bool {
	return n.UPIActive && n.NGaugeActive && n.KYCValid && n.CaesarActive &&
		n.DemonstrableCapacity && n.RoutedTrafficEpoch
}

// IsLiquidEgress reports whether this is an egress node with positive
// settlement liquidity (spec.md §4.D: inventory_crypto > 1).
func (n *Node) IsLiquidEgress() bool {
	return n.Role == RoleEgress && n.InventoryCrypto.GreaterThan(NewGoldGrams(1, 0))
}

// PushBuffer appends a packet to the back of the node's buffer (FIFO).
func (n *Node) PushBuffer(p *Packet) {
	n.Buffer = append(n.Buffer, p)
	n.CurrentBufferCount = len(n.Buffer)
}

// DrainBuffer removes and returns all buffered packets, resetting the
// buffer to empty. Callers re-push packets that aren't terminal/in-transit
// this tick.
func (n *Node) DrainBuffer() []*Packet {
	drained := n.Buffer
	n.Buffer = nil
	n.CurrentBufferCount = 0
	return drained
}
