package orchestration

import (
	"fmt"
	"sort"

	"github.com/BaSui01/agentrelay/agent"
)

// HumanTarget is the reserved handoff target for human-in-the-loop edges.
// An agent directing a handoff here suspends the loop on the interactive
// callback instead of transferring control.
const HumanTarget = "human"

// Edge is a directed handoff permission from one agent to another.
// Condition is advisory natural language surfaced to the deciding backend;
// it is not mechanically enforced.
type Edge struct {
	To        string
	Condition string
	Human     bool
}

// Graph is the immutable routing table: the declared participants, the start
// agent, an optional fallback agent for ambiguous routing, and the permitted
// handoff edges per agent. Built once via GraphBuilder, read-only during
// routing.
type Graph struct {
	participants map[string]agent.Agent
	edges        map[string][]Edge
	start        string
	fallback     string
}

// Start returns the designated entry agent.
func (g *Graph) Start() agent.Agent {
	return g.participants[g.start]
}

// Participant looks up a declared agent by name.
func (g *Graph) Participant(name string) (agent.Agent, bool) {
	a, ok := g.participants[name]
	return a, ok
}

// Participants returns the declared agent names in stable order.
func (g *Graph) Participants() []string {
	names := make([]string, 0, len(g.participants))
	for name := range g.participants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Edges returns the permitted handoff edges of the named agent.
func (g *Graph) Edges(name string) []Edge {
	return g.edges[name]
}

// EdgeTo returns the edge from one agent to a target, if permitted.
func (g *Graph) EdgeTo(from, to string) (Edge, bool) {
	for _, e := range g.edges[from] {
		if e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}

// Allows reports whether from may hand off to to.
func (g *Graph) Allows(from, to string) bool {
	_, ok := g.EdgeTo(from, to)
	return ok
}

// Fallback returns the fallback agent, if configured.
func (g *Graph) Fallback() (agent.Agent, bool) {
	if g.fallback == "" {
		return nil, false
	}
	a, ok := g.participants[g.fallback]
	return a, ok
}

// GraphBuilder declaratively constructs an immutable Graph. Errors are
// collected during construction and surfaced by Build, which fails fast on
// the first inconsistency.
type GraphBuilder struct {
	participants map[string]agent.Agent
	edges        map[string][]Edge
	start        string
	fallback     string
	errs         []error
}

// NewGraphBuilder creates an empty builder.
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{
		participants: make(map[string]agent.Agent),
		edges:        make(map[string][]Edge),
	}
}

// StartWith declares the entry agent.
func (b *GraphBuilder) StartWith(a agent.Agent) *GraphBuilder {
	if b.register(a) {
		if b.start != "" && b.start != a.Name() {
			b.errs = append(b.errs, fmt.Errorf("start agent redeclared: %s and %s", b.start, a.Name()))
			return b
		}
		b.start = a.Name()
	}
	return b
}

// Add permits source to hand off to each of the targets. All referenced
// agents are declared as participants.
func (b *GraphBuilder) Add(source agent.Agent, targets ...agent.Agent) *GraphBuilder {
	if !b.register(source) {
		return b
	}
	for _, target := range targets {
		if !b.register(target) {
			continue
		}
		b.addEdge(source.Name(), Edge{To: target.Name()})
	}
	return b
}

// AddConditional permits source to hand off to target with an advisory
// natural-language condition.
func (b *GraphBuilder) AddConditional(source, target agent.Agent, condition string) *GraphBuilder {
	if !b.register(source) || !b.register(target) {
		return b
	}
	b.addEdge(source.Name(), Edge{To: target.Name(), Condition: condition})
	return b
}

// AddHuman permits source to suspend on human input instead of handing off
// to another agent.
func (b *GraphBuilder) AddHuman(source agent.Agent, condition string) *GraphBuilder {
	if !b.register(source) {
		return b
	}
	b.addEdge(source.Name(), Edge{To: HumanTarget, Condition: condition, Human: true})
	return b
}

// WithFallback designates the agent routed to when a handoff target is not
// permitted.
func (b *GraphBuilder) WithFallback(a agent.Agent) *GraphBuilder {
	if b.register(a) {
		b.fallback = a.Name()
	}
	return b
}

// Build validates the declarations and returns the immutable graph.
func (b *GraphBuilder) Build() (*Graph, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if b.start == "" {
		return nil, fmt.Errorf("graph has no start agent")
	}
	for source, edges := range b.edges {
		if _, ok := b.participants[source]; !ok {
			return nil, fmt.Errorf("edge source %q is not a declared participant", source)
		}
		for _, e := range edges {
			if e.Human {
				continue
			}
			if _, ok := b.participants[e.To]; !ok {
				return nil, fmt.Errorf("edge target %q is not a declared participant", e.To)
			}
		}
	}

	participants := make(map[string]agent.Agent, len(b.participants))
	for name, a := range b.participants {
		participants[name] = a
	}
	edges := make(map[string][]Edge, len(b.edges))
	for name, es := range b.edges {
		edges[name] = append([]Edge(nil), es...)
	}
	return &Graph{
		participants: participants,
		edges:        edges,
		start:        b.start,
		fallback:     b.fallback,
	}, nil
}

// register declares an agent, detecting nil agents, reserved names, and name
// collisions between distinct agents. Returns false when the declaration is
// invalid.
func (b *GraphBuilder) register(a agent.Agent) bool {
	if a == nil {
		b.errs = append(b.errs, fmt.Errorf("nil agent declared"))
		return false
	}
	name := a.Name()
	if name == "" {
		b.errs = append(b.errs, fmt.Errorf("agent with empty name declared"))
		return false
	}
	if name == HumanTarget {
		b.errs = append(b.errs, fmt.Errorf("agent name %q is reserved", HumanTarget))
		return false
	}
	if existing, ok := b.participants[name]; ok {
		if existing != a {
			b.errs = append(b.errs, fmt.Errorf("duplicate agent name: %s", name))
			return false
		}
		return true
	}
	b.participants[name] = a
	return true
}

func (b *GraphBuilder) addEdge(source string, edge Edge) {
	for _, e := range b.edges[source] {
		if e.To == edge.To {
			return
		}
	}
	b.edges[source] = append(b.edges[source], edge)
}
