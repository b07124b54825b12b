package analysis

import (
	"github.com/symgraph/engine/internal/graphstore"
	"github.com/symgraph/engine/internal/symtypes"
)

var containsKind = symtypes.EdgeContains

// ComplexityMetrics holds the per-function complexity and coupling
// metrics.
type ComplexityMetrics struct {
	Cyclomatic int
	Cognitive  int
	FanIn      int
	FanOut     int
	Coupling   float64
}

// ComputeComplexity computes McCabe cyclomatic complexity over the
// Contains-edge subgraph rooted at id, a cognitive-complexity
// accumulator, fan-in/out over Reference edges, and a file-coupling
// ratio.
func ComputeComplexity(g *graphstore.Graph, id string) (ComplexityMetrics, error) {
	root, ok := g.GetHandle(id)
	if !ok {
		return ComplexityMetrics{}, notFound("complexity", id)
	}

	nodes, edgeCount, err := inducedContainsSubgraph(g, root)
	if err != nil {
		return ComplexityMetrics{}, err
	}
	n := len(nodes)
	cyclomatic := edgeCount - n + 2
	if cyclomatic < 1 {
		cyclomatic = 1
	}

	cognitive, err := cognitiveComplexity(g, root)
	if err != nil {
		return ComplexityMetrics{}, err
	}

	fanIn, err := degreeCount(g, root, symtypes.DirIncoming)
	if err != nil {
		return ComplexityMetrics{}, err
	}
	fanOut, err := degreeCount(g, root, symtypes.DirOutgoing)
	if err != nil {
		return ComplexityMetrics{}, err
	}

	coupling, err := couplingRatio(g, root)
	if err != nil {
		return ComplexityMetrics{}, err
	}

	return ComplexityMetrics{
		Cyclomatic: cyclomatic,
		Cognitive:  cognitive,
		FanIn:      fanIn,
		FanOut:     fanOut,
		Coupling:   coupling,
	}, nil
}

func inducedContainsSubgraph(g *graphstore.Graph, root graphstore.Handle) (nodes []graphstore.Handle, edgeCount int, err error) {
	visited := map[graphstore.Handle]bool{root: true}
	queue := []graphstore.Handle{root}
	nodes = append(nodes, root)

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		children, err := g.Neighbors(h, symtypes.DirOutgoing, &containsKind)
		if err != nil {
			return nil, 0, err
		}
		edgeCount += len(children)
		for _, c := range children {
			if visited[c] {
				continue
			}
			visited[c] = true
			nodes = append(nodes, c)
			queue = append(queue, c)
		}
	}
	return nodes, edgeCount, nil
}

func cognitiveComplexity(g *graphstore.Graph, root graphstore.Handle) (int, error) {
	total := 0

	var walk func(h graphstore.Handle, nesting int, visited map[graphstore.Handle]bool) error
	walk = func(h graphstore.Handle, nesting int, visited map[graphstore.Handle]bool) error {
		refs, err := g.Neighbors(h, symtypes.DirOutgoing, &referenceKind)
		if err != nil {
			return err
		}
		defs, err := g.Neighbors(h, symtypes.DirOutgoing, &definitionKind)
		if err != nil {
			return err
		}
		branches := len(refs) + len(defs)
		if branches > 0 {
			total += (branches - 1) * (nesting + 1)
		}

		children, err := g.Neighbors(h, symtypes.DirOutgoing, &containsKind)
		if err != nil {
			return err
		}
		for _, c := range children {
			if visited[c] {
				continue
			}
			visited[c] = true
			childNesting := nesting
			if sym, ok := g.Symbol(c); ok && sym.Kind.IsCallable() {
				childNesting++
			}
			if err := walk(c, childNesting, visited); err != nil {
				return err
			}
		}
		return nil
	}

	visited := map[graphstore.Handle]bool{root: true}
	if err := walk(root, 0, visited); err != nil {
		return 0, err
	}
	return total, nil
}

func degreeCount(g *graphstore.Graph, h graphstore.Handle, dir symtypes.Direction) (int, error) {
	neighbors, err := g.Neighbors(h, dir, &referenceKind)
	if err != nil {
		return 0, err
	}
	return len(neighbors), nil
}

// couplingRatio is external_deps / (external_deps + 1), where an
// external dependency is a target in a different file reached via
// Reference or Import.
func couplingRatio(g *graphstore.Graph, h graphstore.Handle) (float64, error) {
	self, ok := g.Symbol(h)
	if !ok {
		return 0, notFound("complexity:coupling", "")
	}

	external := 0
	seen := map[string]bool{}

	for _, kind := range []symtypes.EdgeKind{symtypes.EdgeReference, symtypes.EdgeImport} {
		k := kind
		targets, err := g.Neighbors(h, symtypes.DirOutgoing, &k)
		if err != nil {
			return 0, err
		}
		for _, t := range targets {
			sym, ok := g.Symbol(t)
			if !ok || sym.FilePath == self.FilePath {
				continue
			}
			if !seen[sym.ID] {
				seen[sym.ID] = true
				external++
			}
		}
	}

	return float64(external) / float64(external+1), nil
}

// CircularDependency is one strongly-connected component of size > 1
// in the full graph.
type CircularDependency struct {
	Members []string
}

// DetectCircularDependencies runs Tarjan's SCC algorithm over the full
// graph and returns every component with more than one member.
func DetectCircularDependencies(g *graphstore.Graph) []CircularDependency {
	handles := g.AllHandles()

	index := 0
	indices := make(map[graphstore.Handle]int, len(handles))
	lowlink := make(map[graphstore.Handle]int, len(handles))
	onStack := make(map[graphstore.Handle]bool, len(handles))
	var stack []graphstore.Handle
	var result []CircularDependency

	var strongConnect func(v graphstore.Handle)
	strongConnect = func(v graphstore.Handle) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		neighbors, err := g.Neighbors(v, symtypes.DirOutgoing, nil)
		if err == nil {
			for _, w := range neighbors {
				if _, visited := indices[w]; !visited {
					strongConnect(w)
					if lowlink[w] < lowlink[v] {
						lowlink[v] = lowlink[w]
					}
				} else if onStack[w] {
					if indices[w] < lowlink[v] {
						lowlink[v] = indices[w]
					}
				}
			}
		}

		if lowlink[v] == indices[v] {
			var members []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				if sym, ok := g.Symbol(w); ok {
					members = append(members, sym.ID)
				}
				if w == v {
					break
				}
			}
			if len(members) > 1 {
				result = append(result, CircularDependency{Members: members})
			}
		}
	}

	for _, h := range handles {
		if _, visited := indices[h]; !visited {
			strongConnect(h)
		}
	}

	return result
}
