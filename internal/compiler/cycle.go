package compiler

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/spellbook/internal/ir"
)

// CycleWarning reports a group of spells that (transitively) require each
// other.
//
// Cycles are warnings, not errors: the book still compiles, and the
// interpreter's cycle modes decide at run time what to do about them.
type CycleWarning struct {
	Spells  []string `json:"spells"`  // SCC members in declaration order
	Path    []string `json:"path"`    // Closed walk: ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning"
}

// AnalyzeCycles performs static cycle analysis over declared relations.
//
// The algorithm:
//  1. Build subject → requirement graph (first declaration of a subject
//     wins, matching engine lookup)
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop
//
// Unlike the interpreter's cycle modes, every cycle is reported here,
// including two-node loops and cycles that do not pass through a root.
// Warnings come back ordered by the declaration of their first member.
// A DAG returns an empty list.
func AnalyzeCycles(relations []ir.Relation) []CycleWarning {
	g := buildRequirementGraph(relations)
	if len(g.nodes) == 0 {
		return []CycleWarning{}
	}

	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(g) {
		if len(scc) > 1 || (len(scc) == 1 && g.hasSelfLoop(scc[0])) {
			warnings = append(warnings, g.warning(scc))
		}
	}

	// Tarjan emits SCCs in reverse topological order; re-sort by
	// declaration so output reads top to bottom like the book.
	sortWarnings(warnings, g)
	return warnings
}

// requirementGraph maps a spell to the spells it requires.
type requirementGraph struct {
	nodes []string       // declaration order
	order map[string]int // node → position in nodes
	edges map[string][]string
}

func buildRequirementGraph(relations []ir.Relation) *requirementGraph {
	g := &requirementGraph{
		order: make(map[string]int),
		edges: make(map[string][]string),
	}

	addNode := func(name string) {
		if _, ok := g.order[name]; !ok {
			g.order[name] = len(g.nodes)
			g.nodes = append(g.nodes, name)
		}
	}

	declared := make(map[string]bool)
	for _, rel := range relations {
		addNode(rel.Subject)
		if declared[rel.Subject] {
			continue
		}
		declared[rel.Subject] = true
		for _, req := range rel.Requires {
			addNode(req)
			g.edges[rel.Subject] = append(g.edges[rel.Subject], req)
		}
	}
	return g
}

// hasSelfLoop checks if a node has an edge to itself.
func (g *requirementGraph) hasSelfLoop(node string) bool {
	for _, neighbor := range g.edges[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Nodes are visited in declaration order so results are deterministic.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(g *requirementGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and create an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// warning converts an SCC to a CycleWarning.
func (g *requirementGraph) warning(scc []string) CycleWarning {
	members := g.byDeclaration(scc)

	if len(members) == 1 {
		spell := members[0]
		return CycleWarning{
			Spells:  members,
			Path:    []string{spell, spell},
			Message: fmt.Sprintf("spell %s requires itself", spell),
			Level:   "warning",
		}
	}

	path := g.closedWalk(members)
	return CycleWarning{
		Spells:  members,
		Path:    path,
		Message: fmt.Sprintf("prerequisite cycle: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// byDeclaration returns the SCC members sorted by declaration order.
func (g *requirementGraph) byDeclaration(scc []string) []string {
	out := slices.Clone(scc)
	slices.SortFunc(out, func(a, b string) int {
		return cmp.Compare(g.order[a], g.order[b])
	})
	return out
}

// closedWalk finds the shortest walk from the first member back to itself
// that stays inside the SCC (breadth-first over declared edge order).
func (g *requirementGraph) closedWalk(members []string) []string {
	inSCC := make(map[string]bool, len(members))
	for _, m := range members {
		inSCC[m] = true
	}

	start := members[0]
	parent := map[string]string{}
	queue := []string{start}
	seen := map[string]bool{}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.edges[cur] {
			if !inSCC[next] {
				continue
			}
			if next == start {
				// Unwind parents back to start.
				path := []string{start}
				for n := cur; n != start; n = parent[n] {
					path = append(path, n)
				}
				path = append(path, start)
				reverseInner(path)
				return path
			}
			if !seen[next] {
				seen[next] = true
				parent[next] = cur
				queue = append(queue, next)
			}
		}
	}

	// Unreachable for a genuine SCC.
	return append(members, start)
}

// reverseInner reverses path[1:len-1] in place.
func reverseInner(path []string) {
	for i, j := 1, len(path)-2; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
}

// sortWarnings orders warnings by the declaration of their first spell.
func sortWarnings(ws []CycleWarning, g *requirementGraph) {
	slices.SortFunc(ws, func(a, b CycleWarning) int {
		return cmp.Compare(g.order[a.Spells[0]], g.order[b.Spells[0]])
	})
}
