package engine

import "strings"

// HasCycle reports whether the relation graph contains a directed cycle
// reachable from a traversal root.
//
// Nodes are relation indices; an edge joins a relation to the first
// relation of each requirement. Roots are visited in reverse insertion
// order and requirements in reverse declared order. O(V+E).
func (e *Engine) HasCycle() bool {
	n := e.prereqs.Len()
	visited := make([]bool, n)
	onStack := make([]bool, n)

	for root := n - 1; root >= e.lowestRoot(); root-- {
		if visited[root] {
			continue
		}
		if e.hasCycleFrom(root, visited, onStack) {
			return true
		}
	}
	return false
}

func (e *Engine) hasCycleFrom(v int, visited, onStack []bool) bool {
	visited[v] = true
	onStack[v] = true

	reqs := e.prereqs.Requires(v)
	for i := len(reqs) - 1; i >= 0; i-- {
		next, ok := e.prereqs.Find(reqs[i])
		if !ok {
			continue
		}
		if !visited[next] {
			if e.hasCycleFrom(next, visited, onStack) {
				return true
			}
		} else if onStack[next] {
			return true
		}
	}

	onStack[v] = false
	return false
}

// LongestCycle returns the reportable cycle with the most subjects, or nil.
// Ties keep the first cycle found.
func (e *Engine) LongestCycle() []string {
	return e.searchCycles(func(candidate, best int) bool { return candidate > best })
}

// ShortestCycle returns the reportable cycle with the fewest subjects, or
// nil. Ties keep the first cycle found.
func (e *Engine) ShortestCycle() []string {
	return e.searchCycles(func(candidate, best int) bool { return candidate < best })
}

// SuggestForget renders the relation implicated by cycle as
// " <subject> <req1> ... <reqN>", using the first relation whose subject is
// the cycle's first element. It returns "" when there is none.
func (e *Engine) SuggestForget(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	idx, ok := e.prereqs.Find(cycle[0])
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(" ")
	b.WriteString(e.prereqs.Subject(idx))
	for _, req := range e.prereqs.Requires(idx) {
		b.WriteString(" ")
		b.WriteString(req)
	}
	return b.String()
}

// minReportableCycle is the smallest subject count a search will report.
const minReportableCycle = 3

// cycleSearch is the state of one longest or shortest search. best is
// accumulated across all roots of a single call.
type cycleSearch struct {
	e        *Engine
	onPath   []bool
	path     []int
	best     []string
	better   func(candidate, best int) bool
	interior bool
}

func (e *Engine) searchCycles(better func(candidate, best int) bool) []string {
	s := &cycleSearch{
		e:        e,
		onPath:   make([]bool, e.prereqs.Len()),
		better:   better,
		interior: e.interiorCycles,
	}
	for root := e.prereqs.Len() - 1; root >= e.lowestRoot(); root-- {
		s.visit(root)
	}
	return s.best
}

// visit extends the path with relation v, explores its requirements in
// reverse order, then backtracks so v can appear on other paths.
func (s *cycleSearch) visit(v int) {
	s.onPath[v] = true
	s.path = append(s.path, v)

	reqs := s.e.prereqs.Requires(v)
	for i := len(reqs) - 1; i >= 0; i-- {
		next, ok := s.e.prereqs.Find(reqs[i])
		if !ok {
			continue
		}
		if !s.onPath[next] {
			s.visit(next)
			continue
		}
		s.close(reqs[i])
	}

	s.path = s.path[:len(s.path)-1]
	s.onPath[v] = false
}

// close records the path suffix starting at name as a candidate cycle.
func (s *cycleSearch) close(name string) {
	start := -1
	if s.interior {
		for i, idx := range s.path {
			if s.e.prereqs.Subject(idx) == name {
				start = i
				break
			}
		}
	} else if s.e.prereqs.Subject(s.path[0]) == name {
		start = 0
	}
	if start < 0 {
		return
	}

	size := len(s.path) - start
	if size < minReportableCycle {
		return
	}
	if s.best != nil && !s.better(size, len(s.best)) {
		return
	}

	cycle := make([]string, size)
	for i, idx := range s.path[start:] {
		cycle[i] = s.e.prereqs.Subject(idx)
	}
	s.best = cycle
}

func (e *Engine) lowestRoot() int {
	if e.firstRelationAsRoot {
		return 0
	}
	return 1
}
