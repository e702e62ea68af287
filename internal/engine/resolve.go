package engine

import "slices"

// Learn acquires item and, depth first, every prerequisite it transitively
// requires. It returns the transcript lines for the operation.
//
// A subject learned through its own relation is recorded with
// explicit=false; items learned without a relation, and prerequisites
// pulled in along the way, get explicit=true.
func (e *Engine) Learn(item string) []string {
	if e.ledger.Has(item) {
		return []string{Indent + item + " is already learned"}
	}

	idx, ok := e.prereqs.Find(item)
	if !ok {
		e.ledger.Mark(item, true)
		e.logger.Debug("learned", "item", item, "explicit", true)
		return []string{Indent + "Learning " + item}
	}

	var out []string
	e.satisfyPrereqs(idx, make(map[int]bool), &out)

	// On a cyclic graph the descent can reach item itself.
	if e.ledger.Has(item) {
		e.ledger.Mark(item, false)
		return out
	}
	e.ledger.Mark(item, false)
	e.logger.Debug("learned", "item", item, "explicit", false, "pulled", len(out))
	return append(out, Indent+"Learning "+item)
}

// satisfyPrereqs learns the requirements of relation idx in declared order.
// A requirement with its own relation is resolved before it is marked; one
// already in the ledger is neither descended into nor marked again.
// active holds the relations on the current descent path.
func (e *Engine) satisfyPrereqs(idx int, active map[int]bool, out *[]string) {
	active[idx] = true
	defer delete(active, idx)

	for _, req := range e.prereqs.Requires(idx) {
		if e.ledger.Has(req) {
			continue
		}
		if next, ok := e.prereqs.Find(req); ok && !active[next] {
			e.satisfyPrereqs(next, active, out)
		}
		if !e.ledger.Has(req) {
			e.ledger.Mark(req, true)
			*out = append(*out, Indent+"Learning "+req)
		}
	}
}

// Forget releases item and then every prerequisite that no learned subject
// still needs. It returns the transcript lines for the operation.
func (e *Engine) Forget(item string) []string {
	if !e.ledger.Has(item) {
		return []string{Indent + item + " is not learned"}
	}
	if e.IsRequired(item) {
		return []string{Indent + item + " is still needed"}
	}

	out := []string{Indent + "Forgetting " + item}
	e.ledger.Unmark(item)
	if idx, ok := e.prereqs.Find(item); ok {
		e.releaseChain(idx, make(map[int]bool), &out)
	}
	e.logger.Debug("forgot", "item", item, "released", len(out)-1)
	return out
}

// IsRequired reports whether some relation lists item among its
// requirements and that relation's subject is currently learned.
func (e *Engine) IsRequired(item string) bool {
	for i := 0; i < e.prereqs.Len(); i++ {
		if !e.ledger.Has(e.prereqs.Subject(i)) {
			continue
		}
		if slices.Contains(e.prereqs.Requires(i), item) {
			return true
		}
	}
	return false
}

// releaseChain walks the requirements of relation idx in reverse order,
// forgetting each learned one nothing else needs, and descends into every
// requirement that has a relation whether or not it was forgotten.
func (e *Engine) releaseChain(idx int, active map[int]bool, out *[]string) {
	active[idx] = true
	defer delete(active, idx)

	reqs := e.prereqs.Requires(idx)
	for i := len(reqs) - 1; i >= 0; i-- {
		req := reqs[i]
		if e.ledger.Has(req) && !e.IsRequired(req) {
			e.ledger.Unmark(req)
			*out = append(*out, Indent+"Forgetting "+req)
		}
		if next, ok := e.prereqs.Find(req); ok && !active[next] {
			e.releaseChain(next, active, out)
		}
	}
}
