package engine

// Ledger records learned items in first-acquired order.
//
// The value is the explicit flag: false for a subject learned through its
// own relation, true for everything else. Re-marking an existing item
// updates the flag in place; unmark followed by mark moves it to the end.
type Ledger struct {
	order []string
	index map[string]int
	flags map[string]bool
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		index: make(map[string]int),
		flags: make(map[string]bool),
	}
}

// Has reports whether name is learned.
func (l *Ledger) Has(name string) bool {
	_, ok := l.flags[name]
	return ok
}

// Mark records name as learned with the given flag.
func (l *Ledger) Mark(name string, explicit bool) {
	if _, ok := l.flags[name]; !ok {
		l.index[name] = len(l.order)
		l.order = append(l.order, name)
	}
	l.flags[name] = explicit
}

// Unmark removes name. Unknown names are ignored.
func (l *Ledger) Unmark(name string) {
	pos, ok := l.index[name]
	if !ok {
		return
	}
	l.order = append(l.order[:pos], l.order[pos+1:]...)
	for i := pos; i < len(l.order); i++ {
		l.index[l.order[i]] = i
	}
	delete(l.index, name)
	delete(l.flags, name)
}

// Explicit returns the flag recorded for name, and whether name is learned.
func (l *Ledger) Explicit(name string) (explicit, ok bool) {
	explicit, ok = l.flags[name]
	return explicit, ok
}

// Items returns learned items in acquisition order.
func (l *Ledger) Items() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Len returns the number of learned items.
func (l *Ledger) Len() int {
	return len(l.order)
}
