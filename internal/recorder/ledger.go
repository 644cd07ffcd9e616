package recorder

import "sync"

// Ledger keeps records in memory for quick inspection.
type Ledger struct {
	mu    sync.Mutex
	mints []Mint
	fills []Fill
}

func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{
		mints: make([]Mint, 0, capacity),
		fills: make([]Fill, 0, capacity),
	}
}

func (l *Ledger) RecordMint(m Mint) error {
	l.mu.Lock()
	l.mints = append(l.mints, m)
	l.mu.Unlock()
	return nil
}

func (l *Ledger) RecordFill(f Fill) error {
	l.mu.Lock()
	l.fills = append(l.fills, f)
	l.mu.Unlock()
	return nil
}

// Mints returns a copy of the recorded mints.
func (l *Ledger) Mints() []Mint {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Mint, len(l.mints))
	copy(out, l.mints)
	return out
}

// Fills returns a copy of the recorded fills.
func (l *Ledger) Fills() []Fill {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Fill, len(l.fills))
	copy(out, l.fills)
	return out
}

func (l *Ledger) Close() error { return nil }
