package admission

import (
	"errors"
	"sync"

	"github.com/tolchain/consensuscore/ledger"
)

// ErrAlreadyInPool is returned by Add when a transaction with the same
// hash is already held.
var ErrAlreadyInPool = errors.New("admission: tx already in pool")

// maxPoolSize bounds the number of well-formed contexts held at once,
// independent of any single block's combiner bound. It exists so a flood
// of individually-valid candidates cannot grow the pool without limit.
const maxPoolSize = 100_000

// Pool is a thread-safe store of well-formed tx contexts, keyed by hash,
// sitting between the enclave's well-formed checker and the combiner. It
// does not itself enforce validity or combine; it is the nomination
// source the consensus loop draws from.
type Pool struct {
	mu  sync.RWMutex
	ctx map[ledger.TxHash]*WellFormedTxContext
	ord []ledger.TxHash // insertion order, for bounded Nominees()
}

// NewPool creates an empty Pool.
func NewPool() *Pool {
	return &Pool{ctx: make(map[ledger.TxHash]*WellFormedTxContext)}
}

// Add inserts c. Returns ErrAlreadyInPool if c's hash is already present,
// or an error if the pool is full.
func (p *Pool) Add(c *WellFormedTxContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.ctx) >= maxPoolSize {
		return errors.New("admission: pool full")
	}
	if _, exists := p.ctx[c.txHash]; exists {
		return ErrAlreadyInPool
	}
	p.ctx[c.txHash] = c
	p.ord = append(p.ord, c.txHash)
	return nil
}

// Get returns the well-formed context for hash, if present.
func (p *Pool) Get(hash ledger.TxHash) (*WellFormedTxContext, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.ctx[hash]
	return c, ok
}

// Nominees returns up to n pending contexts in insertion order. Combine
// re-sorts by its own total order regardless of the order they are
// handed in, so insertion order here only matters when the pool holds
// more than n candidates and some must be left out of this round's
// nomination.
func (p *Pool) Nominees(n int) []*WellFormedTxContext {
	p.mu.RLock()
	defer p.mu.RUnlock()
	result := make([]*WellFormedTxContext, 0, n)
	for _, h := range p.ord {
		if c, ok := p.ctx[h]; ok {
			result = append(result, c)
			if len(result) >= n {
				break
			}
		}
	}
	return result
}

// Remove deletes the given hashes, called after a block commits.
func (p *Pool) Remove(hashes []ledger.TxHash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	removed := make(map[ledger.TxHash]bool, len(hashes))
	for _, h := range hashes {
		delete(p.ctx, h)
		removed[h] = true
	}
	filtered := p.ord[:0]
	for _, h := range p.ord {
		if !removed[h] {
			filtered = append(filtered, h)
		}
	}
	p.ord = filtered
}

// Len returns the number of contexts currently held.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.ctx)
}
