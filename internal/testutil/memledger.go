// Package testutil provides in-memory fixtures for tests across the
// module. Never import this from production code.
package testutil

import (
	"sync"

	"github.com/tolchain/consensuscore/ledger"
)

// MemLedger is a thread-safe in-memory ledger.View for tests.
type MemLedger struct {
	mu sync.RWMutex

	numBlocks   uint64
	keyImages   map[ledger.KeyImage]struct{}
	outputKeys  map[ledger.PublicKey]struct{}
	totalTxOuts uint64

	// failNumBlocks, failContainsKI, failContainsPK and failProofs make
	// every matching call fail while set, to exercise the
	// conservative-error-handling paths.
	failNumBlocks  bool
	failContainsKI bool
	failContainsPK bool
	failProofs     bool
}

// NewMemLedger creates an empty MemLedger with the given block count and
// total published TxOut count (used to bound valid highest_indices).
func NewMemLedger(numBlocks, totalTxOuts uint64) *MemLedger {
	return &MemLedger{
		numBlocks:   numBlocks,
		totalTxOuts: totalTxOuts,
		keyImages:   make(map[ledger.KeyImage]struct{}),
		outputKeys:  make(map[ledger.PublicKey]struct{}),
	}
}

// SetNumBlocks updates the ledger's reported block count.
func (l *MemLedger) SetNumBlocks(n uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.numBlocks = n
}

// SpendKeyImage marks k as already spent.
func (l *MemLedger) SpendKeyImage(k ledger.KeyImage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keyImages[k] = struct{}{}
}

// PublishOutputKey marks p as already published.
func (l *MemLedger) PublishOutputKey(p ledger.PublicKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outputKeys[p] = struct{}{}
}

// FailNumBlocks forces every NumBlocks call (and hence any caller on its
// error path) to return an error until it is called again with false.
func (l *MemLedger) FailNumBlocks(fail bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failNumBlocks = fail
}

// FailContainsKeyImage forces ContainsKeyImage to return an error.
func (l *MemLedger) FailContainsKeyImage(fail bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failContainsKI = fail
}

// FailContainsTxOutPublicKey forces ContainsTxOutPublicKey to return an error.
func (l *MemLedger) FailContainsTxOutPublicKey(fail bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failContainsPK = fail
}

// FailProofs forces GetTxOutMembershipProofs to return an error.
func (l *MemLedger) FailProofs(fail bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failProofs = fail
}

func (l *MemLedger) NumBlocks() (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.failNumBlocks {
		return 0, errStorageFault
	}
	return l.numBlocks, nil
}

func (l *MemLedger) ContainsKeyImage(k ledger.KeyImage) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.failContainsKI {
		return false, errStorageFault
	}
	_, ok := l.keyImages[k]
	return ok, nil
}

func (l *MemLedger) ContainsTxOutPublicKey(p ledger.PublicKey) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.failContainsPK {
		return false, errStorageFault
	}
	_, ok := l.outputKeys[p]
	return ok, nil
}

func (l *MemLedger) GetTxOutMembershipProofs(indices []uint64) ([]ledger.MembershipProof, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.failProofs {
		return nil, errStorageFault
	}
	proofs := make([]ledger.MembershipProof, 0, len(indices))
	for _, idx := range indices {
		if idx >= l.totalTxOuts {
			return nil, errIndexOutOfRange
		}
		proofs = append(proofs, ledger.MembershipProof{
			Index:     idx,
			RootBlock: ledger.BlockIndex(l.numBlocks),
		})
	}
	return proofs, nil
}
