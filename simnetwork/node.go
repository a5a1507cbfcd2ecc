// Package simnetwork is a thread-per-node harness for exercising the
// admission core's determinism guarantee end to end, in place of a full
// SCP voting simulation. Exercised exclusively from tests.
package simnetwork

import (
	"sync"

	"github.com/tolchain/consensuscore/admission"
	"github.com/tolchain/consensuscore/ledger"
)

// node is one simulated replica: a pool of pending well-formed contexts
// and a committed ledger built entirely by repeatedly calling
// admission.Combine. It carries no block validity or storage-fault
// simulation of its own; the determinism property under test lives in
// the combiner, not here.
type node struct {
	id   string
	pool *admission.Pool

	mu     sync.Mutex
	blocks [][]ledger.TxHash
}

func newNode(id string) *node {
	return &node{id: id, pool: admission.NewPool()}
}

// proposeBlock nominates up to maxElements pending contexts, combines
// them, and commits the result as the next block. Returns the committed
// hashes.
func (n *node) proposeBlock(maxElements int) []ledger.TxHash {
	nominees := n.pool.Nominees(maxElements)
	committed := admission.Combine(nominees, maxElements)

	n.mu.Lock()
	n.blocks = append(n.blocks, committed)
	n.mu.Unlock()

	n.pool.Remove(committed)
	return committed
}

// committedHashes flattens every block this node has committed, in
// commit order.
func (n *node) committedHashes() []ledger.TxHash {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []ledger.TxHash
	for _, b := range n.blocks {
		out = append(out, b...)
	}
	return out
}

// blockSnapshot returns a copy of the committed block list, for
// block-for-block comparison across nodes.
func (n *node) blockSnapshot() [][]ledger.TxHash {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([][]ledger.TxHash, len(n.blocks))
	copy(out, n.blocks)
	return out
}
