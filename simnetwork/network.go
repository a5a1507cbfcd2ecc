package simnetwork

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/tolchain/consensuscore/admission"
	"github.com/tolchain/consensuscore/crypto"
	"github.com/tolchain/consensuscore/ledger"
)

// Network is a registry of simulated nodes, broadcast under a single
// reader/writer lock the same way the connection manager's own registry
// is guarded: writes (node membership) only happen at construction,
// broadcasts (value injection) take the read side.
type Network struct {
	mu    sync.RWMutex
	nodes map[string]*node
}

// New creates a Network with n identically-configured, empty nodes.
func New(nodeIDs ...string) *Network {
	nodes := make(map[string]*node, len(nodeIDs))
	for _, id := range nodeIDs {
		nodes[id] = newNode(id)
	}
	return &Network{nodes: nodes}
}

// valueToContext derives a deterministic well-formed context from a
// submitted string value. The fee is taken from the value's own hash so
// that submission order doesn't trivially determine combiner order —
// exercising the fee/hash total order the same way real fee-bearing
// transactions would.
func valueToContext(value string) *admission.WellFormedTxContext {
	digest := crypto.HashBytes([]byte(value))
	var txHash ledger.TxHash
	copy(txHash[:], digest)
	fee := binary.BigEndian.Uint64(digest[:8])

	c, err := admission.NewWellFormedTxContext(admission.TxContext{TxHash: txHash}, fee, ^ledger.BlockIndex(0))
	if err != nil {
		// digest-derived contexts never carry key images or output
		// keys, so NewWellFormedTxContext cannot fail here.
		panic(err)
	}
	return c
}

// Submit broadcasts value to every node's pool. A value already present
// in a node's pool (the same string submitted twice) is silently
// ignored there; it is not duplicated into that node's ledger.
func (net *Network) Submit(value string) {
	c := valueToContext(value)
	net.mu.RLock()
	defer net.mu.RUnlock()
	for _, n := range net.nodes {
		_ = n.pool.Add(c)
	}
}

// ProposeRound drives every node to independently combine its current
// pool contents into a block, concurrently. Because Submit has already
// installed the same candidate set into every node's pool before
// ProposeRound runs, and admission.Combine is a pure deterministic
// function of that set, every node's resulting block is byte-identical
// even though each runs in its own goroutine.
func (net *Network) ProposeRound(maxElements int) {
	net.mu.RLock()
	defer net.mu.RUnlock()
	var wg sync.WaitGroup
	for _, n := range net.nodes {
		wg.Add(1)
		go func(n *node) {
			defer wg.Done()
			n.proposeBlock(maxElements)
		}(n)
	}
	wg.Wait()
}

// AllLedgersIdentical reports whether every node has committed the same
// sequence of blocks, hash for hash.
func (net *Network) AllLedgersIdentical() bool {
	net.mu.RLock()
	defer net.mu.RUnlock()
	var reference [][]ledger.TxHash
	first := true
	for _, n := range net.nodes {
		blocks := n.blockSnapshot()
		if first {
			reference = blocks
			first = false
			continue
		}
		if !blocksEqual(reference, blocks) {
			return false
		}
	}
	return true
}

func blocksEqual(a, b [][]ledger.TxHash) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

// EverySubmittedValueCommitted reports whether every value in submitted
// appears at least once in every node's committed ledger.
func (net *Network) EverySubmittedValueCommitted(submitted []string) bool {
	net.mu.RLock()
	defer net.mu.RUnlock()
	want := make(map[ledger.TxHash]bool, len(submitted))
	for _, v := range submitted {
		want[valueToContext(v).TxHash()] = true
	}
	for _, n := range net.nodes {
		have := make(map[ledger.TxHash]bool)
		for _, h := range n.committedHashes() {
			have[h] = true
		}
		for h := range want {
			if !have[h] {
				return false
			}
		}
	}
	return true
}

// NoUnsubmittedValueCommitted reports whether every hash any node has
// committed corresponds to some submitted value.
func (net *Network) NoUnsubmittedValueCommitted(submitted []string) bool {
	net.mu.RLock()
	defer net.mu.RUnlock()
	allowed := make(map[ledger.TxHash]bool, len(submitted))
	for _, v := range submitted {
		allowed[valueToContext(v).TxHash()] = true
	}
	for _, n := range net.nodes {
		for _, h := range n.committedHashes() {
			if !allowed[h] {
				return false
			}
		}
	}
	return true
}

// NodeIDs returns the configured node identifiers in sorted order.
func (net *Network) NodeIDs() []string {
	net.mu.RLock()
	defer net.mu.RUnlock()
	ids := make([]string, 0, len(net.nodes))
	for id := range net.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
