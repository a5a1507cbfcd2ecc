package admission

import (
	"sort"

	"github.com/tolchain/consensuscore/ledger"
)

// Combine produces the final, bounded, deterministically-ordered set of
// hashes eligible for inclusion in the next block. Inputs are assumed to
// be individually valid (each has already passed ValidityCheck against
// the current ledger); Combine does not re-check validity, only mutual
// conflicts between candidates in the same proposed set.
//
// Determinism is load-bearing: two replicas that call Combine with the
// same multiset of candidates, in any input order, must produce
// byte-identical output, because this is the only place where the
// candidate set becomes the actual next-block content. That is why the
// first step is an explicit sort by WellFormedTxContext's total order
// rather than relying on the order candidates happened to be nominated
// in.
func Combine(candidates []*WellFormedTxContext, maxElements int) []ledger.TxHash {
	sorted := make([]*WellFormedTxContext, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Less(sorted[j])
	})

	accepted := make([]ledger.TxHash, 0, min(maxElements, len(sorted)))
	usedKeyImages := make(map[ledger.KeyImage]struct{})
	usedOutputKeys := make(map[ledger.PublicKey]struct{})

	for _, c := range sorted {
		if len(accepted) >= maxElements {
			break
		}
		if intersectsKeyImages(usedKeyImages, c.keyImages) {
			continue
		}
		if intersectsOutputKeys(usedOutputKeys, c.outputPublicKeys) {
			continue
		}

		accepted = append(accepted, c.txHash)
		for _, ki := range c.keyImages {
			usedKeyImages[ki] = struct{}{}
		}
		for _, pk := range c.outputPublicKeys {
			usedOutputKeys[pk] = struct{}{}
		}
	}

	return accepted
}

func intersectsKeyImages(used map[ledger.KeyImage]struct{}, candidate []ledger.KeyImage) bool {
	for _, ki := range candidate {
		if _, ok := used[ki]; ok {
			return true
		}
	}
	return false
}

func intersectsOutputKeys(used map[ledger.PublicKey]struct{}, candidate []ledger.PublicKey) bool {
	for _, pk := range candidate {
		if _, ok := used[pk]; ok {
			return true
		}
	}
	return false
}
