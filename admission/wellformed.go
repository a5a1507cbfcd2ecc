package admission

import "github.com/tolchain/consensuscore/ledger"

// WellFormedCheck performs the non-enclave part of the well-formed
// check. It fetches membership proofs for highestIndices, then reads
// the ledger's block count, and returns (num_blocks-1, proofs).
//
// The order matters: proofs must be fetched before the block count. A new
// block may be written between the two reads; that is harmless because
// the returned block index is only ever used for tombstone checking,
// which is monotone — a transaction accepted under a smaller block index
// stays acceptable under any larger one. Swapping the order would not be
// incorrect in the same way, but it is not what replicas agree on, so it
// must be preserved verbatim.
func WellFormedCheck(lv ledger.View, highestIndices []uint64) (ledger.BlockIndex, []ledger.MembershipProof, error) {
	proofs, err := lv.GetTxOutMembershipProofs(highestIndices)
	if err != nil {
		return 0, nil, newLedgerError("get_tx_out_proof_of_memberships", err)
	}

	numBlocks, err := lv.NumBlocks()
	if err != nil {
		return 0, nil, newLedgerError("num_blocks", err)
	}

	return ledger.BlockIndex(numBlocks - 1), proofs, nil
}
