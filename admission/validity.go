package admission

import "github.com/tolchain/consensuscore/ledger"

// ValidityCheck determines whether a single well-formed transaction is
// currently safe to append to the ledger. Checks run in the
// order given below and short-circuit on the first failure; that order is
// normative so error reporting is reproducible across honest replicas.
//
//  1. cur = ledger.NumBlocks(); storage failure -> *LedgerError.
//  2. tombstone: cur >= c.TombstoneBlock() -> ErrTombstoneBlockExceeded.
//     A transaction whose tombstone equals cur is expired.
//  3. every key image: present or error -> ErrContainsSpentKeyImage.
//  4. every output public key: present or error ->
//     ErrContainsExistingOutputPublicKey.
func ValidityCheck(lv ledger.View, c *WellFormedTxContext) error {
	cur, err := lv.NumBlocks()
	if err != nil {
		return newLedgerError("num_blocks", err)
	}

	if err := validateTombstone(cur, c.TombstoneBlock()); err != nil {
		return err
	}

	for _, ki := range c.keyImages {
		spent, err := lv.ContainsKeyImage(ki)
		if err != nil || spent {
			// Conservative-true: a ledger error is treated exactly like a
			// hit. A flaky ledger must never cause a double-spend
			// admission, even at the cost of rejecting a valid tx.
			return ErrContainsSpentKeyImage
		}
	}

	for _, pk := range c.outputPublicKeys {
		exists, err := lv.ContainsTxOutPublicKey(pk)
		if err != nil || exists {
			return ErrContainsExistingOutputPublicKey
		}
	}

	return nil
}

// validateTombstone fails iff cur >= tombstoneBlock. Kept as its own
// function because it is also the property checked by V1;
// ValidateTombstone below is its exported form.
func validateTombstone(cur uint64, tombstoneBlock ledger.BlockIndex) error {
	if cur >= uint64(tombstoneBlock) {
		return ErrTombstoneBlockExceeded
	}
	return nil
}

// ValidateTombstone is the exported form of validateTombstone, usable
// directly by callers (e.g. the enclave-side checker) that already have a
// block count in hand and want the tombstone rule without a full
// ValidityCheck.
func ValidateTombstone(cur uint64, tombstoneBlock ledger.BlockIndex) error {
	return validateTombstone(cur, tombstoneBlock)
}
