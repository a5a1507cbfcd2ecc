package admission

import (
	"bytes"
	"fmt"

	"github.com/tolchain/consensuscore/ledger"
)

// TxContext is the opaque-to-enclave portion of a candidate transaction:
// everything the untrusted core needs in order to ask the enclave's
// well-formed checker to do its work, plus the encrypted blob it will
// eventually hand to a peer via UserTxConnection.ProposeTx.
type TxContext struct {
	TxHash             ledger.TxHash
	HighestIndices     []uint64
	KeyImages          []ledger.KeyImage
	OutputPublicKeys   []ledger.PublicKey
	LocallyEncryptedTx []byte
}

// WellFormedTxContext is the post-enclave, fee-tagged summary of a
// transaction sufficient for untrusted admission and combining. It is
// immutable once constructed; NewWellFormedTxContext enforces the
// within-tx invariants so that nothing downstream has to re-check them.
type WellFormedTxContext struct {
	txHash           ledger.TxHash
	fee              uint64
	tombstoneBlock   ledger.BlockIndex
	highestIndices   []uint64
	keyImages        []ledger.KeyImage
	outputPublicKeys []ledger.PublicKey
}

// NewWellFormedTxContext validates the within-tx invariants (key images
// pairwise distinct, output public keys pairwise distinct) and returns an
// immutable WellFormedTxContext. The enclave is expected to have already
// performed well-formedness checks on the rest of the transaction; this
// constructor only guards the part the untrusted core relies on.
func NewWellFormedTxContext(ctx TxContext, fee uint64, tombstoneBlock ledger.BlockIndex) (*WellFormedTxContext, error) {
	seenKI := make(map[ledger.KeyImage]struct{}, len(ctx.KeyImages))
	for _, ki := range ctx.KeyImages {
		if _, dup := seenKI[ki]; dup {
			return nil, errDuplicateKeyImage
		}
		seenKI[ki] = struct{}{}
	}
	seenPK := make(map[ledger.PublicKey]struct{}, len(ctx.OutputPublicKeys))
	for _, pk := range ctx.OutputPublicKeys {
		if _, dup := seenPK[pk]; dup {
			return nil, errDuplicateOutputPublicKey
		}
		seenPK[pk] = struct{}{}
	}

	return &WellFormedTxContext{
		txHash:           ctx.TxHash,
		fee:              fee,
		tombstoneBlock:   tombstoneBlock,
		highestIndices:   append([]uint64(nil), ctx.HighestIndices...),
		keyImages:        append([]ledger.KeyImage(nil), ctx.KeyImages...),
		outputPublicKeys: append([]ledger.PublicKey(nil), ctx.OutputPublicKeys...),
	}, nil
}

// TxHash returns the transaction's hash.
func (c *WellFormedTxContext) TxHash() ledger.TxHash { return c.txHash }

// Fee returns the transaction's fee.
func (c *WellFormedTxContext) Fee() uint64 { return c.fee }

// TombstoneBlock returns the block index at which the transaction expires.
func (c *WellFormedTxContext) TombstoneBlock() ledger.BlockIndex { return c.tombstoneBlock }

// HighestIndices returns the TxOut global indices the transaction's
// membership proofs reference.
func (c *WellFormedTxContext) HighestIndices() []uint64 {
	return append([]uint64(nil), c.highestIndices...)
}

// KeyImages returns the transaction's spent-output tags.
func (c *WellFormedTxContext) KeyImages() []ledger.KeyImage {
	return append([]ledger.KeyImage(nil), c.keyImages...)
}

// OutputPublicKeys returns the one-time public keys the transaction would
// publish.
func (c *WellFormedTxContext) OutputPublicKeys() []ledger.PublicKey {
	return append([]ledger.PublicKey(nil), c.outputPublicKeys...)
}

// Less implements the total order used for block nomination: fee descending, ties
// broken by tx_hash ascending (byte-lexicographic). This is the sole
// source of cross-replica determinism in the combiner — do not replace it
// with insertion order, map iteration, or any other unordered comparison.
func (c *WellFormedTxContext) Less(other *WellFormedTxContext) bool {
	if c.fee != other.fee {
		return c.fee > other.fee
	}
	return bytes.Compare(c.txHash[:], other.txHash[:]) < 0
}

func (c *WellFormedTxContext) String() string {
	return fmt.Sprintf("WellFormedTxContext{hash=%x fee=%d tombstone=%d}", c.txHash, c.fee, c.tombstoneBlock)
}
