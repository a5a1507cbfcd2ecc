// Package ledgerfixture provides a durable, goleveldb-backed
// implementation of ledger.View for integration tests that want real
// on-disk persistence instead of internal/testutil's in-memory fixture.
// The production admission core persists nothing itself; this is
// reference plumbing only.
package ledgerfixture

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/tolchain/consensuscore/ledger"
)

var errNotFound = leveldb.ErrNotFound

// LevelDBLedger implements ledger.View on top of a LevelDB database.
type LevelDBLedger struct {
	db *leveldb.DB
}

// Open opens (or creates) a LevelDB-backed ledger at path.
func Open(path string) (*LevelDBLedger, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("ledgerfixture: open %q: %w", path, err)
	}
	return &LevelDBLedger{db: db}, nil
}

// Close releases the underlying database handle.
func (l *LevelDBLedger) Close() error {
	return l.db.Close()
}

var numBlocksKey = []byte("meta:num_blocks")

func keyImageKey(k ledger.KeyImage) []byte  { return append([]byte("ki:"), k[:]...) }
func outputKeyKey(p ledger.PublicKey) []byte { return append([]byte("pk:"), p[:]...) }
func proofKey(index uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], index)
	return append([]byte("proof:"), b[:]...)
}

// NumBlocks returns the ledger's block count, or 0 if never set.
func (l *LevelDBLedger) NumBlocks() (uint64, error) {
	val, err := l.db.Get(numBlocksKey, nil)
	if err == errNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ledgerfixture: num_blocks: %w", err)
	}
	return binary.BigEndian.Uint64(val), nil
}

// SetNumBlocks records the ledger's current block count. Test-only
// mutator; ledger.View has no write surface.
func (l *LevelDBLedger) SetNumBlocks(n uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	return l.db.Put(numBlocksKey, b[:], nil)
}

// ContainsKeyImage reports whether k has been recorded as spent.
func (l *LevelDBLedger) ContainsKeyImage(k ledger.KeyImage) (bool, error) {
	ok, err := l.db.Has(keyImageKey(k), nil)
	if err != nil {
		return false, fmt.Errorf("ledgerfixture: contains key image: %w", err)
	}
	return ok, nil
}

// SpendKeyImage records k as spent. Test-only mutator.
func (l *LevelDBLedger) SpendKeyImage(k ledger.KeyImage) error {
	return l.db.Put(keyImageKey(k), []byte{1}, nil)
}

// ContainsTxOutPublicKey reports whether p has already been published.
func (l *LevelDBLedger) ContainsTxOutPublicKey(p ledger.PublicKey) (bool, error) {
	ok, err := l.db.Has(outputKeyKey(p), nil)
	if err != nil {
		return false, fmt.Errorf("ledgerfixture: contains output public key: %w", err)
	}
	return ok, nil
}

// PublishOutputKey records p as published. Test-only mutator.
func (l *LevelDBLedger) PublishOutputKey(p ledger.PublicKey) error {
	return l.db.Put(outputKeyKey(p), []byte{1}, nil)
}

// PutMembershipProof stores the proof for a global TxOut index. Test-only
// mutator; production membership proofs come from the enclave-trusted
// ledger, not this fixture.
func (l *LevelDBLedger) PutMembershipProof(index uint64, proof ledger.MembershipProof) error {
	data, err := json.Marshal(proof)
	if err != nil {
		return err
	}
	return l.db.Put(proofKey(index), data, nil)
}

// GetTxOutMembershipProofs returns one proof per requested index, in the
// same order. A missing index is a fatal fixture-setup error, surfaced
// as a wrapped error rather than a partial result.
func (l *LevelDBLedger) GetTxOutMembershipProofs(indices []uint64) ([]ledger.MembershipProof, error) {
	out := make([]ledger.MembershipProof, len(indices))
	for i, idx := range indices {
		data, err := l.db.Get(proofKey(idx), nil)
		if err == errNotFound {
			return nil, fmt.Errorf("ledgerfixture: no proof stored for index %d: %w", idx, ledger.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("ledgerfixture: get proof %d: %w", idx, err)
		}
		var p ledger.MembershipProof
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("ledgerfixture: decode proof %d: %w", idx, err)
		}
		out[i] = p
	}
	return out, nil
}
