// Package ledger defines the read-only view of the ledger that the
// untrusted admission core queries. The ledger storage engine itself is an
// external collaborator (see internal/ledgerfixture for test doubles); this
// package only names the interface and the domain types that cross it.
package ledger

import "errors"

// ErrNotFound is returned by View implementations when a requested object
// does not exist.
var ErrNotFound = errors.New("ledger: not found")

// KeyImage is a deterministic tag derived from a spent output, used for
// double-spend detection without revealing which output was spent.
type KeyImage [32]byte

// PublicKey is a one-time output public key published by a transaction.
type PublicKey [32]byte

// TxHash is a transaction's 32-byte hash.
type TxHash [32]byte

// BlockID is a block's identifying hash.
type BlockID [32]byte

// BlockIndex is a zero-based position of a block in the ledger. The
// ledger's height is one more than the highest index present.
type BlockIndex uint64

// MembershipProof is a Merkle-style proof that a TxOut at Index is part of
// the ledger's output tree at some block height.
type MembershipProof struct {
	Index     uint64
	Elements  [][]byte
	RootBlock BlockIndex
}

// Block is the minimal block metadata the connection substrate fetches
// from peers. The ledger storage engine's own block representation is out
// of scope; this is only the wire-level shape consumed here.
type Block struct {
	Index    BlockIndex
	ID       BlockID
	ParentID BlockID
}

// View is the read-only ledger interface the admission core consumes. All
// four operations may fail with a storage error. Boolean queries are
// conservatively treated as "true" by callers on error (see admission
// package) — View implementations must not paper over that by retrying or
// guessing; they should return the error as observed.
type View interface {
	// NumBlocks returns the number of blocks currently in the ledger. The
	// ledger's height; the highest valid BlockIndex is NumBlocks()-1.
	NumBlocks() (uint64, error)

	// ContainsKeyImage reports whether k has already been spent.
	ContainsKeyImage(k KeyImage) (bool, error)

	// ContainsTxOutPublicKey reports whether p has already been published
	// by some committed transaction.
	ContainsTxOutPublicKey(p PublicKey) (bool, error)

	// GetTxOutMembershipProofs returns one membership proof per requested
	// global TxOut index, rooted at some block at or below NumBlocks().
	GetTxOutMembershipProofs(indices []uint64) ([]MembershipProof, error)
}
