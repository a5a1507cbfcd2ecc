package testutil

import "github.com/tolchain/consensuscore/ledger"

// Hash32 builds a deterministic 32-byte hash-shaped value from b, useful
// for constructing distinct TxHash/KeyImage/PublicKey fixtures in tests
// without pulling in real hashing or signing.
func Hash32(b byte) [32]byte {
	var h [32]byte
	h[0] = b
	return h
}

// TxHash is Hash32 typed as a ledger.TxHash.
func TxHash(b byte) ledger.TxHash { return ledger.TxHash(Hash32(b)) }

// KeyImage is Hash32 typed as a ledger.KeyImage.
func KeyImage(b byte) ledger.KeyImage { return ledger.KeyImage(Hash32(b)) }

// PublicKey is Hash32 typed as a ledger.PublicKey.
func PublicKey(b byte) ledger.PublicKey { return ledger.PublicKey(Hash32(b)) }
