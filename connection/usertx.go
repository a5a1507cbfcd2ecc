package connection

import (
	"context"

	"github.com/tolchain/consensuscore/ledger"
)

// UserTxConnection is the write side of the outbound peer RPC surface:
// submitting an already-encrypted transaction and learning the ledger
// height the server observed at receipt.
type UserTxConnection interface {
	ProposeTx(ctx context.Context, encryptedTx []byte) (ledger.BlockIndex, error)
}

// RetryableUserTxConnection is the retry-wrapped counterpart.
type RetryableUserTxConnection interface {
	RetryProposeTx(ctx context.Context, encryptedTx []byte, sched Schedule) (ledger.BlockIndex, error)
}
