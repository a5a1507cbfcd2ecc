package connection

import (
	"context"

	"github.com/tolchain/consensuscore/ledger"
)

// BlockchainConnection is the read side of the outbound peer RPC
// surface: fetching blocks, block ids, and the current height. Range
// semantics are an open half-range; a response may be shorter than
// requested if the server holds fewer blocks than asked for.
type BlockchainConnection interface {
	FetchBlocks(ctx context.Context, start, end ledger.BlockIndex) ([]ledger.Block, error)
	FetchBlockIDs(ctx context.Context, start, end ledger.BlockIndex) ([]ledger.BlockID, error)
	FetchBlockHeight(ctx context.Context) (ledger.BlockIndex, error)
}

// RetryableBlockchainConnection is the retry-wrapped counterpart: each
// call is parameterised by a fresh, single-use Schedule.
type RetryableBlockchainConnection interface {
	RetryFetchBlocks(ctx context.Context, start, end ledger.BlockIndex, sched Schedule) ([]ledger.Block, error)
	RetryFetchBlockIDs(ctx context.Context, start, end ledger.BlockIndex, sched Schedule) ([]ledger.BlockID, error)
	RetryFetchBlockHeight(ctx context.Context, sched Schedule) (ledger.BlockIndex, error)
}
