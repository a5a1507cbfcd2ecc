package connection

import (
	"context"
	"testing"

	"github.com/tolchain/consensuscore/internal/testutil"
	"github.com/tolchain/consensuscore/ledger"
)

// stubBackend is a minimal, scriptable Backend for exercising the wire
// protocol without a real ledger or admission.Pool behind it.
type stubBackend struct {
	height       ledger.BlockIndex
	blocks       []ledger.Block
	proposeErr   []error // consumed in order, then nil forever
	proposeCalls int
}

func (b *stubBackend) FetchBlocks(ctx context.Context, start, end ledger.BlockIndex) ([]ledger.Block, error) {
	var out []ledger.Block
	for _, blk := range b.blocks {
		if blk.Index >= start && blk.Index < end {
			out = append(out, blk)
		}
	}
	return out, nil
}

func (b *stubBackend) FetchBlockIDs(ctx context.Context, start, end ledger.BlockIndex) ([]ledger.BlockID, error) {
	blocks, _ := b.FetchBlocks(ctx, start, end)
	ids := make([]ledger.BlockID, len(blocks))
	for i, blk := range blocks {
		ids[i] = blk.ID
	}
	return ids, nil
}

func (b *stubBackend) FetchBlockHeight(ctx context.Context) (ledger.BlockIndex, error) {
	if b.proposeCalls < len(b.proposeErr) {
		err := b.proposeErr[b.proposeCalls]
		b.proposeCalls++
		if err != nil {
			return 0, err
		}
	}
	return b.height, nil
}

func (b *stubBackend) ProposeTx(ctx context.Context, encryptedTx []byte) (ledger.BlockIndex, error) {
	return b.height, nil
}

// newLoopback wires a PeerClient to a Server over an in-memory net.Pipe,
// returning both sides ready to use. serverIdentity/clientIdentity are
// generated fresh; trust is mutual (each side pins the other's public
// key) unless overridden by the caller after construction.
func newLoopback(t *testing.T, backend Backend) (*PeerClient, *Server) {
	t.Helper()
	clientSide, serverSide := testutil.PeerPair()

	clientIdentity, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity (client): %v", err)
	}
	serverIdentity, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity (server): %v", err)
	}

	srv := NewServer("", serverIdentity, clientIdentity.Public(), nil, backend)
	srv.Serve(serverSide)

	client, err := NewPeerClient(Uri{Scheme: "mcp", Addr: "loopback"}, clientIdentity, serverIdentity.Public(), newTransport(clientSide))
	if err != nil {
		t.Fatalf("NewPeerClient: %v", err)
	}
	t.Cleanup(func() {
		srv.Stop()
		client.Close()
	})
	return client, srv
}
