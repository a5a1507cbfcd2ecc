package ledgerfixture

import (
	"path/filepath"
	"testing"

	"github.com/tolchain/consensuscore/ledger"
)

func openTestLedger(t *testing.T) *LevelDBLedger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestNumBlocksDefaultsToZero(t *testing.T) {
	l := openTestLedger(t)
	n, err := l.NumBlocks()
	if err != nil {
		t.Fatalf("NumBlocks: %v", err)
	}
	if n != 0 {
		t.Errorf("got %d want 0", n)
	}
	if err := l.SetNumBlocks(12); err != nil {
		t.Fatalf("SetNumBlocks: %v", err)
	}
	n, err = l.NumBlocks()
	if err != nil {
		t.Fatalf("NumBlocks: %v", err)
	}
	if n != 12 {
		t.Errorf("got %d want 12", n)
	}
}

func TestKeyImageAndOutputKeyRoundTrip(t *testing.T) {
	l := openTestLedger(t)
	var k ledger.KeyImage
	k[0] = 0xAB
	var p ledger.PublicKey
	p[0] = 0xCD

	if ok, _ := l.ContainsKeyImage(k); ok {
		t.Fatalf("expected key image absent before spend")
	}
	if err := l.SpendKeyImage(k); err != nil {
		t.Fatalf("SpendKeyImage: %v", err)
	}
	if ok, err := l.ContainsKeyImage(k); err != nil || !ok {
		t.Fatalf("got (%v, %v), want (true, nil)", ok, err)
	}

	if ok, _ := l.ContainsTxOutPublicKey(p); ok {
		t.Fatalf("expected output key absent before publish")
	}
	if err := l.PublishOutputKey(p); err != nil {
		t.Fatalf("PublishOutputKey: %v", err)
	}
	if ok, err := l.ContainsTxOutPublicKey(p); err != nil || !ok {
		t.Fatalf("got (%v, %v), want (true, nil)", ok, err)
	}
}

func TestMembershipProofsInOrder(t *testing.T) {
	l := openTestLedger(t)
	for i := uint64(0); i < 3; i++ {
		proof := ledger.MembershipProof{Index: i, Elements: [][]byte{{byte(i)}}, RootBlock: 5}
		if err := l.PutMembershipProof(i, proof); err != nil {
			t.Fatalf("PutMembershipProof(%d): %v", i, err)
		}
	}
	proofs, err := l.GetTxOutMembershipProofs([]uint64{2, 0, 1})
	if err != nil {
		t.Fatalf("GetTxOutMembershipProofs: %v", err)
	}
	if len(proofs) != 3 || proofs[0].Index != 2 || proofs[1].Index != 0 || proofs[2].Index != 1 {
		t.Errorf("unexpected order: %+v", proofs)
	}
}

func TestMembershipProofMissingIndexErrors(t *testing.T) {
	l := openTestLedger(t)
	if _, err := l.GetTxOutMembershipProofs([]uint64{99}); err == nil {
		t.Fatalf("expected error for unstored index")
	}
}
