package admission

import (
	"testing"

	"github.com/tolchain/consensuscore/internal/testutil"
	"github.com/tolchain/consensuscore/ledger"
)

func mustCtx(t *testing.T, hash byte, fee uint64, kis []ledger.KeyImage, pks []ledger.PublicKey) *WellFormedTxContext {
	t.Helper()
	c, err := NewWellFormedTxContext(TxContext{
		TxHash:           testutil.TxHash(hash),
		KeyImages:        kis,
		OutputPublicKeys: pks,
	}, fee, 1000)
	if err != nil {
		t.Fatalf("NewWellFormedTxContext: %v", err)
	}
	return c
}

func hashesEqual(t *testing.T, got []ledger.TxHash, want []byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length: got %d want %d (%x)", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i] != testutil.TxHash(w) {
			t.Errorf("index %d: got %x want %x", i, got[i], testutil.TxHash(w))
		}
	}
}

// An empty candidate set combines to an empty block.
func TestCombineEmpty(t *testing.T) {
	out := Combine(nil, 10)
	if len(out) != 0 {
		t.Errorf("expected empty output, got %v", out)
	}
}

// A single candidate combines to itself.
func TestCombineSingleton(t *testing.T) {
	c := mustCtx(t, 0x01, 100, nil, nil)
	out := Combine([]*WellFormedTxContext{c}, 100)
	hashesEqual(t, out, []byte{0x01})
}

// The candidate set is capped at the requested block size.
func TestCombineMaxSizeCap(t *testing.T) {
	var candidates []*WellFormedTxContext
	for i := byte(0); i < 10; i++ {
		candidates = append(candidates, mustCtx(t, i, 0,
			[]ledger.KeyImage{testutil.KeyImage(i)},
			[]ledger.PublicKey{testutil.PublicKey(i)}))
	}
	out := Combine(candidates, 7)
	if len(out) != 7 {
		t.Fatalf("expected 7 hashes, got %d", len(out))
	}
	seen := make(map[ledger.TxHash]bool)
	for _, h := range out {
		seen[h] = true
	}
	if len(seen) != 7 {
		t.Errorf("expected 7 distinct hashes, got %d", len(seen))
	}
	// All fees are equal (0), so tie-break is hash ascending: the output
	// must be the 7 lowest-hash candidates, in ascending order.
	hashesEqual(t, out, []byte{0, 1, 2, 3, 4, 5, 6})
}

// Conflicting key image: higher fee wins, lower fee with the same key
// image is skipped, a third tx with a distinct key image still gets in.
func TestCombineConflictingKeyImage(t *testing.T) {
	k := testutil.KeyImage(0xAA)
	kPrime := testutil.KeyImage(0xBB)
	t1 := mustCtx(t, 0x01, 10, []ledger.KeyImage{k}, nil)
	t2 := mustCtx(t, 0x02, 5, []ledger.KeyImage{k}, nil)
	t3 := mustCtx(t, 0x03, 1, []ledger.KeyImage{kPrime}, nil)

	out := Combine([]*WellFormedTxContext{t1, t2, t3}, 10)
	hashesEqual(t, out, []byte{0x01, 0x03})
}

// Conflicting output public key resolves the same way as a conflicting
// key image.
func TestCombineConflictingOutputPublicKey(t *testing.T) {
	p := testutil.PublicKey(0xAA)
	q := testutil.PublicKey(0xBB)
	t1 := mustCtx(t, 0x01, 10, nil, []ledger.PublicKey{p})
	t2 := mustCtx(t, 0x02, 20, nil, []ledger.PublicKey{p})
	t3 := mustCtx(t, 0x03, 0, nil, []ledger.PublicKey{q})

	out := Combine([]*WellFormedTxContext{t1, t2, t3}, 10)
	hashesEqual(t, out, []byte{0x02, 0x03})
}

// With no conflicts, output order follows fee descending.
func TestCombineFeeSortOrder(t *testing.T) {
	t1 := mustCtx(t, 0x01, 100, nil, nil)
	t2 := mustCtx(t, 0x02, 557, nil, nil)
	t3 := mustCtx(t, 0x03, 88, nil, nil)

	out := Combine([]*WellFormedTxContext{t1, t2, t3}, 10)
	hashesEqual(t, out, []byte{0x02, 0x01, 0x03})
}

// Combine's output does not depend on the order candidates are given in.
func TestCombinePermutationInvariant(t *testing.T) {
	k1 := testutil.KeyImage(1)
	k2 := testutil.KeyImage(2)
	candidates := []*WellFormedTxContext{
		mustCtx(t, 0x01, 10, []ledger.KeyImage{k1}, nil),
		mustCtx(t, 0x02, 5, []ledger.KeyImage{k1}, nil),
		mustCtx(t, 0x03, 20, []ledger.KeyImage{k2}, nil),
	}
	reversed := []*WellFormedTxContext{candidates[2], candidates[0], candidates[1]}

	out1 := Combine(candidates, 10)
	out2 := Combine(reversed, 10)
	if len(out1) != len(out2) {
		t.Fatalf("length mismatch: %d vs %d", len(out1), len(out2))
	}
	for i := range out1 {
		if out1[i] != out2[i] {
			t.Errorf("index %d differs: %x vs %x", i, out1[i], out2[i])
		}
	}
}

// Output never exceeds the requested cap or the candidate count, and no
// two accepted transactions share a key image or output public key.
// Candidates pair up on key images (i/2), so some must be skipped.
func TestCombineBoundedAndDisjoint(t *testing.T) {
	var candidates []*WellFormedTxContext
	byHash := make(map[ledger.TxHash]*WellFormedTxContext)
	for i := byte(0); i < 5; i++ {
		c := mustCtx(t, i, uint64(i),
			[]ledger.KeyImage{testutil.KeyImage(i / 2)},
			[]ledger.PublicKey{testutil.PublicKey(i)})
		candidates = append(candidates, c)
		byHash[c.TxHash()] = c
	}
	out := Combine(candidates, 3)
	if len(out) > 3 || len(out) > len(candidates) {
		t.Fatalf("boundedness violated: %d", len(out))
	}
	usedKI := make(map[ledger.KeyImage]bool)
	usedPK := make(map[ledger.PublicKey]bool)
	for _, h := range out {
		c := byHash[h]
		for _, ki := range c.KeyImages() {
			if usedKI[ki] {
				t.Errorf("key image %x shared by two accepted transactions", ki)
			}
			usedKI[ki] = true
		}
		for _, pk := range c.OutputPublicKeys() {
			if usedPK[pk] {
				t.Errorf("output public key %x shared by two accepted transactions", pk)
			}
			usedPK[pk] = true
		}
	}
}
