package simnetwork

import (
	"fmt"
	"testing"
)

func TestConvergenceAcrossRounds(t *testing.T) {
	net := New("node-a", "node-b", "node-c")

	var submitted []string
	for round := 0; round < 5; round++ {
		var batch []string
		for i := 0; i < 4; i++ {
			v := fmt.Sprintf("round-%d-value-%d", round, i)
			batch = append(batch, v)
			net.Submit(v)
		}
		submitted = append(submitted, batch...)
		net.ProposeRound(10)
	}

	if !net.AllLedgersIdentical() {
		t.Errorf("expected every node to commit the same block sequence")
	}
	if !net.EverySubmittedValueCommitted(submitted) {
		t.Errorf("expected every submitted value to be committed by every node")
	}
	if !net.NoUnsubmittedValueCommitted(submitted) {
		t.Errorf("expected no node to commit a value that was never submitted")
	}
}

func TestConvergenceUnderBlockSizeCap(t *testing.T) {
	net := New("node-a", "node-b")

	var submitted []string
	for i := 0; i < 20; i++ {
		v := fmt.Sprintf("bulk-%d", i)
		submitted = append(submitted, v)
		net.Submit(v)
	}
	// Cap is below the candidate count: takes several rounds to drain.
	for round := 0; round < 4; round++ {
		net.ProposeRound(5)
	}

	if !net.AllLedgersIdentical() {
		t.Errorf("expected identical ledgers across nodes under a tight block cap")
	}
	if !net.NoUnsubmittedValueCommitted(submitted) {
		t.Errorf("expected no node to commit a value outside the submitted set")
	}
}

func TestSingleNodeNetworkTriviallyConverges(t *testing.T) {
	net := New("solo")
	net.Submit("only-value")
	net.ProposeRound(10)

	if !net.AllLedgersIdentical() {
		t.Errorf("a single-node network must trivially satisfy ledger equality")
	}
	if !net.EverySubmittedValueCommitted([]string{"only-value"}) {
		t.Errorf("expected the single submitted value to be committed")
	}
}
