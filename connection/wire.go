package connection

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tolchain/consensuscore/ledger"
)

// wireAttestationReport is attestationReport's wire form: byte slices
// marshal as base64 strings under encoding/json, which is more
// economical than the array-of-numbers encoding a fixed-size [32]byte
// array would otherwise get.
type wireAttestationReport struct {
	EphemeralPublicKey []byte `json:"ephemeral_public_key"`
	IdentityPublicKey  []byte `json:"identity_public_key"`
	Signature          []byte `json:"signature"`
}

type appMethod string

const (
	methodFetchBlocks      appMethod = "fetch_blocks"
	methodFetchBlockIDs    appMethod = "fetch_block_ids"
	methodFetchBlockHeight appMethod = "fetch_block_height"
	methodProposeTx        appMethod = "propose_tx"
)

type appRequest struct {
	Method appMethod       `json:"method"`
	Body   json.RawMessage `json:"body,omitempty"`
}

type appResponse struct {
	Body json.RawMessage `json:"body,omitempty"`
	Err  *wireErr        `json:"error,omitempty"`
}

type fetchBlocksRequest struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

type fetchBlocksResponse struct {
	Blocks []ledger.Block `json:"blocks"`
}

type fetchBlockIDsResponse struct {
	IDs []ledger.BlockID `json:"ids"`
}

type fetchBlockHeightResponse struct {
	Height uint64 `json:"height"`
}

type proposeTxRequest struct {
	EncryptedTx []byte `json:"encrypted_tx"`
}

type proposeTxResponse struct {
	Height uint64 `json:"height"`
}

// wireErr carries a TransportError or ApplicationError across the wire.
// AttestationError never crosses the wire: it is local to the attest
// handshake and never produced by dispatching an application request.
type wireErr struct {
	Kind   string `json:"kind"` // "transport" or "application"
	Status string `json:"status,omitempty"`
	Msg    string `json:"msg"`
}

func toWireErr(err error) *wireErr {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return &wireErr{Kind: "transport", Status: te.Status.String(), Msg: te.Detail}
	}
	var ae *ApplicationError
	if errors.As(err, &ae) {
		return &wireErr{Kind: "application", Msg: ae.Err.Error()}
	}
	return &wireErr{Kind: "application", Msg: err.Error()}
}

func (w *wireErr) toError() error {
	if w == nil {
		return nil
	}
	if w.Kind == "transport" {
		return &TransportError{Status: statusFromString(w.Status), Detail: w.Msg}
	}
	return &ApplicationError{Err: fmt.Errorf("%s", w.Msg)}
}

func statusFromString(s string) TransportStatus {
	switch s {
	case "UNAUTHENTICATED":
		return StatusUnauthenticated
	case "UNAVAILABLE":
		return StatusUnavailable
	case "DEADLINE_EXCEEDED":
		return StatusDeadlineExceeded
	case "INVALID_ARGUMENT":
		return StatusInvalidArgument
	default:
		return StatusUnknown
	}
}
