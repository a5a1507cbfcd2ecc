package connection

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/nacl/box"

	"github.com/tolchain/consensuscore/ledger"
)

// PeerClient is the concrete, per-peer connection. It composes the Base,
// Attested, BlockchainConnection, and UserTxConnection capabilities over
// a single transport — independent capability interfaces on one
// concrete type, rather than a class hierarchy.
type PeerClient struct {
	uri         Uri
	responderID ResponderId
	identity    *Identity
	trustedPeer ed25519.PublicKey // nil accepts any remote identity

	mu        sync.Mutex // serialises attest/deattest/RPC
	transport *transport
	attested  bool
	session   *secureSession
}

// NewPeerClient wraps an already-established transport as a peer client
// that will attest using identity and verify the remote's attestation
// report against trustedPeer (nil accepts any remote identity).
func NewPeerClient(uri Uri, identity *Identity, trustedPeer ed25519.PublicKey, conn *transport) (*PeerClient, error) {
	id, err := uri.ResponderID()
	if err != nil {
		return nil, err
	}
	return &PeerClient{
		uri:         uri,
		responderID: id,
		identity:    identity,
		trustedPeer: trustedPeer,
		transport:   conn,
	}, nil
}

// DialPeerClient dials addr and returns an unattested PeerClient.
func DialPeerClient(uri Uri, identity *Identity, trustedPeer ed25519.PublicKey, tlsCfg *tls.Config) (*PeerClient, error) {
	t, err := dial(uri.Addr, tlsCfg)
	if err != nil {
		return nil, err
	}
	return NewPeerClient(uri, identity, trustedPeer, t)
}

// Close releases the underlying transport.
func (c *PeerClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport.close()
}

func (c *PeerClient) URI() Uri                          { return c.uri }
func (c *PeerClient) ResponderID() (ResponderId, error) { return c.responderID, nil }
func (c *PeerClient) String() string                    { return fmt.Sprintf("PeerClient{%s}", c.uri) }

// IsAttested reports whether the connection currently holds a live
// session.
func (c *PeerClient) IsAttested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attested
}

// Attest performs the ECDH handshake: an ephemeral X25519 keypair
// authenticated by this peer's long-term Ed25519 identity. Cancelling
// ctx before the handshake completes leaves the connection unattested,
// never partially attested.
func (c *PeerClient) Attest(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attestLocked(ctx)
}

func (c *PeerClient) attestLocked(ctx context.Context) error {
	ephPub, ephPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("connection: generate ephemeral key: %w", err)
	}
	report := signReport(c.identity, ephPub)
	reqBody, err := json.Marshal(wireAttestationReport{
		EphemeralPublicKey: ephPub[:],
		IdentityPublicKey:  report.identityPublicKey,
		Signature:          report.signature,
	})
	if err != nil {
		return err
	}
	if err := c.transport.send(wireFrame{Kind: frameAttestRequest, Payload: reqBody}); err != nil {
		return err
	}
	respFrame, err := c.transport.receive(ctx)
	if err != nil {
		return err
	}
	if respFrame.Kind != frameAttestResponse {
		return fmt.Errorf("connection: expected attest_response, got %q", respFrame.Kind)
	}
	var wr wireAttestationReport
	if err := json.Unmarshal(respFrame.Payload, &wr); err != nil {
		return err
	}
	if len(wr.EphemeralPublicKey) != 32 {
		return fmt.Errorf("connection: malformed ephemeral public key from peer")
	}
	var peerEph [32]byte
	copy(peerEph[:], wr.EphemeralPublicKey)
	peerReport := &attestationReport{
		ephemeralPublicKey: peerEph,
		identityPublicKey:  ed25519.PublicKey(wr.IdentityPublicKey),
		signature:          wr.Signature,
	}
	if err := verifyReport(peerReport, c.trustedPeer); err != nil {
		return err
	}
	c.session = newSecureSession(&peerReport.ephemeralPublicKey, ephPriv)
	c.attested = true
	return nil
}

// Deattest marks the connection unattested, discarding the session key.
// The next attested call re-attests from scratch.
func (c *PeerClient) Deattest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attested = false
	c.session = nil
}

// AttestedCall invokes f under c's attestation lifecycle:
//  1. If c is not attested, Attest is called first; its error is
//     returned wrapped as *AttestationError and c remains unattested.
//  2. f is invoked with exclusive access to c, held for the whole
//     sequence so no other goroutine can observe or mutate attestation
//     state mid-call.
//  3. If f's error is a *TransportError with Status ==
//     StatusUnauthenticated, c is deattested as a side effect before the
//     error is returned.
//
// Transport errors from f are never folded into an AttestationError:
// they are returned to the caller exactly as f produced them.
func AttestedCall[T any](ctx context.Context, c *PeerClient, f func(ctx context.Context, c *PeerClient) (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if !c.attested {
		if err := c.attestLocked(ctx); err != nil {
			return zero, &AttestationError{Err: err}
		}
	}
	result, err := f(ctx, c)
	if isUnauthenticated(err) {
		c.attested = false
		c.session = nil
	}
	return result, err
}

func isUnauthenticated(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	return te.Status == StatusUnauthenticated
}

// doRequestLocked sends a sealed application request and returns its
// response body. The caller must already hold c.mu (it is only ever
// called from within the closure AttestedCall passes to f).
func (c *PeerClient) doRequestLocked(ctx context.Context, method appMethod, body any) (json.RawMessage, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Status: StatusInvalidArgument, Detail: err.Error()}
	}
	reqBytes, err := json.Marshal(appRequest{Method: method, Body: bodyBytes})
	if err != nil {
		return nil, &TransportError{Status: StatusInvalidArgument, Detail: err.Error()}
	}
	sealed := c.session.seal(reqBytes)
	sealedJSON, err := json.Marshal(sealed)
	if err != nil {
		return nil, &TransportError{Status: StatusInvalidArgument, Detail: err.Error()}
	}
	if err := c.transport.send(wireFrame{Kind: frameSealed, Payload: sealedJSON}); err != nil {
		return nil, &TransportError{Status: StatusUnavailable, Detail: err.Error()}
	}

	respFrame, err := c.transport.receive(ctx)
	if err != nil {
		return nil, &TransportError{Status: StatusUnavailable, Detail: err.Error()}
	}
	if respFrame.Kind == frameError {
		var we wireErr
		if err := json.Unmarshal(respFrame.Payload, &we); err != nil {
			return nil, &TransportError{Status: StatusUnavailable, Detail: err.Error()}
		}
		return nil, we.toError()
	}

	var sealedResp []byte
	if err := json.Unmarshal(respFrame.Payload, &sealedResp); err != nil {
		return nil, &TransportError{Status: StatusUnavailable, Detail: err.Error()}
	}
	plain, err := c.session.open(sealedResp)
	if err != nil {
		return nil, &TransportError{Status: StatusUnauthenticated, Detail: err.Error()}
	}
	var resp appResponse
	if err := json.Unmarshal(plain, &resp); err != nil {
		return nil, &TransportError{Status: StatusUnavailable, Detail: err.Error()}
	}
	if resp.Err != nil {
		return nil, resp.Err.toError()
	}
	return resp.Body, nil
}

func (c *PeerClient) FetchBlocks(ctx context.Context, start, end ledger.BlockIndex) ([]ledger.Block, error) {
	return AttestedCall(ctx, c, func(ctx context.Context, c *PeerClient) ([]ledger.Block, error) {
		body, err := c.doRequestLocked(ctx, methodFetchBlocks, fetchBlocksRequest{Start: uint64(start), End: uint64(end)})
		if err != nil {
			return nil, err
		}
		var resp fetchBlocksResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, &TransportError{Status: StatusUnavailable, Detail: err.Error()}
		}
		return resp.Blocks, nil
	})
}

func (c *PeerClient) FetchBlockIDs(ctx context.Context, start, end ledger.BlockIndex) ([]ledger.BlockID, error) {
	return AttestedCall(ctx, c, func(ctx context.Context, c *PeerClient) ([]ledger.BlockID, error) {
		body, err := c.doRequestLocked(ctx, methodFetchBlockIDs, fetchBlocksRequest{Start: uint64(start), End: uint64(end)})
		if err != nil {
			return nil, err
		}
		var resp fetchBlockIDsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, &TransportError{Status: StatusUnavailable, Detail: err.Error()}
		}
		return resp.IDs, nil
	})
}

func (c *PeerClient) FetchBlockHeight(ctx context.Context) (ledger.BlockIndex, error) {
	return AttestedCall(ctx, c, func(ctx context.Context, c *PeerClient) (ledger.BlockIndex, error) {
		body, err := c.doRequestLocked(ctx, methodFetchBlockHeight, struct{}{})
		if err != nil {
			return 0, err
		}
		var resp fetchBlockHeightResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return 0, &TransportError{Status: StatusUnavailable, Detail: err.Error()}
		}
		return ledger.BlockIndex(resp.Height), nil
	})
}

func (c *PeerClient) ProposeTx(ctx context.Context, encryptedTx []byte) (ledger.BlockIndex, error) {
	return AttestedCall(ctx, c, func(ctx context.Context, c *PeerClient) (ledger.BlockIndex, error) {
		body, err := c.doRequestLocked(ctx, methodProposeTx, proposeTxRequest{EncryptedTx: encryptedTx})
		if err != nil {
			return 0, err
		}
		var resp proposeTxResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return 0, &TransportError{Status: StatusUnavailable, Detail: err.Error()}
		}
		return ledger.BlockIndex(resp.Height), nil
	})
}

func (c *PeerClient) RetryFetchBlocks(ctx context.Context, start, end ledger.BlockIndex, sched Schedule) ([]ledger.Block, error) {
	return retryOp(ctx, sched, func() ([]ledger.Block, error) { return c.FetchBlocks(ctx, start, end) })
}

func (c *PeerClient) RetryFetchBlockIDs(ctx context.Context, start, end ledger.BlockIndex, sched Schedule) ([]ledger.BlockID, error) {
	return retryOp(ctx, sched, func() ([]ledger.BlockID, error) { return c.FetchBlockIDs(ctx, start, end) })
}

func (c *PeerClient) RetryFetchBlockHeight(ctx context.Context, sched Schedule) (ledger.BlockIndex, error) {
	return retryOp(ctx, sched, func() (ledger.BlockIndex, error) { return c.FetchBlockHeight(ctx) })
}

func (c *PeerClient) RetryProposeTx(ctx context.Context, encryptedTx []byte, sched Schedule) (ledger.BlockIndex, error) {
	return retryOp(ctx, sched, func() (ledger.BlockIndex, error) { return c.ProposeTx(ctx, encryptedTx) })
}
