package connection

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sync"

	"golang.org/x/crypto/nacl/box"

	"github.com/tolchain/consensuscore/ledger"
)

// Backend is the set of operations a Server dispatches incoming,
// already-decrypted requests to. A production node backs this with its
// real ledger and admission.Pool; tests back it with a stub.
type Backend interface {
	FetchBlocks(ctx context.Context, start, end ledger.BlockIndex) ([]ledger.Block, error)
	FetchBlockIDs(ctx context.Context, start, end ledger.BlockIndex) ([]ledger.BlockID, error)
	FetchBlockHeight(ctx context.Context) (ledger.BlockIndex, error)
	ProposeTx(ctx context.Context, encryptedTx []byte) (ledger.BlockIndex, error)
}

// Server is the accept-side counterpart to PeerClient: it terminates the
// attested session handshake and dispatches the blockchain/tx RPC
// surface to a Backend, the way network/node.go's acceptLoop/readLoop
// terminates the P2P wire protocol.
type Server struct {
	listenAddr  string
	identity    *Identity
	trustedPeer ed25519.PublicKey // nil accepts any client identity
	tlsConfig   *tls.Config
	backend     Backend

	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	listener net.Listener
	stopCh   chan struct{}
}

// NewServer creates a Server that will listen on listenAddr once Start
// is called.
func NewServer(listenAddr string, identity *Identity, trustedPeer ed25519.PublicKey, tlsCfg *tls.Config, backend Backend) *Server {
	return &Server{
		listenAddr:  listenAddr,
		identity:    identity,
		trustedPeer: trustedPeer,
		tlsConfig:   tlsCfg,
		backend:     backend,
		conns:       make(map[net.Conn]struct{}),
		stopCh:      make(chan struct{}),
	}
}

// Start binds the listener synchronously and begins accepting
// connections in the background, mirroring rpc/server.go's Start
// contract.
func (s *Server) Start() error {
	var ln net.Listener
	var err error
	if s.tlsConfig != nil {
		ln, err = tls.Listen("tcp", s.listenAddr, s.tlsConfig)
	} else {
		ln, err = net.Listen("tcp", s.listenAddr)
	}
	if err != nil {
		return fmt.Errorf("connection: listen %s: %w", s.listenAddr, err)
	}
	s.listener = ln
	go s.acceptLoop()
	return nil
}

// Addr returns the listener's bound address, useful when listenAddr uses
// port 0.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and every open connection.
func (s *Server) Stop() {
	close(s.stopCh)
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

// Serve wraps an already-accepted connection (e.g. one half of a
// net.Pipe) the same way acceptLoop would a dialed one. It is the entry
// point loopback tests use in place of a real listener.
func (s *Server) Serve(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	go s.serveConn(conn)
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				log.Printf("[connection] accept error: %v", err)
				continue
			}
		}
		s.Serve(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[connection] serveConn panic: %v", r)
		}
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	t := newTransport(conn)
	var session *secureSession

	for {
		f, err := t.receive(context.Background())
		if err != nil {
			return
		}
		switch f.Kind {
		case frameAttestRequest:
			sess, err := s.handleAttest(t, f)
			if err != nil {
				log.Printf("[connection] attest: %v", err)
				return
			}
			session = sess
		case frameSealed:
			if session == nil {
				_ = t.send(errorFrame(&TransportError{Status: StatusUnauthenticated, Detail: "not attested"}))
				continue
			}
			s.handleSealed(t, session, f)
		default:
			log.Printf("[connection] unexpected frame kind %q", f.Kind)
			return
		}
	}
}

func (s *Server) handleAttest(t *transport, f wireFrame) (*secureSession, error) {
	var wr wireAttestationReport
	if err := json.Unmarshal(f.Payload, &wr); err != nil {
		return nil, err
	}
	if len(wr.EphemeralPublicKey) != 32 {
		return nil, fmt.Errorf("connection: malformed ephemeral public key")
	}
	var peerEph [32]byte
	copy(peerEph[:], wr.EphemeralPublicKey)
	peerReport := &attestationReport{
		ephemeralPublicKey: peerEph,
		identityPublicKey:  ed25519.PublicKey(wr.IdentityPublicKey),
		signature:          wr.Signature,
	}
	if err := verifyReport(peerReport, s.trustedPeer); err != nil {
		return nil, err
	}

	ephPub, ephPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	report := signReport(s.identity, ephPub)
	respBody, err := json.Marshal(wireAttestationReport{
		EphemeralPublicKey: ephPub[:],
		IdentityPublicKey:  report.identityPublicKey,
		Signature:          report.signature,
	})
	if err != nil {
		return nil, err
	}
	if err := t.send(wireFrame{Kind: frameAttestResponse, Payload: respBody}); err != nil {
		return nil, err
	}
	return newSecureSession(&peerReport.ephemeralPublicKey, ephPriv), nil
}

func (s *Server) handleSealed(t *transport, session *secureSession, f wireFrame) {
	var sealed []byte
	if err := json.Unmarshal(f.Payload, &sealed); err != nil {
		_ = t.send(errorFrame(&TransportError{Status: StatusInvalidArgument, Detail: err.Error()}))
		return
	}
	plain, err := session.open(sealed)
	if err != nil {
		_ = t.send(errorFrame(&TransportError{Status: StatusUnauthenticated, Detail: err.Error()}))
		return
	}
	var req appRequest
	if err := json.Unmarshal(plain, &req); err != nil {
		_ = t.send(errorFrame(&TransportError{Status: StatusInvalidArgument, Detail: err.Error()}))
		return
	}

	body, appErr := s.dispatch(req)
	resp := appResponse{Err: toWireErr(appErr)}
	if appErr == nil {
		resp.Body = body
	}
	respBytes, err := json.Marshal(resp)
	if err != nil {
		_ = t.send(errorFrame(&TransportError{Status: StatusUnavailable, Detail: err.Error()}))
		return
	}
	sealedResp := session.seal(respBytes)
	sealedJSON, err := json.Marshal(sealedResp)
	if err != nil {
		return
	}
	_ = t.send(wireFrame{Kind: frameSealed, Payload: sealedJSON})
}

func (s *Server) dispatch(req appRequest) (json.RawMessage, error) {
	ctx := context.Background()
	switch req.Method {
	case methodFetchBlocks:
		var r fetchBlocksRequest
		if err := json.Unmarshal(req.Body, &r); err != nil {
			return nil, &TransportError{Status: StatusInvalidArgument, Detail: err.Error()}
		}
		blocks, err := s.backend.FetchBlocks(ctx, ledger.BlockIndex(r.Start), ledger.BlockIndex(r.End))
		if err != nil {
			return nil, err
		}
		return json.Marshal(fetchBlocksResponse{Blocks: blocks})
	case methodFetchBlockIDs:
		var r fetchBlocksRequest
		if err := json.Unmarshal(req.Body, &r); err != nil {
			return nil, &TransportError{Status: StatusInvalidArgument, Detail: err.Error()}
		}
		ids, err := s.backend.FetchBlockIDs(ctx, ledger.BlockIndex(r.Start), ledger.BlockIndex(r.End))
		if err != nil {
			return nil, err
		}
		return json.Marshal(fetchBlockIDsResponse{IDs: ids})
	case methodFetchBlockHeight:
		h, err := s.backend.FetchBlockHeight(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(fetchBlockHeightResponse{Height: uint64(h)})
	case methodProposeTx:
		var r proposeTxRequest
		if err := json.Unmarshal(req.Body, &r); err != nil {
			return nil, &TransportError{Status: StatusInvalidArgument, Detail: err.Error()}
		}
		h, err := s.backend.ProposeTx(ctx, r.EncryptedTx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(proposeTxResponse{Height: uint64(h)})
	default:
		return nil, &TransportError{Status: StatusInvalidArgument, Detail: fmt.Sprintf("unknown method %q", req.Method)}
	}
}

func errorFrame(err error) wireFrame {
	data, _ := json.Marshal(toWireErr(err))
	return wireFrame{Kind: frameError, Payload: data}
}
