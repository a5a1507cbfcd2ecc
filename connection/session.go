package connection

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"sync"

	"golang.org/x/crypto/nacl/box"
)

// attestationReport is what each side presents during attest(): an
// ephemeral X25519 public key authenticated by the sender's long-term
// Ed25519 identity, binding the key exchange to a known peer.
type attestationReport struct {
	ephemeralPublicKey [32]byte
	identityPublicKey  ed25519.PublicKey
	signature          []byte
}

func signReport(id *Identity, ephemeralPub *[32]byte) *attestationReport {
	sig := ed25519.Sign(id.priv, ephemeralPub[:])
	return &attestationReport{
		ephemeralPublicKey: *ephemeralPub,
		identityPublicKey:  id.pub,
		signature:          sig,
	}
}

// verifyReport checks the report's signature and, when trusted is
// non-nil, that it came from exactly that identity. trusted == nil
// accepts any correctly self-signed report, the mode used when a peer's
// identity is learned rather than pre-configured.
func verifyReport(r *attestationReport, trusted ed25519.PublicKey) error {
	if trusted != nil && !trusted.Equal(r.identityPublicKey) {
		return errors.New("connection: attestation report from unexpected identity")
	}
	if !ed25519.Verify(r.identityPublicKey, r.ephemeralPublicKey[:], r.signature) {
		return errors.New("connection: attestation report signature invalid")
	}
	return nil
}

// secureSession seals and opens application frames once attest() has
// completed, using an X25519 shared key precomputed from both sides'
// ephemeral keys. Every sealed frame is prefixed with its own nonce: a
// sender-owned monotonic counter in the first 8 bytes, so one sender never
// repeats a nonce, and 16 random bytes in the rest, so the two ends of the
// session, which seal under the same shared key with counters that both
// start at zero, do not produce the same nonces.
type secureSession struct {
	shared [32]byte

	mu      sync.Mutex
	sendCtr uint64
}

func newSecureSession(peerEphemeralPub, localEphemeralPriv *[32]byte) *secureSession {
	var shared [32]byte
	box.Precompute(&shared, peerEphemeralPub, localEphemeralPriv)
	return &secureSession{shared: shared}
}

func (s *secureSession) seal(plaintext []byte) []byte {
	s.mu.Lock()
	var nonce [24]byte
	binary.BigEndian.PutUint64(nonce[:8], s.sendCtr)
	s.sendCtr++
	s.mu.Unlock()
	rand.Read(nonce[8:])

	out := make([]byte, 24, 24+len(plaintext)+box.Overhead)
	copy(out, nonce[:])
	return box.SealAfterPrecomputation(out, plaintext, &nonce, &s.shared)
}

func (s *secureSession) open(sealed []byte) ([]byte, error) {
	if len(sealed) < 24 {
		return nil, errors.New("connection: sealed frame too short")
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	out, ok := box.OpenAfterPrecomputation(nil, sealed[24:], &nonce, &s.shared)
	if !ok {
		return nil, errors.New("connection: frame authentication failed")
	}
	return out, nil
}
