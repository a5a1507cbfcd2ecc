package connection

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"
)

// maxFrameSize bounds a single frame the same way network/peer.go bounds
// P2P messages: a stalled or malicious peer cannot force unbounded
// memory growth.
const maxFrameSize = 32 * 1024 * 1024

// frameDeadline is the default read deadline when ctx carries none.
const frameDeadline = 30 * time.Second

type frameKind string

const (
	frameAttestRequest  frameKind = "attest_request"
	frameAttestResponse frameKind = "attest_response"
	frameSealed         frameKind = "sealed"
	frameError          frameKind = "error"
)

type wireFrame struct {
	Kind    frameKind       `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// transport carries length-prefixed JSON wireFrames over a net.Conn — the
// same wire shape network/peer.go uses for P2P messages, generalised to
// the connection substrate's attest/sealed/error frame kinds.
type transport struct {
	conn net.Conn
}

func dial(addr string, tlsCfg *tls.Config) (*transport, error) {
	var conn net.Conn
	var err error
	if tlsCfg != nil {
		conn, err = tls.Dial("tcp", addr, tlsCfg)
	} else {
		conn, err = net.Dial("tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("connection: dial %s: %w", addr, err)
	}
	return &transport{conn: conn}, nil
}

func newTransport(conn net.Conn) *transport { return &transport{conn: conn} }

func (t *transport) send(f wireFrame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))
	if _, err := t.conn.Write(header[:]); err != nil {
		return err
	}
	_, err = t.conn.Write(data)
	return err
}

// receive reads the next frame, bounding the wait by ctx's deadline if it
// has one, or frameDeadline otherwise. AttestedCall introduces no
// timeout of its own; this is the transport deadline it inherits.
func (t *transport) receive(ctx context.Context) (wireFrame, error) {
	deadline := time.Now().Add(frameDeadline)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	_ = t.conn.SetReadDeadline(deadline)

	var header [4]byte
	if _, err := io.ReadFull(t.conn, header[:]); err != nil {
		return wireFrame{}, err
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > maxFrameSize {
		return wireFrame{}, fmt.Errorf("connection: frame too large: %d bytes", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(t.conn, buf); err != nil {
		return wireFrame{}, err
	}
	var f wireFrame
	if err := json.Unmarshal(buf, &f); err != nil {
		return wireFrame{}, err
	}
	return f, nil
}

func (t *transport) close() error { return t.conn.Close() }
