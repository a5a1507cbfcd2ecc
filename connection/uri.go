package connection

import "fmt"

// ResponderId is a stable, hashable, totally-ordered peer identity derived
// from a connection's Uri. Being a Go string, it is already comparable
// and orders lexically, which satisfies both requirements without a
// custom hash or comparator.
type ResponderId string

// Uri is the address, scheme, and metadata a Connection needs in order to
// derive a ResponderId deterministically and to dial the peer.
type Uri struct {
	Scheme string // e.g. "mcp"; display only, TLS is chosen by the tls.Config given to DialPeerClient
	Addr   string // host:port
}

func (u Uri) String() string {
	if u.Scheme == "" {
		return u.Addr
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Addr)
}

// ResponderID derives the peer's ResponderId from the URI. It fails only
// when the URI is missing the address component it needs to be stable
// and unique, which the manager treats as a construction-time
// misconfiguration rather than a runtime condition.
func (u Uri) ResponderID() (ResponderId, error) {
	if u.Addr == "" {
		return "", fmt.Errorf("connection: uri %q has no address, cannot derive a responder id", u)
	}
	return ResponderId(u.Addr), nil
}
