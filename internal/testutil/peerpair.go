package testutil

import "net"

// PeerPair returns two in-memory net.Conn endpoints joined by net.Pipe,
// for wiring a connection.PeerClient directly to a connection.Server in
// tests without a real socket.
func PeerPair() (client, server net.Conn) {
	return net.Pipe()
}
