// Package connection implements the peer-connection substrate: per-peer
// clients with an attestation lifecycle layered over blockchain and
// transaction-submission capabilities, retry wrappers around those
// capabilities, and a process-wide connection manager.
package connection

// Connection is the base capability every peer client implements: a
// stable URI-derived identity plus a display name. Equality, ordering,
// and hashing all fall out of ResponderID being a plain Go string — no
// separate comparator is needed.
type Connection interface {
	URI() Uri
	ResponderID() (ResponderId, error)
	String() string
}
