// Package domainseparators holds the domain-separation tags the enclave's
// hash functions use. The untrusted core never hashes anything itself but
// must surface these strings verbatim wherever it describes or logs the
// enclave-side checks it pairs with.
package domainseparators

// Domain separation allows several distinct hash functions to be derived
// from one base function:
//
//	Hash_1(X) = Hash(Tag_1 || X)
//	Hash_2(X) = Hash(Tag_2 || X)
//
// Tags must uniquely identify the hash function and its protocol version.
const (
	// AmountValueTag separates Amount's value mask hash function.
	AmountValueTag = "mc_amount_value_v0"

	// AmountBlindingTag separates Amount's blinding mask hash function.
	AmountBlindingTag = "mc_amount_blinding_v0"

	// RingMLSAGChallengeTag separates RingMLSAG's challenge hash function.
	RingMLSAGChallengeTag = "mc_ring_mlsag_challenge_v0"
)
