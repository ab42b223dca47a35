package state

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

// AddKnownPeer provides the ability to add a new peer. This node is never
// added to its own list.
func (s *State) AddKnownPeer(pr peer.Peer) bool {
	if pr.Match(s.host) {
		return false
	}

	return s.knownPeers.Add(pr)
}

// RemoveKnownPeer removes a peer that can no longer be reached.
func (s *State) RemoveKnownPeer(pr peer.Peer) {
	s.knownPeers.Remove(pr)
}
