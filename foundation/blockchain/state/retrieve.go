package state

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveWalletAddress returns the address of the node's wallet.
func (s *State) RetrieveWalletAddress() string {
	return s.wallet.Address()
}

// RetrieveChain returns a copy of the entire chain.
func (s *State) RetrieveChain() []database.Block {
	return s.db.Copy()
}

// RetrieveChainLength returns the number of blocks in the chain.
func (s *State) RetrieveChainLength() int {
	return s.db.Length()
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveMempool returns a copy of the mempool.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveKnownAddresses returns the addresses found in the chain.
func (s *State) RetrieveKnownAddresses() []string {
	return s.db.KnownAddresses()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrievePeerStatus returns the status of this node for its peers.
func (s *State) RetrievePeerStatus() peer.PeerStatus {
	return peer.PeerStatus{
		LatestBlockHash: s.db.LatestBlock().Hash,
		ChainLength:     s.db.Length(),
		KnownPeers:      s.RetrieveKnownPeers(),
	}
}
