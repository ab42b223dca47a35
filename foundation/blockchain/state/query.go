package state

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// QueryBalance replays the chain to return the balance of the address.
func (s *State) QueryBalance(address string) uint64 {
	return s.db.Balance(address)
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlocksRange returns the blocks between start and end with the
// newest block at position zero. The bounds are clamped to the chain.
func (s *State) QueryBlocksRange(start int, end int) []database.Block {
	chain := s.db.Copy()

	if start < 0 {
		start = 0
	}
	if end > len(chain) {
		end = len(chain)
	}
	if start >= end {
		return []database.Block{}
	}

	out := make([]database.Block, 0, end-start)
	for i := len(chain) - 1 - start; i > len(chain)-1-end; i-- {
		out = append(out, chain[i])
	}

	return out
}
