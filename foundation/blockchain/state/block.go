package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// MineNewBlock attempts to create a new block with a proper hash that can
// become the next block in the chain. The pending transactions that are
// still valid against the chain are mined together with the reward for
// this node's wallet.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: select transactions")

	// The transactions are checked against this snapshot and the block is
	// mined on its tip, so the append fails if the chain moves meanwhile.
	chain := s.db.Copy()
	tip := chain[len(chain)-1]

	var data []database.Tx
	for _, tx := range s.mempool.PickBest(-1) {
		if err := database.ValidatePendingTx(chain, tx, s.genesis); err != nil {
			s.evHandler("state: MineNewBlock: MINING: WARNING: dropping tx[%s]: %s", tx.ID, err)
			s.mempool.Delete(tx)
			continue
		}
		data = append(data, tx)
	}
	data = append(data, database.NewRewardTx(s.wallet.Address(), s.genesis.MiningReward))

	s.evHandler("state: MineNewBlock: MINING: perform POW: txs[%d]", len(data))

	block, err := s.db.AddBlock(ctx, tip, data)
	if err != nil {
		return database.Block{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: MineNewBlock: MINING: remove confirmed transactions")

	s.mempool.ClearConfirmed([]database.Block{block})
	s.blockEvent(block)

	return block, nil
}

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain. A block that does
// not link to the local tip means the peer is on a different chain, so a
// chain sync is signaled.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.LastHash, block.Hash, len(block.Data))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block.Hash)

	// If the runMiningOperation function is being executed it needs to stop
	// immediately. The G executing runMiningOperation will not return from the
	// function until done is called. That allows this function to complete
	// its state changes before a new mining operation takes place.
	done := s.Worker.SignalCancelMining()
	defer func() {
		s.evHandler("state: ProcessProposedBlock: signal runMiningOperation to terminate")
		done()
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Append(block); err != nil {
		if errors.Is(err, database.ErrLinkage) && block.Hash != s.db.LatestBlock().Hash {
			s.evHandler("state: ProcessProposedBlock: block does not link to tip: signal sync")
			s.Worker.SignalSync()
		}
		return err
	}

	s.mempool.ClearConfirmed([]database.Block{block})
	s.blockEvent(block)

	return nil
}

// ReplaceChain takes a chain received from a peer and swaps it in if it is
// longer than the local chain and fully valid.
func (s *State) ReplaceChain(blocks []database.Block) error {
	s.evHandler("state: ReplaceChain: started: length[%d]", len(blocks))
	defer s.evHandler("state: ReplaceChain: completed")

	done := s.Worker.SignalCancelMining()
	defer func() {
		s.evHandler("state: ReplaceChain: signal runMiningOperation to terminate")
		done()
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.ReplaceChain(blocks); err != nil {
		return err
	}

	n := s.mempool.ClearConfirmed(blocks)
	s.evHandler("state: ReplaceChain: removed confirmed transactions[%d]", n)

	s.rebuildMempool(blocks)

	s.blockEvent(blocks[len(blocks)-1])

	return nil
}

// =============================================================================

// rebuildMempool keeps only the pending transactions that are still valid
// against the new chain. Transactions signed against balances the new
// chain replaced can never be mined.
func (s *State) rebuildMempool(chain []database.Block) {
	pending := s.mempool.Copy()
	s.mempool.Truncate()

	for _, tx := range pending {
		if err := database.ValidatePendingTx(chain, tx, s.genesis); err != nil {
			s.evHandler("state: ReplaceChain: dropping tx[%s]: %s", tx.ID, err)
			continue
		}
		s.mempool.Upsert(tx)
	}
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(block)
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"length":%d,"block":%s}`, block.Hash, s.db.Length(), string(blockJSON))
}
