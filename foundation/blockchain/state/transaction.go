package state

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Transact sends amount from the node's wallet to the recipient. If the
// wallet already has a pending transaction it is amended, otherwise a new
// transaction is signed against the wallet's balance on the chain.
func (s *State) Transact(recipient string, amount uint64) (database.Tx, error) {
	s.mu.Lock()

	chain := s.db.Copy()
	address := s.wallet.Address()

	tx, exists := s.mempool.ExistingTx(address)

	// A pending transaction signed against a balance the chain no longer
	// shows can't be mined, so it is replaced.
	if exists {
		if err := database.ValidatePendingTx(chain, tx, s.genesis); err != nil {
			s.evHandler("state: Transact: replacing stale tx[%s]: %s", tx.ID, err)
			s.mempool.Delete(tx)
			exists = false
		}
	}

	var err error
	switch {
	case exists:
		tx, err = tx.Update(s.wallet, recipient, amount)
	default:
		balance := database.CalculateBalance(chain, address, s.genesis.StartingBalance)
		tx, err = database.NewTx(s.wallet, balance, recipient, amount)
	}
	if err != nil {
		s.mu.Unlock()
		return database.Tx{}, err
	}

	if err := database.ValidatePendingTx(chain, tx, s.genesis); err != nil {
		s.mu.Unlock()
		return database.Tx{}, err
	}

	n := s.mempool.Upsert(tx)
	s.mu.Unlock()

	s.evHandler("state: Transact: tx[%s]: mempool[%d]", tx, n)

	s.Worker.SignalShareTx(tx)
	s.signalMining()

	return tx, nil
}

// UpsertWalletTransaction accepts a transaction signed by an external
// wallet for inclusion and shares it with the known peers.
func (s *State) UpsertWalletTransaction(tx database.Tx) error {
	n, err := s.pool(tx)
	if err != nil {
		return err
	}
	s.evHandler("state: UpsertWalletTransaction: tx[%s]: mempool[%d]", tx, n)

	s.Worker.SignalShareTx(tx)
	s.signalMining()

	return nil
}

// UpsertNodeTransaction accepts a transaction from a node for inclusion.
func (s *State) UpsertNodeTransaction(tx database.Tx) error {
	n, err := s.pool(tx)
	if err != nil {
		return err
	}
	s.evHandler("state: UpsertNodeTransaction: tx[%s]: mempool[%d]", tx, n)

	s.signalMining()

	return nil
}

// =============================================================================

// pool validates the transaction against the current chain and adds it
// to the mempool. The state lock keeps a chain replacement from
// rebuilding the pool in between.
func (s *State) pool(tx database.Tx) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := database.ValidatePendingTx(s.db.Copy(), tx, s.genesis); err != nil {
		return 0, err
	}

	return s.mempool.Upsert(tx), nil
}
