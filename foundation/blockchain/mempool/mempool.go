// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"sort"
	"sync"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Mempool represents a cache of pending transactions organized by
// transaction id.
type Mempool struct {
	pool map[string]database.Tx
	mu   sync.RWMutex
}

// New constructs a new empty mempool.
func New() *Mempool {
	return &Mempool{
		pool: make(map[string]database.Tx),
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction from the mempool.
func (mp *Mempool) Upsert(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool[tx.ID] = tx

	return len(mp.pool)
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(tx database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, tx.ID)
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.Tx)
}

// ExistingTx returns the pending transaction sent by the address. If the
// address has more than one, the most recently signed one is returned.
func (mp *Mempool) ExistingTx(address string) (database.Tx, bool) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	var found database.Tx
	var exists bool
	for _, tx := range mp.pool {
		if tx.IsReward() || tx.Input.Signed.Address != address {
			continue
		}
		if !exists || newer(tx, found) {
			found = tx
			exists = true
		}
	}

	return found, exists
}

// Copy returns the pending transactions ordered by the time they were
// signed, with the id breaking ties.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	txs := make([]database.Tx, 0, len(mp.pool))
	for _, tx := range mp.pool {
		txs = append(txs, tx)
	}
	mp.mu.RUnlock()

	sortByTime(txs)

	return txs
}

// PickBest returns the transactions for the next block. Only the most
// recently signed transaction of each sender is picked since every one of
// them is signed against the same balance. Pass -1 for all of them.
func (mp *Mempool) PickBest(howMany int) []database.Tx {
	bySender := make(map[string]database.Tx)

	mp.mu.RLock()
	{
		for _, tx := range mp.pool {
			if tx.IsReward() {
				continue
			}
			addr := tx.Input.Signed.Address
			if cur, exists := bySender[addr]; !exists || newer(tx, cur) {
				bySender[addr] = tx
			}
		}
	}
	mp.mu.RUnlock()

	txs := make([]database.Tx, 0, len(bySender))
	for _, tx := range bySender {
		txs = append(txs, tx)
	}
	sortByTime(txs)

	if howMany >= 0 && howMany < len(txs) {
		txs = txs[:howMany]
	}

	return txs
}

// ClearConfirmed removes every transaction found in the blocks and returns
// the number removed.
func (mp *Mempool) ClearConfirmed(blocks []database.Block) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var removed int
	for _, block := range blocks {
		for _, tx := range block.Data {
			if _, exists := mp.pool[tx.ID]; exists {
				delete(mp.pool, tx.ID)
				removed++
			}
		}
	}

	return removed
}

// =============================================================================

// newer reports whether a was signed after b.
func newer(a, b database.Tx) bool {
	if a.Input.Signed.TimeStamp != b.Input.Signed.TimeStamp {
		return a.Input.Signed.TimeStamp > b.Input.Signed.TimeStamp
	}
	return a.ID > b.ID
}

func sortByTime(txs []database.Tx) {
	sort.Slice(txs, func(i, j int) bool {
		ti, tj := txs[i].Input.Signed.TimeStamp, txs[j].Input.Signed.TimeStamp
		if ti != tj {
			return ti < tj
		}
		return txs[i].ID < txs[j].ID
	})
}
