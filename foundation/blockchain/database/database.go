// Package database handles the in memory chain of blocks, the rules for
// validating blocks and transactions, and the replay of balances.
package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
)

// Database manages the chain of blocks for a node. The chain always
// starts with the genesis block and is only changed by appending a block
// or by swapping in a longer valid chain.
type Database struct {
	mu sync.RWMutex

	genesis   genesis.Genesis
	chain     []Block
	evHandler func(v string, args ...any)
}

// New constructs a database holding only the genesis block.
func New(gen genesis.Genesis, evHandler func(v string, args ...any)) *Database {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	db := Database{
		genesis:   gen,
		chain:     []Block{Genesis()},
		evHandler: ev,
	}

	return &db
}

// AddBlock mines a new block with the data on top of prevBlock and
// appends it. The caller validates the data against the chain ending in
// prevBlock. Mining happens without holding the lock. If the tip is no
// longer prevBlock when mining completes, the block is rejected with
// ErrChainChanged.
func (db *Database) AddBlock(ctx context.Context, prevBlock Block, data []Tx) (Block, error) {
	args := POWArgs{
		PrevBlock: prevBlock,
		Data:      data,
		MineRate:  db.genesis.MineRate,
		EvHandler: db.evHandler,
	}

	block, err := POW(ctx, args)
	if err != nil {
		return Block{}, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if tip := db.chain[len(db.chain)-1]; tip.Hash != prevBlock.Hash {
		return Block{}, fmt.Errorf("%w: mined on[%s] tip[%s]", ErrChainChanged, prevBlock.Hash, tip.Hash)
	}

	if err := db.validateNext(block); err != nil {
		return Block{}, err
	}

	db.chain = append(db.chain, block)
	db.evHandler("database: AddBlock: blk[%s]: length[%d]", block.Hash, len(db.chain))

	return block, nil
}

// Append validates a block mined elsewhere against the tip, including the
// transaction rules, and appends it.
func (db *Database) Append(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.validateNext(block); err != nil {
		return err
	}

	db.chain = append(db.chain, block)
	db.evHandler("database: Append: blk[%s]: length[%d]", block.Hash, len(db.chain))

	return nil
}

// validateNext checks the block and its transactions as the next block of
// the chain. The caller must hold the write lock.
func (db *Database) validateNext(block Block) error {
	if err := block.ValidateBlock(db.chain[len(db.chain)-1]); err != nil {
		return err
	}

	seen := make(map[string]struct{})
	for _, b := range db.chain {
		for _, tx := range b.Data {
			if !tx.IsReward() {
				seen[tx.ID] = struct{}{}
			}
		}
	}

	return validateBlockTxs(db.chain, block, seen, db.genesis)
}

// ReplaceChain swaps the local chain for the candidate if the candidate is
// strictly longer and fully valid. On any error the local chain is left
// untouched.
func (db *Database) ReplaceChain(candidate []Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if len(candidate) <= len(db.chain) {
		return fmt.Errorf("%w: local[%d] incoming[%d]", ErrChainTooShort, len(db.chain), len(candidate))
	}

	if err := ValidateChain(candidate, db.genesis); err != nil {
		return fmt.Errorf("%w: %w", ErrChainInvalid, err)
	}

	chain := make([]Block, len(candidate))
	copy(chain, candidate)
	db.chain = chain

	db.evHandler("database: ReplaceChain: length[%d]: tip[%s]", len(db.chain), db.chain[len(db.chain)-1].Hash)

	return nil
}

// =============================================================================

// Copy returns a copy of the chain.
func (db *Database) Copy() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	chain := make([]Block, len(db.chain))
	copy(chain, db.chain)

	return chain
}

// Length returns the number of blocks in the chain.
func (db *Database) Length() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.chain)
}

// LatestBlock returns the tip of the chain.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.chain[len(db.chain)-1]
}

// Genesis returns the genesis settings the chain is validated with.
func (db *Database) Genesis() genesis.Genesis {
	return db.genesis
}

// Balance replays the chain to calculate the balance of the address.
func (db *Database) Balance(address string) uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return CalculateBalance(db.chain, address, db.genesis.StartingBalance)
}

// KnownAddresses returns the sorted set of addresses found in the outputs
// of every transaction in the chain.
func (db *Database) KnownAddresses() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	known := make(map[string]struct{})
	for _, block := range db.chain {
		for _, tx := range block.Data {
			for addr := range tx.Output {
				known[addr] = struct{}{}
			}
		}
	}

	addrs := make([]string, 0, len(known))
	for addr := range known {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	return addrs
}
