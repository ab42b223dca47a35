package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
)

// Block represents a group of transactions secured by proof of work and
// linked to its predecessor by hash.
type Block struct {
	TimeStamp  int64  `json:"timestamp"`  // Time the block was mined in ns.
	LastHash   string `json:"last_hash"`  // Hash of the previous block in the chain.
	Hash       string `json:"hash"`       // Hash of this block's fields.
	Data       []Tx   `json:"data"`       // Transactions in the block.
	Nonce      uint64 `json:"nonce"`      // Value identified to solve the hash solution.
	Difficulty uint   `json:"difficulty"` // Number of leading zero bits required.
}

// Genesis returns the fixed first block of every chain.
func Genesis() Block {
	return Block{
		TimeStamp:  genesis.BlockTimeStamp,
		LastHash:   genesis.BlockLastHash,
		Hash:       genesis.BlockHash,
		Data:       []Tx{},
		Nonce:      genesis.BlockNonce,
		Difficulty: genesis.BlockDifficulty,
	}
}

// IsGenesis reports whether the block is exactly the genesis block.
func (b Block) IsGenesis() bool {
	g := Genesis()
	return b.TimeStamp == g.TimeStamp &&
		b.LastHash == g.LastHash &&
		b.Hash == g.Hash &&
		len(b.Data) == 0 &&
		b.Nonce == g.Nonce &&
		b.Difficulty == g.Difficulty
}

// ComputeHash derives the hash from the block's fields. The stored hash
// is carried data and is never re-derived without being compared.
func (b Block) ComputeHash() string {
	return signature.Hash(b.TimeStamp, b.LastHash, normalize(b.Data), b.Nonce, b.Difficulty)
}

// ValidateBlock takes a block and validates it against its predecessor.
// The checks are performed in a fixed order and the first violation
// is returned.
func (b Block) ValidateBlock(prevBlock Block) error {
	if b.LastHash != prevBlock.Hash {
		return fmt.Errorf("%w: got %s, exp %s", ErrLinkage, b.LastHash, prevBlock.Hash)
	}

	if b.Difficulty < 1 || !isHashSolved(b.Difficulty, b.Hash) {
		return fmt.Errorf("%w: hash %s, difficulty %d", ErrProofOfWork, b.Hash, b.Difficulty)
	}

	if diff(prevBlock.Difficulty, b.Difficulty) > 1 {
		return fmt.Errorf("%w: parent %d, block %d", ErrDifficultyJump, prevBlock.Difficulty, b.Difficulty)
	}

	if hash := b.ComputeHash(); b.Hash != hash {
		return fmt.Errorf("%w: got %s, exp %s", ErrHashMismatch, b.Hash, hash)
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("ts[%d] hash[%s] lastHash[%s] nonce[%d] difficulty[%d] txs[%d]", b.TimeStamp, b.Hash, b.LastHash, b.Nonce, b.Difficulty, len(b.Data))
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	PrevBlock Block
	Data      []Tx
	MineRate  time.Duration
	EvHandler func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the proof of work puzzle. The timestamp and difficulty are
// recomputed on every attempt. A cancelled context stops the search and
// no block is returned.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	data := normalize(args.Data)

	// The data doesn't change between attempts so it is encoded once.
	// Hashing the raw encoding produces the same digest as the Tx values.
	raw, err := json.Marshal(data)
	if err != nil {
		return Block{}, fmt.Errorf("encoding block data: %w", err)
	}
	rawData := json.RawMessage(raw)

	ev("database: POW: MINING: started: prevBlk[%s]: txs[%d]", args.PrevBlock.Hash, len(data))
	defer ev("database: POW: MINING: completed")

	for _, tx := range data {
		ev("database: POW: MINING: tx[%s]", tx)
	}

	var nonce uint64
	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: POW: MINING: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			ev("database: POW: MINING: CANCELLED")
			return Block{}, ctx.Err()
		}

		ts := time.Now().UnixNano()
		difficulty := AdjustDifficulty(args.PrevBlock, ts, args.MineRate)
		hash := signature.Hash(ts, args.PrevBlock.Hash, rawData, nonce, difficulty)

		if !isHashSolved(difficulty, hash) {
			nonce++
			continue
		}

		ev("database: POW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: difficulty[%d]: attempts[%d]", args.PrevBlock.Hash, hash, difficulty, attempts)

		nb := Block{
			TimeStamp:  ts,
			LastHash:   args.PrevBlock.Hash,
			Hash:       hash,
			Data:       data,
			Nonce:      nonce,
			Difficulty: difficulty,
		}

		return nb, nil
	}
}

// AdjustDifficulty calculates the difficulty for a block mined at the
// specified time. Mining faster than the mine rate raises the difficulty
// by one, otherwise it drops by one but never below one.
func AdjustDifficulty(prevBlock Block, timeStamp int64, mineRate time.Duration) uint {
	if timeStamp-prevBlock.TimeStamp < int64(mineRate) {
		return prevBlock.Difficulty + 1
	}

	if prevBlock.Difficulty <= 1 {
		return 1
	}

	return prevBlock.Difficulty - 1
}

// =============================================================================

// isHashSolved checks the hash to make sure it complies with the POW
// rules. The binary expansion needs difficulty leading zero bits.
func isHashSolved(difficulty uint, hash string) bool {
	return uint(signature.LeadingZeroBits(hash)) >= difficulty
}

// normalize makes sure empty data always encodes as an empty list.
func normalize(data []Tx) []Tx {
	if data == nil {
		return []Tx{}
	}
	return data
}

func diff(a, b uint) uint {
	if a > b {
		return a - b
	}
	return b - a
}
