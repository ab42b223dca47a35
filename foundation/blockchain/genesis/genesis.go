// Package genesis maintains access to the genesis settings and the fixed
// genesis block values every node agrees on.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// These values define the genesis block. They are the trust anchor of the
// chain and must be identical on every node.
const (
	BlockTimeStamp  int64  = 1
	BlockLastHash          = "genesis_last_hash"
	BlockHash              = "genesis_hash"
	BlockNonce      uint64 = 0
	BlockDifficulty uint   = 3
)

// Default settings for a chain.
const (
	DefaultMineRate        = 4 * time.Second
	DefaultStartingBalance = 1000
	DefaultMiningReward    = 50
)

// Genesis represents the genesis settings.
type Genesis struct {
	Date            time.Time     `json:"date"`
	MineRate        time.Duration `json:"mine_rate"`        // Target interval between blocks.
	StartingBalance uint64        `json:"starting_balance"` // Balance of an address that has never sent.
	MiningReward    uint64        `json:"mining_reward"`    // Reward for mining a block.
}

// =============================================================================

// Default returns the standard genesis settings.
func Default() Genesis {
	return Genesis{
		Date:            time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		MineRate:        DefaultMineRate,
		StartingBalance: DefaultStartingBalance,
		MiningReward:    DefaultMiningReward,
	}
}

// Load opens and consumes the genesis file. Any setting left at its zero
// value takes the default.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis file: %w", err)
	}

	def := Default()
	if genesis.Date.IsZero() {
		genesis.Date = def.Date
	}
	if genesis.MineRate == 0 {
		genesis.MineRate = def.MineRate
	}
	if genesis.StartingBalance == 0 {
		genesis.StartingBalance = def.StartingBalance
	}
	if genesis.MiningReward == 0 {
		genesis.MiningReward = def.MiningReward
	}

	return genesis, nil
}
